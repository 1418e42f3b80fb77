package serato

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/tlv"
)

// Comparison names as stored in a rule's TagRuleComparison record.
const (
	CompIs          = "cond_is_str"
	CompIsNot       = "cond_isn_str"
	CompContains    = "cond_con_str"
	CompNotContains = "cond_dnc_str"
	CompBeginsWith  = "cond_bw_str"
	CompEndsWith    = "cond_ew_str"
	CompAtLeast     = "cond_grq_uint"
	CompAtMost      = "cond_lsq_uint"
	CompBefore      = "cond_bef_time"
	CompAfter       = "cond_aft_time"
)

// ruleFields maps a rule's numeric field key to the database tag it
// inspects.
var ruleFields = map[uint32]string{
	1:  TagDateAddedUint,
	2:  TagAlbum,
	3:  TagArtist,
	4:  TagBPM,
	5:  TagComment,
	6:  TagGrouping,
	7:  TagGenre,
	8:  TagKey,
	9:  TagLabel,
	10: TagSong,
	11: TagYear,
	12: TagFileType,
	13: TagFilePath,
}

// Matcher is one evaluated filter predicate. Matchers never error: a track
// that doesn't carry the inspected field simply doesn't match.
type Matcher interface {
	Matches(track Track) bool
}

// textMatcher compares a text field against a literal. Comparisons are
// case-insensitive, matching the application's own filter behavior.
type textMatcher struct {
	field string
	value string
	test  func(field, value string) bool
}

func (m textMatcher) Matches(track Track) bool {
	text, ok := track.TextField(m.field)
	if !ok {
		return false
	}
	return m.test(strings.ToLower(text), strings.ToLower(m.value))
}

// numericMatcher compares a numeric field against a literal. The format
// stores some numbers (bpm, year) as digit strings, which NumericField
// handles.
type numericMatcher struct {
	field string
	value uint32
	test  func(field, value uint32) bool
}

func (m numericMatcher) Matches(track Track) bool {
	value, ok := track.NumericField(m.field)
	if !ok {
		return false
	}
	return m.test(value, m.value)
}

// timeMatcher compares the track's date-added timestamp against a literal
// date.
type timeMatcher struct {
	field string
	value time.Time
	test  func(field, value time.Time) bool
}

func (m timeMatcher) Matches(track Track) bool {
	stamp, ok := track.UintField(m.field)
	if !ok {
		return false
	}
	return m.test(time.Unix(int64(stamp), 0).UTC(), m.value)
}

// allOf matches tracks satisfying every member. An empty allOf matches
// everything, which is what an unfiltered smart crate means.
type allOf []Matcher

func (m allOf) Matches(track Track) bool {
	for _, matcher := range m {
		if !matcher.Matches(track) {
			return false
		}
	}
	return true
}

// anyOf matches tracks satisfying at least one member.
type anyOf []Matcher

func (m anyOf) Matches(track Track) bool {
	for _, matcher := range m {
		if matcher.Matches(track) {
			return true
		}
	}
	return false
}

// parseRules extracts the combined filter predicate from a smart crate's
// records. The match-all flag selects whether rules are combined with AND
// or OR; it defaults to AND when absent, and is preserved from the source
// record rather than assumed.
func parseRules(c *Crate) (Matcher, error) {
	var matchers []Matcher
	matchAll := true

	for _, record := range c.records {
		switch record.Tag {
		case TagRuleMatchAll:
			matchAll = record.Flag != 0
		case TagRule:
			matcher, err := parseRule(record)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, matcher)
		}
	}

	if matchAll {
		return allOf(matchers), nil
	}
	if len(matchers) == 0 {
		// "Match any of zero rules" would match nothing; the application
		// treats a ruleless crate as match-everything either way.
		return allOf(nil), nil
	}
	return anyOf(matchers), nil
}

func parseRule(record tlv.Record) (Matcher, error) {
	fieldKey, ok := record.FindChild(TagRuleField)
	if !ok {
		return nil, errors.MalformedInput{Reason: "rule without a field key"}
	}
	field, ok := ruleFields[fieldKey.UInt]
	if !ok {
		return nil, errors.MalformedInput{
			Reason: fmt.Sprintf("rule references unknown field key %d", fieldKey.UInt),
		}
	}

	comparison, ok := record.FindChild(TagRuleComparison)
	if !ok {
		return nil, errors.MalformedInput{Reason: "rule without a comparison"}
	}

	switch comparison.Text {
	case CompIs:
		return textMatcher{field, ruleText(record), func(f, v string) bool { return f == v }}, nil
	case CompIsNot:
		return textMatcher{field, ruleText(record), func(f, v string) bool { return f != v }}, nil
	case CompContains:
		return textMatcher{field, ruleText(record), strings.Contains}, nil
	case CompNotContains:
		return textMatcher{field, ruleText(record),
			func(f, v string) bool { return !strings.Contains(f, v) }}, nil
	case CompBeginsWith:
		return textMatcher{field, ruleText(record), strings.HasPrefix}, nil
	case CompEndsWith:
		return textMatcher{field, ruleText(record), strings.HasSuffix}, nil
	case CompAtLeast:
		value, err := ruleNumber(record)
		if err != nil {
			return nil, err
		}
		return numericMatcher{field, value, func(f, v uint32) bool { return f >= v }}, nil
	case CompAtMost:
		value, err := ruleNumber(record)
		if err != nil {
			return nil, err
		}
		return numericMatcher{field, value, func(f, v uint32) bool { return f <= v }}, nil
	case CompBefore:
		value, err := ruleDate(record)
		if err != nil {
			return nil, err
		}
		return timeMatcher{field, value, time.Time.Before}, nil
	case CompAfter:
		value, err := ruleDate(record)
		if err != nil {
			return nil, err
		}
		return timeMatcher{field, value, time.Time.After}, nil
	}

	return nil, errors.MalformedInput{
		Reason: fmt.Sprintf("unknown rule comparison %q", comparison.Text),
	}
}

func ruleText(record tlv.Record) string {
	child, _ := record.FindChild(TagRuleValueText)
	return child.Text
}

func ruleNumber(record tlv.Record) (uint32, error) {
	if child, ok := record.FindChild(TagRuleValueInteger); ok {
		return child.UInt, nil
	}

	// Some writers store numeric rule values as digit strings.
	if child, ok := record.FindChild(TagRuleValueText); ok {
		value, err := strconv.ParseUint(child.Text, 10, 32)
		if err != nil {
			return 0, errors.MalformedInput{
				Reason: fmt.Sprintf("rule value %q is not a number", child.Text),
			}
		}
		return uint32(value), nil
	}
	return 0, errors.MalformedInput{Reason: "numeric rule without a value"}
}

func ruleDate(record tlv.Record) (time.Time, error) {
	child, ok := record.FindChild(TagRuleValueDate)
	if !ok {
		return time.Time{}, errors.MalformedInput{Reason: "date rule without a value"}
	}

	parsed, err := time.Parse("2006-01-02", child.Text)
	if err != nil {
		return time.Time{}, errors.MalformedInput{
			Reason: fmt.Sprintf("rule date %q is not in YYYY-MM-DD form", child.Text),
		}
	}
	return parsed, nil
}

// Resolve evaluates smart's filter rules against every track in db and
// returns a regular crate referencing the matches, in database order. The
// rule and flag records are stripped from the result; sort order and column
// layout are carried over.
//
// pathFor chooses the path stored for each matched track, which lets the
// caller evaluate rules against one view of the database while writing
// paths from another. Passing nil stores the database's own paths. The
// source database is never mutated. Zero matches is a valid, empty result.
func Resolve(smart *Crate, db *Database, pathFor func(Track) string) (*Crate, error) {
	matcher, err := parseRules(smart)
	if err != nil {
		return nil, errors.WithContext(err, "parse rules")
	}
	if pathFor == nil {
		pathFor = Track.FilePath
	}

	out := smart.ToRegular()

	// Membership is computed from the rules, so drop any track references
	// the source happened to carry.
	kept := out.records[:0]
	for _, record := range out.records {
		if record.Tag != TagTrack {
			kept = append(kept, record)
		}
	}
	out.records = kept

	for _, track := range db.Tracks() {
		if matcher.Matches(track) {
			out.AppendTrack(pathFor(track))
		}
	}
	return out, nil
}
