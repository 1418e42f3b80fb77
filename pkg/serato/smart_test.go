package serato

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/tlv"
)

func rule(fieldKey uint32, comparison string, value tlv.Record) tlv.Record {
	return tlv.NewContainer(TagRule,
		tlv.NewUint32(TagRuleField, fieldKey),
		tlv.NewText(TagRuleComparison, comparison),
		value)
}

func smartCrateBytes(matchAll byte, rules ...tlv.Record) []byte {
	records := []tlv.Record{
		tlv.NewText(TagVersion, smartCrateVersion),
		tlv.NewFlag(TagRuleMatchAll, matchAll),
		tlv.NewFlag(TagRuleLiveUpdate, 1),
		tlv.NewContainer(TagSortBy,
			tlv.NewText(TagColumnName, "song"),
			tlv.NewFlag(TagSortReverse, 0)),
	}
	records = append(records, rules...)
	return tlv.Encode(records)
}

func testDatabase(t *testing.T) *Database {
	t.Helper()

	raw := databaseBytes(
		trackRecord("Users/x/Music/one.mp3",
			tlv.NewText(TagGenre, "House"),
			tlv.NewText(TagArtist, "Alpha"),
			tlv.NewText(TagBPM, "124"),
			tlv.NewUint32(TagDateAddedUint, 1577836800)), // 2020-01-01
		trackRecord("Users/x/Music/two.mp3",
			tlv.NewText(TagGenre, "Techno"),
			tlv.NewText(TagArtist, "Beta"),
			tlv.NewText(TagBPM, "132"),
			tlv.NewUint32(TagDateAddedUint, 1609459200)), // 2021-01-01
		trackRecord("Users/x/Music/three.mp3",
			tlv.NewText(TagGenre, "House"),
			tlv.NewText(TagArtist, "Gamma"),
			tlv.NewText(TagBPM, "120")),
	)

	records, err := NewDecoder(false).Decode(raw)
	require.NoError(t, err)
	return &Database{records: records}
}

func resolvedPaths(t *testing.T, crate *Crate) []string {
	t.Helper()

	var paths []string
	for _, track := range crate.Tracks() {
		paths = append(paths, track.Path())
	}
	return paths
}

func TestResolve(t *testing.T) {
	db := testDatabase(t)

	genreKey := uint32(7)
	artistKey := uint32(3)
	bpmKey := uint32(4)
	addedKey := uint32(1)

	tests := []struct {
		name     string
		raw      []byte
		expPaths []string
	}{
		{
			name: "GenreEquals",
			raw: smartCrateBytes(1,
				rule(genreKey, CompIs, tlv.NewText(TagRuleValueText, "House"))),
			expPaths: []string{"Users/x/Music/one.mp3", "Users/x/Music/three.mp3"},
		},
		{
			name: "CaseInsensitiveText",
			raw: smartCrateBytes(1,
				rule(genreKey, CompIs, tlv.NewText(TagRuleValueText, "house"))),
			expPaths: []string{"Users/x/Music/one.mp3", "Users/x/Music/three.mp3"},
		},
		{
			name: "MatchAllCombinesWithAnd",
			raw: smartCrateBytes(1,
				rule(genreKey, CompIs, tlv.NewText(TagRuleValueText, "House")),
				rule(artistKey, CompIs, tlv.NewText(TagRuleValueText, "Alpha"))),
			expPaths: []string{"Users/x/Music/one.mp3"},
		},
		{
			name: "MatchAnyCombinesWithOr",
			raw: smartCrateBytes(0,
				rule(genreKey, CompIs, tlv.NewText(TagRuleValueText, "Techno")),
				rule(artistKey, CompIs, tlv.NewText(TagRuleValueText, "Gamma"))),
			expPaths: []string{"Users/x/Music/two.mp3", "Users/x/Music/three.mp3"},
		},
		{
			name: "Contains",
			raw: smartCrateBytes(1,
				rule(artistKey, CompContains, tlv.NewText(TagRuleValueText, "amm"))),
			expPaths: []string{"Users/x/Music/three.mp3"},
		},
		{
			name: "BpmAtLeast",
			raw: smartCrateBytes(1,
				rule(bpmKey, CompAtLeast, tlv.NewUint32(TagRuleValueInteger, 124))),
			expPaths: []string{"Users/x/Music/one.mp3", "Users/x/Music/two.mp3"},
		},
		{
			name: "AddedAfter",
			raw: smartCrateBytes(1,
				rule(addedKey, CompAfter, tlv.NewText(TagRuleValueDate, "2020-06-01"))),
			// Track three has no date-added field: absence is non-matching.
			expPaths: []string{"Users/x/Music/two.mp3"},
		},
		{
			name: "EmptyMatchSet",
			raw: smartCrateBytes(1,
				rule(genreKey, CompIs, tlv.NewText(TagRuleValueText, "Jazz"))),
			expPaths: nil,
		},
		{
			name:     "NoRulesMatchesEverything",
			raw:      smartCrateBytes(1),
			expPaths: []string{"Users/x/Music/one.mp3", "Users/x/Music/two.mp3", "Users/x/Music/three.mp3"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			smart, err := DecodeCrate(test.raw)
			require.NoError(t, err)
			require.True(t, smart.IsSmart())

			resolved, err := Resolve(smart, db, nil)
			require.NoError(t, err)

			assert.Equal(t, test.expPaths, resolvedPaths(t, resolved))
			assert.False(t, resolved.IsSmart(),
				"resolved crate must not carry the smart-crate marker")

			// Resolving never mutates the source crate or database.
			assert.Equal(t, test.raw, smart.Encode())
			assert.Equal(t, "Users/x/Music/one.mp3", db.Tracks()[0].FilePath())
		})
	}
}

func TestResolvePathFor(t *testing.T) {
	db := testDatabase(t)

	smart, err := DecodeCrate(smartCrateBytes(1,
		rule(7, CompIs, tlv.NewText(TagRuleValueText, "House"))))
	require.NoError(t, err)

	resolved, err := Resolve(smart, db, func(track Track) string {
		return "Music/remapped-" + track.FilePath()[len("Users/x/Music/"):]
	})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"Music/remapped-one.mp3", "Music/remapped-three.mp3"},
		resolvedPaths(t, resolved))
}

func TestResolvePreservesSortSettings(t *testing.T) {
	db := testDatabase(t)

	smart, err := DecodeCrate(smartCrateBytes(1,
		rule(7, CompIs, tlv.NewText(TagRuleValueText, "House"))))
	require.NoError(t, err)

	resolved, err := Resolve(smart, db, nil)
	require.NoError(t, err)

	var sortRecords int
	for _, record := range resolved.records {
		switch record.Tag {
		case TagSortBy:
			sortRecords++
		case TagVersion:
			assert.Equal(t, crateVersion, record.Text)
		case TagRule, TagRuleMatchAll, TagRuleLiveUpdate:
			t.Errorf("smart-crate record %q leaked into the resolved crate", record.Tag)
		}
	}
	assert.Equal(t, 1, sortRecords)
}

func TestResolveBadRules(t *testing.T) {
	db := testDatabase(t)

	tests := []struct {
		name string
		raw  []byte
	}{
		{
			name: "UnknownComparison",
			raw: smartCrateBytes(1,
				rule(7, "cond_frobnicate", tlv.NewText(TagRuleValueText, "x"))),
		},
		{
			name: "UnknownFieldKey",
			raw: smartCrateBytes(1,
				rule(999, CompIs, tlv.NewText(TagRuleValueText, "x"))),
		},
		{
			name: "BadDate",
			raw: smartCrateBytes(1,
				rule(1, CompAfter, tlv.NewText(TagRuleValueDate, "January 2020"))),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			smart, err := DecodeCrate(test.raw)
			require.NoError(t, err)

			_, err = Resolve(smart, db, nil)
			require.Error(t, err)
			assert.IsType(t, errors.MalformedInput{}, errors.RootCause(err))
		})
	}
}
