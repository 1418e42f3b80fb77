package serato

import (
	"github.com/spf13/afero"

	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/tlv"
)

// Crate is a named ordered track list. Everything that isn't a track path
// or a smart-crate record (sort order, column layout, fields we don't know
// about) is preserved verbatim through a load/modify/save cycle.
type Crate struct {
	records []tlv.Record
}

// DecodeCrate parses the raw bytes of a crate file.
func DecodeCrate(raw []byte) (*Crate, error) {
	records, err := NewDecoder(false).Decode(raw)
	if err != nil {
		return nil, errors.WithContext(err, "decode crate")
	}
	return &Crate{records: records}, nil
}

// Encode serializes the crate back into its binary form.
func (c *Crate) Encode() []byte {
	return tlv.Encode(c.records)
}

// Save writes the encoded crate to path, creating parent directories as
// needed.
func (c *Crate) Save(fs afero.Fs, path string) error {
	return writeFile(fs, path, c.Encode())
}

// Clone deep-copies the crate.
func (c *Crate) Clone() *Crate {
	return &Crate{records: tlv.Clone(c.records)}
}

// IsSmart reports whether this crate's membership is defined by filter
// rules. The marker is any smart-crate record in the top-level sequence.
func (c *Crate) IsSmart() bool {
	for _, record := range c.records {
		switch record.Tag {
		case TagRule, TagRuleMatchAll, TagRuleLiveUpdate:
			return true
		}
	}
	return false
}

// Tracks returns mutable views over the crate's track references, in stored
// order.
func (c *Crate) Tracks() []CrateTrack {
	var tracks []CrateTrack
	for i := range c.records {
		if c.records[i].Tag == TagTrack {
			tracks = append(tracks, CrateTrack{record: &c.records[i]})
		}
	}
	return tracks
}

// AppendTrack adds a track reference at the end of the crate.
func (c *Crate) AppendTrack(path string) {
	c.records = append(c.records,
		tlv.NewContainer(TagTrack, tlv.NewText(TagTrackPath, path)))
}

// ToRegular returns a copy of the crate with the smart-crate records
// stripped and the version flipped to the regular crate type. Track
// references, sort order, and column layout are carried over; rule records
// are dropped because the format rejects filter data inside a regular
// crate.
func (c *Crate) ToRegular() *Crate {
	out := &Crate{}
	for _, record := range tlv.Clone(c.records) {
		switch record.Tag {
		case TagRule, TagRuleMatchAll, TagRuleLiveUpdate:
			continue
		case TagVersion:
			record.Text = crateVersion
		}
		out.records = append(out.records, record)
	}
	return out
}

// CrateTrack is a mutable view over one track reference in a crate.
type CrateTrack struct {
	record *tlv.Record
}

// Path returns the stored track path.
func (t CrateTrack) Path() string {
	child, _ := t.record.FindChild(TagTrackPath)
	return child.Text
}

// SetPath rewrites the stored track path in place.
func (t CrateTrack) SetPath(path string) {
	for i := range t.record.Children {
		child := &t.record.Children[i]
		if child.Tag == TagTrackPath && child.Kind == tlv.KindText {
			child.Text = path
			return
		}
	}
}
