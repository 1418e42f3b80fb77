package serato

import (
	"os"
	"strconv"

	"github.com/spf13/afero"

	"github.com/cratedrop/seratosync/pkg/errors"
	"github.com/cratedrop/seratosync/pkg/tlv"
)

// Database is the authoritative track metadata store for a library: an
// ordered sequence of track records, one per known track. Record order is
// preserved exactly between load and save.
type Database struct {
	records []tlv.Record
}

// LoadDatabase reads and decodes the "database V2" file at path.
func LoadDatabase(fs afero.Fs, path string) (*Database, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: path}
		}
		return nil, errors.WithContext(err, "read database")
	}

	records, err := NewDecoder(false).Decode(raw)
	if err != nil {
		return nil, errors.WithContext(err, "decode database")
	}
	return &Database{records: records}, nil
}

// Encode serializes the database back into its binary form.
func (db *Database) Encode() []byte {
	return tlv.Encode(db.records)
}

// Save writes the encoded database to path, creating parent directories as
// needed.
func (db *Database) Save(fs afero.Fs, path string) error {
	return writeFile(fs, path, db.Encode())
}

// Clone deep-copies the database. The sync pipeline keeps a pre-remap and a
// post-remap view side by side, so the copies must not share any mutable
// state.
func (db *Database) Clone() *Database {
	return &Database{records: tlv.Clone(db.records)}
}

// Tracks returns mutable views over every track record, in database order.
// A Track's ID is its position in that order. The ID is the stable identity
// used to correlate pre-remap and post-remap views of the same track, since
// the path itself changes between them.
func (db *Database) Tracks() []Track {
	var tracks []Track
	for i := range db.records {
		if db.records[i].Tag != TagTrack {
			continue
		}
		tracks = append(tracks, Track{record: &db.records[i], id: len(tracks)})
	}
	return tracks
}

// Track is a mutable view over one track record in a Database.
type Track struct {
	record *tlv.Record
	id     int
}

// ID is the track's position in database order. It's stable across path
// remapping.
func (t Track) ID() int {
	return t.id
}

// FilePath returns the track's stored file path. Stored paths have no
// leading separator by convention.
func (t Track) FilePath() string {
	path, _ := t.TextField(TagFilePath)
	return path
}

// SetFilePath rewrites the track's stored file path in place.
func (t Track) SetFilePath(path string) {
	t.setText(TagFilePath, path)
}

// TextField returns the track's text field with the given tag, reporting
// whether the track carries it at all.
func (t Track) TextField(tag string) (string, bool) {
	child, ok := t.record.FindChild(tag)
	if !ok || child.Kind != tlv.KindText {
		return "", false
	}
	return child.Text, true
}

// UintField returns the track's integer field with the given tag.
func (t Track) UintField(tag string) (uint32, bool) {
	child, ok := t.record.FindChild(tag)
	if !ok || (child.Kind != tlv.KindUint32 && child.Kind != tlv.KindUint16) {
		return 0, false
	}
	return child.UInt, true
}

// NumericField returns the field as a number regardless of whether the
// format stores it as an integer record or as digits in a text record
// (bpm and year are text).
func (t Track) NumericField(tag string) (uint32, bool) {
	if value, ok := t.UintField(tag); ok {
		return value, true
	}
	if text, ok := t.TextField(tag); ok {
		if value, err := strconv.ParseUint(text, 10, 32); err == nil {
			return uint32(value), true
		}
	}
	return 0, false
}

// SetFlag sets a single-byte field if the track carries it. Tracks that
// don't have the field are left alone so that unmodified records stay
// byte-identical.
func (t Track) SetFlag(tag string, value byte) {
	for i := range t.record.Children {
		child := &t.record.Children[i]
		if child.Tag == tag && child.Kind == tlv.KindFlag {
			child.Flag = value
			return
		}
	}
}

func (t Track) setText(tag, value string) {
	for i := range t.record.Children {
		child := &t.record.Children[i]
		if child.Tag == tag && child.Kind == tlv.KindText {
			child.Text = value
			return
		}
	}
}
