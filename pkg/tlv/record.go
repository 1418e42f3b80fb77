package tlv

// Kind describes how a record's payload is interpreted.
type Kind int

const (
	// KindBlob is a payload we don't know how to interpret. The raw bytes
	// are carried through decode and encode untouched so that metadata we
	// don't understand survives a round trip.
	KindBlob Kind = iota

	// KindContainer is a nested sequence of records.
	KindContainer

	// KindText is a UTF-16 big-endian string.
	KindText

	// KindUint32 is a 4-byte big-endian unsigned integer.
	KindUint32

	// KindUint16 is a 2-byte big-endian unsigned integer.
	KindUint16

	// KindFlag is a single byte, usually used as a boolean.
	KindFlag
)

// Record is one tagged field in the binary metadata format: a 4-byte ASCII
// tag, followed by a big-endian uint32 payload length, followed by the
// payload. Exactly one of the value fields is meaningful, selected by Kind.
//
// Record order within a sequence is significant. Several record types encode
// list membership purely by position, so callers must never reorder a
// decoded sequence.
type Record struct {
	Tag  string
	Kind Kind

	Text     string
	UInt     uint32
	Flag     byte
	Raw      []byte
	Children []Record
}

// NewText returns a text record.
func NewText(tag, value string) Record {
	return Record{Tag: tag, Kind: KindText, Text: value}
}

// NewUint32 returns a 4-byte integer record.
func NewUint32(tag string, value uint32) Record {
	return Record{Tag: tag, Kind: KindUint32, UInt: value}
}

// NewFlag returns a single-byte record.
func NewFlag(tag string, value byte) Record {
	return Record{Tag: tag, Kind: KindFlag, Flag: value}
}

// NewContainer returns a nested record.
func NewContainer(tag string, children ...Record) Record {
	return Record{Tag: tag, Kind: KindContainer, Children: children}
}

// Clone deep-copies a record sequence. Mutating the copy never affects the
// original, including through shared Children or Raw slices.
func Clone(records []Record) []Record {
	if records == nil {
		return nil
	}

	cloned := make([]Record, len(records))
	for i, record := range records {
		cloned[i] = record
		if record.Raw != nil {
			cloned[i].Raw = append([]byte(nil), record.Raw...)
		}
		cloned[i].Children = Clone(record.Children)
	}
	return cloned
}

// FindChild returns the first direct child with the given tag.
func (r Record) FindChild(tag string) (Record, bool) {
	for _, child := range r.Children {
		if child.Tag == tag {
			return child, true
		}
	}
	return Record{}, false
}
