package tlv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/cratedrop/seratosync/pkg/errors"
)

const headerLen = 8

// Registry decides how the payload of each tag is interpreted. By default
// the first character of the tag selects the kind ('o' container, 't'/'p'/'v'
// text, 'u' uint32, 's' uint16, 'b' flag), matching the format's naming
// convention. Overrides handle the tags that don't follow it.
type Registry struct {
	overrides map[string]Kind
}

// NewRegistry returns a registry with the given tag-specific overrides.
func NewRegistry(overrides map[string]Kind) Registry {
	return Registry{overrides: overrides}
}

// Kind returns the payload kind for tag, and whether the tag is known at
// all. Unknown tags decode as opaque blobs in permissive mode.
func (r Registry) Kind(tag string) (Kind, bool) {
	if kind, ok := r.overrides[tag]; ok {
		return kind, true
	}

	if len(tag) == 0 {
		return KindBlob, false
	}
	switch tag[0] {
	case 'o':
		return KindContainer, true
	case 't', 'p', 'v':
		return KindText, true
	case 'u':
		return KindUint32, true
	case 's':
		return KindUint16, true
	case 'b':
		return KindFlag, true
	}
	return KindBlob, false
}

// Decoder parses a byte stream into a sequence of records.
//
// In permissive mode (the default), unknown tags and payloads that don't
// match their expected shape are preserved as opaque blobs rather than
// rejected, so that metadata we don't understand passes through a
// decode/modify/encode cycle unchanged. Strict mode turns both cases into
// MalformedInput errors.
type Decoder struct {
	Registry Registry
	Strict   bool
}

// Decode parses b into an ordered sequence of records. The input must
// consist of whole records: a length field that would read past the end of
// the buffer is a MalformedInput error in either mode.
func (d Decoder) Decode(b []byte) ([]Record, error) {
	var records []Record
	for len(b) > 0 {
		if len(b) < headerLen {
			return nil, errors.MalformedInput{
				Reason: fmt.Sprintf("%d trailing bytes, expected a record header", len(b)),
			}
		}

		tag := string(b[:4])
		payloadLen := binary.BigEndian.Uint32(b[4:8])
		if uint64(payloadLen) > uint64(len(b)-headerLen) {
			return nil, errors.MalformedInput{
				Reason: fmt.Sprintf("record %q declares %d payload bytes but only %d remain",
					tag, payloadLen, len(b)-headerLen),
			}
		}
		payload := b[headerLen : headerLen+int(payloadLen)]
		b = b[headerLen+int(payloadLen):]

		record, err := d.decodeRecord(tag, payload)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (d Decoder) decodeRecord(tag string, payload []byte) (Record, error) {
	kind, known := d.Registry.Kind(tag)
	if !known {
		if d.Strict {
			return Record{}, errors.MalformedInput{
				Reason: fmt.Sprintf("unknown tag %q", tag),
			}
		}
		return blob(tag, payload), nil
	}

	switch kind {
	case KindContainer:
		children, err := d.Decode(payload)
		if err != nil {
			if d.Strict {
				return Record{}, errors.WithContext(err, fmt.Sprintf("decode %q", tag))
			}
			return blob(tag, payload), nil
		}
		return Record{Tag: tag, Kind: KindContainer, Children: children}, nil

	case KindText:
		if len(payload)%2 != 0 {
			return d.badShape(tag, payload, "odd UTF-16 payload length")
		}
		codeUnits := make([]uint16, len(payload)/2)
		for i := range codeUnits {
			codeUnits[i] = binary.BigEndian.Uint16(payload[i*2:])
		}
		// An unpaired surrogate would decode to U+FFFD and re-encode as
		// different bytes, so it has to stay opaque to round-trip.
		if !wellFormedUTF16(codeUnits) {
			return d.badShape(tag, payload, "unpaired UTF-16 surrogate")
		}
		return Record{Tag: tag, Kind: KindText, Text: string(utf16.Decode(codeUnits))}, nil

	case KindUint32:
		if len(payload) != 4 {
			return d.badShape(tag, payload, "expected a 4-byte integer")
		}
		return Record{Tag: tag, Kind: KindUint32, UInt: binary.BigEndian.Uint32(payload)}, nil

	case KindUint16:
		if len(payload) != 2 {
			return d.badShape(tag, payload, "expected a 2-byte integer")
		}
		return Record{Tag: tag, Kind: KindUint16,
			UInt: uint32(binary.BigEndian.Uint16(payload))}, nil

	case KindFlag:
		if len(payload) != 1 {
			return d.badShape(tag, payload, "expected a single byte")
		}
		return Record{Tag: tag, Kind: KindFlag, Flag: payload[0]}, nil
	}

	return blob(tag, payload), nil
}

func (d Decoder) badShape(tag string, payload []byte, reason string) (Record, error) {
	if d.Strict {
		return Record{}, errors.MalformedInput{
			Reason: fmt.Sprintf("record %q: %s", tag, reason),
		}
	}
	return blob(tag, payload), nil
}

// wellFormedUTF16 reports whether every surrogate code unit is part of a
// high/low pair.
func wellFormedUTF16(codeUnits []uint16) bool {
	for i := 0; i < len(codeUnits); i++ {
		switch {
		case codeUnits[i] >= 0xD800 && codeUnits[i] < 0xDC00:
			if i+1 >= len(codeUnits) ||
				codeUnits[i+1] < 0xDC00 || codeUnits[i+1] >= 0xE000 {
				return false
			}
			i++
		case codeUnits[i] >= 0xDC00 && codeUnits[i] < 0xE000:
			return false
		}
	}
	return true
}

func blob(tag string, payload []byte) Record {
	raw := make([]byte, len(payload))
	copy(raw, payload)
	return Record{Tag: tag, Kind: KindBlob, Raw: raw}
}

// Encode serializes records back into the binary format. For any sequence
// produced by Decode, Encode returns the exact bytes that were decoded.
func Encode(records []Record) []byte {
	var buf bytes.Buffer
	for _, record := range records {
		payload := encodePayload(record)

		buf.WriteString(record.Tag)
		var lenBytes [4]byte
		binary.BigEndian.PutUint32(lenBytes[:], uint32(len(payload)))
		buf.Write(lenBytes[:])
		buf.Write(payload)
	}
	return buf.Bytes()
}

func encodePayload(record Record) []byte {
	switch record.Kind {
	case KindContainer:
		return Encode(record.Children)
	case KindText:
		codeUnits := utf16.Encode([]rune(record.Text))
		payload := make([]byte, len(codeUnits)*2)
		for i, unit := range codeUnits {
			binary.BigEndian.PutUint16(payload[i*2:], unit)
		}
		return payload
	case KindUint32:
		var payload [4]byte
		binary.BigEndian.PutUint32(payload[:], record.UInt)
		return payload[:]
	case KindUint16:
		var payload [2]byte
		binary.BigEndian.PutUint16(payload[:], uint16(record.UInt))
		return payload[:]
	case KindFlag:
		return []byte{record.Flag}
	}
	return record.Raw
}
