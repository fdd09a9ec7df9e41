// Package tlv8 implements the HomeKit-style type-length-value codec used by
// AirPlay 2 pairing messages (§4.1, §6). No ecosystem implementation of this
// wire format is present in the retrieved example corpus; this is hand-rolled
// from spec.md directly — see DESIGN.md's "crypto/tlv8" entry.
package tlv8

import "errors"

// Type is a single TLV8 record's 1-byte type tag.
type Type byte

// Registered types (§6).
const (
	Method        Type = 0x00
	Identifier    Type = 0x01
	Salt          Type = 0x02
	PublicKey     Type = 0x03
	Proof         Type = 0x04
	EncryptedData Type = 0x05
	State         Type = 0x06
	Error         Type = 0x07
	RetryDelay    Type = 0x08
	Certificate   Type = 0x09
	Signature     Type = 0x0A
	Permissions   Type = 0x0B
	FragmentData  Type = 0x0C
	FragmentLast  Type = 0x0D
	SessionID     Type = 0x0E
	Flags         Type = 0x13
	Separator     Type = 0xFF
)

const maxChunkLen = 255

// ErrTruncated is returned when a buffer ends mid-record.
var ErrTruncated = errors.New("tlv8: truncated record")

// Item is one decoded, fully-reassembled TLV8 value.
type Item struct {
	Type  Type
	Value []byte
}

// Encode serializes items in order, fragmenting any value longer than 255
// bytes across consecutive same-type records, per §4.1.
func Encode(items []Item) []byte {
	var out []byte
	for _, it := range items {
		out = append(out, encodeOne(it.Type, it.Value)...)
	}
	return out
}

func encodeOne(t Type, value []byte) []byte {
	if len(value) == 0 {
		return []byte{byte(t), 0}
	}
	var out []byte
	for off := 0; off < len(value); off += maxChunkLen {
		end := off + maxChunkLen
		if end > len(value) {
			end = len(value)
		}
		chunk := value[off:end]
		out = append(out, byte(t), byte(len(chunk)))
		out = append(out, chunk...)
	}
	return out
}

// Decode parses buf into a list of items, reassembling fragmented values
// (consecutive records sharing the same type) by concatenation. Empty
// values (length 0) are legal and decode to a zero-length Value.
func Decode(buf []byte) ([]Item, error) {
	var raw []Item
	i := 0
	for i < len(buf) {
		if i+2 > len(buf) {
			return nil, ErrTruncated
		}
		t := Type(buf[i])
		n := int(buf[i+1])
		i += 2
		if i+n > len(buf) {
			return nil, ErrTruncated
		}
		raw = append(raw, Item{Type: t, Value: buf[i : i+n : i+n]})
		i += n
	}
	return reassemble(raw), nil
}

// reassemble merges consecutive same-type records. A fragmented value is a
// run of same-type records where every chunk but the last is exactly 255
// bytes long; a 255-byte value that happens to not continue is indistinguishable
// from a fragment boundary only by the next record's type, matching the
// wire format's own ambiguity (the spec resolves it via "concatenate
// consecutive records of the same type").
func reassemble(raw []Item) []Item {
	var out []Item
	i := 0
	for i < len(raw) {
		t := raw[i].Type
		value := append([]byte{}, raw[i].Value...)
		j := i + 1
		for j < len(raw) && raw[j].Type == t && len(raw[j-1].Value) == maxChunkLen {
			value = append(value, raw[j].Value...)
			j++
		}
		out = append(out, Item{Type: t, Value: value})
		i = j
	}
	return out
}

// Find returns the first item of type t, if present.
func Find(items []Item, t Type) ([]byte, bool) {
	for _, it := range items {
		if it.Type == t {
			return it.Value, true
		}
	}
	return nil, false
}
