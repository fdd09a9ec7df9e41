package timing

import (
	"encoding/binary"
	"fmt"
	"time"
)

// PTPMessageType is one of the IEEE 1588-style message kinds AirPlay 2's
// timing port exchanges (§4.5).
type PTPMessageType uint8

const (
	PTPSync PTPMessageType = iota
	PTPFollowUp
	PTPDelayReq
	PTPDelayResp
)

func (t PTPMessageType) String() string {
	switch t {
	case PTPSync:
		return "Sync"
	case PTPFollowUp:
		return "Follow_Up"
	case PTPDelayReq:
		return "Delay_Req"
	case PTPDelayResp:
		return "Delay_Resp"
	default:
		return "Unknown"
	}
}

// Timestamp is the canonical 80-bit PTP timestamp representation: 48 bits
// of whole seconds (stored widened to 64 for arithmetic convenience) plus
// 32 bits of nanoseconds.
type Timestamp struct {
	Seconds     uint64
	Nanoseconds uint32
}

// TimestampFromTime converts a time.Time to the canonical representation.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: uint64(t.Unix()), Nanoseconds: uint32(t.Nanosecond())}
}

// Time converts back to a time.Time (UTC).
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t.Seconds), int64(t.Nanoseconds)).UTC()
}

// CompactTimestamp is AirPlay's space-saving 48.16 fixed-point variant: the
// top 48 bits are whole seconds, the low 16 bits are a fractional second in
// units of 1/65536s.
type CompactTimestamp uint64

// EncodeCompact converts t to the 48.16 representation.
func EncodeCompact(t time.Time) CompactTimestamp {
	secs := uint64(t.Unix())
	frac := uint64(t.Nanosecond()) * 65536 / 1000000000
	return CompactTimestamp(secs<<16 | (frac & 0xFFFF))
}

// DecodeCompact converts a 48.16 timestamp back to a time.Time (UTC).
func DecodeCompact(c CompactTimestamp) time.Time {
	secs := int64(c >> 16)
	frac := uint64(c & 0xFFFF)
	nanos := int64(frac * 1000000000 / 65536)
	return time.Unix(secs, nanos).UTC()
}

// messageWireSize is type(1) + sequenceID(2) + seconds(6) + nanoseconds(4).
const messageWireSize = 1 + 2 + 6 + 4

// Message is one PTP protocol message.
type Message struct {
	Type            PTPMessageType
	SequenceID      uint16
	OriginTimestamp Timestamp
}

// Marshal encodes m to its wire representation.
func (m Message) Marshal() []byte {
	out := make([]byte, messageWireSize)
	out[0] = byte(m.Type)
	binary.BigEndian.PutUint16(out[1:3], m.SequenceID)
	// 48-bit seconds field, big-endian.
	secs := m.OriginTimestamp.Seconds
	out[3] = byte(secs >> 40)
	out[4] = byte(secs >> 32)
	out[5] = byte(secs >> 24)
	out[6] = byte(secs >> 16)
	out[7] = byte(secs >> 8)
	out[8] = byte(secs)
	binary.BigEndian.PutUint32(out[9:13], m.OriginTimestamp.Nanoseconds)
	return out
}

// Unmarshal decodes a wire-format PTP message.
func Unmarshal(wire []byte) (Message, error) {
	if len(wire) < messageWireSize {
		return Message{}, fmt.Errorf("timing: ptp message too short (%d bytes)", len(wire))
	}
	secs := uint64(wire[3])<<40 | uint64(wire[4])<<32 | uint64(wire[5])<<24 |
		uint64(wire[6])<<16 | uint64(wire[7])<<8 | uint64(wire[8])
	return Message{
		Type:       PTPMessageType(wire[0]),
		SequenceID: binary.BigEndian.Uint16(wire[1:3]),
		OriginTimestamp: Timestamp{
			Seconds:     secs,
			Nanoseconds: binary.BigEndian.Uint32(wire[9:13]),
		},
	}, nil
}
