package rtp

import "encoding/binary"

// RetransmitRequest is the control-channel payload a receiver sends when it
// detects a hole: a contiguous run of missing sequence numbers (§4.4, §4.5).
type RetransmitRequest struct {
	SeqStart uint16
	Count    uint16
}

// MarshalRetransmitRequest encodes r as the 4-byte payload carried under
// PayloadTypeRetransmitRequest.
func MarshalRetransmitRequest(r RetransmitRequest) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint16(out[0:2], r.SeqStart)
	binary.BigEndian.PutUint16(out[2:4], r.Count)
	return out
}

// UnmarshalRetransmitRequest decodes a retransmit request payload.
func UnmarshalRetransmitRequest(payload []byte) (RetransmitRequest, error) {
	if len(payload) < 4 {
		return RetransmitRequest{}, newErr(MalformedPacket, "retransmit request payload too short (%d bytes)", len(payload))
	}
	return RetransmitRequest{
		SeqStart: binary.BigEndian.Uint16(payload[0:2]),
		Count:    binary.BigEndian.Uint16(payload[2:4]),
	}, nil
}

// SendBuffer retains the last N packets a sender transmitted so it can
// re-emit them under PayloadTypeRetransmitResponse when a retransmit
// request arrives, keyed by their original sequence number (§4.4).
type SendBuffer struct {
	capacity int
	order    []uint16
	packets  map[uint16][]byte
}

// NewSendBuffer returns a SendBuffer retaining up to capacity packets.
// capacity should be at least the jitter buffer's depth on the far end.
func NewSendBuffer(capacity int) *SendBuffer {
	return &SendBuffer{
		capacity: capacity,
		packets:  make(map[uint16][]byte, capacity),
	}
}

// Record stores wire, the already-encoded packet for sequence seq,
// evicting the oldest entry once capacity is exceeded.
func (b *SendBuffer) Record(seq uint16, wire []byte) {
	if _, exists := b.packets[seq]; !exists {
		b.order = append(b.order, seq)
	}
	cp := append([]byte(nil), wire...)
	b.packets[seq] = cp

	for len(b.order) > b.capacity {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.packets, oldest)
	}
}

// Lookup returns the previously-recorded wire bytes for seq, if still
// retained.
func (b *SendBuffer) Lookup(seq uint16) ([]byte, bool) {
	wire, ok := b.packets[seq]
	return wire, ok
}

// Resolve returns the wire bytes for every sequence in [req.SeqStart,
// req.SeqStart+req.Count) that is still retained, in ascending order.
// Sequences no longer retained are silently skipped — the spec treats
// retransmission as best-effort.
func (b *SendBuffer) Resolve(req RetransmitRequest) [][]byte {
	out := make([][]byte, 0, req.Count)
	for i := uint16(0); i < req.Count; i++ {
		seq := req.SeqStart + i
		if wire, ok := b.packets[seq]; ok {
			out = append(out, wire)
		}
	}
	return out
}
