// Package jitter implements the receiver-side reorder/latency buffer that
// mirrors the sender's RTP stream into strict-sequence, deadline-scheduled
// playback (§3, §4.5).
package jitter

import (
	"time"

	"github.com/airplay2/airplay2/rtp"
)

// Packet is the in-buffer representation of one audio packet, already
// decrypted and reordered (§3's "Audio Packet" data model).
type Packet struct {
	Sequence     uint16
	RTPTimestamp uint32
	Deadline     time.Time
	Payload      []byte
}

// InsertResult reports what Insert did with a packet.
type InsertResult int

const (
	Inserted InsertResult = iota
	Duplicate
	DiscardedLate
	WindowReset
)

type slot struct {
	filled      bool
	packet      Packet
	missingSet  bool
	missingAt   time.Time
	requested   bool
	requestedAt time.Time
}

// Buffer is the bounded jitter buffer: depth logical sequence positions,
// each either a filled slot or a hole (§3).
type Buffer struct {
	depth        int
	frameSize    int
	rtxThreshold time.Duration

	initialized bool
	trailing    uint16
	slots       []slot

	anchorSeq      uint16
	anchorDeadline time.Time
	frameDuration  time.Duration
}

// Config configures a new Buffer.
type Config struct {
	// Depth is the buffer's capacity in packets (spec.md suggests ~50
	// packets, ≈400ms at 352 frames/44100Hz).
	Depth int
	// FrameSize is the byte size of a silence packet inserted for a hole
	// whose deadline has passed.
	FrameSize int
	// RTXThreshold is how long a hole must persist before a retransmit
	// request is emitted for it (spec.md suggests ~20ms).
	RTXThreshold time.Duration
	// FrameDuration is the playback duration of one packet's worth of
	// audio, used to project deadlines for not-yet-arrived holes.
	FrameDuration time.Duration
}

// New returns an empty Buffer. The window is anchored at the first packet
// passed to Insert.
func New(cfg Config) *Buffer {
	return &Buffer{
		depth:         cfg.Depth,
		frameSize:     cfg.FrameSize,
		rtxThreshold:  cfg.RTXThreshold,
		frameDuration: cfg.FrameDuration,
		slots:         make([]slot, cfg.Depth),
	}
}

func (b *Buffer) index(seq uint16) int {
	return int(seq) % b.depth
}

// seqDelta returns the signed distance from `from` to `to` on the 16-bit
// wrapping sequence space, in [-32768, 32767].
func seqDelta(from, to uint16) int32 {
	return int32(int16(to - from))
}

// Insert admits packet p into the buffer at time now. Duplicate sequence
// numbers are idempotently ignored; packets behind the trailing edge are
// discarded as late; packets depth or more positions past the trailing edge
// (beyond the window's leading edge) cause the window to reset, anchored at p
// (§3's jitter-buffer invariants).
func (b *Buffer) Insert(p Packet, now time.Time) InsertResult {
	if !b.initialized {
		b.initialized = true
		b.anchor(p)
		b.trailing = p.Sequence
	}

	delta := seqDelta(b.trailing, p.Sequence)
	if delta < 0 {
		return DiscardedLate
	}

	result := Inserted
	if delta >= int32(b.depth) {
		b.resetWindow(p)
		delta = 0
		result = WindowReset
	}

	idx := b.index(p.Sequence)
	if b.slots[idx].filled && b.slots[idx].packet.Sequence == p.Sequence {
		return Duplicate
	}

	// mark any newly-opened gap between the current leading edge and p as
	// missing-since-now, so request_retransmits can age them correctly.
	for s := b.trailing; s != p.Sequence; s++ {
		gi := b.index(s)
		if !b.slots[gi].filled && !b.slots[gi].missingSet {
			b.slots[gi].missingSet = true
			b.slots[gi].missingAt = now
		}
	}

	b.slots[idx] = slot{filled: true, packet: p}
	b.anchor(p)
	return result
}

func (b *Buffer) anchor(p Packet) {
	b.anchorSeq = p.Sequence
	b.anchorDeadline = p.Deadline
}

func (b *Buffer) resetWindow(p Packet) {
	for i := range b.slots {
		b.slots[i] = slot{}
	}
	b.trailing = p.Sequence
	b.anchor(p)
}

// holeDeadline projects a playback deadline for a sequence that never
// arrived, extrapolating linearly from the most recent known anchor.
func (b *Buffer) holeDeadline(seq uint16) time.Time {
	delta := seqDelta(b.anchorSeq, seq)
	return b.anchorDeadline.Add(time.Duration(delta) * b.frameDuration)
}

// Tick releases every slot at or past the trailing edge whose deadline has
// arrived, in strict sequence order, stopping at the first not-yet-due
// slot or at a hole with no received packet after it in the window. Holes
// release as a zeroed silence packet and count as an underrun.
func (b *Buffer) Tick(now time.Time) (released []Packet, underruns int) {
	if !b.initialized {
		return nil, 0
	}

	for {
		idx := b.index(b.trailing)
		s := &b.slots[idx]

		if !s.filled {
			// A hole is released only while some received packet is still
			// queued behind it in the window.
			pending := false
			for i := 1; i < b.depth; i++ {
				if b.slots[b.index(b.trailing+uint16(i))].filled {
					pending = true
					break
				}
			}
			if !pending {
				break
			}
		}

		var deadline time.Time
		if s.filled {
			deadline = s.packet.Deadline
		} else {
			deadline = b.holeDeadline(b.trailing)
		}
		if now.Before(deadline) {
			break
		}

		if s.filled {
			released = append(released, s.packet)
		} else {
			released = append(released, Packet{
				Sequence: b.trailing,
				Deadline: deadline,
				Payload:  make([]byte, b.frameSize),
			})
			underruns++
		}

		*s = slot{}
		b.trailing++
	}

	return released, underruns
}

// RequestRetransmits scans the active window for holes older than
// RTXThreshold that have not already been requested, and returns them
// coalesced into contiguous-run requests. Each returned hole is marked
// requested so a subsequent call does not re-request it (§4.4's "at most
// one outstanding request per hole").
func (b *Buffer) RequestRetransmits(now time.Time) []rtp.RetransmitRequest {
	if !b.initialized {
		return nil
	}

	var requests []rtp.RetransmitRequest
	var runStart uint16
	inRun := false
	runLen := uint16(0)

	flush := func() {
		if inRun && runLen > 0 {
			requests = append(requests, rtp.RetransmitRequest{SeqStart: runStart, Count: runLen})
		}
		inRun = false
		runLen = 0
	}

	for i := int32(0); i < int32(b.depth); i++ {
		seq := b.trailing + uint16(i)
		idx := b.index(seq)
		s := &b.slots[idx]

		eligible := !s.filled && s.missingSet && !s.requested && now.Sub(s.missingAt) >= b.rtxThreshold
		if eligible {
			s.requested = true
			s.requestedAt = now
			if !inRun {
				inRun = true
				runStart = seq
				runLen = 0
			}
			runLen++
		} else {
			flush()
		}
	}
	flush()

	return requests
}

// Len reports the configured depth of the buffer.
func (b *Buffer) Len() int { return b.depth }
