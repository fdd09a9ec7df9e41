package rtp

import (
	"sync"
	"time"

	"github.com/pion/rtcp"

	"github.com/airplay2/airplay2/timing"
)

// SyncSender tracks per-SSRC packet/octet counts using the same bookkeeping
// RFC 3550 RTCP Sender Reports carry, and turns them into a *rtcp.SenderReport*
// snapshot on demand. AirPlay's own "sync" packets (PayloadTypeSync) use a
// different wire format, but the interval/count bookkeeping that decides
// when a sync packet is due follows the teacher's sender-report lineage
// (internal/teacherref/rtcpsender.go).
type SyncSender struct {
	mu          sync.Mutex
	ssrc        uint32
	packetCount uint32
	octetCount  uint32
}

// NewSyncSender allocates a SyncSender for the given SSRC.
func NewSyncSender(ssrc uint32) *SyncSender {
	return &SyncSender{ssrc: ssrc}
}

// Track records one transmitted RTP packet's payload length.
func (s *SyncSender) Track(payloadLen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packetCount++
	s.octetCount += uint32(payloadLen)
}

// Report builds a SenderReport snapshot mapping rtpTimestamp to the given
// wall-clock instant, for diagnostics and for deriving the AirPlay sync
// packet's own NTP/RTP timestamp pair.
func (s *SyncSender) Report(rtpTimestamp uint32, now time.Time) *rtcp.SenderReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &rtcp.SenderReport{
		SSRC:        s.ssrc,
		NTPTime:     timing.EncodeNTP(now),
		RTPTime:     rtpTimestamp,
		PacketCount: s.packetCount,
		OctetCount:  s.octetCount,
	}
}
