// Package session implements the RTSP session state machine, the
// SessionManager with its preemption policy and idle-timeout monitor, and
// the UDP port allocator (§3 "Session", §4.5 "Session Manager").
package session

import (
	"net"
	"sync"
	"time"

	"github.com/airplay2/airplay2/sdp"
)

// MinVolumeDB is the clamp floor for volume; spec.md treats -144.0 as
// mute.
const MinVolumeDB = -144.0

// MaxVolumeDB is the clamp ceiling for volume.
const MaxVolumeDB = 0.0

// Session is one RTSP-negotiated AirPlay stream (§3's "Session" data
// model).
type Session struct {
	mu sync.Mutex

	id       string
	peerAddr net.Addr
	state    State

	params *sdp.StreamParameters
	ports  PortTriple

	rtspSessionID string

	initialSeq       uint16
	initialTimestamp uint32

	volumeDB float64

	lastActivity time.Time
}

// New returns a Session in StateConnected for peerAddr.
func New(id string, peerAddr net.Addr, rtspSessionID string, now time.Time) *Session {
	return &Session{
		id:            id,
		peerAddr:      peerAddr,
		state:         StateConnected,
		rtspSessionID: rtspSessionID,
		volumeDB:      MaxVolumeDB,
		lastActivity:  now,
	}
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// PeerAddr returns the remote address this session is bound to.
func (s *Session) PeerAddr() net.Addr { return s.peerAddr }

// RTSPSessionID returns the session id string returned to the peer in the
// RTSP Session header.
func (s *Session) RTSPSessionID() string { return s.rtspSessionID }

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Params returns the negotiated stream parameters, or nil before ANNOUNCE.
func (s *Session) Params() *sdp.StreamParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Ports returns the allocated UDP port triple, zero before SETUP.
func (s *Session) Ports() PortTriple {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ports
}

// VolumeDB returns the current volume in dB.
func (s *Session) VolumeDB() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volumeDB
}

// LastActivity returns the instant of the most recent Touch.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Touch records activity at now, resetting the idle timer.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now
}

// Announce applies an ANNOUNCE, storing params. Legal from Connected,
// Announced, or Setup (re-ANNOUNCE renegotiation is allowed, §4.5).
func (s *Session) Announce(params *sdp.StreamParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.(type) {
	case stateConnected, stateAnnounced, stateSetup:
	default:
		return newErr(InvalidTransition, "ANNOUNCE not valid from %v", s.state)
	}

	s.params = params
	s.state = StateAnnounced
	return nil
}

// SetupStream applies a SETUP, allocating ports. Legal from Announced or
// Setup (re-SETUP is allowed, §4.5).
func (s *Session) SetupStream(ports PortTriple) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.(type) {
	case stateAnnounced, stateSetup:
	default:
		return newErr(InvalidTransition, "SETUP not valid from %v", s.state)
	}

	s.ports = ports
	s.state = StateSetup
	return nil
}

// Record applies a RECORD, anchoring the initial RTP sequence/timestamp
// and entering Streaming. Legal only from Setup.
func (s *Session) Record(initialSeq uint16, initialTimestamp uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(stateSetup); !ok {
		return newErr(InvalidTransition, "RECORD not valid from %v", s.state)
	}

	s.initialSeq = initialSeq
	s.initialTimestamp = initialTimestamp
	s.state = StateStreaming
	return nil
}

// Pause transitions Streaming -> Paused.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(stateStreaming); !ok {
		return newErr(InvalidTransition, "PAUSE not valid from %v", s.state)
	}
	s.state = StatePaused
	return nil
}

// Resume transitions Paused -> Streaming.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(statePaused); !ok {
		return newErr(InvalidTransition, "RESUME not valid from %v", s.state)
	}
	s.state = StateStreaming
	return nil
}

// SetVolume updates the session's volume, clamped to
// [MinVolumeDB, MaxVolumeDB].
func (s *Session) SetVolume(db float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db < MinVolumeDB {
		db = MinVolumeDB
	}
	if db > MaxVolumeDB {
		db = MaxVolumeDB
	}
	s.volumeDB = db
	return db
}

// TeardownSession transitions any non-terminal state to Teardown(reason).
// Any state may transition to Teardown (§4.5).
func (s *Session) TeardownSession(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if IsTerminal(s.state) {
		return
	}
	s.state = Teardown(reason)
}

// Close transitions Teardown -> Closed, the terminal state. It is a
// programming error to call Close from any state but Teardown; callers
// always drive through TeardownSession first.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.(stateTeardown); !ok {
		return newErr(InvalidTransition, "Close not valid from %v", s.state)
	}
	s.state = StateClosed
	return nil
}
