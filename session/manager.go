package session

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airplay2/airplay2/events"
)

var nopLogger = zerolog.Nop()

// PreemptionPolicy governs what happens when a second concurrent session
// attempt arrives while one is already active (§4.5).
type PreemptionPolicy int

const (
	// Reject returns NotEnoughBandwidth (RTSP 453) for the new attempt.
	Reject PreemptionPolicy = iota
	// AllowPreempt tears down the existing session with reason
	// "preempted" and admits the new one.
	AllowPreempt
	// Queue rejects the new attempt now; queueing semantics are deferred
	// (spec.md §4.5 explicitly leaves this unimplemented).
	Queue
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Policy      PreemptionPolicy
	IdleTimeout time.Duration
	PortBase    int
	PortRange   int

	// Logger receives Debug/Info/Warn lines around session transitions.
	// A nil Logger disables logging (the zero value behaves as zerolog.Nop()).
	Logger *zerolog.Logger
}

// Manager is the Session Manager: tracks the single active session this
// receiver instance permits under its PreemptionPolicy, allocates UDP
// ports, and tears sessions down on idle timeout (§4.5).
type Manager struct {
	mu     sync.Mutex
	cfg    ManagerConfig
	active *Session
	ports  *PortAllocator
	events *events.Broadcaster[events.ReceiverEvent]
	log    *zerolog.Logger
}

// NewManager returns a Manager with no active session.
func NewManager(cfg ManagerConfig, bus *events.Broadcaster[events.ReceiverEvent]) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = &nopLogger
	}
	return &Manager{
		cfg:    cfg,
		ports:  NewPortAllocator(cfg.PortBase, cfg.PortRange),
		events: bus,
		log:    logger,
	}
}

// Connect admits a new RTSP connection as a session, applying the
// preemption policy if one is already active.
func (m *Manager) Connect(peerAddr net.Addr, rtspSessionID string, now time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !IsTerminal(m.active.State()) {
		switch m.cfg.Policy {
		case Reject, Queue:
			m.log.Debug().Str("peer", peerAddr.String()).Msg("session refused: one already active")
			return nil, newErr(NotEnoughBandwidth, "a session is already active")
		case AllowPreempt:
			m.log.Info().Str("peer", peerAddr.String()).Msg("preempting active session for new connection")
			m.teardownActiveLocked("preempted", now)
		}
	}

	s := New(uuid.NewString(), peerAddr, rtspSessionID, now)
	m.active = s
	m.log.Debug().Str("session", s.ID()).Str("peer", peerAddr.String()).Msg("session connected")
	return s, nil
}

// Active returns the currently-active session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// AllocatePorts reserves a port triple for a session's SETUP.
func (m *Manager) AllocatePorts() (PortTriple, error) {
	return m.ports.Allocate()
}

// Teardown tears down the active session (if it is s) with reason and
// releases its ports.
func (m *Manager) Teardown(s *Session, reason string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != s {
		return
	}
	m.teardownActiveLocked(reason, now)
}

func (m *Manager) teardownActiveLocked(reason string, now time.Time) {
	if m.active == nil {
		return
	}
	m.log.Info().Str("session", m.active.ID()).Str("reason", reason).Msg("tearing down session")
	ports := m.active.Ports()
	m.active.TeardownSession(reason)
	if ports != (PortTriple{}) {
		m.ports.Release(ports)
	}
	if m.events != nil {
		m.events.Publish(events.ReceiverEvent{
			Kind:         events.ReceiverSessionStateChanged,
			SessionID:    m.active.ID(),
			SessionState: m.active.State().String(),
		})
	}
	_ = m.active.Close()
	m.active = nil
}

// CheckIdle tears down the active session if its last-activity age exceeds
// the configured idle timeout.
func (m *Manager) CheckIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return
	}
	if now.Sub(m.active.LastActivity()) > m.cfg.IdleTimeout {
		m.log.Warn().Str("session", m.active.ID()).Msg("session idle timeout exceeded")
		m.teardownActiveLocked("idle timeout", now)
	}
}

// RunIdleMonitor runs CheckIdle on a ticker at interval = IdleTimeout/4
// (§4.5) until ctx is cancelled. It is meant to run in its own goroutine.
func (m *Manager) RunIdleMonitor(ctx context.Context, now func() time.Time) {
	interval := m.cfg.IdleTimeout / 4
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckIdle(now())
		}
	}
}
