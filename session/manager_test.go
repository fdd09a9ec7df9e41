package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airplay2/airplay2/events"
)

func testAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("10.0.0.3"), Port: 5000}
}

func TestManagerRejectPolicyRefusesSecondSession(t *testing.T) {
	m := NewManager(ManagerConfig{Policy: Reject, IdleTimeout: time.Minute, PortBase: 6000, PortRange: 30}, nil)
	now := time.Now()

	_, err := m.Connect(testAddr(), "sess-1", now)
	require.NoError(t, err)

	_, err = m.Connect(testAddr(), "sess-2", now)
	require.Error(t, err)
	mgrErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, NotEnoughBandwidth, mgrErr.Kind)
}

func TestManagerQueuePolicyAlsoRefuses(t *testing.T) {
	m := NewManager(ManagerConfig{Policy: Queue, IdleTimeout: time.Minute, PortBase: 6000, PortRange: 30}, nil)
	now := time.Now()

	_, err := m.Connect(testAddr(), "sess-1", now)
	require.NoError(t, err)
	_, err = m.Connect(testAddr(), "sess-2", now)
	require.Error(t, err)
}

func TestManagerAllowPreemptTearsDownExisting(t *testing.T) {
	m := NewManager(ManagerConfig{Policy: AllowPreempt, IdleTimeout: time.Minute, PortBase: 6000, PortRange: 30}, nil)
	now := time.Now()

	first, err := m.Connect(testAddr(), "sess-1", now)
	require.NoError(t, err)

	second, err := m.Connect(testAddr(), "sess-2", now)
	require.NoError(t, err)

	assert.True(t, IsTerminal(first.State()))
	assert.Same(t, second, m.Active())
}

func TestManagerIdleTimeoutTearsDownSession(t *testing.T) {
	m := NewManager(ManagerConfig{Policy: Reject, IdleTimeout: 10 * time.Millisecond, PortBase: 6000, PortRange: 30}, nil)
	now := time.Now()

	s, err := m.Connect(testAddr(), "sess-1", now)
	require.NoError(t, err)

	m.CheckIdle(now.Add(5 * time.Millisecond))
	assert.Same(t, s, m.Active())

	m.CheckIdle(now.Add(20 * time.Millisecond))
	assert.Nil(t, m.Active())
	assert.True(t, IsTerminal(s.State()))
}

func TestManagerPublishesSessionStateChangedOnTeardown(t *testing.T) {
	bus := events.NewBroadcaster[events.ReceiverEvent]()
	sub := bus.Subscribe(4)
	defer sub.Unsubscribe()

	m := NewManager(ManagerConfig{Policy: Reject, IdleTimeout: time.Minute, PortBase: 6000, PortRange: 30}, bus)
	now := time.Now()

	s, err := m.Connect(testAddr(), "sess-1", now)
	require.NoError(t, err)
	m.Teardown(s, "client request", now)

	select {
	case e := <-sub.C():
		assert.Equal(t, events.ReceiverSessionStateChanged, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a session state changed event")
	}
}

func TestManagerReleasesPortsOnTeardown(t *testing.T) {
	m := NewManager(ManagerConfig{Policy: Reject, IdleTimeout: time.Minute, PortBase: 6000, PortRange: 9}, nil)
	now := time.Now()

	s, err := m.Connect(testAddr(), "sess-1", now)
	require.NoError(t, err)
	require.NoError(t, s.Announce(nil))

	ports, err := m.AllocatePorts()
	require.NoError(t, err)
	require.NoError(t, s.SetupStream(ports))

	assert.Equal(t, 2, m.ports.Available())
	m.Teardown(s, "done", now)
	assert.Equal(t, 3, m.ports.Available())
}
