package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	addr := &net.TCPAddr{IP: net.ParseIP("10.0.0.2"), Port: 54321}
	return New("sess-1", addr, "14589BCD", time.Now())
}

func TestSessionHappyPathReachesStreaming(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, StateConnected, s.State())

	require.NoError(t, s.Announce(nil))
	assert.Equal(t, StateAnnounced, s.State())

	require.NoError(t, s.SetupStream(PortTriple{Audio: 6000, Control: 6001, Timing: 6002}))
	assert.Equal(t, StateSetup, s.State())

	require.NoError(t, s.Record(100, 44100))
	assert.Equal(t, StateStreaming, s.State())
}

func TestSessionReAnnounceAndReSetupAllowed(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Announce(nil))
	require.NoError(t, s.SetupStream(PortTriple{Audio: 6000, Control: 6001, Timing: 6002}))

	// re-ANNOUNCE from Setup is allowed.
	require.NoError(t, s.Announce(nil))
	assert.Equal(t, StateAnnounced, s.State())

	require.NoError(t, s.SetupStream(PortTriple{Audio: 6000, Control: 6001, Timing: 6002}))
	// re-SETUP from Setup is allowed.
	require.NoError(t, s.SetupStream(PortTriple{Audio: 6003, Control: 6004, Timing: 6005}))
	assert.Equal(t, StateSetup, s.State())
}

func TestSessionRecordFromConnectedRejected(t *testing.T) {
	s := newTestSession()
	err := s.Record(1, 1)
	require.Error(t, err)
	sessErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InvalidTransition, sessErr.Kind)
}

func TestSessionPauseResumeCycle(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Announce(nil))
	require.NoError(t, s.SetupStream(PortTriple{Audio: 6000, Control: 6001, Timing: 6002}))
	require.NoError(t, s.Record(1, 1))

	require.NoError(t, s.Pause())
	assert.Equal(t, StatePaused, s.State())
	require.NoError(t, s.Resume())
	assert.Equal(t, StateStreaming, s.State())

	err := s.Pause()
	require.NoError(t, err)
	err = s.Pause()
	require.Error(t, err) // already Paused, can't pause again
}

func TestSessionTeardownFromAnyStateThenClose(t *testing.T) {
	s := newTestSession()
	s.TeardownSession("client request")
	reason, ok := TeardownReason(s.State())
	require.True(t, ok)
	assert.Equal(t, "client request", reason)

	require.NoError(t, s.Close())
	assert.True(t, IsTerminal(s.State()))

	// closing twice is not valid.
	require.Error(t, s.Close())
}

func TestSessionVolumeClamped(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, -50.0, s.SetVolume(-50))
	assert.Equal(t, MinVolumeDB, s.SetVolume(-200))
	assert.Equal(t, MaxVolumeDB, s.SetVolume(10))
}
