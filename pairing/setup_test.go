package pairing

import (
	"testing"

	apcrypto "github.com/airplay2/airplay2/crypto"
	"github.com/airplay2/airplay2/crypto/srp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPairedServer(t *testing.T, pin string) (*SetupServer, []byte, *apcrypto.Ed25519KeyPair) {
	t.Helper()
	salt := []byte("fixed-test-salt-0123456789abcd")
	verifier := srp.Group3072().ComputeVerifier(srp.Username, pin, salt)
	ltsk, err := apcrypto.GenerateEd25519KeyPair()
	require.NoError(t, err)
	serverID := []byte("server-id")
	server, err := NewSetupServer(serverID, ltsk, salt, verifier)
	require.NoError(t, err)
	return server, serverID, ltsk
}

// TestPairSetupFullExchangeReachesComplete implements E4's happy path: the
// correct PIN carries both sides to Complete with matching long-term keys.
func TestPairSetupFullExchangeReachesComplete(t *testing.T) {
	server, serverID, serverLTSK := newPairedServer(t, "1234")

	clientLTSK, err := apcrypto.GenerateEd25519KeyPair()
	require.NoError(t, err)
	client := NewSetupClient([]byte("client-id"), clientLTSK)

	m1 := client.BuildM1()
	m2, err := server.HandleM1(m1)
	require.NoError(t, err)

	m3, err := client.HandleM2(m2, "1234")
	require.NoError(t, err)

	m4, err := server.HandleM3(m3)
	require.NoError(t, err)

	m5, err := client.HandleM4(m4)
	require.NoError(t, err)

	m6, err := server.HandleM5(m5)
	require.NoError(t, err)

	require.NoError(t, client.HandleM6(m6))

	assert.True(t, IsComplete(client.State()))
	assert.True(t, IsComplete(server.State()))

	require.NotNil(t, client.Keys)
	require.NotNil(t, server.PeerKeys)
	assert.Equal(t, []byte(serverID), client.Keys.PeerIdentifier)
	assert.Equal(t, []byte(serverLTSK.Public), []byte(client.Keys.PeerLTPK))
	assert.Equal(t, []byte("client-id"), server.PeerKeys.PeerIdentifier)
	assert.Equal(t, []byte(clientLTSK.Public), []byte(server.PeerKeys.PeerLTPK))
}

// TestPairSetupWrongPINFailsAuthentication implements E4's negative case:
// flipping any bit of the PIN causes server verification to return
// AuthenticationFailed.
func TestPairSetupWrongPINFailsAuthentication(t *testing.T) {
	server, _, _ := newPairedServer(t, "1234")

	clientLTSK, err := apcrypto.GenerateEd25519KeyPair()
	require.NoError(t, err)
	client := NewSetupClient([]byte("client-id"), clientLTSK)

	m1 := client.BuildM1()
	m2, err := server.HandleM1(m1)
	require.NoError(t, err)

	m3, err := client.HandleM2(m2, "1235")
	require.NoError(t, err)

	_, err = server.HandleM3(m3)
	require.Error(t, err)

	perr, ok := IsFailed(server.State())
	require.True(t, ok)
	assert.Equal(t, AuthenticationFailed, perr.Kind)
}
