package pairing

import (
	"testing"

	apcrypto "github.com/airplay2/airplay2/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairedKeys(t *testing.T) (client *Keys, server *Keys) {
	t.Helper()
	clientLTSK, err := apcrypto.GenerateEd25519KeyPair()
	require.NoError(t, err)
	serverLTSK, err := apcrypto.GenerateEd25519KeyPair()
	require.NoError(t, err)

	client = &Keys{
		OurLTSK:        clientLTSK.Private,
		OurLTPK:        clientLTSK.Public,
		PeerIdentifier: []byte("server-id"),
		PeerLTPK:       serverLTSK.Public,
	}
	server = &Keys{
		OurLTSK:        serverLTSK.Private,
		OurLTPK:        serverLTSK.Public,
		PeerIdentifier: []byte("client-id"),
		PeerLTPK:       clientLTSK.Public,
	}
	return client, server
}

func TestPairVerifyFullExchangeReachesComplete(t *testing.T) {
	clientKeys, serverKeys := pairedKeys(t)

	initiator, err := NewVerifyInitiator(clientKeys)
	require.NoError(t, err)
	responder, err := NewVerifyResponder(serverKeys)
	require.NoError(t, err)

	m1 := initiator.BuildM1()
	m2, err := responder.HandleM1(m1)
	require.NoError(t, err)

	m3, err := initiator.HandleM2(m2)
	require.NoError(t, err)

	m4, err := responder.HandleM3(m3)
	require.NoError(t, err)

	require.NoError(t, initiator.HandleM4(m4))

	assert.True(t, IsComplete(initiator.State()))
	assert.True(t, IsComplete(responder.State()))
	assert.Equal(t, initiator.SessionKeys.EncryptKey, responder.SessionKeys.DecryptKey)
	assert.Equal(t, initiator.SessionKeys.DecryptKey, responder.SessionKeys.EncryptKey)
}

// TestPairVerifyWrongLongTermKeyFailsSignature verifies that a responder
// whose stored peer_ltpk doesn't match the initiator's real long-term key
// fails with SignatureVerificationFailed rather than silently succeeding.
func TestPairVerifyWrongLongTermKeyFailsSignature(t *testing.T) {
	clientKeys, serverKeys := pairedKeys(t)

	wrongLTSK, err := apcrypto.GenerateEd25519KeyPair()
	require.NoError(t, err)
	serverKeys.PeerLTPK = wrongLTSK.Public

	initiator, err := NewVerifyInitiator(clientKeys)
	require.NoError(t, err)
	responder, err := NewVerifyResponder(serverKeys)
	require.NoError(t, err)

	m1 := initiator.BuildM1()
	m2, err := responder.HandleM1(m1)
	require.NoError(t, err)

	// The responder's stored peer_ltpk no longer matches the initiator's
	// actual signing key, but the initiator itself still trusts the
	// responder's real key and verifies M2 fine.
	m3, err := initiator.HandleM2(m2)
	require.NoError(t, err)
	_, err = responder.HandleM3(m3)
	require.Error(t, err)
	perr, ok := IsFailed(responder.State())
	require.True(t, ok)
	assert.Equal(t, SignatureVerificationFailed, perr.Kind)
}
