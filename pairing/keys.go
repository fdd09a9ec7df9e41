package pairing

import (
	"crypto/ed25519"

	apcrypto "github.com/airplay2/airplay2/crypto"
)

// Keys is the long-term identity a successful Pair-Setup produces and a
// later Pair-Verify consumes (§3 "Pairing Keys"). peer_ed25519_pub is never
// trusted unless it arrived inside a verified Pair-Setup M6 or matches a
// previously-stored entry — enforced by callers consulting a store.PairingStore
// rather than by this struct itself, which is a plain value type.
type Keys struct {
	OurLTSK         ed25519.PrivateKey // our long-term signing key
	OurLTPK         ed25519.PublicKey
	PeerIdentifier  []byte
	PeerLTPK        ed25519.PublicKey
}

// SessionKeys is the bidirectional key/counter state produced by HKDF over
// a pairing DH exchange (§3 "Session Keys"). Counters are strictly
// monotonic per direction and must never repeat under the same key; callers
// increment them via Next{Encrypt,Decrypt}Counter, never by writing the
// field directly.
type SessionKeys struct {
	EncryptKey [32]byte
	DecryptKey [32]byte

	encryptCounter uint64
	decryptCounter uint64
}

// NextEncryptCounter returns the next counter value to use and advances it.
func (k *SessionKeys) NextEncryptCounter() uint64 {
	v := k.encryptCounter
	k.encryptCounter++
	return v
}

// NextDecryptCounter returns the next counter value to use and advances it.
func (k *SessionKeys) NextDecryptCounter() uint64 {
	v := k.decryptCounter
	k.decryptCounter++
	return v
}

// Zero clears both key slots, called when a SessionKeys is no longer needed
// (connection teardown), matching crypto's zeroization contract for secrets.
func (k *SessionKeys) Zero() {
	for i := range k.EncryptKey {
		k.EncryptKey[i] = 0
	}
	for i := range k.DecryptKey {
		k.DecryptKey[i] = 0
	}
}

// deriveControlKeys derives the final bidirectional control keys shared by
// Transient (step 5) and a successful Pair-Verify, via
// HKDF(salt="Control-Salt", info=...) over the DH shared secret. isServer
// swaps which HKDF info string backs Encrypt vs Decrypt, since "write" and
// "read" are from the client's point of view: the client encrypts under
// Control-Write-Encryption-Key and decrypts under Control-Read-Encryption-Key;
// the server/accessory does the opposite, so the two sides land on the same
// pair of physical keys despite each calling one "encrypt" and the other
// "decrypt".
func deriveControlKeys(shared apcrypto.X25519SharedSecret, isServer bool) (*SessionKeys, error) {
	writeInfo, readInfo := []byte("Control-Write-Encryption-Key"), []byte("Control-Read-Encryption-Key")
	encryptInfo, decryptInfo := writeInfo, readInfo
	if isServer {
		encryptInfo, decryptInfo = readInfo, writeInfo
	}

	sk := &SessionKeys{}
	if err := apcrypto.HKDFExpand([]byte("Control-Salt"), shared[:], encryptInfo, sk.EncryptKey[:]); err != nil {
		return nil, err
	}
	if err := apcrypto.HKDFExpand([]byte("Control-Salt"), shared[:], decryptInfo, sk.DecryptKey[:]); err != nil {
		return nil, err
	}
	return sk, nil
}
