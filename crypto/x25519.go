package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"
)

// X25519KeySize is the size, in bytes, of an X25519 private or public key.
const X25519KeySize = 32

// X25519SharedSecret is a 32-byte Diffie-Hellman output. Callers must call
// Zero once the secret has been consumed (typically immediately after
// deriving session keys from it via HKDF).
type X25519SharedSecret [X25519KeySize]byte

// Zero overwrites the secret in place.
func (s *X25519SharedSecret) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// X25519KeyPair is an ephemeral or long-term X25519 key exchange identity.
type X25519KeyPair struct {
	Private [X25519KeySize]byte
	Public  [X25519KeySize]byte
}

// GenerateX25519KeyPair generates a keypair from the OS RNG.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	var priv [X25519KeySize]byte
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, newErr(RngError, err.Error())
	}
	return x25519FromPrivate(priv)
}

// X25519KeyPairFromSeed derives a deterministic keypair from a 32-byte seed,
// which is used directly as the private key.
func X25519KeyPairFromSeed(seed []byte) (*X25519KeyPair, error) {
	if len(seed) != X25519KeySize {
		return nil, newErr(InvalidKeyLength, "x25519 seed must be 32 bytes")
	}
	var priv [X25519KeySize]byte
	copy(priv[:], seed)
	return x25519FromPrivate(priv)
}

func x25519FromPrivate(priv [X25519KeySize]byte) (*X25519KeyPair, error) {
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, newErr(InvalidKeyLength, err.Error())
	}
	kp := &X25519KeyPair{Private: priv}
	copy(kp.Public[:], pub)
	return kp, nil
}

// X25519DH computes the shared secret between ourPriv and peerPub.
func X25519DH(ourPriv, peerPub [X25519KeySize]byte) (X25519SharedSecret, error) {
	var out X25519SharedSecret
	shared, err := curve25519.X25519(ourPriv[:], peerPub[:])
	if err != nil {
		return out, newErr(InvalidPublicKey, err.Error())
	}
	copy(out[:], shared)
	return out, nil
}
