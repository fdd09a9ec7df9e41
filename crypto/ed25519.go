package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
)

// Ed25519KeyPair holds a long-term or ephemeral Ed25519 signing identity.
type Ed25519KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateEd25519KeyPair generates a keypair from the OS RNG.
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, newErr(RngError, err.Error())
	}
	return &Ed25519KeyPair{Public: pub, Private: priv}, nil
}

// Ed25519KeyPairFromSeed reconstructs a keypair from a stored 32-byte seed.
func Ed25519KeyPairFromSeed(seed []byte) (*Ed25519KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, newErr(InvalidKeyLength, "ed25519 seed must be 32 bytes")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519KeyPair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

// Sign signs msg and returns the 64-byte signature.
func (k *Ed25519KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.Private, msg)
}

// Seed returns the 32-byte seed backing this keypair, suitable for storage.
func (k *Ed25519KeyPair) Seed() []byte {
	return k.Private.Seed()
}

// Ed25519Verify verifies sig over msg under pub in constant time, as
// crypto/ed25519.Verify already guarantees.
func Ed25519Verify(pub ed25519.PublicKey, msg, sig []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return newErr(InvalidKeyLength, "ed25519 public key must be 32 bytes")
	}
	if !ed25519.Verify(pub, msg, sig) {
		return newErr(InvalidSignature, "")
	}
	return nil
}
