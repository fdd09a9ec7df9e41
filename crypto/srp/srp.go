// Package srp implements SRP-6a (RFC 5054's 3072-bit group) for AirPlay 2
// Pair-Setup. No third-party SRP implementation is present anywhere in the
// retrieved example corpus, so this is hand-rolled on math/big — see
// DESIGN.md's "crypto/srp" entry.
package srp

import (
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"math/big"
)

// Username is the fixed literal AirPlay's Pair-Setup SRP exchange uses.
const Username = "Pair-Setup"

// ErrBadServerProof is returned by Client.VerifyServerProof when M2 does not
// match, meaning either the PIN was wrong or the exchange was tampered with.
var ErrBadServerProof = errors.New("srp: server proof verification failed")

// ErrBadClientProof is returned by Server.VerifyClientProof on a wrong PIN.
var ErrBadClientProof = errors.New("srp: client proof verification failed")

// Group is the modulus/generator pair for an SRP group. group3072 below is
// RFC 5054's 3072-bit group.
type Group struct {
	N *big.Int
	G *big.Int
}

// group3072 is RFC 5054 Appendix A's 3072-bit MODP group.
var group3072 = mustGroup3072()

// Group3072 returns the RFC 5054 3072-bit group used by AirPlay 2 Pair-Setup.
func Group3072() *Group { return group3072 }

// k is the SRP-6a multiplier, k = H(N ‖ PAD(g)).
func (g *Group) k() *big.Int {
	h := sha512.New()
	h.Write(g.N.Bytes())
	h.Write(padTo(g.G, len(g.N.Bytes())))
	return new(big.Int).SetBytes(h.Sum(nil))
}

func padTo(v *big.Int, n int) []byte {
	b := v.Bytes()
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

// ComputeVerifier derives the verifier from username/password and the given
// salt, for server-side storage, as Pair-Setup's server does when the PIN is set.
func (g *Group) ComputeVerifier(username, password string, salt []byte) *big.Int {
	x := computeX(salt, username, password)
	v := new(big.Int).Exp(g.G, x, g.N)
	return v
}

func computeX(salt []byte, username, password string) *big.Int {
	inner := sha512.Sum512([]byte(username + ":" + password))
	h := sha512.New()
	h.Write(salt)
	h.Write(inner[:])
	return new(big.Int).SetBytes(h.Sum(nil))
}

func randomSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func randomExponent(g *Group) (*big.Int, error) {
	buf := make([]byte, len(g.N.Bytes()))
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}

// u = H(PAD(A) ‖ PAD(B)).
func computeU(g *Group, a, b *big.Int) *big.Int {
	n := len(g.N.Bytes())
	h := sha512.New()
	h.Write(padTo(a, n))
	h.Write(padTo(b, n))
	return new(big.Int).SetBytes(h.Sum(nil))
}

// sessionKey derives K = H(S) with H = SHA-512, per §4.1.
func sessionKey(s *big.Int) []byte {
	sum := sha512.Sum512(s.Bytes())
	return sum[:]
}
