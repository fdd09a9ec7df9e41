package srp

import "math/big"

// Server runs the SRP-6a server role of AirPlay 2 Pair-Setup, holding the
// (salt, verifier) the PIN was configured into.
type Server struct {
	group    *Group
	user     string
	salt     []byte
	verifier *big.Int

	b    *big.Int
	bPub *big.Int

	sessionKey []byte
}

// NewServer starts a server exchange given the stored (salt, verifier) for
// username, deriving them beforehand via Group.ComputeVerifier.
func NewServer(group *Group, username string, salt []byte, verifier *big.Int) (*Server, error) {
	b, err := randomExponent(group)
	if err != nil {
		return nil, err
	}
	k := group.k()
	// B = k*v + g^b mod N
	gb := new(big.Int).Exp(group.G, b, group.N)
	kv := new(big.Int).Mod(new(big.Int).Mul(k, verifier), group.N)
	bPub := new(big.Int).Mod(new(big.Int).Add(kv, gb), group.N)

	return &Server{group: group, user: username, salt: salt, verifier: verifier, b: b, bPub: bPub}, nil
}

// Salt returns the stored salt to send in M2 (server's B message).
func (s *Server) Salt() []byte { return s.salt }

// PublicB returns B for the client.
func (s *Server) PublicB() *big.Int { return s.bPub }

// VerifyClientProof checks the client's M1 against the server's own
// computation of S, deriving K on success. A mismatch means a wrong PIN.
func (s *Server) VerifyClientProof(clientA *big.Int, m1 []byte) (m2 []byte, err error) {
	if clientA.Sign() == 0 || new(big.Int).Mod(clientA, s.group.N).Sign() == 0 {
		return nil, ErrBadClientProof
	}

	u := computeU(s.group, clientA, s.bPub)

	// S = (A * v^u) ^ b mod N
	vu := new(big.Int).Exp(s.verifier, u, s.group.N)
	base := new(big.Int).Mod(new(big.Int).Mul(clientA, vu), s.group.N)
	S := new(big.Int).Exp(base, s.b, s.group.N)

	s.sessionKey = sessionKey(S)

	expectedM1 := computeM1(s.group, s.user, s.salt, clientA, s.bPub, s.sessionKey)
	if !constantTimeEqual(expectedM1, m1) {
		return nil, ErrBadClientProof
	}

	return computeM2(clientA, m1, s.sessionKey), nil
}

// SessionKey returns K = H(S), available after a successful VerifyClientProof.
func (s *Server) SessionKey() []byte { return s.sessionKey }
