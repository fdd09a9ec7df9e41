package srp

import "math/big"

// Client runs the SRP-6a client role of AirPlay 2 Pair-Setup.
type Client struct {
	group *Group
	user  string
	pass  string

	a          *big.Int // private ephemeral exponent
	aPub       *big.Int // A = g^a mod N
	sessionKey []byte
	m1         []byte
}

// NewClient starts a client exchange for username/password over group.
func NewClient(group *Group, username, password string) (*Client, error) {
	a, err := randomExponent(group)
	if err != nil {
		return nil, err
	}
	aPub := new(big.Int).Exp(group.G, a, group.N)
	return &Client{group: group, user: username, pass: password, a: a, aPub: aPub}, nil
}

// PublicA returns A = g^a mod N to send in M1.
func (c *Client) PublicA() *big.Int { return c.aPub }

// ComputeProof consumes the server's (salt, B) and returns M1, the client
// evidence message, having derived the shared session key internally.
func (c *Client) ComputeProof(salt []byte, serverB *big.Int) (m1 []byte, err error) {
	if serverB.Sign() == 0 || new(big.Int).Mod(serverB, c.group.N).Sign() == 0 {
		return nil, ErrBadServerProof
	}

	u := computeU(c.group, c.aPub, serverB)
	x := computeX(salt, c.user, c.pass)
	k := c.group.k()

	// S = (B - k*g^x) ^ (a + u*x) mod N
	gx := new(big.Int).Exp(c.group.G, x, c.group.N)
	kgx := new(big.Int).Mod(new(big.Int).Mul(k, gx), c.group.N)
	base := new(big.Int).Mod(new(big.Int).Sub(serverB, kgx), c.group.N)
	exp := new(big.Int).Add(c.a, new(big.Int).Mul(u, x))
	s := new(big.Int).Exp(base, exp, c.group.N)

	c.sessionKey = sessionKey(s)
	c.m1 = computeM1(c.group, c.user, salt, c.aPub, serverB, c.sessionKey)
	return c.m1, nil
}

// VerifyServerProof checks the server's M2 = H(A ‖ M1 ‖ K). A mismatch
// means either a wrong PIN or a tampered exchange; either way Pair-Setup
// fails with ErrBadServerProof (AuthenticationFailed at the pairing layer).
func (c *Client) VerifyServerProof(m2 []byte) error {
	expected := computeM2(c.aPub, c.m1, c.sessionKey)
	if !constantTimeEqual(expected, m2) {
		return ErrBadServerProof
	}
	return nil
}

// SessionKey returns K = H(S), available after ComputeProof.
func (c *Client) SessionKey() []byte { return c.sessionKey }
