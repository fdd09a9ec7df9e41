package pairing

import (
	"math/big"

	apcrypto "github.com/airplay2/airplay2/crypto"
	"github.com/airplay2/airplay2/crypto/srp"
	"github.com/airplay2/airplay2/crypto/tlv8"
)

// Pair-Setup's M5/M6 inner-TLV AEAD uses fixed nonces distinct from
// Transient's, per the same "PS-MsgNN" ASCII literal convention as the
// control-key salt/info strings given in spec.md §4.2 (those are given
// verbatim; these two are not, and are carried over from the same naming
// family — see DESIGN.md's Open Question decisions).
var setupNonceM5 = [12]byte{'P', 'S', '-', 'M', 's', 'g', '0', '5'}
var setupNonceM6 = [12]byte{'P', 'S', '-', 'M', 's', 'g', '0', '6'}

// SetupClient runs the client role of Pair-Setup: SRP-6a over M1-M4
// authenticates the PIN, then M5/M6 exchange long-term Ed25519 identities
// under a session key derived from the SRP shared secret (§4.2).
type SetupClient struct {
	state State

	identifier []byte
	ltsk       *apcrypto.Ed25519KeyPair
	srpClient  *srp.Client
	encKey     [32]byte

	Keys *Keys
}

// NewSetupClient starts a Pair-Setup client exchange. ltsk is this device's
// persistent Ed25519 long-term identity (generated once and reused across
// pairings); identifier is the opaque peer identifier sent in M5.
func NewSetupClient(identifier []byte, ltsk *apcrypto.Ed25519KeyPair) *SetupClient {
	return &SetupClient{state: StateInit, identifier: identifier, ltsk: ltsk}
}

// BuildM1 returns the M1 TLV8 body (method=0, state=1).
func (c *SetupClient) BuildM1() []byte {
	c.state = StateWaitingResponse
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{1}},
		{Type: tlv8.Method, Value: []byte{0}},
	})
}

// HandleM2 parses the server's SRP salt+B and builds M3 (A, client proof).
func (c *SetupClient) HandleM2(body []byte, pin string) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkNoTLVError(items); err != nil {
		return nil, c.fail(err)
	}
	if err := checkState(items, 2); err != nil {
		return nil, c.fail(err)
	}
	salt, ok := tlv8.Find(items, tlv8.Salt)
	if !ok {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: "missing salt"})
	}
	bBytes, ok := tlv8.Find(items, tlv8.PublicKey)
	if !ok {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: "missing server public key"})
	}

	cl, err := srp.NewClient(srp.Group3072(), srp.Username, pin)
	if err != nil {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	c.srpClient = cl

	serverB := new(big.Int).SetBytes(bBytes)
	m1, err := cl.ComputeProof(salt, serverB)
	if err != nil {
		return nil, c.fail(&Error{Kind: AuthenticationFailed, Msg: err.Error()})
	}

	c.state = StateSrpExchange
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{3}},
		{Type: tlv8.PublicKey, Value: cl.PublicA().Bytes()},
		{Type: tlv8.Proof, Value: m1},
	}), nil
}

// HandleM4 verifies the server's SRP proof and builds M5 (sealed long-term
// identity).
func (c *SetupClient) HandleM4(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkNoTLVError(items); err != nil {
		return nil, c.fail(err)
	}
	if err := checkState(items, 4); err != nil {
		return nil, c.fail(err)
	}
	m2, ok := tlv8.Find(items, tlv8.Proof)
	if !ok {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: "missing server proof"})
	}
	if err := c.srpClient.VerifyServerProof(m2); err != nil {
		return nil, c.fail(&Error{Kind: AuthenticationFailed, Msg: err.Error()})
	}

	if err := apcrypto.HKDFExpand([]byte("Pair-Setup-Encrypt-Salt"), c.srpClient.SessionKey(),
		[]byte("Pair-Setup-Encrypt-Info"), c.encKey[:]); err != nil {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	sig := c.ltsk.Sign(append(append([]byte{}, c.identifier...), c.ltsk.Public...))
	inner := tlv8.Encode([]tlv8.Item{
		{Type: tlv8.Identifier, Value: c.identifier},
		{Type: tlv8.PublicKey, Value: c.ltsk.Public},
		{Type: tlv8.Signature, Value: sig},
	})
	encrypted, err := apcrypto.ChaCha20Poly1305Encrypt(c.encKey[:], setupNonceM5[:], nil, inner)
	if err != nil {
		return nil, c.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	c.state = StateKeyExchange
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{5}},
		{Type: tlv8.EncryptedData, Value: encrypted},
	}), nil
}

// HandleM6 opens the server's sealed long-term identity and completes pairing.
func (c *SetupClient) HandleM6(body []byte) error {
	items, err := tlv8.Decode(body)
	if err != nil {
		return c.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkNoTLVError(items); err != nil {
		return c.fail(err)
	}
	if err := checkState(items, 6); err != nil {
		return c.fail(err)
	}
	encrypted, ok := tlv8.Find(items, tlv8.EncryptedData)
	if !ok {
		return c.fail(&Error{Kind: ProtocolError, Msg: "missing encrypted data"})
	}
	inner, err := apcrypto.ChaCha20Poly1305Decrypt(c.encKey[:], setupNonceM6[:], nil, encrypted)
	if err != nil {
		return c.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}
	innerItems, err := tlv8.Decode(inner)
	if err != nil {
		return c.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	peerIdentifier, ok := tlv8.Find(innerItems, tlv8.Identifier)
	if !ok {
		return c.fail(&Error{Kind: ProtocolError, Msg: "missing peer identifier"})
	}
	peerLTPK, ok := tlv8.Find(innerItems, tlv8.PublicKey)
	if !ok {
		return c.fail(&Error{Kind: ProtocolError, Msg: "missing peer public key"})
	}
	sig, ok := tlv8.Find(innerItems, tlv8.Signature)
	if !ok {
		return c.fail(&Error{Kind: ProtocolError, Msg: "missing signature"})
	}
	signed := append(append([]byte{}, peerIdentifier...), peerLTPK...)
	if err := apcrypto.Ed25519Verify(peerLTPK, signed, sig); err != nil {
		return c.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}

	c.Keys = &Keys{
		OurLTSK:        c.ltsk.Private,
		OurLTPK:        c.ltsk.Public,
		PeerIdentifier: peerIdentifier,
		PeerLTPK:       peerLTPK,
	}
	c.state = StateComplete
	return nil
}

// State returns the current machine state.
func (c *SetupClient) State() State { return c.state }

func (c *SetupClient) fail(err *Error) *Error {
	Logger.Warn().Str("kind", err.Kind.String()).Str("msg", err.Msg).Msg("SetupClient pairing failed")
	c.state = Failed(err)
	return err
}

// SetupServer runs the server/accessory role of Pair-Setup.
type SetupServer struct {
	state State

	identifier []byte
	ltsk       *apcrypto.Ed25519KeyPair
	srpServer  *srp.Server
	clientA    *big.Int
	encKey     [32]byte

	PeerKeys *Keys
}

// NewSetupServer starts a Pair-Setup server exchange given the accessory's
// persistent identifier, long-term identity and the (salt, verifier) pair
// configured for the current PIN (srp.Group3072().ComputeVerifier(...)).
func NewSetupServer(identifier []byte, ltsk *apcrypto.Ed25519KeyPair, salt []byte, verifier *big.Int) (*SetupServer, error) {
	s, err := srp.NewServer(srp.Group3072(), srp.Username, salt, verifier)
	if err != nil {
		return nil, err
	}
	return &SetupServer{state: StateInit, identifier: identifier, ltsk: ltsk, srpServer: s}, nil
}

// State returns the current machine state.
func (s *SetupServer) State() State { return s.state }

// HandleM1 parses the client's M1 and builds M2 (salt, B).
func (s *SetupServer) HandleM1(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkState(items, 1); err != nil {
		return nil, s.fail(err)
	}

	s.state = StateSrpExchange
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{2}},
		{Type: tlv8.Salt, Value: s.srpServer.Salt()},
		{Type: tlv8.PublicKey, Value: s.srpServer.PublicB().Bytes()},
	}), nil
}

// HandleM3 verifies the client's SRP proof and builds M4 (server proof).
func (s *SetupServer) HandleM3(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkState(items, 3); err != nil {
		return nil, s.fail(err)
	}
	aBytes, ok := tlv8.Find(items, tlv8.PublicKey)
	if !ok {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: "missing client public key"})
	}
	m1, ok := tlv8.Find(items, tlv8.Proof)
	if !ok {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: "missing client proof"})
	}
	s.clientA = new(big.Int).SetBytes(aBytes)

	m2, err := s.srpServer.VerifyClientProof(s.clientA, m1)
	if err != nil {
		return nil, s.fail(&Error{Kind: AuthenticationFailed, Msg: err.Error()})
	}

	if err := apcrypto.HKDFExpand([]byte("Pair-Setup-Encrypt-Salt"), s.srpServer.SessionKey(),
		[]byte("Pair-Setup-Encrypt-Info"), s.encKey[:]); err != nil {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	s.state = StateKeyExchange
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{4}},
		{Type: tlv8.Proof, Value: m2},
	}), nil
}

// HandleM5 opens the client's sealed long-term identity and builds M6.
func (s *SetupServer) HandleM5(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkState(items, 5); err != nil {
		return nil, s.fail(err)
	}
	encrypted, ok := tlv8.Find(items, tlv8.EncryptedData)
	if !ok {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: "missing encrypted data"})
	}
	inner, err := apcrypto.ChaCha20Poly1305Decrypt(s.encKey[:], setupNonceM5[:], nil, encrypted)
	if err != nil {
		return nil, s.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}
	innerItems, err := tlv8.Decode(inner)
	if err != nil {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	peerIdentifier, ok := tlv8.Find(innerItems, tlv8.Identifier)
	if !ok {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: "missing peer identifier"})
	}
	peerLTPK, ok := tlv8.Find(innerItems, tlv8.PublicKey)
	if !ok {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: "missing peer public key"})
	}
	sig, ok := tlv8.Find(innerItems, tlv8.Signature)
	if !ok {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: "missing signature"})
	}
	signed := append(append([]byte{}, peerIdentifier...), peerLTPK...)
	if err := apcrypto.Ed25519Verify(peerLTPK, signed, sig); err != nil {
		return nil, s.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}

	s.PeerKeys = &Keys{
		OurLTSK:        s.ltsk.Private,
		OurLTPK:        s.ltsk.Public,
		PeerIdentifier: peerIdentifier,
		PeerLTPK:       peerLTPK,
	}

	ourSig := s.ltsk.Sign(append(append([]byte{}, s.identifier...), s.ltsk.Public...))
	ourInner := tlv8.Encode([]tlv8.Item{
		{Type: tlv8.Identifier, Value: s.identifier},
		{Type: tlv8.PublicKey, Value: s.ltsk.Public},
		{Type: tlv8.Signature, Value: ourSig},
	})
	ourEncrypted, err := apcrypto.ChaCha20Poly1305Encrypt(s.encKey[:], setupNonceM6[:], nil, ourInner)
	if err != nil {
		return nil, s.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	s.state = StateComplete
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{6}},
		{Type: tlv8.EncryptedData, Value: ourEncrypted},
	}), nil
}

func (s *SetupServer) fail(err *Error) *Error {
	Logger.Warn().Str("kind", err.Kind.String()).Str("msg", err.Msg).Msg("SetupServer pairing failed")
	s.state = Failed(err)
	return err
}
