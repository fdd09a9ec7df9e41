package pairing

import (
	apcrypto "github.com/airplay2/airplay2/crypto"
	"github.com/airplay2/airplay2/crypto/tlv8"
)

// transientVerifyNonceM3 is the fixed AEAD nonce 0x00...01 used to seal the
// M3 identity payload. This is distinct from LittleEndianNonce's running
// counter construction (crypto/chacha20poly1305.go): Transient pairing uses
// one fixed nonce per direction, not a monotonic per-packet counter.
var transientVerifyNonceM3 = [12]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

// TransientClient runs the client role of Transient pairing (no long-term
// identity stored): M1 sends our ephemeral X25519 public key, M2 carries
// the peer's, M3 carries a signed+sealed identity, M4 completes it, and
// step 5 derives the final bidirectional control keys (§4.2).
type TransientClient struct {
	state State

	identifier []byte
	ephemeral  *apcrypto.X25519KeyPair
	signer     *apcrypto.Ed25519KeyPair
	peerPub    [32]byte
	verifyKey  [32]byte

	SessionKeys *SessionKeys
}

// NewTransientClient starts a client exchange, generating fresh ephemeral
// X25519 and Ed25519 identities. identifier is an opaque client identifier
// (e.g. a UUID) sent inside the sealed M3 payload.
func NewTransientClient(identifier []byte) (*TransientClient, error) {
	ephemeral, err := apcrypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	signer, err := apcrypto.GenerateEd25519KeyPair()
	if err != nil {
		return nil, err
	}
	return &TransientClient{
		state:      StateInit,
		identifier: identifier,
		ephemeral:  ephemeral,
		signer:     signer,
	}, nil
}

// State returns the current machine state.
func (c *TransientClient) State() State { return c.state }

// BuildM1 returns the M1 TLV8 body to send.
func (c *TransientClient) BuildM1() []byte {
	c.state = StateWaitingResponse
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{1}},
		{Type: tlv8.Method, Value: []byte{0}},
		{Type: tlv8.PublicKey, Value: c.ephemeral.Public[:]},
	})
}

// HandleM2 parses the server's M2 and builds M3.
func (c *TransientClient) HandleM2(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		c.state = Failed(werr)
		return nil, werr
	}
	if err := checkNoTLVError(items); err != nil {
		c.state = Failed(err)
		return nil, err
	}
	if err := checkState(items, 2); err != nil {
		c.state = Failed(err)
		return nil, err
	}
	pub, ok := tlv8.Find(items, tlv8.PublicKey)
	if !ok || len(pub) != 32 {
		err := &Error{Kind: ProtocolError, Msg: "missing peer public key"}
		c.state = Failed(err)
		return nil, err
	}
	copy(c.peerPub[:], pub)

	shared, err := apcrypto.X25519DH(c.ephemeral.Private, c.peerPub)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		c.state = Failed(werr)
		return nil, werr
	}
	defer shared.Zero()

	if err := apcrypto.HKDFExpand([]byte("Pair-Verify-Encrypt-Salt"), shared[:],
		[]byte("Pair-Verify-Encrypt-Info"), c.verifyKey[:]); err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		c.state = Failed(werr)
		return nil, werr
	}

	signed := append(append([]byte{}, c.ephemeral.Public[:]...), c.peerPub[:]...)
	sig := c.signer.Sign(signed)

	inner := tlv8.Encode([]tlv8.Item{
		{Type: tlv8.Identifier, Value: c.identifier},
		{Type: tlv8.Signature, Value: sig},
	})
	encrypted, err := apcrypto.ChaCha20Poly1305Encrypt(c.verifyKey[:], transientVerifyNonceM3[:], nil, inner)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		c.state = Failed(werr)
		return nil, werr
	}

	c.state = StateVerifying
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{3}},
		{Type: tlv8.EncryptedData, Value: encrypted},
	}), nil
}

// HandleM4 parses the server's final M4 and derives the control keys.
func (c *TransientClient) HandleM4(body []byte) error {
	items, err := tlv8.Decode(body)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		c.state = Failed(werr)
		return werr
	}
	if err := checkNoTLVError(items); err != nil {
		c.state = Failed(err)
		return err
	}
	if err := checkState(items, 4); err != nil {
		c.state = Failed(err)
		return err
	}

	shared, err := apcrypto.X25519DH(c.ephemeral.Private, c.peerPub)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		c.state = Failed(werr)
		return werr
	}
	defer shared.Zero()

	sk, err := deriveControlKeys(shared, false)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		c.state = Failed(werr)
		return werr
	}
	c.SessionKeys = sk
	c.state = StateComplete
	return nil
}

// TransientServer runs the accessory/server role of Transient pairing.
type TransientServer struct {
	state State

	ephemeral *apcrypto.X25519KeyPair
	peerPub   [32]byte
	verifyKey [32]byte

	PeerIdentifier []byte

	SessionKeys *SessionKeys
}

// NewTransientServer starts a server exchange, generating a fresh ephemeral
// X25519 identity.
func NewTransientServer() (*TransientServer, error) {
	ephemeral, err := apcrypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	return &TransientServer{state: StateInit, ephemeral: ephemeral}, nil
}

// State returns the current machine state.
func (s *TransientServer) State() State { return s.state }

// HandleM1 parses the client's M1 and builds M2.
func (s *TransientServer) HandleM1(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		s.state = Failed(werr)
		return nil, werr
	}
	if err := checkState(items, 1); err != nil {
		s.state = Failed(err)
		return nil, err
	}
	pub, ok := tlv8.Find(items, tlv8.PublicKey)
	if !ok || len(pub) != 32 {
		err := &Error{Kind: ProtocolError, Msg: "missing peer public key"}
		s.state = Failed(err)
		return nil, err
	}
	copy(s.peerPub[:], pub)

	s.state = StateVerifying
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{2}},
		{Type: tlv8.PublicKey, Value: s.ephemeral.Public[:]},
	}), nil
}

// HandleM3 opens the client's sealed M3, records the client's identifier and
// builds M4. The signature record must be present but is not verified.
func (s *TransientServer) HandleM3(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		s.state = Failed(werr)
		return nil, werr
	}
	if err := checkNoTLVError(items); err != nil {
		s.state = Failed(err)
		return nil, err
	}
	if err := checkState(items, 3); err != nil {
		s.state = Failed(err)
		return nil, err
	}
	encrypted, ok := tlv8.Find(items, tlv8.EncryptedData)
	if !ok {
		err := &Error{Kind: ProtocolError, Msg: "missing encrypted data"}
		s.state = Failed(err)
		return nil, err
	}

	shared, err := apcrypto.X25519DH(s.ephemeral.Private, s.peerPub)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		s.state = Failed(werr)
		return nil, werr
	}
	defer shared.Zero()

	if err := apcrypto.HKDFExpand([]byte("Pair-Verify-Encrypt-Salt"), shared[:],
		[]byte("Pair-Verify-Encrypt-Info"), s.verifyKey[:]); err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		s.state = Failed(werr)
		return nil, werr
	}

	inner, err := apcrypto.ChaCha20Poly1305Decrypt(s.verifyKey[:], transientVerifyNonceM3[:], nil, encrypted)
	if err != nil {
		werr := &Error{Kind: SignatureVerificationFailed, Msg: err.Error()}
		s.state = Failed(werr)
		return nil, werr
	}
	innerItems, err := tlv8.Decode(inner)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		s.state = Failed(werr)
		return nil, werr
	}
	identifier, ok := tlv8.Find(innerItems, tlv8.Identifier)
	if !ok {
		err := &Error{Kind: ProtocolError, Msg: "missing identifier"}
		s.state = Failed(err)
		return nil, err
	}
	sig, ok := tlv8.Find(innerItems, tlv8.Signature)
	if !ok {
		err := &Error{Kind: ProtocolError, Msg: "missing signature"}
		s.state = Failed(err)
		return nil, err
	}

	// Transient has no stored long-term peer identity to verify the
	// signature against; the signing key is ephemeral and self-asserted,
	// so the signature only binds the transcript, it is not authenticated
	// against a known identity (unlike Pair-Verify). Only the presence of a
	// signature record is checked; its length and content are not.
	_ = sig
	s.PeerIdentifier = identifier

	s.state = StateVerifying
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{4}},
	}), nil
}

// Finish derives the final bidirectional control keys after M4 has been sent.
func (s *TransientServer) Finish() error {
	shared, err := apcrypto.X25519DH(s.ephemeral.Private, s.peerPub)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		s.state = Failed(werr)
		return werr
	}
	defer shared.Zero()

	sk, err := deriveControlKeys(shared, true)
	if err != nil {
		werr := &Error{Kind: ProtocolError, Msg: err.Error()}
		s.state = Failed(werr)
		return werr
	}
	s.SessionKeys = sk
	s.state = StateComplete
	return nil
}

// checkState verifies the peer's state tag matches expected, per the
// "advancing state byte the peer must match" contract shared by all three
// machines.
func checkState(items []tlv8.Item, expected byte) *Error {
	v, ok := tlv8.Find(items, tlv8.State)
	if !ok || len(v) != 1 || v[0] != expected {
		return &Error{Kind: ProtocolError, Msg: "unexpected state tag"}
	}
	return nil
}

// checkNoTLVError inspects for a non-zero kTLVError record and, if present,
// returns the mapped ErrorKind, driving the machine to Failed.
func checkNoTLVError(items []tlv8.Item) *Error {
	v, ok := tlv8.Find(items, tlv8.Error)
	if !ok || len(v) == 0 || v[0] == 0 {
		return nil
	}
	return &Error{Kind: errorKindFromTLV8Code(v[0]), Msg: "peer returned TLV8 error"}
}
