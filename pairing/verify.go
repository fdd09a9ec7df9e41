package pairing

import (
	"crypto/ed25519"

	apcrypto "github.com/airplay2/airplay2/crypto"
	"github.com/airplay2/airplay2/crypto/tlv8"
)

// verifyNonceM3 is the fixed nonce sealing the initiator's signature inside
// Pair-Verify M3, distinct from Transient's transientVerifyNonceM3 value so
// the two protocols can never be confused if a key were ever reused.
var verifyNonceM3 = [12]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

// verifyNonceM4 seals the responder's signature inside M4.
var verifyNonceM4 = [12]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}

// VerifyInitiator runs the initiating side of Pair-Verify: a fast re-auth
// using keys already established by a prior Pair-Setup (§4.2). Ephemeral
// X25519 in M1/M2, then each side signs own_ephemeral‖peer_ephemeral with
// its long-term Ed25519 key and the signature is verified against the
// peer's stored peer_ltpk.
type VerifyInitiator struct {
	state State

	keys      *Keys
	ephemeral *apcrypto.X25519KeyPair
	peerPub   [32]byte
	verifyKey [32]byte

	SessionKeys *SessionKeys
}

// NewVerifyInitiator starts a Pair-Verify exchange using the long-term
// identity a prior Pair-Setup produced.
func NewVerifyInitiator(keys *Keys) (*VerifyInitiator, error) {
	ephemeral, err := apcrypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	return &VerifyInitiator{state: StateInit, keys: keys, ephemeral: ephemeral}, nil
}

// State returns the current machine state.
func (v *VerifyInitiator) State() State { return v.state }

// BuildM1 returns the M1 TLV8 body (our ephemeral public key).
func (v *VerifyInitiator) BuildM1() []byte {
	v.state = StateWaitingResponse
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{1}},
		{Type: tlv8.PublicKey, Value: v.ephemeral.Public[:]},
	})
}

// HandleM2 parses the responder's ephemeral public key plus sealed
// signature, verifies it against the responder's previously-stored
// peer_ltpk, and builds M3 sealing our own signature.
func (v *VerifyInitiator) HandleM2(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkNoTLVError(items); err != nil {
		return nil, v.fail(err)
	}
	if err := checkState(items, 2); err != nil {
		return nil, v.fail(err)
	}
	pub, ok := tlv8.Find(items, tlv8.PublicKey)
	if !ok || len(pub) != 32 {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing peer public key"})
	}
	copy(v.peerPub[:], pub)
	encrypted, ok := tlv8.Find(items, tlv8.EncryptedData)
	if !ok {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing encrypted data"})
	}

	shared, err := apcrypto.X25519DH(v.ephemeral.Private, v.peerPub)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	defer shared.Zero()

	if err := apcrypto.HKDFExpand([]byte("Pair-Verify-Encrypt-Salt"), shared[:],
		[]byte("Pair-Verify-Encrypt-Info"), v.verifyKey[:]); err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	inner, err := apcrypto.ChaCha20Poly1305Decrypt(v.verifyKey[:], verifyNonceM4[:], nil, encrypted)
	if err != nil {
		return nil, v.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}
	innerItems, err := tlv8.Decode(inner)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	peerIdentifier, ok := tlv8.Find(innerItems, tlv8.Identifier)
	if !ok {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing peer identifier"})
	}
	sig, ok := tlv8.Find(innerItems, tlv8.Signature)
	if !ok {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing signature"})
	}
	if string(peerIdentifier) != string(v.keys.PeerIdentifier) {
		return nil, v.fail(&Error{Kind: SignatureVerificationFailed, Msg: "peer identifier mismatch"})
	}
	signed := append(append([]byte{}, v.peerPub[:]...), v.ephemeral.Public[:]...)
	if err := apcrypto.Ed25519Verify(v.keys.PeerLTPK, signed, sig); err != nil {
		return nil, v.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}

	ourSigned := append(append([]byte{}, v.ephemeral.Public[:]...), v.peerPub[:]...)
	ourSig := ed25519.Sign(v.keys.OurLTSK, ourSigned)
	ourInner := tlv8.Encode([]tlv8.Item{
		{Type: tlv8.Identifier, Value: v.keys.PeerIdentifier},
		{Type: tlv8.Signature, Value: ourSig},
	})
	ourEncrypted, err := apcrypto.ChaCha20Poly1305Encrypt(v.verifyKey[:], verifyNonceM3[:], nil, ourInner)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	v.state = StateVerifying
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{3}},
		{Type: tlv8.EncryptedData, Value: ourEncrypted},
	}), nil
}

// HandleM4 parses the responder's completion message and derives the final
// bidirectional control keys.
func (v *VerifyInitiator) HandleM4(body []byte) error {
	items, err := tlv8.Decode(body)
	if err != nil {
		return v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkNoTLVError(items); err != nil {
		return v.fail(err)
	}
	if err := checkState(items, 4); err != nil {
		return v.fail(err)
	}

	shared, err := apcrypto.X25519DH(v.ephemeral.Private, v.peerPub)
	if err != nil {
		return v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	defer shared.Zero()

	sk, err := deriveControlKeys(shared, false)
	if err != nil {
		return v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	v.SessionKeys = sk
	v.state = StateComplete
	return nil
}

func (v *VerifyInitiator) fail(err *Error) *Error {
	Logger.Warn().Str("kind", err.Kind.String()).Str("msg", err.Msg).Msg("VerifyInitiator pairing failed")
	v.state = Failed(err)
	return err
}

// VerifyResponder runs the responding side of Pair-Verify.
type VerifyResponder struct {
	state State

	keys      *Keys
	ephemeral *apcrypto.X25519KeyPair
	peerPub   [32]byte
	verifyKey [32]byte

	SessionKeys *SessionKeys
}

// NewVerifyResponder starts a Pair-Verify responder exchange using the
// long-term identity a prior Pair-Setup produced.
func NewVerifyResponder(keys *Keys) (*VerifyResponder, error) {
	ephemeral, err := apcrypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	return &VerifyResponder{state: StateInit, keys: keys, ephemeral: ephemeral}, nil
}

// State returns the current machine state.
func (v *VerifyResponder) State() State { return v.state }

// HandleM1 parses the initiator's ephemeral public key and builds M2
// sealing our signature of our_ephemeral‖peer_ephemeral.
func (v *VerifyResponder) HandleM1(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkState(items, 1); err != nil {
		return nil, v.fail(err)
	}
	pub, ok := tlv8.Find(items, tlv8.PublicKey)
	if !ok || len(pub) != 32 {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing peer public key"})
	}
	copy(v.peerPub[:], pub)

	shared, err := apcrypto.X25519DH(v.ephemeral.Private, v.peerPub)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	defer shared.Zero()

	if err := apcrypto.HKDFExpand([]byte("Pair-Verify-Encrypt-Salt"), shared[:],
		[]byte("Pair-Verify-Encrypt-Info"), v.verifyKey[:]); err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	signed := append(append([]byte{}, v.ephemeral.Public[:]...), v.peerPub[:]...)
	sig := ed25519.Sign(v.keys.OurLTSK, signed)
	inner := tlv8.Encode([]tlv8.Item{
		{Type: tlv8.Identifier, Value: v.keys.PeerIdentifier},
		{Type: tlv8.Signature, Value: sig},
	})
	encrypted, err := apcrypto.ChaCha20Poly1305Encrypt(v.verifyKey[:], verifyNonceM4[:], nil, inner)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}

	v.state = StateVerifying
	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{2}},
		{Type: tlv8.PublicKey, Value: v.ephemeral.Public[:]},
		{Type: tlv8.EncryptedData, Value: encrypted},
	}), nil
}

// HandleM3 verifies the initiator's sealed signature against the stored
// peer_ltpk and builds M4.
func (v *VerifyResponder) HandleM3(body []byte) ([]byte, error) {
	items, err := tlv8.Decode(body)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	if err := checkNoTLVError(items); err != nil {
		return nil, v.fail(err)
	}
	if err := checkState(items, 3); err != nil {
		return nil, v.fail(err)
	}
	encrypted, ok := tlv8.Find(items, tlv8.EncryptedData)
	if !ok {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing encrypted data"})
	}
	inner, err := apcrypto.ChaCha20Poly1305Decrypt(v.verifyKey[:], verifyNonceM3[:], nil, encrypted)
	if err != nil {
		return nil, v.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}
	innerItems, err := tlv8.Decode(inner)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	peerIdentifier, ok := tlv8.Find(innerItems, tlv8.Identifier)
	if !ok {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing peer identifier"})
	}
	sig, ok := tlv8.Find(innerItems, tlv8.Signature)
	if !ok {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: "missing signature"})
	}
	if string(peerIdentifier) != string(v.keys.PeerIdentifier) {
		return nil, v.fail(&Error{Kind: SignatureVerificationFailed, Msg: "peer identifier mismatch"})
	}
	signed := append(append([]byte{}, v.peerPub[:]...), v.ephemeral.Public[:]...)
	if err := apcrypto.Ed25519Verify(v.keys.PeerLTPK, signed, sig); err != nil {
		return nil, v.fail(&Error{Kind: SignatureVerificationFailed, Msg: err.Error()})
	}

	shared, err := apcrypto.X25519DH(v.ephemeral.Private, v.peerPub)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	defer shared.Zero()

	sk, err := deriveControlKeys(shared, true)
	if err != nil {
		return nil, v.fail(&Error{Kind: ProtocolError, Msg: err.Error()})
	}
	v.SessionKeys = sk
	v.state = StateComplete

	return tlv8.Encode([]tlv8.Item{
		{Type: tlv8.State, Value: []byte{4}},
	}), nil
}

func (v *VerifyResponder) fail(err *Error) *Error {
	Logger.Warn().Str("kind", err.Kind.String()).Str("msg", err.Msg).Msg("VerifyResponder pairing failed")
	v.state = Failed(err)
	return err
}
