// Package crypto provides the primitives the pairing, RTSP-framing and
// RTP-audio layers build on: Ed25519, X25519, HKDF-SHA512, ChaCha20-Poly1305
// and AES (CTR/GCM), RSA-OAEP/PKCS1v15 for RAOP, and zeroization helpers for
// key material.
package crypto

import "fmt"

// ErrorKind identifies the class of failure behind an Error.
type ErrorKind int

// error kinds, per spec.
const (
	InvalidKeyLength ErrorKind = iota
	InvalidSignature
	VerificationFailed
	DecryptionFailed
	EncryptionFailed
	KeyDerivationFailed
	SrpError
	InvalidPublicKey
	RngError
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidKeyLength:
		return "InvalidKeyLength"
	case InvalidSignature:
		return "InvalidSignature"
	case VerificationFailed:
		return "VerificationFailed"
	case DecryptionFailed:
		return "DecryptionFailed"
	case EncryptionFailed:
		return "EncryptionFailed"
	case KeyDerivationFailed:
		return "KeyDerivationFailed"
	case SrpError:
		return "SrpError"
	case InvalidPublicKey:
		return "InvalidPublicKey"
	case RngError:
		return "RngError"
	default:
		return "Unknown"
	}
}

// Error is the single sum-type error returned by this package. Decryption
// failures never carry detail beyond the kind: a tag mismatch and a format
// error both surface as a plain DecryptionFailed, so a caller cannot use
// error content as an oracle.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newErr(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// errDecryptionFailed is the single opaque decryption error, reused instead
// of constructed ad hoc so callers can compare by kind rather than string.
var errDecryptionFailed = &Error{Kind: DecryptionFailed}
