// Package pairing implements the HomeKit/AirPlay 2 pairing state machines
// (Transient, Pair-Setup, Pair-Verify) and the orthogonal RAOP
// challenge-response handshake (§4.2). All three share TLV8 as their wire
// format and an advancing one-byte state tag the peer must match.
package pairing

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Logger receives Warn-level lines whenever a Pair-Setup or Pair-Verify
// state machine transitions to Failed; the Transient machines do not log
// through it. It defaults to a no-op logger; assign a real zerolog.Logger to
// observe pairing failures.
var Logger = zerolog.Nop()

// ErrorKind classifies a pairing failure (§7).
type ErrorKind int

const (
	// AuthenticationFailed indicates a wrong PIN (TLV8 error code 0x02).
	AuthenticationFailed ErrorKind = iota
	// Backoff indicates the device asked us to retry later (error code 0x03).
	Backoff
	// MaxTries indicates too many failed attempts.
	MaxTries
	// Busy indicates the peer is mid-exchange with someone else.
	Busy
	// NotSupported indicates the peer rejected the requested method.
	NotSupported
	// SignatureVerificationFailed indicates a Pair-Verify signature check failed.
	SignatureVerificationFailed
	// ProtocolError indicates a malformed or out-of-sequence TLV8 message.
	ProtocolError
)

func (k ErrorKind) String() string {
	switch k {
	case AuthenticationFailed:
		return "AuthenticationFailed"
	case Backoff:
		return "Backoff"
	case MaxTries:
		return "MaxTries"
	case Busy:
		return "Busy"
	case NotSupported:
		return "NotSupported"
	case SignatureVerificationFailed:
		return "SignatureVerificationFailed"
	case ProtocolError:
		return "ProtocolError"
	default:
		return "Unknown"
	}
}

// Error is the single error type pairing state machines return.
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

// errorKindFromTLV8Code maps a TLV8 kTLVError code to an ErrorKind, per §4.2:
// "Any peer TLV containing a non-zero error record drives the machine to
// Failed with a kind derived from the error code".
func errorKindFromTLV8Code(code byte) ErrorKind {
	switch code {
	case 0x01:
		return ProtocolError
	case 0x02:
		return AuthenticationFailed
	case 0x03:
		return Backoff
	case 0x04:
		return MaxTries
	case 0x05:
		return Busy
	default:
		return ProtocolError
	}
}
