package sdp

import "fmt"

// ErrorKind classifies why an ANNOUNCE body could not be turned into
// StreamParameters.
type ErrorKind int

const (
	// MalformedSDP means pion/sdp/v3 itself rejected the body.
	MalformedSDP ErrorKind = iota
	// UnsupportedCodec means the codec named in a=rtpmap is not one
	// AirPlay defines.
	UnsupportedCodec
	// MissingAttribute means a required a= line is absent for the
	// negotiated encryption mode.
	MissingAttribute
	// InvalidAttribute means a required a= line is present but malformed
	// (bad base64, wrong length, non-numeric).
	InvalidAttribute
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedSDP:
		return "MalformedSDP"
	case UnsupportedCodec:
		return "UnsupportedCodec"
	case MissingAttribute:
		return "MissingAttribute"
	case InvalidAttribute:
		return "InvalidAttribute"
	default:
		return "Unknown"
	}
}

// Error is returned by Parse when an ANNOUNCE body is not a valid AirPlay
// stream description.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sdp: %s: %s", e.Kind, e.Msg)
}

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
