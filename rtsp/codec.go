package rtsp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// ErrIncomplete is a sentinel distinguishing "not enough data buffered yet"
// from a genuine parse error; Decode returns (nil, false, nil) for this case
// rather than wrapping it, since it is the expected steady-state return
// between reads.
var ErrIncomplete = errors.New("rtsp: incomplete message")

// Message is either a *Request or a *Response, returned by Codec.Decode.
type Message interface{}

// Codec is a sans-I/O incremental RTSP message codec (§4.3): bytes arrive
// via Feed in whatever chunks the transport delivers them, and Decode is
// called in a loop until it reports no complete message is buffered.
// Decode never blocks and never performs I/O itself.
type Codec struct {
	buf bytes.Buffer
}

// NewCodec returns an empty Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Feed appends newly-received bytes to the internal buffer.
func (c *Codec) Feed(data []byte) {
	c.buf.Write(data)
}

// Decode attempts to consume one complete message (start line + headers
// terminated by CRLFCRLF, plus a Content-Length-sized body) from the
// buffered bytes. It returns (nil, false, nil) when no complete message is
// yet available — the caller should Feed more and retry — and (msg, true,
// nil) on success, consuming exactly the bytes of that message from the
// buffer. A malformed message (one where the start line onward cannot
// possibly parse) returns a non-nil error.
func (c *Codec) Decode() (Message, bool, error) {
	raw := c.buf.Bytes()

	headerEnd := bytes.Index(raw, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		if c.buf.Len() > headerMaxTotalLength {
			return nil, false, errors.New("rtsp: headers exceed maximum length without terminator")
		}
		return nil, false, nil
	}

	contentLength := parseContentLengthFromRaw(raw[:headerEnd])
	total := headerEnd + 4 + contentLength
	if c.buf.Len() < total {
		return nil, false, nil
	}

	msgBytes := make([]byte, total)
	copy(msgBytes, raw[:total])

	rb := bufio.NewReader(bytes.NewReader(msgBytes))
	msg, err := decodeOne(rb)
	if err != nil {
		return nil, false, err
	}

	c.buf.Next(total)
	return msg, true, nil
}

// headerMaxTotalLength bounds how much unterminated header data Decode will
// buffer before giving up, guarding against a peer that never sends CRLFCRLF.
const headerMaxTotalLength = 64 * 1024

func decodeOne(rb *bufio.Reader) (Message, error) {
	peeked, err := rb.Peek(1)
	if err != nil {
		return nil, err
	}

	// A response's start line begins "RTSP/1.0 ...", never a valid method
	// token (methods don't contain '/').
	if peeked[0] == 'R' {
		isResponse, err := looksLikeResponse(rb)
		if err != nil {
			return nil, err
		}
		if isResponse {
			res := &Response{Header: make(Header)}
			if err := res.read(rb); err != nil {
				return nil, err
			}
			return res, nil
		}
	}

	req := &Request{Header: make(Header)}
	if err := req.read(rb); err != nil {
		return nil, err
	}
	return req, nil
}

func looksLikeResponse(rb *bufio.Reader) (bool, error) {
	prefix, err := rb.Peek(len(rtspProtocol10))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return string(prefix) == rtspProtocol10, nil
}

// parseContentLengthFromRaw scans the raw header block (without the
// trailing CRLFCRLF) for a Content-Length line, defaulting to 0. This is a
// cheap pre-scan so Decode can determine the total message length before
// committing to a full header parse; message.go's real Header.read is the
// source of truth once decodeOne runs.
func parseContentLengthFromRaw(header []byte) int {
	lines := bytes.Split(header, []byte("\r\n"))
	for _, line := range lines {
		sep := bytes.IndexByte(line, ':')
		if sep < 0 {
			continue
		}
		key := string(bytes.TrimSpace(line[:sep]))
		if headerKeyNormalize(key) != "Content-Length" {
			continue
		}
		val := bytes.TrimSpace(line[sep+1:])
		n := 0
		for _, b := range val {
			if b < '0' || b > '9' {
				return 0
			}
			n = n*10 + int(b-'0')
		}
		return n
	}
	return 0
}

// Encode serializes a *Request or *Response into its wire form.
func Encode(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)

	switch m := msg.(type) {
	case *Request:
		if err := m.write(bw); err != nil {
			return nil, err
		}
	case Request:
		if err := m.write(bw); err != nil {
			return nil, err
		}
	case *Response:
		if err := m.write(bw); err != nil {
			return nil, err
		}
	case Response:
		if err := m.write(bw); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("rtsp: Encode: unsupported message type")
	}

	return buf.Bytes(), nil
}
