package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airplay2/airplay2/rtsp"
)

// Session is the Session header, identifying the RTSP session an exchange
// belongs to and optionally carrying the server's idle timeout (§4.5).
type Session struct {
	Session string
	Timeout *int
}

// Read decodes a Session header value.
func (h *Session) Read(v rtsp.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}
	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times (%v)", v)
	}

	str := v[0]
	i := strings.IndexByte(str, ';')
	if i < 0 {
		h.Session = str
		h.Timeout = nil
		return nil
	}

	h.Session = str[:i]
	rest := str[i+1:]

	kvs, err := keyValParse(rest, ';')
	if err != nil {
		return err
	}
	if to, ok := kvs["timeout"]; ok {
		n, err := strconv.Atoi(to)
		if err != nil {
			return fmt.Errorf("invalid timeout (%v)", to)
		}
		h.Timeout = &n
	}

	return nil
}

// Write encodes h as a Session header value.
func (h Session) Write() rtsp.HeaderValue {
	if h.Timeout != nil {
		return rtsp.HeaderValue{fmt.Sprintf("%s;timeout=%d", h.Session, *h.Timeout)}
	}
	return rtsp.HeaderValue{h.Session}
}
