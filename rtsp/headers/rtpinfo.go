package headers

import (
	"fmt"
	"strconv"

	"github.com/airplay2/airplay2/rtsp"
)

// RTPInfo is the RTP-Info header sent with a PLAY response, anchoring the
// receiver's RTP sequence/timestamp origin to the request that started
// playback (§4.4).
type RTPInfo struct {
	URL     string
	Seq     *uint16
	RTPTime *uint32
}

// Read decodes an RTP-Info header value.
func (h *RTPInfo) Read(v rtsp.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}
	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times (%v)", v)
	}

	kvs, err := keyValParse(v[0], ';')
	if err != nil {
		return err
	}

	if u, ok := kvs["url"]; ok {
		h.URL = u
	}
	if s, ok := kvs["seq"]; ok {
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid seq (%v)", s)
		}
		v := uint16(n)
		h.Seq = &v
	}
	if rt, ok := kvs["rtptime"]; ok {
		n, err := strconv.ParseUint(rt, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid rtptime (%v)", rt)
		}
		v := uint32(n)
		h.RTPTime = &v
	}

	return nil
}

// Write encodes h as an RTP-Info header value.
func (h RTPInfo) Write() rtsp.HeaderValue {
	out := fmt.Sprintf("url=%s", h.URL)
	if h.Seq != nil {
		out += fmt.Sprintf(";seq=%d", *h.Seq)
	}
	if h.RTPTime != nil {
		out += fmt.Sprintf(";rtptime=%d", *h.RTPTime)
	}
	return rtsp.HeaderValue{out}
}
