package rtsp

import "strconv"

// CSeqTracker assigns monotonically increasing CSeq values to outgoing
// requests and matches incoming responses against them (§4.3: "a
// monotonically increasing CSeq header is tracked per session; responses
// MUST echo the request CSeq").
type CSeqTracker struct {
	next uint64
}

// Assign stamps req.Header["CSeq"] with the next sequence value and returns it.
func (t *CSeqTracker) Assign(req *Request) uint64 {
	t.next++
	if req.Header == nil {
		req.Header = make(Header)
	}
	req.Header.Set("CSeq", strconv.FormatUint(t.next, 10))
	return t.next
}

// Verify checks that res carries the CSeq value expected for want.
func Verify(res *Response, want uint64) bool {
	v, ok := res.Header.Get("CSeq")
	if !ok {
		return false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return false
	}
	return n == want
}
