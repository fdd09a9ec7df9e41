package timing

import "time"

// NTPSample is one completed four-timestamp RAOP timing exchange (§4.5):
// T1 client send, T2 server receive, T3 server send, T4 client receive.
type NTPSample struct {
	T1, T2, T3, T4 time.Time
}

// Offset returns ((T2−T1)+(T3−T4))/2, the estimated remote-minus-local
// clock offset at the time of this exchange.
func (s NTPSample) Offset() time.Duration {
	return (s.T2.Sub(s.T1) + s.T3.Sub(s.T4)) / 2
}

// RTT returns (T4−T1) − (T3−T2), the round-trip time net of the server's
// own processing delay.
func (s NTPSample) RTT() time.Duration {
	return s.T4.Sub(s.T1) - s.T3.Sub(s.T2)
}
