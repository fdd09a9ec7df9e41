package timing

import (
	"math"
	"time"
)

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const ntpEpochOffset = 2208988800

// EncodeNTP encodes t as an NTP-format timestamp: 32 bits of seconds since
// 1900-01-01 UTC, 32 bits of fractional seconds (§4.5).
func EncodeNTP(t time.Time) uint64 {
	ntp := uint64(t.UnixNano()) + ntpEpochOffset*1000000000
	secs := ntp / 1000000000
	fractional := uint64(math.Round(float64((ntp%1000000000)*(1<<32)) / 1000000000))
	return secs<<32 | fractional
}

// DecodeNTP decodes an NTP-format timestamp back to a time.Time.
func DecodeNTP(v uint64) time.Time {
	secs := int64((v >> 32) - ntpEpochOffset)
	nanos := int64(math.Round(float64(((v & 0xFFFFFFFF) * 1000000000) / (1 << 32))))
	return time.Unix(secs, nanos)
}
