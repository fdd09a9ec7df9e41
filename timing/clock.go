package timing

import (
	"sort"
	"sync/atomic"
	"time"
)

// ClockModel is the published result of the clock filter: remote time is
// estimated as local time plus a drifting offset (§3, §4.5).
type ClockModel struct {
	OffsetNS          int64
	DriftPPM          float64
	LastUpdated       time.Time
	ConfidenceSamples uint32
}

// RemoteToLocal converts a remote-clock timestamp (nanoseconds since an
// arbitrary but consistent remote epoch) to local time, projecting drift
// forward from LastUpdated.
func (m ClockModel) RemoteToLocal(remoteNS int64, now time.Time) int64 {
	elapsed := now.Sub(m.LastUpdated).Seconds()
	projectedOffset := float64(m.OffsetNS) + m.DriftPPM*elapsed*1000.0
	return remoteNS - int64(projectedOffset)
}

// filterSample is one offset/RTT observation fed to the filter, independent
// of whether it came from an NTP exchange or a PTP Sync/Delay_Resp pair.
type filterSample struct {
	Offset    time.Duration
	RTT       time.Duration
	LocalTime time.Time
}

// Filter is the sliding-window clock filter described in §4.5: it keeps
// W recent samples, rejects outliers by RTT, and publishes a ClockModel as
// the median offset plus a linear-fit drift estimate.
type Filter struct {
	window  []filterSample
	maxSize int
	model   atomic.Pointer[ClockModel]
}

// NewFilter returns a Filter retaining up to windowSize samples
// (spec.md suggests W ≈ 8–16).
func NewFilter(windowSize int) *Filter {
	f := &Filter{maxSize: windowSize}
	zero := ClockModel{}
	f.model.Store(&zero)
	return f
}

// AddNTPSample feeds an NTP-style four-timestamp exchange into the filter.
func (f *Filter) AddNTPSample(s NTPSample) {
	f.add(filterSample{Offset: s.Offset(), RTT: s.RTT(), LocalTime: s.T4})
}

// AddSample feeds a raw offset/RTT/local-time observation, for PTP-derived
// samples that do not fit the four-timestamp NTP shape.
func (f *Filter) AddSample(offset, rtt time.Duration, localTime time.Time) {
	f.add(filterSample{Offset: offset, RTT: rtt, LocalTime: localTime})
}

func (f *Filter) add(s filterSample) {
	f.window = append(f.window, s)
	if len(f.window) > f.maxSize {
		f.window = f.window[len(f.window)-f.maxSize:]
	}
	f.recompute()
}

// recompute re-derives the published ClockModel from the current window.
// It rejects samples whose RTT exceeds 2x the window's median RTT before
// estimating offset (median of survivors) and drift (linear fit of offset
// over elapsed local time).
func (f *Filter) recompute() {
	if len(f.window) == 0 {
		return
	}

	rtts := make([]time.Duration, len(f.window))
	for i, s := range f.window {
		rtts[i] = s.RTT
	}
	medianRTT := medianDuration(rtts)

	var survivors []filterSample
	for _, s := range f.window {
		if medianRTT == 0 || s.RTT <= medianRTT*2 {
			survivors = append(survivors, s)
		}
	}
	if len(survivors) == 0 {
		survivors = f.window
	}

	offsets := make([]time.Duration, len(survivors))
	for i, s := range survivors {
		offsets[i] = s.Offset
	}
	medianOffset := medianDuration(offsets)

	drift := linearFitDriftPPM(survivors)

	last := survivors[len(survivors)-1].LocalTime

	model := &ClockModel{
		OffsetNS:          int64(medianOffset),
		DriftPPM:          drift,
		LastUpdated:       last,
		ConfidenceSamples: uint32(len(survivors)),
	}
	f.model.Store(model)
}

// Model returns the currently-published clock model. Safe for concurrent
// use while AddSample/AddNTPSample run on another goroutine — readers
// never observe a torn write.
func (f *Filter) Model() ClockModel {
	return *f.model.Load()
}

func medianDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), d...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// linearFitDriftPPM estimates drift in parts-per-million by an
// ordinary-least-squares fit of offset (ns) against elapsed local time
// (seconds) across samples, anchored at the earliest sample in the window.
func linearFitDriftPPM(samples []filterSample) float64 {
	if len(samples) < 2 {
		return 0
	}

	t0 := samples[0].LocalTime
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(samples))

	for _, s := range samples {
		x := s.LocalTime.Sub(t0).Seconds()
		y := float64(s.Offset)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom // ns per second
	return slope / 1000.0                  // ns/s -> ppm (ns/s / 1e9 * 1e6 = /1e3)
}
