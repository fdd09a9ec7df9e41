package rtsp

import (
	"io"
	"sync/atomic"
)

// byteCounter wraps a connection's Read/Write to track bytes and errors for
// diagnostics, the same counters a gortsplib-style server connection
// publishes to its caller.
type byteCounter struct {
	rw io.ReadWriter

	received    uint64
	sent        uint64
	readErrors  uint64
	writeErrors uint64
}

func newByteCounter(rw io.ReadWriter) *byteCounter {
	return &byteCounter{rw: rw}
}

func (bc *byteCounter) Read(p []byte) (int, error) {
	n, err := bc.rw.Read(p)
	if err == nil {
		atomic.AddUint64(&bc.received, uint64(n))
	} else {
		atomic.AddUint64(&bc.readErrors, 1)
	}
	return n, err
}

func (bc *byteCounter) Write(p []byte) (int, error) {
	n, err := bc.rw.Write(p)
	if err == nil {
		atomic.AddUint64(&bc.sent, uint64(n))
	} else {
		atomic.AddUint64(&bc.writeErrors, 1)
	}
	return n, err
}

// Stats is a byteCounter snapshot.
type Stats struct {
	BytesReceived uint64
	BytesSent     uint64
	ReadErrors    uint64
	WriteErrors   uint64
}

func (bc *byteCounter) stats() Stats {
	return Stats{
		BytesReceived: atomic.LoadUint64(&bc.received),
		BytesSent:     atomic.LoadUint64(&bc.sent),
		ReadErrors:    atomic.LoadUint64(&bc.readErrors),
		WriteErrors:   atomic.LoadUint64(&bc.writeErrors),
	}
}
