package rtsp

import (
	"bufio"
	"net"
	"sync"

	"github.com/airplay2/airplay2/internal/ringbuffer"
)

// writeQueueDepth is the outbound queue capacity; must be a power of two.
const writeQueueDepth = 8

const readChunkSize = 4096

// Conn drives Codec, FrameEncoder and FrameDecoder over a real net.Conn.
// Reads happen on the caller's goroutine (ReadMessage blocks); writes are
// queued onto a dedicated goroutine through a bounded ring buffer so a slow
// peer can never stall whoever is producing RTSP responses or control
// traffic, mirroring the teacher's writer/ringbuffer split (serversession.go,
// writer.go) adapted to AirPlay's single encrypted RTSP connection per
// session rather than one writer per RTP track.
type Conn struct {
	nc  net.Conn
	bc  *byteCounter
	br  *bufio.Reader

	codec *Codec
	enc   *FrameEncoder
	dec   *FrameDecoder

	writeQueue *ringbuffer.RingBuffer[[]byte]
	writeDone  chan struct{}

	mu      sync.Mutex
	werrSet bool
	werr    error
}

// NewConn wraps nc. Call Close when done to stop the write goroutine.
func NewConn(nc net.Conn) *Conn {
	bc := newByteCounter(nc)
	c := &Conn{
		nc:    nc,
		bc:    bc,
		br:    bufio.NewReaderSize(bc, readChunkSize),
		codec: NewCodec(),
		enc:   NewFrameEncoder(),
		dec:   NewFrameDecoder(),
	}
	wq, _ := ringbuffer.New[[]byte](writeQueueDepth)
	c.writeQueue = wq
	c.writeDone = make(chan struct{})
	go c.runWriter()
	return c
}

// EnableEncryption switches both directions of framing to encrypted mode
// under readKey/writeKey, exactly once, after pairing completes (§4.3).
func (c *Conn) EnableEncryption(readKey, writeKey [32]byte) {
	c.dec.Enable(readKey)
	c.enc.Enable(writeKey)
}

// ReadMessage blocks until one complete RTSP message (request or response)
// has been decrypted and parsed from the connection.
func (c *Conn) ReadMessage() (Message, error) {
	for {
		if msg, ok, err := c.codec.Decode(); err != nil {
			return nil, err
		} else if ok {
			return msg, nil
		}

		if plaintext, ok, err := c.dec.Decode(); err != nil {
			return nil, err
		} else if ok {
			c.codec.Feed(plaintext)
			continue
		}

		buf := make([]byte, readChunkSize)
		n, err := c.br.Read(buf)
		if n > 0 {
			c.dec.Feed(buf[:n])
		}
		if err != nil {
			return nil, err
		}
	}
}

// WriteMessage encodes msg, frames/encrypts it if encryption is enabled, and
// queues the wire bytes for the write goroutine. It never blocks on the
// network or on the queue: when the write queue is full the frame is
// dropped and WriteMessage still returns nil. Framing and queueing run under
// one lock, so concurrent callers enqueue frames in nonce order.
func (c *Conn) WriteMessage(msg Message) error {
	raw, err := Encode(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	framed, err := c.enc.Encode(raw)
	if err != nil {
		return err
	}
	// Matches the teacher's writer/ringbuffer callers: a full queue means the
	// writer goroutine is irrecoverably behind, so the frame is dropped
	// rather than blocking the caller.
	c.writeQueue.Push(framed)
	return nil
}

// Stats returns a snapshot of bytes transferred and I/O error counts.
func (c *Conn) Stats() Stats { return c.bc.stats() }

// WriteError returns the first error encountered by the write goroutine, if
// any.
func (c *Conn) WriteError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.werr
}

// Close stops the write goroutine and closes the underlying connection.
func (c *Conn) Close() error {
	c.writeQueue.Close()
	<-c.writeDone
	return c.nc.Close()
}

func (c *Conn) runWriter() {
	defer close(c.writeDone)
	for {
		framed, ok := c.writeQueue.Pull()
		if !ok {
			return
		}
		if _, err := c.bc.Write(framed); err != nil {
			c.mu.Lock()
			if !c.werrSet {
				c.werr = err
				c.werrSet = true
			}
			c.mu.Unlock()
		}
	}
}
