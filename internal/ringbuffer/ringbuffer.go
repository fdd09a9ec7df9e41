// Package ringbuffer decouples a producer goroutine from a single consumer
// goroutine with a bounded queue, so that a slow write path (the one RTSP
// connection socket) never blocks whichever goroutine is generating
// messages for it (RTSP responders, RTP senders, the timing loop).
package ringbuffer

import (
	"fmt"
	"sync"
)

// RingBuffer is a generic, fixed-capacity, single-producer/single-consumer
// queue. Capacity must be a power of two so the write index wraps cleanly.
type RingBuffer[T any] struct {
	size       uint64
	mutex      sync.Mutex
	cond       *sync.Cond
	buffer     []item[T]
	readIndex  uint64
	writeIndex uint64
	closed     bool
}

type item[T any] struct {
	val     T
	present bool
}

// New allocates a RingBuffer of the given capacity, which must be a power
// of two.
func New[T any](size uint64) (*RingBuffer[T], error) {
	if size == 0 || (size&(size-1)) != 0 {
		return nil, fmt.Errorf("ringbuffer: size must be a nonzero power of two")
	}

	r := &RingBuffer[T]{
		size:   size,
		buffer: make([]item[T], size),
	}
	r.cond = sync.NewCond(&r.mutex)
	return r, nil
}

// Close makes Pull return false, discarding anything still queued.
func (r *RingBuffer[T]) Close() {
	r.mutex.Lock()
	r.closed = true
	for i := range r.buffer {
		r.buffer[i] = item[T]{}
	}
	r.mutex.Unlock()
	r.cond.Broadcast()
}

// Push appends val to the queue. It returns false if the queue is full
// (the slot it would occupy is still unread).
func (r *RingBuffer[T]) Push(val T) bool {
	r.mutex.Lock()

	if r.buffer[r.writeIndex].present {
		r.mutex.Unlock()
		return false
	}

	r.buffer[r.writeIndex] = item[T]{val: val, present: true}
	r.writeIndex = (r.writeIndex + 1) % r.size

	r.mutex.Unlock()
	r.cond.Broadcast()
	return true
}

// Pull blocks until a value is available or the buffer is closed.
func (r *RingBuffer[T]) Pull() (T, bool) {
	r.mutex.Lock()
	for {
		slot := r.buffer[r.readIndex]

		if slot.present {
			r.buffer[r.readIndex] = item[T]{}
			r.readIndex = (r.readIndex + 1) % r.size
			r.mutex.Unlock()
			return slot.val, true
		}

		if r.closed {
			r.mutex.Unlock()
			var zero T
			return zero, false
		}

		r.cond.Wait()
	}
}
