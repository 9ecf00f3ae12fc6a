package audio

import (
	"sync"
)

// RingBuffer keeps the most recent bytes written to it, up to its capacity.
// Capture uses it as a pre-roll so audio recorded just before voice activity
// is detected is not lost.
type RingBuffer struct {
	buffer []byte
	start  int // index of the oldest byte
	length int
	mu     sync.Mutex
}

// NewRingBuffer creates a ring buffer holding at most size bytes
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1
	}
	return &RingBuffer{buffer: make([]byte, size)}
}

// Write appends data, overwriting the oldest bytes when full.
// It always reports len(data) written.
func (rb *RingBuffer) Write(data []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.buffer)
	src := data
	if len(src) >= size {
		// only the tail fits
		copy(rb.buffer, src[len(src)-size:])
		rb.start = 0
		rb.length = size
		return len(data), nil
	}

	for _, b := range src {
		end := (rb.start + rb.length) % size
		rb.buffer[end] = b
		if rb.length < size {
			rb.length++
		} else {
			rb.start = (rb.start + 1) % size
		}
	}
	return len(data), nil
}

// Drain returns the buffered bytes oldest first and empties the buffer
func (rb *RingBuffer) Drain() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]byte, rb.length)
	size := len(rb.buffer)
	for i := 0; i < rb.length; i++ {
		out[i] = rb.buffer[(rb.start+i)%size]
	}
	rb.start = 0
	rb.length = 0
	return out
}

// Available returns the number of buffered bytes
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.length
}
