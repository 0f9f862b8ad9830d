// Package ringbuffer implements the lock-free single-producer
// single-consumer sample queue that is the only channel between the
// decoder worker and the realtime output callback.
package ringbuffer

import (
	"sync/atomic"

	"github.com/drgolem/audiocore/pkg/types"
)

// Re-export the shared ring buffer errors.
var (
	ErrInsufficientSpace = types.ErrInsufficientSpace
	ErrInsufficientData  = types.ErrInsufficientData
)

// RingBuffer is a lock-free SPSC ring buffer of float32 samples.
//
// Exactly one goroutine may ever call Write (the decoder worker); exactly
// one goroutine may ever call Read (the output callback). One slot is
// always kept empty so that write_pos == read_pos is unambiguously
// "empty" — capacity-1 is the maximum number of samples ever held.
//
// Memory ordering follows the producer/consumer discipline the data path
// requires: the producer does a relaxed load of its own write position, an
// acquire load of the consumer's read position, and a release store of the
// new write position after the samples are copied in. The consumer mirrors
// this: acquire load of write_pos, relaxed load of its own read_pos,
// release store of the new read_pos. Go's sync/atomic does not expose
// separate memory-order parameters — every Load/Store on atomic.Uint64 is
// at least as strong as acquire/release — so the ordering the spec
// requires is satisfied by construction; the comments below mark which
// role each access plays.
type RingBuffer struct {
	buffer   []float32
	size     uint64 // power of 2
	mask     uint64
	writePos atomic.Uint64 // advanced only by the producer
	readPos  atomic.Uint64 // advanced only by the consumer
}

// New creates a ring buffer holding capacity samples, rounded up to the
// next power of two.
func New(capacity uint64) *RingBuffer {
	capacity = nextPowerOf2(capacity)
	return &RingBuffer{
		buffer: make([]float32, capacity),
		size:   capacity,
		mask:   capacity - 1,
	}
}

// Write copies as many samples from data as there is room for and
// publishes the new write position. It never blocks and never allocates.
// The returned count may be less than len(data) when the buffer is nearly
// full — this is the normal backpressure signal; callers do not treat a
// short write as an error.
func (rb *RingBuffer) Write(data []float32) int {
	if len(data) == 0 {
		return 0
	}

	writePos := rb.writePos.Load() // relaxed: only the producer advances this
	readPos := rb.readPos.Load()   // acquire: must see the consumer's latest progress

	available := rb.size - 1 - (writePos - readPos) // one slot always kept empty
	n := uint64(len(data))
	if n > available {
		n = available
	}
	if n == 0 {
		return 0
	}

	start := writePos & rb.mask
	end := (writePos + n) & rb.mask

	if end > start || n == 0 {
		copy(rb.buffer[start:start+n], data[:n])
	} else {
		firstChunk := rb.size - start
		copy(rb.buffer[start:], data[:firstChunk])
		copy(rb.buffer[:end], data[firstChunk:n])
	}

	rb.writePos.Store(writePos + n) // release: publishes the samples just copied in
	return int(n)
}

// Read fills out with up to min(len(out), available) samples and returns
// the count. It never blocks and returns 0 when the buffer is empty.
func (rb *RingBuffer) Read(out []float32) int {
	if len(out) == 0 {
		return 0
	}

	writePos := rb.writePos.Load() // acquire: makes the producer's writes visible
	readPos := rb.readPos.Load()   // relaxed: only the consumer advances this

	available := writePos - readPos
	n := uint64(len(out))
	if n > available {
		n = available
	}
	if n == 0 {
		return 0
	}

	start := readPos & rb.mask
	end := (readPos + n) & rb.mask

	if end > start || n == 0 {
		copy(out[:n], rb.buffer[start:start+n])
	} else {
		firstChunk := rb.size - start
		copy(out[:firstChunk], rb.buffer[start:])
		copy(out[firstChunk:n], rb.buffer[:end])
	}

	rb.readPos.Store(readPos + n) // release: publishes the consumed slots as free
	return int(n)
}

// AvailableRead returns a snapshot of the number of samples ready to read.
// May be stale the instant it returns but is monotonic from the consumer's
// point of view.
func (rb *RingBuffer) AvailableRead() uint64 {
	writePos := rb.writePos.Load()
	readPos := rb.readPos.Load()
	return writePos - readPos
}

// AvailableWrite returns a snapshot of the number of samples free to write.
func (rb *RingBuffer) AvailableWrite() uint64 {
	writePos := rb.writePos.Load()
	readPos := rb.readPos.Load()
	return rb.size - 1 - (writePos - readPos)
}

// Capacity returns C, the total number of slots (one of which is always
// kept empty).
func (rb *RingBuffer) Capacity() uint64 {
	return rb.size
}

// Clear resets both position counters to zero. Must only be called when
// neither the producer nor the consumer is active — a Stop or Seek
// quiescence point.
func (rb *RingBuffer) Clear() {
	rb.writePos.Store(0)
	rb.readPos.Store(0)
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
