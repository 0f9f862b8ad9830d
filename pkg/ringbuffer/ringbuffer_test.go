package ringbuffer

import (
	"sync"
	"testing"
)

func TestNewRoundsUpToPowerOfTwo(t *testing.T) {
	rb := New(100)
	if rb.Capacity() != 128 {
		t.Fatalf("expected capacity 128, got %d", rb.Capacity())
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	rb := New(16)
	in := []float32{1, 2, 3, 4, 5}

	n := rb.Write(in)
	if n != len(in) {
		t.Fatalf("expected to write %d samples, wrote %d", len(in), n)
	}

	out := make([]float32, len(in))
	n = rb.Read(out)
	if n != len(in) {
		t.Fatalf("expected to read %d samples, read %d", len(in), n)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d: got %v want %v", i, out[i], in[i])
		}
	}
}

func TestWriteNeverOverwritesUnread(t *testing.T) {
	rb := New(8) // capacity 8, usable 7

	full := make([]float32, 10)
	for i := range full {
		full[i] = float32(i)
	}

	n := rb.Write(full)
	if n != 7 {
		t.Fatalf("expected short write of 7 (one slot always kept empty), got %d", n)
	}
	if got := rb.AvailableWrite(); got != 0 {
		t.Fatalf("expected 0 available write slots after filling, got %d", got)
	}
}

func TestReadFromEmptyReturnsZero(t *testing.T) {
	rb := New(16)
	out := make([]float32, 4)
	if n := rb.Read(out); n != 0 {
		t.Fatalf("expected 0 from empty read, got %d", n)
	}
}

func TestAvailableAccountingInvariant(t *testing.T) {
	rb := New(16)
	rb.Write([]float32{1, 2, 3})
	out := make([]float32, 1)
	rb.Read(out)

	if got, want := rb.AvailableRead()+rb.AvailableWrite(), rb.Capacity()-1; got != want {
		t.Fatalf("available_read + available_write = %d, want %d", got, want)
	}
}

func TestClearResetsPositions(t *testing.T) {
	rb := New(16)
	rb.Write([]float32{1, 2, 3})
	rb.Clear()

	if rb.AvailableRead() != 0 {
		t.Fatalf("expected empty buffer after Clear")
	}
	if rb.AvailableWrite() != rb.Capacity()-1 {
		t.Fatalf("expected full write headroom after Clear")
	}
}

// TestConcurrentProducerConsumerFIFO exercises the SPSC discipline with a
// real producer goroutine and a real consumer goroutine, verifying that
// the concatenation of everything read is a prefix of everything written
// (property 1 — Ring FIFO).
func TestConcurrentProducerConsumerFIFO(t *testing.T) {
	rb := New(64)
	const total = 100000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sent := 0
		for sent < total {
			chunk := []float32{float32(sent)}
			for rb.Write(chunk) == 0 {
				// backpressure: buffer full, spin
			}
			sent++
		}
	}()

	received := make([]float32, 0, total)
	go func() {
		defer wg.Done()
		buf := make([]float32, 1)
		for len(received) < total {
			if n := rb.Read(buf); n > 0 {
				received = append(received, buf[:n]...)
			}
		}
	}()

	wg.Wait()

	for i := 0; i < total; i++ {
		if received[i] != float32(i) {
			t.Fatalf("FIFO violation at index %d: got %v want %v", i, received[i], float32(i))
		}
	}
}
