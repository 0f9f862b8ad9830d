package audioengine

import (
	"sync"
	"testing"
	"time"

	"github.com/drgolem/audiocore/pkg/equalizer"
	"github.com/drgolem/audiocore/pkg/replaygain"
	"github.com/drgolem/audiocore/pkg/ringbuffer"
	"github.com/drgolem/audiocore/pkg/types"
)

// fakeDecoder yields a fixed sequence of packets, then ErrEndOfStream.
type fakeDecoder struct {
	mu      sync.Mutex
	packets [][]float32
	spec    types.SignalSpec
	idx     int
	seeks   []float64
}

func (d *fakeDecoder) Open(string) error       { return nil }
func (d *fakeDecoder) Close() error             { return nil }
func (d *fakeDecoder) Format() types.SignalSpec { return d.spec }
func (d *fakeDecoder) DurationSecs() float64    { return 1.0 }

func (d *fakeDecoder) NextSamples() ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.idx >= len(d.packets) {
		return nil, types.ErrEndOfStream
	}
	p := d.packets[d.idx]
	d.idx++
	return p, nil
}

func (d *fakeDecoder) Seek(positionSecs float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seeks = append(d.seeks, positionSecs)
	d.idx = 0
	return nil
}

func TestDecoderWorkerDecodesUntilEndOfStream(t *testing.T) {
	dec := &fakeDecoder{
		spec:    types.SignalSpec{SampleRate: 44100, Channels: 2},
		packets: [][]float32{{0.1, 0.2, 0.3, 0.4}, {0.5, 0.6}},
	}
	ring := ringbuffer.New(4096)
	var rgMu, eqMu sync.Mutex
	rg := replaygain.NewState()
	eq := equalizer.New(44100)

	w := newDecoderWorker(dec, ring, dec.spec, &rgMu, rg, &eqMu, eq)
	done := make(chan struct{})
	go func() {
		w.run()
		close(done)
	}()

	// At end of stream the worker only exits once the ring has drained, so
	// this test plays the consumer: wait for both packets, then read them.
	deadline := time.Now().Add(time.Second)
	for ring.AvailableRead() < 6 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	out := make([]float32, 8)
	if n := ring.Read(out); n != 6 {
		t.Fatalf("expected 6 samples written, got %d", n)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not finish within timeout")
	}
}

func TestDecoderWorkerSeekResetsPosition(t *testing.T) {
	dec := &fakeDecoder{
		spec:    types.SignalSpec{SampleRate: 1000, Channels: 1},
		packets: [][]float32{{0.1, 0.2, 0.3, 0.4, 0.5}},
	}
	ring := ringbuffer.New(4096)
	var rgMu, eqMu sync.Mutex
	rg := replaygain.NewState()
	eq := equalizer.New(1000)

	w := newDecoderWorker(dec, ring, dec.spec, &rgMu, rg, &eqMu, eq)
	w.requestSeek(2000) // 2 seconds at 1000Hz

	done := make(chan struct{})
	go func() {
		w.run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	w.stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop within timeout")
	}

	dec.mu.Lock()
	defer dec.mu.Unlock()
	if len(dec.seeks) == 0 {
		t.Fatalf("expected at least one seek to be issued")
	}
	if dec.seeks[0] != 2.0 {
		t.Fatalf("expected seek to 2.0s, got %v", dec.seeks[0])
	}
}

func TestDecoderWorkerPauseStopsConsumption(t *testing.T) {
	dec := &fakeDecoder{
		spec:    types.SignalSpec{SampleRate: 44100, Channels: 2},
		packets: [][]float32{{0.1, 0.2}},
	}
	ring := ringbuffer.New(4096)
	var rgMu, eqMu sync.Mutex
	rg := replaygain.NewState()
	eq := equalizer.New(44100)

	w := newDecoderWorker(dec, ring, dec.spec, &rgMu, rg, &eqMu, eq)
	w.setPaused(true)

	done := make(chan struct{})
	go func() {
		w.run()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	if ring.AvailableRead() != 0 {
		t.Fatalf("expected no samples decoded while paused, got %d", ring.AvailableRead())
	}

	w.stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop within timeout")
	}
}
