package audioengine

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/audiocore/pkg/equalizer"
	"github.com/drgolem/audiocore/pkg/replaygain"
	"github.com/drgolem/audiocore/pkg/ringbuffer"
	"github.com/drgolem/audiocore/pkg/types"
)

// backpressureThresholdSeconds bounds how far the worker can get ahead of
// the output callback before it throttles itself.
const backpressureThresholdSeconds = 1

// decoderWorker pulls samples from a decoder, applies ReplayGain and (if
// enabled) equalization, and publishes them to the ring buffer the output
// callback drains. One worker is spawned per Play command and torn down
// on the next Play/Stop/Shutdown.
type decoderWorker struct {
	decoder    types.Decoder
	ring       *ringbuffer.RingBuffer
	sampleRate uint32
	channels   int

	rgMu  *sync.Mutex
	rg    *replaygain.State
	eqMu  *sync.Mutex
	eq    *equalizer.Equalizer

	running        atomic.Bool
	paused         atomic.Bool
	seekRequestMs  atomic.Int64 // -1 means "no pending seek"
	positionMs     atomic.Uint64
	samplesDecoded uint64
}

func newDecoderWorker(decoder types.Decoder, ring *ringbuffer.RingBuffer, spec types.SignalSpec,
	rgMu *sync.Mutex, rg *replaygain.State, eqMu *sync.Mutex, eq *equalizer.Equalizer) *decoderWorker {
	w := &decoderWorker{
		decoder:    decoder,
		ring:       ring,
		sampleRate: spec.SampleRate,
		channels:   int(spec.Channels),
		rgMu:       rgMu,
		rg:         rg,
		eqMu:       eqMu,
		eq:         eq,
	}
	w.seekRequestMs.Store(-1)
	return w
}

func (w *decoderWorker) requestSeek(ms int64) {
	w.seekRequestMs.Store(ms)
}

func (w *decoderWorker) setPaused(paused bool) {
	w.paused.Store(paused)
}

func (w *decoderWorker) stop() {
	w.running.Store(false)
}

func (w *decoderWorker) isRunning() bool {
	return w.running.Load()
}

// run is the worker's loop, grounded on spec.md §4.5. It never holds a
// lock the output callback could observe — its only channel to the
// callback is the ring buffer plus a handful of atomics.
func (w *decoderWorker) run() {
	w.running.Store(true)
	defer w.running.Store(false)

	for w.running.Load() {
		if seekMs := w.seekRequestMs.Load(); seekMs >= 0 {
			w.seekRequestMs.Store(-1)
			secs := float64(seekMs) / 1000.0
			w.ring.Clear()
			if err := w.decoder.Seek(secs); err != nil {
				slog.Error("seek failed", "error", err)
			}
			w.samplesDecoded = uint64(secs * float64(w.sampleRate))
			continue
		}

		if w.paused.Load() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		oneSecond := uint64(w.sampleRate) * uint64(w.channels) * backpressureThresholdSeconds
		if w.ring.AvailableRead() >= oneSecond {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		samples, err := w.decoder.NextSamples()
		if err != nil {
			if errors.Is(err, types.ErrEndOfStream) {
				for w.running.Load() {
					if w.ring.AvailableRead() == 0 {
						break
					}
					time.Sleep(50 * time.Millisecond)
				}
				return
			}
			slog.Error("decode error", "error", err)
			return
		}
		if len(samples) == 0 {
			continue
		}

		ch := w.channels
		if ch < 1 {
			ch = 1
		}
		frames := len(samples) / ch
		w.samplesDecoded += uint64(frames)
		posSecs := float64(w.samplesDecoded) / float64(w.sampleRate)
		w.positionMs.Store(uint64(posSecs * 1000.0))

		w.rgMu.Lock()
		w.rg.Apply(samples)
		w.rgMu.Unlock()

		w.eqMu.Lock()
		w.eq.Process(samples, ch)
		w.eqMu.Unlock()

		for written := 0; written < len(samples); {
			n := w.ring.Write(samples[written:])
			written += n
			if n == 0 {
				if !w.running.Load() {
					return
				}
				time.Sleep(time.Millisecond)
			}
		}
	}
}
