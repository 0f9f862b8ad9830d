package audioengine

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/drgolem/audiocore/pkg/ringbuffer"
)

// outputState holds everything the hard-real-time output callback may
// touch. Rules per spec.md §4.6: no locks, no allocations, no blocking,
// bounded work per call — only atomics and the ring buffer.
//
// fade and fadeCounter are NOT atomic: the fade state machine lives
// entirely inside the callback and is only ever touched by the single
// goroutine (or C-thread-via-cgo callback) that invokes fill. The three
// one-shot flags below are the only cross-goroutine signal into it.
type outputState struct {
	ring         *ringbuffer.RingBuffer
	volume       *floatAtomic
	isBitPerfect *atomic.Bool
	dropoutCount *atomic.Uint64

	fadeReqPause  *atomic.Bool
	fadeReqResume *atomic.Bool
	fadeReqStop   *atomic.Bool

	channels int
	scratch  []float32

	fade        fadeState
	fadeCounter int
}

func newOutputState(ring *ringbuffer.RingBuffer, volume *floatAtomic, isBitPerfect *atomic.Bool,
	dropoutCount *atomic.Uint64, fadeReqPause, fadeReqResume, fadeReqStop *atomic.Bool, channels int, maxFrames int) *outputState {
	return &outputState{
		ring:          ring,
		volume:        volume,
		isBitPerfect:  isBitPerfect,
		dropoutCount:  dropoutCount,
		fadeReqPause:  fadeReqPause,
		fadeReqResume: fadeReqResume,
		fadeReqStop:   fadeReqStop,
		channels:      channels,
		scratch:       make([]float32, maxFrames*channels),
		fade:          fadePlaying,
		fadeCounter:   fadeRampSamples,
	}
}

// fill writes len(output)/4 interleaved float32 samples (little-endian)
// into output, applying the fade/volume/limiter pipeline described in
// spec.md §4.6. It is called once per buffer from the PortAudio output
// callback opened in output.go.
func (o *outputState) fill(output []byte) {
	if o.fadeReqStop.Swap(false) {
		o.fade = fadeFadingOut
		o.fadeCounter = fadeRampSamples
	}
	if o.fadeReqPause.Swap(false) {
		if o.fade == fadePlaying || o.fade == fadeFadingIn {
			o.fade = fadeFadingOut
			o.fadeCounter = fadeRampSamples
		}
	}
	if o.fadeReqResume.Swap(false) {
		if o.fade == fadeSilent || o.fade == fadeFadingOut {
			o.fade = fadeFadingIn
			o.fadeCounter = 0
		}
	}

	vol := o.volume.Load()
	bitPerfect := o.isBitPerfect.Load()

	n := len(output) / 4
	if cap(o.scratch) < n {
		o.scratch = make([]float32, n)
	}
	scratch := o.scratch[:n]

	ch := o.channels
	if ch < 1 {
		ch = 1
	}

	switch o.fade {
	case fadeSilent:
		for i := range scratch {
			scratch[i] = 0
		}

	case fadePlaying:
		read := o.ring.Read(scratch)
		if !bitPerfect {
			for i := 0; i < read; i++ {
				scratch[i] = hardLimit(scratch[i] * vol)
			}
		}
		if read < n {
			if read > 0 {
				o.dropoutCount.Add(1)
			}
			ramp := read
			if ramp > fadeRampSamples {
				ramp = fadeRampSamples
			}
			for i := 0; i < ramp; i++ {
				idx := read - ramp + i
				progress := 1.0 - float32(i)/float32(ramp)
				scratch[idx] *= equalPowerGain(progress)
			}
			for i := read; i < n; i++ {
				scratch[i] = 0
			}
		}

	case fadeFadingOut:
		read := o.ring.Read(scratch)
		for frameStart := 0; frameStart < read; frameStart += ch {
			if o.fadeCounter == 0 {
				for c := 0; c < ch && frameStart+c < read; c++ {
					scratch[frameStart+c] = 0
				}
				continue
			}
			progress := float32(o.fadeCounter) / float32(fadeRampSamples)
			g := equalPowerGain(progress)
			for c := 0; c < ch && frameStart+c < read; c++ {
				raw := scratch[frameStart+c]
				if bitPerfect {
					scratch[frameStart+c] = raw * g
				} else {
					scratch[frameStart+c] = hardLimit(raw * vol * g)
				}
			}
			o.fadeCounter--
		}
		for i := read; i < n; i++ {
			scratch[i] = 0
		}
		if o.fadeCounter == 0 {
			o.fade = fadeSilent
		}

	case fadeFadingIn:
		read := o.ring.Read(scratch)
		for frameStart := 0; frameStart < read; frameStart += ch {
			progress := float32(1.0)
			if o.fadeCounter < fadeRampSamples {
				progress = float32(o.fadeCounter) / float32(fadeRampSamples)
			}
			g := equalPowerGain(progress)
			for c := 0; c < ch && frameStart+c < read; c++ {
				raw := scratch[frameStart+c]
				switch {
				case bitPerfect && progress >= 1.0:
					// full volume, bit-perfect: untouched
				case bitPerfect:
					scratch[frameStart+c] = raw * g
				default:
					scratch[frameStart+c] = hardLimit(raw * vol * g)
				}
			}
			if o.fadeCounter < fadeRampSamples {
				o.fadeCounter++
			}
		}
		for i := read; i < n; i++ {
			scratch[i] = 0
		}
		if o.fadeCounter >= fadeRampSamples {
			o.fade = fadePlaying
		}
	}

	for i, s := range scratch {
		binary.LittleEndian.PutUint32(output[i*4:], math.Float32bits(s))
	}
}
