package audioengine

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"testing"

	"github.com/drgolem/audiocore/pkg/ringbuffer"
)

func decodeOutput(t *testing.T, output []byte) []float32 {
	t.Helper()
	n := len(output) / 4
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(output[i*4:]))
	}
	return samples
}

func newTestOutputState(channels, maxFrames int) (*outputState, *ringbuffer.RingBuffer, *atomic.Bool, *atomic.Uint64) {
	ring := ringbuffer.New(65536)
	bitPerfect := &atomic.Bool{}
	bitPerfect.Store(true)
	dropouts := &atomic.Uint64{}
	vol := newFloatAtomic(1.0)

	o := newOutputState(ring, vol, bitPerfect, dropouts,
		&atomic.Bool{}, &atomic.Bool{}, &atomic.Bool{}, channels, maxFrames)
	return o, ring, bitPerfect, dropouts
}

func TestOutputStateBitPerfectPassthrough(t *testing.T) {
	o, ring, _, _ := newTestOutputState(2, 4)
	in := []float32{0.1, -0.2, 0.3, -0.4}
	ring.Write(in)

	out := make([]byte, 4*4)
	o.fill(out)

	got := decodeOutput(t, out)
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("bit-perfect path altered sample %d: got %v want %v", i, got[i], in[i])
		}
	}
}

func TestOutputStateSilentWhenFaded(t *testing.T) {
	o, ring, _, _ := newTestOutputState(2, 4)
	o.fade = fadeSilent
	ring.Write([]float32{0.5, 0.5, 0.5, 0.5})

	out := make([]byte, 4*4)
	o.fill(out)

	got := decodeOutput(t, out)
	for i, s := range got {
		if s != 0 {
			t.Fatalf("expected silence at %d, got %v", i, s)
		}
	}
}

func TestOutputStateUnderrunRampsAndCountsDropout(t *testing.T) {
	o, ring, _, dropouts := newTestOutputState(2, 8)
	// Only 2 frames available, callback wants 8.
	ring.Write([]float32{0.5, 0.5, 0.5, 0.5})

	out := make([]byte, 8*4)
	o.fill(out)

	if dropouts.Load() != 1 {
		t.Fatalf("expected 1 dropout recorded, got %d", dropouts.Load())
	}
	got := decodeOutput(t, out)
	for i := 4; i < len(got); i++ {
		if got[i] != 0 {
			t.Fatalf("expected silence past available samples at %d, got %v", i, got[i])
		}
	}
}

func TestOutputStateVolumeAndLimiterApplyOutsideBitPerfect(t *testing.T) {
	o, ring, bitPerfect, _ := newTestOutputState(2, 2)
	bitPerfect.Store(false)
	o.volume.Store(2.0) // would clip without the limiter
	ring.Write([]float32{0.9, 0.9})

	out := make([]byte, 2*4)
	o.fill(out)

	got := decodeOutput(t, out)
	for _, s := range got {
		if s > hardLimitCeiling || s < -hardLimitCeiling {
			t.Fatalf("sample %v exceeds hard limit ceiling %v", s, hardLimitCeiling)
		}
	}
}

func TestOutputStateFadeOutReachesSilence(t *testing.T) {
	o, ring, _, _ := newTestOutputState(1, fadeRampSamples*2)
	o.fade = fadeFadingOut
	o.fadeCounter = fadeRampSamples

	samples := make([]float32, fadeRampSamples*2)
	for i := range samples {
		samples[i] = 0.5
	}
	ring.Write(samples)

	out := make([]byte, len(samples)*4)
	o.fill(out)

	if o.fade != fadeSilent {
		t.Fatalf("expected fade state silent after ramp exhausted, got %v", o.fade)
	}
	got := decodeOutput(t, out)
	if got[len(got)-1] != 0 {
		t.Fatalf("expected final sample to reach silence, got %v", got[len(got)-1])
	}
}

func TestOutputStateFadeInReachesFullVolume(t *testing.T) {
	o, ring, _, _ := newTestOutputState(1, fadeRampSamples*2)
	o.fade = fadeFadingIn
	o.fadeCounter = 0

	samples := make([]float32, fadeRampSamples*2)
	for i := range samples {
		samples[i] = 0.5
	}
	ring.Write(samples)

	out := make([]byte, len(samples)*4)
	o.fill(out)

	if o.fade != fadePlaying {
		t.Fatalf("expected fade state playing after ramp completed, got %v", o.fade)
	}
	got := decodeOutput(t, out)
	if math.Abs(float64(got[len(got)-1])-0.5) > 1e-6 {
		t.Fatalf("expected full-volume sample at end of ramp, got %v", got[len(got)-1])
	}
}
