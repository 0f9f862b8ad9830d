package replaygain

import (
	"math"
	"testing"
)

func f32ptr(v float32) *float32 { return &v }

func TestModeOffIsIdentity(t *testing.T) {
	s := NewState()
	s.info = Info{TrackGainDB: f32ptr(-6)}
	s.SetMode(Off)

	samples := []float32{0.1, -0.2, 0.3}
	want := append([]float32(nil), samples...)
	s.Apply(samples)

	for i := range samples {
		if samples[i] != want[i] {
			t.Fatalf("mode Off must leave samples byte-identical: got %v want %v", samples[i], want[i])
		}
	}
}

func TestTrackGainCorrectness(t *testing.T) {
	s := NewState()
	s.clippingPrevention = false
	s.info = Info{TrackGainDB: f32ptr(-6)}
	s.SetMode(Track)

	expectedGain := float32(math.Pow(10, -6.0/20))
	if math.Abs(float64(s.GainLinear()-expectedGain)) > 1e-6 {
		t.Fatalf("gain_linear = %v, want %v", s.GainLinear(), expectedGain)
	}

	samples := []float32{1.0, 0.5}
	s.Apply(samples)
	if math.Abs(float64(samples[0]-expectedGain)) > 1e-6 {
		t.Fatalf("sample 0 = %v, want %v", samples[0], expectedGain)
	}
}

func TestClippingPreventionClamp(t *testing.T) {
	s := NewState()
	s.clippingPrevention = true
	s.info = Info{TrackGainDB: f32ptr(12), TrackPeak: f32ptr(0.5)}
	s.SetMode(Track)

	if s.GainLinear()*0.5 > 1.0+1e-6 {
		t.Fatalf("gain_linear * peak = %v, exceeds 1.0", s.GainLinear()*0.5)
	}
	// max_gain = 1/0.5 = 2.0, raw gain at +12dB is ~3.98, so clamp must bind.
	if math.Abs(float64(s.GainLinear()-2.0)) > 1e-6 {
		t.Fatalf("expected clamp to 2.0, got %v", s.GainLinear())
	}
}

func TestAlbumFallsBackToTrack(t *testing.T) {
	s := NewState()
	s.info = Info{TrackGainDB: f32ptr(-3)}
	s.SetMode(Album)

	expectedGain := float32(math.Pow(10, -3.0/20))
	if math.Abs(float64(s.GainLinear()-expectedGain)) > 1e-6 {
		t.Fatalf("album mode did not fall back to track gain: got %v want %v", s.GainLinear(), expectedGain)
	}
}

func TestMissingTagIsPassthrough(t *testing.T) {
	s := NewState()
	s.SetMode(Track)
	if s.GainLinear() != 1.0 {
		t.Fatalf("expected passthrough gain of 1.0 with no tags, got %v", s.GainLinear())
	}
}

func TestParseGainStripsDBSuffix(t *testing.T) {
	cases := map[string]float32{
		"-7.5 dB": -7.5,
		"-7.5dB":  -7.5,
		"-7.5 db": -7.5,
		"3.2":     3.2,
	}
	for raw, want := range cases {
		got := parseGain(raw, true)
		if got == nil || math.Abs(float64(*got-want)) > 1e-6 {
			t.Fatalf("parseGain(%q) = %v, want %v", raw, got, want)
		}
	}
}
