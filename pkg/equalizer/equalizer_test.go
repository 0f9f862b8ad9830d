package equalizer

import "testing"

func TestFlatPresetIsNoop(t *testing.T) {
	eq := New(44100)
	eq.SetEnabled(true)
	flat, ok := GetPreset("flat")
	if !ok {
		t.Fatalf("expected flat preset to exist")
	}
	eq.SetBands(flat)
	if !eq.IsFlat() {
		t.Fatalf("flat preset should report IsFlat")
	}

	samples := []float32{0.1, -0.2, 0.3, -0.4}
	want := append([]float32(nil), samples...)
	eq.Process(samples, 2)

	for i := range samples {
		if samples[i] != want[i] {
			t.Fatalf("sample %d changed under flat EQ: got %v want %v", i, samples[i], want[i])
		}
	}
}

func TestDisabledIsNoop(t *testing.T) {
	eq := New(44100)
	bands, _ := GetPreset("bass_boost")
	eq.SetBands(bands)
	// enabled defaults to false

	samples := []float32{0.5, 0.5}
	want := append([]float32(nil), samples...)
	eq.Process(samples, 2)

	for i := range samples {
		if samples[i] != want[i] {
			t.Fatalf("disabled EQ modified samples at %d", i)
		}
	}
}

func TestBandsAreClamped(t *testing.T) {
	eq := New(44100)
	eq.SetBands([numBands]float32{100, -100, 0, 0, 0, 0, 0, 0, 0, 0})
	if eq.gains[0] != 12 {
		t.Fatalf("expected gain clamp to +12, got %v", eq.gains[0])
	}
	if eq.gains[1] != -12 {
		t.Fatalf("expected gain clamp to -12, got %v", eq.gains[1])
	}
}

func TestUnknownPresetNotOK(t *testing.T) {
	if _, ok := GetPreset("nonexistent"); ok {
		t.Fatalf("expected unknown preset to report ok=false")
	}
}

func TestProcessAppliesGainOnNonFlatBands(t *testing.T) {
	eq := New(44100)
	eq.SetEnabled(true)
	bands, _ := GetPreset("bass_boost")
	eq.SetBands(bands)
	if eq.IsFlat() {
		t.Fatalf("bass_boost preset should not be flat")
	}

	samples := make([]float32, 256)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.5
		} else {
			samples[i] = -0.5
		}
	}
	changed := false
	before := append([]float32(nil), samples...)
	eq.Process(samples, 2)
	for i := range samples {
		if samples[i] != before[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatalf("expected bass_boost preset to alter samples")
	}
}
