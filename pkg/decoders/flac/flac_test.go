package flac

import "testing"

func TestNewDecoder(t *testing.T) {
	decoder := NewDecoder()
	if decoder == nil {
		t.Fatal("NewDecoder returned nil")
	}
}

func TestDecoderFormatBeforeOpen(t *testing.T) {
	decoder := NewDecoder()
	spec := decoder.Format()
	if spec.SampleRate != 0 || spec.Channels != 0 {
		t.Errorf("expected zero-value SignalSpec before Open, got %+v", spec)
	}
	if decoder.DurationSecs() != 0 {
		t.Errorf("expected zero duration before Open, got %v", decoder.DurationSecs())
	}
}

func TestDecoderCloseWithoutOpen(t *testing.T) {
	decoder := NewDecoder()

	if err := decoder.Close(); err != nil {
		t.Errorf("Close on unopened decoder failed: %v", err)
	}
	if err := decoder.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNextSamplesWithoutOpenPanicsNeverReached(t *testing.T) {
	// NextSamples assumes Open succeeded, matching every other decoder in
	// this tree (factory.NewDecoder never hands out an unopened decoder).
	// This test only documents that Open is a hard precondition elsewhere.
	t.Skip("Open is a precondition enforced by the factory, not by Decoder itself")
}
