// Package types holds the interfaces and sentinel errors shared across the
// decoder adapters, the ring buffer, and the engine, so that none of those
// packages need to import one another directly.
package types

import "errors"

// SignalSpec describes the format of a decoded stream. It is immutable for
// the lifetime of a decoded track.
type SignalSpec struct {
	SampleRate uint32
	Channels   uint8
	// BitDepth is the source bit depth reported by the container, where
	// known. Zero means the container does not expose one (e.g. Vorbis,
	// Opus are natively float).
	BitDepth uint8
}

// Decoder is the common interface implemented by every per-format decoder
// (FLAC, MP3, WAV, OGG/Vorbis, Opus). All decoders yield interleaved
// float32 samples directly — no decoder in this tree produces raw bytes —
// so the engine's ring buffer, ReplayGain and output callback operate on a
// single uniform sample type end to end.
type Decoder interface {
	// Open opens an audio file for decoding, probes its container, and
	// selects the first audio track.
	Open(fileName string) error

	// Close releases decoder resources.
	Close() error

	// Format returns the stream's sample rate, channel count and source
	// bit depth.
	Format() SignalSpec

	// DurationSecs returns the track duration, computed from total frame
	// count divided by sample rate when the container exposes a frame
	// count, or zero otherwise.
	DurationSecs() float64

	// NextSamples decodes the next packet and returns interleaved
	// float32 samples. It returns ErrEndOfStream at EOF. A recoverable
	// per-packet decode error is not returned here: implementations skip
	// the offending packet internally and try the next one.
	NextSamples() ([]float32, error)

	// Seek performs an accurate seek to the given position and resets
	// internal decoder state.
	Seek(positionSecs float64) error
}

// Sentinel errors shared by decoders and the ring buffer.
var (
	// ErrEndOfStream is returned by NextSamples once the underlying
	// stream is exhausted.
	ErrEndOfStream = errors.New("decoder: end of stream")

	// ErrUnsupportedFormat is returned by the decoder factory when no
	// decoder is registered for a file's extension.
	ErrUnsupportedFormat = errors.New("decoder: unsupported format")

	// ErrInsufficientSpace indicates the ring buffer doesn't have enough
	// space for the write operation. Not used as a failure signal on the
	// hot path — Write always returns a short count instead — but kept
	// for callers that want an error on a zero-progress write.
	ErrInsufficientSpace = errors.New("ringbuffer: insufficient space")

	// ErrInsufficientData indicates the ring buffer has nothing to read.
	ErrInsufficientData = errors.New("ringbuffer: insufficient data")
)
