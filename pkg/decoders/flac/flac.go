// Package flac adapts github.com/drgolem/go-flac to the shared
// types.Decoder interface, converting its 16-bit PCM output to interleaved
// float32 samples.
package flac

import (
	"encoding/binary"
	"fmt"

	goflac "github.com/drgolem/go-flac/flac"

	"github.com/drgolem/audiocore/pkg/types"
)

const (
	outputBitDepth    = 16
	bytesPerSample    = outputBitDepth / 8
	chunkFrames       = 4096
	int16ToFloatScale = 1.0 / 32768.0
)

// Decoder wraps goflac.FlacDecoder, implementing types.Decoder.
type Decoder struct {
	decoder     *goflac.FlacDecoder
	spec        types.SignalSpec
	totalFrames int64
	scratch     []byte
}

// NewDecoder returns an unopened FLAC decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	decoder, err := goflac.NewFlacFrameDecoder(outputBitDepth)
	if err != nil {
		return fmt.Errorf("flac: create decoder: %w", err)
	}

	if err := decoder.Open(fileName); err != nil {
		decoder.Delete()
		return fmt.Errorf("flac: open %s: %w", fileName, err)
	}

	rate, channels, _ := decoder.GetFormat()
	d.decoder = decoder
	d.spec = types.SignalSpec{
		SampleRate: uint32(rate),
		Channels:   uint8(channels),
		BitDepth:   outputBitDepth,
	}
	d.totalFrames = decoder.TotalSamples()
	d.scratch = make([]byte, chunkFrames*channels*bytesPerSample)
	return nil
}

func (d *Decoder) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder.Delete()
		d.decoder = nil
	}
	return nil
}

func (d *Decoder) Format() types.SignalSpec { return d.spec }

func (d *Decoder) DurationSecs() float64 {
	if d.spec.SampleRate == 0 || d.totalFrames == 0 {
		return 0
	}
	return float64(d.totalFrames) / float64(d.spec.SampleRate)
}

// NextSamples decodes up to chunkFrames frames and converts them to
// interleaved float32.
func (d *Decoder) NextSamples() ([]float32, error) {
	n, err := d.decoder.DecodeSamples(chunkFrames, d.scratch)
	if n == 0 {
		if err != nil {
			return nil, types.ErrEndOfStream
		}
		return nil, types.ErrEndOfStream
	}
	// A short read alongside a non-nil error is end-of-stream with a
	// final partial chunk; the samples decoded are still valid.
	out := make([]float32, n*int(d.spec.Channels))
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(d.scratch[i*bytesPerSample:]))
		out[i] = float32(v) * int16ToFloatScale
	}
	return out, nil
}

func (d *Decoder) Seek(positionSecs float64) error {
	targetSample := int64(positionSecs * float64(d.spec.SampleRate))
	_, err := d.decoder.Seek(targetSample, 0)
	if err != nil {
		return fmt.Errorf("flac: seek: %w", err)
	}
	return nil
}
