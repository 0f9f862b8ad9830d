// Package mp3 adapts github.com/drgolem/go-mpg123 to the shared
// types.Decoder interface, converting its 16-bit PCM output to interleaved
// float32 samples.
package mp3

import (
	"encoding/binary"
	"fmt"

	"github.com/drgolem/go-mpg123/mpg123"

	"github.com/drgolem/audiocore/pkg/types"
)

const (
	bytesPerSample    = 2 // mpg123 output is assumed to be signed 16-bit; Open requests no format
	chunkFrames       = 4096
	int16ToFloatScale = 1.0 / 32768.0
)

// Decoder wraps mpg123.Decoder, implementing types.Decoder.
type Decoder struct {
	decoder *mpg123.Decoder
	spec    types.SignalSpec
	scratch []byte
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	decoder, err := mpg123.NewDecoder("")
	if err != nil {
		return fmt.Errorf("mp3: create decoder: %w", err)
	}

	if err := decoder.Open(fileName); err != nil {
		decoder.Delete()
		return fmt.Errorf("mp3: open %s: %w", fileName, err)
	}

	rate, channels, _ := decoder.GetFormat()
	d.decoder = decoder
	d.spec = types.SignalSpec{
		SampleRate: uint32(rate),
		Channels:   uint8(channels),
		BitDepth:   16,
	}
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

// DurationSecs is 0: mpg123's frame-accurate total length requires a
// separate VBR scan the binding does not expose, matching spec.md's
// "otherwise zero" fallback for containers that don't surface it cheaply.
func (d *Decoder) DurationSecs() float64 { return 0 }

func (d *Decoder) NextSamples() ([]float32, error) {
	n, err := d.decoder.DecodeSamples(chunkFrames, d.scratch)
	if n == 0 {
		return nil, types.ErrEndOfStream
	}
	_ = err // a trailing short read with an error is still valid decoded audio
	out := make([]float32, n*int(d.spec.Channels))
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(d.scratch[i*bytesPerSample:]))
		out[i] = float32(v) * int16ToFloatScale
	}
	return out, nil
}

// Seek is not supported by this binding; mpg123's frame index would need
// to be exposed for an accurate seek, which it is not. The engine logs and
// continues from the previous position per spec.md §7 (seek failure).
func (d *Decoder) Seek(positionSecs float64) error {
	return fmt.Errorf("mp3: seek not supported by this decoder binding")
}
