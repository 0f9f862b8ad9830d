// Package wav adapts github.com/youpy/go-wav to the shared types.Decoder
// interface, converting its per-sample integer output (8/16/24/32-bit PCM)
// to interleaved float32.
package wav

import (
	"fmt"
	"os"

	"github.com/youpy/go-wav"

	"github.com/drgolem/audiocore/pkg/types"
)

const chunkFrames = 4096

// Decoder wraps wav.Reader, implementing types.Decoder.
type Decoder struct {
	file   *os.File
	reader *wav.Reader
	spec   types.SignalSpec
	scale  float32 // multiplier that maps the integer sample range to [-1, 1]
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("wav: open %s: %w", fileName, err)
	}

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		file.Close()
		return fmt.Errorf("wav: read format: %w", err)
	}

	if format.AudioFormat != wav.AudioFormatPCM {
		file.Close()
		return fmt.Errorf("wav: unsupported format %d (only PCM supported)", format.AudioFormat)
	}

	d.file = file
	d.reader = reader
	d.spec = types.SignalSpec{
		SampleRate: format.SampleRate,
		Channels:   uint8(format.NumChannels),
		BitDepth:   uint8(format.BitsPerSample),
	}
	switch format.BitsPerSample {
	case 8:
		d.scale = 1.0 / 128.0
	case 16:
		d.scale = 1.0 / 32768.0
	case 24:
		d.scale = 1.0 / 8388608.0
	case 32:
		d.scale = 1.0 / 2147483648.0
	default:
		file.Close()
		return fmt.Errorf("wav: unsupported bits per sample: %d", format.BitsPerSample)
	}

	return nil
}

func (d *Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

func (d *Decoder) Format() types.SignalSpec { return d.spec }

func (d *Decoder) DurationSecs() float64 {
	if d.reader == nil {
		return 0
	}
	dur, err := d.reader.Duration()
	if err != nil {
		return 0
	}
	return dur.Seconds()
}

// NextSamples decodes up to chunkFrames frames. go-wav reads one frame at
// a time, so a chunk here is a bounded loop over ReadSamples(1), matching
// spec.md's "next chunk" granularity without pulling the whole file into
// memory.
func (d *Decoder) NextSamples() ([]float32, error) {
	out := make([]float32, 0, chunkFrames*int(d.spec.Channels))

	for frames := 0; frames < chunkFrames; frames++ {
		samplesData, err := d.reader.ReadSamples(1)
		if len(samplesData) == 0 {
			if frames == 0 {
				return nil, types.ErrEndOfStream
			}
			return out, nil
		}

		for ch := 0; ch < int(d.spec.Channels); ch++ {
			if ch >= len(samplesData[0].Values) {
				break
			}
			out = append(out, float32(samplesData[0].Values[ch])*d.scale)
		}

		if err != nil {
			return out, nil
		}
	}

	return out, nil
}

// Seek is not supported by go-wav's streaming reader, which only reads
// forward. The engine logs and continues from the previous position per
// spec.md §7 (seek failure).
func (d *Decoder) Seek(positionSecs float64) error {
	return fmt.Errorf("wav: seek not supported by this decoder")
}
