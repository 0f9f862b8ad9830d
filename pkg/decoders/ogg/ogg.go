// Package ogg adapts github.com/jfreymuth/oggvorbis to the shared
// types.Decoder interface. oggvorbis decodes directly to interleaved
// float32, so — unlike flac/mp3/wav — there is no integer-to-float
// conversion step here at all.
package ogg

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/drgolem/audiocore/pkg/types"
)

const chunkFrames = 4096

// Decoder wraps oggvorbis.Reader, implementing types.Decoder.
type Decoder struct {
	file   *os.File
	reader *oggvorbis.Reader
	spec   types.SignalSpec
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("ogg: open %s: %w", fileName, err)
	}

	reader, err := oggvorbis.NewReader(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("ogg: decode header: %w", err)
	}

	d.file = file
	d.reader = reader
	d.spec = types.SignalSpec{
		SampleRate: uint32(reader.SampleRate()),
		Channels:   uint8(reader.Channels()),
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

// DurationSecs is 0: oggvorbis streams packet-by-packet and does not
// expose a total sample count without scanning the whole file up front,
// which would defeat the point of streaming decode. Matches spec.md's
// "otherwise zero" fallback.
func (d *Decoder) DurationSecs() float64 { return 0 }

func (d *Decoder) NextSamples() ([]float32, error) {
	buf := make([]float32, chunkFrames*int(d.spec.Channels))
	n, err := d.reader.Read(buf)
	if n == 0 {
		if errors.Is(err, io.EOF) {
			return nil, types.ErrEndOfStream
		}
		if err != nil {
			return nil, fmt.Errorf("ogg: decode: %w", err)
		}
		return nil, types.ErrEndOfStream
	}
	return buf[:n], nil
}

// Seek is not implemented: oggvorbis.Reader is forward-only in the version
// wired here. Logged and treated as a seek failure per spec.md §7.
func (d *Decoder) Seek(positionSecs float64) error {
	return fmt.Errorf("ogg: seek not supported by this decoder")
}
