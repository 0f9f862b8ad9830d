// Package opus adapts github.com/thesyncim/gopus to the shared
// types.Decoder interface. gopus only decodes raw Opus packets, so this
// package also carries a minimal Ogg page demuxer (ogg_demux.go) to pull
// those packets out of a .opus file.
package opus

import (
	"fmt"
	"os"

	"github.com/thesyncim/gopus"

	"github.com/drgolem/audiocore/pkg/types"
)

// decodeSampleRate is the rate Opus always decodes at internally; the
// container's declared "input sample rate" in OpusHead is informational
// only.
const decodeSampleRate = 48000

// maxFrameSamplesPerChannel covers the largest Opus frame (120 ms at
// 48kHz).
const maxFrameSamplesPerChannel = 5760

// Decoder wraps gopus.Decoder plus an Ogg page demuxer, implementing
// types.Decoder.
type Decoder struct {
	file    *os.File
	demux   *oggDemuxer
	decoder *gopus.Decoder
	spec    types.SignalSpec
	pcmBuf  []float32
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("opus: open %s: %w", fileName, err)
	}

	demux := newOggDemuxer(file)

	headPacket, err := demux.nextPacket()
	if err != nil {
		file.Close()
		return fmt.Errorf("opus: read identification header: %w", err)
	}
	head, err := parseOpusHead(headPacket)
	if err != nil {
		file.Close()
		return fmt.Errorf("opus: %w", err)
	}

	// The second packet is the OpusTags comment header; skip it.
	if tagsPacket, err := demux.nextPacket(); err == nil && !isOpusTags(tagsPacket) {
		// Not fatal — some encoders omit it or order differs. Whatever the
		// second packet is, it is consumed here and never decoded.
	}

	decoder, err := gopus.NewDecoder(decodeSampleRate, int(head.channels))
	if err != nil {
		file.Close()
		return fmt.Errorf("opus: create decoder: %w", err)
	}

	d.file = file
	d.demux = demux
	d.decoder = decoder
	d.spec = types.SignalSpec{
		SampleRate: decodeSampleRate,
		Channels:   head.channels,
	}
	d.pcmBuf = make([]float32, maxFrameSamplesPerChannel*int(head.channels))
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

// DurationSecs is 0: the Ogg granule position would need a full scan (or a
// trailing-page seek) to resolve into a frame count up front, which the
// minimal demuxer here does not perform. Matches spec.md's zero fallback.
func (d *Decoder) DurationSecs() float64 { return 0 }

// NextSamples decodes the next Opus packet. A recoverable per-packet
// decode error causes that packet to be skipped and the next one tried,
// per spec.md §4.2.
func (d *Decoder) NextSamples() ([]float32, error) {
	for {
		packet, err := d.demux.nextPacket()
		if err != nil {
			return nil, types.ErrEndOfStream
		}

		n, err := d.decoder.Decode(packet, d.pcmBuf)
		if err != nil {
			// Per-packet decode error: skip and try the next packet.
			continue
		}
		samples := n * int(d.spec.Channels)
		out := make([]float32, samples)
		copy(out, d.pcmBuf[:samples])
		return out, nil
	}
}

// Seek is not implemented: accurate seek would require indexing granule
// positions across the Ogg stream, which the minimal demuxer here does
// not build. Logged and treated as a seek failure per spec.md §7.
func (d *Decoder) Seek(positionSecs float64) error {
	return fmt.Errorf("opus: seek not supported by this decoder")
}
