// Package decoders is the format dispatch layer: given a file path it
// picks the right per-format decoder by extension and hands back an
// opened types.Decoder.
package decoders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drgolem/audiocore/pkg/decoders/flac"
	"github.com/drgolem/audiocore/pkg/decoders/mp3"
	"github.com/drgolem/audiocore/pkg/decoders/ogg"
	"github.com/drgolem/audiocore/pkg/decoders/opus"
	"github.com/drgolem/audiocore/pkg/decoders/wav"
	"github.com/drgolem/audiocore/pkg/types"
)

// NewDecoder creates and opens the appropriate decoder based on file
// extension. Supports .flac/.fla, .mp3, .wav, .ogg and .opus.
//
// AAC/M4A/ALAC/WMA are not supported: no Go container demuxer for those
// formats exists in the dependency set this tree draws from (only raw
// codec primitives, with no MP4/ASF box parser to feed them a bitstream).
func NewDecoder(fileName string) (types.Decoder, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var decoder types.Decoder
	switch ext {
	case ".flac", ".fla":
		decoder = flac.NewDecoder()
	case ".mp3":
		decoder = mp3.NewDecoder()
	case ".wav":
		decoder = wav.NewDecoder()
	case ".ogg":
		decoder = ogg.NewDecoder()
	case ".opus":
		decoder = opus.NewDecoder()
	default:
		return nil, fmt.Errorf("%w: %s (supported: .flac, .fla, .mp3, .wav, .ogg, .opus)", types.ErrUnsupportedFormat, ext)
	}

	if err := decoder.Open(fileName); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	return decoder, nil
}
