// Command decode dumps a FLAC file to raw interleaved float32 PCM, either
// to a file pair (raw + JSON metadata) or to stdout for piping into
// ffplay/ffmpeg.
package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/drgolem/audiocore/pkg/decoders/flac"
	"github.com/drgolem/audiocore/pkg/types"
)

type audioMetadata struct {
	SampleRate   int     `json:"sample_rate"`
	Channels     int     `json:"channels"`
	DurationSecs float64 `json:"duration_secs"`
	SourceFile   string  `json:"source_file"`
	RawFile      string  `json:"raw_file"`
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: decode <input.flac> [output_prefix|--pipe|-]")
		fmt.Fprintln(os.Stderr, "Decodes a FLAC file to raw float32le PCM plus a JSON metadata sidecar.")
		fmt.Fprintln(os.Stderr, "  decode music.flac --pipe | ffplay -f f32le -ar 44100 -ch_layout stereo -")
		os.Exit(1)
	}

	inputFile := os.Args[1]
	pipeMode := len(os.Args) >= 3 && (os.Args[2] == "--pipe" || os.Args[2] == "-")

	decoder := flac.NewDecoder()
	defer decoder.Close()

	if err := decoder.Open(inputFile); err != nil {
		slog.Error("failed to open file", "error", err)
		os.Exit(1)
	}
	spec := decoder.Format()
	slog.Info("audio format", "sample_rate", spec.SampleRate, "channels", spec.Channels, "duration_secs", decoder.DurationSecs())

	var out *os.File
	var rawFile string
	if pipeMode {
		out = os.Stdout
	} else {
		outputPrefix := "output"
		if len(os.Args) >= 3 {
			outputPrefix = os.Args[2]
		} else {
			base := filepath.Base(inputFile)
			outputPrefix = strings.TrimSuffix(base, filepath.Ext(base))
		}
		rawFile = outputPrefix + ".f32"
		f, err := os.Create(rawFile)
		if err != nil {
			slog.Error("failed to create output file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	totalFrames := 0
	scratch := make([]byte, 0, 4096*4)
	for {
		samples, err := decoder.NextSamples()
		if err == types.ErrEndOfStream {
			break
		}
		if err != nil {
			slog.Error("decode error", "error", err)
			os.Exit(1)
		}

		need := len(samples) * 4
		if cap(scratch) < need {
			scratch = make([]byte, need)
		}
		scratch = scratch[:need]
		for i, s := range samples {
			binary.LittleEndian.PutUint32(scratch[i*4:], math.Float32bits(s))
		}
		if _, err := out.Write(scratch); err != nil {
			slog.Error("failed to write output", "error", err)
			os.Exit(1)
		}
		totalFrames += len(samples) / int(spec.Channels)
	}

	slog.Info("decoding complete", "frames", totalFrames)

	if !pipeMode {
		meta := audioMetadata{
			SampleRate:   int(spec.SampleRate),
			Channels:     int(spec.Channels),
			DurationSecs: decoder.DurationSecs(),
			SourceFile:   inputFile,
			RawFile:      rawFile,
		}
		metaJSON, _ := json.MarshalIndent(meta, "", "  ")
		metaFile := strings.TrimSuffix(rawFile, filepath.Ext(rawFile)) + ".meta"
		if err := os.WriteFile(metaFile, metaJSON, 0644); err != nil {
			slog.Error("failed to write metadata", "error", err)
			os.Exit(1)
		}
		channelLayout := "stereo"
		if spec.Channels == 1 {
			channelLayout = "mono"
		}
		slog.Info("playback instructions",
			"ffplay", fmt.Sprintf("ffplay -f f32le -ar %d -ch_layout %s %s", spec.SampleRate, channelLayout, rawFile))
	}
}
