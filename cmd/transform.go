package cmd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/drgolem/audiocore/pkg/decoders"
	"github.com/drgolem/audiocore/pkg/types"

	"github.com/spf13/cobra"
	wav "github.com/youpy/go-wav"
	soxr "github.com/zaf/resample"
)

var transformCmd = &cobra.Command{
	Use:   "transform <input_file>",
	Short: "Transform audio file sample rate and format",
	Long: `Transform audio files to different sample rates and convert to WAV
format. Supports input from any registered decoder (FLAC, MP3, WAV,
OGG/Vorbis, Opus) with optional mono conversion. This is an offline
batch utility; it does not touch the live playback engine.

Examples:
  audiocore transform input.mp3 --new-samplerate 48000 --out output.wav
  audiocore transform input.flac --new-samplerate 44100 --mono --out output.wav

Sample Rate Options:
  Common rates: 8000, 16000, 22050, 44100, 48000, 96000, 192000 Hz`,
	Args: cobra.ExactArgs(1),
	Run:  runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().Int("new-samplerate", 48000, "Target sample rate in Hz")
	transformCmd.Flags().String("out", "out_transformed.wav", "Output WAV file path")
	transformCmd.Flags().Bool("mono", false, "Convert output to mono signal (average channels)")
}

func runTransform(cmd *cobra.Command, args []string) {
	inFileName := args[0]

	if _, err := os.Stat(inFileName); os.IsNotExist(err) {
		slog.Error("input file not found", "path", inFileName)
		os.Exit(1)
	}

	newSampleRate, err := cmd.Flags().GetInt("new-samplerate")
	if err != nil {
		slog.Error("failed to get new-samplerate flag", "error", err)
		os.Exit(1)
	}

	outFileName, err := cmd.Flags().GetString("out")
	if err != nil {
		slog.Error("failed to get out flag", "error", err)
		os.Exit(1)
	}

	convertToMono, err := cmd.Flags().GetBool("mono")
	if err != nil {
		slog.Error("failed to get mono flag", "error", err)
		os.Exit(1)
	}

	if newSampleRate <= 0 || newSampleRate > 384000 {
		slog.Error("invalid sample rate", "rate", newSampleRate, "valid_range", "1-384000")
		os.Exit(1)
	}

	decoder, err := decoders.NewDecoder(inFileName)
	if err != nil {
		slog.Error("failed to create decoder", "error", err)
		os.Exit(1)
	}
	defer decoder.Close()

	spec := decoder.Format()

	slog.Info("audio transformation starting",
		"input_file", inFileName,
		"input_sample_rate", spec.SampleRate,
		"input_channels", spec.Channels,
		"output_sample_rate", newSampleRate,
		"output_mono", convertToMono,
		"output_file", outFileName)

	slog.Info("decoding audio data")
	pcm, totalSamples, err := decodeAllToInt16PCM(decoder)
	if err != nil {
		slog.Error("failed to decode audio", "error", err)
		os.Exit(1)
	}

	slog.Info("decoding complete", "input_frames", totalSamples, "input_bytes", len(pcm))

	slog.Info("resampling audio", "from_rate", spec.SampleRate, "to_rate", newSampleRate)
	resampled, err := resampleAudio(pcm, int(spec.SampleRate), newSampleRate, int(spec.Channels))
	if err != nil {
		slog.Error("failed to resample audio", "error", err)
		os.Exit(1)
	}

	const bytesPerSample = 2
	outChannels := int(spec.Channels)
	outputData := resampled

	if convertToMono && outChannels > 1 {
		slog.Info("converting to mono", "input_channels", outChannels)
		outputData = convertToMono16Bit(resampled, outChannels)
		outChannels = 1
	}

	outSamples := len(outputData) / (outChannels * bytesPerSample)

	slog.Info("writing output WAV file", "path", outFileName)
	if err := writeWAVFile(outFileName, outputData, uint32(outSamples), uint16(outChannels), uint32(newSampleRate), 16); err != nil {
		slog.Error("failed to write WAV file", "error", err)
		os.Exit(1)
	}

	slog.Info("transformation complete",
		"input_frames", totalSamples,
		"output_frames", outSamples,
		"sample_rate_ratio", fmt.Sprintf("%.3f", float64(newSampleRate)/float64(spec.SampleRate)))
}

// decodeAllToInt16PCM drains decoder to end of stream, converting its
// interleaved float32 samples to signed 16-bit PCM bytes — the format
// the resampler and WAV writer both expect.
func decodeAllToInt16PCM(decoder types.Decoder) ([]byte, int, error) {
	var buf bytes.Buffer
	totalFrames := 0
	ch := int(decoder.Format().Channels)
	if ch < 1 {
		ch = 1
	}

	for {
		samples, err := decoder.NextSamples()
		if len(samples) > 0 {
			for _, s := range samples {
				if err := binary.Write(&buf, binary.LittleEndian, floatToInt16(s)); err != nil {
					return nil, 0, fmt.Errorf("pcm encode: %w", err)
				}
			}
			totalFrames += len(samples) / ch
		}
		if err != nil {
			if errors.Is(err, types.ErrEndOfStream) {
				break
			}
			return nil, 0, fmt.Errorf("decode error: %w", err)
		}
	}

	return buf.Bytes(), totalFrames, nil
}

func floatToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}

// resampleAudio resamples 16-bit PCM audio using SoXR (high-quality resampler).
func resampleAudio(audioData []byte, fromRate, toRate, channels int) ([]byte, error) {
	if fromRate == toRate {
		return audioData, nil
	}

	var bufResampled bytes.Buffer
	bufWriter := bufio.NewWriter(&bufResampled)

	resampler, err := soxr.New(
		bufWriter,
		float64(fromRate),
		float64(toRate),
		channels,
		soxr.I16,
		soxr.HighQ,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	if _, err := resampler.Write(audioData); err != nil {
		resampler.Close()
		return nil, fmt.Errorf("failed to resample: %w", err)
	}

	if err := resampler.Close(); err != nil {
		return nil, fmt.Errorf("failed to close resampler: %w", err)
	}

	if err := bufWriter.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush buffer: %w", err)
	}

	return bufResampled.Bytes(), nil
}

// convertToMono16Bit converts interleaved 16-bit PCM to mono by averaging channels.
func convertToMono16Bit(stereoData []byte, channels int) []byte {
	if channels == 1 {
		return stereoData
	}

	monoData := make([]byte, 0, len(stereoData)/channels)
	idx := 0

	for idx+2*channels <= len(stereoData) {
		sum := int32(0)
		for ch := 0; ch < channels; ch++ {
			sample := int16(binary.LittleEndian.Uint16(stereoData[idx:]))
			sum += int32(sample)
			idx += 2
		}
		avg := int16(sum / int32(channels))
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(avg))
		monoData = append(monoData, b[:]...)
	}

	return monoData
}

// writeWAVFile writes 16-bit PCM audio data to a WAV file.
func writeWAVFile(fileName string, audioData []byte, numSamples uint32, numChannels uint16, sampleRate uint32, bitsPerSample uint16) error {
	fOut, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer fOut.Close()

	wavWriter := wav.NewWriter(fOut, numSamples, numChannels, sampleRate, bitsPerSample)

	if _, err := wavWriter.Write(audioData); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}

	return nil
}
