package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audiocore",
	Short: "Lock-free real-time audio playback engine",
	Long: `audiocore - a real-time audio playback engine built on a lock-free
SPSC (Single-Producer Single-Consumer) ring buffer.

Features:
  - Lock-free SPSC ring buffer between decoder and output callback
  - FLAC, MP3, WAV, OGG/Vorbis and Opus decoding, all to interleaved float32
  - ReplayGain loudness normalization and a 10-band equalizer in the signal path
  - Click-free play/pause/resume/stop via an equal-power fade state machine
  - Bit-perfect passthrough whenever volume/ReplayGain/EQ allow it
  - Offline sample-rate conversion

Commands:
  - play: play one file with real-time status reporting
  - playlist: play multiple files back to back
  - devices: list audio output devices
  - nulltest: verify a file decodes identically on repeated passes
  - transform: convert a file to a different sample rate and WAV format`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
