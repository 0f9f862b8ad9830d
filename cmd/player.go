package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drgolem/audiocore/pkg/audioengine"
	"github.com/drgolem/audiocore/pkg/equalizer"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	deviceIdx   int
	frames      int
	showVersion bool
	verbose     bool
	eqPreset    string
	eqEnabled   bool
)

// playerCmd represents the play command
var playerCmd = &cobra.Command{
	Use:   "play <audio_file>",
	Short: "Play a single audio file (MP3, FLAC, WAV, OGG, Opus)",
	Long: `Play a single audio file through the engine's decode-worker and
callback pipeline. This command drives playback to completion and exposes
no interactive transport controls (pause/resume/seek); a host embedding
audioengine.Engine directly gets the full command set.

Examples:
  audiocore play music.mp3
  audiocore play -d 0 music.flac
  audiocore play -f 256 music.wav`,
	Args: cobra.ExactArgs(1),
	Run:  runPlayer,
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.Flags().IntVarP(&deviceIdx, "device", "d", -1, "Audio output device index (-1 for default)")
	playerCmd.Flags().IntVarP(&frames, "frames", "f", 512, "Audio frames per output callback")
	playerCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	playerCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	playerCmd.Flags().StringVar(&eqPreset, "eq-preset", "", "Equalizer preset (flat, rock, pop, jazz, classical, bass_boost, vocal, electronic)")
	playerCmd.Flags().BoolVar(&eqEnabled, "eq", false, "Enable the equalizer (implied by --eq-preset)")
}

func runPlayer(cmd *cobra.Command, args []string) {
	if showVersion {
		fmt.Printf("audiocore v%s\n", version)
		fmt.Println("Built with:")
		fmt.Println("  - Lock-free SPSC ring buffer")
		fmt.Println("  - ReplayGain and 10-band equalizer")
		fmt.Println("  - PortAudio for cross-platform audio")
		os.Exit(0)
	}

	fileName := args[0]
	configureLogging(verbose)

	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		slog.Error("file not found", "path", fileName)
		os.Exit(1)
	}

	slog.Info("initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("failed to initialize PortAudio", "error", err)
		slog.Error("hint: make sure PortAudio is installed on your system")
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized", "version", portaudio.GetVersion())
	slog.Info("audio configuration", "device_index", deviceIdx, "frames_per_buffer", frames)

	engine := audioengine.NewEngineWithBuffer(deviceIdx, frames)
	defer engine.Shutdown()

	if eqPreset != "" {
		gains, ok := equalizer.GetPreset(eqPreset)
		if !ok {
			slog.Error("unknown equalizer preset", "preset", eqPreset)
			os.Exit(1)
		}
		engine.SetEQBands(gains)
		engine.SetEQEnabled(true)
	} else if eqEnabled {
		engine.SetEQEnabled(true)
	}

	slog.Info("opening audio file", "path", fileName)
	engine.Play(fileName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	statusDone := make(chan struct{})
	go monitorEngineStatus(engine, statusDone)

	done := make(chan struct{})
	go func() {
		waitForEngineIdle(engine)
		close(done)
	}()

	select {
	case <-done:
		slog.Info("playback completed successfully")
	case sig := <-sigChan:
		slog.Info("signal received, stopping playback", "signal", sig)
		engine.Stop()
	}

	close(statusDone)
	slog.Info("exiting")
}

func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// waitForEngineIdle blocks until the engine reports playback has started
// and then stopped on its own (end of stream). The engine exposes no
// completion channel, only a polled state — this mirrors how a UI host
// would watch get_state.
func waitForEngineIdle(engine *audioengine.Engine) {
	time.Sleep(50 * time.Millisecond)
	sawPlaying := false
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		state := engine.GetState()
		if state.IsPlaying {
			sawPlaying = true
			continue
		}
		if sawPlaying || state.CurrentFile == "" {
			return
		}
	}
}

// monitorEngineStatus logs playback position and buffer health every two
// seconds.
func monitorEngineStatus(engine *audioengine.Engine, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			state := engine.GetState()
			diag := engine.GetDiagnostics()

			elapsedStr := formatHMS(state.PositionSecs)
			durationStr := formatHMS(state.DurationSecs)

			slog.Info("playback status",
				"file", state.CurrentFile,
				"format", fmt.Sprintf("%dHz:%dbit:%dch", state.SampleRate, state.BitDepth, state.Channels),
				"position", elapsedStr,
				"duration", durationStr,
				"buffer_fill", fmt.Sprintf("%.1f%%", diag.BufferFillPct),
				"bit_perfect", diag.IsBitPerfect,
				"dropouts", diag.DropoutCount)

			if diag.BufferFillPct < 10 {
				slog.Warn("buffer critically low - possible underruns")
			}
		case <-done:
			return
		}
	}
}

func formatHMS(seconds float64) string {
	ms := int64(seconds * 1000)
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	secs := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}
