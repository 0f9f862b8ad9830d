package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drgolem/audiocore/internal/fileplayer"
	"github.com/drgolem/audiocore/pkg/audioengine"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

var (
	playlistDeviceIdx int
	playlistFrames    int
	playlistVerbose   bool
)

// playlistCmd represents the playlist command
var playlistCmd = &cobra.Command{
	Use:   "playlist <audio_file> [audio_file...]",
	Short: "Play multiple audio files sequentially",
	Long: `Play a list of audio files one after another on a single engine
instance, advancing automatically once each file reaches end of stream.

Examples:
  audiocore playlist song1.mp3 song2.flac song3.wav
  audiocore playlist -d 0 -v music/*.flac`,
	Args: cobra.MinimumNArgs(1),
	Run:  runPlaylist,
}

func init() {
	rootCmd.AddCommand(playlistCmd)

	playlistCmd.Flags().IntVarP(&playlistDeviceIdx, "device", "d", -1, "Audio output device index (-1 for default)")
	playlistCmd.Flags().IntVarP(&playlistFrames, "frames", "f", 512, "Audio frames per output callback")
	playlistCmd.Flags().BoolVarP(&playlistVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlaylist(cmd *cobra.Command, args []string) {
	configureLogging(playlistVerbose)

	files := args

	slog.Info("initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized", "version", portaudio.GetVersion())
	slog.Info("configuration", "device_index", playlistDeviceIdx, "frames_per_buffer", playlistFrames, "file_count", len(files))

	engine := audioengine.NewEngineWithBuffer(playlistDeviceIdx, playlistFrames)
	defer engine.Shutdown()

	playlist := fileplayer.NewPlaylist(engine, files)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("signal received, stopping playlist", "signal", sig)
		cancel()
	}()

	statusDone := make(chan struct{})
	go monitorPlaylistStatus(playlist, statusDone)

	err := playlist.Run(ctx)
	close(statusDone)

	if err != nil {
		slog.Info("playlist interrupted")
	} else {
		slog.Info("all files completed", "total", len(files))
	}

	slog.Info("exiting")
}

func monitorPlaylistStatus(playlist *fileplayer.Playlist, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status := playlist.GetPlaybackStatus()
			if status.CurrentFile == "" {
				continue
			}
			slog.Info("playback status",
				"file", status.CurrentFile,
				"format", status.SampleRate,
				"position", formatHMS(status.PositionSecs),
				"duration", formatHMS(status.DurationSecs),
				"buffer_fill_pct", status.Diagnostics.BufferFillPct,
				"dropouts", status.Diagnostics.DropoutCount)
		case <-done:
			return
		}
	}
}
