package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/drgolem/audiocore/pkg/audioengine"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio output devices",
	Long:  `List the audio output devices available for the play/playlist commands' -d flag.`,
	Args:  cobra.NoArgs,
	Run:   runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) {
	if err := portaudio.Initialize(); err != nil {
		slog.Error("failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	devices, err := audioengine.ListOutputDevices()
	if err != nil {
		slog.Error("failed to enumerate devices", "error", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("no output devices found")
		return
	}

	for _, d := range devices {
		marker := ""
		if d.IsDefault {
			marker = " (default)"
		}
		fmt.Printf("%d: %s%s\n", d.Index, d.Name, marker)
	}
}
