package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/drgolem/audiocore/pkg/nulltest"

	"github.com/spf13/cobra"
)

var nullTestCmd = &cobra.Command{
	Use:   "nulltest <audio_file>",
	Short: "Verify a file decodes identically on repeated passes",
	Long: `Decode a file twice independently through the decoder factory and
compare every sample. Any difference means the decode path is
non-deterministic, which would poison the engine's bit-perfect guarantee
before playback is even exercised.`,
	Args: cobra.ExactArgs(1),
	Run:  runNullTest,
}

func init() {
	rootCmd.AddCommand(nullTestCmd)
}

func runNullTest(cmd *cobra.Command, args []string) {
	fileName := args[0]

	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		slog.Error("file not found", "path", fileName)
		os.Exit(1)
	}

	result, err := nulltest.Run(fileName)
	if err != nil {
		slog.Error("null test failed to run", "error", err)
		os.Exit(1)
	}

	fmt.Println(result.Summary)
	fmt.Printf("total samples: %d, differing: %d, max diff: %g, rms diff: %g\n",
		result.TotalSamples, result.DiffSamples, result.MaxDiff, result.RMSDiff)

	if !result.Passed {
		os.Exit(1)
	}
}
