package cmd

import (
	"fmt"
	"os"

	"github.com/drgolem/audiocore/pkg/equalizer"

	"github.com/spf13/cobra"
)

var eqPresetsCmd = &cobra.Command{
	Use:   "eq-presets [name]",
	Short: "List equalizer presets, or print one preset's band gains",
	Long: `With no argument, lists the names of every built-in equalizer preset.
With a preset name, prints its 10 band gains in dB — a pure lookup that
touches no engine state, equivalent to an embedding host calling
get_eq_preset before issuing set_eq_bands.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runEQPresets,
}

func init() {
	rootCmd.AddCommand(eqPresetsCmd)
}

var eqPresetNames = []string{
	"flat", "rock", "pop", "jazz", "classical", "bass_boost", "vocal", "electronic",
}

func runEQPresets(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		for _, name := range eqPresetNames {
			fmt.Println(name)
		}
		return
	}

	name := args[0]
	gains, ok := equalizer.GetPreset(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown preset: %s\n", name)
		os.Exit(1)
	}

	fmt.Printf("preset: %s\n", name)
	for i, g := range gains {
		fmt.Printf("  band %d: %+.1f dB\n", i, g)
	}
}
