package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tirtsim/tirtsim/tirt"
)

var validateStudyPaths []string

// validateCmd checks study specs without generating any data.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check study specs without generating data",
	Long:  "Load one or more YAML study specs, run full configuration validation, and print the resolved design of each. No dataset is produced.",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		for _, path := range validateStudyPaths {
			spec, err := LoadStudySpec(path)
			if err != nil {
				logrus.Fatalf("Failed to load study spec %s: %v", path, err)
			}
			cfg, err := spec.Config()
			if err != nil {
				logrus.Fatalf("Invalid study spec %s: %v", path, err)
			}
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				logrus.Fatalf("Invalid study spec %s: %v", path, err)
			}
			printStudyCheck(os.Stdout, path, spec, cfg)
		}
	},
}

// printStudyCheck writes the resolved design of a validated study spec.
func printStudyCheck(w io.Writer, path string, spec *StudySpec, cfg *tirt.SimulationConfig) {
	d := cfg.Design
	fmt.Fprintf(w, "=== Study Check: %s ===\n", path)
	if spec.Name != "" {
		fmt.Fprintf(w, "Name         : %s\n", spec.Name)
	}
	fmt.Fprintf(w, "Design       : %d persons, %d traits, %d blocks/trait, %d items/block\n",
		d.NPersons, d.NTraits, d.NBlocksPerTrait, d.NItemsPerBlock)
	fmt.Fprintf(w, "Derived      : %d blocks, %d items, %d comparisons/block\n",
		d.NBlocks(), d.NItems(), d.NComparisons())
	if cfg.Family.Discrete() {
		fmt.Fprintf(w, "Family       : %s (%d categories)\n", cfg.Family, cfg.NCat())
	} else {
		fmt.Fprintf(w, "Family       : %s\n", cfg.Family)
	}
	fmt.Fprintf(w, "Block mode   : %s\n", cfg.BlockMode)
	reps := spec.Replications
	if reps < 1 {
		reps = 1
	}
	fmt.Fprintf(w, "Replications : %d\n", reps)
	fmt.Fprintln(w, "OK")
}

func init() {
	validateCmd.Flags().StringArrayVar(&validateStudyPaths, "study", nil, "Path to a YAML study spec (can be repeated)")
	validateCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	_ = validateCmd.MarkFlagRequired("study")

	rootCmd.AddCommand(validateCmd)
}
