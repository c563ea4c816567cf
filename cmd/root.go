package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/tirtsim/tirtsim/tirt"
)

var (
	// CLI flags for run control
	seed         int64  // Master seed for all random streams
	logLevel     string // Log verbosity level
	studyFile    string // Path to a YAML study spec; overrides design and parameter flags
	outDir       string // Directory for dataset and metadata files
	replications int    // Number of independent datasets to generate

	// CLI flags for the questionnaire design
	npersons        int    // Respondent count
	ntraits         int    // Latent trait count
	nblocksPerTrait int    // Blocks each trait appears in
	nitemsPerBlock  int    // Items presented together per block
	family          string // Response family
	combBlocks      string // Block construction mode
	maxTrysInner    int    // Attempts per block in random mode
	maxTrysOuter    int    // Full restarts in random mode

	// CLI flags for item and trait parameters
	lambda         []float64 // Item loadings, one shared value or one per item
	psi            []float64 // Item uniquenesses; derived from lambda when empty
	gamma          []float64 // Baseline offsets; ordinal threshold row for cumulative
	phi            []float64 // Trait correlations, row-major ntraits*ntraits
	traits         []string  // Trait labels
	betaDispersion float64   // Beta family dispersion
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tirtsim",
	Short: "Synthetic response data generator for Thurstonian IRT models",
}

// generateCmd simulates one or more datasets from CLI flags or a study spec
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic forced-choice response data",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		var cfg *tirt.SimulationConfig
		runSeed := seed
		reps := replications
		dest := outDir

		if studyFile != "" {
			spec, err := LoadStudySpec(studyFile)
			if err != nil {
				logrus.Fatalf("Failed to load study spec: %v", err)
			}
			cfg, err = spec.Config()
			if err != nil {
				logrus.Fatalf("Invalid study spec: %v", err)
			}
			// CLI flags override the study file only when explicitly set
			if !cmd.Flags().Changed("seed") {
				runSeed = spec.Seed
			}
			if !cmd.Flags().Changed("replications") && spec.Replications > 0 {
				reps = spec.Replications
			}
			if !cmd.Flags().Changed("output-dir") && spec.OutputDir != "" {
				dest = spec.OutputDir
			}
			if spec.Name != "" {
				logrus.Infof("Loaded study %q from %s", spec.Name, studyFile)
			}
		} else {
			if len(lambda) == 0 {
				logrus.Fatalf("Item loadings not provided (--lambda). Exiting generation.")
			}
			cfg, err = buildFlagConfig()
			if err != nil {
				logrus.Fatalf("Invalid configuration: %v", err)
			}
		}
		if reps < 1 {
			reps = 1
		}

		startTime := time.Now()
		runID := uuid.NewString()
		prng := tirt.NewPartitionedRNG(tirt.NewSimulationKey(runSeed))
		logrus.Infof("Starting generation: run %s, seed %d, %d replication(s)", runID, runSeed, reps)

		for rep := 1; rep <= reps; rep++ {
			stream := prng.ForSubsystem(tirt.SubsystemSimulation)
			if reps > 1 {
				stream = prng.ForSubsystem(tirt.SubsystemReplication(rep))
			}

			ds, err := tirt.Simulate(cfg, stream)
			if err != nil {
				logrus.Fatalf("Generation failed: %v", err)
			}
			ds.Meta.RunID = runID
			ds.Meta.Seed = &runSeed
			if reps > 1 {
				ds.Meta.Replication = rep
			}

			path, err := writeDataset(ds, dest, rep, reps)
			if err != nil {
				logrus.Fatalf("Failed to write outputs: %v", err)
			}
			logrus.Infof("Wrote %s (%d rows)", path, len(ds.Rows))
			ds.Summary(os.Stdout)
		}

		logrus.Infof("Generation complete in %.2fs.", time.Since(startTime).Seconds())
	},
}

// planCmd prints the block-to-trait assignment for a design without simulating
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the balanced block-to-trait assignment for a design",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		d := tirt.Design{
			NPersons:        npersons,
			NTraits:         ntraits,
			NBlocksPerTrait: nblocksPerTrait,
			NItemsPerBlock:  nitemsPerBlock,
		}
		mode, err := tirt.ParseBlockMode(combBlocks)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		budget := tirt.SearchBudget{MaxTrysInner: maxTrysInner, MaxTrysOuter: maxTrysOuter}

		prng := tirt.NewPartitionedRNG(tirt.NewSimulationKey(seed))
		blocks, err := tirt.PlanBlocks(d, mode, budget, prng.ForSubsystem(tirt.SubsystemDesign))
		if err != nil {
			logrus.Fatalf("Block planning failed: %v", err)
		}

		labels := traits
		if len(labels) == 0 {
			labels = tirt.DefaultTraitLabels(ntraits)
		}
		printBlockPlan(os.Stdout, blocks, labels)
	},
}

// buildFlagConfig assembles a SimulationConfig from the design and parameter
// flags. The gamma flag carries the two-category offsets for most families
// and the shared threshold row for cumulative.
func buildFlagConfig() (*tirt.SimulationConfig, error) {
	cfg := &tirt.SimulationConfig{
		Design: tirt.Design{
			NPersons:        npersons,
			NTraits:         ntraits,
			NBlocksPerTrait: nblocksPerTrait,
			NItemsPerBlock:  nitemsPerBlock,
		},
		Budget:         tirt.SearchBudget{MaxTrysInner: maxTrysInner, MaxTrysOuter: maxTrysOuter},
		Lambda:         lambda,
		Psi:            psi,
		BetaDispersion: betaDispersion,
		TraitLabels:    traits,
	}

	fam, err := tirt.ParseFamily(family)
	if err != nil {
		return nil, err
	}
	cfg.Family = fam
	mode, err := tirt.ParseBlockMode(combBlocks)
	if err != nil {
		return nil, err
	}
	cfg.BlockMode = mode

	if len(gamma) > 0 {
		if fam == tirt.FamilyCumulative {
			cfg.GammaRows = [][]float64{gamma}
		} else {
			cfg.Gamma = gamma
		}
	}

	phiMat, err := phiFromFlag(phi, ntraits)
	if err != nil {
		return nil, err
	}
	cfg.Phi = phiMat

	return cfg, nil
}

// phiFromFlag reshapes the flat row-major phi flag into a symmetric matrix.
// An empty flag means uncorrelated traits.
func phiFromFlag(vals []float64, ntraits int) (*mat.SymDense, error) {
	if len(vals) == 0 {
		return tirt.IdentityPhi(ntraits), nil
	}
	if len(vals) != ntraits*ntraits {
		return nil, fmt.Errorf("phi must have ntraits*ntraits = %d entries in row-major order, got %d", ntraits*ntraits, len(vals))
	}
	rows := make([][]float64, ntraits)
	for i := range rows {
		rows[i] = vals[i*ntraits : (i+1)*ntraits]
	}
	return tirt.NewPhi(rows)
}

// writeDataset writes the CSV table and the JSON metadata sidecar into dir,
// suffixing file names with the replication number for multi-replication
// runs. Returns the CSV path.
func writeDataset(ds *tirt.Dataset, dir string, rep, reps int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	csvName, metaName := "dataset.csv", "metadata.json"
	if reps > 1 {
		csvName = fmt.Sprintf("dataset_rep%d.csv", rep)
		metaName = fmt.Sprintf("metadata_rep%d.json", rep)
	}

	csvPath := filepath.Join(dir, csvName)
	f, err := os.Create(csvPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", csvPath, err)
	}
	if err := ds.WriteCSV(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	metaPath := filepath.Join(dir, metaName)
	mf, err := os.Create(metaPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", metaPath, err)
	}
	if err := ds.WriteMetadataJSON(mf); err != nil {
		_ = mf.Close()
		return "", err
	}
	if err := mf.Close(); err != nil {
		return "", err
	}

	return csvPath, nil
}

// printBlockPlan writes one line per block naming its traits in order.
func printBlockPlan(w io.Writer, blocks [][]int, labels []string) {
	fmt.Fprintln(w, "=== Block Plan ===")
	for i, row := range blocks {
		names := make([]string, len(row))
		for j, t := range row {
			names[j] = labels[t]
		}
		fmt.Fprintf(w, "Block %2d: %s\n", i+1, strings.Join(names, ", "))
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	generateCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for all random streams")
	generateCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	generateCmd.Flags().StringVar(&studyFile, "study", "", "Path to a YAML study spec (overrides design and parameter flags)")
	generateCmd.Flags().StringVar(&outDir, "output-dir", ".", "Directory for dataset and metadata files")
	generateCmd.Flags().IntVar(&replications, "replications", 1, "Number of independent datasets to generate")

	// Questionnaire design
	generateCmd.Flags().IntVar(&npersons, "npersons", 100, "Number of respondents")
	generateCmd.Flags().IntVar(&ntraits, "ntraits", 3, "Number of latent traits")
	generateCmd.Flags().IntVar(&nblocksPerTrait, "nblocks-per-trait", 2, "Number of blocks each trait appears in")
	generateCmd.Flags().IntVar(&nitemsPerBlock, "nitems-per-block", 2, "Number of items per comparison block")
	generateCmd.Flags().StringVar(&family, "family", "bernoulli", "Response family (bernoulli, cumulative, gaussian, beta)")
	generateCmd.Flags().StringVar(&combBlocks, "comb-blocks", "random", "Block construction mode (random, fixed)")
	generateCmd.Flags().IntVar(&maxTrysInner, "maxtrys-inner", 1000, "Attempts per block before a full restart in random mode")
	generateCmd.Flags().IntVar(&maxTrysOuter, "maxtrys-outer", 10, "Full restarts before the random block search fails")

	// Item and trait parameters
	generateCmd.Flags().Float64SliceVar(&lambda, "lambda", nil, "Comma-separated item loadings (one shared value or one per item)")
	generateCmd.Flags().Float64SliceVar(&psi, "psi", nil, "Comma-separated item uniquenesses (derived as 1-lambda^2 when omitted)")
	generateCmd.Flags().Float64SliceVar(&gamma, "gamma", nil, "Comma-separated baseline offsets; ordinal thresholds for cumulative")
	generateCmd.Flags().Float64SliceVar(&phi, "phi", nil, "Comma-separated trait correlations, row-major ntraits*ntraits (identity when omitted)")
	generateCmd.Flags().StringSliceVar(&traits, "traits", nil, "Comma-separated trait labels")
	generateCmd.Flags().Float64Var(&betaDispersion, "beta-dispersion", 1, "Dispersion of the beta response family")

	planCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for all random streams")
	planCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	planCmd.Flags().IntVar(&npersons, "npersons", 100, "Number of respondents")
	planCmd.Flags().IntVar(&ntraits, "ntraits", 3, "Number of latent traits")
	planCmd.Flags().IntVar(&nblocksPerTrait, "nblocks-per-trait", 2, "Number of blocks each trait appears in")
	planCmd.Flags().IntVar(&nitemsPerBlock, "nitems-per-block", 2, "Number of items per comparison block")
	planCmd.Flags().StringVar(&combBlocks, "comb-blocks", "random", "Block construction mode (random, fixed)")
	planCmd.Flags().IntVar(&maxTrysInner, "maxtrys-inner", 1000, "Attempts per block before a full restart in random mode")
	planCmd.Flags().IntVar(&maxTrysOuter, "maxtrys-outer", 10, "Full restarts before the random block search fails")
	planCmd.Flags().StringSliceVar(&traits, "traits", nil, "Comma-separated trait labels")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(planCmd)
}
