package cmd

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tirtsim/tirtsim/tirt"
)

// StudySpec is the YAML description of a simulation study. It mirrors the
// flag surface of the generate command; a study file is the reproducible
// record of one synthetic-data run.
type StudySpec struct {
	Name         string `yaml:"name"`
	Seed         int64  `yaml:"seed"`
	Replications int    `yaml:"replications"`
	OutputDir    string `yaml:"output_dir"`

	NPersons        int    `yaml:"npersons"`
	NTraits         int    `yaml:"ntraits"`
	NBlocksPerTrait int    `yaml:"nblocks_per_trait"`
	NItemsPerBlock  int    `yaml:"nitems_per_block"`
	Family          string `yaml:"family"`
	CombBlocks      string `yaml:"comb_blocks"`
	MaxTrysInner    int    `yaml:"maxtrys_inner"`
	MaxTrysOuter    int    `yaml:"maxtrys_outer"`

	Lambda        []float64   `yaml:"lambda"`
	LambdaByTrait [][]float64 `yaml:"lambda_by_trait"`
	Psi           []float64   `yaml:"psi"`
	PsiByTrait    [][]float64 `yaml:"psi_by_trait"`
	Gamma         []float64   `yaml:"gamma"`
	GammaRows     [][]float64 `yaml:"gamma_rows"`
	Phi           [][]float64 `yaml:"phi"`
	Eta           [][]float64 `yaml:"eta"`
	EtaFile       string      `yaml:"eta_file"`

	BetaDispersion float64  `yaml:"beta_dispersion"`
	Traits         []string `yaml:"traits"`
}

// LoadStudySpec reads and parses a study file. Parsing is strict: unknown
// keys are errors, so typos in a study file fail loudly instead of being
// silently ignored. A relative eta_file resolves against the study file's
// directory.
func LoadStudySpec(path string) (*StudySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading study spec: %w", err)
	}
	var spec StudySpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing study spec: %w", err)
	}
	if spec.EtaFile != "" && !filepath.IsAbs(spec.EtaFile) {
		spec.EtaFile = filepath.Join(filepath.Dir(path), spec.EtaFile)
	}
	return &spec, nil
}

// loadEtaRows reads a headerless CSV of latent scores, one respondent per
// row, one trait per column.
func loadEtaRows(path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening eta file %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only file

	reader := csv.NewReader(file)
	var rows [][]float64
	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("eta file %s row %d: %w", path, rowIdx, err)
		}
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("eta file %s row %d: invalid score %q: %w", path, rowIdx, field, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
		rowIdx++
	}
	return rows, nil
}

// Config converts the study spec into a SimulationConfig. Fields left unset
// in the YAML stay zero so the config's own defaulting applies; full
// structural validation happens inside Simulate.
func (s *StudySpec) Config() (*tirt.SimulationConfig, error) {
	cfg := &tirt.SimulationConfig{
		Design: tirt.Design{
			NPersons:        s.NPersons,
			NTraits:         s.NTraits,
			NBlocksPerTrait: s.NBlocksPerTrait,
			NItemsPerBlock:  s.NItemsPerBlock,
		},
		Lambda:         s.Lambda,
		LambdaByTrait:  s.LambdaByTrait,
		Psi:            s.Psi,
		PsiByTrait:     s.PsiByTrait,
		Gamma:          s.Gamma,
		GammaRows:      s.GammaRows,
		BetaDispersion: s.BetaDispersion,
		TraitLabels:    s.Traits,
	}

	if s.Family != "" {
		family, err := tirt.ParseFamily(s.Family)
		if err != nil {
			return nil, err
		}
		cfg.Family = family
	}
	if s.CombBlocks != "" {
		mode, err := tirt.ParseBlockMode(s.CombBlocks)
		if err != nil {
			return nil, err
		}
		cfg.BlockMode = mode
	}

	if s.MaxTrysInner > 0 || s.MaxTrysOuter > 0 {
		budget := tirt.DefaultSearchBudget()
		if s.MaxTrysInner > 0 {
			budget.MaxTrysInner = s.MaxTrysInner
		}
		if s.MaxTrysOuter > 0 {
			budget.MaxTrysOuter = s.MaxTrysOuter
		}
		cfg.Budget = budget
	}

	if len(s.Phi) > 0 {
		phi, err := tirt.NewPhi(s.Phi)
		if err != nil {
			return nil, err
		}
		cfg.Phi = phi
	}
	etaRows := s.Eta
	if s.EtaFile != "" {
		if len(etaRows) > 0 {
			return nil, fmt.Errorf("eta and eta_file are mutually exclusive")
		}
		var err error
		etaRows, err = loadEtaRows(s.EtaFile)
		if err != nil {
			return nil, err
		}
	}
	if len(etaRows) > 0 {
		eta, err := tirt.NewEta(etaRows)
		if err != nil {
			return nil, err
		}
		cfg.Eta = eta
	}

	return cfg, nil
}
