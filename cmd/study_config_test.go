package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tirtsim/tirtsim/tirt"
)

// writeStudyFile drops YAML content into a temp file and returns its path.
func writeStudyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadStudySpec_ValidFile(t *testing.T) {
	// GIVEN a complete study file
	path := writeStudyFile(t, `
name: demo
seed: 99
replications: 3
npersons: 50
ntraits: 3
nblocks_per_trait: 2
nitems_per_block: 2
family: bernoulli
comb_blocks: fixed
lambda: [0.8]
gamma: [0]
traits: [honesty, humility, greed]
phi:
  - [1.0, 0.2, 0.1]
  - [0.2, 1.0, 0.3]
  - [0.1, 0.3, 1.0]
`)

	// WHEN it is loaded
	spec, err := LoadStudySpec(path)
	require.NoError(t, err)

	// THEN every field comes through
	assert.Equal(t, "demo", spec.Name)
	assert.Equal(t, int64(99), spec.Seed)
	assert.Equal(t, 3, spec.Replications)
	assert.Equal(t, 50, spec.NPersons)
	assert.Equal(t, 3, spec.NTraits)
	assert.Equal(t, 2, spec.NBlocksPerTrait)
	assert.Equal(t, 2, spec.NItemsPerBlock)
	assert.Equal(t, "bernoulli", spec.Family)
	assert.Equal(t, "fixed", spec.CombBlocks)
	assert.Equal(t, []float64{0.8}, spec.Lambda)
	assert.Equal(t, []float64{0}, spec.Gamma)
	assert.Equal(t, []string{"honesty", "humility", "greed"}, spec.Traits)
	assert.Len(t, spec.Phi, 3)
}

func TestLoadStudySpec_UnknownKeyRejected(t *testing.T) {
	// GIVEN a study file with a typo in a key
	path := writeStudyFile(t, `
npersons: 50
ntrait: 3
`)

	// WHEN it is loaded
	_, err := LoadStudySpec(path)

	// THEN strict parsing surfaces the typo instead of ignoring it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing study spec")
}

func TestLoadStudySpec_MissingFile(t *testing.T) {
	_, err := LoadStudySpec(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading study spec")
}

func TestStudySpecConfig_MapsAllFields(t *testing.T) {
	spec := &StudySpec{
		NPersons:        40,
		NTraits:         3,
		NBlocksPerTrait: 2,
		NItemsPerBlock:  2,
		Family:          "cumulative",
		CombBlocks:      "fixed",
		MaxTrysInner:    500,
		Lambda:          []float64{0.7},
		GammaRows:       [][]float64{{-0.5, 0.5}},
		Phi:             [][]float64{{1, 0}, {0, 1}},
		BetaDispersion:  4,
		Traits:          []string{"a", "b", "c"},
	}

	cfg, err := spec.Config()
	require.NoError(t, err)

	assert.Equal(t, tirt.FamilyCumulative, cfg.Family)
	assert.Equal(t, tirt.BlockModeFixed, cfg.BlockMode)
	assert.Equal(t, 40, cfg.Design.NPersons)
	assert.Equal(t, 3, cfg.Design.NTraits)
	assert.Equal(t, []float64{0.7}, cfg.Lambda)
	assert.Equal(t, [][]float64{{-0.5, 0.5}}, cfg.GammaRows)
	assert.Equal(t, 4.0, cfg.BetaDispersion)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.TraitLabels)
	require.NotNil(t, cfg.Phi)
	assert.Equal(t, 2, cfg.Phi.SymmetricDim())

	// a partial budget keeps the default for the other knob
	assert.Equal(t, 500, cfg.Budget.MaxTrysInner)
	assert.Equal(t, tirt.DefaultSearchBudget().MaxTrysOuter, cfg.Budget.MaxTrysOuter)
}

func TestStudySpecConfig_ZeroBudgetLeftForDefaulting(t *testing.T) {
	spec := &StudySpec{NPersons: 10, NTraits: 2, NBlocksPerTrait: 1, NItemsPerBlock: 2}

	cfg, err := spec.Config()
	require.NoError(t, err)

	// untouched knobs stay zero so Simulate applies its own defaults
	assert.Equal(t, tirt.SearchBudget{}, cfg.Budget)
	assert.Equal(t, tirt.Family(""), cfg.Family)
	assert.Equal(t, tirt.BlockMode(""), cfg.BlockMode)
}

func TestStudySpecConfig_BadFamily(t *testing.T) {
	spec := &StudySpec{Family: "poisson"}
	_, err := spec.Config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "family")
}

func TestStudySpecConfig_BadBlockMode(t *testing.T) {
	spec := &StudySpec{CombBlocks: "rotated"}
	_, err := spec.Config()
	require.Error(t, err)
}

func TestStudySpecConfig_RaggedPhi(t *testing.T) {
	spec := &StudySpec{Phi: [][]float64{{1, 0.5}, {0.5}}}
	_, err := spec.Config()
	require.Error(t, err)
}

func TestLoadStudySpec_ResolvesRelativeEtaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "study.yaml")
	if err := os.WriteFile(path, []byte("eta_file: scores.csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	spec, err := LoadStudySpec(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "scores.csv"), spec.EtaFile)
}

func TestLoadEtaRows_ParsesMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	content := "0.5,-0.3\n1.2,0.4\n-0.7,0.9\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := loadEtaRows(path)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{0.5, -0.3}, {1.2, 0.4}, {-0.7, 0.9}}, rows)
}

func TestLoadEtaRows_InvalidScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte("0.5,high\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := loadEtaRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid score")
}

func TestLoadEtaRows_MissingFile(t *testing.T) {
	_, err := loadEtaRows(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening eta file")
}

func TestStudySpecConfig_EtaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte("0.5,-0.3\n1.2,0.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	spec := &StudySpec{
		NPersons:        2,
		NTraits:         2,
		NBlocksPerTrait: 1,
		NItemsPerBlock:  2,
		EtaFile:         path,
	}

	cfg, err := spec.Config()
	require.NoError(t, err)

	require.NotNil(t, cfg.Eta)
	r, c := cfg.Eta.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.2, cfg.Eta.At(1, 0))
}

func TestStudySpecConfig_EtaAndEtaFileExclusive(t *testing.T) {
	spec := &StudySpec{
		Eta:     [][]float64{{0, 0}},
		EtaFile: "scores.csv",
	}

	_, err := spec.Config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestStudySpecConfig_EtaRows(t *testing.T) {
	spec := &StudySpec{
		NPersons:        2,
		NTraits:         2,
		NBlocksPerTrait: 1,
		NItemsPerBlock:  2,
		Eta:             [][]float64{{0.5, -0.3}, {1.2, 0.4}},
	}

	cfg, err := spec.Config()
	require.NoError(t, err)

	require.NotNil(t, cfg.Eta)
	r, c := cfg.Eta.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, -0.3, cfg.Eta.At(0, 1))
}

// TestStudySpecToSimulate_OmittedFamilyDefaults runs a loaded spec end to end
// and checks the engine fills the family default.
func TestStudySpecToSimulate_OmittedFamilyDefaults(t *testing.T) {
	path := writeStudyFile(t, `
seed: 11
npersons: 8
ntraits: 3
nblocks_per_trait: 2
nitems_per_block: 2
comb_blocks: fixed
lambda: [0.8]
phi:
  - [1, 0, 0]
  - [0, 1, 0]
  - [0, 0, 1]
`)

	spec, err := LoadStudySpec(path)
	require.NoError(t, err)
	cfg, err := spec.Config()
	require.NoError(t, err)

	ds, err := tirt.Simulate(cfg, testCmdRNG(uint64(spec.Seed)))
	require.NoError(t, err)

	assert.Equal(t, "bernoulli", string(ds.Meta.Family))
	assert.Len(t, ds.Rows, 8*3*1)
}
