package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tirtsim/tirtsim/tirt"
)

func TestPrintStudyCheck_ResolvedDesign(t *testing.T) {
	// GIVEN a validated spec and its resolved config
	spec := makeTestSpec(42)
	spec.Name = "pilot"
	spec.Replications = 3
	cfg, err := spec.Config()
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	// WHEN the check is printed
	var buf bytes.Buffer
	printStudyCheck(&buf, "studies/pilot.yaml", spec, cfg)
	output := buf.String()

	// THEN the header and the resolved counts appear
	assert.Contains(t, output, "=== Study Check: studies/pilot.yaml ===")
	assert.Contains(t, output, "Name         : pilot")
	assert.Contains(t, output, "Design       : 30 persons, 3 traits, 2 blocks/trait, 2 items/block")
	assert.Contains(t, output, "Derived      : 3 blocks, 6 items, 1 comparisons/block")
	assert.Contains(t, output, "Family       : gaussian")
	assert.Contains(t, output, "Block mode   : fixed")
	assert.Contains(t, output, "Replications : 3")
	assert.Contains(t, output, "OK")
}

func TestPrintStudyCheck_DiscreteFamilyShowsCategories(t *testing.T) {
	spec := makeTestSpec(42)
	spec.Family = "cumulative"
	spec.GammaRows = [][]float64{{-0.5, 0.5}}
	cfg, err := spec.Config()
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	var buf bytes.Buffer
	printStudyCheck(&buf, "study.yaml", spec, cfg)

	assert.Contains(t, buf.String(), "Family       : cumulative (3 categories)")
}

func TestPrintStudyCheck_DefaultReplications(t *testing.T) {
	spec := makeTestSpec(42)
	cfg, err := spec.Config()
	require.NoError(t, err)
	cfg.ApplyDefaults()

	var buf bytes.Buffer
	printStudyCheck(&buf, "study.yaml", spec, cfg)

	assert.Contains(t, buf.String(), "Replications : 1")
}

// Validation through ApplyDefaults+Validate matches what Simulate accepts.
func TestValidateSequence_MatchesSimulate(t *testing.T) {
	spec := makeTestSpec(5)
	cfg, err := spec.Config()
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	_, err = tirt.Simulate(cfg, testCmdRNG(5))
	assert.NoError(t, err)
}
