package tirt

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Simulate generates one synthetic forced-choice dataset.
//
// The pipeline is validate, plan blocks, enumerate the comparison template,
// resolve item parameters, draw or accept latent scores, then join every
// respondent against the template and sample one response per row. All
// randomness is drawn from rng; fixing its seed makes the run reproducible.
// Unset optional config fields are filled with defaults in place.
func Simulate(cfg *SimulationConfig, rng *rand.Rand) (*Dataset, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	d := cfg.Design
	traitRows, err := PlanBlocks(d, cfg.BlockMode, cfg.Budget, rng)
	if err != nil {
		return nil, err
	}
	comps := EnumerateComparisons(d, traitRows)
	itemTraits := ItemTraits(traitRows)

	params, err := resolveItemParams(cfg, itemTraits)
	if err != nil {
		return nil, err
	}

	eta := cfg.Eta
	if eta == nil {
		eta, err = SampleLatentScores(d.NPersons, cfg.Phi, rng)
		if err != nil {
			return nil, err
		}
	}

	sampler, err := NewResponseSampler(cfg.Family, cfg.BetaDispersion)
	if err != nil {
		return nil, err
	}

	logrus.Debugf("simulating %d rows: %d persons x %d blocks x %d comparisons",
		d.NRows(), d.NPersons, d.NBlocks(), d.NComparisons())

	rows := make([]Row, 0, d.NRows())
	for person := 1; person <= d.NPersons; person++ {
		for i := range comps {
			cmp := &comps[i]
			gamma := params.Gamma[cmp.ItemC-1]
			lambda1 := params.Lambda[cmp.Item1-1]
			lambda2 := params.Lambda[cmp.Item2-1]
			psi1 := params.Psi[cmp.Item1-1]
			psi2 := params.Psi[cmp.Item2-1]
			eta1 := eta.At(person-1, cmp.Trait1)
			eta2 := eta.At(person-1, cmp.Trait2)

			mu, probs := ResponseParam(cfg.Family, gamma, lambda1, eta1, lambda2, eta2, psi1, psi2)
			rows = append(rows, Row{
				Person:     person,
				Block:      cmp.Block,
				Comparison: cmp.Index,
				ItemC:      cmp.ItemC,
				Trait1:     cfg.TraitLabels[cmp.Trait1],
				Trait2:     cfg.TraitLabels[cmp.Trait2],
				Item1:      cmp.Item1,
				Item2:      cmp.Item2,
				Sign1:      params.Signs[cmp.Item1-1],
				Sign2:      params.Signs[cmp.Item2-1],
				Gamma:      gamma,
				Lambda1:    lambda1,
				Lambda2:    lambda2,
				Psi1:       psi1,
				Psi2:       psi2,
				Eta1:       eta1,
				Eta2:       eta2,
				Mu:         mu,
				Probs:      probs,
				Response:   sampler.Sample(rng, mu, probs),
			})
		}
	}

	return &Dataset{Rows: rows, Meta: buildMetadata(cfg, traitRows, params, eta)}, nil
}

// buildMetadata assembles the reproducibility record attached to a dataset.
func buildMetadata(cfg *SimulationConfig, traitRows [][]int, params *itemParams, eta *mat.Dense) Metadata {
	d := cfg.Design

	blockTraits := make([][]string, len(traitRows))
	for b, row := range traitRows {
		labels := make([]string, len(row))
		for j, t := range row {
			labels[j] = cfg.TraitLabels[t]
		}
		blockTraits[b] = labels
	}

	etaRows := make([][]float64, d.NPersons)
	for i := 0; i < d.NPersons; i++ {
		etaRows[i] = append([]float64(nil), eta.RawRowView(i)...)
	}

	return Metadata{
		NPersons:        d.NPersons,
		NTraits:         d.NTraits,
		NBlocksPerTrait: d.NBlocksPerTrait,
		NItemsPerBlock:  d.NItemsPerBlock,
		NBlocks:         d.NBlocks(),
		NItems:          d.NItems(),
		NComparisons:    d.NComparisons(),
		NCat:            cfg.NCat(),
		Family:          cfg.Family,
		BlockMode:       cfg.BlockMode,
		TraitLabels:     append([]string(nil), cfg.TraitLabels...),
		BlockTraits:     blockTraits,
		Signs:           params.Signs,
		Lambda:          params.Lambda,
		Psi:             params.Psi,
		Gamma:           params.Gamma,
		Eta:             etaRows,
	}
}
