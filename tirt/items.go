package tirt

import "math"

// itemParams is the canonical flat-by-item parameterization consumed by the
// simulation core. The flat-or-grouped input duality is resolved away here
// and never carried further.
type itemParams struct {
	Lambda []float64   // loading per item
	Psi    []float64   // uniqueness per item
	Gamma  [][]float64 // threshold row per comparison, in itemC order
	Signs  []float64   // sign of Lambda per item
}

// DerivePsi computes the default uniquenesses psi = 1 - lambda^2.
// Loadings outside [-1, 1] have no valid default and are rejected.
func DerivePsi(lambda []float64) ([]float64, error) {
	psi := make([]float64, len(lambda))
	for i, l := range lambda {
		if math.Abs(l) > 1 {
			return nil, validationErrorf("lambda",
				"entry %d is %v; |lambda| must not exceed 1 when psi is derived as 1-lambda^2", i+1, l)
		}
		psi[i] = 1 - l*l
	}
	return psi, nil
}

// expandShared normalizes a parameter vector to one entry per slot: a single
// shared value expands to all slots, a full-length vector is copied.
func expandShared(field string, vals []float64, n int) ([]float64, error) {
	switch len(vals) {
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	case n:
		out := make([]float64, n)
		copy(out, vals)
		return out, nil
	default:
		return nil, validationErrorf(field, "must have 1 or %d entries, got %d", n, len(vals))
	}
}

// flattenByTrait resolves grouped-by-trait values into item order: the j-th
// entry of row t belongs to the j-th item of trait t, in the trait-to-item
// mapping discovered during block assignment.
func flattenByTrait(field string, rows [][]float64, d Design, itemTraits []int) ([]float64, error) {
	if len(rows) != d.NTraits {
		return nil, validationErrorf(field, "grouped form must have %d rows (one per trait), got %d", d.NTraits, len(rows))
	}
	for t, row := range rows {
		if len(row) != d.NBlocksPerTrait {
			return nil, validationErrorf(field,
				"grouped row %d must have %d entries (one per block of the trait), got %d", t+1, d.NBlocksPerTrait, len(row))
		}
	}
	out := make([]float64, len(itemTraits))
	used := make([]int, d.NTraits)
	for i, t := range itemTraits {
		out[i] = rows[t][used[t]]
		used[t]++
	}
	return out, nil
}

// resolveGamma normalizes baseline offsets to one threshold row per
// comparison. Two-category families take a scalar or one value per
// comparison; cumulative takes a shared row or one row per comparison with
// K-1 >= 2 columns.
func resolveGamma(family Family, gamma []float64, gammaRows [][]float64, total int) ([][]float64, error) {
	if len(gamma) > 0 && len(gammaRows) > 0 {
		return nil, validationErrorf("gamma", "flat and threshold-row forms are mutually exclusive")
	}

	if family == FamilyCumulative {
		if len(gammaRows) == 0 {
			return nil, validationErrorf("gamma",
				"family cumulative requires gamma_rows, a matrix of K-1 ordered thresholds per comparison")
		}
		ncols := len(gammaRows[0])
		if ncols < 2 {
			return nil, validationErrorf("gamma",
				"family cumulative requires at least 2 threshold columns (K > 2), got %d", ncols)
		}
		for i, row := range gammaRows {
			if len(row) != ncols {
				return nil, validationErrorf("gamma", "threshold row %d has %d columns, want %d", i+1, len(row), ncols)
			}
		}
		switch len(gammaRows) {
		case 1:
			shared := append([]float64(nil), gammaRows[0]...)
			out := make([][]float64, total)
			for i := range out {
				out[i] = shared
			}
			return out, nil
		case total:
			out := make([][]float64, total)
			for i := range out {
				out[i] = append([]float64(nil), gammaRows[i]...)
			}
			return out, nil
		default:
			return nil, validationErrorf("gamma", "must have 1 or %d threshold rows, got %d", total, len(gammaRows))
		}
	}

	if len(gammaRows) > 0 {
		return nil, validationErrorf("gamma",
			"family %q takes a single gamma per comparison; threshold rows require family cumulative", family)
	}
	flat, err := expandShared("gamma", gamma, total)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, total)
	for i, g := range flat {
		out[i] = []float64{g}
	}
	return out, nil
}

// resolveItemParams turns the user-facing parameter fields into canonical
// flat vectors. itemTraits is the mapping captured once from the planned
// block layout. Shapes are pre-checked by SimulationConfig.Validate; the
// error paths here repeat those checks for direct callers.
func resolveItemParams(cfg *SimulationConfig, itemTraits []int) (*itemParams, error) {
	d := cfg.Design
	nitems := d.NItems()

	var lambda []float64
	var err error
	switch {
	case len(cfg.Lambda) > 0 && len(cfg.LambdaByTrait) > 0:
		return nil, validationErrorf("lambda", "flat and grouped forms are mutually exclusive")
	case len(cfg.LambdaByTrait) > 0:
		lambda, err = flattenByTrait("lambda", cfg.LambdaByTrait, d, itemTraits)
	case len(cfg.Lambda) > 0:
		lambda, err = expandShared("lambda", cfg.Lambda, nitems)
	default:
		return nil, validationErrorf("lambda", "required; give a shared value, one value per item, or one row per trait")
	}
	if err != nil {
		return nil, err
	}

	var psi []float64
	switch {
	case len(cfg.Psi) > 0 && len(cfg.PsiByTrait) > 0:
		return nil, validationErrorf("psi", "flat and grouped forms are mutually exclusive")
	case len(cfg.PsiByTrait) > 0:
		psi, err = flattenByTrait("psi", cfg.PsiByTrait, d, itemTraits)
	case len(cfg.Psi) > 0:
		psi, err = expandShared("psi", cfg.Psi, nitems)
	default:
		psi, err = DerivePsi(lambda)
	}
	if err != nil {
		return nil, err
	}

	gamma, err := resolveGamma(cfg.Family, cfg.Gamma, cfg.GammaRows, d.TotalComparisons())
	if err != nil {
		return nil, err
	}

	signs := make([]float64, nitems)
	for i, l := range lambda {
		signs[i] = sign(l)
	}

	return &itemParams{Lambda: lambda, Psi: psi, Gamma: gamma, Signs: signs}, nil
}

// sign returns -1, 0, or +1.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
