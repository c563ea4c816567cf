package tirt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SimulationConfig is the full argument set of Simulate.
//
// Lambda/Psi accept either the flat form (one value per item, or a single
// shared value) or the grouped form (one row per trait, entries in block
// order); set at most one of each pair. Gamma carries one baseline offset
// per comparison for two-category families; GammaRows carries the K-1
// column threshold matrix for the cumulative family. Phi is used only when
// Eta is absent.
type SimulationConfig struct {
	Design Design

	Family    Family       // response family; default bernoulli
	BlockMode BlockMode    // block construction mode; default random
	Budget    SearchBudget // random search attempt limits; zero value takes defaults

	Lambda        []float64   // item loadings, flat form
	LambdaByTrait [][]float64 // item loadings, grouped form
	Psi           []float64   // uniquenesses, flat form; derived as 1-lambda^2 when absent
	PsiByTrait    [][]float64 // uniquenesses, grouped form
	Gamma         []float64   // baseline offsets, shared or one per comparison
	GammaRows     [][]float64 // ordinal threshold rows, cumulative family only

	Phi *mat.SymDense // trait correlation matrix, used only when Eta is nil
	Eta *mat.Dense    // externally supplied latent scores, npersons x ntraits

	BetaDispersion float64  // beta family dispersion; default 1
	TraitLabels    []string // trait names; default trait1..traitN
}

// ApplyDefaults fills unset optional fields in place. Simulate applies it
// before validation; callers validating a config on its own should do the
// same.
func (c *SimulationConfig) ApplyDefaults() {
	if c.Family == "" {
		c.Family = FamilyBernoulli
	}
	if c.BlockMode == "" {
		c.BlockMode = BlockModeRandom
	}
	if c.Budget == (SearchBudget{}) {
		c.Budget = DefaultSearchBudget()
	}
	if c.BetaDispersion == 0 {
		c.BetaDispersion = 1
	}
	if len(c.TraitLabels) == 0 && c.Design.NTraits > 0 {
		c.TraitLabels = DefaultTraitLabels(c.Design.NTraits)
	}
	if len(c.Gamma) == 0 && len(c.GammaRows) == 0 && c.Family != FamilyCumulative {
		c.Gamma = []float64{0}
	}
}

// DefaultTraitLabels returns trait1..traitN.
func DefaultTraitLabels(ntraits int) []string {
	labels := make([]string, ntraits)
	for i := range labels {
		labels[i] = fmt.Sprintf("trait%d", i+1)
	}
	return labels
}

// NCat returns the response category count: thresholds+1 for cumulative,
// 2 otherwise.
func (c *SimulationConfig) NCat() int {
	if c.Family == FamilyCumulative && len(c.GammaRows) > 0 {
		return len(c.GammaRows[0]) + 1
	}
	return 2
}

// Validate checks every structural invariant of the configuration. All
// input failures surface as *ValidationError before any random draw.
func (c *SimulationConfig) Validate() error {
	if err := c.Design.Validate(); err != nil {
		return err
	}
	if !validFamilies[c.Family] {
		return validationErrorf("family", "unknown family %q; valid: bernoulli, cumulative, gaussian, beta", c.Family)
	}
	if !validBlockModes[c.BlockMode] {
		return validationErrorf("blocks", "unknown block mode %q; valid: random, fixed", c.BlockMode)
	}
	if c.Budget.MaxTrysInner < 1 {
		return validationErrorf("maxtrys_inner", "must be positive, got %d", c.Budget.MaxTrysInner)
	}
	if c.Budget.MaxTrysOuter < 1 {
		return validationErrorf("maxtrys_outer", "must be positive, got %d", c.Budget.MaxTrysOuter)
	}
	if c.Family == FamilyBeta {
		if c.BetaDispersion <= 0 || math.IsNaN(c.BetaDispersion) || math.IsInf(c.BetaDispersion, 0) {
			return validationErrorf("beta_dispersion", "must be a finite positive number, got %v", c.BetaDispersion)
		}
	}
	if err := c.validateTraitLabels(); err != nil {
		return err
	}
	if err := c.validateLoadings(); err != nil {
		return err
	}
	if err := c.validateGammaShape(); err != nil {
		return err
	}
	return c.validateScores()
}

func (c *SimulationConfig) validateTraitLabels() error {
	if len(c.TraitLabels) != c.Design.NTraits {
		return validationErrorf("traits", "must have %d labels, got %d", c.Design.NTraits, len(c.TraitLabels))
	}
	seen := make(map[string]bool, len(c.TraitLabels))
	for i, label := range c.TraitLabels {
		if label == "" {
			return validationErrorf("traits", "label %d is empty", i+1)
		}
		if seen[label] {
			return validationErrorf("traits", "duplicate label %q", label)
		}
		seen[label] = true
	}
	return nil
}

func (c *SimulationConfig) validateLoadings() error {
	nitems := c.Design.NItems()

	switch {
	case len(c.Lambda) > 0 && len(c.LambdaByTrait) > 0:
		return validationErrorf("lambda", "flat and grouped forms are mutually exclusive")
	case len(c.Lambda) > 0:
		if len(c.Lambda) != 1 && len(c.Lambda) != nitems {
			return validationErrorf("lambda", "must have 1 or %d entries, got %d", nitems, len(c.Lambda))
		}
		if err := validateFinite("lambda", c.Lambda); err != nil {
			return err
		}
	case len(c.LambdaByTrait) > 0:
		if err := validateGroupedShape("lambda", c.LambdaByTrait, c.Design); err != nil {
			return err
		}
	default:
		return validationErrorf("lambda", "required; give a shared value, one value per item, or one row per trait")
	}

	switch {
	case len(c.Psi) > 0 && len(c.PsiByTrait) > 0:
		return validationErrorf("psi", "flat and grouped forms are mutually exclusive")
	case len(c.Psi) > 0:
		if len(c.Psi) != 1 && len(c.Psi) != nitems {
			return validationErrorf("psi", "must have 1 or %d entries, got %d", nitems, len(c.Psi))
		}
		if err := validateFinite("psi", c.Psi); err != nil {
			return err
		}
	case len(c.PsiByTrait) > 0:
		if err := validateGroupedShape("psi", c.PsiByTrait, c.Design); err != nil {
			return err
		}
	default:
		// psi will be derived, so every loading must admit 1-lambda^2;
		// only one lambda form is populated at this point
		var loadings []float64
		loadings = append(loadings, c.Lambda...)
		for _, row := range c.LambdaByTrait {
			loadings = append(loadings, row...)
		}
		if _, err := DerivePsi(loadings); err != nil {
			return err
		}
	}
	return nil
}

func (c *SimulationConfig) validateGammaShape() error {
	if err := validateFinite("gamma", c.Gamma); err != nil {
		return err
	}
	for _, row := range c.GammaRows {
		if err := validateFinite("gamma", row); err != nil {
			return err
		}
	}
	_, err := resolveGamma(c.Family, c.Gamma, c.GammaRows, c.Design.TotalComparisons())
	return err
}

func (c *SimulationConfig) validateScores() error {
	if c.Eta != nil {
		r, cols := c.Eta.Dims()
		if r != c.Design.NPersons || cols != c.Design.NTraits {
			return validationErrorf("eta", "must be %d x %d (npersons x ntraits), got %d x %d",
				c.Design.NPersons, c.Design.NTraits, r, cols)
		}
		for i := 0; i < r; i++ {
			for j := 0; j < cols; j++ {
				if v := c.Eta.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
					return validationErrorf("eta", "entry (%d,%d) must be a finite number, got %v", i+1, j+1, v)
				}
			}
		}
		return nil
	}
	if c.Phi == nil {
		return validationErrorf("phi", "required when eta is not supplied")
	}
	if n := c.Phi.SymmetricDim(); n != c.Design.NTraits {
		return validationErrorf("phi", "must be %d x %d (ntraits x ntraits), got %d x %d",
			c.Design.NTraits, c.Design.NTraits, n, n)
	}
	var chol mat.Cholesky
	if !chol.Factorize(c.Phi) {
		return validationErrorf("phi", "correlation matrix is not positive definite")
	}
	return nil
}

// validateGroupedShape checks a grouped-by-trait parameter: one row per
// trait, one entry per block of the trait.
func validateGroupedShape(field string, rows [][]float64, d Design) error {
	if len(rows) != d.NTraits {
		return validationErrorf(field, "grouped form must have %d rows (one per trait), got %d", d.NTraits, len(rows))
	}
	for t, row := range rows {
		if len(row) != d.NBlocksPerTrait {
			return validationErrorf(field,
				"grouped row %d must have %d entries (one per block of the trait), got %d", t+1, d.NBlocksPerTrait, len(row))
		}
		if err := validateFinite(field, row); err != nil {
			return err
		}
	}
	return nil
}

func validateFinite(field string, vals []float64) error {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validationErrorf(field, "entry %d must be a finite number, got %v", i+1, v)
		}
	}
	return nil
}
