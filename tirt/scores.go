package tirt

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// SampleLatentScores draws one latent trait vector per respondent from a
// zero-mean multivariate normal with covariance phi. The result is an
// npersons x ntraits matrix, one row per respondent.
func SampleLatentScores(npersons int, phi mat.Symmetric, rng *rand.Rand) (*mat.Dense, error) {
	ntraits := phi.SymmetricDim()
	dist, ok := distmv.NewNormal(make([]float64, ntraits), phi, rng)
	if !ok {
		return nil, validationErrorf("phi", "correlation matrix is not positive definite")
	}
	scores := mat.NewDense(npersons, ntraits, nil)
	for i := 0; i < npersons; i++ {
		dist.Rand(scores.RawRowView(i))
	}
	return scores, nil
}

// IdentityPhi returns the identity trait correlation matrix (uncorrelated
// traits with unit variance).
func IdentityPhi(ntraits int) *mat.SymDense {
	phi := mat.NewSymDense(ntraits, nil)
	for i := 0; i < ntraits; i++ {
		phi.SetSym(i, i, 1)
	}
	return phi
}

// NewPhi builds a trait correlation matrix from row data, rejecting
// non-square or asymmetric input.
func NewPhi(rows [][]float64) (*mat.SymDense, error) {
	n := len(rows)
	if n == 0 {
		return nil, validationErrorf("phi", "must have at least one row")
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, validationErrorf("phi", "row %d has %d entries, want %d (square matrix)", i+1, len(row), n)
		}
	}
	phi := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if rows[i][j] != rows[j][i] {
				return nil, validationErrorf("phi", "not symmetric at (%d,%d): %v vs %v", i+1, j+1, rows[i][j], rows[j][i])
			}
			if math.IsNaN(rows[i][j]) || math.IsInf(rows[i][j], 0) {
				return nil, validationErrorf("phi", "entry (%d,%d) must be a finite number, got %v", i+1, j+1, rows[i][j])
			}
			phi.SetSym(i, j, rows[i][j])
		}
	}
	return phi, nil
}

// NewEta builds a latent score matrix from row data, one respondent per row.
func NewEta(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, validationErrorf("eta", "must have at least one row")
	}
	ncols := len(rows[0])
	if ncols == 0 {
		return nil, validationErrorf("eta", "rows must not be empty")
	}
	eta := mat.NewDense(len(rows), ncols, nil)
	for i, row := range rows {
		if len(row) != ncols {
			return nil, validationErrorf("eta", "row %d has %d entries, want %d", i+1, len(row), ncols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, validationErrorf("eta", "entry (%d,%d) must be a finite number, got %v", i+1, j+1, v)
			}
			eta.Set(i, j, v)
		}
	}
	return eta, nil
}
