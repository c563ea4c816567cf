package tirt

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// UniquenessScale is the standard deviation scale of a pairwise utility
// difference, sqrt(psi1^2 + psi2^2).
func UniquenessScale(psi1, psi2 float64) float64 {
	return math.Sqrt(psi1*psi1 + psi2*psi2)
}

// ComparisonZ computes the standardized latent mean of one comparison:
// (-gamma + lambda1*eta1 - lambda2*eta2) / UniquenessScale(psi1, psi2).
func ComparisonZ(gamma, lambda1, eta1, lambda2, eta2, psi1, psi2 float64) float64 {
	return (-gamma + lambda1*eta1 - lambda2*eta2) / UniquenessScale(psi1, psi2)
}

// CumulativeProbs returns the K category probabilities of an ordinal
// comparison with standardized mean mu and K-1 standardized thresholds:
// P[0] = Φ(g[0]-mu), P[K-1] = 1 - Φ(g[K-2]-mu), interior categories take the
// difference of adjacent CDFs. Thresholds must be non-decreasing for the
// result to be a valid distribution; that is the caller's obligation.
func CumulativeProbs(mu float64, thresholds []float64) []float64 {
	probs := make([]float64, len(thresholds)+1)
	prev := 0.0
	for k, g := range thresholds {
		cdf := distuv.UnitNormal.CDF(g - mu)
		p := cdf - prev
		if p < 0 {
			// adjacent CDF values can round slightly past each other
			p = 0
		}
		probs[k] = p
		prev = cdf
	}
	probs[len(thresholds)] = 1 - prev
	return probs
}

// ResponseParam computes the family-specific output parameter of one
// comparison row and, for the cumulative family, its category probabilities.
//
// Two-category families use z = ComparisonZ with the row's single gamma:
// bernoulli and beta report the category-1 probability Φ(z), gaussian
// reports z itself. Cumulative excludes gamma from the mean, standardizes
// the threshold row by the uniqueness scale, and reports the mean alongside
// the full probability vector.
func ResponseParam(f Family, gamma []float64, lambda1, eta1, lambda2, eta2, psi1, psi2 float64) (mu float64, probs []float64) {
	if f == FamilyCumulative {
		scale := UniquenessScale(psi1, psi2)
		mu = (lambda1*eta1 - lambda2*eta2) / scale
		std := make([]float64, len(gamma))
		for k, g := range gamma {
			std[k] = g / scale
		}
		return mu, CumulativeProbs(mu, std)
	}

	z := ComparisonZ(gamma[0], lambda1, eta1, lambda2, eta2, psi1, psi2)
	if f == FamilyGaussian {
		return z, nil
	}
	return distuv.UnitNormal.CDF(z), nil
}
