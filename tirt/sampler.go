package tirt

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ResponseSampler draws one observed response per comparison row.
type ResponseSampler interface {
	// Sample returns the response for a row with output parameter mu and,
	// for ordinal families, category probabilities probs. Draws are
	// independent across rows given their parameters.
	Sample(rng *rand.Rand, mu float64, probs []float64) float64
}

// BernoulliSampler draws binary choices; mu is the category-1 probability.
type BernoulliSampler struct{}

func (BernoulliSampler) Sample(rng *rand.Rand, mu float64, _ []float64) float64 {
	return distuv.Bernoulli{P: mu, Src: rng}.Rand()
}

// CumulativeSampler draws one ordered category index 0..K-1 from the row's
// probability vector.
type CumulativeSampler struct{}

func (CumulativeSampler) Sample(rng *rand.Rand, _ float64, probs []float64) float64 {
	return distuv.NewCategorical(probs, rng).Rand()
}

// GaussianSampler draws continuous responses from Normal(mu, 1).
type GaussianSampler struct{}

func (GaussianSampler) Sample(rng *rand.Rand, mu float64, _ []float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: 1, Src: rng}.Rand()
}

// BetaSampler draws proportions from Beta(mu*disp, (1-mu)*disp), where mu is
// the comparison's category-1 probability. Draws are clamped into
// [0.001, 0.999] to avoid boundary degeneracy in downstream likelihood use.
type BetaSampler struct {
	Dispersion float64
}

func (s BetaSampler) Sample(rng *rand.Rand, mu float64, _ []float64) float64 {
	// Φ saturates to exactly 0 or 1 for extreme means; shape parameters
	// must stay positive.
	p := math.Min(1-1e-12, math.Max(1e-12, mu))
	v := distuv.Beta{Alpha: p * s.Dispersion, Beta: (1 - p) * s.Dispersion, Src: rng}.Rand()
	return math.Min(0.999, math.Max(0.001, v))
}

// NewResponseSampler creates the sampler for a response family.
// betaDispersion is used by the beta family only.
func NewResponseSampler(f Family, betaDispersion float64) (ResponseSampler, error) {
	switch f {
	case FamilyBernoulli:
		return BernoulliSampler{}, nil
	case FamilyCumulative:
		return CumulativeSampler{}, nil
	case FamilyGaussian:
		return GaussianSampler{}, nil
	case FamilyBeta:
		if betaDispersion <= 0 || math.IsNaN(betaDispersion) || math.IsInf(betaDispersion, 0) {
			return nil, validationErrorf("beta_dispersion", "must be a finite positive number, got %v", betaDispersion)
		}
		return BetaSampler{Dispersion: betaDispersion}, nil
	default:
		return nil, validationErrorf("family", "unknown family %q; valid: bernoulli, cumulative, gaussian, beta", f)
	}
}
