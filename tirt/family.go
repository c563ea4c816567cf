package tirt

// Family selects the response distribution for simulated comparisons.
type Family string

const (
	// FamilyBernoulli draws binary choices (0/1).
	FamilyBernoulli Family = "bernoulli"
	// FamilyCumulative draws ordinal category indices (0..K-1).
	FamilyCumulative Family = "cumulative"
	// FamilyGaussian draws continuous responses around the latent mean.
	FamilyGaussian Family = "gaussian"
	// FamilyBeta draws proportions in (0,1).
	FamilyBeta Family = "beta"
)

var validFamilies = map[Family]bool{
	FamilyBernoulli: true, FamilyCumulative: true, FamilyGaussian: true, FamilyBeta: true,
}

// ParseFamily validates a family name.
func ParseFamily(name string) (Family, error) {
	f := Family(name)
	if !validFamilies[f] {
		return "", validationErrorf("family", "unknown family %q; valid: bernoulli, cumulative, gaussian, beta", name)
	}
	return f, nil
}

// Discrete reports whether responses are category indices rather than
// continuous draws.
func (f Family) Discrete() bool {
	return f == FamilyBernoulli || f == FamilyCumulative
}
