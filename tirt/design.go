package tirt

// Design holds the structural counts of a forced-choice questionnaire.
// All other quantities of a simulation derive from these four numbers.
type Design struct {
	NPersons        int // respondent count
	NTraits         int // latent trait count
	NBlocksPerTrait int // blocks each trait appears in
	NItemsPerBlock  int // items presented together per block
}

// NBlocks returns the total block count, ntraits*nblocks_per_trait/nitems_per_block.
func (d Design) NBlocks() int {
	return d.NTraits * d.NBlocksPerTrait / d.NItemsPerBlock
}

// NItems returns the total item count across all blocks.
func (d Design) NItems() int {
	return d.NItemsPerBlock * d.NBlocks()
}

// NComparisons returns the pairwise comparison count within one block.
func (d Design) NComparisons() int {
	return d.NItemsPerBlock * (d.NItemsPerBlock - 1) / 2
}

// TotalComparisons returns the comparison count across all blocks.
func (d Design) TotalComparisons() int {
	return d.NBlocks() * d.NComparisons()
}

// NRows returns the long-format dataset row count,
// npersons * nblocks * ncomparisons.
func (d Design) NRows() int {
	return d.NPersons * d.NBlocks() * d.NComparisons()
}

// Validate checks the structural invariants of the design.
func (d Design) Validate() error {
	if d.NPersons < 1 {
		return validationErrorf("npersons", "must be positive, got %d", d.NPersons)
	}
	if d.NTraits < 1 {
		return validationErrorf("ntraits", "must be positive, got %d", d.NTraits)
	}
	if d.NBlocksPerTrait < 1 {
		return validationErrorf("nblocks_per_trait", "must be positive, got %d", d.NBlocksPerTrait)
	}
	if d.NItemsPerBlock < 2 {
		return validationErrorf("nitems_per_block", "must be at least 2, got %d", d.NItemsPerBlock)
	}
	// A block holds one item per distinct trait, so it can never be wider
	// than the trait count.
	if d.NItemsPerBlock > d.NTraits {
		return validationErrorf("nitems_per_block", "must not exceed ntraits (%d), got %d", d.NTraits, d.NItemsPerBlock)
	}
	if (d.NTraits*d.NBlocksPerTrait)%d.NItemsPerBlock != 0 {
		return validationErrorf("nitems_per_block",
			"ntraits*nblocks_per_trait (%d) must be divisible by nitems_per_block (%d)",
			d.NTraits*d.NBlocksPerTrait, d.NItemsPerBlock)
	}
	return nil
}
