package tirt

import "gonum.org/v1/gonum/stat/combin"

// Comparison locates one unordered item pair within a block. Items are
// numbered 1..nitems, block b holding the contiguous range
// (b-1)*nitems_per_block+1 .. b*nitems_per_block.
type Comparison struct {
	Block  int // 1-based block index
	Index  int // 1-based comparison index within the block
	ItemC  int // 1-based comparison index across all blocks
	Item1  int // 1-based item indices, Item1 < Item2
	Item2  int
	Trait1 int // 0-based trait indices of the two items
	Trait2 int
}

// EnumerateComparisons expands a block plan into the full comparison
// template: blocks in order, pairs lower item index first ((1,2), (1,3),
// (2,3) for three items). The template is built once per design and
// replicated identically across respondents.
func EnumerateComparisons(d Design, traitRows [][]int) []Comparison {
	pairs := combin.Combinations(d.NItemsPerBlock, 2)
	comps := make([]Comparison, 0, len(traitRows)*len(pairs))
	for b, row := range traitRows {
		base := b * d.NItemsPerBlock
		for c, pair := range pairs {
			comps = append(comps, Comparison{
				Block:  b + 1,
				Index:  c + 1,
				ItemC:  b*len(pairs) + c + 1,
				Item1:  base + pair[0] + 1,
				Item2:  base + pair[1] + 1,
				Trait1: row[pair[0]],
				Trait2: row[pair[1]],
			})
		}
	}
	return comps
}

// ItemTraits flattens a block plan into the per-item trait index vector,
// capturing the trait-to-item mapping in item order. Grouped item
// parameters are resolved against this mapping exactly once.
func ItemTraits(traitRows [][]int) []int {
	var traits []int
	for _, row := range traitRows {
		traits = append(traits, row...)
	}
	return traits
}
