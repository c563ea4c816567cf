package tirt

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/combin"
)

// BlockMode selects how traits are assigned to blocks.
type BlockMode string

const (
	// BlockModeRandom searches for a balanced random assignment.
	BlockModeRandom BlockMode = "random"
	// BlockModeFixed tiles traits cyclically; deterministic, consumes no
	// randomness, but biases which traits co-occur.
	BlockModeFixed BlockMode = "fixed"
)

var validBlockModes = map[BlockMode]bool{BlockModeRandom: true, BlockModeFixed: true}

// ParseBlockMode validates a block mode name.
func ParseBlockMode(name string) (BlockMode, error) {
	m := BlockMode(name)
	if !validBlockModes[m] {
		return "", validationErrorf("blocks", "unknown block mode %q; valid: random, fixed", name)
	}
	return m, nil
}

// SearchBudget bounds the random block search. The budget is threaded
// through the planner explicitly; there is no global retry state.
type SearchBudget struct {
	MaxTrysInner int // candidate draws per block before restarting
	MaxTrysOuter int // full restarts before giving up
}

// DefaultSearchBudget returns the stock attempt limits.
func DefaultSearchBudget() SearchBudget {
	return SearchBudget{MaxTrysInner: 1000, MaxTrysOuter: 10}
}

// PlanBlocks assigns traits to blocks. Each row of the result lists the
// 0-based trait indices of one block's items, in item-position order.
// Every row holds distinct traits and, on success, every trait appears in
// exactly nblocks_per_trait rows.
//
// Fixed mode ignores rng entirely, so the plan is identical across seeds.
func PlanBlocks(d Design, mode BlockMode, budget SearchBudget, rng *rand.Rand) ([][]int, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	switch mode {
	case BlockModeFixed:
		return planFixedBlocks(d)
	case BlockModeRandom:
		return planRandomBlocks(d, budget, rng)
	default:
		return nil, validationErrorf("blocks", "unknown block mode %q; valid: random, fixed", mode)
	}
}

// planFixedBlocks tiles trait indices cyclically in row-major order:
// 0,1,...,T-1,0,1,... wrapped into nblocks rows of nitems_per_block.
func planFixedBlocks(d Design) ([][]int, error) {
	rows := make([][]int, d.NBlocks())
	next := 0
	for b := range rows {
		row := make([]int, d.NItemsPerBlock)
		for j := range row {
			row[j] = next % d.NTraits
			next++
		}
		// Cyclic tiling keeps rows distinct only while nitems_per_block
		// stays within ntraits; verify rather than trust the shape.
		if hasRepeatedTrait(row) {
			return nil, validationErrorf("blocks",
				"fixed tiling repeats a trait within block %d; reduce nitems_per_block or use random mode", b+1)
		}
		rows[b] = row
	}
	return rows, nil
}

// planRandomBlocks selects nblocks trait combinations from the full
// candidate pool without replacement, keeping per-trait usage counts within
// one of each other and at most nblocks_per_trait.
//
// Rejected candidates stay in the pool and may be resampled; accepted ones
// leave it. A block that exhausts its inner budget restarts the whole
// selection from scratch.
func planRandomBlocks(d Design, budget SearchBudget, rng *rand.Rand) ([][]int, error) {
	if budget.MaxTrysInner < 1 {
		return nil, validationErrorf("maxtrys_inner", "must be positive, got %d", budget.MaxTrysInner)
	}
	if budget.MaxTrysOuter < 1 {
		return nil, validationErrorf("maxtrys_outer", "must be positive, got %d", budget.MaxTrysOuter)
	}

	nblocks := d.NBlocks()
	pool := combin.Combinations(d.NTraits, d.NItemsPerBlock)

	for outer := 0; outer < budget.MaxTrysOuter; outer++ {
		if outer > 0 {
			logrus.Warnf("block search restarting (%d/%d)", outer, budget.MaxTrysOuter)
		}

		remaining := make([][]int, len(pool))
		copy(remaining, pool)
		usage := make([]int, d.NTraits)
		rows := make([][]int, 0, nblocks)

		complete := true
		for b := 0; b < nblocks; b++ {
			accepted := false
			for try := 0; try < budget.MaxTrysInner && len(remaining) > 0; try++ {
				i := rng.IntN(len(remaining))
				cand := remaining[i]
				if !balancedAfter(usage, cand, d.NBlocksPerTrait) {
					continue
				}
				for _, t := range cand {
					usage[t]++
				}
				rows = append(rows, cand)
				remaining[i] = remaining[len(remaining)-1]
				remaining = remaining[:len(remaining)-1]
				accepted = true
				logrus.Debugf("block %d/%d assigned after %d tries", b+1, nblocks, try+1)
				break
			}
			if !accepted {
				complete = false
				break
			}
		}
		if complete {
			return rows, nil
		}
	}
	return nil, &DesignConstructionError{Budget: budget}
}

// balancedAfter reports whether counting one use of each trait in cand keeps
// all usage counts within one of the minimum and at most limit.
func balancedAfter(usage []int, cand []int, limit int) bool {
	next := make([]int, len(usage))
	copy(next, usage)
	for _, t := range cand {
		next[t]++
	}
	lo, hi := next[0], next[0]
	for _, n := range next[1:] {
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return hi <= lo+1 && hi <= limit
}

// hasRepeatedTrait reports whether a block row contains a trait twice.
func hasRepeatedTrait(row []int) bool {
	seen := make(map[int]bool, len(row))
	for _, t := range row {
		if seen[t] {
			return true
		}
		seen[t] = true
	}
	return false
}
