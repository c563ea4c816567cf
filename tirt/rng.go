package tirt

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical datasets.
type SimulationKey uint64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(uint64(seed))
}

// === Subsystem Constants ===

const (
	// SubsystemSimulation is the RNG subsystem for single-dataset generation.
	SubsystemSimulation = "simulation"

	// SubsystemDesign is the RNG subsystem for standalone block planning.
	SubsystemDesign = "design"
)

// SubsystemReplication returns the subsystem name for replication N.
// Each replication of a study draws from its own isolated stream.
func SubsystemReplication(id int) string {
	return fmt.Sprintf("replication_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG streams per subsystem.
//
// Derivation formula: every subsystem gets a PCG source seeded with the pair
// (masterSeed, fnv1a64(subsystemName)), so streams never share state and
// adding a subsystem never perturbs the draws of existing ones.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewPCG(uint64(p.key), fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
