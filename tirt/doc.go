// Package tirt generates synthetic Thurstonian IRT forced-choice response data.
//
// # Reading Guide
//
// Start with these three files to understand the generation pipeline:
//   - config.go: SimulationConfig, defaults, and structural validation
//   - blocks.go: trait-to-block assignment (fixed tiling and balanced random search)
//   - simulate.go: Simulate, the pipeline from config to Dataset
//
// # Architecture
//
// Simulate runs a fixed pipeline: validate the configuration, plan the block
// design, enumerate the pairwise-comparison template once, resolve item
// parameters into flat per-item vectors, draw (or accept) latent trait
// scores, then join every respondent against the template and sample one
// response per row. The planner output and item parameter vectors are
// read-only after setup; each row depends only on its own comparison's
// fields.
//
// All randomness flows through the single *rand.Rand handed to Simulate.
// The package never seeds anything itself; seeding policy belongs to
// callers (rng.go provides PartitionedRNG for deterministic per-subsystem
// streams).
//
// # Key Interfaces
//
// The extension point is a single small interface:
//   - ResponseSampler: draw one observed response given a row's mean
//     parameter and, for ordinal families, its category probabilities
package tirt
