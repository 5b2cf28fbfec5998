package simulation

import (
	"math/rand/v2"
)

// Decider turns a probability into a Bernoulli outcome. An engine consumes
// one decision per exposed receiver per timestep, in graph order.
type Decider interface {
	Decide(p float64) bool
}

// RandDecider draws outcomes from a PCG stream. It is not safe for
// concurrent use; every engine owns its own.
type RandDecider struct {
	rng  *rand.Rand
	seed uint64
}

// NewSeededDecider returns a decider whose draws depend only on seed.
func NewSeededDecider(seed uint64) *RandDecider {
	return &RandDecider{rng: NewRand(seed), seed: seed}
}

// NewDecider seeds from seed when given, otherwise from process entropy.
func NewDecider(seed *uint64) *RandDecider {
	if seed != nil {
		return NewSeededDecider(*seed)
	}
	return NewSeededDecider(rand.Uint64())
}

// Decide reports success with probability p.
func (d *RandDecider) Decide(p float64) bool {
	return d.rng.Float64() < p
}

// Seed returns the seed the stream was created from.
func (d *RandDecider) Seed() uint64 {
	return d.seed
}
