package engine

import (
	"math/rand"
	"sync"
)

// Source picks a weighted index. The registry draws through it so tests
// can substitute crafted rolls.
type Source interface {
	WeightedSelect(weights []float64) (int, float64)
}

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every call. It is safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos++
	return r.src.Float64()
}

// WeightedSelect picks an index with probability proportional to its
// weight. It returns the index and the roll in [0, sum(weights)).
func (r *RNG) WeightedSelect(weights []float64) (int, float64) {
	return weightedSelect(r.Float64, weights)
}

func weightedSelect(next func() float64, weights []float64) (int, float64) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := next() * total
	return pickIndex(weights, roll), roll
}

// pickIndex walks weights in order and returns the first index whose
// cumulative weight reaches roll. A roll landing exactly on a boundary
// belongs to the earlier entry. If rounding leaves the walk short of roll,
// the last index is returned.
func pickIndex(weights []float64, roll float64) int {
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if roll <= cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of RNG calls made since creation.
func (r *RNG) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}
