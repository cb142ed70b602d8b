// Package testutil provides testing utilities for the library.
//
// This package is intended for use in tests and benchmarks only. It provides
// seeded random vector generation, exact nearest-neighbour ground truth and
// recall computation for index tests, and record builders for pipeline tests.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/entigo/metric"
	"github.com/hupe1980/entigo/record"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates random vectors with values in range [0, 1).
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range vectors {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// Neighbour is one exact search result used as ground truth.
type Neighbour struct {
	ID         uint32
	Similarity float32
}

// ExactTopK computes the exact k most cosine-similar dataset vectors to the
// query, ordered by descending similarity with ties broken by ascending id.
func ExactTopK(query []float32, dataset [][]float32, k int) []Neighbour {
	neighbours := make([]Neighbour, 0, len(dataset))

	for id, v := range dataset {
		sim, err := metric.CosineSimilarity(query, v)
		if err != nil {
			panic(fmt.Sprintf("testutil: %v", err))
		}

		neighbours = append(neighbours, Neighbour{ID: uint32(id), Similarity: sim})
	}

	sort.Slice(neighbours, func(i, j int) bool {
		if neighbours[i].Similarity != neighbours[j].Similarity {
			return neighbours[i].Similarity > neighbours[j].Similarity
		}
		return neighbours[i].ID < neighbours[j].ID
	})

	if len(neighbours) > k {
		neighbours = neighbours[:k]
	}

	return neighbours
}

// Recall returns the fraction of exact neighbour ids the approximate result
// set recovered.
func Recall(approx []uint32, exact []Neighbour) float64 {
	if len(exact) == 0 {
		return 1
	}

	found := make(map[uint32]bool, len(approx))
	for _, id := range approx {
		found[id] = true
	}

	hits := 0
	for _, n := range exact {
		if found[n.ID] {
			hits++
		}
	}

	return float64(hits) / float64(len(exact))
}

// NameRecords builds a collection of records with ids r0, r1, ... and a
// single "full_name" column, in the given order.
func NameRecords(names ...string) *record.Collection {
	records := make([]record.Record, len(names))
	for i, name := range names {
		records[i] = record.New(
			record.ID(fmt.Sprintf("r%d", i)),
			map[string]string{"full_name": name},
		)
	}

	c, err := record.NewCollection(records...)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}

	return c
}
