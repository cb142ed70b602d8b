// Package index provides the vector index contract used by embedding-based
// matching.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/entigo/metric"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidRadius is returned when a similarity radius is outside [0, 1].
	ErrInvalidRadius = errors.New("radius must be in [0, 1]")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrUnsupportedMetric indicates a metric the implementation cannot serve.
type ErrUnsupportedMetric struct {
	Metric metric.Metric
}

func (e *ErrUnsupportedMetric) Error() string {
	return fmt.Sprintf("unsupported metric: %v", e.Metric)
}

// SearchResult represents one neighbor.
type SearchResult struct {
	// ID is the slot id assigned at insert time.
	ID uint32

	// Similarity is the similarity between the query and the result vector.
	Similarity float32
}

// Index stores vectors under insert-assigned slot ids and answers similarity
// queries. The workload is build-then-query: all inserts complete before the
// first search, and searches may then run concurrently.
//
// Contract, binding for every implementation:
//   - Search and SearchByRadius order results by descending similarity,
//     breaking ties by ascending id.
//   - A result id was always previously returned by Insert; no id appears
//     twice in one result set.
//   - Querying an empty index returns an empty result and no error.
//
// Approximate implementations keep the same interface and ordering and
// document their recall and repeatability characteristics.
type Index interface {
	// Insert adds a vector and returns its slot id. Slot ids are assigned
	// sequentially from 0 in insert order.
	Insert(ctx context.Context, v []float32) (uint32, error)

	// Search returns the k most similar vectors to q.
	Search(ctx context.Context, q []float32, k int) ([]SearchResult, error)

	// SearchByRadius returns every vector with similarity >= radius.
	SearchByRadius(ctx context.Context, q []float32, radius float32) ([]SearchResult, error)

	// Dimensions returns the fixed vector dimensionality.
	Dimensions() int

	// Len returns the number of inserted vectors.
	Len() int
}

// Factory creates a fresh index for one pipeline run. Each run owns its own
// index; runs never share index state.
type Factory func(dimensions int) (Index, error)
