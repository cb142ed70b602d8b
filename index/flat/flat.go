// Package flat provides the brute-force vector index. It compares the query
// against every stored vector: correct and exact, O(n) per query, O(n²) over
// a full matching run. It is the development and testing baseline, not a
// production-scale solution.
package flat

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/entigo/index"
	"github.com/hupe1980/entigo/metric"
	"github.com/hupe1980/entigo/queue"
)

// Compile time check to ensure Flat satisfies the Index interface.
var _ index.Index = (*Flat)(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// Metric selects the similarity measure. Cosine and dot product are
	// supported.
	Metric metric.Metric
}

// DefaultOptions contains the default configuration options for the flat
// index.
var DefaultOptions = Options{
	Metric: metric.MetricCosine,
}

// state holds the immutable vector set for lock-free reads. Inserts replace
// the state pointer under writeMu; searches load it without locking.
type state struct {
	vectors [][]float32
}

// Flat is the exhaustive-comparison index.
type Flat struct {
	dimensions int
	similarity metric.SimilarityFunc

	state   atomic.Pointer[state]
	writeMu sync.Mutex

	opts Options
}

// New creates a new flat index for vectors of the given dimensionality.
func New(dimensions int, optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if dimensions <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: dimensions}
	}

	similarity, err := metric.Similarity(opts.Metric)
	if err != nil {
		return nil, &index.ErrUnsupportedMetric{Metric: opts.Metric}
	}

	f := &Flat{
		dimensions: dimensions,
		similarity: similarity,
		opts:       opts,
	}

	f.state.Store(&state{})

	return f, nil
}

// Factory returns an index.Factory producing flat indexes with the given
// options.
func Factory(optFns ...func(o *Options)) index.Factory {
	return func(dimensions int) (index.Index, error) {
		return New(dimensions, optFns...)
	}
}

// Insert implements index.Index.
func (f *Flat) Insert(_ context.Context, v []float32) (uint32, error) {
	if len(v) != f.dimensions {
		return 0, &index.ErrDimensionMismatch{Expected: f.dimensions, Actual: len(v)}
	}

	vectorCopy := make([]float32, len(v))
	copy(vectorCopy, v)

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	oldState := f.state.Load()

	newVectors := make([][]float32, len(oldState.vectors), len(oldState.vectors)+1)
	copy(newVectors, oldState.vectors)
	newVectors = append(newVectors, vectorCopy)

	f.state.Store(&state{vectors: newVectors})

	return uint32(len(newVectors) - 1), nil
}

// Search implements index.Index.
func (f *Flat) Search(ctx context.Context, q []float32, k int) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	if len(q) != f.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimensions, Actual: len(q)}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := f.state.Load().vectors
	if len(vectors) == 0 {
		return []index.SearchResult{}, nil
	}

	// Bounded min-heap: the worst of the current best k sits on top and is
	// evicted when a better candidate appears.
	top := &queue.Candidates{}
	heap.Init(top)

	for id, v := range vectors {
		sim, err := f.similarity(q, v)
		if err != nil {
			return nil, err
		}

		if top.Len() < k {
			heap.Push(top, &queue.Item{ID: uint32(id), Score: sim})
			continue
		}

		if worst := top.Top(); sim > worst.Score {
			heap.Pop(top)
			heap.Push(top, &queue.Item{ID: uint32(id), Score: sim})
		}
	}

	return drain(top), nil
}

// SearchByRadius implements index.Index.
func (f *Flat) SearchByRadius(ctx context.Context, q []float32, radius float32) ([]index.SearchResult, error) {
	if radius < 0 || radius > 1 {
		return nil, index.ErrInvalidRadius
	}

	if len(q) != f.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimensions, Actual: len(q)}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := f.state.Load().vectors

	results := make([]index.SearchResult, 0)

	for id, v := range vectors {
		sim, err := f.similarity(q, v)
		if err != nil {
			return nil, err
		}

		if sim >= radius {
			results = append(results, index.SearchResult{ID: uint32(id), Similarity: sim})
		}
	}

	sortResults(results)

	return results, nil
}

// Dimensions implements index.Index.
func (f *Flat) Dimensions() int {
	return f.dimensions
}

// Len implements index.Index.
func (f *Flat) Len() int {
	return len(f.state.Load().vectors)
}

// drain empties the bounded heap into a slice ordered by descending
// similarity with ties broken by ascending id.
func drain(top *queue.Candidates) []index.SearchResult {
	results := make([]index.SearchResult, top.Len())

	for i := top.Len() - 1; i >= 0; i-- {
		item, _ := heap.Pop(top).(*queue.Item)
		results[i] = index.SearchResult{ID: item.ID, Similarity: item.Score}
	}

	sortResults(results)

	return results
}

func sortResults(results []index.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
}
