// Package hnsw provides an approximate vector index backed by a Hierarchical
// Navigable Small World graph.
//
// Search cost is logarithmic in the number of vectors at the price of a small
// recall loss against the exhaustive baseline. The graph layout depends on
// the layer RNG and on insert order: for a fixed seed and a fixed insert
// order, repeated runs produce identical results. That is the documented
// repeatability guarantee of this implementation; it is an approximation
// caveat, not a contract violation.
package hnsw

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/entigo/index"
	"github.com/hupe1980/entigo/metric"
	"github.com/hupe1980/entigo/queue"
)

// Compile time check to ensure HNSW satisfies the Index interface.
var _ index.Index = (*HNSW)(nil)

// Options represents the options for configuring HNSW.
type Options struct {
	// M specifies the number of established connections for every new element
	// during construction. The range 12-48 works for most use cases; higher M
	// suits high-dimensional data or high recall targets.
	M int

	// EF specifies the size of the dynamic candidate list during construction
	// and search. Larger EF improves recall at the cost of search time.
	EF int

	// Heuristic selects the diversity-aware neighbour selection algorithm
	// instead of plain nearest-M. It improves graph connectivity on clustered
	// data.
	Heuristic bool

	// Metric selects the similarity measure. Only cosine is supported; the
	// graph traverses in cosine-distance space and reports similarity.
	Metric metric.Metric

	// Seed feeds the layer-assignment RNG. Fixed seed plus fixed insert order
	// yields an identical graph.
	Seed int64
}

// DefaultOptions contains the default configuration options for HNSW.
var DefaultOptions = Options{
	M:         8,
	EF:        200,
	Heuristic: true,
	Metric:    metric.MetricCosine,
	Seed:      1,
}

// node is one graph vertex: a stored vector plus its per-layer adjacency.
type node struct {
	id          uint32
	vector      []float32
	layer       int
	connections [][]uint32
}

// HNSW is the Hierarchical Navigable Small World graph index.
//
// Inserts are serialized; searches are lock-free and safe to run
// concurrently once the build phase has completed. Do not interleave inserts
// with searches.
type HNSW struct {
	dimensions int
	mmax       int     // max connections per element per layer
	mmax0      int     // max connections on layer 0
	ml         float64 // normalization factor for layer generation
	ep         uint32  // current entry point
	maxLayer   int     // highest occupied layer

	nodes []*node

	distance metric.DistanceFunc
	rng      *rand.Rand

	opts Options

	mu sync.Mutex
}

// New creates a new HNSW index for vectors of the given dimensionality.
func New(dimensions int, optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if dimensions <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: dimensions}
	}

	if opts.Metric != metric.MetricCosine {
		return nil, &index.ErrUnsupportedMetric{Metric: opts.Metric}
	}

	if opts.M < 2 {
		// M == 1 would make the layer normalization 1/log(M) divide by zero.
		opts.M = 2
	}

	distance, err := metric.Distance(opts.Metric)
	if err != nil {
		return nil, &index.ErrUnsupportedMetric{Metric: opts.Metric}
	}

	return &HNSW{
		dimensions: dimensions,
		mmax:       opts.M,
		mmax0:      2 * opts.M,
		ml:         1 / math.Log(float64(opts.M)),
		distance:   distance,
		rng:        rand.New(rand.NewSource(opts.Seed)), // nolint gosec
		opts:       opts,
	}, nil
}

// Factory returns an index.Factory producing HNSW indexes with the given
// options.
func Factory(optFns ...func(o *Options)) index.Factory {
	return func(dimensions int) (index.Index, error) {
		return New(dimensions, optFns...)
	}
}

// Insert implements index.Index.
func (h *HNSW) Insert(ctx context.Context, v []float32) (uint32, error) {
	if len(v) != h.dimensions {
		return 0, &index.ErrDimensionMismatch{Expected: h.dimensions, Actual: len(v)}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	vectorCopy := make([]float32, len(v))
	copy(vectorCopy, v)

	h.mu.Lock()
	defer h.mu.Unlock()

	id := uint32(len(h.nodes))

	n := &node{
		id:     id,
		vector: vectorCopy,
		layer:  h.randomLayer(),
	}
	n.connections = make([][]uint32, n.layer+1)

	// First node becomes the entry point outright.
	if len(h.nodes) == 0 {
		h.nodes = append(h.nodes, n)
		h.ep = id
		h.maxLayer = n.layer

		return id, nil
	}

	// Greedy descent through the layers above the new node's top layer.
	curr, currDist, err := h.greedyDescend(vectorCopy, n.layer)
	if err != nil {
		return 0, err
	}

	// On each layer at or below the node's top layer, collect candidates and
	// keep the best M as the node's connections.
	for level := min(n.layer, h.maxLayer); level >= 0; level-- {
		results, err := h.searchLayer(vectorCopy, curr, currDist, h.opts.EF, level)
		if err != nil {
			return 0, err
		}

		neighbours, err := h.selectNeighbours(results, h.opts.M)
		if err != nil {
			return 0, err
		}

		n.connections[level] = make([]uint32, len(neighbours))
		for i, item := range neighbours {
			n.connections[level][i] = item.ID
		}

		// The closest neighbour seeds the next layer down.
		if len(neighbours) > 0 {
			curr, currDist = neighbours[0].ID, neighbours[0].Score
		}
	}

	h.nodes = append(h.nodes, n)

	// Link back from the neighbours, pruning their adjacency where it
	// overflows.
	for level := min(n.layer, h.maxLayer); level >= 0; level-- {
		for _, neighbour := range n.connections[level] {
			if err := h.link(neighbour, id, level); err != nil {
				return 0, err
			}
		}
	}

	if n.layer > h.maxLayer {
		h.ep = id
		h.maxLayer = n.layer
	}

	return id, nil
}

// Search implements index.Index.
func (h *HNSW) Search(ctx context.Context, q []float32, k int) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	if len(q) != h.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: h.dimensions, Actual: len(q)}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(h.nodes) == 0 {
		return []index.SearchResult{}, nil
	}

	ef := h.opts.EF
	if k > ef {
		ef = k
	}

	results, err := h.searchBottom(q, ef)
	if err != nil {
		return nil, err
	}

	for results.Len() > k {
		heap.Pop(results)
	}

	return toSearchResults(results), nil
}

// SearchByRadius implements index.Index.
//
// The traversal frontier is bounded by EF, so vectors beyond that frontier
// can be missed even when their similarity clears the radius. Radius queries
// on this index inherit the approximate recall of the graph.
func (h *HNSW) SearchByRadius(ctx context.Context, q []float32, radius float32) ([]index.SearchResult, error) {
	if radius < 0 || radius > 1 {
		return nil, index.ErrInvalidRadius
	}

	if len(q) != h.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: h.dimensions, Actual: len(q)}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(h.nodes) == 0 {
		return []index.SearchResult{}, nil
	}

	results, err := h.searchBottom(q, h.opts.EF)
	if err != nil {
		return nil, err
	}

	all := toSearchResults(results)

	filtered := all[:0]
	for _, r := range all {
		if r.Similarity >= radius {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

// Dimensions implements index.Index.
func (h *HNSW) Dimensions() int {
	return h.dimensions
}

// Len implements index.Index.
func (h *HNSW) Len() int {
	return len(h.nodes)
}

// randomLayer draws the layer for a new node from the standard exponential
// level distribution.
func (h *HNSW) randomLayer() int {
	u := h.rng.Float64()
	for u == 0 {
		u = h.rng.Float64()
	}

	return int(math.Floor(-math.Log(u) * h.ml))
}

// greedyDescend walks from the entry point down to targetLayer+1, always
// moving to the closest neighbour, and returns the best starting point for
// the layered search.
func (h *HNSW) greedyDescend(q []float32, targetLayer int) (uint32, float32, error) {
	curr := h.ep

	currDist, err := h.distance(h.nodes[curr].vector, q)
	if err != nil {
		return 0, 0, err
	}

	for level := h.nodes[curr].layer; level > targetLayer; level-- {
		changed := true
		for changed {
			changed = false

			for _, candidate := range h.connections(curr, level) {
				d, err := h.distance(h.nodes[candidate].vector, q)
				if err != nil {
					return 0, 0, err
				}

				if d < currDist {
					curr = candidate
					currDist = d
					changed = true
				}
			}
		}
	}

	return curr, currDist, nil
}

// searchBottom performs the full descent plus a layer-0 search.
func (h *HNSW) searchBottom(q []float32, ef int) (*queue.Candidates, error) {
	curr, currDist, err := h.greedyDescend(q, 0)
	if err != nil {
		return nil, err
	}

	return h.searchLayer(q, curr, currDist, ef, 0)
}

// searchLayer runs the beam search on one layer. The returned max-heap holds
// at most ef candidates, worst on top.
func (h *HNSW) searchLayer(q []float32, entry uint32, entryDist float32, ef int, level int) (*queue.Candidates, error) {
	var visited bitset.BitSet
	visited.Set(uint(entry))

	candidates := &queue.Candidates{}
	heap.Init(candidates)
	heap.Push(candidates, &queue.Item{ID: entry, Score: entryDist})

	results := &queue.Candidates{Desc: true}
	heap.Init(results)
	heap.Push(results, &queue.Item{ID: entry, Score: entryDist})

	for candidates.Len() > 0 {
		candidate, _ := heap.Pop(candidates).(*queue.Item)

		if results.Len() >= ef && candidate.Score > results.Top().Score {
			break
		}

		for _, n := range h.connections(candidate.ID, level) {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			d, err := h.distance(q, h.nodes[n].vector)
			if err != nil {
				return nil, err
			}

			if results.Len() < ef {
				heap.Push(results, &queue.Item{ID: n, Score: d})
				heap.Push(candidates, &queue.Item{ID: n, Score: d})
			} else if d < results.Top().Score {
				heap.Pop(results)
				heap.Push(results, &queue.Item{ID: n, Score: d})
				heap.Push(candidates, &queue.Item{ID: n, Score: d})
			}
		}
	}

	return results, nil
}

// selectNeighbours reduces a candidate heap to at most m connections,
// ordered by ascending distance. With the heuristic enabled a candidate is
// kept only when it is closer to the query than to every already kept
// neighbour, which spreads connections across clusters.
func (h *HNSW) selectNeighbours(results *queue.Candidates, m int) ([]*queue.Item, error) {
	asc := make([]*queue.Item, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		asc[i], _ = heap.Pop(results).(*queue.Item)
	}

	if len(asc) <= m {
		return asc, nil
	}

	if !h.opts.Heuristic {
		return asc[:m], nil
	}

	kept := make([]*queue.Item, 0, m)
	discarded := make([]*queue.Item, 0)

	for _, candidate := range asc {
		if len(kept) >= m {
			break
		}

		keep := true
		for _, existing := range kept {
			d, err := h.distance(h.nodes[existing.ID].vector, h.nodes[candidate.ID].vector)
			if err != nil {
				return nil, err
			}

			if d < candidate.Score {
				keep = false
				break
			}
		}

		if keep {
			kept = append(kept, candidate)
		} else {
			discarded = append(discarded, candidate)
		}
	}

	// Backfill with the nearest discarded candidates.
	for len(kept) < m && len(discarded) > 0 {
		kept = append(kept, discarded[0])
		discarded = discarded[1:]
	}

	return kept, nil
}

// link connects from -> to on the given level, re-selecting the neighbour
// set when the adjacency overflows its per-layer budget.
func (h *HNSW) link(from, to uint32, level int) error {
	maxConnections := h.mmax
	if level == 0 {
		maxConnections = h.mmax0
	}

	n := h.nodes[from]

	if level >= len(n.connections) {
		return nil
	}

	n.connections[level] = append(n.connections[level], to)

	if len(n.connections[level]) <= maxConnections {
		return nil
	}

	candidates := &queue.Candidates{Desc: true}
	heap.Init(candidates)

	for _, id := range n.connections[level] {
		d, err := h.distance(n.vector, h.nodes[id].vector)
		if err != nil {
			return err
		}

		heap.Push(candidates, &queue.Item{ID: id, Score: d})
	}

	selected, err := h.selectNeighbours(candidates, maxConnections)
	if err != nil {
		return err
	}

	n.connections[level] = make([]uint32, len(selected))
	for i, item := range selected {
		n.connections[level][i] = item.ID
	}

	return nil
}

// connections returns the adjacency of id on the given level, empty when the
// node does not reach that level.
func (h *HNSW) connections(id uint32, level int) []uint32 {
	n := h.nodes[id]
	if level >= len(n.connections) {
		return nil
	}

	return n.connections[level]
}

// toSearchResults drains the max-heap into descending-similarity order with
// ties broken by ascending id.
func toSearchResults(results *queue.Candidates) []index.SearchResult {
	out := make([]index.SearchResult, results.Len())

	for i := results.Len() - 1; i >= 0; i-- {
		item, _ := heap.Pop(results).(*queue.Item)
		out[i] = index.SearchResult{ID: item.ID, Similarity: 1 - item.Score}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})

	return out
}
