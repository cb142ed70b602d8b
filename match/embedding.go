package match

import (
	"context"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/entigo/embed"
	"github.com/hupe1980/entigo/index"
	"github.com/hupe1980/entigo/record"
	"github.com/hupe1980/entigo/resource"
	"github.com/hupe1980/entigo/schema"
)

// EmbeddingOptions contains configuration options for the embedding matcher.
type EmbeddingOptions struct {
	// Aggregator assembles one text from the configured tags' values.
	Aggregator embed.Aggregator

	// K caps the neighbours fetched per record. Zero selects radius
	// search at the threshold, returning every qualifying neighbour.
	K int

	// EmbedTimeout bounds one model call. Zero disables the bound.
	EmbedTimeout time.Duration

	// QueryTimeout bounds one neighbour query. Zero disables the bound.
	QueryTimeout time.Duration

	// Concurrency bounds concurrent model calls and neighbour queries.
	Concurrency int

	// Controller additionally rate-limits model calls. Nil admits every
	// call.
	Controller *resource.Controller
}

// DefaultEmbeddingOptions contains the default configuration options for
// the embedding matcher.
var DefaultEmbeddingOptions = EmbeddingOptions{
	Aggregator:  embed.SpaceJoin,
	Concurrency: runtime.NumCPU(),
}

// Compile time check to ensure Embedding satisfies the Matcher interface.
var _ Matcher = (*Embedding)(nil)

// Embedding matches records by vector similarity. Per record, the
// configured tags' values are aggregated into one text and embedded by the
// model; all embeddings go into a fresh index built by the factory, and
// once the index is fully populated every embedded record queries for its
// neighbours. Pairs at or above the threshold are accepted, self-matches
// excluded. The build is strict two-phase: no query runs before the last
// insert.
//
// The threshold is inclusive: similarity >= threshold qualifies. A record
// whose embedding or neighbour query fails (or times out) is excluded from
// this matcher and counted; it can still reach a cluster through the
// deterministic matcher, or by appearing among another record's
// neighbours, since its vector stays in the index once inserted.
type Embedding struct {
	schema    *schema.Schema
	tags      []schema.FieldTag
	columns   []string
	model     embed.Model
	factory   index.Factory
	threshold float32

	opts EmbeddingOptions
}

// NewEmbedding creates an embedding matcher reading the given tags. Every
// tag must be bound in the schema and the threshold must lie in [0, 1];
// violations fail here, before any record is processed.
func NewEmbedding(s *schema.Schema, tags []schema.FieldTag, model embed.Model, factory index.Factory, threshold float32, optFns ...func(o *EmbeddingOptions)) (*Embedding, error) {
	opts := DefaultEmbeddingOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if s == nil {
		return nil, ErrMissingSchema
	}

	if len(tags) == 0 {
		return nil, ErrNoTags
	}

	if model == nil {
		return nil, ErrMissingModel
	}

	if factory == nil {
		return nil, ErrMissingIndexFactory
	}

	if threshold < 0 || threshold > 1 {
		return nil, &ErrInvalidThreshold{Threshold: threshold}
	}

	if opts.K < 0 {
		return nil, &ErrInvalidNeighbourCount{K: opts.K}
	}

	if opts.Aggregator == nil {
		opts.Aggregator = embed.SpaceJoin
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}

	columns := make([]string, len(tags))

	for i, tag := range tags {
		column, err := s.Column(tag)
		if err != nil {
			return nil, &ErrUnboundTag{Owner: "embedding matcher", Tag: tag, cause: err}
		}

		columns[i] = column
	}

	return &Embedding{
		schema:    s,
		tags:      tags,
		columns:   columns,
		model:     model,
		factory:   factory,
		threshold: threshold,
		opts:      opts,
	}, nil
}

// Name implements Matcher.
func (e *Embedding) Name() string {
	return "embedding"
}

// Match implements Matcher.
func (e *Embedding) Match(ctx context.Context, records *record.Collection) (*Result, error) {
	result := &Result{Pairs: NewSet()}
	result.Stats.Records = records.Len()

	texts := e.aggregateTexts(records, &result.Stats)

	vectors, err := e.embedAll(ctx, texts, &result.Stats)
	if err != nil {
		return result, err
	}

	idx, slotToOrdinal, err := e.buildIndex(ctx, vectors, &result.Stats)
	if err != nil {
		return result, err
	}
	if closer, ok := idx.(io.Closer); ok {
		defer closer.Close()
	}

	err = e.queryAll(ctx, idx, vectors, slotToOrdinal, records, result)

	result.Stats.Pairs = result.Pairs.Len()

	return result, err
}

// aggregateTexts assembles one text per record from the configured tags, in
// tag order. Records where every tag value is absent or empty are skipped.
func (e *Embedding) aggregateTexts(records *record.Collection, stats *Stats) []string {
	texts := make([]string, records.Len())

	for i := 0; i < records.Len(); i++ {
		rec := records.At(i)

		values := make([]string, 0, len(e.columns))

		for _, column := range e.columns {
			if v, ok := rec.Field(column); ok && v != "" {
				values = append(values, v)
			}
		}

		text := e.opts.Aggregator(values)
		if text == "" {
			stats.FieldMissing++

			continue
		}

		texts[i] = text
	}

	return texts
}

// embedAll runs the model over every text, bounded by Concurrency and the
// optional controller. A model failure or timeout leaves a nil vector and
// is counted; only cancellation of ctx stops the fan-out.
func (e *Embedding) embedAll(ctx context.Context, texts []string, stats *Stats) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, text := range texts {
		if text == "" {
			continue
		}

		g.Go(func() error {
			if err := e.opts.Controller.Acquire(gctx); err != nil {
				return err
			}
			defer e.opts.Controller.Release()

			ectx := gctx

			if e.opts.EmbedTimeout > 0 {
				var cancel context.CancelFunc

				ectx, cancel = context.WithTimeout(gctx, e.opts.EmbedTimeout)
				defer cancel()
			}

			v, err := e.model.Embed(ectx, text)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				failures.Add(1)

				return nil
			}

			if len(v) != e.model.Dimensions() {
				failures.Add(1)

				return nil
			}

			vectors[i] = v

			return nil
		})
	}

	err := g.Wait()

	stats.EmbedFailures = int(failures.Load())

	return vectors, err
}

// buildIndex inserts every embedded vector, sequentially and in record
// order, so slot assignment is reproducible run to run. The returned slice
// maps slot ids back to record ordinals.
func (e *Embedding) buildIndex(ctx context.Context, vectors [][]float32, stats *Stats) (index.Index, []int, error) {
	idx, err := e.factory(e.model.Dimensions())
	if err != nil {
		return nil, nil, err
	}

	slotToOrdinal := make([]int, 0, len(vectors))

	for i, v := range vectors {
		if v == nil {
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if _, err := idx.Insert(ctx, v); err != nil {
			stats.IndexFailures++
			vectors[i] = nil // keep the record out of the query phase

			continue
		}

		slotToOrdinal = append(slotToOrdinal, i)
	}

	return idx, slotToOrdinal, nil
}

// queryAll fetches neighbours for every inserted record concurrently, then
// folds the accepted pairs sequentially so accumulation is deterministic.
func (e *Embedding) queryAll(ctx context.Context, idx index.Index, vectors [][]float32, slotToOrdinal []int, records *record.Collection, result *Result) error {
	neighbours := make([][]index.SearchResult, len(slotToOrdinal))

	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for slot, ordinal := range slotToOrdinal {
		g.Go(func() error {
			qctx := gctx

			if e.opts.QueryTimeout > 0 {
				var cancel context.CancelFunc

				qctx, cancel = context.WithTimeout(gctx, e.opts.QueryTimeout)
				defer cancel()
			}

			res, err := e.query(qctx, idx, vectors[ordinal])
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				failures.Add(1)

				return nil
			}

			neighbours[slot] = res

			return nil
		})
	}

	err := g.Wait()

	result.Stats.IndexFailures += int(failures.Load())

	for slot, res := range neighbours {
		a := records.At(slotToOrdinal[slot]).ID()

		for _, nb := range res {
			if int(nb.ID) == slot {
				continue // self-match
			}

			if nb.Similarity < e.threshold {
				continue
			}

			b := records.At(slotToOrdinal[nb.ID]).ID()

			result.Pairs.Add(NewPair(a, b, e.Name(), nb.Similarity))
		}
	}

	return err
}

func (e *Embedding) query(ctx context.Context, idx index.Index, v []float32) ([]index.SearchResult, error) {
	if e.opts.K > 0 {
		// One extra neighbour absorbs the expected self-match.
		return idx.Search(ctx, v, e.opts.K+1)
	}

	return idx.SearchByRadius(ctx, v, e.threshold)
}
