package entigo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/entigo/cleanse"
	"github.com/hupe1980/entigo/cluster"
	"github.com/hupe1980/entigo/match"
	"github.com/hupe1980/entigo/record"
	"github.com/hupe1980/entigo/schema"
)

// MatcherStats summarizes one matcher's contribution to a run.
type MatcherStats struct {
	// Name is the matcher name.
	Name string

	// Stats holds the matcher's pair and skip counters.
	Stats match.Stats

	// Duration is the matcher's wall-clock time.
	Duration time.Duration
}

// RunStats summarizes a pipeline run.
type RunStats struct {
	// Records is the number of input records.
	Records int

	// Pairs is the number of distinct candidate pairs after union.
	Pairs int

	// Clusters is the number of output clusters, singletons included.
	Clusters int

	// Merged is the number of clusters with more than one member.
	Merged int

	// Duration is the total run time.
	Duration time.Duration

	// Partial reports that the run was cut short by cancellation and the
	// partition covers only the pairs produced up to that point.
	Partial bool
}

// Result is the outcome of a pipeline run: a partition of the input records
// into clusters plus per-matcher and run-level summaries.
type Result struct {
	// Clusters is the partition. Every input record id appears in exactly
	// one cluster; records never matched form singleton clusters.
	Clusters []cluster.Cluster

	// Pairs is the deduplicated union of all matcher pair sets, ordered.
	Pairs []match.Pair

	// Matchers holds per-matcher summaries in pipeline order.
	Matchers []MatcherStats

	// Stats is the run-level summary.
	Stats RunStats
}

// Pipeline composes cleansing, matching and cluster merging into a single
// entity-resolution run. Matchers execute as independent concurrent tasks;
// their pair sets are only combined after all of them complete.
//
// A Pipeline is immutable after construction and safe for concurrent use.
type Pipeline struct {
	schema   *schema.Schema
	cleanser *cleanse.Cleanser
	matchers []match.Matcher
	metrics  MetricsCollector
	logger   *Logger
	strict   bool
}

// New creates a Pipeline from the given schema and matchers.
// External users typically assemble pipelines with NewBuilder instead.
func New(s *schema.Schema, matchers []match.Matcher, optFns ...Option) (*Pipeline, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, ErrMissingSchema)
	}
	if len(matchers) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, ErrNoMatchers)
	}
	for _, m := range matchers {
		if m == nil {
			return nil, fmt.Errorf("%w: matcher must not be nil", ErrConfiguration)
		}
	}

	opts := applyOptions(optFns)

	return &Pipeline{
		schema:   s,
		cleanser: opts.cleanser,
		matchers: matchers,
		metrics:  opts.metricsCollector,
		logger:   opts.logger,
		strict:   opts.strict,
	}, nil
}

// Schema returns the schema the pipeline resolves fields through.
func (p *Pipeline) Schema() *schema.Schema {
	return p.schema
}

// Run executes the pipeline against records and returns the partition.
//
// The cleanser (if configured) normalizes field values first. All matchers
// then run concurrently against the cleaned collection; their pair sets are
// unioned (one pair per record pair, highest confidence wins, earlier matcher
// wins ties) and merged into connected components.
//
// An empty or nil collection yields an empty partition and no error. On
// cancellation the pairs produced so far are merged and Result.Stats.Partial
// is set, unless the pipeline was built with WithStrict(true), in which case
// the context error is returned.
func (p *Pipeline) Run(ctx context.Context, records *record.Collection) (*Result, error) {
	start := time.Now()

	if records == nil {
		records, _ = record.NewCollection()
	}

	records, err := p.clean(ctx, records)
	if err != nil {
		p.metrics.RecordRun(records.Len(), 0, time.Since(start), err)
		p.logger.LogRun(ctx, records.Len(), 0, 0, time.Since(start), err)
		return nil, err
	}

	results, stats, err := p.matchAll(ctx, records)
	partial := false
	if err != nil {
		if p.strict || !isCancellation(err) {
			err = translateError(err)
			p.metrics.RecordRun(records.Len(), 0, time.Since(start), err)
			p.logger.LogRun(ctx, records.Len(), 0, 0, time.Since(start), err)
			return nil, err
		}
		partial = true
	}

	merged := match.NewSet()
	for _, res := range results {
		if res == nil {
			continue
		}
		merged.Merge(res.Pairs)
	}
	pairs := merged.Pairs()

	mergeStart := time.Now()
	clusters := cluster.Merge(records.IDs(), pairs)
	p.metrics.RecordMerge(len(pairs), len(clusters), time.Since(mergeStart))
	p.logger.LogMerge(ctx, len(pairs), len(clusters))

	mergedClusters := 0
	for _, c := range clusters {
		if len(c.Members) > 1 {
			mergedClusters++
		}
	}

	duration := time.Since(start)
	result := &Result{
		Clusters: clusters,
		Pairs:    pairs,
		Matchers: stats,
		Stats: RunStats{
			Records:  records.Len(),
			Pairs:    len(pairs),
			Clusters: len(clusters),
			Merged:   mergedClusters,
			Duration: duration,
			Partial:  partial,
		},
	}

	p.metrics.RecordRun(records.Len(), len(clusters), duration, nil)
	p.logger.LogRun(ctx, records.Len(), len(pairs), len(clusters), duration, nil)

	return result, nil
}

// clean applies the configured cleanser to the collection.
func (p *Pipeline) clean(ctx context.Context, records *record.Collection) (*record.Collection, error) {
	if p.cleanser == nil {
		return records, nil
	}

	cleanStart := time.Now()
	cleaned, err := p.cleanser.CleanAll(records)
	p.metrics.RecordClean(records.Len(), time.Since(cleanStart))
	p.logger.LogClean(ctx, records.Len(), err)
	if err != nil {
		return nil, fmt.Errorf("cleanse: %w", err)
	}

	return cleaned, nil
}

// matchAll runs every matcher concurrently and waits for all of them.
// Per-matcher results are captured even when the run is cancelled, so a
// best-effort caller can merge the pairs produced so far.
func (p *Pipeline) matchAll(ctx context.Context, records *record.Collection) ([]*match.Result, []MatcherStats, error) {
	results := make([]*match.Result, len(p.matchers))
	stats := make([]MatcherStats, len(p.matchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range p.matchers {
		g.Go(func() error {
			matchStart := time.Now()
			res, err := m.Match(gctx, records)
			duration := time.Since(matchStart)

			results[i] = res
			stats[i] = MatcherStats{Name: m.Name(), Duration: duration}
			if res != nil {
				stats[i].Stats = res.Stats
			}

			pairs := 0
			skipped := 0
			failed := 0
			if res != nil {
				pairs = res.Stats.Pairs
				skipped = res.Stats.FieldMissing
				failed = res.Stats.EmbedFailures + res.Stats.IndexFailures
			}
			p.metrics.RecordMatch(m.Name(), pairs, skipped, failed, duration, err)
			p.logger.LogMatch(gctx, m.Name(), pairs, skipped, failed, err)

			if err != nil {
				if isCancellation(err) {
					return err
				}
				return &ErrMatcherFailed{Matcher: m.Name(), cause: err}
			}
			return nil
		})
	}

	err := g.Wait()
	return results, stats, err
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
