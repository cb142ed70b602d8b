// Package match produces candidate duplicate pairs from a cleaned record
// collection. Two matchers are provided: Deterministic applies rule-based
// field comparison inside cheap blocking groups, and Embedding compares
// records by vector similarity through a pluggable model and index. Both
// read fields exclusively through schema tag bindings, and both skip bad
// records with per-reason counts instead of failing the run.
package match

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/entigo/record"
	"github.com/hupe1980/entigo/schema"
)

var (
	// ErrMissingSchema is returned when a matcher is constructed without a schema.
	ErrMissingSchema = errors.New("schema must not be nil")

	// ErrMissingModel is returned when the embedding matcher is constructed
	// without a model.
	ErrMissingModel = errors.New("embedding model must not be nil")

	// ErrMissingIndexFactory is returned when the embedding matcher is
	// constructed without an index factory.
	ErrMissingIndexFactory = errors.New("index factory must not be nil")

	// ErrNoRules is returned when the deterministic matcher is constructed
	// without rules.
	ErrNoRules = errors.New("at least one rule is required")

	// ErrNoTags is returned when the embedding matcher is constructed
	// without tags.
	ErrNoTags = errors.New("at least one tag is required")
)

// ErrInvalidThreshold indicates a similarity threshold outside [0, 1].
type ErrInvalidThreshold struct {
	Threshold float32
}

func (e *ErrInvalidThreshold) Error() string {
	return fmt.Sprintf("threshold must be in [0, 1], got %g", e.Threshold)
}

// ErrInvalidConfidence indicates a rule confidence outside [0, 1].
type ErrInvalidConfidence struct {
	Confidence float32
}

func (e *ErrInvalidConfidence) Error() string {
	return fmt.Sprintf("confidence must be in [0, 1], got %g", e.Confidence)
}

// ErrInvalidMaxEdits indicates a negative edit budget.
type ErrInvalidMaxEdits struct {
	MaxEdits int
}

func (e *ErrInvalidMaxEdits) Error() string {
	return fmt.Sprintf("max edits must not be negative, got %d", e.MaxEdits)
}

// ErrInvalidNeighbourCount indicates a negative neighbour cap.
type ErrInvalidNeighbourCount struct {
	K int
}

func (e *ErrInvalidNeighbourCount) Error() string {
	return fmt.Sprintf("neighbour count must not be negative, got %d", e.K)
}

// ErrUnboundTag indicates a matcher or rule referencing a tag the schema
// does not bind.
type ErrUnboundTag struct {
	Owner string
	Tag   schema.FieldTag

	cause error
}

func (e *ErrUnboundTag) Error() string {
	return fmt.Sprintf("%s references tag %q which is not bound in the schema", e.Owner, e.Tag)
}

func (e *ErrUnboundTag) Unwrap() error {
	return e.cause
}

// Pair is an unordered pair of record ids judged to refer to the same
// entity, together with the producer and its confidence.
type Pair struct {
	// A and B are the endpoints in canonical order (A < B).
	A, B record.ID

	// Matcher names the matcher (and rule, where applicable) that
	// produced the pair.
	Matcher string

	// Confidence is the producer's score in [0, 1].
	Confidence float32
}

// NewPair returns the canonical form of the pair: endpoints are swapped if
// needed so that A < B, making equal pairs comparable regardless of the
// order the matcher discovered them in.
func NewPair(a, b record.ID, matcher string, confidence float32) Pair {
	if b < a {
		a, b = b, a
	}

	return Pair{A: a, B: b, Matcher: matcher, Confidence: confidence}
}

type pairKey struct {
	a, b record.ID
}

// Set accumulates pairs, deduplicating by endpoints. When the same pair
// arrives more than once the highest confidence wins; on equal confidence
// the earlier arrival is kept. Not safe for concurrent use.
type Set struct {
	pairs map[pairKey]Pair
}

// NewSet creates an empty pair set.
func NewSet() *Set {
	return &Set{pairs: make(map[pairKey]Pair)}
}

// Add inserts p, keeping the higher-confidence entry on endpoint collision.
func (s *Set) Add(p Pair) {
	key := pairKey{a: p.A, b: p.B}

	if existing, ok := s.pairs[key]; ok && existing.Confidence >= p.Confidence {
		return
	}

	s.pairs[key] = p
}

// Merge folds other into s, pair by pair, applying the same tie-break as
// Add. The fold walks other in canonical order so the outcome does not
// depend on map iteration.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}

	for _, p := range other.Pairs() {
		s.Add(p)
	}
}

// Contains reports whether the endpoints are paired, in either order.
func (s *Set) Contains(a, b record.ID) bool {
	if b < a {
		a, b = b, a
	}

	_, ok := s.pairs[pairKey{a: a, b: b}]

	return ok
}

// Len returns the number of distinct pairs.
func (s *Set) Len() int {
	return len(s.pairs)
}

// Pairs returns the deduplicated pairs ordered by their endpoints.
func (s *Set) Pairs() []Pair {
	pairs := make([]Pair, 0, len(s.pairs))
	for _, p := range s.pairs {
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}

		return pairs[i].B < pairs[j].B
	})

	return pairs
}

// Stats summarizes one matcher run. The counts are per-reason record skips,
// not errors: a skipped record still reaches clustering as a singleton
// unless another matcher pairs it.
type Stats struct {
	// Records is the number of records examined.
	Records int

	// FieldMissing counts record/rule (or record/tag-set) combinations
	// skipped because the needed field was absent or empty.
	FieldMissing int

	// EmbedFailures counts records excluded because the model failed or
	// timed out.
	EmbedFailures int

	// IndexFailures counts records excluded because an index insert or
	// neighbour query failed or timed out.
	IndexFailures int

	// Pairs is the number of distinct pairs produced.
	Pairs int
}

// Result is a matcher's output: the deduplicated pair set plus run stats.
type Result struct {
	Pairs *Set
	Stats Stats
}

// Matcher produces candidate pairs from a record collection. A Matcher is
// stateless across runs; each Match call owns all state for its run, so the
// same Matcher may serve consecutive runs.
type Matcher interface {
	// Name identifies the matcher in diagnostics and pair provenance.
	Name() string

	// Match scans the collection and returns the produced pairs. On
	// cancellation it returns the pairs produced so far together with
	// the context error.
	Match(ctx context.Context, records *record.Collection) (*Result, error)
}
