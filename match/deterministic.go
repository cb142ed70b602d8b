package match

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/entigo/record"
	"github.com/hupe1980/entigo/schema"
)

// BlockFunc derives the blocking key for a cleaned field value. Records
// sharing a key land in one block and are compared pairwise; records in
// different blocks are never compared. Any strategy works as long as it is
// a pure function of the value, which keeps the matcher deterministic.
type BlockFunc func(value string) string

// FirstRuneBlock keys a value by its first rune. A cheap default that keeps
// blocks small without splitting common fuzzy matches.
func FirstRuneBlock(value string) string {
	r, _ := utf8.DecodeRuneInString(value)

	return string(r)
}

// WholeValueBlock keys by the full value, restricting comparison to exact
// duplicates of the blocked field.
func WholeValueBlock(value string) string {
	return value
}

// SingleBlock places every record in one block, restoring full pairwise
// comparison.
func SingleBlock(string) string {
	return ""
}

// DeterministicOptions contains configuration options for the deterministic
// matcher.
type DeterministicOptions struct {
	// Block derives the per-rule blocking key.
	Block BlockFunc
}

// DefaultDeterministicOptions contains the default configuration options
// for the deterministic matcher.
var DefaultDeterministicOptions = DeterministicOptions{
	Block: FirstRuneBlock,
}

// Compile time check to ensure Deterministic satisfies the Matcher interface.
var _ Matcher = (*Deterministic)(nil)

// Deterministic applies the configured rules over the collection. Per rule,
// records are grouped into blocks by a cheap key over the rule's field and
// compared pairwise within each block only, bounding the quadratic cost.
// Identical inputs always yield identical pairs.
//
// A record whose value for a rule's field is absent or empty is skipped for
// that rule and counted. When several rules match the same pair it is kept
// once with the highest confidence among them.
type Deterministic struct {
	schema *schema.Schema
	rules  []Rule

	opts DeterministicOptions
}

// NewDeterministic creates a deterministic matcher for the given schema and
// rules. Every rule's tag must be bound in the schema; an unbound tag fails
// here, before any record is processed.
func NewDeterministic(s *schema.Schema, rules []Rule, optFns ...func(o *DeterministicOptions)) (*Deterministic, error) {
	opts := DefaultDeterministicOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if s == nil {
		return nil, ErrMissingSchema
	}

	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	if opts.Block == nil {
		opts.Block = FirstRuneBlock
	}

	for _, rule := range rules {
		if _, err := s.Column(rule.Tag()); err != nil {
			return nil, &ErrUnboundTag{Owner: "rule " + rule.Name(), Tag: rule.Tag(), cause: err}
		}
	}

	return &Deterministic{schema: s, rules: rules, opts: opts}, nil
}

// Name implements Matcher.
func (d *Deterministic) Name() string {
	return "deterministic"
}

// Match implements Matcher.
func (d *Deterministic) Match(ctx context.Context, records *record.Collection) (*Result, error) {
	result := &Result{Pairs: NewSet()}
	result.Stats.Records = records.Len()

	for _, rule := range d.rules {
		if err := d.matchRule(ctx, rule, records, result); err != nil {
			result.Stats.Pairs = result.Pairs.Len()

			return result, err
		}
	}

	result.Stats.Pairs = result.Pairs.Len()

	return result, nil
}

func (d *Deterministic) matchRule(ctx context.Context, rule Rule, records *record.Collection, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Bound at construction; the schema is immutable afterwards.
	column, err := d.schema.Column(rule.Tag())
	if err != nil {
		return err
	}

	values := make([]string, records.Len())
	blocks := make(map[string]*roaring.Bitmap)

	for i := 0; i < records.Len(); i++ {
		value, ok := records.At(i).Field(column)
		if !ok || value == "" {
			result.Stats.FieldMissing++

			continue
		}

		values[i] = value

		key := d.opts.Block(value)

		block, ok := blocks[key]
		if !ok {
			block = roaring.New()
			blocks[key] = block
		}

		block.Add(uint32(i))
	}

	keys := make([]string, 0, len(blocks))
	for key := range blocks {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	provenance := d.Name() + "/" + rule.Name()

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		ordinals := blocks[key].ToArray()

		for x := 0; x < len(ordinals); x++ {
			for y := x + 1; y < len(ordinals); y++ {
				a, b := ordinals[x], ordinals[y]

				if !rule.Match(values[a], values[b]) {
					continue
				}

				result.Pairs.Add(NewPair(
					records.At(int(a)).ID(),
					records.At(int(b)).ID(),
					provenance,
					rule.Confidence(),
				))
			}
		}
	}

	return nil
}
