// This file implements the fluent builder API for assembling pipelines.
// The builder is immutable - each method returns a new builder with the
// updated configuration.

package entigo

import (
	"github.com/hupe1980/entigo/cleanse"
	"github.com/hupe1980/entigo/embed"
	"github.com/hupe1980/entigo/index"
	"github.com/hupe1980/entigo/match"
	"github.com/hupe1980/entigo/schema"
)

// NewBuilder creates a new pipeline builder over the given schema.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents accidental
// state sharing.
//
// Rule constructor errors are deferred: the first one is surfaced by Build.
//
// Example:
//
//	p, err := entigo.NewBuilder(s).
//	    NameRule(schema.TagName, 2, 0.9).
//	    ExactRule(schema.TagPostcode, 0.7).
//	    EmailRule(0.95).
//	    Cleanser(cleanse.NewCleanser(s)).
//	    Build()
func NewBuilder(s *schema.Schema) Builder {
	return Builder{
		schema: s,
	}
}

// Builder is an immutable fluent builder for assembling pipelines.
// Each method returns a new builder with the updated configuration.
type Builder struct {
	schema         *schema.Schema
	rules          []match.Rule
	ruleErr        error
	block          match.BlockFunc
	matchers       []match.Matcher
	embedModel     embed.Model
	embedFactory   index.Factory
	embedThreshold float32
	embedTags      []schema.FieldTag
	embedOptFns    []func(*match.EmbeddingOptions)
	cleanser       *cleanse.Cleanser
	strict         bool
	logger         *Logger
	metrics        MetricsCollector
}

// ExactRule adds a normalized exact-equality rule on the given tag.
func (b Builder) ExactRule(tag schema.FieldTag, confidence float32) Builder {
	r, err := match.NewExactRule(tag, confidence)
	return b.rule(r, err)
}

// EditDistanceRule adds a bounded edit-distance rule on the given tag.
// Values within maxEdits Levenshtein edits of each other match.
func (b Builder) EditDistanceRule(tag schema.FieldTag, maxEdits int, confidence float32) Builder {
	r, err := match.NewEditDistanceRule(tag, maxEdits, confidence)
	return b.rule(r, err)
}

// NameRule adds a token-positional name rule on the given tag. Tokens are
// compared pairwise with prefix expansion ("jon" -> "jonathan" counts as one
// edit) and the total edit budget is maxEdits.
func (b Builder) NameRule(tag schema.FieldTag, maxEdits int, confidence float32) Builder {
	r, err := match.NewNameRule(tag, maxEdits, confidence)
	return b.rule(r, err)
}

// EmailRule adds a canonical-email equality rule on the EMAIL tag.
func (b Builder) EmailRule(confidence float32) Builder {
	r, err := match.NewEmailRule(confidence)
	return b.rule(r, err)
}

// Rule adds a custom deterministic rule.
func (b Builder) Rule(r match.Rule) Builder {
	return b.rule(r, nil)
}

func (b Builder) rule(r match.Rule, err error) Builder {
	if err != nil {
		if b.ruleErr == nil {
			b.ruleErr = err
		}
		return b
	}
	rules := make([]match.Rule, len(b.rules), len(b.rules)+1)
	copy(rules, b.rules)
	b.rules = append(rules, r)
	return b
}

// Block sets the blocking function for the deterministic matcher.
// Default: match.FirstRuneBlock.
func (b Builder) Block(fn match.BlockFunc) Builder {
	b.block = fn
	return b
}

// Embedding configures the embedding matcher: model, index factory, inclusive
// similarity threshold in [0,1] and the tags whose values are aggregated into
// the embedded text.
//
// Example:
//
//	entigo.NewBuilder(s).
//	    Embedding(embed.NewHashingModel(), flat.Factory(), 0.92,
//	        schema.TagName, schema.TagAddress).
//	    Build()
func (b Builder) Embedding(model embed.Model, factory index.Factory, threshold float32, tags ...schema.FieldTag) Builder {
	b.embedModel = model
	b.embedFactory = factory
	b.embedThreshold = threshold
	b.embedTags = append([]schema.FieldTag(nil), tags...)
	return b
}

// EmbeddingOptions appends option functions for the embedding matcher
// (neighbour cap, timeouts, concurrency, resource controller).
func (b Builder) EmbeddingOptions(optFns ...func(*match.EmbeddingOptions)) Builder {
	fns := make([]func(*match.EmbeddingOptions), len(b.embedOptFns), len(b.embedOptFns)+len(optFns))
	copy(fns, b.embedOptFns)
	b.embedOptFns = append(fns, optFns...)
	return b
}

// Matcher adds a custom matcher to the pipeline, after the built-in ones.
func (b Builder) Matcher(m match.Matcher) Builder {
	matchers := make([]match.Matcher, len(b.matchers), len(b.matchers)+1)
	copy(matchers, b.matchers)
	b.matchers = append(matchers, m)
	return b
}

// Cleanser sets the cleansing step applied before matching.
func (b Builder) Cleanser(c *cleanse.Cleanser) Builder {
	b.cleanser = c
	return b
}

// Strict makes cancelled runs return the context error instead of a
// partial partition.
func (b Builder) Strict(strict bool) Builder {
	b.strict = strict
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	b.metrics = mc
	return b
}

// Build creates the Pipeline. The deterministic matcher is assembled from the
// configured rules, the embedding matcher from the Embedding configuration;
// both are optional but at least one matcher must result.
func (b Builder) Build() (*Pipeline, error) {
	if b.ruleErr != nil {
		return nil, translateError(b.ruleErr)
	}

	var matchers []match.Matcher

	if len(b.rules) > 0 {
		var optFns []func(*match.DeterministicOptions)
		if b.block != nil {
			optFns = append(optFns, func(o *match.DeterministicOptions) {
				o.Block = b.block
			})
		}
		d, err := match.NewDeterministic(b.schema, b.rules, optFns...)
		if err != nil {
			return nil, translateError(err)
		}
		matchers = append(matchers, d)
	}

	if b.embedModel != nil || b.embedFactory != nil || len(b.embedTags) > 0 {
		e, err := match.NewEmbedding(b.schema, b.embedTags, b.embedModel, b.embedFactory, b.embedThreshold, b.embedOptFns...)
		if err != nil {
			return nil, translateError(err)
		}
		matchers = append(matchers, e)
	}

	matchers = append(matchers, b.matchers...)

	var opts []Option
	if b.cleanser != nil {
		opts = append(opts, WithCleanser(b.cleanser))
	}
	if b.strict {
		opts = append(opts, WithStrict(true))
	}
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector(b.metrics))
	}

	return New(b.schema, matchers, opts...)
}

// MustBuild creates the Pipeline, panicking on error.
func (b Builder) MustBuild() *Pipeline {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
