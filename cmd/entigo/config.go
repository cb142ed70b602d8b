package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/entigo"
	"github.com/hupe1980/entigo/cleanse"
	"github.com/hupe1980/entigo/embed"
	"github.com/hupe1980/entigo/index"
	"github.com/hupe1980/entigo/index/flat"
	"github.com/hupe1980/entigo/index/hnsw"
	"github.com/hupe1980/entigo/match"
	"github.com/hupe1980/entigo/schema"
)

// pipelineConfig is the YAML shape of a pipeline definition:
//
//	schema:
//	  name: full_name
//	  email: email
//	rules:
//	  - type: email
//	    confidence: 1.0
//	  - type: name
//	    tag: name
//	    max_edits: 2
//	    confidence: 0.9
//	embedding:
//	  tags: [name, address]
//	  threshold: 0.9
//	  k: 8
//	  index: hnsw
//	cleanse: true
type pipelineConfig struct {
	Schema    map[string]string `yaml:"schema"`
	Rules     []ruleConfig      `yaml:"rules"`
	Embedding *embeddingConfig  `yaml:"embedding"`
	Cleanse   *bool             `yaml:"cleanse"`
	Strict    bool              `yaml:"strict"`
}

type ruleConfig struct {
	Type       string  `yaml:"type"`
	Tag        string  `yaml:"tag"`
	MaxEdits   int     `yaml:"max_edits"`
	Confidence float32 `yaml:"confidence"`
}

type embeddingConfig struct {
	Tags      []string `yaml:"tags"`
	Threshold float32  `yaml:"threshold"`
	K         int      `yaml:"k"`
	Index     string   `yaml:"index"`
}

// loadPipelineConfig reads and decodes a pipeline definition. Unknown
// keys fail the decode, so typos surface instead of silently dropping
// a matcher.
func loadPipelineConfig(path string) (*pipelineConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pipeline config: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg pipelineConfig
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("pipeline config %s is empty", path)
		}

		return nil, fmt.Errorf("decode pipeline config: %w", err)
	}

	if len(cfg.Schema) == 0 {
		return nil, fmt.Errorf("pipeline config %s binds no schema fields", path)
	}

	return &cfg, nil
}

// build assembles the pipeline the config describes. The schema is
// returned alongside so callers can feed it to report previews.
func (c *pipelineConfig) build(logger *entigo.Logger) (*entigo.Pipeline, *schema.Schema, error) {
	bindings := make(map[schema.FieldTag]string, len(c.Schema))

	for name, column := range c.Schema {
		tag, err := schema.ParseFieldTag(name)
		if err != nil {
			return nil, nil, err
		}

		bindings[tag] = column
	}

	s, err := schema.New(bindings)
	if err != nil {
		return nil, nil, err
	}

	b := entigo.NewBuilder(s)

	for _, rc := range c.Rules {
		b, err = applyRule(b, rc)
		if err != nil {
			return nil, nil, err
		}
	}

	if c.Embedding != nil {
		b, err = applyEmbedding(b, c.Embedding)
		if err != nil {
			return nil, nil, err
		}
	}

	if c.Cleanse == nil || *c.Cleanse {
		b = b.Cleanser(cleanse.NewCleanser(s))
	}

	p, err := b.Strict(c.Strict).Logger(logger).Build()
	if err != nil {
		return nil, nil, err
	}

	return p, s, nil
}

func applyRule(b entigo.Builder, rc ruleConfig) (entigo.Builder, error) {
	if rc.Type == "email" {
		return b.EmailRule(rc.Confidence), nil
	}

	tag, err := schema.ParseFieldTag(rc.Tag)
	if err != nil {
		return b, fmt.Errorf("rule %q: %w", rc.Type, err)
	}

	switch rc.Type {
	case "exact":
		return b.ExactRule(tag, rc.Confidence), nil
	case "edit-distance":
		return b.EditDistanceRule(tag, rc.MaxEdits, rc.Confidence), nil
	case "name":
		return b.NameRule(tag, rc.MaxEdits, rc.Confidence), nil
	default:
		return b, fmt.Errorf("unknown rule type %q (want exact, edit-distance, name or email)", rc.Type)
	}
}

func applyEmbedding(b entigo.Builder, ec *embeddingConfig) (entigo.Builder, error) {
	tags := make([]schema.FieldTag, 0, len(ec.Tags))

	for _, name := range ec.Tags {
		tag, err := schema.ParseFieldTag(name)
		if err != nil {
			return b, fmt.Errorf("embedding: %w", err)
		}

		tags = append(tags, tag)
	}

	var factory index.Factory

	switch ec.Index {
	case "", "flat":
		factory = flat.Factory()
	case "hnsw":
		factory = hnsw.Factory()
	default:
		return b, fmt.Errorf("unknown embedding index %q (want flat or hnsw)", ec.Index)
	}

	b = b.Embedding(embed.NewHashingModel(), factory, ec.Threshold, tags...)

	if ec.K > 0 {
		b = b.EmbeddingOptions(func(o *match.EmbeddingOptions) {
			o.K = ec.K
		})
	}

	return b, nil
}
