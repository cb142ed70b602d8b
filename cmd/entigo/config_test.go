package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entigo"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadPipelineConfig(t *testing.T) {
	t.Run("full config builds", func(t *testing.T) {
		path := writeConfig(t, `
schema:
  name: full_name
  email: email
  phone: phone
  address: street
rules:
  - type: email
    confidence: 1.0
  - type: exact
    tag: phone
    confidence: 0.95
  - type: name
    tag: name
    max_edits: 2
    confidence: 0.9
embedding:
  tags: [name, address]
  threshold: 0.9
  k: 8
  index: hnsw
strict: true
`)

		cfg, err := loadPipelineConfig(path)
		require.NoError(t, err)

		p, s, err := cfg.build(entigo.NoopLogger())
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 4, s.Len())
	})

	t.Run("cleanse defaults on", func(t *testing.T) {
		path := writeConfig(t, `
schema:
  email: email
rules:
  - type: email
    confidence: 1.0
`)

		cfg, err := loadPipelineConfig(path)
		require.NoError(t, err)
		assert.Nil(t, cfg.Cleanse)

		_, _, err = cfg.build(entigo.NoopLogger())
		require.NoError(t, err)
	})

	t.Run("unknown key fails decode", func(t *testing.T) {
		path := writeConfig(t, `
schema:
  email: email
matchers:
  - type: email
`)

		_, err := loadPipelineConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "matchers")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeConfig(t, "")

		_, err := loadPipelineConfig(path)
		require.ErrorContains(t, err, "is empty")
	})

	t.Run("no schema bindings", func(t *testing.T) {
		path := writeConfig(t, `
rules:
  - type: email
    confidence: 1.0
`)

		_, err := loadPipelineConfig(path)
		require.ErrorContains(t, err, "binds no schema fields")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadPipelineConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestPipelineConfigBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     pipelineConfig
		wantErr string
	}{
		{
			name: "unknown schema tag",
			cfg: pipelineConfig{
				Schema: map[string]string{"nickname": "nick"},
			},
			wantErr: "unknown field tag",
		},
		{
			name: "unknown rule type",
			cfg: pipelineConfig{
				Schema: map[string]string{"name": "full_name"},
				Rules:  []ruleConfig{{Type: "soundex", Tag: "name", Confidence: 0.8}},
			},
			wantErr: "unknown rule type",
		},
		{
			name: "unknown rule tag",
			cfg: pipelineConfig{
				Schema: map[string]string{"name": "full_name"},
				Rules:  []ruleConfig{{Type: "exact", Tag: "surname", Confidence: 0.8}},
			},
			wantErr: "unknown field tag",
		},
		{
			name: "unknown embedding index",
			cfg: pipelineConfig{
				Schema:    map[string]string{"name": "full_name"},
				Embedding: &embeddingConfig{Tags: []string{"name"}, Threshold: 0.9, Index: "diskann"},
			},
			wantErr: "unknown embedding index",
		},
		{
			name: "unknown embedding tag",
			cfg: pipelineConfig{
				Schema:    map[string]string{"name": "full_name"},
				Embedding: &embeddingConfig{Tags: []string{"alias"}, Threshold: 0.9},
			},
			wantErr: "unknown field tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.cfg.build(entigo.NoopLogger())
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
