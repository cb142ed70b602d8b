package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entigo/metric"
)

func TestSpaceJoin(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{"all present", []string{"jane smith", "12 high street"}, "jane smith 12 high street"},
		{"skips empty", []string{"jane smith", "", "london"}, "jane smith london"},
		{"all empty", []string{"", ""}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SpaceJoin(tt.values))
		})
	}
}

func TestHashingModelEmbed(t *testing.T) {
	ctx := context.Background()
	m := NewHashingModel()

	t.Run("deterministic", func(t *testing.T) {
		v1, err := m.Embed(ctx, "jane smith london")
		require.NoError(t, err)

		v2, err := m.Embed(ctx, "jane smith london")
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
		assert.Len(t, v1, 64)
	})

	t.Run("normalized", func(t *testing.T) {
		v, err := m.Embed(ctx, "jane smith london")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, metric.Magnitude(v), 1e-5)
	})

	t.Run("token order irrelevant", func(t *testing.T) {
		v1, err := m.Embed(ctx, "jane smith")
		require.NoError(t, err)

		v2, err := m.Embed(ctx, "smith jane")
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
	})

	t.Run("case insensitive", func(t *testing.T) {
		v1, err := m.Embed(ctx, "Jane Smith")
		require.NoError(t, err)

		v2, err := m.Embed(ctx, "jane smith")
		require.NoError(t, err)

		assert.Equal(t, v1, v2)
	})

	t.Run("empty text is the zero vector", func(t *testing.T) {
		v, err := m.Embed(ctx, "")
		require.NoError(t, err)
		assert.InDelta(t, 0.0, metric.Magnitude(v), 1e-5)
	})
}

func TestHashingModelSimilarity(t *testing.T) {
	ctx := context.Background()
	m := NewHashingModel()

	near1, err := m.Embed(ctx, "jane smith 12 high street london")
	require.NoError(t, err)

	near2, err := m.Embed(ctx, "jane smith 12 high street")
	require.NoError(t, err)

	far, err := m.Embed(ctx, "completely unrelated person somewhere else")
	require.NoError(t, err)

	simNear, err := metric.CosineSimilarity(near1, near2)
	require.NoError(t, err)

	simFar, err := metric.CosineSimilarity(near1, far)
	require.NoError(t, err)

	assert.Greater(t, simNear, simFar)
	assert.Greater(t, simNear, float32(0.8))
}

func TestHashingModelDimensions(t *testing.T) {
	m := NewHashingModel(func(o *HashingModelOptions) {
		o.Dimensions = 128
	})
	assert.Equal(t, 128, m.Dimensions())

	v, err := m.Embed(context.Background(), "jane")
	require.NoError(t, err)
	assert.Len(t, v, 128)

	// Non-positive dimensions fall back to the default.
	m = NewHashingModel(func(o *HashingModelOptions) {
		o.Dimensions = 0
	})
	assert.Equal(t, 64, m.Dimensions())
}
