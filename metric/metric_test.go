package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dot(tt.a, tt.b), 1e-5)
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"Scaled", []float32{1, 2}, []float32{2, 4}, 1},
		{"ZeroVector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}

	t.Run("SizeMismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
		require.ErrorIs(t, err, ErrVectorSizeMismatch)
	})
}

func TestCosineDistance(t *testing.T) {
	d, err := CosineDistance([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 1e-5)

	d, err = CosineDistance([]float32{1, 2}, []float32{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-5)
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SquaredL2(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestNormalizeL2(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		v := []float32{3, 4}
		require.True(t, NormalizeL2InPlace(v))
		assert.InDelta(t, 0.6, v[0], 1e-5)
		assert.InDelta(t, 0.8, v[1], 1e-5)
		assert.InDelta(t, 1.0, Magnitude(v), 1e-5)
	})

	t.Run("ZeroNorm", func(t *testing.T) {
		v := []float32{0, 0}
		assert.False(t, NormalizeL2InPlace(v))
	})

	t.Run("Copy", func(t *testing.T) {
		src := []float32{3, 4}
		dst, ok := NormalizeL2Copy(src)
		require.True(t, ok)
		assert.Equal(t, []float32{3, 4}, src)
		assert.InDelta(t, 1.0, Magnitude(dst), 1e-5)
	})
}

func TestProviders(t *testing.T) {
	t.Run("CosineSimilarityProvider", func(t *testing.T) {
		fn, err := Similarity(MetricCosine)
		require.NoError(t, err)

		sim, err := fn([]float32{1, 0}, []float32{1, 0})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-5)
	})

	t.Run("DotProvider", func(t *testing.T) {
		fn, err := Similarity(MetricDot)
		require.NoError(t, err)

		sim, err := fn([]float32{1, 2}, []float32{3, 4})
		require.NoError(t, err)
		assert.InDelta(t, 11.0, sim, 1e-5)

		_, err = fn([]float32{1}, []float32{1, 2})
		require.ErrorIs(t, err, ErrVectorSizeMismatch)
	})

	t.Run("L2HasNoSimilarity", func(t *testing.T) {
		_, err := Similarity(MetricL2)
		require.Error(t, err)
	})

	t.Run("DistanceProviders", func(t *testing.T) {
		fn, err := Distance(MetricCosine)
		require.NoError(t, err)

		d, err := fn([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, d, 1e-5)

		_, err = Distance(MetricDot)
		require.Error(t, err)
	})
}

func TestMetricString(t *testing.T) {
	assert.Equal(t, "Cosine", MetricCosine.String())
	assert.Equal(t, "Dot", MetricDot.String())
	assert.Equal(t, "L2", MetricL2.String())
	assert.Equal(t, "Unknown(9)", Metric(9).String())
}

func TestMagnitude(t *testing.T) {
	assert.InDelta(t, 5.0, Magnitude([]float32{3, 4}), 1e-5)
	assert.InDelta(t, 0.0, Magnitude(nil), 1e-5)
	assert.InDelta(t, math.Sqrt(3), float64(Magnitude([]float32{1, 1, 1})), 1e-5)
}
