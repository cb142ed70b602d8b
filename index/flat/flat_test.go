package flat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entigo/index"
	"github.com/hupe1980/entigo/metric"
)

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f, err := New(4)
		require.NoError(t, err)
		assert.Equal(t, 4, f.Dimensions())
		assert.Equal(t, 0, f.Len())
	})

	t.Run("invalid dimension", func(t *testing.T) {
		_, err := New(0)
		require.Error(t, err)

		var dimErr *index.ErrInvalidDimension
		require.ErrorAs(t, err, &dimErr)
	})

	t.Run("unsupported metric", func(t *testing.T) {
		_, err := New(4, func(o *Options) {
			o.Metric = metric.MetricL2
		})
		require.Error(t, err)

		var metricErr *index.ErrUnsupportedMetric
		require.ErrorAs(t, err, &metricErr)
	})
}

func TestInsert(t *testing.T) {
	ctx := context.Background()

	f, err := New(2)
	require.NoError(t, err)

	t.Run("sequential ids", func(t *testing.T) {
		id0, err := f.Insert(ctx, []float32{1, 0})
		require.NoError(t, err)
		assert.Equal(t, uint32(0), id0)

		id1, err := f.Insert(ctx, []float32{0, 1})
		require.NoError(t, err)
		assert.Equal(t, uint32(1), id1)

		assert.Equal(t, 2, f.Len())
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := f.Insert(ctx, []float32{1, 2, 3})
		require.Error(t, err)

		var dimErr *index.ErrDimensionMismatch
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 2, dimErr.Expected)
		assert.Equal(t, 3, dimErr.Actual)
	})

	t.Run("caller mutation does not leak", func(t *testing.T) {
		v := []float32{1, 1}
		_, err := f.Insert(ctx, v)
		require.NoError(t, err)

		v[0] = 99

		results, err := f.Search(ctx, []float32{1, 1}, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-5)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	f, err := New(2)
	require.NoError(t, err)

	vectors := [][]float32{
		{1, 0},       // id 0
		{0.9, 0.1},   // id 1, close to 0
		{0, 1},       // id 2, orthogonal
		{0.95, 0.05}, // id 3, closest to 0
	}
	for _, v := range vectors {
		_, err := f.Insert(ctx, v)
		require.NoError(t, err)
	}

	t.Run("ordered by descending similarity", func(t *testing.T) {
		results, err := f.Search(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, uint32(0), results[0].ID)
		assert.Equal(t, uint32(3), results[1].ID)
		assert.Equal(t, uint32(1), results[2].ID)

		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i].Similarity, results[i-1].Similarity)
		}
	})

	t.Run("k larger than index", func(t *testing.T) {
		results, err := f.Search(ctx, []float32{1, 0}, 100)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("no duplicate ids", func(t *testing.T) {
		results, err := f.Search(ctx, []float32{0.5, 0.5}, 4)
		require.NoError(t, err)

		seen := make(map[uint32]bool)
		for _, r := range results {
			assert.False(t, seen[r.ID])
			seen[r.ID] = true
		}
	})

	t.Run("invalid k", func(t *testing.T) {
		_, err := f.Search(ctx, []float32{1, 0}, 0)
		require.ErrorIs(t, err, index.ErrInvalidK)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.Search(cancelled, []float32{1, 0}, 1)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSearchEmptyIndex(t *testing.T) {
	ctx := context.Background()

	f, err := New(2)
	require.NoError(t, err)

	results, err := f.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = f.SearchByRadius(ctx, []float32{1, 0}, 0.5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchByRadius(t *testing.T) {
	ctx := context.Background()

	f, err := New(2)
	require.NoError(t, err)

	for _, v := range [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}} {
		_, err := f.Insert(ctx, v)
		require.NoError(t, err)
	}

	t.Run("inclusive threshold", func(t *testing.T) {
		// id 0 has similarity exactly 1.0 to the query.
		results, err := f.SearchByRadius(ctx, []float32{1, 0}, 1.0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, uint32(0), results[0].ID)
	})

	t.Run("radius filters", func(t *testing.T) {
		results, err := f.SearchByRadius(ctx, []float32{1, 0}, 0.9)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, uint32(0), results[0].ID)
		assert.Equal(t, uint32(1), results[1].ID)
	})

	t.Run("out of range radius", func(t *testing.T) {
		_, err := f.SearchByRadius(ctx, []float32{1, 0}, 1.5)
		require.ErrorIs(t, err, index.ErrInvalidRadius)

		_, err = f.SearchByRadius(ctx, []float32{1, 0}, -0.1)
		require.ErrorIs(t, err, index.ErrInvalidRadius)
	})
}

func TestConcurrentSearchAfterBuild(t *testing.T) {
	ctx := context.Background()

	f, err := New(4)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		v := []float32{float32(i), float32(i % 7), float32(i % 3), 1}
		_, err := f.Insert(ctx, v)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				results, err := f.Search(ctx, []float32{1, 2, 3, 4}, 10)
				assert.NoError(t, err)
				assert.Len(t, results, 10)
			}
		}()
	}
	wg.Wait()
}

func TestFactory(t *testing.T) {
	factory := Factory()

	idx, err := factory(8)
	require.NoError(t, err)
	assert.Equal(t, 8, idx.Dimensions())

	_, err = factory(-1)
	require.Error(t, err)
}
