package blobstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "runs/a/summary", []byte("one")))
	require.NoError(t, store.Put(ctx, "runs/b/summary", []byte("two")))

	got, err := store.Get(ctx, "runs/a/summary")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	ok, err := store.Exists(ctx, "runs/b/summary")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := store.List(ctx, "runs/a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a/summary"}, keys)

	keys, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a/summary", "runs/b/summary"}, keys)

	require.NoError(t, store.Delete(ctx, "runs/a/summary"))

	ok, err = store.Exists(ctx, "runs/a/summary")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error
	require.NoError(t, store.Delete(ctx, "runs/a/summary"))
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "k", data))

	// Mutating the caller's slice must not reach the store
	data[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	// Mutating the returned slice must not reach the store either
	got[0] = 'Y'

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("runs/%d/%d", id, j)
				if err := store.Put(ctx, key, []byte(key)); err != nil {
					t.Error(err)
					return
				}
				if _, err := store.Get(ctx, key); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 8*50)
}
