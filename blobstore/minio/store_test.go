package minio

import (
	"context"
	"testing"

	"github.com/hupe1980/entigo/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-entigo"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	// Put and Get
	data := []byte(`{"records":100,"clusters":42}`)
	require.NoError(t, store.Put(ctx, "run-1/summary.json", data))

	got, err := store.Get(ctx, "run-1/summary.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Exists
	ok, err := store.Exists(ctx, "run-1/summary.json")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "run-1/missing.json")
	require.NoError(t, err)
	assert.False(t, ok)

	// List
	require.NoError(t, store.Put(ctx, "run-1/clusters.json", []byte("[]")))

	keys, err := store.List(ctx, "run-1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1/clusters.json", "run-1/summary.json"}, keys)

	// Get missing
	_, err = store.Get(ctx, "run-1/missing.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	// Delete
	require.NoError(t, store.Delete(ctx, "run-1/summary.json"))
	require.NoError(t, store.Delete(ctx, "run-1/clusters.json"))

	ok, err = store.Exists(ctx, "run-1/summary.json")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine
	require.NoError(t, store.Delete(ctx, "run-1/summary.json"))
}
