package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entigo/blobstore"
)

func TestIntegration_Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg)

	// Unique prefix per test run so parallel CI runs cannot collide.
	prefix := fmt.Sprintf("test-entigo-%d", time.Now().UnixNano())
	store := NewStore(client, bucket, prefix)

	key := "run-it/summary.go-json"
	data := []byte(`{"run_id":"run-it"}`)

	require.NoError(t, store.Put(ctx, key, data))

	defer func() {
		assert.NoError(t, store.Delete(ctx, key))
	}()

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := store.List(ctx, "run-it/")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	_, err = store.Get(ctx, "run-it/missing.go-json")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestIntegration_RunLedger(t *testing.T) {
	table := os.Getenv("DYNAMODB_TABLE")
	if table == "" {
		t.Skip("Skipping DynamoDB integration test: DYNAMODB_TABLE not set")
	}

	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	client := dynamodb.NewFromConfig(cfg)

	namespace := fmt.Sprintf("test-entigo-%d", time.Now().UnixNano())
	ledger := NewRunLedger(client, table, namespace)

	runID := "run-it"
	keys := []string{"run-it/summary.go-json", "run-it/clusters.go-json"}

	require.NoError(t, ledger.Register(ctx, runID, keys))

	defer func() {
		assert.NoError(t, ledger.Delete(ctx, runID))
	}()

	// The same run id must not register twice.
	require.ErrorIs(t, ledger.Register(ctx, runID, keys), ErrRunExists)

	entry, err := ledger.Lookup(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, keys, entry.Keys)

	runs, err := ledger.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{runID}, runs)
}
