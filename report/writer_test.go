package report

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/entigo"
	"github.com/hupe1980/entigo/blobstore"
	"github.com/hupe1980/entigo/codec"
	"github.com/hupe1980/entigo/record"
)

type fakeLedger struct {
	runID string
	keys  []string
	err   error
}

func (f *fakeLedger) Register(_ context.Context, runID string, keys []string) error {
	if f.err != nil {
		return f.err
	}

	f.runID = runID
	f.keys = keys

	return nil
}

func TestWriter_WriteAndReadBack(t *testing.T) {
	ctx := context.Background()
	result, records, sch := testRun(t)

	rep := New(result, records, sch, func(o *Options) {
		o.RunID = "run-wr"
	})

	store := blobstore.NewMemoryStore()
	w := NewWriter(store)

	keys, err := w.Write(ctx, rep)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-wr/summary.go-json", "run-wr/clusters.go-json"}, keys)

	got, err := ReadSummary(ctx, store, "run-wr")
	require.NoError(t, err)

	assert.Equal(t, rep.Summary.RunID, got.Summary.RunID)
	assert.Equal(t, rep.Summary.Matchers, got.Summary.Matchers)
	assert.Equal(t, rep.Summary.LargestCluster, got.Summary.LargestCluster)
	assert.True(t, got.Summary.CreatedAt.Equal(rep.Summary.CreatedAt))
	assert.Equal(t, rep.Previews, got.Previews)
	assert.Empty(t, got.Clusters)

	cs, err := ReadClusterSet(ctx, store, "run-wr")
	require.NoError(t, err)
	assert.Equal(t, "run-wr", cs.RunID)
	require.Len(t, cs.Clusters, 3)
	assert.Equal(t, ClusterInfo{Label: "cluster_a", Members: []record.ID{"a", "b", "c"}}, cs.Clusters[0])
}

func TestWriter_CompressedCodecAndLedger(t *testing.T) {
	ctx := context.Background()
	result, records, sch := testRun(t)

	rep := New(result, records, sch, func(o *Options) {
		o.RunID = "run-zstd"
	})

	store := blobstore.NewMemoryStore()
	ledger := &fakeLedger{}

	w := NewWriter(store, func(o *WriterOptions) {
		o.Codec = codec.Zstd{Base: codec.GoJSON{}}
		o.Ledger = ledger
	})

	keys, err := w.Write(ctx, rep)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-zstd/summary.go-json+zstd", "run-zstd/clusters.go-json+zstd"}, keys)

	// The ledger sees the run only after every artifact landed.
	assert.Equal(t, "run-zstd", ledger.runID)
	assert.Equal(t, keys, ledger.keys)

	// Readers resolve the compressed codec from the key suffix.
	cs, err := ReadClusterSet(ctx, store, "run-zstd")
	require.NoError(t, err)
	assert.Equal(t, "run-zstd", cs.RunID)
}

func TestWriter_LedgerFailure(t *testing.T) {
	ctx := context.Background()
	result, records, sch := testRun(t)

	rep := New(result, records, sch)

	ledgerErr := errors.New("run already registered")

	w := NewWriter(blobstore.NewMemoryStore(), func(o *WriterOptions) {
		o.Ledger = &fakeLedger{err: ledgerErr}
	})

	_, err := w.Write(ctx, rep)
	require.ErrorIs(t, err, ledgerErr)
}

func TestWriter_LogsArtifactWrites(t *testing.T) {
	ctx := context.Background()
	result, records, sch := testRun(t)

	rep := New(result, records, sch, func(o *Options) {
		o.RunID = "run-log"
	})

	var buf bytes.Buffer

	w := NewWriter(blobstore.NewMemoryStore(), func(o *WriterOptions) {
		o.Logger = entigo.NewLogger(slog.NewJSONHandler(&buf, nil))
	})

	_, err := w.Write(ctx, rep)
	require.NoError(t, err)

	logOutput := buf.String()
	require.Contains(t, logOutput, "artifact written")
	require.Contains(t, logOutput, "run-log/summary.go-json")
	require.Contains(t, logOutput, "run-log/clusters.go-json")
}

func TestReadSummary_Missing(t *testing.T) {
	ctx := context.Background()

	_, err := ReadSummary(ctx, blobstore.NewMemoryStore(), "no-such-run")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestReadArtifact_UnknownCodecSuffix(t *testing.T) {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "run-x/summary.msgpack", []byte("{}")))

	_, err := ReadSummary(ctx, store, "run-x")
	require.ErrorContains(t, err, "unknown codec suffix")
}
