package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/entigo"
	"github.com/hupe1980/entigo/blobstore"
	"github.com/hupe1980/entigo/codec"
	"github.com/hupe1980/entigo/record"
)

// Ledger records which artifact keys belong to a run. Implemented by
// s3.RunLedger; nil disables ledger registration.
type Ledger interface {
	Register(ctx context.Context, runID string, keys []string) error
}

// ClusterSet is the cluster artifact. It duplicates the engine's cluster
// type on purpose: persisted artifacts keep a stable wire shape even if
// the engine types move.
type ClusterSet struct {
	RunID    string        `json:"run_id"`
	Clusters []ClusterInfo `json:"clusters"`
}

// ClusterInfo is one cluster in the persisted cluster set.
type ClusterInfo struct {
	Label   string      `json:"label"`
	Members []record.ID `json:"members"`
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Codec encodes the artifacts. Defaults to codec.Default.
	Codec codec.Codec

	// Ledger, if set, registers the run's keys after all artifacts are
	// written.
	Ledger Ledger

	// Logger logs artifact writes. Defaults to a noop logger.
	Logger *entigo.Logger
}

// Writer persists reports to a blob store.
type Writer struct {
	store  blobstore.Store
	codec  codec.Codec
	ledger Ledger
	logger *entigo.Logger
}

// NewWriter creates a report writer on top of the given store.
func NewWriter(store blobstore.Store, optFns ...func(o *WriterOptions)) *Writer {
	opts := WriterOptions{
		Codec:  codec.Default,
		Logger: entigo.NoopLogger(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Writer{
		store:  store,
		codec:  opts.Codec,
		ledger: opts.Ledger,
		logger: opts.Logger,
	}
}

// Write persists the report's artifacts and returns their keys, ledger
// registration included when a ledger is configured. Keys follow
// "<run-id>/<artifact>.<codec-name>".
func (w *Writer) Write(ctx context.Context, rep *Report) ([]string, error) {
	clusters := make([]ClusterInfo, 0, len(rep.Clusters))
	for _, c := range rep.Clusters {
		clusters = append(clusters, ClusterInfo{Label: c.Label, Members: c.Members})
	}

	artifacts := []struct {
		name    string
		payload any
	}{
		{name: "summary", payload: rep},
		{name: "clusters", payload: ClusterSet{RunID: rep.Summary.RunID, Clusters: clusters}},
	}

	keys := make([]string, 0, len(artifacts))

	for _, artifact := range artifacts {
		key := artifactKey(rep.Summary.RunID, artifact.name, w.codec.Name())

		data, err := w.codec.Marshal(artifact.payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", artifact.name, err)
		}

		err = w.store.Put(ctx, key, data)
		w.logger.LogPersist(ctx, key, err)

		if err != nil {
			return nil, fmt.Errorf("write %s: %w", key, err)
		}

		keys = append(keys, key)
	}

	if w.ledger != nil {
		if err := w.ledger.Register(ctx, rep.Summary.RunID, keys); err != nil {
			return nil, fmt.Errorf("register run %s: %w", rep.Summary.RunID, err)
		}
	}

	return keys, nil
}

// ReadSummary loads a run's summary artifact, resolving the codec from
// the key suffix. The returned report carries no clusters; use
// ReadClusterSet for those.
func ReadSummary(ctx context.Context, store blobstore.Store, runID string) (*Report, error) {
	var rep Report
	if err := readArtifact(ctx, store, runID, "summary", &rep); err != nil {
		return nil, err
	}

	return &rep, nil
}

// ReadClusterSet loads a run's cluster artifact.
func ReadClusterSet(ctx context.Context, store blobstore.Store, runID string) (*ClusterSet, error) {
	var cs ClusterSet
	if err := readArtifact(ctx, store, runID, "clusters", &cs); err != nil {
		return nil, err
	}

	return &cs, nil
}

func readArtifact(ctx context.Context, store blobstore.Store, runID, name string, v any) error {
	prefix := runID + "/" + name + "."

	keys, err := store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list %s: %w", prefix, err)
	}

	if len(keys) == 0 {
		return fmt.Errorf("artifact %s for run %s: %w", name, runID, blobstore.ErrNotFound)
	}

	key := keys[0]

	c, ok := codec.ByName(strings.TrimPrefix(key, prefix))
	if !ok {
		return fmt.Errorf("artifact %s: unknown codec suffix", key)
	}

	data, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	if err := c.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

func artifactKey(runID, name, codecName string) string {
	return runID + "/" + name + "." + codecName
}
