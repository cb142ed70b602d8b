// Package pgvector provides a vector index backed by PostgreSQL with the
// pgvector extension. Vectors live in a dedicated table with an ivfflat
// cosine index and similarity queries run server-side through the <=>
// distance operator. It suits corpora too large for an in-memory index, or
// runs that want candidate search close to data already in Postgres.
//
// The backing table is truncated when the index is created, so every index
// starts its run empty. Accuracy follows ivfflat behaviour: results are
// exact while the planner scans sequentially and approximate once it
// switches to the ANN index.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lib/pq"

	"github.com/hupe1980/entigo/index"
	"github.com/hupe1980/entigo/metric"
)

// Compile time check to ensure PGVector satisfies the Index interface.
var _ index.Index = (*PGVector)(nil)

// Options contains configuration options for the pgvector index.
type Options struct {
	// Table is the name of the table holding the vectors. It is created if
	// missing and truncated on New.
	Table string

	// Lists is the ivfflat list count used when creating the ANN index.
	Lists int

	// Metric selects the similarity measure. Only cosine is supported.
	Metric metric.Metric

	// MaxIdleConns bounds the idle connections kept by the pool.
	MaxIdleConns int

	// ConnMaxLifetime bounds how long a pooled connection is reused.
	ConnMaxLifetime time.Duration
}

// DefaultOptions contains the default configuration options for the
// pgvector index.
var DefaultOptions = Options{
	Table:           "entigo_vectors",
	Lists:           100,
	Metric:          metric.MetricCosine,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
}

// PGVector is the Postgres-backed index.
type PGVector struct {
	db         *sql.DB
	ownsDB     bool
	dimensions int
	table      string

	count   atomic.Uint32
	writeMu sync.Mutex

	opts Options
}

// New opens a connection pool for dsn and prepares the backing table. The
// pool is owned by the index and released by Close.
func New(ctx context.Context, dsn string, dimensions int, optFns ...func(o *Options)) (*PGVector, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := validate(dimensions, opts); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	p, err := newIndex(ctx, db, true, dimensions, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return p, nil
}

// FromDB prepares the backing table on an existing pool. The pool stays
// owned by the caller; Close is a no-op.
func FromDB(ctx context.Context, db *sql.DB, dimensions int, optFns ...func(o *Options)) (*PGVector, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := validate(dimensions, opts); err != nil {
		return nil, err
	}

	return newIndex(ctx, db, false, dimensions, opts)
}

// Factory returns an index.Factory producing pgvector indexes against dsn
// with the given options.
func Factory(dsn string, optFns ...func(o *Options)) index.Factory {
	return func(dimensions int) (index.Index, error) {
		return New(context.Background(), dsn, dimensions, optFns...)
	}
}

func validate(dimensions int, opts Options) error {
	if dimensions <= 0 {
		return &index.ErrInvalidDimension{Dimension: dimensions}
	}

	if opts.Metric != metric.MetricCosine {
		return &index.ErrUnsupportedMetric{Metric: opts.Metric}
	}

	return nil
}

func newIndex(ctx context.Context, db *sql.DB, ownsDB bool, dimensions int, opts Options) (*PGVector, error) {
	p := &PGVector{
		db:         db,
		ownsDB:     ownsDB,
		dimensions: dimensions,
		table:      opts.Table,
		opts:       opts,
	}

	if err := p.ensureTable(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *PGVector) ensureTable(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id integer PRIMARY KEY,
			embedding vector(%d) NOT NULL
		)`, p.quotedTable(), p.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d)`,
			pq.QuoteIdentifier(p.table+"_embedding_idx"), p.quotedTable(), p.opts.Lists),
		fmt.Sprintf(`TRUNCATE TABLE %s`, p.quotedTable()),
	}

	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure table %s: %w", p.table, err)
		}
	}

	return nil
}

// Insert implements index.Index.
func (p *PGVector) Insert(ctx context.Context, v []float32) (uint32, error) {
	if len(v) != p.dimensions {
		return 0, &index.ErrDimensionMismatch{Expected: p.dimensions, Actual: len(v)}
	}

	literal := toVectorLiteral(v)

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	// The slot id only advances on success, so ids stay sequential even
	// when an insert fails mid-build.
	id := p.count.Load()

	query := fmt.Sprintf(`INSERT INTO %s (id, embedding) VALUES ($1, $2::vector)`, p.quotedTable())
	if _, err := p.db.ExecContext(ctx, query, int64(id), literal); err != nil {
		return 0, fmt.Errorf("insert vector: %w", err)
	}

	p.count.Store(id + 1)

	return id, nil
}

// Search implements index.Index.
func (p *PGVector) Search(ctx context.Context, q []float32, k int) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	if len(q) != p.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: p.dimensions, Actual: len(q)}
	}

	query := fmt.Sprintf(`SELECT id, 1 - (embedding <=> $1::vector) AS similarity
		FROM %s
		ORDER BY embedding <=> $1::vector, id
		LIMIT $2`, p.quotedTable())

	rows, err := p.db.QueryContext(ctx, query, toVectorLiteral(q), k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return scanResults(rows)
}

// SearchByRadius implements index.Index.
func (p *PGVector) SearchByRadius(ctx context.Context, q []float32, radius float32) ([]index.SearchResult, error) {
	if radius < 0 || radius > 1 {
		return nil, index.ErrInvalidRadius
	}

	if len(q) != p.dimensions {
		return nil, &index.ErrDimensionMismatch{Expected: p.dimensions, Actual: len(q)}
	}

	query := fmt.Sprintf(`SELECT id, 1 - (embedding <=> $1::vector) AS similarity
		FROM %s
		WHERE 1 - (embedding <=> $1::vector) >= $2
		ORDER BY embedding <=> $1::vector, id`, p.quotedTable())

	rows, err := p.db.QueryContext(ctx, query, toVectorLiteral(q), float64(radius))
	if err != nil {
		return nil, fmt.Errorf("search by radius: %w", err)
	}

	return scanResults(rows)
}

// Dimensions implements index.Index.
func (p *PGVector) Dimensions() int {
	return p.dimensions
}

// Len implements index.Index.
func (p *PGVector) Len() int {
	return int(p.count.Load())
}

// Close releases the connection pool when the index owns it.
func (p *PGVector) Close() error {
	if !p.ownsDB {
		return nil
	}

	return p.db.Close()
}

func (p *PGVector) quotedTable() string {
	return pq.QuoteIdentifier(p.table)
}

func scanResults(rows *sql.Rows) ([]index.SearchResult, error) {
	defer rows.Close()

	results := make([]index.SearchResult, 0)

	for rows.Next() {
		var (
			id  int64
			sim float64
		)

		if err := rows.Scan(&id, &sim); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		results = append(results, index.SearchResult{ID: uint32(id), Similarity: float32(sim)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

// toVectorLiteral renders v in pgvector's text input format, e.g. "[0.5,1]".
func toVectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}

	return "[" + strings.Join(parts, ",") + "]"
}
