// Package index provides vector index interfaces and implementations for
// embedding-based matching.
//
// Three implementations ship with the engine:
//
//   - flat: Exact nearest neighbor search (brute-force). The correctness
//     baseline: O(n) per query, O(n²) for a full run. Use it for tests and
//     small datasets.
//   - hnsw: Hierarchical Navigable Small World graph for fast approximate
//     search. Deterministic for a fixed seed and insert order.
//   - pgvector: PostgreSQL-backed index for runs whose vector sets exceed
//     memory.
//
// # Index Selection
//
// Choose based on record count and recall requirements:
//
//   - flat: <100K records, 100% recall required
//   - hnsw: 100K+ records, small recall loss acceptable
//   - pgvector: vector set larger than memory, or shared across processes
//
// All implementations order results by descending similarity and are safe
// for concurrent searches once the build phase has completed.
package index
