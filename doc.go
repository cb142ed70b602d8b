// Package entigo provides an entity-resolution matching and clustering engine for Go.
//
// Entigo deduplicates record collections by running independent matchers over
// schema-tagged fields and merging the resulting candidate pairs into a
// partition of clusters:
//
//   - Schema binding: semantic field tags (NAME, EMAIL, ...) mapped to column names
//   - Deterministic matcher: rule-based comparison (exact, edit distance, token
//     names, canonical email) with cheap-key blocking
//   - Embedding matcher: pluggable embedding model + vector index, cosine
//     similarity threshold, two-phase build-then-query
//   - Cluster merger: union-find connected components, singletons included
//
// # Quick Start (Fluent API)
//
// Assemble a pipeline with the builder:
//
//	s, err := schema.New(map[schema.FieldTag]string{
//	    schema.TagName:  "full_name",
//	    schema.TagEmail: "email",
//	})
//	if err != nil {
//	    panic(err)
//	}
//
//	p, err := entigo.NewBuilder(s).
//	    NameRule(schema.TagName, 2, 0.9).  // token edit distance ≤ 2
//	    EmailRule(0.95).                   // canonical email equality
//	    Cleanser(cleanse.NewCleanser(s)).  // normalize before matching
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//
//	result, err := p.Run(ctx, records)
//	for _, c := range result.Clusters {
//	    fmt.Println(c.Label, c.Members)
//	}
//
// Add semantic matching with an embedding model and a vector index:
//
//	p, err := entigo.NewBuilder(s).
//	    NameRule(schema.TagName, 2, 0.9).
//	    Embedding(embed.NewHashingModel(), flat.Factory(), 0.92,
//	        schema.TagName, schema.TagAddress).
//	    Build()
//
// Matchers run concurrently; their pair sets are unioned (one pair per record
// pair, highest confidence wins) and merged into connected components.
//
// # Index Selection
//
// Choose the right index for your dataset:
//   - flat: exhaustive exact search, the correctness baseline
//   - hnsw: approximate in-memory search for large runs
//   - pgvector: PostgreSQL-backed search for runs whose vectors exceed memory
//
// # Run Artifacts
//
// Run outcomes persist as versioned artifacts (summary + cluster set) behind
// the blobstore interface, locally or in object storage:
//
//	rep := report.New(result, records, s)
//	w := report.NewWriter(blobstore.NewLocalStore("./runs"))
//	keys, _ := w.Write(ctx, rep)        // <run-id>/summary.go-json, <run-id>/clusters.go-json
//
//	store := s3.NewStore(client, "my-bucket", "entigo/")
//	w = report.NewWriter(store, func(o *report.WriterOptions) {
//	    o.Codec = codec.Zstd{Base: codec.GoJSON{}}
//	})
//
// Readers resolve the decoder from the key suffix, so codec choice is a
// per-run decision, not a deployment-wide one.
//
// # Cancellation
//
// Runs honor context cancellation. By default a cancelled run merges the pairs
// produced so far into a partial partition (Result.Stats.Partial reports this);
// with WithStrict(true) the run returns the context error instead.
package entigo
