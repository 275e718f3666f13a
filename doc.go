// Package hypervec is an embedded vector-symbolic engine for behavioral
// profiles.
//
// It combines four pieces behind one Engine:
//
//   - profiles: dense hypervectors that accumulate interactions, structured
//     facts and external embeddings (package profile)
//   - a deterministic codebook mapping symbols to hypervectors (package codebook)
//   - streaming clustering of sparse Z16384 item vectors into bounded-size
//     anchors (packages sparse, anchor, pipeline)
//   - approximate nearest neighbor retrieval over dense vectors (package ann)
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, _ := hypervec.New(
//	    hypervec.WithDimensions(10000, 100000),
//	    hypervec.WithStore(kv.NewMemoryStore()),
//	)
//	defer eng.Close()
//
//	_ = eng.Interaction(ctx, "view", "sku-123")
//	q, _ := eng.ExportQuantized(10000) // []int16, exactly 10000 long
//
// # Clustering
//
// Sparse vectors are observed asynchronously. Bursts are debounced and
// learned in batches on a background goroutine started by Start:
//
//	_ = eng.Start(ctx)
//	_ = eng.Observe(ctx, "sku-123", sparse.Generate("sku-123", 16384, 5))
//
// After every pass the anchors are persisted to the store and, if a sink is
// configured, a snapshot is published to it for other instances.
//
// # Retrieval
//
//	id, _ := eng.Index(ctx, ann.DataPoint{Vector: v, Payload: "sku-123"})
//	hits, _ := eng.Similar(ctx, query, 10)
//	recs, _ := eng.Recommend(ctx, 10) // nearest points to the normalized profile
//
// # Persistence
//
// Persist writes the profiles (key "profile/<dims>") and anchors (key
// "anchors") to the configured kv.Store; Restore reads them back. Writes
// are not transactional: a crash between a mutation and Persist loses the
// mutation.
//
// # Concurrency
//
// All Engine methods are safe for concurrent use.
package hypervec
