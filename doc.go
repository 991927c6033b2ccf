// Package dphash implements a concurrent dynamic perfect hash table: a
// key-value map with worst-case O(1) lookup and expected amortized O(1)
// insertion and deletion, built as a thread-safe two-level realization of
// the Dietzfelbinger-Karlin-Mehlhorn-Meyer auf der Heide-Rohnert-Tarjan
// (FKS/DKM) dynamic perfect hashing scheme.
//
// A Map partitions its keys across an array of perfect subtables. Each
// subtable is a single-level, open-addressed bucket array whose hash is
// collision-free over the keys it currently holds; the top-level hash
// routes keys to subtables and is rebuilt, together with every subtable,
// whenever a global space-balance invariant would otherwise be violated.
//
// # Basic usage
//
//	m, err := dphash.New[int, string](0)
//	m.Insert(5, "hello")
//	v, ok := m.Get(5)
//	m.Erase(5)
//
// # Package structure
//
//   - Public API: dphash.go (New, Insert, Erase, Get, Count, Size, Rebuild)
//   - Configuration: options.go (Option, With* functions)
//   - Concurrency: lock.go (the upgradeable reader-writer lock)
//   - Key routing: keyhash.go (pre-hashing arbitrary keys to HF's domain)
//   - Full rebuild: rebuild_full.go (top-level rebalance + parallel subtable construction)
//   - Telemetry: telemetry.go (retry/rebuild events for WithTelemetry)
//   - Hash family: internal/hashfam (the affine universal hash family and its pre-hashers)
//   - Rejection sampling: internal/rebuild (the shared retry-until-predicate engine)
//   - Perfect subtables: internal/subtable (the inner collision-free layer)
package dphash
