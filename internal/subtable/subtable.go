// Package subtable implements the perfect subtable (PS): a single-level,
// open-addressed bucket array whose hash is collision-free (perfect) over
// the keys it currently holds. It is the inner layer of the two-level
// table; the outer layer (the root package's Map) owns one subtable per
// top-level slot.
package subtable

import (
	"github.com/tamirms/dphash/internal/hashfam"
	"github.com/tamirms/dphash/internal/rebuild"
)

// Pair is an immutable key plus a mutable value. K is the pre-hashed
// uint64 domain value HF operates on; it is cached alongside the original
// key so a local rebuild never needs to re-run the pre-hasher.
type Pair[K comparable, V any] struct {
	K     uint64
	Key   K
	Value V
}

// Table is a single perfect subtable PS_j.
//
// Capacity and bucket-array sizing follow invariant I2 exactly:
// m = 2*max(1, n), s = 2*m*(m-1). A Table never shrinks m on its own; it
// only grows, on Insert overflow or an explicit Reserve.
type Table[K comparable, V any] struct {
	family  *hashfam.Family
	hash    hashfam.Hash
	buckets []*Pair[K, V]
	n, m    int
	onRetry func(attempt int)
}

func capacityFor(n0 int) int {
	if n0 < 1 {
		n0 = 1
	}
	return 2 * n0
}

// CapacityFor returns m = 2*max(1, n0), the capacity invariant I2
// prescribes for n0 live pairs. Exported for the same reason as
// BucketCountFor.
func CapacityFor(n0 int) int { return capacityFor(n0) }

func bucketCountFor(m int) int {
	return 2 * m * (m - 1)
}

// BucketCountFor returns s = 2*m*(m-1), the bucket-array size invariant I2
// prescribes for capacity m. Exported so the top-level table can predict a
// subtable's bucket count at a hypothetical capacity before actually
// growing it, when checking the global balance invariant.
func BucketCountFor(m int) int { return bucketCountFor(m) }

// New constructs an empty subtable sized for sizeHint pairs, per I2:
// m = 2*max(1, sizeHint).
func New[K comparable, V any](family *hashfam.Family, sizeHint int, onRetry func(int)) (*Table[K, V], error) {
	m := capacityFor(sizeHint)
	s := bucketCountFor(m)
	h, err := family.Draw(s)
	if err != nil {
		return nil, err
	}
	return &Table[K, V]{
		family:  family,
		hash:    h,
		buckets: make([]*Pair[K, V], s),
		m:       m,
		onRetry: onRetry,
	}, nil
}

// NewFrom bulk-constructs a subtable from a list of pairs with distinct
// keys (the precondition belongs to the caller: the top-level table must
// never hand NewFrom a list containing a duplicate key). It sets m from
// len(pairs) per I2, finds a hash perfect on pairs by rejection sampling,
// then places every pair.
func NewFrom[K comparable, V any](family *hashfam.Family, pairs []Pair[K, V], onRetry func(int)) (*Table[K, V], error) {
	m := capacityFor(len(pairs))
	s := bucketCountFor(m)
	t := &Table[K, V]{
		family:  family,
		buckets: make([]*Pair[K, V], s),
		m:       m,
		n:       len(pairs),
		onRetry: onRetry,
	}
	h, err := rebuild.Sample(
		func() (hashfam.Hash, error) { return family.Draw(s) },
		func(h hashfam.Hash) bool { return isInjective(h, pairs) },
		onRetry,
	)
	if err != nil {
		return nil, err
	}
	t.hash = h
	t.place(pairs)
	return t, nil
}

func isInjective[K comparable, V any](h hashfam.Hash, pairs []Pair[K, V]) bool {
	seen := make(map[int]struct{}, len(pairs))
	for _, p := range pairs {
		slot := h.Apply(p.K)
		if _, dup := seen[slot]; dup {
			return false
		}
		seen[slot] = struct{}{}
	}
	return true
}

// place writes pairs into t.buckets, which must already be a freshly
// zeroed array sized for t.hash's range.
func (t *Table[K, V]) place(pairs []Pair[K, V]) {
	for i := range pairs {
		p := &pairs[i]
		t.buckets[t.hash.Apply(p.K)] = p
	}
}

// Len returns n_j, the number of live pairs.
func (t *Table[K, V]) Len() int { return t.n }

// Cap returns m_j, the current capacity.
func (t *Table[K, V]) Cap() int { return t.m }

// BucketLen returns s_j = |T|, the bucket array size.
func (t *Table[K, V]) BucketLen() int { return len(t.buckets) }

// Get returns the value stored for k/key, or ok=false if absent.
func (t *Table[K, V]) Get(k uint64, key K) (V, bool) {
	idx := t.hash.Apply(k)
	if p := t.buckets[idx]; p != nil && p.Key == key {
		return p.Value, true
	}
	var zero V
	return zero, false
}

// Count returns 1 if key is present, 0 otherwise.
func (t *Table[K, V]) Count(k uint64, key K) int {
	idx := t.hash.Apply(k)
	if p := t.buckets[idx]; p != nil && p.Key == key {
		return 1
	}
	return 0
}

// Pairs returns every live pair, for extraction during a full rebuild.
func (t *Table[K, V]) Pairs() []Pair[K, V] {
	out := make([]Pair[K, V], 0, t.n)
	for _, p := range t.buckets {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Insert stores key/value under pre-hashed domain value k. It returns
// false without mutating anything if key is already present (duplicate
// rejection is a no-op even when it would otherwise trigger a rebuild).
//
// A local rebuild is triggered when n would exceed m, or when the bucket
// the new pair hashes to is already occupied by a different key; either
// condition means the current hash is no longer usable as a perfect hash
// for this subtable's contents.
func (t *Table[K, V]) Insert(k uint64, key K, value V) bool {
	if _, ok := t.Get(k, key); ok {
		return false
	}
	idx := t.hash.Apply(k)
	needsRebuild := t.n+1 > t.m || t.buckets[idx] != nil
	if needsRebuild {
		t.localRebuild(&Pair[K, V]{K: k, Key: key, Value: value})
		return true
	}
	t.buckets[idx] = &Pair[K, V]{K: k, Key: key, Value: value}
	t.n++
	return true
}

// Erase removes key if present, returning 1, or 0 if it was absent.
// m and the hash are left unchanged: PS never shrinks on deletion.
func (t *Table[K, V]) Erase(k uint64, key K) int {
	idx := t.hash.Apply(k)
	if p := t.buckets[idx]; p != nil && p.Key == key {
		t.buckets[idx] = nil
		t.n--
		return 1
	}
	return 0
}

// Reserve grows m (never shrinks it) to at least 2*max(1, n0) and rebuilds
// if capacity actually increased.
func (t *Table[K, V]) Reserve(n0 int) error {
	target := capacityFor(n0)
	if target <= t.m {
		return nil
	}
	t.m = target
	return t.localRebuildNoExtra()
}

// Clear empties every bucket, resetting n to 0 while keeping m and the
// bucket array size.
func (t *Table[K, V]) Clear() {
	clear(t.buckets)
	t.n = 0
}

// localRebuild collects every live pair (plus extra), grows m until it
// again covers n, then rejection-samples a hash perfect over the combined
// scratch list and re-places everything.
//
// family.Draw only fails once the bucket array size reaches the process's
// hash prime P (WithHashPrime), which with the default prime happens once a
// single subtable's capacity m passes about 46,000 (tens of thousands of
// pairs); the top-level table's balance invariant (I5) keeps
// subtables from ever approaching that size in practice, so this path
// panics rather than threading an error through Insert's bool-returning
// public contract.
func (t *Table[K, V]) localRebuild(extra *Pair[K, V]) {
	scratch := t.Pairs()
	if extra != nil {
		scratch = append(scratch, *extra)
	}
	for len(scratch) > t.m {
		t.m *= 2
	}
	if err := t.rebuildFor(scratch); err != nil {
		panic(err)
	}
}

func (t *Table[K, V]) localRebuildNoExtra() error {
	return t.rebuildFor(t.Pairs())
}

func (t *Table[K, V]) rebuildFor(scratch []Pair[K, V]) error {
	s := bucketCountFor(t.m)
	h, err := rebuild.Sample(
		func() (hashfam.Hash, error) { return t.family.Draw(s) },
		func(h hashfam.Hash) bool { return isInjective(h, scratch) },
		t.onRetry,
	)
	if err != nil {
		return err
	}
	t.buckets = make([]*Pair[K, V], s)
	t.hash = h
	t.n = len(scratch)
	t.place(scratch)
	return nil
}
