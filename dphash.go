package dphash

import (
	"hash/maphash"

	"github.com/tamirms/dphash/internal/hashfam"
	"github.com/tamirms/dphash/internal/subtable"
)

// Map is a concurrent dynamic perfect hash table: the top-level table of
// the two-level FKS/DKM construction. The zero Map is not usable; use New.
type Map[K comparable, V any] struct {
	lock   upgradableLock
	cfg    *config
	family *hashfam.Family
	seed   maphash.Seed

	hash  hashfam.Hash
	slots []*subtable.Table[K, V]

	n         int // total live pairs, invariant I3
	op        int // successful inserts+erases since the last full rebuild, I6
	threshold int // M, invariant I4
}

// pendingPair is a not-yet-inserted pair carried into a full rebuild so
// the rebuild can place it alongside every existing pair in one pass,
// rather than rebuilding twice.
type pendingPair[K comparable, V any] struct {
	k     uint64
	key   K
	value V
}

// New constructs an empty Map, or an error if the supplied options
// describe a configuration the DKM analysis does not support. sizeHint
// seeds the initial threshold M = (1+c)*max(sizeHint, 4) (invariant I4);
// 0 is a reasonable default for an unknown final size.
func New[K comparable, V any](sizeHint int, opts ...Option) (*Map[K, V], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Map[K, V]{
		cfg:    cfg,
		family: hashfam.New(cfg.hashPrime),
		seed:   maphash.MakeSeed(),
	}
	m.resetEmpty(sizeHint)
	return m, nil
}

// resetEmpty (re)initializes the map to the empty-table shape for a
// threshold derived from n0: M = (1+c)*max(n0,4), |A| = s(M), h fresh over
// s(M), every slot null, n = op = 0. This is both New's initializer and
// the full-rebuild path for an empty key list.
func (m *Map[K, V]) resetEmpty(n0 int) {
	threshold := m.cfg.threshold(n0)
	size := m.cfg.topLevelSize(threshold)
	h, err := m.family.Draw(size)
	if err != nil {
		// Unreachable for any sane WithHashPrime/WithTopScale combination:
		// size is derived from the configured constants, not from caller
		// input, so an OutOfRange here means the configuration itself is
		// broken and New/Rebuild should fail loudly rather than limp on.
		panic(err)
	}
	m.hash = h
	m.slots = make([]*subtable.Table[K, V], size)
	m.n = 0
	m.op = 0
	m.threshold = threshold
}

// Size returns n, the number of live pairs.
func (m *Map[K, V]) Size() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.n
}

// Get returns the value stored for key, or ok=false if key is absent. It
// takes at most two hashes and two bucket reads regardless of n or
// history (P9): one to find the subtable, one inside it.
func (m *Map[K, V]) Get(key K) (V, bool) {
	k := m.preHashKey(key)
	m.lock.RLock()
	defer m.lock.RUnlock()
	ps := m.slots[m.hash.Apply(k)]
	if ps == nil {
		var zero V
		return zero, false
	}
	return ps.Get(k, key)
}

// Count returns 1 if key is present, 0 otherwise.
func (m *Map[K, V]) Count(key K) int {
	k := m.preHashKey(key)
	m.lock.RLock()
	defer m.lock.RUnlock()
	ps := m.slots[m.hash.Apply(k)]
	if ps == nil {
		return 0
	}
	return ps.Count(k, key)
}

// Insert stores key/value and returns true, unless key is already
// present, in which case it returns false and leaves the map unchanged.
func (m *Map[K, V]) Insert(key K, value V) bool {
	k := m.preHashKey(key)

	m.lock.URLock()
	defer m.lock.URUnlock()

	j := m.hash.Apply(k)
	if ps := m.slots[j]; ps != nil && ps.Count(k, key) == 1 {
		return false
	}

	m.lock.Upgrade()
	defer m.lock.Downgrade()

	// Re-run the duplicate check: Upgrade released and reacquired the
	// lock, so the read that justified the upgrade must be repeated.
	// The upg mutex keeps other inserts and erases out of that gap, but
	// Rebuild takes the exclusive lock directly and can run in it,
	// replacing m.hash and m.slots.
	j = m.hash.Apply(k)
	ps := m.slots[j]
	if ps != nil && ps.Count(k, key) == 1 {
		return false
	}

	m.n++
	m.op++
	if m.op > m.threshold {
		m.fullRebuild(&pendingPair[K, V]{k: k, key: key, value: value})
		return true
	}

	if ps == nil {
		var err error
		ps, err = subtable.New[K, V](m.family, 0, m.onLocalRetry)
		if err != nil {
			panic(err) // unreachable: see resetEmpty
		}
		m.slots[j] = ps
	}

	if ps.Len()+1 <= ps.Cap() {
		ps.Insert(k, key, value)
		return true
	}

	if m.balanceHoldsDoubled(j) {
		// ps.Insert triggers PS's own local rebuild at doubled capacity;
		// I5 has already been checked to hold for that doubled size.
		ps.Insert(k, key, value)
		return true
	}

	m.fullRebuild(&pendingPair[K, V]{k: k, key: key, value: value})
	return true
}

// Erase removes key if present and returns 1, or 0 if it was absent.
func (m *Map[K, V]) Erase(key K) int {
	k := m.preHashKey(key)

	m.lock.URLock()
	defer m.lock.URUnlock()

	j := m.hash.Apply(k)
	ps := m.slots[j]
	if ps == nil || ps.Count(k, key) == 0 {
		return 0
	}

	m.lock.Upgrade()
	defer m.lock.Downgrade()

	j = m.hash.Apply(k)
	ps = m.slots[j]
	if ps == nil || ps.Count(k, key) == 0 {
		return 0
	}

	erased := ps.Erase(k, key)
	if erased == 1 {
		m.n--
		m.op++
		if m.op >= m.threshold {
			m.fullRebuild(nil)
		}
	}
	return erased
}

// Rebuild forces a full rebuild: a test hook, not needed for normal
// operation.
func (m *Map[K, V]) Rebuild() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.fullRebuild(nil)
}

// onLocalRetry and onFullRetry adapt the shared rebuild engine's
// attempt-counter callback into telemetry Events. They are cheap no-ops
// when WithTelemetry was never set.
func (m *Map[K, V]) onLocalRetry(attempt int) {
	if m.cfg.telemetry != nil {
		m.cfg.telemetry(Event{Kind: EventLocalRebuildRetry, Attempt: attempt})
	}
}

func (m *Map[K, V]) onFullRetry(attempt int) {
	if m.cfg.telemetry != nil {
		m.cfg.telemetry(Event{Kind: EventFullRebuildRetry, Attempt: attempt})
	}
}
