package dphash

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tamirms/dphash/internal/hashfam"
	"github.com/tamirms/dphash/internal/rebuild"
	"github.com/tamirms/dphash/internal/subtable"
)

// fullRebuild reconstructs the entire map from scratch: every live pair
// plus, if the rebuild was triggered by an insert, the one pair still
// pending insertion. It is called with the lock already held exclusively.
func (m *Map[K, V]) fullRebuild(extra *pendingPair[K, V]) {
	all := m.collectAllPairs(extra)
	if len(all) == 0 {
		m.resetEmpty(0)
		return
	}

	threshold := m.cfg.threshold(len(all))
	size := m.cfg.topLevelSize(threshold)

	var partition [][]subtable.Pair[K, V]
	h, err := rebuild.Sample(
		func() (hashfam.Hash, error) { return m.family.Draw(size) },
		func(candidate hashfam.Hash) bool {
			partition = partitionBy(candidate, all, size)
			return balanceHolds(sumPartitionSJ(partition), threshold, size)
		},
		m.onFullRetry,
	)
	if err != nil {
		// Unreachable for any sane configuration: see resetEmpty.
		panic(err)
	}

	slots := buildSlots(m.family, partition, m.onLocalRetry, m.cfg.rebuildWorkers)

	m.hash = h
	m.slots = slots
	m.n = len(all)
	m.op = 0
	m.threshold = threshold

	if m.cfg.telemetry != nil {
		m.cfg.telemetry(Event{Kind: EventFullRebuildDone, BatchFingerprint: batchFingerprint(keysOf(all))})
	}
}

// collectAllPairs gathers every live pair across every subtable, plus
// extra if the rebuild was triggered by a not-yet-placed insert. m.n has
// already been incremented for extra by the caller (Insert), so the
// returned slice's length always equals m.n for the insert path and m.n
// for the erase path too (erase decrements before calling fullRebuild).
func (m *Map[K, V]) collectAllPairs(extra *pendingPair[K, V]) []subtable.Pair[K, V] {
	all := make([]subtable.Pair[K, V], 0, m.n)
	for _, ps := range m.slots {
		if ps != nil {
			all = append(all, ps.Pairs()...)
		}
	}
	if extra != nil {
		all = append(all, subtable.Pair[K, V]{K: extra.k, Key: extra.key, Value: extra.value})
	}
	return all
}

// partitionBy buckets pairs by h.Apply(p.K) into size groups, one per
// prospective top-level slot.
func partitionBy[K comparable, V any](h hashfam.Hash, pairs []subtable.Pair[K, V], size int) [][]subtable.Pair[K, V] {
	out := make([][]subtable.Pair[K, V], size)
	for _, p := range pairs {
		j := h.Apply(p.K)
		out[j] = append(out[j], p)
	}
	return out
}

// sumPartitionSJ predicts Sigma s_j for a candidate partition without
// constructing any subtable: each non-empty group's eventual bucket-array
// size is determined entirely by its length, per invariant I2.
func sumPartitionSJ[K comparable, V any](partition [][]subtable.Pair[K, V]) int {
	sum := 0
	for _, group := range partition {
		if len(group) == 0 {
			continue
		}
		sum += subtable.BucketCountFor(subtable.CapacityFor(len(group)))
	}
	return sum
}

// balanceHolds checks invariant I5, Sigma s_j <= 32*M^2/s(M) + 4*M, in the
// integer-safe rearranged form (Sigma s_j - 4*M)*s(M) <= 32*M^2, which
// avoids the rounding a direct integer division would introduce.
func balanceHolds(sumSJ, threshold, sOfM int) bool {
	lhs := sumSJ - 4*threshold
	if lhs <= 0 {
		return true
	}
	return lhs*sOfM <= 32*threshold*threshold
}

// sumCurrentSJ sums the actual allocated bucket-array size across every
// live subtable, for the cheap incremental I5 check Insert runs before
// growing a single subtable locally instead of rebuilding everything.
func (m *Map[K, V]) sumCurrentSJ() int {
	sum := 0
	for _, ps := range m.slots {
		if ps != nil {
			sum += ps.BucketLen()
		}
	}
	return sum
}

// balanceHoldsDoubled reports whether I5 would still hold if slot j's
// subtable doubled its capacity (and therefore roughly quadrupled its
// bucket-array size) while every other subtable stayed exactly as it is.
// Insert uses this to decide between a cheap local grow and a full
// rebuild when a subtable is about to overflow.
func (m *Map[K, V]) balanceHoldsDoubled(j int) bool {
	ps := m.slots[j]
	oldSJ := ps.BucketLen()
	newSJ := subtable.BucketCountFor(ps.Cap() * 2)
	sum := m.sumCurrentSJ() - oldSJ + newSJ
	return balanceHolds(sum, m.threshold, len(m.slots))
}

// buildSlots constructs one subtable per non-empty partition group,
// fanning the independent constructions out across an errgroup: every
// group's perfect hash is found and placed with no shared state between
// groups, so there is nothing to synchronize beyond collecting results.
func buildSlots[K comparable, V any](family *hashfam.Family, partition [][]subtable.Pair[K, V], onRetry func(int), workers int) []*subtable.Table[K, V] {
	slots := make([]*subtable.Table[K, V], len(partition))
	g := new(errgroup.Group)
	if workers > 0 {
		g.SetLimit(workers)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}
	for j, group := range partition {
		if len(group) == 0 {
			continue
		}
		g.Go(func() error {
			t, err := subtable.NewFrom[K, V](family, group, onRetry)
			if err != nil {
				return err
			}
			slots[j] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Unreachable alongside fullRebuild's own panic: see resetEmpty.
		panic(err)
	}
	return slots
}

// keysOf extracts the pre-hashed domain values for a telemetry fingerprint.
func keysOf[K comparable, V any](pairs []subtable.Pair[K, V]) []uint64 {
	out := make([]uint64, len(pairs))
	for i, p := range pairs {
		out[i] = p.K
	}
	return out
}
