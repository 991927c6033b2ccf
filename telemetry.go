package dphash

import "github.com/cespare/xxhash/v2"

// EventKind identifies the kind of telemetry event reported through
// WithTelemetry.
type EventKind int

const (
	// EventLocalRebuildRetry fires once per rejected hash draw while a
	// perfect subtable searches for an injective hash.
	EventLocalRebuildRetry EventKind = iota
	// EventFullRebuildRetry fires once per rejected top-level hash draw
	// while the top-level table searches for a balanced distribution.
	EventFullRebuildRetry
	// EventFullRebuildDone fires once a full rebuild commits.
	EventFullRebuildDone
)

// Event is reported to a WithTelemetry hook. Attempt is the 1-based retry
// count for *Retry events and 0 for *Done events. BatchFingerprint is set
// only on EventFullRebuildDone (0 on other events): a cheap,
// order-independent xxhash/v2 digest of the rebuilt key set's pre-hashed
// domain values, letting a telemetry sink recognise rebuilds of the same
// key set without retaining the whole key list.
type Event struct {
	Kind             EventKind
	Attempt          int
	BatchFingerprint uint64
}

// batchFingerprint folds a batch of pre-hashed domain values into one
// order-independent uint64 via XOR, then finalizes with xxhash/v2 so two
// batches that merely reorder the same keys report the same fingerprint.
func batchFingerprint(keys []uint64) uint64 {
	var acc uint64
	for _, k := range keys {
		acc ^= k
	}
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(acc >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}
