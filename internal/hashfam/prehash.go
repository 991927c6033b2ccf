package hashfam

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// PreHasher turns an arbitrary key representation into a uniform uint64,
// the domain HF's affine family operates on. Real keys (strings, UUIDs,
// sequential integers) are rarely uniform, so every lookup and insert
// pre-hashes the key before applying the drawn affine function, a
// two-stage design that keeps the affine family's uniformity assumption
// valid regardless of how skewed the caller's actual keys are.
type PreHasher interface {
	// HashBytes pre-hashes an arbitrary byte string.
	HashBytes(b []byte) uint64
	// HashUint64 pre-hashes a native integer key without going through a
	// byte-slice allocation.
	HashUint64(x uint64) uint64
	// Name identifies the underlying algorithm, for telemetry/diagnostics.
	Name() string
}

// XXH3PreHasher pre-hashes with github.com/zeebo/xxh3, a fast
// non-cryptographic hash well suited to turning arbitrary keys into
// uniformly distributed values. This is the default.
type XXH3PreHasher struct{}

func (XXH3PreHasher) HashBytes(b []byte) uint64 { return xxh3.Hash(b) }

func (XXH3PreHasher) HashUint64(x uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return xxh3.Hash(buf[:])
}

func (XXH3PreHasher) Name() string { return "xxh3" }

// Murmur3PreHasher pre-hashes with github.com/spaolacci/murmur3, an
// alternate non-cryptographic hash offering comparable distribution
// quality to XXH3PreHasher.
type Murmur3PreHasher struct{}

func (Murmur3PreHasher) HashBytes(b []byte) uint64 { return murmur3.Sum64(b) }

func (Murmur3PreHasher) HashUint64(x uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return murmur3.Sum64(buf[:])
}

func (Murmur3PreHasher) Name() string { return "murmur3" }

// XXHashPreHasher pre-hashes with github.com/cespare/xxhash/v2, a
// streaming non-cryptographic hash. It is offered as a third pluggable
// pre-hasher; the same library is also called directly for telemetry batch
// fingerprints (see the root package's telemetry.go), independent of
// whichever pre-hasher routes keys.
type XXHashPreHasher struct{}

func (XXHashPreHasher) HashBytes(b []byte) uint64 { return xxhash.Sum64(b) }

func (XXHashPreHasher) HashUint64(x uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	return xxhash.Sum64(buf[:])
}

func (XXHashPreHasher) Name() string { return "xxhash" }
