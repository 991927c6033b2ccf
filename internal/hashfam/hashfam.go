// Package hashfam implements the pluggable random hash family used by both
// table layers: universal affine hashes of the form
//
//	h(k) = ((a*k + b) mod P) mod R
//
// drawn uniformly from {1 <= a < P, 0 <= b < P} over a process-wide prime P.
package hashfam

import (
	"math/bits"
	"math/rand/v2"

	"github.com/tamirms/dphash/errors"
)

// DefaultPrime is the 32-bit prime used when no WithHashPrime option is
// supplied. It is larger than any realistic range R this package draws
// over, so ((a*k+b) mod P) never needs more than 64-bit arithmetic: a, b,
// and k mod P are all < 2^32, so a*(k mod P)+b fits in a uint64 without
// risk of overflow.
const DefaultPrime uint64 = 4294967291

// Hash is a single drawn affine hash function. It is an immutable value
// type: a Family hands one out, the caller stores it, and a rebuild
// replaces it atomically by drawing and storing a new one.
type Hash struct {
	a, b, p, r uint64
}

// Apply evaluates h(k) = ((a*k + b) mod P) mod R.
//
// k is reduced mod P before multiplying, which is safe because
// (a*k) mod P == (a*(k mod P)) mod P for any k. For P <= 2^32 every
// intermediate value then stays below 2^64; a larger configured prime
// takes a 128-bit path through math/bits.
func (h Hash) Apply(k uint64) int {
	kr := k % h.p
	if h.p <= 1<<32 {
		return int((h.a*kr + h.b) % h.p % h.r)
	}
	hi, lo := bits.Mul64(h.a, kr)
	lo, carry := bits.Add64(lo, h.b, 0)
	return int(bits.Rem64(hi+carry, lo, h.p) % h.r)
}

// Range reports the R this hash was drawn over.
func (h Hash) Range() int { return int(h.r) }

// Family draws independent hash functions over a fixed prime P.
// A Family has no mutable state of its own: math/rand/v2's package-level
// generator is already safe for concurrent use by multiple goroutines, so
// Draw needs no lock of its own. Each call mints a fresh, independently
// seeded *rand.Rand (via a PCG seeded from the global generator) rather
// than sharing one RNG across goroutines, so concurrent draws never
// contend on generator state.
type Family struct {
	p uint64
}

// New constructs a Family drawing over prime p. p must be prime; this is a
// precondition the caller documents (via WithHashPrime), not something
// Family can cheaply verify at runtime.
func New(p uint64) *Family {
	return &Family{p: p}
}

// Prime returns the family's fixed prime P.
func (f *Family) Prime() uint64 { return f.p }

// Draw returns a function drawn uniformly from
// { k -> ((a*k+b) mod P) mod R | 1 <= a < P, 0 <= b < P }.
//
// Draw fails with ErrOutOfRange if r >= P; the function is otherwise
// deterministic given (a, b, P, r) and may be evaluated freely from any
// goroutine once returned.
func (f *Family) Draw(r int) (Hash, error) {
	if r <= 0 {
		return Hash{}, errors.ErrOutOfRange
	}
	if uint64(r) >= f.p {
		return Hash{}, errors.ErrOutOfRange
	}
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	a := 1 + rng.Uint64N(f.p-1)
	b := rng.Uint64N(f.p)
	return Hash{a: a, b: b, p: f.p, r: uint64(r)}, nil
}
