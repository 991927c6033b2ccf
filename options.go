package dphash

import (
	"github.com/tamirms/dphash/errors"
	"github.com/tamirms/dphash/internal/hashfam"
)

// Option configures a Map at construction time. All options are optional;
// New applies sensible defaults matching the reference constants.
type Option func(*config)

type config struct {
	growthConstant float64 // c in M = (1+c)*max(n,4)
	topScale       float64 // kappa in s(M) = kappa*M
	hashPrime      uint64
	preHasher      hashfam.PreHasher
	telemetry      func(Event)
	rebuildWorkers int
}

func defaultConfig() *config {
	return &config{
		growthConstant: 2,   // reference value c = 2
		topScale:       3,   // reference value kappa = 3
		hashPrime:      hashfam.DefaultPrime,
		preHasher:      hashfam.XXH3PreHasher{},
		rebuildWorkers: 0, // 0 means GOMAXPROCS, see buildSlots in rebuild_full.go
	}
}

// WithGrowthConstant sets c in M = (1+c)*max(n,4). The DKM analysis
// requires c >= 1; the default is c = 2.
func WithGrowthConstant(c float64) Option {
	return func(cfg *config) { cfg.growthConstant = c }
}

// WithTopScale sets kappa in s(M) = kappa*M, the top-level bucket-array
// scaling constant. The DKM linear-space proof requires
// kappa >= 8*sqrt(30)/15 (~2.921); the default is kappa = 3.
func WithTopScale(kappa float64) Option {
	return func(cfg *config) { cfg.topScale = kappa }
}

// WithHashPrime overrides the prime P used by the hash family. It must be
// prime and strictly larger than every range R the map will ever draw a
// hash over (every top-level and subtable bucket-array size).
func WithHashPrime(p uint64) Option {
	return func(cfg *config) { cfg.hashPrime = p }
}

// WithPreHasher selects which hash function turns an arbitrary key into
// the uniform uint64 domain value HF's affine family operates on. The
// default is hashfam.XXH3PreHasher{}; hashfam.Murmur3PreHasher{} and
// hashfam.XXHashPreHasher{} are also provided.
func WithPreHasher(h hashfam.PreHasher) Option {
	return func(cfg *config) { cfg.preHasher = h }
}

// WithTelemetry installs a hook called for rejection-sampling retries and
// rebuild completions. It must return quickly; it is called while the
// table's lock is held. A nil hook (the default) disables telemetry
// entirely at zero cost.
func WithTelemetry(hook func(Event)) Option {
	return func(cfg *config) { cfg.telemetry = hook }
}

// WithRebuildWorkers caps the number of goroutines a full rebuild uses to
// reconstruct independent subtables in parallel. 0 (the default) uses
// GOMAXPROCS.
func WithRebuildWorkers(n int) Option {
	return func(cfg *config) { cfg.rebuildWorkers = n }
}

// validate rejects configurations the DKM analysis does not support. It
// cannot check that hashPrime is actually prime without factoring it;
// it only rejects values too small to be a 32-bit-or-larger prime,
// leaving primality itself as a documented precondition on WithHashPrime.
func (c *config) validate() error {
	if c.growthConstant < 1 {
		return errors.ErrInvalidGrowthConstant
	}
	if c.topScale < 1 {
		return errors.ErrInvalidTopScale
	}
	if c.hashPrime < 1<<31 {
		return errors.ErrInvalidPrime
	}
	return nil
}

// threshold computes M = (1+c)*max(n, 4), invariant I4.
func (c *config) threshold(n int) int {
	if n < 4 {
		n = 4
	}
	return int((1 + c.growthConstant) * float64(n))
}

// topLevelSize computes s(M) = kappa*M.
func (c *config) topLevelSize(m int) int {
	return int(c.topScale * float64(m))
}
