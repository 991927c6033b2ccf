package dphash

import "hash/maphash"

// preHashKey turns an arbitrary comparable key into the uint64 domain
// value HF's affine family operates on, via the configured PreHasher.
//
// Built-in integer, string, and []byte keys are routed straight to the
// PreHasher without an intermediate allocation where possible. Any other
// comparable type falls back to hash/maphash.Comparable: no third-party
// library hashes an arbitrary Go comparable value (xxh3/murmur3/xxhash all
// operate on byte strings), and maphash.Comparable is the standard
// library's own purpose-built answer to exactly that problem, seeded once
// per Map so the fallback is still collision-resistant across keys rather
// than only within one.
func (m *Map[K, V]) preHashKey(key K) uint64 {
	switch v := any(key).(type) {
	case int:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case int8:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case int16:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case int32:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case int64:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case uint:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case uint8:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case uint16:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case uint32:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case uint64:
		return m.cfg.preHasher.HashUint64(v)
	case uintptr:
		return m.cfg.preHasher.HashUint64(uint64(v))
	case string:
		return m.cfg.preHasher.HashBytes([]byte(v))
	case []byte:
		return m.cfg.preHasher.HashBytes(v)
	default:
		return m.cfg.preHasher.HashUint64(maphash.Comparable(m.seed, key))
	}
}
