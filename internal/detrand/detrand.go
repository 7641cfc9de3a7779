// Package detrand provides a seeded, frame-salted deterministic pseudo-random
// function for simulation systems. Unlike math/rand, there is no global or
// per-goroutine state: every call is a pure function of its inputs, so two
// peers computing the same (seed, frame, slot, salt) always agree, and a
// rollback resim reproduces identical "random" choices.
package detrand

// salt constants — one per call site, so unrelated systems rolling a die on
// the same frame never correlate.
const (
	SaltIdleTimer        uint32 = 0x1001
	SaltWanderTimer      uint32 = 0x1002
	SaltWanderDirection  uint32 = 0x1003
	SaltSpawnPosition    uint32 = 0x1004
	SaltScreenShake      uint32 = 0x1005
	SaltSeparationSpread uint32 = 0x1006
	SaltWaveComposition  uint32 = 0x1007
)

// mix32 is a 32-bit avalanche mix (splitmix32-style finalizer) applied to a
// running accumulator; cheap, branch-free and identical on every platform.
func mix32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// hash64 combines the four 32-bit call-site inputs into one 64-bit digest.
func hash64(sessionSeed, frame, entitySlot, salt uint32) uint64 {
	h := mix32(sessionSeed ^ 0x9e3779b9)
	h = mix32(h ^ frame)
	h = mix32(h ^ entitySlot)
	h = mix32(h ^ salt)
	h2 := mix32(h ^ 0x85ebca6b)
	return uint64(h)<<32 | uint64(h2)
}

// RangeWithSeed deterministically maps (sessionSeed, frame, entitySlot, salt)
// into [min, max), inclusive of min, exclusive of max. If max <= min, min is
// returned. Identical inputs always produce identical outputs, on any
// platform, independent of call order or global state.
func RangeWithSeed(sessionSeed, frame, entitySlot int32, salt uint32, min, max int) int {
	if max <= min {
		return min
	}
	span := uint64(max - min)
	h := hash64(uint32(sessionSeed), uint32(frame), uint32(entitySlot), salt)
	return min + int(h%span)
}

// Float01 returns a deterministic value in [0.0, 1.0) as a ratio — intended
// only for non-simulation consumers (e.g. presentation-side cosmetic jitter)
// since simulation code must stay in Fixed64 space. Internally this is still
// a pure function of its inputs.
func Float01(sessionSeed, frame, entitySlot int32, salt uint32) float64 {
	h := hash64(uint32(sessionSeed), uint32(frame), uint32(entitySlot), salt)
	const mask = (uint64(1) << 53) - 1
	return float64(h&mask) / float64(mask+1)
}

// Bool deterministically returns true with the given approximate probability
// (0..1), e.g. for wave composition rolls.
func Bool(sessionSeed, frame, entitySlot int32, salt uint32, probability float64) bool {
	return Float01(sessionSeed, frame, entitySlot, salt) < probability
}
