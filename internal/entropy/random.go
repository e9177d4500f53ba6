// Package entropy derives reproducible random streams. Every stochastic choice
// in the simulation draws from a stream keyed by the world seed and the
// context of the choice, so a world restored from a checkpoint replays the
// same decisions.
package entropy

import (
	"math/rand/v2"
)

// Stream returns a generator for one agent's decision at one tick.
func Stream(worldSeed int64, agent uint32, tick uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(worldSeed), Mix(uint64(agent)+1, tick)))
}

// Named returns a generator keyed by the world seed and a label, used for
// one-off deterministic fills such as unspecified roster traits.
func Named(worldSeed int64, label string) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(worldSeed), HashString(label)))
}

// Mix folds two values into one well-distributed 64-bit key (splitmix64 finalizer).
func Mix(a, b uint64) uint64 {
	z := a*0x9E3779B97F4A7C15 ^ b
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// HashString is FNV-1a over the string bytes.
func HashString(s string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
