package env

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey identifies a reproducible run. Two environments built from
// the same key and configuration produce identical trajectories.
type SimulationKey int64

// RNG subsystems. Each draws from its own stream so that, for example, a
// change in the number of failure draws never shifts consumption draws.
const (
	SubsystemPopulation  = "population"
	SubsystemGrid        = "grid"
	SubsystemConsumption = "consumption"
	SubsystemFailure     = "failure"
)

// PartitionedRNG hands out deterministic per-subsystem generators.
// Not safe for concurrent use.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG for key.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, subsystems: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the cached generator for name, seeded with
// key XOR fnv1a64(name).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if r, ok := p.subsystems[name]; ok {
		return r
	}
	r := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = r
	return r
}

// Key returns the key the generator was created with.
func (p *PartitionedRNG) Key() SimulationKey { return p.key }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}
