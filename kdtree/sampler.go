package kdtree

import "math/rand"

// Sampler supplies the pseudorandom numbers consumed by the stochastic
// ellipsoid query. A sampler must only ever be used by one goroutine at a
// time; the tree performs no synchronization around it.
type Sampler interface {
	// Get a uniform sample from [0, 1).
	Next1D() float32

	// Get a uniform index from [0, n).
	NextIndex(n uint32) uint32
}

type randSampler struct {
	rng *rand.Rand
}

// Create a sampler backed by a seeded math/rand source.
func NewSampler(seed int64) Sampler {
	return &randSampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *randSampler) Next1D() float32 {
	return s.rng.Float32()
}

func (s *randSampler) NextIndex(n uint32) uint32 {
	return uint32(s.rng.Intn(int(n)))
}
