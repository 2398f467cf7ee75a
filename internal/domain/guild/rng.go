package guild

import "math/rand"

// Rand is the uniform source injected into the resolvers. *rand.Rand
// satisfies it; tests substitute scripted sequences so outcomes are
// reproducible.
type Rand interface {
	Float64() float64
}

// NewRand returns a seeded source. Identical seeds yield identical quest
// outcomes for identical inputs.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}
