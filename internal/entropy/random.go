// Package entropy isolates every stochastic decision in the simulation
// behind one pluggable source, so runs are reproducible under a fixed seed
// and tests can substitute scripted draws.
package entropy

import "math/rand"

// Source supplies the randomness the scheduler consumes: Bernoulli draws and
// uniform selections.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// seeded wraps math/rand for deterministic simulation runs.
type seeded struct {
	rng *rand.Rand
}

// Seeded returns a deterministic source for the given seed.
func Seeded(seed int64) Source {
	return &seeded{rng: rand.New(rand.NewSource(seed))}
}

func (s *seeded) Float64() float64 { return s.rng.Float64() }
func (s *seeded) Intn(n int) int   { return s.rng.Intn(n) }

// Fixed is a scripted source for tests: Float64 replays values in order
// (cycling), Intn always returns N.
type Fixed struct {
	Values []float64
	N      int
	pos    int
}

// Float64 returns the next scripted value, cycling when exhausted.
func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0.5
	}
	v := f.Values[f.pos%len(f.Values)]
	f.pos++
	return v
}

// Intn returns the fixed N, clamped into [0, n).
func (f *Fixed) Intn(n int) int {
	if f.N >= n {
		return n - 1
	}
	return f.N
}
