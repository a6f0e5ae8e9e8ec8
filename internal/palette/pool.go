package palette

import "math/rand/v2"

// Pool draws colors without replacement so consecutive picks rarely repeat.
// An exhausted pool refills itself from its base set.
type Pool struct {
	base    []Color
	working []Color
	rng     *rand.Rand
}

// NewPool creates a full pool over base. A nil rng uses a randomly seeded source.
func NewPool(base []Color, rng *rand.Rand) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p := &Pool{
		base: append([]Color(nil), base...),
		rng:  rng,
	}
	p.Reset()
	return p
}

// Reset refills the working set with every base color.
func (p *Pool) Reset() {
	p.working = append(p.working[:0], p.base...)
}

// Len returns how many colors remain before the next refill.
func (p *Pool) Len() int {
	return len(p.working)
}

// Next removes and returns a random remaining color.
func (p *Pool) Next() Color {
	if len(p.base) == 0 {
		return Off
	}
	if len(p.working) == 0 {
		p.Reset()
	}
	i := p.rng.IntN(len(p.working))
	c := p.working[i]
	p.working = append(p.working[:i], p.working[i+1:]...)
	return c
}

// Intn exposes the pool's random source for pixel selection.
func (p *Pool) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return p.rng.IntN(n)
}
