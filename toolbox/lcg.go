package toolbox

import "fmt"

const (
	lcgModulus    = 1 << 31
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgSeed       = 1103527590

	// normalizeDivisor is 2^31 - 1, one less than the modulus.
	normalizeDivisor = 0x7fffffff
)

// Generator is the linear congruential generator used to initialize network
// weights.  Every generator starts from the same seed, so two networks with
// the same topology get bit-identical initial weights.
//
// A Generator is owned by a single network and is not safe for concurrent use.
type Generator struct {
	state int64
}

func NewGenerator() *Generator {
	return &Generator{state: lcgSeed}
}

// Next returns the current state and then advances it.  The first call on a
// fresh generator returns the seed itself.
func (g *Generator) Next() int64 {
	cur := g.state
	// state < 2^31 and the multiplier < 2^31, so the product fits in int64.
	g.state = (lcgMultiplier*g.state + lcgIncrement) % lcgModulus
	return cur
}

// NextBounded returns Next() % max.  The state is not advanced when max is 0.
func (g *Generator) NextBounded(max int64) (int64, error) {
	if max == 0 {
		return 0, fmt.Errorf("while drawing bounded value: %w", ErrZeroBound)
	}
	return g.Next() % max, nil
}

// NextNormalized returns Next() / (2^31 - 1).
//
// The divisor is one less than the modulus, so the result is not confined to
// [0, 1): a state of 2^31 - 1 yields exactly 1.  Reference weights depend on
// this exact formula.
func (g *Generator) NextNormalized() float64 {
	return float64(g.Next()) / float64(normalizeDivisor)
}
