package toolbox

// denseDot returns sum(x[i] * y[i]) accumulated left to right from zero.
//
// The conversion around the product keeps the compiler from emitting a fused
// multiply-add, so every platform rounds the same way.
func denseDot(x, y []float64) float64 {
	if len(x) != len(y) {
		panic("mismatched length")
	}
	var sum float64
	for i := 0; i < len(x); i++ {
		sum += float64(x[i] * y[i])
	}
	return sum
}
