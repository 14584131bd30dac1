package toolbox

import (
	"math"
	"math/rand"
	"testing"
)

// A 1-1 network with a relu output is plain linear regression as long as the
// prediction stays positive, so online training must agree with a hand-coded
// stochastic gradient descent on m and b.
func TestAgreesWithHandcodedLinreg(t *testing.T) {
	alpha := 0.01
	passes := 200

	x, y := generate1DLinRegDataset(1000)

	net := mustNetwork(t, []Layer{{Neurons: 1}, {Neurons: 1, Activation: ReLU}}, alpha)
	initM, initB := net.CloneWeights().At(0, 0, 0), net.CloneWeights().At(0, 0, 1)

	for p := 0; p < passes; p++ {
		for i := range x {
			if _, err := net.Train([]float64{x[i]}, []float64{y[i]}); err != nil {
				t.Fatalf("Train(): %v", err)
			}
		}
	}
	w := net.CloneWeights()
	gotM, gotB := w.At(0, 0, 0), w.At(0, 0, 1)
	t.Logf("toolkit m=%v b=%v loss=%v", gotM, gotB, lossFn(x, y, gotM, gotB))

	m, b := sgdLinReg(x, y, alpha, passes, initM, initB)
	t.Logf("handcoded m=%v b=%v loss=%v", m, b, lossFn(x, y, m, b))

	if math.Abs(gotM-m) > 1e-9 {
		t.Errorf("Disagreement on m parameter; got %v, want %v", gotM, m)
	}
	if math.Abs(gotB-b) > 1e-9 {
		t.Errorf("Disagreement on b parameter; got %v, want %v", gotB, b)
	}

	if math.Abs(m-10) > 1 || math.Abs(b-30) > 1 {
		t.Errorf("Regression did not converge; got m=%v b=%v, want about m=10 b=30", m, b)
	}
}

func generate1DLinRegDataset(n int) (x, y []float64) {
	r := rand.New(rand.NewSource(12345))

	x = make([]float64, n)
	y = make([]float64, n)

	for i := 0; i < n; i++ {
		x1 := r.Float64()
		y1 := 10*x1 + 30

		// Perturb the point a little bit
		y1 += (r.Float64() - 0.5) * 0.1

		x[i] = x1
		y[i] = y1
	}

	return x, y
}

func lossFn(x, y []float64, m, b float64) float64 {
	loss := 0.0
	for i := range x {
		pred := float64(m*x[i]) + b
		loss += (pred - y[i]) * (pred - y[i]) / (2 * float64(len(x)))
	}
	return loss
}

func sgdLinReg(x, y []float64, learningRate float64, passes int, initM, initB float64) (m, b float64) {
	m = initM
	b = initB
	for p := 0; p < passes; p++ {
		for i := range x {
			pred := float64(m*x[i]) + b
			d := pred - y[i]
			m -= float64(learningRate * d * x[i])
			b -= float64(learningRate * d)
		}
	}
	return m, b
}
