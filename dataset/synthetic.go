package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func uniformInputs(r *rand.Rand, width int) []float64 {
	inputs := make([]float64, width)
	for i := range inputs {
		inputs[i] = r.Float64()
	}
	return inputs
}

// Sum returns width uniform inputs in [0, 1) labeled with their sum.
func Sum(r *rand.Rand, width int) Example {
	inputs := uniformInputs(r, width)
	return Example{Inputs: inputs, Targets: []float64{floats.Sum(inputs)}}
}

// Average returns width uniform inputs in [0, 1) labeled with their mean.
func Average(r *rand.Rand, width int) Example {
	inputs := uniformInputs(r, width)
	return Example{Inputs: inputs, Targets: []float64{stat.Mean(inputs, nil)}}
}
