package dataset

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// LoadNPZ reads examples from a numpy archive holding x.npy with shape
// (examples, inputs) and y.npy with shape (examples, outputs), both float64.
func LoadNPZ(path string) (Examples, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening data file: %w", err)
	}
	defer r.Close()

	x, xShape, err := readMatrix(r, "x.npy")
	if err != nil {
		return nil, err
	}
	y, yShape, err := readMatrix(r, "y.npy")
	if err != nil {
		return nil, err
	}
	if xShape[0] != yShape[0] {
		return nil, fmt.Errorf("x.npy has %d rows but y.npy has %d", xShape[0], yShape[0])
	}

	examples := make(Examples, xShape[0])
	for k := range examples {
		examples[k] = Example{
			Inputs:  x[k*xShape[1] : (k+1)*xShape[1] : (k+1)*xShape[1]],
			Targets: y[k*yShape[1] : (k+1)*yShape[1] : (k+1)*yShape[1]],
		}
	}
	return examples, nil
}

func readMatrix(r *npz.Reader, name string) ([]float64, []int, error) {
	var raw []float64
	if err := r.Read(name, &raw); err != nil {
		return nil, nil, fmt.Errorf("while reading %s: %w", name, err)
	}

	shape := r.Header(name).Descr.Shape
	if len(shape) != 2 || shape[0]*shape[1] != len(raw) {
		return nil, nil, fmt.Errorf("%s has shape %v, want 2 dimensions", name, shape)
	}
	return raw, shape, nil
}

// WriteNPZ writes examples in the layout read by LoadNPZ.  Every example must
// have the same input and target widths.
func WriteNPZ(w io.Writer, examples Examples) error {
	if len(examples) == 0 {
		return fmt.Errorf("no examples to write")
	}
	inputs, targets := len(examples[0].Inputs), len(examples[0].Targets)
	if inputs == 0 || targets == 0 {
		return fmt.Errorf("examples need at least one input and one target")
	}

	x := mat.NewDense(len(examples), inputs, nil)
	y := mat.NewDense(len(examples), targets, nil)
	for k, ex := range examples {
		if len(ex.Inputs) != inputs || len(ex.Targets) != targets {
			return fmt.Errorf("example %d has %d inputs and %d targets, want %d and %d", k, len(ex.Inputs), len(ex.Targets), inputs, targets)
		}
		x.SetRow(k, ex.Inputs)
		y.SetRow(k, ex.Targets)
	}

	zw := npz.NewWriter(w)
	if err := zw.Write("x.npy", x); err != nil {
		zw.Close()
		return fmt.Errorf("while writing x.npy: %w", err)
	}
	if err := zw.Write("y.npy", y); err != nil {
		zw.Close()
		return fmt.Errorf("while writing y.npy: %w", err)
	}
	return zw.Close()
}
