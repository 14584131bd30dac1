package toolbox

import (
	"fmt"
	"io"
	"slices"

	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

func npzBlockName(l int) string {
	return fmt.Sprintf("layer_%d.npy", l)
}

// WriteNPZ writes t as a numpy .npz archive holding one 2-D float64 array per
// weight block, named layer_0.npy, layer_1.npy, ...
func WriteNPZ(w io.Writer, t *WeightTensor) error {
	zw := npz.NewWriter(w)

	for l := 0; l < t.Blocks(); l++ {
		block := t.Block(l)
		m := mat.NewDense(block.Shape[0], block.Shape[1], slices.Clone(block.V))
		if err := zw.Write(npzBlockName(l), m); err != nil {
			zw.Close()
			return fmt.Errorf("while writing %s: %w", npzBlockName(l), err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("while finishing npz archive: %w", err)
	}
	return nil
}

// ReadNPZ reads an archive written by WriteNPZ.  The layer widths are
// recovered from the block shapes.
func ReadNPZ(path string) (*WeightTensor, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening npz archive: %w", err)
	}
	defer r.Close()

	blocks := 0
	for slices.Contains(r.Keys(), npzBlockName(blocks)) {
		blocks++
	}
	if blocks == 0 {
		return nil, fmt.Errorf("%w: %s holds no %s", ErrShapeMismatch, path, npzBlockName(0))
	}

	values := make([][]float64, blocks)
	shapes := make([][]int, blocks)
	for l := range values {
		name := npzBlockName(l)
		if err := r.Read(name, &values[l]); err != nil {
			return nil, fmt.Errorf("while reading %s: %w", name, err)
		}
		shapes[l] = r.Header(name).Descr.Shape
		if len(shapes[l]) != 2 {
			return nil, fmt.Errorf("%w: %s has shape %v, want 2 dimensions", ErrShapeMismatch, name, shapes[l])
		}
	}

	widths := make([]int, blocks+1)
	widths[0] = shapes[0][1] - 1
	for l, shape := range shapes {
		widths[l+1] = shape[0]
		if shape[1] != widths[l]+1 || shape[0] <= 0 || widths[l] <= 0 {
			return nil, fmt.Errorf("%w: %s has shape %v after a layer of %d neurons", ErrShapeMismatch, npzBlockName(l), shape, widths[l])
		}
	}

	t := newWeightTensor(widths)
	for l := range values {
		block := t.Block(l)
		if len(values[l]) != len(block.V) {
			return nil, fmt.Errorf("%w: %s holds %d values, want %d", ErrShapeMismatch, npzBlockName(l), len(values[l]), len(block.V))
		}
		copy(block.V, values[l])
	}
	return t, nil
}
