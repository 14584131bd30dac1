package toolbox

import (
	"fmt"
	"slices"
)

// AF64 is a dense row-major float64 array.
type AF64 struct {
	V     []float64
	Shape []int
}

func MakeAF64(shape ...int) *AF64 {
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("invalid shape: %v", shape))
		}
	}
	size := 1
	for _, s := range shape {
		size *= s
	}

	return &AF64{
		V:     make([]float64, size),
		Shape: slices.Clone(shape),
	}
}

func (a *AF64) At2(idx0, idx1 int) float64 {
	if len(a.Shape) != 2 {
		panic("At2() invalid for len(shape) != 2")
	}
	return a.V[idx0*a.Shape[1]+idx1]
}

func (a *AF64) Set2(idx0, idx1 int, v float64) {
	if len(a.Shape) != 2 {
		panic("Set2() invalid for len(shape) != 2")
	}
	a.V[idx0*a.Shape[1]+idx1] = v
}

// Row returns row idx of a 2-D array.  The returned slice shares storage with a.
func (a *AF64) Row(idx int) []float64 {
	if len(a.Shape) != 2 {
		panic("Row() invalid for len(shape) != 2")
	}
	return a.V[idx*a.Shape[1] : (idx+1)*a.Shape[1]]
}

// WeightTensor holds every weight of a network in one contiguous buffer.
//
// Block l holds the weights feeding layer l+1.  It is row-major with shape
// (widths[l+1], widths[l]+1): one row per neuron, one column per neuron of
// the previous layer, and a final bias column.
type WeightTensor struct {
	widths  []int
	offsets []int // offsets[l] is the start of block l; offsets[len(widths)-1] == len(v)
	v       []float64
}

// newWeightTensor allocates a zeroed tensor.  widths must already be validated.
func newWeightTensor(widths []int) *WeightTensor {
	offsets := blockOffsets(widths)
	return &WeightTensor{
		widths:  slices.Clone(widths),
		offsets: offsets,
		v:       make([]float64, offsets[len(offsets)-1]),
	}
}

func blockOffsets(widths []int) []int {
	offsets := make([]int, len(widths))
	for l := 0; l < len(widths)-1; l++ {
		offsets[l+1] = offsets[l] + widths[l+1]*(widths[l]+1)
	}
	return offsets
}

// WeightTensorFromNested builds a tensor from the jagged
// [layer][neuron][incoming weight + bias] form.  The layer widths are inferred
// from the nesting; ragged input fails with ErrShapeMismatch.
func WeightTensorFromNested(nested [][][]float64) (*WeightTensor, error) {
	if len(nested) == 0 {
		return nil, fmt.Errorf("%w: no weight blocks", ErrShapeMismatch)
	}
	if len(nested[0]) == 0 || len(nested[0][0]) < 2 {
		return nil, fmt.Errorf("%w: block 0 is empty", ErrShapeMismatch)
	}

	widths := make([]int, len(nested)+1)
	widths[0] = len(nested[0][0]) - 1
	for l, block := range nested {
		if len(block) == 0 {
			return nil, fmt.Errorf("%w: block %d has no neurons", ErrShapeMismatch, l)
		}
		widths[l+1] = len(block)
	}

	w := newWeightTensor(widths)
	for l, block := range nested {
		for n, neuron := range block {
			if len(neuron) != widths[l]+1 {
				return nil, fmt.Errorf("%w: block %d neuron %d has %d weights, want %d", ErrShapeMismatch, l, n, len(neuron), widths[l]+1)
			}
			copy(w.Neuron(l, n), neuron)
		}
	}
	return w, nil
}

// Widths returns the neuron count of every layer, input layer first.
func (w *WeightTensor) Widths() []int {
	return slices.Clone(w.widths)
}

// Blocks returns the number of weight blocks, one per non-input layer.
func (w *WeightTensor) Blocks() int {
	return len(w.widths) - 1
}

// Block returns a view of block l.  The returned array shares storage with w.
func (w *WeightTensor) Block(l int) *AF64 {
	return &AF64{
		V:     w.v[w.offsets[l]:w.offsets[l+1]],
		Shape: []int{w.widths[l+1], w.widths[l] + 1},
	}
}

// Neuron returns a view of the incoming weights of neuron n in layer l+1,
// bias last.
func (w *WeightTensor) Neuron(l, n int) []float64 {
	stride := w.widths[l] + 1
	base := w.offsets[l] + n*stride
	return w.v[base : base+stride]
}

// At returns the weight from neuron p of layer l to neuron n of layer l+1.
// p == widths[l] addresses the bias.
func (w *WeightTensor) At(l, n, p int) float64 {
	return w.v[w.offsets[l]+n*(w.widths[l]+1)+p]
}

func (w *WeightTensor) Set(l, n, p int, v float64) {
	w.v[w.offsets[l]+n*(w.widths[l]+1)+p] = v
}

// Values returns the underlying buffer, block after block.  Writes through the
// returned slice modify w.
func (w *WeightTensor) Values() []float64 {
	return w.v
}

// Clone returns a deep copy of w.
func (w *WeightTensor) Clone() *WeightTensor {
	return &WeightTensor{
		widths:  slices.Clone(w.widths),
		offsets: slices.Clone(w.offsets),
		v:       slices.Clone(w.v),
	}
}

// Nested copies w into the jagged [layer][neuron][weight] form.
func (w *WeightTensor) Nested() [][][]float64 {
	nested := make([][][]float64, w.Blocks())
	for l := range nested {
		nested[l] = make([][]float64, w.widths[l+1])
		for n := range nested[l] {
			nested[l][n] = slices.Clone(w.Neuron(l, n))
		}
	}
	return nested
}

// checkShape verifies that w is laid out for the given layer widths.
func (w *WeightTensor) checkShape(widths []int) error {
	if w == nil {
		return fmt.Errorf("%w: nil weight tensor", ErrShapeMismatch)
	}
	if !slices.Equal(w.widths, widths) {
		return fmt.Errorf("%w: tensor widths %v, want %v", ErrShapeMismatch, w.widths, widths)
	}
	want := blockOffsets(widths)
	if !slices.Equal(w.offsets, want) || len(w.v) != want[len(want)-1] {
		return fmt.Errorf("%w: tensor holds %d weights, want %d", ErrShapeMismatch, len(w.v), want[len(want)-1])
	}
	return nil
}
