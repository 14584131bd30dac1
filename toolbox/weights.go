package toolbox

import (
	"encoding/json"
	"fmt"
	"slices"
)

// CloneWeights returns a deep copy of the network weights.  Changes to the
// copy never reach the network and vice versa.
func (net *Network) CloneWeights() *WeightTensor {
	return net.weights.Clone()
}

// SetWeights replaces the network weights.  With deepCopy the network keeps
// its own copy of w; otherwise it takes ownership of w and the caller must not
// modify it afterwards.  Tensors laid out for a different topology are
// rejected with ErrShapeMismatch and leave the network unchanged.
func (net *Network) SetWeights(w *WeightTensor, deepCopy bool) error {
	if err := w.checkShape(net.widths); err != nil {
		return fmt.Errorf("while setting weights: %w", err)
	}
	if deepCopy {
		w = w.Clone()
	}
	net.weights = w
	return nil
}

// MarshalJSON encodes w in the nested [layer][neuron][weight] form.
func (w *WeightTensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Nested())
}

func (w *WeightTensor) UnmarshalJSON(data []byte) error {
	var nested [][][]float64
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("while decoding nested weights: %w", err)
	}
	decoded, err := WeightTensorFromNested(nested)
	if err != nil {
		return err
	}
	*w = *decoded
	return nil
}

func weightsKey(l int) string {
	return fmt.Sprintf("net.%d.weights", l)
}

// DumpTensors adds one entry per weight block to tensors.  The entries share
// storage with the network.
func (net *Network) DumpTensors(tensors map[string]*AF64) {
	for l := 0; l < net.weights.Blocks(); l++ {
		tensors[weightsKey(l)] = net.weights.Block(l)
	}
}

// LoadTensors copies the weight blocks written by DumpTensors into the
// network.  Nothing is modified unless every block is present and correctly
// shaped.
func (net *Network) LoadTensors(tensors map[string]*AF64) error {
	loaded := newWeightTensor(net.widths)
	for l := 0; l < loaded.Blocks(); l++ {
		key := weightsKey(l)
		t, ok := tensors[key]
		if !ok {
			return fmt.Errorf("%w: no entry for %s", ErrShapeMismatch, key)
		}
		block := loaded.Block(l)
		if !slices.Equal(t.Shape, block.Shape) || len(t.V) != len(block.V) {
			return fmt.Errorf("%w: %s has shape %v, want %v", ErrShapeMismatch, key, t.Shape, block.Shape)
		}
		copy(block.V, t.V)
	}
	net.weights = loaded
	return nil
}
