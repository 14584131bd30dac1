package toolbox

import (
	"fmt"
	"math"
	"slices"
)

// DefaultLearningRate is the step size used by the command-line tools when
// none is given.
const DefaultLearningRate = 0.5

// biasInput is the constant input multiplied by every bias weight.
const biasInput = 1

// Layer describes one layer of a network.  The activation of the first
// (input) layer is never evaluated.
type Layer struct {
	Neurons    int
	Activation ActivationType
}

// Network is a fully-connected feedforward network trained one example at a
// time with plain gradient descent.
//
// Predict may be called concurrently with other Predict calls.  Train mutates
// the weights in place: callers must serialize Train calls and must not
// overlap them with Predict, Loss, CloneWeights or SetWeights on the same
// network.
type Network struct {
	layers       []Layer
	widths       []int
	funcs        []ActivationFunc // funcs[0] is unused
	learningRate float64

	weights   *WeightTensor
	generator *Generator

	// Scratch buffers owned by Train.
	outputs [][]float64
	deltas  [][]float64
}

// NewNetwork builds a network for the given topology and fills its weights
// from a freshly seeded Generator: layers from the input outward, neurons in
// declaration order, incoming weights in previous-layer order, bias last.
func NewNetwork(layers []Layer, learningRate float64) (*Network, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: got %d layers, need at least 2", ErrInvalidTopology, len(layers))
	}
	if !(learningRate > 0) || math.IsInf(learningRate, 0) {
		return nil, fmt.Errorf("%w: learning rate %v is not a positive finite number", ErrInvalidTopology, learningRate)
	}

	net := &Network{
		layers:       slices.Clone(layers),
		widths:       make([]int, len(layers)),
		funcs:        make([]ActivationFunc, len(layers)),
		learningRate: learningRate,
		generator:    NewGenerator(),
	}
	for l, lay := range layers {
		if lay.Neurons <= 0 {
			return nil, fmt.Errorf("%w: layer %d has %d neurons", ErrInvalidTopology, l, lay.Neurons)
		}
		net.widths[l] = lay.Neurons
		if l == 0 {
			continue
		}
		funcs, err := lay.Activation.Funcs()
		if err != nil {
			return nil, fmt.Errorf("while resolving activation of layer %d: %w", l, err)
		}
		net.funcs[l] = funcs
	}

	net.weights = newWeightTensor(net.widths)
	net.initWeights()

	net.outputs = makeLayerBuffers(net.widths)
	net.deltas = makeLayerBuffers(net.widths)

	return net, nil
}

func (net *Network) initWeights() {
	for l := 0; l < net.weights.Blocks(); l++ {
		for n := 0; n < net.widths[l+1]; n++ {
			w := net.weights.Neuron(l, n)
			for p := 0; p < net.widths[l]; p++ {
				w[p] = net.generator.NextNormalized()
			}
			w[net.widths[l]] = net.generator.NextNormalized() // bias
		}
	}
}

// makeLayerBuffers returns one slice per layer, all carved out of a single
// allocation.
func makeLayerBuffers(widths []int) [][]float64 {
	total := 0
	for _, w := range widths {
		total += w
	}
	backing := make([]float64, total)

	bufs := make([][]float64, len(widths))
	for l, w := range widths {
		bufs[l] = backing[:w:w]
		backing = backing[w:]
	}
	return bufs
}

// Layers returns a copy of the topology.
func (net *Network) Layers() []Layer {
	return slices.Clone(net.layers)
}

// Widths returns the neuron count of every layer, input layer first.
func (net *Network) Widths() []int {
	return slices.Clone(net.widths)
}

func (net *Network) LearningRate() float64 {
	return net.learningRate
}

// Predict runs the forward pass and returns the output layer activations.
func (net *Network) Predict(inputs []float64) ([]float64, error) {
	if err := net.checkInputs(inputs); err != nil {
		return nil, err
	}

	outputs := makeLayerBuffers(net.widths)
	net.feedForward(inputs, outputs)
	return slices.Clone(outputs[len(outputs)-1]), nil
}

// Loss runs the forward pass and returns 0.5 * sum((expected - output)^2)
// without changing any weight.
func (net *Network) Loss(inputs, expected []float64) (float64, error) {
	if err := net.checkInputs(inputs); err != nil {
		return 0, err
	}
	if err := net.checkExpected(expected); err != nil {
		return 0, err
	}

	outputs := makeLayerBuffers(net.widths)
	net.feedForward(inputs, outputs)
	return halfSquaredError(outputs[len(outputs)-1], expected), nil
}

// Train runs one step of online gradient descent on a single example and
// returns the loss of the prediction made before the weights were updated.
// Both shapes are checked before anything is modified.
func (net *Network) Train(inputs, expected []float64) (float64, error) {
	if err := net.checkInputs(inputs); err != nil {
		return 0, err
	}
	if err := net.checkExpected(expected); err != nil {
		return 0, err
	}

	net.feedForward(inputs, net.outputs)
	net.backpropagate(expected, net.outputs, net.deltas)
	net.updateWeights(net.outputs, net.deltas)

	return halfSquaredError(net.outputs[len(net.outputs)-1], expected), nil
}

func (net *Network) checkInputs(inputs []float64) error {
	if len(inputs) != net.widths[0] {
		return fmt.Errorf("%w: got %d inputs, input layer has %d neurons", ErrShapeMismatch, len(inputs), net.widths[0])
	}
	return nil
}

func (net *Network) checkExpected(expected []float64) error {
	if want := net.widths[len(net.widths)-1]; len(expected) != want {
		return fmt.Errorf("%w: got %d expected outputs, output layer has %d neurons", ErrShapeMismatch, len(expected), want)
	}
	return nil
}

// feedForward fills outputs[l] with the activations of every layer.
// outputs[0] receives a copy of the inputs.
//
// The float64 conversions around products in this file stop the compiler
// from fusing multiply-adds.
func (net *Network) feedForward(inputs []float64, outputs [][]float64) {
	copy(outputs[0], inputs)

	for l := 1; l < len(net.widths); l++ {
		prev := outputs[l-1]
		activate := net.funcs[l].Activate

		for n := range outputs[l] {
			w := net.weights.Neuron(l-1, n)

			z := denseDot(w[:len(prev)], prev)
			z += float64(w[len(prev)] * biasInput)

			outputs[l][n] = activate(z)
		}
	}
}

// backpropagate computes the error term of every non-input neuron from the
// current (not yet updated) weights.
//
// Derivatives are evaluated on the activated outputs for every layer,
// including the output layer.  This matches the exact gradient of the
// half-squared-error loss only for sigmoid outputs; relu and tanh outputs get
// the same formula.
func (net *Network) backpropagate(expected []float64, outputs, deltas [][]float64) {
	last := len(net.widths) - 1

	derivative := net.funcs[last].Derivative
	for n, y := range outputs[last] {
		deltas[last][n] = derivative(y) * (y - expected[n])
	}

	for l := last - 1; l > 0; l-- {
		derivative := net.funcs[l].Derivative
		for n, y := range outputs[l] {
			var sum float64
			for k, d := range deltas[l+1] {
				sum += float64(d * net.weights.At(l, k, n))
			}
			deltas[l][n] = derivative(y) * sum
		}
	}
}

func (net *Network) updateWeights(outputs, deltas [][]float64) {
	lr := net.learningRate
	for l := len(net.widths) - 1; l > 0; l-- {
		prev := outputs[l-1]
		for n, d := range deltas[l] {
			w := net.weights.Neuron(l-1, n)
			for p, x := range prev {
				w[p] -= float64(lr * d * x)
			}
			w[len(prev)] -= float64(lr * d * biasInput)
		}
	}
}

func halfSquaredError(outputs, expected []float64) float64 {
	var sum float64
	for i := range expected {
		diff := expected[i] - outputs[i]
		sum += float64(diff * diff)
	}
	return 0.5 * sum
}
