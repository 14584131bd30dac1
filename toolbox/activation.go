package toolbox

import (
	"fmt"
	"math"
	"strings"
)

type ActivationType int

const (
	Sigmoid ActivationType = iota
	ReLU
	Tanh
)

// ActivationFunc is the forward function of an activation together with its
// derivative.  Derivative takes the already-activated output y = Activate(x),
// not the pre-activation sum.
type ActivationFunc struct {
	Activate   func(x float64) float64
	Derivative func(y float64) float64
}

var activationFuncs = [...]ActivationFunc{
	Sigmoid: {Activate: sigmoidActivation, Derivative: sigmoidDerivative},
	ReLU:    {Activate: reluActivation, Derivative: reluDerivative},
	Tanh:    {Activate: math.Tanh, Derivative: tanhDerivative},
}

var activationNames = [...]string{
	Sigmoid: "sigmoid",
	ReLU:    "relu",
	Tanh:    "tanh",
}

// Funcs looks up the functions for a.  Values outside the declared constants
// fail with ErrUnknownActivation.
func (a ActivationType) Funcs() (ActivationFunc, error) {
	if a < 0 || int(a) >= len(activationFuncs) {
		return ActivationFunc{}, fmt.Errorf("%w: %d", ErrUnknownActivation, int(a))
	}
	return activationFuncs[a], nil
}

func (a ActivationType) String() string {
	if a < 0 || int(a) >= len(activationNames) {
		return fmt.Sprintf("ActivationType(%d)", int(a))
	}
	return activationNames[a]
}

// ParseActivation maps a name such as "sigmoid" or "ReLU" to its type.
func ParseActivation(name string) (ActivationType, error) {
	for i, n := range activationNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return ActivationType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}

func sigmoidActivation(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func sigmoidDerivative(y float64) float64 {
	return y * (1 - y)
}

func reluActivation(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func reluDerivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

func tanhDerivative(y float64) float64 {
	return 1 - float64(y*y)
}
