package toolbox

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTopology parses a comma separated list of layers such as
// "16:sigmoid,4:tanh,1:relu".  The activation may be omitted, in which case
// it defaults to sigmoid.
func ParseTopology(s string) ([]Layer, error) {
	parts := strings.Split(s, ",")
	layers := make([]Layer, 0, len(parts))
	for i, part := range parts {
		neurons, act, hasAct := strings.Cut(strings.TrimSpace(part), ":")

		n, err := strconv.Atoi(neurons)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: bad neuron count %q", ErrInvalidTopology, i, neurons)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w: layer %d has %d neurons", ErrInvalidTopology, i, n)
		}

		lay := Layer{Neurons: n, Activation: Sigmoid}
		if hasAct {
			lay.Activation, err = ParseActivation(act)
			if err != nil {
				return nil, fmt.Errorf("while parsing layer %d: %w", i, err)
			}
		}
		layers = append(layers, lay)
	}

	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: got %d layers, need at least 2", ErrInvalidTopology, len(layers))
	}
	return layers, nil
}

// FormatTopology is the inverse of ParseTopology.
func FormatTopology(layers []Layer) string {
	parts := make([]string, len(layers))
	for i, lay := range layers {
		parts[i] = fmt.Sprintf("%d:%s", lay.Neurons, lay.Activation)
	}
	return strings.Join(parts, ",")
}
