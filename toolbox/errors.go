package toolbox

import "errors"

var (
	// ErrShapeMismatch is returned when inputs, expected outputs or a weight
	// tensor do not agree with the network topology.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnknownActivation is returned when an activation outside the
	// supported set reaches dispatch.
	ErrUnknownActivation = errors.New("unknown activation")

	// ErrZeroBound is returned by Generator.NextBounded for a zero bound.
	ErrZeroBound = errors.New("bounded random number requested with zero bound")

	ErrInvalidTopology = errors.New("invalid topology")
)
