package qsim

import "errors"

// Sentinel errors for the engine. Callers match with errors.Is; wrapped
// messages carry the offending values.
var (
	// ErrDimensionMismatch reports a vector/matrix whose size does not fit
	// the state's 2^n space, or an operation across states of different
	// qubit counts.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidParameter reports a noise-channel or gate parameter outside
	// its valid range. Raised at construction, before any state is touched.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownGate reports a gate name outside the closed library
	// vocabulary.
	ErrUnknownGate = errors.New("unknown gate")

	// ErrUnknownBackend reports a backend name with no registered factory.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrNotPure reports a density matrix that cannot be converted to a
	// state vector because its purity is below tolerance.
	ErrNotPure = errors.New("state is not pure")

	// ErrMixedRequired reports a noise application attempted on a pure
	// state-vector representation. Noise channels act on density matrices;
	// construct the state with NewDensityMatrix.
	ErrMixedRequired = errors.New("density-matrix representation required")

	// ErrUnsupported reports an operation outside the engine's contract,
	// such as fidelity between two mixed states.
	ErrUnsupported = errors.New("unsupported operation")
)
