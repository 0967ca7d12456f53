package qsim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Backend is the capability contract every linear-algebra engine implements.
// Backends are stateless with respect to quantum data: they are pure
// computation strategies, selected once per QuantumState and held for its
// lifetime. Two backends given the same inputs must agree within 1e-10
// absolute error.
type Backend interface {
	// Name identifies the engine ("dense", "sparse", "accel", "jit").
	Name() string

	// Zeros returns an r×c all-zero matrix.
	Zeros(r, c int) Matrix
	// Eye returns the n×n identity.
	Eye(n int) Matrix
	// FromEntries builds a matrix from its explicit nonzero entries.
	FromEntries(r, c int, entries []Entry) Matrix

	// MatMul returns a·b.
	MatMul(a, b Matrix) Matrix
	// Kron returns the Kronecker (tensor) product a⊗b.
	Kron(a, b Matrix) Matrix
	// Dagger returns the conjugate transpose of a.
	Dagger(a Matrix) Matrix
	// Add returns a+b.
	Add(a, b Matrix) Matrix
	// Scale returns f·a.
	Scale(f complex128, a Matrix) Matrix
	// MulVec returns a·v for a state-vector v.
	MulVec(a Matrix, v []complex128) []complex128

	// ToDense converts to the canonical dense representation.
	ToDense(a Matrix) *mat.CDense
	// FromDense converts from the canonical dense representation.
	FromDense(d *mat.CDense) Matrix
}

// SparsityDetector is implemented by engines that can report the fraction
// of near-zero entries of a matrix. The auto-selection heuristic may use
// it; it is not part of the core Backend contract.
type SparsityDetector interface {
	Sparsity(a Matrix, tol float64) float64
}

// GateCompiler is implemented by engines that apply a k-qubit gate directly
// to an amplitude slice without materializing the full 2^n×2^n operator.
// Compiled kernels must be bit-identical in semantics to the expanded
// operator path.
type GateCompiler interface {
	CompileGate(gate Matrix, targets []int, numQubits int) (func(psi []complex128), error)
}

// autoSparseQubits is the qubit count at which automatic selection switches
// from the dense engine to the sparse engine. Below it the dense operator
// tables are small enough that sparsity bookkeeping costs more than it saves.
const autoSparseQubits = 11

var (
	backendsMu       sync.RWMutex
	backendFactories = map[string]func() Backend{}
)

// RegisterBackend makes an engine available to NewBackend and AutoBackend.
// Engine sub-packages call it from init(); registering the same name twice
// panics, as that is a wiring bug.
func RegisterBackend(name string, factory func() Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backendFactories[name]; dup {
		panic(fmt.Sprintf("qsim: backend %q registered twice", name))
	}
	backendFactories[name] = factory
}

// NewBackend returns a fresh engine by name, or ErrUnknownBackend.
func NewBackend(name string) (Backend, error) {
	backendsMu.RLock()
	factory, ok := backendFactories[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, name, ListBackends())
	}
	return factory(), nil
}

// ListBackends returns the registered engine names, sorted.
func ListBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AutoBackend picks an engine for a system of the given size: dense below
// autoSparseQubits, sparse at or above it when available. An explicit
// NewBackend call always wins over this heuristic.
func AutoBackend(numQubits int) (Backend, error) {
	name := "dense"
	if numQubits >= autoSparseQubits {
		backendsMu.RLock()
		_, haveSparse := backendFactories["sparse"]
		backendsMu.RUnlock()
		if haveSparse {
			name = "sparse"
		}
	}
	b, err := NewBackend(name)
	if err != nil {
		return nil, fmt.Errorf("auto-selecting backend for %d qubits: %w (import qsim/backend for the built-in engines)", numQubits, err)
	}
	logrus.Debugf("auto-selected %s backend for %d qubits", b.Name(), numQubits)
	return b, nil
}
