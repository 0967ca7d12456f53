package qsim

import (
	"fmt"
	"math/cmplx"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Gate is one unitary operation bound to an ordered list of target qubits.
// Gate bit k of the matrix's index space corresponds to Qubits()[k], with
// bit 0 least significant. Gates are immutable once constructed; Dagger
// returns a new Gate.
type Gate struct {
	name   string
	matrix *mat.CDense
	qubits []int
	params map[string]float64
}

// NewGate constructs a gate from a 2^k×2^k matrix and k target qubits.
// The matrix is not copied; callers must not modify it afterwards.
func NewGate(name string, matrix *mat.CDense, qubits []int, params map[string]float64) (Gate, error) {
	r, c := matrix.Dims()
	if r != c {
		return Gate{}, fmt.Errorf("gate %q: matrix is %dx%d, want square: %w", name, r, c, ErrDimensionMismatch)
	}
	k := len(qubits)
	if k < 1 {
		return Gate{}, fmt.Errorf("gate %q: needs at least one target qubit: %w", name, ErrInvalidParameter)
	}
	if r != 1<<k {
		return Gate{}, fmt.Errorf("gate %q: %dx%d matrix cannot act on %d qubits: %w", name, r, c, k, ErrDimensionMismatch)
	}
	seen := make(map[int]bool, k)
	for _, q := range qubits {
		if q < 0 {
			return Gate{}, fmt.Errorf("gate %q: negative qubit index %d: %w", name, q, ErrInvalidParameter)
		}
		if seen[q] {
			return Gate{}, fmt.Errorf("gate %q: duplicate qubit index %d: %w", name, q, ErrInvalidParameter)
		}
		seen[q] = true
	}
	g := Gate{name: name, matrix: matrix, qubits: append([]int(nil), qubits...)}
	if len(params) > 0 {
		g.params = make(map[string]float64, len(params))
		for key, v := range params {
			g.params[key] = v
		}
	}
	return g, nil
}

// Name returns the gate's name.
func (g Gate) Name() string { return g.name }

// Matrix returns the gate's unitary. Callers must not modify it.
func (g Gate) Matrix() Matrix { return g.matrix }

// Qubits returns a copy of the ordered target list.
func (g Gate) Qubits() []int { return append([]int(nil), g.qubits...) }

// NumQubits returns the number of qubits the gate acts on.
func (g Gate) NumQubits() int { return len(g.qubits) }

// Param returns the named parameter and whether it was set.
func (g Gate) Param(name string) (float64, bool) {
	v, ok := g.params[name]
	return v, ok
}

// Dagger returns a new Gate with the conjugate-transposed matrix, acting on
// the same qubits. Applying a gate followed by its dagger is the identity.
func (g Gate) Dagger() Gate {
	r, c := g.matrix.Dims()
	dag := mat.NewCDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dag.Set(j, i, cmplx.Conj(g.matrix.At(i, j)))
		}
	}
	name := g.name + "†"
	if cut, ok := strings.CutSuffix(g.name, "†"); ok {
		name = cut
	}
	out := Gate{name: name, matrix: dag, qubits: append([]int(nil), g.qubits...)}
	if len(g.params) > 0 {
		out.params = make(map[string]float64, len(g.params))
		for key, v := range g.params {
			out.params[key] = v
		}
	}
	return out
}

// String renders the gate as NAME(params)[q0,q1].
func (g Gate) String() string {
	var b strings.Builder
	b.WriteString(g.name)
	if len(g.params) > 0 {
		keys := make([]string, 0, len(g.params))
		for k := range g.params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('(')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%s=%g", k, g.params[k])
		}
		b.WriteByte(')')
	}
	b.WriteByte('[')
	for i, q := range g.qubits {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "q%d", q)
	}
	b.WriteByte(']')
	return b.String()
}
