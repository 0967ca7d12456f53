// Package circuit provides the gate/noise sequence container and the shot
// runner built on the qsim engine. A Circuit is an ordered list of steps;
// running it prepares a state, evolves it through every step, then
// repeats measurement over many shots, optionally across workers.
package circuit

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/quantum-sim/quantum-sim/qsim"
)

type stepKind int

const (
	gateStep stepKind = iota
	noiseStep
)

type step struct {
	kind   stepKind
	gate   qsim.Gate
	noise  qsim.NoiseChannel
	qubits []int
}

// Circuit is an ordered gate/noise sequence over a fixed number of qubits.
// Builder methods chain; the first construction error is remembered and
// surfaced by Err and Run rather than panicking mid-chain.
type Circuit struct {
	numQubits int
	steps     []step
	err       error
}

// New returns an empty circuit over numQubits qubits.
func New(numQubits int) *Circuit {
	c := &Circuit{numQubits: numQubits}
	if numQubits < 1 {
		c.err = fmt.Errorf("circuit needs at least one qubit, got %d: %w", numQubits, qsim.ErrInvalidParameter)
	}
	return c
}

// NumQubits returns the circuit width.
func (c *Circuit) NumQubits() int { return c.numQubits }

// Len returns the number of steps.
func (c *Circuit) Len() int { return len(c.steps) }

// Err returns the first builder error, if any.
func (c *Circuit) Err() error { return c.err }

// HasNoise reports whether any step is a noise channel; such circuits run
// on the density-matrix representation.
func (c *Circuit) HasNoise() bool {
	for _, s := range c.steps {
		if s.kind == noiseStep {
			return true
		}
	}
	return false
}

func (c *Circuit) addGate(name string, matrix *mat.CDense, qubits []int, params map[string]float64) *Circuit {
	if c.err != nil {
		return c
	}
	for _, q := range qubits {
		if q < 0 || q >= c.numQubits {
			c.err = fmt.Errorf("%s: qubit %d out of range [0,%d): %w", name, q, c.numQubits, qsim.ErrDimensionMismatch)
			return c
		}
	}
	g, err := qsim.NewGate(name, matrix, qubits, params)
	if err != nil {
		c.err = err
		return c
	}
	c.steps = append(c.steps, step{kind: gateStep, gate: g})
	return c
}

// H appends a Hadamard on qubit q.
func (c *Circuit) H(q int) *Circuit { return c.addGate("H", qsim.H(), []int{q}, nil) }

// X appends a Pauli-X on qubit q.
func (c *Circuit) X(q int) *Circuit { return c.addGate("X", qsim.X(), []int{q}, nil) }

// Y appends a Pauli-Y on qubit q.
func (c *Circuit) Y(q int) *Circuit { return c.addGate("Y", qsim.Y(), []int{q}, nil) }

// Z appends a Pauli-Z on qubit q.
func (c *Circuit) Z(q int) *Circuit { return c.addGate("Z", qsim.Z(), []int{q}, nil) }

// S appends a phase gate on qubit q.
func (c *Circuit) S(q int) *Circuit { return c.addGate("S", qsim.S(), []int{q}, nil) }

// T appends a T gate on qubit q.
func (c *Circuit) T(q int) *Circuit { return c.addGate("T", qsim.T(), []int{q}, nil) }

// RX appends a rotation of theta around X on qubit q.
func (c *Circuit) RX(q int, theta float64) *Circuit {
	return c.addGate("RX", qsim.RX(theta), []int{q}, map[string]float64{"theta": theta})
}

// RY appends a rotation of theta around Y on qubit q.
func (c *Circuit) RY(q int, theta float64) *Circuit {
	return c.addGate("RY", qsim.RY(theta), []int{q}, map[string]float64{"theta": theta})
}

// RZ appends a rotation of theta around Z on qubit q.
func (c *Circuit) RZ(q int, theta float64) *Circuit {
	return c.addGate("RZ", qsim.RZ(theta), []int{q}, map[string]float64{"theta": theta})
}

// Phase appends a phase shift of theta on qubit q.
func (c *Circuit) Phase(q int, theta float64) *Circuit {
	return c.addGate("PHASE", qsim.Phase(theta), []int{q}, map[string]float64{"theta": theta})
}

// CNOT appends a controlled-NOT. The library CNOT conditions on its high
// gate bit, so the binding order is [target, control].
func (c *Circuit) CNOT(control, target int) *Circuit {
	return c.addGate("CNOT", qsim.CNOT(), []int{target, control}, nil)
}

// CZ appends a controlled-Z on qubits a and b.
func (c *Circuit) CZ(a, b int) *Circuit {
	return c.addGate("CZ", qsim.CZ(), []int{a, b}, nil)
}

// SWAP appends a swap of qubits a and b.
func (c *Circuit) SWAP(a, b int) *Circuit {
	return c.addGate("SWAP", qsim.SWAP(), []int{a, b}, nil)
}

// Toffoli appends a doubly-controlled NOT; the matrix conditions on its
// two high gate bits.
func (c *Circuit) Toffoli(control1, control2, target int) *Circuit {
	return c.addGate("TOFFOLI", qsim.Toffoli(), []int{target, control1, control2}, nil)
}

// AddGate appends an already-constructed gate.
func (c *Circuit) AddGate(g qsim.Gate) *Circuit {
	if c.err != nil {
		return c
	}
	for _, q := range g.Qubits() {
		if q < 0 || q >= c.numQubits {
			c.err = fmt.Errorf("%s: qubit %d out of range [0,%d): %w", g.Name(), q, c.numQubits, qsim.ErrDimensionMismatch)
			return c
		}
	}
	c.steps = append(c.steps, step{kind: gateStep, gate: g})
	return c
}

// AddNamedGate appends a gate from the closed library vocabulary.
func (c *Circuit) AddNamedGate(name string, params map[string]float64, qubits ...int) *Circuit {
	if c.err != nil {
		return c
	}
	matrix, err := qsim.GateByName(name, params)
	if err != nil {
		c.err = err
		return c
	}
	return c.addGate(name, matrix, qubits, params)
}

// AddNoise appends a noise channel step on the given qubit subset.
func (c *Circuit) AddNoise(ch qsim.NoiseChannel, qubits ...int) *Circuit {
	if c.err != nil {
		return c
	}
	if ch == nil {
		c.err = fmt.Errorf("nil noise channel: %w", qsim.ErrInvalidParameter)
		return c
	}
	for _, q := range qubits {
		if q < 0 || q >= c.numQubits {
			c.err = fmt.Errorf("%s: qubit %d out of range [0,%d): %w", ch.Name(), q, c.numQubits, qsim.ErrDimensionMismatch)
			return c
		}
	}
	if len(qubits) == 0 {
		c.err = fmt.Errorf("%s: no qubits given: %w", ch.Name(), qsim.ErrInvalidParameter)
		return c
	}
	c.steps = append(c.steps, step{kind: noiseStep, noise: ch, qubits: append([]int(nil), qubits...)})
	return c
}

// NoiseAll appends a noise channel step covering every qubit.
func (c *Circuit) NoiseAll(ch qsim.NoiseChannel) *Circuit {
	qubits := make([]int, c.numQubits)
	for i := range qubits {
		qubits[i] = i
	}
	return c.AddNoise(ch, qubits...)
}

// Prepare constructs the initial state for this circuit: the all-zero
// basis state, mixed when the sequence contains noise, on the named
// engine ("" or "auto" selects one for the width).
func (c *Circuit) Prepare(engine string) (*qsim.QuantumState, error) {
	if c.err != nil {
		return nil, c.err
	}
	var b qsim.Backend
	if engine != "" && engine != "auto" {
		var err error
		if b, err = qsim.NewBackend(engine); err != nil {
			return nil, err
		}
	}
	if c.HasNoise() {
		return qsim.NewDensityMatrix(c.numQubits, b)
	}
	return qsim.NewStateVector(c.numQubits, b)
}

// ApplyTo evolves a prepared state through every step in order.
func (c *Circuit) ApplyTo(s *qsim.QuantumState) error {
	if c.err != nil {
		return c.err
	}
	for i, st := range c.steps {
		var err error
		switch st.kind {
		case gateStep:
			err = s.Apply(st.gate)
		case noiseStep:
			err = s.ApplyNoise(st.noise, st.qubits...)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
