package qsim

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Standard gate library. Each constructor returns a fresh matrix so callers
// can hand it to NewGate without sharing. Multi-qubit matrices index their
// basis with gate bit 0 least significant; CNOT, CZ, and Toffoli condition
// on the high bit(s) and act on bit 0.

// I returns the 2×2 identity.
func I() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{1, 0, 0, 1})
}

// X returns the Pauli-X (NOT) gate.
func X() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{0, 1, 1, 0})
}

// Y returns the Pauli-Y gate.
func Y() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{0, -1i, 1i, 0})
}

// Z returns the Pauli-Z gate.
func Z() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{1, 0, 0, -1})
}

// H returns the Hadamard gate.
func H() *mat.CDense {
	s := complex(1/math.Sqrt2, 0)
	return mat.NewCDense(2, 2, []complex128{s, s, s, -s})
}

// S returns the phase gate (√Z).
func S() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{1, 0, 0, 1i})
}

// T returns the π/8 gate (√S).
func T() *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{1, 0, 0, cmplx.Exp(1i * math.Pi / 4)})
}

// RX returns a rotation of theta radians around the X axis.
func RX(theta float64) *mat.CDense {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return mat.NewCDense(2, 2, []complex128{c, s, s, c})
}

// RY returns a rotation of theta radians around the Y axis.
func RY(theta float64) *mat.CDense {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return mat.NewCDense(2, 2, []complex128{c, -s, s, c})
}

// RZ returns a rotation of theta radians around the Z axis.
func RZ(theta float64) *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{
		cmplx.Exp(complex(0, -theta/2)), 0,
		0, cmplx.Exp(complex(0, theta/2)),
	})
}

// Phase returns the phase-shift gate diag(1, e^{iθ}).
func Phase(theta float64) *mat.CDense {
	return mat.NewCDense(2, 2, []complex128{1, 0, 0, cmplx.Exp(complex(0, theta))})
}

// CNOT returns the controlled-NOT gate: control on gate bit 1, target on
// gate bit 0. Bind qubits as [target, control].
func CNOT() *mat.CDense {
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
		0, 0, 1, 0,
	})
}

// CZ returns the controlled-Z gate. Symmetric in its two qubits.
func CZ() *mat.CDense {
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, -1,
	})
}

// SWAP returns the two-qubit swap gate.
func SWAP() *mat.CDense {
	return mat.NewCDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	})
}

// Toffoli returns the doubly-controlled NOT: controls on gate bits 1 and 2,
// target on gate bit 0. Bind qubits as [target, control1, control2].
func Toffoli() *mat.CDense {
	m := mat.NewCDense(8, 8, nil)
	for i := 0; i < 8; i++ {
		m.Set(i, i, 1)
	}
	m.Set(6, 6, 0)
	m.Set(7, 7, 0)
	m.Set(6, 7, 1)
	m.Set(7, 6, 1)
	return m
}

// Controlled promotes a k-qubit unitary to a (k+1)-qubit controlled
// version: identity when the new high bit is 0, u when it is 1.
func Controlled(u Matrix) *mat.CDense {
	n, _ := u.Dims()
	out := mat.NewCDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
		for j := 0; j < n; j++ {
			out.Set(n+i, n+j, u.At(i, j))
		}
	}
	return out
}

// KronAll folds the Kronecker product over the given matrices, left to
// right, without routing through a backend. Intended for building small
// composite gate matrices.
func KronAll(ms ...Matrix) *mat.CDense {
	if len(ms) == 0 {
		return mat.NewCDense(1, 1, []complex128{1})
	}
	acc := cloneCDense(ms[0])
	for _, m := range ms[1:] {
		ar, ac := acc.Dims()
		br, bc := m.Dims()
		next := mat.NewCDense(ar*br, ac*bc, nil)
		for i := 0; i < ar; i++ {
			for j := 0; j < ac; j++ {
				av := acc.At(i, j)
				if av == 0 {
					continue
				}
				for p := 0; p < br; p++ {
					for q := 0; q < bc; q++ {
						next.Set(i*br+p, j*bc+q, av*m.At(p, q))
					}
				}
			}
		}
		acc = next
	}
	return acc
}

// GateByName maps an external gate vocabulary onto library matrices. The
// table is closed: unknown names fail with ErrUnknownGate rather than
// silently no-op. Parameterized gates read their angle from params["theta"].
func GateByName(name string, params map[string]float64) (*mat.CDense, error) {
	theta, hasTheta := params["theta"]
	needTheta := func() (*mat.CDense, error) {
		return nil, fmt.Errorf("gate %q requires params[\"theta\"]: %w", name, ErrInvalidParameter)
	}
	switch name {
	case "I", "ID":
		return I(), nil
	case "X", "NOT":
		return X(), nil
	case "Y":
		return Y(), nil
	case "Z":
		return Z(), nil
	case "H":
		return H(), nil
	case "S":
		return S(), nil
	case "T":
		return T(), nil
	case "RX":
		if !hasTheta {
			return needTheta()
		}
		return RX(theta), nil
	case "RY":
		if !hasTheta {
			return needTheta()
		}
		return RY(theta), nil
	case "RZ":
		if !hasTheta {
			return needTheta()
		}
		return RZ(theta), nil
	case "PHASE", "P":
		if !hasTheta {
			return needTheta()
		}
		return Phase(theta), nil
	case "CNOT", "CX":
		return CNOT(), nil
	case "CZ":
		return CZ(), nil
	case "SWAP":
		return SWAP(), nil
	case "TOFFOLI", "CCX":
		return Toffoli(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGate, name)
	}
}
