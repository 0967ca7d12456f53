package qsim_test

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-sim/quantum-sim/qsim"
	_ "github.com/quantum-sim/quantum-sim/qsim/backend"
)

func TestExpandOperator_SingleQubitActsAsIdentityElsewhere(t *testing.T) {
	b := denseBackend(t)

	// X on qubit 0 of a 2-qubit system is I ⊗ X (high qubit leftmost).
	full, err := qsim.ExpandOperator(b, qsim.X(), []int{0}, 2)
	require.NoError(t, err)
	want := qsim.KronAll(qsim.I(), qsim.X())
	assertMatricesEqual(t, want, full, 1e-12)

	// X on qubit 1 is X ⊗ I.
	full, err = qsim.ExpandOperator(b, qsim.X(), []int{1}, 2)
	require.NoError(t, err)
	want = qsim.KronAll(qsim.X(), qsim.I())
	assertMatricesEqual(t, want, full, 1e-12)
}

func TestExpandOperator_FullSpanNaturalOrderPassesThrough(t *testing.T) {
	b := denseBackend(t)
	g := qsim.CNOT()
	full, err := qsim.ExpandOperator(b, g, []int{0, 1}, 2)
	require.NoError(t, err)
	assertMatricesEqual(t, g, full, 0)
}

func TestExpandOperator_ReversedTargetsSwapGateBits(t *testing.T) {
	b := denseBackend(t)

	// CNOT with targets [1,0] reads gate bit 0 from qubit 1: the control
	// moves to qubit 0. On |01⟩ (qubit 0 set) it must flip qubit 1.
	full, err := qsim.ExpandOperator(b, qsim.CNOT(), []int{1, 0}, 2)
	require.NoError(t, err)

	v := []complex128{0, 1, 0, 0}
	out := b.MulVec(full, v)
	assert.InDelta(t, 0, cmplx.Abs(out[3]-1), 1e-12)
	assert.InDelta(t, 0, cmplx.Abs(out[1]), 1e-12)
}

func TestExpandOperator_NonAdjacentTargets(t *testing.T) {
	b := denseBackend(t)

	// CNOT bound to qubits [2,0] in a 3-qubit system: control on qubit 0,
	// target on qubit 2, qubit 1 untouched. |011⟩ → |111⟩.
	full, err := qsim.ExpandOperator(b, qsim.CNOT(), []int{2, 0}, 3)
	require.NoError(t, err)

	v := make([]complex128, 8)
	v[0b011] = 1
	out := b.MulVec(full, v)
	assert.InDelta(t, 0, cmplx.Abs(out[0b111]-1), 1e-12)

	// |010⟩ has the control clear and stays put.
	v = make([]complex128, 8)
	v[0b010] = 1
	out = b.MulVec(full, v)
	assert.InDelta(t, 0, cmplx.Abs(out[0b010]-1), 1e-12)
}

func TestExpandOperator_ExpandedUnitaryStaysUnitary(t *testing.T) {
	b := denseBackend(t)
	full, err := qsim.ExpandOperator(b, qsim.H(), []int{1}, 3)
	require.NoError(t, err)

	// U·U† = I for the expansion of a unitary.
	prod := b.MatMul(full, b.Dagger(full))
	assertMatricesEqual(t, b.Eye(8), prod, 1e-12)
}

func TestExpandOperator_Validation(t *testing.T) {
	b := denseBackend(t)

	_, err := qsim.ExpandOperator(b, qsim.X(), nil, 2)
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)

	_, err = qsim.ExpandOperator(b, qsim.CNOT(), []int{0}, 2)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)

	_, err = qsim.ExpandOperator(b, qsim.X(), []int{2}, 2)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)

	_, err = qsim.ExpandOperator(b, qsim.CNOT(), []int{0, 0}, 2)
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)

	_, err = qsim.ExpandOperator(b, qsim.CNOT(), []int{0, 1}, 1)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)
}

func TestToffoli_FlipsOnlyWhenBothControlsSet(t *testing.T) {
	s, err := qsim.NewStateVector(3, denseBackend(t))
	require.NoError(t, err)
	// set both controls (qubits 1, 2) with the target (qubit 0) clear.
	require.NoError(t, s.ApplyGate(qsim.X(), 1))
	require.NoError(t, s.ApplyGate(qsim.X(), 2))
	require.NoError(t, s.ApplyGate(qsim.Toffoli(), 0, 1, 2))

	assert.InDelta(t, 1.0, s.Probabilities()[0b111], 1e-12)

	// with one control clear the target stays.
	s2, err := qsim.NewStateVector(3, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s2.ApplyGate(qsim.X(), 1))
	require.NoError(t, s2.ApplyGate(qsim.Toffoli(), 0, 1, 2))
	assert.InDelta(t, 1.0, s2.Probabilities()[0b010], 1e-12)
}

func assertMatricesEqual(t *testing.T, want, got qsim.Matrix, tol float64) {
	t.Helper()
	wr, wc := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, wr, gr)
	require.Equal(t, wc, gc)
	for i := 0; i < wr; i++ {
		for j := 0; j < wc; j++ {
			d := cmplx.Abs(want.At(i, j) - got.At(i, j))
			if d > tol {
				t.Fatalf("matrices differ at (%d,%d): want %v, got %v", i, j, want.At(i, j), got.At(i, j))
			}
		}
	}
}
