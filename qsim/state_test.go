package qsim_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-sim/quantum-sim/qsim"
	_ "github.com/quantum-sim/quantum-sim/qsim/backend"
)

func denseBackend(t *testing.T) qsim.Backend {
	t.Helper()
	b, err := qsim.NewBackend("dense")
	require.NoError(t, err)
	return b
}

const invSqrt2 = 1 / math.Sqrt2

func TestNewStateVector_StartsInGroundState(t *testing.T) {
	s, err := qsim.NewStateVector(3, denseBackend(t))
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumQubits())
	assert.Equal(t, 8, s.Dim())
	assert.True(t, s.IsPure())

	probs := s.Probabilities()
	assert.InDelta(t, 1.0, probs[0], 1e-12)
	for i := 1; i < len(probs); i++ {
		assert.InDelta(t, 0.0, probs[i], 1e-12)
	}
}

func TestNewStateVector_RejectsZeroQubits(t *testing.T) {
	_, err := qsim.NewStateVector(0, denseBackend(t))
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)
}

func TestNewStateVectorFrom_NormalizesInput(t *testing.T) {
	// (2, 0) normalizes to (1, 0).
	s, err := qsim.NewStateVectorFrom(1, []complex128{2, 0}, denseBackend(t))
	require.NoError(t, err)
	amps, err := s.Amplitudes()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cmplx.Abs(amps[0]), 1e-12)
}

func TestNewStateVectorFrom_RejectsBadInput(t *testing.T) {
	b := denseBackend(t)
	_, err := qsim.NewStateVectorFrom(2, []complex128{1, 0}, b)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)

	_, err = qsim.NewStateVectorFrom(1, []complex128{0, 0}, b)
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)
}

func TestApplyGate_IdentityIsNoOp(t *testing.T) {
	s, err := qsim.NewStateVectorFrom(1, []complex128{complex(0.6, 0), complex(0, 0.8)}, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.I(), 0))

	amps, err := s.Amplitudes()
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(amps[0]-complex(0.6, 0)), 1e-12)
	assert.InDelta(t, 0, cmplx.Abs(amps[1]-complex(0, 0.8)), 1e-12)
}

func TestApplyGate_HadamardMakesSuperposition(t *testing.T) {
	s, err := qsim.NewStateVector(1, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))

	probs := s.Probabilities()
	assert.InDelta(t, 0.5, probs[0], 1e-12)
	assert.InDelta(t, 0.5, probs[1], 1e-12)
}

func TestApplyGate_BellCircuit(t *testing.T) {
	// H on qubit 0 then CNOT(control 0, target 1) gives (|00⟩+|11⟩)/√2.
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	require.NoError(t, s.ApplyGate(qsim.CNOT(), 1, 0))

	amps, err := s.Amplitudes()
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(amps[0]-complex(invSqrt2, 0)), 1e-10)
	assert.InDelta(t, 0, cmplx.Abs(amps[1]), 1e-10)
	assert.InDelta(t, 0, cmplx.Abs(amps[2]), 1e-10)
	assert.InDelta(t, 0, cmplx.Abs(amps[3]-complex(invSqrt2, 0)), 1e-10)
}

func TestApplyGate_PreservesNorm(t *testing.T) {
	s, err := qsim.NewStateVector(3, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	require.NoError(t, s.ApplyGate(qsim.RX(1.234), 1))
	require.NoError(t, s.ApplyGate(qsim.CNOT(), 2, 0))
	require.NoError(t, s.ApplyGate(qsim.T(), 2))
	require.NoError(t, s.ApplyGate(qsim.RY(0.456), 1))

	var total float64
	for _, p := range s.Probabilities() {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-10)
}

func TestApplyGate_RejectsTargetCountMismatch(t *testing.T) {
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	err = s.ApplyGate(qsim.CNOT(), 0)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)
}

func TestApply_WrapsBoundGate(t *testing.T) {
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	g, err := qsim.NewGate("X", qsim.X(), []int{1}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Apply(g))

	probs := s.Probabilities()
	assert.InDelta(t, 1.0, probs[2], 1e-12)
}

func TestMeasure_CollapsesToDefiniteOutcome(t *testing.T) {
	s, err := qsim.NewStateVector(1, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	s.Seed(7)

	outcome, err := s.Measure(0)
	require.NoError(t, err)
	require.Contains(t, []int{0, 1}, outcome)

	// a second measurement of the collapsed state repeats the outcome.
	again, err := s.Measure(0)
	require.NoError(t, err)
	assert.Equal(t, outcome, again)

	probs := s.Probabilities()
	assert.InDelta(t, 1.0, probs[outcome], 1e-12)
}

func TestMeasure_SeededIsDeterministic(t *testing.T) {
	run := func() []int {
		s, err := qsim.NewStateVector(2, denseBackend(t))
		require.NoError(t, err)
		require.NoError(t, s.ApplyGate(qsim.H(), 0))
		require.NoError(t, s.ApplyGate(qsim.H(), 1))
		s.Seed(42)
		outcomes, err := s.MeasureAll()
		require.NoError(t, err)
		return outcomes
	}
	assert.Equal(t, run(), run())
}

func TestMeasure_RejectsOutOfRangeQubit(t *testing.T) {
	s, err := qsim.NewStateVector(1, denseBackend(t))
	require.NoError(t, err)
	_, err = s.Measure(1)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)
	_, err = s.Measure(-1)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)
}

func TestMeasureAll_BellOutcomesAreCorrelated(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		s, err := qsim.NewStateVector(2, denseBackend(t))
		require.NoError(t, err)
		require.NoError(t, s.ApplyGate(qsim.H(), 0))
		require.NoError(t, s.ApplyGate(qsim.CNOT(), 1, 0))
		s.Seed(seed)

		outcomes, err := s.MeasureAll()
		require.NoError(t, err)
		assert.Equal(t, outcomes[0], outcomes[1], "seed %d", seed)
	}
}

func TestMeasure_SuperpositionSeesBothOutcomes(t *testing.T) {
	counts := map[int]int{}
	for seed := int64(1); seed <= 100; seed++ {
		s, err := qsim.NewStateVector(1, denseBackend(t))
		require.NoError(t, err)
		require.NoError(t, s.ApplyGate(qsim.H(), 0))
		s.Seed(seed)
		o, err := s.Measure(0)
		require.NoError(t, err)
		counts[o]++
	}
	// with 100 independent seeds both outcomes appear and neither dominates
	// beyond what a fair coin plausibly produces.
	assert.Greater(t, counts[0], 20)
	assert.Greater(t, counts[1], 20)
}

func TestMeasure_DensityMatrixCollapse(t *testing.T) {
	s, err := qsim.NewDensityMatrix(2, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	require.NoError(t, s.ApplyGate(qsim.CNOT(), 1, 0))
	s.Seed(3)

	outcomes, err := s.MeasureAll()
	require.NoError(t, err)
	assert.Equal(t, outcomes[0], outcomes[1])

	rho, err := s.DensityMatrix()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, real(qsim.Trace(rho)), 1e-10)
}

func TestEntropy_BasisStateIsZero(t *testing.T) {
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s.Entropy(), 1e-12)
}

func TestEntropy_UniformSuperpositionIsMaximal(t *testing.T) {
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	require.NoError(t, s.ApplyGate(qsim.H(), 1))
	assert.InDelta(t, 2.0, s.Entropy(), 1e-10)
}

func TestFidelity_PurePure(t *testing.T) {
	b := denseBackend(t)
	a, err := qsim.NewStateVector(1, b)
	require.NoError(t, err)
	same, err := qsim.NewStateVector(1, b)
	require.NoError(t, err)
	orth, err := qsim.NewStateVectorFrom(1, []complex128{0, 1}, b)
	require.NoError(t, err)

	f, err := a.Fidelity(same)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 1e-12)

	f, err = a.Fidelity(orth)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, f, 1e-12)
}

func TestFidelity_PureMixed(t *testing.T) {
	b := denseBackend(t)
	pure, err := qsim.NewStateVectorFrom(1, []complex128{invSqrt2, invSqrt2}, b)
	require.NoError(t, err)
	mixed, err := pure.ToDensityMatrix()
	require.NoError(t, err)

	f, err := pure.Fidelity(mixed)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 1e-10)

	// symmetric in argument order.
	f, err = mixed.Fidelity(pure)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 1e-10)
}

func TestFidelity_ErrorPaths(t *testing.T) {
	b := denseBackend(t)
	one, err := qsim.NewStateVector(1, b)
	require.NoError(t, err)
	two, err := qsim.NewStateVector(2, b)
	require.NoError(t, err)
	_, err = one.Fidelity(two)
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)

	_, err = one.Fidelity(nil)
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)

	m1, err := qsim.NewDensityMatrix(1, b)
	require.NoError(t, err)
	m2, err := qsim.NewDensityMatrix(1, b)
	require.NoError(t, err)
	_, err = m1.Fidelity(m2)
	assert.ErrorIs(t, err, qsim.ErrUnsupported)
}

func TestBlochVector_CardinalStates(t *testing.T) {
	b := denseBackend(t)
	cases := []struct {
		name    string
		amps    []complex128
		x, y, z float64
	}{
		{"ground", []complex128{1, 0}, 0, 0, 1},
		{"excited", []complex128{0, 1}, 0, 0, -1},
		{"plus", []complex128{invSqrt2, invSqrt2}, 1, 0, 0},
		{"minus", []complex128{invSqrt2, -invSqrt2}, -1, 0, 0},
		{"plus_i", []complex128{invSqrt2, complex(0, invSqrt2)}, 0, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := qsim.NewStateVectorFrom(1, tc.amps, b)
			require.NoError(t, err)
			x, y, z, err := s.BlochVector(0)
			require.NoError(t, err)
			assert.InDelta(t, tc.x, x, 1e-10)
			assert.InDelta(t, tc.y, y, 1e-10)
			assert.InDelta(t, tc.z, z, 1e-10)
		})
	}
}

func TestBlochVector_EntangledQubitSitsAtOrigin(t *testing.T) {
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	require.NoError(t, s.ApplyGate(qsim.CNOT(), 1, 0))

	x, y, z, err := s.BlochVector(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, x, 1e-10)
	assert.InDelta(t, 0.0, y, 1e-10)
	assert.InDelta(t, 0.0, z, 1e-10)
}

func TestIsEntangled_TwoQubitExact(t *testing.T) {
	b := denseBackend(t)

	bell, err := qsim.NewStateVector(2, b)
	require.NoError(t, err)
	require.NoError(t, bell.ApplyGate(qsim.H(), 0))
	require.NoError(t, bell.ApplyGate(qsim.CNOT(), 1, 0))
	res := bell.IsEntangled()
	assert.True(t, res.Entangled)
	assert.True(t, res.Certain)

	product, err := qsim.NewStateVector(2, b)
	require.NoError(t, err)
	require.NoError(t, product.ApplyGate(qsim.H(), 0))
	require.NoError(t, product.ApplyGate(qsim.H(), 1))
	res = product.IsEntangled()
	assert.False(t, res.Entangled)
	assert.True(t, res.Certain)
}

func TestIsEntangled_LargerSystemsAreConservative(t *testing.T) {
	s, err := qsim.NewStateVector(3, denseBackend(t))
	require.NoError(t, err)
	res := s.IsEntangled()
	assert.True(t, res.Entangled)
	assert.False(t, res.Certain)
}

func TestPurity_PureVersusMixed(t *testing.T) {
	b := denseBackend(t)
	s, err := qsim.NewStateVector(1, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Purity(), 1e-12)

	mixed, err := qsim.NewDensityMatrix(1, b)
	require.NoError(t, err)
	depol, err := qsim.NewDepolarizing(1)
	require.NoError(t, err)
	require.NoError(t, mixed.ApplyNoise(depol, 0))
	assert.InDelta(t, 0.5, mixed.Purity(), 1e-10)
}

func TestConversion_RoundTripPreservesProbabilities(t *testing.T) {
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	require.NoError(t, s.ApplyGate(qsim.RY(0.9), 1))

	mixed, err := s.ToDensityMatrix()
	require.NoError(t, err)
	assert.False(t, mixed.IsPure())

	back, err := mixed.ToStateVector()
	require.NoError(t, err)
	assert.True(t, back.IsPure())

	want, got := s.Probabilities(), back.Probabilities()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-10)
	}
}

func TestToStateVector_RejectsMixedState(t *testing.T) {
	mixed, err := qsim.NewDensityMatrix(1, denseBackend(t))
	require.NoError(t, err)
	depol, err := qsim.NewDepolarizing(0.5)
	require.NoError(t, err)
	require.NoError(t, mixed.ApplyNoise(depol, 0))

	_, err = mixed.ToStateVector()
	assert.ErrorIs(t, err, qsim.ErrNotPure)
}

func TestApplyNoise_RequiresDensityMatrix(t *testing.T) {
	s, err := qsim.NewStateVector(1, denseBackend(t))
	require.NoError(t, err)
	depol, err := qsim.NewDepolarizing(0.1)
	require.NoError(t, err)
	err = s.ApplyNoise(depol, 0)
	assert.ErrorIs(t, err, qsim.ErrMixedRequired)
}

func TestClone_IsIndependent(t *testing.T) {
	s, err := qsim.NewStateVector(1, denseBackend(t))
	require.NoError(t, err)
	c := s.Clone()
	require.NoError(t, c.ApplyGate(qsim.X(), 0))

	assert.InDelta(t, 1.0, s.Probabilities()[0], 1e-12)
	assert.InDelta(t, 1.0, c.Probabilities()[1], 1e-12)
}

func TestString_KetNotation(t *testing.T) {
	s, err := qsim.NewStateVector(2, denseBackend(t))
	require.NoError(t, err)
	assert.Equal(t, "1.000|00⟩", s.String())

	require.NoError(t, s.ApplyGate(qsim.H(), 0))
	require.NoError(t, s.ApplyGate(qsim.CNOT(), 1, 0))
	assert.Equal(t, "0.707|00⟩ + 0.707|11⟩", s.String())
}
