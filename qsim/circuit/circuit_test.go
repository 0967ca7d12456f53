package circuit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-sim/quantum-sim/qsim"
	_ "github.com/quantum-sim/quantum-sim/qsim/backend"
	"github.com/quantum-sim/quantum-sim/qsim/circuit"
)

func TestNew_RejectsZeroWidth(t *testing.T) {
	c := circuit.New(0)
	assert.ErrorIs(t, c.Err(), qsim.ErrInvalidParameter)
	_, err := c.Run(circuit.RunConfig{})
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)
}

func TestBuilder_RemembersFirstError(t *testing.T) {
	c := circuit.New(2).H(0).CNOT(0, 5).X(1)
	require.Error(t, c.Err())
	assert.ErrorIs(t, c.Err(), qsim.ErrDimensionMismatch)

	// steps after the error are not appended, and Run surfaces it.
	_, err := c.Run(circuit.RunConfig{})
	assert.ErrorIs(t, err, qsim.ErrDimensionMismatch)
}

func TestBuilder_UnknownNamedGate(t *testing.T) {
	c := circuit.New(1).AddNamedGate("WARP", nil, 0)
	assert.ErrorIs(t, c.Err(), qsim.ErrUnknownGate)
}

func TestBuilder_NilNoiseChannel(t *testing.T) {
	c := circuit.New(1).AddNoise(nil, 0)
	assert.ErrorIs(t, c.Err(), qsim.ErrInvalidParameter)
}

func TestCircuit_HasNoise(t *testing.T) {
	plain := circuit.New(2).H(0).CNOT(0, 1)
	require.NoError(t, plain.Err())
	assert.False(t, plain.HasNoise())

	depol, err := qsim.NewDepolarizing(0.05)
	require.NoError(t, err)
	noisy := circuit.New(2).H(0).NoiseAll(depol)
	require.NoError(t, noisy.Err())
	assert.True(t, noisy.HasNoise())
}

func TestPrepare_RepresentationFollowsNoise(t *testing.T) {
	plain := circuit.New(2).H(0)
	s, err := plain.Prepare("dense")
	require.NoError(t, err)
	assert.True(t, s.IsPure())

	depol, err := qsim.NewDepolarizing(0.1)
	require.NoError(t, err)
	noisy := circuit.New(2).H(0).AddNoise(depol, 0)
	s, err = noisy.Prepare("dense")
	require.NoError(t, err)
	assert.False(t, s.IsPure())

	_, err = plain.Prepare("warpdrive")
	assert.ErrorIs(t, err, qsim.ErrUnknownBackend)
}

func TestRun_BellCircuitOnlyCorrelatedOutcomes(t *testing.T) {
	c := circuit.New(2).H(0).CNOT(0, 1)
	require.NoError(t, c.Err())

	res, err := c.Run(circuit.RunConfig{
		Engine: qsim.EngineConfig{Backend: "dense", Seed: 42},
		Shots:  qsim.ShotConfig{Shots: 512},
	})
	require.NoError(t, err)

	assert.Equal(t, 512, res.Shots)
	assert.Equal(t, 2, res.NumQubits)
	total := 0
	for outcome, count := range res.Counts {
		require.Contains(t, []string{"00", "11"}, outcome)
		total += count
	}
	assert.Equal(t, 512, total)
	// both branches of the Bell state show up over 512 shots.
	assert.Greater(t, res.Counts["00"], 0)
	assert.Greater(t, res.Counts["11"], 0)
}

func TestRun_GHZAcrossThreeQubits(t *testing.T) {
	c := circuit.New(3).H(0).CNOT(0, 1).CNOT(1, 2)
	require.NoError(t, c.Err())

	res, err := c.Run(circuit.RunConfig{
		Engine: qsim.EngineConfig{Backend: "dense", Seed: 7},
		Shots:  qsim.ShotConfig{Shots: 256},
	})
	require.NoError(t, err)
	for outcome := range res.Counts {
		require.Contains(t, []string{"000", "111"}, outcome)
	}
}

func TestRun_DeterministicForFixedSeed(t *testing.T) {
	run := func(workers int) map[string]int {
		c := circuit.New(2).H(0).RY(1, 0.8).CNOT(0, 1)
		require.NoError(t, c.Err())
		res, err := c.Run(circuit.RunConfig{
			Engine: qsim.EngineConfig{Backend: "dense", Seed: 99},
			Shots:  qsim.ShotConfig{Shots: 200, Workers: workers},
		})
		require.NoError(t, err)
		return res.Counts
	}
	assert.Equal(t, run(1), run(1))
	assert.Equal(t, run(4), run(4))
}

func TestRun_WorkersSplitShots(t *testing.T) {
	c := circuit.New(1).H(0)
	require.NoError(t, c.Err())

	res, err := c.Run(circuit.RunConfig{
		Engine: qsim.EngineConfig{Backend: "dense", Seed: 5},
		Shots:  qsim.ShotConfig{Shots: 103, Workers: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Workers)

	total := 0
	for _, count := range res.Counts {
		total += count
	}
	assert.Equal(t, 103, total)
}

func TestRun_WorkersCappedAtShots(t *testing.T) {
	c := circuit.New(1).X(0)
	require.NoError(t, c.Err())

	res, err := c.Run(circuit.RunConfig{
		Engine: qsim.EngineConfig{Backend: "dense", Seed: 1},
		Shots:  qsim.ShotConfig{Shots: 2, Workers: 16},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Workers)
	assert.Equal(t, 2, res.Counts["1"])
}

func TestRun_DefaultsShots(t *testing.T) {
	c := circuit.New(1).X(0)
	require.NoError(t, c.Err())
	res, err := c.Run(circuit.RunConfig{Engine: qsim.EngineConfig{Backend: "dense"}})
	require.NoError(t, err)
	assert.Equal(t, 1024, res.Shots)
	assert.Equal(t, 1024, res.Counts["1"])
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	c := circuit.New(1).X(0)
	require.NoError(t, c.Err())

	_, err := c.Run(circuit.RunConfig{Shots: qsim.ShotConfig{Shots: -1}})
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)

	_, err = c.Run(circuit.RunConfig{Shots: qsim.ShotConfig{Shots: 8, ReadoutError: 1.5}})
	assert.ErrorIs(t, err, qsim.ErrInvalidParameter)
}

func TestRun_ReadoutErrorFlipsBits(t *testing.T) {
	// with readout error 1 every bit flips deterministically.
	c := circuit.New(2).X(0)
	require.NoError(t, c.Err())

	res, err := c.Run(circuit.RunConfig{
		Engine: qsim.EngineConfig{Backend: "dense", Seed: 11},
		Shots:  qsim.ShotConfig{Shots: 64, ReadoutError: 1},
	})
	require.NoError(t, err)
	// |10⟩ prepared, both bits flip to "01".
	assert.Equal(t, 64, res.Counts["01"])
}

func TestRun_NoisyCircuitUsesDensityPath(t *testing.T) {
	depol, err := qsim.NewDepolarizing(1)
	require.NoError(t, err)
	c := circuit.New(1).X(0).AddNoise(depol, 0)
	require.NoError(t, c.Err())

	res, err := c.Run(circuit.RunConfig{
		Engine: qsim.EngineConfig{Backend: "dense", Seed: 13},
		Shots:  qsim.ShotConfig{Shots: 400},
	})
	require.NoError(t, err)
	// fully depolarized qubit measures 0 and 1 with equal probability.
	assert.Greater(t, res.Counts["0"], 100)
	assert.Greater(t, res.Counts["1"], 100)
}

func TestResult_ProbabilityAndOutcomes(t *testing.T) {
	r := &circuit.Result{
		NumQubits: 2,
		Shots:     10,
		Counts:    map[string]int{"00": 6, "11": 3, "01": 1},
	}
	assert.InDelta(t, 0.6, r.Probability("00"), 1e-12)
	assert.InDelta(t, 0.0, r.Probability("10"), 1e-12)
	assert.Equal(t, []string{"00", "11", "01"}, r.Outcomes())
}

func TestResult_OutcomesBreaksTiesLexicographically(t *testing.T) {
	r := &circuit.Result{
		Shots:  4,
		Counts: map[string]int{"10": 2, "01": 2},
	}
	assert.Equal(t, []string{"01", "10"}, r.Outcomes())
}

func TestApplyTo_EvolvesPreparedState(t *testing.T) {
	c := circuit.New(2).H(0).CNOT(0, 1)
	require.NoError(t, c.Err())

	s, err := c.Prepare("dense")
	require.NoError(t, err)
	require.NoError(t, c.ApplyTo(s))

	res := s.IsEntangled()
	assert.True(t, res.Entangled)
	assert.True(t, res.Certain)
}
