package qsim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NoiseChannel is a trace-preserving quantum channel applied to a subset of
// qubits. Channels act on density matrices: states constructed with
// NewDensityMatrix. Every Apply must leave the matrix Hermitian, trace-1,
// and positive-semidefinite up to floating tolerance; that contract holds
// for each variant and for any composition of them.
type NoiseChannel interface {
	// Name identifies the channel variant.
	Name() string
	// Apply mutates the state in place on the given qubit subset.
	Apply(s *QuantumState, qubits ...int) error
}

// kraus1Q is the operator-sum representation of a single-qubit channel.
// The operators satisfy Σ Kᵢ†Kᵢ = I.
type kraus1Q []*mat.CDense

// === Depolarizing ===

// Depolarizing replaces the addressed qubit's local state with the
// maximally mixed state I/2 with probability p, applied independently to
// each qubit in the subset. Four Kraus operators per qubit.
type Depolarizing struct {
	p float64
}

// NewDepolarizing validates p ∈ [0,1] and constructs the channel.
func NewDepolarizing(p float64) (*Depolarizing, error) {
	if !(p >= 0 && p <= 1) {
		return nil, fmt.Errorf("depolarizing probability %v outside [0,1]: %w", p, ErrInvalidParameter)
	}
	return &Depolarizing{p: p}, nil
}

// Name implements NoiseChannel.
func (d *Depolarizing) Name() string { return "depolarizing" }

// Probability returns the channel's depolarizing probability.
func (d *Depolarizing) Probability() float64 { return d.p }

func (d *Depolarizing) kraus() kraus1Q {
	k0 := complex(math.Sqrt(1-3*d.p/4), 0)
	kp := complex(math.Sqrt(d.p/4), 0)
	return kraus1Q{
		mat.NewCDense(2, 2, []complex128{k0, 0, 0, k0}),
		mat.NewCDense(2, 2, []complex128{0, kp, kp, 0}),
		mat.NewCDense(2, 2, []complex128{0, -1i * kp, 1i * kp, 0}),
		mat.NewCDense(2, 2, []complex128{kp, 0, 0, -kp}),
	}
}

// Apply implements NoiseChannel.
func (d *Depolarizing) Apply(s *QuantumState, qubits ...int) error {
	return s.applyKraus1Q(d.kraus(), qubits)
}

// === AmplitudeDamping ===

// AmplitudeDamping models energy relaxation |1⟩→|0⟩ with probability gamma
// per application. The |1⟩ population strictly decreases for gamma > 0 and
// never increases.
type AmplitudeDamping struct {
	gamma float64
}

// NewAmplitudeDamping validates gamma ∈ [0,1] and constructs the channel.
func NewAmplitudeDamping(gamma float64) (*AmplitudeDamping, error) {
	if !(gamma >= 0 && gamma <= 1) {
		return nil, fmt.Errorf("amplitude-damping gamma %v outside [0,1]: %w", gamma, ErrInvalidParameter)
	}
	return &AmplitudeDamping{gamma: gamma}, nil
}

// Name implements NoiseChannel.
func (a *AmplitudeDamping) Name() string { return "amplitude_damping" }

// Gamma returns the relaxation probability.
func (a *AmplitudeDamping) Gamma() float64 { return a.gamma }

func (a *AmplitudeDamping) kraus() kraus1Q {
	keep := complex(math.Sqrt(1-a.gamma), 0)
	decay := complex(math.Sqrt(a.gamma), 0)
	return kraus1Q{
		mat.NewCDense(2, 2, []complex128{1, 0, 0, keep}),
		mat.NewCDense(2, 2, []complex128{0, decay, 0, 0}),
	}
}

// Apply implements NoiseChannel.
func (a *AmplitudeDamping) Apply(s *QuantumState, qubits ...int) error {
	return s.applyKraus1Q(a.kraus(), qubits)
}

// === PhaseDamping ===

// PhaseDamping models dephasing: diagonal populations are preserved
// exactly while off-diagonal coherence shrinks by √(1-gamma).
type PhaseDamping struct {
	gamma float64
}

// NewPhaseDamping validates gamma ∈ [0,1] and constructs the channel.
func NewPhaseDamping(gamma float64) (*PhaseDamping, error) {
	if !(gamma >= 0 && gamma <= 1) {
		return nil, fmt.Errorf("phase-damping gamma %v outside [0,1]: %w", gamma, ErrInvalidParameter)
	}
	return &PhaseDamping{gamma: gamma}, nil
}

// Name implements NoiseChannel.
func (p *PhaseDamping) Name() string { return "phase_damping" }

// Gamma returns the dephasing probability.
func (p *PhaseDamping) Gamma() float64 { return p.gamma }

func (p *PhaseDamping) kraus() kraus1Q {
	keep := complex(math.Sqrt(1-p.gamma), 0)
	jump := complex(math.Sqrt(p.gamma), 0)
	return kraus1Q{
		mat.NewCDense(2, 2, []complex128{1, 0, 0, keep}),
		mat.NewCDense(2, 2, []complex128{0, 0, 0, jump}),
	}
}

// Apply implements NoiseChannel.
func (p *PhaseDamping) Apply(s *QuantumState, qubits ...int) error {
	return s.applyKraus1Q(p.kraus(), qubits)
}

// === ThermalRelaxation ===

// ThermalRelaxation combines amplitude and phase damping with decay
// probabilities 1-exp(-gateTime/T1) and 1-exp(-gateTime/T2).
//
// Physically T2 ≤ 2·T1; the engine does not enforce it. Callers supplying
// unphysical T1/T2 combinations get a channel that is still
// trace-preserving but not necessarily a positive map on all inputs.
type ThermalRelaxation struct {
	t1, t2   float64
	gateTime float64
}

// NewThermalRelaxation validates T1, T2, gateTime > 0 and constructs the
// channel.
func NewThermalRelaxation(t1, t2, gateTime float64) (*ThermalRelaxation, error) {
	if !(t1 > 0) {
		return nil, fmt.Errorf("thermal-relaxation T1 %v must be > 0: %w", t1, ErrInvalidParameter)
	}
	if !(t2 > 0) {
		return nil, fmt.Errorf("thermal-relaxation T2 %v must be > 0: %w", t2, ErrInvalidParameter)
	}
	if !(gateTime > 0) {
		return nil, fmt.Errorf("thermal-relaxation gate time %v must be > 0: %w", gateTime, ErrInvalidParameter)
	}
	return &ThermalRelaxation{t1: t1, t2: t2, gateTime: gateTime}, nil
}

// Name implements NoiseChannel.
func (t *ThermalRelaxation) Name() string { return "thermal_relaxation" }

// T1 returns the energy-relaxation time constant.
func (t *ThermalRelaxation) T1() float64 { return t.t1 }

// T2 returns the dephasing time constant.
func (t *ThermalRelaxation) T2() float64 { return t.t2 }

// GateTime returns the duration the channel models.
func (t *ThermalRelaxation) GateTime() float64 { return t.gateTime }

// Apply implements NoiseChannel.
func (t *ThermalRelaxation) Apply(s *QuantumState, qubits ...int) error {
	amp := &AmplitudeDamping{gamma: 1 - math.Exp(-t.gateTime/t.t1)}
	if err := s.applyKraus1Q(amp.kraus(), qubits); err != nil {
		return err
	}
	phase := &PhaseDamping{gamma: 1 - math.Exp(-t.gateTime/t.t2)}
	return s.applyKraus1Q(phase.kraus(), qubits)
}

// === Composite ===

// Composite chains channels, applying each member to the same qubit subset
// in list order. Order matters when members do not commute; the engine
// never reorders them.
type Composite struct {
	channels []NoiseChannel
}

// NewComposite validates the member list is non-empty with no nil entries.
func NewComposite(channels ...NoiseChannel) (*Composite, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("composite channel needs at least one member: %w", ErrInvalidParameter)
	}
	for i, ch := range channels {
		if ch == nil {
			return nil, fmt.Errorf("composite channel member %d is nil: %w", i, ErrInvalidParameter)
		}
	}
	return &Composite{channels: append([]NoiseChannel(nil), channels...)}, nil
}

// Name implements NoiseChannel.
func (c *Composite) Name() string { return "composite" }

// Channels returns the members in application order.
func (c *Composite) Channels() []NoiseChannel {
	return append([]NoiseChannel(nil), c.channels...)
}

// Apply implements NoiseChannel.
func (c *Composite) Apply(s *QuantumState, qubits ...int) error {
	for _, ch := range c.channels {
		if err := ch.Apply(s, qubits...); err != nil {
			return fmt.Errorf("composite member %s: %w", ch.Name(), err)
		}
	}
	return nil
}
