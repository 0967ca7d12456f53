package circuit

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantum-sim/quantum-sim/qsim"
)

// RunConfig groups everything a shot run needs.
type RunConfig struct {
	Engine qsim.EngineConfig // backend name and master seed
	Shots  qsim.ShotConfig   // repetitions, workers, readout error
}

// Run evolves the circuit once, then repeats the measurement over
// cfg.Shots.Shots clones of the evolved state. Gate and noise steps are
// deterministic, so the evolution is shared; the only per-shot randomness
// is measurement collapse (and optional readout bit-flips), drawn from a
// per-worker RNG stream so workers never correlate.
func (c *Circuit) Run(cfg RunConfig) (*Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	shots := cfg.Shots.Shots
	if shots == 0 {
		shots = 1024
	}
	if shots < 0 {
		return nil, fmt.Errorf("shots must be > 0, got %d: %w", shots, qsim.ErrInvalidParameter)
	}
	if !(cfg.Shots.ReadoutError >= 0 && cfg.Shots.ReadoutError <= 1) {
		return nil, fmt.Errorf("readout error %v outside [0,1]: %w", cfg.Shots.ReadoutError, qsim.ErrInvalidParameter)
	}
	workers := cfg.Shots.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > shots {
		workers = shots
	}

	start := time.Now()
	template, err := c.Prepare(cfg.Engine.Backend)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyTo(template); err != nil {
		return nil, err
	}
	logrus.Debugf("evolved %d-qubit circuit with %d steps on %s backend in %s",
		c.numQubits, len(c.steps), template.Backend().Name(), time.Since(start))

	// Derive every worker stream up front; PartitionedRNG itself is not
	// safe for concurrent use.
	prng := qsim.NewPartitionedRNG(qsim.NewSimulationKey(cfg.Engine.Seed))
	type workerOut struct {
		counts map[string]int
		err    error
	}
	outs := make([]workerOut, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		rng := prng.ForSubsystem(qsim.SubsystemShot(w))
		// Spread the remainder over the first shots%workers workers.
		n := shots / workers
		if w < shots%workers {
			n++
		}
		wg.Add(1)
		go func(w, n int) {
			defer wg.Done()
			counts := make(map[string]int)
			for i := 0; i < n; i++ {
				st := template.Clone()
				st.SetRand(rng)
				outcomes, err := st.MeasureAll()
				if err != nil {
					outs[w] = workerOut{err: err}
					return
				}
				if p := cfg.Shots.ReadoutError; p > 0 {
					for q := range outcomes {
						if rng.Float64() < p {
							outcomes[q] ^= 1
						}
					}
				}
				counts[bitstring(outcomes)]++
			}
			outs[w] = workerOut{counts: counts}
		}(w, n)
	}
	wg.Wait()

	result := &Result{
		NumQubits: c.numQubits,
		Shots:     shots,
		Workers:   workers,
		Backend:   template.Backend().Name(),
		Seed:      cfg.Engine.Seed,
		Counts:    make(map[string]int),
	}
	for _, out := range outs {
		if out.err != nil {
			return nil, out.err
		}
		for k, v := range out.counts {
			result.Counts[k] += v
		}
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

// bitstring renders measurement outcomes with qubit 0 as the first
// character.
func bitstring(outcomes []int) string {
	var b strings.Builder
	b.Grow(len(outcomes))
	for _, o := range outcomes {
		if o == 0 {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}
