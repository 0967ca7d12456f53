// Package profile holds hardware noise profiles: static parameter bundles
// (T1, T2, gate times, gate and readout error rates) for named quantum
// devices, and their conversion into qsim noise channels. The engine core
// never sees the raw parameters, only the channels built from them.
package profile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantum-sim/quantum-sim/qsim"
)

// Profile is one device's noise parameter bundle. Times are in seconds,
// error rates are probabilities.
type Profile struct {
	Name         string  `yaml:"name"`
	Version      string  `yaml:"version"`
	T1           float64 `yaml:"t1"`            // energy-relaxation time constant
	T2           float64 `yaml:"t2"`            // dephasing time constant
	GateTime1Q   float64 `yaml:"gate_time_1q"`  // single-qubit gate duration
	GateTime2Q   float64 `yaml:"gate_time_2q"`  // two-qubit gate duration
	GateError1Q  float64 `yaml:"gate_error_1q"` // single-qubit depolarizing probability
	GateError2Q  float64 `yaml:"gate_error_2q"` // two-qubit depolarizing probability
	ReadoutError float64 `yaml:"readout_error"` // measurement bit-flip probability
}

// Catalog is the YAML file layout for profile catalogs.
type Catalog struct {
	Version  string    `yaml:"version"`
	Profiles []Profile `yaml:"profiles"`
}

// builtins are representative published device parameters. A YAML catalog
// loaded with Load extends or overrides them.
var builtins = map[string]Profile{
	"ibm_heron": {
		Name: "ibm_heron", Version: "2025.2",
		T1: 300e-6, T2: 200e-6,
		GateTime1Q: 60e-9, GateTime2Q: 660e-9,
		GateError1Q: 0.0003, GateError2Q: 0.004,
		ReadoutError: 0.01,
	},
	"google_willow": {
		Name: "google_willow", Version: "2025.1",
		T1: 100e-6, T2: 89e-6,
		GateTime1Q: 25e-9, GateTime2Q: 42e-9,
		GateError1Q: 0.0004, GateError2Q: 0.0025,
		ReadoutError: 0.008,
	},
	"ionq_forte": {
		Name: "ionq_forte", Version: "2025.1",
		T1: 100, T2: 1,
		GateTime1Q: 130e-6, GateTime2Q: 970e-6,
		GateError1Q: 0.0001, GateError2Q: 0.001,
		ReadoutError: 0.005,
	},
	"quantinuum_h1": {
		Name: "quantinuum_h1", Version: "2024.4",
		T1: 60, T2: 4,
		GateTime1Q: 10e-6, GateTime2Q: 25e-6,
		GateError1Q: 0.00005, GateError2Q: 0.002,
		ReadoutError: 0.003,
	},
	"rigetti_aspen_m3": {
		Name: "rigetti_aspen_m3", Version: "2024.1",
		T1: 25e-6, T2: 20e-6,
		GateTime1Q: 40e-9, GateTime2Q: 240e-9,
		GateError1Q: 0.0005, GateError2Q: 0.015,
		ReadoutError: 0.02,
	},
}

// Get returns a profile by name from the built-in catalog.
func Get(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown hardware profile %q (available: %s)", name, strings.Join(List(), ", "))
	}
	return p, nil
}

// List returns the built-in profile names, sorted.
func List() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a YAML catalog file and returns its profiles keyed by name,
// validating each entry.
func Load(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing profile catalog: %w", err)
	}
	out := make(map[string]Profile, len(cat.Profiles))
	for i, p := range cat.Profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile catalog entry %d: %w", i, err)
		}
		out[p.Name] = p
	}
	return out, nil
}

// Validate checks the bundle's parameter ranges. T2 ≤ 2·T1 is not
// enforced; see ThermalRelaxation.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name: %w", qsim.ErrInvalidParameter)
	}
	if !(p.T1 > 0) || !(p.T2 > 0) {
		return fmt.Errorf("profile %s: T1 %v and T2 %v must be > 0: %w", p.Name, p.T1, p.T2, qsim.ErrInvalidParameter)
	}
	if !(p.GateTime1Q > 0) || !(p.GateTime2Q > 0) {
		return fmt.Errorf("profile %s: gate times must be > 0: %w", p.Name, qsim.ErrInvalidParameter)
	}
	for _, e := range []float64{p.GateError1Q, p.GateError2Q, p.ReadoutError} {
		if !(e >= 0 && e <= 1) {
			return fmt.Errorf("profile %s: error rate %v outside [0,1]: %w", p.Name, e, qsim.ErrInvalidParameter)
		}
	}
	return nil
}

// Channel1Q builds the noise channel a single-qubit gate incurs on this
// device: thermal relaxation over the gate duration composed with the
// gate's depolarizing error.
func (p Profile) Channel1Q() (qsim.NoiseChannel, error) {
	return p.channel(p.GateTime1Q, p.GateError1Q)
}

// Channel2Q builds the per-qubit noise channel a two-qubit gate incurs.
func (p Profile) Channel2Q() (qsim.NoiseChannel, error) {
	return p.channel(p.GateTime2Q, p.GateError2Q)
}

func (p Profile) channel(gateTime, gateError float64) (qsim.NoiseChannel, error) {
	thermal, err := qsim.NewThermalRelaxation(p.T1, p.T2, gateTime)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	depol, err := qsim.NewDepolarizing(gateError)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return qsim.NewComposite(thermal, depol)
}

// Info renders a human-readable summary of the bundle.
func (p Profile) Info() string {
	return fmt.Sprintf("%s (v%s): T1=%.3gs T2=%.3gs 1Q err=%.3g%% 2Q err=%.3g%% readout err=%.3g%%",
		p.Name, p.Version, p.T1, p.T2,
		p.GateError1Q*100, p.GateError2Q*100, p.ReadoutError*100)
}
