package circuit

import (
	"fmt"
	"sort"
	"time"
)

// Result aggregates the outcomes of a shot run for final reporting.
// Counts keys are outcome bitstrings with qubit 0 as the first character.
type Result struct {
	NumQubits int
	Shots     int
	Workers   int
	Backend   string
	Seed      int64
	Counts    map[string]int
	Elapsed   time.Duration
}

// Probability returns the observed frequency of one outcome bitstring.
func (r *Result) Probability(outcome string) float64 {
	if r.Shots == 0 {
		return 0
	}
	return float64(r.Counts[outcome]) / float64(r.Shots)
}

// Outcomes returns the observed bitstrings sorted by descending count,
// ties broken lexicographically.
func (r *Result) Outcomes() []string {
	outcomes := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		outcomes = append(outcomes, k)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		if r.Counts[outcomes[i]] != r.Counts[outcomes[j]] {
			return r.Counts[outcomes[i]] > r.Counts[outcomes[j]]
		}
		return outcomes[i] < outcomes[j]
	})
	return outcomes
}

// Print displays aggregated counts at the end of the run.
func (r *Result) Print() {
	fmt.Println("=== Run Result ===")
	fmt.Printf("Qubits   : %d\n", r.NumQubits)
	fmt.Printf("Shots    : %d (%d workers)\n", r.Shots, r.Workers)
	fmt.Printf("Backend  : %s\n", r.Backend)
	fmt.Printf("Elapsed  : %s\n", r.Elapsed)
	for _, outcome := range r.Outcomes() {
		count := r.Counts[outcome]
		fmt.Printf("  %s : %6d  (%.3f)\n", outcome, count, float64(count)/float64(r.Shots))
	}
}
