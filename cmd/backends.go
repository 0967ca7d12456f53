package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantum-sim/quantum-sim/qsim"
)

// backendsCmd lists the registered linear-algebra engines.
var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the registered linear-algebra engines",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range qsim.ListBackends() {
			b, err := qsim.NewBackend(name)
			if err != nil {
				continue
			}
			capabilities := ""
			if _, ok := b.(qsim.SparsityDetector); ok {
				capabilities += " sparsity-detection"
			}
			if _, ok := b.(qsim.GateCompiler); ok {
				capabilities += " compiled-kernels"
			}
			fmt.Printf("%-8s%s\n", name, capabilities)
		}
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
