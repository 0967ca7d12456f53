package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quantum-sim/quantum-sim/qsim/profile"
)

// profilesCmd lists hardware noise profiles: the built-in catalog, plus
// any YAML catalog given with --profiles-file.
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List hardware noise profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		byName := make(map[string]profile.Profile)
		for _, name := range profile.List() {
			p, err := profile.Get(name)
			if err != nil {
				return err
			}
			byName[name] = p
		}
		if profilesFile != "" {
			loaded, err := profile.Load(profilesFile)
			if err != nil {
				return err
			}
			for name, p := range loaded {
				byName[name] = p
			}
		}
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(byName[name].Info())
		}
		return nil
	},
}

func init() {
	profilesCmd.Flags().StringVar(&profilesFile, "profiles-file", "", "YAML catalog extending the built-in hardware profiles")
	rootCmd.AddCommand(profilesCmd)
}
