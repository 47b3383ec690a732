package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tmaxmax/solext/pkg/preset"
)

var presetsEVMVersion string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the presets and the compiler settings they map to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, p := range preset.All() {
			fmt.Fprintf(w, "%s\t%s\n", p, p.Settings(presetsEVMVersion))
		}
		return w.Flush()
	},
}

func init() {
	presetsCmd.Flags().StringVar(&presetsEVMVersion, "evm-version", "", "EVM version to include in the settings")
}
