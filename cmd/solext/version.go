package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tmaxmax/solext/pkg/command"
	"github.com/tmaxmax/solext/pkg/toolchain/native"
)

var versionCmd = &cobra.Command{
	Use:   "version PATH",
	Short: "Print the version of a native compiler executable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := native.Version(cmd.Context(), &command.Local{Logger: logger}, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", info.Version, info.ShortVersion)
		return nil
	},
}
