package cmd

import (
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the initial environment snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()
		return writeJSON(cmd.OutOrStdout(), svc.Snapshot())
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
