package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recommendUser string

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank chargers for a user against the initial snapshot",
	RunE:  recommend,
}

func init() {
	recommendCmd.Flags().StringVarP(&recommendUser, "user", "u", "", "user id")
	_ = recommendCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(recommendCmd)
}

func recommend(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()
	if _, ok := svc.Snapshot().User(recommendUser); !ok {
		return fmt.Errorf("unknown user %q", recommendUser)
	}
	return writeJSON(cmd.OutOrStdout(), svc.Recommend(recommendUser))
}
