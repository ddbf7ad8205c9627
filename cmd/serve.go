package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulation and serve the results API and Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()
		return svc.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
