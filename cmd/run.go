package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evsched/infra/logger"
	"github.com/kilianp07/evsched/pkg/export"
)

var (
	runSteps  int
	runQuiet  bool
	runFormat string
	runOutput string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and print the reward series",
	RunE:  runSimulation,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().IntVarP(&runSteps, "steps", "n", 0, "number of steps (defaults to simulation.steps)")
		c.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "only print the averages")
		c.Flags().StringVarP(&runFormat, "format", "f", "json", "output format (json or csv)")
		c.Flags().StringVarP(&runOutput, "output", "o", "", "write the result to a file instead of stdout")
	}
	rootCmd.AddCommand(runCmd)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	steps := svc.Config().Simulation.Steps
	if runSteps > 0 {
		steps = runSteps
	}
	logg := logger.New("cli")
	res, err := svc.RunSteps(ctx, steps, func(step, total int) {
		if step%10 == 0 || step == total {
			logg.Debugf("progress %d/%d", step, total)
		}
	})
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if runOutput != "" {
		f, err := os.Create(runOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if runQuiet {
		return writeJSON(out, res.Averages)
	}
	return export.WriteResult(out, runFormat, res)
}
