package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evsched/app"
	"github.com/kilianp07/evsched/config"
	coremon "github.com/kilianp07/evsched/core/monitoring"
	"github.com/kilianp07/evsched/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "evsched",
	Short:        "EV charging simulation and scheduler",
	RunE:         runSimulation,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newService loads the configuration and builds the service. The returned
// cleanup closes the service and the log file and flushes error reports.
func newService() (*app.Service, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logs, err := app.ConfigureLogging(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Monitoring.Sentry)
	if err != nil {
		_ = logs.Close()
		return nil, nil, err
	}
	coremon.Init(mon)
	svc, err := app.New(cfg)
	if err != nil {
		coremon.CaptureException(err, map[string]string{"component": "startup"})
		coremon.Flush(2 * time.Second)
		_ = logs.Close()
		return nil, nil, err
	}
	return svc, func() {
		_ = svc.Close()
		coremon.Flush(2 * time.Second)
		_ = logs.Close()
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
