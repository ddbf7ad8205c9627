package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/evsched/core/factory"
	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/metrics/eco"
	"github.com/kilianp07/evsched/infra/kpi"
)

// init registers the built-in sinks. Importing this package for side effects
// makes them available to coremetrics.NewSink.
func init() {
	_ = coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.StepRecorder, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterSink("influx", func(conf map[string]any) (coremetrics.StepRecorder, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})

	_ = coremetrics.RegisterSink("eco", func(conf map[string]any) (coremetrics.StepRecorder, error) {
		var c struct {
			EmissionFactor float64 `json:"emission_factor"`
			Store          string  `json:"store"`
			Path           string  `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.EmissionFactor == 0 {
			c.EmissionFactor = coremetrics.DefaultEmissionFactor
		}
		store, err := newEcoStore(c.Store, c.Path)
		if err != nil {
			return nil, err
		}
		return NewEcoSink(store, c.EmissionFactor, prometheus.DefaultRegisterer)
	})
}

// newEcoStore selects the aggregate store of the eco sink: "memory" (default)
// or "sqlite" at path.
func newEcoStore(kind, path string) (eco.Store, error) {
	switch kind {
	case "", "memory":
		return eco.NewMemoryStore(), nil
	case "sqlite":
		if path == "" {
			return nil, fmt.Errorf("eco sink: sqlite store requires a path")
		}
		return kpi.NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("eco sink: unknown store %q", kind)
	}
}
