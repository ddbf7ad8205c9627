package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/evsched/core/metrics"
)

// PromSink exposes simulation telemetry as Prometheus metrics.
type PromSink struct {
	steps       prometheus.Counter
	reward      *prometheus.GaugeVec
	total       prometheus.Histogram
	eligible    prometheus.Gauge
	assignments *prometheus.CounterVec
	health      *prometheus.GaugeVec
	queue       *prometheus.GaugeVec
	average     *prometheus.GaugeVec
	progress    *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.steps, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evsched_steps_total",
		Help: "Total number of simulated steps",
	})); err != nil {
		return nil, err
	}
	if s.reward, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsched_step_reward",
		Help: "Reward components of the last step",
	}, []string{"component"})); err != nil {
		return nil, err
	}
	if s.total, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "evsched_step_total_reward",
		Help:    "Distribution of the total reward per step",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})); err != nil {
		return nil, err
	}
	if s.eligible, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evsched_eligible_users",
		Help: "Users below the scheduling threshold in the last step",
	})); err != nil {
		return nil, err
	}
	if s.assignments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evsched_assignments_total",
		Help: "Users assigned per charger",
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.health, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsched_charger_health",
		Help: "Charger health score",
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.queue, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsched_charger_queue_length",
		Help: "Vehicles queued at the charger",
	}, []string{"charger_id"})); err != nil {
		return nil, err
	}
	if s.average, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsched_run_average_reward",
		Help: "Average reward components of the last completed run",
	}, []string{"component"})); err != nil {
		return nil, err
	}
	if s.progress, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evsched_run_progress_ratio",
		Help: "Completed share of the requested steps",
	}, []string{"run_id"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStep updates the step counters and reward gauges.
func (s *PromSink) RecordStep(rec coremetrics.StepRecord) error {
	s.steps.Inc()
	for name, v := range rec.Rewards.Map() {
		s.reward.WithLabelValues(name).Set(v)
	}
	s.total.Observe(rec.Rewards.TotalReward)
	s.eligible.Set(float64(rec.EligibleUsers))
	return nil
}

// RecordAssignments counts assignments per charger.
func (s *PromSink) RecordAssignments(as []coremetrics.Assignment) error {
	for _, a := range as {
		s.assignments.WithLabelValues(a.ChargerID).Inc()
	}
	return nil
}

// RecordChargerStates sets the health and queue gauges.
func (s *PromSink) RecordChargerStates(states []coremetrics.ChargerState) error {
	for _, st := range states {
		s.health.WithLabelValues(st.Charger.ID).Set(st.Charger.HealthScore)
		s.queue.WithLabelValues(st.Charger.ID).Set(float64(st.Charger.QueueLength))
	}
	return nil
}

// RecordRunSummary publishes the run averages.
func (s *PromSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	for name, v := range sum.Averages.Map() {
		s.average.WithLabelValues(name).Set(v)
	}
	return nil
}

// RecordProgress sets the progress gauge of the run.
func (s *PromSink) RecordProgress(runID string, step, total int) error {
	ratio := 1.0
	if total > 0 {
		ratio = float64(step) / float64(total)
	}
	s.progress.WithLabelValues(runID).Set(ratio)
	return nil
}
