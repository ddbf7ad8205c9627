package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/evsched/api/chargers"
	"github.com/kilianp07/evsched/api/runs"
	"github.com/kilianp07/evsched/config"
	"github.com/kilianp07/evsched/core/env"
	"github.com/kilianp07/evsched/core/factory"
	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/monitoring"
	"github.com/kilianp07/evsched/core/results"
	"github.com/kilianp07/evsched/core/scheduler"
	"github.com/kilianp07/evsched/core/simulation"
	"github.com/kilianp07/evsched/infra/logger"
	"github.com/kilianp07/evsched/infra/metrics"
	"github.com/kilianp07/evsched/infra/mqtt"
	"github.com/kilianp07/evsched/internal/eventbus"
)

// Service builds the environment, scheduler and telemetry from the
// configuration and drives simulation runs.
type Service struct {
	cfg       *config.Config
	env       *lockedEnv
	Scheduler *scheduler.Scheduler
	sink      coremetrics.StepRecorder
	store     results.Store
	bus       *eventbus.Bus[eventbus.Event]
	log       logger.Logger
	closers   []func() error
}

// Option customises a Service.
type Option func(*Service)

// WithSink replaces the sinks built from the metrics and mqtt sections.
func WithSink(s coremetrics.StepRecorder) Option { return func(svc *Service) { svc.sink = s } }

// WithStore replaces the store built from the results section.
func WithStore(s results.Store) Option { return func(svc *Service) { svc.store = s } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{cfg: cfg, bus: eventbus.New(), log: logg}
	for _, o := range opts {
		o(svc)
	}

	e, err := env.New(cfg.Settings(), cfg.Scheduler.OptimizationWeights, env.WithLogger(logger.New("environment")))
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	svc.env = &lockedEnv{env: e}

	sched, err := scheduler.New(cfg.Scheduler, scheduler.WithLogger(logger.New("scheduler")))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	svc.Scheduler = sched

	if svc.sink == nil {
		if svc.sink, err = buildSink(cfg); err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, func() error { closeSink(svc.sink); return nil })
	}
	if svc.store == nil {
		store, err := results.New(cfg.Results)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("results store: %w", err)
		}
		if store != nil {
			svc.store = store
			svc.closers = append(svc.closers, store.Close)
		}
	}
	return svc, nil
}

func buildSink(cfg *config.Config) (coremetrics.StepRecorder, error) {
	confs := make([]factory.ModuleConfig, len(cfg.Metrics.Sinks))
	for i, c := range cfg.Metrics.Sinks {
		if c.Type == "eco" {
			conf := map[string]any{"emission_factor": cfg.Metrics.EmissionFactor}
			for k, v := range c.Conf {
				conf[k] = v
			}
			c.Conf = conf
		}
		confs[i] = c
	}
	sink, err := coremetrics.NewSink(confs)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if !cfg.MQTT.Enabled() {
		return sink, nil
	}
	pub, err := mqtt.NewAssignmentPublisher(cfg.MQTT)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("mqtt publisher: %w", err)
	}
	if _, ok := sink.(coremetrics.NopSink); ok {
		return pub, nil
	}
	return coremetrics.NewMultiSink(sink, pub), nil
}

// closeSink releases sinks holding connections.
func closeSink(s coremetrics.StepRecorder) {
	switch c := s.(type) {
	case *coremetrics.MultiSink:
		for _, inner := range c.Sinks {
			closeSink(inner)
		}
	case interface{ Close() }:
		c.Close()
	case io.Closer:
		_ = c.Close()
	}
}

// ecoSink finds the first eco sink, if any.
func ecoSink(s coremetrics.StepRecorder) *metrics.EcoSink {
	switch c := s.(type) {
	case *metrics.EcoSink:
		return c
	case *coremetrics.MultiSink:
		for _, inner := range c.Sinks {
			if e := ecoSink(inner); e != nil {
				return e
			}
		}
	}
	return nil
}

// ConfigureLogging applies the logging section. The returned closer releases
// the log file, if any.
func ConfigureLogging(c config.LoggingConfig) (io.Closer, error) {
	var file *lumberjack.Logger
	var extra io.Writer
	if c.File != "" {
		file = &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
		}
		extra = file
	}
	if err := logger.Configure(c.Level, extra); err != nil {
		return nil, err
	}
	if file == nil {
		return io.NopCloser(nil), nil
	}
	return file, nil
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.cfg }

// Bus returns the event bus runs publish on.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// Store returns the results store, nil when disabled.
func (s *Service) Store() results.Store { return s.store }

// Snapshot returns the current environment state.
func (s *Service) Snapshot() model.Snapshot { return s.env.State() }

// Recommend ranks chargers for the user against the current state.
func (s *Service) Recommend(userID string) []scheduler.Recommendation {
	return s.Scheduler.Recommend(userID, s.Snapshot())
}

// Run executes one simulation run of the configured number of steps.
func (s *Service) Run(ctx context.Context, progress simulation.ProgressFunc) (simulation.Result, error) {
	return s.RunSteps(ctx, s.cfg.Simulation.Steps, progress)
}

// RunSteps executes one simulation run of n steps.
func (s *Service) RunSteps(ctx context.Context, n int, progress simulation.ProgressFunc) (simulation.Result, error) {
	opts := []simulation.Option{
		simulation.WithSink(s.sink),
		simulation.WithBus(s.bus),
		simulation.WithLogger(logger.New("runner")),
		simulation.WithEligibleSoC(s.cfg.Simulation.EligibleSoC),
	}
	if s.store != nil {
		opts = append(opts, simulation.WithStore(s.store))
	}
	res, err := simulation.NewRunner(s.env, s.Scheduler, opts...).Run(ctx, n, progress)
	if err != nil && !errors.Is(err, context.Canceled) {
		monitoring.CaptureException(err, map[string]string{"component": "runner", "run_id": res.RunID})
	}
	return res, err
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	token := s.cfg.Server.Token
	mux.Handle("/api/chargers/status", runs.RequireToken(token, chargers.NewStatusHandler(s)))
	mux.Handle("/api/recommendations", runs.RequireToken(token, chargers.NewRecommendationHandler(s, s.Scheduler)))
	if e := ecoSink(s.sink); e != nil {
		mux.Handle("/api/chargers/", runs.RequireToken(token, chargers.NewKPIHandler(e.Store(), e.Factor())))
	}
	if s.store != nil {
		mux.Handle("/api/runs/steps", runs.NewStepHandler(s.store, token))
	}
	return mux
}

// Serve starts the metrics endpoint, the HTTP API and the event collector,
// executes one run and keeps serving until ctx is canceled.
func (s *Service) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collected := metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("collector"))
	errc := make(chan error, 2)
	go func() {
		defer monitoring.Recover()
		if err := metrics.StartPromServer(ctx, s.cfg.Server.MetricsAddr); err != nil {
			errc <- fmt.Errorf("prom server: %w", err)
		}
	}()
	go func() {
		defer monitoring.Recover()
		if err := serveHTTP(ctx, s.cfg.Server.Addr, s.Handler(), s.log); err != nil {
			errc <- fmt.Errorf("api server: %w", err)
		}
	}()

	res, err := s.Run(ctx, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Errorf("run %s: %v", res.RunID, err)
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
		monitoring.CaptureException(serveErr, map[string]string{"component": "server"})
		cancel()
	}
	<-collected
	return serveErr
}

func serveHTTP(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
	}()
	log.Infof("api listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// lockedEnv serialises access to the environment so the API can read
// snapshots while a run is stepping.
type lockedEnv struct {
	mu  sync.Mutex
	env *env.Environment
}

func (l *lockedEnv) State() model.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.env.State()
}

func (l *lockedEnv) Step(actions map[string]string) env.StepResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.env.Step(actions)
}
