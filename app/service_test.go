package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/config"
	"github.com/kilianp07/evsched/core/events"
	"github.com/kilianp07/evsched/core/factory"
	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/monitoring"
	"github.com/kilianp07/evsched/core/results"
	"github.com/kilianp07/evsched/core/scheduler"
	"github.com/kilianp07/evsched/infra/logger"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Environment.ChargerCount = 5
	cfg.Environment.UserCount = 10
	cfg.Environment.Seed = 11
	cfg.Simulation.Steps = 10
	cfg.Results.Backend = "memory"
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.MetricsAddr = "127.0.0.1:0"
	cfg.SetDefaults()
	return cfg
}

func TestServiceRun(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer svc.Close()

	res, err := svc.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Series.Len())

	recs, err := svc.Store().Query(context.Background(), results.Query{RunID: res.RunID})
	require.NoError(t, err)
	assert.Len(t, recs, 10)
	assert.Equal(t, res.Series.TotalReward[0], recs[0].Rewards.TotalReward)
}

func TestServiceHandler(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Token = "tok"
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()
	res, err := svc.RunSteps(context.Background(), 3, nil)
	require.NoError(t, err)

	h := svc.Handler()
	get := func(url string, auth bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		if auth {
			req.Header.Set("Authorization", "Bearer tok")
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := get("/api/runs/steps?run_id="+res.RunID, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var steps []coremetrics.StepRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &steps))
	assert.Len(t, steps, 3)

	rr = get("/api/chargers/status", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var chargers []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chargers))
	assert.Len(t, chargers, 5)

	user := svc.Snapshot().Users[0].ID
	rr = get("/api/recommendations?user_id="+user, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []scheduler.Recommendation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	assert.ElementsMatch(t, svc.Recommend(user), recs)

	assert.Equal(t, http.StatusUnauthorized, get("/api/chargers/status", false).Code)
	assert.Equal(t, http.StatusUnauthorized, get("/api/runs/steps", false).Code)
	assert.Equal(t, http.StatusNotFound, get("/api/chargers/c1/kpis", true).Code)
}

func TestServiceEcoSink(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}, {Type: "eco"}}
	cfg.Metrics.EmissionFactor = 300
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	e := ecoSink(svc.sink)
	require.NotNil(t, e)
	assert.Equal(t, 300.0, e.Factor())

	_, err = svc.RunSteps(context.Background(), 2, nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/chargers/none/kpis", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestServiceUnknownSink(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "carrier-pigeon"}}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestServiceWithSink(t *testing.T) {
	sink := &countingSink{}
	svc, err := New(testConfig(), WithSink(sink))
	require.NoError(t, err)
	defer svc.Close()
	_, err = svc.RunSteps(context.Background(), 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, sink.steps)
}

func TestServiceServe(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer svc.Close()

	sub := svc.Bus().Subscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- svc.Serve(ctx) }()

	for ev := range sub {
		if e, ok := ev.(events.RunEvent); ok && e.Finished {
			assert.Equal(t, 10, e.Steps)
			break
		}
	}
	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestConfigureLogging(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "evsched.log")
	closer, err := ConfigureLogging(config.LoggingConfig{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Configure("info", nil) })

	logger.New("app-test").Infof("hello file")
	require.NoError(t, closer.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")

	_, err = ConfigureLogging(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

type countingSink struct{ steps int }

func (c *countingSink) RecordStep(coremetrics.StepRecord) error {
	c.steps++
	return nil
}

type recordingMonitor struct {
	monitoring.NopMonitor
	tags []map[string]string
}

func (m *recordingMonitor) CaptureException(_ error, tags map[string]string) {
	m.tags = append(m.tags, tags)
}

func TestServiceRunReportsErrors(t *testing.T) {
	mon := &recordingMonitor{}
	monitoring.Init(mon)
	t.Cleanup(func() { monitoring.Init(nil) })

	svc, err := New(testConfig())
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.RunSteps(context.Background(), -1, nil)
	require.Error(t, err)
	require.Len(t, mon.tags, 1)
	assert.Equal(t, "runner", mon.tags[0]["component"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.RunSteps(ctx, 3, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, mon.tags, 1)
}
