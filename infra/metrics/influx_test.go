package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
)

type lineCapture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *lineCapture) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, strings.TrimSpace(string(b)))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (c *lineCapture) all() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.bodies, "\n")
}

func TestInfluxSink_RecordStep(t *testing.T) {
	var capt lineCapture
	srv := capt.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	rec := coremetrics.StepRecord{
		RunID:     "r1",
		Step:      3,
		Time:      time.Date(2025, 1, 1, 0, 45, 0, 0, time.UTC),
		Rewards:   model.Rewards{UserSatisfaction: 0.12345, TotalReward: 0.5},
		Decisions: map[string]string{"U0001": "CH0001"},
	}
	if err := sink.RecordStep(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}
	body := capt.all()
	for _, want := range []string{"simulation_step,run_id=r1", "user_satisfaction=0.123", "total_reward=0.5", "assignments=1i"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestInfluxSink_RecordAssignmentsAndStates(t *testing.T) {
	var capt lineCapture
	srv := capt.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	as := []coremetrics.Assignment{{RunID: "r1", UserID: "U0001", ChargerID: "CH0002", EnergyKWh: 18, Time: now}}
	if err := sink.RecordAssignments(as); err != nil {
		t.Fatalf("assignments: %v", err)
	}
	if err := sink.RecordAssignments(nil); err != nil {
		t.Fatalf("empty assignments: %v", err)
	}
	st := []coremetrics.ChargerState{{RunID: "r1", Charger: model.Charger{ID: "CH0002", Type: model.ChargerFast, HealthScore: 90}, Time: now}}
	if err := sink.RecordChargerStates(st); err != nil {
		t.Fatalf("states: %v", err)
	}
	if err := sink.RecordRunSummary(coremetrics.RunSummary{RunID: "r1", Steps: 10, Time: now}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	body := capt.all()
	for _, want := range []string{"assignment,", "charger_id=CH0002", "energy_kwh=18", "charger_state,", "health_score=90", "run_summary,run_id=r1,status=completed", "steps=10i"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink on failing health check, got %T", sink)
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
