package scenarios

import (
	"context"
	"sort"
	"testing"

	"github.com/kilianp07/evsched/core/env"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/scheduler"
	"github.com/kilianp07/evsched/core/simulation"
)

// RunScenario checks the scheduler against the expectations of sc and, when
// sc.Run.Steps is set, drives the environment with the fixture populations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	cfg := sc.Scheduler
	cfg.SetDefaults()
	sched, err := scheduler.New(cfg)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	snap, err := sc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	decisions := sched.Decide(snap)
	for uid, want := range sc.Expected.Decisions {
		if got := decisions[uid]; got != want {
			t.Errorf("scenario %s: %s assigned to %q, want %q", sc.Name, uid, got, want)
		}
	}
	for _, uid := range sc.Expected.Unassigned {
		if cid, ok := decisions[uid]; ok {
			t.Errorf("scenario %s: %s unexpectedly assigned to %s", sc.Name, uid, cid)
		}
	}
	for uid, want := range sc.Expected.Feasible {
		u, ok := snap.User(uid)
		if !ok {
			t.Fatalf("scenario %s: unknown user %s", sc.Name, uid)
		}
		got := chargerIDs(sched.FilterFeasible(u, snap.Chargers, snap.GridStatus))
		if !equal(got, want) {
			t.Errorf("scenario %s: feasible for %s = %v, want %v", sc.Name, uid, got, want)
		}
	}
	for uid, want := range sc.Expected.Candidates {
		var got []string
		for _, r := range sched.Recommend(uid, snap) {
			got = append(got, r.ChargerID)
		}
		if !equal(sorted(got), sorted(want)) {
			t.Errorf("scenario %s: candidates for %s = %v, want %v", sc.Name, uid, got, want)
		}
	}

	if sc.Run.Steps > 0 {
		runEnvironment(t, sc, snap, sched)
	}
}

func runEnvironment(t *testing.T, sc *Scenario, snap model.Snapshot, sched *scheduler.Scheduler) {
	t.Helper()
	s := env.DefaultSettings()
	s.Environment.Seed = sc.Run.Seed
	e, err := env.New(s, weights(sched), env.WithUsers(snap.Users), env.WithChargers(snap.Chargers))
	if err != nil {
		t.Fatalf("environment: %v", err)
	}
	res, err := simulation.NewRunner(e, sched).Run(context.Background(), sc.Run.Steps, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Series.Len() != sc.Run.Steps {
		t.Errorf("scenario %s: %d steps recorded, want %d", sc.Name, res.Series.Len(), sc.Run.Steps)
	}
	final := e.State()
	for _, u := range final.Users {
		if u.SoC < 0 || u.SoC > 100 {
			t.Errorf("scenario %s: user %s soc %.2f out of bounds", sc.Name, u.ID, u.SoC)
		}
	}
	for _, c := range final.Chargers {
		if c.HealthScore < model.MinHealth || c.HealthScore > model.MaxHealth {
			t.Errorf("scenario %s: charger %s health %.2f out of bounds", sc.Name, c.ID, c.HealthScore)
		}
	}
}

func weights(s *scheduler.Scheduler) model.Weights { return s.Config().OptimizationWeights }

func chargerIDs(cs []model.Charger) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
