package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes simulation telemetry to InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A URL ending with the
// write path is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.StepRecorder {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(points ...*write.Point) error {
	if len(points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordStep writes the step rewards and grid context.
func (s *InfluxSink) RecordStep(rec coremetrics.StepRecord) error {
	p := write.NewPointWithMeasurement("simulation_step").
		AddTag("run_id", rec.RunID).
		AddField("step", rec.Step).
		AddField("user_satisfaction", round3(rec.Rewards.UserSatisfaction)).
		AddField("operator_profit", round3(rec.Rewards.OperatorProfit)).
		AddField("grid_friendliness", round3(rec.Rewards.GridFriendliness)).
		AddField("total_reward", round3(rec.Rewards.TotalReward)).
		AddField("eligible_users", rec.EligibleUsers).
		AddField("assignments", len(rec.Decisions)).
		AddField("mean_soc", round3(rec.MeanSoC)).
		AddField("grid_load", round3(rec.Grid.CurrentLoad)).
		AddField("price", round3(rec.Grid.CurrentPrice)).
		AddField("renewable_ratio", round3(rec.Grid.RenewableRatio)).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordAssignments writes one point per assignment.
func (s *InfluxSink) RecordAssignments(as []coremetrics.Assignment) error {
	points := make([]*write.Point, 0, len(as))
	for _, a := range as {
		points = append(points, write.NewPointWithMeasurement("assignment").
			AddTag("run_id", a.RunID).
			AddTag("user_id", a.UserID).
			AddTag("charger_id", a.ChargerID).
			AddField("step", a.Step).
			AddField("energy_kwh", round3(a.EnergyKWh)).
			SetTime(a.Time))
	}
	return s.write(points...)
}

// RecordChargerStates writes charger snapshots.
func (s *InfluxSink) RecordChargerStates(states []coremetrics.ChargerState) error {
	points := make([]*write.Point, 0, len(states))
	for _, st := range states {
		c := st.Charger
		points = append(points, write.NewPointWithMeasurement("charger_state").
			AddTag("run_id", st.RunID).
			AddTag("charger_id", c.ID).
			AddTag("type", string(c.Type)).
			AddField("health_score", round3(c.HealthScore)).
			AddField("available_power", round3(c.AvailablePower)).
			AddField("queue_length", c.QueueLength).
			SetTime(st.Time))
	}
	return s.write(points...)
}

// RecordRunSummary writes the averages of a run tagged with its outcome.
func (s *InfluxSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	p := write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", sum.RunID).
		AddTag("status", sum.Status()).
		AddField("steps", sum.Steps).
		AddField("user_satisfaction", round3(sum.Averages.UserSatisfaction)).
		AddField("operator_profit", round3(sum.Averages.OperatorProfit)).
		AddField("grid_friendliness", round3(sum.Averages.GridFriendliness)).
		AddField("total_reward", round3(sum.Averages.TotalReward)).
		AddField("duration_s", round3(sum.Duration.Seconds())).
		SetTime(sum.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
