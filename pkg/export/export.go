// Package export writes simulation results as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/simulation"
)

// Formats lists the supported output formats.
var Formats = []string{"json", "csv"}

// WriteResult writes a run result in the given format. CSV output holds one
// row per step followed by a "mean" row.
func WriteResult(w io.Writer, format string, res simulation.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "csv":
		return WriteSeriesCSV(w, res)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteSeriesCSV writes the reward series of a run.
func WriteSeriesCSV(w io.Writer, res simulation.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"step"}, model.MetricNames...)); err != nil {
		return err
	}
	s := res.Series
	for i := 0; i < s.Len(); i++ {
		row := []string{
			strconv.Itoa(i + 1),
			formatFloat(s.UserSatisfaction[i]),
			formatFloat(s.OperatorProfit[i]),
			formatFloat(s.GridFriendliness[i]),
			formatFloat(s.TotalReward[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	a := res.Averages
	if err := cw.Write([]string{
		"mean",
		formatFloat(a.UserSatisfaction),
		formatFloat(a.OperatorProfit),
		formatFloat(a.GridFriendliness),
		formatFloat(a.TotalReward),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteStepsCSV writes stored step records.
func WriteStepsCSV(w io.Writer, recs []metrics.StepRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"run_id", "step", "time"}
	header = append(header, model.MetricNames...)
	header = append(header, "assignments", "eligible_users", "mean_soc", "grid_load", "price", "done")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.RunID,
			strconv.Itoa(r.Step),
			r.Time.Format(time.RFC3339),
			formatFloat(r.Rewards.UserSatisfaction),
			formatFloat(r.Rewards.OperatorProfit),
			formatFloat(r.Rewards.GridFriendliness),
			formatFloat(r.Rewards.TotalReward),
			strconv.Itoa(len(r.Decisions)),
			strconv.Itoa(r.EligibleUsers),
			formatFloat(r.MeanSoC),
			formatFloat(r.Grid.CurrentLoad),
			formatFloat(r.Grid.CurrentPrice),
			strconv.FormatBool(r.Done),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
