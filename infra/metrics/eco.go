package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	core "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/metrics/eco"
)

// EcoSink aggregates delivered energy per charger and day and exposes the
// renewable share and avoided CO2 as gauges.
type EcoSink struct {
	store     eco.Store
	factor    float64
	delivered *prometheus.GaugeVec
	share     *prometheus.GaugeVec
	co2       *prometheus.GaugeVec
}

// NewEcoSink creates a sink with its gauges registered on reg.
func NewEcoSink(store eco.Store, factor float64, reg prometheus.Registerer) (*EcoSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &EcoSink{store: store, factor: factor}
	var err error
	if s.delivered, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "charger_delivered_energy_kwh",
		Help: "Daily energy delivered per charger",
	}, []string{"charger_id", "day"})); err != nil {
		return nil, err
	}
	if s.share, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "charger_renewable_share",
		Help: "Daily renewable share of the energy delivered per charger",
	}, []string{"charger_id", "day"})); err != nil {
		return nil, err
	}
	if s.co2, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "charger_co2_avoided_grams",
		Help: "Daily CO2 avoided per charger",
	}, []string{"charger_id", "day"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordStep is a no-op; the sink only consumes assignments.
func (s *EcoSink) RecordStep(core.StepRecord) error { return nil }

// RecordAssignments adds the delivered energy to the daily aggregates.
func (s *EcoSink) RecordAssignments(as []core.Assignment) error {
	for _, a := range as {
		rec := eco.Record{
			ChargerID:    a.ChargerID,
			Date:         a.Time,
			DeliveredKWh: a.EnergyKWh,
			RenewableKWh: a.EnergyKWh * a.RenewableRatio / 100,
			Sessions:     1,
		}
		if err := s.store.Add(rec); err != nil {
			return err
		}
		records, err := s.store.Query(a.ChargerID, a.Time, a.Time)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		r := records[0]
		day := eco.Day(r.Date).Format("2006-01-02")
		s.delivered.WithLabelValues(a.ChargerID, day).Set(r.DeliveredKWh)
		s.share.WithLabelValues(a.ChargerID, day).Set(r.RenewableShare())
		s.co2.WithLabelValues(a.ChargerID, day).Set(r.CO2Avoided(s.factor))
	}
	return nil
}

// Store returns the daily aggregate store backing the sink.
func (s *EcoSink) Store() eco.Store { return s.store }

// Factor returns the emission factor in grams per renewable kWh.
func (s *EcoSink) Factor() float64 { return s.factor }

// Close releases the store when it holds resources.
func (s *EcoSink) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
