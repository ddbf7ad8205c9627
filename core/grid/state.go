package grid

import (
	"math/rand"
	"time"

	"github.com/kilianp07/evsched/core/model"
)

// State holds the grid conditions of one simulated day. It is not mutated
// while stepping; a new State is drawn on reset.
type State struct {
	baseLoad    [24]float64
	peak        map[int]bool
	valley      map[int]bool
	normalPrice float64
	peakPrice   float64
	valleyPrice float64
	renewable   float64
}

// New builds the grid state. The renewable ratio is drawn uniformly from the
// configured range using rng.
func New(cfg Config, rng *rand.Rand) *State {
	s := &State{
		peak:        make(map[int]bool, len(cfg.PeakHours)),
		valley:      make(map[int]bool, len(cfg.ValleyHours)),
		normalPrice: cfg.NormalPrice,
		peakPrice:   cfg.PeakPrice,
		valleyPrice: cfg.ValleyPrice,
	}
	for i := 0; i < 24 && i < len(cfg.BaseLoad); i++ {
		s.baseLoad[i] = cfg.BaseLoad[i]
	}
	for _, h := range cfg.PeakHours {
		s.peak[h] = true
	}
	for _, h := range cfg.ValleyHours {
		s.valley[h] = true
	}
	lo, hi := cfg.RenewableRatioRange.Min(), cfg.RenewableRatioRange.Max()
	s.renewable = lo
	if hi > lo && rng != nil {
		s.renewable = lo + rng.Float64()*(hi-lo)
	}
	return s
}

// IsPeak reports whether hour is a peak hour.
func (s *State) IsPeak(hour int) bool { return s.peak[normHour(hour)] }

// IsValley reports whether hour is a valley hour.
func (s *State) IsValley(hour int) bool { return s.valley[normHour(hour)] }

// Load returns the base load for hour.
func (s *State) Load(hour int) float64 { return s.baseLoad[normHour(hour)] }

// Price returns the tariff for hour. Peak takes priority over valley.
func (s *State) Price(hour int) float64 {
	switch {
	case s.IsPeak(hour):
		return s.peakPrice
	case s.IsValley(hour):
		return s.valleyPrice
	default:
		return s.normalPrice
	}
}

// RenewableRatio returns the renewable share in percent.
func (s *State) RenewableRatio() float64 { return s.renewable }

// LoadCurve returns a copy of the hourly load curve.
func (s *State) LoadCurve() []float64 {
	out := make([]float64, 24)
	copy(out, s.baseLoad[:])
	return out
}

// Status projects the grid conditions at t.
func (s *State) Status(t time.Time) model.GridStatus {
	h := t.Hour()
	return model.GridStatus{
		Hour:           h,
		CurrentLoad:    s.Load(h),
		PredictedLoad:  s.Load(h + 1),
		RenewableRatio: s.renewable,
		CurrentPrice:   s.Price(h),
		NormalPrice:    s.normalPrice,
		PeakPrice:      s.peakPrice,
		ValleyPrice:    s.valleyPrice,
		IsPeak:         s.IsPeak(h),
		IsValley:       s.IsValley(h),
	}
}

func normHour(h int) int {
	h %= 24
	if h < 0 {
		h += 24
	}
	return h
}
