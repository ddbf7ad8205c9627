package grid

import (
	"fmt"

	"github.com/kilianp07/evsched/core/model"
)

// Config describes the grid load curve and tariff.
type Config struct {
	BaseLoad            []float64   `json:"base_load"`
	PeakHours           []int       `json:"peak_hours"`
	ValleyHours         []int       `json:"valley_hours"`
	NormalPrice         float64     `json:"normal_price"`
	PeakPrice           float64     `json:"peak_price"`
	ValleyPrice         float64     `json:"valley_price"`
	RenewableRatioRange model.Range `json:"renewable_ratio_range"`
}

// DefaultBaseLoad is a typical urban load curve in percent of capacity.
var DefaultBaseLoad = []float64{
	40, 35, 30, 28, 27, 30, 45, 60, 75, 82, 80, 78,
	76, 74, 73, 75, 80, 86, 92, 90, 82, 70, 58, 48,
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if len(c.BaseLoad) == 0 {
		c.BaseLoad = append([]float64(nil), DefaultBaseLoad...)
	}
	if c.PeakHours == nil {
		c.PeakHours = []int{7, 8, 9, 10, 18, 19, 20, 21}
	}
	if c.ValleyHours == nil {
		c.ValleyHours = []int{0, 1, 2, 3, 4, 5, 6}
	}
	if c.NormalPrice == 0 {
		c.NormalPrice = 0.85
	}
	if c.PeakPrice == 0 {
		c.PeakPrice = 1.2
	}
	if c.ValleyPrice == 0 {
		c.ValleyPrice = 0.4
	}
	if len(c.RenewableRatioRange) == 0 {
		c.RenewableRatioRange = model.Range{15, 60}
	}
}

// Validate checks the load curve and hour sets.
func (c Config) Validate() error {
	if len(c.BaseLoad) != 24 {
		return fmt.Errorf("base_load must have 24 values, got %d", len(c.BaseLoad))
	}
	for _, h := range append(append([]int(nil), c.PeakHours...), c.ValleyHours...) {
		if h < 0 || h > 23 {
			return fmt.Errorf("hour %d out of range", h)
		}
	}
	if err := c.RenewableRatioRange.Validate(); err != nil {
		return fmt.Errorf("renewable_ratio_range: %w", err)
	}
	return nil
}
