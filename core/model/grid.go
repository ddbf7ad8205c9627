package model

// GridStatus is the grid projection for the current simulated hour.
type GridStatus struct {
	Hour           int     `json:"hour"`
	CurrentLoad    float64 `json:"current_load"`
	PredictedLoad  float64 `json:"predicted_load"`
	RenewableRatio float64 `json:"renewable_ratio"`
	CurrentPrice   float64 `json:"current_price"`
	NormalPrice    float64 `json:"normal_price"`
	PeakPrice      float64 `json:"peak_price"`
	ValleyPrice    float64 `json:"valley_price"`
	IsPeak         bool    `json:"is_peak_hour"`
	IsValley       bool    `json:"is_valley_hour"`
}

// IsSolarHour reports whether hour lies in the solar generation window.
func IsSolarHour(hour int) bool {
	return hour >= 8 && hour <= 16
}
