package model

import "fmt"

// Range is a [min, max] pair decoded from configuration lists.
type Range []float64

// Min returns the lower bound.
func (r Range) Min() float64 {
	if len(r) == 0 {
		return 0
	}
	return r[0]
}

// Max returns the upper bound.
func (r Range) Max() float64 {
	if len(r) < 2 {
		return r.Min()
	}
	return r[1]
}

// Validate checks the range has two ordered bounds.
func (r Range) Validate() error {
	if len(r) != 2 {
		return fmt.Errorf("range must have 2 values, got %d", len(r))
	}
	if r[0] > r[1] {
		return fmt.Errorf("range min %v greater than max %v", r[0], r[1])
	}
	return nil
}
