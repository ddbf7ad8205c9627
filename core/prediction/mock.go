package prediction

// MockEstimator returns a fixed value or error and records its inputs.
type MockEstimator struct {
	Value float64
	Err   error
	Calls [][]float64
}

// Predict implements PreferenceEstimator.
func (m *MockEstimator) Predict(features []float64) (float64, error) {
	cp := make([]float64, len(features))
	copy(cp, features)
	m.Calls = append(m.Calls, cp)
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Value, nil
}
