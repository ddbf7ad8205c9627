package metrics

import "errors"

// MultiSink fans out records to multiple sinks. Every sink sees every
// record; errors are joined and returned once all sinks were called.
type MultiSink struct {
	Sinks []StepRecorder
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...StepRecorder) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStep forwards the record to all sinks.
func (m *MultiSink) RecordStep(rec StepRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordStep(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordAssignments forwards assignments to sinks that support them.
func (m *MultiSink) RecordAssignments(as []Assignment) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AssignmentRecorder); ok {
			if err := r.RecordAssignments(as); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordChargerStates forwards charger snapshots.
func (m *MultiSink) RecordChargerStates(states []ChargerState) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ChargerStateRecorder); ok {
			if err := r.RecordChargerStates(states); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordRunSummary forwards run summaries.
func (m *MultiSink) RecordRunSummary(sum RunSummary) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(RunSummaryRecorder); ok {
			if err := r.RecordRunSummary(sum); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordProgress forwards run progress.
func (m *MultiSink) RecordProgress(runID string, step, total int) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ProgressRecorder); ok {
			if err := r.RecordProgress(runID, step, total); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
