// Package prediction defines the preference estimator capability used by the
// scheduler to score how much a user would like a given charger. Estimators
// are optional: the scheduler falls back to its heuristic whenever an
// estimator is absent or fails.
package prediction
