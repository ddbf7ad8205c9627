package prediction

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/evsched/core/factory"
)

// PreferenceEstimator maps a normalised feature vector to a preference score.
// Scores are expected in [0,1]; callers clip anything else.
type PreferenceEstimator interface {
	Predict(features []float64) (float64, error)
}

// ErrFeatureMismatch is returned when the feature vector length differs from
// the estimator's weight vector.
var ErrFeatureMismatch = errors.New("feature vector length mismatch")

// LinearEstimator computes bias + w·x, optionally squashed by a logistic.
type LinearEstimator struct {
	Weights  []float64
	Bias     float64
	Logistic bool
}

// Predict implements PreferenceEstimator.
func (e LinearEstimator) Predict(features []float64) (float64, error) {
	if len(features) != len(e.Weights) {
		return 0, fmt.Errorf("%w: got %d want %d", ErrFeatureMismatch, len(features), len(e.Weights))
	}
	z := floats.Dot(e.Weights, features) + e.Bias
	if e.Logistic {
		z = 1 / (1 + math.Exp(-z))
	}
	return z, nil
}

// Config is the estimator section of the scheduler configuration.
type Config struct {
	Type    string    `json:"type" yaml:"type"`
	Weights []float64 `json:"weights" yaml:"weights"`
	Bias    float64   `json:"bias" yaml:"bias"`
}

// Enabled reports whether an estimator is configured.
func (c Config) Enabled() bool { return c.Type != "" && c.Type != "none" }

// ModuleConfig converts the section into a factory module description.
func (c Config) ModuleConfig() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: map[string]any{
		"weights": c.Weights,
		"bias":    c.Bias,
	}}
}

type linearConf struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Registry creates estimators by type name: "linear", "logistic" and "mock".
var Registry = factory.NewRegistry[PreferenceEstimator]()

func init() {
	_ = Registry.Register("linear", linearFactory(false))
	_ = Registry.Register("logistic", linearFactory(true))
	_ = Registry.Register("mock", func(conf map[string]any) (PreferenceEstimator, error) {
		var c struct {
			Value float64 `json:"value"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return &MockEstimator{Value: c.Value}, nil
	})
}

func linearFactory(logistic bool) factory.Factory[PreferenceEstimator] {
	return func(conf map[string]any) (PreferenceEstimator, error) {
		var c linearConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if len(c.Weights) == 0 {
			return nil, errors.New("estimator weights required")
		}
		return LinearEstimator{Weights: c.Weights, Bias: c.Bias, Logistic: logistic}, nil
	}
}

// New builds the configured estimator, or nil when none is configured.
func New(c Config) (PreferenceEstimator, error) {
	if !c.Enabled() {
		return nil, nil
	}
	est, err := Registry.Create(c.ModuleConfig())
	if err != nil {
		return nil, fmt.Errorf("estimator %s: %w", c.Type, err)
	}
	return est, nil
}
