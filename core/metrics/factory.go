package metrics

import "github.com/kilianp07/evsched/core/factory"

var sinkRegistry = factory.NewRegistry[StepRecorder]()

func init() {
	_ = RegisterSink("nop", func(map[string]any) (StepRecorder, error) {
		return NopSink{}, nil
	})
}

// RegisterSink adds a metrics sink factory identified by name.
func RegisterSink(name string, f factory.Factory[StepRecorder]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewSink creates a StepRecorder from the provided configuration.
func NewSink(cfgs []factory.ModuleConfig) (StepRecorder, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]StepRecorder, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
