// Package factory instantiates pluggable modules (metrics sinks, preference
// estimators) from configuration. A module is described by a type string and
// a map of raw settings that the registered factory decodes into its own
// typed struct.
//
//	reg := factory.NewRegistry[metrics.StepRecorder]()
//	_ = reg.Register("nop", func(map[string]any) (metrics.StepRecorder, error) {
//	    return metrics.NopSink{}, nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory
