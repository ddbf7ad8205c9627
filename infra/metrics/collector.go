package metrics

import (
	"context"

	"github.com/kilianp07/evsched/core/events"
	"github.com/kilianp07/evsched/core/logger"
	coremetrics "github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards run progress
// to sinks implementing ProgressRecorder. Run lifecycle events are logged.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.StepRecorder, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.Nop{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.ProgressEvent:
					if r, ok := sink.(coremetrics.ProgressRecorder); ok {
						if err := r.RecordProgress(e.RunID, e.Step, e.Total); err != nil {
							log.Warnf("record progress: %v", err)
						}
					}
				case events.RunEvent:
					if !e.Finished {
						log.Infof("run %s started", e.RunID)
					} else if e.Err != nil {
						log.Errorf("run %s failed: %v", e.RunID, e.Err)
					} else {
						log.Infof("run %s finished after %d steps, total reward %.3f", e.RunID, e.Steps, e.Averages.TotalReward)
					}
				}
			}
		}
	}()
	return done
}
