package telemetry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// trackTimeout is the max time allowed for a single async track. Used by TrackAsync and by ShutdownDrainDuration.
const trackTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait for in-flight async tracks before shutting down OTel providers.
// Must be >= trackTimeout.
const ShutdownDrainDuration = trackTimeout

// TrackAsync runs sink.Track in a goroutine with a short timeout so the caller is not blocked.
// wg may be nil; when set, it is incremented for the lifetime of the goroutine.
//
// The goroutine uses context.Background() with trackTimeout so caller cancellation does not abort an in-flight track.
func TrackAsync(sink Sink, event Event, wg *sync.WaitGroup, logger *zap.Logger) {
	if sink == nil {
		return
	}
	if wg != nil {
		wg.Add(1)
	}
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		trackCtx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()
		if err := sink.Track(trackCtx, event); err != nil && logger != nil {
			logger.Warn("telemetry: async track failed", zap.String("event", event.Name), zap.Error(err))
		}
	}()
}
