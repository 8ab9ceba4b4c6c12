package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"accessibility-insights/background/internal/logging"
)

// Client is the pluggable telemetry client behind EventHandler.
type Client interface {
	EnableTelemetry()
	DisableTelemetry()
	TrackEvent(ctx context.Context, name string, properties map[string]string)
}

// Application property names added to every event.
const (
	PropApplicationName    = "applicationName"
	PropApplicationVersion = "applicationVersion"
	PropApplicationBuild   = "applicationBuild"
	PropInstallationID     = "installationId"
)

// InstallationIDSource supplies the current installation id.
type InstallationIDSource interface {
	GetInstallationID(ctx context.Context) (string, error)
}

// ApplicationDataFactory builds the application properties attached to every event.
type ApplicationDataFactory struct {
	Name         string
	Version      string
	Build        string
	Installation InstallationIDSource
}

// Data returns the application properties. The installation id is omitted when it cannot be read.
func (f *ApplicationDataFactory) Data(ctx context.Context) (map[string]string, error) {
	out := map[string]string{
		PropApplicationName:    f.Name,
		PropApplicationVersion: f.Version,
	}
	if f.Build != "" {
		out[PropApplicationBuild] = f.Build
	}
	if f.Installation == nil {
		return out, nil
	}
	id, err := f.Installation.GetInstallationID(ctx)
	if err != nil {
		return out, err
	}
	out[PropInstallationID] = id
	return out, nil
}

// ApplicationClient gates events on an enabled flag, stamps them with application data and
// dispatches them to a Sink asynchronously. It starts disabled.
type ApplicationClient struct {
	sink    Sink
	data    *ApplicationDataFactory
	logger  *zap.Logger
	enabled atomic.Bool
	wg      sync.WaitGroup
	nowF    func() time.Time
}

// NewApplicationClient returns a disabled client. data may be nil.
func NewApplicationClient(sink Sink, data *ApplicationDataFactory, logger *zap.Logger) *ApplicationClient {
	return &ApplicationClient{
		sink:   sink,
		data:   data,
		logger: logging.OrNop(logger),
		nowF:   func() time.Time { return time.Now().UTC() },
	}
}

// EnableTelemetry starts forwarding events.
func (c *ApplicationClient) EnableTelemetry() { c.enabled.Store(true) }

// DisableTelemetry stops forwarding events; in-flight events still complete.
func (c *ApplicationClient) DisableTelemetry() { c.enabled.Store(false) }

// Enabled reports whether events are forwarded.
func (c *ApplicationClient) Enabled() bool { return c.enabled.Load() }

// TrackEvent forwards the event when enabled. Event properties win over application properties.
func (c *ApplicationClient) TrackEvent(ctx context.Context, name string, properties map[string]string) {
	if !c.enabled.Load() || c.sink == nil {
		return
	}
	merged := make(map[string]string, len(properties)+4)
	if c.data != nil {
		appData, err := c.data.Data(ctx)
		if err != nil {
			c.logger.Warn("telemetry: application data incomplete", zap.Error(err))
		}
		for k, v := range appData {
			merged[k] = v
		}
	}
	for k, v := range properties {
		merged[k] = v
	}
	TrackAsync(c.sink, Event{Name: name, Properties: merged, Timestamp: c.nowF()}, &c.wg, c.logger)
}

// Drain waits until every in-flight event has been handed to the sink or ctx is done.
func (c *ApplicationClient) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
