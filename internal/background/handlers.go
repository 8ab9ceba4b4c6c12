package background

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/messaging"
	"accessibility-insights/background/internal/telemetry"
)

// ErrEmptyEventName is returned for a telemetry send without an event name.
var ErrEmptyEventName = errors.New("background: telemetry event name is empty")

// EventUnhandledMessage is tracked for message types nothing is registered for.
const EventUnhandledMessage = "unhandledMessage"

// responseSuffix is appended to the message type of a reply.
const responseSuffix = "/response"

// DetailsViewOpenPayload asks to open (or focus) the details view of TargetTabID.
type DetailsViewOpenPayload struct {
	telemetry.Payload
	TargetTabID int `json:"targetTabId"`
}

// DetailsViewOpenResult reports the details view tab.
type DetailsViewOpenResult struct {
	DetailsViewTabID int  `json:"detailsViewTabId"`
	Created          bool `json:"created"`
}

// TelemetrySendPayload publishes an arbitrary named event.
type TelemetrySendPayload struct {
	telemetry.Payload
	EventName string `json:"eventName"`
}

// handleMessage routes msg through the interpreter. Callbacks with a result reply to the sending tab
// when the message carries an id.
func (app *AppContext) handleMessage(ctx context.Context, msg browser.Message) {
	res, err := app.Interpreter.Interpret(ctx, msg)
	if err != nil {
		app.Logger.Error("background: message failed", zap.String("type", msg.Type), zap.Int("tabID", msg.TabID), zap.Error(err))
		return
	}
	if !res.Handled {
		app.Logger.Debug("background: unhandled message", zap.String("type", msg.Type))
		app.TelemetryClient.TrackEvent(ctx, EventUnhandledMessage, map[string]string{"messageType": msg.Type})
		return
	}
	if msg.ID == "" || res.Value == nil {
		return
	}
	payload, err := json.Marshal(res.Value)
	if err != nil {
		app.Logger.Error("background: encode reply", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	reply := browser.Message{ID: msg.ID, Type: msg.Type + responseSuffix, TabID: msg.TabID, Payload: payload}
	if err := app.Adapter.SendMessageToTab(ctx, msg.TabID, reply); err != nil {
		app.Logger.Warn("background: send reply", zap.String("type", msg.Type), zap.Int("tabID", msg.TabID), zap.Error(err))
	}
}

func (app *AppContext) handleTabRemoved(ctx context.Context, tabID int) {
	if err := app.Tabs.Remove(ctx, tabID); err != nil {
		app.Logger.Error("background: tab removed", zap.Int("tabID", tabID), zap.Error(err))
	}
}

func (app *AppContext) handleTabActivated(ctx context.Context, tabID int) {
	tab, err := app.Adapter.GetTab(ctx, tabID)
	if err != nil {
		app.Logger.Warn("background: tab activated lookup", zap.Int("tabID", tabID), zap.Error(err))
		return
	}
	if tab != nil {
		app.Tabs.Track(*tab)
	}
}

// openDetailsView focuses the existing details view of target, or creates one.
func (app *AppContext) openDetailsView(ctx context.Context, target int) (DetailsViewOpenResult, error) {
	if id, ok := app.Tabs.DetailsViewFor(target); ok {
		tab, err := app.Adapter.GetTab(ctx, id)
		if err != nil {
			return DetailsViewOpenResult{}, err
		}
		if tab != nil {
			if err := app.Adapter.SwitchToTab(ctx, id); err != nil {
				return DetailsViewOpenResult{}, err
			}
			return DetailsViewOpenResult{DetailsViewTabID: id}, nil
		}
	}
	tab, err := app.Adapter.CreateTab(ctx, fmt.Sprintf(DetailsViewURLFormat, target), true)
	if err != nil {
		return DetailsViewOpenResult{}, err
	}
	if err := app.Tabs.SetDetailsView(ctx, target, tab.ID); err != nil {
		return DetailsViewOpenResult{}, err
	}
	return DetailsViewOpenResult{DetailsViewTabID: tab.ID, Created: true}, nil
}

func registerBackgroundMessages(app *AppContext) {
	app.Interpreter.RegisterTypeToPayloadCallback(messaging.DetailsViewOpen, func(ctx context.Context, msg browser.Message) (any, error) {
		p := DetailsViewOpenPayload{TargetTabID: msg.TabID}
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		res, err := app.openDetailsView(ctx, p.TargetTabID)
		if err != nil {
			return nil, err
		}
		if err := app.Telemetry.PublishTelemetry(ctx, "detailsViewOpen", p.Payload, p.TargetTabID, true); err != nil {
			app.Logger.Warn("background: publish telemetry", zap.Error(err))
		}
		return res, nil
	})
	app.Interpreter.RegisterTypeToPayloadCallback(messaging.DetailsViewClosed, func(ctx context.Context, msg browser.Message) (any, error) {
		return nil, app.Tabs.Remove(ctx, msg.TabID)
	})
	app.Interpreter.RegisterTypeToPayloadCallback(messaging.TelemetrySend, func(ctx context.Context, msg browser.Message) (any, error) {
		var p TelemetrySendPayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		if p.EventName == "" {
			return nil, ErrEmptyEventName
		}
		return nil, app.Telemetry.PublishTelemetry(ctx, p.EventName, p.Payload, msg.TabID, true)
	})
}
