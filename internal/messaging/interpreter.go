// Package messaging routes typed messages to the callbacks that handle them.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"accessibility-insights/background/internal/browser"
)

// Callback handles one message type. The returned value is sent back to the caller, if any.
type Callback func(ctx context.Context, msg browser.Message) (any, error)

// Result reports whether a message was handled and the callback's return value.
type Result struct {
	Handled bool
	Value   any
}

// Interpreter maps message types to callbacks.
type Interpreter struct {
	mu        sync.RWMutex
	callbacks map[string]Callback
}

// NewInterpreter returns an empty interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{callbacks: make(map[string]Callback)}
}

// RegisterTypeToPayloadCallback registers cb for messageType, replacing any earlier registration.
func (i *Interpreter) RegisterTypeToPayloadCallback(messageType string, cb Callback) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.callbacks[messageType] = cb
}

// Interpret runs the callback registered for msg.Type. Unknown types return Result{Handled: false}.
func (i *Interpreter) Interpret(ctx context.Context, msg browser.Message) (Result, error) {
	i.mu.RLock()
	cb, ok := i.callbacks[msg.Type]
	i.mu.RUnlock()
	if !ok {
		return Result{}, nil
	}
	v, err := cb(ctx, msg)
	if err != nil {
		return Result{Handled: true}, fmt.Errorf("messaging: %s: %w", msg.Type, err)
	}
	return Result{Handled: true, Value: v}, nil
}

// Types returns the registered message types.
func (i *Interpreter) Types() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, 0, len(i.callbacks))
	for t := range i.callbacks {
		out = append(out, t)
	}
	return out
}

// DecodePayload unmarshals msg.Payload into out. An empty payload leaves out untouched.
func DecodePayload(msg browser.Message, out any) error {
	if len(msg.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("messaging: decode %s payload: %w", msg.Type, err)
	}
	return nil
}

// NewMessage builds a message with a JSON-encoded payload.
func NewMessage(messageType string, tabID int, payload any) (browser.Message, error) {
	msg := browser.Message{Type: messageType, TabID: tabID}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return browser.Message{}, fmt.Errorf("messaging: encode %s payload: %w", messageType, err)
	}
	msg.Payload = raw
	return msg, nil
}
