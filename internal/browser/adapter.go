// Package browser isolates the rest of the system from the host browser: tabs, windows,
// local storage, messaging, notifications and manifest introspection.
package browser

import (
	"context"
	"encoding/json"
	"errors"

	"accessibility-insights/background/internal/storage"
)

// ErrTabNotFound is returned by tab mutations that target a tab that does not exist.
var ErrTabNotFound = errors.New("browser: tab not found")

// Tab is the metadata of a single browser tab.
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
}

// Message is routed between tabs, frames and the background process.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"messageType"`
	TabID   int             `json:"tabId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Notification is a user-facing toast.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Manifest is the subset of the extension manifest the background reads.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Listener callbacks. They run on the adapter's event goroutine and must not block for long.
type (
	MessageListener            func(ctx context.Context, msg Message)
	TabUpdatedListener         func(ctx context.Context, tab Tab)
	TabRemovedListener         func(ctx context.Context, tabID int)
	TabActivatedListener       func(ctx context.Context, tabID, windowID int)
	WindowFocusChangedListener func(ctx context.Context, windowID int)
)

// Adapter is the capability set the background consumes from the host browser.
type Adapter interface {
	// Tabs returns every open tab.
	Tabs(ctx context.Context) ([]Tab, error)
	// GetTab returns the tab with id, or (nil, nil) when it no longer exists.
	GetTab(ctx context.Context, id int) (*Tab, error)
	CreateTab(ctx context.Context, url string, active bool) (*Tab, error)
	UpdateTab(ctx context.Context, id int, url string) (*Tab, error)
	RemoveTab(ctx context.Context, id int) error
	// SwitchToTab focuses the tab's window and activates the tab.
	SwitchToTab(ctx context.Context, id int) error

	// Storage returns browser-local storage.
	Storage() storage.Store

	SendMessageToTab(ctx context.Context, tabID int, msg Message) error
	SendMessageToFrames(ctx context.Context, msg Message) error
	CreateNotification(ctx context.Context, n Notification) error

	Manifest() Manifest
	Version() string

	// Listener registration never blocks and never performs I/O.
	AddListenerOnMessage(fn MessageListener)
	AddListenerOnTabUpdated(fn TabUpdatedListener)
	AddListenerOnTabRemoved(fn TabRemovedListener)
	AddListenerOnTabActivated(fn TabActivatedListener)
	AddListenerOnWindowsFocusChanged(fn WindowFocusChangedListener)
}

var (
	_ Adapter = (*MemoryAdapter)(nil)
	_ Adapter = (*RodAdapter)(nil)
)
