package browser

import (
	"context"
	"sort"
	"sync"

	"accessibility-insights/background/internal/storage"
)

// MemoryAdapter is an in-process Adapter. Tabs live in a map and events are delivered
// synchronously to registered listeners. Used by the background in memory mode and by tests.
type MemoryAdapter struct {
	listeners

	mu            sync.Mutex
	tabs          map[int]*Tab
	nextTabID     int
	focusedWindow int
	sent          []Message
	notifications []Notification

	store    storage.Store
	manifest Manifest
}

// NewMemoryAdapter returns an adapter with no tabs. store may be nil for an in-memory store.
func NewMemoryAdapter(manifest Manifest, store storage.Store) *MemoryAdapter {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return &MemoryAdapter{
		tabs:          make(map[int]*Tab),
		nextTabID:     1,
		focusedWindow: 1,
		store:         store,
		manifest:      manifest,
	}
}

// Tabs returns every tab ordered by id.
func (a *MemoryAdapter) Tabs(ctx context.Context) ([]Tab, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Tab, 0, len(a.tabs))
	for _, t := range a.tabs {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetTab returns a copy of the tab, or nil when it does not exist.
func (a *MemoryAdapter) GetTab(ctx context.Context, id int) (*Tab, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tabs[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// CreateTab opens a tab in the focused window.
func (a *MemoryAdapter) CreateTab(ctx context.Context, url string, active bool) (*Tab, error) {
	a.mu.Lock()
	t := &Tab{ID: a.nextTabID, WindowID: a.focusedWindow, URL: url, Title: url}
	a.nextTabID++
	if active {
		a.deactivateLocked(t.WindowID)
		t.Active = true
	}
	a.tabs[t.ID] = t
	cp := *t
	a.mu.Unlock()

	a.emitTabUpdated(ctx, cp)
	if active {
		a.emitTabActivated(ctx, cp.ID, cp.WindowID)
	}
	return &cp, nil
}

// UpdateTab navigates the tab to url.
func (a *MemoryAdapter) UpdateTab(ctx context.Context, id int, url string) (*Tab, error) {
	a.mu.Lock()
	t, ok := a.tabs[id]
	if !ok {
		a.mu.Unlock()
		return nil, ErrTabNotFound
	}
	t.URL = url
	t.Title = url
	cp := *t
	a.mu.Unlock()

	a.emitTabUpdated(ctx, cp)
	return &cp, nil
}

// SetTitle changes a tab's title as a page load would.
func (a *MemoryAdapter) SetTitle(ctx context.Context, id int, title string) error {
	a.mu.Lock()
	t, ok := a.tabs[id]
	if !ok {
		a.mu.Unlock()
		return ErrTabNotFound
	}
	t.Title = title
	cp := *t
	a.mu.Unlock()

	a.emitTabUpdated(ctx, cp)
	return nil
}

// RemoveTab closes the tab.
func (a *MemoryAdapter) RemoveTab(ctx context.Context, id int) error {
	a.mu.Lock()
	if _, ok := a.tabs[id]; !ok {
		a.mu.Unlock()
		return ErrTabNotFound
	}
	delete(a.tabs, id)
	a.mu.Unlock()

	a.emitTabRemoved(ctx, id)
	return nil
}

// SwitchToTab focuses the tab's window and activates the tab.
func (a *MemoryAdapter) SwitchToTab(ctx context.Context, id int) error {
	a.mu.Lock()
	t, ok := a.tabs[id]
	if !ok {
		a.mu.Unlock()
		return ErrTabNotFound
	}
	windowChanged := a.focusedWindow != t.WindowID
	a.focusedWindow = t.WindowID
	a.deactivateLocked(t.WindowID)
	t.Active = true
	windowID := t.WindowID
	a.mu.Unlock()

	if windowChanged {
		a.emitWindowFocusChanged(ctx, windowID)
	}
	a.emitTabActivated(ctx, id, windowID)
	return nil
}

func (a *MemoryAdapter) deactivateLocked(windowID int) {
	for _, other := range a.tabs {
		if other.WindowID == windowID {
			other.Active = false
		}
	}
}

// Storage returns the local store.
func (a *MemoryAdapter) Storage() storage.Store { return a.store }

// SendMessageToTab records the message; it fails when the tab does not exist.
func (a *MemoryAdapter) SendMessageToTab(ctx context.Context, tabID int, msg Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.tabs[tabID]; !ok {
		return ErrTabNotFound
	}
	msg.TabID = tabID
	a.sent = append(a.sent, msg)
	return nil
}

// SendMessageToFrames delivers msg to the background's own listeners, as runtime.sendMessage does.
func (a *MemoryAdapter) SendMessageToFrames(ctx context.Context, msg Message) error {
	a.mu.Lock()
	a.sent = append(a.sent, msg)
	a.mu.Unlock()
	a.emitMessage(ctx, msg)
	return nil
}

// CreateNotification records the notification.
func (a *MemoryAdapter) CreateNotification(ctx context.Context, n Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifications = append(a.notifications, n)
	return nil
}

// Manifest returns the configured manifest.
func (a *MemoryAdapter) Manifest() Manifest { return a.manifest }

// Version returns the manifest version.
func (a *MemoryAdapter) Version() string { return a.manifest.Version }

// DispatchMessage delivers an inbound message (e.g. from a content script) to the listeners.
func (a *MemoryAdapter) DispatchMessage(ctx context.Context, msg Message) {
	a.emitMessage(ctx, msg)
}

// SentMessages returns the messages sent to tabs and frames so far.
func (a *MemoryAdapter) SentMessages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.sent...)
}

// Notifications returns the notifications created so far.
func (a *MemoryAdapter) Notifications() []Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Notification(nil), a.notifications...)
}
