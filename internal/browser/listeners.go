package browser

import (
	"context"
	"sync"
)

// listeners holds registered callbacks and fans events out to them. Shared by adapters.
type listeners struct {
	mu           sync.RWMutex
	message      []MessageListener
	tabUpdated   []TabUpdatedListener
	tabRemoved   []TabRemovedListener
	tabActivated []TabActivatedListener
	windowFocus  []WindowFocusChangedListener
}

func (l *listeners) AddListenerOnMessage(fn MessageListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.message = append(l.message, fn)
}

func (l *listeners) AddListenerOnTabUpdated(fn TabUpdatedListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tabUpdated = append(l.tabUpdated, fn)
}

func (l *listeners) AddListenerOnTabRemoved(fn TabRemovedListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tabRemoved = append(l.tabRemoved, fn)
}

func (l *listeners) AddListenerOnTabActivated(fn TabActivatedListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tabActivated = append(l.tabActivated, fn)
}

func (l *listeners) AddListenerOnWindowsFocusChanged(fn WindowFocusChangedListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windowFocus = append(l.windowFocus, fn)
}

func (l *listeners) emitMessage(ctx context.Context, msg Message) {
	l.mu.RLock()
	fns := append([]MessageListener(nil), l.message...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, msg)
	}
}

func (l *listeners) emitTabUpdated(ctx context.Context, tab Tab) {
	l.mu.RLock()
	fns := append([]TabUpdatedListener(nil), l.tabUpdated...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, tab)
	}
}

func (l *listeners) emitTabRemoved(ctx context.Context, tabID int) {
	l.mu.RLock()
	fns := append([]TabRemovedListener(nil), l.tabRemoved...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, tabID)
	}
}

func (l *listeners) emitTabActivated(ctx context.Context, tabID, windowID int) {
	l.mu.RLock()
	fns := append([]TabActivatedListener(nil), l.tabActivated...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, tabID, windowID)
	}
}

func (l *listeners) emitWindowFocusChanged(ctx context.Context, windowID int) {
	l.mu.RLock()
	fns := append([]WindowFocusChangedListener(nil), l.windowFocus...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, windowID)
	}
}

// ListenerCounts reports how many listeners of each kind are registered, keyed by event name.
func (l *listeners) ListenerCounts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return map[string]int{
		"message":            len(l.message),
		"tabUpdated":         len(l.tabUpdated),
		"tabRemoved":         len(l.tabRemoved),
		"tabActivated":       len(l.tabActivated),
		"windowFocusChanged": len(l.windowFocus),
	}
}
