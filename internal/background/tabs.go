package background

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/storage"
)

// DetailsViewURLFormat is the URL of the details view opened for a target tab.
const DetailsViewURLFormat = "about:blank#/details-view/%d"

// TabContext is what the background knows about one open tab.
type TabContext struct {
	Tab browser.Tab
}

// TabContexts tracks open tabs and which details view tab belongs to which target tab.
// The details view map is persisted under storage.KeyTabIDToDetailsViewMap.
type TabContexts struct {
	mu          sync.Mutex
	tabs        map[int]*TabContext
	detailsView map[int]int
	persisted   storage.Store
	logger      *zap.Logger
}

// NewTabContexts returns a tracker seeded with the persisted details view map (nil means empty).
func NewTabContexts(persisted storage.Store, detailsView map[int]int, logger *zap.Logger) *TabContexts {
	m := make(map[int]int, len(detailsView))
	for k, v := range detailsView {
		m[k] = v
	}
	return &TabContexts{
		tabs:        make(map[int]*TabContext),
		detailsView: m,
		persisted:   persisted,
		logger:      logging.OrNop(logger),
	}
}

// Track records or refreshes tab.
func (t *TabContexts) Track(tab browser.Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tc, ok := t.tabs[tab.ID]; ok {
		tc.Tab = tab
		return
	}
	t.tabs[tab.ID] = &TabContext{Tab: tab}
}

// Get returns the context of tabID.
func (t *TabContexts) Get(tabID int) (TabContext, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tc, ok := t.tabs[tabID]
	if !ok {
		return TabContext{}, false
	}
	return *tc, true
}

// IDs returns the tracked tab ids in ascending order.
func (t *TabContexts) IDs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]int, 0, len(t.tabs))
	for id := range t.tabs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Remove drops tabID and any details view pairing it is part of, then persists the map.
func (t *TabContexts) Remove(ctx context.Context, tabID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tabs, tabID)
	changed := false
	for target, details := range t.detailsView {
		if target == tabID || details == tabID {
			delete(t.detailsView, target)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return t.persistLocked(ctx)
}

// DetailsViewFor returns the details view tab of target.
func (t *TabContexts) DetailsViewFor(target int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.detailsView[target]
	return id, ok
}

// SetDetailsView pairs target with its details view tab and persists the map.
func (t *TabContexts) SetDetailsView(ctx context.Context, target, details int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detailsView[target] = details
	return t.persistLocked(ctx)
}

// DetailsViewMap returns a copy of the target → details view map.
func (t *TabContexts) DetailsViewMap() map[int]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[int]int, len(t.detailsView))
	for k, v := range t.detailsView {
		out[k] = v
	}
	return out
}

func (t *TabContexts) persistLocked(ctx context.Context) error {
	if err := storage.SetJSON(ctx, t.persisted, storage.KeyTabIDToDetailsViewMap, t.detailsView); err != nil {
		return fmt.Errorf("background: persist details view map: %w", err)
	}
	return nil
}
