package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/storage"
)

// RodConfig configures the Chrome instance driven by RodAdapter.
type RodConfig struct {
	// DebuggerURL connects to an already running Chrome. Empty launches one.
	DebuggerURL string
	Headless    bool
}

// RodAdapter drives real Chrome pages through the DevTools protocol. Each page target is a tab;
// target ids are mapped to stable integer tab ids for the lifetime of the adapter.
type RodAdapter struct {
	listeners

	cfg      RodConfig
	store    storage.Store
	manifest Manifest
	logger   *zap.Logger

	mu        sync.RWMutex
	browser   *rod.Browser
	idByTgt   map[proto.TargetTargetID]int
	tgtByID   map[int]proto.TargetTargetID
	nextTabID int
	activeTab int
}

// NewRodAdapter returns an adapter that is not yet connected; call Start before use.
func NewRodAdapter(cfg RodConfig, manifest Manifest, store storage.Store, logger *zap.Logger) *RodAdapter {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return &RodAdapter{
		cfg:       cfg,
		store:     store,
		manifest:  manifest,
		logger:    logging.OrNop(logger),
		idByTgt:   make(map[proto.TargetTargetID]int),
		tgtByID:   make(map[int]proto.TargetTargetID),
		nextTabID: 1,
	}
}

// Start connects to (or launches) Chrome, indexes the open pages and begins forwarding target events.
func (a *RodAdapter) Start(ctx context.Context) error {
	controlURL := a.cfg.DebuggerURL
	if controlURL == "" {
		u, err := launcher.New().Headless(a.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("browser: launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect to chrome: %w", err)
	}

	pages, err := b.Pages()
	if err != nil {
		_ = b.Close()
		return fmt.Errorf("browser: list pages: %w", err)
	}

	a.mu.Lock()
	a.browser = b
	for _, p := range pages {
		a.tabIDLocked(p.TargetID)
	}
	a.mu.Unlock()

	wait := b.EachEvent(
		func(e *proto.TargetTargetCreated) {
			if e.TargetInfo == nil || e.TargetInfo.Type != proto.TargetTargetInfoTypePage {
				return
			}
			a.emitTabUpdated(ctx, a.tabFromInfo(e.TargetInfo))
		},
		func(e *proto.TargetTargetInfoChanged) {
			if e.TargetInfo == nil || e.TargetInfo.Type != proto.TargetTargetInfoTypePage {
				return
			}
			a.emitTabUpdated(ctx, a.tabFromInfo(e.TargetInfo))
		},
		func(e *proto.TargetTargetDestroyed) {
			id, ok := a.forget(e.TargetID)
			if ok {
				a.emitTabRemoved(ctx, id)
			}
		},
	)
	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(b); err != nil {
		a.logger.Warn("browser: target discovery unavailable", zap.Error(err))
	}
	go wait()
	return nil
}

// Close disconnects from Chrome.
func (a *RodAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.browser == nil {
		return nil
	}
	err := a.browser.Close()
	a.browser = nil
	return err
}

func (a *RodAdapter) tabIDLocked(tgt proto.TargetTargetID) int {
	if id, ok := a.idByTgt[tgt]; ok {
		return id
	}
	id := a.nextTabID
	a.nextTabID++
	a.idByTgt[tgt] = id
	a.tgtByID[id] = tgt
	return id
}

func (a *RodAdapter) forget(tgt proto.TargetTargetID) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.idByTgt[tgt]
	if !ok {
		return 0, false
	}
	delete(a.idByTgt, tgt)
	delete(a.tgtByID, id)
	return id, true
}

func (a *RodAdapter) tabFromInfo(info *proto.TargetTargetInfo) Tab {
	a.mu.Lock()
	id := a.tabIDLocked(info.TargetID)
	active := a.activeTab == id
	b := a.browser
	a.mu.Unlock()

	windowID := 1
	if b != nil {
		if res, err := (proto.BrowserGetWindowForTarget{TargetID: info.TargetID}).Call(b); err == nil {
			windowID = int(res.WindowID)
		}
	}
	return Tab{ID: id, WindowID: windowID, URL: info.URL, Title: info.Title, Active: active}
}

func (a *RodAdapter) connected() (*rod.Browser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.browser == nil {
		return nil, errors.New("browser: not connected")
	}
	return a.browser, nil
}

func (a *RodAdapter) page(ctx context.Context, id int) (*rod.Page, error) {
	b, err := a.connected()
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	tgt, ok := a.tgtByID[id]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrTabNotFound
	}
	p, err := b.PageFromTarget(tgt)
	if err != nil {
		return nil, ErrTabNotFound
	}
	return p.Context(ctx), nil
}

// Tabs lists every page target.
func (a *RodAdapter) Tabs(ctx context.Context) ([]Tab, error) {
	b, err := a.connected()
	if err != nil {
		return nil, err
	}
	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list pages: %w", err)
	}
	out := make([]Tab, 0, len(pages))
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		out = append(out, a.tabFromInfo(info))
	}
	return out, nil
}

// GetTab returns the tab, or nil when the page is gone.
func (a *RodAdapter) GetTab(ctx context.Context, id int) (*Tab, error) {
	p, err := a.page(ctx, id)
	if errors.Is(err, ErrTabNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info, err := p.Info()
	return a.tabFromPageInfo(id, info, err)
}

// tabFromPageInfo turns a page info lookup into a tab. A failed lookup for a tab whose target
// was destroyed in the meantime reports (nil, nil); any other failure is returned.
func (a *RodAdapter) tabFromPageInfo(id int, info *proto.TargetTargetInfo, err error) (*Tab, error) {
	if err != nil {
		a.mu.RLock()
		_, known := a.tgtByID[id]
		a.mu.RUnlock()
		if !known {
			return nil, nil
		}
		return nil, fmt.Errorf("browser: tab %d info: %w", id, err)
	}
	t := a.tabFromInfo(info)
	return &t, nil
}

// CreateTab opens a new page at url.
func (a *RodAdapter) CreateTab(ctx context.Context, url string, active bool) (*Tab, error) {
	b, err := a.connected()
	if err != nil {
		return nil, err
	}
	p, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	a.mu.Lock()
	id := a.tabIDLocked(p.TargetID)
	a.mu.Unlock()
	if active {
		if err := a.SwitchToTab(ctx, id); err != nil {
			a.logger.Warn("browser: activate new tab", zap.Int("tabId", id), zap.Error(err))
		}
	}
	return a.GetTab(ctx, id)
}

// UpdateTab navigates the page.
func (a *RodAdapter) UpdateTab(ctx context.Context, id int, url string) (*Tab, error) {
	p, err := a.page(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("browser: navigate tab %d: %w", id, err)
	}
	return a.GetTab(ctx, id)
}

// RemoveTab closes the page. The tab removed event arrives through target discovery.
func (a *RodAdapter) RemoveTab(ctx context.Context, id int) error {
	p, err := a.page(ctx, id)
	if err != nil {
		return err
	}
	return p.Close()
}

// SwitchToTab brings the page to front.
func (a *RodAdapter) SwitchToTab(ctx context.Context, id int) error {
	p, err := a.page(ctx, id)
	if err != nil {
		return err
	}
	if _, err := p.Activate(); err != nil {
		return fmt.Errorf("browser: activate tab %d: %w", id, err)
	}
	a.mu.Lock()
	a.activeTab = id
	a.mu.Unlock()
	tab, _ := a.GetTab(ctx, id)
	windowID := 1
	if tab != nil {
		windowID = tab.WindowID
	}
	a.emitTabActivated(ctx, id, windowID)
	return nil
}

// Storage returns the local store.
func (a *RodAdapter) Storage() storage.Store { return a.store }

// SendMessageToTab posts msg into the page's main frame.
func (a *RodAdapter) SendMessageToTab(ctx context.Context, tabID int, msg Message) error {
	p, err := a.page(ctx, tabID)
	if err != nil {
		return err
	}
	msg.TabID = tabID
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := p.Eval(`(m) => window.postMessage(JSON.parse(m), "*")`, string(raw)); err != nil {
		return fmt.Errorf("browser: post message to tab %d: %w", tabID, err)
	}
	return nil
}

// SendMessageToFrames delivers msg to the background's own listeners.
func (a *RodAdapter) SendMessageToFrames(ctx context.Context, msg Message) error {
	a.emitMessage(ctx, msg)
	return nil
}

// CreateNotification logs the notification; headless Chrome has no notification surface.
func (a *RodAdapter) CreateNotification(ctx context.Context, n Notification) error {
	a.logger.Info("notification", zap.String("title", n.Title), zap.String("message", n.Message))
	return nil
}

// Manifest returns the configured manifest.
func (a *RodAdapter) Manifest() Manifest { return a.manifest }

// Version returns the manifest version.
func (a *RodAdapter) Version() string { return a.manifest.Version }
