// Package background brings up the background process: listener registration, state loading and
// the wiring of every store, router and telemetry component into an AppContext.
package background

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"accessibility-insights/background/internal/assessment"
	assessmentdomain "accessibility-insights/background/internal/assessment/domain"
	assessmenthandler "accessibility-insights/background/internal/assessment/handler"
	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/featureflags"
	"accessibility-insights/background/internal/issuefiling"
	issuedomain "accessibility-insights/background/internal/issuefiling/domain"
	issuehandler "accessibility-insights/background/internal/issuefiling/handler"
	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/messaging"
	"accessibility-insights/background/internal/storage"
	"accessibility-insights/background/internal/telemetry"
	"accessibility-insights/background/internal/userconfig"
)

var (
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("background: already initialized")
	// ErrNotInitialized is returned when the application context is requested before Initialize succeeded.
	ErrNotInitialized = errors.New("background: not initialized")
)

// Deps are the collaborators the bootstrap wires together.
type Deps struct {
	Adapter browser.Adapter
	// Persisted holds assessment data, user configuration and the details view map.
	Persisted storage.Store
	// Sink receives telemetry events once the user opts in.
	Sink telemetry.Sink
	// Opener opens filed issues. Defaults to a new tab through Adapter.
	Opener issuefiling.Opener
	// Env is quoted in filed issues.
	Env    issuedomain.EnvironmentInfo
	Logger *zap.Logger
}

// AppContext holds every service built by Initialize.
type AppContext struct {
	Logger          *zap.Logger
	Adapter         browser.Adapter
	Persisted       storage.Store
	Local           storage.Store
	Installation    *telemetry.InstallationService
	TelemetryClient *telemetry.ApplicationClient
	Telemetry       *telemetry.EventHandler
	Interpreter     *messaging.Interpreter
	Assessments     *assessment.Store
	UserConfig      *userconfig.Store
	FeatureFlags    *featureflags.Store
	LaunchPanel     *featureflags.LaunchPanelStore
	IssueFiling     *issuefiling.Provider
	Tabs            *TabContexts
}

// pendingEvent is a listener callback that arrived before Initialize finished.
type pendingEvent struct {
	name string
	ctx  context.Context
	fn   func(ctx context.Context, app *AppContext)
}

// Bootstrap sequences startup. RegisterListeners must be called before Initialize.
type Bootstrap struct {
	deps   Deps
	logger *zap.Logger

	mu          sync.Mutex
	app         *AppContext
	initStarted bool
	gateOpen    bool // Initialize finished and the backlog is drained
	failed      bool
	pending     []pendingEvent
	ready       chan struct{}

	cleanup sync.WaitGroup
}

// New returns a bootstrap over deps.
func New(deps Deps) *Bootstrap {
	return &Bootstrap{
		deps:   deps,
		logger: logging.OrNop(deps.Logger),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once Initialize has finished, successfully or not.
func (b *Bootstrap) Ready() <-chan struct{} { return b.ready }

// App returns the application context built by Initialize.
func (b *Bootstrap) App() (*AppContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.app == nil {
		return nil, ErrNotInitialized
	}
	return b.app, nil
}

// Run registers listeners, then initializes. Initialization errors are logged and returned; listeners
// stay registered so the process keeps running degraded.
func (b *Bootstrap) Run(ctx context.Context) (*AppContext, error) {
	b.RegisterListeners()
	app, err := b.Initialize(ctx)
	if err != nil {
		b.logger.Error("background: initialization failed", zap.Error(err))
		return nil, err
	}
	return app, nil
}

// RegisterListeners is the synchronous phase. It starts deprecated-key cleanup in the background and
// registers every adapter listener without waiting on I/O. A failing registration is logged and the
// rest still run.
func (b *Bootstrap) RegisterListeners() {
	adapter := b.deps.Adapter
	b.guard("storageCleanup", func() {
		local := adapter.Storage()
		b.cleanup.Add(1)
		go func() {
			defer b.cleanup.Done()
			storage.CleanKeysFromStorage(context.Background(), local, storage.DeprecatedKeys(), b.logger)
		}()
	})

	b.guard("message", func() {
		adapter.AddListenerOnMessage(func(ctx context.Context, msg browser.Message) {
			b.dispatch(ctx, "message", func(ctx context.Context, app *AppContext) { app.handleMessage(ctx, msg) })
		})
	})
	b.guard("tabUpdated", func() {
		adapter.AddListenerOnTabUpdated(func(ctx context.Context, tab browser.Tab) {
			b.dispatch(ctx, "tabUpdated", func(ctx context.Context, app *AppContext) { app.Tabs.Track(tab) })
		})
	})
	b.guard("tabRemoved", func() {
		adapter.AddListenerOnTabRemoved(func(ctx context.Context, tabID int) {
			b.dispatch(ctx, "tabRemoved", func(ctx context.Context, app *AppContext) { app.handleTabRemoved(ctx, tabID) })
		})
	})
	b.guard("tabActivated", func() {
		adapter.AddListenerOnTabActivated(func(ctx context.Context, tabID, windowID int) {
			b.dispatch(ctx, "tabActivated", func(ctx context.Context, app *AppContext) { app.handleTabActivated(ctx, tabID) })
		})
	})
	b.guard("windowsFocusChanged", func() {
		adapter.AddListenerOnWindowsFocusChanged(func(ctx context.Context, windowID int) {
			b.dispatch(ctx, "windowsFocusChanged", func(ctx context.Context, app *AppContext) {
				app.Logger.Debug("background: window focus changed", zap.Int("windowID", windowID))
			})
		})
	})
}

// guard runs register, logging instead of propagating a panic.
func (b *Bootstrap) guard(name string, register func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("background: listener registration failed", zap.String("listener", name), zap.Any("panic", r))
		}
	}()
	register()
}

// dispatch runs fn once the gate is open. Events that arrive earlier are queued in order and replayed
// when Initialize finishes. After a failed Initialize they are dropped with a log line.
func (b *Bootstrap) dispatch(ctx context.Context, name string, fn func(ctx context.Context, app *AppContext)) {
	b.mu.Lock()
	if !b.gateOpen && !b.failed {
		b.pending = append(b.pending, pendingEvent{name: name, ctx: context.WithoutCancel(ctx), fn: fn})
		b.mu.Unlock()
		return
	}
	app := b.app
	b.mu.Unlock()
	if app == nil {
		b.logger.Warn("background: dropping event, initialization failed", zap.String("event", name))
		return
	}
	b.run(ctx, name, app, fn)
}

func (b *Bootstrap) run(ctx context.Context, name string, app *AppContext, fn func(ctx context.Context, app *AppContext)) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("background: listener panicked", zap.String("event", name), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn(ctx, app)
}

// openGate publishes app and replays queued events in arrival order. Events arriving while the
// backlog drains are queued behind it.
func (b *Bootstrap) openGate(app *AppContext) {
	b.mu.Lock()
	b.app = app
	b.mu.Unlock()
	for {
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		if len(batch) == 0 {
			b.gateOpen = true
			b.mu.Unlock()
			break
		}
		b.mu.Unlock()
		for _, ev := range batch {
			b.run(ev.ctx, ev.name, app, ev.fn)
		}
	}
	close(b.ready)
}

func (b *Bootstrap) failGate() {
	b.mu.Lock()
	b.failed = true
	dropped := len(b.pending)
	b.pending = nil
	b.mu.Unlock()
	if dropped > 0 {
		b.logger.Warn("background: dropping queued events, initialization failed", zap.Int("count", dropped))
	}
	close(b.ready)
}

// persistedState is read from the persisted store.
type persistedState struct {
	assessments *assessmentdomain.Data
	userConfig  *userconfig.UserConfiguration
	detailsView map[int]int
}

// localState is read from browser-local storage.
type localState struct {
	installation *telemetry.InstallationData
	flags        map[string]bool
	launchPanel  featureflags.LaunchPanel
}

// Initialize is the asynchronous phase. It reads persisted and local state concurrently, joins both,
// then builds every service and opens the event gate.
func (b *Bootstrap) Initialize(ctx context.Context) (*AppContext, error) {
	b.mu.Lock()
	if b.initStarted {
		b.mu.Unlock()
		return nil, ErrAlreadyInitialized
	}
	b.initStarted = true
	b.mu.Unlock()

	app, err := b.initialize(ctx)
	if err != nil {
		b.failGate()
		return nil, err
	}
	b.openGate(app)
	return app, nil
}

func (b *Bootstrap) initialize(ctx context.Context) (*AppContext, error) {
	adapter := b.deps.Adapter
	local := adapter.Storage()

	var persisted persistedState
	var localVals localState
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		persisted, err = readPersistedState(gctx, b.deps.Persisted)
		return err
	})
	g.Go(func() error {
		var err error
		localVals, err = readLocalState(gctx, local)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger := b.logger
	manifest := adapter.Manifest()
	installation := telemetry.NewInstallationService(local, localVals.installation, logger)
	factory := &telemetry.ApplicationDataFactory{
		Name:         manifest.Name,
		Version:      manifest.Version,
		Installation: installation,
	}
	client := telemetry.NewApplicationClient(b.deps.Sink, factory, logger)
	handler := telemetry.NewEventHandler(client, adapter)

	userConfig := userconfig.NewStore(b.deps.Persisted, persisted.userConfig, handler, logger)
	userConfig.ApplyTelemetryState()

	opener := b.deps.Opener
	if opener == nil {
		opener = issuehandler.TabOpener{Adapter: adapter}
	}

	app := &AppContext{
		Logger:          logger,
		Adapter:         adapter,
		Persisted:       b.deps.Persisted,
		Local:           local,
		Installation:    installation,
		TelemetryClient: client,
		Telemetry:       handler,
		Interpreter:     messaging.NewInterpreter(),
		Assessments:     assessment.NewStore(assessment.DefaultProvider(), b.deps.Persisted, handler, persisted.assessments, logger),
		UserConfig:      userConfig,
		FeatureFlags:    featureflags.NewStore(local, localVals.flags),
		LaunchPanel:     featureflags.NewLaunchPanelStore(local, localVals.launchPanel),
		IssueFiling:     issuefiling.DefaultProvider(),
		Tabs:            NewTabContexts(b.deps.Persisted, persisted.detailsView, logger),
	}

	assessmenthandler.Register(app.Interpreter, app.Assessments)
	userconfig.Register(app.Interpreter, app.UserConfig)
	featureflags.Register(app.Interpreter, app.FeatureFlags, app.LaunchPanel)
	issuehandler.Register(app.Interpreter, issuehandler.Deps{
		Provider:  app.IssueFiling,
		Settings:  app.UserConfig,
		Opener:    opener,
		Env:       b.deps.Env,
		Telemetry: handler,
		Logger:    logger,
	})
	registerBackgroundMessages(app)

	tabs, err := adapter.Tabs(ctx)
	if err != nil {
		logger.Warn("background: listing open tabs", zap.Error(err))
	}
	for _, tab := range tabs {
		app.Tabs.Track(tab)
	}

	logger.Info("background: initialized",
		zap.Int("messageTypes", len(app.Interpreter.Types())),
		zap.Int("tabs", len(tabs)),
		zap.Bool("telemetryEnabled", client.Enabled()),
	)
	return app, nil
}

func readPersistedState(ctx context.Context, s storage.Store) (persistedState, error) {
	out := persistedState{detailsView: map[int]int{}}
	vals, err := s.Get(ctx, storage.KeyAssessmentStore, storage.KeyUserConfiguration, storage.KeyTabIDToDetailsViewMap)
	if err != nil {
		return out, fmt.Errorf("background: read persisted state: %w", err)
	}
	var data assessmentdomain.Data
	if ok, err := decode(vals, storage.KeyAssessmentStore, &data); err != nil {
		return out, err
	} else if ok {
		out.assessments = &data
	}
	var cfg userconfig.UserConfiguration
	if ok, err := decode(vals, storage.KeyUserConfiguration, &cfg); err != nil {
		return out, err
	} else if ok {
		out.userConfig = &cfg
	}
	if _, err := decode(vals, storage.KeyTabIDToDetailsViewMap, &out.detailsView); err != nil {
		return out, err
	}
	if out.detailsView == nil {
		out.detailsView = map[int]int{}
	}
	return out, nil
}

func readLocalState(ctx context.Context, s storage.Store) (localState, error) {
	var out localState
	vals, err := s.Get(ctx, storage.KeyInstallationData, storage.KeyFeatureFlags, storage.KeyLaunchPanelSetting)
	if err != nil {
		return out, fmt.Errorf("background: read local state: %w", err)
	}
	var inst telemetry.InstallationData
	if ok, err := decode(vals, storage.KeyInstallationData, &inst); err != nil {
		return out, err
	} else if ok {
		out.installation = &inst
	}
	if _, err := decode(vals, storage.KeyFeatureFlags, &out.flags); err != nil {
		return out, err
	}
	if _, err := decode(vals, storage.KeyLaunchPanelSetting, &out.launchPanel); err != nil {
		return out, err
	}
	return out, nil
}

// decode unmarshals vals[key] into out. A missing or null value reports false.
func decode(vals map[string]json.RawMessage, key string, out any) (bool, error) {
	raw, ok := vals[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("background: decode %q: %w", key, err)
	}
	return true, nil
}

// Shutdown waits for key cleanup and drains in-flight telemetry, bounded by ctx.
func (b *Bootstrap) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.cleanup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.mu.Lock()
	app := b.app
	b.mu.Unlock()
	if app == nil {
		return nil
	}
	return app.TelemetryClient.Drain(ctx)
}
