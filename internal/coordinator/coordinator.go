// Package coordinator owns the dashboard's data-binding glue: it polls
// remote twin state, reconciles it against user-interaction state, and
// dispatches updates to whichever rendering backend is active while
// collecting performance metrics.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/ditto"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/metrics"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/renderer"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/scene"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

// State is the coordinator's lifecycle state
type State int

const (
	Idle State = iota
	FrameworkLoading
	FrameworkReady
	UserInteracting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FrameworkLoading:
		return "loading"
	case FrameworkReady:
		return "ready"
	case UserInteracting:
		return "interacting"
	default:
		return "unknown"
	}
}

// EntityAll selects fan-out writes to every mixer sub-entity
const EntityAll = "all"

// Control identifies one UI control by the twin property it drives
type Control struct {
	Feature  string
	Property string
}

// Update is what UI listeners receive after each dispatched poll or
// local control change
type Update struct {
	State *twin.State
	Model twin.ModelState
}

// Listener receives dispatched updates for on-screen widgets
type Listener func(Update)

type Config struct {
	Container       string
	DefaultModelID  string
	QuiescenceDelay time.Duration
	WriteDebounce   time.Duration
	MixerCount      int
}

// Snapshot is the externally visible coordinator status
type Snapshot struct {
	State     State
	Framework string
	ModelID   string
	Entity    string
	Message   string
	Model     twin.ModelState
	Metrics   metrics.Summary
}

// Coordinator owns the single active adapter reference and the single
// polling timer; no other component mutates them. All methods and timer
// callbacks serialize on one mutex, so callbacks never interleave.
type Coordinator struct {
	cfg       Config
	client    *ditto.Client
	poller    *ditto.Poller
	collector *metrics.Collector
	registry  *renderer.Registry
	manifest  *scene.Manifest

	mu          sync.Mutex
	state       State
	frameworkID string
	modelID     string
	entity      string
	active      renderer.Adapter
	session     uint64
	message     string
	model       *twin.ModelState
	listeners   []Listener

	interacting map[Control]bool
	quiescence  *time.Timer
	debounce    map[Control]*time.Timer
}

func New(cfg Config, client *ditto.Client, poller *ditto.Poller,
	collector *metrics.Collector, registry *renderer.Registry, manifest *scene.Manifest,
) *Coordinator {
	if cfg.QuiescenceDelay <= 0 {
		cfg.QuiescenceDelay = 500 * time.Millisecond
	}
	if cfg.WriteDebounce <= 0 {
		cfg.WriteDebounce = 100 * time.Millisecond
	}
	if cfg.MixerCount <= 0 {
		cfg.MixerCount = 6
	}
	if cfg.Container == "" {
		cfg.Container = "render-container"
	}
	if manifest == nil {
		manifest = scene.Empty()
	}

	return &Coordinator{
		cfg:         cfg,
		client:      client,
		poller:      poller,
		collector:   collector,
		registry:    registry,
		manifest:    manifest,
		state:       Idle,
		modelID:     cfg.DefaultModelID,
		entity:      EntityAll,
		model:       twin.NewModelState(),
		interacting: map[Control]bool{},
		debounce:    map[Control]*time.Timer{},
	}
}

// RegisterFramework adds a rendering backend to the coordinator's
// registry; the registry is owned here, not ambient shared state
func (c *Coordinator) RegisterFramework(id string, factory renderer.Factory) {
	c.registry.Register(id, factory)
}

// Frameworks lists the registered rendering backends
func (c *Coordinator) Frameworks() []string {
	return c.registry.IDs()
}

// AddListener registers a UI callback for dispatched updates
func (c *Coordinator) AddListener(listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, listener)
}

// SelectFramework tears down the active adapter and brings up the named
// one. Load failures surface through Status and are not retried; the
// user must reselect.
func (c *Coordinator) SelectFramework(id string) error {
	errFactory := errors.New()

	c.mu.Lock()
	c.teardownLocked()

	c.state = FrameworkLoading
	c.frameworkID = id
	c.session++
	session := c.session
	c.message = "Loading " + id + "..."
	modelID := c.modelID
	c.mu.Unlock()

	logger.Info().Str("framework", id).Str("model", modelID).Msg("Switching rendering framework")

	// Resolving assets stands in for loading the backend's runtime
	// dependencies; it is an opaque external step
	model := c.manifest.Resolve(modelID)
	loadStart := time.Now()

	adapter, err := c.registry.Instance(id)
	if err != nil {
		c.failLoad(session, err)
		return err
	}

	err = adapter.Initialize(context.Background(), renderer.Options{
		Container: c.cfg.Container,
		ModelID:   modelID,
		OnReady: func() {
			c.adapterReady(session, adapter, loadStart)
		},
	})
	if err != nil {
		wrapped := errFactory.Wrap(errors.ErrAdapterLoad, err)
		c.failLoad(session, wrapped)
		return wrapped
	}

	_ = model // scene graph is handed to external engines; nothing to bind headless

	return nil
}

// adapterReady runs when the adapter signals readiness: metrics start
// and polling begins. Stale sessions (the framework changed again while
// loading) are ignored.
func (c *Coordinator) adapterReady(session uint64, adapter renderer.Adapter, loadStart time.Time) {
	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		logger.Debug().Uint64("session", session).Msg("Ignoring readiness of a replaced adapter")
		return
	}

	c.active = adapter
	c.state = FrameworkReady
	c.message = ""
	framework := c.frameworkID
	c.mu.Unlock()

	if c.collector != nil {
		c.collector.Start(framework)
		c.collector.RecordLoadTime(float64(time.Since(loadStart).Microseconds()) / 1000)
	}

	c.poller.Start(func(state *twin.State) {
		c.dispatch(session, state)
	})

	logger.Info().Str("framework", framework).Msg("Framework ready, polling started")
}

func (c *Coordinator) failLoad(session uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session != c.session {
		return
	}

	c.state = Idle
	c.active = nil
	c.message = err.Error()

	logger.Error().Err(err).Msg("Framework load failed")
}

// dispatch forwards one fetched state to the active adapter and the UI
// listeners, unless the user is interacting or the session moved on
func (c *Coordinator) dispatch(session uint64, state *twin.State) {
	c.mu.Lock()
	if session != c.session || c.state == UserInteracting {
		c.mu.Unlock()
		return
	}

	c.model.ApplyState(state, c.skipInteractingLocked())
	adapter := c.active
	update := Update{State: state, Model: *c.model}
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	if adapter != nil {
		adapter.UpdateFromTwin(state)
	}
	for _, listener := range listeners {
		listener(update)
	}
}

func (c *Coordinator) skipInteractingLocked() func(feature, prop string) bool {
	if len(c.interacting) == 0 {
		return nil
	}

	active := make(map[Control]bool, len(c.interacting))
	for control := range c.interacting {
		active[control] = true
	}

	return func(feature, prop string) bool {
		return active[Control{Feature: feature, Property: prop}]
	}
}

// SelectModel switches the displayed model. Adapters with the
// ModelChanger capability switch in place; others go through a full
// framework reload.
func (c *Coordinator) SelectModel(id string) error {
	c.mu.Lock()
	c.modelID = id
	adapter := c.active
	framework := c.frameworkID
	ready := c.state == FrameworkReady || c.state == UserInteracting
	c.mu.Unlock()

	if !ready {
		return nil
	}

	if changer, ok := adapter.(renderer.ModelChanger); ok {
		model := c.manifest.Resolve(id)
		if model.Placeholder {
			logger.Warn().Str("model", id).Msg("Switching to placeholder model")
		}
		return changer.ChangeModel(id)
	}

	return c.SelectFramework(framework)
}

// SelectEntity chooses which mixer sub-entity control writes target;
// EntityAll fans out to every sub-entity
func (c *Coordinator) SelectEntity(entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entity == "" {
		entity = EntityAll
	}
	c.entity = entity
}

// Status snapshots the coordinator for UI display
func (c *Coordinator) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := Snapshot{
		State:     c.state,
		Framework: c.frameworkID,
		ModelID:   c.modelID,
		Entity:    c.entity,
		Message:   c.message,
		Model:     *c.model,
	}
	if c.collector != nil {
		snapshot.Metrics = c.collector.Summary()
	}

	return snapshot
}

// Stop tears everything down
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.teardownLocked()
	c.state = Idle
	c.session++
	c.mu.Unlock()
}

// teardownLocked stops polling and metrics and cleans up the active
// adapter (best effort; adapters without the capability are tolerated)
func (c *Coordinator) teardownLocked() {
	c.poller.Stop()

	if c.collector != nil {
		c.collector.Stop()
	}

	if c.quiescence != nil {
		c.quiescence.Stop()
		c.quiescence = nil
	}
	for control, timer := range c.debounce {
		timer.Stop()
		delete(c.debounce, control)
	}
	for control := range c.interacting {
		delete(c.interacting, control)
	}

	if cleaner, ok := c.active.(renderer.Cleaner); ok {
		cleaner.Cleanup()
	}
	c.active = nil
}
