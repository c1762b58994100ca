package coordinator_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/coordinator"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/ditto"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/renderer"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a minimal in-memory Ditto stand-in
type fakeBackend struct {
	mu     sync.Mutex
	temp   float64
	rpm    float64
	writes []write
}

type write struct {
	feature  string
	property string
	value    string
}

func (b *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"features": map[string]any{
					"Mixer": map[string]any{"properties": map[string]any{
						"Temperature": b.temp,
						"RPM":         b.rpm,
					}},
				},
			})
		case http.MethodPut:
			parts := strings.Split(r.URL.Path, "/")
			body, _ := io.ReadAll(r.Body)
			// .../features/{feature}/properties/{property}
			b.writes = append(b.writes, write{
				feature:  parts[len(parts)-3],
				property: parts[len(parts)-1],
				value:    string(body),
			})
			w.WriteHeader(http.StatusNoContent)
		}
	})
}

func (b *fakeBackend) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

func (b *fakeBackend) lastWrite() write {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.writes) == 0 {
		return write{}
	}
	return b.writes[len(b.writes)-1]
}

// recordingAdapter captures dispatched twin states
type recordingAdapter struct {
	mu       sync.Mutex
	updates  []*twin.State
	cleanups int
}

func (a *recordingAdapter) Initialize(_ context.Context, opts renderer.Options) error {
	if opts.OnReady != nil {
		opts.OnReady()
	}
	return nil
}

func (a *recordingAdapter) UpdateFromTwin(state *twin.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updates = append(a.updates, state)
}

func (a *recordingAdapter) Label() string { return "recording" }

func (a *recordingAdapter) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleanups++
}

func (a *recordingAdapter) updateCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.updates)
}

type fixture struct {
	backend *fakeBackend
	adapter *recordingAdapter
	coord   *coordinator.Coordinator
}

func newFixture(t *testing.T, cfg coordinator.Config) *fixture {
	t.Helper()

	backend := &fakeBackend{temp: 120, rpm: 60}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	client, err := ditto.NewClient(ditto.Config{
		BaseURL:  server.URL,
		ThingID:  "org.eclipse.ditto:Mixer",
		Username: "ditto",
		Password: "ditto",
	}, nil)
	require.NoError(t, err)

	poller := ditto.NewPoller(client, 20*time.Millisecond)

	adapter := &recordingAdapter{}
	registry := renderer.NewRegistry()
	registry.Register("recording", func() (renderer.Adapter, error) { return adapter, nil })
	registry.Register("broken", func() (renderer.Adapter, error) {
		return nil, errors.New("runtime deps missing")
	})

	if cfg.QuiescenceDelay == 0 {
		cfg.QuiescenceDelay = 60 * time.Millisecond
	}
	if cfg.WriteDebounce == 0 {
		cfg.WriteDebounce = 15 * time.Millisecond
	}

	coord := coordinator.New(cfg, client, poller, nil, registry, nil)
	t.Cleanup(coord.Stop)

	return &fixture{backend: backend, adapter: adapter, coord: coord}
}

func TestFrameworkSelectionStartsPolling(t *testing.T) {
	f := newFixture(t, coordinator.Config{})

	var mu sync.Mutex
	var lastModel twin.ModelState
	f.coord.AddListener(func(update coordinator.Update) {
		mu.Lock()
		lastModel = update.Model
		mu.Unlock()
	})

	require.NoError(t, f.coord.SelectFramework("recording"))
	assert.Equal(t, coordinator.FrameworkReady, f.coord.Status().State)

	require.Eventually(t, func() bool { return f.adapter.updateCount() >= 2 },
		time.Second, 5*time.Millisecond, "poll results must reach the active adapter")

	mu.Lock()
	defer mu.Unlock()
	assert.InDelta(t, 120, lastModel.Temperature, 0.001, "listener sees backend state")
}

func TestLoadFailureSurfacesWithoutRetry(t *testing.T) {
	f := newFixture(t, coordinator.Config{})

	err := f.coord.SelectFramework("broken")
	require.Error(t, err)

	status := f.coord.Status()
	assert.Equal(t, coordinator.Idle, status.State)
	assert.Contains(t, status.Message, "runtime deps missing")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, f.adapter.updateCount(), "polling must not start after a load failure")
}

func TestUnknownFramework(t *testing.T) {
	f := newFixture(t, coordinator.Config{})

	err := f.coord.SelectFramework("unity")
	require.Error(t, err)
	assert.Contains(t, f.coord.Status().Message, "unity")
}

func TestInteractionSuppressesPollOverwrite(t *testing.T) {
	f := newFixture(t, coordinator.Config{QuiescenceDelay: 80 * time.Millisecond})

	require.NoError(t, f.coord.SelectFramework("recording"))
	require.Eventually(t, func() bool { return f.adapter.updateCount() >= 1 },
		time.Second, 5*time.Millisecond)

	// Backend says RPM 60; user drags to 90
	f.coord.ControlChanging(twin.FeatureMixer, twin.PropRPM, 90.0)
	status := f.coord.Status()
	assert.Equal(t, coordinator.UserInteracting, status.State)
	assert.InDelta(t, 90, status.Model.RPM, 0.001, "dragged value shows immediately")

	// While interacting, polls must not overwrite the dragged value
	time.Sleep(50 * time.Millisecond)
	assert.InDelta(t, 90, f.coord.Status().Model.RPM, 0.001)

	// After the quiescence window the next poll result is applied again
	require.Eventually(t, func() bool {
		return f.coord.Status().State == coordinator.FrameworkReady
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		rpm := f.coord.Status().Model.RPM
		return rpm > 59 && rpm < 61
	}, time.Second, 5*time.Millisecond, "poll values apply again after quiescence")
}

func TestQuiescenceTimerResetsOnInput(t *testing.T) {
	f := newFixture(t, coordinator.Config{QuiescenceDelay: 70 * time.Millisecond})

	require.NoError(t, f.coord.SelectFramework("recording"))

	f.coord.ControlChanging(twin.FeatureMixer, twin.PropRPM, 70.0)
	time.Sleep(40 * time.Millisecond)
	f.coord.ControlChanging(twin.FeatureMixer, twin.PropRPM, 80.0)
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first event but only 40ms after the second: the
	// window restarted, so we are still interacting
	assert.Equal(t, coordinator.UserInteracting, f.coord.Status().State)

	require.Eventually(t, func() bool {
		return f.coord.Status().State == coordinator.FrameworkReady
	}, time.Second, 5*time.Millisecond)
}

func TestCommitWritesImmediatelyAndUnconditionally(t *testing.T) {
	f := newFixture(t, coordinator.Config{
		// Debounce far longer than the test: intermediate writes never fire
		WriteDebounce:   10 * time.Second,
		QuiescenceDelay: 50 * time.Millisecond,
	})
	f.coord.SelectEntity("Mixer")

	require.NoError(t, f.coord.SelectFramework("recording"))

	before := f.backend.writeCount()

	// Continuous drag 60 -> 90, release at 90
	for _, v := range []float64{60, 70, 80, 85} {
		f.coord.ControlChanging(twin.FeatureMixer, twin.PropRPM, v)
	}
	f.coord.ControlCommitted(twin.FeatureMixer, twin.PropRPM, 90.0)

	require.Eventually(t, func() bool { return f.backend.writeCount() == before+1 },
		time.Second, 5*time.Millisecond, "exactly one unconditional write at release")

	last := f.backend.lastWrite()
	assert.Equal(t, "RPM", last.property)
	assert.Equal(t, "90", last.value)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, before+1, f.backend.writeCount(), "cancelled debounced writes never fire")
}

func TestDebouncedWriteFires(t *testing.T) {
	f := newFixture(t, coordinator.Config{WriteDebounce: 15 * time.Millisecond})
	f.coord.SelectEntity("Mixer")

	require.NoError(t, f.coord.SelectFramework("recording"))

	f.coord.ControlChanging(twin.FeatureMixer, twin.PropTemperature, 130.0)

	require.Eventually(t, func() bool { return f.backend.writeCount() >= 1 },
		time.Second, 5*time.Millisecond, "a quiet drag triggers the debounced write")

	last := f.backend.lastWrite()
	assert.Equal(t, "Temperature", last.property)
	assert.Equal(t, "130", last.value)
}

func TestAllEntityFanOut(t *testing.T) {
	f := newFixture(t, coordinator.Config{
		MixerCount:    3,
		WriteDebounce: 10 * time.Second,
	})

	require.NoError(t, f.coord.SelectFramework("recording"))

	// Default entity is "all": one commit fans out to each sub-entity
	f.coord.ControlCommitted(twin.FeatureMixer, twin.PropRPM, 45.0)

	require.Eventually(t, func() bool { return f.backend.writeCount() == 3 },
		time.Second, 5*time.Millisecond)

	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	features := []string{f.backend.writes[0].feature, f.backend.writes[1].feature, f.backend.writes[2].feature}
	assert.Equal(t, []string{"Mixer1", "Mixer2", "Mixer3"}, features)
}

func TestFrameworkSwitchCleansUpAdapter(t *testing.T) {
	f := newFixture(t, coordinator.Config{})

	require.NoError(t, f.coord.SelectFramework("recording"))
	require.Eventually(t, func() bool { return f.adapter.updateCount() >= 1 },
		time.Second, 5*time.Millisecond)

	second := &recordingAdapter{}
	registryAdapter(t, f, "second", second)

	require.NoError(t, f.coord.SelectFramework("second"))

	f.adapter.mu.Lock()
	cleanups := f.adapter.cleanups
	f.adapter.mu.Unlock()
	assert.Equal(t, 1, cleanups, "previous adapter is cleaned up on switch")

	require.Eventually(t, func() bool { return second.updateCount() >= 1 },
		time.Second, 5*time.Millisecond, "updates flow to the new adapter")

	settled := f.adapter.updateCount()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, settled, f.adapter.updateCount(), "replaced adapter receives no further updates")
}

func TestControlsIgnoredBeforeReady(t *testing.T) {
	f := newFixture(t, coordinator.Config{})

	f.coord.ControlChanging(twin.FeatureMixer, twin.PropRPM, 90.0)
	f.coord.ControlCommitted(twin.FeatureMixer, twin.PropRPM, 90.0)

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, f.backend.writeCount(), "controls are inert while no framework is active")
	assert.Equal(t, coordinator.Idle, f.coord.Status().State)
}

// registryAdapter registers an extra adapter on the fixture's coordinator
func registryAdapter(t *testing.T, f *fixture, id string, adapter renderer.Adapter) {
	t.Helper()
	f.coord.RegisterFramework(id, func() (renderer.Adapter, error) { return adapter, nil })
}
