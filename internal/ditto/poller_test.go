package ditto_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/ditto"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twinServer serves a fixed twin state and counts GET requests
func twinServer(t *testing.T, failures *atomic.Int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		fetches.Add(1)
		if failures != nil && failures.Load() > 0 {
			failures.Add(-1)
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"features": map[string]any{
				"Mixer": map[string]any{"properties": map[string]any{"Temperature": 42, "RPM": 60}},
			},
		})
	}))
	t.Cleanup(server.Close)

	return server, &fetches
}

func TestPollerDeliversUpdates(t *testing.T) {
	server, _ := twinServer(t, nil)
	client := newClient(t, server.URL, nil)

	poller := ditto.NewPoller(client, 20*time.Millisecond)

	var updates atomic.Int32
	poller.Start(func(state *twin.State) {
		temp, ok := state.Number(twin.FeatureMixer, twin.PropTemperature)
		assert.True(t, ok)
		assert.InDelta(t, 42, temp, 0.001)
		updates.Add(1)
	})
	defer poller.Stop()

	assert.Eventually(t, func() bool { return updates.Load() >= 3 },
		time.Second, 5*time.Millisecond, "expected repeated poll updates")
}

func TestPollerSurvivesFetchFailures(t *testing.T) {
	var failures atomic.Int32
	failures.Store(2)

	server, fetches := twinServer(t, &failures)
	client := newClient(t, server.URL, nil)

	poller := ditto.NewPoller(client, 20*time.Millisecond)

	var updates atomic.Int32
	poller.Start(func(*twin.State) { updates.Add(1) })
	defer poller.Stop()

	// Two consecutive failures must not stop the schedule; updates
	// arrive once the backend recovers
	assert.Eventually(t, func() bool { return updates.Load() >= 1 },
		time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, fetches.Load(), int32(3), "fetches continue through failures")
}

func TestPollerPauseSuppressesDispatch(t *testing.T) {
	server, fetches := twinServer(t, nil)
	client := newClient(t, server.URL, nil)

	poller := ditto.NewPoller(client, 20*time.Millisecond)

	var updates atomic.Int32
	poller.Start(func(*twin.State) { updates.Add(1) })
	defer poller.Stop()

	assert.Eventually(t, func() bool { return updates.Load() >= 1 }, time.Second, 5*time.Millisecond)

	poller.Pause()
	time.Sleep(30 * time.Millisecond) // let any in-flight dispatch settle
	seen := updates.Load()
	fetched := fetches.Load()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, seen, updates.Load(), "no updates while paused")
	assert.Equal(t, fetched, fetches.Load(), "no fetches while paused")
}

func TestResumeTriggersImmediateFetch(t *testing.T) {
	server, fetches := twinServer(t, nil)
	client := newClient(t, server.URL, nil)

	// Long interval: any fetch shortly after Resume must be the
	// out-of-band one, not a regular tick
	poller := ditto.NewPoller(client, time.Hour)

	var mu sync.Mutex
	var updates int
	poller.Start(func(*twin.State) {
		mu.Lock()
		updates++
		mu.Unlock()
	})
	defer poller.Stop()

	poller.Pause()
	before := fetches.Load()

	poller.Resume()

	require.Eventually(t, func() bool { return fetches.Load() == before+1 },
		time.Second, 5*time.Millisecond, "resume must trigger exactly one immediate fetch")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before+1, fetches.Load(), "no extra fetch beyond the immediate one")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, updates, "the immediate fetch is dispatched")
}

func TestStopDiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		json.NewEncoder(w).Encode(map[string]any{"features": map[string]any{}})
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client := newClient(t, server.URL, nil)
	poller := ditto.NewPoller(client, 20*time.Millisecond)

	var updates atomic.Int32
	poller.Start(func(*twin.State) { updates.Add(1) })

	// Wait for a fetch to be in flight, then stop and release it
	time.Sleep(50 * time.Millisecond)
	poller.Stop()
	release <- struct{}{}

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, updates.Load(), "result of a fetch outliving Stop must be discarded")
}

func TestStartCancelsPriorTimer(t *testing.T) {
	server, _ := twinServer(t, nil)
	client := newClient(t, server.URL, nil)

	poller := ditto.NewPoller(client, 20*time.Millisecond)

	var first, second atomic.Int32
	poller.Start(func(*twin.State) { first.Add(1) })
	assert.Eventually(t, func() bool { return first.Load() >= 1 }, time.Second, 5*time.Millisecond)

	poller.Start(func(*twin.State) { second.Add(1) })
	defer poller.Stop()

	assert.Eventually(t, func() bool { return second.Load() >= 2 }, time.Second, 5*time.Millisecond)

	settled := first.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, first.Load(), "old callback must not fire after restart")
}
