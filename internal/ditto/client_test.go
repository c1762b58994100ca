package ditto_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/ditto"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type latencySink struct {
	mu      sync.Mutex
	samples []float64
}

func (s *latencySink) RecordLatency(ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, ms)
}

func (s *latencySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func newClient(t *testing.T, baseURL string, latency ditto.LatencyRecorder) *ditto.Client {
	t.Helper()

	client, err := ditto.NewClient(ditto.Config{
		BaseURL:  baseURL,
		ThingID:  "org.eclipse.ditto:Mixer",
		Username: "ditto",
		Password: "ditto",
	}, latency)
	require.NoError(t, err)

	return client
}

func TestFetchState(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		sawAuth = ok && user == "ditto" && pass == "ditto"

		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/2/things/org.eclipse.ditto:Mixer", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"features": map[string]any{
				"Mixer": map[string]any{"properties": map[string]any{"Temperature": 120}},
			},
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL, nil)

	state := client.FetchState(context.Background())
	require.NotNil(t, state)
	assert.True(t, sawAuth, "request must carry basic auth")

	temp, ok := state.Number(twin.FeatureMixer, twin.PropTemperature)
	require.True(t, ok)
	assert.InDelta(t, 120, temp, 0.001)
}

func TestFetchStateSwallowsErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)
		assert.Nil(t, client.FetchState(context.Background()))
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := newClient(t, server.URL, nil)
		assert.Nil(t, client.FetchState(context.Background()))
	})

	t.Run("unreachable backend", func(t *testing.T) {
		client := newClient(t, "http://127.0.0.1:1", nil)
		assert.Nil(t, client.FetchState(context.Background()))
	})
}

func TestWriteProperty(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/2/things/org.eclipse.ditto:Mixer/features/Mixer/properties/RPM", r.URL.Path)

		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := &latencySink{}
	client := newClient(t, server.URL, sink)

	err := client.WriteProperty(context.Background(), twin.FeatureMixer, twin.PropRPM, 90)
	require.NoError(t, err)
	assert.Equal(t, "90", gotBody)
	assert.Equal(t, 1, sink.count(), "write must report one latency sample")
}

func TestWritePropertyRequires204(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newClient(t, server.URL, nil)

	err := client.WriteProperty(context.Background(), twin.FeatureMixer, twin.PropRPM, 90)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "200")
}

func TestEnsureThingCreatesMissing(t *testing.T) {
	var created bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			created = true
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL, nil)

	err := client.EnsureThing(context.Background(), twin.Seed("org.eclipse.ditto:Mixer"))
	require.NoError(t, err)
	assert.True(t, created, "missing thing must be created")
}

func TestEnsureThingExisting(t *testing.T) {
	var puts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newClient(t, server.URL, nil)

	err := client.EnsureThing(context.Background(), twin.Seed("org.eclipse.ditto:Mixer"))
	require.NoError(t, err)
	assert.Zero(t, puts, "existing thing must not be recreated")
}
