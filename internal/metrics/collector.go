// Package metrics tracks non-functional signals (frame rate, memory,
// request latency, load time) for comparison across rendering backends.
package metrics

import (
	"os"
	"sync"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
)

const bytesPerMB = 1024 * 1024

// Summary is one completed (or in-progress) collection session, the
// unit exported to CSV and persisted to the session store. All
// aggregates are plain arithmetic means over the rolling windows.
type Summary struct {
	SessionID     string
	Framework     string
	StartedAt     time.Time
	MeanFPS       int
	MeanMemoryMB  int
	LoadTimeMS    int
	MeanLatencyMS int
}

// Collector samples frame time, heap usage, load time and latency into
// bounded rolling windows. Windows reset at the start of each session,
// i.e. on every framework switch.
type Collector struct {
	cfg   Config
	store SessionStore

	mu        sync.Mutex
	sessionID string
	framework string
	startedAt time.Time
	fps       *Window
	memory    *Window
	latency   *Window
	loadTime  float64
	lastFrame time.Time
	memStop   chan struct{}
}

// NewCollector builds a collector backed by the given session store.
// store may be nil when no persistence is wanted.
func NewCollector(cfg Config, store SessionStore) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.MemoryInterval <= 0 {
		cfg.MemoryInterval = DefaultMemoryInterval
	}

	return &Collector{
		cfg:     cfg,
		store:   store,
		fps:     NewWindow(cfg.WindowSize),
		memory:  NewWindow(cfg.WindowSize),
		latency: NewWindow(cfg.WindowSize),
	}, nil
}

// Start resets all rolling windows and begins a new collection session
// for the given framework label. Any previous session is closed first.
func (c *Collector) Start(framework string) {
	c.stopSampler()

	sessionID := uuid.NewString()

	c.mu.Lock()
	c.sessionID = sessionID
	c.framework = framework
	c.startedAt = time.Now()
	c.fps.Reset()
	c.memory.Reset()
	c.latency.Reset()
	c.loadTime = 0
	c.lastFrame = time.Time{}
	stop := make(chan struct{})
	c.memStop = stop
	c.mu.Unlock()

	logger.Debug().Str("framework", framework).Str("session", sessionID).Msg("Metrics session started")

	go c.sampleMemory(stop)
}

// Stop ends the current session and persists its summary
func (c *Collector) Stop() {
	c.stopSampler()

	c.mu.Lock()
	active := c.sessionID != ""
	summary := c.summaryLocked()
	c.sessionID = ""
	c.mu.Unlock()

	if !active {
		return
	}

	if c.store != nil {
		if err := c.store.Record(&summary); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist metrics session")
		}
	}
}

// FrameTick must be called once per rendered frame; frame-time deltas
// feed the fps rolling average
func (c *Collector) FrameTick() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastFrame.IsZero() {
		delta := now.Sub(c.lastFrame).Seconds()
		if delta > 0 {
			c.fps.Add(1 / delta)
		}
	}
	c.lastFrame = now
}

// RecordFPS feeds an fps sample directly, for adapters that already
// track their own frame timing
func (c *Collector) RecordFPS(fps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps.Add(fps)
}

// RecordLoadTime stores the model/framework load duration
func (c *Collector) RecordLoadTime(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadTime = ms
}

// RecordLatency adds one request round-trip sample
func (c *Collector) RecordLatency(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency.Add(ms)
}

// RecordMemory adds one memory sample in MB
func (c *Collector) RecordMemory(mb float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory.Add(mb)
}

// Summary snapshots the current session aggregates
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.summaryLocked()
}

func (c *Collector) summaryLocked() Summary {
	return Summary{
		SessionID:     c.sessionID,
		Framework:     c.framework,
		StartedAt:     c.startedAt,
		MeanFPS:       int(c.fps.Mean() + 0.5),
		MeanMemoryMB:  int(c.memory.Mean() + 0.5),
		LoadTimeMS:    int(c.loadTime + 0.5),
		MeanLatencyMS: int(c.latency.Mean() + 0.5),
	}
}

func (c *Collector) stopSampler() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.memStop != nil {
		close(c.memStop)
		c.memStop = nil
	}
}

// sampleMemory polls process RSS at a fixed wall-clock cadence,
// independent of frame rate. Sampling errors are skipped silently:
// memory introspection is an optional capability.
func (c *Collector) sampleMemory(stop chan struct{}) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Debug().Err(err).Msg("Memory introspection unavailable, skipping samples")
		return
	}

	ticker := time.NewTicker(c.cfg.MemoryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			info, err := proc.MemoryInfo()
			if err != nil {
				continue
			}
			c.RecordMemory(float64(info.RSS) / bytesPerMB)
		}
	}
}
