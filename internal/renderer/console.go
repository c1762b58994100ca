package renderer

import (
	"context"
	"sync"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/mapper"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

const defaultFrameInterval = 33 * time.Millisecond

// Console renders twin state as structured log lines. It is the
// in-process reference backend: same lifecycle contract as the browser
// engines, useful headless and in tests.
type Console struct {
	frames   FrameRecorder
	interval time.Duration

	mu       sync.Mutex
	model    *twin.ModelState
	modelID  string
	rotation float64
	stop     chan struct{}
}

// NewConsole builds the console adapter. frames may be nil when no
// metrics collection is attached.
func NewConsole(frames FrameRecorder) *Console {
	return &Console{
		frames:   frames,
		interval: defaultFrameInterval,
		model:    twin.NewModelState(),
	}
}

func (c *Console) Label() string {
	return "console"
}

func (c *Console) Initialize(_ context.Context, opts Options) error {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	stop := make(chan struct{})
	c.stop = stop
	c.modelID = opts.ModelID
	c.rotation = 0
	c.mu.Unlock()

	go c.renderLoop(stop)

	logger.Info().Str("model", opts.ModelID).Str("container", opts.Container).Msg("Console renderer attached")

	if opts.OnReady != nil {
		opts.OnReady()
	}

	return nil
}

func (c *Console) UpdateFromTwin(state *twin.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.model.ApplyState(state, nil)
}

// ChangeModel implements the ModelChanger capability
func (c *Console) ChangeModel(modelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.modelID = modelID
	c.rotation = 0

	logger.Info().Str("model", modelID).Msg("Console renderer switched model")

	return nil
}

// Cleanup implements the Cleaner capability
func (c *Console) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Model snapshots the adapter's cached state
func (c *Console) Model() twin.ModelState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return *c.model
}

func (c *Console) renderLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.renderFrame(now.Sub(last).Seconds())
			last = now
		}
	}
}

func (c *Console) renderFrame(dt float64) {
	c.mu.Lock()
	temp := mapper.Temperature(c.model.Temperature)
	rpm := mapper.RPM(c.model.RPM)
	alarm := mapper.Alarm(c.model.AlarmStatus)
	c.rotation += rpm.RotationRate * dt
	rotation := c.rotation
	c.mu.Unlock()

	if c.frames != nil {
		c.frames.FrameTick()
	}

	logger.Debug().
		Str("color", temp.Color).
		Float64("intensity", temp.Intensity).
		Bool("emissive", temp.Emissive).
		Float64("rotation", rotation).
		Str("alarm_color", alarm.Color).
		Bool("blink", alarm.Blink).
		Msg("frame")
}
