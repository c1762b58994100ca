package dashboard

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/mapper"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/renderer"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

// VisualFrame is one update pushed to browser clients: the cached model
// values plus their mapped visual parameters
type VisualFrame struct {
	ModelID     string         `json:"modelId"`
	Temperature float64        `json:"temperature"`
	RPM         float64        `json:"rpm"`
	AlarmStatus string         `json:"alarmStatus"`
	FlowRate    float64        `json:"flowRate"`
	Visuals     map[string]any `json:"visuals"`
}

// Hub fans VisualFrames out to subscribed SSE clients
type Hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
	last []byte
}

func NewHub() *Hub {
	return &Hub{subs: map[chan []byte]struct{}{}}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 8)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	last := h.last
	h.mu.Unlock()

	if last != nil {
		ch <- last
	}

	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, ch)
}

// Publish sends one frame to every subscriber; slow clients drop frames
// instead of blocking the render path
func (h *Hub) Publish(frame *VisualFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = data
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
		}
	}
}

// WebAdapter is the rendering adapter whose backend is the browser: it
// maps twin properties to visual parameters and pushes them over SSE.
// The actual drawing happens client-side in whatever engine the page
// embeds.
type WebAdapter struct {
	hub    *Hub
	frames renderer.FrameRecorder

	mu      sync.Mutex
	model   *twin.ModelState
	modelID string
}

func NewWebAdapter(hub *Hub, frames renderer.FrameRecorder) *WebAdapter {
	return &WebAdapter{
		hub:    hub,
		frames: frames,
		model:  twin.NewModelState(),
	}
}

func (a *WebAdapter) Label() string {
	return "web"
}

func (a *WebAdapter) Initialize(_ context.Context, opts renderer.Options) error {
	a.mu.Lock()
	a.modelID = opts.ModelID
	a.mu.Unlock()

	a.push()

	if opts.OnReady != nil {
		opts.OnReady()
	}

	return nil
}

func (a *WebAdapter) UpdateFromTwin(state *twin.State) {
	a.mu.Lock()
	a.model.ApplyState(state, nil)
	a.mu.Unlock()

	a.push()
}

// ChangeModel implements the ModelChanger capability
func (a *WebAdapter) ChangeModel(modelID string) error {
	a.mu.Lock()
	a.modelID = modelID
	a.mu.Unlock()

	a.push()

	return nil
}

func (a *WebAdapter) push() {
	a.mu.Lock()
	frame := &VisualFrame{
		ModelID:     a.modelID,
		Temperature: a.model.Temperature,
		RPM:         a.model.RPM,
		AlarmStatus: a.model.AlarmStatus,
		FlowRate:    a.model.FlowRate,
		Visuals: map[string]any{
			"temperature": mapper.Temperature(a.model.Temperature),
			"rpm":         mapper.RPM(a.model.RPM),
			"alarm":       mapper.Alarm(a.model.AlarmStatus),
			"flow":        mapper.FlowRate(a.model.FlowRate),
		},
	}
	a.mu.Unlock()

	if a.frames != nil {
		a.frames.FrameTick()
	}

	a.hub.Publish(frame)
}
