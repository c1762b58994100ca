package ditto

import (
	"context"
	"sync"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

// UpdateFunc receives each successfully fetched twin state
type UpdateFunc func(*twin.State)

// Poller drives a single recurring fetch against one client. Only one
// polling timer is ever active per Poller; Start cancels any prior one.
// Each fetch is stamped with a generation number so that a result still
// in flight across a Pause, Resume or Start is dropped instead of being
// applied to a state that has moved on.
type Poller struct {
	client   *Client
	interval time.Duration

	mu         sync.Mutex
	onUpdate   UpdateFunc
	stop       chan struct{}
	paused     bool
	generation uint64
}

func NewPoller(client *Client, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
	}
}

// Start begins polling and forwards non-nil results to onUpdate. A
// previously running timer is cancelled first; there is no overlap and
// no queuing.
func (p *Poller) Start(onUpdate UpdateFunc) {
	p.mu.Lock()
	p.cancelLocked()
	p.onUpdate = onUpdate
	p.paused = false
	p.generation++
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	logger.Debug().Dur("interval", p.interval).Msg("Polling started")

	go p.loop(stop)
}

// Stop cancels the next scheduled tick. An in-flight fetch is not
// aborted; its result is discarded by the generation check.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancelLocked()
	p.onUpdate = nil
	p.generation++
}

// Pause keeps the timer running but suppresses fetching and dispatch
func (p *Poller) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return
	}

	p.paused = true
	p.generation++
	logger.Debug().Msg("Polling paused")
}

// Resume lifts a pause and triggers one immediate out-of-band fetch so
// the UI reflects the latest state without waiting for the next tick
func (p *Poller) Resume() {
	p.mu.Lock()
	if !p.paused || p.stop == nil {
		p.mu.Unlock()
		return
	}

	p.paused = false
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	logger.Debug().Msg("Polling resumed")

	go p.fetchAndDispatch(gen)
}

// Running reports whether a polling timer is active (paused or not)
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stop != nil
}

func (p *Poller) cancelLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *Poller) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Poller) tick() {
	p.mu.Lock()
	if p.paused || p.stop == nil {
		p.mu.Unlock()
		return
	}
	gen := p.generation
	p.mu.Unlock()

	p.fetchAndDispatch(gen)
}

func (p *Poller) fetchAndDispatch(gen uint64) {
	state := p.client.FetchState(context.Background())
	if state == nil {
		// Transient failure: no update this cycle, polling continues
		return
	}

	p.mu.Lock()
	stale := gen != p.generation || p.paused || p.onUpdate == nil
	onUpdate := p.onUpdate
	p.mu.Unlock()

	if stale {
		logger.Debug().Uint64("generation", gen).Msg("Dropping stale poll result")
		return
	}

	onUpdate(state)
}
