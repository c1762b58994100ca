package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

const writeTimeout = 5 * time.Second

// ControlChanging handles a continuous "changing" event from a UI
// control (e.g. every step of a slider drag). It pauses polling
// immediately so a poll cannot overwrite the in-progress value, arms
// the quiescence timer, and schedules a debounced backend write.
func (c *Coordinator) ControlChanging(feature, property string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != FrameworkReady && c.state != UserInteracting {
		return
	}

	control := Control{Feature: feature, Property: property}

	if c.state == FrameworkReady {
		c.state = UserInteracting
		c.poller.Pause()
	}
	c.interacting[control] = true

	c.applyLocalLocked(feature, property, value)
	c.armQuiescenceLocked()
	c.armDebounceLocked(control, value)
}

// ControlCommitted handles the discrete "committed" event (drag
// release, select change). The final value is written immediately and
// unconditionally, bypassing the debounce, so the backend converges to
// the last user-chosen value even if intermediate writes were dropped.
func (c *Coordinator) ControlCommitted(feature, property string, value any) {
	c.mu.Lock()

	if c.state != FrameworkReady && c.state != UserInteracting {
		c.mu.Unlock()
		return
	}

	control := Control{Feature: feature, Property: property}

	if c.state == FrameworkReady {
		c.state = UserInteracting
		c.poller.Pause()
	}
	c.interacting[control] = true

	if timer, ok := c.debounce[control]; ok {
		timer.Stop()
		delete(c.debounce, control)
	}

	c.applyLocalLocked(feature, property, value)
	c.armQuiescenceLocked()
	targets := c.writeTargetsLocked(control)
	c.mu.Unlock()

	c.write(targets, property, value)
}

// armQuiescenceLocked restarts the interaction quiescence timer; each
// new input event cancels and restarts it (debounce-reset semantics)
func (c *Coordinator) armQuiescenceLocked() {
	session := c.session

	if c.quiescence != nil {
		c.quiescence.Stop()
	}
	c.quiescence = time.AfterFunc(c.cfg.QuiescenceDelay, func() {
		c.quiescenceExpired(session)
	})
}

// quiescenceExpired ends the interaction window: back to FrameworkReady
// and polling resumes with an immediate refresh
func (c *Coordinator) quiescenceExpired(session uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session != c.session || c.state != UserInteracting {
		return
	}

	for control := range c.interacting {
		delete(c.interacting, control)
	}
	c.quiescence = nil
	c.state = FrameworkReady

	logger.Debug().Msg("Interaction quiesced, resuming polling")

	c.poller.Resume()
}

// armDebounceLocked (re)schedules the debounced write for one control.
// The debounce window is much shorter than the quiescence window: it
// batches a burst of slider steps into one backend write.
func (c *Coordinator) armDebounceLocked(control Control, value any) {
	session := c.session

	if timer, ok := c.debounce[control]; ok {
		timer.Stop()
	}
	c.debounce[control] = time.AfterFunc(c.cfg.WriteDebounce, func() {
		c.debouncedWrite(session, control, value)
	})
}

func (c *Coordinator) debouncedWrite(session uint64, control Control, value any) {
	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		return
	}
	delete(c.debounce, control)
	targets := c.writeTargetsLocked(control)
	c.mu.Unlock()

	c.write(targets, control.Property, value)
}

// writeTargetsLocked resolves the feature(s) a control write goes to.
// With no specific mixer selected, mixer writes fan out to every
// sub-entity of the current scene.
func (c *Coordinator) writeTargetsLocked(control Control) []string {
	if control.Feature != twin.FeatureMixer || c.entity != EntityAll {
		return []string{control.Feature}
	}

	count := c.manifest.MixerCount(c.modelID, c.cfg.MixerCount)
	targets := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		targets = append(targets, fmt.Sprintf("%s%d", twin.FeatureMixer, i))
	}

	return targets
}

// write performs the backend write(s). Failures are logged and the UI
// is not rolled back (optimistic); there is no retry.
func (c *Coordinator) write(targets []string, property string, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	for _, target := range targets {
		if err := c.client.WriteProperty(ctx, target, property, value); err != nil {
			logger.Warn().
				Err(err).
				Str("feature", target).
				Str("property", property).
				Msg("Property write failed")
		}
	}
}

// applyLocalLocked reflects a control value in the local model cache so
// the UI shows the dragged value immediately
func (c *Coordinator) applyLocalLocked(feature, property string, value any) {
	number := func() (float64, bool) {
		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		default:
			return 0, false
		}
	}

	switch {
	case feature == twin.FeatureMixer && property == twin.PropTemperature:
		if v, ok := number(); ok {
			c.model.Temperature = v
		}
	case feature == twin.FeatureMixer && property == twin.PropRPM:
		if v, ok := number(); ok {
			c.model.RPM = v
		}
	case feature == twin.FeatureAlarm && property == twin.PropAlarmStatus:
		if v, ok := value.(string); ok {
			c.model.AlarmStatus = v
		}
	case feature == twin.FeatureFlow && property == twin.PropFlowRate:
		if v, ok := number(); ok {
			c.model.FlowRate = v
		}
	default:
		if c.model.Extra == nil {
			c.model.Extra = map[string]any{}
		}
		c.model.Extra[feature+"/"+property] = value
	}
}
