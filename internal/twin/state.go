// Package twin models the state of a digital twin as reported by the
// backend: a nested mapping of feature name to property name to value.
// No schema is enforced; consumers check optional paths defensively.
package twin

import "encoding/json"

// Well-known features and properties of the mixer demo twin
const (
	FeatureMixer = "Mixer"
	FeatureAlarm = "Alarm"
	FeatureFlow  = "Flow"

	PropTemperature = "Temperature"
	PropRPM         = "RPM"
	PropAlarmStatus = "alarm_status"
	PropFlowRate    = "flow_rate"
)

// State is the twin state returned by one poll. It is request-scoped:
// fetched fresh each cycle, never diffed or persisted locally.
type State struct {
	ThingID  string             `json:"thingId,omitempty"`
	Features map[string]Feature `json:"features"`
}

// Feature is a named group of related properties within a twin
type Feature struct {
	Properties map[string]any `json:"properties"`
}

// Decode parses a raw thing document into a State
func Decode(data []byte) (*State, error) {
	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Number returns the numeric value at features[feature].properties[prop].
// Missing paths and non-numeric values report ok=false, never panic.
func (s *State) Number(feature, prop string) (float64, bool) {
	value, ok := s.lookup(feature, prop)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Text returns the string value at features[feature].properties[prop]
func (s *State) Text(feature, prop string) (string, bool) {
	value, ok := s.lookup(feature, prop)
	if !ok {
		return "", false
	}

	str, ok := value.(string)

	return str, ok
}

func (s *State) lookup(feature, prop string) (any, bool) {
	if s == nil || s.Features == nil {
		return nil, false
	}

	f, ok := s.Features[feature]
	if !ok || f.Properties == nil {
		return nil, false
	}

	value, ok := f.Properties[prop]

	return value, ok
}

// Seed returns the initial thing document used to bootstrap a missing twin
func Seed(thingID string) *State {
	return &State{
		ThingID: thingID,
		Features: map[string]Feature{
			FeatureMixer: {Properties: map[string]any{
				PropTemperature: 100,
				PropRPM:         60,
			}},
			FeatureAlarm: {Properties: map[string]any{
				PropAlarmStatus: "NORMAL",
			}},
		},
	}
}

// ModelState caches the last-known values per controlled property for one
// adapter instance. Polls overwrite it wholesale unless the corresponding
// control is being dragged.
type ModelState struct {
	Temperature float64
	RPM         float64
	AlarmStatus string
	FlowRate    float64

	// Factory-specific extensions keyed by "feature/property"
	Extra map[string]any
}

// NewModelState returns a ModelState with demo defaults matching Seed
func NewModelState() *ModelState {
	return &ModelState{
		Temperature: 100,
		RPM:         60,
		AlarmStatus: "NORMAL",
		Extra:       map[string]any{},
	}
}

// ApplyState overwrites cached values from a fetched state. skip filters
// out properties that are under active user interaction; a nil skip
// applies everything present in the state.
func (m *ModelState) ApplyState(state *State, skip func(feature, prop string) bool) {
	blocked := func(feature, prop string) bool {
		return skip != nil && skip(feature, prop)
	}

	if v, ok := state.Number(FeatureMixer, PropTemperature); ok && !blocked(FeatureMixer, PropTemperature) {
		m.Temperature = v
	}
	if v, ok := state.Number(FeatureMixer, PropRPM); ok && !blocked(FeatureMixer, PropRPM) {
		m.RPM = v
	}
	if v, ok := state.Text(FeatureAlarm, PropAlarmStatus); ok && !blocked(FeatureAlarm, PropAlarmStatus) {
		m.AlarmStatus = v
	}
	if v, ok := state.Number(FeatureFlow, PropFlowRate); ok && !blocked(FeatureFlow, PropFlowRate) {
		m.FlowRate = v
	}
}
