package twin_test

import (
	"testing"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := []byte(`{
		"thingId": "org.eclipse.ditto:Mixer",
		"features": {
			"Mixer": {"properties": {"Temperature": 120, "RPM": 60}},
			"Alarm": {"properties": {"alarm_status": "ACTIVE"}}
		}
	}`)

	state, err := twin.Decode(raw)
	require.NoError(t, err)

	temp, ok := state.Number(twin.FeatureMixer, twin.PropTemperature)
	require.True(t, ok)
	assert.InDelta(t, 120, temp, 0.001)

	status, ok := state.Text(twin.FeatureAlarm, twin.PropAlarmStatus)
	require.True(t, ok)
	assert.Equal(t, "ACTIVE", status)
}

func TestMissingPathsAreOptional(t *testing.T) {
	state := &twin.State{Features: map[string]twin.Feature{
		"Mixer": {Properties: map[string]any{"Temperature": 42.0}},
	}}

	_, ok := state.Number("Mixer", "RPM")
	assert.False(t, ok, "missing property must report ok=false")

	_, ok = state.Number("Boiler", "Temperature")
	assert.False(t, ok, "missing feature must report ok=false")

	_, ok = state.Text("Mixer", "Temperature")
	assert.False(t, ok, "numeric value must not read as text")

	var nilState *twin.State
	_, ok = nilState.Number("Mixer", "Temperature")
	assert.False(t, ok, "nil state must report ok=false")
}

func TestApplyStateSkipsInteractingControl(t *testing.T) {
	model := twin.NewModelState()
	model.RPM = 90

	state := &twin.State{Features: map[string]twin.Feature{
		twin.FeatureMixer: {Properties: map[string]any{
			twin.PropTemperature: 55.0,
			twin.PropRPM:         10.0,
		}},
	}}

	model.ApplyState(state, func(feature, prop string) bool {
		return feature == twin.FeatureMixer && prop == twin.PropRPM
	})

	assert.InDelta(t, 55, model.Temperature, 0.001, "non-dragged property follows the poll")
	assert.InDelta(t, 90, model.RPM, 0.001, "dragged property must keep the displayed value")
}

func TestApplyStateIgnoresAbsentProperties(t *testing.T) {
	model := twin.NewModelState()
	model.AlarmStatus = "ACKNOWLEDGED"

	state := &twin.State{Features: map[string]twin.Feature{
		twin.FeatureMixer: {Properties: map[string]any{twin.PropRPM: 30.0}},
	}}

	model.ApplyState(state, nil)

	assert.Equal(t, "ACKNOWLEDGED", model.AlarmStatus, "absent property leaves cache untouched")
	assert.InDelta(t, 30, model.RPM, 0.001)
}
