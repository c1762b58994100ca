package mapper_test

import (
	"math"
	"testing"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/mapper"
	"github.com/stretchr/testify/assert"
)

func TestTemperatureBanding(t *testing.T) {
	tests := []struct {
		name  string
		temp  float64
		color string
	}{
		{"well below warm", 0, mapper.ColorCool},
		{"just below warm", 49.9, mapper.ColorCool},
		{"warm boundary", 50, mapper.ColorWarm},
		{"upper warm", 99.9, mapper.ColorWarm},
		{"hot boundary", 100, mapper.ColorHot},
		{"very hot", 300, mapper.ColorHot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.color, mapper.Temperature(tt.temp).Color)
		})
	}
}

func TestTemperatureIntensityAndEmissive(t *testing.T) {
	assert.InDelta(t, 0.25, mapper.Temperature(50).Intensity, 0.001)
	assert.InDelta(t, 1.0, mapper.Temperature(400).Intensity, 0.001, "intensity capped at 1")

	assert.False(t, mapper.Temperature(150).Emissive, "emissive strictly above 150")
	assert.True(t, mapper.Temperature(150.1).Emissive)
}

func TestMixerScenario(t *testing.T) {
	// Backend reports Mixer Temperature 120
	visual := mapper.Temperature(120)

	assert.Equal(t, mapper.ColorHot, visual.Color)
	assert.InDelta(t, 0.6, visual.Intensity, 0.001)
	assert.False(t, visual.Emissive)
}

func TestRPMRotationRate(t *testing.T) {
	assert.InDelta(t, 2*math.Pi, mapper.RPM(60).RotationRate, 0.0001, "60 rpm is one revolution per second")
	assert.InDelta(t, math.Pi, mapper.RPM(30).RotationRate, 0.0001)
	assert.Zero(t, mapper.RPM(0).RotationRate)
}

func TestRPMMonotonic(t *testing.T) {
	prev := -1.0
	for rpm := 0.0; rpm <= 240; rpm += 7.5 {
		rate := mapper.RPM(rpm).RotationRate
		assert.Greater(t, rate, prev, "rotation rate must increase with rpm")
		prev = rate
	}
}

func TestRPMIntensity(t *testing.T) {
	assert.InDelta(t, 0.5, mapper.RPM(60).Intensity, 0.001)
	assert.InDelta(t, 1.0, mapper.RPM(240).Intensity, 0.001, "intensity clamped at 1")
}

func TestAlarmIsTotal(t *testing.T) {
	tests := []struct {
		status string
		color  string
		blink  bool
	}{
		{mapper.AlarmNormal, mapper.ColorNormal, false},
		{mapper.AlarmActive, mapper.ColorAlert, true},
		{mapper.AlarmAcknowledged, mapper.ColorAcked, true},
		{"SOMETHING_ELSE", mapper.ColorUnknown, false},
		{"", mapper.ColorUnknown, false},
	}

	for _, tt := range tests {
		visual := mapper.Alarm(tt.status)
		assert.Equal(t, tt.color, visual.Color, "status %q", tt.status)
		assert.Equal(t, tt.blink, visual.Blink, "status %q", tt.status)
	}
}

func TestFlowRateCutoff(t *testing.T) {
	assert.Equal(t, mapper.ColorFlowLow, mapper.FlowRate(10).Color)
	assert.Equal(t, mapper.ColorFlowHi, mapper.FlowRate(50).Color)
	assert.Equal(t, mapper.ColorFlowHi, mapper.FlowRate(90).Color)

	assert.InDelta(t, 0.1, mapper.FlowRate(10).Speed, 0.001)
	assert.InDelta(t, 1.0, mapper.FlowRate(250).Speed, 0.001, "speed clamped at 1")
	assert.Zero(t, mapper.FlowRate(-5).Speed, "negative flow clamps to zero")
}
