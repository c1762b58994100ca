// Package mapper translates twin property values into visual parameters.
// Every function is pure and total: no state, no side effects, no errors.
// All rendering adapters consume these identically.
package mapper

import "math"

// Color values shared by all rendering backends (CSS hex)
const (
	ColorCool    = "#3366ff"
	ColorWarm    = "#ff9933"
	ColorHot     = "#ff3300"
	ColorNormal  = "#33cc33"
	ColorAlert   = "#ff0000"
	ColorAcked   = "#ffcc00"
	ColorUnknown = "#999999"
	ColorFlowLow = "#66ccff"
	ColorFlowHi  = "#0033cc"
)

// Alarm status values recognized by the mixer twin
const (
	AlarmNormal       = "NORMAL"
	AlarmActive       = "ACTIVE"
	AlarmAcknowledged = "ACKNOWLEDGED"
)

// Temperature banding thresholds (degrees)
const (
	warmThreshold     = 50
	hotThreshold      = 100
	emissiveThreshold = 150
	intensityScale    = 200
)

// Flow cutoff separating low and high flow coloring
const flowCutoff = 50

// TemperatureVisual describes how a temperature value renders
type TemperatureVisual struct {
	Color     string
	Intensity float64
	Emissive  bool
}

// RPMVisual describes how a rotation speed renders
type RPMVisual struct {
	RotationRate float64 // radians per second
	Intensity    float64
}

// AlarmVisual describes how an alarm status renders
type AlarmVisual struct {
	Color string
	Blink bool
}

// FlowVisual describes how a flow rate renders
type FlowVisual struct {
	Speed float64
	Color string
}

// Temperature maps a temperature to color banding, a normalized
// intensity and an emissive flag
func Temperature(temp float64) TemperatureVisual {
	visual := TemperatureVisual{
		Intensity: math.Min(1, temp/intensityScale),
		Emissive:  temp > emissiveThreshold,
	}

	switch {
	case temp < warmThreshold:
		visual.Color = ColorCool
	case temp < hotThreshold:
		visual.Color = ColorWarm
	default:
		visual.Color = ColorHot
	}

	return visual
}

// RPM maps a rotation speed to a rotation rate in radians per second
// and a normalized intensity
func RPM(rpm float64) RPMVisual {
	return RPMVisual{
		RotationRate: rpm / 60 * 2 * math.Pi,
		Intensity:    clamp01(rpm / 120),
	}
}

// Alarm maps an alarm status to a color and blink flag. Unrecognized
// values map to a distinct unknown color rather than erroring.
func Alarm(status string) AlarmVisual {
	switch status {
	case AlarmNormal:
		return AlarmVisual{Color: ColorNormal, Blink: false}
	case AlarmActive:
		return AlarmVisual{Color: ColorAlert, Blink: true}
	case AlarmAcknowledged:
		return AlarmVisual{Color: ColorAcked, Blink: true}
	default:
		return AlarmVisual{Color: ColorUnknown, Blink: false}
	}
}

// FlowRate maps a flow rate to a normalized flow speed and a binary
// above/below-cutoff color
func FlowRate(rate float64) FlowVisual {
	visual := FlowVisual{
		Speed: clamp01(rate / 100),
		Color: ColorFlowLow,
	}

	if rate >= flowCutoff {
		visual.Color = ColorFlowHi
	}

	return visual
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}

	return value
}
