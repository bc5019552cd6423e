package menu

import (
	"fmt"
	"math"

	"github.com/jypelle/heatbox/internal/srv/model"
)

type Kind int

const (
	// Display items only show a value
	Display Kind = iota
	// Numeric items enter edit mode on press
	Numeric
	// Toggle items flip a boolean on press and never enter edit mode
	Toggle
)

// Field describes an editable numeric value and its declared bounds.
type Field struct {
	Step float64
	Min  float64
	Max  float64
	Get  func(s *model.AppState) float64
	Set  func(s *model.AppState, v float64)
}

// Clamp snaps v to the step grid and saturates it at the declared bounds.
func (f *Field) Clamp(v float64) float64 {
	if f.Step > 0 {
		v = f.Min + math.Round((v-f.Min)/f.Step)*f.Step
	}
	if v < f.Min {
		return f.Min
	}
	if v > f.Max {
		return f.Max
	}
	return v
}

type Item struct {
	Label  string
	Kind   Kind
	Field  *Field
	Flip   func(s *model.AppState)
	Format func(s *model.AppState) string
}

func (it Item) Editable() bool {
	return it.Kind != Display
}

// Text renders the value part of the item.
func (it Item) Text(s *model.AppState) string {
	if it.Format == nil {
		return ""
	}
	return it.Format(s)
}

type Limits struct {
	MaxTemperature  float64
	TemperatureStep float64
	FanStep         int
}

func DefaultLimits() Limits {
	return Limits{
		MaxTemperature:  50,
		TemperatureStep: 1,
		FanStep:         5,
	}
}

// Line indexes of the items built by Items.
const (
	LineEnclosureTemp = iota
	LineHeater
	LineTargetTemp
	LineFanSpeed
	LineHumidity
	LineCoreTemp
)

// Items returns the fixed, ordered menu of the appliance.
func Items(l Limits) []Item {
	return []Item{
		LineEnclosureTemp: {
			Label: "Env Temp:",
			Kind:  Display,
			Format: func(s *model.AppState) string {
				return FormatTemperature(s.Readings.EnclosureTemp)
			},
		},
		LineHeater: {
			Label: "Heater:",
			Kind:  Toggle,
			Flip: func(s *model.AppState) {
				s.HeaterEnabled = !s.HeaterEnabled
			},
			Format: func(s *model.AppState) string {
				if s.HeaterEnabled {
					return "ON"
				}
				return "OFF"
			},
		},
		LineTargetTemp: {
			Label: "Set Temp:",
			Kind:  Numeric,
			Field: &Field{
				Step: l.TemperatureStep,
				Min:  0,
				Max:  l.MaxTemperature,
				Get: func(s *model.AppState) float64 {
					return s.Setpoints.TargetTemperature
				},
				Set: func(s *model.AppState, v float64) {
					s.Setpoints.TargetTemperature = v
				},
			},
			Format: func(s *model.AppState) string {
				return fmt.Sprintf("%.1fC", s.Setpoints.TargetTemperature)
			},
		},
		LineFanSpeed: {
			Label: "Set Fan:",
			Kind:  Numeric,
			Field: &Field{
				Step: float64(l.FanStep),
				Min:  0,
				Max:  100,
				Get: func(s *model.AppState) float64 {
					return float64(s.Setpoints.TargetFanPercent)
				},
				Set: func(s *model.AppState, v float64) {
					s.Setpoints.TargetFanPercent = int(math.Round(v))
				},
			},
			Format: func(s *model.AppState) string {
				return fmt.Sprintf("%d%%", s.Setpoints.TargetFanPercent)
			},
		},
		LineHumidity: {
			Label: "Env Humi:",
			Kind:  Display,
			Format: func(s *model.AppState) string {
				return FormatHumidity(s.Readings.EnclosureHumidity)
			},
		},
		LineCoreTemp: {
			Label: "Core Temp:",
			Kind:  Display,
			Format: func(s *model.AppState) string {
				return FormatTemperature(s.Readings.CoreTemp)
			},
		},
	}
}

// Placeholder is shown instead of an invalid reading.
const Placeholder = "--.-"

func FormatTemperature(r model.Reading) string {
	if !r.Valid() {
		return Placeholder + "C"
	}
	return fmt.Sprintf("%.1fC", float64(r))
}

func FormatHumidity(r model.Reading) string {
	if !r.Valid() {
		return Placeholder + "%"
	}
	return fmt.Sprintf("%.0f%%", float64(r))
}
