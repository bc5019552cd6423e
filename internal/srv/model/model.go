package model

import "math"

// Reading is a sensor value in physical units, or Invalid when the last read failed
// or no read happened yet.
type Reading float64

// Invalid is the sentinel stored in place of a failed reading.
const Invalid Reading = -99.9

// invalidThreshold is the value at or below which a reading is considered a sentinel.
const invalidThreshold = -99.0

// Valid reports whether r holds a physical value.
func (r Reading) Valid() bool {
	return !math.IsNaN(float64(r)) && float64(r) > invalidThreshold
}

// NewReading converts a raw driver value, mapping NaN and sentinel-range values to Invalid.
func NewReading(v float64) Reading {
	r := Reading(v)
	if !r.Valid() {
		return Invalid
	}
	return r
}

type Readings struct {
	EnclosureTemp     Reading
	EnclosureHumidity Reading
	CoreTemp          Reading
}

// InvalidReadings is the state before the first sensor poll.
func InvalidReadings() Readings {
	return Readings{
		EnclosureTemp:     Invalid,
		EnclosureHumidity: Invalid,
		CoreTemp:          Invalid,
	}
}

type Setpoints struct {
	TargetTemperature float64
	TargetFanPercent  int
}

// AppState is the whole mutable state of the appliance. It is owned by the control loop
// and handed by pointer to each tick.
type AppState struct {
	Setpoints     Setpoints
	HeaterEnabled bool
	Readings      Readings

	// Last actuator outputs
	RelayOn    bool
	FanPercent int
}

const DefaultFanPercent = 50

func NewAppState() AppState {
	return AppState{
		Setpoints: Setpoints{
			TargetTemperature: 0,
			TargetFanPercent:  DefaultFanPercent,
		},
		HeaterEnabled: false,
		Readings:      InvalidReadings(),
	}
}
