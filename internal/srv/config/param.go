package config

import (
	_ "embed"
	"time"

	"github.com/jypelle/heatbox/internal/srv/encoder"
	"github.com/jypelle/heatbox/internal/srv/menu"
	"github.com/jypelle/heatbox/internal/srv/sensor"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	LoopPeriodMs int64          `yaml:"loop_period_ms"`
	Knob         KnobParam      `yaml:"knob"`
	Sensors      SensorsParam   `yaml:"sensors"`
	Actuators    ActuatorsParam `yaml:"actuators"`
	Menu         MenuParam      `yaml:"menu"`
	Display      DisplayParam   `yaml:"display"`
	ApiParam     ApiParam       `yaml:"api"`
	Telemetry    TelemetryParam `yaml:"telemetry"`
	Mdns         MdnsParam      `yaml:"mdns"`
}

type KnobParam struct {
	PinA           string `yaml:"pin_a"`
	PinB           string `yaml:"pin_b"`
	PinButton      string `yaml:"pin_button"`
	StepsPerDetent int    `yaml:"steps_per_detent"`
	Reverse        bool   `yaml:"reverse"`
	DebounceMs     int64  `yaml:"debounce_ms"`
}

type SensorsParam struct {
	AmbientI2cAddress  uint16 `yaml:"ambient_i2c_address"`
	CoreOnewireAddress uint64 `yaml:"core_onewire_address"`
	IntervalMs         int64  `yaml:"interval_ms"`
	CoreSamples        int    `yaml:"core_samples"`
}

type ActuatorsParam struct {
	RelayPin          string `yaml:"relay_pin"`
	RelayActiveLow    bool   `yaml:"relay_active_low"`
	FanPin            string `yaml:"fan_pin"`
	FanPwmFrequencyHz int64  `yaml:"fan_pwm_frequency_hz"`
}

type MenuParam struct {
	MaxTemperature  float64 `yaml:"max_temperature"`
	TemperatureStep float64 `yaml:"temperature_step"`
	FanStep         int     `yaml:"fan_step"`
	BrowseWrap      bool    `yaml:"browse_wrap"`
}

type DisplayParam struct {
	Pitch int `yaml:"pitch"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

type TelemetryParam struct {
	Enabled    bool   `yaml:"enabled"`
	Broker     string `yaml:"broker"`
	ClientId   string `yaml:"client_id"`
	Topic      string `yaml:"topic"`
	IntervalMs int64  `yaml:"interval_ms"`
}

type MdnsParam struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
}

// fillDefaults replaces zero values left by a partial param file.
func (p *ServerParam) fillDefaults() {
	if p.LoopPeriodMs <= 0 {
		p.LoopPeriodMs = 20
	}
	if p.Knob.StepsPerDetent <= 0 {
		p.Knob.StepsPerDetent = 4
	}
	if p.Knob.DebounceMs <= 0 {
		p.Knob.DebounceMs = 50
	}
	if p.Sensors.AmbientI2cAddress == 0 {
		p.Sensors.AmbientI2cAddress = 0x76
	}
	if p.Sensors.IntervalMs <= 0 {
		p.Sensors.IntervalMs = sensor.DefaultInterval.Milliseconds()
	}
	if p.Sensors.CoreSamples <= 0 {
		p.Sensors.CoreSamples = sensor.DefaultCoreSamples
	}
	if p.Actuators.FanPwmFrequencyHz <= 0 {
		p.Actuators.FanPwmFrequencyHz = 25000
	}
	defaults := menu.DefaultLimits()
	if p.Menu.MaxTemperature <= 0 {
		p.Menu.MaxTemperature = defaults.MaxTemperature
	}
	if p.Menu.TemperatureStep <= 0 {
		p.Menu.TemperatureStep = defaults.TemperatureStep
	}
	if p.Menu.FanStep <= 0 {
		p.Menu.FanStep = defaults.FanStep
	}
	if p.Display.Pitch <= 0 {
		p.Display.Pitch = 10
	}
	if p.ApiParam.SslPort <= 0 {
		p.ApiParam.SslPort = 8443
	}
	if p.Telemetry.ClientId == "" {
		p.Telemetry.ClientId = "heatbox"
	}
	if p.Telemetry.Topic == "" {
		p.Telemetry.Topic = "heatbox/status"
	}
	if p.Telemetry.IntervalMs <= 0 {
		p.Telemetry.IntervalMs = 10000
	}
	if p.Mdns.Instance == "" {
		p.Mdns.Instance = "heatbox"
	}
}

func (p *ServerParam) LoopPeriod() time.Duration {
	return time.Duration(p.LoopPeriodMs) * time.Millisecond
}

func (p *ServerParam) Limits() menu.Limits {
	return menu.Limits{
		MaxTemperature:  p.Menu.MaxTemperature,
		TemperatureStep: p.Menu.TemperatureStep,
		FanStep:         p.Menu.FanStep,
	}
}

func (p *ServerParam) BrowseMode() encoder.Mode {
	if p.Menu.BrowseWrap {
		return encoder.Wrapping
	}
	return encoder.Clamping
}

func (p *ServerParam) KnobDirection() encoder.Direction {
	if p.Knob.Reverse {
		return encoder.Reverse
	}
	return encoder.Forward
}

func (p *ServerParam) Debounce() time.Duration {
	return time.Duration(p.Knob.DebounceMs) * time.Millisecond
}

func (p *ServerParam) SensorConfig() sensor.Config {
	return sensor.Config{
		Interval:    time.Duration(p.Sensors.IntervalMs) * time.Millisecond,
		CoreSamples: p.Sensors.CoreSamples,
	}
}

func (p *ServerParam) TelemetryInterval() time.Duration {
	return time.Duration(p.Telemetry.IntervalMs) * time.Millisecond
}
