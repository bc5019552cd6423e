// Package sensor polls the ambient and core temperature sources on a fixed cadence
// and keeps the last readings, with the Invalid sentinel in place of failed reads.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jypelle/heatbox/internal/srv/metrics"
	"github.com/jypelle/heatbox/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// AmbientSource reads the enclosure sensor. A NaN value marks a failed channel
// while the other one is still usable.
type AmbientSource interface {
	ReadAmbient() (temperature float64, humidity float64, err error)
}

// CoreSource reads the heater core temperature.
type CoreSource interface {
	ReadCore() (float64, error)
}

type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

var ErrNotANumber = errors.New("not a number")

const (
	DefaultInterval    = 2000 * time.Millisecond
	DefaultCoreSamples = 10
)

type Config struct {
	Interval    time.Duration
	CoreSamples int
}

type Hub struct {
	ambient AmbientSource
	core    CoreSource

	interval    time.Duration
	coreSamples int

	lastAmbient time.Time
	lastCore    time.Time
	polled      bool

	readings model.Readings
}

func NewHub(ambient AmbientSource, core CoreSource, cfg Config) *Hub {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CoreSamples < 1 {
		cfg.CoreSamples = DefaultCoreSamples
	}

	metrics.SetSensorPresent(metrics.EnclosureTemp, ambient != nil)
	metrics.SetSensorPresent(metrics.EnclosureHumidity, ambient != nil)
	metrics.SetSensorPresent(metrics.CoreTemp, core != nil)
	if ambient == nil {
		logrus.Warnf("No ambient sensor, enclosure readings stay invalid")
	}
	if core == nil {
		logrus.Warnf("No core sensor, core reading stays invalid")
	}

	return &Hub{
		ambient:     ambient,
		core:        core,
		interval:    cfg.Interval,
		coreSamples: cfg.CoreSamples,
		readings:    model.InvalidReadings(),
	}
}

func (h *Hub) Readings() model.Readings {
	return h.readings
}

// Poll re-reads every source whose interval has elapsed. The first call reads all of
// them. It reports whether any source was read.
func (h *Hub) Poll(now time.Time) bool {
	read := false
	if !h.polled || now.Sub(h.lastAmbient) >= h.interval {
		h.readAmbient()
		h.lastAmbient = now
		read = true
	}
	if !h.polled || now.Sub(h.lastCore) >= h.interval {
		h.readCore()
		h.lastCore = now
		read = true
	}
	h.polled = true
	return read
}

func (h *Hub) readAmbient() {
	if h.ambient == nil {
		h.readings.EnclosureTemp = model.Invalid
		h.readings.EnclosureHumidity = model.Invalid
		return
	}

	temperature, humidity, err := h.ambient.ReadAmbient()
	h.readings.EnclosureTemp = accept(metrics.EnclosureTemp, temperature, err)
	h.readings.EnclosureHumidity = accept(metrics.EnclosureHumidity, humidity, err)
	logrus.Debugf("Ambient: %v C, %v %%", h.readings.EnclosureTemp, h.readings.EnclosureHumidity)
}

func (h *Hub) readCore() {
	if h.core == nil {
		h.readings.CoreTemp = model.Invalid
		return
	}
	v, err := h.averageCore()
	h.readings.CoreTemp = accept(metrics.CoreTemp, v, err)
	logrus.Debugf("Core: %v C", h.readings.CoreTemp)
}

// averageCore is a low-pass filter over consecutive samples. A single failed sample
// makes the whole average NaN.
func (h *Hub) averageCore() (float64, error) {
	sum := 0.0
	for i := 0; i < h.coreSamples; i++ {
		v, err := h.core.ReadCore()
		if err != nil {
			return math.NaN(), fmt.Errorf("sample %d/%d: %w", i+1, h.coreSamples, err)
		}
		sum += v
	}
	return sum / float64(h.coreSamples), nil
}

// accept turns a driver result into a reading, substituting the sentinel on failure.
func accept(name string, v float64, err error) model.Reading {
	if err == nil && math.IsNaN(v) {
		err = ErrNotANumber
	}
	r := model.NewReading(v)
	if err != nil {
		r = model.Invalid
	}
	if !r.Valid() {
		if err == nil {
			err = fmt.Errorf("out of range value %v", v)
		}
		logrus.Warn(&ReadError{Source: name, Err: err})
		metrics.IncReadFailure(name)
	}
	return r
}
