package device

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Relay drives the heater relay coil from a GPIO output.
type Relay struct {
	pin       gpio.PinIO
	activeLow bool
}

func NewRelay(name string, activeLow bool) *Relay {
	if _, err := host.Init(); err != nil {
		logrus.Fatalf("Unable to initialize periph host: %v", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		logrus.Fatalf("Failed to find %s relay pin", name)
	}
	r := &Relay{pin: pin, activeLow: activeLow}
	if err := r.SetRelay(false); err != nil {
		logrus.Fatalf("Failed to setup %s relay pin: %v", name, err)
	}
	return r
}

func (r *Relay) SetRelay(on bool) error {
	if err := r.pin.Out(gpio.Level(on != r.activeLow)); err != nil {
		return fmt.Errorf("relay %s: %w", r.pin.Name(), err)
	}
	return nil
}

// Fan drives the fan with a hardware PWM output.
type Fan struct {
	pin       gpio.PinIO
	frequency physic.Frequency
}

func NewFan(name string, frequencyHz int64) *Fan {
	if _, err := host.Init(); err != nil {
		logrus.Fatalf("Unable to initialize periph host: %v", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		logrus.Fatalf("Failed to find %s fan pin", name)
	}
	return &Fan{pin: pin, frequency: physic.Frequency(frequencyHz) * physic.Hertz}
}

func (f *Fan) SetDutyPercent(pct int) error {
	if err := f.pin.PWM(dutyFromPercent(pct), f.frequency); err != nil {
		return fmt.Errorf("fan %s: %w", f.pin.Name(), err)
	}
	return nil
}

func dutyFromPercent(pct int) gpio.Duty {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return gpio.DutyMax * gpio.Duty(pct) / 100
}
