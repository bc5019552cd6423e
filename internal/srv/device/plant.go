package device

import (
	"sync"
	"time"
)

const (
	roomTemperature  = 20.0
	roomHumidity     = 45.0
	heaterRate       = 1.5   // °C/s on the core while the relay is closed
	coreTransfer     = 0.05  // 1/s from core to enclosure, at 0% fan
	enclosureLoss    = 0.005 // 1/s from enclosure to the room
	maxIntegrateStep = 100 * time.Millisecond
)

// ThermalPlant stands in for the heater, the fan and both sensors in simulation mode.
type ThermalPlant struct {
	lock sync.Mutex
	now  func() time.Time
	last time.Time

	enclosure float64
	core      float64

	relayOn    bool
	fanPercent int
}

func NewThermalPlant(now func() time.Time) *ThermalPlant {
	if now == nil {
		now = time.Now
	}
	return &ThermalPlant{
		now:       now,
		last:      now(),
		enclosure: roomTemperature,
		core:      roomTemperature,
	}
}

// advance integrates the model up to the current time.
func (p *ThermalPlant) advance() {
	now := p.now()
	elapsed := now.Sub(p.last)
	p.last = now
	for elapsed > 0 {
		step := elapsed
		if step > maxIntegrateStep {
			step = maxIntegrateStep
		}
		elapsed -= step
		dt := step.Seconds()

		if p.relayOn {
			p.core += heaterRate * dt
		}
		transfer := coreTransfer * (1 + 3*float64(p.fanPercent)/100) * (p.core - p.enclosure) * dt
		p.core -= transfer
		p.enclosure += transfer / 2
		p.enclosure -= enclosureLoss * (p.enclosure - roomTemperature) * dt
	}
}

func (p *ThermalPlant) SetRelay(on bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.advance()
	p.relayOn = on
	return nil
}

func (p *ThermalPlant) SetDutyPercent(pct int) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.advance()
	p.fanPercent = pct
	return nil
}

func (p *ThermalPlant) ReadAmbient() (float64, float64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.advance()
	humidity := roomHumidity - (p.enclosure-roomTemperature)*0.8
	if humidity < 5 {
		humidity = 5
	}
	return p.enclosure, humidity, nil
}

func (p *ThermalPlant) ReadCore() (float64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.advance()
	return p.core, nil
}
