//go:build !amd64

package device

import (
	"image"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

type Display struct {
	oledLock    sync.Mutex
	oledDisplay *ssd1306.Dev
	i2cBus      i2c.BusCloser

	lock           sync.RWMutex
	on             bool
	simulationMode bool
	lastImg        image.Image

	askDone chan bool
	askImg  chan image.Image
	done    chan bool
}

// No simulation window outside amd64, frames are only kept for the api.
func (d *Display) startSimulation() {
}

func (d *Display) invalidateSimulationWindow() {
}

func (d *Display) closeSimulationWindow() {
}
