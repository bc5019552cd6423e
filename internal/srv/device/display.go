package device

import (
	"image"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

func NewDisplay(simulationMode bool) *Display {
	if !simulationMode {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize periph host: %v", err)
		}
	}

	device := Display{
		simulationMode: simulationMode,
		askDone:        make(chan bool),
		askImg:         make(chan image.Image),
		done:           make(chan bool),
	}

	return &device
}

func (d *Display) Start() {
	logrus.Infof("Start display device")

	d.on = true

	if d.simulationMode {
		d.startSimulation()
		return
	}

	var err error
	// Open a handle to the first available I²C bus:
	d.i2cBus, err = i2creg.Open("")
	if err != nil {
		logrus.Fatalf("Unable to open i2c bus: %v\n", err)
	}

	// Open a handle to a ssd1306 connected on the I²C bus:
	d.oledDisplay, err = ssd1306.NewI2C(d.i2cBus, &ssd1306.DefaultOpts)
	if err != nil {
		logrus.Fatalf("Unable to initialize oled display: %v\n", err)
	}

	d.oledDisplay.SetContrast(1)

	go func() {
		for loop := true; loop; {
			select {
			case <-d.askDone:
				loop = false
			case newImg := <-d.askImg:
				d.oledLock.Lock()
				if err := d.oledDisplay.Draw(d.oledDisplay.Bounds(), newImg, image.Point{}); err != nil {
					logrus.Warnf("Unable to draw on oled display: %v", err)
				}
				d.oledLock.Unlock()
			}
		}
		d.oledLock.Lock()
		d.i2cBus.Close()
		d.oledLock.Unlock()
		d.done <- true
	}()
}

// Stop blanks the panel and releases the bus.
func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	d.SetOff()
	if d.simulationMode {
		d.closeSimulationWindow()
	} else {
		d.askDone <- true
		<-d.done
	}
}

func (d *Display) SetOff() {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.on = false
	if d.simulationMode {
		d.invalidateSimulationWindow()
		return
	}
	d.oledLock.Lock()
	if err := d.oledDisplay.Halt(); err != nil {
		logrus.Warnf("Unable to halt oled display: %v", err)
	}
	d.oledLock.Unlock()
}

// LastImage returns the last frame handed to the display, nil before the first one.
func (d *Display) LastImage() image.Image {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.lastImg
}

// ShowImage keeps img as the current frame and pushes it to the panel.
func (d *Display) ShowImage(img image.Image) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.lastImg = img
	if !d.on {
		return
	}
	if d.simulationMode {
		d.invalidateSimulationWindow()
	} else {
		d.askImg <- img
	}
}
