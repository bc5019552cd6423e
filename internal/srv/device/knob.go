package device

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// KnobSink receives decoded knob activity. It is called from the knob goroutine.
type KnobSink interface {
	Pulse(n int64)
	Press()
}

type KnobPins struct {
	A      string
	B      string
	Button string
}

// Knob polls the rotary encoder and its push-button.
type Knob struct {
	lock       sync.Mutex
	simulation bool
	pins       KnobPins
	sink       KnobSink

	pinA      gpio.PinIO
	pinB      gpio.PinIO
	pinButton gpio.PinIO

	quadrature Quadrature
	debouncer  *Debouncer

	checkTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewKnob(simulation bool, pins KnobPins, debounce time.Duration, sink KnobSink) *Knob {
	if !simulation {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize periph host: %v", err)
		}
	}

	return &Knob{
		simulation: simulation,
		pins:       pins,
		sink:       sink,
		debouncer:  NewDebouncer(debounce),
		askDone:    make(chan bool),
		done:       make(chan bool),
	}
}

func openInput(name string) gpio.PinIO {
	pin := gpioreg.ByName(name)
	if pin == nil {
		logrus.Fatalf("Failed to find %s pin", name)
	}

	// Set it as input, with an internal pull up resistor:
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		logrus.Fatalf("Failed to setup %s pin: %v", name, err)
	}
	return pin
}

func (d *Knob) Start() {
	logrus.Infof("Start knob device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.simulation {
		// driven through the api
		return
	}

	d.pinA = openInput(d.pins.A)
	d.pinB = openInput(d.pins.B)
	d.pinButton = openInput(d.pins.Button)

	// Start periodic check
	d.checkTicker = time.NewTicker(time.Millisecond)
	go func() {
		for loop := true; loop; {
			select {
			case now := <-d.checkTicker.C:
				d.refresh(now)
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Knob) refresh(now time.Time) {
	if step := d.quadrature.Update(bool(d.pinA.Read()), bool(d.pinB.Read())); step != 0 {
		d.sink.Pulse(int64(step))
	}
	// pulled up, low when pressed
	if d.debouncer.Update(!bool(d.pinButton.Read()), now) {
		logrus.Debugf("Knob pressed")
		d.sink.Press()
	}
}

func (d *Knob) StopSendingEvent() {
	logrus.Infof("Stop knob device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.checkTicker == nil {
		return
	}
	d.checkTicker.Stop()
	d.askDone <- true
	<-d.done
}
