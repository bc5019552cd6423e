package device

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jypelle/heatbox/internal/srv/sensor"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/devices/v3/ds18b20"
	"periph.io/x/host/v3"
)

// AmbientSensor reads enclosure temperature and humidity from a BME280 on the I²C bus.
type AmbientSensor struct {
	i2cBus i2c.BusCloser
	dev    *bmxx80.Dev
}

func NewAmbientSensor(address uint16) (*AmbientSensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	dev, err := bmxx80.NewI2C(bus, address, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open bme280 at %#x: %w", address, err)
	}
	logrus.Infof("Ambient sensor: %s", dev)
	return &AmbientSensor{i2cBus: bus, dev: dev}, nil
}

func (s *AmbientSensor) ReadAmbient() (float64, float64, error) {
	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		return math.NaN(), math.NaN(), err
	}
	humidity := math.NaN()
	// a BMP280 answers at the same address but has no humidity channel
	if env.Humidity != 0 {
		humidity = float64(env.Humidity) / float64(physic.PercentRH)
	}
	return env.Temperature.Celsius(), humidity, nil
}

func (s *AmbientSensor) Close() {
	if err := s.dev.Halt(); err != nil {
		logrus.Warnf("Unable to halt ambient sensor: %v", err)
	}
	s.i2cBus.Close()
}

var (
	errNoProbe      = errors.New("no probe found on the 1-wire bus")
	errNoConversion = errors.New("no conversion yet")
)

const minConversionPeriod = 200 * time.Millisecond

// coreWindow holds the last conversions. A failed conversion is kept as NaN
// and spoils the mean until it leaves the window.
type coreWindow struct {
	samples []float64
	next    int
	filled  int
	lastErr error
}

func newCoreWindow(size int) *coreWindow {
	if size < 1 {
		size = 1
	}
	return &coreWindow{samples: make([]float64, size)}
}

func (w *coreWindow) add(v float64, err error) {
	if err != nil {
		v = math.NaN()
		w.lastErr = err
	}
	w.samples[w.next] = v
	w.next = (w.next + 1) % len(w.samples)
	if w.filled < len(w.samples) {
		w.filled++
	}
}

func (w *coreWindow) mean() (float64, error) {
	if w.filled == 0 {
		return math.NaN(), errNoConversion
	}
	sum := 0.0
	for _, v := range w.samples[:w.filled] {
		sum += v
	}
	m := sum / float64(w.filled)
	if math.IsNaN(m) {
		if w.lastErr != nil {
			return m, fmt.Errorf("conversion in window failed: %w", w.lastErr)
		}
		return m, sensor.ErrNotANumber
	}
	return m, nil
}

// CoreSensor converts a DS18B20 probe in the background. A conversion takes
// hundreds of milliseconds, so ReadCore hands back the mean of the last ones.
type CoreSensor struct {
	lock   sync.Mutex
	window *coreWindow

	oneWireBus onewire.BusCloser
	dev        *ds18b20.Dev
	period     time.Duration

	askDone chan bool
	done    chan bool
}

// NewCoreSensor opens the probe at address, or the first probe found when address is 0.
// It converts samples times per interval and averages them.
func NewCoreSensor(address uint64, interval time.Duration, samples int) (*CoreSensor, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	bus, err := onewirereg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open 1-wire bus: %w", err)
	}

	addr := onewire.Address(address)
	if addr == 0 {
		addrs, err := bus.Search(false)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("search 1-wire bus: %w", err)
		}
		if len(addrs) == 0 {
			bus.Close()
			return nil, errNoProbe
		}
		addr = addrs[0]
	}

	dev, err := ds18b20.New(bus, addr, 10)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open ds18b20 %#x: %w", uint64(addr), err)
	}
	logrus.Infof("Core sensor: ds18b20 %#x", uint64(addr))

	s := newCoreSensor(interval, samples)
	s.oneWireBus = bus
	s.dev = dev
	return s, nil
}

func newCoreSensor(interval time.Duration, samples int) *CoreSensor {
	window := newCoreWindow(samples)
	period := interval / time.Duration(len(window.samples))
	if period < minConversionPeriod {
		period = minConversionPeriod
	}
	return &CoreSensor{
		window:  window,
		period:  period,
		askDone: make(chan bool),
		done:    make(chan bool),
	}
}

func (s *CoreSensor) Start() {
	logrus.Infof("Start core sensor device")
	s.convert()

	go func() {
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		for loop := true; loop; {
			select {
			case <-ticker.C:
				s.convert()
			case <-s.askDone:
				loop = false
			}
		}
		s.done <- true
	}()
}

func (s *CoreSensor) convert() {
	t, err := s.dev.Temperature()
	s.record(t.Celsius(), err)
}

func (s *CoreSensor) record(celsius float64, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.window.add(celsius, err)
}

func (s *CoreSensor) ReadCore() (float64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.window.mean()
}

func (s *CoreSensor) Stop() {
	logrus.Infof("Stop core sensor device")
	s.askDone <- true
	<-s.done
	s.oneWireBus.Close()
}
