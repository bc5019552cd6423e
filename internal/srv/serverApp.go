package srv

import (
	"time"

	"github.com/jypelle/heatbox/internal/srv/appliance"
	"github.com/jypelle/heatbox/internal/srv/config"
	"github.com/jypelle/heatbox/internal/srv/device"
	"github.com/jypelle/heatbox/internal/srv/encoder"
	"github.com/jypelle/heatbox/internal/srv/menu"
	"github.com/jypelle/heatbox/internal/srv/render"
	"github.com/jypelle/heatbox/internal/srv/sensor"
	"github.com/jypelle/heatbox/internal/srv/telemetry"
	"github.com/jypelle/heatbox/internal/version"
	"github.com/sirupsen/logrus"
)

type ServerApp struct {
	*config.ServerConfig

	encoder   *encoder.Encoder
	appliance *appliance.Appliance

	displayDevice *device.Display
	knobDevice    *device.Knob
	ambientDevice *device.AmbientSensor
	coreDevice    *device.CoreSensor
	apiDevice     *device.Api
	announcer     *device.Announcer
	reporter      *telemetry.Reporter

	loopTicker *time.Ticker
	lastReport time.Time

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of heatbox server %s ...", version.AppVersion.String())

	app := &ServerApp{
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	app.encoder = encoder.New(app.Knob.StepsPerDetent, app.KnobDirection(), encoder.Boundaries{})
	app.displayDevice = device.NewDisplay(app.SimulationMode)
	surface := render.NewImageSurface(render.DisplayWidth, render.DisplayHeight, app.Display.Pitch, app.displayDevice)

	sensorConfig := app.SensorConfig()
	var (
		ambient sensor.AmbientSource
		core    sensor.CoreSource
		relay   appliance.Relay
		fan     appliance.Fan
	)
	if app.SimulationMode {
		plant := device.NewThermalPlant(nil)
		ambient, core, relay, fan = plant, plant, plant, plant
	} else {
		if dev, err := device.NewAmbientSensor(app.Sensors.AmbientI2cAddress); err != nil {
			logrus.Errorf("Ambient sensor unavailable: %v", err)
		} else {
			app.ambientDevice = dev
			ambient = dev
		}
		if dev, err := device.NewCoreSensor(app.Sensors.CoreOnewireAddress, sensorConfig.Interval, sensorConfig.CoreSamples); err != nil {
			logrus.Errorf("Core sensor unavailable: %v", err)
		} else {
			app.coreDevice = dev
			core = dev
			// the probe averages its own background conversions
			sensorConfig.CoreSamples = 1
		}
		relay = device.NewRelay(app.Actuators.RelayPin, app.Actuators.RelayActiveLow)
		fan = device.NewFan(app.Actuators.FanPin, app.Actuators.FanPwmFrequencyHz)
	}

	hub := sensor.NewHub(ambient, core, sensorConfig)
	ctrl := menu.NewController(menu.Items(app.Limits()), app.encoder, app.BrowseMode())
	app.appliance = appliance.New(ctrl, hub, relay, fan, surface)

	app.knobDevice = device.NewKnob(
		app.SimulationMode,
		device.KnobPins{A: app.Knob.PinA, B: app.Knob.PinB, Button: app.Knob.PinButton},
		app.Debounce(),
		app.encoder,
	)

	if app.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ServerConfig, app.displayDevice)
		if app.Mdns.Enabled {
			app.announcer = device.NewAnnouncer(app.Mdns.Instance, app.ApiParam.SslPort, app.SimulationMode)
		}
	}

	if app.Telemetry.Enabled {
		publisher, err := telemetry.NewRealPublisher(app.Telemetry.Broker, app.Telemetry.ClientId, app.Telemetry.Topic)
		if err != nil {
			logrus.Errorf("Telemetry disabled: %v", err)
		} else {
			app.reporter = telemetry.NewReporter(publisher, app.Telemetry.Topic)
		}
	}

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting heatbox server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	s.displayDevice.Start()

	// Start core sensor conversions
	if s.coreDevice != nil {
		s.coreDevice.Start()
	}

	// Start telemetry before the loop offers anything
	if s.reporter != nil {
		s.reporter.Start()
	}

	// Start event loop
	s.loopTicker = time.NewTicker(s.LoopPeriod())
	go s.eventLoop()

	// Start knob device
	s.knobDevice.Start()

	// Start api device
	if s.apiDevice != nil {
		s.apiDevice.Start()
	}
	if s.announcer != nil {
		s.announcer.Start()
	}
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping heatbox server ...")

	if s.announcer != nil {
		s.announcer.Stop()
	}

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.StopSendingEvent()
	}

	// Stop knob device
	s.knobDevice.StopSendingEvent()

	// Stop event loop, actuators are released on its way out
	logrus.Infof("Stop event loop")
	s.loopTicker.Stop()
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	if s.reporter != nil {
		s.reporter.Stop()
	}
	if s.coreDevice != nil {
		s.coreDevice.Stop()
	}
	if s.ambientDevice != nil {
		s.ambientDevice.Close()
	}

	// Stop display device
	s.displayDevice.Stop()

	logrus.Printf("Server stopped")
}
