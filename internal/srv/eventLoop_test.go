package srv

import (
	"testing"
	"time"

	"github.com/jypelle/heatbox/internal/srv/appliance"
	"github.com/jypelle/heatbox/internal/srv/config"
	"github.com/jypelle/heatbox/internal/srv/device"
	"github.com/jypelle/heatbox/internal/srv/encoder"
	"github.com/jypelle/heatbox/internal/srv/event"
	"github.com/jypelle/heatbox/internal/srv/menu"
	"github.com/jypelle/heatbox/internal/srv/sensor"
	"github.com/jypelle/heatbox/internal/srv/telemetry"
)

type blankSurface struct{}

func (blankSurface) BeginFrame()                     {}
func (blankSurface) DrawHighlightedLine(int, string) {}
func (blankSurface) DrawLine(int, string)            {}
func (blankSurface) EndFrame() error                 { return nil }

var start = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

// newTestServer wires the loop around the simulated plant, without any device goroutine.
func newTestServer(t *testing.T) *ServerApp {
	t.Helper()
	param := &config.ServerParam{}
	param.Knob.StepsPerDetent = 4
	param.Telemetry.IntervalMs = 1000

	plant := device.NewThermalPlant(func() time.Time { return start })
	enc := encoder.New(param.Knob.StepsPerDetent, encoder.Forward, encoder.Boundaries{})
	ctrl := menu.NewController(menu.Items(menu.DefaultLimits()), enc, encoder.Wrapping)
	hub := sensor.NewHub(plant, plant, sensor.Config{})

	return &ServerApp{
		ServerConfig: &config.ServerConfig{SimulationMode: true, ServerParam: param},
		encoder:      enc,
		appliance:    appliance.New(ctrl, hub, plant, plant, blankSurface{}),
	}
}

func send(s *ServerApp, data interface{}) event.ApiResult {
	result := make(chan event.ApiResult, 1)
	s.handleApiEvent(event.ApiEvent{Result: result, Data: data})
	return <-result
}

func TestVirtualKnobDrivesTheMenu(t *testing.T) {
	s := newTestServer(t)
	s.tick(start)

	send(s, event.ApiEventKnobRotateData{Detents: menu.LineHeater})
	s.tick(start.Add(20 * time.Millisecond))
	send(s, event.ApiEventKnobPressData{})
	s.tick(start.Add(40 * time.Millisecond))

	res := send(s, event.ApiEventStatusData{})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if !res.Status.HeaterEnabled {
		t.Error("expected heater enabled through the virtual knob")
	}
	if res.Status.Menu.Selected != menu.LineHeater {
		t.Errorf("expected line %d selected, got %d", menu.LineHeater, res.Status.Menu.Selected)
	}
	if res.Status.EnclosureTemperature == nil {
		t.Error("expected a simulated enclosure temperature")
	}
}

func TestUnknownApiEvent(t *testing.T) {
	s := newTestServer(t)
	if res := send(s, struct{}{}); res.Err == nil {
		t.Error("expected an error for an unknown event")
	}
}

func TestTelemetryIsOfferedOnInterval(t *testing.T) {
	s := newTestServer(t)
	pub := telemetry.NewFakePublisher()
	s.reporter = telemetry.NewReporter(pub, "heatbox/status")
	s.reporter.Start()

	s.tick(start)
	<-pub.Attempts
	s.tick(start.Add(500 * time.Millisecond))
	s.tick(start.Add(1000 * time.Millisecond))
	<-pub.Attempts
	s.reporter.Stop()

	if got := len(pub.Sent()); got != 2 {
		t.Errorf("expected 2 snapshots in 1s, got %d", got)
	}
}
