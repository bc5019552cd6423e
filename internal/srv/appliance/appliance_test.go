package appliance

import (
	"errors"
	"testing"
	"time"

	"github.com/jypelle/heatbox/internal/srv/encoder"
	"github.com/jypelle/heatbox/internal/srv/menu"
	"github.com/jypelle/heatbox/internal/srv/model"
	"github.com/jypelle/heatbox/internal/srv/sensor"
)

type fakeRelay struct {
	writes []bool
	err    error
}

func (f *fakeRelay) SetRelay(on bool) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, on)
	return nil
}

func (f *fakeRelay) last() bool {
	if len(f.writes) == 0 {
		return false
	}
	return f.writes[len(f.writes)-1]
}

type fakeFan struct {
	duties []int
}

func (f *fakeFan) SetDutyPercent(pct int) error {
	f.duties = append(f.duties, pct)
	return nil
}

type nullSurface struct {
	frames int
}

func (n *nullSurface) BeginFrame()                     {}
func (n *nullSurface) DrawHighlightedLine(int, string) {}
func (n *nullSurface) DrawLine(int, string)            {}
func (n *nullSurface) EndFrame() error                 { n.frames++; return nil }

type rig struct {
	app     *Appliance
	enc     *encoder.Encoder
	ambient *sensor.FakeAmbient
	core    *sensor.FakeCore
	relay   *fakeRelay
	fan     *fakeFan
	surface *nullSurface
	now     time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		enc:     encoder.New(4, encoder.Forward, encoder.Boundaries{}),
		ambient: &sensor.FakeAmbient{Temperature: 40, Humidity: 35},
		core:    &sensor.FakeCore{Samples: []float64{80}},
		relay:   &fakeRelay{},
		fan:     &fakeFan{},
		surface: &nullSurface{},
		now:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	limits := menu.Limits{MaxTemperature: 250, TemperatureStep: 1, FanStep: 5}
	ctrl := menu.NewController(menu.Items(limits), r.enc, encoder.Wrapping)
	hub := sensor.NewHub(r.ambient, r.core, sensor.Config{Interval: 2 * time.Second, CoreSamples: 1})
	r.app = New(ctrl, hub, r.relay, r.fan, r.surface)
	return r
}

func (r *rig) tick(d time.Duration) {
	r.now = r.now.Add(d)
	r.app.Tick(r.now)
}

// turn rotates the knob by whole detents.
func (r *rig) turn(detents int) {
	r.enc.Pulse(int64(detents * 4))
	r.tick(20 * time.Millisecond)
}

func (r *rig) press() {
	r.enc.Press()
	r.tick(20 * time.Millisecond)
}

func TestFirstTickReadsSensorsAndRenders(t *testing.T) {
	r := newRig(t)
	r.tick(0)

	st := r.app.State()
	if st.Readings.EnclosureTemp != 40 || st.Readings.CoreTemp != 80 {
		t.Errorf("unexpected readings %+v", st.Readings)
	}
	if r.surface.frames != 1 {
		t.Errorf("expected 1 frame, got %d", r.surface.frames)
	}
	if r.relay.last() {
		t.Error("relay must stay off while the heater is disabled")
	}
}

func TestHeaterScenario(t *testing.T) {
	r := newRig(t)
	r.tick(0)

	// enable heater
	r.turn(menu.LineHeater)
	r.press()
	if !r.app.State().HeaterEnabled {
		t.Fatal("expected heater enabled")
	}

	// set target to 60
	r.turn(menu.LineTargetTemp - menu.LineHeater)
	r.press()
	r.turn(60)
	r.press()
	if got := r.app.State().Setpoints.TargetTemperature; got != 60 {
		t.Fatalf("expected target 60, got %v", got)
	}

	r.tick(20 * time.Millisecond)
	if !r.relay.last() || !r.app.State().RelayOn {
		t.Fatal("expected relay on at 40 < 60")
	}

	// reading rises to 65, picked up on the next sensor poll
	r.ambient.Temperature = 65
	r.tick(2 * time.Second)
	r.tick(20 * time.Millisecond)
	if r.relay.last() {
		t.Error("expected relay off at 65 >= 60")
	}
}

func TestRelayOffOnInvalidReading(t *testing.T) {
	r := newRig(t)
	r.tick(0)
	r.turn(menu.LineHeater)
	r.press()
	r.turn(menu.LineTargetTemp - menu.LineHeater)
	r.press()
	r.turn(100)
	r.press()
	r.tick(20 * time.Millisecond)
	if !r.relay.last() {
		t.Fatal("expected relay on")
	}

	r.ambient.Err = errors.New("no ack")
	r.tick(2 * time.Second)
	r.tick(20 * time.Millisecond)
	if r.relay.last() {
		t.Error("relay must fail to off on an invalid reading")
	}
	if r.app.State().Readings.EnclosureTemp.Valid() {
		t.Error("expected sentinel reading")
	}
}

func TestFanWrittenOnChangeOnly(t *testing.T) {
	r := newRig(t)
	r.tick(0)
	r.tick(20 * time.Millisecond)
	if len(r.fan.duties) != 1 || r.fan.duties[0] != model.DefaultFanPercent {
		t.Fatalf("expected one initial write of %d, got %v", model.DefaultFanPercent, r.fan.duties)
	}

	r.turn(menu.LineFanSpeed)
	r.press()
	r.turn(2)
	if got := r.fan.duties[len(r.fan.duties)-1]; got != 60 {
		t.Errorf("expected 60%%, got %d", got)
	}
}

func TestIdleTicksDoNotRedraw(t *testing.T) {
	r := newRig(t)
	r.tick(0)
	for i := 0; i < 10; i++ {
		r.tick(20 * time.Millisecond)
	}
	if r.surface.frames != 1 {
		t.Errorf("expected a single frame while idle, got %d", r.surface.frames)
	}
}

func TestRelayFaultIsRetried(t *testing.T) {
	r := newRig(t)
	r.relay.err = errors.New("gpio busy")
	r.tick(0)
	if len(r.relay.writes) != 0 {
		t.Fatal("no write expected while failing")
	}
	r.relay.err = nil
	r.tick(20 * time.Millisecond)
	if len(r.relay.writes) != 1 {
		t.Errorf("expected the relay to be written once recovered, got %d writes", len(r.relay.writes))
	}
}

func TestHalt(t *testing.T) {
	r := newRig(t)
	r.tick(0)
	r.app.Halt()
	if r.relay.last() {
		t.Error("expected relay off after halt")
	}
	if got := r.fan.duties[len(r.fan.duties)-1]; got != 0 {
		t.Errorf("expected fan stopped, got %d", got)
	}
}

func TestSnapshot(t *testing.T) {
	r := newRig(t)
	r.tick(0)
	r.turn(menu.LineFanSpeed)
	r.press()

	snap := r.app.Snapshot()
	if snap.Mode != menu.Editing || snap.EditingLine != menu.LineFanSpeed || snap.Selected != menu.LineFanSpeed {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if len(snap.Lines) != len(menu.Items(menu.DefaultLimits())) {
		t.Errorf("expected all lines, got %d", len(snap.Lines))
	}
	if snap.Lines[menu.LineFanSpeed][0] != '>' {
		t.Errorf("expected edit marker, got %q", snap.Lines[menu.LineFanSpeed])
	}
}

func TestStatusHidesInvalidReadings(t *testing.T) {
	r := newRig(t)
	r.ambient.Err = errors.New("no ack")
	r.tick(0)

	status := r.app.Snapshot().Status()
	if status.EnclosureTemperature != nil || status.EnclosureHumidity != nil {
		t.Errorf("expected null ambient readings, got %v %v", status.EnclosureTemperature, status.EnclosureHumidity)
	}
	if status.CoreTemperature == nil || *status.CoreTemperature != 80 {
		t.Errorf("expected core 80, got %v", status.CoreTemperature)
	}
	if status.Menu.EditingLine != nil {
		t.Errorf("expected no editing line, got %d", *status.Menu.EditingLine)
	}
	if status.Menu.Mode != "browsing" {
		t.Errorf("expected browsing, got %s", status.Menu.Mode)
	}
	if status.TargetFanPercent != model.DefaultFanPercent {
		t.Errorf("expected fan target %d, got %d", model.DefaultFanPercent, status.TargetFanPercent)
	}
}
