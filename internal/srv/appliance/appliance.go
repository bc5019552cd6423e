// Package appliance runs one control tick: input, menu, heater policy, actuators,
// sensor polling and rendering, in that order.
package appliance

import (
	"time"

	"github.com/jypelle/heatbox/internal/srv/heater"
	"github.com/jypelle/heatbox/internal/srv/menu"
	"github.com/jypelle/heatbox/internal/srv/metrics"
	"github.com/jypelle/heatbox/internal/srv/model"
	"github.com/jypelle/heatbox/internal/srv/render"
	"github.com/jypelle/heatbox/internal/srv/sensor"
	"github.com/sirupsen/logrus"
)

type Relay interface {
	SetRelay(on bool) error
}

type Fan interface {
	SetDutyPercent(pct int) error
}

type Appliance struct {
	state model.AppState

	menu     *menu.Controller
	hub      *sensor.Hub
	relay    Relay
	fan      Fan
	renderer *render.Renderer

	fanApplied bool
	relayFault bool
	fanFault   bool
}

func New(ctrl *menu.Controller, hub *sensor.Hub, relay Relay, fan Fan, surface render.Surface) *Appliance {
	return &Appliance{
		state:    model.NewAppState(),
		menu:     ctrl,
		hub:      hub,
		relay:    relay,
		fan:      fan,
		renderer: render.NewRenderer(surface),
	}
}

// State returns a copy of the current state.
func (a *Appliance) State() model.AppState {
	return a.state
}

func (a *Appliance) Tick(now time.Time) {
	a.menu.Step(&a.state)

	a.applyRelay(heater.RelayOn(a.state.HeaterEnabled, a.state.Readings.EnclosureTemp, a.state.Setpoints.TargetTemperature))
	a.applyFan(a.state.Setpoints.TargetFanPercent)

	if a.hub.Poll(now) {
		a.state.Readings = a.hub.Readings()
	}

	if _, err := a.renderer.Render(a.menu.Items(), &a.state, a.menu.Selected(), a.editingLine()); err != nil {
		logrus.Warnf("Unable to refresh display: %v", err)
	}

	metrics.Observe(&a.state)
}

func (a *Appliance) editingLine() int {
	if line, ok := a.menu.EditingLine(); ok {
		return line
	}
	return render.NoEditing
}

// applyRelay writes the relay every tick; a failed write is retried on the next one.
func (a *Appliance) applyRelay(on bool) {
	if err := a.relay.SetRelay(on); err != nil {
		if !a.relayFault {
			logrus.Errorf("Unable to drive heater relay: %v", err)
		}
		a.relayFault = true
		return
	}
	a.relayFault = false
	if on != a.state.RelayOn {
		logrus.Infof("Heater relay %s", onOff(on))
	}
	a.state.RelayOn = on
}

func (a *Appliance) applyFan(pct int) {
	if a.fanApplied && pct == a.state.FanPercent {
		return
	}
	if err := a.fan.SetDutyPercent(pct); err != nil {
		if !a.fanFault {
			logrus.Errorf("Unable to set fan duty cycle: %v", err)
		}
		a.fanFault = true
		return
	}
	a.fanFault = false
	a.fanApplied = true
	logrus.Debugf("Fan duty cycle %d%%", pct)
	a.state.FanPercent = pct
}

// Halt leaves the actuators in a safe state.
func (a *Appliance) Halt() {
	if err := a.relay.SetRelay(false); err != nil {
		logrus.Errorf("Unable to release heater relay: %v", err)
	}
	a.state.RelayOn = false
	if err := a.fan.SetDutyPercent(0); err != nil {
		logrus.Errorf("Unable to stop fan: %v", err)
	}
	a.state.FanPercent = 0
	a.fanApplied = false
}

// Snapshot is a read-only view for the outer surfaces (API, telemetry).
type Snapshot struct {
	State       model.AppState
	Selected    int
	Mode        menu.Mode
	EditingLine int
	Lines       []string
}

func (a *Appliance) Snapshot() Snapshot {
	editing := a.editingLine()
	return Snapshot{
		State:       a.state,
		Selected:    a.menu.Selected(),
		Mode:        a.menu.Mode(),
		EditingLine: editing,
		Lines:       render.Lines(a.menu.Items(), &a.state, editing),
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
