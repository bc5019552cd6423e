package srv

import (
	"fmt"
	"time"

	"github.com/jypelle/heatbox/internal/srv/event"
	"github.com/sirupsen/logrus"
)

func (s *ServerApp) eventLoop() {
	for loop := true; loop; {
		select {
		case now := <-s.loopTicker.C:
			s.tick(now)
		case ev := <-s.apiEvents():
			s.handleApiEvent(ev)
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.appliance.Halt()
	s.eventLoopDone <- true
}

func (s *ServerApp) tick(now time.Time) {
	s.appliance.Tick(now)

	if s.reporter != nil && now.Sub(s.lastReport) >= s.TelemetryInterval() {
		s.lastReport = now
		s.reporter.Offer(now, s.appliance.Snapshot().Status())
	}
}

// apiEvents is nil, and never ready, when the api is disabled.
func (s *ServerApp) apiEvents() chan event.ApiEvent {
	if s.apiDevice == nil {
		return nil
	}
	return s.apiDevice.EventChannel()
}

func (s *ServerApp) handleApiEvent(ev event.ApiEvent) {
	switch data := ev.Data.(type) {
	case event.ApiEventStatusData:
		ev.Result <- event.ApiResult{Status: s.appliance.Snapshot().Status()}
	case event.ApiEventKnobRotateData:
		logrus.Debugf("Receive virtual knob rotation: %d", data.Detents)
		s.encoder.Turn(data.Detents)
		ev.Result <- event.ApiResult{}
	case event.ApiEventKnobPressData:
		logrus.Debugf("Receive virtual knob press")
		s.encoder.Press()
		ev.Result <- event.ApiResult{}
	default:
		ev.Result <- event.ApiResult{Err: fmt.Errorf("unexpected api event %T", ev.Data)}
	}
}
