package appliance

import (
	"github.com/jypelle/heatbox/apimodel"
	"github.com/jypelle/heatbox/internal/srv/model"
	"github.com/jypelle/heatbox/internal/srv/render"
)

// Status converts the snapshot to its API representation.
func (s Snapshot) Status() *apimodel.Status {
	status := &apimodel.Status{
		EnclosureTemperature: readingPtr(s.State.Readings.EnclosureTemp),
		EnclosureHumidity:    readingPtr(s.State.Readings.EnclosureHumidity),
		CoreTemperature:      readingPtr(s.State.Readings.CoreTemp),
		TargetTemperature:    s.State.Setpoints.TargetTemperature,
		TargetFanPercent:     s.State.Setpoints.TargetFanPercent,
		HeaterEnabled:        s.State.HeaterEnabled,
		RelayOn:              s.State.RelayOn,
		FanPercent:           s.State.FanPercent,
		Menu: apimodel.Menu{
			Selected: s.Selected,
			Mode:     s.Mode.String(),
			Lines:    s.Lines,
		},
	}
	if s.EditingLine != render.NoEditing {
		line := s.EditingLine
		status.Menu.EditingLine = &line
	}
	return status
}

func readingPtr(r model.Reading) *float64 {
	if !r.Valid() {
		return nil
	}
	v := float64(r)
	return &v
}
