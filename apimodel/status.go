package apimodel

// Status is the read-only view of the appliance served by /api/status and
// published as telemetry. Invalid readings are null.
type Status struct {
	EnclosureTemperature *float64 `json:"enclosure_temperature"`
	EnclosureHumidity    *float64 `json:"enclosure_humidity"`
	CoreTemperature      *float64 `json:"core_temperature"`
	TargetTemperature    float64  `json:"target_temperature"`
	TargetFanPercent     int      `json:"target_fan_percent"`
	HeaterEnabled        bool     `json:"heater_enabled"`
	RelayOn              bool     `json:"relay_on"`
	FanPercent           int      `json:"fan_percent"`
	Menu                 Menu     `json:"menu"`
}

type Menu struct {
	Selected    int      `json:"selected"`
	Mode        string   `json:"mode"`
	EditingLine *int     `json:"editing_line,omitempty"`
	Lines       []string `json:"lines"`
}
