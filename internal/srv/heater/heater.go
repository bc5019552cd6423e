// Package heater holds the bang-bang relay policy.
package heater

import "github.com/jypelle/heatbox/internal/srv/model"

// RelayOn derives the relay state from scratch. It never heats on an unknown
// temperature.
func RelayOn(enabled bool, current model.Reading, target float64) bool {
	return enabled && current.Valid() && float64(current) < target
}
