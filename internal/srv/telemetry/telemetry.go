// Package telemetry publishes appliance status snapshots to an MQTT broker.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/jypelle/heatbox/apimodel"
)

// Publisher sends payloads to the broker.
type Publisher interface {
	// Publish sends payload on topic. A failure must not stop the appliance.
	Publish(topic string, payload []byte, retained bool) error

	// Close disconnects from the broker.
	Close() error
}

const (
	Online  = "online"
	Offline = "offline"
)

// AvailabilityTopic carries the retained online/offline state of the appliance.
func AvailabilityTopic(topic string) string {
	return topic + "/availability"
}

type Payload struct {
	Timestamp string           `json:"timestamp"`
	Status    *apimodel.Status `json:"status"`
}

func FormatPayload(at time.Time, status *apimodel.Status) ([]byte, error) {
	return json.Marshal(Payload{
		Timestamp: at.UTC().Format(time.RFC3339),
		Status:    status,
	})
}
