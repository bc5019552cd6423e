// Package metrics exposes the appliance state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/jypelle/heatbox/internal/srv/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "heatbox"

// Sensor label values
const (
	EnclosureTemp     = "enclosure_temperature"
	EnclosureHumidity = "enclosure_humidity"
	CoreTemp          = "core_temperature"
)

var (
	reading = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sensor",
		Name:      "reading",
		Help:      "Last valid sensor reading (celsius or percent)",
	}, []string{"sensor"})

	readingValid = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sensor",
		Name:      "valid",
		Help:      "1 when the last sensor read succeeded",
	}, []string{"sensor"})

	sensorPresent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sensor",
		Name:      "present",
		Help:      "1 when the sensor device is attached",
	}, []string{"sensor"})

	readFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sensor",
		Name:      "read_failures_total",
		Help:      "Failed sensor reads",
	}, []string{"sensor"})

	targetTemperature = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "target_temperature_celsius",
		Help:      "Target enclosure temperature",
	})

	heaterEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "heater_enabled",
		Help:      "1 when the heater is enabled from the menu",
	})

	relayOn = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "relay_on",
		Help:      "1 when the heater relay is closed",
	})

	fanDuty = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fan_duty_percent",
		Help:      "Fan PWM duty cycle",
	})
)

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func observeReading(sensor string, r model.Reading) {
	readingValid.WithLabelValues(sensor).Set(boolToFloat(r.Valid()))
	if r.Valid() {
		reading.WithLabelValues(sensor).Set(float64(r))
	}
}

// Observe publishes a copy of the appliance state.
func Observe(s *model.AppState) {
	observeReading(EnclosureTemp, s.Readings.EnclosureTemp)
	observeReading(EnclosureHumidity, s.Readings.EnclosureHumidity)
	observeReading(CoreTemp, s.Readings.CoreTemp)
	targetTemperature.Set(s.Setpoints.TargetTemperature)
	heaterEnabled.Set(boolToFloat(s.HeaterEnabled))
	relayOn.Set(boolToFloat(s.RelayOn))
	fanDuty.Set(float64(s.FanPercent))
}

func SetSensorPresent(sensor string, present bool) {
	sensorPresent.WithLabelValues(sensor).Set(boolToFloat(present))
}

func IncReadFailure(sensor string) {
	readFailures.WithLabelValues(sensor).Inc()
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
