package telemetry

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client       paho.Client
	availability string
}

// NewRealPublisher connects to broker. The broker keeps an offline availability
// message as last will.
func NewRealPublisher(broker, clientId, topic string) (*RealPublisher, error) {
	availability := AvailabilityTopic(topic)
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientId).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(availability, Offline, 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			logrus.Infof("Connected to mqtt broker %s", broker)
			c.Publish(availability, 1, true, Online)
		}).
		SetConnectionLostHandler(func(c paho.Client, err error) {
			logrus.Warnf("Lost connection to mqtt broker: %v", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// stop the background retries
		client.Disconnect(0)
		return nil, fmt.Errorf("connection to %s timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{client: client, availability: availability}, nil
}

func (p *RealPublisher) Publish(topic string, payload []byte, retained bool) error {
	// QoS 0, a lost snapshot is replaced by the next one
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close marks the appliance offline and disconnects.
func (p *RealPublisher) Close() error {
	token := p.client.Publish(p.availability, 1, true, Offline)
	if !token.WaitTimeout(2 * time.Second) {
		logrus.Warnf("Unable to publish offline state: timeout")
	}
	p.client.Disconnect(1000) // 1 second
	return nil
}
