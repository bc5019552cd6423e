package telemetry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jypelle/heatbox/apimodel"
)

var at = time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))

func TestFormatPayload(t *testing.T) {
	temp := 42.5
	payload, err := FormatPayload(at, &apimodel.Status{EnclosureTemperature: &temp, RelayOn: true})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["timestamp"] != "2026-03-14T08:26:53Z" {
		t.Errorf("expected UTC timestamp, got %v", decoded["timestamp"])
	}
	status := decoded["status"].(map[string]interface{})
	if status["enclosure_temperature"] != 42.5 || status["relay_on"] != true {
		t.Errorf("unexpected status %v", status)
	}
	if v, ok := status["core_temperature"]; !ok || v != nil {
		t.Errorf("expected null core temperature, got %v", v)
	}
}

func TestAvailabilityTopic(t *testing.T) {
	if got := AvailabilityTopic("heatbox/status"); got != "heatbox/status/availability" {
		t.Errorf("unexpected topic %s", got)
	}
}

func TestOfferKeepsNewest(t *testing.T) {
	r := NewReporter(NewFakePublisher(), "heatbox/status")
	for i := 1; i <= 3; i++ {
		r.Offer(at, &apimodel.Status{FanPercent: i * 10})
	}
	if len(r.mailbox) != 1 {
		t.Fatalf("expected one pending snapshot, got %d", len(r.mailbox))
	}
	if s := <-r.mailbox; s.status.FanPercent != 30 {
		t.Errorf("expected the newest snapshot, got fan %d", s.status.FanPercent)
	}
}

func waitAttempt(t *testing.T, pub *FakePublisher) {
	t.Helper()
	select {
	case <-pub.Attempts:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a publish")
	}
}

func TestReporterPublishes(t *testing.T) {
	pub := NewFakePublisher()
	r := NewReporter(pub, "heatbox/status")
	r.Start()

	r.Offer(at, &apimodel.Status{TargetFanPercent: 50})
	waitAttempt(t, pub)
	r.Stop()

	sent := pub.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	if sent[0].Topic != "heatbox/status" || sent[0].Retained {
		t.Errorf("unexpected message %+v", sent[0])
	}
	var p Payload
	if err := json.Unmarshal(sent[0].Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Status.TargetFanPercent != 50 {
		t.Errorf("expected fan target 50, got %d", p.Status.TargetFanPercent)
	}
	if !pub.Closed {
		t.Error("expected the publisher to be closed on stop")
	}
}

func TestReporterSurvivesPublishErrors(t *testing.T) {
	pub := NewFakePublisher()
	pub.SetPublishError(errors.New("broker down"))
	r := NewReporter(pub, "heatbox/status")
	r.Start()

	r.Offer(at, &apimodel.Status{})
	waitAttempt(t, pub)
	pub.SetPublishError(nil)

	r.Offer(at, &apimodel.Status{RelayOn: true})
	waitAttempt(t, pub)
	r.Stop()

	sent := pub.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message after recovery, got %d", len(sent))
	}
}
