package telemetry

import (
	"time"

	"github.com/jypelle/heatbox/apimodel"
	"github.com/sirupsen/logrus"
)

type snapshot struct {
	at     time.Time
	status *apimodel.Status
}

// Reporter publishes snapshots from its own goroutine so a slow broker never
// delays the control loop. Only the newest pending snapshot is kept.
type Reporter struct {
	publisher Publisher
	topic     string

	mailbox chan snapshot
	failing bool

	askDone chan bool
	done    chan bool
}

func NewReporter(publisher Publisher, topic string) *Reporter {
	return &Reporter{
		publisher: publisher,
		topic:     topic,
		mailbox:   make(chan snapshot, 1),
		askDone:   make(chan bool),
		done:      make(chan bool),
	}
}

// Offer queues status for publication, replacing a snapshot still waiting.
// It never blocks.
func (r *Reporter) Offer(at time.Time, status *apimodel.Status) {
	s := snapshot{at: at, status: status}
	select {
	case r.mailbox <- s:
		return
	default:
	}
	select {
	case <-r.mailbox:
	default:
	}
	select {
	case r.mailbox <- s:
	default:
	}
}

func (r *Reporter) Start() {
	logrus.Infof("Start telemetry reporter")
	go func() {
		for loop := true; loop; {
			select {
			case s := <-r.mailbox:
				r.publish(s)
			case <-r.askDone:
				loop = false
			}
		}
		r.done <- true
	}()
}

func (r *Reporter) publish(s snapshot) {
	payload, err := FormatPayload(s.at, s.status)
	if err != nil {
		logrus.Warnf("Unable to format telemetry payload: %v", err)
		return
	}
	if err := r.publisher.Publish(r.topic, payload, false); err != nil {
		if !r.failing {
			logrus.Warnf("Unable to publish telemetry: %v", err)
		}
		r.failing = true
		return
	}
	if r.failing {
		logrus.Infof("Telemetry publishing resumed")
	}
	r.failing = false
}

func (r *Reporter) Stop() {
	logrus.Infof("Stop telemetry reporter")
	r.askDone <- true
	<-r.done
	if err := r.publisher.Close(); err != nil {
		logrus.Warnf("Unable to close telemetry publisher: %v", err)
	}
}
