package telemetry

import "sync"

type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	lock sync.Mutex

	// Messages contains everything that was published.
	Messages []Message

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Attempts receives a value after each publish attempt when not nil.
	Attempts chan struct{}
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Attempts: make(chan struct{}, 100)}
}

func (f *FakePublisher) Publish(topic string, payload []byte, retained bool) error {
	if f.Attempts != nil {
		defer func() { f.Attempts <- struct{}{} }()
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

func (f *FakePublisher) SetPublishError(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.PublishError = err
}

func (f *FakePublisher) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Closed = true
	return nil
}

// Sent returns a copy of the recorded messages.
func (f *FakePublisher) Sent() []Message {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]Message(nil), f.Messages...)
}
