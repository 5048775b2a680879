package mqtt

import "github.com/sweeney/microwave/internal/oven"

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Lines contains all output lines that were published.
	Lines []OutputLine

	// Events contains all oven events that were published.
	Events []oven.Event

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// Messages contains every formatted message in publish order.
	Messages []Message

	// PublishError, if set, will be returned by PublishLine and PublishEvent.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishLine records the output line.
func (f *FakePublisher) PublishLine(line OutputLine) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	m, err := FormatLine(line)
	if err != nil {
		return err
	}
	f.Lines = append(f.Lines, line)
	f.Messages = append(f.Messages, m)
	return nil
}

// PublishEvent records the oven event.
func (f *FakePublisher) PublishEvent(event oven.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	m, err := FormatEvent(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Messages = append(f.Messages, m)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	m, err := FormatSystem(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.Messages = append(f.Messages, m)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Topic returns the messages published to topic.
func (f *FakePublisher) Topic(topic string) []Message {
	var out []Message
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Reset clears recorded messages and injected errors.
func (f *FakePublisher) Reset() {
	f.Lines = nil
	f.Events = nil
	f.SystemEvents = nil
	f.Messages = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
