package mqtt

import "github.com/sweeney/microwave/internal/oven"

// NopPublisher discards everything. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLine(OutputLine) error    { return nil }
func (NopPublisher) PublishEvent(oven.Event) error   { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error                    { return nil }
func (NopPublisher) IsConnected() bool               { return false }
