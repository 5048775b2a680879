// Package mqtt publishes the oven's output log, state changes, cook-cycle
// lifecycle and daemon system events, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/microwave/internal/oven"
)

// Topics.
const (
	TopicOutput = "appliance/microwave/output"
	TopicState  = "appliance/microwave/state"
	TopicCycle  = "appliance/microwave/cycle"
	TopicSystem = "appliance/microwave/system"
)

// Publisher publishes microwave messages to MQTT.
// Errors are reported to the caller and should never stop the process.
type Publisher interface {
	// PublishLine sends one output log line.
	PublishLine(line OutputLine) error

	// PublishEvent sends an oven event to the state or cycle topic.
	PublishEvent(event oven.Event) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// OutputLine is a timestamped line from the output log.
type OutputLine struct {
	Timestamp time.Time
	Line      string
}

// SystemEvent represents a daemon lifecycle event (STARTUP, SHUTDOWN, HEARTBEAT).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM", "QUIT" (shutdown only)
	RawPayload []byte // pre-formatted JSON; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Message is a formatted publication.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// outputPayload is the JSON body on TopicOutput.
type outputPayload struct {
	Output struct {
		Timestamp string `json:"timestamp"`
		Line      string `json:"line"`
	} `json:"output"`
}

// FormatLine creates the message for an output line.
func FormatLine(line OutputLine) (Message, error) {
	var p outputPayload
	p.Output.Timestamp = line.Timestamp.UTC().Format(time.RFC3339)
	p.Output.Line = line.Line
	data, err := json.Marshal(p)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: TopicOutput, Payload: data}, nil
}

// StatePayload is the JSON body on TopicState.
type StatePayload struct {
	Microwave StateInner `json:"microwave"`
}

// StateInner carries the oven status.
type StateInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
	Power     int    `json:"power"`
	Minutes   int    `json:"minutes"`
	Cooker    string `json:"cooker"`
	Door      string `json:"door"`
	CycleID   string `json:"cycle_id,omitempty"`
	Remaining int    `json:"remaining_seconds"`
}

// CyclePayload is the JSON body on TopicCycle.
type CyclePayload struct {
	Cycle CycleInner `json:"cycle"`
}

// CycleInner carries one cook cycle.
type CycleInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	ID        string `json:"id"`
	Power     int    `json:"power"`
	Seconds   int    `json:"seconds"`
	Remaining int    `json:"remaining_seconds"`
	StartedAt string `json:"started_at"`
	Reason    string `json:"reason,omitempty"`
}

// FormatEvent creates the message for an oven event. State changes are
// retained so a new subscriber sees the current panel; ticks are not.
func FormatEvent(event oven.Event) (Message, error) {
	ts := event.Timestamp.UTC().Format(time.RFC3339)

	switch event.Kind {
	case oven.EventCycleStarted, oven.EventCycleEnded:
		c := event.Cycle
		data, err := json.Marshal(CyclePayload{Cycle: CycleInner{
			Timestamp: ts,
			Event:     string(event.Kind),
			ID:        c.ID,
			Power:     c.Power,
			Seconds:   c.Seconds,
			Remaining: c.Remaining,
			StartedAt: c.StartedAt.UTC().Format(time.RFC3339),
			Reason:    string(event.Reason),
		}})
		if err != nil {
			return Message{}, err
		}
		return Message{Topic: TopicCycle, QoS: 1, Payload: data}, nil
	}

	s := event.Status
	data, err := json.Marshal(StatePayload{Microwave: StateInner{
		Timestamp: ts,
		Event:     string(event.Kind),
		State:     string(s.State),
		Power:     s.Power,
		Minutes:   s.Minutes,
		Cooker:    string(s.Cooker),
		Door:      s.Door(),
		CycleID:   s.CycleID,
		Remaining: s.Remaining,
	}})
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: TopicState, Retained: event.Kind == oven.EventState, Payload: data}, nil
}

// SystemPayload is the JSON body for simple system events (LWT) that don't
// carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{System: SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}

// FormatSystem creates the message for a system event.
func FormatSystem(event SystemEvent) (Message, error) {
	data, err := FormatSystemPayload(event)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: TopicSystem, QoS: 1, Retained: event.Retained, Payload: data}, nil
}

// WillPayload is the last-will message the broker publishes if the daemon
// disappears without a clean shutdown.
func WillPayload(at time.Time) []byte {
	data, _ := FormatSystemPayload(SystemEvent{Timestamp: at, Event: "OFFLINE", Reason: "CONNECTION_LOST"})
	return data
}
