package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/microwave/internal/logic"
	"github.com/sweeney/microwave/internal/oven"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Oven          OvenJSON       `json:"oven"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	LastChange    string         `json:"last_change,omitempty"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"cycle_counts"`
	LastCycle     *LastCycleJSON `json:"last_cycle,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// OvenJSON is the JSON representation of the oven status.
type OvenJSON struct {
	State     string `json:"state"`
	Power     int    `json:"power"`
	Minutes   int    `json:"minutes"`
	Cooker    string `json:"cooker"`
	Door      string `json:"door"`
	Display   string `json:"display"`
	CycleID   string `json:"cycle_id,omitempty"`
	Remaining int    `json:"remaining_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cycle counts.
type CountsJSON struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// LastCycleJSON describes the most recently finished cycle.
type LastCycleJSON struct {
	ID        string `json:"id"`
	Power     int    `json:"power"`
	Seconds   int    `json:"seconds"`
	Remaining int    `json:"remaining_seconds"`
	Reason    string `json:"reason"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	LogLevel    string `json:"log_level"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	TickMs      int64  `json:"tick_ms"`
	GPIO        bool   `json:"gpio"`
	Console     bool   `json:"console"`
}

// DisplayText renders what the panel display currently shows.
func DisplayText(s oven.Status) string {
	switch s.State {
	case logic.StateSettingPower:
		return fmt.Sprintf("%d W", s.Power)
	case logic.StateSettingTime:
		return fmt.Sprintf("%02d:00", s.Minutes)
	case logic.StateCooking:
		return fmt.Sprintf("%02d:%02d", s.Remaining/60, s.Remaining%60)
	}
	return ""
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Oven.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		Oven: OvenJSON{
			State:     state,
			Power:     snap.Oven.Power,
			Minutes:   snap.Oven.Minutes,
			Cooker:    string(snap.Oven.Cooker),
			Door:      snap.Oven.Door(),
			Display:   DisplayText(snap.Oven),
			CycleID:   snap.Oven.CycleID,
			Remaining: snap.Oven.Remaining,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Started:   snap.Counts.Started,
			Completed: snap.Counts.Completed,
			Cancelled: snap.Counts.Cancelled,
		},
		Config: ConfigJSON{
			LogLevel:    snap.Config.LogLevel,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			HeartbeatMs: snap.Config.HeartbeatMs,
			TickMs:      snap.Config.TickMs,
			GPIO:        snap.Config.GPIO,
			Console:     snap.Config.Console,
		},
	}
	if !snap.LastChange.IsZero() {
		inner.LastChange = snap.LastChange.UTC().Format(time.RFC3339)
	}
	if c := snap.LastCycle; c != nil {
		inner.LastCycle = &LastCycleJSON{
			ID:        c.Cycle.ID,
			Power:     c.Cycle.Power,
			Seconds:   c.Cycle.Seconds,
			Remaining: c.Cycle.Remaining,
			Reason:    string(c.Reason),
			StartedAt: c.Cycle.StartedAt.UTC().Format(time.RFC3339),
			EndedAt:   c.EndedAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// Build returns the status document for snap.
func Build(snap Snapshot) StatusJSON {
	return StatusJSON{Status: buildInner(snap)}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(Build(snap), "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
