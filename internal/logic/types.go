// Package logic contains the pure control-panel state machine of the oven.
// This package has NO external dependencies (no clock, GPIO, MQTT or I/O).
// Every transition is a value-in, value-out function so it can be tested
// without live event dispatch.
package logic

import "time"

// UIState is the state of the user-facing control panel.
type UIState string

const (
	StateReady        UIState = "READY"
	StateSettingPower UIState = "SETTING_POWER"
	StateSettingTime  UIState = "SETTING_TIME"
	StateDoorOpen     UIState = "DOOR_OPEN"
	StateCooking      UIState = "COOKING"
)

// CookerState is the state of the cook-cycle controller.
type CookerState string

const (
	CookerIdle   CookerState = "IDLE"
	CookerActive CookerState = "ACTIVE"
)

// Power levels in watts.
const (
	BasePower = 50
	PowerStep = 50
	MaxPower  = 700
)

// InputKind identifies a notification delivered to the control panel.
type InputKind string

const (
	InputPowerPressed       InputKind = "POWER_PRESSED"
	InputTimePressed        InputKind = "TIME_PRESSED"
	InputStartCancelPressed InputKind = "START_CANCEL_PRESSED"
	InputDoorOpened         InputKind = "DOOR_OPENED"
	InputDoorClosed         InputKind = "DOOR_CLOSED"
	InputCookTick           InputKind = "COOK_TICK"
	InputCookCompleted      InputKind = "COOK_COMPLETED"
)

// Input is a single notification. Remaining is only meaningful for InputCookTick.
type Input struct {
	Kind      InputKind
	Remaining int // seconds left in the cycle
}

// EffectKind identifies a command issued as a result of a transition.
type EffectKind string

const (
	EffectShowPower    EffectKind = "SHOW_POWER"
	EffectShowTime     EffectKind = "SHOW_TIME"
	EffectClearDisplay EffectKind = "CLEAR_DISPLAY"
	EffectLightOn      EffectKind = "LIGHT_ON"
	EffectLightOff     EffectKind = "LIGHT_OFF"
	EffectStartCooking EffectKind = "START_COOKING"
	EffectStopCooking  EffectKind = "STOP_COOKING"
)

// Effect is a command to be issued, in order, after a transition.
type Effect struct {
	Kind    EffectKind
	Power   int // watts (ShowPower, StartCooking)
	Minutes int // ShowTime, StartCooking
	Seconds int // ShowTime
}

// Panel is the complete state of the control panel.
type Panel struct {
	State   UIState
	Power   int // selected power in watts
	Minutes int // selected cook duration
}

// EndReason explains why a cook cycle ended.
type EndReason string

const (
	EndCompleted EndReason = "COMPLETED"
	EndCancelled EndReason = "CANCELLED"
)

// CookCycle is one run from StartCooking to expiry or Stop.
type CookCycle struct {
	ID        string
	Power     int
	Seconds   int // total duration
	Remaining int
	StartedAt time.Time
}
