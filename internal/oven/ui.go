package oven

import "github.com/sweeney/microwave/internal/logic"

// UserInterface runs the control-panel state machine and turns its effects
// into display, light and cooker commands. It is not safe for concurrent
// use; the Oven serializes every call.
type UserInterface struct {
	panel   logic.Panel
	display Display
	light   Light
	cooker  Cooker
}

// NewUserInterface creates a UI at rest in Ready.
func NewUserInterface(display Display, light Light, cooker Cooker) *UserInterface {
	return &UserInterface{
		panel:   logic.NewPanel(),
		display: display,
		light:   light,
		cooker:  cooker,
	}
}

// Panel returns the current panel state.
func (u *UserInterface) Panel() logic.Panel {
	return u.panel
}

// State returns the current UI state.
func (u *UserInterface) State() logic.UIState {
	return u.panel.State
}

// Handle runs one input to completion.
func (u *UserInterface) Handle(in logic.Input) {
	next, effects := u.panel.Step(in)
	u.panel = next
	for _, e := range effects {
		u.apply(e)
	}
}

func (u *UserInterface) apply(e logic.Effect) {
	switch e.Kind {
	case logic.EffectShowPower:
		u.display.ShowPower(e.Power)
	case logic.EffectShowTime:
		u.display.ShowTime(e.Minutes, e.Seconds)
	case logic.EffectClearDisplay:
		u.display.Clear()
	case logic.EffectLightOn:
		u.light.TurnOn()
	case logic.EffectLightOff:
		u.light.TurnOff()
	case logic.EffectStartCooking:
		u.cooker.StartCooking(e.Power, e.Minutes)
	case logic.EffectStopCooking:
		u.cooker.Stop()
	}
}

// The On* methods drive a UserInterface used without an Oven. The Oven
// routes inputs through Handle itself so it can track the door and report
// state changes.

// OnPowerPressed steps the power selection.
func (u *UserInterface) OnPowerPressed() {
	u.Handle(logic.Input{Kind: logic.InputPowerPressed})
}

// OnTimePressed adds one minute to the selected duration.
func (u *UserInterface) OnTimePressed() {
	u.Handle(logic.Input{Kind: logic.InputTimePressed})
}

// OnStartCancelPressed starts cooking from SettingTime and cancels elsewhere.
func (u *UserInterface) OnStartCancelPressed() {
	u.Handle(logic.Input{Kind: logic.InputStartCancelPressed})
}

// OnDoorOpened stops any cycle and lights the cavity.
func (u *UserInterface) OnDoorOpened() {
	u.Handle(logic.Input{Kind: logic.InputDoorOpened})
}

// OnDoorClosed returns an open panel to Ready.
func (u *UserInterface) OnDoorClosed() {
	u.Handle(logic.Input{Kind: logic.InputDoorClosed})
}

// CookTick refreshes the displayed remaining time.
func (u *UserInterface) CookTick(remaining int) {
	u.Handle(logic.Input{Kind: logic.InputCookTick, Remaining: remaining})
}

// CookCompleted returns the panel to Ready after natural expiry.
func (u *UserInterface) CookCompleted() {
	u.Handle(logic.Input{Kind: logic.InputCookCompleted})
}
