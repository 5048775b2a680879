package logic

// NewPanel returns a panel at rest in the Ready state.
func NewPanel() Panel {
	return Panel{
		State: StateReady,
		Power: BasePower,
	}
}

// Step applies one input and returns the next panel and the effects to issue.
// Every input/state pair has a defined outcome; pairs not listed in the
// transition table return the panel unchanged with no effects.
func (p Panel) Step(in Input) (Panel, []Effect) {
	switch in.Kind {
	case InputPowerPressed:
		return p.powerPressed()
	case InputTimePressed:
		return p.timePressed()
	case InputStartCancelPressed:
		return p.startCancelPressed()
	case InputDoorOpened:
		return p.doorOpened()
	case InputDoorClosed:
		return p.doorClosed()
	case InputCookTick:
		return p.cookTick(in.Remaining)
	case InputCookCompleted:
		return p.cookCompleted()
	}
	return p, nil
}

func (p Panel) powerPressed() (Panel, []Effect) {
	switch p.State {
	case StateReady:
		p.Power = BasePower
	case StateSettingPower:
		p.Power = nextPower(p.Power)
	default:
		return p, nil
	}
	p.State = StateSettingPower
	return p, []Effect{{Kind: EffectShowPower, Power: p.Power}}
}

func (p Panel) timePressed() (Panel, []Effect) {
	if p.State != StateSettingPower && p.State != StateSettingTime {
		return p, nil
	}
	p.Minutes++
	p.State = StateSettingTime
	return p, []Effect{{Kind: EffectShowTime, Minutes: p.Minutes}}
}

func (p Panel) startCancelPressed() (Panel, []Effect) {
	switch p.State {
	case StateSettingTime:
		p.State = StateCooking
		return p, []Effect{
			{Kind: EffectLightOn},
			{Kind: EffectStartCooking, Power: p.Power, Minutes: p.Minutes},
		}
	case StateReady, StateSettingPower:
		return reset(StateReady), []Effect{{Kind: EffectClearDisplay}}
	case StateCooking:
		return reset(StateReady), []Effect{
			{Kind: EffectStopCooking},
			{Kind: EffectClearDisplay},
			{Kind: EffectLightOff},
		}
	}
	return p, nil
}

func (p Panel) doorOpened() (Panel, []Effect) {
	switch p.State {
	case StateDoorOpen:
		return p, nil
	case StateCooking:
		// The tube must be off before anything else is commanded.
		return reset(StateDoorOpen), []Effect{
			{Kind: EffectStopCooking},
			{Kind: EffectLightOn},
			{Kind: EffectClearDisplay},
		}
	}
	return reset(StateDoorOpen), []Effect{
		{Kind: EffectLightOn},
		{Kind: EffectClearDisplay},
	}
}

func (p Panel) doorClosed() (Panel, []Effect) {
	if p.State != StateDoorOpen {
		return p, nil
	}
	return reset(StateReady), []Effect{{Kind: EffectLightOff}}
}

func (p Panel) cookTick(remaining int) (Panel, []Effect) {
	if p.State != StateCooking {
		return p, nil
	}
	if remaining < 0 {
		remaining = 0
	}
	return p, []Effect{{Kind: EffectShowTime, Minutes: remaining / 60, Seconds: remaining % 60}}
}

func (p Panel) cookCompleted() (Panel, []Effect) {
	if p.State != StateCooking {
		return p, nil
	}
	return reset(StateReady), []Effect{
		{Kind: EffectClearDisplay},
		{Kind: EffectLightOff},
	}
}

// reset discards pending power/time selections.
func reset(state UIState) Panel {
	p := NewPanel()
	p.State = state
	return p
}

// nextPower advances one step and wraps back to BasePower past MaxPower.
func nextPower(current int) int {
	if current >= MaxPower {
		return BasePower
	}
	return current + PowerStep
}
