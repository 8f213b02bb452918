package mealtime

import (
	"time"

	"digimess/internal/menu"
)

// State classifies a meal relative to the current time.
type State string

const (
	Past   State = "past"
	Active State = "active"
	Future State = "future"
)

// SlotState pairs a meal with its state.
type SlotState struct {
	Slot  menu.MealSlot `json:"slot"`
	State State         `json:"state"`
}

// States classifies every window in order. When no meal is being served the
// next one to be served is marked active. After the last window closes all
// meals are past and none is active.
func States(now time.Time, windows []menu.MealWindow) []SlotState {
	minutes := now.Hour()*60 + now.Minute()

	out := make([]SlotState, len(windows))
	anyActive := false
	for i, w := range windows {
		state := Future
		switch {
		case minutes >= w.Start && minutes <= w.End:
			state = Active
			anyActive = true
		case minutes > w.End:
			state = Past
		}
		out[i] = SlotState{Slot: w.Slot, State: state}
	}

	if !anyActive {
		for i := range out {
			if out[i].State == Future {
				out[i].State = Active
				break
			}
		}
	}
	return out
}

// ActiveSlot returns the highlighted meal, if any.
func ActiveSlot(states []SlotState) (menu.MealSlot, bool) {
	for _, s := range states {
		if s.State == Active {
			return s.Slot, true
		}
	}
	return "", false
}

// StateOf returns the state of one meal.
func StateOf(states []SlotState, slot menu.MealSlot) State {
	for _, s := range states {
		if s.Slot == slot {
			return s.State
		}
	}
	return Future
}
