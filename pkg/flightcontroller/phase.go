package flightcontroller

import "fmt"

type Phase int32

const (
	Landed Phase = iota
	Init
	Flying
	Landing
	NumPhases
)

var phaseNames = [NumPhases]string{"Landed", "Init", "Flying", "Landing"}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
	return phaseNames[p]
}

// Event is something that can move the controller between phases.
type Event int

const (
	EventSwitchUp Event = iota
	EventSwitchDown
	EventCalibrated
	EventTouchdown
	NumEvents
)

func (e Event) String() string {
	switch e {
	case EventSwitchUp:
		return "switch-up"
	case EventSwitchDown:
		return "switch-down"
	case EventCalibrated:
		return "calibrated"
	case EventTouchdown:
		return "touchdown"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// transitions is the complete set of legal phase changes.
var transitions = [NumPhases][NumEvents]struct {
	to    Phase
	legal bool
}{
	Landed:  {EventSwitchUp: {Init, true}},
	Init:    {EventCalibrated: {Flying, true}},
	Flying:  {EventSwitchDown: {Landing, true}},
	Landing: {EventTouchdown: {Landed, true}},
}

// Next looks up the phase that follows from on event.  ok is false if the
// event does not move the controller out of from.
func Next(from Phase, event Event) (to Phase, ok bool) {
	if from < 0 || from >= NumPhases || event < 0 || event >= NumEvents {
		return from, false
	}
	t := transitions[from][event]
	if !t.legal {
		return from, false
	}
	return t.to, true
}
