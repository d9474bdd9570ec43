package hardware

import "time"

// SwitchEvent is an edge seen on the flight mode slide switch since the last poll.
type SwitchEvent uint8

const (
	SwitchNone SwitchEvent = iota
	SwitchUp
	SwitchDown
)

func (e SwitchEvent) String() string {
	switch e {
	case SwitchUp:
		return "up"
	case SwitchDown:
		return "down"
	default:
		return "none"
	}
}

type Button uint8

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	NumButtons
)

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	default:
		return "unknown"
	}
}

type Channel uint8

const (
	Main Channel = iota
	Tail
)

func (c Channel) String() string {
	if c == Main {
		return "main"
	}
	return "tail"
}

type Switch interface {
	PollEdgeEvent() SwitchEvent
}

type Buttons interface {
	// DrainPushCount returns the pushes of one button since the last drain and zeroes the count.
	DrainPushCount(b Button) int
}

type YawSensor interface {
	CurrentYaw() int
	ReferenceFound() bool
	TriggerReferenceSearch()
	// ClosestReference returns the known reference angle nearest to target, in degrees.
	ClosestReference(target int) int
}

type HeightSensor interface {
	CurrentHeightPercent() int
	// TriggerZeroCalibration blocks for a single conversion and records it as zero height.
	TriggerZeroCalibration()
	TriggerSample()
}

type Rotors interface {
	SetDutyCycle(ch Channel, percent int)
	Enable(ch Channel)
	Disable(ch Channel)
}

// FeedbackController is the per-axis control law. Target may be read from the
// periodic context while the foreground context calls SetTarget.
type FeedbackController interface {
	Reset()
	PreloadIntegral(seed, step int)
	Update(dt time.Duration)
	SetTarget(v int)
	Target() int
}

// Clock is a monotonic tick source.  ElapsedTicks must cope with the counter wrapping.
type Clock interface {
	TickCount() uint32
	ElapsedTicks(since uint32) uint32
	TickPeriod() time.Duration
}
