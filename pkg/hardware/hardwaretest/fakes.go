// Package hardwaretest has scriptable stand-ins for the rig's collaborators.
package hardwaretest

import (
	"time"

	"github.com/tigerbot-team/helirig/pkg/hardware"
)

type Switch struct {
	Events []hardware.SwitchEvent
}

// PollEdgeEvent pops the next queued event.
func (s *Switch) PollEdgeEvent() hardware.SwitchEvent {
	if len(s.Events) == 0 {
		return hardware.SwitchNone
	}
	e := s.Events[0]
	s.Events = s.Events[1:]
	return e
}

type Buttons struct {
	Counts [hardware.NumButtons]int
}

func (b *Buttons) Push(btn hardware.Button, n int) {
	b.Counts[btn] += n
}

func (b *Buttons) DrainPushCount(btn hardware.Button) int {
	n := b.Counts[btn]
	b.Counts[btn] = 0
	return n
}

type YawSensor struct {
	Yaw          int
	Found        bool
	Searches     int
	References   []int
	ClosestCalls int
}

func (y *YawSensor) CurrentYaw() int         { return y.Yaw }
func (y *YawSensor) ReferenceFound() bool    { return y.Found }
func (y *YawSensor) TriggerReferenceSearch() { y.Searches++ }

// ClosestReference returns the nearest entry in References, or target if there are none.
func (y *YawSensor) ClosestReference(target int) int {
	y.ClosestCalls++
	best := target
	bestDist := -1
	for _, r := range y.References {
		d := r - target
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = r, d
		}
	}
	return best
}

type HeightSensor struct {
	Height       int
	Calibrations int
	Samples      int
}

func (h *HeightSensor) CurrentHeightPercent() int { return h.Height }
func (h *HeightSensor) TriggerZeroCalibration()   { h.Calibrations++ }
func (h *HeightSensor) TriggerSample()            { h.Samples++ }

type Rotors struct {
	Duty    [2]int
	Enabled [2]bool
}

func (r *Rotors) SetDutyCycle(ch hardware.Channel, percent int) { r.Duty[ch] = percent }
func (r *Rotors) Enable(ch hardware.Channel)                    { r.Enabled[ch] = true }
func (r *Rotors) Disable(ch hardware.Channel)                   { r.Enabled[ch] = false }

// Controller records calls made by the core and by the control gate.
type Controller struct {
	Name string
	// Log is shared between controllers to check call order.
	Log *[]string

	target    int
	Resets    int
	Updates   int
	LastDT    time.Duration
	PreloadOf []int
}

func (c *Controller) record(s string) {
	if c.Log != nil {
		*c.Log = append(*c.Log, c.Name+"."+s)
	}
}

func (c *Controller) Reset() {
	c.Resets++
	c.record("reset")
}

func (c *Controller) PreloadIntegral(seed, step int) {
	c.PreloadOf = append(c.PreloadOf, seed, step)
	c.record("preload")
}

func (c *Controller) Update(dt time.Duration) {
	c.Updates++
	c.LastDT = dt
	c.record("update")
}

func (c *Controller) SetTarget(v int) { c.target = v }
func (c *Controller) Target() int     { return c.target }

// Clock is advanced by hand.
type Clock struct {
	Ticks  uint32
	Period time.Duration
}

func (c *Clock) TickCount() uint32                { return c.Ticks }
func (c *Clock) ElapsedTicks(since uint32) uint32 { return c.Ticks - since }
func (c *Clock) TickPeriod() time.Duration        { return c.Period }

// Advance moves the clock on by d, rounded down to whole ticks.
func (c *Clock) Advance(d time.Duration) {
	c.Ticks += uint32(d / c.Period)
}

var (
	_ hardware.Switch             = (*Switch)(nil)
	_ hardware.Buttons            = (*Buttons)(nil)
	_ hardware.YawSensor          = (*YawSensor)(nil)
	_ hardware.HeightSensor       = (*HeightSensor)(nil)
	_ hardware.Rotors             = (*Rotors)(nil)
	_ hardware.FeedbackController = (*Controller)(nil)
	_ hardware.Clock              = (*Clock)(nil)
)
