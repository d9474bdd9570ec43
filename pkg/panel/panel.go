// Package panel turns joystick events into the rig's operator inputs: the
// flight mode slide switch and the four push buttons.
package panel

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/joystick"
)

type Panel struct {
	pushes [hardware.NumButtons]atomic.Int32

	lock     sync.Mutex
	switchUp bool
	pending  hardware.SwitchEvent
	dpadX    int16
	dpadY    int16
}

var _ hardware.Switch = (*Panel)(nil)
var _ hardware.Buttons = (*Panel)(nil)

func New() *Panel {
	return &Panel{}
}

func (p *Panel) OnJoystickEvent(event *joystick.Event) {
	if event.Initial {
		// The kernel reports the resting state on open; it isn't a press.
		p.lock.Lock()
		if event.Type == joystick.EventTypeAxis {
			p.recordAxis(event.Number, event.Value)
		}
		p.lock.Unlock()
		return
	}

	switch event.Type {
	case joystick.EventTypeButton:
		if event.Value != 1 {
			return
		}
		switch event.Number {
		case joystick.ButtonTriangle:
			p.SetSwitch(true)
		case joystick.ButtonCross:
			p.SetSwitch(false)
		}
	case joystick.EventTypeAxis:
		p.lock.Lock()
		pressed, ok := p.recordAxis(event.Number, event.Value)
		p.lock.Unlock()
		if ok {
			p.Push(pressed)
		}
	}
}

// recordAxis tracks the D-pad state and returns the button that went from
// released to pressed, if any.  Caller holds the lock.
func (p *Panel) recordAxis(number uint8, value int16) (hardware.Button, bool) {
	var last *int16
	var neg, pos hardware.Button
	switch number {
	case joystick.AxisDPadX:
		last, neg, pos = &p.dpadX, hardware.ButtonLeft, hardware.ButtonRight
	case joystick.AxisDPadY:
		last, neg, pos = &p.dpadY, hardware.ButtonUp, hardware.ButtonDown
	default:
		return 0, false
	}
	prev := *last
	*last = value
	if prev != 0 {
		return 0, false
	}
	switch {
	case value < 0:
		return neg, true
	case value > 0:
		return pos, true
	}
	return 0, false
}

// Push counts one press of b.
func (p *Panel) Push(b hardware.Button) {
	if b >= hardware.NumButtons {
		return
	}
	n := p.pushes[b].Add(1)
	fmt.Printf("PANEL: %v pushed (%d pending)\n", b, n)
}

// SetSwitch moves the slide switch.  An edge is only latched when the position
// changes; the latest edge wins if the controller hasn't polled yet.
func (p *Panel) SetSwitch(up bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.switchUp == up {
		return
	}
	p.switchUp = up
	if up {
		p.pending = hardware.SwitchUp
	} else {
		p.pending = hardware.SwitchDown
	}
	fmt.Println("PANEL: switch", p.pending)
}

func (p *Panel) PollEdgeEvent() hardware.SwitchEvent {
	p.lock.Lock()
	defer p.lock.Unlock()
	e := p.pending
	p.pending = hardware.SwitchNone
	return e
}

func (p *Panel) DrainPushCount(b hardware.Button) int {
	if b >= hardware.NumButtons {
		return 0
	}
	return int(p.pushes[b].Swap(0))
}
