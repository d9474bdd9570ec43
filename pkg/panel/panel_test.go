package panel

import (
	"testing"

	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/joystick"
)

func axis(n uint8, v int16) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeAxis, Number: n, Value: v}
}

func button(n uint8, v int16) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeButton, Number: n, Value: v}
}

func TestDPadCountsPresses(t *testing.T) {
	p := New()
	for i := 0; i < 3; i++ {
		p.OnJoystickEvent(axis(joystick.AxisDPadY, -32767))
		p.OnJoystickEvent(axis(joystick.AxisDPadY, 0))
	}
	p.OnJoystickEvent(axis(joystick.AxisDPadY, 32767))
	p.OnJoystickEvent(axis(joystick.AxisDPadX, 32767))
	// Held; repeated reports don't count again.
	p.OnJoystickEvent(axis(joystick.AxisDPadX, 32767))
	p.OnJoystickEvent(axis(joystick.AxisDPadX, 0))
	p.OnJoystickEvent(axis(joystick.AxisDPadX, -32767))

	for _, tc := range []struct {
		b    hardware.Button
		want int
	}{
		{hardware.ButtonUp, 3},
		{hardware.ButtonDown, 1},
		{hardware.ButtonLeft, 1},
		{hardware.ButtonRight, 1},
	} {
		if got := p.DrainPushCount(tc.b); got != tc.want {
			t.Errorf("%v: got %d pushes, want %d", tc.b, got, tc.want)
		}
		if got := p.DrainPushCount(tc.b); got != 0 {
			t.Errorf("%v: count not zeroed by drain, got %d", tc.b, got)
		}
	}
}

func TestInitialEventsAreNotPresses(t *testing.T) {
	p := New()
	e := axis(joystick.AxisDPadY, -32767)
	e.Initial = true
	p.OnJoystickEvent(e)
	b := button(joystick.ButtonTriangle, 1)
	b.Initial = true
	p.OnJoystickEvent(b)

	if got := p.DrainPushCount(hardware.ButtonUp); got != 0 {
		t.Fatalf("initial axis state counted as %d pushes", got)
	}
	if got := p.PollEdgeEvent(); got != hardware.SwitchNone {
		t.Fatalf("initial button produced edge %v", got)
	}
	// The pad was already held, so releasing and pressing again is one push.
	p.OnJoystickEvent(axis(joystick.AxisDPadY, 0))
	p.OnJoystickEvent(axis(joystick.AxisDPadY, -32767))
	if got := p.DrainPushCount(hardware.ButtonUp); got != 1 {
		t.Fatalf("got %d pushes, want 1", got)
	}
}

func TestSwitchEdges(t *testing.T) {
	p := New()
	if got := p.PollEdgeEvent(); got != hardware.SwitchNone {
		t.Fatalf("fresh panel has edge %v", got)
	}
	p.OnJoystickEvent(button(joystick.ButtonCross, 1))
	if got := p.PollEdgeEvent(); got != hardware.SwitchNone {
		t.Fatalf("switch already down, got edge %v", got)
	}

	p.OnJoystickEvent(button(joystick.ButtonTriangle, 1))
	p.OnJoystickEvent(button(joystick.ButtonTriangle, 0))
	if got := p.PollEdgeEvent(); got != hardware.SwitchUp {
		t.Fatalf("got %v, want up", got)
	}
	if got := p.PollEdgeEvent(); got != hardware.SwitchNone {
		t.Fatalf("edge not consumed, got %v", got)
	}

	p.SetSwitch(false)
	if got := p.PollEdgeEvent(); got != hardware.SwitchDown {
		t.Fatalf("got %v, want down", got)
	}
}

func TestPushOutOfRangeIgnored(t *testing.T) {
	p := New()
	p.Push(hardware.NumButtons)
	if got := p.DrainPushCount(hardware.NumButtons); got != 0 {
		t.Fatalf("got %d", got)
	}
}
