package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

// Pad mappings used on the rig's controller (a DS4 through the kernel js driver):
//
//	Cross     = 0   switch down (land)
//	Triangle  = 2   switch up (take off)
//	D-pad u/d = axis 7 (up = -32767; down = +32767)
//	      l/r = axis 6 (left = -32767; right = +32767)
const (
	ButtonCross    = 0
	ButtonTriangle = 2

	AxisDPadX = 6
	AxisDPadY = 7
)

type EventType uint8

const (
	EventTypeButton EventType = 1
	EventTypeAxis   EventType = 2
	// Synthetic events sent once per control on open.
	eventTypeInit = 0x80
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Event struct {
	Time    time.Time
	Value   int16
	Type    EventType
	Number  uint8
	Initial bool
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Joystick struct {
	device *os.File

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

func Open(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return &Joystick{device: f}, nil
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var raw rawEvent
	if err := binary.Read(j.device, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}
	return j.decode(raw), nil
}

func (j *Joystick) decode(raw rawEvent) *Event {
	if j.deviceEpoch == 0 {
		j.deviceEpoch = raw.Time
		j.wallclockEpoch = time.Now()
	}
	return &Event{
		Time:    j.wallclockEpoch.Add(time.Duration(raw.Time-j.deviceEpoch) * time.Millisecond),
		Value:   raw.Value,
		Type:    EventType(raw.Type &^ eventTypeInit),
		Number:  raw.Number,
		Initial: raw.Type&eventTypeInit != 0,
	}
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// WaitForDevice keeps trying to open device until it appears or ctx is done.
func WaitForDevice(ctx context.Context, device string) (*Joystick, error) {
	firstLog := true
	for {
		j, err := Open(device)
		if err == nil {
			fmt.Println("Opened joystick", device)
			return j, nil
		}
		if firstLog {
			fmt.Printf("Waiting for joystick: %v.\n", err)
			firstLog = false
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// ReadLoop sends events to the channel until the device fails or ctx is
// done.  It closes both the channel and the device on the way out.
func (j *Joystick) ReadLoop(ctx context.Context, events chan<- *Event) error {
	defer close(events)
	defer j.Close()
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			fmt.Printf("Failed to read from joystick: %v.\n", err)
			return err
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}
