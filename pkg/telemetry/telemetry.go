// Package telemetry streams controller status out of the rig: one text line
// per sample on the UART and JSON frames to any websocket clients.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
)

type StatusFunc func() flightcontroller.Status

type Frame struct {
	Phase        string `json:"phase"`
	Stage        string `json:"stage,omitempty"`
	HeightTarget int    `json:"height_target"`
	YawTarget    int    `json:"yaw_target"`
	Height       int    `json:"height"`
	Yaw          int    `json:"yaw"`
	Gate         bool   `json:"gate"`
	Ticks        uint32 `json:"ticks"`
}

func NewFrame(s flightcontroller.Status) Frame {
	f := Frame{
		Phase:        s.Phase.String(),
		HeightTarget: s.HeightTarget,
		YawTarget:    s.YawTarget,
		Height:       s.Height,
		Yaw:          s.Yaw,
		Gate:         s.GateEnabled,
		Ticks:        s.Ticks,
	}
	if s.Phase == flightcontroller.Landing {
		f.Stage = s.LandingStage.String()
	}
	return f
}

// FormatLine renders one UART line.  The first two comma separated fields are
// the height and tick count so logs can be fed straight to the tuning scripts.
func FormatLine(s flightcontroller.Status) string {
	line := fmt.Sprintf("%d, %d, %s, height=%d/%d, yaw=%d/%d",
		s.Height, s.Ticks, s.Phase, s.Height, s.HeightTarget, s.Yaw, s.YawTarget)
	if s.Phase == flightcontroller.Landing {
		line += ", " + s.LandingStage.String()
	}
	return line + "\r\n"
}

func OpenSerial(port string, baud int) (io.WriteCloser, error) {
	s, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", port)
	}
	fmt.Printf("TLM: opened %s at %d baud\n", port, baud)
	return s, nil
}

type Streamer struct {
	status StatusFunc
	every  time.Duration

	uart io.Writer
	hub  *Hub
}

// NewStreamer samples status every interval.  Either sink may be nil.
func NewStreamer(status StatusFunc, every time.Duration, uart io.Writer, hub *Hub) *Streamer {
	return &Streamer{status: status, every: every, uart: uart, hub: hub}
}

// Publish sends one sample to every sink.  A failing UART is dropped so the
// rest of the telemetry keeps going.
func (s *Streamer) Publish() {
	st := s.status()
	if s.uart != nil {
		if _, err := io.WriteString(s.uart, FormatLine(st)); err != nil {
			fmt.Println("TLM: serial write failed, disabling:", err)
			s.uart = nil
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(NewFrame(st))
	}
}

func (s *Streamer) Loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer fmt.Println("TLM: loop exited")

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Publish()
		}
	}
}
