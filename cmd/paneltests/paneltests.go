package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/joystick"
	"github.com/tigerbot-team/helirig/pkg/panel"
)

// Prints joystick events and what the panel makes of them, once a second.
func main() {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	jDev := os.Getenv("JOYSTICK_DEVICE")
	if jDev == "" {
		jDev = "/dev/input/js0"
	}
	j, err := joystick.WaitForDevice(ctx, jDev)
	if err != nil {
		return
	}
	events := make(chan *joystick.Event)
	go func() {
		defer cancel()
		err := j.ReadLoop(ctx, events)
		fmt.Printf("Joystick failed: %v\n", err)
	}()

	p := panel.New()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case je, ok := <-events:
			if !ok {
				return
			}
			fmt.Println(je)
			p.OnJoystickEvent(je)
		case <-ticker.C:
			var pushes [hardware.NumButtons]int
			for b := hardware.Button(0); b < hardware.NumButtons; b++ {
				pushes[b] = p.DrainPushCount(b)
			}
			if e := p.PollEdgeEvent(); e != hardware.SwitchNone || pushes != [hardware.NumButtons]int{} {
				fmt.Printf("switch=%v up=%d down=%d left=%d right=%d\n", e,
					pushes[hardware.ButtonUp], pushes[hardware.ButtonDown],
					pushes[hardware.ButtonLeft], pushes[hardware.ButtonRight])
			}
		}
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
