// Package airframe assembles the controllers, the control gate and the flight
// controller around one set of rig hardware.
package airframe

import (
	"context"
	"fmt"
	"sync"

	"github.com/tigerbot-team/helirig/pkg/config"
	"github.com/tigerbot-team/helirig/pkg/controlgate"
	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/pidctl"
)

// Rig is everything the airframe needs from the physical (or simulated) rig.
type Rig interface {
	hardware.YawSensor
	hardware.HeightSensor
	hardware.Rotors
}

type Airframe struct {
	Rig        Rig
	Height     *pidctl.Axis
	Yaw        *pidctl.Axis
	Gate       *controlgate.Gate
	Controller *flightcontroller.Controller

	cfg config.Config
}

func New(cfg config.Config, sw hardware.Switch, buttons hardware.Buttons, rig Rig) *Airframe {
	height := pidctl.NewHeight(rig, rig, cfg.HeightGains)
	yaw := pidctl.NewYaw(rig, rig, cfg.YawGains)
	gate := controlgate.New(cfg.ControlRate(), yaw, height, rig)

	fc := flightcontroller.New(flightcontroller.Collaborators{
		Switch:       sw,
		Buttons:      buttons,
		YawSensor:    rig,
		HeightSensor: rig,
		Rotors:       rig,
		Yaw:          yaw,
		Height:       height,
		Gate:         gate,
	}, cfg.FlightController())

	return &Airframe{
		Rig:        rig,
		Height:     height,
		Yaw:        yaw,
		Gate:       gate,
		Controller: fc,
		cfg:        cfg,
	}
}

// Start runs the periodic control context and the foreground cycle until ctx is done.
func (a *Airframe) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)
	go a.Gate.Loop(ctx, wg)
	go a.Controller.Loop(ctx, wg, a.cfg.CycleInterval)
}

// Shutdown stops the control context and cuts both rotors.
func (a *Airframe) Shutdown() {
	fmt.Println("Stopping rotors")
	a.Gate.Disable()
	a.Rig.Disable(hardware.Main)
	a.Rig.Disable(hardware.Tail)
}
