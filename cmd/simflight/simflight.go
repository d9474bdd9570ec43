package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/helirig/pkg/airframe"
	"github.com/tigerbot-team/helirig/pkg/config"
	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/telemetry"
)

// Flies a scripted take off, climb, turn and landing against the simulated rig.
var CLI struct {
	Config string        `help:"Config file." default:"/cfg/helirig.yaml" type:"path"`
	Climbs int           `help:"Up pushes once flying." default:"5"`
	Turns  int           `help:"Right pushes once flying; negative turns left." default:"6"`
	Hold   time.Duration `help:"How long to hover before landing." default:"10s"`
	Every  time.Duration `help:"Simulated time between status lines." default:"500ms"`
}

func main() {
	fmt.Println("---- simflight ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kong.Parse(&CLI)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Bad config:", err)
		os.Exit(1)
	}

	b := airframe.NewBench(cfg, hardware.DefaultRigConfig)
	start := time.Now()
	cycles := 0
	printEvery := int(CLI.Every / cfg.CycleInterval)
	if printEvery < 1 {
		printEvery = 1
	}
	run := func(max time.Duration, done func(flightcontroller.Status) bool) bool {
		limit := int(max / cfg.CycleInterval)
		for i := 0; i < limit; i++ {
			b.Cycle()
			cycles++
			s := b.Controller.Status()
			if cycles%printEvery == 0 {
				fmt.Print(telemetry.FormatLine(s))
			}
			if done(s) {
				return true
			}
		}
		return false
	}
	never := func(flightcontroller.Status) bool { return false }

	b.Panel.SetSwitch(true)
	if !run(5*time.Second, airframe.InPhase(flightcontroller.Flying)) {
		fmt.Println("Never found the yaw reference")
		os.Exit(1)
	}

	for i := 0; i < CLI.Climbs; i++ {
		b.Panel.Push(hardware.ButtonUp)
	}
	turn := hardware.ButtonRight
	turns := CLI.Turns
	if turns < 0 {
		turn, turns = hardware.ButtonLeft, -turns
	}
	for i := 0; i < turns; i++ {
		b.Panel.Push(turn)
	}
	run(CLI.Hold, never)

	b.Panel.SetSwitch(false)
	landed := run(cfg.LandingTimeout+time.Minute, airframe.InPhase(flightcontroller.Landed))

	s := b.Controller.Status()
	fmt.Printf("Simulated %v in %v: %v\n",
		time.Duration(cycles)*cfg.CycleInterval, time.Since(start).Round(time.Millisecond), s)
	if !landed {
		fmt.Println("Failed to land")
		os.Exit(1)
	}
}
