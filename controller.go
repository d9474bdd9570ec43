package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/helirig/pkg/airframe"
	"github.com/tigerbot-team/helirig/pkg/config"
	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/joystick"
	"github.com/tigerbot-team/helirig/pkg/panel"
	"github.com/tigerbot-team/helirig/pkg/screen"
	"github.com/tigerbot-team/helirig/pkg/sound"
	"github.com/tigerbot-team/helirig/pkg/telemetry"
)

var CLI struct {
	Config   string `help:"Config file." default:"/cfg/helirig.yaml" type:"path"`
	Dummy    bool   `help:"Print rotor and sensor calls instead of simulating the rig."`
	NoScreen bool   `help:"Leave the status screen alone."`
	Joystick string `help:"Joystick device, overrides the config file." env:"JOYSTICK_DEVICE"`
}

func main() {
	fmt.Print("---- Helirig ----\n\n")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kong.Parse(&CLI, kong.Description("Flight controller for the tethered helicopter rig."))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Bad config:", err)
		os.Exit(1)
	}
	if CLI.Joystick != "" {
		cfg.JoystickDevice = CLI.Joystick
	}
	if err := cfg.WriteInUse(config.InUsePath); err != nil {
		fmt.Println("Failed to write in-use config, ignoring:", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancel()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()

	var wg sync.WaitGroup

	var rig airframe.Rig
	if CLI.Dummy {
		fmt.Println("Using dummy hardware")
		rig = hardware.NewDummy()
	} else {
		sim := hardware.NewRig(hardware.DefaultRigConfig)
		wg.Add(1)
		go sim.Loop(ctx, &wg, time.Millisecond)
		rig = sim
	}

	p := panel.New()
	af := airframe.New(cfg, p, p, rig)
	defer af.Shutdown()

	player := sound.NewPlayer(cfg.SoundsDir)
	player.Start()
	defer player.Close()
	af.Controller.SetObserver(player)

	uart, err := telemetry.OpenSerial(cfg.SerialPort, cfg.SerialBaud)
	if err != nil {
		fmt.Println("No serial telemetry, ignoring:", err)
	} else {
		defer uart.Close()
	}
	hub := telemetry.NewHub()
	wg.Add(2)
	go telemetry.ListenAndServe(ctx, &wg, cfg.TelemetryAddr, hub)
	go telemetry.NewStreamer(af.Controller.Status, cfg.TelemetryEvery, uart, hub).Loop(ctx, &wg)

	if !CLI.NoScreen {
		wg.Add(1)
		go screen.Loop(ctx, &wg, cfg.ScreenDevice, af.Controller.Status)
	}

	af.Start(ctx, &wg)

	go loopFeedingPanel(ctx, cfg.JoystickDevice, p)

	<-ctx.Done()
	fmt.Println("Context done, shutting down")
	wg.Wait()
}

// loopFeedingPanel forwards joystick events to the panel.  Losing the
// joystick counts as the switch going down, so the rig lands itself while we
// wait for the controller to come back.
func loopFeedingPanel(ctx context.Context, device string, p *panel.Panel) {
	for ctx.Err() == nil {
		j, err := joystick.WaitForDevice(ctx, device)
		if err != nil {
			return
		}
		events := make(chan *joystick.Event)
		go func() {
			err := j.ReadLoop(ctx, events)
			fmt.Printf("Joystick failed: %v\n", err)
		}()
		for event := range events {
			p.OnJoystickEvent(event)
		}
		if ctx.Err() == nil {
			fmt.Println("Joystick lost, landing")
			p.SetSwitch(false)
		}
	}
}
