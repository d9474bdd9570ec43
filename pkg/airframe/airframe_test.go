package airframe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tigerbot-team/helirig/pkg/config"
	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/hardware/hardwaretest"
	"github.com/tigerbot-team/helirig/pkg/landing"
)

func TestBenchTakeOffAndLand(t *testing.T) {
	b := NewBench(config.Default(), hardware.DefaultRigConfig)
	if b.ticksPerCycle != 4 {
		t.Fatalf("%d ticks per cycle, want 4", b.ticksPerCycle)
	}

	b.Panel.SetSwitch(true)
	b.Cycle()
	if got := b.Controller.Phase(); got != flightcontroller.Init {
		t.Fatalf("phase %v after switch up, want Init", got)
	}
	if b.Gate.Enabled() {
		t.Fatal("gate enabled while calibrating")
	}

	// The spin-up torque swings the airframe past the reference mark.
	if n, ok := b.RunUntil(100, InPhase(flightcontroller.Flying)); !ok {
		t.Fatalf("still %v after %d cycles", b.Controller.Phase(), n)
	}
	if !b.Sim.ReferenceFound() || !b.Gate.Enabled() {
		t.Fatal("flying without reference or control gate")
	}

	b.Panel.SetSwitch(false)
	b.Cycle()
	if got := b.Controller.Phase(); got != flightcontroller.Landing {
		t.Fatalf("phase %v after switch down, want Landing", got)
	}

	// Never left the ground so this is at worst the landing timeout.
	limit := int((config.Default().LandingTimeout + 10*time.Second) / config.Default().CycleInterval)
	if n, ok := b.RunUntil(limit, InPhase(flightcontroller.Landed)); !ok {
		t.Fatalf("still %v (%v) after %d cycles", b.Controller.Phase(), b.Controller.Status(), n)
	}
	if b.Yaw.Target()%90 != 0 {
		t.Errorf("yaw target %d not on a reference", b.Yaw.Target())
	}
}

func TestBenchPushesMoveSetpoints(t *testing.T) {
	b := NewBench(config.Default(), hardware.DefaultRigConfig)
	b.Panel.SetSwitch(true)
	if _, ok := b.RunUntil(100, InPhase(flightcontroller.Flying)); !ok {
		t.Fatal("never reached Flying")
	}

	for i := 0; i < 3; i++ {
		b.Panel.Push(hardware.ButtonUp)
	}
	b.Panel.Push(hardware.ButtonRight)
	b.Cycle()

	s := b.Controller.Status()
	if s.HeightTarget != 30 || s.YawTarget != 15 {
		t.Fatalf("targets height=%d yaw=%d, want 30 and 15", s.HeightTarget, s.YawTarget)
	}
	if s.Phase != flightcontroller.Flying || s.LandingStage != landing.StageSnap {
		t.Fatalf("unexpected status %v", s)
	}
}

func TestShutdownCutsRotors(t *testing.T) {
	rotors := &hardwaretest.Rotors{}
	rig := struct {
		*hardwaretest.YawSensor
		*hardwaretest.HeightSensor
		*hardwaretest.Rotors
	}{&hardwaretest.YawSensor{}, &hardwaretest.HeightSensor{}, rotors}
	sw := &hardwaretest.Switch{}
	a := New(config.Default(), sw, &hardwaretest.Buttons{}, rig)

	rotors.Enable(hardware.Main)
	rotors.Enable(hardware.Tail)
	a.Gate.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	a.Start(ctx, &wg)
	cancel()
	wg.Wait()

	a.Shutdown()
	if a.Gate.Enabled() || rotors.Enabled[hardware.Main] || rotors.Enabled[hardware.Tail] {
		t.Fatalf("gate=%v rotors=%v after shutdown", a.Gate.Enabled(), rotors.Enabled)
	}
}
