package controlgate

import (
	"context"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/hardware/hardwaretest"
)

func newGate() (*Gate, *hardwaretest.Controller, *hardwaretest.Controller, *hardwaretest.HeightSensor, *[]string) {
	var log []string
	yaw := &hardwaretest.Controller{Name: "yaw", Log: &log}
	height := &hardwaretest.Controller{Name: "height", Log: &log}
	sensor := &hardwaretest.HeightSensor{}
	return New(200*physic.Hertz, yaw, height, sensor), yaw, height, sensor, &log
}

func TestPeriodFromRate(t *testing.T) {
	g, _, _, _, _ := newGate()
	if g.TickPeriod() != 5*time.Millisecond {
		t.Fatalf("period = %v, want 5ms", g.TickPeriod())
	}
}

func TestDisabledTicksOnlyCount(t *testing.T) {
	g, yaw, height, sensor, _ := newGate()
	for i := 0; i < 10; i++ {
		g.Tick()
	}
	if g.TickCount() != 10 {
		t.Fatalf("tick count = %d, want 10", g.TickCount())
	}
	if yaw.Updates != 0 || height.Updates != 0 || sensor.Samples != 0 {
		t.Fatalf("controllers ran while disabled: yaw=%d height=%d samples=%d", yaw.Updates, height.Updates, sensor.Samples)
	}
}

func TestEnabledTickOrder(t *testing.T) {
	g, yaw, height, sensor, log := newGate()
	g.Enable()
	g.Tick()
	if !reflect.DeepEqual(*log, []string{"yaw.update", "height.update"}) {
		t.Fatalf("unexpected call order %v", *log)
	}
	if sensor.Samples != 1 {
		t.Fatalf("expected one sample trigger, got %d", sensor.Samples)
	}
	if yaw.LastDT != 5*time.Millisecond || height.LastDT != 5*time.Millisecond {
		t.Fatalf("wrong dt passed: %v %v", yaw.LastDT, height.LastDT)
	}
}

func TestCountingIsGapFreeAcrossToggles(t *testing.T) {
	g, yaw, _, _, _ := newGate()
	start := g.TickCount()
	for i := 0; i < 30; i++ {
		if i%7 == 0 {
			g.Enable()
		} else if i%5 == 0 {
			g.Disable()
		}
		g.Tick()
	}
	if g.ElapsedTicks(start) != 30 {
		t.Fatalf("elapsed = %d, want 30", g.ElapsedTicks(start))
	}
	if yaw.Updates == 0 || yaw.Updates == 30 {
		t.Fatalf("expected some but not all ticks to run control, got %d", yaw.Updates)
	}
}

func TestElapsedAcrossWrap(t *testing.T) {
	g, _, _, _, _ := newGate()
	g.ticks.Store(math.MaxUint32 - 2)
	since := g.TickCount()
	for i := 0; i < 5; i++ {
		g.Tick()
	}
	if g.ElapsedTicks(since) != 5 {
		t.Fatalf("elapsed across wrap = %d, want 5", g.ElapsedTicks(since))
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	g, _, _, _, _ := newGate()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go g.Loop(ctx, &wg)

	deadline := time.Now().Add(2 * time.Second)
	for g.TickCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	wg.Wait()
	if g.TickCount() < 3 {
		t.Fatalf("loop only ticked %d times", g.TickCount())
	}
}

// stallingAxis parks inside Update until released, then drives Main.
type stallingAxis struct {
	hardwaretest.Controller
	rotors   *hardwaretest.Rotors
	duty     int
	entered  chan struct{}
	released chan struct{}
}

func (a *stallingAxis) Update(dt time.Duration) {
	close(a.entered)
	<-a.released
	a.rotors.SetDutyCycle(hardware.Main, a.duty)
}

func TestDisableWaitsForRunningTick(t *testing.T) {
	rotors := &hardwaretest.Rotors{}
	height := &stallingAxis{
		rotors:   rotors,
		duty:     70,
		entered:  make(chan struct{}),
		released: make(chan struct{}),
	}
	g := New(200*physic.Hertz, &hardwaretest.Controller{Name: "yaw"}, height, &hardwaretest.HeightSensor{})
	g.Enable()

	tickDone := make(chan struct{})
	go func() {
		g.Tick()
		close(tickDone)
	}()
	<-height.entered

	disabled := make(chan struct{})
	go func() {
		g.Disable()
		close(disabled)
	}()
	select {
	case <-disabled:
		t.Fatal("Disable returned while a tick was still updating the controllers")
	case <-time.After(50 * time.Millisecond):
	}

	close(height.released)
	<-disabled
	// Spin up directly, as calibration does.
	rotors.SetDutyCycle(hardware.Main, 25)
	<-tickDone

	if rotors.Duty[hardware.Main] != 25 {
		t.Fatalf("main duty %d after disable and spin-up, want 25", rotors.Duty[hardware.Main])
	}
	if g.Enabled() {
		t.Fatal("gate still enabled")
	}

	// Later ticks leave the rotors alone.
	g.Tick()
	if rotors.Duty[hardware.Main] != 25 {
		t.Fatalf("disabled tick changed main duty to %d", rotors.Duty[hardware.Main])
	}
}
