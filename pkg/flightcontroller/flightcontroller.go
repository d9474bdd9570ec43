package flightcontroller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/helirig/pkg/command"
	"github.com/tigerbot-team/helirig/pkg/convergence"
	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/landing"
)

// Gate is the switchable periodic control context, which is also the
// controller's tick source.
type Gate interface {
	hardware.Clock
	Enable()
	Disable()
	Enabled() bool
}

type Collaborators struct {
	Switch       hardware.Switch
	Buttons      hardware.Buttons
	YawSensor    hardware.YawSensor
	HeightSensor hardware.HeightSensor
	Rotors       hardware.Rotors
	Yaw          hardware.FeedbackController
	Height       hardware.FeedbackController
	Gate         Gate
}

type Config struct {
	// SpinUpDuty is the main rotor duty cycle while calibrating.
	SpinUpDuty int
	// Per-sample convergence tolerances, in degrees and percent.
	YawTolerance    int
	HeightTolerance int

	Command command.Config
	Landing landing.Config
}

var DefaultConfig = Config{
	SpinUpDuty:      25,
	YawTolerance:    2,
	HeightTolerance: 1,
	Command: command.Config{
		HeightIncrement: 10,
		YawIncrement:    15,
		HeightSeed:      20,
	},
	Landing: landing.DefaultConfig,
}

// Observer hears about every phase change, on the foreground goroutine.
type Observer interface {
	OnPhaseChange(from, to Phase)
}

type waitFlags struct {
	// calibrating is set once the INIT one-shot actions have run.
	calibrating bool
}

type Controller struct {
	hw  Collaborators
	cfg Config

	integrator    *command.Integrator
	landing       *landing.Sequencer
	yawTracker    *convergence.Tracker
	heightTracker *convergence.Tracker
	observer      Observer

	flags waitFlags

	// phaseLock guards what Status reads from other goroutines.
	phaseLock sync.Mutex
	phase     Phase
	stage     landing.Stage
}

// New wires up the collaborators and leaves the controller landed with both
// setpoints at zero.
func New(hw Collaborators, cfg Config) *Controller {
	c := &Controller{
		hw:            hw,
		cfg:           cfg,
		integrator:    command.New(hw.Buttons, hw.Height, hw.Yaw, cfg.Command),
		yawTracker:    convergence.New(cfg.YawTolerance),
		heightTracker: convergence.New(cfg.HeightTolerance),
		phase:         Landed,
	}
	c.landing = landing.New(
		hw.YawSensor,
		hw.HeightSensor,
		landing.Axis{Controller: hw.Yaw, Tracker: c.yawTracker},
		landing.Axis{Controller: hw.Height, Tracker: c.heightTracker},
		hw.Gate,
		cfg.Landing,
	)
	hw.Height.SetTarget(0)
	hw.Yaw.SetTarget(0)
	return c
}

func (c *Controller) SetObserver(o Observer) {
	c.observer = o
}

func (c *Controller) Phase() Phase {
	c.phaseLock.Lock()
	defer c.phaseLock.Unlock()
	return c.phase
}

func (c *Controller) CurrentPhaseName() string {
	return c.Phase().String()
}

// EvaluateCycle runs one foreground cycle.  Calling it again with no new
// input repeats no one-shot action.
func (c *Controller) EvaluateCycle() {
	event := c.hw.Switch.PollEdgeEvent()

	switch c.Phase() {
	case Landed:
		if event == hardware.SwitchUp {
			c.fire(EventSwitchUp)
		}
	case Init:
		c.evaluateInit()
	case Flying:
		if event == hardware.SwitchDown {
			if p := c.integrator.Clear(); p.Any() {
				fmt.Printf("FC: discarding button pushes %v\n", p)
			}
			c.fire(EventSwitchDown)
			return
		}
		c.integrator.Apply()
	case Landing:
		done := c.landing.Step()
		c.phaseLock.Lock()
		c.stage = c.landing.Stage()
		c.phaseLock.Unlock()
		if done {
			c.hw.Rotors.Disable(hardware.Main)
			c.hw.Rotors.Disable(hardware.Tail)
			c.fire(EventTouchdown)
		}
	}
}

func (c *Controller) evaluateInit() {
	if !c.flags.calibrating {
		c.flags.calibrating = true
		fmt.Println("FC: calibrating, searching for yaw reference")
		c.hw.YawSensor.TriggerReferenceSearch()
		c.hw.HeightSensor.TriggerZeroCalibration()
		c.hw.Gate.Disable()
		c.hw.Rotors.SetDutyCycle(hardware.Main, c.cfg.SpinUpDuty)
		c.hw.Rotors.Enable(hardware.Main)
		return
	}
	if !c.hw.YawSensor.ReferenceFound() {
		return
	}

	fmt.Println("FC: yaw reference found")
	c.hw.Yaw.Reset()
	c.hw.Height.Reset()
	c.hw.Rotors.Enable(hardware.Main)
	c.hw.Rotors.Enable(hardware.Tail)
	c.hw.Gate.Enable()
	c.integrator.Clear()
	c.fire(EventCalibrated)
}

func (c *Controller) fire(event Event) {
	from := c.Phase()
	to, ok := Next(from, event)
	if !ok {
		fmt.Printf("FC: ignoring %v in %v\n", event, from)
		return
	}

	// Wait flags only live for one visit to a phase.
	c.flags = waitFlags{}
	c.landing.Reset()

	c.phaseLock.Lock()
	c.phase = to
	c.stage = landing.StageSnap
	c.phaseLock.Unlock()

	fmt.Printf("FC: %v -> %v (%v)\n", from, to, event)
	if c.observer != nil {
		c.observer.OnPhaseChange(from, to)
	}
}

// Status is a snapshot of the controller for display and telemetry.
type Status struct {
	Phase        Phase
	LandingStage landing.Stage
	HeightTarget int
	YawTarget    int
	Height       int
	Yaw          int
	GateEnabled  bool
	Ticks        uint32
}

func (s Status) String() string {
	return fmt.Sprintf("%v height=%d/%d yaw=%d/%d gate=%v tick=%d",
		s.Phase, s.Height, s.HeightTarget, s.Yaw, s.YawTarget, s.GateEnabled, s.Ticks)
}

// Status may be called from any goroutine.
func (c *Controller) Status() Status {
	c.phaseLock.Lock()
	phase, stage := c.phase, c.stage
	c.phaseLock.Unlock()

	s := Status{
		Phase:        phase,
		HeightTarget: c.hw.Height.Target(),
		YawTarget:    c.hw.Yaw.Target(),
		Height:       c.hw.HeightSensor.CurrentHeightPercent(),
		Yaw:          c.hw.YawSensor.CurrentYaw(),
		GateEnabled:  c.hw.Gate.Enabled(),
		Ticks:        c.hw.Gate.TickCount(),
	}
	if phase == Landing {
		s.LandingStage = stage
	}
	return s
}

// Loop is the foreground context: one EvaluateCycle per interval until ctx is done.
func (c *Controller) Loop(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	defer wg.Done()
	defer fmt.Println("FC: loop exited")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.EvaluateCycle()
		}
	}
}
