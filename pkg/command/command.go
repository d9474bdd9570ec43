package command

import (
	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/pidctl"
)

const (
	MinHeight = 0
	MaxHeight = 100
)

type Config struct {
	HeightIncrement int
	YawIncrement    int
	// HeightSeed is preloaded into the height controller's integral when
	// climbing away from a zero target.
	HeightSeed int
}

// Integrator turns the button pushes of one cycle into setpoint changes.
type Integrator struct {
	buttons hardware.Buttons
	height  hardware.FeedbackController
	yaw     hardware.FeedbackController
	cfg     Config
}

func New(buttons hardware.Buttons, height, yaw hardware.FeedbackController, cfg Config) *Integrator {
	return &Integrator{
		buttons: buttons,
		height:  height,
		yaw:     yaw,
		cfg:     cfg,
	}
}

// Pushes is one cycle's worth of drained button counts.
type Pushes [hardware.NumButtons]int

func (p Pushes) Any() bool {
	for _, n := range p {
		if n > 0 {
			return true
		}
	}
	return false
}

func (i *Integrator) drain() (p Pushes) {
	for b := hardware.Button(0); b < hardware.NumButtons; b++ {
		p[b] = i.buttons.DrainPushCount(b)
	}
	return
}

// Clear drains every counter and throws the pushes away.
func (i *Integrator) Clear() Pushes {
	return i.drain()
}

// Apply drains the counters and applies them to the height and yaw targets.
func (i *Integrator) Apply() Pushes {
	p := i.drain()

	if up := p[hardware.ButtonUp]; up > 0 {
		if i.height.Target() == MinHeight {
			// Get off the ground quicker.
			i.height.PreloadIntegral(i.cfg.HeightSeed, i.cfg.HeightIncrement)
		}
		i.height.SetTarget(pidctl.Clamp(i.height.Target()+up*i.cfg.HeightIncrement, MinHeight, MaxHeight))
	}
	if down := p[hardware.ButtonDown]; down > 0 {
		i.height.SetTarget(pidctl.Clamp(i.height.Target()-down*i.cfg.HeightIncrement, MinHeight, MaxHeight))
	}

	// Ground interlock: yaw pushes are dropped while the height target is zero.
	if i.height.Target() == MinHeight {
		return p
	}
	if left := p[hardware.ButtonLeft]; left > 0 {
		i.yaw.SetTarget(i.yaw.Target() - left*i.cfg.YawIncrement)
	}
	if right := p[hardware.ButtonRight]; right > 0 {
		i.yaw.SetTarget(i.yaw.Target() + right*i.cfg.YawIncrement)
	}
	return p
}
