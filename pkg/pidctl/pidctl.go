package pidctl

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.einride.tech/pid"
	"golang.org/x/exp/constraints"

	"github.com/tigerbot-team/helirig/pkg/hardware"
)

// The rotor PWM cannot be driven right to the rails.
const (
	MinDuty = 2
	MaxDuty = 98
)

type Gains struct {
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	Kd          float64 `yaml:"kd"`
	MaxIntegral float64 `yaml:"max_integral"`
	// Offset is the duty cycle output for zero control signal.
	Offset float64 `yaml:"offset"`
}

// Axis is a PID loop from one sensor reading to one rotor channel.  Update is
// called from the control gate; the target is stored atomically so the
// foreground can move it at any time.
type Axis struct {
	Name    string
	read    func() int
	rotors  hardware.Rotors
	channel hardware.Channel
	gains   Gains

	target atomic.Int32
	duty   atomic.Int32

	controlLock sync.Mutex
	pid         pid.Controller
}

func newAxis(name string, read func() int, rotors hardware.Rotors, ch hardware.Channel, g Gains) *Axis {
	return &Axis{
		Name:    name,
		read:    read,
		rotors:  rotors,
		channel: ch,
		gains:   g,
		pid: pid.Controller{
			Config: pid.ControllerConfig{
				ProportionalGain: g.Kp,
				IntegralGain:     g.Ki,
				DerivativeGain:   g.Kd,
			},
		},
	}
}

// NewHeight drives the main rotor from the height sensor.
func NewHeight(sensor hardware.HeightSensor, rotors hardware.Rotors, g Gains) *Axis {
	return newAxis("height", sensor.CurrentHeightPercent, rotors, hardware.Main, g)
}

// NewYaw drives the tail rotor from the yaw sensor.
func NewYaw(sensor hardware.YawSensor, rotors hardware.Rotors, g Gains) *Axis {
	return newAxis("yaw", sensor.CurrentYaw, rotors, hardware.Tail, g)
}

func (a *Axis) SetTarget(v int) {
	a.target.Store(int32(v))
}

func (a *Axis) Target() int {
	return int(a.target.Load())
}

// Duty is the last duty cycle written to the rotor.
func (a *Axis) Duty() int {
	return int(a.duty.Load())
}

func (a *Axis) Reset() {
	a.controlLock.Lock()
	defer a.controlLock.Unlock()
	a.pid.Reset()
}

// PreloadIntegral seeds the integral so that the first update after a target
// step of size step asks for roughly seed percent of duty.
func (a *Axis) PreloadIntegral(seed, step int) {
	if a.gains.Ki == 0 {
		return
	}
	a.controlLock.Lock()
	defer a.controlLock.Unlock()
	i := (float64(seed) - a.gains.Kp*float64(step)) / a.gains.Ki
	a.pid.State.ControlErrorIntegral = Clamp(i, 0, a.maxIntegral())
}

func (a *Axis) maxIntegral() float64 {
	if a.gains.MaxIntegral <= 0 {
		return math.Inf(1)
	}
	return a.gains.MaxIntegral
}

func (a *Axis) Update(dt time.Duration) {
	reference := float64(a.target.Load())
	actual := float64(a.read())

	a.controlLock.Lock()
	a.pid.Update(pid.ControllerInput{
		ReferenceSignal:  reference,
		ActualSignal:     actual,
		SamplingInterval: dt,
	})
	maxI := a.maxIntegral()
	a.pid.State.ControlErrorIntegral = Clamp(a.pid.State.ControlErrorIntegral, -maxI, maxI)
	u := a.pid.State.ControlSignal
	a.controlLock.Unlock()

	duty := int(math.Round(Clamp(a.gains.Offset+u, MinDuty, MaxDuty)))
	a.duty.Store(int32(duty))
	a.rotors.SetDutyCycle(a.channel, duty)
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ hardware.FeedbackController = (*Axis)(nil)
