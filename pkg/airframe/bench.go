package airframe

import (
	"github.com/tigerbot-team/helirig/pkg/config"
	"github.com/tigerbot-team/helirig/pkg/flightcontroller"
	"github.com/tigerbot-team/helirig/pkg/hardware"
	"github.com/tigerbot-team/helirig/pkg/panel"
)

// Bench flies an airframe against the simulated rig in lock step, so a whole
// flight can be run as fast as the CPU allows.
type Bench struct {
	*Airframe
	Sim   *hardware.Rig
	Panel *panel.Panel

	ticksPerCycle int
}

func NewBench(cfg config.Config, rig hardware.RigConfig) *Bench {
	sim := hardware.NewRig(rig)
	p := panel.New()
	a := New(cfg, p, p, sim)
	n := int(cfg.CycleInterval / a.Gate.TickPeriod())
	if n < 1 {
		n = 1
	}
	return &Bench{Airframe: a, Sim: sim, Panel: p, ticksPerCycle: n}
}

// Cycle runs one foreground cycle's worth of control ticks and then the cycle itself.
func (b *Bench) Cycle() {
	period := b.Gate.TickPeriod()
	for i := 0; i < b.ticksPerCycle; i++ {
		b.Sim.Step(period)
		b.Gate.Tick()
	}
	b.Controller.EvaluateCycle()
}

// RunUntil cycles until done reports true or maxCycles have run.  It returns
// the number of cycles run and whether done was satisfied.
func (b *Bench) RunUntil(maxCycles int, done func(flightcontroller.Status) bool) (int, bool) {
	for n := 1; n <= maxCycles; n++ {
		b.Cycle()
		if done(b.Controller.Status()) {
			return n, true
		}
	}
	return maxCycles, false
}

// InPhase is a RunUntil condition.
func InPhase(p flightcontroller.Phase) func(flightcontroller.Status) bool {
	return func(s flightcontroller.Status) bool { return s.Phase == p }
}
