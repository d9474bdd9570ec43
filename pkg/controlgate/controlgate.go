package controlgate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/tigerbot-team/helirig/pkg/hardware"
)

// Sampler starts a new sensor conversion.
type Sampler interface {
	TriggerSample()
}

// Gate is the high-rate periodic context.  Every tick advances the tick
// counter; while enabled, a tick also runs the yaw then height controllers and
// kicks off the next sensor sample.
type Gate struct {
	period  time.Duration
	yaw     hardware.FeedbackController
	height  hardware.FeedbackController
	sampler Sampler

	ticks   atomic.Uint32
	enabled atomic.Bool

	// controlLock is held across the enabled part of a tick, so Disable
	// returns only once no controller update is in flight.
	controlLock sync.Mutex
}

func New(rate physic.Frequency, yaw, height hardware.FeedbackController, sampler Sampler) *Gate {
	return &Gate{
		period:  rate.Period(),
		yaw:     yaw,
		height:  height,
		sampler: sampler,
	}
}

func (g *Gate) Enable() {
	g.controlLock.Lock()
	defer g.controlLock.Unlock()
	if !g.enabled.Swap(true) {
		fmt.Println("GATE: control enabled")
	}
}

// Disable waits for a running tick to finish, so callers may drive the rotors
// directly as soon as it returns.
func (g *Gate) Disable() {
	g.controlLock.Lock()
	defer g.controlLock.Unlock()
	if g.enabled.Swap(false) {
		fmt.Println("GATE: control disabled")
	}
}

func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}

// Tick is the body of one periodic interrupt.  It only waits for the
// foreground when that is in the middle of Enable or Disable.
func (g *Gate) Tick() {
	g.ticks.Add(1)

	g.controlLock.Lock()
	defer g.controlLock.Unlock()
	if !g.enabled.Load() {
		return
	}
	g.yaw.Update(g.period)
	g.height.Update(g.period)
	g.sampler.TriggerSample()
}

func (g *Gate) TickCount() uint32 {
	return g.ticks.Load()
}

// ElapsedTicks relies on unsigned subtraction to survive the counter wrapping.
func (g *Gate) ElapsedTicks(since uint32) uint32 {
	return g.ticks.Load() - since
}

func (g *Gate) TickPeriod() time.Duration {
	return g.period
}

func (g *Gate) Loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer fmt.Println("GATE: loop exited")

	ticker := time.NewTicker(g.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Tick()
		}
	}
}

var _ hardware.Clock = (*Gate)(nil)
