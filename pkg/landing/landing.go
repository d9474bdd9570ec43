package landing

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/helirig/pkg/convergence"
	"github.com/tigerbot-team/helirig/pkg/hardware"
)

type Config struct {
	// DescentInterval is how long the height target is held before dropping by one percent.
	DescentInterval time.Duration
	// Timeout bounds the wait for yaw convergence once the height target is zero.
	Timeout time.Duration
}

var DefaultConfig = Config{
	DescentInterval: 35 * time.Millisecond,
	Timeout:         10 * time.Second,
}

type Stage int

const (
	StageSnap Stage = iota
	StageSettle
	StageDescend
	StageTouchdown
)

func (s Stage) String() string {
	switch s {
	case StageSnap:
		return "snap"
	case StageSettle:
		return "settle"
	case StageDescend:
		return "descend"
	case StageTouchdown:
		return "touchdown"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

type Axis struct {
	Controller hardware.FeedbackController
	Tracker    *convergence.Tracker
}

// Sequencer runs the landing protocol, one Step per foreground cycle:
// snap the heading to the nearest yaw reference, wait for the heading to
// settle, walk the height target down, then wait for touchdown.
type Sequencer struct {
	yawSensor    hardware.YawSensor
	heightSensor hardware.HeightSensor
	yaw, height  Axis
	clock        hardware.Clock
	cfg          Config

	snapped        bool
	headingSettled bool
	baseline       uint32
}

func New(
	yawSensor hardware.YawSensor,
	heightSensor hardware.HeightSensor,
	yaw, height Axis,
	clock hardware.Clock,
	cfg Config,
) *Sequencer {
	return &Sequencer{
		yawSensor:    yawSensor,
		heightSensor: heightSensor,
		yaw:          yaw,
		height:       height,
		clock:        clock,
		cfg:          cfg,
	}
}

// Reset clears the per-landing flags ready for the next landing.
func (s *Sequencer) Reset() {
	s.snapped = false
	s.headingSettled = false
}

func (s *Sequencer) HeadingSettled() bool {
	return s.headingSettled
}

func (s *Sequencer) Stage() Stage {
	switch {
	case !s.snapped:
		return StageSnap
	case s.height.Controller.Target() == 0:
		return StageTouchdown
	case !s.headingSettled:
		return StageSettle
	default:
		return StageDescend
	}
}

func (s *Sequencer) elapsed() time.Duration {
	return time.Duration(s.clock.ElapsedTicks(s.baseline)) * s.clock.TickPeriod()
}

// Step advances the landing by one cycle and reports whether the craft is down.
func (s *Sequencer) Step() bool {
	s.yaw.Tracker.Record(s.yawSensor.CurrentYaw(), s.yaw.Controller.Target())
	s.height.Tracker.Record(s.heightSensor.CurrentHeightPercent(), s.height.Controller.Target())
	yawReached := s.yaw.Tracker.HasConverged()
	heightReached := s.height.Tracker.HasConverged()

	if !s.snapped {
		s.snapped = true
		target := s.yawSensor.ClosestReference(s.yaw.Controller.Target())
		fmt.Printf("LAND: snapping yaw target %d -> %d\n", s.yaw.Controller.Target(), target)
		s.yaw.Controller.SetTarget(target)
		s.yaw.Tracker.Reset()
		s.height.Tracker.Reset()
		s.baseline = s.clock.TickCount()
		return false
	}

	if !s.headingSettled && yawReached {
		s.headingSettled = true
		fmt.Println("LAND: heading settled")
		return false
	}

	if s.height.Controller.Target() == 0 {
		if !heightReached {
			return false
		}
		if yawReached {
			fmt.Println("LAND: touchdown")
			return true
		}
		if s.elapsed() > s.cfg.Timeout {
			fmt.Printf("LAND: touchdown, yaw did not converge within %v\n", s.cfg.Timeout)
			return true
		}
		return false
	}

	if s.headingSettled && s.elapsed() >= s.cfg.DescentInterval {
		s.baseline = s.clock.TickCount()
		s.height.Controller.SetTarget(s.height.Controller.Target() - 1)
	}
	return false
}
