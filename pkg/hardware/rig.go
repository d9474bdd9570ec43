package hardware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

type RigConfig struct {
	// ADC counts between the rest reading and full height.
	FullScaleRange int
	RestReading    int
	// Main rotor duty below which the craft stays on the ground, and the
	// extra height percent per duty percent above it.
	LiftOffDuty float64
	LiftPerDuty float64
	HeightTau   time.Duration
	// Yaw rate in degrees/s per percent of tail duty, and the share of main
	// duty that turns into counter-torque.
	YawRatePerDuty float64
	TorqueRatio    float64
	YawTau         time.Duration
	// Yaw references are spaced evenly round the rig, the first one at the
	// physical reference mark.
	ReferenceSpacing int
	// StartYaw is where the airframe sits relative to the reference mark at power on.
	StartYaw float64
	// ConversionTime is how long a blocking ADC conversion takes.
	ConversionTime time.Duration
}

var DefaultRigConfig = RigConfig{
	FullScaleRange:   1240,
	RestReading:      2700,
	LiftOffDuty:      30,
	LiftPerDuty:      2.5,
	HeightTau:        600 * time.Millisecond,
	YawRatePerDuty:   12,
	TorqueRatio:      0.8,
	YawTau:           300 * time.Millisecond,
	ReferenceSpacing: 90,
	StartYaw:         37,
	ConversionTime:   100 * time.Microsecond,
}

// Rig simulates the helicopter on its stand: the two rotors, the analogue
// height sensor and the yaw encoder with its reference mark.
type Rig struct {
	cfg RigConfig

	lock sync.Mutex

	// Desired rotor outputs.
	duty    [2]int
	enabled [2]bool

	// Plant state.
	height  float64
	yaw     float64
	yawRate float64

	// Sensor state.
	zeroReading int
	zeroFound   bool
	adcSample   int
	searching   bool
	refFound    bool
	yawOffset   float64
}

func NewRig(cfg RigConfig) *Rig {
	return &Rig{
		cfg:       cfg,
		yaw:       cfg.StartYaw,
		adcSample: cfg.RestReading,
	}
}

func (r *Rig) SetDutyCycle(ch Channel, percent int) {
	if percent < 2 || percent > 98 {
		fmt.Printf("RIG: %v duty %d%% out of range, clamping\n", ch, percent)
		percent = max(2, min(98, percent))
	}
	r.lock.Lock()
	r.duty[ch] = percent
	r.lock.Unlock()
}

func (r *Rig) Enable(ch Channel) {
	r.lock.Lock()
	r.enabled[ch] = true
	r.lock.Unlock()
}

func (r *Rig) Disable(ch Channel) {
	r.lock.Lock()
	r.enabled[ch] = false
	r.lock.Unlock()
}

func (r *Rig) output(ch Channel) float64 {
	if !r.enabled[ch] {
		return 0
	}
	return float64(r.duty[ch])
}

// Step advances the simulation by dt.
func (r *Rig) Step(dt time.Duration) {
	r.lock.Lock()
	defer r.lock.Unlock()

	main := r.output(Main)
	tail := r.output(Tail)

	target := 0.0
	if main > r.cfg.LiftOffDuty {
		target = math.Min(100, (main-r.cfg.LiftOffDuty)*r.cfg.LiftPerDuty)
	}
	r.height += (target - r.height) * dt.Seconds() / r.cfg.HeightTau.Seconds()
	if r.height < 0 {
		r.height = 0
	}

	// No yawing while sat on the ground.
	targetRate := 0.0
	if r.height > 0.5 || main > r.cfg.LiftOffDuty/2 {
		targetRate = (tail - main*r.cfg.TorqueRatio) * r.cfg.YawRatePerDuty
	}
	r.yawRate += (targetRate - r.yawRate) * dt.Seconds() / r.cfg.YawTau.Seconds()
	lastYaw := r.yaw
	r.yaw += r.yawRate * dt.Seconds()

	if r.searching && crossedMark(lastYaw, r.yaw) {
		mark := math.Round(r.yaw/360) * 360
		r.yawOffset = mark
		r.searching = false
		r.refFound = true
		fmt.Printf("RIG: yaw reference mark at %.1f\n", mark)
	}
}

// crossedMark reports whether the move from a to b passed a multiple of 360.
func crossedMark(a, b float64) bool {
	return math.Floor(a/360) != math.Floor(b/360)
}

func (r *Rig) adcReading() int {
	return r.cfg.RestReading - int(math.Round(r.height*float64(r.cfg.FullScaleRange)/100))
}

func (r *Rig) CurrentHeightPercent() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.zeroFound {
		return 0
	}
	return (r.zeroReading - r.adcSample) * 100 / r.cfg.FullScaleRange
}

func (r *Rig) TriggerZeroCalibration() {
	time.Sleep(r.cfg.ConversionTime)
	r.lock.Lock()
	defer r.lock.Unlock()
	r.zeroReading = r.adcReading()
	r.adcSample = r.zeroReading
	r.zeroFound = true
	fmt.Printf("RIG: zero height reading %d\n", r.zeroReading)
}

func (r *Rig) TriggerSample() {
	r.lock.Lock()
	r.adcSample = r.adcReading()
	r.lock.Unlock()
}

func (r *Rig) CurrentYaw() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return int(math.Round(r.yaw - r.yawOffset))
}

func (r *Rig) ReferenceFound() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.refFound
}

func (r *Rig) TriggerReferenceSearch() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.searching = true
	r.refFound = false
}

func (r *Rig) ClosestReference(target int) int {
	s := float64(r.cfg.ReferenceSpacing)
	return int(math.Round(float64(target)/s) * s)
}

func (r *Rig) Loop(ctx context.Context, wg *sync.WaitGroup, dt time.Duration) {
	defer wg.Done()
	defer fmt.Println("RIG: loop exited")

	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Step(dt)
		}
	}
}

var (
	_ YawSensor    = (*Rig)(nil)
	_ HeightSensor = (*Rig)(nil)
	_ Rotors       = (*Rig)(nil)
)
