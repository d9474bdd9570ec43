package hardware

import (
	"testing"
	"time"
)

const simDT = 5 * time.Millisecond

func run(r *Rig, d time.Duration) {
	for t := time.Duration(0); t < d; t += simDT {
		r.Step(simDT)
		r.TriggerSample()
	}
}

func TestHeightNeedsCalibration(t *testing.T) {
	r := NewRig(DefaultRigConfig)
	r.SetDutyCycle(Main, 70)
	r.Enable(Main)
	run(r, time.Second)
	if h := r.CurrentHeightPercent(); h != 0 {
		t.Fatalf("height %d before zero calibration", h)
	}
}

func TestLiftAndFall(t *testing.T) {
	r := NewRig(DefaultRigConfig)
	r.TriggerZeroCalibration()
	if h := r.CurrentHeightPercent(); h != 0 {
		t.Fatalf("height %d straight after zeroing", h)
	}

	r.SetDutyCycle(Main, 50)
	r.Enable(Main)
	run(r, 10*time.Second)
	// (50 - 30) * 2.5 = 50%.
	if h := r.CurrentHeightPercent(); h < 45 || h > 50 {
		t.Fatalf("height %d, expected about 50", h)
	}

	r.Disable(Main)
	run(r, 10*time.Second)
	if h := r.CurrentHeightPercent(); h != 0 {
		t.Fatalf("height %d after cutting the main rotor", h)
	}
}

func TestSpinUpFindsReference(t *testing.T) {
	r := NewRig(DefaultRigConfig)
	r.TriggerReferenceSearch()
	r.SetDutyCycle(Main, 25)
	r.Enable(Main)
	for i := 0; i < 2000 && !r.ReferenceFound(); i++ {
		r.Step(simDT)
	}
	if !r.ReferenceFound() {
		t.Fatal("reference never found")
	}
	if y := r.CurrentYaw(); y < -5 || y > 5 {
		t.Fatalf("yaw %d straight after finding the reference, expected about 0", y)
	}

	r.TriggerReferenceSearch()
	if r.ReferenceFound() {
		t.Fatal("new search should clear the found flag")
	}
}

func TestNoSpinOnTheGround(t *testing.T) {
	r := NewRig(DefaultRigConfig)
	r.TriggerReferenceSearch()
	run(r, time.Second)
	if r.ReferenceFound() || r.CurrentYaw() != int(DefaultRigConfig.StartYaw) {
		t.Fatalf("craft moved with the rotors off: yaw=%d", r.CurrentYaw())
	}
}

func TestClosestReference(t *testing.T) {
	r := NewRig(DefaultRigConfig)
	for _, tc := range []struct{ in, want int }{
		{0, 0}, {44, 0}, {46, 90}, {-46, -90}, {-44, 0}, {135, 180}, {400, 360}, {-200, -180},
	} {
		if got := r.ClosestReference(tc.in); got != tc.want {
			t.Errorf("ClosestReference(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDutyClamp(t *testing.T) {
	r := NewRig(DefaultRigConfig)
	r.SetDutyCycle(Tail, 120)
	r.SetDutyCycle(Main, 0)
	if r.duty[Tail] != 98 || r.duty[Main] != 2 {
		t.Fatalf("duty not clamped: %v", r.duty)
	}
}
