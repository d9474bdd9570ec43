package hardware

import (
	"fmt"
)

// Dummy stands in for the rig when checking the wiring: it prints every call
// and reports the craft sat still at zero.
type Dummy struct{}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) SetDutyCycle(ch Channel, percent int) {
	fmt.Printf("DHW: SetDutyCycle ch=%v percent=%v\n", ch, percent)
}

func (d *Dummy) Enable(ch Channel) {
	fmt.Printf("DHW: Enable ch=%v\n", ch)
}

func (d *Dummy) Disable(ch Channel) {
	fmt.Printf("DHW: Disable ch=%v\n", ch)
}

func (d *Dummy) CurrentHeightPercent() int {
	return 0
}

func (d *Dummy) TriggerZeroCalibration() {
	fmt.Println("DHW: TriggerZeroCalibration")
}

func (d *Dummy) TriggerSample() {}

func (d *Dummy) CurrentYaw() int {
	return 0
}

func (d *Dummy) ReferenceFound() bool {
	return true
}

func (d *Dummy) TriggerReferenceSearch() {
	fmt.Println("DHW: TriggerReferenceSearch")
}

func (d *Dummy) ClosestReference(target int) int {
	fmt.Printf("DHW: ClosestReference target=%v\n", target)
	return target
}

var (
	_ YawSensor    = (*Dummy)(nil)
	_ HeightSensor = (*Dummy)(nil)
	_ Rotors       = (*Dummy)(nil)
)
