package convergence

// NumSamples is the length of the error window.
const NumSamples = 5

// Tracker decides whether one axis has reached its target by summing the
// absolute error of the last NumSamples readings.
type Tracker struct {
	tolerancePerSample int
	window             [NumSamples]int
	idx                int
}

func New(tolerancePerSample int) *Tracker {
	t := &Tracker{tolerancePerSample: tolerancePerSample}
	t.Reset()
	return t
}

// Record overwrites the oldest sample with |current - target|.
func (t *Tracker) Record(current, target int) {
	e := current - target
	if e < 0 {
		e = -e
	}
	t.window[t.idx] = e
	t.idx = (t.idx + 1) % NumSamples
}

// Reset fills the window with the per-sample tolerance, so HasConverged is
// true straight afterwards.
func (t *Tracker) Reset() {
	for i := range t.window {
		t.window[i] = t.tolerancePerSample
	}
}

func (t *Tracker) HasConverged() bool {
	return t.Sum() <= t.Tolerance()
}

func (t *Tracker) Sum() int {
	sum := 0
	for _, e := range t.window {
		sum += e
	}
	return sum
}

// Tolerance is the limit on the windowed error sum.
func (t *Tracker) Tolerance() int {
	return t.tolerancePerSample * NumSamples
}
