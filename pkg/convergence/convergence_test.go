package convergence

import "testing"

func TestConvergedAfterReset(t *testing.T) {
	for _, tol := range []int{0, 1, 2, 7} {
		tr := New(tol)
		if !tr.HasConverged() {
			t.Errorf("tolerance %d: expected converged straight after New", tol)
		}
		if tr.Sum() != tr.Tolerance() {
			t.Errorf("tolerance %d: reset window sums to %d, want %d", tol, tr.Sum(), tr.Tolerance())
		}
		tr.Record(100, 0)
		tr.Reset()
		if !tr.HasConverged() {
			t.Errorf("tolerance %d: expected converged straight after Reset", tol)
		}
	}
}

func TestBoundaryIsAccepted(t *testing.T) {
	tr := New(2)
	// Sum exactly 10.
	for _, e := range []int{0, 0, 0, 0, 10} {
		tr.Record(e, 0)
	}
	expectConverged(t, tr, true)

	tr.Record(11, 0) // Overwrites the first 0.
	expectConverged(t, tr, false)
}

func TestRecordIsCircular(t *testing.T) {
	tr := New(1)
	for i := 0; i < NumSamples; i++ {
		tr.Record(50, 40)
	}
	expectConverged(t, tr, false)
	if tr.Sum() != 50 {
		t.Fatalf("expected sum 50, got %d", tr.Sum())
	}

	// Five good samples push every bad one out.
	for i := 0; i < NumSamples-1; i++ {
		tr.Record(40, 40)
		expectConverged(t, tr, false)
	}
	tr.Record(40, 40)
	expectConverged(t, tr, true)
}

func TestRecordUsesAbsoluteError(t *testing.T) {
	tr := New(0)
	tr.Record(-3, 0)
	tr.Record(3, 0)
	if tr.Sum() != 6 {
		t.Fatalf("expected sum 6, got %d", tr.Sum())
	}
}

func expectConverged(t *testing.T, tr *Tracker, want bool) {
	t.Helper()
	if tr.HasConverged() != want {
		t.Errorf("HasConverged() = %v, want %v (window %v, tolerance %d)", !want, want, tr.window, tr.Tolerance())
	}
}
