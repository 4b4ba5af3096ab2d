package motion

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"navsense/unit"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestTrackAccumulates(t *testing.T) {
	var tr Track
	tr.Fold(0.01, -0.02, 1000)
	tr.Fold(0.03, 0.01, 500)

	want := Position{X: 0.04, Y: -0.01, T: 1500}
	got := tr.Position(unit.Spec{Distance: unit.Inch, Time: unit.Microsecond})
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Position() mismatch (-want +got):\n%s", diff)
	}
	if tr.Count() != 2 {
		t.Errorf("Count() = %d, want 2", tr.Count())
	}
	if tr.Elapsed() != 1500 {
		t.Errorf("Elapsed() = %d, want 1500", tr.Elapsed())
	}
}

func TestPositionIndependentOfReadUnits(t *testing.T) {
	var tr Track
	tr.Fold(1.0, 0.5, 2000)

	mm := tr.Position(unit.Spec{Distance: unit.Millimeter, Time: unit.Millisecond})
	if diff := cmp.Diff(Position{X: 25.4, Y: 12.7, T: 2}, mm, approx); diff != "" {
		t.Errorf("mm/ms mismatch (-want +got):\n%s", diff)
	}

	// Switching units between folds changes presentation only.
	tr.Fold(1.0, 0.5, 2000)
	in := tr.Position(unit.Spec{Distance: unit.Inch, Time: unit.Second})
	if diff := cmp.Diff(Position{X: 2, Y: 1, T: 0.004}, in, approx); diff != "" {
		t.Errorf("in/s mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplacementIsLastFold(t *testing.T) {
	var tr Track
	tr.Fold(0.1, 0.1, 100)
	tr.Fold(0.2, -0.3, 250)

	got := tr.Displacement(unit.Spec{Distance: unit.Thou, Time: unit.Microsecond})
	if diff := cmp.Diff(Displacement{DX: 200, DY: -300, DT: 250}, got, approx); diff != "" {
		t.Errorf("Displacement() mismatch (-want +got):\n%s", diff)
	}
}

func TestVelocity(t *testing.T) {
	var tr Track
	if v := tr.Velocity(unit.Default); v != (Velocity{}) {
		t.Errorf("empty track velocity = %+v, want zero", v)
	}

	tr.Fold(0.3, 0.4, 1000)
	v := tr.Velocity(unit.Spec{Distance: unit.Inch, Time: unit.Millisecond})
	if diff := cmp.Diff(Velocity{X: 0.3, Y: 0.4}, v, approx); diff != "" {
		t.Errorf("Velocity() mismatch (-want +got):\n%s", diff)
	}

	p := tr.PolarVelocity(unit.Spec{Distance: unit.Inch, Time: unit.Millisecond})
	want := PolarVelocity{R: 0.5, W: math.Atan2(0.4, 0.3)}
	if diff := cmp.Diff(want, p, approx); diff != "" {
		t.Errorf("PolarVelocity() mismatch (-want +got):\n%s", diff)
	}
}

func TestReset(t *testing.T) {
	var tr Track
	tr.Fold(1, 1, 1)
	tr.Reset()
	if diff := cmp.Diff(Position{}, tr.Position(unit.Default)); diff != "" {
		t.Errorf("Position after Reset (-want +got):\n%s", diff)
	}
	if tr.Count() != 0 {
		t.Errorf("Count after Reset = %d", tr.Count())
	}
}
