// Package motion accumulates relative motion samples into a position track.
package motion

import (
	"math"

	"navsense/unit"
)

// Displacement is the motion observed over one sample interval.
type Displacement struct {
	DX, DY float64
	DT     float64
}

// Position is the running sum of displacements since acquisition start.
type Position struct {
	X, Y float64
	T    float64
}

// Velocity is the last displacement divided by its interval.
type Velocity struct {
	X, Y float64
}

// PolarVelocity is a velocity as speed R and direction W in radians.
type PolarVelocity struct {
	R float64
	W float64
}

// Polar converts v to polar form.
func (v Velocity) Polar() PolarVelocity {
	return PolarVelocity{
		R: math.Hypot(v.X, v.Y),
		W: math.Atan2(v.Y, v.X),
	}
}

// Track holds samples in inches and microseconds.
// The zero value is an empty track.
type Track struct {
	dx, dy float64
	dt     uint32

	x, y float64
	t    uint64

	count uint32
}

// Reset zeroes the position and the last displacement.
func (tr *Track) Reset() {
	*tr = Track{}
}

// Fold records a displacement and adds it to the position.
func (tr *Track) Fold(dxInch, dyInch float64, dtMicros uint32) {
	tr.dx = dxInch
	tr.dy = dyInch
	tr.dt = dtMicros
	tr.x += dxInch
	tr.y += dyInch
	tr.t += uint64(dtMicros)
	tr.count++
}

// Count returns the number of folds since the last Reset.
func (tr *Track) Count() uint32 {
	return tr.count
}

// Elapsed returns the accumulated time in microseconds.
func (tr *Track) Elapsed() uint64 {
	return tr.t
}

// Displacement returns the last folded displacement in u.
func (tr *Track) Displacement(u unit.Spec) Displacement {
	return Displacement{
		DX: unit.ToDistance(tr.dx, u.Distance),
		DY: unit.ToDistance(tr.dy, u.Distance),
		DT: unit.ToTime(float64(tr.dt), u.Time),
	}
}

// Position returns the accumulated position in u.
func (tr *Track) Position(u unit.Spec) Position {
	return Position{
		X: unit.ToDistance(tr.x, u.Distance),
		Y: unit.ToDistance(tr.y, u.Distance),
		T: unit.ToTime(float64(tr.t), u.Time),
	}
}

// Velocity returns the last displacement over its interval in u.
// A zero interval yields a zero velocity.
func (tr *Track) Velocity(u unit.Spec) Velocity {
	if tr.dt == 0 {
		return Velocity{}
	}
	dt := unit.ToTime(float64(tr.dt), u.Time)
	return Velocity{
		X: unit.ToDistance(tr.dx, u.Distance) / dt,
		Y: unit.ToDistance(tr.dy, u.Distance) / dt,
	}
}

// PolarVelocity returns Velocity(u) in polar form.
func (tr *Track) PolarVelocity(u unit.Spec) PolarVelocity {
	return tr.Velocity(u).Polar()
}
