// Package orbit computes the kinematics of spinning and orbiting bodies.
//
// A Body accumulates a spin angle and an orbit angle from the time steps it
// is given, and rebuilds its transform from those angles every step, so
// rounding never compounds from frame to frame. Bodies live in a System,
// which owns them and hands out BodyID handles; an orbit anchor refers to
// another body by handle.
package orbit

import (
	"errors"
	"fmt"

	"ar-orrery/internal/mathutil"
)

// Errors returned by System.Add and System.SetRates.
var (
	ErrNegativeRadius = errors.New("orbit: negative orbit radius")
	ErrZeroAxis       = errors.New("orbit: zero rotation axis")
	ErrUnknownAnchor  = errors.New("orbit: anchor body not in system")
)

// BodyID is a handle to a body owned by a System.
type BodyID int

// NoBody is the BodyID of a fixed-point anchor.
const NoBody BodyID = -1

// Anchor is the point an orbit is measured from: either a fixed point or
// the current position of another body. The zero Anchor is the origin.
type Anchor struct {
	Point  mathutil.Vec3
	body   BodyID
	follow bool
}

// AtPoint anchors an orbit at a fixed point.
func AtPoint(p mathutil.Vec3) Anchor {
	return Anchor{Point: p, body: NoBody}
}

// AtBody anchors an orbit at another body.
func AtBody(id BodyID) Anchor {
	return Anchor{body: id, follow: true}
}

// IsBody reports whether the anchor follows a body.
func (a Anchor) IsBody() bool {
	return a.follow
}

// Body returns the followed body, or NoBody for a fixed point.
func (a Anchor) Body() BodyID {
	if !a.follow {
		return NoBody
	}
	return a.body
}

// Body is one node of the hierarchy. Angles are radians, rates radians per
// second.
type Body struct {
	Name  string
	Scale mathutil.Vec3

	SpinAxis  mathutil.Vec3
	SpinRate  float64
	SpinAngle float64

	OrbitAxis   mathutil.Vec3
	OrbitRadius float64
	OrbitRate   float64
	OrbitAngle  float64
	Anchor      Anchor

	// Transform is the anchor-space transform derived by the last
	// Recompute; do not edit it directly.
	Transform mathutil.Mat4
}

// Advance accumulates dt seconds of spin and, for a body with a non-zero
// orbit radius, of orbit, then rebuilds the transform around anchorPos.
func (b *Body) Advance(dt float64, anchorPos mathutil.Vec3) {
	b.SpinAngle = mathutil.WrapAngle(b.SpinAngle + b.SpinRate*dt)
	if b.OrbitRadius > 0 {
		b.OrbitAngle = mathutil.WrapAngle(b.OrbitAngle + b.OrbitRate*dt)
	}
	b.Recompute(anchorPos)
}

// Recompute rebuilds the transform from the current angles:
//
//	Translate(anchor + Rot(orbitAxis, orbitAngle)·(r, 0, 0)) · Rot(spinAxis, spinAngle) · Scale(scale)
//
// With a zero radius the body sits on its anchor.
func (b *Body) Recompute(anchorPos mathutil.Vec3) {
	pos := anchorPos
	if b.OrbitRadius > 0 {
		offset := mathutil.AxisAngle(b.OrbitAxis, b.OrbitAngle).MulVec3(mathutil.Vec3{b.OrbitRadius, 0, 0})
		pos = pos.Add(offset)
	}
	b.Transform = mathutil.Mat4Chain(
		mathutil.Mat4Translate(pos),
		mathutil.Mat4Rotate(mathutil.AxisAngle(b.SpinAxis, b.SpinAngle)),
		mathutil.Mat4Scale(b.Scale),
	)
}

// Position returns the body centre from the last Recompute.
func (b *Body) Position() mathutil.Vec3 {
	return b.Transform.Translation()
}

// validate normalizes the axes and fills a zero scale with unit scale.
func (b *Body) validate() error {
	if b.OrbitRadius < 0 {
		return fmt.Errorf("%w: %q radius %g", ErrNegativeRadius, b.Name, b.OrbitRadius)
	}
	if b.SpinAxis.IsZero() {
		return fmt.Errorf("%w: %q spin axis", ErrZeroAxis, b.Name)
	}
	if b.OrbitRadius > 0 && b.OrbitAxis.IsZero() {
		return fmt.Errorf("%w: %q orbit axis", ErrZeroAxis, b.Name)
	}
	b.SpinAxis = b.SpinAxis.Normalize()
	b.OrbitAxis = b.OrbitAxis.Normalize()
	if b.Scale == (mathutil.Vec3{}) {
		b.Scale = mathutil.Vec3{1, 1, 1}
	}
	return nil
}
