package orbit

import (
	"fmt"

	"ar-orrery/internal/mathutil"
)

// System owns a set of bodies. An anchor handle may only name a body added
// earlier, so anchors always outlive their dependents and the anchor graph
// cannot contain a cycle.
type System struct {
	bodies []Body
}

// NewSystem returns an empty system. Bodies are added parents first.
func NewSystem() *System {
	return &System{}
}

// Add validates b, computes its initial transform and returns its handle.
func (s *System) Add(b Body) (BodyID, error) {
	if err := b.validate(); err != nil {
		return NoBody, err
	}
	if b.Anchor.IsBody() && !s.valid(b.Anchor.Body()) {
		return NoBody, fmt.Errorf("%w: %q anchored to body %d of %d", ErrUnknownAnchor, b.Name, b.Anchor.Body(), len(s.bodies))
	}
	id := BodyID(len(s.bodies))
	b.Recompute(s.AnchorPosition(b.Anchor))
	s.bodies = append(s.bodies, b)
	return id, nil
}

// MustAdd is Add for statically known bodies; it panics on error.
func (s *System) MustAdd(b Body) BodyID {
	id, err := s.Add(b)
	if err != nil {
		panic(err)
	}
	return id
}

func (s *System) valid(id BodyID) bool {
	return id >= 0 && int(id) < len(s.bodies)
}

// Len returns the number of bodies.
func (s *System) Len() int {
	return len(s.bodies)
}

// Body returns the body for id, or nil. The pointer is invalidated by Add.
func (s *System) Body(id BodyID) *Body {
	if !s.valid(id) {
		return nil
	}
	return &s.bodies[id]
}

// Lookup finds a body by name.
func (s *System) Lookup(name string) (BodyID, bool) {
	for i := range s.bodies {
		if s.bodies[i].Name == name {
			return BodyID(i), true
		}
	}
	return NoBody, false
}

// Position returns the current centre of body id.
func (s *System) Position(id BodyID) mathutil.Vec3 {
	if !s.valid(id) {
		return mathutil.Vec3{}
	}
	return s.bodies[id].Position()
}

// AnchorPosition resolves an anchor to a point using the anchor body's
// transform as it is right now.
func (s *System) AnchorPosition(a Anchor) mathutil.Vec3 {
	if a.IsBody() {
		return s.Position(a.Body())
	}
	return a.Point
}

// Advance steps one body by dt. The anchor position is read at call time:
// a body advanced before its anchor sees the anchor's previous position.
func (s *System) Advance(id BodyID, dt float64) {
	if !s.valid(id) {
		return
	}
	b := &s.bodies[id]
	b.Advance(dt, s.AnchorPosition(b.Anchor))
}

// AdvanceAll steps every body in handle order, which always visits anchors
// before their dependents.
func (s *System) AdvanceAll(dt float64) {
	for i := range s.bodies {
		s.Advance(BodyID(i), dt)
	}
}

// Rates are the run-time adjustable parameters of a body.
type Rates struct {
	SpinRate    float64
	OrbitRate   float64
	OrbitRadius float64
}

// Rates returns the current rates of body id.
func (s *System) Rates(id BodyID) Rates {
	if !s.valid(id) {
		return Rates{}
	}
	b := &s.bodies[id]
	return Rates{SpinRate: b.SpinRate, OrbitRate: b.OrbitRate, OrbitRadius: b.OrbitRadius}
}

// SetRates changes the rates of body id. The new radius takes effect on
// the next Advance; accumulated angles are kept.
func (s *System) SetRates(id BodyID, r Rates) error {
	if !s.valid(id) {
		return fmt.Errorf("%w: body %d", ErrUnknownAnchor, id)
	}
	b := &s.bodies[id]
	if r.OrbitRadius < 0 {
		return fmt.Errorf("%w: %q radius %g", ErrNegativeRadius, b.Name, r.OrbitRadius)
	}
	if r.OrbitRadius > 0 && b.OrbitAxis.IsZero() {
		return fmt.Errorf("%w: %q orbit axis", ErrZeroAxis, b.Name)
	}
	b.SpinRate, b.OrbitRate, b.OrbitRadius = r.SpinRate, r.OrbitRate, r.OrbitRadius
	return nil
}
