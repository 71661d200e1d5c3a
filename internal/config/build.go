package config

import (
	"fmt"

	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/mesh"
	"ar-orrery/internal/orbit"
	"ar-orrery/internal/scene"
	"ar-orrery/internal/texture"
)

// Correction returns the transform from the orbital frame onto the marker:
// lift along the marker normal, tilt, then scale to marker units.
func (s SceneConfig) Correction() mathutil.Mat4 {
	tilt := 0.0
	if s.TiltDegrees != nil {
		tilt = mathutil.Deg2Rad(*s.TiltDegrees)
	}
	lift := 0.0
	if s.Lift != nil {
		lift = *s.Lift
	}
	return mathutil.Mat4Chain(
		mathutil.Mat4Translate(mathutil.Vec3{0, 0, lift}),
		mathutil.Mat4Rotate(mathutil.RotX(tilt)),
		mathutil.Mat4Scale(mathutil.Vec3{s.Scale, s.Scale, s.Scale}),
	)
}

// System builds the orbital bodies in declaration order.
func (s SceneConfig) System() (*orbit.System, error) {
	sys := orbit.NewSystem()
	for _, bc := range s.Bodies {
		b := orbit.Body{
			Name:        bc.Name,
			Scale:       mathutil.Vec3{bc.Scale, bc.Scale, bc.Scale},
			SpinAxis:    mathutil.Vec3(bc.SpinAxis),
			SpinRate:    bc.SpinRate,
			OrbitAxis:   mathutil.Vec3(bc.OrbitAxis),
			OrbitRadius: bc.OrbitRadius,
			OrbitRate:   bc.OrbitRate,
			Anchor:      orbit.AtPoint(mathutil.Vec3(bc.AnchorPoint)),
		}
		if bc.Anchor != "" {
			id, ok := sys.Lookup(bc.Anchor)
			if !ok {
				return nil, fmt.Errorf("config: body %q: %w: %q", bc.Name, orbit.ErrUnknownAnchor, bc.Anchor)
			}
			b.Anchor = orbit.AtBody(id)
		}
		if _, err := sys.Add(b); err != nil {
			return nil, fmt.Errorf("config: body %q: %w", bc.Name, err)
		}
	}
	return sys, nil
}

// Scene builds the system and a scene drawing every body as a textured
// sphere. Missing textures leave the body untextured. tex may be nil.
func (s SceneConfig) Scene(tex texture.Resolver) (*scene.Scene, error) {
	sys, err := s.System()
	if err != nil {
		return nil, err
	}
	sc := scene.New(sys)
	sc.SetCorrection(s.Correction())

	sphere := mesh.Sphere(s.Segments, s.Rings)
	for i, bc := range s.Bodies {
		e := scene.Entry{
			Body:     orbit.BodyID(i),
			Mesh:     sphere,
			Emissive: bc.Emissive,
			Alpha:    bc.Alpha,
		}
		if tex != nil {
			e.Texture = tex.Resolve(bc.Texture)
		}
		if err := sc.Add(e); err != nil {
			return nil, err
		}
	}
	return sc, nil
}
