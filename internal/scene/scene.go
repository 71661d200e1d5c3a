// Package scene orders orbital bodies for update and drawing and turns
// them into renderer-agnostic draw calls.
package scene

import (
	"fmt"
	"image"
	"log/slog"

	"ar-orrery/internal/diag"
	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/mesh"
	"ar-orrery/internal/orbit"
)

// Default light terms for lit bodies.
const (
	DefaultAmbient = 0.12
	DefaultDiffuse = 1.0
)

// Entry is one drawable body. Alpha 0 is treated as opaque.
type Entry struct {
	Body     orbit.BodyID
	Mesh     *mesh.Mesh
	Texture  *image.NRGBA
	Emissive bool
	Alpha    float64
}

// Light is the single point light, in view space.
type Light struct {
	Enabled  bool
	Position mathutil.Vec3
	Ambient  float64
	Diffuse  float64
}

// DrawCall is everything a renderer needs to draw one body.
type DrawCall struct {
	Name      string
	World     mathutil.Mat4
	ModelView mathutil.Mat4
	MVP       mathutil.Mat4
	Normal    mathutil.Mat3 // view-space normal matrix
	Mesh      *mesh.Mesh
	Texture   *image.NRGBA
	Alpha     float64
	Emissive  bool
	Light     Light
}

// Renderer consumes draw calls in scene order.
type Renderer interface {
	DrawBody(DrawCall)
}

type node struct {
	Entry
	world mathutil.Mat4
	stale bool // anchor not inserted before this entry
}

// Scene is single-threaded. Insertion order is both update order and draw
// order.
type Scene struct {
	sys        *orbit.System
	nodes      []node
	correction mathutil.Mat4

	Ambient float64
	Diffuse float64
}

// New returns an empty scene over sys with identity correction and the
// default light terms.
func New(sys *orbit.System) *Scene {
	return &Scene{
		sys:        sys,
		correction: mathutil.Mat4Identity(),
		Ambient:    DefaultAmbient,
		Diffuse:    DefaultDiffuse,
	}
}

// System returns the bodies the scene draws.
func (s *Scene) System() *orbit.System {
	return s.sys
}

// Add appends e. An entry whose anchor body has not been added before it
// is accepted; it reads a one-frame-old anchor position and Update warns
// about it once.
func (s *Scene) Add(e Entry) error {
	b := s.sys.Body(e.Body)
	if b == nil {
		return fmt.Errorf("scene: add: %w: body %d", orbit.ErrUnknownAnchor, e.Body)
	}
	if e.Alpha <= 0 || e.Alpha > 1 {
		e.Alpha = 1
	}
	n := node{Entry: e, world: mathutil.Mat4Mul(s.correction, b.Transform)}
	if b.Anchor.IsBody() {
		n.stale = !s.contains(b.Anchor.Body())
	}
	s.nodes = append(s.nodes, n)
	return nil
}

func (s *Scene) contains(id orbit.BodyID) bool {
	for i := range s.nodes {
		if s.nodes[i].Body == id {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (s *Scene) Len() int {
	return len(s.nodes)
}

// SetCorrection replaces the transform applied to every body transform to
// map the orbital frame onto the marker frame. It is not cumulative.
func (s *Scene) SetCorrection(m mathutil.Mat4) {
	s.correction = m
	s.refresh()
}

// Correction returns the current corrective transform.
func (s *Scene) Correction() mathutil.Mat4 {
	return s.correction
}

// Update advances every entry's body by dt in insertion order, then
// recomputes world transforms.
func (s *Scene) Update(dt float64, d *diag.Context) {
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.stale {
			b := s.sys.Body(n.Body)
			d.Once(slog.LevelWarn, fmt.Sprintf("scene.stale-anchor.%d", n.Body),
				"body updated before its anchor", "body", b.Name, "anchor", b.Anchor.Body())
		}
		s.sys.Advance(n.Body, dt)
	}
	s.refresh()
	d.Tick(dt)
}

func (s *Scene) refresh() {
	for i := range s.nodes {
		n := &s.nodes[i]
		n.world = mathutil.Mat4Mul(s.correction, s.sys.Body(n.Body).Transform)
	}
}

// World returns the world transform of the i-th entry.
func (s *Scene) World(i int) mathutil.Mat4 {
	return s.nodes[i].world
}

// Light returns the point light for a view: at the first emissive entry,
// or disabled when there is none.
func (s *Scene) Light(view mathutil.Mat4) Light {
	l := Light{Ambient: s.Ambient, Diffuse: s.Diffuse}
	for i := range s.nodes {
		if s.nodes[i].Emissive {
			l.Enabled = true
			l.Position = view.MulPoint(s.nodes[i].world.Translation())
			break
		}
	}
	return l
}

// DrawCalls builds the draw calls for the current state. alpha multiplies
// each entry's own alpha. The result does not alias scene state.
func (s *Scene) DrawCalls(view, proj mathutil.Mat4, alpha float64) []DrawCall {
	light := s.Light(view)
	vp := mathutil.Mat4Mul(proj, view)
	calls := make([]DrawCall, 0, len(s.nodes))
	for i := range s.nodes {
		n := &s.nodes[i]
		mv := mathutil.Mat4Mul(view, n.world)
		calls = append(calls, DrawCall{
			Name:      s.sys.Body(n.Body).Name,
			World:     n.world,
			ModelView: mv,
			MVP:       mathutil.Mat4Mul(vp, n.world),
			Normal:    mv.NormalMatrix(),
			Mesh:      n.Mesh,
			Texture:   n.Texture,
			Alpha:     n.Alpha * alpha,
			Emissive:  n.Emissive,
			Light:     light,
		})
	}
	return calls
}

// Draw submits every entry to r in insertion order.
func (s *Scene) Draw(r Renderer, view, proj mathutil.Mat4, alpha float64) {
	for _, dc := range s.DrawCalls(view, proj, alpha) {
		r.DrawBody(dc)
	}
}
