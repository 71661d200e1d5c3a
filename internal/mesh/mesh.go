// Package mesh generates the triangle meshes drawn for each body.
package mesh

import (
	"github.com/chewxy/math32"
)

// Mesh is an indexed triangle list. Positions, UVs and Normals are parallel
// slices; Indices holds three entries per triangle, counter-clockwise when
// seen from outside.
type Mesh struct {
	Positions [][3]float32
	UVs       [][2]float32
	Normals   [][3]float32
	Indices   []uint32
}

// Default sphere tessellation.
const (
	DefaultSegments = 64
	DefaultRings    = 64
)

// Sphere returns a unit UV sphere with seg longitudinal segments and ring
// latitudinal rings. Texture v runs from 1 at the north pole (+Y) to 0 at
// the south pole, u wraps once around the equator.
func Sphere(seg, ring int) *Mesh {
	if seg < 3 {
		seg = 3
	}
	if ring < 2 {
		ring = 2
	}

	n := (seg + 1) * (ring + 1)
	m := &Mesh{
		Positions: make([][3]float32, 0, n),
		UVs:       make([][2]float32, 0, n),
		Normals:   make([][3]float32, 0, n),
		Indices:   make([]uint32, 0, seg*ring*6),
	}

	for y := 0; y <= ring; y++ {
		v := float32(y) / float32(ring)
		phi := v * math32.Pi
		for x := 0; x <= seg; x++ {
			u := float32(x) / float32(seg)
			theta := u * 2 * math32.Pi
			p := [3]float32{
				math32.Sin(phi) * math32.Cos(theta),
				math32.Cos(phi),
				math32.Sin(phi) * math32.Sin(theta),
			}
			m.Positions = append(m.Positions, p)
			m.UVs = append(m.UVs, [2]float32{u, 1 - v})
			m.Normals = append(m.Normals, p)
		}
	}

	for y := 0; y < ring; y++ {
		for x := 0; x < seg; x++ {
			a := uint32(y*(seg+1) + x)
			b := a + uint32(seg+1)
			m.Indices = append(m.Indices, a, a+1, b, b, a+1, b+1)
		}
	}
	return m
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}
