package mesh

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereTopology(t *testing.T) {
	t.Parallel()

	m := Sphere(8, 4)
	require.Len(t, m.Positions, 9*5)
	assert.Len(t, m.UVs, len(m.Positions))
	assert.Len(t, m.Normals, len(m.Positions))
	assert.Equal(t, 8*4*2, m.Triangles())

	for _, i := range m.Indices {
		assert.Less(t, int(i), len(m.Positions))
	}
}

func TestSphereVerticesOnUnitSphere(t *testing.T) {
	t.Parallel()

	m := Sphere(DefaultSegments, DefaultRings)
	for i, p := range m.Positions {
		l := math32.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		assert.InDelta(t, 1, l, 1e-5, "vertex %d", i)
		assert.Equal(t, p, m.Normals[i])
	}
	assert.Equal(t, [2]float32{0, 1}, m.UVs[0])
	assert.InDelta(t, 1, m.Positions[0][1], 1e-6, "first ring is the north pole")
}

// Triangles wind counter-clockwise seen from outside: the face normal points
// away from the centre.
func TestSphereWindingFacesOutward(t *testing.T) {
	t.Parallel()

	m := Sphere(16, 8)
	for tri := 0; tri < m.Triangles(); tri++ {
		a, b, c := m.Positions[m.Indices[tri*3]], m.Positions[m.Indices[tri*3+1]], m.Positions[m.Indices[tri*3+2]]
		e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		area := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if area < 1e-6 {
			continue // collapsed triangles at the poles
		}
		centroid := [3]float32{a[0] + b[0] + c[0], a[1] + b[1] + c[1], a[2] + b[2] + c[2]}
		dot := n[0]*centroid[0] + n[1]*centroid[1] + n[2]*centroid[2]
		assert.Greater(t, dot, float32(0), "triangle %d winds inward", tri)
	}
}

func TestSphereClampsTessellation(t *testing.T) {
	t.Parallel()

	m := Sphere(0, 0)
	assert.Equal(t, 3*2*2, m.Triangles())
}
