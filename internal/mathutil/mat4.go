package mathutil

// Mat4 is a 4×4 homogeneous matrix stored row-major. The translation of an
// affine transform lives in the last column (m[3], m[7], m[11]).
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func Mat4Diag(x, y, z, w float64) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, w,
	}
}

// Mat4Translate returns a pure translation by t.
func Mat4Translate(t Vec3) Mat4 {
	return Mat4{
		1, 0, 0, t[0],
		0, 1, 0, t[1],
		0, 0, 1, t[2],
		0, 0, 0, 1,
	}
}

// Mat4Scale returns a non-uniform scale by s.
func Mat4Scale(s Vec3) Mat4 {
	return Mat4Diag(s[0], s[1], s[2], 1)
}

// Mat4Rotate embeds a 3×3 rotation.
func Mat4Rotate(r Mat3) Mat4 {
	return FromMat3Translation(r, Vec3{})
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// Mat4Chain returns ms[0] × ms[1] × ... × ms[n-1].
func Mat4Chain(ms ...Mat4) Mat4 {
	out := Mat4Identity()
	for _, m := range ms {
		out = Mat4Mul(out, m)
	}
	return out
}

// MulPoint transforms a 3D point (w=1) by the affine part of the matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// MulVec4 returns M × (x, y, z, w) with the full bottom row applied.
func (m Mat4) MulVec4(v [4]float64) [4]float64 {
	var out [4]float64
	for r := 0; r < 4; r++ {
		out[r] = m[r*4]*v[0] + m[r*4+1]*v[1] + m[r*4+2]*v[2] + m[r*4+3]*v[3]
	}
	return out
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// Upper3 returns the upper-left 3×3 block.
func (m Mat4) Upper3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// NormalMatrix returns the inverse-transpose of the upper 3×3 block, which
// keeps normals perpendicular under non-uniform scale.
func (m Mat4) NormalMatrix() Mat3 {
	return m.Upper3().Inverse().Transpose()
}

func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			t[c*4+r] = m[r*4+c]
		}
	}
	return t
}

// ColumnMajor32 returns the matrix in the float32 column-major layout GPU
// uniform uploads expect.
func (m Mat4) ColumnMajor32() [16]float32 {
	var out [16]float32
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[c*4+r] = float32(m[r*4+c])
		}
	}
	return out
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	return m.ApproxEqual(Mat4Identity(), 1e-8)
}

// ApproxEqual reports whether every element of m is within tol of o.
func (m Mat4) ApproxEqual(o Mat4, tol float64) bool {
	for i := 0; i < 16; i++ {
		d := m[i] - o[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}
