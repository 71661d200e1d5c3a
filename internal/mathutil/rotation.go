package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// AxisAngle returns the rotation by angle (radians, right-handed) about
// axis using Rodrigues' formula. The axis is normalized; a zero axis
// yields identity.
func AxisAngle(axis Vec3, angle float64) Mat3 {
	k := axis.Normalize()
	if k.IsZero() {
		return Mat3Identity()
	}
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	x, y, z := k[0], k[1], k[2]
	return Mat3{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	}
}

// FromRotationVector converts an axis-angle vector (direction = axis,
// length = angle) into a rotation matrix.
func FromRotationVector(rvec Vec3) Mat3 {
	return AxisAngle(rvec, rvec.Len())
}

// RotationVector is the inverse of FromRotationVector for proper rotations.
func RotationVector(r Mat3) Vec3 {
	cos := (r[0] + r[4] + r[8] - 1) / 2
	cos = math.Max(-1, math.Min(1, cos))
	angle := math.Acos(cos)
	if angle < 1e-9 {
		return Vec3{}
	}
	if math.Pi-angle < 1e-6 {
		return axisNearPi(r).Scale(angle)
	}
	axis := Vec3{r[7] - r[5], r[2] - r[6], r[3] - r[1]}.Scale(1 / (2 * math.Sin(angle)))
	return axis.Scale(angle)
}

// axisNearPi recovers the unit axis of a rotation by about π, where the
// antisymmetric part vanishes and R ≈ 2kkᵀ - I. The largest diagonal entry
// is the pivot; the other components follow from the symmetric off-diagonal
// sums r_ij + r_ji = 4 k_i k_j.
func axisNearPi(r Mat3) Vec3 {
	p := 0
	for i := 1; i < 3; i++ {
		if r[i*4] > r[p*4] {
			p = i
		}
	}
	var k Vec3
	k[p] = math.Sqrt(math.Max(0, (r[p*4]+1)/2))
	if k[p] < 1e-12 {
		return Vec3{1, 0, 0}
	}
	for j := 0; j < 3; j++ {
		if j != p {
			k[j] = (r[p*3+j] + r[j*3+p]) / (4 * k[p])
		}
	}
	// Just short of π the antisymmetric part still fixes the direction.
	if k.Dot(Vec3{r[7] - r[5], r[2] - r[6], r[3] - r[1]}) < 0 {
		k = k.Scale(-1)
	}
	return k.Normalize()
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}

// WrapAngle maps a into [-π, π].
func WrapAngle(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}
