package pose

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"ar-orrery/internal/camera"
	"ar-orrery/internal/mathutil"
)

// DefaultMarkerLength is the printed marker side in metres.
const DefaultMarkerLength = 0.08

// ErrDegenerate is returned when the corner set cannot define a pose.
var ErrDegenerate = errors.New("pose: degenerate marker corners")

// Point2 is an image point in pixels.
type Point2 struct{ X, Y float64 }

// SquareSolver recovers the pose of a square planar marker from its four
// image corners. Corners follow the detector order: top-left, top-right,
// bottom-right, bottom-left, matching marker-frame points
// (-L/2, L/2), (L/2, L/2), (L/2, -L/2), (-L/2, -L/2) on the z=0 plane.
type SquareSolver struct {
	Intrinsics camera.Intrinsics
	Length     float64
}

// NewSquareSolver returns a solver for markers of side length (metres).
func NewSquareSolver(in camera.Intrinsics, length float64) SquareSolver {
	if length <= 0 {
		length = DefaultMarkerLength
	}
	return SquareSolver{Intrinsics: in, Length: length}
}

// unit square corners; scaled by L/2 after solving for better conditioning.
var unitCorners = [4][2]float64{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}}

// ObjectPoints returns the marker-frame corner positions.
func (s SquareSolver) ObjectPoints() [4]mathutil.Vec3 {
	h := s.Length / 2
	var pts [4]mathutil.Vec3
	for i, c := range unitCorners {
		pts[i] = mathutil.Vec3{c[0] * h, c[1] * h, 0}
	}
	return pts
}

// Solve estimates the marker pose. The homography between the marker plane
// and normalized image coordinates is found by DLT, decomposed into
// λ[r1 r2 t], and the rotation is projected onto SO(3) by SVD.
func (s SquareSolver) Solve(corners [4]Point2) (Pose, error) {
	a := mat.NewDense(8, 9, nil)
	for i, c := range unitCorners {
		x, y := s.Intrinsics.Normalize(corners[i].X, corners[i].Y)
		X, Y := c[0], c[1]
		a.SetRow(2*i, []float64{X, Y, 1, 0, 0, 0, -x * X, -x * Y, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, X, Y, 1, -y * X, -y * Y, -y})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Pose{}, fmt.Errorf("%w: homography SVD did not converge", ErrDegenerate)
	}
	values := svd.Values(nil)
	if values[len(values)-1] < 1e-12*values[0] {
		// Rank below 8: collinear or repeated corners.
		return Pose{}, fmt.Errorf("%w: rank-deficient correspondence", ErrDegenerate)
	}
	var v mat.Dense
	svd.VTo(&v)
	h := mat.Col(nil, 8, &v)

	// Undo the unit-square scaling on the first two columns.
	half := s.Length / 2
	h1 := mathutil.Vec3{h[0], h[3], h[6]}.Scale(1 / half)
	h2 := mathutil.Vec3{h[1], h[4], h[7]}.Scale(1 / half)
	h3 := mathutil.Vec3{h[2], h[5], h[8]}

	lambda := (h1.Len() + h2.Len()) / 2
	if lambda < 1e-12 {
		return Pose{}, ErrDegenerate
	}
	if h3[2] < 0 {
		// The marker must lie in front of the camera.
		lambda = -lambda
	}
	r1 := h1.Scale(1 / lambda)
	r2 := h2.Scale(1 / lambda)
	t := h3.Scale(1 / lambda)

	rot, err := nearestRotation(mathutil.Mat3FromCols(r1, r2, r1.Cross(r2)))
	if err != nil {
		return Pose{}, err
	}
	return Pose{Rotation: rot, Translation: t, Detected: true}, nil
}

// Refine polishes p by minimising the squared reprojection error over the
// six pose parameters with Nelder-Mead. p is returned unchanged when the
// search does not improve on it.
func (s SquareSolver) Refine(p Pose, corners [4]Point2) Pose {
	obj := s.ObjectPoints()
	sqErr := func(q Pose) float64 {
		proj := s.Project(q, obj)
		var sum float64
		for i := range corners {
			dx, dy := proj[i].X-corners[i].X, proj[i].Y-corners[i].Y
			sum += dx*dx + dy*dy
		}
		return sum
	}
	cost := func(x []float64) float64 {
		return sqErr(FromRotationVector(mathutil.Vec3{x[0], x[1], x[2]}, mathutil.Vec3{x[3], x[4], x[5]}))
	}

	// The baseline is p itself, not its rotation-vector round trip.
	f0 := sqErr(p)
	rv := mathutil.RotationVector(p.Rotation)
	x0 := []float64{rv[0], rv[1], rv[2], p.Translation[0], p.Translation[1], p.Translation[2]}

	settings := &optimize.Settings{
		FuncEvaluations: 3000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 60,
		},
	}
	result, err := optimize.Minimize(optimize.Problem{Func: cost}, x0, settings,
		&optimize.NelderMead{SimplexSize: 0.01})
	if err != nil || result == nil || !(result.F < f0) || result.X[5] <= 0 {
		return p
	}
	x := result.X
	return FromRotationVector(mathutil.Vec3{x[0], x[1], x[2]}, mathutil.Vec3{x[3], x[4], x[5]})
}

// SolveRefined is Solve followed by Refine.
func (s SquareSolver) SolveRefined(corners [4]Point2) (Pose, error) {
	p, err := s.Solve(corners)
	if err != nil {
		return Pose{}, err
	}
	return s.Refine(p, corners), nil
}

// Project maps marker-frame points to pixels under pose p.
func (s SquareSolver) Project(p Pose, pts [4]mathutil.Vec3) [4]Point2 {
	var out [4]Point2
	for i, pt := range pts {
		c := p.Rotation.MulVec3(pt).Add(p.Translation)
		u, v := s.Intrinsics.PixelOf(c)
		out[i] = Point2{u, v}
	}
	return out
}

// ReprojectionError returns the RMS pixel distance between corners and the
// marker corners projected under p.
func (s SquareSolver) ReprojectionError(p Pose, corners [4]Point2) float64 {
	proj := s.Project(p, s.ObjectPoints())
	var sum float64
	for i := range corners {
		dx, dy := proj[i].X-corners[i].X, proj[i].Y-corners[i].Y
		sum += dx*dx + dy*dy
	}
	return math.Sqrt(sum / 4)
}

func nearestRotation(m mathutil.Mat3) (mathutil.Mat3, error) {
	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(3, 3, m[:]), mat.SVDFull); !ok {
		return mathutil.Mat3{}, fmt.Errorf("%w: rotation SVD did not converge", ErrDegenerate)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		// Reflect the smallest singular direction to stay in SO(3).
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		r.Mul(&u, v.T())
	}

	var out mathutil.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = r.At(i, j)
		}
	}
	return out, nil
}
