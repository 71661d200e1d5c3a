package cv

import (
	"gocv.io/x/gocv"

	"ar-orrery/internal/camera"
	"ar-orrery/internal/capture"
	"ar-orrery/internal/pose"
)

// ArucoEstimator detects a 6x6 ArUco marker and solves its pose. When
// several markers are visible the first detection wins.
type ArucoEstimator struct {
	detector gocv.ArucoDetector
	solver   pose.SquareSolver
}

// NewArucoEstimator builds an estimator for markers of the given side
// length, using intrinsics in for the pose solve.
func NewArucoEstimator(in camera.Intrinsics, markerLength float64) *ArucoEstimator {
	dict := gocv.GetPredefinedDictionary(gocv.ArucoDict6x6_250)
	params := gocv.NewArucoDetectorParameters()
	return &ArucoEstimator{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
		solver:   pose.NewSquareSolver(in, markerLength),
	}
}

// Detect returns the marker pose, or a pose with Detected=false.
func (e *ArucoEstimator) Detect(f capture.Frame) pose.Pose {
	if f.Empty() {
		return pose.Pose{}
	}

	var m gocv.Mat
	if native, ok := f.Native.(*gocv.Mat); ok && native != nil && !native.Empty() {
		m = *native
	} else {
		converted, err := gocv.ImageToMatRGB(f.Image)
		if err != nil {
			return pose.Pose{}
		}
		defer converted.Close()
		m = converted
	}

	corners, ids, _ := e.detector.DetectMarkers(m)
	if len(ids) == 0 || len(corners) == 0 || len(corners[0]) != 4 {
		return pose.Pose{}
	}

	var pts [4]pose.Point2
	for i, c := range corners[0] {
		pts[i] = pose.Point2{X: float64(c.X), Y: float64(c.Y)}
	}
	p, err := e.solver.SolveRefined(pts)
	if err != nil {
		return pose.Pose{}
	}
	return p
}

// Close releases the detector.
func (e *ArucoEstimator) Close() error {
	return e.detector.Close()
}
