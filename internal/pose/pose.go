// Package pose converts marker poses reported in the computer-vision camera
// convention into view transforms for the rendering convention.
//
// The view transform is derived by premultiplying the marker-to-camera
// rigid transform with mathutil.VisionToRender, diag(1,-1,-1,1). The marker
// frame is the world frame, so no matrix inverse is ever taken. Treating the
// marker-to-camera transform as camera-to-marker (and inverting it) yields a
// mirrored view and must not be mixed with this policy.
package pose

import (
	"fmt"

	"ar-orrery/internal/mathutil"
)

// Pose locates the marker relative to the camera in vision coordinates
// (X right, Y down, Z forward).
type Pose struct {
	Rotation    mathutil.Mat3
	Translation mathutil.Vec3
	Detected    bool
}

// Identity is the pose of a marker coincident with the camera.
func Identity() Pose {
	return Pose{Rotation: mathutil.Mat3Identity()}
}

// FromRotationVector builds a detected pose from an axis-angle rotation and
// a translation, the form most marker detectors report.
func FromRotationVector(rvec, tvec mathutil.Vec3) Pose {
	return Pose{
		Rotation:    mathutil.FromRotationVector(rvec),
		Translation: tvec,
		Detected:    true,
	}
}

// MarkerToCamera returns the rigid transform [R | t; 0 0 0 1].
func (p Pose) MarkerToCamera() mathutil.Mat4 {
	return mathutil.FromMat3Translation(p.Rotation, p.Translation)
}

// View returns the view transform for this pose.
func (p Pose) View() mathutil.Mat4 {
	return ToViewTransform(p.Rotation, p.Translation)
}

func (p Pose) String() string {
	r := mathutil.RotationVector(p.Rotation)
	return fmt.Sprintf("rvec=(%.3f %.3f %.3f) tvec=(%.3f %.3f %.3f) detected=%t",
		r[0], r[1], r[2], p.Translation[0], p.Translation[1], p.Translation[2], p.Detected)
}

// ToViewTransform maps world (marker) coordinates into render camera
// coordinates: VisionToRender · [R | t].
func ToViewTransform(rotation mathutil.Mat3, translation mathutil.Vec3) mathutil.Mat4 {
	return mathutil.Mat4Mul(mathutil.VisionToRender, mathutil.FromMat3Translation(rotation, translation))
}
