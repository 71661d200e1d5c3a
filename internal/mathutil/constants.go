package mathutil

import "math"

// Axis convention matrices shared by the tracking and rendering code.
var (
	// VisionToRender maps camera coordinates of the computer-vision
	// convention (X right, Y down, Z forward) into the rendering
	// convention (X right, Y up, Z backward): diag(1, -1, -1, 1).
	VisionToRender = Mat4Diag(1, -1, -1, 1)

	// YUpToZUp tilts a Y-up orbital plane onto a Z-up marker plane: Rx(90°).
	YUpToZUp = RotX(math.Pi / 2)
)
