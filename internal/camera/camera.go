// Package camera models the pinhole camera that produces the tracked frames
// and derives the matching OpenGL-style projection, so rendered content lines
// up pixel-for-pixel with the camera image.
package camera

import (
	"fmt"

	"ar-orrery/internal/mathutil"
)

// Default clip planes. The marker is unit-scale content, so near must sit a
// few centimetres in front of it; far bounds the tracking volume.
const (
	DefaultNear       = 0.01
	DefaultFar        = 100.0
	DefaultFocalScale = 0.9
)

// Intrinsics holds the pinhole parameters in pixels.
type Intrinsics struct {
	FocalX, FocalY         float64
	PrincipalX, PrincipalY float64
	Width, Height          int
}

// FromResolution derives placeholder intrinsics for an uncalibrated camera:
// focal length focalScale·width on both axes, principal point at the centre.
func FromResolution(width, height int, focalScale float64) Intrinsics {
	if focalScale <= 0 {
		focalScale = DefaultFocalScale
	}
	f := focalScale * float64(width)
	return Intrinsics{
		FocalX:     f,
		FocalY:     f,
		PrincipalX: float64(width) / 2,
		PrincipalY: float64(height) / 2,
		Width:      width,
		Height:     height,
	}
}

// Validate checks focal lengths are positive, dimensions non-zero and the
// principal point inside the image.
func (in Intrinsics) Validate() error {
	switch {
	case in.Width <= 0 || in.Height <= 0:
		return fmt.Errorf("camera: image size %dx%d must be positive", in.Width, in.Height)
	case in.FocalX <= 0 || in.FocalY <= 0:
		return fmt.Errorf("camera: focal lengths (%g, %g) must be positive", in.FocalX, in.FocalY)
	case in.PrincipalX < 0 || in.PrincipalX > float64(in.Width) ||
		in.PrincipalY < 0 || in.PrincipalY > float64(in.Height):
		return fmt.Errorf("camera: principal point (%g, %g) outside %dx%d image",
			in.PrincipalX, in.PrincipalY, in.Width, in.Height)
	}
	return nil
}

// Normalize maps a pixel to normalized image coordinates ((u-cx)/fx, (v-cy)/fy).
func (in Intrinsics) Normalize(u, v float64) (float64, float64) {
	return (u - in.PrincipalX) / in.FocalX, (v - in.PrincipalY) / in.FocalY
}

// PixelOf projects a point given in vision camera coordinates (Z forward)
// to pixel coordinates.
func (in Intrinsics) PixelOf(p mathutil.Vec3) (float64, float64) {
	return in.FocalX*p[0]/p[2] + in.PrincipalX, in.FocalY*p[1]/p[2] + in.PrincipalY
}

// BuildProjection returns the perspective projection for the rendering
// convention (camera looks down -Z, Y up) whose frustum matches the physical
// camera's field of view. Invalid intrinsics or clip planes are a programming
// error and panic.
func BuildProjection(in Intrinsics, near, far float64) mathutil.Mat4 {
	if err := in.Validate(); err != nil {
		panic(err)
	}
	if !(near > 0 && far > near) {
		panic(fmt.Sprintf("camera: clip planes near=%g far=%g must satisfy 0 < near < far", near, far))
	}

	w, h := float64(in.Width), float64(in.Height)
	return mathutil.Mat4{
		2 * in.FocalX / w, 0, 1 - 2*in.PrincipalX/w, 0,
		0, 2 * in.FocalY / h, 2*in.PrincipalY/h - 1, 0,
		0, 0, -(far + near) / (far - near), -2 * far * near / (far - near),
		0, 0, -1, 0,
	}
}

// ToNDC transforms a point by a combined projection·view·model matrix and
// applies the perspective divide. ok is false for points at or behind the
// eye plane.
func ToNDC(mvp mathutil.Mat4, p mathutil.Vec3) (ndc mathutil.Vec3, ok bool) {
	c := mvp.MulVec4([4]float64{p[0], p[1], p[2], 1})
	if c[3] <= 1e-12 {
		return mathutil.Vec3{}, false
	}
	return mathutil.Vec3{c[0] / c[3], c[1] / c[3], c[2] / c[3]}, true
}

// NDCToPixel maps normalized device coordinates to image pixels with the
// origin at the top-left, matching the camera image rows.
func NDCToPixel(ndc mathutil.Vec3, width, height int) (float64, float64) {
	return (ndc[0] + 1) / 2 * float64(width), (1 - ndc[1]) / 2 * float64(height)
}
