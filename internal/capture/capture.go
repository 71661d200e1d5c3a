// Package capture defines the frame and device types the tracker consumes.
// Nothing here depends on OpenCV; the gocv-backed camera, detector and
// preview window live in capture/cv.
package capture

import (
	"errors"
	"image"
)

// ErrEndOfStream is returned by a Device whose source has no more frames.
var ErrEndOfStream = errors.New("capture: end of stream")

// Frame is one captured image. The zero Frame is empty.
type Frame struct {
	Image image.Image

	// Native is the device buffer Image was decoded from, if any. It is
	// only valid until the next read on the same device.
	Native any
}

// NewFrame wraps an image that did not come from a device.
func NewFrame(img image.Image) Frame {
	return Frame{Image: img}
}

// Empty reports whether the frame carries no image.
func (f Frame) Empty() bool {
	return f.Image == nil || f.Image.Bounds().Empty()
}

// Device is a source of frames.
type Device interface {
	// ReadFrame blocks until a frame is available. An empty frame with a
	// nil error is a recoverable glitch; a non-nil error means the device
	// is gone.
	ReadFrame() (Frame, error)
	Resolution() (width, height int)
	Close() error
}
