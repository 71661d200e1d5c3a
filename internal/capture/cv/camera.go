// Package cv backs the capture types with OpenCV: a VideoCapture camera, an
// ArUco marker estimator and a highgui preview window.
package cv

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gocv.io/x/gocv"

	"ar-orrery/internal/capture"
)

// ErrOpen is returned when a capture source cannot be opened.
var ErrOpen = errors.New("capture: cannot open source")

// Camera is a capture.Device backed by an OpenCV VideoCapture.
type Camera struct {
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	width  int
	height int
	file   bool
}

var _ capture.Device = (*Camera)(nil)

// Open opens the capture device with the given index.
func Open(index int) (*Camera, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrOpen, index, err)
	}
	return newCamera(vc, strconv.Itoa(index), false)
}

// OpenSource opens a video file if src names an existing file, otherwise
// treats src as a device index.
func OpenSource(src string) (*Camera, error) {
	if _, err := os.Stat(src); err == nil {
		vc, err := gocv.VideoCaptureFile(src)
		if err != nil {
			return nil, fmt.Errorf("%w: file %s: %v", ErrOpen, src, err)
		}
		return newCamera(vc, src, true)
	}
	index, err := strconv.Atoi(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is neither a file nor a device index", ErrOpen, src)
	}
	return Open(index)
}

func newCamera(vc *gocv.VideoCapture, name string, file bool) (*Camera, error) {
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s not opened", ErrOpen, name)
	}
	c := &Camera{
		vc:     vc,
		mat:    gocv.NewMat(),
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
		file:   file,
	}
	if c.width <= 0 || c.height <= 0 {
		c.Close()
		return nil, fmt.Errorf("%w: %s reports resolution %dx%d", ErrOpen, name, c.width, c.height)
	}
	return c, nil
}

// Resolution returns the frame size reported when the device was opened.
func (c *Camera) Resolution() (int, int) {
	return c.width, c.height
}

// exhausted reports whether a file source has been read to its last frame.
// Containers that do not report a frame count are never exhausted.
func exhausted(pos, count float64) bool {
	return count > 0 && pos >= count
}

// ReadFrame captures the next frame. A video file that has been read to the
// end returns capture.ErrEndOfStream.
func (c *Camera) ReadFrame() (capture.Frame, error) {
	if ok := c.vc.Read(&c.mat); !ok {
		if !c.vc.IsOpened() {
			return capture.Frame{}, errors.New("capture: device closed")
		}
		if c.file && exhausted(c.vc.Get(gocv.VideoCapturePosFrames), c.vc.Get(gocv.VideoCaptureFrameCount)) {
			return capture.Frame{}, capture.ErrEndOfStream
		}
		return capture.Frame{}, nil
	}
	if c.mat.Empty() {
		return capture.Frame{}, nil
	}
	img, err := c.mat.ToImage()
	if err != nil {
		// Undecodable buffer: report as empty, keep going.
		return capture.Frame{}, nil
	}
	return capture.Frame{Image: img, Native: &c.mat}, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mat.Close()
	return c.vc.Close()
}
