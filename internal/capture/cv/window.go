package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Window is a native preview window.
type Window struct {
	w *gocv.Window
}

// NewWindow opens a titled window.
func NewWindow(title string) *Window {
	return &Window{w: gocv.NewWindow(title)}
}

// Show displays img until the next call.
func (w *Window) Show(img image.Image) error {
	m, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("capture: window image: %w", err)
	}
	defer m.Close()

	w.w.IMShow(m)
	return nil
}

// Key pumps window events for up to delayMs and returns the pressed key,
// or -1.
func (w *Window) Key(delayMs int) int {
	return w.w.WaitKey(delayMs)
}

// Open reports whether the window is still open.
func (w *Window) Open() bool {
	return w.w.IsOpen()
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}
