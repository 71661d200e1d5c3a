package raster

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4, straight alpha
	ZBuf   []float64 // depth per pixel, len = W*H; greater is closer
}

// NewFrameBuffer allocates a transparent color buffer and a cleared z-buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
		ZBuf:   make([]float64, w*h),
	}
	fb.ClearDepth()
	return fb
}

// ClearDepth resets every depth to -inf.
func (fb *FrameBuffer) ClearDepth() {
	for i := range fb.ZBuf {
		fb.ZBuf[i] = math.Inf(-1)
	}
}

// Image returns an NRGBA view over the color buffer. It shares memory with fb.
func (fb *FrameBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    fb.Color,
		Stride: fb.Width * 4,
		Rect:   image.Rect(0, 0, fb.Width, fb.Height),
	}
}

// Clear fills the color buffer with bg scaled bilinearly to the buffer
// size, or with opaque black when bg is nil, and clears depth.
func (fb *FrameBuffer) Clear(bg image.Image) {
	dst := fb.Image()
	if bg == nil || bg.Bounds().Empty() {
		for i := 0; i < len(fb.Color); i += 4 {
			fb.Color[i], fb.Color[i+1], fb.Color[i+2], fb.Color[i+3] = 0, 0, 0, 255
		}
	} else {
		draw.BiLinear.Scale(dst, dst.Rect, bg, bg.Bounds(), draw.Src, nil)
	}
	fb.ClearDepth()
}
