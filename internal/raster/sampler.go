package raster

import (
	"image"
	"math"
)

// texel is one RGBA sample, also used as the fallback color when a body has
// no texture.
type texel struct {
	r, g, b, a uint8
}

// sample bilinearly filters an equirectangular body texture at (u, v).
// Texel centres sit at (i+0.5)/w, and u wraps across the longitude seam so
// the first and last columns blend. Row 0 is v = 0; v is clamped because
// rows 0 and h-1 are the poles and must not bleed into each other.
func sample(tex *image.NRGBA, u, v float64) texel {
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	if w == 0 || h == 0 {
		return texel{}
	}

	u -= math.Floor(u)
	if !(u >= 0 && u < 1) {
		u = 0
	}
	fx := u*float64(w) - 0.5
	x0f := math.Floor(fx)
	dx := fx - x0f
	x0 := (int(x0f) + w) % w
	x1 := (x0 + 1) % w

	if !(v >= 0) {
		v = 0
	}
	fy := min(v, 1)*float64(h) - 0.5
	fy = min(max(fy, 0), float64(h-1))
	y0 := int(fy)
	dy := fy - float64(y0)
	y1 := min(y0+1, h-1)

	row0 := tex.Pix[y0*tex.Stride:]
	row1 := tex.Pix[y1*tex.Stride:]
	i0, i1 := x0*4, x1*4

	var out [4]uint8
	for k := range out {
		top := float64(row0[i0+k])*(1-dx) + float64(row0[i1+k])*dx
		bot := float64(row1[i0+k])*(1-dx) + float64(row1[i1+k])*dx
		out[k] = uint8(top*(1-dy) + bot*dy + 0.5)
	}
	return texel{out[0], out[1], out[2], out[3]}
}
