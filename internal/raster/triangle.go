package raster

import (
	"image"
	"math"
)

// vertex is a projected vertex. u and v are pre-divided by w for
// perspective-correct interpolation.
type vertex struct {
	x, y  float64 // pixel coordinates
	depth float64 // -z_ndc, greater is closer
	invW  float64
	u, v  float64
}

// depthWriteOpacity is the pixel opacity from which a blended pixel also
// writes depth, so bodies keep occluding each other while fading.
const depthWriteOpacity = 0.5

// RasterizeTriangle fills one triangle into fb with z-buffering, bilinear
// texture sampling, a flat shade factor and alpha blending. Pixels at least
// depthWriteOpacity opaque write depth; fainter ones are blended over what
// is there and leave depth untouched.
//
// This is the hot path; nothing allocates in the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, a, b, c *vertex, tex *image.NRGBA, fallback texel, shade, alpha float64) {
	// Bounding box clamped to the buffer on both axes.
	minX := max(0, int(math.Floor(min(a.x, b.x, c.x))))
	maxX := min(fb.Width-1, int(math.Ceil(max(a.x, b.x, c.x))))
	minY := max(0, int(math.Floor(min(a.y, b.y, c.y))))
	maxY := min(fb.Height-1, int(math.Ceil(max(a.y, b.y, c.y))))
	if minX > maxX || minY > maxY {
		return
	}

	det := (b.y-c.y)*(a.x-c.x) + (c.x-b.x)*(a.y-c.y)
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1.0 / det

	dy12 := b.y - c.y
	dx21 := c.x - b.x
	dy20 := c.y - a.y
	dx02 := a.x - c.x

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - c.y
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - c.x
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*a.depth + w1*b.depth + w2*c.depth
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			t := fallback
			if tex != nil {
				iw := w0*a.invW + w1*b.invW + w2*c.invW
				u := (w0*a.u + w1*b.u + w2*c.u) / iw
				v := (w0*a.v + w1*b.v + w2*c.v) / iw
				t = sample(tex, u, v)
			}
			cr, cg, cb, ca := t.r, t.g, t.b, t.a

			op := float64(ca) / 255 * alpha
			if op < 8.0/255 {
				continue
			}
			cr, cg, cb = shadeTexel(cr, cg, cb, shade)

			pxIdx := zIdx * 4
			if op >= depthWriteOpacity {
				fb.ZBuf[zIdx] = z
			}
			if op >= 1 {
				fb.Color[pxIdx] = cr
				fb.Color[pxIdx+1] = cg
				fb.Color[pxIdx+2] = cb
				fb.Color[pxIdx+3] = 255
				continue
			}
			// Source-over with straight alpha.
			dstA := float64(fb.Color[pxIdx+3]) / 255
			outA := op + dstA*(1-op)
			for k, s := range [3]uint8{cr, cg, cb} {
				d := float64(fb.Color[pxIdx+k])
				fb.Color[pxIdx+k] = clamp255((float64(s)*op + d*dstA*(1-op)) / outA)
			}
			fb.Color[pxIdx+3] = clamp255(outA * 255)
		}
	}
}
