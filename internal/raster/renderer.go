package raster

import (
	"image"

	"ar-orrery/internal/camera"
	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/scene"
)

// Renderer is a software implementation of scene.Renderer. It draws over a
// background image into its own frame buffer. Not safe for concurrent use;
// give each goroutine its own Renderer.
type Renderer struct {
	fb *FrameBuffer

	// Fallback is the body color when a draw call has no texture.
	Fallback [4]uint8

	verts []vertex
	view  []mathutil.Vec3
	front []bool
}

func NewRenderer(w, h int) *Renderer {
	return &Renderer{
		fb:       NewFrameBuffer(w, h),
		Fallback: [4]uint8{160, 160, 170, 255},
	}
}

// Size returns the frame buffer dimensions.
func (r *Renderer) Size() (int, int) {
	return r.fb.Width, r.fb.Height
}

// Clear starts a new frame over bg (nil for black).
func (r *Renderer) Clear(bg image.Image) {
	r.fb.Clear(bg)
}

// DrawBody rasterizes one draw call. Triangles with a vertex behind the eye
// or outside the clip depth range are dropped; back faces are culled.
func (r *Renderer) DrawBody(dc scene.DrawCall) {
	m := dc.Mesh
	if m == nil || dc.Alpha <= 0 {
		return
	}

	n := len(m.Positions)
	r.verts = grow(r.verts, n)
	r.view = grow(r.view, n)
	r.front = grow(r.front, n)

	for i, p := range m.Positions {
		local := mathutil.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
		r.view[i] = dc.ModelView.MulPoint(local)
		clip := dc.MVP.MulVec4([4]float64{local[0], local[1], local[2], 1})
		if clip[3] <= 1e-9 {
			r.front[i] = false
			continue
		}
		invW := 1 / clip[3]
		ndc := mathutil.Vec3{clip[0] * invW, clip[1] * invW, clip[2] * invW}
		r.front[i] = ndc[2] >= -1 && ndc[2] <= 1
		x, y := camera.NDCToPixel(ndc, r.fb.Width, r.fb.Height)
		vt := vertex{x: x, y: y, depth: -ndc[2], invW: invW}
		if i < len(m.UVs) {
			vt.u = float64(m.UVs[i][0]) * invW
			vt.v = float64(m.UVs[i][1]) * invW
		}
		r.verts[i] = vt
	}

	fallback := texel{r.Fallback[0], r.Fallback[1], r.Fallback[2], r.Fallback[3]}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := int(m.Indices[t]), int(m.Indices[t+1]), int(m.Indices[t+2])
		if i0 >= n || i1 >= n || i2 >= n || !r.front[i0] || !r.front[i1] || !r.front[i2] {
			continue
		}

		p0, p1, p2 := r.view[i0], r.view[i1], r.view[i2]
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		centroid := p0.Add(p1).Add(p2).Scale(1.0 / 3)
		// The eye is at the view-space origin.
		if normal.Dot(centroid) >= 0 || normal.IsZero() {
			continue
		}

		shade := FaceShade(&dc, normal.Normalize(), centroid)
		RasterizeTriangle(r.fb, &r.verts[i0], &r.verts[i1], &r.verts[i2], dc.Texture, fallback, shade, dc.Alpha)
	}
}

// Image returns a copy of the current frame.
func (r *Renderer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.fb.Width, r.fb.Height))
	copy(img.Pix, r.fb.Color)
	return img
}

// Render draws a complete frame: background, then calls in order.
func (r *Renderer) Render(bg image.Image, calls []scene.DrawCall) *image.NRGBA {
	r.Clear(bg)
	for _, dc := range calls {
		r.DrawBody(dc)
	}
	return r.Image()
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

var _ scene.Renderer = (*Renderer)(nil)
