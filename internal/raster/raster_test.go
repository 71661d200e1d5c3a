package raster

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ar-orrery/internal/camera"
	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/mesh"
	"ar-orrery/internal/pose"
	"ar-orrery/internal/scene"
)

const (
	width  = 64
	height = 48
)

var (
	green  = color.NRGBA{0, 200, 0, 255}
	sphere = mesh.Sphere(24, 12)
)

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// call places a sphere of radius r at p in marker coordinates, with the
// marker dist in front of the camera.
func call(p mathutil.Vec3, r, dist float64) scene.DrawCall {
	in := camera.FromResolution(width, height, camera.DefaultFocalScale)
	proj := camera.BuildProjection(in, camera.DefaultNear, camera.DefaultFar)
	view := pose.ToViewTransform(mathutil.Mat3Identity(), mathutil.Vec3{0, 0, dist})
	world := mathutil.Mat4Mul(mathutil.Mat4Translate(p), mathutil.Mat4Scale(mathutil.Vec3{r, r, r}))
	mv := mathutil.Mat4Mul(view, world)
	return scene.DrawCall{
		World:     world,
		ModelView: mv,
		MVP:       mathutil.Mat4Mul(proj, mv),
		Normal:    mv.NormalMatrix(),
		Mesh:      sphere,
		Alpha:     1,
		Emissive:  true,
	}
}

func TestRenderDrawsOverBackground(t *testing.T) {
	t.Parallel()

	r := NewRenderer(width, height)
	img := r.Render(uniform(width/2, height/2, green), []scene.DrawCall{call(mathutil.Vec3{}, 0.05, 0.5)})

	require.Equal(t, image.Rect(0, 0, width, height), img.Rect)
	assert.Equal(t, green, img.NRGBAAt(0, 0))
	assert.Equal(t, green, img.NRGBAAt(width-1, height-1))
	assert.Equal(t, color.NRGBA{160, 160, 170, 255}, img.NRGBAAt(width/2, height/2))
}

func TestClearWithoutBackgroundIsBlack(t *testing.T) {
	t.Parallel()

	r := NewRenderer(8, 4)
	r.Clear(nil)
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, r.Image().NRGBAAt(7, 3))
}

func TestBodyBehindCameraIsNotDrawn(t *testing.T) {
	t.Parallel()

	r := NewRenderer(width, height)
	bg := uniform(width, height, green)
	img := r.Render(bg, []scene.DrawCall{call(mathutil.Vec3{}, 0.05, -0.5)})
	assert.Equal(t, bg.Pix, img.Pix)
}

func TestNearerBodyWinsRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	near := call(mathutil.Vec3{0, 0, -0.2}, 0.03, 0.6) // identity pose: marker +z points away from the camera
	near.Texture = uniform(1, 1, color.NRGBA{255, 0, 0, 255})
	far := call(mathutil.Vec3{}, 0.08, 0.6)
	far.Texture = uniform(1, 1, color.NRGBA{0, 0, 255, 255})

	for _, calls := range [][]scene.DrawCall{{near, far}, {far, near}} {
		img := NewRenderer(width, height).Render(nil, calls)
		assert.Equal(t, color.NRGBA{255, 0, 0, 255}, img.NRGBAAt(width/2, height/2))
	}
}

func TestLitFaceAwayFromLightIsDarker(t *testing.T) {
	t.Parallel()

	dc := call(mathutil.Vec3{}, 0.05, 0.5)
	dc.Emissive = false
	dc.Light = scene.Light{
		Enabled:  true,
		Position: mathutil.Vec3{0, 0, -10}, // behind the body in view space
		Ambient:  scene.DefaultAmbient,
		Diffuse:  scene.DefaultDiffuse,
	}
	img := NewRenderer(width, height).Render(nil, []scene.DrawCall{dc})
	px := img.NRGBAAt(width/2, height/2)
	assert.Less(t, px.R, uint8(160))
	assert.Greater(t, px.R, uint8(0), "ambient keeps the face visible")
}

func TestTranslucentBodyBlends(t *testing.T) {
	t.Parallel()

	dc := call(mathutil.Vec3{}, 0.05, 0.5)
	dc.Alpha = 0.5
	dc.Texture = uniform(1, 1, color.NRGBA{255, 255, 255, 255})
	img := NewRenderer(width, height).Render(nil, []scene.DrawCall{dc})
	px := img.NRGBAAt(width/2, height/2)
	assert.InDelta(t, 128, int(px.R), 2)
	assert.Equal(t, uint8(255), px.A)
}

func TestFadingBodiesStillOcclude(t *testing.T) {
	t.Parallel()

	near := call(mathutil.Vec3{0, 0, -0.2}, 0.03, 0.6)
	near.Texture = uniform(1, 1, color.NRGBA{255, 0, 0, 255})
	near.Alpha = 0.7
	far := call(mathutil.Vec3{}, 0.08, 0.6)
	far.Texture = uniform(1, 1, color.NRGBA{0, 0, 255, 255})
	far.Alpha = 0.7

	for _, calls := range [][]scene.DrawCall{{near, far}, {far, near}} {
		px := NewRenderer(width, height).Render(nil, calls).NRGBAAt(width/2, height/2)
		assert.InDelta(t, 179, int(px.R), 2)
		assert.Less(t, px.B, uint8(60), "far body must not paint over the near one")
	}

	faint := near
	faint.Alpha = 0.3
	px := NewRenderer(width, height).Render(nil, []scene.DrawCall{faint, far}).NRGBAAt(width/2, height/2)
	assert.Greater(t, px.B, uint8(100), "faint pixels leave depth to what is behind")
}

func TestSampleWrapsLongitudeAndClampsPoles(t *testing.T) {
	t.Parallel()

	seam := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	seam.SetNRGBA(0, 0, color.NRGBA{10, 0, 0, 255})
	seam.SetNRGBA(1, 0, color.NRGBA{250, 0, 0, 255})

	assert.Equal(t, uint8(10), sample(seam, 0.25, 0.5).r)
	assert.Equal(t, uint8(250), sample(seam, 0.75, 0.5).r)
	assert.Equal(t, uint8(130), sample(seam, 0, 0.5).r, "columns blend across the seam")
	assert.Equal(t, uint8(10), sample(seam, 1.25, 0.5).r)
	assert.Equal(t, uint8(250), sample(seam, -0.25, 0.5).r)

	poles := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	poles.SetNRGBA(0, 0, color.NRGBA{10, 0, 0, 255})
	poles.SetNRGBA(0, 1, color.NRGBA{250, 0, 0, 255})

	assert.Equal(t, uint8(10), sample(poles, 0, 0).r, "row 0 is v = 0")
	assert.Equal(t, uint8(250), sample(poles, 0, 1).r)
	assert.Equal(t, uint8(130), sample(poles, 0, 0.5).r)
	assert.Equal(t, uint8(250), sample(poles, 0, 1.5).r, "v does not wrap pole to pole")
	assert.Equal(t, uint8(10), sample(poles, 0, -1).r)

	assert.Equal(t, texel{}, sample(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 0.5, 0.5))
}
