package raster

import (
	"math"

	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/scene"
)

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

const invGamma = 1.0 / 2.2

// FaceShade returns the flat lighting factor for a face with view-space
// normal n and centroid c. Emissive bodies and scenes without a light are
// drawn at full brightness.
func FaceShade(dc *scene.DrawCall, n, c mathutil.Vec3) float64 {
	if dc.Emissive || !dc.Light.Enabled {
		return 1
	}
	l := dc.Light.Position.Sub(c).Normalize()
	ndl := n.Dot(l)
	if ndl < 0 {
		ndl = 0
	}
	return dc.Light.Ambient + dc.Light.Diffuse*ndl
}

// shadeTexel applies shade to an sRGB texel in linear space.
func shadeTexel(r, g, b uint8, shade float64) (uint8, uint8, uint8) {
	if shade == 1 {
		return r, g, b
	}
	return clamp255(math.Pow(srgbToLinear[r]*shade, invGamma) * 255),
		clamp255(math.Pow(srgbToLinear[g]*shade, invGamma) * 255),
		clamp255(math.Pow(srgbToLinear[b]*shade, invGamma) * 255)
}

func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
