package scene

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ar-orrery/internal/diag"
	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/mesh"
	"ar-orrery/internal/orbit"
)

type recorder struct {
	calls []DrawCall
}

func (r *recorder) DrawBody(dc DrawCall) {
	r.calls = append(r.calls, dc)
}

const (
	planetRadius = 2.0
	moonRadius   = 0.5
)

func solarSystem(t *testing.T) (*orbit.System, orbit.BodyID, orbit.BodyID, orbit.BodyID) {
	t.Helper()

	sys := orbit.NewSystem()
	star := sys.MustAdd(orbit.Body{
		Name:     "sun",
		Scale:    mathutil.Vec3{0.5, 0.5, 0.5},
		SpinAxis: mathutil.Vec3Y,
		SpinRate: 0.2,
		Anchor:   orbit.AtPoint(mathutil.Vec3{0.3, -0.1, 0.2}),
	})
	planet := sys.MustAdd(orbit.Body{
		Name:        "earth",
		Scale:       mathutil.Vec3{0.2, 0.2, 0.2},
		SpinAxis:    mathutil.Vec3Y,
		SpinRate:    1.5,
		OrbitAxis:   mathutil.Vec3{0.1, 1, 0},
		OrbitRadius: planetRadius,
		OrbitRate:   0.7,
		Anchor:      orbit.AtBody(star),
	})
	moon := sys.MustAdd(orbit.Body{
		Name:        "moon",
		Scale:       mathutil.Vec3{0.05, 0.05, 0.05},
		SpinAxis:    mathutil.Vec3Y,
		SpinRate:    0.3,
		OrbitAxis:   mathutil.Vec3{0, 1, 0.4},
		OrbitRadius: moonRadius,
		OrbitRate:   4.1,
		Anchor:      orbit.AtBody(planet),
	})
	return sys, star, planet, moon
}

func TestMoonWithinBoundingVolumeAfterLargeStep(t *testing.T) {
	t.Parallel()

	for _, dt := range []float64{0.016, 1, 37.5, 1e4} {
		sys, star, planet, moon := solarSystem(t)
		sc := New(sys)
		for _, id := range []orbit.BodyID{star, planet, moon} {
			require.NoError(t, sc.Add(Entry{Body: id}))
		}

		sc.Update(dt, nil)

		starPos := sc.World(0).Translation()
		moonPos := sc.World(2).Translation()
		assert.LessOrEqual(t, moonPos.Dist(starPos), planetRadius+moonRadius+1e-9, "dt=%g", dt)
		assert.InDelta(t, planetRadius, sc.World(1).Translation().Dist(starPos), 1e-9, "dt=%g", dt)
	}
}

func TestCorrectionAppliesToEveryEntryAndDoesNotAccumulate(t *testing.T) {
	t.Parallel()

	sys, star, planet, moon := solarSystem(t)
	sc := New(sys)
	for _, id := range []orbit.BodyID{star, planet, moon} {
		require.NoError(t, sc.Add(Entry{Body: id}))
	}

	corr := mathutil.Mat4Chain(
		mathutil.Mat4Translate(mathutil.Vec3{0, 0, 0.02}),
		mathutil.Mat4Rotate(mathutil.YUpToZUp),
		mathutil.Mat4Scale(mathutil.Vec3{0.04, 0.04, 0.04}),
	)
	sc.SetCorrection(corr)

	for step := 0; step < 3; step++ {
		sc.Update(0.25, nil)
		for i, id := range []orbit.BodyID{star, planet, moon} {
			want := mathutil.Mat4Mul(corr, sys.Body(id).Transform)
			assert.True(t, sc.World(i).ApproxEqual(want, 1e-12), "step %d entry %d", step, i)
		}
	}
	assert.Equal(t, corr, sc.Correction())
}

func TestDrawFollowsInsertionOrder(t *testing.T) {
	t.Parallel()

	sys, star, planet, moon := solarSystem(t)
	sc := New(sys)
	sphere := mesh.Sphere(8, 4)
	require.NoError(t, sc.Add(Entry{Body: star, Mesh: sphere, Emissive: true}))
	require.NoError(t, sc.Add(Entry{Body: planet, Mesh: sphere, Alpha: 0.5}))
	require.NoError(t, sc.Add(Entry{Body: moon, Mesh: sphere}))
	sc.Update(0.1, nil)

	view := mathutil.Mat4Translate(mathutil.Vec3{0, 0, -5})
	proj := mathutil.Mat4Diag(2, 2, -1, 1)
	var r recorder
	sc.Draw(&r, view, proj, 0.8)

	require.Len(t, r.calls, 3)
	got := []string{r.calls[0].Name, r.calls[1].Name, r.calls[2].Name}
	assert.Empty(t, cmp.Diff([]string{"sun", "earth", "moon"}, got))

	alphas := []float64{r.calls[0].Alpha, r.calls[1].Alpha, r.calls[2].Alpha}
	assert.Empty(t, cmp.Diff([]float64{0.8, 0.4, 0.8}, alphas, cmpopts.EquateApprox(0, 1e-12)))

	for i, dc := range r.calls {
		assert.Same(t, sphere, dc.Mesh)
		assert.True(t, dc.ModelView.ApproxEqual(mathutil.Mat4Mul(view, sc.World(i)), 1e-12))
		assert.True(t, dc.MVP.ApproxEqual(mathutil.Mat4Chain(proj, view, sc.World(i)), 1e-12))
	}
	assert.True(t, r.calls[0].Emissive)
	assert.False(t, r.calls[1].Emissive)
}

func TestLightSitsAtFirstEmissiveBody(t *testing.T) {
	t.Parallel()

	sys, star, planet, _ := solarSystem(t)
	sc := New(sys)
	require.NoError(t, sc.Add(Entry{Body: planet}))
	assert.False(t, sc.Light(mathutil.Mat4Identity()).Enabled)

	require.NoError(t, sc.Add(Entry{Body: star, Emissive: true}))
	view := mathutil.Mat4Translate(mathutil.Vec3{1, 2, -3})
	l := sc.Light(view)
	require.True(t, l.Enabled)
	want := sys.Position(star).Add(mathutil.Vec3{1, 2, -3})
	assert.InDelta(t, 0, l.Position.Dist(want), 1e-12)
	assert.Equal(t, DefaultAmbient, l.Ambient)
}

func TestNormalMatrixOfUniformScaleIsRotation(t *testing.T) {
	t.Parallel()

	sys, star, _, _ := solarSystem(t)
	sc := New(sys)
	require.NoError(t, sc.Add(Entry{Body: star}))
	sc.Update(1.3, nil)

	calls := sc.DrawCalls(mathutil.Mat4Identity(), mathutil.Mat4Identity(), 1)
	n := calls[0].Normal
	// Inverse-transpose of s·R is R/s.
	scaled := mathutil.Mat3Mul(n, mathutil.Mat3Diag(0.5, 0.5, 0.5))
	assert.True(t, scaled.IsRotation(1e-9))
}

func TestOutOfOrderInsertionWarnsOnce(t *testing.T) {
	t.Parallel()

	sys, star, planet, moon := solarSystem(t)
	sc := New(sys)
	require.NoError(t, sc.Add(Entry{Body: star}))
	require.NoError(t, sc.Add(Entry{Body: moon}))
	require.NoError(t, sc.Add(Entry{Body: planet}))

	var buf bytes.Buffer
	d := diag.New(slog.New(slog.NewTextHandler(&buf, nil)))
	sc.Update(0.1, d)
	sc.Update(0.1, d)

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("body updated before its anchor")))
	assert.Contains(t, buf.String(), "body=moon")

	// The moon was advanced against the planet's position from before the
	// planet moved, so it is off its orbit circle by the planet's last step.
	dist := sys.Position(moon).Dist(sys.Position(planet))
	assert.Greater(t, math.Abs(dist-moonRadius), 1e-6)
}

func TestAddRejectsUnknownBody(t *testing.T) {
	t.Parallel()

	sc := New(orbit.NewSystem())
	err := sc.Add(Entry{Body: 3})
	require.ErrorIs(t, err, orbit.ErrUnknownAnchor)
	assert.Zero(t, sc.Len())
}
