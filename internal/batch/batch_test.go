package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"ar-orrery/internal/camera"
	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/mesh"
	"ar-orrery/internal/orbit"
	"ar-orrery/internal/pose"
	"ar-orrery/internal/scene"
)

func frames(t *testing.T, n int) []Frame {
	t.Helper()

	sys := orbit.NewSystem()
	star := sys.MustAdd(orbit.Body{Name: "star", Scale: mathutil.Vec3{0.02, 0.02, 0.02}, SpinAxis: mathutil.Vec3Y, SpinRate: 1})
	sys.MustAdd(orbit.Body{
		Name: "planet", Scale: mathutil.Vec3{0.01, 0.01, 0.01}, SpinAxis: mathutil.Vec3Y,
		OrbitAxis: mathutil.Vec3Z, OrbitRadius: 0.05, OrbitRate: 2, Anchor: orbit.AtBody(star),
	})
	sc := scene.New(sys)
	sphere := mesh.Sphere(12, 6)
	require.NoError(t, sc.Add(scene.Entry{Body: 0, Mesh: sphere, Emissive: true}))
	require.NoError(t, sc.Add(scene.Entry{Body: 1, Mesh: sphere}))

	in := camera.FromResolution(32, 24, camera.DefaultFocalScale)
	proj := camera.BuildProjection(in, camera.DefaultNear, camera.DefaultFar)
	view := pose.ToViewTransform(mathutil.Mat3Identity(), mathutil.Vec3{0, 0, 0.3})

	out := make([]Frame, n)
	for i := range out {
		out[i] = Frame{Index: i, Time: float64(i) * 0.1, Calls: sc.DrawCalls(view, proj, 1)}
		sc.Update(0.1, nil)
	}
	return out
}

func TestRunWritesFramesAndManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := frames(t, 5)
	results := Run(Config{OutputDir: dir, Width: 32, Height: 24, Supersample: 2, Workers: 3}, fs)
	require.Len(t, results, 5)

	for i, r := range results {
		require.True(t, r.Success, r.Error)
		assert.Equal(t, i, r.Index)

		f, err := os.Open(filepath.Join(dir, r.Image))
		require.NoError(t, err)
		cfg, err := webp.DecodeConfig(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 32, cfg.Width)
		assert.Equal(t, 24, cfg.Height)
	}

	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(path, Manifest(fs, results)))
	entries, err := ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "frame_00003.webp", entries[3].Image)
	assert.InDelta(t, 0.3, entries[3].Time, 1e-12)
	require.Len(t, entries[3].Bodies, 2)
	assert.Equal(t, "planet", entries[3].Bodies[1].Name)

	star := mathutil.Vec3(entries[3].Bodies[0].Position)
	planet := mathutil.Vec3(entries[3].Bodies[1].Position)
	assert.InDelta(t, 0.05, planet.Dist(star), 1e-9)
}

func TestManifestRecordsFailures(t *testing.T) {
	t.Parallel()

	fs := frames(t, 2)
	entries := Manifest(fs, []Result{{Index: 0, Image: FrameName(0), Success: true}, {Index: 1, Error: "disk full"}})
	assert.Equal(t, "frame_00000.webp", entries[0].Image)
	assert.Empty(t, entries[1].Image)
	assert.Equal(t, "disk full", entries[1].Error)
}

func TestWriteWebPFailsOnBadPath(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	err := WriteWebP(filepath.Join(file, "sub", "x.webp"), nil)
	assert.Error(t, err)
}
