// Package config loads the YAML settings shared by the live and offline
// tools and fills in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"ar-orrery/internal/camera"
	"ar-orrery/internal/fade"
	"ar-orrery/internal/mesh"
	"ar-orrery/internal/pose"
)

// Config holds all configurable paths, tracking and render settings.
type Config struct {
	// Capture
	Device       int     `yaml:"device"`
	Source       string  `yaml:"source"` // video file, overrides Device
	MarkerLength float64 `yaml:"marker_length"`

	Camera   CameraConfig   `yaml:"camera"`
	Tracking TrackingConfig `yaml:"tracking"`
	Scene    SceneConfig    `yaml:"scene"`
	Render   RenderConfig   `yaml:"render"`

	// Paths
	TextureDir  string `yaml:"texture_dir"`
	SnapshotDir string `yaml:"snapshot_dir"`
	OutputDir   string `yaml:"output_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// CameraConfig overrides the placeholder intrinsics.
type CameraConfig struct {
	FocalScale float64 `yaml:"focal_scale"`
	Near       float64 `yaml:"near"`
	Far        float64 `yaml:"far"`
}

// TrackingConfig sets the visibility debounce and overlay fade.
type TrackingConfig struct {
	HitsToShow   int     `yaml:"hits_to_show"`
	MissesToHide int     `yaml:"misses_to_hide"`
	FadeSeconds  float64 `yaml:"fade_seconds"`
}

// SceneConfig places the orbital system on the marker.
type SceneConfig struct {
	// Scale converts orbit units to marker units (metres).
	Scale float64 `yaml:"scale"`
	// TiltDegrees rotates the Y-up orbital plane about X; 90 lays it flat
	// on the marker.
	TiltDegrees *float64 `yaml:"tilt_degrees"`
	// Lift raises the system off the marker along its normal.
	Lift     *float64 `yaml:"lift"`
	Segments int      `yaml:"segments"`
	Rings    int      `yaml:"rings"`
	// TimeScale multiplies the frame time fed to the simulation.
	TimeScale float64 `yaml:"time_scale"`

	Bodies []BodyConfig `yaml:"bodies"`
}

// BodyConfig declares one body. Anchor names an earlier body; otherwise
// the body is anchored at AnchorPoint.
type BodyConfig struct {
	Name        string     `yaml:"name"`
	Texture     string     `yaml:"texture"`
	Scale       float64    `yaml:"scale"`
	SpinAxis    [3]float64 `yaml:"spin_axis"`
	SpinRate    float64    `yaml:"spin_rate"`
	OrbitAxis   [3]float64 `yaml:"orbit_axis"`
	OrbitRadius float64    `yaml:"orbit_radius"`
	OrbitRate   float64    `yaml:"orbit_rate"`
	Anchor      string     `yaml:"anchor"`
	AnchorPoint [3]float64 `yaml:"anchor_point"`
	Emissive    bool       `yaml:"emissive"`
	Alpha       float64    `yaml:"alpha"`
}

// RenderConfig drives the offline renderer and snapshots.
type RenderConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Supersample int     `yaml:"supersample"`
	Workers     int     `yaml:"workers"`
	Frames      int     `yaml:"frames"`
	FPS         float64 `yaml:"fps"`
	// Distance of the synthetic marker from the camera.
	Distance float64 `yaml:"distance"`
	// Pitch of the synthetic marker towards the camera, in degrees.
	PitchDegrees float64 `yaml:"pitch_degrees"`
}

// Load reads a YAML config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Negative or empty values leave the file setting alone.
type Flags struct {
	Device       int
	Source       string
	MarkerLength float64
	TextureDir   string
	OutputDir    string
	Workers      int
	Frames       int
	LogLevel     string
}

// NoDevice is the Flags.Device value meaning "not set".
const NoDevice = -1

// Resolve applies flags and fills in any empty fields with defaults.
// Relative paths are resolved against base, usually the directory of the
// config file.
func (c *Config) Resolve(flags Flags, base string) {
	if flags.Device >= 0 {
		c.Device = flags.Device
	}
	if flags.Source != "" {
		c.Source = flags.Source
	}
	if flags.MarkerLength > 0 {
		c.MarkerLength = flags.MarkerLength
	}
	if flags.TextureDir != "" {
		c.TextureDir = flags.TextureDir
		base = ""
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Render.Workers = flags.Workers
	}
	if flags.Frames > 0 {
		c.Render.Frames = flags.Frames
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	if c.MarkerLength <= 0 {
		c.MarkerLength = pose.DefaultMarkerLength
	}
	if c.Camera.FocalScale <= 0 {
		c.Camera.FocalScale = camera.DefaultFocalScale
	}
	if c.Camera.Near <= 0 {
		c.Camera.Near = camera.DefaultNear
	}
	if c.Camera.Far <= 0 {
		c.Camera.Far = camera.DefaultFar
	}
	if c.Tracking.HitsToShow <= 0 {
		c.Tracking.HitsToShow = 1
	}
	if c.Tracking.MissesToHide <= 0 {
		c.Tracking.MissesToHide = 5
	}
	if c.Tracking.FadeSeconds < 0 {
		c.Tracking.FadeSeconds = 0
	} else if c.Tracking.FadeSeconds == 0 {
		c.Tracking.FadeSeconds = fade.DefaultDuration
	}

	c.Scene.resolve()

	if c.Render.Width <= 0 {
		c.Render.Width = 640
	}
	if c.Render.Height <= 0 {
		c.Render.Height = 480
	}
	if c.Render.Supersample <= 0 {
		c.Render.Supersample = 2
	}
	if c.Render.Workers <= 0 {
		c.Render.Workers = runtime.NumCPU()
	}
	if c.Render.Frames <= 0 {
		c.Render.Frames = 120
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = 30
	}
	if c.Render.Distance <= 0 {
		c.Render.Distance = 0.35
	}

	if c.TextureDir == "" {
		c.TextureDir = "textures"
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = "snapshots"
	}
	if c.OutputDir == "" {
		c.OutputDir = "frames"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if base != "" && !filepath.IsAbs(c.TextureDir) {
		c.TextureDir = filepath.Join(base, c.TextureDir)
	}
}

func (s *SceneConfig) resolve() {
	if s.Scale <= 0 {
		s.Scale = 0.04
	}
	if s.TiltDegrees == nil {
		tilt := 90.0
		s.TiltDegrees = &tilt
	}
	if s.Lift == nil {
		lift := 0.03
		s.Lift = &lift
	}
	if s.Segments <= 0 {
		s.Segments = mesh.DefaultSegments
	}
	if s.Rings <= 0 {
		s.Rings = mesh.DefaultRings
	}
	if s.TimeScale <= 0 {
		s.TimeScale = 1
	}
	if len(s.Bodies) == 0 {
		s.Bodies = DefaultBodies()
	}
	for i := range s.Bodies {
		b := &s.Bodies[i]
		if b.Scale <= 0 {
			b.Scale = 1
		}
		if b.SpinAxis == [3]float64{} {
			b.SpinAxis = [3]float64{0, 1, 0}
		}
		if b.OrbitAxis == [3]float64{} && b.OrbitRadius > 0 {
			b.OrbitAxis = [3]float64{0, 1, 0}
		}
		if b.Texture == "" {
			b.Texture = b.Name
		}
		if b.Alpha <= 0 || b.Alpha > 1 {
			b.Alpha = 1
		}
	}
}

// DefaultBodies is a sun, an earth and a moon, in anchor order.
func DefaultBodies() []BodyConfig {
	return []BodyConfig{
		{Name: "sun", Scale: 0.5, SpinRate: 0.25, Emissive: true},
		{Name: "earth", Scale: 0.2, SpinRate: 2, OrbitRadius: 2, OrbitRate: 0.5, Anchor: "sun"},
		{Name: "moon", Scale: 0.06, SpinRate: 0.5, OrbitRadius: 0.45, OrbitRate: 2, Anchor: "earth"},
	}
}

// Validate reports settings that Resolve could not repair.
func (c *Config) Validate() error {
	var errs []error
	if c.Camera.Near >= c.Camera.Far {
		errs = append(errs, fmt.Errorf("camera: near %g must be less than far %g", c.Camera.Near, c.Camera.Far))
	}
	if c.Device < 0 && c.Source == "" {
		errs = append(errs, fmt.Errorf("device index %d is negative", c.Device))
	}
	seen := make(map[string]bool)
	for i, b := range c.Scene.Bodies {
		switch {
		case b.Name == "":
			errs = append(errs, fmt.Errorf("body %d: missing name", i))
		case seen[b.Name]:
			errs = append(errs, fmt.Errorf("body %q: duplicate name", b.Name))
		}
		if b.Anchor != "" && !seen[b.Anchor] {
			errs = append(errs, fmt.Errorf("body %q: anchor %q must be declared before it", b.Name, b.Anchor))
		}
		if b.OrbitRadius < 0 {
			errs = append(errs, fmt.Errorf("body %q: negative orbit radius %g", b.Name, b.OrbitRadius))
		}
		seen[b.Name] = true
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
