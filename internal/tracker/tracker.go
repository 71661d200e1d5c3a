// Package tracker runs the per-frame capture, detect and view update cycle
// and keeps the state the renderer draws from: the latest camera image,
// the view and projection transforms and the marker visibility flag.
package tracker

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"ar-orrery/internal/camera"
	"ar-orrery/internal/capture"
	"ar-orrery/internal/diag"
	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/pose"
)

// Estimator finds the marker in a frame. A pose with Detected false means
// no marker; its other fields are ignored.
type Estimator interface {
	Detect(capture.Frame) pose.Pose
}

// State of the tracker.
type State int

const (
	StateUninitialized State = iota
	StateMarkerNotVisible
	StateMarkerVisible
)

func (s State) String() string {
	switch s {
	case StateMarkerNotVisible:
		return "marker-not-visible"
	case StateMarkerVisible:
		return "marker-visible"
	default:
		return "uninitialized"
	}
}

// Ready reports whether the tracker finished initialization.
func (s State) Ready() bool {
	return s != StateUninitialized
}

// Options configure a Tracker. Zero values select defaults.
type Options struct {
	// Intrinsics overrides the ones derived from the device resolution.
	Intrinsics camera.Intrinsics
	FocalScale float64
	Near       float64
	Far        float64

	// Consecutive detections needed to show the marker content and
	// consecutive misses needed to hide it.
	HitsToShow   int
	MissesToHide int
}

func (o *Options) applyDefaults(dev capture.Device) {
	if o.FocalScale <= 0 {
		o.FocalScale = camera.DefaultFocalScale
	}
	if o.Near <= 0 {
		o.Near = camera.DefaultNear
	}
	if o.Far <= 0 {
		o.Far = camera.DefaultFar
	}
	if o.HitsToShow < 1 {
		o.HitsToShow = 1
	}
	if o.MissesToHide < 1 {
		o.MissesToHide = 1
	}
	if o.Intrinsics == (camera.Intrinsics{}) {
		w, h := dev.Resolution()
		o.Intrinsics = camera.FromResolution(w, h, o.FocalScale)
	}
}

// Stats counts capture cycles.
type Stats struct {
	Frames      int
	EmptyFrames int
	Detections  int
}

// Tracker is single-threaded: CaptureCycle and the accessors must be called
// from the same goroutine.
type Tracker struct {
	dev  capture.Device
	est  Estimator
	opts Options

	state      State
	background image.Image
	view       mathutil.Mat4
	proj       mathutil.Mat4
	last       pose.Pose
	detected   bool

	hits   int
	misses int
	stats  Stats
	err    error
}

// New builds a tracker over an opened device. The view starts as the
// identity until the first detection.
func New(dev capture.Device, est Estimator, opts Options) (*Tracker, error) {
	if dev == nil || est == nil {
		return nil, errors.New("tracker: nil device or estimator")
	}
	opts.applyDefaults(dev)
	if err := opts.Intrinsics.Validate(); err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	if opts.Near >= opts.Far {
		return nil, fmt.Errorf("tracker: near %g must be less than far %g", opts.Near, opts.Far)
	}
	return &Tracker{
		dev:   dev,
		est:   est,
		opts:  opts,
		state: StateMarkerNotVisible,
		view:  mathutil.Mat4Identity(),
		proj:  camera.BuildProjection(opts.Intrinsics, opts.Near, opts.Far),
		last:  pose.Identity(),
	}, nil
}

// CaptureCycle reads one frame, refreshes the background and runs the
// estimator. It returns false only when the device failed for good.
func (t *Tracker) CaptureCycle(d *diag.Context) bool {
	frame, err := t.dev.ReadFrame()
	if err != nil {
		t.err = err
		if errors.Is(err, capture.ErrEndOfStream) {
			d.Once(slog.LevelInfo, "tracker.device", "capture source exhausted", "frames", t.stats.Frames)
		} else {
			d.Once(slog.LevelError, "tracker.device", "capture device failed", "err", err)
		}
		return false
	}
	t.stats.Frames++
	if frame.Empty() {
		t.stats.EmptyFrames++
		d.Every(slog.LevelWarn, "tracker.empty-frame", 100, "empty frame from capture device")
		return true
	}

	t.background = frame.Image
	p := t.est.Detect(frame)
	t.detected = p.Detected
	if p.Detected {
		t.stats.Detections++
		t.last = p
		t.view = p.View()
		t.hits++
		t.misses = 0
		d.Reset("tracker.lost")
	} else {
		t.misses++
		t.hits = 0
		d.Once(slog.LevelDebug, "tracker.lost", "marker not detected")
	}

	switch {
	case t.state != StateMarkerVisible && t.hits >= t.opts.HitsToShow:
		t.state = StateMarkerVisible
		d.Info("marker visible", "pose", t.last.String())
	case t.state == StateMarkerVisible && t.misses >= t.opts.MissesToHide:
		t.state = StateMarkerNotVisible
		d.Info("marker lost", "misses", t.misses)
	}
	return true
}

// Background returns the latest non-empty camera frame, or nil before the
// first one.
func (t *Tracker) Background() image.Image { return t.background }

// View returns the view transform of the last detection.
func (t *Tracker) View() mathutil.Mat4 { return t.view }

// Projection is fixed at construction.
func (t *Tracker) Projection() mathutil.Mat4 { return t.proj }

// Intrinsics returns the camera model the projection was built from,
// including values derived from the device resolution.
func (t *Tracker) Intrinsics() camera.Intrinsics { return t.opts.Intrinsics }

// MarkerVisible is the debounced visibility flag.
func (t *Tracker) MarkerVisible() bool { return t.state == StateMarkerVisible }

// Detected is the raw estimator result of the last non-empty frame.
func (t *Tracker) Detected() bool { return t.detected }

// State returns the debounced tracking state.
func (t *Tracker) State() State { return t.state }

// Err returns the device error that made CaptureCycle return false, or nil.
func (t *Tracker) Err() error { return t.err }

// Pose returns the last detected pose.
func (t *Tracker) Pose() pose.Pose { return t.last }

func (t *Tracker) Stats() Stats { return t.stats }
