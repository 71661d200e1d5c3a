// Command arorrery shows a small animated solar system on top of an ArUco
// marker seen by a camera.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ar-orrery/internal/batch"
	"ar-orrery/internal/camera"
	"ar-orrery/internal/capture"
	"ar-orrery/internal/capture/cv"
	"ar-orrery/internal/config"
	"ar-orrery/internal/diag"
	"ar-orrery/internal/fade"
	"ar-orrery/internal/logx"
	"ar-orrery/internal/orbit"
	"ar-orrery/internal/raster"
	"ar-orrery/internal/scene"
	"ar-orrery/internal/texture"
	"ar-orrery/internal/tracker"
)

const speedStep = 1.25

type options struct {
	config   string
	device   int
	source   string
	marker   float64
	textures string
	debug    bool
	verbose  bool
	quiet    bool
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "arorrery",
		Short: "Show an animated solar system on an ArUco marker",
		Long: `arorrery tracks a DICT_6X6_250 ArUco marker in the camera feed and draws
a sun, earth and moon orbiting on top of it.

Keys: ESC or q quits, s saves a WebP snapshot, + and - change the
simulation speed, space pauses.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			return run(cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.config, "config", "", "Path to YAML config file")
	f.IntVar(&opts.device, "device", config.NoDevice, "Camera device index (default: 0)")
	f.StringVar(&opts.source, "source", "", "Video file or device index, overrides --device")
	f.Float64Var(&opts.marker, "marker", 0, "Marker side length in metres (default: 0.08)")
	f.StringVar(&opts.textures, "textures", "", "Texture directory (default: textures)")
	f.BoolVar(&opts.debug, "debug", false, "Debug logging")
	f.BoolVar(&opts.verbose, "verbose", false, "Info logging")
	f.BoolVar(&opts.quiet, "quiet", false, "Only log errors")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(opts options) (config.Config, *slog.Logger, error) {
	var cfg config.Config
	base := ""
	if opts.config != "" {
		var err error
		cfg, err = config.Load(opts.config)
		if err != nil {
			return cfg, nil, err
		}
		base = filepath.Dir(opts.config)
	}
	cfg.Resolve(config.Flags{
		Device:       opts.device,
		Source:       opts.source,
		MarkerLength: opts.marker,
		TextureDir:   opts.textures,
	}, base)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	if opts.debug || opts.verbose || opts.quiet {
		level = logx.LevelFromFlags(opts.debug, opts.verbose, opts.quiet)
	}
	return cfg, logx.Setup(level), nil
}

func open(cfg config.Config) (*cv.Camera, error) {
	if cfg.Source != "" {
		return cv.OpenSource(cfg.Source)
	}
	return cv.Open(cfg.Device)
}

func run(cfg config.Config, logger *slog.Logger) error {
	cam, err := open(cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	w, h := cam.Resolution()
	in := camera.FromResolution(w, h, cfg.Camera.FocalScale)
	est := cv.NewArucoEstimator(in, cfg.MarkerLength)
	defer est.Close()

	tr, err := tracker.New(cam, est, tracker.Options{
		Intrinsics:   in,
		Near:         cfg.Camera.Near,
		Far:          cfg.Camera.Far,
		HitsToShow:   cfg.Tracking.HitsToShow,
		MissesToHide: cfg.Tracking.MissesToHide,
	})
	if err != nil {
		return err
	}
	logger.Info("camera ready", "width", w, "height", h, "focal", in.FocalX, "marker", cfg.MarkerLength)

	texIndex := texture.BuildIndex(cfg.TextureDir)
	texCache := texture.NewCache(texIndex)
	texCache.Logger = logger
	logger.Info("textures indexed", "dir", cfg.TextureDir, "count", texIndex.Len())

	sc, err := cfg.Scene.Scene(texCache)
	if err != nil {
		return err
	}

	win := cv.NewWindow("AR Orrery")
	defer win.Close()

	d := diag.New(logger)
	r := raster.NewRenderer(w, h)
	ramp := fade.Ramp{Duration: cfg.Tracking.FadeSeconds}
	paused := false

	last := time.Now()
	for win.Open() {
		if !tr.CaptureCycle(d) {
			if errors.Is(tr.Err(), capture.ErrEndOfStream) {
				logger.Info("source finished", "stats", fmt.Sprintf("%+v", tr.Stats()))
				return nil
			}
			return fmt.Errorf("capture stopped after %d frames: %w", tr.Stats().Frames, tr.Err())
		}

		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		if !paused {
			sc.Update(dt*cfg.Scene.TimeScale, d)
		}
		alpha := ramp.Step(tr.MarkerVisible(), dt)

		r.Clear(tr.Background())
		if alpha > 0 {
			sc.Draw(r, tr.View(), tr.Projection(), alpha)
		}
		frame := r.Image()
		if err := win.Show(frame); err != nil {
			d.Every(slog.LevelWarn, "window.show", 100, "cannot display frame", "err", err)
		}

		switch key := win.Key(1) & 0xff; key {
		case 27, 'q':
			logger.Info("quit", "stats", fmt.Sprintf("%+v", tr.Stats()))
			return nil
		case 's':
			path := filepath.Join(cfg.SnapshotDir, "snapshot_"+now.Format("20060102_150405.000")+".webp")
			if err := batch.WriteWebP(path, frame); err != nil {
				logger.Warn("snapshot failed", "err", err)
			} else {
				logger.Info("snapshot saved", "path", path)
			}
		case '+', '=':
			scaleRates(sc, speedStep, logger)
		case '-':
			scaleRates(sc, 1/speedStep, logger)
		case ' ':
			paused = !paused
			logger.Info("simulation", "paused", paused)
		}
	}
	return nil
}

// scaleRates multiplies every body's spin and orbit rates by f.
func scaleRates(sc *scene.Scene, f float64, logger *slog.Logger) {
	sys := sc.System()
	for i := 0; i < sys.Len(); i++ {
		id := orbit.BodyID(i)
		rates := sys.Rates(id)
		rates.SpinRate *= f
		rates.OrbitRate *= f
		if err := sys.SetRates(id, rates); err != nil {
			logger.Warn("cannot change rates", "body", sys.Body(id).Name, "err", err)
		}
	}
	logger.Info("speed changed", "factor", f)
}
