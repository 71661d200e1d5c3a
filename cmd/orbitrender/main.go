// Command orbitrender simulates the orrery on a synthetic marker pose and
// renders the frames to WebP files with a JSON manifest of body positions.
package main

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ar-orrery/internal/batch"
	"ar-orrery/internal/camera"
	"ar-orrery/internal/config"
	"ar-orrery/internal/diag"
	"ar-orrery/internal/logx"
	"ar-orrery/internal/mathutil"
	"ar-orrery/internal/pose"
	"ar-orrery/internal/texture"
)

type options struct {
	config     string
	frames     int
	workers    int
	output     string
	textures   string
	background string
	debug      bool
	quiet      bool
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "orbitrender",
		Short: "Render the orrery on a synthetic marker to WebP frames",
		Long: `orbitrender steps the configured bodies at a fixed frame rate, renders
each frame as seen by a camera looking at a virtual marker, and writes
frame_NNNNN.webp files plus manifest.json with every body's position.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.config, "config", "", "Path to YAML config file")
	f.IntVar(&opts.frames, "frames", 0, "Number of frames to render (default: 120)")
	f.IntVar(&opts.workers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	f.StringVar(&opts.output, "output", "", "Output directory (default: frames)")
	f.StringVar(&opts.textures, "textures", "", "Texture directory (default: textures)")
	f.StringVar(&opts.background, "background", "", "Image drawn behind the scene")
	f.BoolVar(&opts.debug, "debug", false, "Debug logging")
	f.BoolVar(&opts.quiet, "quiet", false, "Only log errors")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	var cfg config.Config
	base := ""
	if opts.config != "" {
		var err error
		cfg, err = config.Load(opts.config)
		if err != nil {
			return err
		}
		base = filepath.Dir(opts.config)
	}

	cfg.Resolve(config.Flags{
		Device:     config.NoDevice,
		TextureDir: opts.textures,
		OutputDir:  opts.output,
		Workers:    opts.workers,
		Frames:     opts.frames,
	}, base)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if opts.debug || opts.quiet {
		level = logx.LevelFromFlags(opts.debug, false, opts.quiet)
	}
	logger := logx.Setup(level)

	texIndex := texture.BuildIndex(cfg.TextureDir)
	texCache := texture.NewCache(texIndex)
	texCache.Logger = logger
	fmt.Printf("Textures: %d indexed in %s\n", texIndex.Len(), cfg.TextureDir)

	sc, err := cfg.Scene.Scene(texCache)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}

	var bg image.Image
	if opts.background != "" {
		if bg, err = loadImage(opts.background); err != nil {
			return err
		}
	}

	rc := cfg.Render
	in := camera.FromResolution(rc.Width, rc.Height, cfg.Camera.FocalScale)
	proj := camera.BuildProjection(in, cfg.Camera.Near, cfg.Camera.Far)
	view := syntheticPose(rc.Distance, rc.PitchDegrees).View()

	d := diag.New(logger)
	dt := 1 / rc.FPS
	snapshots := make([]batch.Frame, rc.Frames)
	for i := range snapshots {
		snapshots[i] = batch.Frame{Index: i, Time: float64(i) * dt, Calls: sc.DrawCalls(view, proj, 1)}
		sc.Update(dt*cfg.Scene.TimeScale, d)
	}

	fmt.Printf("AR orrery offline renderer → WebP\n")
	fmt.Printf("Frames: %d at %.0f fps, %dx%d, Workers: %d\n", rc.Frames, rc.FPS, rc.Width, rc.Height, rc.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(batch.Config{
		OutputDir:   cfg.OutputDir,
		Width:       rc.Width,
		Height:      rc.Height,
		Supersample: rc.Supersample,
		Workers:     rc.Workers,
		Background:  bg,
		Logger:      logger,
		Progress:    2 * time.Second,
	}, snapshots)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	success := 0
	var failed []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed = append(failed, r)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", success, len(results))

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(20, len(failed))] {
			fmt.Printf("  frame %d: %s\n", r.Index, r.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, batch.Manifest(snapshots, results)); err != nil {
		return err
	}
	fmt.Printf("Manifest: %s\n", manifestPath)

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d frames failed", len(failed), len(results))
	}
	return nil
}

// syntheticPose puts the marker distance in front of the camera, facing
// it, tipped back by pitch degrees.
func syntheticPose(distance, pitch float64) pose.Pose {
	return pose.Pose{
		Rotation:    mathutil.RotX(math.Pi + mathutil.Deg2Rad(pitch)),
		Translation: mathutil.Vec3{0, 0, distance},
		Detected:    true,
	}
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
