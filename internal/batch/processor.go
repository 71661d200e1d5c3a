// Package batch renders pre-computed scene frames to WebP files on a pool
// of workers.
package batch

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"ar-orrery/internal/postprocess"
	"ar-orrery/internal/raster"
	"ar-orrery/internal/scene"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Width       int
	Height      int
	Supersample int
	Workers     int
	// Background is drawn behind every frame; nil renders on black.
	Background image.Image
	Logger     *slog.Logger
	// Progress is the period of progress reports; zero disables them.
	Progress time.Duration
}

// Frame is an immutable snapshot of one simulation step.
type Frame struct {
	Index int
	Time  float64
	Calls []scene.DrawCall
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Index   int
	Image   string // path relative to OutputDir
	Success bool
	Error   string
}

// FrameName is the output file name of frame i.
func FrameName(i int) string {
	return fmt.Sprintf("frame_%05d.webp", i)
}

// Run renders all frames using a worker pool. Results are in frame order.
func Run(cfg Config, frames []Frame) []Result {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Supersample < 1 {
		cfg.Supersample = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	total := len(frames)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						cfg.Logger.Info("rendering", "done", p, "total", total, "fps", fmt.Sprintf("%.1f", rate))
					}
				}
			}
		}()
	}

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := raster.NewRenderer(cfg.Width*cfg.Supersample, cfg.Height*cfg.Supersample)
			for idx := range jobs {
				results[idx] = renderFrame(cfg, r, frames[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range frames {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func renderFrame(cfg Config, r *raster.Renderer, f Frame) Result {
	res := Result{Index: f.Index, Image: FrameName(f.Index)}

	img := r.Render(cfg.Background, f.Calls)
	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.Width, cfg.Height)
	}

	if err := WriteWebP(filepath.Join(cfg.OutputDir, res.Image), img); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// WriteWebP encodes img losslessly to path, creating parent directories.
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("batch: webp encode %s: %w", path, err)
	}
	return f.Close()
}
