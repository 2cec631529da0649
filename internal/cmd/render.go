package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/blockstage/internal/framestore"
	"github.com/MeKo-Tech/blockstage/internal/render"
	"github.com/MeKo-Tech/blockstage/internal/stage"
	"github.com/MeKo-Tech/blockstage/internal/worker"
)

var renderCmd = &cobra.Command{
	Use:   "render <scene.yaml>",
	Short: "Replay a scene and render every step",
	Long: `Load a YAML scene (stage size, sprites and a list of ops), replay the ops
and render the starting stage plus the stage after every op as numbered PNG
frames. Frames go to <output-dir>/<run>/ or into a SQLite frame store.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("run", "", "Run name (default: scene file name without extension)")
	renderCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	renderCmd.Flags().Bool("progress", true, "Show progress bar")
	renderCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some frames fail")
	renderCmd.Flags().Bool("final-only", false, "Render only the final stage")

	renderCmd.Flags().Float64("scale", 1, "Pixels per stage unit")
	renderCmd.Flags().Float64("wobble", 0, "Hand-drawn pen wobble in stage units (0 draws exact lines)")
	renderCmd.Flags().Int64("seed", 1337, "Deterministic seed for pen wobble")
	renderCmd.Flags().String("background", "white", "Background color (hex, color name, or \"none\")")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	renderCmd.Flags().Bool("svg", false, "Also write an SVG for every frame")

	renderCmd.Flags().String("format", "folder", "Output format: folder or store")
	renderCmd.Flags().String("output-file", "", "Frame store path for store format (e.g., frames.db)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.run", "run"},
		{"render.workers", "workers"},
		{"render.progress", "progress"},
		{"render.allow_failures", "allow-failures"},
		{"render.final_only", "final-only"},
		{"render.scale", "scale"},
		{"render.wobble", "wobble"},
		{"render.seed", "seed"},
		{"render.background", "background"},
		{"render.png_compression", "png-compression"},
		{"render.svg", "svg"},
		{"render.format", "format"},
		{"render.output_file", "output-file"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	scenePath := args[0]
	run := viper.GetString("render.run")
	workers := viper.GetInt("render.workers")
	showProgress := viper.GetBool("render.progress")
	allowFailures := viper.GetBool("render.allow_failures")
	finalOnly := viper.GetBool("render.final_only")
	scale := viper.GetFloat64("render.scale")
	wobble := viper.GetFloat64("render.wobble")
	seed := viper.GetInt64("render.seed")
	background := viper.GetString("render.background")
	pngCompression := viper.GetString("render.png_compression")
	writeSVG := viper.GetBool("render.svg")
	format := viper.GetString("render.format")
	outputFile := viper.GetString("render.output_file")
	outputDir := viper.GetString("output-dir")

	if logger == nil {
		initLogging()
	}

	if format != "folder" && format != "store" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'store'", format)
	}
	if format == "store" && outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=store")
	}
	if !(scale > 0) || scale > render.MaxScale {
		return fmt.Errorf("invalid scale %v: must be in (0, %d]", scale, render.MaxScale)
	}
	level, err := render.PNGCompression(pngCompression)
	if err != nil {
		return err
	}
	if run == "" {
		run = runName(scenePath)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	scene, err := stage.LoadScene(scenePath)
	if err != nil {
		return err
	}
	frames, err := sceneFrames(scene, finalOnly)
	if err != nil {
		return err
	}

	logger.Info("Starting render",
		"scene", scenePath,
		"run", run,
		"frames", len(frames),
		"workers", workers,
		"format", format,
	)

	opts := render.Options{Scale: scale, Wobble: wobble, Seed: seed}
	if background != "none" {
		opts.Background = render.ParseColor(background)
	}

	renderer := &worker.StageRenderer{
		Rasterizer:  render.NewRasterizer(opts),
		Logger:      logger,
		Compression: level,
		WriteSVG:    writeSVG,
	}

	var store *framestore.Writer
	if format == "store" {
		store, err = framestore.New(outputFile, framestore.Metadata{
			Name:        run,
			Description: "Rendered from " + filepath.Base(scenePath),
			Format:      "png",
			Version:     "1",
			Width:       int(frames[0].Width),
			Height:      int(frames[0].Height),
			Scale:       scale,
		})
		if err != nil {
			return fmt.Errorf("failed to create frame store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close frame store", "error", err)
			}
		}()
		renderer.Sink = store
	} else {
		renderer.OutputDir = outputDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := worker.Tasks(run, frames)
	progress := worker.NewProgress(len(tasks), showProgress)
	progress.SetOutput(cmd.ErrOrStderr())

	pool := worker.New(worker.Config{
		Workers:    workers,
		Renderer:   renderer,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Frame render failed", "run", r.Task.Run, "seq", r.Task.Seq, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if !allowFailures {
			return fmt.Errorf("%d frames failed to render", failedCount)
		}
		logger.Warn("Some frames failed to render, but continuing due to --allow-failures flag", "failed_count", failedCount)
	}

	if store != nil {
		if err := store.Flush(); err != nil {
			return fmt.Errorf("failed to flush frame store: %w", err)
		}
		logger.Info("Frame store written", "path", outputFile, "frames", store.Written())
	}
	return nil
}

// sceneFrames returns the starting stage followed by the stage after each
// op, or just the last stage when finalOnly is set.
func sceneFrames(scene *stage.Scene, finalOnly bool) ([]*stage.Stage, error) {
	start, err := scene.Stage()
	if err != nil {
		return nil, err
	}
	steps, err := stage.Replay(start, scene.Ops)
	if err != nil {
		return nil, err
	}

	frames := append([]*stage.Stage{start}, steps...)
	if finalOnly {
		return frames[len(frames)-1:], nil
	}
	return frames, nil
}

// runName derives a run name from a scene path: "scenes/pen demo.yaml"
// becomes "pen-demo".
func runName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Join(strings.Fields(base), "-")
	if base == "" || base == "." {
		return "run"
	}
	return base
}
