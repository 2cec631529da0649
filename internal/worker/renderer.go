package worker

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/blockstage/internal/render"
)

// FrameSink receives encoded frames, typically a framestore.Writer.
type FrameSink interface {
	WriteFrame(run string, seq int, svg, pngData []byte) error
}

// StageRenderer rasterizes task stages and writes them to a directory, a
// frame sink, or both.
type StageRenderer struct {
	Rasterizer  *render.Rasterizer
	Sink        FrameSink
	Logger      *slog.Logger
	OutputDir   string // frames go to <OutputDir>/<run>/<seq>.png when set
	Compression png.CompressionLevel
	WriteSVG    bool
}

func (r *StageRenderer) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// RenderFrame implements FrameRenderer. The returned path is the PNG file
// when OutputDir is set and "<run>/<seq>" otherwise.
func (r *StageRenderer) RenderFrame(ctx context.Context, task Task) (string, error) {
	if task.Stage == nil {
		return "", fmt.Errorf("frame %s/%d has no stage", task.Run, task.Seq)
	}
	rast := r.Rasterizer
	if rast == nil {
		rast = render.NewRasterizer(render.DefaultOptions())
	}

	img := rast.Render(task.Stage)
	pngData, err := render.EncodePNG(img, r.Compression)
	if err != nil {
		return "", err
	}

	var svgData []byte
	if r.WriteSVG {
		var buf bytes.Buffer
		render.SVG(&buf, task.Stage)
		svgData = buf.Bytes()
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/%d", task.Run, task.Seq)
	if r.OutputDir != "" {
		dir := filepath.Join(r.OutputDir, task.Run)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		base := filepath.Join(dir, fmt.Sprintf("%04d", task.Seq))
		path = base + ".png"
		if err := os.WriteFile(path, pngData, 0o644); err != nil {
			return "", fmt.Errorf("failed to write frame: %w", err)
		}
		if svgData != nil {
			if err := os.WriteFile(base+".svg", svgData, 0o644); err != nil {
				return "", fmt.Errorf("failed to write frame svg: %w", err)
			}
		}
	}

	if r.Sink != nil {
		if err := r.Sink.WriteFrame(task.Run, task.Seq, svgData, pngData); err != nil {
			return "", fmt.Errorf("failed to store frame: %w", err)
		}
	}

	r.log().Debug("Rendered frame", "run", task.Run, "seq", task.Seq, "bytes", len(pngData))
	return path, nil
}
