// Package server exposes the color converter, code generator, live stage and
// stored frames over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/MeKo-Tech/blockstage/internal/codegen"
	"github.com/MeKo-Tech/blockstage/internal/colorspace"
	"github.com/MeKo-Tech/blockstage/internal/console"
	"github.com/MeKo-Tech/blockstage/internal/render"
	"github.com/MeKo-Tech/blockstage/internal/stage"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// maxOpsPerRequest caps the ops one POST to /api/stage/ops may apply.
const maxOpsPerRequest = 1000

// APIConfig configures the API handler.
type APIConfig struct {
	// Stage is the starting stage. Nil uses stage.DefaultStage.
	Stage          *stage.Stage
	Raster         render.Options
	PNGCompression string
	CacheControl   string
	ConsoleLines   int
}

// API serves the JSON and image endpoints under /api/.
// It owns one live stage that clients mutate through ops.
type API struct {
	initial *stage.Stage
	current *stage.Stage
	console *console.Console
	raster  *render.Rasterizer
	logger  *slog.Logger
	cfg     APIConfig
	mu      sync.RWMutex
}

// NewAPI creates the API handler.
func NewAPI(cfg APIConfig, logger *slog.Logger) (*API, error) {
	if _, err := render.PNGCompression(cfg.PNGCompression); err != nil {
		return nil, err
	}
	if cfg.Raster.Scale <= 0 {
		cfg.Raster = render.DefaultOptions()
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	initial := cfg.Stage
	if initial == nil {
		initial = stage.DefaultStage()
	}

	return &API{
		initial: initial,
		current: initial,
		console: console.New(cfg.ConsoleLines),
		raster:  render.NewRasterizer(cfg.Raster),
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// Register adds the API routes to mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/color/hsv", a.handleHSV)
	mux.HandleFunc("GET /api/color/rgb", a.handleRGB)
	mux.HandleFunc("POST /api/codegen", a.handleCodegen)

	mux.HandleFunc("GET /api/stage", a.handleStage)
	mux.HandleFunc("POST /api/stage/ops", a.handleOps)
	mux.HandleFunc("POST /api/stage/reset", a.handleReset)
	mux.HandleFunc("GET /api/stage.svg", a.handleStageSVG)
	mux.HandleFunc("GET /api/stage.png", a.handleStagePNG)
	mux.HandleFunc("GET /api/sprites/{id}/thumbnail.png", a.handleThumbnail)

	mux.HandleFunc("GET /api/console", a.handleConsole)
	mux.HandleFunc("POST /api/console", a.handleConsoleAppend)
	mux.HandleFunc("DELETE /api/console", a.handleConsoleClear)
}

// Stage returns the live stage snapshot.
func (a *API) Stage() *stage.Stage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Console returns the console programs print to.
func (a *API) Console() *console.Console {
	return a.console
}

type hsvResponse struct {
	Hex string  `json:"hex"`
	H   float64 `json:"h"`
	S   float64 `json:"s"`
	V   float64 `json:"v"`
}

type rgbResponse struct {
	R   string `json:"r"`
	G   string `json:"g"`
	B   string `json:"b"`
	Hex string `json:"hex"`
}

// handleHSV converts ?hex=. The leading '#' may be omitted since it has to
// be escaped in URLs.
func (a *API) handleHSV(w http.ResponseWriter, r *http.Request) {
	hex := r.URL.Query().Get("hex")
	if hex != "" && !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	hsv, err := colorspace.RGBToHSV(hex)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, hsvResponse{Hex: strings.ToLower(hex), H: hsv.H, S: hsv.S, V: hsv.V})
}

func (a *API) handleRGB(w http.ResponseWriter, r *http.Request) {
	var hsv colorspace.HSV
	q := r.URL.Query()
	for _, c := range []struct {
		name string
		dst  *float64
	}{{"h", &hsv.H}, {"s", &hsv.S}, {"v", &hsv.V}} {
		v, err := strconv.ParseFloat(q.Get(c.name), 64)
		if err != nil {
			a.writeError(w, fmt.Errorf("%w: parameter %s: %q", colorspace.ErrOutOfRangeComponent, c.name, q.Get(c.name)))
			return
		}
		*c.dst = v
	}

	parts, err := colorspace.HSVToRGB(hsv)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, rgbResponse{R: parts[0], G: parts[1], B: parts[2], Hex: colorspace.JoinHex(parts)})
}

// handleCodegen turns a posted workspace into JavaScript. Query flags:
// export, highlight and sprite.
func (a *API) handleCodegen(w http.ResponseWriter, r *http.Request) {
	ws, err := codegen.DecodeWorkspace(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.writeError(w, badRequest(err))
		return
	}

	q := r.URL.Query()
	gen := codegen.New(codegen.Options{
		Export:    queryBool(q.Get("export")),
		Highlight: queryBool(q.Get("highlight")),
		Sprite:    q.Get("sprite"),
	})
	code, err := gen.WorkspaceToCode(ws)
	if err != nil {
		a.writeError(w, badRequest(err))
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

func (a *API) handleStage(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.Stage())
}

// handleOps applies a JSON list of ops to the live stage. Either all ops
// apply or the stage is left unchanged.
func (a *API) handleOps(w http.ResponseWriter, r *http.Request) {
	var ops []stage.Op
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ops); err != nil {
		a.writeError(w, badRequest(fmt.Errorf("failed to decode ops: %w", err)))
		return
	}
	if len(ops) > maxOpsPerRequest {
		a.writeError(w, badRequest(fmt.Errorf("too many ops: %d (max %d)", len(ops), maxOpsPerRequest)))
		return
	}

	a.mu.Lock()
	next, err := applyAll(a.current, ops)
	if err == nil {
		a.current = next
	} else {
		next = a.current
	}
	a.mu.Unlock()

	if err != nil {
		a.writeError(w, badRequest(err))
		return
	}
	a.log().Debug("Applied ops", "count", len(ops))
	a.writeJSON(w, http.StatusOK, next)
}

// applyAll runs ops in order and returns only the final stage.
func applyAll(st *stage.Stage, ops []stage.Op) (*stage.Stage, error) {
	for i, op := range ops {
		next, err := stage.Apply(st, op)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
		st = next
	}
	return st, nil
}

func (a *API) handleReset(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	a.current = a.initial
	a.mu.Unlock()
	a.console.Clear()
	a.writeJSON(w, http.StatusOK, a.initial)
}

func (a *API) handleStageSVG(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	render.SVG(&buf, a.Stage())
	a.writeBody(w, "image/svg+xml", buf.Bytes())
}

func (a *API) handleStagePNG(w http.ResponseWriter, _ *http.Request) {
	a.writePNG(w, a.raster.Render(a.Stage()))
}

func (a *API) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sp, ok := a.Stage().Sprite(id)
	if !ok {
		a.writeError(w, fmt.Errorf("%w: %q", stage.ErrSpriteNotFound, id))
		return
	}

	size := 64
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 512 {
			a.writeError(w, badRequest(fmt.Errorf("invalid size %q", s)))
			return
		}
		size = n
	}
	a.writePNG(w, render.SpriteThumbnail(sp, size))
}

func (a *API) handleConsole(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string][]string{"lines": nonNil(a.console.Lines())})
}

func (a *API) handleConsoleAppend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		a.writeError(w, badRequest(fmt.Errorf("failed to decode console text: %w", err)))
		return
	}
	a.console.AppendLine(body.Text)
	a.writeJSON(w, http.StatusOK, map[string][]string{"lines": nonNil(a.console.Lines())})
}

func (a *API) handleConsoleClear(w http.ResponseWriter, _ *http.Request) {
	a.console.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writePNG(w http.ResponseWriter, img image.Image) {
	level, _ := render.PNGCompression(a.cfg.PNGCompression)
	data, err := render.EncodePNG(img, level)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeBody(w, "image/png", data)
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}

func queryBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (a *API) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// requestError marks client mistakes that are not covered by a sentinel.
type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err: err} }

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var reqErr requestError
	switch {
	case errors.Is(err, stage.ErrSpriteNotFound):
		return http.StatusNotFound
	case errors.As(err, &reqErr),
		errors.Is(err, colorspace.ErrInvalidColorFormat),
		errors.Is(err, colorspace.ErrOutOfRangeComponent),
		errors.Is(err, stage.ErrOutOfRange),
		errors.Is(err, stage.ErrUnknownOp),
		errors.Is(err, codegen.ErrUnknownBlock):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log().Error("Request failed", "error", err)
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log().Error("Failed to write response", "error", err)
	}
}

func (a *API) writeBody(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", a.cfg.CacheControl)
	if _, err := w.Write(data); err != nil {
		a.log().Error("Failed to write response", "error", err)
	}
}
