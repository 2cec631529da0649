package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/blockstage/internal/framestore"
)

// FrameHandler serves rendered frames from a frame store.
type FrameHandler struct {
	reader       *framestore.Reader
	logger       *slog.Logger
	cacheControl string
}

// FrameConfig configures the frame handler.
type FrameConfig struct {
	StorePath    string
	CacheControl string
}

// NewFrameHandler opens the frame store for serving.
func NewFrameHandler(cfg FrameConfig, logger *slog.Logger) (*FrameHandler, error) {
	reader, err := framestore.OpenReader(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame store: %w", err)
	}

	return &FrameHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// Register adds the frame routes to mux.
func (h *FrameHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /frames/{$}", h.serveIndex)
	mux.HandleFunc("GET /frames/{run}/{file}", h.serveFrame)
}

type frameIndex struct {
	Metadata framestore.Metadata  `json:"metadata"`
	Runs     []framestore.RunInfo `json:"runs"`
}

func (h *FrameHandler) serveIndex(w http.ResponseWriter, _ *http.Request) {
	meta, err := h.reader.Metadata()
	if err != nil {
		h.log().Error("Failed to read metadata", "error", err)
		http.Error(w, "failed to read frame store", http.StatusInternalServerError)
		return
	}
	runs, err := h.reader.Runs()
	if err != nil {
		h.log().Error("Failed to list runs", "error", err)
		http.Error(w, "failed to read frame store", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []framestore.RunInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(frameIndex{Metadata: meta, Runs: runs}); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

func (h *FrameHandler) serveFrame(w http.ResponseWriter, r *http.Request) {
	run, seq, ext, ok := parseFramePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var (
		data        []byte
		err         error
		contentType string
	)
	switch ext {
	case ".png":
		data, err = h.reader.ReadFrame(run, seq)
		contentType = "image/png"
	case ".svg":
		data, err = h.reader.ReadSVG(run, seq)
		contentType = "image/svg+xml"
	}
	if errors.Is(err, framestore.ErrFrameNotFound) {
		http.Error(w, "Frame not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to read frame", "run", run, "seq", seq, "error", err)
		http.Error(w, "failed to read frame", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

// Close closes the frame store reader.
func (h *FrameHandler) Close() error {
	return h.reader.Close()
}

func (h *FrameHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// parseFramePath parses a path like /frames/demo/0003.png.
// Returns the run, sequence number, extension and success flag.
func parseFramePath(requestPath string) (string, int, string, bool) {
	rest, ok := strings.CutPrefix(requestPath, "/frames/")
	if !ok {
		return "", 0, "", false
	}

	run, file, ok := strings.Cut(rest, "/")
	if !ok || run == "" || strings.Contains(file, "/") {
		return "", 0, "", false
	}

	ext := path.Ext(file)
	if ext != ".png" && ext != ".svg" {
		return "", 0, "", false
	}

	seq, err := strconv.Atoi(strings.TrimSuffix(file, ext))
	if err != nil || seq < 0 {
		return "", 0, "", false
	}

	return run, seq, ext, true
}
