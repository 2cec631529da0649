// Package framestore persists rendered stage frames in a SQLite database.
package framestore

import (
	"errors"
	"strconv"
)

// ErrFrameNotFound is returned when a run has no frame at the given sequence.
var ErrFrameNotFound = errors.New("frame not found")

// Metadata describes a frame store.
type Metadata struct {
	Name        string // Human-readable store name
	Description string
	Version     string
	Format      string // Raster format of stored frames, always png for now
	Width       int    // Stage width in stage units
	Height      int
	Scale       float64 // Raster pixels per stage unit
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if m.Width > 0 {
		result["width"] = strconv.Itoa(m.Width)
	}
	if m.Height > 0 {
		result["height"] = strconv.Itoa(m.Height)
	}
	if m.Scale > 0 {
		result["scale"] = strconv.FormatFloat(m.Scale, 'f', -1, 64)
	}

	return result
}

func metadataFromMap(values map[string]string) Metadata {
	meta := Metadata{
		Name:        values["name"],
		Description: values["description"],
		Version:     values["version"],
		Format:      values["format"],
	}
	if i, err := strconv.Atoi(values["width"]); err == nil {
		meta.Width = i
	}
	if i, err := strconv.Atoi(values["height"]); err == nil {
		meta.Height = i
	}
	if f, err := strconv.ParseFloat(values["scale"], 64); err == nil {
		meta.Scale = f
	}
	return meta
}

// Frame is one rendered step of a run.
type Frame struct {
	Run string
	SVG []byte
	PNG []byte // gzip-compressed before storage
	Seq int
}

// RunInfo summarizes a stored run.
type RunInfo struct {
	Run    string `json:"run"`
	Frames int    `json:"frames"`
}
