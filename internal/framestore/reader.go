package framestore

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
)

// Reader reads frames from a frame store database.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens a frame store for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='frames'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain frames table")
	}

	return &Reader{db: db, path: path}, nil
}

// ReadFrame returns the ungzipped PNG of a frame.
func (r *Reader) ReadFrame(run string, seq int) ([]byte, error) {
	var compressed []byte
	err := r.db.QueryRow("SELECT png FROM frames WHERE run=? AND seq=?", run, seq).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%d", ErrFrameNotFound, run, seq)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query frame: %w", err)
	}

	data, err := gzipDecompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress frame: %w", err)
	}
	return data, nil
}

// ReadSVG returns the SVG document of a frame. Frames stored without one
// report ErrFrameNotFound.
func (r *Reader) ReadSVG(run string, seq int) ([]byte, error) {
	var svg sql.NullString
	err := r.db.QueryRow("SELECT svg FROM frames WHERE run=? AND seq=?", run, seq).Scan(&svg)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !svg.Valid) {
		return nil, fmt.Errorf("%w: %s/%d", ErrFrameNotFound, run, seq)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query frame: %w", err)
	}
	return []byte(svg.String), nil
}

// Runs lists the stored runs with their frame counts, ordered by name.
func (r *Reader) Runs() ([]RunInfo, error) {
	rows, err := r.db.Query("SELECT run, COUNT(*) FROM frames GROUP BY run ORDER BY run")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.Run, &info.Frames); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Metadata reads metadata from the database.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	return metadataFromMap(values), nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
