package framestore

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultBatchSize is the number of frames buffered before a flush.
const DefaultBatchSize = 50

const schemaSQL = `
CREATE TABLE IF NOT EXISTS metadata (
	name  TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS frames (
	run TEXT NOT NULL,
	seq INTEGER NOT NULL,
	svg TEXT,
	png BLOB NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS frame_index ON frames (run, seq);
`

var writerPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
}

// Writer buffers rendered frames and writes them to a frame store in
// batched transactions. It is safe for concurrent use by pool workers.
type Writer struct {
	db        *sql.DB
	path      string
	batch     []Frame
	metadata  Metadata
	batchSize int
	written   int
	mu        sync.Mutex
}

// New opens or creates the store at path and records metadata. Frames of
// other runs already in the store are kept.
func New(path string, metadata Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initDB(db, metadata); err != nil {
		db.Close()
		return nil, err
	}

	return &Writer{
		db:        db,
		path:      path,
		batch:     make([]Frame, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
		metadata:  metadata,
	}, nil
}

func initDB(db *sql.DB, meta Metadata) error {
	for _, pragma := range writerPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := upsertMetadata(db, meta); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// upsertMetadata replaces the keys present in meta and leaves others alone.
func upsertMetadata(db *sql.DB, meta Metadata) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() // nolint:errcheck

	for key, value := range meta.ToMap() {
		if _, err := tx.Exec(
			"INSERT INTO metadata (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value",
			key, value,
		); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// Path returns the database file path.
func (w *Writer) Path() string {
	return w.path
}

// Written reports how many frames have been committed so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// WriteFrame adds a frame to the batch. When the batch is full, it is
// flushed. A frame with the same run and seq replaces the stored one.
func (w *Writer) WriteFrame(run string, seq int, svg, pngData []byte) error {
	if run == "" {
		return fmt.Errorf("run name must not be empty")
	}
	if seq < 0 {
		return fmt.Errorf("invalid frame sequence %d", seq)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, Frame{Run: run, Seq: seq, SVG: svg, PNG: pngData})

	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}

	return nil
}

// Flush writes any buffered frames to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// flushLocked must be called with w.mu held. PNGs are compressed before
// the transaction opens so it stays short.
func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	rows := make([][]any, len(w.batch))
	for i, f := range w.batch {
		compressed, err := gzipCompress(f.PNG)
		if err != nil {
			return fmt.Errorf("failed to compress frame %s/%d: %w", f.Run, f.Seq, err)
		}
		var svg any // NULL when the frame has no SVG
		if len(f.SVG) > 0 {
			svg = string(f.SVG)
		}
		rows[i] = []any{f.Run, f.Seq, svg, compressed}
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO frames (run, seq, svg, png) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row...); err != nil {
			return fmt.Errorf("failed to insert frame %v/%v: %w", row[0], row[1], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.written += len(w.batch)
	w.batch = w.batch[:0]
	return nil
}

// Close flushes any remaining frames and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
