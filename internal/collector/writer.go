// Package collector ingests live odds and reference-price events from
// websocket feeds and persists them as append-only JSONL event logs in
// the same layouts the window builder reads back.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LogWriter appends JSONL rows under a log root, either partitioned by
// window slug or into flat per-day files. Open handles are kept per
// target file; Close flushes and releases them.
type LogWriter struct {
	root        string
	partitioned bool

	mu    sync.Mutex
	files map[string]*os.File
}

// NewLogWriter creates a writer over a log root.
func NewLogWriter(root string, partitioned bool) *LogWriter {
	return &LogWriter{
		root:        root,
		partitioned: partitioned,
		files:       make(map[string]*os.File),
	}
}

// Append writes one JSON line for a date (and window slug when the
// layout is partitioned; slug is ignored otherwise). The line must be a
// single marshaled JSON object without trailing newline.
func (w *LogWriter) Append(kind, date, slug string, line []byte) error {
	name := "odds.jsonl"
	if kind == KindBTC {
		name = "btc.jsonl"
	}

	var path string
	if w.partitioned {
		if slug == "" {
			return fmt.Errorf("partitioned layout requires a window slug")
		}
		path = filepath.Join(w.root, date, slug, name)
	} else {
		path = filepath.Join(w.root, date, name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}

// open returns a cached append handle, creating parent directories as
// needed. Caller holds w.mu.
func (w *LogWriter) open(path string) (*os.File, error) {
	if f, ok := w.files[path]; ok {
		return f, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	w.files[path] = f
	return f, nil
}

// Close releases every open handle.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for path, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", path, err)
		}
		delete(w.files, path)
	}
	return firstErr
}
