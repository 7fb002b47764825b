// Package windows reconstructs Window models from persisted event logs.
// Two physical layouts exist: one subdirectory per window (partitioned)
// and shared per-day files disambiguated by an embedded market slug
// (legacy). Both hide behind the WindowSource interface so the builder
// never branches on layout.
package windows

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"updown-lab/internal/domain"
)

// Log file names inside a date (or window) partition.
const (
	OddsLogName = "odds.jsonl"
	BTCLogName  = "btc.jsonl"
)

// bucketMs is the fixed grid used to match legacy BTC points against
// window bounds.
const bucketMs = 5 * 60 * 1000

// WindowRef identifies one candidate window within a date partition.
type WindowRef struct {
	Date string
	// Slug is the window identifier: the partition directory name, or
	// the embedded market_slug for the legacy layout.
	Slug string
}

// WindowPoints are the raw normalized points collected for one window,
// in arrival order (not sorted).
type WindowPoints struct {
	Side map[domain.Side][]domain.PricePoint
	BTC  []domain.PricePoint
}

func newWindowPoints() *WindowPoints {
	return &WindowPoints{Side: make(map[domain.Side][]domain.PricePoint)}
}

// WindowSource lists candidate windows for a date and yields their raw
// points. Implementations absorb per-row and per-file problems into the
// warning accumulator they were constructed with; only context
// cancellation propagates as an error.
type WindowSource interface {
	ListCandidateWindows(ctx context.Context, date string) ([]WindowRef, error)
	PointsForWindow(ctx context.Context, ref WindowRef) (*WindowPoints, error)
}

// DetectSource picks the layout for a date partition. Partitioned takes
// precedence: any subdirectory holding one of the expected log files
// makes the date partitioned.
func DetectSource(root, date string, warnings *domain.Warnings) WindowSource {
	dateDir := filepath.Join(root, date)
	entries, err := os.ReadDir(dateDir)
	if err != nil {
		warnings.Add(domain.WarnMissingFile, dateDir)
		return &PartitionedSource{root: root, warnings: warnings}
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dateDir, e.Name())
		if fileExists(filepath.Join(sub, OddsLogName)) || fileExists(filepath.Join(sub, BTCLogName)) {
			return &PartitionedSource{root: root, warnings: warnings}
		}
	}
	return NewLegacySource(root, warnings)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// scanJSONL reads a JSONL file line by line, invoking fn for every row
// that parses as a JSON object. A missing file is a missing_file warning
// and zero rows; an unparseable line is a bad_json_line warning and is
// skipped. Only context cancellation aborts the scan.
func scanJSONL(ctx context.Context, path string, warnings *domain.Warnings, fn func(row map[string]any)) error {
	f, err := os.Open(path)
	if err != nil {
		warnings.Add(domain.WarnMissingFile, path)
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(line, &row); err != nil {
			warnings.Add(domain.WarnBadJSONLine, fmt.Sprintf("%s:%d", path, lineNo))
			continue
		}
		fn(row)
	}
	if err := scanner.Err(); err != nil {
		warnings.Add(domain.WarnBadJSONLine, fmt.Sprintf("%s: %v", path, err))
	}
	return nil
}
