package windows

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"updown-lab/internal/domain"
	"updown-lab/internal/normalize"
)

// PartitionedSource reads the per-window directory layout:
// <root>/<date>/<window-slug>/{odds.jsonl,btc.jsonl}.
type PartitionedSource struct {
	root     string
	warnings *domain.Warnings
}

// NewPartitionedSource creates a source over the partitioned layout.
func NewPartitionedSource(root string, warnings *domain.Warnings) *PartitionedSource {
	return &PartitionedSource{root: root, warnings: warnings}
}

// ListCandidateWindows returns one ref per subdirectory of the date
// partition that carries at least one expected log file.
func (s *PartitionedSource) ListCandidateWindows(_ context.Context, date string) ([]WindowRef, error) {
	dateDir := filepath.Join(s.root, date)
	entries, err := os.ReadDir(dateDir)
	if err != nil {
		// Already warned by DetectSource; an empty date is zero windows.
		return nil, nil
	}

	var refs []WindowRef
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dateDir, e.Name())
		if fileExists(filepath.Join(sub, OddsLogName)) || fileExists(filepath.Join(sub, BTCLogName)) {
			refs = append(refs, WindowRef{Date: date, Slug: e.Name()})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Slug < refs[j].Slug })
	return refs, nil
}

// PointsForWindow scans the window directory's odds and BTC logs.
// Every odds row in the directory belongs to this window; rows without
// a recognized side or timestamp are skipped silently (the caller counts
// only structural problems).
func (s *PartitionedSource) PointsForWindow(ctx context.Context, ref WindowRef) (*WindowPoints, error) {
	dir := filepath.Join(s.root, ref.Date, ref.Slug)
	points := newWindowPoints()

	err := scanJSONL(ctx, filepath.Join(dir, OddsLogName), s.warnings, func(row map[string]any) {
		side, ok := normalize.Side(row)
		if !ok {
			return
		}
		ts, ok := normalize.TimestampMs(row)
		if !ok {
			return
		}
		price, ok := normalize.Price(row)
		if !ok {
			return
		}
		points.Side[side] = append(points.Side[side], domain.PricePoint{TimestampMs: ts, Price: price})
	})
	if err != nil {
		return nil, err
	}

	err = scanJSONL(ctx, filepath.Join(dir, BTCLogName), s.warnings, func(row map[string]any) {
		ts, ok := normalize.TimestampMs(row)
		if !ok {
			return
		}
		price, ok := normalize.BTCPrice(row)
		if !ok {
			return
		}
		points.BTC = append(points.BTC, domain.PricePoint{TimestampMs: ts, Price: price})
	})
	if err != nil {
		return nil, err
	}

	return points, nil
}
