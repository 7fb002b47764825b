package windows

import (
	"context"
	"path/filepath"
	"sort"

	"updown-lab/internal/domain"
	"updown-lab/internal/normalize"
)

// LegacySource reads the flat per-day layout:
// <root>/<date>/{odds.jsonl,btc.jsonl}, with every window's rows
// interleaved and disambiguated by the embedded market_slug field.
//
// The day files are scanned once per date and the grouped result is
// memoized, so ListCandidateWindows and PointsForWindow share one pass.
type LegacySource struct {
	root     string
	warnings *domain.Warnings

	scanned map[string]*legacyDay
}

type legacyDay struct {
	// bySlug holds odds points grouped by embedded market slug, in
	// arrival order.
	bySlug map[string]map[domain.Side][]domain.PricePoint
	// btc holds the day's reference points; they carry no window key
	// and are matched against window bounds at assignment time.
	btc []domain.PricePoint
}

// NewLegacySource creates a source over the legacy layout.
func NewLegacySource(root string, warnings *domain.Warnings) *LegacySource {
	return &LegacySource{
		root:     root,
		warnings: warnings,
		scanned:  make(map[string]*legacyDay),
	}
}

// ListCandidateWindows returns one ref per distinct market slug seen in
// the day's odds log.
func (s *LegacySource) ListCandidateWindows(ctx context.Context, date string) ([]WindowRef, error) {
	day, err := s.scan(ctx, date)
	if err != nil {
		return nil, err
	}

	refs := make([]WindowRef, 0, len(day.bySlug))
	for slug := range day.bySlug {
		refs = append(refs, WindowRef{Date: date, Slug: slug})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Slug < refs[j].Slug })
	return refs, nil
}

// PointsForWindow returns the slug's odds points plus every BTC point
// whose 5-minute bucket falls inside the window's nominal bounds. A BTC
// point may join multiple overlapping windows; the duplication is part
// of the contract. Windows whose slug does not parse have no nominal
// bounds and receive no BTC points.
func (s *LegacySource) PointsForWindow(ctx context.Context, ref WindowRef) (*WindowPoints, error) {
	day, err := s.scan(ctx, ref.Date)
	if err != nil {
		return nil, err
	}

	points := newWindowPoints()
	for side, pts := range day.bySlug[ref.Slug] {
		points.Side[side] = append(points.Side[side], pts...)
	}

	if bounds, ok := ParseSlug(ref.Slug); ok {
		for _, p := range day.btc {
			bucket := p.TimestampMs / bucketMs * bucketMs
			if bucket >= bounds.StartMs && bucket < bounds.EndMs {
				points.BTC = append(points.BTC, p)
			}
		}
	}
	return points, nil
}

// scan reads both day files once and memoizes the grouped points.
func (s *LegacySource) scan(ctx context.Context, date string) (*legacyDay, error) {
	if day, ok := s.scanned[date]; ok {
		return day, nil
	}

	day := &legacyDay{bySlug: make(map[string]map[domain.Side][]domain.PricePoint)}
	dateDir := filepath.Join(s.root, date)

	err := scanJSONL(ctx, filepath.Join(dateDir, OddsLogName), s.warnings, func(row map[string]any) {
		slug, ok := normalize.MarketSlug(row)
		if !ok {
			return
		}
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
		if day.bySlug[slug] == nil {
			day.bySlug[slug] = make(map[domain.Side][]domain.PricePoint)
		}
		day.bySlug[slug][side] = append(day.bySlug[slug][side], domain.PricePoint{TimestampMs: ts, Price: price})
	})
	if err != nil {
		return nil, err
	}

	err = scanJSONL(ctx, filepath.Join(dateDir, BTCLogName), s.warnings, func(row map[string]any) {
		ts, ok := normalize.TimestampMs(row)
		if !ok {
			return
		}
		price, ok := normalize.BTCPrice(row)
		if !ok {
			return
		}
		day.btc = append(day.btc, domain.PricePoint{TimestampMs: ts, Price: price})
	})
	if err != nil {
		return nil, err
	}

	s.scanned[date] = day
	return day, nil
}
