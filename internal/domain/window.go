package domain

import (
	"fmt"
	"sort"
)

// PricePoint is one normalized observation of a price series.
type PricePoint struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Price       float64 `json:"price"`
}

// Coverage holds per-series observed time spans for a window.
// Each value is the distance in ms between the first and last point
// of the series (zero when the series has at most one point).
type Coverage struct {
	UpCoverageMs   int64 `json:"up_coverage_ms"`
	DownCoverageMs int64 `json:"down_coverage_ms"`
	OddsCoverageMs int64 `json:"odds_coverage_ms"`
	BTCCoverageMs  int64 `json:"btc_coverage_ms"`
}

// CompletenessRatio is the fraction of the nominal window duration that
// must be covered by both the BTC and the odds series for a window to be
// considered complete (4 of 5 minutes for a 5-minute window).
const CompletenessRatio = 0.8

// Window represents one market's fixed-duration trading epoch, with its
// per-side odds series and the independent BTC reference series.
type Window struct {
	Date       string `json:"date"`
	WindowID   string `json:"window_id"`
	MarketSlug string `json:"market_slug,omitempty"`

	// StartMs/EndMs are exact when parsed from the market slug,
	// approximate (data extents) otherwise.
	StartMs     int64 `json:"start_ms"`
	EndMs       int64 `json:"end_ms"`
	BoundsExact bool  `json:"bounds_exact"`

	SidePoints map[Side][]PricePoint `json:"side_points"`
	BTCPoints  []PricePoint          `json:"btc_points"`

	Coverage   Coverage `json:"coverage"`
	IsComplete bool     `json:"is_complete"`
}

// NewWindow creates an empty window for a date partition.
func NewWindow(date string) *Window {
	return &Window{
		Date:       date,
		SidePoints: make(map[Side][]PricePoint),
	}
}

// SyntheticWindowID derives a stable identifier from window bounds, used
// when the market slug does not match the slug grammar.
func SyntheticWindowID(startMs, endMs int64) string {
	return fmt.Sprintf("w-%d-%d", startMs, endMs)
}

// AddSidePoint appends an odds observation for a side. Order of insertion
// is not significant; Finalize sorts every series.
func (w *Window) AddSidePoint(side Side, p PricePoint) {
	w.SidePoints[side] = append(w.SidePoints[side], p)
}

// AddBTCPoint appends a BTC reference observation.
func (w *Window) AddBTCPoint(p PricePoint) {
	w.BTCPoints = append(w.BTCPoints, p)
}

// HasData reports whether the window conveys reportable information:
// at least one BTC point and at least one point on either side.
func (w *Window) HasData() bool {
	if len(w.BTCPoints) == 0 {
		return false
	}
	return len(w.SidePoints[SideUp]) > 0 || len(w.SidePoints[SideDown]) > 0
}

// Finalize sorts every series by timestamp, derives bounds from data
// extents when they were not parsed from the slug, and computes coverage
// and completeness. Must be called after all points are collected and
// before the window is evaluated or reported.
func (w *Window) Finalize() {
	for _, side := range Sides {
		sortPoints(w.SidePoints[side])
	}
	sortPoints(w.BTCPoints)

	if !w.BoundsExact {
		w.deriveBounds()
	}

	w.Coverage = Coverage{
		UpCoverageMs:   spanMs(w.SidePoints[SideUp]),
		DownCoverageMs: spanMs(w.SidePoints[SideDown]),
		BTCCoverageMs:  spanMs(w.BTCPoints),
	}
	w.Coverage.OddsCoverageMs = w.Coverage.UpCoverageMs
	if w.Coverage.DownCoverageMs > w.Coverage.OddsCoverageMs {
		w.Coverage.OddsCoverageMs = w.Coverage.DownCoverageMs
	}

	required := int64(CompletenessRatio * float64(w.EndMs-w.StartMs))
	w.IsComplete = w.Coverage.BTCCoverageMs >= required && w.Coverage.OddsCoverageMs >= required
}

// deriveBounds sets StartMs/EndMs to the union of observed point extents.
func (w *Window) deriveBounds() {
	first := int64(0)
	last := int64(0)
	seen := false

	visit := func(points []PricePoint) {
		if len(points) == 0 {
			return
		}
		lo := points[0].TimestampMs
		hi := points[len(points)-1].TimestampMs
		if !seen {
			first, last = lo, hi
			seen = true
			return
		}
		if lo < first {
			first = lo
		}
		if hi > last {
			last = hi
		}
	}

	for _, side := range Sides {
		visit(w.SidePoints[side])
	}
	visit(w.BTCPoints)

	if seen {
		w.StartMs = first
		w.EndMs = last
	}
	if w.WindowID == "" {
		w.WindowID = SyntheticWindowID(w.StartMs, w.EndMs)
	}
}

func sortPoints(points []PricePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TimestampMs < points[j].TimestampMs
	})
}

func spanMs(points []PricePoint) int64 {
	if len(points) < 2 {
		return 0
	}
	return points[len(points)-1].TimestampMs - points[0].TimestampMs
}
