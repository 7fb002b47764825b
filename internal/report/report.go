// Package report summarizes pattern hits across a set of windows for
// console or JSON output.
package report

import (
	"sort"

	"updown-lab/internal/domain"
	"updown-lab/internal/patterns"
)

// PatternCount is the number of windows exhibiting one pattern.
type PatternCount struct {
	PatternID string `json:"pattern_id"`
	Windows   int    `json:"windows"`
}

// Summary aggregates pattern results over a set of windows. Counts
// follow the fixed pattern priority; hits are sorted by
// (windowStartMs, marketSlug, side) ascending.
type Summary struct {
	TotalWindows    int                 `json:"total_windows"`
	CompleteWindows int                 `json:"complete_windows"`
	PatternCounts   []PatternCount      `json:"pattern_counts"`
	Hits            []domain.PatternHit `json:"hits"`
}

// BuildSummary computes the aggregate over windows and their evaluation
// results, keyed by window ID. Windows without a result contribute to
// the totals only.
func BuildSummary(wins []*domain.Window, results map[string]*domain.WindowPatterns) *Summary {
	s := &Summary{}

	counts := make(map[string]int)
	for _, w := range wins {
		s.TotalWindows++
		if w.IsComplete {
			s.CompleteWindows++
		}
		r := results[w.WindowID]
		if r == nil {
			continue
		}
		for _, id := range r.Patterns {
			counts[id]++
		}
		s.Hits = append(s.Hits, r.SideHits...)
	}

	for _, id := range patterns.PatternOrder {
		s.PatternCounts = append(s.PatternCounts, PatternCount{PatternID: id, Windows: counts[id]})
	}

	sort.SliceStable(s.Hits, func(i, j int) bool {
		a, b := s.Hits[i], s.Hits[j]
		if a.StartMs != b.StartMs {
			return a.StartMs < b.StartMs
		}
		if a.MarketSlug != b.MarketSlug {
			return a.MarketSlug < b.MarketSlug
		}
		return a.Side < b.Side
	})
	return s
}
