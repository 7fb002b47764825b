package replay

import (
	"updown-lab/internal/domain"
	"updown-lab/internal/report"
)

// WindowSummary is one window's reportable state including its pattern
// evaluation result.
type WindowSummary struct {
	WindowID       string              `json:"window_id"`
	MarketSlug     string              `json:"market_slug,omitempty"`
	StartMs        int64               `json:"start_ms"`
	EndMs          int64               `json:"end_ms"`
	Coverage       domain.Coverage     `json:"coverage"`
	IsComplete     bool                `json:"is_complete"`
	Patterns       []string            `json:"patterns"`
	PatternPrimary string              `json:"pattern_primary,omitempty"`
	SideHits       []domain.PatternHit `json:"side_hits"`
}

// DayReport is the full analysis result for one date.
type DayReport struct {
	Date              string           `json:"date"`
	IncludeIncomplete bool             `json:"include_incomplete"`
	ConfigHash        string           `json:"config_hash"`
	Intervals         []WindowSummary  `json:"intervals"`
	PatternSummary    *report.Summary  `json:"pattern_summary"`
	Warnings          *domain.Warnings `json:"warnings,omitempty"`
}

// Timeseries is a raw chartable slice of one window: the BTC reference
// series plus per-side odds, bypassing pattern evaluation.
type Timeseries struct {
	WindowID   string              `json:"window_id"`
	MarketSlug string              `json:"market_slug,omitempty"`
	StartMs    int64               `json:"start_ms"`
	EndMs      int64               `json:"end_ms"`
	BTC        []domain.PricePoint `json:"btc"`
	Up         []domain.PricePoint `json:"up"`
	Down       []domain.PricePoint `json:"down"`
}
