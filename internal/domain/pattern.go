package domain

// PatternHit is one (window, side, pattern) occurrence with its
// pattern-specific metrics (e.g. max_price, final_price, drawdown).
type PatternHit struct {
	WindowID   string             `json:"window_id"`
	MarketSlug string             `json:"market_slug,omitempty"`
	StartMs    int64              `json:"start_ms"`
	EndMs      int64              `json:"end_ms"`
	Side       Side               `json:"side"`
	PatternID  string             `json:"pattern_id"`
	Metrics    map[string]float64 `json:"metrics"`
}

// WindowPatterns is the pattern evaluation result for one window.
// Patterns preserves the fixed evaluation priority order; Primary is the
// first pattern present, or empty when none hit.
type WindowPatterns struct {
	WindowID string       `json:"window_id"`
	Patterns []string     `json:"patterns"`
	Primary  string       `json:"pattern_primary,omitempty"`
	SideHits []PatternHit `json:"side_hits"`
}

// Has reports whether the window exhibits the given pattern on any side.
func (p *WindowPatterns) Has(patternID string) bool {
	for _, id := range p.Patterns {
		if id == patternID {
			return true
		}
	}
	return false
}
