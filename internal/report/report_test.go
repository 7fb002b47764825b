package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updown-lab/internal/domain"
	"updown-lab/internal/patterns"
)

func reversalWindow(id string, startMs int64, complete bool) *domain.Window {
	w := domain.NewWindow("2026-02-18")
	w.WindowID = id
	w.MarketSlug = id
	w.StartMs = startMs
	w.EndMs = startMs + 300000
	w.IsComplete = complete
	return w
}

func hit(slug string, startMs int64, side domain.Side, patternID string) domain.PatternHit {
	return domain.PatternHit{
		WindowID:   slug,
		MarketSlug: slug,
		StartMs:    startMs,
		EndMs:      startMs + 300000,
		Side:       side,
		PatternID:  patternID,
		Metrics:    map[string]float64{"max_price": 0.99, "final_price": 0.005},
	}
}

func TestBuildSummary(t *testing.T) {
	wins := []*domain.Window{
		reversalWindow("w-late", 1771427400000, true),
		reversalWindow("w-early", 1771427100000, false),
		reversalWindow("w-silent", 1771427700000, true),
	}
	results := map[string]*domain.WindowPatterns{
		"w-late": {
			WindowID: "w-late",
			Patterns: []string{patterns.PatternExtremeReversal},
			Primary:  patterns.PatternExtremeReversal,
			SideHits: []domain.PatternHit{hit("w-late", 1771427400000, domain.SideUp, patterns.PatternExtremeReversal)},
		},
		"w-early": {
			WindowID: "w-early",
			Patterns: []string{patterns.PatternExtremeReversal},
			Primary:  patterns.PatternExtremeReversal,
			SideHits: []domain.PatternHit{
				hit("w-early", 1771427100000, domain.SideUp, patterns.PatternExtremeReversal),
				hit("w-early", 1771427100000, domain.SideDown, patterns.PatternExtremeReversal),
			},
		},
	}

	s := BuildSummary(wins, results)

	assert.Equal(t, 3, s.TotalWindows)
	assert.Equal(t, 2, s.CompleteWindows)

	require.Len(t, s.PatternCounts, len(patterns.PatternOrder))
	assert.Equal(t, patterns.PatternExtremeReversal, s.PatternCounts[0].PatternID)
	assert.Equal(t, 2, s.PatternCounts[0].Windows)
	assert.Equal(t, 0, s.PatternCounts[1].Windows)

	// Hits ordered by start time, then slug, then side.
	require.Len(t, s.Hits, 3)
	assert.Equal(t, "w-early", s.Hits[0].WindowID)
	assert.Equal(t, domain.SideDown, s.Hits[0].Side, "down sorts before up")
	assert.Equal(t, domain.SideUp, s.Hits[1].Side)
	assert.Equal(t, "w-late", s.Hits[2].WindowID)
}

func TestBuildSummary_Empty(t *testing.T) {
	s := BuildSummary(nil, nil)

	assert.Equal(t, 0, s.TotalWindows)
	assert.Empty(t, s.Hits)
	require.Len(t, s.PatternCounts, len(patterns.PatternOrder))
	for _, pc := range s.PatternCounts {
		assert.Equal(t, 0, pc.Windows)
	}
}

func TestWriteText(t *testing.T) {
	wins := []*domain.Window{reversalWindow("btc-updown-5m-1771427100", 1771427100000, true)}
	results := map[string]*domain.WindowPatterns{
		"btc-updown-5m-1771427100": {
			WindowID: "btc-updown-5m-1771427100",
			Patterns: []string{patterns.PatternExtremeReversal},
			SideHits: []domain.PatternHit{
				hit("btc-updown-5m-1771427100", 1771427100000, domain.SideUp, patterns.PatternExtremeReversal),
			},
		},
	}
	warnings := domain.NewWarnings()
	warnings.Add(domain.WarnBadJSONLine, "odds.jsonl:7")

	var buf strings.Builder
	WriteText(&buf, "2026-02-18", BuildSummary(wins, results), warnings)
	out := buf.String()

	assert.Contains(t, out, "=== 2026-02-18 ===")
	assert.Contains(t, out, "windows: 1 (1 complete)")
	assert.Contains(t, out, "extremeReversal: 1 window(s)")
	assert.Contains(t, out, "btc-updown-5m-1771427100 up [15:05:00] max_price=0.99 final_price=0.005")
	assert.Contains(t, out, "bad_json_line: 1")
}

func TestWriteText_NoWarningsSection(t *testing.T) {
	var buf strings.Builder
	WriteText(&buf, "2026-02-18", BuildSummary(nil, nil), domain.NewWarnings())

	assert.NotContains(t, buf.String(), "warnings:")
}
