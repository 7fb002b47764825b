package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updown-lab/internal/domain"
)

// Fixture window: a 5-minute market starting 2026-02-18 15:05:00 UTC.
const (
	winStartMs = int64(1771427100000)
	winEndMs   = int64(1771427400000)
)

func fixtureWindow(up, down []domain.PricePoint) *domain.Window {
	w := domain.NewWindow("2026-02-18")
	w.WindowID = "btc-updown-5m-1771427100"
	w.MarketSlug = w.WindowID
	w.StartMs = winStartMs
	w.EndMs = winEndMs
	w.BoundsExact = true
	if up != nil {
		w.SidePoints[domain.SideUp] = up
	}
	if down != nil {
		w.SidePoints[domain.SideDown] = down
	}
	return w
}

func pt(tsMs int64, price float64) domain.PricePoint {
	return domain.PricePoint{TimestampMs: tsMs, Price: price}
}

func TestEvaluateWindow_ExtremeReversal(t *testing.T) {
	w := fixtureWindow([]domain.PricePoint{
		pt(winStartMs, 0.50),
		pt(1771427200000, 0.99),
		pt(1771427395000, 0.005),
	}, nil)

	result := NewEvaluator(nil).EvaluateWindow(w)

	assert.Equal(t, []string{PatternExtremeReversal}, result.Patterns)
	assert.Equal(t, PatternExtremeReversal, result.Primary)
	require.Len(t, result.SideHits, 1)

	hit := result.SideHits[0]
	assert.Equal(t, domain.SideUp, hit.Side)
	assert.Equal(t, winStartMs, hit.StartMs)
	assert.Equal(t, winEndMs, hit.EndMs)
	assert.InDelta(t, 0.99, hit.Metrics["max_price"], 1e-12)
	assert.InDelta(t, 0.005, hit.Metrics["final_price"], 1e-12)
}

func TestEvaluateWindow_LateVolatilitySuppressesPeacefulFinish(t *testing.T) {
	// Final price recovers above the peacefulFinish threshold after a
	// late spike and drop. With a loosened drawdown limit both raw
	// conditions hold, and only the higher-priority pattern may report.
	cfg := DefaultConfig()
	cfg.Patterns[PatternPeacefulFinish].Params["maxDrawdownAbsThreshold"] = 1.0

	w := fixtureWindow([]domain.PricePoint{
		pt(winStartMs, 0.50),
		pt(1771427290000, 0.85),
		pt(1771427340000, 0.30),
		pt(1771427395000, 0.995),
	}, nil)

	result := NewEvaluator(cfg).EvaluateWindow(w)

	assert.Equal(t, []string{PatternLateVolatility}, result.Patterns)
	require.Len(t, result.SideHits, 1)

	hit := result.SideHits[0]
	assert.Equal(t, PatternLateVolatility, hit.PatternID)
	assert.InDelta(t, 0.85, hit.Metrics["last2m_high"], 1e-12)
	assert.InDelta(t, 0.30, hit.Metrics["last2m_low"], 1e-12)
	assert.InDelta(t, 0.995, hit.Metrics["final_price"], 1e-12)
}

func TestEvaluateWindow_DisabledPatternCannotSuppress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Patterns[PatternPeacefulFinish].Params["maxDrawdownAbsThreshold"] = 1.0
	def := cfg.Patterns[PatternLateVolatility]
	def.Enabled = false
	cfg.Patterns[PatternLateVolatility] = def

	w := fixtureWindow([]domain.PricePoint{
		pt(winStartMs, 0.50),
		pt(1771427290000, 0.85),
		pt(1771427340000, 0.30),
		pt(1771427395000, 0.995),
	}, nil)

	result := NewEvaluator(cfg).EvaluateWindow(w)

	assert.Equal(t, []string{PatternPeacefulFinish}, result.Patterns,
		"a disabled pattern is skipped entirely and releases its suppression")
}

func TestEvaluateWindow_PeacefulFinish(t *testing.T) {
	w := fixtureWindow([]domain.PricePoint{
		pt(winStartMs, 0.90),
		pt(1771427300000, 0.995),
		pt(1771427395000, 0.995),
	}, nil)

	result := NewEvaluator(nil).EvaluateWindow(w)

	assert.Equal(t, []string{PatternPeacefulFinish}, result.Patterns)
	require.Len(t, result.SideHits, 1)

	hit := result.SideHits[0]
	assert.InDelta(t, 0.995, hit.Metrics["final_price"], 1e-12)
	assert.InDelta(t, 0.0, hit.Metrics["max_drawdown_abs"], 1e-12)
}

func TestEvaluateWindow_PriorityOrdering(t *testing.T) {
	// One side exhibits both a full-window reversal and a late swing.
	w := fixtureWindow([]domain.PricePoint{
		pt(winStartMs, 0.50),
		pt(1771427200000, 0.99),
		pt(1771427290000, 0.85),
		pt(1771427340000, 0.30),
		pt(1771427395000, 0.005),
	}, nil)

	result := NewEvaluator(nil).EvaluateWindow(w)

	assert.Equal(t, []string{PatternExtremeReversal, PatternLateVolatility}, result.Patterns)
	assert.Equal(t, PatternExtremeReversal, result.Primary)
	assert.Len(t, result.SideHits, 2)
	assert.True(t, result.Has(PatternExtremeReversal))
	assert.True(t, result.Has(PatternLateVolatility))
	assert.False(t, result.Has(PatternPeacefulFinish))
}

func TestEvaluateWindow_OutOfWindowPointsIgnored(t *testing.T) {
	// The pre-window touch of 0.99 must not count toward the maximum.
	w := fixtureWindow([]domain.PricePoint{
		pt(winStartMs-1000, 0.99),
		pt(winStartMs, 0.50),
		pt(1771427395000, 0.005),
	}, nil)

	result := NewEvaluator(nil).EvaluateWindow(w)

	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.Primary)
}

func TestEvaluateWindow_SidesEvaluateIndependently(t *testing.T) {
	up := []domain.PricePoint{
		pt(winStartMs, 0.50),
		pt(1771427200000, 0.99),
		pt(1771427395000, 0.005),
	}
	down := []domain.PricePoint{
		pt(winStartMs, 0.10),
		pt(1771427300000, 0.995),
		pt(1771427395000, 0.995),
	}

	result := NewEvaluator(nil).EvaluateWindow(fixtureWindow(up, down))

	assert.Equal(t, []string{PatternExtremeReversal, PatternPeacefulFinish}, result.Patterns)
	require.Len(t, result.SideHits, 2)
	assert.Equal(t, domain.SideUp, result.SideHits[0].Side)
	assert.Equal(t, PatternExtremeReversal, result.SideHits[0].PatternID)
	assert.Equal(t, domain.SideDown, result.SideHits[1].Side)
	assert.Equal(t, PatternPeacefulFinish, result.SideHits[1].PatternID)
}

func TestEvaluateWindow_NoDataSide(t *testing.T) {
	result := NewEvaluator(nil).EvaluateWindow(fixtureWindow(nil, nil))

	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.SideHits)
}
