package patterns

import (
	"updown-lab/internal/domain"
)

// last2mMs is the length of the end-of-window sub-series the late
// patterns inspect.
const last2mMs = 2 * 60 * 1000

// Evaluator determines which enabled patterns a window exhibits on which
// side, with per-pattern derived metrics.
type Evaluator struct {
	cfg *Config
}

// NewEvaluator creates an evaluator over a pattern config.
func NewEvaluator(cfg *Config) *Evaluator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Evaluator{cfg: cfg}
}

// Config returns the evaluator's effective pattern config.
func (e *Evaluator) Config() *Config {
	return e.cfg
}

// sideContext is the shared per-side state computed once per evaluation:
// the in-window series, its final and maximum price, and the last-2-minute
// sub-series with its high, low and maximum drawdown from a running high.
type sideContext struct {
	points     []domain.PricePoint
	finalPrice float64
	fullMax    float64

	last2m         []domain.PricePoint
	last2mHigh     float64
	last2mLow      float64
	maxDrawdownAbs float64
}

// newSideContext restricts a sorted side series to [startMs, endMs] and
// derives the shared metrics. Returns nil when no in-window points exist;
// such a side yields no data and counts toward no pattern.
func newSideContext(points []domain.PricePoint, startMs, endMs int64) *sideContext {
	var in []domain.PricePoint
	for _, p := range points {
		if p.TimestampMs >= startMs && p.TimestampMs <= endMs {
			in = append(in, p)
		}
	}
	if len(in) == 0 {
		return nil
	}

	ctx := &sideContext{
		points:     in,
		finalPrice: in[len(in)-1].Price,
	}
	for _, p := range in {
		if p.Price > ctx.fullMax {
			ctx.fullMax = p.Price
		}
	}

	cutoff := endMs - last2mMs
	for _, p := range in {
		if p.TimestampMs >= cutoff {
			ctx.last2m = append(ctx.last2m, p)
		}
	}
	if len(ctx.last2m) > 0 {
		ctx.last2mHigh = ctx.last2m[0].Price
		ctx.last2mLow = ctx.last2m[0].Price
		runningHigh := ctx.last2m[0].Price
		for _, p := range ctx.last2m {
			if p.Price > ctx.last2mHigh {
				ctx.last2mHigh = p.Price
			}
			if p.Price < ctx.last2mLow {
				ctx.last2mLow = p.Price
			}
			if p.Price > runningHigh {
				runningHigh = p.Price
			}
			if dd := runningHigh - p.Price; dd > ctx.maxDrawdownAbs {
				ctx.maxDrawdownAbs = dd
			}
		}
	}
	return ctx
}

// patternFunc decides one pattern for one side. prior holds the IDs of
// higher-priority patterns that already hit the same side within this
// evaluation pass, making suppression an explicit fold over PatternOrder
// rather than shared mutable state.
type patternFunc func(ctx *sideContext, params map[string]float64, prior map[string]bool) (bool, map[string]float64)

var patternFuncs = map[string]patternFunc{
	PatternExtremeReversal: evalExtremeReversal,
	PatternLateVolatility:  evalLateVolatility,
	PatternPeacefulFinish:  evalPeacefulFinish,
}

// EvaluateWindow classifies a finalized window. Patterns are evaluated in
// fixed priority order per side; a window has a pattern if either side
// hits it. Disabled patterns are skipped entirely and can neither
// suppress nor be suppressed.
func (e *Evaluator) EvaluateWindow(w *domain.Window) *domain.WindowPatterns {
	result := &domain.WindowPatterns{WindowID: w.WindowID}

	contexts := make(map[domain.Side]*sideContext)
	prior := make(map[domain.Side]map[string]bool)
	for _, side := range domain.Sides {
		contexts[side] = newSideContext(w.SidePoints[side], w.StartMs, w.EndMs)
		prior[side] = make(map[string]bool)
	}

	for _, id := range PatternOrder {
		def, enabled := e.cfg.pattern(id)
		if !enabled {
			continue
		}

		windowHit := false
		for _, side := range domain.Sides {
			ctx := contexts[side]
			if ctx == nil {
				continue
			}
			hit, metrics := patternFuncs[id](ctx, def.Params, prior[side])
			if !hit {
				continue
			}
			prior[side][id] = true
			windowHit = true
			result.SideHits = append(result.SideHits, domain.PatternHit{
				WindowID:   w.WindowID,
				MarketSlug: w.MarketSlug,
				StartMs:    w.StartMs,
				EndMs:      w.EndMs,
				Side:       side,
				PatternID:  id,
				Metrics:    metrics,
			})
		}
		if windowHit {
			result.Patterns = append(result.Patterns, id)
		}
	}

	if len(result.Patterns) > 0 {
		result.Primary = result.Patterns[0]
	}
	return result
}

// evalExtremeReversal: the series touched maxPriceThreshold but finished
// at or below finalPriceThreshold.
func evalExtremeReversal(ctx *sideContext, params map[string]float64, _ map[string]bool) (bool, map[string]float64) {
	if ctx.fullMax < params["maxPriceThreshold"] || ctx.finalPrice > params["finalPriceThreshold"] {
		return false, nil
	}
	return true, map[string]float64{
		"max_price":   ctx.fullMax,
		"final_price": ctx.finalPrice,
	}
}

// evalLateVolatility: within the last two minutes the price reached
// highThreshold and subsequently dropped below lowThreshold.
func evalLateVolatility(ctx *sideContext, params map[string]float64, _ map[string]bool) (bool, map[string]float64) {
	armed := false
	hit := false
	for _, p := range ctx.last2m {
		if p.Price >= params["highThreshold"] {
			armed = true
			continue
		}
		if armed && p.Price < params["lowThreshold"] {
			hit = true
			break
		}
	}
	if !hit {
		return false, nil
	}
	return true, map[string]float64{
		"last2m_high": ctx.last2mHigh,
		"last2m_low":  ctx.last2mLow,
		"final_price": ctx.finalPrice,
	}
}

// evalPeacefulFinish: a calm close near certainty, suppressed when
// lateVolatility already hit the same side in this pass.
func evalPeacefulFinish(ctx *sideContext, params map[string]float64, prior map[string]bool) (bool, map[string]float64) {
	if prior[PatternLateVolatility] {
		return false, nil
	}
	if len(ctx.last2m) == 0 {
		return false, nil
	}
	if ctx.finalPrice < params["finalPriceThreshold"] || ctx.maxDrawdownAbs > params["maxDrawdownAbsThreshold"] {
		return false, nil
	}
	return true, map[string]float64{
		"final_price":      ctx.finalPrice,
		"last2m_high":      ctx.last2mHigh,
		"last2m_low":       ctx.last2mLow,
		"max_drawdown_abs": ctx.maxDrawdownAbs,
	}
}
