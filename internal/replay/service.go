// Package replay is the query layer over the window builder, pattern
// evaluator and pattern store. It serves the HTTP replay server and the
// CLI reporting entry point.
package replay

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"updown-lab/internal/domain"
	"updown-lab/internal/observability"
	"updown-lab/internal/patterns"
	"updown-lab/internal/patternstore"
	"updown-lab/internal/report"
	"updown-lab/internal/windows"
)

// ErrWindowNotFound is returned by Timeseries for an unknown window.
var ErrWindowNotFound = errors.New("window not found")

// Options configures a Service.
type Options struct {
	// Root is the log root directory.
	Root string
	// Config is the effective pattern config; nil means defaults.
	Config *patterns.Config
	// CacheCapacity bounds the in-memory day cache (entries).
	CacheCapacity int
	// Logger receives scan diagnostics; nil discards them.
	Logger *log.Logger
}

// Service computes and caches per-date window reports. Safe for
// concurrent use across different dates: the day cache is mutex-guarded
// and each computation owns its own builder state.
type Service struct {
	root     string
	cfg      *patterns.Config
	cache    *patternstore.MemCache
	store    *patternstore.Store
	logger   *log.Logger
	now      func() time.Time
	evaluate func(*domain.Window) *domain.WindowPatterns
}

// NewService creates a query service over a log root.
func NewService(opts Options) *Service {
	cfg := opts.Config
	if cfg == nil {
		cfg = patterns.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	evaluator := patterns.NewEvaluator(cfg)
	return &Service{
		root:     opts.Root,
		cfg:      cfg,
		cache:    patternstore.NewMemCache(opts.CacheCapacity),
		store:    patternstore.NewStore(opts.Root),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		evaluate: evaluator.EvaluateWindow,
	}
}

// WithClock sets a custom clock for deterministic store documents.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithEvaluateFunc replaces the pattern evaluation function. Used by
// tests to observe whether cached records bypass evaluation.
func (s *Service) WithEvaluateFunc(fn func(*domain.Window) *domain.WindowPatterns) *Service {
	s.evaluate = fn
	return s
}

// ConfigHash returns the effective pattern config hash.
func (s *Service) ConfigHash() string {
	return s.cfg.Hash()
}

// InvalidateDay drops any cached summaries for a date, for all
// include-incomplete variants and the current config.
func (s *Service) InvalidateDay(date string) {
	daySig := patternstore.DaySignature(s.root, date)
	for _, incl := range []bool{false, true} {
		s.cache.Invalidate(patternstore.CacheKey(date, incl, s.cfg.Hash(), daySig))
	}
}

// ListDates returns the available date partitions under the log root.
func (s *Service) ListDates(_ context.Context) ([]string, error) {
	return windows.NewBuilder(s.root, s.logger).ListDates()
}

// DayReport builds (or serves from cache) the window + pattern summary
// for a date. When includeIncomplete is false, incomplete windows are
// excluded from evaluation and reporting.
func (s *Service) DayReport(ctx context.Context, date string, includeIncomplete bool) (*DayReport, error) {
	configHash := s.cfg.Hash()
	daySig := patternstore.DaySignature(s.root, date)
	key := patternstore.CacheKey(date, includeIncomplete, configHash, daySig)

	if v, ok := s.cache.Get(key); ok {
		observability.RecordDayCache(true)
		return v.(*DayReport), nil
	}
	observability.RecordDayCache(false)

	builder := windows.NewBuilder(s.root, s.logger)
	wins, warnings, err := builder.BuildDate(ctx, date)
	if err != nil {
		return nil, err
	}
	observability.RecordScanWarnings(warnings.Counts)

	if !includeIncomplete {
		filtered := wins[:0]
		for _, w := range wins {
			if w.IsComplete {
				filtered = append(filtered, w)
			}
		}
		wins = filtered
	}

	partitioned := builder.IsPartitioned(date)
	results, err := s.evaluateAll(date, wins, configHash, includeIncomplete, partitioned)
	if err != nil {
		return nil, err
	}

	dayReport := &DayReport{
		Date:              date,
		IncludeIncomplete: includeIncomplete,
		ConfigHash:        configHash,
		PatternSummary:    report.BuildSummary(wins, results),
		Warnings:          warnings,
	}
	for _, w := range wins {
		summary := WindowSummary{
			WindowID:   w.WindowID,
			MarketSlug: w.MarketSlug,
			StartMs:    w.StartMs,
			EndMs:      w.EndMs,
			Coverage:   w.Coverage,
			IsComplete: w.IsComplete,
		}
		if r := results[w.WindowID]; r != nil {
			summary.Patterns = r.Patterns
			summary.PatternPrimary = r.Primary
			summary.SideHits = r.SideHits
		}
		dayReport.Intervals = append(dayReport.Intervals, summary)
	}

	// Store writes are not .jsonl files, so the day signature computed
	// above still identifies the state this report came from.
	s.cache.Put(key, dayReport)
	return dayReport, nil
}

// evaluateAll produces pattern results per window, reusing persisted
// records whose signatures still match. The persisted document is
// rebuilt from the current window set on every run, which both replaces
// stale records and drops windows that no longer exist.
func (s *Service) evaluateAll(date string, wins []*domain.Window, configHash string, includeIncomplete, partitioned bool) (map[string]*domain.WindowPatterns, error) {
	results := make(map[string]*domain.WindowPatterns, len(wins))

	var prev *patternstore.Document
	if partitioned {
		prev, _ = s.store.Load(date, configHash, includeIncomplete)
	}
	next := patternstore.NewDocument(date, configHash, includeIncomplete, s.now().UnixMilli())

	recomputed := false
	for _, w := range wins {
		sig := patternstore.WindowSignature(s.root, w)

		if prev != nil {
			if rec, ok := prev.Windows[w.WindowID]; ok && rec.Matches(sig, configHash, includeIncomplete) {
				observability.RecordStoreReuse()
				results[w.WindowID] = &domain.WindowPatterns{
					WindowID: w.WindowID,
					Patterns: rec.Patterns,
					Primary:  rec.Primary,
					SideHits: rec.SideHits,
				}
				next.Windows[w.WindowID] = rec
				continue
			}
		}

		r := s.evaluate(w)
		observability.RecordWindowEvaluated()
		for _, hit := range r.SideHits {
			observability.RecordPatternHit(hit.PatternID, string(hit.Side))
		}
		results[w.WindowID] = r
		recomputed = true

		next.Windows[w.WindowID] = &patternstore.Record{
			WindowID:          w.WindowID,
			MarketSlug:        w.MarketSlug,
			StartMs:           w.StartMs,
			EndMs:             w.EndMs,
			SourceSignature:   sig,
			ParamsHash:        configHash,
			PatternSetVersion: patterns.PatternSetVersion,
			IncludeIncomplete: includeIncomplete,
			Coverage:          w.Coverage,
			IsComplete:        w.IsComplete,
			Patterns:          r.Patterns,
			Primary:           r.Primary,
			SideHits:          r.SideHits,
		}
	}

	// Legacy layout never persists; unchanged documents are not rewritten.
	if partitioned && (recomputed || prev == nil || len(prev.Windows) != len(next.Windows)) {
		if err := s.store.Save(next); err != nil {
			return nil, err
		}
		observability.RecordStoreWrite()
	}
	return results, nil
}

// Timeseries returns the raw BTC and per-side odds series of one window
// restricted to [fromMs, toMs]. Zero bounds default to the window's own
// bounds. The window is matched by ID or market slug.
func (s *Service) Timeseries(ctx context.Context, date, windowID string, fromMs, toMs int64) (*Timeseries, error) {
	builder := windows.NewBuilder(s.root, s.logger)
	wins, _, err := builder.BuildDate(ctx, date)
	if err != nil {
		return nil, err
	}

	var target *domain.Window
	for _, w := range wins {
		if w.WindowID == windowID || w.MarketSlug == windowID {
			target = w
			break
		}
	}
	if target == nil {
		return nil, ErrWindowNotFound
	}

	if fromMs == 0 {
		fromMs = target.StartMs
	}
	if toMs == 0 {
		toMs = target.EndMs
	}

	return &Timeseries{
		WindowID:   target.WindowID,
		MarketSlug: target.MarketSlug,
		StartMs:    target.StartMs,
		EndMs:      target.EndMs,
		BTC:        slicePoints(target.BTCPoints, fromMs, toMs),
		Up:         slicePoints(target.SidePoints[domain.SideUp], fromMs, toMs),
		Down:       slicePoints(target.SidePoints[domain.SideDown], fromMs, toMs),
	}, nil
}

func slicePoints(points []domain.PricePoint, fromMs, toMs int64) []domain.PricePoint {
	var out []domain.PricePoint
	for _, p := range points {
		if p.TimestampMs >= fromMs && p.TimestampMs <= toMs {
			out = append(out, p)
		}
	}
	return out
}
