package windows

import (
	"context"
	"io"
	"log"
	"os"
	"regexp"
	"sort"

	"updown-lab/internal/domain"
	"updown-lab/internal/observability"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Builder reconstructs Window models for date partitions under a log root.
type Builder struct {
	root   string
	logger *log.Logger
}

// NewBuilder creates a builder over a log root directory.
func NewBuilder(root string, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Builder{root: root, logger: logger}
}

// ListDates returns the available date partitions under the root, sorted
// ascending. A nonexistent root is a fatal condition for callers.
func (b *Builder) ListDates() ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() && datePattern.MatchString(e.Name()) {
			dates = append(dates, e.Name())
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// BuildDate reconstructs every reportable window for one date. Windows
// with no BTC points or no side points on either side are discarded.
// The returned slice is sorted by (StartMs, WindowID) for determinism.
func (b *Builder) BuildDate(ctx context.Context, date string) ([]*domain.Window, *domain.Warnings, error) {
	warnings := domain.NewWarnings()
	source := DetectSource(b.root, date, warnings)
	wins, err := b.buildFromSource(ctx, source, date, warnings)
	if err != nil {
		return nil, warnings, err
	}
	if warnings.Total() > 0 {
		b.logger.Printf("date %s: %d windows, %d warnings %v", date, len(wins), warnings.Total(), warnings.Counts)
	}
	return wins, warnings, nil
}

// IsPartitioned reports whether the date partition uses the per-window
// directory layout. Only that layout persists a pattern store.
func (b *Builder) IsPartitioned(date string) bool {
	_, ok := DetectSource(b.root, date, domain.NewWarnings()).(*PartitionedSource)
	return ok
}

func (b *Builder) buildFromSource(ctx context.Context, source WindowSource, date string, warnings *domain.Warnings) ([]*domain.Window, error) {
	refs, err := source.ListCandidateWindows(ctx, date)
	if err != nil {
		return nil, err
	}

	var wins []*domain.Window
	for _, ref := range refs {
		points, err := source.PointsForWindow(ctx, ref)
		if err != nil {
			return nil, err
		}

		w := domain.NewWindow(date)
		w.MarketSlug = ref.Slug
		if bounds, ok := ParseSlug(ref.Slug); ok {
			w.WindowID = ref.Slug
			w.StartMs = bounds.StartMs
			w.EndMs = bounds.EndMs
			w.BoundsExact = true
		}

		for side, pts := range points.Side {
			for _, p := range pts {
				w.AddSidePoint(side, p)
			}
		}
		for _, p := range points.BTC {
			w.AddBTCPoint(p)
		}

		// No reportable information: dropped silently, not warned.
		if !w.HasData() {
			observability.RecordWindowDiscarded()
			continue
		}

		w.Finalize()
		observability.RecordWindowBuilt()
		wins = append(wins, w)
	}

	sort.Slice(wins, func(i, j int) bool {
		if wins[i].StartMs != wins[j].StartMs {
			return wins[i].StartMs < wins[j].StartMs
		}
		return wins[i].WindowID < wins[j].WindowID
	})
	return wins, nil
}
