package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"updown-lab/internal/domain"
	"updown-lab/internal/patterns"
)

// metricOrder fixes the labeled metric fields shown per pattern in the
// human rendering.
var metricOrder = map[string][]string{
	patterns.PatternExtremeReversal: {"max_price", "final_price"},
	patterns.PatternLateVolatility:  {"last2m_high", "last2m_low", "final_price"},
	patterns.PatternPeacefulFinish:  {"final_price", "last2m_high", "last2m_low", "max_drawdown_abs"},
}

// WriteText renders a day summary for the console: per-pattern window
// counts, then per pattern one labeled metrics line per hit.
func WriteText(w io.Writer, date string, s *Summary, warnings *domain.Warnings) {
	fmt.Fprintf(w, "=== %s ===\n", date)
	fmt.Fprintf(w, "windows: %d (%d complete)\n", s.TotalWindows, s.CompleteWindows)

	for _, pc := range s.PatternCounts {
		fmt.Fprintf(w, "\n%s: %d window(s)\n", pc.PatternID, pc.Windows)
		for _, hit := range s.Hits {
			if hit.PatternID != pc.PatternID {
				continue
			}
			fmt.Fprintf(w, "  %s %s [%s]%s\n",
				hit.WindowID,
				hit.Side,
				formatTimeMs(hit.StartMs),
				formatMetrics(hit))
		}
	}

	if warnings != nil && warnings.Total() > 0 {
		fmt.Fprintf(w, "\nwarnings:\n")
		codes := make([]string, 0, len(warnings.Counts))
		for code := range warnings.Counts {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(w, "  %s: %d\n", code, warnings.Counts[code])
		}
	}
}

func formatMetrics(hit domain.PatternHit) string {
	fields := metricOrder[hit.PatternID]
	if len(fields) == 0 {
		// Unknown pattern: fall back to sorted metric keys.
		for k := range hit.Metrics {
			fields = append(fields, k)
		}
		sort.Strings(fields)
	}

	out := ""
	for _, f := range fields {
		v, ok := hit.Metrics[f]
		if !ok {
			continue
		}
		out += fmt.Sprintf(" %s=%.4g", f, v)
	}
	return out
}

func formatTimeMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("15:04:05")
}
