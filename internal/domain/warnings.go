package domain

// Warning codes recorded while scanning logs and loading configuration.
const (
	WarnBadJSONLine      = "bad_json_line"
	WarnMissingFile      = "missing_file"
	WarnBadPatternConfig = "bad_pattern_config"
)

// WarningSampleLimit bounds how many example messages are retained per code.
const WarningSampleLimit = 25

// Warnings accumulates non-fatal conditions: unbounded count per code,
// bounded sample retention for diagnostics. Not safe for concurrent use;
// each scan owns its own accumulator.
type Warnings struct {
	Counts  map[string]int      `json:"counts"`
	Samples map[string][]string `json:"samples,omitempty"`
}

// NewWarnings creates an empty accumulator.
func NewWarnings() *Warnings {
	return &Warnings{
		Counts:  make(map[string]int),
		Samples: make(map[string][]string),
	}
}

// Add records one occurrence of a warning code.
func (w *Warnings) Add(code, sample string) {
	w.Counts[code]++
	if len(w.Samples[code]) < WarningSampleLimit {
		w.Samples[code] = append(w.Samples[code], sample)
	}
}

// Count returns the number of occurrences recorded for a code.
func (w *Warnings) Count(code string) int {
	return w.Counts[code]
}

// Total returns the number of warnings across all codes.
func (w *Warnings) Total() int {
	total := 0
	for _, n := range w.Counts {
		total += n
	}
	return total
}

// Merge folds another accumulator into this one, respecting the sample bound.
func (w *Warnings) Merge(other *Warnings) {
	if other == nil {
		return
	}
	for code, n := range other.Counts {
		w.Counts[code] += n
	}
	for code, samples := range other.Samples {
		for _, s := range samples {
			if len(w.Samples[code]) >= WarningSampleLimit {
				break
			}
			w.Samples[code] = append(w.Samples[code], s)
		}
	}
}
