package windows

import "regexp"

// slugPattern is the window identifier grammar: <label>-<minutes>m-<epochSeconds>,
// e.g. "btc-updown-5m-1771427100". The label may itself contain hyphens;
// minutes is a positive integer and epochSeconds exactly 10 digits.
var slugPattern = regexp.MustCompile(`^(.+)-([1-9][0-9]*)m-([0-9]{10})$`)

// SlugBounds holds the nominal window bounds parsed from a market slug.
type SlugBounds struct {
	Label   string
	Minutes int
	StartMs int64
	EndMs   int64
}

// ParseSlug parses a window identifier against the slug grammar.
// Returns false when the identifier does not match; callers then fall
// back to bounds derived from observed data extents.
func ParseSlug(slug string) (SlugBounds, bool) {
	m := slugPattern.FindStringSubmatch(slug)
	if m == nil {
		return SlugBounds{}, false
	}

	minutes := 0
	for _, c := range m[2] {
		minutes = minutes*10 + int(c-'0')
	}
	epochSec := int64(0)
	for _, c := range m[3] {
		epochSec = epochSec*10 + int64(c-'0')
	}

	startMs := epochSec * 1000
	return SlugBounds{
		Label:   m[1],
		Minutes: minutes,
		StartMs: startMs,
		EndMs:   startMs + int64(minutes)*60_000,
	}, true
}
