package patternstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"updown-lab/internal/domain"
	"updown-lab/internal/patterns"
)

// SchemaVersion is the persisted document format version. A document
// carrying an unrecognized version is treated as absent, never as fatal.
const SchemaVersion = 1

// Record is one window's computed pattern result plus the exact
// signature of the inputs that produced it.
type Record struct {
	WindowID          string              `json:"window_id"`
	MarketSlug        string              `json:"market_slug,omitempty"`
	StartMs           int64               `json:"start_ms"`
	EndMs             int64               `json:"end_ms"`
	SourceSignature   string              `json:"source_signature"`
	ParamsHash        string              `json:"params_hash"`
	PatternSetVersion int                 `json:"pattern_set_version"`
	IncludeIncomplete bool                `json:"include_incomplete"`
	Coverage          domain.Coverage     `json:"coverage"`
	IsComplete        bool                `json:"is_complete"`
	Patterns          []string            `json:"patterns"`
	Primary           string              `json:"pattern_primary,omitempty"`
	SideHits          []domain.PatternHit `json:"side_hits"`
}

// Matches reports whether the record can be reused as-is for the given
// current expectations.
func (r *Record) Matches(sourceSignature, paramsHash string, includeIncomplete bool) bool {
	return r.SourceSignature == sourceSignature &&
		r.ParamsHash == paramsHash &&
		r.PatternSetVersion == patterns.PatternSetVersion &&
		r.IncludeIncomplete == includeIncomplete
}

// Document is one date's persisted pattern results for a single
// (includeIncomplete, pattern set version, config hash) combination.
type Document struct {
	SchemaVersion     int                `json:"schema_version"`
	Date              string             `json:"date"`
	ConfigHash        string             `json:"config_hash"`
	PatternSetVersion int                `json:"pattern_set_version"`
	IncludeIncomplete bool               `json:"include_incomplete"`
	GeneratedAtMs     int64              `json:"generated_at_ms"`
	Windows           map[string]*Record `json:"windows"`
}

// Store persists pattern documents alongside the raw logs. Only the
// partitioned layout uses it; the legacy layout recomputes per request.
type Store struct {
	root string
}

// NewStore creates a store over the log root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Path returns the document location for a date/config combination.
func (s *Store) Path(date, configHash string, includeIncomplete bool) string {
	scope := "complete"
	if includeIncomplete {
		scope = "all"
	}
	name := fmt.Sprintf("pattern-store-v%d-%s-%s.json", patterns.PatternSetVersion, shortHash(configHash), scope)
	return filepath.Join(s.root, date, name)
}

// Load reads the document for a date/config combination. A missing,
// unreadable or unrecognized-version document is reported as absent.
func (s *Store) Load(date, configHash string, includeIncomplete bool) (*Document, bool) {
	data, err := os.ReadFile(s.Path(date, configHash, includeIncomplete))
	if err != nil {
		return nil, false
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.SchemaVersion != SchemaVersion || doc.ConfigHash != configHash {
		return nil, false
	}
	if doc.Windows == nil {
		doc.Windows = make(map[string]*Record)
	}
	return &doc, true
}

// Save writes the document atomically: temp file in the target directory,
// then rename over the final path. Concurrent writers for the same
// combination are last-writer-wins; content is deterministic given
// identical inputs.
func (s *Store) Save(doc *Document) error {
	target := s.Path(doc.Date, doc.ConfigHash, doc.IncludeIncomplete)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pattern-store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}

// NewDocument creates an empty document for a date/config combination.
func NewDocument(date, configHash string, includeIncomplete bool, nowMs int64) *Document {
	return &Document{
		SchemaVersion:     SchemaVersion,
		Date:              date,
		ConfigHash:        configHash,
		PatternSetVersion: patterns.PatternSetVersion,
		IncludeIncomplete: includeIncomplete,
		GeneratedAtMs:     nowMs,
		Windows:           make(map[string]*Record),
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
