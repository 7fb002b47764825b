// Package patterns classifies window price trajectories against a
// configurable set of shape patterns.
package patterns

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"updown-lab/internal/domain"
)

// PatternSetVersion identifies the built-in pattern definitions. Bump it
// whenever a pattern's meaning changes; persisted store records carrying
// an older version are recomputed.
const PatternSetVersion = 2

// Built-in pattern identifiers.
const (
	PatternExtremeReversal = "extremeReversal"
	PatternLateVolatility  = "lateVolatility"
	PatternPeacefulFinish  = "peacefulFinish"
)

// PatternOrder is the fixed evaluation priority. It governs output
// ordering and cross-pattern suppression (peacefulFinish observes
// whether lateVolatility already hit the same side), so it is a
// correctness contract, not cosmetic.
var PatternOrder = []string{
	PatternExtremeReversal,
	PatternLateVolatility,
	PatternPeacefulFinish,
}

// PatternDef is one pattern's enablement and numeric thresholds.
type PatternDef struct {
	Enabled bool               `json:"enabled"`
	Params  map[string]float64 `json:"params"`
}

// Config is a named set of pattern definitions with a deterministic
// content hash used as a cache and provenance key.
type Config struct {
	Patterns map[string]PatternDef `json:"patterns"`
}

// DefaultConfig returns the embedded pattern definitions.
func DefaultConfig() *Config {
	return &Config{
		Patterns: map[string]PatternDef{
			PatternExtremeReversal: {
				Enabled: true,
				Params: map[string]float64{
					"maxPriceThreshold":   0.98,
					"finalPriceThreshold": 0.01,
				},
			},
			PatternLateVolatility: {
				Enabled: true,
				Params: map[string]float64{
					"highThreshold": 0.8,
					"lowThreshold":  0.4,
				},
			},
			PatternPeacefulFinish: {
				Enabled: true,
				Params: map[string]float64{
					"finalPriceThreshold":     0.99,
					"maxDrawdownAbsThreshold": 0.1,
				},
			},
		},
	}
}

// configOverride is the external file shape: per-pattern enablement and
// parameter overrides. Absent fields keep their defaults.
type configOverride struct {
	Patterns map[string]struct {
		Enabled *bool              `json:"enabled"`
		Params  map[string]float64 `json:"params"`
	} `json:"patterns"`
}

// LoadFile returns the default config with per-pattern overrides applied
// from a JSON file. Pattern identity never changes: unknown pattern IDs
// in the file are ignored. A missing or invalid file falls back to the
// embedded defaults and records a bad_pattern_config warning.
func LoadFile(path string, warnings *domain.Warnings) *Config {
	cfg := DefaultConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		warnings.Add(domain.WarnBadPatternConfig, path+": "+err.Error())
		return cfg
	}

	var override configOverride
	if err := json.Unmarshal(data, &override); err != nil {
		warnings.Add(domain.WarnBadPatternConfig, path+": "+err.Error())
		return cfg
	}

	for id, o := range override.Patterns {
		def, ok := cfg.Patterns[id]
		if !ok {
			continue
		}
		if o.Enabled != nil {
			def.Enabled = *o.Enabled
		}
		for name, value := range o.Params {
			if _, known := def.Params[name]; known {
				def.Params[name] = value
			}
		}
		cfg.Patterns[id] = def
	}
	return cfg
}

// Hash returns the deterministic content hash of the effective config.
// encoding/json marshals map keys in sorted order, so the serialization
// is canonical regardless of insertion order.
func (c *Config) Hash() string {
	data, err := json.Marshal(c.Patterns)
	if err != nil {
		// Only float64/bool/string values exist here; Marshal cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// pattern returns a definition by ID, reporting whether it is enabled.
func (c *Config) pattern(id string) (PatternDef, bool) {
	def, ok := c.Patterns[id]
	return def, ok && def.Enabled
}
