package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updown-lab/internal/domain"
)

func TestConfigHash_Deterministic(t *testing.T) {
	first := DefaultConfig().Hash()
	second := DefaultConfig().Hash()

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestConfigHash_SensitiveToThresholds(t *testing.T) {
	base := DefaultConfig()
	tweaked := DefaultConfig()
	tweaked.Patterns[PatternLateVolatility].Params["lowThreshold"] = 0.35

	assert.NotEqual(t, base.Hash(), tweaked.Hash())
}

func TestConfigHash_SensitiveToEnablement(t *testing.T) {
	base := DefaultConfig()
	tweaked := DefaultConfig()
	def := tweaked.Patterns[PatternPeacefulFinish]
	def.Enabled = false
	tweaked.Patterns[PatternPeacefulFinish] = def

	assert.NotEqual(t, base.Hash(), tweaked.Hash())
}

func TestLoadFile_EmptyPathIsDefaults(t *testing.T) {
	warnings := domain.NewWarnings()
	cfg := LoadFile("", warnings)

	assert.Equal(t, DefaultConfig().Hash(), cfg.Hash())
	assert.Equal(t, 0, warnings.Total())
}

func TestLoadFile_MissingFileFallsBack(t *testing.T) {
	warnings := domain.NewWarnings()
	cfg := LoadFile(filepath.Join(t.TempDir(), "nope.json"), warnings)

	assert.Equal(t, DefaultConfig().Hash(), cfg.Hash())
	assert.Equal(t, 1, warnings.Count(domain.WarnBadPatternConfig))
}

func TestLoadFile_InvalidJSONFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	warnings := domain.NewWarnings()
	cfg := LoadFile(path, warnings)

	assert.Equal(t, DefaultConfig().Hash(), cfg.Hash())
	assert.Equal(t, 1, warnings.Count(domain.WarnBadPatternConfig))
}

func TestLoadFile_AppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	body := `{
		"patterns": {
			"lateVolatility": {"enabled": false, "params": {"lowThreshold": 0.3, "bogusParam": 9}},
			"peacefulFinish": {"params": {"maxDrawdownAbsThreshold": 0.2}},
			"madeUpPattern": {"enabled": true, "params": {"x": 1}}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	warnings := domain.NewWarnings()
	cfg := LoadFile(path, warnings)
	assert.Equal(t, 0, warnings.Total())

	lv := cfg.Patterns[PatternLateVolatility]
	assert.False(t, lv.Enabled)
	assert.Equal(t, 0.3, lv.Params["lowThreshold"])
	_, hasBogus := lv.Params["bogusParam"]
	assert.False(t, hasBogus, "unknown parameter names are ignored")

	pf := cfg.Patterns[PatternPeacefulFinish]
	assert.True(t, pf.Enabled, "absent enabled flag keeps the default")
	assert.Equal(t, 0.2, pf.Params["maxDrawdownAbsThreshold"])
	assert.Equal(t, 0.99, pf.Params["finalPriceThreshold"], "untouched params keep defaults")

	_, known := cfg.Patterns["madeUpPattern"]
	assert.False(t, known, "unknown pattern IDs never enter the config")

	assert.NotEqual(t, DefaultConfig().Hash(), cfg.Hash())
}
