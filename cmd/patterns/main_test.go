package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updown-lab/internal/domain"
	"updown-lab/internal/replay"
)

func TestWithConfigWarnings(t *testing.T) {
	scanWarnings := domain.NewWarnings()
	scanWarnings.Add(domain.WarnBadJSONLine, "odds.jsonl:7")
	cached := &replay.DayReport{Date: "2026-02-18", Warnings: scanWarnings}

	configWarnings := domain.NewWarnings()
	configWarnings.Add(domain.WarnBadPatternConfig, "patterns.json: no such file")

	out := withConfigWarnings(cached, configWarnings)
	require.NotSame(t, cached, out)
	assert.Equal(t, 1, out.Warnings.Count(domain.WarnBadJSONLine))
	assert.Equal(t, 1, out.Warnings.Count(domain.WarnBadPatternConfig))

	// The cached report is untouched.
	assert.Equal(t, 0, cached.Warnings.Count(domain.WarnBadPatternConfig))
	assert.Same(t, scanWarnings, cached.Warnings)
}

func TestWithConfigWarnings_NoWarnings(t *testing.T) {
	cached := &replay.DayReport{Date: "2026-02-18", Warnings: domain.NewWarnings()}

	out := withConfigWarnings(cached, domain.NewWarnings())
	assert.Same(t, cached, out)
}
