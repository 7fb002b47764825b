package patternstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updown-lab/internal/domain"
)

func writeFixture(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDaySignature_TracksSourceBytes(t *testing.T) {
	root := t.TempDir()
	odds := filepath.Join(root, testDate, "btc-updown-5m-1771427100", "odds.jsonl")
	writeFixture(t, odds, `{"side":"up"}`+"\n")

	before := DaySignature(root, testDate)
	assert.Equal(t, before, DaySignature(root, testDate), "stable over unchanged files")

	// A size change flips the signature.
	writeFixture(t, odds, `{"side":"up"}`+"\n"+`{"side":"down"}`+"\n")
	assert.NotEqual(t, before, DaySignature(root, testDate))
}

func TestDaySignature_IgnoresStoreDocuments(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, testDate, "w1", "odds.jsonl"), "{}\n")

	before := DaySignature(root, testDate)
	writeFixture(t, filepath.Join(root, testDate, "pattern-store-v2-abc-all.json"), "{}")
	assert.Equal(t, before, DaySignature(root, testDate), "non-jsonl files never participate")
}

func TestDaySignature_SeesNewWindows(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, testDate, "w1", "odds.jsonl"), "{}\n")

	before := DaySignature(root, testDate)
	writeFixture(t, filepath.Join(root, testDate, "w2", "btc.jsonl"), "{}\n")
	assert.NotEqual(t, before, DaySignature(root, testDate))
}

func TestWindowSignature_SyntheticWindowID(t *testing.T) {
	root := t.TempDir()
	w := domain.NewWindow(testDate)
	w.MarketSlug = "scratch-window"
	w.WindowID = domain.SyntheticWindowID(1771427100000, 1771427400000)
	oddsLog := filepath.Join(root, testDate, w.MarketSlug, "odds.jsonl")
	writeFixture(t, oddsLog, "{}\n")

	before := WindowSignature(root, w)
	writeFixture(t, oddsLog, "{}\n{}\n")
	assert.NotEqual(t, before, WindowSignature(root, w),
		"files are located by slug directory, not by the synthetic ID")
}

func TestWindowSignature_TracksFilesAndCoverage(t *testing.T) {
	root := t.TempDir()
	w := domain.NewWindow(testDate)
	w.WindowID = "btc-updown-5m-1771427100"
	dir := filepath.Join(root, testDate, w.WindowID)
	writeFixture(t, filepath.Join(dir, "odds.jsonl"), "{}\n")
	writeFixture(t, filepath.Join(dir, "btc.jsonl"), "{}\n")

	before := WindowSignature(root, w)
	assert.Equal(t, before, WindowSignature(root, w))

	// Coverage participates even when the files do not change.
	w.Coverage.BTCCoverageMs = 240000
	afterCoverage := WindowSignature(root, w)
	assert.NotEqual(t, before, afterCoverage)

	// So does a source append.
	writeFixture(t, filepath.Join(dir, "btc.jsonl"), "{}\n{}\n")
	assert.NotEqual(t, afterCoverage, WindowSignature(root, w))
}
