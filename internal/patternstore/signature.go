// Package patternstore memoizes per-window pattern results keyed by
// content signatures so repeated queries over unchanged data avoid
// recomputation.
package patternstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"updown-lab/internal/domain"
)

// statLine renders one file's stat signature: path, size, mtime.
func statLine(rel string, info fs.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano())
}

// DaySignature hashes the stat signatures of every .jsonl source file
// under a date partition. Any byte written to any source file changes
// the signature. Store documents are not .jsonl and never self-invalidate.
func DaySignature(root, date string) string {
	dateDir := filepath.Join(root, date)
	var lines []string

	_ = filepath.WalkDir(dateDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(dateDir, path)
		if err != nil {
			return nil
		}
		lines = append(lines, statLine(rel, info))
		return nil
	})

	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// WindowSignature hashes a window's own source files plus its coverage
// and completeness snapshot. It is the per-record staleness check:
// matching signatures let a persisted record be reused without
// re-invoking the evaluator.
//
// The partitioned directory is named by the market slug; the window ID
// may be synthetic when the slug does not parse, so the slug locates
// the files.
func WindowSignature(root string, w *domain.Window) string {
	name := w.MarketSlug
	if name == "" {
		name = w.WindowID
	}
	dir := filepath.Join(root, w.Date, name)
	var lines []string

	for _, name := range []string{"odds.jsonl", "btc.jsonl"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		lines = append(lines, statLine(name, info))
	}
	sort.Strings(lines)

	lines = append(lines, fmt.Sprintf("coverage|%d|%d|%d|%d|%t",
		w.Coverage.UpCoverageMs, w.Coverage.DownCoverageMs,
		w.Coverage.OddsCoverageMs, w.Coverage.BTCCoverageMs, w.IsComplete))

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
