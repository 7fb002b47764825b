// Package main is the batch reporting entry point: it reconstructs the
// requested dates' windows, evaluates patterns and prints a summary as
// text or JSON. Exit code 0 on a successful (possibly empty) report,
// 1 on argument or I/O errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"updown-lab/internal/domain"
	"updown-lab/internal/patterns"
	"updown-lab/internal/replay"
	"updown-lab/internal/report"
)

func main() {
	logRoot := flag.String("log-root", os.Getenv("UPDOWN_LOG_ROOT"), "Event log root directory")
	dates := flag.String("dates", "", "Comma-separated dates (YYYY-MM-DD); default: most recent available")
	configPath := flag.String("pattern-config", "", "Optional JSON pattern config override file")
	includeIncomplete := flag.Bool("include-incomplete", false, "Include windows below the coverage threshold")
	jsonOut := flag.Bool("json", false, "Emit JSON instead of human-readable text")
	flag.Parse()

	logger := log.New(os.Stderr, "[patterns] ", log.LstdFlags)

	if *logRoot == "" {
		logger.Println("--log-root is required")
		os.Exit(1)
	}
	if info, err := os.Stat(*logRoot); err != nil || !info.IsDir() {
		logger.Printf("log root %s is not a directory", *logRoot)
		os.Exit(1)
	}

	configWarnings := domain.NewWarnings()
	cfg := patterns.LoadFile(*configPath, configWarnings)
	if n := configWarnings.Count(domain.WarnBadPatternConfig); n > 0 {
		logger.Printf("pattern config %s unusable, using embedded defaults", *configPath)
	}

	service := replay.NewService(replay.Options{
		Root:   *logRoot,
		Config: cfg,
		Logger: logger,
	})

	ctx := context.Background()

	dateList, err := resolveDates(ctx, service, *dates)
	if err != nil {
		logger.Printf("resolve dates: %v", err)
		os.Exit(1)
	}

	reports := make([]*replay.DayReport, 0, len(dateList))
	for _, date := range dateList {
		dayReport, err := service.DayReport(ctx, date, *includeIncomplete)
		if err != nil {
			logger.Printf("report %s: %v", date, err)
			os.Exit(1)
		}
		reports = append(reports, withConfigWarnings(dayReport, configWarnings))
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			logger.Printf("encode report: %v", err)
			os.Exit(1)
		}
		return
	}

	for i, dayReport := range reports {
		if i > 0 {
			fmt.Println()
		}
		report.WriteText(os.Stdout, dayReport.Date, dayReport.PatternSummary, dayReport.Warnings)
	}
}

// withConfigWarnings returns a copy of the day report carrying the
// pattern-config warnings. The service owns the original via its cache,
// so it is never mutated here.
func withConfigWarnings(dayReport *replay.DayReport, configWarnings *domain.Warnings) *replay.DayReport {
	if configWarnings.Total() == 0 {
		return dayReport
	}
	merged := domain.NewWarnings()
	merged.Merge(dayReport.Warnings)
	merged.Merge(configWarnings)

	out := *dayReport
	out.Warnings = merged
	return &out
}

// resolveDates expands the -dates flag, defaulting to the most recent
// available date. An empty log root yields an empty (but successful) report.
func resolveDates(ctx context.Context, service *replay.Service, flagValue string) ([]string, error) {
	if flagValue != "" {
		var dates []string
		for _, d := range strings.Split(flagValue, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dates = append(dates, d)
			}
		}
		if len(dates) == 0 {
			return nil, fmt.Errorf("no usable dates in %q", flagValue)
		}
		return dates, nil
	}

	available, err := service.ListDates(ctx)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, nil
	}
	return available[len(available)-1:], nil
}
