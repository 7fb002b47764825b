// Package main runs the live collector: it subscribes to the configured
// websocket feeds and appends every received event to the append-only
// JSONL logs that the analysis tools read back.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"updown-lab/internal/collector"
	"updown-lab/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("UPDOWN_CONFIG"), "Application config file (YAML)")
	logRoot := flag.String("log-root", "", "Event log root directory (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[collector] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *logRoot != "" {
		cfg.LogRoot = *logRoot
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if len(cfg.Collector.Feeds) == 0 {
		logger.Fatal("no feeds configured")
	}

	feeds := make([]collector.FeedConfig, len(cfg.Collector.Feeds))
	for i, f := range cfg.Collector.Feeds {
		feeds[i] = collector.FeedConfig{Name: f.Name, URL: f.URL, Kind: f.Kind}
	}

	writer := collector.NewLogWriter(cfg.LogRoot, cfg.Collector.Partitioned)
	defer writer.Close()

	runner := collector.NewRunner(collector.RunnerOptions{
		Writer:          writer,
		Feeds:           feeds,
		Partitioned:     cfg.Collector.Partitioned,
		WindowRetention: cfg.Collector.WindowRetention,
		Logger:          logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, stopping...", sig)
		cancel()
		<-sigCh
		logger.Println("second signal, forcing exit")
		os.Exit(1)
	}()

	logger.Printf("collecting %d feed(s) into %s (partitioned=%t)",
		len(feeds), cfg.LogRoot, cfg.Collector.Partitioned)

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("collector error: %v", err)
	}
	logger.Println("shutdown complete")
}
