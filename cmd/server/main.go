// Package main runs the HTTP replay/analysis server: it lists available
// dates, serves per-date window + pattern reports, and returns raw
// time-series slices for chart rendering.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"updown-lab/internal/config"
	"updown-lab/internal/domain"
	"updown-lab/internal/observability"
	"updown-lab/internal/patterns"
	"updown-lab/internal/replay"
)

// Server wires the query service into HTTP handlers.
type Server struct {
	service *replay.Service
	logger  *log.Logger
}

func main() {
	configPath := flag.String("config", os.Getenv("UPDOWN_CONFIG"), "Application config file (YAML)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logRoot := flag.String("log-root", "", "Event log root directory (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logRoot != "" {
		cfg.LogRoot = *logRoot
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if info, err := os.Stat(cfg.LogRoot); err != nil || !info.IsDir() {
		logger.Fatalf("log root %s is not a directory", cfg.LogRoot)
	}

	configWarnings := domain.NewWarnings()
	patternCfg := patterns.LoadFile(cfg.Patterns.ConfigPath, configWarnings)
	if configWarnings.Count(domain.WarnBadPatternConfig) > 0 {
		logger.Printf("pattern config %s unusable, using embedded defaults", cfg.Patterns.ConfigPath)
	}

	server := &Server{
		service: replay.NewService(replay.Options{
			Root:          cfg.LogRoot,
			Config:        patternCfg,
			CacheCapacity: cfg.Server.CacheCapacity,
			Logger:        logger,
		}),
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.Handle("/api/dates", server.instrument("/api/dates", server.handleDates))
	mux.Handle("/api/report", server.instrument("/api/report", server.handleReport))
	mux.Handle("/api/timeseries", server.instrument("/api/timeseries", server.handleTimeseries))

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	// Graceful shutdown: first signal drains, second forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		go func() {
			<-sigCh
			logger.Println("second signal, forcing exit")
			os.Exit(1)
		}()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s (log root %s, pattern config %s)",
		cfg.Server.Addr, cfg.LogRoot, server.service.ConfigHash()[:12])
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server error: %v", err)
	}
	logger.Println("shutdown complete")
}

// instrument wraps a handler with request-ID logging and duration metrics.
func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		elapsed := time.Since(start)
		observability.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status), elapsed.Seconds())
		s.logger.Printf("%s %s %d %v request_id=%s", r.Method, r.URL.RequestURI(), rec.status, elapsed, requestID)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.service.ListDates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, map[string]any{"dates": dates})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("date is required"))
		return
	}
	includeIncomplete := r.URL.Query().Get("include_incomplete") == "true"

	dayReport, err := s.service.DayReport(r.Context(), date, includeIncomplete)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, dayReport)
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	windowID := q.Get("window")
	if date == "" || windowID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("date and window are required"))
		return
	}

	fromMs, err := parseMs(q.Get("from_ms"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	toMs, err := parseMs(q.Get("to_ms"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ts, err := s.service.Timeseries(r.Context(), date, windowID, fromMs, toMs)
	if errors.Is(err, replay.ErrWindowNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, ts)
}

func parseMs(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid millisecond value %q", value)
	}
	return ms, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
