package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"updown-lab/internal/normalize"
	"updown-lab/internal/observability"
	"updown-lab/internal/windows"
)

// RunnerOptions configures the collector runner.
type RunnerOptions struct {
	Writer     *LogWriter
	Feeds      []FeedConfig
	FeedConfig *FeedClientConfig
	// Partitioned must match the writer's layout; it decides how BTC
	// rows are routed.
	Partitioned bool
	// WindowRetention is how long a window stays eligible for BTC
	// assignment after its nominal end.
	WindowRetention time.Duration
	Logger          *log.Logger
}

// Runner consumes feed messages and appends them to the event logs.
// Odds rows are routed by their embedded market slug; BTC rows carry no
// window key and are appended to every tracked window whose nominal
// bounds contain their timestamp (flat per-day file in legacy mode).
type Runner struct {
	writer      *LogWriter
	feeds       []FeedConfig
	feedCfg     *FeedClientConfig
	partitioned bool
	retention   time.Duration
	logger      *log.Logger
	now         func() time.Time

	mu     sync.Mutex
	active map[string]windows.SlugBounds
}

// NewRunner creates a collector runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	retention := opts.WindowRetention
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	return &Runner{
		writer:      opts.Writer,
		feeds:       opts.Feeds,
		feedCfg:     opts.FeedConfig,
		partitioned: opts.Partitioned,
		retention:   retention,
		logger:      logger,
		now:         time.Now,
		active:      make(map[string]windows.SlugBounds),
	}
}

// Run starts one client per feed and blocks until the context is
// canceled or a feed fails terminally.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.feeds) == 0 {
		return fmt.Errorf("no feeds configured")
	}

	errCh := make(chan error, len(r.feeds))
	var wg sync.WaitGroup

	for _, feed := range r.feeds {
		feed := feed
		client := NewFeedClient(feed, r.feedCfg, r.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.Run(ctx, func(message []byte) {
				r.handleMessage(feed, message)
			})
			if err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("feed %s: %w", feed.Name, err)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		wg.Wait()
		return ctx.Err()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

// handleMessage appends one feed message to the logs. The original bytes
// are written untouched: every log line is a discrete observed event.
func (r *Runner) handleMessage(feed FeedConfig, message []byte) {
	var row map[string]any
	if err := json.Unmarshal(message, &row); err != nil {
		observability.RecordCollectorError("bad_json_message")
		return
	}

	switch feed.Kind {
	case KindOdds:
		r.handleOdds(message, row)
	case KindBTC:
		r.handleBTC(message, row)
	}
}

func (r *Runner) handleOdds(message []byte, row map[string]any) {
	slug, ok := normalize.MarketSlug(row)
	if !ok {
		observability.RecordCollectorError("missing_market_slug")
		return
	}

	var date string
	if bounds, parsed := windows.ParseSlug(slug); parsed {
		date = dateOfMs(bounds.StartMs)
		r.trackWindow(slug, bounds)
	} else if ts, ok := normalize.TimestampMs(row); ok {
		date = dateOfMs(ts)
	} else {
		observability.RecordCollectorError("missing_timestamp")
		return
	}

	if err := r.writer.Append(KindOdds, date, slug, message); err != nil {
		r.logger.Printf("append odds row: %v", err)
		observability.RecordCollectorError("write_failed")
		return
	}
	observability.RecordRecordWritten(KindOdds)
}

func (r *Runner) handleBTC(message []byte, row map[string]any) {
	ts, ok := normalize.TimestampMs(row)
	if !ok {
		observability.RecordCollectorError("missing_timestamp")
		return
	}

	if !r.partitioned {
		if err := r.writer.Append(KindBTC, dateOfMs(ts), "", message); err != nil {
			r.logger.Printf("append btc row: %v", err)
			observability.RecordCollectorError("write_failed")
			return
		}
		observability.RecordRecordWritten(KindBTC)
		return
	}

	for slug, bounds := range r.windowsContaining(ts) {
		if err := r.writer.Append(KindBTC, dateOfMs(bounds.StartMs), slug, message); err != nil {
			r.logger.Printf("append btc row: %v", err)
			observability.RecordCollectorError("write_failed")
			continue
		}
		observability.RecordRecordWritten(KindBTC)
	}
}

// trackWindow records a window for BTC assignment and prunes windows
// past their retention.
func (r *Runner) trackWindow(slug string, bounds windows.SlugBounds) {
	cutoff := r.now().UnixMilli() - r.retention.Milliseconds()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[slug] = bounds
	for s, b := range r.active {
		if b.EndMs < cutoff {
			delete(r.active, s)
		}
	}
}

// windowsContaining returns the tracked windows whose bounds contain ts.
func (r *Runner) windowsContaining(ts int64) map[string]windows.SlugBounds {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]windows.SlugBounds)
	for slug, b := range r.active {
		if ts >= b.StartMs && ts < b.EndMs {
			out[slug] = b
		}
	}
	return out
}

func dateOfMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}
