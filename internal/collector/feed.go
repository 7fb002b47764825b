package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"updown-lab/internal/observability"
)

// Feed kinds.
const (
	KindOdds = "odds"
	KindBTC  = "btc"
)

// FeedConfig configures one upstream websocket feed.
type FeedConfig struct {
	Name string
	URL  string
	Kind string
}

// FeedClientConfig configures websocket behavior.
type FeedClientConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the per-message read deadline.
	ReadTimeout time.Duration
}

// DefaultFeedClientConfig returns default websocket configuration.
func DefaultFeedClientConfig() FeedClientConfig {
	return FeedClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
	}
}

// FeedClient maintains one websocket subscription, reconnecting with
// exponential backoff, and hands every received message to a handler.
type FeedClient struct {
	feed   FeedConfig
	config FeedClientConfig
	logger *log.Logger
}

// NewFeedClient creates a client for one feed.
func NewFeedClient(feed FeedConfig, config *FeedClientConfig, logger *log.Logger) *FeedClient {
	cfg := DefaultFeedClientConfig()
	if config != nil {
		cfg = *config
	}
	return &FeedClient{feed: feed, config: cfg, logger: logger}
}

// Run connects and reads messages until the context is canceled, calling
// handle for every message. Connection failures trigger reconnects with
// backoff; Run only returns the context's error.
func (c *FeedClient) Run(ctx context.Context, handle func(message []byte)) error {
	delay := c.config.ReconnectDelay

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.readUntilError(ctx, handle)
		if err == context.Canceled || err == context.DeadlineExceeded {
			return err
		}

		c.logger.Printf("feed %s: connection lost: %v, reconnecting in %v", c.feed.Name, err, delay)
		observability.RecordFeedReconnect(c.feed.Name)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// readUntilError dials the feed and pumps messages until the connection
// breaks or the context is canceled.
func (c *FeedClient) readUntilError(ctx context.Context, handle func(message []byte)) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.feed.URL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	c.logger.Printf("feed %s: connected to %s", c.feed.Name, c.feed.URL)

	// Close the connection when the context ends to unblock ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go c.pingLoop(ctx, conn)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout)); err != nil {
			return err
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		observability.RecordFeedMessage(c.feed.Name)
		handle(message)
	}
}

func (c *FeedClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
