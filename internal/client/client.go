package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
	"github.com/gungunsaluja/FileView/internal/shared/protocol"
)

// ErrNotConnected is returned by Send when no connection is established.
// Messages are never queued for later delivery.
var ErrNotConnected = errors.New("not connected")

// State represents the connection state
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Handlers receives connection lifecycle and message events. Replacing
// handlers via SetHandlers takes effect before the next dispatch.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func()
	OnMessage    func(protocol.Message)
	OnError      func(error)
}

// Config holds connection settings.
type Config struct {
	// URL is the relay endpoint, e.g. ws://localhost:8000/stream.
	URL string
	// ReconnectInterval is the fixed pause between retry attempts.
	ReconnectInterval time.Duration
	// MaxReconnectAttempts bounds automatic retries after a failure.
	MaxReconnectAttempts int
}

// Client maintains a WebSocket connection to the relay, reconnecting with a
// bounded number of fixed-interval retries when the connection drops
// unexpectedly. An explicit Disconnect always wins over reconnection.
type Client struct {
	url         string
	interval    time.Duration
	maxAttempts int
	logger      *logging.Logger
	http        *resty.Client

	ctx    context.Context
	cancel context.CancelFunc

	mu                sync.Mutex
	state             State
	conn              *websocket.Conn
	connGen           uint64
	attempts          int
	shouldBeConnected bool
	retryTimer        *time.Timer
	handlers          Handlers

	// gorilla allows one concurrent writer per connection
	writeMu sync.Mutex
}

// New creates a client. It does not dial until Connect is called.
func New(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 3 * time.Second
	}
	if cfg.MaxReconnectAttempts < 0 {
		cfg.MaxReconnectAttempts = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		url:         cfg.URL,
		interval:    cfg.ReconnectInterval,
		maxAttempts: cfg.MaxReconnectAttempts,
		logger:      logger,
		http:        resty.New().SetTimeout(5 * time.Second),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetHandlers replaces the event handlers. Safe to call at any time; the
// new handlers observe every event dispatched after this call returns.
func (c *Client) SetHandlers(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns how many reconnect attempts have been consumed.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// RetryPending reports whether an automatic reconnect is scheduled.
func (c *Client) RetryPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryTimer != nil
}

// Probe checks server reachability over plain HTTP before dialing.
func (c *Client) Probe(ctx context.Context) error {
	target, err := healthURL(c.url)
	if err != nil {
		return err
	}

	resp, err := c.http.R().SetContext(ctx).Get(target)
	if err != nil {
		return fmt.Errorf("probe %s: %w", target, err)
	}
	if resp.IsError() {
		return fmt.Errorf("probe %s: status %s", target, resp.Status())
	}
	return nil
}

// Connect establishes the connection. Calling it while connecting or
// connected is a no-op. A failed dial consumes the first retry slot and
// schedules automatic reconnection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.shouldBeConnected = true
	c.attempts = 0
	c.cancelRetryLocked()
	c.state = StateConnecting
	c.mu.Unlock()

	return c.dial(ctx)
}

// Disconnect tears the connection down and cancels any pending retry.
// Calling it while already disconnected is a no-op. The retry budget is
// pinned to its maximum so no timer can rearm reconnection afterwards.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.shouldBeConnected = false
	c.attempts = c.maxAttempts
	c.cancelRetryLocked()
	conn := c.conn
	c.conn = nil
	c.connGen++
	wasConnected := c.state == StateConnected
	c.state = StateDisconnected
	handlers := c.handlers
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}

	if wasConnected {
		c.logger.Info("disconnected", zap.String("url", c.url))
		if handlers.OnDisconnect != nil {
			handlers.OnDisconnect()
		}
	}
}

// Close releases the client. It cannot be reused afterwards.
func (c *Client) Close() {
	c.Disconnect()
	c.cancel()
}

// Send transmits a frame over the active connection. It fails fast with
// ErrNotConnected instead of queueing when the connection is down.
func (c *Client) Send(msg protocol.Message) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// SendChat transmits a chat message.
func (c *Client) SendChat(content string) error {
	return c.Send(protocol.Chat(content))
}

// dial performs one connection attempt. The caller must have set the state
// to connecting first.
func (c *Client) dial(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	if !c.shouldBeConnected {
		// Disconnect raced the dial and wins
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return nil
	}

	if err != nil {
		c.state = StateDisconnected
		scheduled := c.scheduleRetryLocked()
		attempt := c.attempts
		handlers := c.handlers
		c.mu.Unlock()

		c.logger.Warn("dial failed",
			zap.String("url", c.url),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Bool("retry_scheduled", scheduled),
			zap.Error(err))

		if handlers.OnError != nil {
			handlers.OnError(err)
		}
		if handlers.OnDisconnect != nil {
			handlers.OnDisconnect()
		}
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.connGen++
	gen := c.connGen
	handlers := c.handlers
	c.mu.Unlock()

	c.logger.Info("connected", zap.String("url", c.url))

	go c.readLoop(conn, gen)

	if handlers.OnConnect != nil {
		handlers.OnConnect()
	}
	return nil
}

// readLoop drains inbound frames until the connection fails. Malformed
// frames are dropped without touching connection state.
func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClosure(conn, gen, err)
			return
		}

		msg, derr := protocol.Decode(data)
		if derr != nil {
			c.logger.Warn("dropping malformed frame", zap.Error(derr))
			continue
		}

		c.mu.Lock()
		handlers := c.handlers
		c.mu.Unlock()

		if handlers.OnMessage != nil {
			handlers.OnMessage(msg)
		}
	}
}

// handleClosure reacts to an unexpected connection loss. Closures that
// belong to a superseded connection (explicit disconnect or reconnect) are
// ignored.
func (c *Client) handleClosure(conn *websocket.Conn, gen uint64, err error) {
	c.mu.Lock()
	if c.connGen != gen || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	scheduled := c.scheduleRetryLocked()
	attempt := c.attempts
	handlers := c.handlers
	c.mu.Unlock()

	conn.Close()

	c.logger.Warn("connection lost",
		zap.String("url", c.url),
		zap.Int("attempt", attempt),
		zap.Bool("retry_scheduled", scheduled),
		zap.Error(err))

	if handlers.OnError != nil {
		handlers.OnError(err)
	}
	if handlers.OnDisconnect != nil {
		handlers.OnDisconnect()
	}
}

// scheduleRetryLocked arms the reconnect timer if the retry budget allows.
// The callback re-checks the desired state so a disconnect issued while the
// timer was pending always wins.
func (c *Client) scheduleRetryLocked() bool {
	if !c.shouldBeConnected || c.attempts >= c.maxAttempts {
		return false
	}
	c.attempts++

	c.retryTimer = time.AfterFunc(c.interval, func() {
		c.mu.Lock()
		c.retryTimer = nil
		if !c.shouldBeConnected || c.state != StateDisconnected {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		_ = c.dial(c.ctx)
	})
	return true
}

// cancelRetryLocked stops a pending retry timer.
func (c *Client) cancelRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// healthURL maps a WebSocket endpoint to the server's health endpoint.
func healthURL(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", wsURL, err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = "/health"
	u.RawQuery = ""

	return u.String(), nil
}
