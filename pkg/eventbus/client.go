package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is a connection to one event service. It multiplexes
// subscriptions and request/reply exchanges over a single websocket.
type Client struct {
	cfg    ServiceConfig
	logger *slog.Logger

	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool

	// writeMu serializes writes to the connection.
	writeMu sync.Mutex

	subsMu sync.RWMutex
	subs   map[*subscriber]struct{}

	pendingMu sync.Mutex
	pending   map[string]chan Envelope

	// Stats
	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
	reconnectCount   atomic.Int64
	eventsDropped    atomic.Int64
}

// subscriber is one subscription's delivery state. seen is only touched
// by the read loop.
type subscriber struct {
	path   string
	everyN int
	seen   int
	ch     chan Event

	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// New creates a new event service client. Call Connect or
// ConnectWithRetry to establish the connection.
func New(cfg ServiceConfig, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		logger:  logger.With("service", cfg.Name),
		subs:    make(map[*subscriber]struct{}),
		pending: make(map[string]chan Envelope),
	}, nil
}

// Config returns the client's service config.
func (c *Client) Config() ServiceConfig {
	return c.cfg
}

// Connect establishes the websocket connection and announces the
// configured and live subscriptions, so they survive reconnects.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return nil // already connected
	}

	c.logger.Info("connecting to event service", "url", c.cfg.URL())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.cfg.URL(), err)
	}

	if subs := c.announceList(); len(subs) > 0 {
		env, err := NewEnvelope(TypeRequest, "/subscribe", subs)
		if err != nil {
			conn.Close()
			return err
		}
		env.ID = uuid.NewString()
		if err := conn.WriteJSON(env); err != nil {
			conn.Close()
			return fmt.Errorf("failed to announce subscriptions: %w", err)
		}
	}

	c.conn = conn
	go c.readLoop(conn)

	c.logger.Info("connected to event service", "address", c.cfg.Address())
	return nil
}

// ConnectWithRetry connects with automatic retry on failure.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := c.Connect(ctx)
		if err == nil {
			return nil
		}

		attempts++
		c.reconnectCount.Add(1)

		if c.cfg.MaxReconnectAttempts > 0 && attempts >= c.cfg.MaxReconnectAttempts {
			return fmt.Errorf("max reconnect attempts (%d) reached: %w", c.cfg.MaxReconnectAttempts, err)
		}

		c.logger.Warn("event service connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", c.cfg.ReconnectInterval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectInterval):
		}
	}
}

// IsConnected returns true if the client currently holds a connection.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.closed
}

// readLoop reads envelopes from conn until it fails, then triggers
// reconnection unless the client was closed.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			closed := c.closed
			c.mu.Unlock()

			c.failPending()

			if !closed {
				c.logger.Warn("event service connection lost", "error", err)
				go c.reconnectLoop()
			}
			return
		}
		c.messagesReceived.Add(1)
		c.dispatch(env)
	}
}

// reconnectLoop re-establishes the connection in the background after a
// drop. Runs until connected, the client is closed, or
// MaxReconnectAttempts is exhausted; in the last case the client closes
// itself so subscribers and waiters see the failure.
func (c *Client) reconnectLoop() {
	if c.cfg.ReconnectInterval <= 0 {
		return
	}
	attempts := 0
	for {
		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		attempts++
		c.reconnectCount.Add(1)
		if err := c.Connect(context.Background()); err == nil {
			return
		}

		if c.cfg.MaxReconnectAttempts > 0 && attempts >= c.cfg.MaxReconnectAttempts {
			c.logger.Error("reconnect attempts exhausted, closing client",
				"attempts", attempts)
			c.Close()
			return
		}
		time.Sleep(c.cfg.ReconnectInterval)
	}
}

// dispatch routes one received envelope to subscribers or a pending
// request.
func (c *Client) dispatch(env Envelope) {
	switch env.Type {
	case TypeReply:
		c.pendingMu.Lock()
		ch, ok := c.pending[env.ID]
		if ok {
			delete(c.pending, env.ID)
		}
		c.pendingMu.Unlock()
		if ok {
			ch <- env // buffered, never blocks
		}

	case TypeEvent:
		event := Event{
			Path:    env.Path,
			Stamp:   time.UnixMilli(env.Timestamp),
			Payload: env.Data,
		}
		c.subsMu.RLock()
		for sub := range c.subs {
			if sub.path != env.Path && sub.path != "*" {
				continue
			}
			sub.seen++
			if sub.everyN > 1 && sub.seen%sub.everyN != 0 {
				continue
			}
			select {
			case sub.ch <- event:
			default:
				// Subscriber is too slow; drop rather than stall the bus.
				c.eventsDropped.Add(1)
			}
		}
		c.subsMu.RUnlock()
	}
}

// failPending closes the channel of every in-flight request; waiters
// see ErrNotConnected.
func (c *Client) failPending() {
	c.pendingMu.Lock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
	c.pendingMu.Unlock()
}

// announceList collects the configured and live subscriptions to send
// to the service, deduplicated. Callers hold no lock on subsMu.
func (c *Client) announceList() []Subscription {
	var subs []Subscription
	seen := make(map[Subscription]struct{})
	add := func(s Subscription) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		subs = append(subs, s)
	}

	for _, s := range c.cfg.Subscriptions {
		add(s)
	}
	c.subsMu.RLock()
	for s := range c.subs {
		add(Subscription{Path: s.path, EveryN: s.everyN})
	}
	c.subsMu.RUnlock()
	return subs
}

// Subscribe registers a subscription and returns its delivery channel
// and a cancel function. The path is announced to the service right
// away when connected, and re-announced on every reconnect. The path
// "*" receives every event the service pushes. Events are dropped if
// the channel is full.
func (c *Client) Subscribe(sub Subscription, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	s := &subscriber{
		path:   sub.Path,
		everyN: sub.EveryN,
		ch:     make(chan Event, buffer),
	}

	c.subsMu.Lock()
	c.subs[s] = struct{}{}
	c.subsMu.Unlock()

	// Not connected yet is fine; Connect announces on dial.
	if env, err := NewEnvelope(TypeRequest, "/subscribe", []Subscription{sub}); err == nil {
		env.ID = uuid.NewString()
		if err := c.write(env); err != nil && !errors.Is(err, ErrNotConnected) && !errors.Is(err, ErrClosed) {
			c.logger.Warn("failed to announce subscription", "path", sub.Path, "error", err)
		}
	}

	c.logger.Debug("subscribed", "path", sub.Path, "every_n", sub.EveryN)

	cancel := func() {
		c.subsMu.Lock()
		delete(c.subs, s)
		c.subsMu.Unlock()
		s.close()
	}
	return s.ch, cancel
}

// Publish sends an event on the given path.
func (c *Client) Publish(path string, payload any) error {
	env, err := NewEnvelope(TypeEvent, path, payload)
	if err != nil {
		return err
	}
	return c.write(env)
}

// RequestReply sends a request to the given path and waits for the
// correlated reply. The wait is bounded by ctx and the configured
// request timeout.
func (c *Client) RequestReply(ctx context.Context, path string, payload any) (Event, error) {
	env, err := NewEnvelope(TypeRequest, path, payload)
	if err != nil {
		return Event{}, err
	}
	env.ID = uuid.NewString()

	ch := make(chan Envelope, 1)
	c.pendingMu.Lock()
	c.pending[env.ID] = ch
	c.pendingMu.Unlock()

	cleanup := func() {
		c.pendingMu.Lock()
		delete(c.pending, env.ID)
		c.pendingMu.Unlock()
	}

	if err := c.write(env); err != nil {
		cleanup()
		return Event{}, err
	}

	timeout := c.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply, ok := <-ch:
		if !ok {
			return Event{}, ErrNotConnected
		}
		if reply.Error != "" {
			return Event{}, fmt.Errorf("%w: %s: %s", ErrReplyFailed, path, reply.Error)
		}
		return Event{Path: reply.Path, Stamp: time.UnixMilli(reply.Timestamp), Payload: reply.Data}, nil
	case <-timer.C:
		cleanup()
		return Event{}, fmt.Errorf("%w: %s", ErrRequestTimeout, path)
	case <-ctx.Done():
		cleanup()
		return Event{}, ctx.Err()
	}
}

// write sends one envelope over the connection.
func (c *Client) write(env Envelope) error {
	c.mu.RLock()
	conn := c.conn
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	err := conn.WriteJSON(env)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send on %s: %w", env.Path, err)
	}

	c.messagesSent.Add(1)
	return nil
}

// Close closes the connection and all subscription channels.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.failPending()

	c.subsMu.Lock()
	for sub := range c.subs {
		delete(c.subs, sub)
		sub.close()
	}
	c.subsMu.Unlock()

	c.logger.Info("event service client closed")
	return nil
}

// Stats contains client statistics.
type Stats struct {
	Connected        bool  `json:"connected"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesReceived int64 `json:"messages_received"`
	ReconnectCount   int64 `json:"reconnect_count"`
	EventsDropped    int64 `json:"events_dropped"`
}

// Stats returns a snapshot of the client statistics.
func (c *Client) Stats() Stats {
	return Stats{
		Connected:        c.IsConnected(),
		MessagesSent:     c.messagesSent.Load(),
		MessagesReceived: c.messagesReceived.Load(),
		ReconnectCount:   c.reconnectCount.Load(),
		EventsDropped:    c.eventsDropped.Load(),
	}
}
