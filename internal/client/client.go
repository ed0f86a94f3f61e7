package client

import (
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"cranewatch"
	"cranewatch/internal/logger"

	"github.com/gorilla/websocket"
)

// DefaultRetryDelay is the fixed wait before a reconnect attempt.
const DefaultRetryDelay = 5 * time.Second

// ErrNoCredential means no local token exists. This is a precondition
// failure, not a connection failure: the caller must route to a login flow
// and no reconnect is scheduled.
var ErrNoCredential = errors.New("no stored credential")

// State is the coarse connection state. Callers only ever observe
// Connected/Disconnected through the status callback; Connecting is internal.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// CredentialStore supplies the bearer token used in the handshake.
type CredentialStore interface {
	HasCredential() bool
	Credential() (string, error)
}

// Config carries the client's dependencies and callbacks.
type Config struct {
	// URL of the telemetry feed, e.g. ws://host:8080/ws.
	URL string
	// Store supplies the bearer token.
	Store CredentialStore
	// OnSnapshot receives every well-formed inbound snapshot.
	OnSnapshot func(cranewatch.TelemetrySnapshot)
	// OnStatus is invoked with true on connect and false on any disconnect.
	OnStatus func(connected bool)
	// RetryDelay overrides DefaultRetryDelay when positive.
	RetryDelay time.Duration
	Log        *logger.Logger
}

// Client maintains one telemetry feed connection and reconnects after a
// fixed delay on any failure or close. At most one reconnect timer is ever
// pending.
type Client struct {
	feedURL    string
	store      CredentialStore
	onSnapshot func(cranewatch.TelemetrySnapshot)
	onStatus   func(connected bool)
	retryDelay time.Duration
	log        *logger.Logger
	dialer     *websocket.Dialer

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	retryTimer *time.Timer
	closed     bool
}

func New(cfg Config) *Client {
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &Client{
		feedURL:    cfg.URL,
		store:      cfg.Store,
		onSnapshot: cfg.OnSnapshot,
		onStatus:   cfg.OnStatus,
		retryDelay: delay,
		log:        cfg.Log,
		dialer:     websocket.DefaultDialer,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect checks the local credential and attempts the handshake. Missing
// credential returns ErrNoCredential and schedules nothing. Any other
// failure schedules a single reconnect attempt and returns the dial error.
func (c *Client) Connect() error {
	if !c.store.HasCredential() {
		return ErrNoCredential
	}
	token, err := c.store.Credential()
	if err != nil {
		return ErrNoCredential
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("client closed")
	}
	c.state = StateConnecting
	c.mu.Unlock()

	u, err := url.Parse(c.feedURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.Dial(u.String(), nil)
	if err != nil {
		if c.log != nil {
			c.log.Infow("feed_dial_failed", "err", err)
		}
		c.mu.Lock()
		c.state = StateDisconnected
		c.scheduleRetryLocked()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	// A successful connection cancels any pending reconnect.
	c.cancelRetryLocked()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	if c.onStatus != nil {
		c.onStatus(true)
	}
	if c.log != nil {
		c.log.Infow("feed_connected", "url", c.feedURL)
	}

	go c.readLoop(conn)
	return nil
}

// Reconnect clears any pending retry timer and closes the current
// connection before dialing again, so two attempts never run in parallel.
func (c *Client) Reconnect() error {
	c.mu.Lock()
	c.cancelRetryLocked()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
	return c.Connect()
}

// Close shuts the client down permanently. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelRetryLocked()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	return nil
}

// readLoop consumes frames until the connection dies. Each frame is one
// snapshot; frames that fail to parse are logged and dropped without
// touching the connection state.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}
		var snap cranewatch.TelemetrySnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			if c.log != nil {
				c.log.Errorw("feed_malformed_frame", "err", err)
			}
			continue
		}
		if c.onSnapshot != nil {
			c.onSnapshot(snap)
		}
	}
}

// handleDisconnect clears the connected signal first, then schedules
// exactly one reconnect, whatever the close cause was.
func (c *Client) handleDisconnect(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		// A newer connection already replaced this one.
		c.mu.Unlock()
		return
	}
	_ = conn.Close()
	c.conn = nil
	c.state = StateDisconnected
	closed := c.closed
	if !closed {
		c.scheduleRetryLocked()
	}
	c.mu.Unlock()

	if c.onStatus != nil {
		c.onStatus(false)
	}
	if c.log != nil && !closed {
		c.log.Infow("feed_disconnected", "err", cause, "retry_in", c.retryDelay)
	}
}

// scheduleRetryLocked arms the reconnect timer unless one is already
// pending. Callers must hold c.mu.
func (c *Client) scheduleRetryLocked() {
	if c.closed || c.retryTimer != nil {
		return
	}
	c.retryTimer = time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		c.retryTimer = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		if err := c.Connect(); err != nil && c.log != nil {
			c.log.Infow("feed_reconnect_failed", "err", err)
		}
	})
}

// cancelRetryLocked disarms a pending timer. Callers must hold c.mu.
// A no-op when nothing is pending.
func (c *Client) cancelRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// retryPending reports whether a reconnect timer is armed.
func (c *Client) retryPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryTimer != nil
}
