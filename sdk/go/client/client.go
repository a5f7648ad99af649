// Package client reads scene snapshots from a running inspector.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/glengine/internal/core/observability/log"
	"github.com/zeusync/glengine/internal/server"
)

type Snapshot = server.Snapshot

type Config struct {
	// BaseURL is the inspector's HTTP address, e.g. http://127.0.0.1:7070.
	BaseURL        string
	Token          string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	HTTPClient     *http.Client
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://127.0.0.1:7070",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// Client talks to one inspector. Fetch may be used at any time; Next
// requires Connect.
type Client struct {
	config Config
	base   *url.URL
	logger log.Log

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
	closed    atomic.Bool
}

func New(logger log.Log, config Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidConfig, config.BaseURL)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.ReadTimeout}
	}
	return &Client{
		config: config,
		base:   base,
		logger: log.OrNop(logger).With(log.String("component", "inspector_client")),
	}, nil
}

func (c *Client) endpoint(path, scheme string) string {
	u := *c.base
	u.Path += path
	if scheme != "" {
		u.Scheme = scheme
	}
	if c.config.Token != "" {
		q := u.Query()
		q.Set("token", c.config.Token)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Fetch requests one snapshot over HTTP.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	if c.closed.Load() {
		return Snapshot{}, ErrClientClosed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/snapshot", ""), nil)
	if err != nil {
		return Snapshot{}, err
	}
	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()
	if err := statusError(resp.StatusCode); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return snap, nil
}

// Connect opens the snapshot stream.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.connected.Load() {
		return ErrAlreadyConnected
	}
	scheme := "ws"
	if c.base.Scheme == "https" {
		scheme = "wss"
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.config.ConnectTimeout}
	c.logger.Info("Connecting to inspector", log.String("addr", c.base.Host))
	conn, resp, err := dialer.DialContext(ctx, c.endpoint("/ws", scheme), nil)
	if err != nil {
		if resp != nil {
			if statusErr := statusError(resp.StatusCode); statusErr != nil {
				return statusErr
			}
		}
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)
	return nil
}

// Next blocks until the next pushed snapshot arrives.
func (c *Client) Next() (Snapshot, error) {
	if !c.connected.Load() {
		return Snapshot{}, ErrNotConnected
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if c.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
	var snap Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			c.connected.Store(false)
			return Snapshot{}, ErrStreamClosed
		}
		return Snapshot{}, err
	}
	return snap, nil
}

// Close ends the stream. Further calls fail with ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.connected.Store(false)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

func statusError(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusServiceUnavailable:
		return ErrServerFull
	case code >= 400:
		return fmt.Errorf("inspector returned status %d", code)
	}
	return nil
}
