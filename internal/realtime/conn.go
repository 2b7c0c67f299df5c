package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"collab-realtime/internal/credentials"
	"collab-realtime/internal/models"
	"collab-realtime/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
)

var (
	// ErrNotConnected is returned for outbound commands while the
	// connection is not authenticated. Callers surface their own
	// feedback; this is never raised as a panic into UI code.
	ErrNotConnected = errors.New("not connected")

	// ErrSessionExpired means the server (or a local expiry check)
	// rejected the access token as expired. Not retried; the user has
	// to sign in again.
	ErrSessionExpired = errors.New("session expired")
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// rejectedError marks a handshake rejection, which is terminal for the
// connection. Transport errors, by contrast, feed the retry loop.
type rejectedError struct{ err error }

func (e *rejectedError) Error() string { return e.err.Error() }
func (e *rejectedError) Unwrap() error { return e.err }

type Options struct {
	// Name tags log lines: "messaging" or "notifications".
	Name string
	URL  string

	Handshake         Handshake
	HandshakeTimeout  time.Duration
	MaxAttempts       int
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration

	// OnAuthenticated runs after every successful handshake, including
	// reconnects.
	OnAuthenticated func()
	// OnAuthFailure runs when the handshake is rejected. The connection
	// is closed and not redialed.
	OnAuthFailure func(err error)
	// OnGaveUp runs exactly once when the reconnect budget is
	// exhausted.
	OnGaveUp func()
}

// Conn owns one persistent connection to a realtime endpoint: dial,
// handshake, keepalive, reconnect with backoff, teardown. Inbound
// events come out of Events in transport order; a synthetic disconnect
// event is injected whenever the transport drops so consumers see the
// gap in stream order. A Conn runs once; after Run returns it cannot be
// redialed — build a new Conn instead.
type Conn struct {
	opts   Options
	events chan models.Event

	mu    sync.Mutex
	ws    *websocket.Conn
	state State

	writeMu sync.Mutex

	quit     chan struct{}
	quitOnce sync.Once
}

func NewConn(opts Options) *Conn {
	return &Conn{
		opts:   opts,
		events: make(chan models.Event, 256),
		quit:   make(chan struct{}),
	}
}

// Events delivers decoded inbound events. Closed when Run returns.
func (c *Conn) Events() <-chan models.Event { return c.events }

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Close tears the connection down and stops any reconnect loop. Safe to
// call more than once.
func (c *Conn) Close() {
	c.quitOnce.Do(func() { close(c.quit) })
	c.mu.Lock()
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
	c.state = StateDisconnected
	c.mu.Unlock()
}

func (c *Conn) stopping(ctx context.Context) bool {
	select {
	case <-c.quit:
		return true
	default:
	}
	return ctx.Err() != nil
}

// Run drives the connection until the context is cancelled, Close is
// called, the handshake is rejected, or the reconnect budget runs out.
func (c *Conn) Run(ctx context.Context) {
	defer close(c.events)
	defer c.setState(StateDisconnected)

	attempt := 0
	delay := c.opts.ReconnectDelay
	for {
		authed, err := c.connectOnce(ctx)
		if c.stopping(ctx) {
			return
		}

		var rejected *rejectedError
		if errors.As(err, &rejected) {
			logger.Warn("%s handshake rejected: %v", c.opts.Name, rejected.err)
			if c.opts.OnAuthFailure != nil {
				c.opts.OnAuthFailure(rejected.err)
			}
			return
		}

		if authed {
			// A live session dropped; start a fresh retry budget.
			logger.Warn("%s connection lost: %v", c.opts.Name, err)
			attempt = 0
			delay = c.opts.ReconnectDelay
		} else {
			attempt++
			logger.Warn("%s connect attempt %d/%d failed: %v", c.opts.Name, attempt, c.opts.MaxAttempts, err)
			if attempt >= c.opts.MaxAttempts {
				logger.Error("%s: giving up after %d attempts", c.opts.Name, attempt)
				if c.opts.OnGaveUp != nil {
					c.opts.OnGaveUp()
				}
				return
			}
		}

		select {
		case <-time.After(delay):
		case <-c.quit:
			return
		case <-ctx.Done():
			return
		}
		delay *= 2
		if delay > c.opts.MaxReconnectDelay {
			delay = c.opts.MaxReconnectDelay
		}
	}
}

// connectOnce dials, completes the handshake, and reads events until
// the connection ends. authed reports whether the handshake completed,
// which decides whether the failure counts against the retry budget.
func (c *Conn) connectOnce(ctx context.Context) (authed bool, err error) {
	c.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	ws, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.opts.URL, nil)
	cancel()
	if err != nil {
		c.setState(StateDisconnected)
		return false, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	connID := uuid.NewString()[:8]

	c.mu.Lock()
	select {
	case <-c.quit:
		c.mu.Unlock()
		ws.Close()
		return false, nil
	default:
	}
	c.ws = ws
	c.state = StateConnected
	c.mu.Unlock()

	defer func() {
		ws.Close()
		c.mu.Lock()
		c.ws = nil
		c.state = StateDisconnected
		c.mu.Unlock()
	}()

	logger.Debug("%s transport connected (conn %s)", c.opts.Name, connID)

	// The handshake reads the token fresh from the credential store at
	// this point, not at session start: it may have been refreshed
	// while the transport was connecting.
	c.setState(StateAuthenticating)
	if err := c.opts.Handshake.Open(ctx, c.send); err != nil {
		if errors.Is(err, credentials.ErrNoSession) || errors.Is(err, ErrSessionExpired) {
			return false, &rejectedError{err}
		}
		return false, fmt.Errorf("handshake open: %w", err)
	}

	ws.SetReadDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	for {
		ev, err := c.readEvent(ws)
		if err != nil {
			return false, fmt.Errorf("handshake: %w", err)
		}
		done, herr := c.opts.Handshake.Complete(ev)
		if herr != nil {
			return false, &rejectedError{herr}
		}
		if done {
			break
		}
	}
	c.setState(StateAuthenticated)
	logger.Info("%s connection authenticated (conn %s)", c.opts.Name, connID)
	if c.opts.OnAuthenticated != nil {
		c.opts.OnAuthenticated()
	}

	stopPing := make(chan struct{})
	defer close(stopPing)
	go c.pingLoop(ws, stopPing)

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		ev, err := c.readEvent(ws)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("%s read error (conn %s): %v", c.opts.Name, connID, err)
			}
			c.emit(models.Event{Type: models.EventDisconnect})
			return true, err
		}
		c.emit(*ev)
	}
}

func (c *Conn) readEvent(ws *websocket.Conn) (*models.Event, error) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		var ev models.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Error("%s: dropping malformed event: %v", c.opts.Name, err)
			continue
		}
		if ev.Type == "" {
			continue
		}
		return &ev, nil
	}
}

func (c *Conn) emit(ev models.Event) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

func (c *Conn) send(cmd *models.Command) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(cmd)
}

// Send delivers a command on the live connection. Commands are only
// accepted once the handshake has completed.
func (c *Conn) Send(cmd *models.Command) error {
	if c.State() != StateAuthenticated {
		return ErrNotConnected
	}
	if err := c.send(cmd); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd.Type, err)
	}
	return nil
}

func (c *Conn) pingLoop(ws *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		case <-c.quit:
			return
		}
	}
}
