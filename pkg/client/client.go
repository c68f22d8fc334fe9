// Package client owns the single WebSocket connection to the
// teaching-assistant backend. It reconnects on failure with a fixed delay
// and a bounded attempt count, buffers outbound envelopes while the
// connection is down, and fans inbound payloads and status transitions out
// to registered handlers.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/lecternhq/lectern/pkg/protocol"
	"github.com/lecternhq/lectern/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Status is the connection state as seen by consumers. Anything short of an
// open socket reads as disconnected.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

const (
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxReconnectAttempts = 5

	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// ErrClientClosed is returned by SendMessage after Close.
var ErrClientClosed = errors.New("client closed")

// MessageHandler receives every decoded inbound payload: the JSON value for
// frames that parsed, or the raw string for frames that did not.
type MessageHandler func(payload any)

// StatusHandler receives every connection status transition.
type StatusHandler func(status Status)

type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateOpen
	stateClosed
)

type msgReg struct {
	token int
	fn    MessageHandler
}

type statusReg struct {
	token int
	fn    StatusHandler
}

type Options struct {
	Endpoint             string
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	Logger               *slog.Logger
}

// Client is safe for use from multiple goroutines. Handlers are invoked off
// the socket read goroutine, one payload at a time, in registration order.
type Client struct {
	endpoint    string
	delay       time.Duration
	maxAttempts int
	logger      *slog.Logger

	mu             sync.Mutex
	state          connState
	conn           *websocket.Conn
	gen            uint64 // bumped per connection attempt; stale sockets check it
	attempts       int    // consecutive failed attempts since last open
	connecting     bool
	queue          [][]byte
	nextToken      int
	msgHandlers    []msgReg
	statusHandlers []statusReg
	timer          *time.Timer
	closed         bool
}

func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = protocol.DefaultEndpoint
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		endpoint:    opts.Endpoint,
		delay:       opts.ReconnectDelay,
		maxAttempts: opts.MaxReconnectAttempts,
		logger:      opts.Logger,
	}
}

// Connect starts a connection attempt. A request issued while an attempt is
// already in flight, or while the socket is open, is a no-op.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed || c.connecting || c.state == stateOpen {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.state = stateConnecting
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.dial(gen)
}

func (c *Client) dial(gen uint64) {
	telemetry.Metrics.ConnectAttempts.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	conn, _, err := websocket.Dial(ctx, c.endpoint, nil)
	cancel()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		if err == nil {
			conn.Close(websocket.StatusNormalClosure, "superseded")
		}
		return
	}
	if err != nil {
		c.connecting = false
		c.state = stateClosed
		c.mu.Unlock()
		c.logger.Debug("connect failed",
			slog.String("endpoint", c.endpoint),
			slog.String("err", err.Error()),
		)
		c.notifyStatus(StatusDisconnected)
		c.scheduleReconnect()
		return
	}

	c.attempts = 0
	c.mu.Unlock()

	// Drain strictly FIFO before the socket becomes visible as open, so a
	// send racing the drain cannot jump the queue. A frame taken off the
	// queue is never requeued, even if its write fails.
	for {
		c.mu.Lock()
		if c.closed || gen != c.gen {
			c.mu.Unlock()
			conn.Close(websocket.StatusNormalClosure, "superseded")
			return
		}
		if len(c.queue) == 0 {
			c.conn = conn
			c.state = stateOpen
			c.connecting = false
			c.mu.Unlock()
			break
		}
		frame := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		c.write(conn, frame)
	}
	telemetry.Metrics.QueueDepth.Set(0)

	c.logger.Info("connected", slog.String("endpoint", c.endpoint))
	c.notifyStatus(StatusConnected)
	go c.readLoop(conn, gen)
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			c.handleDrop(gen, err)
			return
		}
		telemetry.Metrics.MessagesReceived.Inc()
		c.dispatch(data)
	}
}

func (c *Client) handleDrop(gen uint64, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.state != stateOpen {
		// A replaced or torn-down socket; its events no longer matter.
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	c.conn = nil
	c.mu.Unlock()

	if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		c.logger.Info("connection closed by backend")
	} else {
		c.logger.Warn("connection dropped", slog.String("err", err.Error()))
	}

	c.notifyStatus(StatusDisconnected)
	c.scheduleReconnect()
}

// scheduleReconnect counts the failure and arms the retry timer, unless the
// attempt budget is spent. Exhaustion is silent: the status stays
// disconnected and no further automatic attempts are made.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.attempts++
	if c.attempts >= c.maxAttempts {
		attempts := c.attempts
		c.mu.Unlock()
		c.logger.Warn("reconnect attempts exhausted", slog.Int("attempts", attempts))
		return
	}
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.timer = nil
		c.mu.Unlock()
		c.Connect()
	})
	c.mu.Unlock()

	telemetry.Metrics.ReconnectsTotal.Inc()
}

// Send transmits the envelope if the connection is open, and otherwise
// queues it and kicks off a connection attempt if none is pending. It never
// fails: delivery is best-effort and queueing counts as success.
func (c *Client) Send(env protocol.Envelope) {
	frame, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("encoding envelope", slog.String("err", err.Error()))
		telemetry.Metrics.ErrorsTotal.WithLabelValues("client").Inc()
		return
	}

	c.mu.Lock()
	if c.state == stateOpen && c.conn != nil {
		conn := c.conn
		c.mu.Unlock()
		c.write(conn, frame)
		return
	}
	c.queue = append(c.queue, frame)
	depth := len(c.queue)
	needConnect := !c.connecting && c.timer == nil
	c.mu.Unlock()

	telemetry.Metrics.QueueDepth.Set(float64(depth))
	if needConnect {
		c.Connect()
	}
}

// SendMessage builds an envelope from the text and optional attachment and
// hands it to Send. It resolves once the envelope is queued or transmitted,
// not once the backend receives it. The mode is recorded for observability
// but is not part of the wire envelope.
func (c *Client) SendMessage(ctx context.Context, mode, text string, att *protocol.Attachment) error {
	_, span := telemetry.StartSpan(ctx, "client.send",
		attribute.String("lectern.mode", mode),
		attribute.Bool("lectern.attachment", att != nil),
	)
	defer span.End()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClientClosed
	}

	c.Send(protocol.NewEnvelope(text, att))
	return nil
}

func (c *Client) write(conn *websocket.Conn, frame []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		// The read loop sees the same failure and drives the reconnect.
		c.logger.Warn("write failed", slog.String("err", err.Error()))
		telemetry.Metrics.ErrorsTotal.WithLabelValues("client").Inc()
		return
	}
	telemetry.Metrics.MessagesSent.Inc()
}

func (c *Client) dispatch(data []byte) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		// Not JSON. Deliver the raw text unchanged rather than dropping it.
		telemetry.Metrics.DecodeFailures.Inc()
		payload = string(data)
	}

	c.mu.Lock()
	regs := make([]msgReg, len(c.msgHandlers))
	copy(regs, c.msgHandlers)
	c.mu.Unlock()

	for _, reg := range regs {
		c.invoke(func() { reg.fn(payload) })
	}
}

func (c *Client) notifyStatus(status Status) {
	c.mu.Lock()
	regs := make([]statusReg, len(c.statusHandlers))
	copy(regs, c.statusHandlers)
	c.mu.Unlock()

	for _, reg := range regs {
		c.invoke(func() { reg.fn(status) })
	}
}

// invoke isolates a handler so a panic in one cannot stop delivery to the
// rest.
func (c *Client) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panicked", slog.Any("panic", r))
			telemetry.Metrics.ErrorsTotal.WithLabelValues("handler").Inc()
		}
	}()
	fn()
}

// AddMessageHandler registers fn for every inbound payload. Handlers run in
// registration order. The returned func unregisters fn and is safe to call
// more than once.
func (c *Client) AddMessageHandler(fn MessageHandler) func() {
	c.mu.Lock()
	c.nextToken++
	token := c.nextToken
	c.msgHandlers = append(c.msgHandlers, msgReg{token: token, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, reg := range c.msgHandlers {
			if reg.token == token {
				c.msgHandlers = append(c.msgHandlers[:i], c.msgHandlers[i+1:]...)
				return
			}
		}
	}
}

// AddStatusHandler registers fn for every status transition, with the same
// ordering and unregistration semantics as AddMessageHandler.
func (c *Client) AddStatusHandler(fn StatusHandler) func() {
	c.mu.Lock()
	c.nextToken++
	token := c.nextToken
	c.statusHandlers = append(c.statusHandlers, statusReg{token: token, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, reg := range c.statusHandlers {
			if reg.token == token {
				c.statusHandlers = append(c.statusHandlers[:i], c.statusHandlers[i+1:]...)
				return
			}
		}
	}
}

// Status reports connected iff the socket is currently open.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateOpen {
		return StatusConnected
	}
	return StatusDisconnected
}

// QueueLen reports how many envelopes are waiting for the connection to
// open.
func (c *Client) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close tears the client down: it cancels any pending reconnect timer,
// invalidates in-flight attempts, and closes the socket. Safe to call more
// than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = stateClosed
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client closed")
	}
	return nil
}
