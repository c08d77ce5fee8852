// Package stream is the real-time generation client. It keeps one live
// WebSocket connection to the backend, runs at most one generation at a
// time, and delivers question/answer pairs as they are produced.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-smartfaq/client"
	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/session"
)

const (
	handshakeTimeout  = 10 * time.Second
	writeTimeout      = 10 * time.Second
	readTimeout       = 60 * time.Second
	pingInterval      = 30 * time.Second
	reconnectDelayMin = time.Second
	reconnectDelayMax = 32 * time.Second
	eventBuffer       = 64
)

// UpdateMode controls how a generation against an existing record combines
// with the pairs that record already holds.
type UpdateMode int

const (
	// UpdateModeReplace discards the record's previous pairs (default).
	UpdateModeReplace UpdateMode = iota
	// UpdateModeAppend keeps them and appends the new pairs.
	UpdateModeAppend
)

// GenerateRequest starts generation for a piece of content.
type GenerateRequest struct {
	Text         string
	NumQuestions int
	Tone         string

	// FAQID targets an existing record; empty means a new one.
	FAQID string

	// Existing holds the record's current pairs, consulted in append mode.
	Existing []client.QuestionAnswer
}

// generation is the bookkeeping for one in-flight generation.
type generation struct {
	seq   uint64
	base  []client.QuestionAnswer
	pairs []client.QuestionAnswer
	seen  map[int64]struct{}
}

// Client is a generation stream connection. Events are consumed from
// Events(); commands are issued with Generate and Stop. The connection stays
// open across generations and reconnects itself on transport loss while the
// session remains valid.
type Client struct {
	wsURL   string
	session *session.Session
	logger  zerolog.Logger

	autoReconnect bool
	updateMode    UpdateMode
	dialer        *websocket.Dialer

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	state atomic.Int32

	events    chan Event
	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// emitMu orders generation events: a routed message is delivered before
	// any later terminal event for the same generation.
	emitMu sync.Mutex

	closeMu sync.RWMutex
	closed  bool

	genMu  sync.Mutex
	seq    uint64
	active *generation
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithLogger sets the logger used for connection tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithAutoReconnect disables (or re-enables) automatic reconnection on
// transport loss. It is on by default.
func WithAutoReconnect(enabled bool) Option {
	return func(c *Client) {
		c.autoReconnect = enabled
	}
}

// WithUpdateMode sets how generations against existing records combine with
// the pairs those records already hold.
func WithUpdateMode(mode UpdateMode) Option {
	return func(c *Client) {
		c.updateMode = mode
	}
}

// WithDialer replaces the WebSocket dialer (primarily for testing).
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// Dial connects to the generation stream at wsURL, authenticating with the
// session's access token. The returned client is live: consume Events() and
// call Close when done.
func Dial(ctx context.Context, wsURL string, sess *session.Session, options ...Option) (*Client, error) {
	if sess == nil {
		return nil, fmt.Errorf("[stream.Dial] session is required")
	}

	c := &Client{
		wsURL:         wsURL,
		session:       sess,
		logger:        zerolog.Nop(),
		autoReconnect: true,
		dialer: &websocket.Dialer{
			HandshakeTimeout:  handshakeTimeout,
			EnableCompression: true,
		},
		events:   make(chan Event, eventBuffer),
		stopChan: make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.listen(ctx)
	go c.pingLoop(ctx)
	return c, nil
}

// Events returns the stream's event channel. It is closed by Close.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Generate starts a new generation and returns its sequence number. Only one
// generation may be in flight; a second request is rejected, not queued.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("[Client.Generate] %w", err)
	}
	if state := c.State(); state != StateOpen {
		return 0, fmt.Errorf("[Client.Generate] connection is %s: %w", state, apperrors.ErrStreamClosed)
	}

	c.genMu.Lock()
	defer c.genMu.Unlock()

	if c.active != nil {
		return 0, fmt.Errorf("[Client.Generate] generation %d still active: %w", c.active.seq, apperrors.ErrGenerationInProgress)
	}

	faqID := req.FAQID
	if faqID == "" {
		faqID = NewFAQID
	}

	c.seq++
	cmd := generateCommand{
		Type:         msgGenerate,
		Text:         req.Text,
		NumQuestions: req.NumQuestions,
		Tone:         req.Tone,
		FAQID:        faqID,
		Generation:   c.seq,
	}
	if err := c.writeJSON(cmd); err != nil {
		return 0, fmt.Errorf("[Client.Generate] send command: %w", err)
	}

	c.active = &generation{seq: c.seq, base: req.Existing, seen: map[int64]struct{}{}}
	return c.seq, nil
}

// Stop cancels the active generation. Cancellation is optimistic: the
// generation ends locally and a Stopped event is delivered immediately,
// whether or not the cancel reaches the backend. A later server ack for the
// same sequence arrives stale and is discarded. Stopping with no active
// generation is a no-op.
func (c *Client) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("[Client.Stop] %w", err)
	}

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.genMu.Lock()
	active := c.active
	c.active = nil
	c.genMu.Unlock()

	if active == nil {
		return nil
	}

	if err := c.writeJSON(stopCommand{Type: msgStop, Generation: active.seq}); err != nil {
		c.logger.Debug().Err(err).Uint64("generation", active.seq).Msg("stop command not delivered")
	}

	c.emit(Event{Kind: EventStopped, Generation: active.seq, Pairs: c.finalPairs(active)})
	return nil
}

// Close tears the connection down and closes the event channel.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)

		c.connMu.Lock()
		if c.conn != nil {
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		c.wg.Wait()
		c.state.Store(int32(StateDisconnected))

		// No emit can start once closed is set, and none is in flight once
		// the lock is held, so the channel close below cannot race a send.
		c.closeMu.Lock()
		c.closed = true
		c.closeMu.Unlock()
		close(c.events)
	})
	return nil
}

// connect resolves a usable access token (refreshing if needed) and dials
// the stream endpoint with the token as a query credential.
func (c *Client) connect(ctx context.Context) error {
	c.setState(StateConnecting)

	token, err := c.session.AccessToken(ctx)
	if err != nil {
		c.setState(StateErrored)
		return fmt.Errorf("[stream.connect] resolve access token: %w", err)
	}

	wsURL, err := c.buildURL(token)
	if err != nil {
		c.setState(StateErrored)
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil {
		defer resp.Body.Close() //nolint:errcheck
	}
	if err != nil {
		c.setState(StateErrored)
		if resp != nil {
			return fmt.Errorf("[stream.connect] dial failed (HTTP %d): %v: %w", resp.StatusCode, err, apperrors.ErrNetwork)
		}
		return fmt.Errorf("[stream.connect] dial: %v: %w", err, apperrors.ErrNetwork)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateOpen)
	return nil
}

// buildURL converts the configured endpoint to ws(s) and injects the token.
func (c *Client) buildURL(token string) (string, error) {
	parsed, err := url.Parse(c.wsURL)
	if err != nil {
		return "", fmt.Errorf("[stream.buildURL] parse %q: %w", c.wsURL, err)
	}

	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	}

	q := parsed.Query()
	q.Set("token", token)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// listen reads messages until the client is closed, reconnecting with
// exponential backoff when the transport drops. Reconnection stops when the
// session can no longer produce a token.
func (c *Client) listen(ctx context.Context) {
	defer c.wg.Done()

	reconnectDelay := reconnectDelayMin

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()

		if conn == nil {
			if !c.autoReconnect {
				c.setState(StateErrored)
				return
			}

			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			}
			reconnectDelay *= 2
			if reconnectDelay > reconnectDelayMax {
				reconnectDelay = reconnectDelayMax
			}

			if err := c.connect(ctx); err != nil {
				if apperrors.Is(err, apperrors.ErrSessionExpired) {
					// No session left to authenticate with: reconnecting
					// cannot succeed until the caller signs in again.
					c.emit(Event{Kind: EventFailed, Err: err})
					c.setState(StateErrored)
					return
				}
				c.logger.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("stream reconnection failed")
				continue
			}
			reconnectDelay = reconnectDelayMin
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-c.stopChan:
				return
			default:
			}

			c.failActive(fmt.Errorf("[stream] connection lost: %v: %w", err, apperrors.ErrNetwork))
			c.dropConnection()
			continue
		}

		reconnectDelay = reconnectDelayMin
		c.handleMessage(data)
	}
}

// pingLoop keeps the connection alive and detects dead peers.
func (c *Client) pingLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				continue
			}

			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.logger.Debug().Err(err).Msg("stream ping failed")
				c.dropConnection()
			}
		}
	}
}

// handleMessage routes one inbound message and delivers the resulting
// events. Routing and delivery share emitMu with Stop, so a routed event is
// always delivered before the Stopped event that ends its generation. The
// generation lock itself is never held while emitting, so a full event
// buffer cannot deadlock Generate.
func (c *Client) handleMessage(data []byte) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	for _, ev := range c.routeMessage(data) {
		c.emit(ev)
	}
}

func (c *Client) routeMessage(data []byte) []Event {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return []Event{{Kind: EventFailed, Err: fmt.Errorf("[stream] parse message: %v: %w", err, apperrors.ErrUnknownMessage)}}
	}

	switch msg.Type {
	case msgFAQ, msgStatus, msgError:
	default:
		return []Event{{Kind: EventFailed, Generation: msg.Generation, Err: fmt.Errorf("[stream] message type %q: %w", msg.Type, apperrors.ErrUnknownMessage)}}
	}

	c.genMu.Lock()
	defer c.genMu.Unlock()

	active := c.active
	if active == nil || msg.Generation != active.seq {
		// Stale: the event belongs to a generation that already ended.
		return nil
	}

	switch msg.Type {
	case msgFAQ:
		if msg.ID != 0 {
			if _, dup := active.seen[msg.ID]; dup {
				return nil
			}
			active.seen[msg.ID] = struct{}{}
		}
		qa := client.QuestionAnswer{ID: msg.ID, Question: msg.Question, Answer: msg.Answer}
		active.pairs = append(active.pairs, qa)
		return []Event{{Kind: EventQA, Generation: active.seq, QA: qa}}

	case msgStatus:
		switch msg.Status {
		case statusComplete:
			c.active = nil
			return []Event{{
				Kind:       EventCompleted,
				Generation: active.seq,
				Pairs:      c.finalPairs(active),
				FAQ:        c.finalRecord(active, msg.FAQ),
			}}
		case statusStopped:
			c.active = nil
			return []Event{{Kind: EventStopped, Generation: active.seq, Pairs: c.finalPairs(active)}}
		default:
			return []Event{{Kind: EventFailed, Generation: active.seq, Err: fmt.Errorf("[stream] status %q: %w", msg.Status, apperrors.ErrUnknownMessage)}}
		}

	case msgError:
		c.active = nil
		return []Event{{
			Kind:       EventFailed,
			Generation: active.seq,
			Err:        fmt.Errorf("[stream] %s: %w", msg.Message, apperrors.ErrGenerationFailed),
		}}
	}
	return nil
}

// finalPairs applies the update mode to a finished generation's pairs.
func (c *Client) finalPairs(g *generation) []client.QuestionAnswer {
	if c.updateMode == UpdateModeAppend && len(g.base) > 0 {
		merged := make([]client.QuestionAnswer, 0, len(g.base)+len(g.pairs))
		merged = append(merged, g.base...)
		return append(merged, g.pairs...)
	}
	return g.pairs
}

// finalRecord aligns the backend's terminal record with the update mode.
func (c *Client) finalRecord(g *generation, record *client.FAQ) *client.FAQ {
	if record == nil {
		return nil
	}
	out := *record
	if c.updateMode == UpdateModeAppend || len(out.GeneratedFAQs) == 0 {
		out.GeneratedFAQs = c.finalPairs(g)
	}
	return &out
}

// failActive ends the active generation with an error, if there is one.
func (c *Client) failActive(err error) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.genMu.Lock()
	active := c.active
	c.active = nil
	c.genMu.Unlock()

	if active == nil {
		return
	}
	c.emit(Event{Kind: EventFailed, Generation: active.seq, Err: err})
}

// dropConnection closes the current connection, leaving reconnection to the
// listen loop.
func (c *Client) dropConnection() {
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
	c.setState(StateDisconnected)
}

func (c *Client) setState(state State) {
	if State(c.state.Swap(int32(state))) == state {
		return
	}
	c.emit(Event{Kind: EventConnState, State: state})
}

// emit delivers an event unless the client is closed or closing. The read
// lock keeps delivery and the channel close in Close mutually exclusive.
func (c *Client) emit(ev Event) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.events <- ev:
	case <-c.stopChan:
	}
}

func (c *Client) writeJSON(v any) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return apperrors.ErrStreamClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
