package obsws

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Default timeouts and queue sizes for the OBS connection.
const (
	// defaultConnectTimeout bounds the websocket dial and authentication.
	defaultConnectTimeout = 10 * time.Second

	// defaultRequestTimeout applies to calls whose context has no deadline.
	defaultRequestTimeout = 10 * time.Second

	// defaultWriteTimeout bounds a single websocket frame write.
	defaultWriteTimeout = 5 * time.Second

	// eventQueueSize is the buffer between the read loop and the event worker.
	eventQueueSize = 256

	// closeGracePeriod is how long Close waits for the close frame to be written.
	closeGracePeriod = time.Second
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds OBS connection settings.
type Config struct {
	// URL is the obs-websocket endpoint, e.g. "ws://127.0.0.1:4444".
	URL string

	// Password is the obs-websocket password. Empty when auth is disabled.
	Password string

	// ConnectTimeout bounds dial plus authentication.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// RequestTimeout is applied to calls made with a context that has no
	// deadline. Default: 10 seconds.
	RequestTimeout time.Duration
}

// Stats holds operational statistics.
type Stats struct {
	RequestsTotal uint64
	RequestErrors uint64
	EventsRx      uint64
	EventsDropped uint64
	LastActivity  time.Time
	Connected     bool
}

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// response is a decoded reply to one request.
type response struct {
	status string
	reason string
	raw    json.RawMessage
}

// envelope holds the fields needed to classify an incoming frame.
type envelope struct {
	UpdateType string `json:"update-type"`
	MessageID  string `json:"message-id"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

// Client is a connection to obs-websocket.
//
// Thread Safety:
//   - Call may be used from many goroutines at once.
//   - The event callback runs on a single dedicated goroutine, in arrival order.
type Client struct {
	cfg  Config
	conn *websocket.Conn

	// Writes must be serialised on a gorilla connection.
	writeMu sync.Mutex

	// Pending requests keyed by message ID.
	pending   map[string]chan response
	pendingMu sync.Mutex
	nextID    atomic.Uint64

	connMu    sync.RWMutex
	connected bool

	onEvent      func(Event)
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	events chan Event

	// Events queue until the first SetOnEvent.
	eventsReady *closeOnce

	done *closeOnce // Close was called
	lost *closeOnce // read loop ended
	wg   sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	requestsTotal atomic.Uint64
	requestErrors atomic.Uint64
	eventsRx      atomic.Uint64
	eventsDropped atomic.Uint64
	lastActivity  atomic.Int64
}

// Dial connects to obs-websocket and authenticates if OBS asks for it.
//
// Parameters:
//   - ctx: Context for the dial and authentication round trips
//   - cfg: Connection configuration
//
// Returns:
//   - *Client: Connected, authenticated client
//   - error: ErrConnectionFailed, ErrAuthFailed or ErrPasswordRequired (wrapped)
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	conn, resp, err := dialer.DialContext(connectCtx, cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, cfg.URL, err)
	}

	c := &Client{
		cfg:         cfg,
		conn:        conn,
		pending:     make(map[string]chan response),
		connected:   true,
		events:      make(chan Event, eventQueueSize),
		eventsReady: newCloseOnce(),
		done:        newCloseOnce(),
		lost:        newCloseOnce(),
	}
	c.lastActivity.Store(time.Now().Unix())

	c.wg.Add(2)
	go c.readLoop()
	go c.eventWorker()

	if err := c.authenticate(connectCtx); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// authenticate performs the GetAuthRequired / Authenticate exchange.
func (c *Client) authenticate(ctx context.Context) error {
	var auth AuthRequired
	if err := c.Call(ctx, RequestGetAuthRequired, nil, &auth); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if !auth.AuthRequired {
		return nil
	}
	if c.cfg.Password == "" {
		return ErrPasswordRequired
	}

	params := AuthenticateParams{Auth: authResponse(c.cfg.Password, auth.Salt, auth.Challenge)}
	if err := c.Call(ctx, RequestAuthenticate, params, nil); err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			return fmt.Errorf("%w: %s", ErrAuthFailed, reqErr.Reason)
		}
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	return nil
}

// authResponse computes the obs-websocket 4.x auth string:
// base64(sha256(base64(sha256(password + salt)) + challenge)).
func authResponse(password, salt, challenge string) string {
	secretHash := sha256.Sum256([]byte(password + salt))
	secret := base64.StdEncoding.EncodeToString(secretHash[:])

	authHash := sha256.Sum256([]byte(secret + challenge))
	return base64.StdEncoding.EncodeToString(authHash[:])
}

// Call sends a request and waits for its response.
//
// params must encode to a JSON object (a struct or map) or be nil. When
// result is non-nil the response body is decoded into it. A response with
// status "error" is returned as *RequestError.
func (c *Client) Call(ctx context.Context, requestType string, params, result any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	id := strconv.FormatUint(c.nextID.Add(1), 10)
	payload, err := encodeRequest(requestType, id, params)
	if err != nil {
		return err
	}

	ch := make(chan response, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.requestsTotal.Add(1)
	if err := c.write(ctx, payload); err != nil {
		c.requestErrors.Add(1)
		return fmt.Errorf("obsws: send %s: %w", requestType, err)
	}

	select {
	case resp := <-ch:
		if resp.status != "ok" {
			c.requestErrors.Add(1)
			return &RequestError{RequestType: requestType, Reason: resp.reason}
		}
		if result != nil {
			if err := json.Unmarshal(resp.raw, result); err != nil {
				return fmt.Errorf("obsws: decode %s response: %w", requestType, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.requestErrors.Add(1)
		return fmt.Errorf("%w: %s: %w", ErrTimeout, requestType, ctx.Err())
	case <-c.lost.Done():
		return fmt.Errorf("%w: %s", ErrNotConnected, requestType)
	case <-c.done.Done():
		return ErrClosed
	}
}

// encodeRequest merges the request envelope fields into params.
func encodeRequest(requestType, id string, params any) ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if params != nil {
		body, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("obsws: encode %s params: %w", requestType, err)
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParams, requestType)
		}
	}

	typeJSON, _ := json.Marshal(requestType) //nolint:errcheck // strings always marshal
	idJSON, _ := json.Marshal(id)            //nolint:errcheck // strings always marshal
	fields["request-type"] = typeJSON
	fields["message-id"] = idJSON

	return json.Marshal(fields)
}

// write sends one text frame.
func (c *Client) write(ctx context.Context, payload []byte) error {
	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// readLoop reads frames until the connection fails or Close is called.
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer c.lost.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(err)
			return
		}
		c.lastActivity.Store(time.Now().Unix())

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logError("invalid frame from OBS", err)
			continue
		}

		switch {
		case env.UpdateType != "":
			c.queueEvent(Event{Type: env.UpdateType, Raw: data})
		case env.MessageID != "":
			c.deliver(env.MessageID, response{status: env.Status, reason: env.Error, raw: data})
		}
	}
}

// deliver hands a response to the waiting caller, if any.
func (c *Client) deliver(id string, resp response) {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	c.pendingMu.Unlock()

	if !ok {
		c.logDebug("response for unknown request", "message_id", id)
		return
	}
	ch <- resp
}

// queueEvent enqueues an event for the event worker, dropping it when the
// queue is full.
func (c *Client) queueEvent(ev Event) {
	c.eventsRx.Add(1)
	select {
	case c.events <- ev:
	default:
		c.eventsDropped.Add(1)
		c.logError("event queue full, dropping event", fmt.Errorf("type=%s", ev.Type))
	}
}

// eventWorker delivers events one at a time so handlers see them in order.
// Nothing is delivered before the first SetOnEvent; events arriving earlier
// wait in the queue.
func (c *Client) eventWorker() {
	defer c.wg.Done()

	select {
	case <-c.done.Done():
		return
	case <-c.eventsReady.Done():
	}

	for {
		select {
		case <-c.done.Done():
			return
		case ev := <-c.events:
			c.callbackMu.RLock()
			callback := c.onEvent
			c.callbackMu.RUnlock()

			if callback == nil {
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logError("event callback panic", fmt.Errorf("%v", r))
					}
				}()
				callback(ev)
			}()
		}
	}
}

// handleDisconnect records connection loss.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	select {
	case <-c.done.Done():
		return
	default:
	}

	if !wasConnected {
		return
	}
	c.logError("connection to OBS lost", err)

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// Close sends a close frame and shuts the connection down.
// Safe to call multiple times.
func (c *Client) Close() error {
	c.done.Close()

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.writeMu.Lock()
	//nolint:errcheck // Best-effort close frame
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGracePeriod))
	c.writeMu.Unlock()

	err := c.conn.Close()
	c.wg.Wait()
	return err
}

// SetOnEvent sets the callback for events pushed by OBS. Events received
// since Dial are delivered once the first callback is set.
func (c *Client) SetOnEvent(callback func(Event)) {
	c.callbackMu.Lock()
	c.onEvent = callback
	c.callbackMu.Unlock()
	c.eventsReady.Close()
}

// SetOnDisconnect sets a callback invoked once when the connection drops
// without Close having been called. A drop before the callback is set is
// only visible through Done.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// IsConnected returns true while the websocket is up.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Done is closed when the connection ends, for any reason.
func (c *Client) Done() <-chan struct{} {
	return c.lost.Done()
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		RequestsTotal: c.requestsTotal.Load(),
		RequestErrors: c.requestErrors.Load(),
		EventsRx:      c.eventsRx.Load(),
		EventsDropped: c.eventsDropped.Load(),
		LastActivity:  time.Unix(c.lastActivity.Load(), 0),
		Connected:     c.IsConnected(),
	}
}

// HealthCheck reports whether the connection is usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("obsws health check: %w", ctx.Err())
	default:
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) logDebug(msg string, keysAndValues ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (c *Client) logError(msg string, err error) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
