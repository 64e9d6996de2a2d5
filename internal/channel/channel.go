// Package channel owns the realtime websocket connection to the chat server:
// dialing, bounded reconnection, outbound event writes, and the ordered
// inbound event queue every other component consumes.
package channel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nebulachat/nebula/internal/protocol"
)

// State is the connection lifecycle phase. Transitions are driven only by
// the Client; everyone else just reads them off the event queue.
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
	default:
		return "disconnected"
	}
}

// StateChange is queued whenever the connection state moves. Err carries the
// cause when the move was a failure; Final marks retry exhaustion, after
// which only an explicit Reconnect resumes service.
type StateChange struct {
	State State
	Err   error
	Final bool
}

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = time.Second
	writeWait          = 10 * time.Second
	readLimit          = 1 << 20
	queueSize          = 256
)

// ErrNotConnected rejects outbound events while the channel is down.
var ErrNotConnected = errors.New("channel: not connected")

// Options configure the channel client.
type Options struct {
	URL         string
	Token       string
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      zerolog.Logger
}

// Client maintains the websocket channel. All inbound traffic, including
// state changes, is delivered in arrival order on Events.
type Client struct {
	url         string
	token       string
	clientID    string
	maxAttempts int
	retryDelay  time.Duration
	log         zerolog.Logger

	events chan any
	done   chan struct{}

	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	lastRoom int
	running  bool
	lastUp   time.Time
}

// New creates a client; call Connect to bring the channel up.
func New(opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &Client{
		url:         opts.URL,
		token:       opts.Token,
		clientID:    uuid.NewString(),
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		log:         opts.Logger,
		events:      make(chan any, queueSize),
		done:        make(chan struct{}),
	}
}

// Events is the ordered inbound queue: protocol.Event values interleaved
// with StateChange markers.
func (c *Client) Events() <-chan any { return c.events }

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastConnectedAt returns when the channel last came up (zero if never).
func (c *Client) LastConnectedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUp
}

// Connect starts the connection loop. It returns immediately; progress is
// reported through the event queue.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()
	go c.run()
}

// Reconnect restarts the connection loop after retry exhaustion. The user
// triggers this explicitly; there is no automatic recovery past the bounded
// attempts.
func (c *Client) Reconnect() {
	c.Connect()
}

// Close tears the channel down for good.
func (c *Client) Close() {
	c.mu.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// run dials with a fixed inter-attempt delay, then pumps inbound frames
// until the connection drops. The attempt budget resets after every
// successful dial, so a long-lived session gets a fresh set of retries for
// each outage.
func (c *Client) run() {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		conn, err := c.dial()
		if err != nil {
			c.setState(StateDisconnected)
			c.push(StateChange{State: StateDisconnected, Err: err, Final: true})
			return
		}

		c.mu.Lock()
		c.conn = conn
		c.state = StateConnected
		c.lastUp = time.Now()
		room := c.lastRoom
		c.mu.Unlock()
		c.push(StateChange{State: StateConnected})

		// Rejoin-on-reconnect: restore server-side membership for the room
		// that was active when the connection dropped. History in memory is
		// kept as-is; no gap filling.
		if room != 0 {
			if err := c.emit(protocol.EventJoinRoom, protocol.JoinRoom{RoomID: room}); err != nil {
				c.log.Warn().Err(err).Int("room", room).Msg("rejoin after reconnect failed")
			}
		}

		err = c.readLoop(conn)
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()

		select {
		case <-c.done:
			return
		default:
		}
		c.setState(StateDisconnected)
		c.push(StateChange{State: StateDisconnected, Err: err})
		c.log.Info().Err(err).Msg("channel dropped, reconnecting")
	}
}

// dial attempts the websocket handshake up to maxAttempts times.
func (c *Client) dial() (*websocket.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-c.done:
			return nil, errors.New("channel: closed")
		default:
		}

		c.setState(StateConnecting)
		c.push(StateChange{State: StateConnecting})

		dialer := websocket.Dialer{HandshakeTimeout: writeWait}
		header := map[string][]string{"X-Client-ID": {c.clientID}}
		if c.token != "" {
			header["Authorization"] = []string{"Bearer " + c.token}
		}
		conn, _, err := dialer.Dial(c.url, header)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Int("attempt", attempt).Msg("dial failed")
		c.setState(StateDisconnected)
		c.push(StateChange{State: StateDisconnected, Err: err})

		if attempt < c.maxAttempts {
			select {
			case <-c.done:
				return nil, errors.New("channel: closed")
			case <-time.After(c.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("channel: giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

// readLoop decodes inbound frames onto the event queue until the connection
// errors out. Undecodable frames are logged and skipped.
func (c *Client) readLoop(conn *websocket.Conn) error {
	conn.SetReadLimit(readLimit)
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := protocol.Decode(frame)
		if err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}
		c.push(ev)
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// push queues an event, dropping it if the consumer is gone or hopelessly
// behind. The queue is large enough that drops only happen at shutdown.
func (c *Client) push(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	default:
		c.log.Warn().Str("type", fmt.Sprintf("%T", ev)).Msg("event queue full, dropping")
	}
}

// emit writes one outbound envelope. Serialized by the client mutex so
// concurrent senders never interleave frames.
func (c *Client) emit(event string, data any) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}
	frame, err := protocol.Encode(event, data)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("channel: write %s: %w", event, err)
	}
	return nil
}

// JoinRoom enters a room and records it as the rejoin target.
func (c *Client) JoinRoom(roomID int) error {
	c.mu.Lock()
	c.lastRoom = roomID
	c.mu.Unlock()
	return c.emit(protocol.EventJoinRoom, protocol.JoinRoom{RoomID: roomID})
}

// LeaveRoom exits a room. The rejoin target is only cleared when the server
// actually heard the leave; a failed emit means the room is still active on
// screen and must be rejoined when the channel comes back.
func (c *Client) LeaveRoom(roomID int) error {
	if err := c.emit(protocol.EventLeaveRoom, protocol.LeaveRoom{RoomID: roomID}); err != nil {
		return err
	}
	c.mu.Lock()
	if c.lastRoom == roomID {
		c.lastRoom = 0
	}
	c.mu.Unlock()
	return nil
}

// SendMessage posts a message; replyToID is zero for non-replies.
func (c *Client) SendMessage(text string, roomID int, replyToID int64) error {
	return c.emit(protocol.EventSendMessage, protocol.SendMessage{
		Text:      text,
		RoomID:    roomID,
		ReplyToID: replyToID,
	})
}

// Typing announces the local typing state for a room.
func (c *Client) Typing(roomID int, isTyping bool) error {
	return c.emit(protocol.EventTyping, protocol.Typing{RoomID: roomID, IsTyping: isTyping})
}
