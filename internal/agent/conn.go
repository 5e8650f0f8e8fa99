// Package agent connects a cooking session to the remote conversational
// agent over a websocket. It sends the recipe context at start-up, routes
// the agent's client tool calls to the bridge in arrival order, and
// carries contextual updates back to the agent.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// Dispatcher runs one tool call. bridge.Bridge implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, raw json.RawMessage) bridge.Invocation
}

// Setup is sent once when the conversation starts.
type Setup struct {
	Prompt       string
	FirstMessage string
	Tools        []bridge.Tool
}

// Role identifies the speaker of a transcript line.
type Role string

const (
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Transcript is one line of conversation reported by the agent service.
type Transcript struct {
	Role Role
	Text string
}

// Option configures a connection.
type Option func(*Conn)

// WithTranscriptHandler receives agent responses and user transcripts.
func WithTranscriptHandler(fn func(Transcript)) Option {
	return func(c *Conn) {
		c.onTranscript = fn
	}
}

// WithToolCallHandler is called after every tool call with its record.
func WithToolCallHandler(fn func(bridge.Invocation)) Option {
	return func(c *Conn) {
		c.onToolCall = fn
	}
}

// WithWriteTimeout bounds every websocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.writeTimeout = d
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Conn) {
		c.dialer = d
	}
}

// Conn is a live conversation with the remote agent.
type Conn struct {
	conn       *websocket.Conn
	dispatcher Dispatcher
	log        *logger.Logger

	dialer       *websocket.Dialer
	writeTimeout time.Duration
	onTranscript func(Transcript)
	onToolCall   func(bridge.Invocation)

	writeMu   sync.Mutex
	connected atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	errMu          sync.Mutex
	err            error
	conversationID atomic.Value
}

// Dial opens the conversation websocket at url, sends setup and starts
// the read loop. Tool calls are dispatched to d one at a time.
func Dial(ctx context.Context, url string, setup Setup, d Dispatcher, log *logger.Logger, opts ...Option) (*Conn, error) {
	c := &Conn{
		dispatcher:   d,
		log:          log,
		dialer:       websocket.DefaultDialer,
		writeTimeout: 10 * time.Second,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	ws, _, err := c.dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent websocket: %w", err)
	}
	c.conn = ws

	setupMsg := initiationMessage{
		Type: typeInitiationClientData,
		Override: configOverride{Agent: agentOverride{
			Prompt:       promptOverride{Prompt: setup.Prompt},
			FirstMessage: setup.FirstMessage,
		}},
		Tools: setup.Tools,
	}
	if err := c.writeJSON(setupMsg); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("sending conversation setup: %w", err)
	}

	c.connected.Store(true)
	go c.readLoop()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()

	log.Info("agent connected (%d tools)", len(setup.Tools))
	return c, nil
}

// Connected reports whether the conversation is still open.
func (c *Conn) Connected() bool {
	return c.connected.Load()
}

// ConversationID returns the id assigned by the agent service, if any.
func (c *Conn) ConversationID() string {
	id, _ := c.conversationID.Load().(string)
	return id
}

// SendContextualUpdate tells the agent about something that happened
// outside the conversation. It does not trigger a reply on its own.
func (c *Conn) SendContextualUpdate(_ context.Context, text string) error {
	if !c.Connected() {
		return domain.ErrNotConnected
	}
	return c.writeJSON(textMessage{Type: typeContextualUpdate, Text: text})
}

// SendUserMessage sends typed user input as a conversation turn.
func (c *Conn) SendUserMessage(_ context.Context, text string) error {
	if !c.Connected() {
		return domain.ErrNotConnected
	}
	return c.writeJSON(textMessage{Type: typeUserMessage, Text: text})
}

// Close ends the conversation and waits for the read loop to exit.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
	<-c.done
	return c.Err()
}

// Done is closed when the read loop exits.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the first abnormal error that ended the connection.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Conn) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, net.ErrClosed) {
		return
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

func (c *Conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("agent write: %w", err)
	}
	return nil
}

// ── Read loop ────────────────────────────────────────────────────

func (c *Conn) readLoop() {
	defer close(c.done)
	defer c.connected.Store(false)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.setErr(fmt.Errorf("failed to read agent event: %w", err))
			if c.Err() != nil {
				c.log.Warn("agent connection lost: %v", c.Err())
			} else {
				c.log.Info("agent conversation ended")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.log.Debug("skipping malformed agent event: %v", err)
			continue
		}
		c.handle(msg)
	}
}

func (c *Conn) handle(msg inboundMessage) {
	switch msg.Type {
	case typeClientToolCall:
		if msg.ClientToolCall == nil {
			return
		}
		call := msg.ClientToolCall
		inv := c.dispatcher.Dispatch(context.Background(), call.ToolName, call.Parameters)
		if c.onToolCall != nil {
			c.onToolCall(inv)
		}
		err := c.writeJSON(toolResultMessage{
			Type:       typeClientToolResult,
			ToolCallID: call.ToolCallID,
			Result:     inv.Result,
			IsError:    inv.Rejected,
		})
		if err != nil {
			c.log.Warn("tool result for %s not delivered: %v", call.ToolName, err)
		}

	case typePing:
		if msg.PingEvent == nil {
			return
		}
		if err := c.writeJSON(pongMessage{Type: typePong, EventID: msg.PingEvent.EventID}); err != nil {
			c.log.Debug("pong: %v", err)
		}

	case typeAgentResponse:
		if msg.AgentResponseEvent != nil {
			c.log.Debug("agent: %s", msg.AgentResponseEvent.AgentResponse)
			c.transcript(RoleAgent, msg.AgentResponseEvent.AgentResponse)
		}

	case typeUserTranscript:
		if msg.UserTranscriptionEvent != nil {
			c.log.Debug("user: %s", msg.UserTranscriptionEvent.UserTranscript)
			c.transcript(RoleUser, msg.UserTranscriptionEvent.UserTranscript)
		}

	case typeInitiationMetadata:
		if msg.InitiationMetadataEvent != nil {
			c.conversationID.Store(msg.InitiationMetadataEvent.ConversationID)
			c.log.Info("conversation %s started", msg.InitiationMetadataEvent.ConversationID)
		}

	case typeInterruption:
		c.log.Debug("agent interrupted")

	default:
		c.log.Debug("ignoring agent event %q", msg.Type)
	}
}

func (c *Conn) transcript(role Role, text string) {
	if c.onTranscript != nil && text != "" {
		c.onTranscript(Transcript{Role: role, Text: text})
	}
}
