package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// fakeDispatcher records tool calls in arrival order.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDispatcher) Dispatch(_ context.Context, name string, raw json.RawMessage) bridge.Invocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, name+" "+string(raw))
	if name == "jump" {
		return bridge.Invocation{Name: name, Result: "Step 9 does not exist, valid steps are 1 to 3.", Rejected: true}
	}
	return bridge.Invocation{Name: name, Result: "ok " + name}
}

func (d *fakeDispatcher) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// agentServer is a scripted stand-in for the conversation endpoint.
type agentServer struct {
	*httptest.Server
	frames chan map[string]any
	conns  chan *websocket.Conn
}

func newAgentServer(t *testing.T) *agentServer {
	t.Helper()
	s := &agentServer{
		frames: make(chan map[string]any, 32),
		conns:  make(chan *websocket.Conn, 1),
	}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- ws
		for {
			var frame map[string]any
			if err := ws.ReadJSON(&frame); err != nil {
				return
			}
			s.frames <- frame
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *agentServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *agentServer) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client frame")
		return nil
	}
}

func (s *agentServer) conn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-s.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
		return nil
	}
}

func dial(t *testing.T, s *agentServer, d Dispatcher, opts ...Option) *Conn {
	t.Helper()
	setup := Setup{Prompt: "cook pasta", FirstMessage: "hi", Tools: bridge.Tools()}
	c, err := Dial(context.Background(), s.wsURL(), setup, d, logger.New(logger.LevelOff, nil), opts...)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDialSendsSetup(t *testing.T) {
	s := newAgentServer(t)
	c := dial(t, s, &fakeDispatcher{})
	s.conn(t)

	frame := s.next(t)
	if frame["type"] != "conversation_initiation_client_data" {
		t.Fatalf("first frame type = %v", frame["type"])
	}
	override := frame["conversation_config_override"].(map[string]any)["agent"].(map[string]any)
	if override["first_message"] != "hi" {
		t.Fatalf("first_message = %v", override["first_message"])
	}
	if override["prompt"].(map[string]any)["prompt"] != "cook pasta" {
		t.Fatalf("prompt = %v", override["prompt"])
	}
	if tools := frame["client_tools"].([]any); len(tools) != 5 {
		t.Fatalf("expected 5 tools, got %d", len(tools))
	}
	if !c.Connected() {
		t.Fatalf("expected connected")
	}
}

func TestToolCallsAnsweredInOrder(t *testing.T) {
	s := newAgentServer(t)
	d := &fakeDispatcher{}

	var mu sync.Mutex
	var seen []bridge.Invocation
	dial(t, s, d, WithToolCallHandler(func(inv bridge.Invocation) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, inv)
	}))
	ws := s.conn(t)
	s.next(t) // setup

	calls := []string{
		`{"type":"client_tool_call","client_tool_call":{"tool_name":"advance","tool_call_id":"c1","parameters":{}}}`,
		`{"type":"client_tool_call","client_tool_call":{"tool_name":"jump","tool_call_id":"c2","parameters":{"step":9}}}`,
		`{"type":"client_tool_call","client_tool_call":{"tool_name":"repeat","tool_call_id":"c3","parameters":{}}}`,
	}
	for _, raw := range calls {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("server write: %v", err)
		}
	}

	wantIDs := []string{"c1", "c2", "c3"}
	for i, id := range wantIDs {
		frame := s.next(t)
		if frame["type"] != "client_tool_result" || frame["tool_call_id"] != id {
			t.Fatalf("result %d = %v", i, frame)
		}
		if id == "c2" {
			if frame["is_error"] != true || !strings.Contains(frame["result"].(string), "1 to 3") {
				t.Fatalf("rejected jump result = %v", frame)
			}
		}
	}

	got := d.names()
	if len(got) != 3 || !strings.HasPrefix(got[0], "advance") || got[1] != `jump {"step":9}` || !strings.HasPrefix(got[2], "repeat") {
		t.Fatalf("dispatch order = %v", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("expected 3 tool call records, got %d", len(seen))
	}
}

func TestPingPong(t *testing.T) {
	s := newAgentServer(t)
	dial(t, s, &fakeDispatcher{})
	ws := s.conn(t)
	s.next(t)

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping","ping_event":{"event_id":42,"ping_ms":10}}`))

	frame := s.next(t)
	if frame["type"] != "pong" || frame["event_id"] != float64(42) {
		t.Fatalf("pong = %v", frame)
	}
}

func TestTranscripts(t *testing.T) {
	s := newAgentServer(t)
	got := make(chan Transcript, 2)
	c := dial(t, s, &fakeDispatcher{}, WithTranscriptHandler(func(tr Transcript) { got <- tr }))
	ws := s.conn(t)
	s.next(t)

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"conversation_initiation_metadata","conversation_initiation_metadata_event":{"conversation_id":"conv-1"}}`))
	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"user_transcript","user_transcription_event":{"user_transcript":"what next"}}`))
	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"agent_response","agent_response_event":{"agent_response":"Drain the pasta."}}`))

	want := []Transcript{{RoleUser, "what next"}, {RoleAgent, "Drain the pasta."}}
	for _, w := range want {
		select {
		case tr := <-got:
			if tr != w {
				t.Fatalf("transcript = %+v, want %+v", tr, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("transcript not delivered")
		}
	}
	if c.ConversationID() != "conv-1" {
		t.Fatalf("conversation id = %q", c.ConversationID())
	}
}

func TestContextualUpdate(t *testing.T) {
	s := newAgentServer(t)
	c := dial(t, s, &fakeDispatcher{})
	s.conn(t)
	s.next(t)

	if err := c.SendContextualUpdate(context.Background(), "user moved to step 2"); err != nil {
		t.Fatalf("send: %v", err)
	}
	frame := s.next(t)
	if frame["type"] != "contextual_update" || frame["text"] != "user moved to step 2" {
		t.Fatalf("frame = %v", frame)
	}

	if err := c.SendUserMessage(context.Background(), "how long?"); err != nil {
		t.Fatalf("send user message: %v", err)
	}
	frame = s.next(t)
	if frame["type"] != "user_message" || frame["text"] != "how long?" {
		t.Fatalf("frame = %v", frame)
	}
}

func TestServerCloseDisconnects(t *testing.T) {
	s := newAgentServer(t)
	c := dial(t, s, &fakeDispatcher{})
	ws := s.conn(t)
	s.next(t)

	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit")
	}
	if c.Connected() {
		t.Fatalf("still connected after close")
	}
	if err := c.Err(); err != nil {
		t.Fatalf("normal close reported error: %v", err)
	}
	if err := c.SendContextualUpdate(context.Background(), "x"); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/nope", Setup{}, &fakeDispatcher{}, logger.New(logger.LevelOff, nil))
	if err == nil {
		t.Fatal("expected dial error")
	}
}
