package agent

import (
	"encoding/json"

	"github.com/wokai/wokcook/internal/bridge"
)

// Event types on the conversation websocket.
const (
	typeInitiationClientData = "conversation_initiation_client_data"
	typeInitiationMetadata   = "conversation_initiation_metadata"
	typeClientToolCall       = "client_tool_call"
	typeClientToolResult     = "client_tool_result"
	typeContextualUpdate     = "contextual_update"
	typeUserMessage          = "user_message"
	typePing                 = "ping"
	typePong                 = "pong"
	typeAgentResponse        = "agent_response"
	typeUserTranscript       = "user_transcript"
	typeInterruption         = "interruption"
)

// ── Outbound ─────────────────────────────────────────────────────

type initiationMessage struct {
	Type     string         `json:"type"`
	Override configOverride `json:"conversation_config_override"`
	Tools    []bridge.Tool  `json:"client_tools,omitempty"`
}

type configOverride struct {
	Agent agentOverride `json:"agent"`
}

type agentOverride struct {
	Prompt       promptOverride `json:"prompt"`
	FirstMessage string         `json:"first_message,omitempty"`
}

type promptOverride struct {
	Prompt string `json:"prompt"`
}

type toolResultMessage struct {
	Type       string `json:"type"`
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pongMessage struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
}

// ── Inbound ──────────────────────────────────────────────────────

type inboundMessage struct {
	Type string `json:"type"`

	ClientToolCall *struct {
		ToolName   string          `json:"tool_name"`
		ToolCallID string          `json:"tool_call_id"`
		Parameters json.RawMessage `json:"parameters"`
	} `json:"client_tool_call,omitempty"`

	PingEvent *struct {
		EventID int64 `json:"event_id"`
		PingMS  int64 `json:"ping_ms"`
	} `json:"ping_event,omitempty"`

	AgentResponseEvent *struct {
		AgentResponse string `json:"agent_response"`
	} `json:"agent_response_event,omitempty"`

	UserTranscriptionEvent *struct {
		UserTranscript string `json:"user_transcript"`
	} `json:"user_transcription_event,omitempty"`

	InitiationMetadataEvent *struct {
		ConversationID string `json:"conversation_id"`
	} `json:"conversation_initiation_metadata_event,omitempty"`
}
