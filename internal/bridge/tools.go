package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Canonical tool names exposed to the remote agent.
const (
	ToolAdvance    = "advance"
	ToolRetreat    = "retreat"
	ToolRepeat     = "repeat"
	ToolJump       = "jump"
	ToolStartTimer = "startTimer"
)

// NoArgs is the argument shape of advance, retreat and repeat.
type NoArgs struct{}

// JumpArgs is the argument shape of jump.
type JumpArgs struct {
	Step int `json:"step" jsonschema:"required,minimum=1,description=1-based step number to jump to"`
}

// StartTimerArgs is the argument shape of startTimer.
type StartTimerArgs struct {
	Minutes float64 `json:"minutes" jsonschema:"required,exclusiveMinimum=0,description=Timer length in minutes"`
}

// Tool describes one agent-callable operation.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`

	args     reflect.Type
	required []string
}

var tools = []Tool{
	newTool(ToolAdvance, "Move to the next recipe step and read it aloud.", NoArgs{}),
	newTool(ToolRetreat, "Move back to the previous recipe step and read it aloud.", NoArgs{}),
	newTool(ToolRepeat, "Read the current recipe step again.", NoArgs{}),
	newTool(ToolJump, "Jump directly to a recipe step by its 1-based number.", JumpArgs{}, "step"),
	newTool(ToolStartTimer, "Start a countdown timer for the current step.", StartTimerArgs{}, "minutes"),
}

func newTool(name, description string, args any, required ...string) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(args)
	schema.Version = ""
	schema.Title = name
	schema.Description = description
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		args:        reflect.TypeOf(args),
		required:    required,
	}
}

// Tools returns the fixed tool table in declaration order.
func Tools() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

func lookup(name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// decode strictly parses raw into a new value of the tool's argument type.
// Unknown fields, wrong types and missing required keys are rejected.
func (t Tool) decode(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	for _, key := range t.required {
		v, ok := present[key]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("missing required argument %q", key)
		}
	}

	ptr := reflect.New(t.args)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
