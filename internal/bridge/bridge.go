// Package bridge exposes the fixed set of operations the remote agent may
// invoke. Every call reads the live session state, mutates it with agent
// provenance and returns one speakable result string. Calls never fail:
// bad input is reported in the result text.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// Steps is the slice of the session store the bridge drives.
type Steps interface {
	CurrentStep() int
	TotalSteps() int
	Instruction(index int) string
	SetStep(index int, p domain.Provenance) domain.StepChange
	Move(delta int, p domain.Provenance) (domain.StepChange, bool)
}

// Timers creates countdown timers.
type Timers interface {
	Create(label string, minutes float64) (string, error)
}

// Invocation records one tool call and its result.
type Invocation struct {
	Name      string
	Arguments any
	Result    string
	Rejected  bool // the call was refused and nothing was mutated
}

// Bridge dispatches agent tool calls onto the session.
type Bridge struct {
	steps  Steps
	timers Timers
	log    *logger.Logger
}

// New creates a bridge over the given session store and timer registry.
func New(steps Steps, timers Timers, log *logger.Logger) *Bridge {
	return &Bridge{steps: steps, timers: timers, log: log}
}

// Dispatch runs the named tool with raw JSON arguments. It always returns
// exactly one invocation record.
func (b *Bridge) Dispatch(ctx context.Context, name string, raw json.RawMessage) Invocation {
	ctx, span := tracer.Start(ctx, "dispatch tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name), attribute.String("tool.arguments", string(raw)))

	inv := b.dispatch(name, raw)

	span.SetAttributes(attribute.String("tool.result", inv.Result), attribute.Bool("tool.rejected", inv.Rejected))
	if inv.Rejected {
		span.SetStatus(codes.Error, inv.Result)
	}
	toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool.name", inv.Name),
		attribute.Bool("tool.rejected", inv.Rejected),
	))
	b.log.Debug("tool %s(%s) -> %q", name, raw, inv.Result)
	return inv
}

func (b *Bridge) dispatch(name string, raw json.RawMessage) Invocation {
	tool, ok := lookup(name)
	if !ok {
		b.log.Warn("agent called unknown tool %q", name)
		return reject(name, nil, fmt.Sprintf("Unknown tool %q.", name))
	}

	args, err := tool.decode(raw)
	if err != nil {
		b.log.Warn("tool %s: %v", name, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err))
		return reject(name, nil, fmt.Sprintf("Invalid arguments for %s: %v.", name, err))
	}

	switch a := args.(type) {
	case JumpArgs:
		return b.Jump(a.Step)
	case StartTimerArgs:
		return b.StartTimer(a.Minutes)
	}

	switch name {
	case ToolAdvance:
		return b.Advance()
	case ToolRetreat:
		return b.Retreat()
	default:
		return b.Repeat()
	}
}

// ── Operations ───────────────────────────────────────────────────

// Advance moves to the next step unless already at the last one.
func (b *Bridge) Advance() Invocation {
	ch, ok := b.steps.Move(1, domain.ProvenanceAgent)
	if !ok {
		return reject(ToolAdvance, NoArgs{}, "Already at the last step.")
	}
	return accept(ToolAdvance, NoArgs{}, fmt.Sprintf("Moved to step %d: %s", ch.Number(), ch.Instruction))
}

// Retreat moves to the previous step unless already at the first one.
func (b *Bridge) Retreat() Invocation {
	ch, ok := b.steps.Move(-1, domain.ProvenanceAgent)
	if !ok {
		return reject(ToolRetreat, NoArgs{}, "Already at the first step.")
	}
	return accept(ToolRetreat, NoArgs{}, fmt.Sprintf("Moved to step %d: %s", ch.Number(), ch.Instruction))
}

// Repeat re-announces the current step.
func (b *Bridge) Repeat() Invocation {
	ch, ok := b.steps.Move(0, domain.ProvenanceAgent)
	if !ok {
		return reject(ToolRepeat, NoArgs{}, "This recipe has no steps.")
	}
	return accept(ToolRepeat, NoArgs{}, fmt.Sprintf("Step %d: %s", ch.Number(), ch.Instruction))
}

// Jump moves to a 1-based step number. Out-of-range numbers change nothing.
func (b *Bridge) Jump(step int) Invocation {
	args := JumpArgs{Step: step}
	total := b.steps.TotalSteps()
	if total == 0 {
		return reject(ToolJump, args, "This recipe has no steps.")
	}
	if step < 1 || step > total {
		return reject(ToolJump, args, fmt.Sprintf("Step %d does not exist, valid steps are 1 to %d.", step, total))
	}
	ch := b.steps.SetStep(step-1, domain.ProvenanceAgent)
	return accept(ToolJump, args, fmt.Sprintf("Moved to step %d: %s", ch.Number(), ch.Instruction))
}

// StartTimer creates a timer labelled after the current step.
func (b *Bridge) StartTimer(minutes float64) Invocation {
	args := StartTimerArgs{Minutes: minutes}
	label := fmt.Sprintf("Step %d", b.steps.CurrentStep()+1)

	if _, err := b.timers.Create(label, minutes); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDuration):
			return reject(ToolStartTimer, args, "Timer length must be at least one second.")
		case errors.Is(err, domain.ErrClosed):
			return reject(ToolStartTimer, args, "The cooking session has ended, no timer was set.")
		default:
			b.log.Error("start timer: %v", err)
			return reject(ToolStartTimer, args, "Could not set the timer.")
		}
	}
	return accept(ToolStartTimer, args, fmt.Sprintf("Timer set for %s.", formatMinutes(minutes)))
}

func accept(name string, args any, result string) Invocation {
	return Invocation{Name: name, Arguments: args, Result: result}
}

func reject(name string, args any, result string) Invocation {
	return Invocation{Name: name, Arguments: args, Result: result, Rejected: true}
}

func formatMinutes(m float64) string {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if m == 1 {
		return s + " minute"
	}
	return s + " minutes"
}
