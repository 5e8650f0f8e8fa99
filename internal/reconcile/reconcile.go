// Package reconcile keeps the remote agent's idea of the current step in
// line with the local session. User moves are announced once; moves the
// agent made itself are never echoed back.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// Channel is the outbound side of the agent connection.
type Channel interface {
	Connected() bool
	SendContextualUpdate(ctx context.Context, text string) error
}

// Subscriber is the step-change source, normally a session.Store.
type Subscriber interface {
	Subscribe(fn func(domain.StepChange)) (unsubscribe func())
}

// Stats counts what the reconciler did with each change.
type Stats struct {
	Sent       int
	Suppressed int
	Dropped    int
}

// Reconciler announces user-made step changes to the agent.
type Reconciler struct {
	channel Channel
	log     *logger.Logger

	mu    sync.Mutex
	stats Stats
	unsub func()
}

// New creates a reconciler writing to channel.
func New(channel Channel, log *logger.Logger) *Reconciler {
	return &Reconciler{channel: channel, log: log}
}

// Attach starts observing src. Calling Attach again replaces the previous
// subscription.
func (r *Reconciler) Attach(src Subscriber) {
	unsub := src.Subscribe(r.Handle)

	r.mu.Lock()
	prev := r.unsub
	r.unsub = unsub
	r.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach stops observing. Safe to call more than once.
func (r *Reconciler) Detach() {
	r.mu.Lock()
	unsub := r.unsub
	r.unsub = nil
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Handle processes one step change.
func (r *Reconciler) Handle(ch domain.StepChange) {
	ctx, span := tracer.Start(context.Background(), "reconcile step change")
	defer span.End()
	span.SetAttributes(
		attribute.Int("step.number", ch.Number()),
		attribute.String("step.provenance", ch.Provenance.String()),
	)

	if ch.Provenance == domain.ProvenanceAgent {
		r.count(func(s *Stats) { s.Suppressed++ })
		suppressedCounter.Add(ctx, 1)
		span.AddEvent("suppressed", trace.WithAttributes(attribute.Bool("step.repeat", ch.Repeat())))
		return
	}

	if r.channel == nil || !r.channel.Connected() {
		r.count(func(s *Stats) { s.Dropped++ })
		droppedCounter.Add(ctx, 1)
		span.AddEvent("dropped", trace.WithAttributes(attribute.String("reason", "not connected")))
		r.log.Debug("agent not connected, dropping update for step %d", ch.Number())
		return
	}

	if err := r.channel.SendContextualUpdate(ctx, Message(ch)); err != nil {
		r.count(func(s *Stats) { s.Dropped++ })
		droppedCounter.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Warn("contextual update for step %d dropped: %v", ch.Number(), err)
		return
	}

	r.count(func(s *Stats) { s.Sent++ })
	sentCounter.Add(ctx, 1)
	r.log.Debug("announced user move to step %d", ch.Number())
}

// Stats returns the counts so far.
func (r *Reconciler) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Reconciler) count(fn func(*Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.stats)
}

// Message builds the contextual update for a user step change.
func Message(ch domain.StepChange) string {
	var b strings.Builder
	if ch.Repeat() {
		fmt.Fprintf(&b, "The user asked to hear step %d of %d again on screen.", ch.Number(), ch.TotalSteps)
	} else {
		fmt.Fprintf(&b, "The user moved to step %d of %d on screen.", ch.Number(), ch.TotalSteps)
	}
	b.WriteString(" The step has already changed, so do not call any navigation tool.")
	if ch.Completed {
		b.WriteString(" The user already marked this step as complete.")
	}
	fmt.Fprintf(&b, " Read this step aloud: %s", ch.Instruction)
	return b.String()
}
