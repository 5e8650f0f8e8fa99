// Package timer implements the countdown timer registry: a set of
// independently labelled timers driven by one background loop, with
// pause/resume/cancel and at-most-once completion callbacks.
package timer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// View is a read-only copy of one timer.
type View struct {
	ID        string
	Label     string
	Duration  time.Duration
	Remaining time.Duration
	IsActive  bool
	IsPaused  bool
}

// Done reports whether the timer ran to zero.
func (v View) Done() bool {
	return !v.IsActive && v.Remaining == 0
}

// Option configures the registry.
type Option func(*Registry)

// WithTickInterval sets how often the driver wakes up to evaluate timers.
// Evaluations are still applied once per elapsed wall-clock second; a
// shorter interval only reduces latency. Zero disables the driver so the
// caller advances time with Tick.
func WithTickInterval(d time.Duration) Option {
	return func(r *Registry) {
		r.tickInterval = d
	}
}

// WithClock replaces the wall clock used by the driver.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

type entry struct {
	view   View
	anchor time.Time     // start of the current, not yet applied second
	carry  time.Duration // part of that second already spent when paused
}

// Registry owns all live timers of one cooking session.
type Registry struct {
	log          *logger.Logger
	tickInterval time.Duration
	now          func() time.Time

	// emitMu is held from a state change until its callbacks have run, so
	// a Cancel cannot slip between an evaluation and its completions.
	emitMu sync.Mutex

	mu      sync.Mutex
	timers  map[string]*entry
	order   []string
	closed  bool
	running bool
	cancel  context.CancelFunc

	updates   listeners[[]View]
	completes listeners[View]
}

// New creates a timer registry with the given options.
func New(log *logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		log:          log,
		tickInterval: 250 * time.Millisecond,
		now:          time.Now,
		timers:       make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ── Lifecycle ────────────────────────────────────────────────────

// Create starts a new active countdown of the given length in minutes and
// returns its id. Non-positive or sub-second durations are rejected.
func (r *Registry) Create(label string, minutes float64) (string, error) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return "", fmt.Errorf("%v minutes: %w", minutes, domain.ErrInvalidDuration)
	}
	d := time.Duration(minutes * float64(time.Minute)).Round(time.Second)
	if d < time.Second {
		return "", fmt.Errorf("%v minutes: %w", minutes, domain.ErrInvalidDuration)
	}

	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", domain.ErrClosed
	}
	id := "timer-" + uuid.NewString()
	r.timers[id] = &entry{
		view: View{
			ID:        id,
			Label:     label,
			Duration:  d,
			Remaining: d,
			IsActive:  true,
		},
		anchor: r.now(),
	}
	r.order = append(r.order, id)
	r.ensureDriverLocked()
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("timer %s created: %q for %s", id, label, d)
	r.updates.emit(snap)
	return id, nil
}

// Pause freezes the countdown. Unknown, inactive or already paused timers
// are left as they are.
func (r *Registry) Pause(id string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	e, ok := r.timers[id]
	if !ok || !e.view.IsActive || e.view.IsPaused {
		r.mu.Unlock()
		return
	}
	e.view.IsPaused = true
	e.carry = r.now().Sub(e.anchor)
	if e.carry < 0 || e.carry >= time.Second {
		e.carry = 0
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Debug("timer %s paused at %s", id, e.view.Remaining)
	r.updates.emit(snap)
}

// Resume continues a paused countdown from where it stopped.
func (r *Registry) Resume(id string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	e, ok := r.timers[id]
	if !ok || !e.view.IsActive || !e.view.IsPaused {
		r.mu.Unlock()
		return
	}
	e.view.IsPaused = false
	e.anchor = r.now().Add(-e.carry)
	e.carry = 0
	r.ensureDriverLocked()
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Debug("timer %s resumed at %s", id, e.view.Remaining)
	r.updates.emit(snap)
}

// Cancel removes a timer. A cancelled timer never completes.
func (r *Registry) Cancel(id string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if _, ok := r.timers[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.timers, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Debug("timer %s cancelled", id)
	r.updates.emit(snap)
}

// Cleanup stops the driver and drops every timer and listener. The
// registry refuses new timers afterwards. Safe to call more than once.
func (r *Registry) Cleanup() {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.running = false
	n := len(r.timers)
	r.timers = make(map[string]*entry)
	r.order = nil
	r.mu.Unlock()

	r.updates.clear()
	r.completes.clear()
	r.log.Info("timer registry cleaned up (%d timers dropped)", n)
}

// ── Queries and subscriptions ────────────────────────────────────

// Timers returns every registered timer in creation order.
func (r *Registry) Timers() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Get returns one timer by id.
func (r *Registry) Get(id string) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.timers[id]
	if !ok {
		return View{}, false
	}
	return e.view, true
}

// OnUpdate registers fn to receive the full timer list after every change.
// Callbacks may read the registry but must not change it synchronously.
func (r *Registry) OnUpdate(fn func([]View)) (unsubscribe func()) {
	return r.updates.add(fn)
}

// OnComplete registers fn to be called once for every timer that reaches zero.
// The same restriction as OnUpdate applies.
func (r *Registry) OnComplete(fn func(View)) (unsubscribe func()) {
	return r.completes.add(fn)
}

// ── Evaluation ───────────────────────────────────────────────────

// Tick applies one one-second evaluation to every active, unpaused timer.
func (r *Registry) Tick() {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	var changed bool
	var done []View
	for _, id := range r.order {
		e := r.timers[id]
		if !e.view.IsActive || e.view.IsPaused {
			continue
		}
		changed = true
		if r.decrementLocked(e) {
			done = append(done, e.view)
		}
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.dispatch(changed, done, snap)
}

// advance applies one evaluation per whole second elapsed since each
// timer's anchor, so a late wake-up catches up instead of drifting.
func (r *Registry) advance(now time.Time) (keepRunning bool) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	var changed bool
	var done []View
	for _, id := range r.order {
		e := r.timers[id]
		if !e.view.IsActive || e.view.IsPaused {
			continue
		}
		for now.Sub(e.anchor) >= time.Second && e.view.IsActive {
			e.anchor = e.anchor.Add(time.Second)
			changed = true
			if r.decrementLocked(e) {
				done = append(done, e.view)
			}
		}
	}
	snap := r.snapshotLocked()
	keepRunning = r.tickingLocked()
	if !keepRunning {
		r.running = false
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
	}
	r.mu.Unlock()

	r.dispatch(changed, done, snap)
	return keepRunning
}

// decrementLocked takes one second off e and reports whether it just
// reached zero.
func (r *Registry) decrementLocked(e *entry) bool {
	e.view.Remaining -= time.Second
	if e.view.Remaining > 0 {
		return false
	}
	e.view.Remaining = 0
	e.view.IsActive = false
	return true
}

// dispatch fires completions first, then a single update with the state
// as it was at the end of the evaluation.
func (r *Registry) dispatch(changed bool, done []View, snap []View) {
	for _, v := range done {
		r.log.Info("timer %s (%q) complete", v.ID, v.Label)
		r.completes.emit(v)
	}
	if changed {
		r.updates.emit(snap)
	}
}

// ── Driver ───────────────────────────────────────────────────────

func (r *Registry) ensureDriverLocked() {
	if r.running || r.closed || r.tickInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.running = true
	go r.loop(ctx)
	r.log.Debug("timer driver started (interval=%s)", r.tickInterval)
}

// loop is the driver goroutine. It exits on Cleanup or once no timer is
// counting down; Create and Resume start it again when needed.
func (r *Registry) loop(ctx context.Context) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.advance(r.now()) {
				r.log.Debug("timer driver idle, stopping")
				return
			}
		}
	}
}

func (r *Registry) tickingLocked() bool {
	for _, e := range r.timers {
		if e.view.IsActive && !e.view.IsPaused {
			return true
		}
	}
	return false
}

func (r *Registry) snapshotLocked() []View {
	out := make([]View, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.timers[id].view)
	}
	return out
}
