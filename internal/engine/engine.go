// Package engine assembles and tracks cooking sessions. Each session owns
// its step store, timer registry, agent bridge and reconciler; the engine
// wires them together and exposes the user-facing controls.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
	"github.com/wokai/wokcook/internal/reconcile"
	"github.com/wokai/wokcook/internal/recipe"
	"github.com/wokai/wokcook/internal/session"
	"github.com/wokai/wokcook/internal/timer"
)

// Option configures the engine.
type Option func(*Engine)

// WithTickInterval sets the timer driver wake-up interval for new
// sessions. Zero leaves timers to be driven by Session.Timers.Tick.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.tickInterval = d
	}
}

// WithClock replaces the wall clock used by session timers.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithNotifier sets where timer completions are reported.
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// Engine manages cooking sessions. It depends only on interfaces and is
// fully testable with fakes.
type Engine struct {
	recipes      domain.RecipeSource
	notifier     domain.Notifier
	log          *logger.Logger
	tickInterval time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a cooking engine with the given dependencies and options.
func New(recipes domain.RecipeSource, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		recipes:      recipes,
		log:          log,
		tickInterval: 250 * time.Millisecond,
		now:          time.Now,
		sessions:     make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListRecipes returns all available recipes.
func (e *Engine) ListRecipes(ctx context.Context) ([]domain.RecipeSummary, error) {
	return e.recipes.List(ctx)
}

// GetRecipe returns a full recipe by ID.
func (e *Engine) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	return e.recipes.Get(ctx, id)
}

// ── Session lifecycle ────────────────────────────────────────────

// StartSession begins a new cooking session for the recipe with the given ID.
func (e *Engine) StartSession(ctx context.Context, recipeID string) (*Session, error) {
	r, err := e.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	return e.StartRecipe(ctx, r)
}

// StartRecipe begins a new cooking session for an already loaded recipe.
func (e *Engine) StartRecipe(ctx context.Context, r *domain.Recipe) (*Session, error) {
	if err := recipe.Validate(r); err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	id := uuid.NewString()
	log := e.log.Named("session " + id[:8])

	store := session.NewStore(r)
	timers := timer.New(log.Named("timer"),
		timer.WithTickInterval(e.tickInterval),
		timer.WithClock(e.now),
	)

	s := &Session{
		ID:      id,
		Recipe:  r,
		Store:   store,
		Timers:  timers,
		Bridge:  bridge.New(store, timers, log.Named("bridge")),
		channel: &channelSlot{},
	}
	s.Reconciler = reconcile.New(s.channel, log.Named("reconcile"))
	s.Reconciler.Attach(store)

	unsubComplete := timers.OnComplete(func(v timer.View) {
		e.timerDone(s, v)
	})

	s.cleanups = []func(){
		s.Reconciler.Detach,
		unsubComplete,
		timers.Cleanup,
		store.Close,
	}

	e.mu.Lock()
	e.sessions[id] = s
	e.mu.Unlock()

	e.log.Info("started session %s for recipe %q (%d steps)", id, r.Title, len(r.Steps))
	return s, nil
}

// Get returns a live session.
func (e *Engine) Get(sessionID string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return s, nil
}

// End tears the session down: the reconciler stops observing, all timers
// are released and the agent channel is detached. Ending an unknown or
// already ended session is a no-op.
func (e *Engine) End(sessionID string) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	delete(e.sessions, sessionID)
	e.mu.Unlock()

	if ok && s.close() {
		st := s.Reconciler.Stats()
		e.log.Info("ended session %s (sent=%d suppressed=%d dropped=%d)",
			sessionID, st.Sent, st.Suppressed, st.Dropped)
	}
}

// Shutdown ends every live session.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.End(id)
	}
}

// ── User navigation ──────────────────────────────────────────────

// Next moves to the following step. At the last step it returns
// domain.ErrNoMoreSteps and changes nothing.
func (e *Engine) Next(ctx context.Context, sessionID string) (domain.StepChange, error) {
	s, err := e.Get(sessionID)
	if err != nil {
		return domain.StepChange{}, err
	}
	ch, ok := s.Store.Move(1, domain.ProvenanceUser)
	if !ok {
		return domain.StepChange{}, domain.ErrNoMoreSteps
	}
	return ch, nil
}

// Prev moves to the previous step. At the first step it returns
// domain.ErrNoMoreSteps and changes nothing.
func (e *Engine) Prev(ctx context.Context, sessionID string) (domain.StepChange, error) {
	s, err := e.Get(sessionID)
	if err != nil {
		return domain.StepChange{}, err
	}
	ch, ok := s.Store.Move(-1, domain.ProvenanceUser)
	if !ok {
		return domain.StepChange{}, domain.ErrNoMoreSteps
	}
	return ch, nil
}

// Repeat re-announces the current step.
func (e *Engine) Repeat(ctx context.Context, sessionID string) (domain.StepChange, error) {
	s, err := e.Get(sessionID)
	if err != nil {
		return domain.StepChange{}, err
	}
	ch, ok := s.Store.Move(0, domain.ProvenanceUser)
	if !ok {
		return domain.StepChange{}, domain.ErrNoMoreSteps
	}
	return ch, nil
}

// Navigate moves to a 0-based step index, clamped into range.
func (e *Engine) Navigate(ctx context.Context, sessionID string, index int) (domain.StepChange, error) {
	s, err := e.Get(sessionID)
	if err != nil {
		return domain.StepChange{}, err
	}
	return s.Store.SetStep(index, domain.ProvenanceUser), nil
}

// ToggleCompleted flips the completion mark of a 0-based step index and
// reports the new state. Out-of-range indices are ignored.
func (e *Engine) ToggleCompleted(ctx context.Context, sessionID string, index int) (bool, error) {
	s, err := e.Get(sessionID)
	if err != nil {
		return false, err
	}
	return s.Store.ToggleCompleted(index), nil
}

// ── Timers ───────────────────────────────────────────────────────

// StartTimer creates a timer labelled after the current step.
func (e *Engine) StartTimer(ctx context.Context, sessionID string, minutes float64) (timer.View, error) {
	s, err := e.Get(sessionID)
	if err != nil {
		return timer.View{}, err
	}
	id, err := s.Timers.Create(fmt.Sprintf("Step %d", s.Store.CurrentStep()+1), minutes)
	if err != nil {
		return timer.View{}, err
	}
	v, _ := s.Timers.Get(id)
	return v, nil
}

// PauseTimer pauses one timer of the session.
func (e *Engine) PauseTimer(ctx context.Context, sessionID, timerID string) error {
	return e.withTimers(sessionID, func(r *timer.Registry) { r.Pause(timerID) })
}

// ResumeTimer resumes one timer of the session.
func (e *Engine) ResumeTimer(ctx context.Context, sessionID, timerID string) error {
	return e.withTimers(sessionID, func(r *timer.Registry) { r.Resume(timerID) })
}

// CancelTimer cancels a running timer or dismisses a finished one.
func (e *Engine) CancelTimer(ctx context.Context, sessionID, timerID string) error {
	return e.withTimers(sessionID, func(r *timer.Registry) { r.Cancel(timerID) })
}

func (e *Engine) withTimers(sessionID string, fn func(*timer.Registry)) error {
	s, err := e.Get(sessionID)
	if err != nil {
		return err
	}
	fn(s.Timers)
	return nil
}

func (e *Engine) timerDone(s *Session, v timer.View) {
	if e.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Timer for %s is done (%s).", v.Label, v.Duration)
	if err := e.notifier.NotifyUrgent(context.Background(), msg); err != nil {
		e.log.Warn("session %s: timer notification failed: %v", s.ID, err)
	}
}
