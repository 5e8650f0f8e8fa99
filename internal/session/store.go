// Package session holds the authoritative step state of one cooking
// session: the current step, the completed-step set and the fixed step
// count. Every position change is published with its provenance so the
// reconciler can tell user moves from agent moves.
package session

import (
	"sync"

	"github.com/jinzhu/copier"

	"github.com/wokai/wokcook/internal/domain"
)

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Recipe      domain.Recipe
	CurrentStep int
	TotalSteps  int
	Completed   map[int]bool
}

// Store is the session state store. It is safe for concurrent use.
// Step changes are delivered to subscribers in mutation order; a
// subscriber must not call SetStep or Move synchronously.
type Store struct {
	emitMu sync.Mutex // serializes step changes so events keep mutation order

	mu        sync.RWMutex
	recipe    *domain.Recipe
	current   int
	completed map[int]bool

	subMu   sync.Mutex
	nextSub int
	subs    []subscriber
}

type subscriber struct {
	id int
	fn func(domain.StepChange)
}

// NewStore creates a store positioned at the first step of recipe.
func NewStore(recipe *domain.Recipe) *Store {
	return &Store{
		recipe:    recipe,
		completed: make(map[int]bool),
	}
}

// SetStep moves to index, clamped into the valid range, and publishes a
// step change tagged with p. Setting the current index again is a repeat
// and is published as well.
func (s *Store) SetStep(index int, p domain.Provenance) domain.StepChange {
	ch, _ := s.update(func(int) (int, bool) { return index, true }, p)
	return ch
}

// Move shifts the current step by delta and publishes the change. The
// read and the write happen as one turn, so concurrent moves from the
// user and the agent both land. A move that would leave the step range
// changes and publishes nothing and reports false. Move(0, p) repeats
// the current step.
func (s *Store) Move(delta int, p domain.Provenance) (domain.StepChange, bool) {
	return s.update(func(cur int) (int, bool) {
		next := cur + delta
		if next < 0 || next >= len(s.recipe.Steps) {
			return cur, false
		}
		return next, true
	}, p)
}

// update computes the target index from the current one and publishes
// the change, all while holding emitMu.
func (s *Store) update(target func(cur int) (int, bool), p domain.Provenance) (domain.StepChange, bool) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	index, ok := target(s.current)
	if !ok {
		s.mu.Unlock()
		return domain.StepChange{}, false
	}
	index = s.clamp(index)
	change := domain.StepChange{
		Index:       index,
		Previous:    s.current,
		TotalSteps:  len(s.recipe.Steps),
		Instruction: s.recipe.Instruction(index),
		Completed:   s.completed[index],
		Provenance:  p,
	}
	s.current = index
	s.mu.Unlock()

	for _, fn := range s.subscribers() {
		fn(change)
	}
	return change, true
}

// ToggleCompleted flips the completion mark of step index. Out-of-range
// indices are ignored. It does not publish a step change.
func (s *Store) ToggleCompleted(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.recipe.Steps) {
		return false
	}
	if s.completed[index] {
		delete(s.completed, index)
		return false
	}
	s.completed[index] = true
	return true
}

// CurrentStep returns the 0-based current step index.
func (s *Store) CurrentStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsCompleted reports whether step index is marked complete.
func (s *Store) IsCompleted(index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed[index]
}

// TotalSteps returns the number of steps in the recipe.
func (s *Store) TotalSteps() int {
	return len(s.recipe.Steps)
}

// Instruction returns the text of step index, or "" when out of range.
func (s *Store) Instruction(index int) string {
	return s.recipe.Instruction(index)
}

// Recipe returns the recipe the session was started with.
func (s *Store) Recipe() *domain.Recipe {
	return s.recipe
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := Snapshot{
		Recipe:      *s.recipe,
		CurrentStep: s.current,
		TotalSteps:  len(s.recipe.Steps),
		Completed:   s.completed,
	}
	var out Snapshot
	if err := copier.CopyWithOption(&out, &src, copier.Option{DeepCopy: true}); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

// Subscribe registers fn for every step change and returns a func that
// removes it.
func (s *Store) Subscribe(fn func(domain.StepChange)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Close drops every subscriber.
func (s *Store) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = nil
}

func (s *Store) subscribers() []func(domain.StepChange) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	fns := make([]func(domain.StepChange), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	return fns
}

func (s *Store) clamp(index int) int {
	n := len(s.recipe.Steps)
	if index < 0 || n == 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}
