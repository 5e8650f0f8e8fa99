package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
	"github.com/wokai/wokcook/internal/recipe"
)

// mockNotifier collects notifications for testing.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	urgent   []string
}

func (m *mockNotifier) Notify(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockNotifier) NotifyUrgent(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urgent = append(m.urgent, msg)
	return nil
}

func (m *mockNotifier) urgentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urgent)
}

// mockChannel records contextual updates sent to the agent.
type mockChannel struct {
	mu        sync.Mutex
	connected bool
	sent      []string
}

func (c *mockChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *mockChannel) SendContextualUpdate(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *mockChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func setupEngine(t *testing.T) (*Engine, *mockNotifier) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	notifier := &mockNotifier{}
	eng := New(recipe.NewMemorySource(log), log, WithTickInterval(0), WithNotifier(notifier))
	t.Cleanup(eng.Shutdown)
	return eng, notifier
}

func startWithSteps(t *testing.T, eng *Engine, steps ...string) (*Session, *mockChannel) {
	t.Helper()
	s, err := eng.StartRecipe(context.Background(), &domain.Recipe{
		ID:          "test",
		Title:       "Test",
		Ingredients: []string{"water"},
		Steps:       steps,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ch := &mockChannel{connected: true}
	s.AttachChannel(ch)
	return s, ch
}

func dispatch(s *Session, name, args string) bridge.Invocation {
	return s.Dispatch(context.Background(), name, json.RawMessage(args))
}

func TestStartSession(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()

	s, err := eng.StartSession(ctx, "garlic-spaghetti")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Store.CurrentStep() != 0 {
		t.Fatalf("expected step 0, got %d", s.Store.CurrentStep())
	}
	if got, err := eng.Get(s.ID); err != nil || got != s {
		t.Fatalf("get: %v", err)
	}

	if _, err := eng.StartSession(ctx, "nonexistent"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := eng.StartRecipe(ctx, &domain.Recipe{Title: "empty"}); !errors.Is(err, domain.ErrInvalidRecipe) {
		t.Fatalf("expected ErrInvalidRecipe, got %v", err)
	}
}

func TestBoilPastaTimer(t *testing.T) {
	eng, notifier := setupEngine(t)
	s, _ := startWithSteps(t, eng, "Boil pasta", "Drain")

	id, err := s.Timers.Create("Boil pasta", 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 60; i++ {
		s.Timers.Tick()
	}

	v, ok := s.Timers.Get(id)
	if !ok {
		t.Fatal("timer gone after completion")
	}
	if v.Remaining != 0 || v.IsActive {
		t.Fatalf("remaining=%s active=%v", v.Remaining, v.IsActive)
	}
	if notifier.urgentCount() != 1 {
		t.Fatalf("expected 1 completion notification, got %d", notifier.urgentCount())
	}
	if !strings.Contains(notifier.urgent[0], "Boil pasta") {
		t.Fatalf("notification = %q", notifier.urgent[0])
	}
}

func TestAgentJumpOutOfRange(t *testing.T) {
	eng, _ := setupEngine(t)
	s, ch := startWithSteps(t, eng, "a", "b", "c")

	inv := dispatch(s, "jump", `{"step":5}`)
	if !strings.Contains(inv.Result, "1 to 3") {
		t.Fatalf("result = %q", inv.Result)
	}
	if s.Store.CurrentStep() != 0 {
		t.Fatalf("state mutated: step %d", s.Store.CurrentStep())
	}
	if ch.count() != 0 {
		t.Fatalf("rejected jump produced %d messages", ch.count())
	}
}

func TestUserNextTwice(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	s, ch := startWithSteps(t, eng, "a", "b", "c", "d")

	for i := 0; i < 2; i++ {
		if _, err := eng.Next(ctx, s.ID); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	if s.Store.CurrentStep() != 2 {
		t.Fatalf("step = %d, want 2", s.Store.CurrentStep())
	}
	if ch.count() != 2 {
		t.Fatalf("expected 2 reconciliation messages, got %d", ch.count())
	}
	if !strings.Contains(ch.sent[1], "step 3 of 4") {
		t.Fatalf("second message = %q", ch.sent[1])
	}
}

func TestUserNextAndAgentAdvanceBothLand(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	s, _ := startWithSteps(t, eng, "a", "b", "c")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.Store.Subscribe(func(domain.StepChange) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})

	go eng.Repeat(ctx, s.ID)
	<-entered

	var wg sync.WaitGroup
	var nextErr error
	var inv bridge.Invocation
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, nextErr = eng.Next(ctx, s.ID)
	}()
	go func() {
		defer wg.Done()
		inv = dispatch(s, "advance", `{}`)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if nextErr != nil {
		t.Fatalf("next: %v", nextErr)
	}
	if inv.Rejected {
		t.Fatalf("advance rejected: %q", inv.Result)
	}
	if got := s.Store.CurrentStep(); got != 2 {
		t.Fatalf("step = %d, want 2", got)
	}
}

func TestAgentAdvanceAtLastStep(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	s, ch := startWithSteps(t, eng, "a", "b", "c")

	if _, err := eng.Navigate(ctx, s.ID, 2); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	sentBefore := ch.count()

	inv := dispatch(s, "advance", `{}`)
	if inv.Result != "Already at the last step." {
		t.Fatalf("result = %q", inv.Result)
	}
	if s.Store.CurrentStep() != 2 || ch.count() != sentBefore {
		t.Fatalf("rejected advance changed state or sent messages")
	}
}

func TestPauseResumeKeepsRemaining(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	s, _ := startWithSteps(t, eng, "a")

	v, err := eng.StartTimer(ctx, s.ID, 1)
	if err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if v.Label != "Step 1" {
		t.Fatalf("label = %q", v.Label)
	}

	for i := 0; i < 15; i++ {
		s.Timers.Tick()
	}
	eng.PauseTimer(ctx, s.ID, v.ID)
	s.Timers.Tick()
	eng.ResumeTimer(ctx, s.ID, v.ID)

	got, _ := s.Timers.Get(v.ID)
	if got.Remaining != 45*time.Second {
		t.Fatalf("remaining = %s, want 45s", got.Remaining)
	}
}

func TestCancelNeverCompletes(t *testing.T) {
	eng, notifier := setupEngine(t)
	ctx := context.Background()
	s, _ := startWithSteps(t, eng, "a")

	v, _ := eng.StartTimer(ctx, s.ID, 1.0/60)
	eng.CancelTimer(ctx, s.ID, v.ID)
	for i := 0; i < 3; i++ {
		s.Timers.Tick()
	}

	if notifier.urgentCount() != 0 {
		t.Fatalf("cancelled timer completed")
	}
}

func TestAgentNavigationIsNotEchoed(t *testing.T) {
	eng, _ := setupEngine(t)
	s, ch := startWithSteps(t, eng, "a", "b", "c")

	dispatch(s, "advance", `{}`)
	dispatch(s, "repeat", `{}`)
	dispatch(s, "jump", `{"step":3}`)
	dispatch(s, "retreat", `{}`)

	if s.Store.CurrentStep() != 1 {
		t.Fatalf("step = %d, want 1", s.Store.CurrentStep())
	}
	if ch.count() != 0 {
		t.Fatalf("agent changes produced %d messages", ch.count())
	}
	if st := s.Reconciler.Stats(); st.Suppressed != 4 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestUserBoundaries(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	s, ch := startWithSteps(t, eng, "a", "b")

	if _, err := eng.Prev(ctx, s.ID); !errors.Is(err, domain.ErrNoMoreSteps) {
		t.Fatalf("prev at first: %v", err)
	}
	eng.Next(ctx, s.ID)
	if _, err := eng.Next(ctx, s.ID); !errors.Is(err, domain.ErrNoMoreSteps) {
		t.Fatalf("next at last: %v", err)
	}
	if ch.count() != 1 {
		t.Fatalf("expected only the successful move to be announced, got %d", ch.count())
	}

	// Navigate clamps.
	change, _ := eng.Navigate(ctx, s.ID, 10)
	if change.Index != 1 {
		t.Fatalf("navigate clamped to %d", change.Index)
	}
}

func TestUserRepeatAndCompletion(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	s, ch := startWithSteps(t, eng, "a", "b")

	done, _ := eng.ToggleCompleted(ctx, s.ID, 0)
	if !done {
		t.Fatalf("toggle should mark step 1 complete")
	}
	if ch.count() != 0 {
		t.Fatalf("toggle must not reconcile")
	}

	eng.Repeat(ctx, s.ID)
	if ch.count() != 1 || !strings.Contains(ch.sent[0], "already marked this step as complete") {
		t.Fatalf("repeat message = %v", ch.sent)
	}
}

func TestDisconnectedAgentKeepsLocalState(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	s, ch := startWithSteps(t, eng, "a", "b", "c")

	ch.mu.Lock()
	ch.connected = false
	ch.mu.Unlock()

	eng.Next(ctx, s.ID)
	if s.Store.CurrentStep() != 1 {
		t.Fatalf("step = %d", s.Store.CurrentStep())
	}
	if st := s.Reconciler.Stats(); st.Dropped != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestEnd(t *testing.T) {
	eng, notifier := setupEngine(t)
	ctx := context.Background()
	s, ch := startWithSteps(t, eng, "a", "b")
	eng.StartTimer(ctx, s.ID, 1.0/60)

	eng.End(s.ID)
	eng.End(s.ID)

	if _, err := eng.Get(s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(s.Timers.Timers()) != 0 {
		t.Fatalf("timers survived session end")
	}
	s.Timers.Tick()
	if notifier.urgentCount() != 0 {
		t.Fatalf("timer completed after session end")
	}

	// The bridge still answers but nothing reaches the agent.
	s.Store.SetStep(1, domain.ProvenanceUser)
	if ch.count() != 0 {
		t.Fatalf("ended session still reconciling")
	}
	if inv := dispatch(s, "startTimer", `{"minutes":1}`); !inv.Rejected {
		t.Fatalf("timer created on ended session: %q", inv.Result)
	}

	if _, err := eng.Next(ctx, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
