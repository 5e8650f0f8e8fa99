package display

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wokai/wokcook/internal/timer"
)

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{0, "0s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
		{5 * time.Minute, "5m00s"},
		{1500 * time.Millisecond, "2s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := fmtDuration(tt.in); got != tt.want {
				t.Fatalf("fmtDuration(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderBar(t *testing.T) {
	views := []timer.View{
		{Label: "Step 1", Duration: time.Minute, Remaining: 30 * time.Second, IsActive: true},
		{Label: "Step 2", Duration: time.Minute, Remaining: 20 * time.Second, IsActive: true, IsPaused: true},
		{Label: "Step 3", Duration: time.Minute},
	}
	out := renderBar(views)

	for _, want := range []string{"1 Step 1", "30s", "2 Step 2", "paused", "3 Step 3: DONE!"} {
		if !strings.Contains(out, want) {
			t.Errorf("bar %q missing %q", out, want)
		}
	}
}

func TestWindowTitle(t *testing.T) {
	if got := windowTitle("Eggs", nil); got != "wokcook - Eggs" {
		t.Fatalf("got %q", got)
	}
	got := windowTitle("Eggs", []timer.View{{Label: "Step 2", Remaining: 65 * time.Second, IsActive: true}})
	if got != "wokcook - Step 2: 1m05s" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderStepWraps(t *testing.T) {
	s := stepView{
		index:       1,
		total:       3,
		instruction: strings.Repeat("stir the sauce gently ", 10),
		completed:   true,
	}
	out := renderStep(s, 40)

	if !strings.Contains(out, "Step 2/3") {
		t.Fatalf("missing header in %q", out)
	}
	if !strings.Contains(out, "done") {
		t.Fatalf("missing completion mark in %q", out)
	}
	if lines := strings.Split(out, "\n"); len(lines) < 4 {
		t.Fatalf("expected wrapped body, got %d lines", len(lines))
	}
}

// ── Model ────────────────────────────────────────────────────────

type fakeSteps struct {
	current int
	steps   []string
	done    map[int]bool
}

func (f *fakeSteps) CurrentStep() int { return f.current }
func (f *fakeSteps) TotalSteps() int { return len(f.steps) }
func (f *fakeSteps) Instruction(i int) string { return f.steps[i] }
func (f *fakeSteps) IsCompleted(i int) bool { return f.done[i] }

type fakeTimers struct{ views []timer.View }

func (f *fakeTimers) Timers() []timer.View { return f.views }

func newTestModel(steps *fakeSteps, timers *fakeTimers) (model, chan string) {
	in := make(chan string, 4)
	m := model{
		title:   "test",
		steps:   steps,
		timers:  timers,
		input:   textinput.New(),
		inputCh: in,
		echoFn:  func(string) {},
	}
	m.refresh()
	return m, in
}

func TestModelRefreshFollowsSources(t *testing.T) {
	steps := &fakeSteps{steps: []string{"boil", "drain", "serve"}, done: map[int]bool{}}
	timers := &fakeTimers{}
	m, _ := newTestModel(steps, timers)

	if !strings.Contains(m.View(), "boil") {
		t.Fatalf("expected first step in view, got %q", m.View())
	}

	steps.current = 2
	timers.views = []timer.View{{Label: "Step 3", Remaining: 10 * time.Second, IsActive: true}}
	next, _ := m.Update(refreshMsg{})
	view := next.(model).View()

	if !strings.Contains(view, "serve") {
		t.Fatalf("expected third step after refresh, got %q", view)
	}
	if !strings.Contains(view, "Step 3: ") {
		t.Fatalf("expected timer bar after refresh, got %q", view)
	}
}

func TestModelPageKeysSubmitNavigation(t *testing.T) {
	steps := &fakeSteps{steps: []string{"a", "b"}, done: map[int]bool{}}
	m, in := newTestModel(steps, &fakeTimers{})

	m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})

	if got := <-in; got != "next" {
		t.Fatalf("page down sent %q, want next", got)
	}
	if got := <-in; got != "back" {
		t.Fatalf("page up sent %q, want back", got)
	}
}

func TestModelSubmitNeverBlocks(t *testing.T) {
	in := make(chan string)
	m := model{inputCh: in}
	m.submit("next")
}

func TestRenderBannerSubtitle(t *testing.T) {
	out := RenderBanner("Soft Boiled Eggs")
	if !strings.Contains(out, "Soft Boiled Eggs") {
		t.Fatalf("missing subtitle in %q", out)
	}
	if strings.Contains(RenderBanner(""), "\n\n") {
		t.Fatal("empty subtitle must not add a blank line")
	}
}
