// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type keeps a step panel, a timer status bar and an input
// prompt at the bottom of the terminal. All other output is printed
// above the rendered area via Program.Println / Printf, so concurrent
// writes never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wokai/wokcook/internal/timer"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	timerRunStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	timerDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	timerPausedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#71717a")).
				Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#52525b")).
			Padding(0, 1)

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	doneMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#86efac")).
			Bold(true)

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const prompt = "wok> "

// ── Sources ──────────────────────────────────────────────────────

// StepSource is the read side of the session state the step panel shows.
type StepSource interface {
	CurrentStep() int
	TotalSteps() int
	Instruction(index int) string
	IsCompleted(index int) bool
}

// TimerSource lists the timers shown in the status bar.
type TimerSource interface {
	Timers() []timer.View
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call [UI.Println], [UI.Printf], [UI.Refresh] and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	title   string
	steps   StepSource
	timers  TimerSource
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	running atomic.Bool
}

// NewUI creates the display for one cooking session. Call Run() to start.
func NewUI(title string, steps StepSource, timers TimerSource) *UI {
	return &UI{
		title:   title,
		steps:   steps,
		timers:  timers,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe. Falls back to
// fmt.Println while the program is not running.
func (u *UI) Println(a ...any) {
	if u.running.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line.
func (u *UI) Printf(format string, a ...any) {
	if u.running.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// Refresh redraws the step panel and timer bar now instead of waiting
// for the next tick.
func (u *UI) Refresh() {
	if u.running.Load() {
		go u.program.Send(refreshMsg{})
	}
}

// InputChan returns completed user-input lines. Page-down and page-up
// arrive as "next" and "back".
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintChat prints a line spoken by the assistant.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintStep prints a step header like "Step 2/8".
func (u *UI) PrintStep(text string) {
	u.Println(stepStyle.Render("  " + text))
}

// PrintInstruction prints the step's main instruction text.
func (u *UI) PrintInstruction(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an urgent/error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintHeard prints what the agent heard the user say.
func (u *UI) PrintHeard(text string) {
	u.Println(secondaryStyle.Render("[heard] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("wok") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.running.Load() {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts add ANSI bytes that break the
	// textinput width math.
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	m := model{
		title:   u.title,
		steps:   u.steps,
		timers:  u.timers,
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn:  u.PrintUserInput,
	}
	m.refresh()

	u.program = tea.NewProgram(m)
	u.running.Store(true)
	_, err := u.program.Run()
	u.running.Store(false)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	title   string
	steps   StepSource
	timers  TimerSource
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)

	step   stepView
	bar    []timer.View
	width  int
	closed bool
}

type stepView struct {
	index       int
	total       int
	instruction string
	completed   bool
}

type (
	tickMsg    time.Time
	refreshMsg struct{}
)

const refreshInterval = 500 * time.Millisecond

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.submit("quit")
			return m, tea.Quit
		case tea.KeyPgDown:
			m.submit("next")
			return m, nil
		case tea.KeyPgUp:
			m.submit("back")
			return m, nil
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) == "" {
				return m, nil
			}
			m.submit(v)
			// Printing from a Cmd keeps it off the Update goroutine.
			echoFn := m.echoFn
			return m, func() tea.Msg {
				echoFn(v)
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt)
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(windowTitle(m.title, m.bar)))

	case refreshMsg:
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands a line to the reader without ever blocking the event loop.
func (m *model) submit(line string) {
	select {
	case m.inputCh <- line:
	default:
	}
}

func (m *model) refresh() {
	if m.steps != nil && m.steps.TotalSteps() > 0 {
		i := m.steps.CurrentStep()
		m.step = stepView{
			index:       i,
			total:       m.steps.TotalSteps(),
			instruction: m.steps.Instruction(i),
			completed:   m.steps.IsCompleted(i),
		}
	}
	if m.timers != nil {
		m.bar = m.timers.Timers()
	}
}

func (m model) View() string {
	w := m.width
	if w <= 0 {
		w = 80
	}

	var b strings.Builder
	if m.step.total > 0 {
		b.WriteString(renderStep(m.step, w))
		b.WriteByte('\n')
	}
	if len(m.bar) > 0 {
		b.WriteString(barBg.Width(w).Render(renderBar(m.bar)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}
