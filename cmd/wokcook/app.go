package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wokai/wokcook/internal/agent"
	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/conversation"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/engine"
	"github.com/wokai/wokcook/internal/logger"
	"github.com/wokai/wokcook/internal/timer"
)

// assistant is the part of the agent connection the command loop uses.
type assistant interface {
	Connected() bool
	SendUserMessage(ctx context.Context, text string) error
}

var _ assistant = (*agent.Conn)(nil)

// cookApp runs the typed command loop of one cooking session.
type cookApp struct {
	eng     *engine.Engine
	session *engine.Session
	parser  *conversation.KeywordParser
	con     console
	agent   assistant // nil when no agent is connected
	log     *logger.Logger
	notice  string // shown once when the loop starts
}

func (a *cookApp) run(ctx context.Context) error {
	a.showCurrent()
	if a.notice != "" {
		a.con.PrintHint(a.notice)
	}

	input := a.con.InputChan()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-input:
			if !ok {
				return nil
			}
			if quit := a.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

// handle executes one line of input and reports whether the session
// should end.
func (a *cookApp) handle(ctx context.Context, line string) (quit bool) {
	cmd := a.parser.Parse(line)
	id := a.session.ID

	switch cmd.Type {
	case conversation.CommandNext:
		_, err := a.eng.Next(ctx, id)
		a.navigationError(err, "You're already on the last step.")

	case conversation.CommandBack:
		_, err := a.eng.Prev(ctx, id)
		a.navigationError(err, "You're already on the first step.")

	case conversation.CommandRepeat:
		_, err := a.eng.Repeat(ctx, id)
		a.navigationError(err, "")

	case conversation.CommandGoto:
		total := a.session.Store.TotalSteps()
		if cmd.Step < 1 || cmd.Step > total {
			a.con.PrintHint(fmt.Sprintf("Step %d doesn't exist. Choose a step from 1 to %d.", cmd.Step, total))
			return false
		}
		_, err := a.eng.Navigate(ctx, id, cmd.Step-1)
		a.navigationError(err, "")

	case conversation.CommandToggleDone:
		a.toggleDone(ctx, cmd.Step)

	case conversation.CommandTimer:
		v, err := a.eng.StartTimer(ctx, id, cmd.Minutes)
		if errors.Is(err, domain.ErrInvalidDuration) {
			a.con.PrintHint("Timers need a positive number of minutes.")
			return false
		}
		if err != nil {
			a.con.PrintUrgent(err.Error())
			return false
		}
		a.con.PrintHint(fmt.Sprintf("Started a %s timer for %s.", v.Duration, v.Label))

	case conversation.CommandPause, conversation.CommandResume, conversation.CommandCancel:
		a.timerCommand(ctx, cmd)

	case conversation.CommandTimers:
		a.listTimers()

	case conversation.CommandStatus:
		a.status()

	case conversation.CommandSay:
		a.say(ctx, cmd.Text)

	case conversation.CommandHelp:
		for _, l := range strings.Split(conversation.HelpText, "\n") {
			a.con.PrintHint(l)
		}

	case conversation.CommandQuit:
		a.con.PrintChat("Enjoy your meal!")
		return true

	default:
		if cmd.Text != "" {
			a.con.PrintHint(fmt.Sprintf("I didn't understand %q. Type 'help' for commands.", cmd.Text))
		}
	}
	return false
}

func (a *cookApp) navigationError(err error, boundary string) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoMoreSteps):
		a.con.PrintHint(boundary)
	default:
		a.con.PrintUrgent(err.Error())
	}
}

func (a *cookApp) toggleDone(ctx context.Context, step int) {
	index := a.session.Store.CurrentStep()
	if step > 0 {
		index = step - 1
	}
	if index >= a.session.Store.TotalSteps() {
		a.con.PrintHint(fmt.Sprintf("Step %d doesn't exist.", step))
		return
	}

	done, err := a.eng.ToggleCompleted(ctx, a.session.ID, index)
	if err != nil {
		a.con.PrintUrgent(err.Error())
		return
	}
	if done {
		a.con.PrintHint(fmt.Sprintf("Step %d marked as done.", index+1))
	} else {
		a.con.PrintHint(fmt.Sprintf("Step %d marked as not done.", index+1))
	}
	a.con.Refresh()
}

// timerCommand resolves the 1-based timer position (0 meaning the most
// recent timer) and applies pause, resume or cancel to it.
func (a *cookApp) timerCommand(ctx context.Context, cmd conversation.Command) {
	views := a.session.Timers.Timers()
	if len(views) == 0 {
		a.con.PrintHint("There are no timers.")
		return
	}
	pos := cmd.Timer
	if pos == 0 {
		pos = len(views)
	}
	if pos < 1 || pos > len(views) {
		a.con.PrintHint(fmt.Sprintf("Timer %d doesn't exist. Choose a timer from 1 to %d.", pos, len(views)))
		return
	}
	v := views[pos-1]

	var err error
	verb := "Removed"
	switch cmd.Type {
	case conversation.CommandPause:
		verb = "Paused"
		err = a.eng.PauseTimer(ctx, a.session.ID, v.ID)
	case conversation.CommandResume:
		verb = "Resumed"
		err = a.eng.ResumeTimer(ctx, a.session.ID, v.ID)
	default:
		err = a.eng.CancelTimer(ctx, a.session.ID, v.ID)
	}
	if err != nil {
		a.con.PrintUrgent(err.Error())
		return
	}
	a.con.PrintHint(fmt.Sprintf("%s timer %d (%s).", verb, pos, v.Label))
}

func (a *cookApp) listTimers() {
	views := a.session.Timers.Timers()
	if len(views) == 0 {
		a.con.PrintHint("There are no timers.")
		return
	}
	for i, v := range views {
		a.con.PrintHint(fmt.Sprintf("%d. %s", i+1, describeTimer(v)))
	}
}

func describeTimer(v timer.View) string {
	switch {
	case v.Done():
		return v.Label + ": done"
	case v.IsPaused:
		return fmt.Sprintf("%s: %s left, paused", v.Label, v.Remaining)
	default:
		return fmt.Sprintf("%s: %s left", v.Label, v.Remaining)
	}
}

func (a *cookApp) status() {
	st := a.session.Store
	done := 0
	for i := range st.TotalSteps() {
		if st.IsCompleted(i) {
			done++
		}
	}

	agentState := "not connected"
	if a.agent != nil && a.agent.Connected() {
		agentState = "connected"
	}
	a.con.PrintHint(fmt.Sprintf("%s: step %d of %d, %d done, %d timers, voice agent %s.",
		a.session.Recipe.Title, st.CurrentStep()+1, st.TotalSteps(), done,
		len(a.session.Timers.Timers()), agentState))
}

func (a *cookApp) say(ctx context.Context, text string) {
	if a.agent == nil || !a.agent.Connected() {
		a.con.PrintHint("The voice agent is not connected.")
		return
	}
	if err := a.agent.SendUserMessage(ctx, text); err != nil {
		a.con.PrintUrgent(fmt.Sprintf("Could not reach the voice agent: %v", err))
	}
}

// ── Session output ───────────────────────────────────────────────

func (a *cookApp) showCurrent() {
	st := a.session.Store
	i := st.CurrentStep()
	a.con.PrintStep(fmt.Sprintf("%s, step %d/%d", a.session.Recipe.Title, i+1, st.TotalSteps()))
	a.con.PrintInstruction(st.Instruction(i))
}

// showStep prints every step change, whoever made it.
func (a *cookApp) showStep(ch domain.StepChange) {
	header := fmt.Sprintf("Step %d/%d", ch.Number(), ch.TotalSteps)
	if ch.Provenance == domain.ProvenanceAgent {
		header += " (assistant)"
	}
	if ch.Completed {
		header += " ✓"
	}
	a.con.PrintStep(header)
	a.con.PrintInstruction(ch.Instruction)
	a.con.Refresh()
}

func (a *cookApp) showTranscript(t agent.Transcript) {
	if t.Role == agent.RoleUser {
		a.con.PrintHeard(t.Text)
		return
	}
	a.con.PrintChat(t.Text)
}

func (a *cookApp) showToolCall(inv bridge.Invocation) {
	a.log.Debug("tool %s -> %q (rejected=%v)", inv.Name, inv.Result, inv.Rejected)
	if inv.Rejected {
		a.con.PrintHint(inv.Result)
	}
	a.con.Refresh()
}

func (a *cookApp) watchAgent(ctx context.Context, conn *agent.Conn) {
	select {
	case <-ctx.Done():
	case <-conn.Done():
		if err := conn.Err(); err != nil {
			a.con.PrintUrgent(fmt.Sprintf("Voice agent disconnected: %v", err))
		} else {
			a.con.PrintHint("Voice agent ended the conversation.")
		}
	}
}
