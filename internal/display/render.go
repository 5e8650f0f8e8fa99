package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/wokai/wokcook/internal/timer"
)

// renderStep draws the current step inside a bordered panel of the given
// terminal width.
func renderStep(s stepView, width int) string {
	header := fmt.Sprintf("Step %d/%d", s.index+1, s.total)
	if s.completed {
		header += " " + doneMarkStyle.Render("✓ done")
	}

	// Border and padding take four columns.
	inner := max(width-4, 20)
	body := wordwrap.String(s.instruction, inner)

	return panelStyle.Width(inner).Render(
		stepStyle.Render(header) + "\n" + primaryStyle.Render(body),
	)
}

// renderBar lists timers in registry order, numbered so that
// "pause 2" and friends can refer to them.
func renderBar(views []timer.View) string {
	parts := make([]string, 0, len(views))
	for i, v := range views {
		prefix := labelStyle.Render(fmt.Sprintf("%d %s: ", i+1, v.Label))
		switch {
		case v.Done():
			parts = append(parts, timerDoneStyle.Render(fmt.Sprintf("%d %s: DONE!", i+1, v.Label)))
		case v.IsPaused:
			parts = append(parts, prefix+timerPausedStyle.Render(fmtDuration(v.Remaining)+" paused"))
		default:
			parts = append(parts, prefix+timerRunStyle.Render(fmtDuration(v.Remaining)))
		}
	}
	return " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "
}

func windowTitle(title string, views []timer.View) string {
	if len(views) == 0 {
		return "wokcook - " + title
	}
	p := make([]string, 0, len(views))
	for _, v := range views {
		if v.Done() {
			p = append(p, v.Label+": DONE!")
		} else {
			p = append(p, v.Label+": "+fmtDuration(v.Remaining))
		}
	}
	return "wokcook - " + strings.Join(p, " | ")
}

func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
