package agent

import (
	"fmt"
	"strings"

	"github.com/wokai/wokcook/internal/domain"
)

// promptRules is appended to every recipe prompt. Replies are spoken, so
// no formatting and short answers.
const promptRules = `## Your role
- Answer questions about ingredients, techniques and steps in one to three sentences.
- Use the client tools when the user asks to move through the recipe or start a timer.
- Never use markdown or emojis, your answer is spoken aloud.
- Keep responses short, the user is actively cooking.

When the user says:
- "next step" or "next": call advance
- "previous step" or "back": call retreat
- "repeat" or "say that again": call repeat
- "go to step N": call jump with step N
- "set a timer for X minutes": call startTimer with minutes X

Tool results are spoken confirmations, read them back to the user.
You may receive context updates saying the user changed the step on screen. The step has then already changed: do not call a navigation tool, just read the new step aloud.`

// Prompt builds the system prompt carrying the full recipe and the step
// the user is on when the conversation starts.
func Prompt(r *domain.Recipe, current int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are helping the user cook %q. They are currently on step %d of %d.\n\n",
		r.Title, current+1, len(r.Steps))
	fmt.Fprintf(&b, "Current step: %s\n\n", r.Instruction(current))

	b.WriteString("All ingredients:\n")
	for i, ing := range r.Ingredients {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ing)
	}

	b.WriteString("\nAll steps:\n")
	for i, step := range r.Steps {
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, step)
	}

	if r.Timing != nil {
		fmt.Fprintf(&b, "\nTiming: prep %d min, cook %d min, total %d min\n",
			r.Timing.Prep, r.Timing.Cook, r.Timing.TotalMinutes())
	}
	if len(r.Techniques) > 0 {
		fmt.Fprintf(&b, "Techniques used: %s\n", strings.Join(r.Techniques, ", "))
	}

	b.WriteString("\n")
	b.WriteString(promptRules)
	return b.String()
}

// FirstMessage is what the agent says when the conversation opens.
func FirstMessage(r *domain.Recipe, current int) string {
	return fmt.Sprintf("Hi! I'm your cooking assistant for %s. You're on step %d of %d. How can I help?",
		r.Title, current+1, len(r.Steps))
}
