// Package conversation turns typed user input into session commands and
// prints user-facing notifications.
package conversation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wokai/wokcook/internal/logger"
)

// CommandType identifies a typed user command.
type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandNext
	CommandBack
	CommandRepeat
	CommandGoto
	CommandToggleDone
	CommandTimer
	CommandPause
	CommandResume
	CommandCancel
	CommandTimers
	CommandStatus
	CommandSay
	CommandHelp
	CommandQuit
)

var commandNames = map[CommandType]string{
	CommandUnknown:    "unknown",
	CommandNext:       "next",
	CommandBack:       "back",
	CommandRepeat:     "repeat",
	CommandGoto:       "goto",
	CommandToggleDone: "done",
	CommandTimer:      "timer",
	CommandPause:      "pause",
	CommandResume:     "resume",
	CommandCancel:     "cancel",
	CommandTimers:     "timers",
	CommandStatus:     "status",
	CommandSay:        "say",
	CommandHelp:       "help",
	CommandQuit:       "quit",
}

func (c CommandType) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "unknown"
}

// Command is one parsed line of user input.
type Command struct {
	Type    CommandType
	Step    int     // 1-based step for goto and done, 0 means current
	Timer   int     // 1-based position in the timer list, 0 means latest
	Minutes float64 // timer length
	Text    string  // free text for say and unknown input
}

// KeywordParser matches user input to commands using keywords and simple
// patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex *regexp.Regexp
	build func(m []string) Command
}

func fixed(t CommandType) func([]string) Command {
	return func([]string) Command { return Command{Type: t} }
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(next|n|advance|forward)$`), fixed(CommandNext)},
		{regexp.MustCompile(`(?i)^(back|b|prev|previous)$`), fixed(CommandBack)},
		{regexp.MustCompile(`(?i)^(repeat|again|r)$`), fixed(CommandRepeat)},
		{regexp.MustCompile(`(?i)^(?:goto|go to|step|g)\s*(\d+)$`), func(m []string) Command {
			return Command{Type: CommandGoto, Step: atoi(m[1])}
		}},
		{regexp.MustCompile(`(?i)^(?:done|check|d)(?:\s+(\d+))?$`), func(m []string) Command {
			return Command{Type: CommandToggleDone, Step: atoi(m[1])}
		}},
		{regexp.MustCompile(`(?i)^(?:timer|t|set timer)\s+(\d+(?:\.\d+)?)\s*(?:m|min|mins|minutes?)?$`), func(m []string) Command {
			mins, _ := strconv.ParseFloat(m[1], 64)
			return Command{Type: CommandTimer, Minutes: mins}
		}},
		{regexp.MustCompile(`(?i)^(?:pause|p)(?:\s+(\d+))?$`), func(m []string) Command {
			return Command{Type: CommandPause, Timer: atoi(m[1])}
		}},
		{regexp.MustCompile(`(?i)^(?:resume|unpause|u)(?:\s+(\d+))?$`), func(m []string) Command {
			return Command{Type: CommandResume, Timer: atoi(m[1])}
		}},
		{regexp.MustCompile(`(?i)^(?:cancel|dismiss|x)(?:\s+(\d+))?$`), func(m []string) Command {
			return Command{Type: CommandCancel, Timer: atoi(m[1])}
		}},
		{regexp.MustCompile(`(?i)^(timers|list)$`), fixed(CommandTimers)},
		{regexp.MustCompile(`(?i)^(status|where|progress|info)$`), fixed(CommandStatus)},
		{regexp.MustCompile(`(?i)^(?:say|ask)\s+(.+)$`), func(m []string) Command {
			return Command{Type: CommandSay, Text: strings.TrimSpace(m[1])}
		}},
		{regexp.MustCompile(`(?i)^(quit|exit|stop|q)$`), fixed(CommandQuit)},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), fixed(CommandHelp)},
	}
	return p
}

// Parse converts one line of user input into a command. Questions are
// forwarded to the agent as CommandSay.
func (p *KeywordParser) Parse(input string) Command {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Command{Type: CommandUnknown}
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		if m := rule.regex.FindStringSubmatch(trimmed); m != nil {
			cmd := rule.build(m)
			p.log.Debug("matched command: %s", cmd.Type)
			return cmd
		}
	}

	if isQuestion(trimmed) {
		return Command{Type: CommandSay, Text: trimmed}
	}

	p.log.Debug("no match, returning unknown command")
	return Command{Type: CommandUnknown, Text: trimmed}
}

// questionPrefixes are common English question starters.
var questionPrefixes = []string{
	"how", "what", "why", "when", "where", "who",
	"can", "could", "should", "would", "will", "do", "does", "is", "are",
	"am i", "tell me", "explain",
}

// isQuestion returns true if the input looks like a question.
func isQuestion(s string) bool {
	if strings.HasSuffix(s, "?") {
		return true
	}
	lower := strings.ToLower(s)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix+" ") || lower == prefix {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// HelpText lists the typed commands.
const HelpText = `next | n            move to the next step
back | b            move to the previous step
repeat | r          hear the current step again
goto N              jump to step N
done [N]            toggle step N (default: current) as complete
timer M             start an M-minute timer for the current step
pause|resume [N]    pause or resume timer N (default: latest)
cancel [N]          cancel or dismiss timer N (default: latest)
timers              list timers
status              show progress
say TEXT            send TEXT to the assistant (questions are sent as-is)
quit | q            end the session`
