package conversation

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*ConsoleNotifier)(nil)

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#bae6fd"))
	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5")).Bold(true)
)

// PrintFunc prints one formatted line. display.UI.Printf matches it.
type PrintFunc func(format string, a ...any)

// NotifierOption configures a ConsoleNotifier.
type NotifierOption func(*ConsoleNotifier)

// WithAlerter plays a after every urgent notification.
func WithAlerter(a domain.Alerter) NotifierOption {
	return func(n *ConsoleNotifier) { n.alerter = a }
}

// WithBell rings the terminal bell on urgent notifications. Useful when
// no audio device is available.
func WithBell() NotifierOption {
	return func(n *ConsoleNotifier) { n.bell = true }
}

// ConsoleNotifier prints timer and session notices to the console.
type ConsoleNotifier struct {
	log     *logger.Logger
	printFn PrintFunc
	alerter domain.Alerter
	bell    bool
}

// NewConsoleNotifier creates a console notifier. If printFn is nil,
// lines go to stdout.
func NewConsoleNotifier(log *logger.Logger, printFn PrintFunc, opts ...NotifierOption) *ConsoleNotifier {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Printf(format+"\n", a...)
		}
	}
	n := &ConsoleNotifier{log: log, printFn: printFn}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify prints a normal notice.
func (n *ConsoleNotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s", noticeStyle.Render(message))
	return nil
}

// NotifyUrgent prints an urgent notice and sounds the alert. A failing
// alert is logged, the notice itself has already been shown.
func (n *ConsoleNotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	line := urgentStyle.Render("⏰ " + message)
	if n.bell {
		line += "\a"
	}
	n.printFn("%s", line)

	if n.alerter == nil {
		return nil
	}
	if err := n.alerter.Alert(ctx); err != nil {
		n.log.Warn("alert: %v", err)
	}
	return nil
}
