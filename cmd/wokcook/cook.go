package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wokai/wokcook/internal/agent"
	"github.com/wokai/wokcook/internal/alert"
	"github.com/wokai/wokcook/internal/bridge"
	"github.com/wokai/wokcook/internal/config"
	"github.com/wokai/wokcook/internal/conversation"
	"github.com/wokai/wokcook/internal/display"
	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/engine"
	"github.com/wokai/wokcook/internal/logger"
	"github.com/wokai/wokcook/internal/recipe"
	"github.com/wokai/wokcook/internal/timer"
)

func newCookCmd() *cobra.Command {
	var (
		plain   bool
		noAgent bool
		noChime bool
	)

	cmd := &cobra.Command{
		Use:   "cook <recipe-id|recipe.json>",
		Short: "Start a cooking session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog := openLogger()
			defer closeLog()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if noChime {
				cfg.Alert.Enabled = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runCook(ctx, cmd, cfg, log, args[0], cookOptions{
				tui:   !plain && isTerminal(os.Stdin) && isTerminal(os.Stdout),
				agent: !noAgent && cfg.Agent.Enabled(),
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&plain, "plain", false, "use line-based input and output instead of the terminal UI")
	flags.BoolVar(&noAgent, "no-agent", false, "do not connect to the voice agent")
	flags.BoolVar(&noChime, "no-chime", false, "do not play a sound when a timer finishes")
	return cmd
}

type cookOptions struct {
	tui   bool
	agent bool
}

func runCook(ctx context.Context, cmd *cobra.Command, cfg config.Config, log *logger.Logger, ref string, opts cookOptions) error {
	src := loadRecipes(cmd, cfg, log)

	var alerter domain.Alerter = alert.NewNoOp(log.Named("alert"))
	notifyOpts := []conversation.NotifierOption{conversation.WithBell()}
	if cfg.Alert.Enabled {
		chime, err := alert.NewChime(log.Named("alert"), cfg.Alert.WAVPath)
		if err != nil {
			log.Warn("chime disabled: %v", err)
		} else {
			defer chime.Stop()
			alerter = chime
			notifyOpts = nil
		}
	}
	notifyOpts = append(notifyOpts, conversation.WithAlerter(alerter))

	// The console only exists once the session does; timers cannot
	// finish before then.
	var con console
	notifier := conversation.NewConsoleNotifier(log.Named("notify"), func(format string, a ...any) {
		con.Printf(format, a...)
	}, notifyOpts...)

	eng := engine.New(src, log.Named("engine"),
		engine.WithTickInterval(cfg.Session.TickInterval),
		engine.WithNotifier(notifier),
	)
	defer eng.Shutdown()

	s, err := startSession(ctx, eng, ref)
	if err != nil {
		return err
	}

	var ui *display.UI
	if opts.tui {
		ui = display.NewUI(s.Recipe.Title, s.Store, s.Timers)
		con = ui
	} else {
		con = newLineConsole(os.Stdin, os.Stdout)
	}

	app := &cookApp{
		eng:     eng,
		session: s,
		parser:  conversation.NewKeywordParser(log.Named("parser")),
		con:     con,
		log:     log,
	}

	unsubStep := s.Store.Subscribe(app.showStep)
	defer unsubStep()
	unsubTimers := s.Timers.OnUpdate(func([]timer.View) { con.Refresh() })
	defer unsubTimers()

	if opts.agent {
		conn, err := connectAgent(ctx, cfg, s, app, log.Named("agent"))
		if err != nil {
			log.Warn("voice agent unavailable: %v", err)
			app.notice = "Voice agent unavailable, continuing with typed commands."
		} else {
			defer conn.Close()
			s.AttachChannel(conn)
			app.agent = conn
			go app.watchAgent(ctx, conn)
		}
	}

	if ui == nil {
		return app.run(ctx)
	}

	fmt.Println(display.RenderBanner(s.Recipe.Title))
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, page up/down to move between steps."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		if err := app.run(ctx); err != nil {
			log.Error("session: %v", err)
		}
		ui.Quit()
	}()
	return ui.Run()
}

// startSession treats ref as a recipe file when it exists on disk, and as
// a catalogue id otherwise.
func startSession(ctx context.Context, eng *engine.Engine, ref string) (*engine.Session, error) {
	if strings.EqualFold(filepath.Ext(ref), ".json") {
		if _, err := os.Stat(ref); err == nil {
			r, err := recipe.LoadFile(ref)
			if err != nil {
				return nil, err
			}
			return eng.StartRecipe(ctx, r)
		}
	}
	s, err := eng.StartSession(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no recipe %q (see `wokcook recipes`)", ref)
	}
	return s, err
}

func connectAgent(ctx context.Context, cfg config.Config, s *engine.Session, app *cookApp, log *logger.Logger) (*agent.Conn, error) {
	url, err := agent.NewResolver().ConversationURL(ctx, agent.Config{
		APIKey:  cfg.Agent.APIKey,
		AgentID: cfg.Agent.AgentID,
		APIBase: cfg.Agent.APIBase,
		URL:     cfg.Agent.URL,
	})
	if err != nil {
		return nil, err
	}

	current := s.Store.CurrentStep()
	setup := agent.Setup{
		Prompt:       agent.Prompt(s.Recipe, current),
		FirstMessage: agent.FirstMessage(s.Recipe, current),
		Tools:        bridge.Tools(),
	}
	return agent.Dial(ctx, url, setup, s, log,
		agent.WithTranscriptHandler(app.showTranscript),
		agent.WithToolCallHandler(app.showToolCall),
	)
}
