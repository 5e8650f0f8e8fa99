// wokcook is a hands-free cooking assistant: it walks through a recipe
// step by step while a remote voice agent listens, navigates and sets
// timers alongside the user.
//
// Usage:
//
//	wokcook cook <recipe-id|recipe.json>
//	wokcook recipes
//	wokcook tools
//	wokcook structure <narration.txt>
package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wokai/wokcook/internal/config"
	"github.com/wokai/wokcook/internal/logger"
	"github.com/wokai/wokcook/internal/recipe"
)

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:           "wokcook",
	Short:         "Cook a recipe hands-free with a voice agent",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "normal",
		"log verbosity: off, normal or verbose")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", ".wokcook/wokcook.log",
		`file to write logs to (use "stderr" to log to console)`)

	rootCmd.AddCommand(newCookCmd())
	rootCmd.AddCommand(newRecipesCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newStructureCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wokcook: %v\n", err)
		os.Exit(1)
	}
}

// openLogger builds the application logger from the persistent flags.
// Logs go to a file by default so the terminal UI stays clean. The
// returned func closes the file.
func openLogger() (*logger.Logger, func()) {
	var out io.Writer = os.Stderr
	closer := func() {}

	if logFile != "" && logFile != "stderr" {
		if dir := filepath.Dir(logFile); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", logFile, err)
		} else {
			out = f
			closer = func() { _ = f.Close() }
		}
	}

	// Third-party packages logging through the standard logger end up in
	// the same place.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(logger.ParseLevel(logLevel), out), closer
}

// loadRecipes seeds the in-memory catalogue and adds the recipes found in
// the configured directory.
func loadRecipes(cmd *cobra.Command, cfg config.Config, log *logger.Logger) *recipe.MemorySource {
	src := recipe.NewMemorySource(log.Named("recipes"))
	if cfg.Session.RecipesDir != "" {
		if _, err := src.LoadDir(cmd.Context(), cfg.Session.RecipesDir); err != nil {
			log.Warn("recipes dir: %v", err)
		}
	}
	return src
}
