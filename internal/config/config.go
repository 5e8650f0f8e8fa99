// Package config resolves runtime configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration.
type Config struct {
	Agent   AgentConfig
	Chat    ChatConfig
	Session SessionConfig
	Alert   AlertConfig
}

// AgentConfig identifies the remote conversational agent.
type AgentConfig struct {
	APIKey  string
	AgentID string
	APIBase string
	URL     string // direct websocket URL, bypasses signed URL lookup
}

// Enabled reports whether enough is configured to reach an agent.
func (a AgentConfig) Enabled() bool {
	return a.URL != "" || a.AgentID != ""
}

// ChatConfig points at the OpenAI-compatible endpoint used to structure
// recipes.
type ChatConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

// SessionConfig tunes the cooking session.
type SessionConfig struct {
	TickInterval time.Duration
	RecipesDir   string
}

// AlertConfig controls the timer chime.
type AlertConfig struct {
	Enabled bool
	WAVPath string
}

// Load resolves configuration from environment variables and defaults.
func Load() (Config, error) {
	cfg := Config{
		Agent: AgentConfig{
			APIKey:  strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
			AgentID: strings.TrimSpace(os.Getenv("ELEVENLABS_AGENT_ID")),
			APIBase: envOrDefault("ELEVENLABS_API_BASE", "https://api.elevenlabs.io"),
			URL:     strings.TrimSpace(os.Getenv("WOKCOOK_AGENT_URL")),
		},
		Chat: ChatConfig{
			Endpoint: envOrDefault("GPT_CHAT_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			APIKey:   strings.TrimSpace(os.Getenv("GPT_CHAT_KEY")),
			Model:    envOrDefault("GPT_CHAT_MODEL", "gpt-4o-mini"),
		},
		Session: SessionConfig{
			TickInterval: time.Duration(envOrDefaultInt("WOKCOOK_TICK_MS", 250)) * time.Millisecond,
			RecipesDir:   expandHome(strings.TrimSpace(os.Getenv("WOKCOOK_RECIPES_DIR"))),
		},
		Alert: AlertConfig{
			Enabled: envOrDefaultBool("WOKCOOK_CHIME", true),
			WAVPath: expandHome(strings.TrimSpace(os.Getenv("WOKCOOK_CHIME_WAV"))),
		},
	}

	if cfg.Session.TickInterval <= 0 || cfg.Session.TickInterval > time.Second {
		cfg.Session.TickInterval = 250 * time.Millisecond
	}

	return cfg, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
