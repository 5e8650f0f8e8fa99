package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultAPIBase is the agent service REST base.
const DefaultAPIBase = "https://api.elevenlabs.io"

// Config identifies the remote agent.
type Config struct {
	APIKey  string // server-side key, used only to fetch a signed URL
	AgentID string
	APIBase string // REST base, DefaultAPIBase when empty
	URL     string // explicit websocket URL, skips signed URL resolution
}

// Resolver turns a Config into a websocket URL.
type Resolver struct {
	http *http.Client
}

// NewResolver creates a resolver with an instrumented HTTP client.
func NewResolver() *Resolver {
	return &Resolver{http: &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}}
}

// ConversationURL picks the websocket URL for cfg: the explicit URL when
// set, a signed URL when an API key is configured, else the public
// agent endpoint.
func (r *Resolver) ConversationURL(ctx context.Context, cfg Config) (string, error) {
	if strings.TrimSpace(cfg.URL) != "" {
		return cfg.URL, nil
	}
	if strings.TrimSpace(cfg.AgentID) == "" {
		return "", errors.New("ELEVENLABS_AGENT_ID is not configured")
	}
	if strings.TrimSpace(cfg.APIKey) != "" {
		return r.SignedURL(ctx, cfg)
	}
	return publicURL(cfg)
}

// SignedURL asks the agent service for a short-lived conversation URL.
func (r *Resolver) SignedURL(ctx context.Context, cfg Config) (string, error) {
	base := strings.TrimRight(apiBase(cfg), "/")
	endpoint := base + "/v1/convai/conversation/get_signed_url?agent_id=" + url.QueryEscape(cfg.AgentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building signed url request: %w", err)
	}
	req.Header.Set("xi-api-key", cfg.APIKey)

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching signed url: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading signed url response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signed url request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding signed url response: %w", err)
	}
	if out.SignedURL == "" {
		return "", errors.New("signed url response did not contain a url")
	}
	return out.SignedURL, nil
}

func apiBase(cfg Config) string {
	if cfg.APIBase != "" {
		return cfg.APIBase
	}
	return DefaultAPIBase
}

func publicURL(cfg Config) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(apiBase(cfg)), "/")
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	u, err := url.Parse(base + "/v1/convai/conversation")
	if err != nil {
		return "", fmt.Errorf("invalid agent API base URL: %w", err)
	}
	q := u.Query()
	q.Set("agent_id", cfg.AgentID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
