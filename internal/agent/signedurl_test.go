package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSignedURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/conversation/get_signed_url" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("xi-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"bad key"}`))
			return
		}
		if r.URL.Query().Get("agent_id") != "agent-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"signed_url":"wss://example.test/conv?token=abc"}`))
	}))
	defer srv.Close()

	r := NewResolver()

	got, err := r.SignedURL(context.Background(), Config{APIKey: "secret", AgentID: "agent-1", APIBase: srv.URL})
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if got != "wss://example.test/conv?token=abc" {
		t.Fatalf("url = %q", got)
	}

	_, err = r.SignedURL(context.Background(), Config{APIKey: "wrong", AgentID: "agent-1", APIBase: srv.URL})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestConversationURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"explicit", Config{URL: "ws://localhost:9/x"}, "ws://localhost:9/x", false},
		{"public", Config{AgentID: "a b"}, "wss://api.elevenlabs.io/v1/convai/conversation?agent_id=a+b", false},
		{"public http base", Config{AgentID: "a", APIBase: "http://localhost:8080/"}, "ws://localhost:8080/v1/convai/conversation?agent_id=a", false},
		{"missing agent", Config{}, "", true},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ConversationURL(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("url = %q, want %q", got, tt.want)
			}
		})
	}
}
