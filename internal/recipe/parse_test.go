package recipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

func TestParse(t *testing.T) {
	valid := `{"title":"Eggs","ingredients":["2 eggs"],"steps":["Boil","Peel"],"timing":{"prep":1,"cook":6,"total":7},"techniques":["boiling"]}`

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", valid, false},
		{"json fence", "```json\n" + valid + "\n```", false},
		{"bare fence", "```\n" + valid + "\n```", false},
		{"missing title", `{"ingredients":["x"],"steps":["y"]}`, true},
		{"empty ingredients", `{"title":"t","ingredients":[],"steps":["y"]}`, true},
		{"no steps", `{"title":"t","ingredients":["x"]}`, true},
		{"blank step", `{"title":"t","ingredients":["x"],"steps":["  "]}`, true},
		{"not json", `here is your recipe`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidRecipe) {
					t.Fatalf("expected ErrInvalidRecipe, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Title != "Eggs" || len(r.Steps) != 2 || r.Timing.TotalMinutes() != 7 {
				t.Fatalf("parsed = %+v", r)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Garlic Butter Spaghetti": "garlic-butter-spaghetti",
		"  Mom's  Best (v2) ":     "mom-s-best-v2",
		"!!!":                     "recipe",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("quick-salad.json", `{"title":"Quick Salad","ingredients":["lettuce"],"steps":["Wash","Toss"]}`)
	write("broken.json", `{"title":""}`)
	write("notes.txt", `ignored`)

	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	n, err := src.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if n != 1 {
		t.Fatalf("loaded %d recipes, want 1", n)
	}

	r, err := src.Get(context.Background(), "quick-salad")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(r.Steps) != 2 {
		t.Fatalf("steps = %v", r.Steps)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
