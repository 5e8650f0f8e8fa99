package gpt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
	"github.com/wokai/wokcook/internal/recipe"
)

// Compile-time interface check.
var _ domain.RecipeStructurer = (*Structurer)(nil)

// Structurer asks the chat model to structure a recipe narration.
type Structurer struct {
	client *Client
	log    *logger.Logger
}

// NewStructurer creates a recipe structurer on top of client.
func NewStructurer(client *Client, log *logger.Logger) *Structurer {
	return &Structurer{client: client, log: log}
}

// Structure returns a validated recipe extracted from narration.
func (s *Structurer) Structure(ctx context.Context, narration string) (*domain.Recipe, error) {
	narration = strings.TrimSpace(narration)
	if narration == "" {
		return nil, errors.New("structure: empty narration")
	}

	reply, err := s.client.Chat(ctx, []Message{
		TextMessage(RoleSystem, PromptStructure),
		TextMessage(RoleUser, "Recipe narration:\n"+narration),
	})
	if err != nil {
		return nil, fmt.Errorf("structure: %w", err)
	}

	r, err := recipe.Parse([]byte(reply))
	if err != nil {
		s.log.Warn("model returned an unusable recipe: %v", err)
		return nil, fmt.Errorf("structure: %w", err)
	}
	r.ID = recipe.Slug(r.Title)
	s.log.Info("structured %q: %d ingredients, %d steps", r.Title, len(r.Ingredients), len(r.Steps))
	return r, nil
}
