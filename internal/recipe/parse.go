package recipe

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/wokai/wokcook/internal/domain"
)

// Validate checks the minimum shape every recipe must have: a title and
// at least one ingredient and one step.
func Validate(r *domain.Recipe) error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: empty recipe", domain.ErrInvalidRecipe)
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: missing title", domain.ErrInvalidRecipe)
	case len(r.Ingredients) == 0:
		return fmt.Errorf("%w: no ingredients", domain.ErrInvalidRecipe)
	case len(r.Steps) == 0:
		return fmt.Errorf("%w: no steps", domain.ErrInvalidRecipe)
	}
	for i, step := range r.Steps {
		if strings.TrimSpace(step) == "" {
			return fmt.Errorf("%w: step %d is empty", domain.ErrInvalidRecipe, i+1)
		}
	}
	return nil
}

// Parse decodes a structured recipe from JSON, tolerating a surrounding
// markdown code fence, and validates it.
func Parse(data []byte) (*domain.Recipe, error) {
	text := stripCodeFence(string(data))

	var r domain.Recipe
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecipe, err)
	}
	if err := Validate(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a recipe ID from a title.
func Slug(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "recipe"
	}
	return s
}
