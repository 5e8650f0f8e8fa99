// Package recipe provides recipe source implementations and the recipe
// structuring client.
package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeSource = (*MemorySource)(nil)

// MemorySource holds recipes in memory. Safe for concurrent use.
type MemorySource struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
	log     *logger.Logger
}

// NewMemorySource creates a recipe source preloaded with built-in recipes.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		recipes: make(map[string]*domain.Recipe),
		log:     log,
	}
	src.seed()
	return src
}

// List returns summaries of all available recipes sorted by title.
func (s *MemorySource) List(ctx context.Context) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing all recipes, count=%d", len(s.recipes))

	out := make([]domain.RecipeSummary, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// Get returns a recipe by ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, fmt.Errorf("recipe %q: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

// Add validates a recipe and stores it, replacing any recipe with the same
// ID. A missing ID is derived from the title.
func (s *MemorySource) Add(ctx context.Context, r *domain.Recipe) error {
	if err := Validate(r); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = Slug(r.Title)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes[r.ID] = r
	s.log.Info("recipe added: %s (%d steps)", r.Title, len(r.Steps))
	return nil
}

// Search returns recipes whose title, ingredients or techniques contain
// the query string.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	s.log.Debug("searching recipes for: %s", q)

	var out []domain.RecipeSummary
	for _, r := range s.recipes {
		if matches(r, q) {
			out = append(out, r.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func matches(r *domain.Recipe, query string) bool {
	if strings.Contains(strings.ToLower(r.Title), query) {
		return true
	}
	for _, list := range [][]string{r.Ingredients, r.Techniques} {
		for _, item := range list {
			if strings.Contains(strings.ToLower(item), query) {
				return true
			}
		}
	}
	return false
}

// seed populates the source with built-in recipes.
func (s *MemorySource) seed() {
	recipes := []*domain.Recipe{
		garlicSpaghetti(),
		vegetableStirFry(),
		softBoiledEggs(),
	}
	for _, r := range recipes {
		s.recipes[r.ID] = r
	}
	s.log.Debug("seeded %d recipes", len(recipes))
}

func garlicSpaghetti() *domain.Recipe {
	return &domain.Recipe{
		ID:    "garlic-spaghetti",
		Title: "Garlic Butter Spaghetti",
		Ingredients: []string{
			"250 g spaghetti",
			"4 cloves garlic, thinly sliced",
			"3 tablespoons butter",
			"1 tablespoon olive oil",
			"1 pinch chili flakes",
			"40 g grated parmesan",
			"salt and black pepper to taste",
		},
		Steps: []string{
			"Bring a large pot of salted water to a boil. It should taste like the sea.",
			"Drop the spaghetti into the boiling water and cook until al dente, about 10 minutes. Reserve a cup of pasta water before draining.",
			"While the pasta cooks, melt the butter with the olive oil in a wide pan over medium-low heat.",
			"Add the garlic and chili flakes and cook gently for about 2 minutes until the garlic is pale gold. Do not let it brown.",
			"Toss the drained spaghetti into the pan with a splash of pasta water until glossy.",
			"Take the pan off the heat, fold in the parmesan, season with salt and pepper and serve immediately.",
		},
		Timing:     &domain.Timing{Prep: 5, Cook: 15, Total: 20},
		Techniques: []string{"boiling", "emulsifying", "sauteing"},
	}
}

func vegetableStirFry() *domain.Recipe {
	return &domain.Recipe{
		ID:    "vegetable-stir-fry",
		Title: "Vegetable Stir Fry",
		Ingredients: []string{
			"1 large bell pepper",
			"2 cups broccoli florets",
			"1 medium carrot",
			"1 cup snap peas",
			"3 cloves garlic",
			"1 tablespoon grated ginger",
			"2 tablespoons soy sauce",
			"1 tablespoon sesame oil",
			"2 tablespoons vegetable oil",
		},
		Steps: []string{
			"Prep all vegetables: slice the pepper into strips, cut the broccoli small, julienne the carrot and trim the snap peas. Mince the garlic.",
			"Mix the soy sauce and sesame oil with 2 tablespoons of water. Set aside.",
			"Heat the wok on high until it just starts to smoke, then add the vegetable oil and swirl to coat.",
			"Add broccoli and carrot first and stir-fry for 2 minutes, then add pepper and snap peas for another 2 minutes. Let things char.",
			"Push the vegetables aside, add garlic and ginger to the center for 30 seconds, then toss everything together.",
			"Pour over the sauce, toss to coat and serve right away.",
		},
		Timing:     &domain.Timing{Prep: 10, Cook: 8, Total: 18},
		Techniques: []string{"stir-frying", "julienne"},
	}
}

func softBoiledEggs() *domain.Recipe {
	return &domain.Recipe{
		ID:    "soft-boiled-eggs",
		Title: "Soft Boiled Eggs",
		Ingredients: []string{
			"2 eggs, straight from the fridge",
			"a bowl of ice water",
		},
		Steps: []string{
			"Bring a small pot of water to a rolling boil.",
			"Lower the eggs in gently with a spoon and boil for exactly 6 minutes.",
			"Move the eggs to the ice water for 1 minute, then peel and serve.",
		},
		Timing:     &domain.Timing{Prep: 1, Cook: 7, Total: 8},
		Techniques: []string{"boiling", "shocking"},
	}
}
