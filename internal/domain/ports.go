package domain

import "context"

// RecipeSource provides recipes. Implementations can be in-memory,
// file-based, or backed by the structuring service.
type RecipeSource interface {
	List(ctx context.Context) ([]RecipeSummary, error)
	Get(ctx context.Context, id string) (*Recipe, error)
}

// RecipeStructurer turns free-form narration into a structured recipe.
// Implementations must return a recipe that passes validation.
type RecipeStructurer interface {
	Structure(ctx context.Context, narration string) (*Recipe, error)
}

// Notifier delivers messages to the user. Implementations can write to
// stdout or a terminal UI.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// Alerter plays an audible cue, e.g. when a timer completes.
type Alerter interface {
	Alert(ctx context.Context) error
}
