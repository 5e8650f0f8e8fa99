// Package domain defines the core types and interfaces for the cooking
// session controller. All other packages depend on domain; domain depends
// on nothing.
package domain

// Recipe is a structured recipe as produced by the structuring service.
// Steps are plain instruction strings; their count fixes the session's
// step range.
type Recipe struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Timing      *Timing  `json:"timing,omitempty"`
	Techniques  []string `json:"techniques,omitempty"`
}

// Timing holds the optional prep/cook/total estimates, in minutes.
type Timing struct {
	Prep  int `json:"prep"`
	Cook  int `json:"cook"`
	Total int `json:"total"`
}

// TotalMinutes returns the total estimate, falling back to prep+cook.
func (t *Timing) TotalMinutes() int {
	if t == nil {
		return 0
	}
	if t.Total > 0 {
		return t.Total
	}
	return t.Prep + t.Cook
}

// RecipeSummary is a lightweight view of a recipe for listing.
type RecipeSummary struct {
	ID        string
	Title     string
	StepCount int
	Minutes   int
}

// Summary builds the listing view of r.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:        r.ID,
		Title:     r.Title,
		StepCount: len(r.Steps),
		Minutes:   r.Timing.TotalMinutes(),
	}
}

// Instruction returns the instruction text for a 0-based step index, or ""
// when the index is out of range.
func (r *Recipe) Instruction(index int) string {
	if index < 0 || index >= len(r.Steps) {
		return ""
	}
	return r.Steps[index]
}
