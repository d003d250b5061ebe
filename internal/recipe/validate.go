package recipe

import (
	"fmt"

	"github.com/kjgarza/chickadee/internal/timeline"
)

// Validate is the sole gatekeeper for malformed process documents. The timer
// engine itself assumes well-formed input, so every process must pass here
// before it reaches a session.
func (p *Process) Validate() error {
	if p.RecipeID == "" {
		return fmt.Errorf("process is missing recipeId")
	}

	seen := make(map[string]bool)
	check := func(id string, start, duration float64) error {
		if id == "" {
			return fmt.Errorf("timeline item is missing an id")
		}
		if seen[id] {
			return fmt.Errorf("duplicate timeline id %q", id)
		}
		seen[id] = true
		if start < 0 {
			return fmt.Errorf("item %q: startMinute must be non-negative, got %v", id, start)
		}
		if duration < 0 {
			return fmt.Errorf("item %q: durationMinutes must be non-negative, got %v", id, duration)
		}
		return nil
	}

	for _, item := range p.Items {
		switch v := item.(type) {
		case timeline.Action:
			if err := check(v.ID, v.StartMinute, v.DurationMinutes); err != nil {
				return err
			}
		case timeline.ParallelBlock:
			if err := check(v.ID, v.StartMinute, 0); err != nil {
				return err
			}
			if len(v.Steps) == 0 {
				return fmt.Errorf("parallel block %q has no steps", v.ID)
			}
			for _, a := range v.Steps {
				if err := check(a.ID, a.StartMinute, a.DurationMinutes); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unknown timeline item type %T", item)
		}
	}
	return nil
}

// ValidateRecipe checks an authored recipe for the fields the viewer needs.
func ValidateRecipe(r *Recipe) error {
	if r.Title == "" {
		return fmt.Errorf("recipe is missing a title")
	}
	if r.Servings <= 0 {
		return fmt.Errorf("recipe %q: servings must be positive", r.Title)
	}
	seen := make(map[string]bool)
	for i, step := range r.Steps {
		if step.ID == "" {
			return fmt.Errorf("recipe %q: step %d is missing an id", r.Title, i)
		}
		if seen[step.ID] {
			return fmt.Errorf("recipe %q: duplicate step id %q", r.Title, step.ID)
		}
		seen[step.ID] = true
		if step.DurationMinutes < 0 {
			return fmt.Errorf("recipe %q: step %q has negative duration", r.Title, step.ID)
		}
	}
	return nil
}
