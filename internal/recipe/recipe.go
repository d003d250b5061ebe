// Package recipe defines the authored recipe model and its time-resolved
// process document, and loads both from a content directory.
package recipe

// Recipe is an authored dish definition. The Description and step text are
// markdown; rendering happens at site build time.
type Recipe struct {
	Slug        string       `yaml:"slug,omitempty"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description,omitempty"`
	Servings    int          `yaml:"servings"`
	Ingredients []Ingredient `yaml:"ingredients,omitempty"`
	Steps       []Step       `yaml:"steps"`
	Images      []string     `yaml:"images,omitempty"`
	Tags        []string     `yaml:"tags,omitempty"`
}

// Ingredient is one line of the ingredient list. Quantity is per the
// recipe's base Servings; the viewer scales it to the chosen serving size.
type Ingredient struct {
	Name     string  `yaml:"name"`
	Quantity float64 `yaml:"quantity,omitempty"`
	Unit     string  `yaml:"unit,omitempty"`
}

// Step is an authored cooking step; durations here are per-step, not yet
// resolved to absolute timeline offsets.
type Step struct {
	ID              string  `yaml:"id"`
	Text            string  `yaml:"text"`
	DurationMinutes float64 `yaml:"duration_minutes,omitempty"`
	Resource        string  `yaml:"resource,omitempty"`
	Image           string  `yaml:"image,omitempty"`
	Critical        bool    `yaml:"critical,omitempty"`
}
