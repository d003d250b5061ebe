package recipe

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kjgarza/chickadee/internal/logfields"
)

// Entry pairs a loaded recipe with its process timeline. Process is nil when
// the recipe directory carries no process.json; such recipes render without
// a timer.
type Entry struct {
	Recipe  *Recipe
	Process *Process
	// Dir is the recipe's source directory, used for image passthrough.
	Dir string
}

// LoadDir loads every recipe under contentDir. Each immediate subdirectory
// holding a recipe.yaml is one recipe; an optional process.json alongside it
// provides the timeline. Entries come back sorted by slug.
func LoadDir(contentDir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(contentDir)
	if err != nil {
		return nil, fmt.Errorf("read content directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		dir := filepath.Join(contentDir, de.Name())
		entry, err := loadOne(dir, de.Name())
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", de.Name(), err)
		}
		if entry == nil {
			slog.Debug("Skipping directory without recipe.yaml", logfields.Path(dir))
			continue
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Recipe.Slug < entries[j].Recipe.Slug
	})
	return entries, nil
}

// LoadDirs loads recipes from several content directories (the local
// content dir plus any synced git sources). Slugs must be unique across all
// of them.
func LoadDirs(dirs []string) ([]Entry, error) {
	var all []Entry
	seen := make(map[string]string)
	for _, dir := range dirs {
		entries, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if prev, dup := seen[e.Recipe.Slug]; dup {
				return nil, fmt.Errorf("recipe slug %q appears in both %s and %s", e.Recipe.Slug, prev, dir)
			}
			seen[e.Recipe.Slug] = dir
		}
		all = append(all, entries...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Recipe.Slug < all[j].Recipe.Slug
	})
	return all, nil
}

func loadOne(dir, fallbackSlug string) (*Entry, error) {
	recipePath := filepath.Join(dir, "recipe.yaml")
	data, err := os.ReadFile(recipePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read recipe.yaml: %w", err)
	}

	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse recipe.yaml: %w", err)
	}
	if r.Slug == "" {
		r.Slug = fallbackSlug
	}
	if err := ValidateRecipe(&r); err != nil {
		return nil, err
	}

	entry := &Entry{Recipe: &r, Dir: dir}

	processPath := filepath.Join(dir, "process.json")
	procData, err := os.ReadFile(processPath)
	if os.IsNotExist(err) {
		return entry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read process.json: %w", err)
	}

	proc, err := ParseProcess(procData)
	if err != nil {
		return nil, err
	}
	if proc.RecipeID == "" {
		proc.RecipeID = r.Slug
	}
	if err := proc.Validate(); err != nil {
		return nil, fmt.Errorf("process.json: %w", err)
	}
	entry.Process = proc
	return entry, nil
}
