// Package site generates the static recipe viewer site: one page per
// recipe plus an index, the per-recipe process documents the timer consumes,
// and passthrough copies of recipe images.
package site

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kjgarza/chickadee/internal/config"
	"github.com/kjgarza/chickadee/internal/logfields"
	"github.com/kjgarza/chickadee/internal/metrics"
	"github.com/kjgarza/chickadee/internal/recipe"
	"github.com/kjgarza/chickadee/internal/timeline"
)

// Builder renders the static site from one or more content directories.
type Builder struct {
	cfg         *config.Config
	recorder    metrics.Recorder
	contentDirs []string
}

// Report summarizes one build.
type Report struct {
	Recipes    int
	Pages      int
	Duration   time.Duration
	LinkIssues []LinkIssue
}

// NewBuilder creates a site builder. A nil recorder disables metrics.
func NewBuilder(cfg *config.Config, recorder metrics.Recorder) *Builder {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, recorder: recorder, contentDirs: []string{cfg.Content.Dir}}
}

// WithContentDirs replaces the directories recipes are loaded from; used
// when git sources contribute additional recipe collections.
func (b *Builder) WithContentDirs(dirs ...string) *Builder {
	b.contentDirs = dirs
	return b
}

type recipeSummary struct {
	Slug         string
	Title        string
	Servings     int
	HasTimer     bool
	TotalMinutes int
}

type indexData struct {
	SiteTitle       string
	SiteDescription string
	BaseURL         string
	Recipes         []recipeSummary
}

type stepView struct {
	ID              string
	TextHTML        template.HTML
	StartMinute     float64
	DurationMinutes float64
	Resource        string
	Image           string
	Critical        bool
}

type recipePage struct {
	SiteTitle       string
	BaseURL         string
	Slug            string
	Recipe          *recipe.Recipe
	DescriptionHTML template.HTML
	HasTimer        bool
	Steps           []stepView
}

// Build renders the whole site. The returned report includes link issues
// found in the generated HTML; those are warnings, not failures.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	started := time.Now()
	report, err := b.build(ctx)
	elapsed := time.Since(started)

	b.recorder.ObserveBuildDuration(elapsed)
	if err != nil {
		b.recorder.IncBuildOutcome("failed")
		return nil, err
	}
	report.Duration = elapsed
	b.recorder.IncBuildOutcome("success")
	slog.Info("Site build finished",
		slog.Int("recipes", report.Recipes),
		slog.Int("pages", report.Pages),
		slog.Duration("duration", elapsed),
		slog.Int("link_issues", len(report.LinkIssues)))
	return report, nil
}

func (b *Builder) build(ctx context.Context) (*Report, error) {
	entries, err := recipe.LoadDirs(b.contentDirs)
	if err != nil {
		return nil, err
	}

	outDir := b.cfg.Output.Directory
	if b.cfg.Output.Clean {
		if err := os.RemoveAll(outDir); err != nil {
			return nil, fmt.Errorf("clean output directory: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(outDir, "static"), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "static", "style.css"), []byte(styleSheet), 0o644); err != nil {
		return nil, fmt.Errorf("write stylesheet: %w", err)
	}

	report := &Report{Recipes: len(entries)}
	baseURL := strings.TrimSuffix(b.cfg.Site.BaseURL, "/")

	var summaries []recipeSummary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary, err := b.buildRecipe(entry, outDir, baseURL)
		if err != nil {
			return nil, fmt.Errorf("build recipe %s: %w", entry.Recipe.Slug, err)
		}
		summaries = append(summaries, summary)
		report.Pages++
	}

	if err := b.writeIndex(outDir, baseURL, summaries); err != nil {
		return nil, err
	}
	report.Pages++

	issues, err := VerifyLinks(outDir)
	if err != nil {
		slog.Warn("Link verification failed", logfields.Error(err))
	}
	for _, issue := range issues {
		slog.Warn("Broken internal link", logfields.Path(issue.Page), logfields.URL(issue.Target))
	}
	report.LinkIssues = issues
	return report, nil
}

func (b *Builder) writeIndex(outDir, baseURL string, summaries []recipeSummary) error {
	tpl, err := parsePage(indexContent)
	if err != nil {
		return err
	}
	data := indexData{
		SiteTitle:       b.cfg.Site.Title,
		SiteDescription: b.cfg.Site.Description,
		BaseURL:         baseURL,
		Recipes:         summaries,
	}
	return renderToFile(tpl, filepath.Join(outDir, "index.html"), data)
}

func (b *Builder) buildRecipe(entry recipe.Entry, outDir, baseURL string) (recipeSummary, error) {
	r := entry.Recipe
	slug := r.Slug
	if slug == "" {
		slug = Slugify(r.Title)
	}

	recipeDir := filepath.Join(outDir, slug)
	if err := os.MkdirAll(recipeDir, 0o755); err != nil {
		return recipeSummary{}, err
	}

	descriptionHTML, err := renderMarkdown(r.Description)
	if err != nil {
		return recipeSummary{}, err
	}

	steps, err := buildStepViews(r, entry.Process)
	if err != nil {
		return recipeSummary{}, err
	}

	page := recipePage{
		SiteTitle:       b.cfg.Site.Title,
		BaseURL:         baseURL,
		Slug:            slug,
		Recipe:          r,
		DescriptionHTML: descriptionHTML,
		HasTimer:        entry.Process != nil,
		Steps:           steps,
	}

	tpl, err := parsePage(recipeContent)
	if err != nil {
		return recipeSummary{}, err
	}
	if err := renderToFile(tpl, filepath.Join(recipeDir, "index.html"), page); err != nil {
		return recipeSummary{}, err
	}

	summary := recipeSummary{Slug: slug, Title: r.Title, Servings: r.Servings}
	if entry.Process != nil {
		data, err := recipe.MarshalProcess(entry.Process)
		if err != nil {
			return recipeSummary{}, err
		}
		if err := os.WriteFile(filepath.Join(recipeDir, "process.json"), data, 0o644); err != nil {
			return recipeSummary{}, fmt.Errorf("write process.json: %w", err)
		}
		summary.HasTimer = true
		summary.TotalMinutes = int(timeline.TotalMinutes(entry.Process.Items) + 0.5)
	}

	if err := copyImages(entry.Dir, recipeDir); err != nil {
		return recipeSummary{}, err
	}
	return summary, nil
}

// buildStepViews merges authored step text with the resolved timeline
// offsets. Steps present only in the process (e.g. derived markers) render
// with their title; steps without a timeline keep a zero offset.
func buildStepViews(r *recipe.Recipe, proc *recipe.Process) ([]stepView, error) {
	byID := make(map[string]timeline.Action)
	var order []timeline.Action
	if proc != nil {
		order = timeline.Actions(proc.Items)
		for _, a := range order {
			byID[a.ID] = a
		}
	}

	authored := make(map[string]recipe.Step, len(r.Steps))
	for _, s := range r.Steps {
		authored[s.ID] = s
	}

	var views []stepView
	appendView := func(id, text, resource, image string, start, duration float64, critical bool) error {
		textHTML, err := renderMarkdown(text)
		if err != nil {
			return err
		}
		views = append(views, stepView{
			ID:              id,
			TextHTML:        textHTML,
			StartMinute:     start,
			DurationMinutes: duration,
			Resource:        resource,
			Image:           image,
			Critical:        critical,
		})
		return nil
	}

	if proc == nil {
		for _, s := range r.Steps {
			if err := appendView(s.ID, s.Text, s.Resource, s.Image, 0, s.DurationMinutes, s.Critical); err != nil {
				return nil, err
			}
		}
		return views, nil
	}

	for _, a := range order {
		text := a.Title
		resource := a.Resource
		image := a.Image
		critical := a.IsCriticalPath
		if s, ok := authored[a.ID]; ok {
			if s.Text != "" {
				text = s.Text
			}
			if resource == "" {
				resource = s.Resource
			}
			if image == "" {
				image = s.Image
			}
			critical = critical || s.Critical
		}
		if err := appendView(a.ID, text, resource, image, a.StartMinute, a.DurationMinutes, critical); err != nil {
			return nil, err
		}
	}
	return views, nil
}

func renderToFile(tpl *template.Template, path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := tpl.ExecuteTemplate(f, "base", data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// copyImages passes recipe images through to the output directory untouched.
func copyImages(srcDir, dstDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if de.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(de.Name()))] {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, de.Name()), filepath.Join(dstDir, de.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
