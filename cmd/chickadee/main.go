package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/kjgarza/chickadee/internal/config"
	"github.com/kjgarza/chickadee/internal/events"
	"github.com/kjgarza/chickadee/internal/eventstore"
	"github.com/kjgarza/chickadee/internal/metrics"
	"github.com/kjgarza/chickadee/internal/recipe"
	"github.com/kjgarza/chickadee/internal/server"
	"github.com/kjgarza/chickadee/internal/session"
	"github.com/kjgarza/chickadee/internal/site"
	"github.com/kjgarza/chickadee/internal/source"
	"github.com/kjgarza/chickadee/internal/timeline"
	"github.com/kjgarza/chickadee/internal/timerstate"
	"github.com/kjgarza/chickadee/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		SourcesDir string `help:"Directory git recipe sources are checked out under" default:"./data/sources"`
	} `cmd:"" help:"Build the recipe site from local content and configured sources"`

	Serve struct {
		SourcesDir string `help:"Directory git recipe sources are checked out under" default:"./data/sources"`
	} `cmd:"" help:"Build the site and serve it with the timer API"`

	Validate struct{} `cmd:"" help:"Validate configuration and recipe content without building"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Timer struct {
		Start struct {
			Recipe   string `arg:"" help:"Recipe slug"`
			Servings int    `help:"Serving size to cook for (defaults to the recipe's)"`
		} `cmd:"" help:"Start a recipe timer"`
		Pause struct {
			Recipe string `arg:"" help:"Recipe slug"`
		} `cmd:"" help:"Pause a running recipe timer"`
		Resume struct {
			Recipe string `arg:"" help:"Recipe slug"`
		} `cmd:"" help:"Resume a paused recipe timer"`
		Reset struct {
			Recipe string `arg:"" help:"Recipe slug"`
		} `cmd:"" help:"Reset a recipe timer"`
		Status struct {
			Recipe string `arg:"" help:"Recipe slug"`
		} `cmd:"" help:"Print the timer state and step countdowns for a recipe"`
	} `cmd:"" help:"Control recipe timers from the command line"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "build":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runBuild(cfg, CLI.Build.SourcesDir); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runServe(cfg, CLI.Serve.SourcesDir); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "validate":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runValidate(cfg); err != nil {
			slog.Error("Validation failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration written", "path", CLI.Config)
	case "timer start <recipe>":
		runTimer(func(cfg *config.Config, store *timerstate.Store) error {
			return timerStart(cfg, store, CLI.Timer.Start.Recipe, CLI.Timer.Start.Servings)
		})
	case "timer pause <recipe>":
		runTimer(func(_ *config.Config, store *timerstate.Store) error {
			_, err := store.Pause(CLI.Timer.Pause.Recipe)
			return err
		})
	case "timer resume <recipe>":
		runTimer(func(_ *config.Config, store *timerstate.Store) error {
			_, err := store.Resume(CLI.Timer.Resume.Recipe)
			return err
		})
	case "timer reset <recipe>":
		runTimer(func(_ *config.Config, store *timerstate.Store) error {
			return store.Reset(CLI.Timer.Reset.Recipe)
		})
	case "timer status <recipe>":
		runTimer(func(cfg *config.Config, store *timerstate.Store) error {
			return timerStatus(cfg, store, CLI.Timer.Status.Recipe)
		})
	case "version":
		fmt.Printf("chickadee %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
}

// syncSources checks out the configured git sources and returns the extra
// content directories they contribute.
func syncSources(ctx context.Context, cfg *config.Config, sourcesDir string) ([]string, error) {
	if len(cfg.Sources) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(sourcesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sources dir: %w", err)
	}
	return source.NewFetcher(sourcesDir).SyncAll(ctx, cfg.Sources)
}

func runBuild(cfg *config.Config, sourcesDir string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	extra, err := syncSources(ctx, cfg, sourcesDir)
	if err != nil {
		return err
	}

	builder := site.NewBuilder(cfg, metrics.NoopRecorder{}).
		WithContentDirs(append([]string{cfg.Content.Dir}, extra...)...)

	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	slog.Info("Site built",
		"recipes", report.Recipes,
		"pages", report.Pages,
		"duration", report.Duration,
		"link_issues", len(report.LinkIssues))
	for _, issue := range report.LinkIssues {
		slog.Warn("Broken internal link", "page", issue.Page, "target", issue.Target)
	}
	return nil
}

func runServe(cfg *config.Config, sourcesDir string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	extra, err := syncSources(ctx, cfg, sourcesDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dirOf(cfg.Timer.StatePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	store := timerstate.New(timerstate.NewFileBackend(cfg.Timer.StatePath))

	var history eventstore.Store
	if cfg.Timer.HistoryPath != "" {
		if err := os.MkdirAll(dirOf(cfg.Timer.HistoryPath), 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
		history, err = eventstore.NewSQLiteStore(cfg.Timer.HistoryPath)
		if err != nil {
			return fmt.Errorf("open timer history: %w", err)
		}
		defer history.Close()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		np, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		defer np.Close()
		publisher = np
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}

	opts := server.Options{
		Recorder:         recorder,
		ExtraContentDirs: extra,
	}
	if cfg.Metrics.Enabled {
		pr := metrics.NewPrometheusRecorder(prom.NewRegistry())
		recorder = pr
		opts.Recorder = pr
		opts.MetricsHandler = pr.Handler()
	}

	opts.Manager = session.NewManager(session.Options{
		Store:     store,
		History:   history,
		Publisher: publisher,
		Recorder:  recorder,
		Interval:  cfg.TickDuration(),
	})
	opts.Builder = site.NewBuilder(cfg, recorder).
		WithContentDirs(append([]string{cfg.Content.Dir}, extra...)...)

	srv := server.New(cfg, opts)
	return srv.Start(ctx)
}

func runValidate(cfg *config.Config) error {
	entries, err := recipe.LoadDir(cfg.Content.Dir)
	if err != nil {
		return err
	}
	withTimer := 0
	for _, e := range entries {
		if e.Process != nil {
			withTimer++
		}
	}
	slog.Info("Content is valid", "recipes", len(entries), "with_timer", withTimer)
	return nil
}

// runTimer loads config, opens the shared state file, runs fn, and exits
// non-zero on failure. CLI timer commands act on the same state file serve
// mode uses.
func runTimer(fn func(*config.Config, *timerstate.Store) error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(dirOf(cfg.Timer.StatePath), 0o755); err != nil {
		slog.Error("Failed to create state dir", "error", err)
		os.Exit(1)
	}
	store := timerstate.New(timerstate.NewFileBackend(cfg.Timer.StatePath))
	if err := fn(cfg, store); err != nil {
		slog.Error("Timer command failed", "error", err)
		os.Exit(1)
	}
}

func timerStart(cfg *config.Config, store *timerstate.Store, slug string, servings int) error {
	entry, err := findRecipe(cfg, slug)
	if err != nil {
		return err
	}
	if entry.Process == nil {
		return fmt.Errorf("recipe %q has no timer process", slug)
	}
	if servings <= 0 {
		servings = entry.Recipe.Servings
	}
	state, err := store.Start(slug, servings)
	if err != nil {
		return err
	}
	slog.Info("Timer started", "recipe", slug, "servings", state.ServingSize)
	return nil
}

func timerStatus(cfg *config.Config, store *timerstate.Store, slug string) error {
	entry, err := findRecipe(cfg, slug)
	if err != nil {
		return err
	}
	if entry.Process == nil {
		return fmt.Errorf("recipe %q has no timer process", slug)
	}

	status := struct {
		Recipe    string                 `json:"recipe"`
		Phase     string                 `json:"phase"`
		ElapsedMs int64                  `json:"elapsedMs"`
		Display   timeline.DisplayState  `json:"display"`
		State     *timerstate.TimerState `json:"state,omitempty"`
	}{
		Recipe:    slug,
		Phase:     string(store.Phase(slug)),
		ElapsedMs: store.ElapsedMs(slug),
		Display:   timeline.ComputeDisplayState(entry.Process.Items, store.ElapsedMs(slug)),
	}
	if st, ok := store.Get(slug); ok {
		status.State = &st
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

func findRecipe(cfg *config.Config, slug string) (recipe.Entry, error) {
	entries, err := recipe.LoadDir(cfg.Content.Dir)
	if err != nil {
		return recipe.Entry{}, err
	}
	for _, e := range entries {
		if e.Recipe.Slug == slug {
			return e, nil
		}
	}
	return recipe.Entry{}, fmt.Errorf("recipe %q not found under %s", slug, cfg.Content.Dir)
}

func dirOf(path string) string {
	if d := filepath.Dir(path); d != "" {
		return d
	}
	return "."
}
