// Package server runs the viewer in serve mode: it serves the generated
// static site, exposes the timer control API that drives per-recipe
// sessions, and rebuilds the site when recipe content changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/kjgarza/chickadee/internal/config"
	"github.com/kjgarza/chickadee/internal/logfields"
	"github.com/kjgarza/chickadee/internal/metrics"
	"github.com/kjgarza/chickadee/internal/recipe"
	"github.com/kjgarza/chickadee/internal/session"
	"github.com/kjgarza/chickadee/internal/site"
)

// Options carries serve-mode collaborators.
type Options struct {
	Manager  *session.Manager
	Builder  *site.Builder
	Recorder metrics.Recorder
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
	// ExtraContentDirs are additional recipe collections, typically the
	// checkouts of configured git sources.
	ExtraContentDirs []string
}

// Server wires the HTTP surface, the content watcher and housekeeping.
type Server struct {
	cfg      *config.Config
	manager  *session.Manager
	builder  *site.Builder
	recorder metrics.Recorder
	metricsH http.Handler

	contentDirs []string

	mu      sync.RWMutex
	entries map[string]recipe.Entry // by slug

	httpServer *http.Server
	watcher    *contentWatcher
	scheduler  gocron.Scheduler
}

// New constructs a server. Call Start to run it.
func New(cfg *config.Config, opts Options) *Server {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Server{
		cfg:         cfg,
		manager:     opts.Manager,
		builder:     opts.Builder,
		recorder:    recorder,
		metricsH:    opts.MetricsHandler,
		contentDirs: append([]string{cfg.Content.Dir}, opts.ExtraContentDirs...),
		entries:     make(map[string]recipe.Entry),
	}
}

// Start builds the site, loads recipes, and begins serving. It blocks until
// ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		return err
	}

	if s.cfg.Server.WatchContent {
		watcher, err := newContentWatcher(s.cfg.Content.Dir, func() {
			if err := s.rebuild(context.Background()); err != nil {
				slog.Error("Rebuild after content change failed", logfields.Error(err))
			}
		})
		if err != nil {
			return err
		}
		s.watcher = watcher
		s.watcher.Start(ctx)
	}

	if err := s.startHousekeeping(); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           chain(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving", slog.String("addr", s.cfg.Server.Addr), logfields.Path(s.cfg.Output.Directory))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// Shutdown stops the HTTP listener, the watcher, housekeeping and all
// session tick loops.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down")

	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}
	s.manager.StopAll()

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
	return nil
}

// rebuild regenerates the site and reloads the recipe index the API serves
// from.
func (s *Server) rebuild(ctx context.Context) error {
	if _, err := s.builder.Build(ctx); err != nil {
		return err
	}

	entries, err := recipe.LoadDirs(s.contentDirs)
	if err != nil {
		return err
	}

	bySlug := make(map[string]recipe.Entry, len(entries))
	for _, e := range entries {
		bySlug[e.Recipe.Slug] = e
	}

	s.mu.Lock()
	s.entries = bySlug
	s.mu.Unlock()
	return nil
}

func (s *Server) entry(slug string) (recipe.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[slug]
	return e, ok
}

func (s *Server) allEntries() []recipe.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recipe.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// startHousekeeping schedules periodic pruning of transition history and of
// timer states whose recipe no longer exists.
func (s *Server) startHousekeeping() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	s.scheduler = scheduler

	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(s.housekeep),
		gocron.WithName("housekeeping"),
	)
	if err != nil {
		return fmt.Errorf("schedule housekeeping: %w", err)
	}

	scheduler.Start()
	return nil
}

func (s *Server) housekeep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := s.manager.Store()
	for _, id := range store.Recipes() {
		if _, ok := s.entry(id); ok {
			continue
		}
		slog.Info("Pruning timer state for removed recipe", logfields.Recipe(id))
		if err := store.Clear(id); err != nil {
			slog.Warn("Failed to prune timer state", logfields.Recipe(id), logfields.Error(err))
		}
		s.manager.Remove(id)
	}

	if history := s.manager.History(); history != nil {
		cutoff := time.Now().AddDate(0, 0, -s.cfg.Timer.RetentionDays)
		n, err := history.Prune(ctx, cutoff)
		if err != nil {
			slog.Warn("Failed to prune timer history", logfields.Error(err))
		} else if n > 0 {
			slog.Info("Pruned timer history", slog.Int64("events", n))
		}
	}
}
