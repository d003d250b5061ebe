// Package source syncs recipe collections from git remotes into the local
// content directory tree.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kjgarza/chickadee/internal/config"
	"github.com/kjgarza/chickadee/internal/logfields"
)

// Fetcher clones and updates recipe source repositories under a workspace
// directory, one subdirectory per source name.
type Fetcher struct {
	workspaceDir string
}

// NewFetcher creates a fetcher rooted at workspaceDir.
func NewFetcher(workspaceDir string) *Fetcher {
	return &Fetcher{workspaceDir: workspaceDir}
}

// Sync clones the source on first use and pulls afterwards. It returns the
// directory recipes should be loaded from (the source's Path inside the
// checkout, when set).
func (f *Fetcher) Sync(ctx context.Context, src config.Source) (string, error) {
	repoPath := filepath.Join(f.workspaceDir, src.Name)

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		if err := f.pull(ctx, repoPath, src); err != nil {
			return "", err
		}
	} else {
		if err := f.clone(ctx, repoPath, src); err != nil {
			return "", err
		}
	}

	if src.Path != "" {
		return filepath.Join(repoPath, src.Path), nil
	}
	return repoPath, nil
}

func (f *Fetcher) clone(ctx context.Context, repoPath string, src config.Source) error {
	slog.Info("Cloning recipe source", logfields.Name(src.Name), logfields.URL(src.URL), slog.String("branch", src.Branch))

	if err := os.RemoveAll(repoPath); err != nil {
		return fmt.Errorf("remove stale checkout: %w", err)
	}

	opts := &git.CloneOptions{
		URL:          src.URL,
		SingleBranch: true,
	}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + src.Branch)
	}

	if _, err := git.PlainCloneContext(ctx, repoPath, false, opts); err != nil {
		return fmt.Errorf("clone source %s: %w", src.Name, err)
	}
	return nil
}

func (f *Fetcher) pull(ctx context.Context, repoPath string, src config.Source) error {
	slog.Debug("Updating recipe source", logfields.Name(src.Name), logfields.Path(repoPath))

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("open source checkout: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("pull source %s: %w", src.Name, err)
	}
	return nil
}

// SyncAll syncs every configured source and returns the recipe directories
// in configuration order.
func (f *Fetcher) SyncAll(ctx context.Context, sources []config.Source) ([]string, error) {
	var dirs []string
	for _, src := range sources {
		dir, err := f.Sync(ctx, src)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}
