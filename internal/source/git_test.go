package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjgarza/chickadee/internal/config"
)

// initUpstream creates a local git repository with one committed recipe file
// on main, usable as a clone URL without any network.
func initUpstream(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: "refs/heads/main"},
	})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "carbonara"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "carbonara", "recipe.yaml"),
		[]byte("title: Carbonara\nservings: 4\nsteps: []\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("add carbonara", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)
	return dir
}

func TestSyncClonesAndPulls(t *testing.T) {
	upstream := initUpstream(t)
	fetcher := NewFetcher(t.TempDir())

	src := config.Source{Name: "family", URL: upstream, Branch: "main"}

	dir, err := fetcher.Sync(context.Background(), src)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "carbonara", "recipe.yaml"))
	assert.NoError(t, err)

	// Second sync takes the pull path and stays up to date.
	again, err := fetcher.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestSyncSubPath(t *testing.T) {
	upstream := initUpstream(t)
	fetcher := NewFetcher(t.TempDir())

	dir, err := fetcher.Sync(context.Background(), config.Source{
		Name: "family", URL: upstream, Branch: "main", Path: "carbonara",
	})
	require.NoError(t, err)
	assert.Equal(t, "carbonara", filepath.Base(dir))
	_, err = os.Stat(filepath.Join(dir, "recipe.yaml"))
	assert.NoError(t, err)
}

func TestSyncBadURL(t *testing.T) {
	fetcher := NewFetcher(t.TempDir())
	_, err := fetcher.Sync(context.Background(), config.Source{
		Name: "broken", URL: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	assert.Error(t, err)
}
