package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHTML(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestVerifyLinksFindsBrokenInternalLinks(t *testing.T) {
	out := t.TempDir()
	writeHTML(t, out, "index.html", `<html><body>
		<a href="/carbonara/">ok</a>
		<a href="/missing/">broken</a>
		<a href="https://example.com/external">skipped</a>
		<a href="#fragment">skipped</a>
		<img src="static/logo.png">
	</body></html>`)
	writeHTML(t, out, "carbonara/index.html", `<html><body><a href="../">up</a></body></html>`)

	issues, err := VerifyLinks(out)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	targets := []string{issues[0].Target, issues[1].Target}
	assert.Contains(t, targets, "/missing/")
	assert.Contains(t, targets, "static/logo.png")
}

func TestVerifyLinksCleanSite(t *testing.T) {
	out := t.TempDir()
	writeHTML(t, out, "index.html", `<html><body><a href="recipe/">r</a></body></html>`)
	writeHTML(t, out, "recipe/index.html", `<html><body><a href="/">home</a></body></html>`)

	issues, err := VerifyLinks(out)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
