package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjgarza/chickadee/internal/timeline"
)

const carbonaraProcess = `{
  "recipeId": "carbonara",
  "timeline": [
    {"id": "boil-water", "startMinute": 0, "durationMinutes": 8},
    {"id": "prep", "type": "parallel", "startMinute": 0, "steps": [
      {"id": "dice-guanciale", "startMinute": 0, "durationMinutes": 4},
      {"id": "grate-cheese", "startMinute": 4, "durationMinutes": 3, "isCriticalPath": true}
    ]},
    {"id": "cook-pasta", "startMinute": 8, "durationMinutes": 10, "resource": "stovetop", "isCriticalPath": true}
  ]
}`

func TestParseProcess(t *testing.T) {
	proc, err := ParseProcess([]byte(carbonaraProcess))
	require.NoError(t, err)
	assert.Equal(t, "carbonara", proc.RecipeID)
	require.Len(t, proc.Items, 3)

	boil, ok := proc.Items[0].(timeline.Action)
	require.True(t, ok)
	assert.Equal(t, "boil-water", boil.ID)
	assert.Equal(t, 8.0, boil.DurationMinutes)

	block, ok := proc.Items[1].(timeline.ParallelBlock)
	require.True(t, ok)
	require.Len(t, block.Steps, 2)
	assert.True(t, block.Steps[1].IsCriticalPath)

	pasta, ok := proc.Items[2].(timeline.Action)
	require.True(t, ok)
	assert.Equal(t, "stovetop", pasta.Resource)

	require.NoError(t, proc.Validate())
}

func TestParseProcessRejectsNestedBlocks(t *testing.T) {
	_, err := ParseProcess([]byte(`{
  "recipeId": "r",
  "timeline": [
    {"id": "outer", "type": "parallel", "startMinute": 0, "steps": [
      {"id": "inner", "type": "parallel", "startMinute": 0, "steps": []}
    ]}
  ]
}`))
	assert.ErrorContains(t, err, "cannot nest")
}

func TestParseProcessBadJSON(t *testing.T) {
	_, err := ParseProcess([]byte("{nope"))
	assert.Error(t, err)
}

func TestMarshalProcessRoundTrip(t *testing.T) {
	proc, err := ParseProcess([]byte(carbonaraProcess))
	require.NoError(t, err)

	data, err := MarshalProcess(proc)
	require.NoError(t, err)

	again, err := ParseProcess(data)
	require.NoError(t, err)
	assert.Equal(t, proc, again)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		proc Process
		want string
	}{
		{
			"negative duration",
			Process{RecipeID: "r", Items: []timeline.Item{
				timeline.Action{ID: "a", StartMinute: 0, DurationMinutes: -1},
			}},
			"non-negative",
		},
		{
			"negative start",
			Process{RecipeID: "r", Items: []timeline.Item{
				timeline.Action{ID: "a", StartMinute: -2},
			}},
			"non-negative",
		},
		{
			"duplicate id",
			Process{RecipeID: "r", Items: []timeline.Item{
				timeline.Action{ID: "a"},
				timeline.Action{ID: "a"},
			}},
			"duplicate",
		},
		{
			"missing id",
			Process{RecipeID: "r", Items: []timeline.Item{timeline.Action{}}},
			"missing an id",
		},
		{
			"empty block",
			Process{RecipeID: "r", Items: []timeline.Item{
				timeline.ParallelBlock{ID: "p"},
			}},
			"no steps",
		},
		{
			"missing recipe id",
			Process{},
			"recipeId",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorContains(t, tc.proc.Validate(), tc.want)
		})
	}
}

func writeRecipeDir(t *testing.T, root, slug, recipeYAML, processJSON string) {
	t.Helper()
	dir := filepath.Join(root, slug)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recipe.yaml"), []byte(recipeYAML), 0o644))
	if processJSON != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "process.json"), []byte(processJSON), 0o644))
	}
}

const minimalRecipe = `
title: Carbonara
servings: 4
steps:
  - id: boil-water
    text: Bring a large pot of salted water to a boil.
    duration_minutes: 8
`

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeRecipeDir(t, root, "carbonara", minimalRecipe, carbonaraProcess)
	writeRecipeDir(t, root, "toast", "title: Toast\nservings: 1\nsteps: []\n", "")
	// Directories without recipe.yaml are skipped, not errors.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))

	entries, err := LoadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "carbonara", entries[0].Recipe.Slug)
	require.NotNil(t, entries[0].Process)
	assert.Len(t, entries[0].Process.Items, 3)

	assert.Equal(t, "toast", entries[1].Recipe.Slug)
	assert.Nil(t, entries[1].Process, "recipes without process.json have no timer")
}

func TestLoadDirInvalidRecipe(t *testing.T) {
	root := t.TempDir()
	writeRecipeDir(t, root, "bad", "title: Bad\nservings: 0\nsteps: []\n", "")

	_, err := LoadDir(root)
	assert.ErrorContains(t, err, "servings")
}

func TestLoadDirInvalidProcess(t *testing.T) {
	root := t.TempDir()
	writeRecipeDir(t, root, "bad", minimalRecipe, `{"recipeId":"bad","timeline":[{"id":"x","startMinute":-1}]}`)

	_, err := LoadDir(root)
	assert.ErrorContains(t, err, "non-negative")
}

func TestLoadDirsMergesAndSorts(t *testing.T) {
	local := t.TempDir()
	synced := t.TempDir()
	writeRecipeDir(t, local, "toast", "title: Toast\nservings: 1\nsteps: []\n", "")
	writeRecipeDir(t, synced, "carbonara", minimalRecipe, "")

	entries, err := LoadDirs([]string{local, synced})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "carbonara", entries[0].Recipe.Slug)
	assert.Equal(t, "toast", entries[1].Recipe.Slug)
}

func TestLoadDirsRejectsDuplicateSlug(t *testing.T) {
	local := t.TempDir()
	synced := t.TempDir()
	writeRecipeDir(t, local, "toast", "title: Toast\nservings: 1\nsteps: []\n", "")
	writeRecipeDir(t, synced, "toast", "title: Toast Too\nservings: 2\nsteps: []\n", "")

	_, err := LoadDirs([]string{local, synced})
	assert.ErrorContains(t, err, "toast")
}
