package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjgarza/chickadee/internal/config"
	"github.com/kjgarza/chickadee/internal/recipe"
	"github.com/kjgarza/chickadee/internal/session"
	"github.com/kjgarza/chickadee/internal/timeline"
	"github.com/kjgarza/chickadee/internal/timerstate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Output.Directory = t.TempDir()

	store := timerstate.New(timerstate.NewMemoryBackend())
	manager := session.NewManager(session.Options{Store: store})

	s := New(cfg, Options{Manager: manager})
	s.entries = map[string]recipe.Entry{
		"carbonara": {
			Recipe: &recipe.Recipe{Slug: "carbonara", Title: "Carbonara", Servings: 4},
			Process: &recipe.Process{RecipeID: "carbonara", Items: []timeline.Item{
				timeline.Action{ID: "boil", StartMinute: 0, DurationMinutes: 8},
				timeline.Action{ID: "cook", StartMinute: 8, DurationMinutes: 10},
			}},
		},
		"toast": {
			Recipe: &recipe.Recipe{Slug: "toast", Title: "Toast", Servings: 1},
		},
	}
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t).routes()
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListRecipes(t *testing.T) {
	h := newTestServer(t).routes()

	var items []recipeListItem
	rec := doJSON(t, h, http.MethodGet, "/api/recipes", "", &items)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, items, 2)

	bydSlug := map[string]recipeListItem{}
	for _, it := range items {
		bydSlug[it.Slug] = it
	}
	assert.True(t, bydSlug["carbonara"].HasTimer)
	assert.False(t, bydSlug["toast"].HasTimer)
	assert.Equal(t, "stopped", bydSlug["carbonara"].Phase)
}

func TestTimerLifecycleOverHTTP(t *testing.T) {
	h := newTestServer(t).routes()

	var status timerStatus
	rec := doJSON(t, h, http.MethodPost, "/api/recipes/carbonara/timer/start", `{"servings":2}`, &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", status.Phase)
	assert.Equal(t, "carbonara", status.RecipeID)
	assert.NotEmpty(t, status.Display.Steps)

	rec = doJSON(t, h, http.MethodPost, "/api/recipes/carbonara/timer/pause", "", &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paused", status.Phase)
	frozen := status.ElapsedMs

	rec = doJSON(t, h, http.MethodGet, "/api/recipes/carbonara/timer", "", &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, frozen, status.ElapsedMs, "paused elapsed time is frozen")

	rec = doJSON(t, h, http.MethodPost, "/api/recipes/carbonara/timer/resume", "", &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", status.Phase)

	rec = doJSON(t, h, http.MethodPost, "/api/recipes/carbonara/timer/reset", "", &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stopped", status.Phase)
	assert.EqualValues(t, 0, status.ElapsedMs)
}

func TestTimerStartDefaultsServings(t *testing.T) {
	s := newTestServer(t)
	h := s.routes()

	var status timerStatus
	rec := doJSON(t, h, http.MethodPost, "/api/recipes/carbonara/timer/start", "", &status)
	require.Equal(t, http.StatusOK, rec.Code)

	st, ok := s.manager.Store().Get("carbonara")
	require.True(t, ok)
	assert.Equal(t, 4, st.ServingSize, "servings default to the recipe's base serving count")
}

func TestTimerUnknownRecipe(t *testing.T) {
	h := newTestServer(t).routes()
	rec := doJSON(t, h, http.MethodGet, "/api/recipes/nope/timer", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimerRecipeWithoutProcess(t *testing.T) {
	h := newTestServer(t).routes()
	rec := doJSON(t, h, http.MethodPost, "/api/recipes/toast/timer/start", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPanicRecovery(t *testing.T) {
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
