package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kjgarza/chickadee/internal/logfields"
	"github.com/kjgarza/chickadee/internal/session"
	"github.com/kjgarza/chickadee/internal/timeline"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metricsH != nil && s.cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", s.metricsH)
	}

	mux.HandleFunc("GET /api/recipes", s.handleListRecipes)
	mux.HandleFunc("GET /api/recipes/{slug}/timer", s.handleTimerStatus)
	mux.HandleFunc("POST /api/recipes/{slug}/timer/start", s.timerControl("start"))
	mux.HandleFunc("POST /api/recipes/{slug}/timer/pause", s.timerControl("pause"))
	mux.HandleFunc("POST /api/recipes/{slug}/timer/resume", s.timerControl("resume"))
	mux.HandleFunc("POST /api/recipes/{slug}/timer/reset", s.timerControl("reset"))

	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Output.Directory)))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recipeListItem struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Servings int    `json:"servings"`
	HasTimer bool   `json:"hasTimer"`
	Phase    string `json:"phase"`
}

func (s *Server) handleListRecipes(w http.ResponseWriter, _ *http.Request) {
	store := s.manager.Store()
	var items []recipeListItem
	for _, e := range s.allEntries() {
		items = append(items, recipeListItem{
			Slug:     e.Recipe.Slug,
			Title:    e.Recipe.Title,
			Servings: e.Recipe.Servings,
			HasTimer: e.Process != nil,
			Phase:    string(store.Phase(e.Recipe.Slug)),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// timerStatus is the poll response the viewer redraws from; it carries the
// same information a tick would.
type timerStatus struct {
	RecipeID  string                `json:"recipeId"`
	Phase     string                `json:"phase"`
	ElapsedMs int64                 `json:"elapsedMs"`
	Display   timeline.DisplayState `json:"display"`
}

func (s *Server) handleTimerStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.timerSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, timerStatus{
		RecipeID:  sess.RecipeID,
		Phase:     string(sess.Phase()),
		ElapsedMs: sess.ElapsedMs(),
		Display:   sess.Recompute(),
	})
}

type startRequest struct {
	Servings int `json:"servings"`
}

func (s *Server) timerControl(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.timerSession(w, r)
		if !ok {
			return
		}

		var err error
		switch action {
		case "start":
			req := startRequest{}
			if r.Body != nil {
				// An empty or absent body means default servings.
				_ = json.NewDecoder(r.Body).Decode(&req)
			}
			if req.Servings <= 0 {
				if e, found := s.entry(sess.RecipeID); found {
					req.Servings = e.Recipe.Servings
				}
			}
			err = sess.Start(r.Context(), req.Servings)
		case "pause":
			err = sess.Pause(r.Context())
		case "resume":
			err = sess.Resume(r.Context())
		case "reset":
			err = sess.Reset(r.Context())
		}
		if err != nil {
			slog.Error("Timer control failed", logfields.Recipe(sess.RecipeID), logfields.Transition(action), logfields.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "timer state could not be saved"})
			return
		}

		writeJSON(w, http.StatusOK, timerStatus{
			RecipeID:  sess.RecipeID,
			Phase:     string(sess.Phase()),
			ElapsedMs: sess.ElapsedMs(),
			Display:   sess.Recompute(),
		})
	}
}

// timerSession resolves the request's recipe to its session, rejecting
// unknown recipes and recipes without a process timeline.
func (s *Server) timerSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	slug := r.PathValue("slug")
	entry, ok := s.entry(slug)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown recipe"})
		return nil, false
	}
	if entry.Process == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "recipe has no timed process"})
		return nil, false
	}
	return s.manager.GetOrCreate(slug, entry.Process.Items), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", logfields.Error(err))
	}
}
