package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRecipe     = "recipe"
	KeySession    = "session_id"
	KeyStep       = "step"
	KeyPhase      = "phase"
	KeyTransition = "transition"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyName       = "name"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Recipe(id string) slog.Attr      { return slog.String(KeyRecipe, id) }
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func Step(id string) slog.Attr        { return slog.String(KeyStep, id) }
func Phase(p string) slog.Attr        { return slog.String(KeyPhase, p) }
func Transition(t string) slog.Attr   { return slog.String(KeyTransition, t) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
