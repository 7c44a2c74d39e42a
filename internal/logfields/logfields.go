package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyEntity     = "entity"
	KeyKind       = "kind"
	KeyCategory   = "category"
	KeyTemplate   = "template"
	KeyTarget     = "target"
	KeyPage       = "page"
	KeySource     = "source"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyWorker     = "worker"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Entity(id string) slog.Attr      { return slog.String(KeyEntity, id) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Source(name string) slog.Attr    { return slog.String(KeySource, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Worker(n int) slog.Attr          { return slog.Int(KeyWorker, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
