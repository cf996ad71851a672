package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyBuildType  = "build_type"
	KeyNode       = "node"
	KeyPhase      = "phase"
	KeyStep       = "step"
	KeyAction     = "action"
	KeyPlugin     = "plugin"
	KeyResult     = "result"
	KeyReturnCode = "return_code"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyRevision   = "revision"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func BuildType(t string) slog.Attr    { return slog.String(KeyBuildType, t) }
func Node(path string) slog.Attr      { return slog.String(KeyNode, path) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Action(desc string) slog.Attr    { return slog.String(KeyAction, desc) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Result(r string) slog.Attr       { return slog.String(KeyResult, r) }
func ReturnCode(code int) slog.Attr   { return slog.Int(KeyReturnCode, code) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Revision(rev string) slog.Attr   { return slog.String(KeyRevision, rev) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to the canonical millisecond field.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
