// Package logfields defines canonical slog attribute keys and helpers.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyMediaDir   = "media_dir"
	KeyPath       = "path"
	KeyIndex      = "index"
	KeyURL        = "url"
	KeyCount      = "count"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRunID      = "run_id"
	KeyAddr       = "addr"
	KeyStatus     = "status"
	KeyMethod     = "method"
	KeyError      = "error"
)

func MediaDir(dir string) slog.Attr    { return slog.String(KeyMediaDir, dir) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Index(i int) slog.Attr            { return slog.Int(KeyIndex, i) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
