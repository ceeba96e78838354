// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — Cold-path operator logging
//
// Purpose:
//   - Prints setup progress, topology diagnostics and per-core results.
//   - Backed by log/slog with a tint console handler on stderr.
//
// Notes:
//   - Prefix-tagged lines ("INIT", "TOPOLOGY", "CORE") keep the console
//     terse while still carrying structured attributes.
//   - Setup may be called again to swap the writer or level (tests do this).
//
// ⚠️ Never invoke inside the walk loop — use only between runs.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/lmittmann/tint"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.Default())
}

// Setup installs a tint handler writing to w at the given level.
func Setup(w io.Writer, level slog.Level, noColor bool) {
	l := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	}))
	logger.Store(l)
}

// Logger returns the installed logger for callers that need attributes.
func Logger() *slog.Logger {
	return logger.Load()
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown names fall back to info and report ok=false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// DropError logs an error under a prefix. A nil err logs just the prefix,
// which is handy as a cheap tag.
func DropError(prefix string, err error) {
	if err != nil {
		logger.Load().Error(prefix, "err", err)
		return
	}
	logger.Load().Error(prefix)
}

// DropMessage logs an informational line under a prefix.
func DropMessage(prefix, message string, attrs ...any) {
	logger.Load().Info(prefix+": "+message, attrs...)
}

// DropWarn logs a recoverable anomaly under a prefix.
func DropWarn(prefix, message string, attrs ...any) {
	logger.Load().Warn(prefix+": "+message, attrs...)
}

// DropTrace logs a debug-level line; silent at the default level.
func DropTrace(prefix, message string, attrs ...any) {
	logger.Load().Debug(prefix+": "+message, attrs...)
}
