package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how much the process logs.
type Options struct {
	File       string // empty logs to stdout
	Level      string // debug|info|warn|error
	MaxSizeMB  int
	MaxAgeDays int
}

// Setup installs a JSON slog handler as the default logger and returns the
// writer it logs to so callers can close a rotating file on shutdown.
func Setup(opts Options) io.Writer {
	var w io.Writer = os.Stdout
	if opts.File != "" {
		w = &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  orDefault(opts.MaxSizeMB, 10),
			MaxAge:   orDefault(opts.MaxAgeDays, 30),
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})))
	return w
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	levels := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return slog.LevelInfo
	}
	return lvl
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
