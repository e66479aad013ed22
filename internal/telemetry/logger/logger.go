package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger

	// Slog exposes the underlying slog.Logger for libraries that take one.
	Slog() *slog.Logger
}

// Output formats.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is json, text, or console (text without timestamps).
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// levels maps accepted level names. "warning" is an alias of "warn".
var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel resolves a level name, case-insensitively. An empty name is info.
func ParseLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}
	l, ok := levels[strings.ToLower(level)]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// ParseFormat normalizes a format name. An empty name is json.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(format); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatConsole:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q", format)
	}
}

// level is shared by every logger built with New so SetLevel applies everywhere.
var level = new(slog.LevelVar)

// New builds a logger. Unknown levels or formats are rejected.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level.Set(lvl)

	return wrap(slog.New(newHandler(out, format, cfg.AddSource)), context.Background()), nil
}

func newHandler(out io.Writer, format string, addSource bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	switch format {
	case FormatText:
		return slog.NewTextHandler(out, opts)
	case FormatConsole:
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return redactSensitive(a)
		}
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return wrap(slog.New(slog.NewTextHandler(io.Discard, nil)), context.Background())
}

// SetLevel changes the level of every logger built with New.
// Unknown names are ignored.
func SetLevel(name string) {
	if lvl, err := ParseLevel(name); err == nil {
		level.Set(lvl)
	}
}

// GetLevel returns the current level name.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

type handle struct {
	sl  *slog.Logger
	ctx context.Context
}

func wrap(sl *slog.Logger, ctx context.Context) *handle {
	return &handle{sl: sl, ctx: ctx}
}

func (h *handle) Debug(msg string, args ...any) { h.log(slog.LevelDebug, msg, args) }
func (h *handle) Info(msg string, args ...any)  { h.log(slog.LevelInfo, msg, args) }
func (h *handle) Warn(msg string, args ...any)  { h.log(slog.LevelWarn, msg, args) }
func (h *handle) Error(msg string, args ...any) { h.log(slog.LevelError, msg, args) }

func (h *handle) log(lvl slog.Level, msg string, args []any) {
	if id := RequestIDFromContext(h.ctx); id != "" {
		args = append(args, "request_id", id)
	}
	h.sl.Log(h.ctx, lvl, msg, args...)
}

func (h *handle) With(args ...any) Logger { return wrap(h.sl.With(args...), h.ctx) }

func (h *handle) WithContext(ctx context.Context) Logger { return wrap(h.sl, ctx) }

func (h *handle) Slog() *slog.Logger { return h.sl }

var fallback atomic.Pointer[handle]

func init() {
	fallback.Store(wrap(slog.New(newHandler(os.Stderr, FormatJSON, false)), context.Background()))
}

// SetDefault replaces the process-wide logger. Loggers not built by this
// package are ignored.
func SetDefault(l Logger) {
	if h, ok := l.(*handle); ok {
		fallback.Store(h)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return fallback.Load()
}
