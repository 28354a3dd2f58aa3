// Package logging provides the leveled logger used for diagnostics.
//
// User-facing command output never goes through this package; it is only for
// request tracing and internal events enabled with --log or the log_level
// config key.
package logging

import (
	"errors"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// ErrUnsupportedFormat is returned by New for an unknown log format.
var ErrUnsupportedFormat = errors.New("unsupported log format")

// Logger is the logging contract used across docmigrate.
// Args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects level and output format for New.
type Config struct {
	Level  string
	Format string
}

// Enabled reports whether logging was requested at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Level) != ""
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

// NoOp returns a logger that discards everything.
func NoOp() Logger {
	return noop{}
}

// OrNoOp returns l, or a no-op logger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOp()
	}

	return l
}

// New builds a go-logger backed Logger. A config without a level yields NoOp.
func New(cfg Config) (Logger, error) {
	if !cfg.Enabled() {
		return NoOp(), nil
	}

	options := []glog.Option{}

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)
	}

	return &adapter{inner: glog.NewLogger(options...)}, nil
}

// Named returns a child logger scoped to name when the implementation supports it.
func Named(l Logger, name string) Logger {
	if a, ok := l.(*adapter); ok && name != "" {
		if root, ok := a.inner.(*glog.BaseLogger); ok {
			return &adapter{inner: root.GetLogger(name)}
		}
	}

	return OrNoOp(l)
}

type adapter struct {
	inner glog.Logger
}

func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	default:
		return ""
	}
}
