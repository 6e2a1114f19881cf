// Package logger owns the process-wide zerolog logger and the request- and
// component-scoped loggers derived from it.
//
// Call Init once from main. Library code receives a zerolog.Logger explicitly;
// HTTP code that only has a context uses FromContext.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Anything else means info.
	Level string
	// Pretty switches to zerolog's console writer for local development.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service and Version are stamped on every entry when set.
	Service string
	Version string
}

var (
	mu       sync.Mutex
	instance *zerolog.Logger
)

// Init builds the process logger. Only the first call takes effect; later
// calls return the logger built by the first one.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return *instance
	}

	l := build(opts)
	instance = &l
	return l
}

func build(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	zc := zerolog.New(out).Level(lvl).With().Timestamp().Caller()
	if opts.Service != "" {
		zc = zc.Str("service", opts.Service)
	}
	if opts.Version != "" {
		zc = zc.Str("version", opts.Version)
	}
	return zc.Logger()
}

// Get returns the process logger. It panics before Init.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		panic("logger: Get() called before Init()")
	}
	return *instance
}

// Reset forgets the process logger. Tests only.
func Reset() {
	mu.Lock()
	instance = nil
	mu.Unlock()
}

// Component tags base with the subsystem that owns the entries.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// WithRequestID stores a child of base carrying requestID in ctx.
func WithRequestID(ctx context.Context, base zerolog.Logger, requestID string) context.Context {
	l := base.With().Str("request_id", requestID).Logger()
	return l.WithContext(ctx)
}

// FromContext returns the logger stored by WithRequestID, or fallback when
// ctx carries none.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l == nil || l == zerolog.DefaultContextLogger || l.GetLevel() == zerolog.Disabled {
		return fallback
	}
	return *l
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	switch lvl, err := zerolog.ParseLevel(s); {
	case err != nil, s == "", lvl < zerolog.TraceLevel, lvl > zerolog.ErrorLevel:
		return zerolog.InfoLevel
	default:
		return lvl
	}
}
