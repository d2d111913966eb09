// Copyright 2016 ETH Zurich
// Copyright 2020 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is a structured logger backed by zap. Context is passed as
// alternating keys and values:
//
//	log.Info("port added", "device", "hsr0", "port", "slave-a")
package log

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hsrprp/hsrprp/pkg/private/serrors"
)

// Level of a log entry.
type Level zapcore.Level

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

type logger struct {
	logger *zap.Logger
}

// New creates a logger with the given context derived from the root logger.
func New(ctx ...any) Logger {
	return &logger{logger: zap.L().With(convertCtx(ctx)...)}
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(zapcore.Level(lvl))
}

// Root returns the root logger.
func Root() Logger {
	return &logger{logger: zap.L()}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &logger{logger: zap.NewNop()}
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) {
	zap.L().Debug(msg, convertCtx(ctx)...)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) {
	zap.L().Info(msg, convertCtx(ctx)...)
}

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) {
	zap.L().Error(msg, convertCtx(ctx)...)
}

// Flush writes buffered entries.
func Flush() {
	_ = zap.L().Sync()
}

// HandlePanic catches panics and logs them. It must be deferred at the top of
// every goroutine. The panic is re-raised after logging.
func HandlePanic() {
	if msg := recover(); msg != nil {
		zap.L().Error("Panic", zap.Any("msg", msg), zap.String("stack", string(debug.Stack())))
		zap.L().Error("=====================> Service panicked!")
		Flush()
		panic(msg)
	}
}

// EntriesCounter counts emitted log entries per level.
type EntriesCounter struct {
	Debug prometheus.Counter
	Info  prometheus.Counter
	Error prometheus.Counter
}

func (c EntriesCounter) hook(e zapcore.Entry) error {
	var ctr prometheus.Counter
	switch {
	case e.Level >= zapcore.ErrorLevel:
		ctr = c.Error
	case e.Level >= zapcore.InfoLevel:
		ctr = c.Info
	default:
		ctr = c.Debug
	}
	if ctr != nil {
		ctr.Inc()
	}
	return nil
}

type options struct {
	entriesCounter *EntriesCounter
}

// Option configures Setup.
type Option func(o *options)

// WithEntriesCounter counts the emitted entries with c.
func WithEntriesCounter(c EntriesCounter) Option {
	return func(o *options) {
		o.entriesCounter = &c
	}
}

// Setup configures the root logger according to cfg.
func Setup(cfg Config, opts ...Option) error {
	cfg.InitDefaults()
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Console.Level)); err != nil {
		return serrors.Wrap("parsing console level", err, "level", cfg.Console.Level)
	}
	stacktrace := zapcore.FatalLevel + 1
	if cfg.Console.StacktraceLevel != "none" {
		if err := stacktrace.UnmarshalText([]byte(cfg.Console.StacktraceLevel)); err != nil {
			return serrors.Wrap("parsing stacktrace level", err,
				"level", cfg.Console.StacktraceLevel)
		}
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Console.Format) {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "human":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return serrors.New("unknown console format", "format", cfg.Console.Format)
	}
	zopts := []zap.Option{zap.AddStacktrace(stacktrace)}
	if !cfg.Console.DisableCaller {
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if o.entriesCounter != nil {
		zopts = append(zopts, zap.Hooks(o.entriesCounter.hook))
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	zap.ReplaceGlobals(zap.New(core, zopts...))
	return nil
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields = append(fields, zap.Any(fmt.Sprint(ctx[i]), ctx[i+1]))
	}
	return fields
}
