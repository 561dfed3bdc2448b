// Package logging wraps github.com/luxfi/log so kernel packages depend
// on one structured-logging surface rather than each rolling their own.
// Grounded on the teacher's log/nolog.go and log/noop.go thin wrappers
// plus the log.Logger-as-parameter idiom used throughout (e.g.
// validator/logger.go, poll/poll.go): every package that can fail takes
// an optional Logger and never constructs the global/default one
// itself.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/luxfi/log"
	"go.uber.org/zap"
)

// Logger is the logging surface every kernel package depends on.
type Logger = log.Logger

// NoOp returns a logger that discards everything, mirroring the
// teacher's log.NewNoOpLogger().
func NoOp() Logger {
	return log.NewNoOpLogger()
}

// OrNoOp returns l, or a no-op logger if l is nil. Every kernel package
// that accepts a Logger constructor argument runs it through this so a
// nil caller-supplied logger never panics.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOp()
	}
	return l
}

// console is a minimal Logger backed by log/slog, used by cmd/tecarun
// when a caller wants actual output instead of the no-op. It implements
// the full luxfi/log.Logger surface; the Node-compatibility methods
// (Fatal/Verbo/WithFields/WithOptions) that exist for parity with
// zap-based callers are thin pass-throughs, matching the teacher's own
// NoLog texture rather than a from-scratch zap integration.
type console struct {
	h    slog.Handler
	s    *slog.Logger
	lvl  *slog.LevelVar
	args []any
}

// NewConsole returns a Logger that writes structured lines to stderr at
// or above lvl.
func NewConsole(lvl slog.Level) Logger {
	lv := new(slog.LevelVar)
	lv.Set(lvl)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})
	return &console{h: h, s: slog.New(h), lvl: lv}
}

func (c *console) with(args ...any) *console {
	return &console{h: c.h, s: slog.New(c.h).With(append(append([]any{}, c.args...), args...)...), lvl: c.lvl, args: append(append([]any{}, c.args...), args...)}
}

func (c *console) With(ctx ...interface{}) Logger { return c.with(ctx...) }
func (c *console) New(ctx ...interface{}) Logger   { return c.with(ctx...) }

func (c *console) Log(level slog.Level, msg string, ctx ...interface{}) {
	c.s.Log(context.Background(), level, msg, ctx...)
}
func (c *console) Trace(msg string, ctx ...interface{}) { c.s.Debug(msg, ctx...) }
func (c *console) Debug(msg string, ctx ...interface{}) { c.s.Debug(msg, ctx...) }
func (c *console) Info(msg string, ctx ...interface{})  { c.s.Info(msg, ctx...) }
func (c *console) Warn(msg string, ctx ...interface{})  { c.s.Warn(msg, ctx...) }
func (c *console) Error(msg string, ctx ...interface{}) { c.s.Error(msg, ctx...) }
func (c *console) Crit(msg string, ctx ...interface{})  { c.s.Error(msg, ctx...) }

func (c *console) WriteLog(level slog.Level, msg string, attrs ...any) {
	c.s.Log(context.Background(), level, msg, attrs...)
}

func (c *console) Enabled(ctx context.Context, level slog.Level) bool {
	return c.h.Enabled(ctx, level)
}
func (c *console) Handler() slog.Handler { return c.h }

func (c *console) Fatal(msg string, fields ...zap.Field) { c.s.Error(msg) }
func (c *console) Verbo(msg string, fields ...zap.Field) { c.s.Debug(msg) }

func (c *console) WithFields(fields ...zap.Field) Logger  { return c }
func (c *console) WithOptions(opts ...zap.Option) Logger   { return c }

func (c *console) SetLevel(level slog.Level) { c.lvl.Set(level) }
func (c *console) GetLevel() slog.Level      { return c.lvl.Level() }
func (c *console) EnabledLevel(lvl slog.Level) bool {
	return c.h.Enabled(context.Background(), lvl)
}

func (c *console) StopOnPanic() {}
func (c *console) RecoverAndPanic(f func()) { f() }
func (c *console) RecoverAndExit(f, exit func()) { f() }
func (c *console) Stop() {}

func (c *console) Write(p []byte) (n int, err error) {
	c.s.Info(string(p))
	return len(p), nil
}
