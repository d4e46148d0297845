// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log is a thin, context-aware logging facade. Callers pass a
// context.Context so that log tags attached with logtags.AddTag show up on
// every message, and use verbosity levels (V, VEventf) for chatty output.
package log

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/optprops/pkg/util/syncutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Severity is the severity of a log entry.
type Severity int32

const (
	// SeverityInfo is used for informational messages.
	SeverityInfo Severity = iota
	// SeverityError is used for errors.
	SeverityError
)

var mainLog struct {
	syncutil.RWMutex
	logger *zap.Logger
}

var verbosity atomic.Int32

var redactableLogs atomic.Bool

func init() {
	encCfg := zap.NewDevelopmentEncoderConfig()
	mainLog.logger = zap.New(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), zapcore.InfoLevel),
		zap.AddCaller(),
	)
}

func currentLogger() *zap.Logger {
	mainLog.RLock()
	defer mainLog.RUnlock()
	return mainLog.logger
}

// SetLogger installs the zap logger all messages are written to. It returns a
// function that restores the previous logger.
func SetLogger(l *zap.Logger) (restore func()) {
	mainLog.Lock()
	defer mainLog.Unlock()
	prev := mainLog.logger
	mainLog.logger = l
	return func() {
		mainLog.Lock()
		defer mainLog.Unlock()
		mainLog.logger = prev
	}
}

// SetVerbosity sets the global verbosity level used by V and VEventf. It
// returns a function that restores the previous level.
func SetVerbosity(level int32) (restore func()) {
	prev := verbosity.Swap(level)
	return func() { verbosity.Store(prev) }
}

// SetRedactableLogs controls whether entries carry an additional field with
// the message including redaction markers.
func SetRedactableLogs(enabled bool) {
	redactableLogs.Store(enabled)
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level int32) bool {
	return verbosity.Load() >= level
}

// ExpensiveLogEnabled is used to test whether effort should be used to
// produce log messages whose construction has a measurable cost.
func ExpensiveLogEnabled(ctx context.Context, level int32) bool {
	return V(level)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityError, 1, format, args)
}

// VEventf logs at INFO severity if the verbosity is at least level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		addStructured(ctx, SeverityInfo, 1, format, args)
	}
}
