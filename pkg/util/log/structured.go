// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"strings"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FormatWithContextTags formats the string and prepends the context
// tags.
//
// Redaction markers are *not* inserted. The resulting
// string is generally unsafe for reporting.
func FormatWithContextTags(ctx context.Context, format string, args ...interface{}) string {
	var buf strings.Builder
	if tags := formatTags(ctx); tags != "" {
		buf.WriteByte('[')
		buf.WriteString(tags)
		buf.WriteString("] ")
	}
	buf.WriteString(redact.Sprintf(format, args...).StripMarkers())
	return buf.String()
}

func formatTags(ctx context.Context) string {
	b := logtags.FromContext(ctx)
	if b == nil {
		return ""
	}
	var buf strings.Builder
	b.FormatToString(&buf)
	return buf.String()
}

// addStructured creates a structured log entry and hands it to the zap
// logger currently installed with SetLogger.
func addStructured(
	ctx context.Context, sev Severity, depth int, format string, args []interface{},
) {
	l := currentLogger()
	level := sev.zapLevel()
	if !l.Core().Enabled(level) {
		return
	}
	msg := redact.Sprintf(format, args...)
	fields := make([]zap.Field, 0, 2)
	if tags := formatTags(ctx); tags != "" {
		fields = append(fields, zap.String("tags", tags))
	}
	if redactableLogs.Load() {
		fields = append(fields, zap.String("redactable", string(msg)))
	}
	if ce := l.WithOptions(zap.AddCallerSkip(depth+1)).Check(level, msg.StripMarkers()); ce != nil {
		ce.Write(fields...)
	}
}

func (s Severity) zapLevel() zapcore.Level {
	if s == SeverityError {
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
