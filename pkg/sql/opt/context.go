// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"context"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/optprops/pkg/util/buildutil"
)

// Context is the optimizer context shared by every expression of one memo.
// It is immutable after construction.
type Context struct {
	ctx      context.Context
	settings Settings
}

// NewContext returns a Context that logs with the tags of ctx plus an "opt"
// tag.
func NewContext(ctx context.Context, settings Settings) *Context {
	return &Context{
		ctx:      logtags.AddTag(ctx, "opt", nil),
		settings: settings,
	}
}

// Ctx returns the context.Context used for logging.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Settings returns the optimizer settings.
func (c *Context) Settings() Settings {
	return c.settings
}

// CheckInvariants returns true if expensive consistency checks should run.
func (c *Context) CheckInvariants() bool {
	return buildutil.CrdbTestBuild || buildutil.Invariants || c.settings.CheckInvariants
}
