// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"bytes"
	"fmt"
	"time"

	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/optprops/pkg/util/log"
	"github.com/cockroachdb/optprops/pkg/util/treeprinter"
)

// ProvidedOrderingFn returns the ordering provided by a physical expression.
// It is set by the ordering package, which depends on this one.
var ProvidedOrderingFn func(m *Memo, id RelID) physical.Ordering

// ExprFmtFlags controls which properties of the expression are shown in
// formatted output.
type ExprFmtFlags int

const (
	// ExprFmtShowAll shows all properties of the expression.
	ExprFmtShowAll ExprFmtFlags = 0

	// ExprFmtHideTypes hides type information from columns and scalar
	// expressions.
	ExprFmtHideTypes ExprFmtFlags = 1 << (iota - 1)

	// ExprFmtHideKeys does not show candidate keys in the output.
	ExprFmtHideKeys

	// ExprFmtHideFuncDeps does not show functional dependencies in the output.
	ExprFmtHideFuncDeps

	// ExprFmtHideOrderings hides provided orderings.
	ExprFmtHideOrderings

	// ExprFmtHideColumns removes column information.
	ExprFmtHideColumns

	// ExprFmtHideScalars removes the select list of project-sets.
	ExprFmtHideScalars

	// ExprFmtHideAll shows only the basic structure of the expression.
	// Note: this flag should be used judiciously, as its meaning changes whenever
	// we add more flags.
	ExprFmtHideAll ExprFmtFlags = (1 << iota) - 1
)

// HasFlags tests whether the given flags are all set.
func (f ExprFmtFlags) HasFlags(subset ExprFmtFlags) bool {
	return f&subset == subset
}

// ExplainFlags returns the formatting flags selected by the settings.
func ExplainFlags(s opt.ExplainSettings) ExprFmtFlags {
	var f ExprFmtFlags
	if s.HideTypes {
		f |= ExprFmtHideTypes
	}
	if s.HideKeys {
		f |= ExprFmtHideKeys
	}
	if s.HideFuncDeps {
		f |= ExprFmtHideFuncDeps
	}
	if s.HideOrderings {
		f |= ExprFmtHideOrderings
	}
	return f
}

// FormatExpr returns a string representation of the given expression,
// formatted according to the specified flags.
func FormatExpr(m *Memo, id RelID, flags ExprFmtFlags) string {
	f := MakeExprFmtCtx(flags, m)
	f.FormatExpr(id)
	return f.Buffer.String()
}

// ExprFmtCtx is passed as context to expression formatting functions, which
// need to know the formatting flags and memo in order to format. In addition,
// a reusable bytes buffer avoids unnecessary allocations.
type ExprFmtCtx struct {
	Buffer *bytes.Buffer

	// Flags controls how the expression is formatted.
	Flags ExprFmtFlags

	// Memo must contain any expression that is formatted.
	Memo *Memo
}

// MakeExprFmtCtx creates an expression formatting context from a new buffer.
func MakeExprFmtCtx(flags ExprFmtFlags, mem *Memo) ExprFmtCtx {
	return ExprFmtCtx{Buffer: &bytes.Buffer{}, Flags: flags, Memo: mem}
}

// HasFlags tests whether the given flags are all set.
func (f *ExprFmtCtx) HasFlags(subset ExprFmtFlags) bool {
	return f.Flags.HasFlags(subset)
}

// FormatExpr constructs a treeprinter view of the given expression for testing
// and debugging, according to the flags in this context.
func (f *ExprFmtCtx) FormatExpr(id RelID) {
	tp := treeprinter.New()
	f.formatRelational(id, tp)
	f.Buffer.Reset()
	f.Buffer.WriteString(tp.String())
}

func (f *ExprFmtCtx) formatRelational(id RelID, tp treeprinter.Node) {
	e := f.Memo.Expr(id)

	f.Buffer.Reset()
	fmt.Fprintf(f.Buffer, "%v", e.Op())
	if scan, ok := e.(*ScanExpr); ok {
		fmt.Fprintf(f.Buffer, " %s", scan.Table.Name())
	}
	tp = tp.Child(f.Buffer.String())

	if !f.HasFlags(ExprFmtHideColumns) {
		schema := f.Memo.Schema(id)
		tp.Childf("columns: %s", schema.Format(!f.HasFlags(ExprFmtHideTypes)))
	}

	if !f.HasFlags(ExprFmtHideKeys) {
		if key, ok := f.Memo.CandidateKey(id); ok {
			tp.Childf("key: %s", key)
		}
	}

	if !f.HasFlags(ExprFmtHideFuncDeps) {
		if fds := f.Memo.FuncDeps(id); !fds.Empty() {
			tp.Childf("fd: %s", fds.String())
		}
	}

	if !f.HasFlags(ExprFmtHideOrderings) && e.Op().IsPhysical() && ProvidedOrderingFn != nil {
		if ordering := ProvidedOrderingFn(f.Memo, id); !ordering.Empty() {
			tp.Childf("ordering: %s", ordering)
		}
	}

	if ps, ok := e.(*ProjectSetExpr); ok && !f.HasFlags(ExprFmtHideScalars) {
		input := f.Memo.Schema(ps.Input)
		list := tp.Child("select-list")
		for _, expr := range ps.Exprs {
			f.formatScalar(expr, &input, list)
		}
	}

	for i, n := 0, e.ChildCount(); i < n; i++ {
		f.formatRelational(e.Child(i), tp)
	}
}

func (f *ExprFmtCtx) formatScalar(e scalar.Expr, input *props.Schema, tp treeprinter.Node) {
	if f.HasFlags(ExprFmtHideTypes) {
		tp.Child(e.Render(input))
		return
	}
	tp.Childf("%s [type=%s]", e.Render(input), e.ReturnType().SQLString())
}

var explainErrorEvery = log.Every(time.Minute)

// Explain formats the expression according to the explain settings of the
// memo's context. Internal errors raised while formatting are returned
// rather than propagated as panics.
func (m *Memo) Explain(id RelID) (_ string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
			if explainErrorEvery.ShouldLog() {
				log.Errorf(m.ctx.Ctx(), "unable to explain %s: %v", id, err)
			}
		}
	}()
	return FormatExpr(m, id, ExplainFlags(m.ctx.Settings().Explain)), nil
}
