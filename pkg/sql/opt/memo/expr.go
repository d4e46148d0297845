// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/cat"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/redact"
)

// RelID identifies a relational expression stored in a Memo. The zero value
// is not a valid expression.
type RelID int32

// SafeFormat implements redact.SafeFormatter.
func (id RelID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("G%d", redact.SafeInt(id))
}

// String prints "G1".
func (id RelID) String() string {
	return "G" + strconv.Itoa(int(id))
}

// RelExpr is a relational expression stored in a Memo. RelExprs are
// immutable once added; a rewrite adds a new expression instead.
type RelExpr interface {
	// Op returns the operator of the expression.
	Op() opt.Operator

	// ChildCount returns the number of relational inputs.
	ChildCount() int

	// Child returns the nth relational input.
	Child(nth int) RelID
}

// ScanExpr reads every row of a catalog table. Its output columns are the
// table columns, in ordinal order.
type ScanExpr struct {
	Table cat.Table
}

// ProjectSetExpr evaluates Exprs once for every input row. Table-valued
// expressions can return any number of rows; the outputs of the expressions
// are zipped together, so one input row yields as many output rows as the
// longest expression result.
//
// The output has len(Exprs)+1 columns. Column 0 is the synthetic
// projected_row_id column, which numbers the rows produced from one input row
// and so makes every output row distinct. Column k+1 holds the result of
// Exprs[k].
type ProjectSetExpr struct {
	Input RelID
	Exprs []scalar.Expr

	// Batch is set for the physical variant, which preserves the ordering of
	// its input.
	Batch bool
}

var _ RelExpr = &ScanExpr{}
var _ RelExpr = &ProjectSetExpr{}

// Op is part of the RelExpr interface.
func (e *ScanExpr) Op() opt.Operator { return opt.ScanOp }

// ChildCount is part of the RelExpr interface.
func (e *ScanExpr) ChildCount() int { return 0 }

// Child is part of the RelExpr interface.
func (e *ScanExpr) Child(nth int) RelID {
	panic(errors.AssertionFailedf("child index %d out of range", nth))
}

// Op is part of the RelExpr interface.
func (e *ProjectSetExpr) Op() opt.Operator {
	if e.Batch {
		return opt.BatchProjectSetOp
	}
	return opt.ProjectSetOp
}

// ChildCount is part of the RelExpr interface.
func (e *ProjectSetExpr) ChildCount() int { return 1 }

// HasGenerator returns true if any expression of the select list calls a
// set-returning function. Without one, every input row expands to exactly one
// output row.
func (e *ProjectSetExpr) HasGenerator() bool {
	for _, expr := range e.Exprs {
		if scalar.IsGenerator(expr) {
			return true
		}
	}
	return false
}

// Child is part of the RelExpr interface.
func (e *ProjectSetExpr) Child(nth int) RelID {
	if nth != 0 {
		panic(errors.AssertionFailedf("child index %d out of range", nth))
	}
	return e.Input
}

// OutputWidth returns the number of output columns: one per expression plus
// the row id.
func (e *ProjectSetExpr) OutputWidth() int {
	return len(e.Exprs) + 1
}

// Mappings returns the correspondence between output and input columns,
// given the width of the input. Only pass-through expressions create a
// correspondence.
//
// o2i maps output ordinals to input ordinals; the row id is never mapped.
// i2o maps input ordinals to output ordinals. When several expressions pass
// through the same input column, i2o picks the lowest output ordinal.
//
// An expression referencing an input column at or beyond inputWidth panics
// with an error marked colmap.ErrIndexOutOfRange.
func (e *ProjectSetExpr) Mappings(inputWidth int) (o2i, i2o colmap.Mapping) {
	o := colmap.NewBuilder(e.OutputWidth(), inputWidth)
	i := colmap.NewBuilder(inputWidth, e.OutputWidth())
	for k, expr := range e.Exprs {
		if ord, ok := scalar.AsInputRef(expr); ok {
			o.Set(k+1, ord)
			i.SetFirst(ord, k+1)
		}
	}
	return o.Build(), i.Build()
}

// OutputToInput returns the o2i mapping of Mappings.
func (e *ProjectSetExpr) OutputToInput(inputWidth int) colmap.Mapping {
	o2i, _ := e.Mappings(inputWidth)
	return o2i
}

// InputToOutput returns the i2o mapping of Mappings.
func (e *ProjectSetExpr) InputToOutput(inputWidth int) colmap.Mapping {
	_, i2o := e.Mappings(inputWidth)
	return i2o
}

// typedExprs returns the expressions as consumed by property derivation.
func (e *ProjectSetExpr) typedExprs() []props.TypedExpr {
	res := make([]props.TypedExpr, len(e.Exprs))
	for i, expr := range e.Exprs {
		res[i] = expr
	}
	return res
}
