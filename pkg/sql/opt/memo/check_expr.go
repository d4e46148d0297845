// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/redact"
)

// checkExpr does sanity checking on an expression before it is added to the
// memo. It runs in test builds, and in other builds when invariant checking
// is enabled by the optimizer settings.
func (m *Memo) checkExpr(e RelExpr) {
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if child := e.Child(i); child <= 0 || int(child) > m.Len() {
			panic(errors.AssertionFailedf("%s has invalid input %s", redact.Safe(e.Op()), child))
		}
	}

	switch t := e.(type) {
	case *ScanExpr:
		if t.Table == nil {
			panic(errors.AssertionFailedf("scan without table"))
		}
		width := t.Table.ColumnCount()
		if key, ok := t.Table.PrimaryKey(); ok {
			checkOrdinals("primary key", key, width)
		}
		for _, dep := range t.Table.Dependencies() {
			checkOrdinals("dependency", dep.From, width)
			checkOrdinals("dependency", dep.To, width)
		}
		for _, c := range t.Table.StorageOrder() {
			checkOrdinals("storage order", []int{c.Ordinal}, width)
		}

	case *ProjectSetExpr:
		inputWidth := m.OutputWidth(t.Input)
		for i, expr := range t.Exprs {
			if expr == nil {
				panic(errors.AssertionFailedf("project-set expression %d is nil", redact.Safe(i)))
			}
			if expr.ReturnType() == nil {
				panic(errors.AssertionFailedf("project-set expression %d has no type", redact.Safe(i)))
			}
			scalar.Walk(func(e scalar.Expr) scalar.Expr {
				if ord, ok := scalar.AsInputRef(e); ok {
					checkOrdinals("input reference", []int{ord}, inputWidth)
				}
				return e
			})(expr)
		}
		o2i, i2o := t.Mappings(inputWidth)
		checkMappings(o2i, i2o)
	}
}

// checkMappings verifies that i2o is the lowest-ordinal inverse of o2i: if
// o2i maps output k to input i, then i2o maps i to some k' <= k, and k' is
// itself mapped to i.
func checkMappings(o2i, i2o colmap.Mapping) {
	if o2i.SourceSize() != i2o.TargetSize() || o2i.TargetSize() != i2o.SourceSize() {
		panic(errors.AssertionFailedf("mapping sizes disagree: o2i %s, i2o %s", o2i, i2o))
	}
	if _, ok := o2i.TryMap(0); ok {
		panic(errors.AssertionFailedf("row id column is mapped to the input: %s", o2i))
	}
	for k := 1; k < o2i.SourceSize(); k++ {
		i, ok := o2i.TryMap(k)
		if !ok {
			continue
		}
		first, ok := i2o.TryMap(i)
		if !ok || first > k {
			panic(errors.AssertionFailedf("output %d maps to input %d, but input maps to %s",
				redact.Safe(k), redact.Safe(i), i2o))
		}
		if back, ok := o2i.TryMap(first); !ok || back != i {
			panic(errors.AssertionFailedf("i2o %s is not an inverse of o2i %s", i2o, o2i))
		}
	}
}

func checkOrdinals(what redact.SafeString, ords []int, width int) {
	for _, ord := range ords {
		if ord < 0 || ord >= width {
			panic(colmap.IndexOutOfRangef("%s ordinal %d out of range [0, %d)", what, redact.Safe(ord), redact.Safe(width)))
		}
	}
}
