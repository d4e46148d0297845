// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package ordering computes the orderings provided by physical operators.
package ordering

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/memo"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/optprops/pkg/util/intsets"
	"github.com/cockroachdb/redact"
)

// BuildProvided returns the ordering in which the given expression returns
// its rows. Logical operators do not execute and so provide no ordering.
//
// This function recursively computes the provided orderings of the inputs of
// the expression.
func BuildProvided(m *memo.Memo, id memo.RelID) physical.Ordering {
	e := m.Expr(id)
	provided := funcMap[e.Op()].buildProvidedOrdering(m, id, e)
	if m.Context().CheckInvariants() {
		checkProvided(m, id, provided)
	}
	return provided
}

// CanProvide returns true if the given expression returns its rows in the
// required ordering, i.e. if required is a prefix of the provided ordering.
func CanProvide(m *memo.Memo, id memo.RelID, required physical.Ordering) bool {
	if required.Empty() {
		return true
	}
	provided := BuildProvided(m, id)
	if len(required) > len(provided) {
		return false
	}
	return provided[:len(required)].Equals(required)
}

type funcs struct {
	buildProvidedOrdering func(m *memo.Memo, id memo.RelID, e memo.RelExpr) physical.Ordering
}

var funcMap [opt.NumOperators]funcs

func init() {
	for _, op := range opt.RelationalOperators {
		funcMap[op] = funcs{
			buildProvidedOrdering: noProvidedOrdering,
		}
	}
	funcMap[opt.ScanOp] = funcs{
		buildProvidedOrdering: scanBuildProvided,
	}
	funcMap[opt.BatchProjectSetOp] = funcs{
		buildProvidedOrdering: projectSetBuildProvided,
	}

	memo.ProvidedOrderingFn = BuildProvided
}

func noProvidedOrdering(m *memo.Memo, id memo.RelID, e memo.RelExpr) physical.Ordering {
	return nil
}

// checkProvided runs sanity checks on the ordering provided by an operator.
func checkProvided(m *memo.Memo, id memo.RelID, provided physical.Ordering) {
	var outCols intsets.Fast
	outCols.AddRange(0, m.OutputWidth(id)-1)
	cols := provided.ColSet()
	if !cols.SubsetOf(outCols) {
		panic(errors.AssertionFailedf(
			"provided ordering %s refers to non-output columns %s (op %s)",
			provided, cols.Difference(outCols), redact.Safe(m.Expr(id).Op()),
		))
	}
	if cols.Len() != len(provided) {
		panic(errors.AssertionFailedf("provided ordering %s repeats a column", provided))
	}
}
