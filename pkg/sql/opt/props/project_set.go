// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package props

import (
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/sql/types"
)

// This file derives the logical properties of a project-set. A project-set
// with N expressions has N+1 output columns: ordinal 0 is the hidden
// projected_row_id column, and ordinal k (1 <= k <= N) is the result of the
// k-th expression. The derivations below only consult the input properties
// and the two column mappings:
//
//   - o2i maps output ordinals [0, N] to input ordinals; slot k is mapped iff
//     expression k is a pass-through reference.
//   - i2o maps input ordinals to output ordinals [1, N]; it never targets the
//     row-id column.

// RowIDOrdinal is the output ordinal of the projected_row_id column.
const RowIDOrdinal = 0

// TypedExpr is the part of a scalar expression the schema derivation needs.
type TypedExpr interface {
	// ReturnType is the declared type of the expression's result.
	ReturnType() *types.T

	// Render formats the expression for display, resolving input references
	// against the given input schema.
	Render(input *Schema) string
}

// RowIDField returns the field of the hidden projected_row_id column.
func RowIDField() Field {
	return WithName(types.Int, opt.ProjectedRowIDColumnName)
}

// DeriveProjectSetSchema returns the output schema of a project-set. Columns
// that pass an input column through keep its name and struct metadata, but
// take their type from the expression, which may differ (e.g. a reference
// wrapped in an implicit cast). Computed columns are named after their
// rendered expression.
func DeriveProjectSetSchema(input *Schema, exprs []TypedExpr, o2i colmap.Mapping) Schema {
	fields := make([]Field, 0, len(exprs)+1)
	fields = append(fields, RowIDField())
	for i, e := range exprs {
		if inputOrd, ok := o2i.TryMap(i + 1); ok {
			in := &input.Fields[inputOrd]
			fields = append(fields, WithStruct(e.ReturnType(), in.Name, in.SubFields, in.TypeName))
		} else {
			fields = append(fields, WithStruct(e.ReturnType(), e.Render(input), nil, ""))
		}
	}
	return Schema{Fields: fields}
}

// DeriveProjectSetKey returns the candidate key of a project-set, given the
// key of its input (nil if the input has none).
//
// The input key is inherited only if every one of its columns is passed
// through; if a single column is missing, the whole input key is dropped.
// The row-id column is always appended after the inherited columns, so the
// result is never empty: projected_row_id holds a distinct value for every
// output row.
func DeriveProjectSetKey(inputKey Key, i2o colmap.Mapping) Key {
	inherited, ok := i2o.MapAll(inputKey)
	if !ok {
		inherited = nil
	}
	key := make(Key, 0, len(inherited)+1)
	key = append(key, inherited...)
	return append(key, RowIDOrdinal)
}

// DeriveProjectSetFuncDeps returns the functional dependencies of a
// project-set. Dependencies that mention a column that is not passed through
// are dropped. The row-id column never appears in the result.
func DeriveProjectSetFuncDeps(input *FuncDepSet, i2o colmap.Mapping) FuncDepSet {
	return input.Remap(i2o)
}
