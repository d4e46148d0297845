// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/util/intsets"
	"github.com/cockroachdb/redact"
)

// Schema returns the output columns of the expression.
func (m *Memo) Schema(id RelID) props.Schema {
	switch t := m.Expr(id).(type) {
	case *ScanExpr:
		fields := make([]props.Field, t.Table.ColumnCount())
		for i := range fields {
			col := t.Table.Column(i)
			fields[i] = props.FieldFromType(col.Type, col.Name, col.TypeName)
		}
		return props.Schema{Fields: fields}

	case *ProjectSetExpr:
		input := m.Schema(t.Input)
		o2i := t.OutputToInput(input.Len())
		return props.DeriveProjectSetSchema(&input, t.typedExprs(), o2i)
	}
	panic(unhandled(m.Expr(id)))
}

// OutputWidth returns the number of output columns of the expression.
func (m *Memo) OutputWidth(id RelID) int {
	switch t := m.Expr(id).(type) {
	case *ScanExpr:
		return t.Table.ColumnCount()

	case *ProjectSetExpr:
		return t.OutputWidth()
	}
	panic(unhandled(m.Expr(id)))
}

// CandidateKey returns a set of output columns that uniquely identifies
// every output row, if one is known.
//
// For a project-set, the key is the input key translated to output ordinals
// followed by the row id. The translated part is dropped entirely if any of
// its columns is not passed through.
func (m *Memo) CandidateKey(id RelID) (_ props.Key, ok bool) {
	switch t := m.Expr(id).(type) {
	case *ScanExpr:
		key, ok := t.Table.PrimaryKey()
		if !ok {
			return nil, false
		}
		return append(props.Key(nil), key...), true

	case *ProjectSetExpr:
		inputKey, _ := m.CandidateKey(t.Input)
		i2o := t.InputToOutput(m.OutputWidth(t.Input))
		return props.DeriveProjectSetKey(inputKey, i2o), true
	}
	panic(unhandled(m.Expr(id)))
}

// FuncDeps returns the functional dependencies that hold between the output
// columns of the expression.
func (m *Memo) FuncDeps(id RelID) props.FuncDepSet {
	switch t := m.Expr(id).(type) {
	case *ScanExpr:
		fds := props.MakeFuncDepSet(t.Table.ColumnCount())
		for _, dep := range t.Table.Dependencies() {
			fds.AddFuncDep(intsets.MakeFast(dep.From...), intsets.MakeFast(dep.To...))
		}
		return fds

	case *ProjectSetExpr:
		input := m.FuncDeps(t.Input)
		i2o := t.InputToOutput(input.ColCount())
		return props.DeriveProjectSetFuncDeps(&input, i2o)
	}
	panic(unhandled(m.Expr(id)))
}

func unhandled(e RelExpr) error {
	return errors.AssertionFailedf("unhandled expression %s", redact.Safe(e.Op()))
}
