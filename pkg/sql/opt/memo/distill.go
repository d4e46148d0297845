// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"bytes"
	"strings"
)

// RecordField is one named value of a Record.
type RecordField struct {
	Name  string
	Value string
}

// Record is a flat, human-readable description of a single expression,
// without its inputs. Fields are kept in a fixed order.
type Record struct {
	Name   string
	Fields []RecordField
}

// Field returns the value of the named field.
func (r Record) Field(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// String prints "ProjectSet { select_list: [a, unnest(b)] }".
func (r Record) String() string {
	var buf bytes.Buffer
	buf.WriteString(r.Name)
	if len(r.Fields) == 0 {
		return buf.String()
	}
	buf.WriteString(" {")
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte(' ')
		buf.WriteString(f.Name)
		buf.WriteString(": ")
		buf.WriteString(f.Value)
	}
	buf.WriteString(" }")
	return buf.String()
}

// Distill describes the expression with the given id as a Record. Scalar
// expressions are rendered against the schema of the input, so input columns
// appear by name.
func Distill(m *Memo, id RelID) Record {
	switch t := m.Expr(id).(type) {
	case *ScanExpr:
		names := make([]string, t.Table.ColumnCount())
		for i := range names {
			names[i] = t.Table.Column(i).Name
		}
		return Record{Name: "Scan", Fields: []RecordField{
			{Name: "table", Value: t.Table.Name()},
			{Name: "columns", Value: "[" + strings.Join(names, ", ") + "]"},
		}}

	case *ProjectSetExpr:
		input := m.Schema(t.Input)
		items := make([]string, len(t.Exprs))
		for i, e := range t.Exprs {
			items[i] = e.Render(&input)
		}
		name := "ProjectSet"
		if t.Batch {
			name = "BatchProjectSet"
		}
		return Record{Name: name, Fields: []RecordField{
			{Name: "select_list", Value: "[" + strings.Join(items, ", ") + "]"},
		}}
	}
	panic(unhandled(m.Expr(id)))
}
