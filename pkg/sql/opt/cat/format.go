// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cat

import (
	"bytes"

	"github.com/cockroachdb/optprops/pkg/util/treeprinter"
)

// FormatTable nicely formats a catalog table using a treeprinter for
// debugging and testing.
func FormatTable(tab Table, tp treeprinter.Node) {
	child := tp.Childf("TABLE %s", tab.Name())

	for i := 0; i < tab.ColumnCount(); i++ {
		child.Child(formatColumn(tab.Column(i)))
	}

	if key, ok := tab.PrimaryKey(); ok {
		child.Childf("PRIMARY KEY %s", formatCols(tab, key))
	}

	for _, dep := range tab.Dependencies() {
		child.Childf("FD %s --> %s", formatCols(tab, dep.From), formatCols(tab, dep.To))
	}

	if order := tab.StorageOrder(); len(order) > 0 {
		var buf bytes.Buffer
		buf.WriteString("ORDER BY (")
		for i, c := range order {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(tab.Column(c.Ordinal).Name)
			if c.Descending {
				buf.WriteString(" DESC")
			}
		}
		buf.WriteByte(')')
		child.Child(buf.String())
	}
}

func formatColumn(col *Column) string {
	var buf bytes.Buffer
	buf.WriteString(col.Name)
	buf.WriteByte(' ')
	buf.WriteString(col.Type.SQLString())
	if col.TypeName != "" {
		buf.WriteString(" AS ")
		buf.WriteString(col.TypeName)
	}
	return buf.String()
}

func formatCols(tab Table, ords []int) string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	for i, ord := range ords {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(tab.Column(ord).Name)
	}
	buf.WriteByte(')')
	return buf.String()
}
