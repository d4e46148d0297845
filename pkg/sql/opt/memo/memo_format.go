// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/optprops/pkg/util/treeprinter"
)

// String lists every expression of the memo in the order it was added.
func (m *Memo) String() string {
	tp := treeprinter.New()
	n := m.Len()
	root := tp.Childf("memo (%d expressions)", n)

	var buf bytes.Buffer
	for id := RelID(1); int(id) <= n; id++ {
		buf.Reset()
		m.formatExpr(&buf, m.Expr(id))
		root.Childf("%s: %s", id, buf.String())
	}
	return tp.String()
}

func (m *Memo) formatExpr(buf *bytes.Buffer, e RelExpr) {
	fmt.Fprintf(buf, "(%s", e.Op())
	for i, n := 0, e.ChildCount(); i < n; i++ {
		fmt.Fprintf(buf, " %s", e.Child(i))
	}
	switch t := e.(type) {
	case *ScanExpr:
		fmt.Fprintf(buf, " %s", t.Table.Name())

	case *ProjectSetExpr:
		buf.WriteString(" [")
		for i, expr := range t.Exprs {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(expr.String())
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(')')
}
