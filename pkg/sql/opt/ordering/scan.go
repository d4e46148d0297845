// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ordering

import (
	"github.com/cockroachdb/optprops/pkg/sql/opt/memo"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props/physical"
)

func scanBuildProvided(m *memo.Memo, id memo.RelID, e memo.RelExpr) physical.Ordering {
	order := e.(*memo.ScanExpr).Table.StorageOrder()
	if len(order) == 0 {
		return nil
	}
	provided := make(physical.Ordering, len(order))
	for i, c := range order {
		provided[i] = physical.MakeOrderingColumn(c.Ordinal, c.Descending)
	}
	return provided
}
