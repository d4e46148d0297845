// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ordering

import (
	"github.com/cockroachdb/optprops/pkg/sql/opt/memo"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props/physical"
)

// projectSetBuildProvided translates the input ordering to output columns.
// The rows expanded from one input row are emitted together, so the output
// keeps the input ordering up to the first input column that is not passed
// through. The row id is never part of the provided ordering.
func projectSetBuildProvided(m *memo.Memo, id memo.RelID, e memo.RelExpr) physical.Ordering {
	ps := e.(*memo.ProjectSetExpr)
	input := BuildProvided(m, ps.Input)
	if input.Empty() {
		return nil
	}
	i2o := ps.InputToOutput(m.OutputWidth(ps.Input))
	return input.Remap(i2o)
}
