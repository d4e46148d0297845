// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ordering_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/memo"
	"github.com/cockroachdb/optprops/pkg/sql/opt/ordering"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/optprops/pkg/sql/opt/testutils/opttester"
	"github.com/cockroachdb/optprops/pkg/sql/opt/testutils/testcat"
	"github.com/cockroachdb/optprops/pkg/sql/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestOrdering(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		tester := opttester.New(testcat.New())
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			return tester.RunCommand(t, d)
		})
	})
}

func newOrderedMemo(t *testing.T) (*memo.Memo, memo.RelID) {
	catalog := testcat.New()
	_, err := catalog.ExecuteDDL(`
CREATE TABLE s (
  a INT8,
  b STRING,
  c INT8,
  PRIMARY KEY (a),
  ORDER BY (c DESC, a, b)
)`)
	require.NoError(t, err)
	tab, err := catalog.Table("s")
	require.NoError(t, err)

	settings := opt.DefaultSettings()
	settings.CheckInvariants = true
	var m memo.Memo
	m.Init(opt.NewContext(context.Background(), settings))
	return &m, m.AddScan(tab)
}

// colTypes are the column types of table s.
var colTypes = []*types.T{types.Int, types.String, types.Int}

// refs returns a select list over s. Negative values stand for a computed
// expression.
func refs(ords ...int) []scalar.Expr {
	exprs := make([]scalar.Expr, len(ords))
	for i, ord := range ords {
		if ord < 0 {
			exprs[i] = scalar.NewGenerator("generate_series", types.Int,
				scalar.NewConst("1", types.Int), scalar.NewConst("10", types.Int))
			continue
		}
		exprs[i] = scalar.NewInputRef(ord, colTypes[ord])
	}
	return exprs
}

func TestCanProvide(t *testing.T) {
	m, scan := newOrderedMemo(t)
	id := m.ToBatch(m.AddProjectSet(scan, refs(0, -1, 2)))

	parse := func(s string) physical.Ordering {
		o, err := physical.ParseOrdering(s)
		require.NoError(t, err)
		return o
	}
	require.Equal(t, "-3,+1", ordering.BuildProvided(m, id).String())
	require.True(t, ordering.CanProvide(m, id, nil))
	require.True(t, ordering.CanProvide(m, id, parse("-3")))
	require.True(t, ordering.CanProvide(m, id, parse("-3,+1")))
	require.False(t, ordering.CanProvide(m, id, parse("+3")))
	require.False(t, ordering.CanProvide(m, id, parse("-3,+1,+0")))

	logical := m.AddProjectSet(scan, refs(2, 0))
	require.True(t, ordering.BuildProvided(m, logical).Empty())
	require.False(t, ordering.CanProvide(m, logical, parse("-1")))
}

func TestProvidedOrderingStopsAtDroppedColumn(t *testing.T) {
	m, scan := newOrderedMemo(t)
	// s is ordered by (c DESC, a, b). Column a is not passed through, so rows
	// tied on c are not ordered by b.
	id := m.ToBatch(m.AddProjectSet(scan, refs(2, 1)))
	require.Equal(t, "-1", ordering.BuildProvided(m, id).String())
	require.True(t, ordering.CanProvide(m, id, physical.Ordering{physical.MakeOrderingColumn(1, true)}))
	require.False(t, ordering.CanProvide(m, id, physical.Ordering{
		physical.MakeOrderingColumn(1, true),
		physical.MakeOrderingColumn(2, false),
	}))

	// Nothing is provided when the leading column is dropped.
	id = m.ToBatch(m.AddProjectSet(scan, refs(0, 1)))
	require.True(t, ordering.BuildProvided(m, id).Empty())
}

// TestProvidedOrderingProperties checks that a batch project-set never orders
// on the row id, and that its ordering is the longest prefix of the input
// ordering whose columns are all passed through.
func TestProvidedOrderingProperties(t *testing.T) {
	m, scan := newOrderedMemo(t)
	inputOrdering := ordering.BuildProvided(m, scan)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// firstOutput returns the first output column that passes through input
	// column ord.
	firstOutput := func(items []int, ord int) (int, bool) {
		for k, item := range items {
			if item == ord {
				return k + 1, true
			}
		}
		return 0, false
	}

	properties.Property("provided ordering is the passed-through input prefix", prop.ForAll(
		func(items []int) bool {
			id := m.ToBatch(m.AddProjectSet(scan, refs(items...)))
			provided := ordering.BuildProvided(m, id)
			if provided.ColSet().Contains(props.RowIDOrdinal) {
				return false
			}
			var expected physical.Ordering
			for _, c := range inputOrdering {
				out, ok := firstOutput(items, c.Ord)
				if !ok {
					break
				}
				expected = append(expected, physical.MakeOrderingColumn(out, c.Descending))
			}
			return provided.Equals(expected)
		},
		gen.SliceOf(gen.IntRange(-1, 2)),
	))

	properties.TestingRun(t)
}
