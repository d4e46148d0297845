// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package props

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/util/intsets"
	"github.com/stretchr/testify/require"
)

func TestFuncDepSetRemap(t *testing.T) {
	// Input width 3, mapping 0->1, 2->2; column 1 has no counterpart.
	input := MakeFuncDepSet(3)
	input.AddFuncDep(intsets.MakeFast(0), intsets.MakeFast(2))
	input.AddFuncDep(intsets.MakeFast(1), intsets.MakeFast(2))

	res := input.Remap(mapping(3, 1, -1, 2))
	require.Equal(t, 1, res.Len())
	require.Equal(t, "(1)-->(2)", res.String())

	// Dependencies are dropped if either side has an unmapped column.
	input = MakeFuncDepSet(3)
	input.AddFuncDep(intsets.MakeFast(0), intsets.MakeFast(1, 2))
	input.AddFuncDep(intsets.MakeFast(0, 2), intsets.MakeFast(0))
	res = input.Remap(mapping(5, 3, -1, 4))
	require.Equal(t, 5, res.ColCount())
	require.Equal(t, "(3,4)-->(3)", res.String())
}

func TestFuncDepSetRemapKeepsOrder(t *testing.T) {
	input := MakeFuncDepSet(4)
	input.AddFuncDep(intsets.MakeFast(3), intsets.MakeFast(0))
	input.AddFuncDep(intsets.MakeFast(1), intsets.MakeFast(3))
	input.AddFuncDep(intsets.MakeFast(0), intsets.MakeFast(1))

	res := input.Remap(mapping(4, 0, 1, 2, 3))
	require.True(t, res.Equals(&input))
	require.Equal(t, "(3)-->(0), (1)-->(3), (0)-->(1)", res.String())
}

func TestFuncDepSetAddOutOfRange(t *testing.T) {
	fds := MakeFuncDepSet(2)
	require.True(t, fds.Empty())
	func() {
		defer func() {
			err, _ := recover().(error)
			require.True(t, errors.Is(err, colmap.ErrIndexOutOfRange), "%v", err)
			require.True(t, errors.IsAssertionFailure(err), "%v", err)
		}()
		fds.AddFuncDep(intsets.MakeFast(0), intsets.MakeFast(2))
	}()
	require.True(t, fds.Empty())
}

func TestFuncDepSetEquals(t *testing.T) {
	a := MakeFuncDepSet(3)
	a.AddFuncDep(intsets.MakeFast(0), intsets.MakeFast(1))
	b := MakeFuncDepSet(3)
	b.AddFuncDep(intsets.MakeFast(0), intsets.MakeFast(1))
	c := MakeFuncDepSet(4)
	c.AddFuncDep(intsets.MakeFast(0), intsets.MakeFast(1))
	require.True(t, a.Equals(&b))
	require.False(t, a.Equals(&c))

	b.AddFuncDep(intsets.MakeFast(1), intsets.MakeFast(2))
	require.False(t, a.Equals(&b))
}

func TestSchemaEquals(t *testing.T) {
	a := testInputSchema()
	b := testInputSchema()
	require.True(t, a.Equals(&b))
	b.Fields[1].SubFields[0].Name = "z"
	require.False(t, a.Equals(&b))
	require.Equal(t, "(a:INT8, p:point, c:STRING)", a.String())
}
