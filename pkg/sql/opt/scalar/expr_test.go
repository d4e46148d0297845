// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package scalar_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/optprops/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func testSchema() *props.Schema {
	return &props.Schema{Fields: []props.Field{
		props.WithName(types.Int, "a"),
		props.WithName(types.String, "b"),
		props.WithName(types.Jsonb, "j"),
	}}
}

func TestRender(t *testing.T) {
	a := scalar.NewInputRef(0, types.Int)
	j := scalar.NewInputRef(2, types.Jsonb)
	series := scalar.NewGenerator("generate_series", types.Int, scalar.NewConst("1", types.Int), a)
	elems := scalar.NewGenerator("jsonb_array_elements", types.Jsonb, j)
	cast := scalar.NewCast(scalar.NewInputRef(1, types.String), types.Bytes)

	input := testSchema()
	require.Equal(t, "generate_series(1, a)", series.Render(input))
	require.Equal(t, "generate_series(1, @0)", series.String())
	require.Equal(t, "jsonb_array_elements(j)", elems.Render(input))
	require.Equal(t, "b::BYTES", cast.Render(input))

	// Ordinals outside the schema fall back to their number.
	require.Equal(t, "@7", scalar.NewInputRef(7, types.Int).Render(input))
}

func TestClassification(t *testing.T) {
	ord, ok := scalar.AsInputRef(scalar.NewInputRef(2, types.Int))
	require.True(t, ok)
	require.Equal(t, 2, ord)

	// A cast of a reference is computed, not a pass-through.
	_, ok = scalar.AsInputRef(scalar.NewCast(scalar.NewInputRef(2, types.Int), types.Float))
	require.False(t, ok)

	require.True(t, scalar.IsGenerator(scalar.NewCast(
		scalar.NewGenerator("unnest", types.Int, scalar.NewInputRef(0, types.MakeArray(types.Int))),
		types.String,
	)))
	require.False(t, scalar.IsGenerator(scalar.NewFunc("lower", types.String, scalar.NewInputRef(1, types.String))))

	require.Equal(t, opt.FunctionOp, scalar.NewFunc("now", types.Timestamp).Op())
	require.Equal(t, opt.InputRefOp, scalar.NewInputRef(0, types.Int).Op())
}

func TestEqual(t *testing.T) {
	mk := func() scalar.Expr {
		return scalar.NewGenerator("generate_series", types.Int, scalar.NewConst("1", types.Int), scalar.NewInputRef(0, types.Int))
	}
	require.True(t, scalar.Equal(mk(), mk()))
	require.False(t, scalar.Equal(mk(), scalar.NewFunc("generate_series", types.Int,
		scalar.NewConst("1", types.Int), scalar.NewInputRef(0, types.Int))))
	require.False(t, scalar.Equal(scalar.NewInputRef(0, types.Int), scalar.NewInputRef(0, types.Float)))
	require.False(t, scalar.Equal(scalar.NewConst("1", types.Int), scalar.NewConst("2", types.Int)))
}

func TestReplace(t *testing.T) {
	a := scalar.NewInputRef(0, types.Int)
	c := scalar.NewInputRef(2, types.Int)
	f := scalar.NewFunc("plus", types.Int, a, scalar.NewCast(c, types.Int))

	// Identity and no-op rewrites return the receiver.
	require.Same(t, f, scalar.Identity(f))
	require.Same(t, f, scalar.Walk(scalar.Identity)(f))

	simplified := scalar.SimplifyCasts()(f)
	require.Equal(t, "plus(@0, @2)", simplified.String())
	require.Equal(t, "plus(@0, @2::INT8)", f.String(), "receiver must not change")

	b := colmap.NewBuilder(3, 2)
	b.Set(0, 1)
	b.Set(2, 0)
	remapped := scalar.RemapInputRefs(b.Build())(f)
	require.Equal(t, "plus(@1, @0::INT8)", remapped.String())

	b = colmap.NewBuilder(3, 3)
	b.Set(0, 0)
	require.Panics(t, func() { scalar.RemapInputRefs(b.Build())(f) })
}

func TestNegativeInputRef(t *testing.T) {
	defer func() {
		err, _ := recover().(error)
		require.True(t, errors.IsAssertionFailure(err))
	}()
	scalar.NewInputRef(-1, types.Int)
}
