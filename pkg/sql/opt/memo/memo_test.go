// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/sql/opt/memo"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/optprops/pkg/sql/opt/testutils"
	"github.com/cockroachdb/optprops/pkg/sql/opt/testutils/opttester"
	"github.com/cockroachdb/optprops/pkg/sql/opt/testutils/testcat"
	"github.com/cockroachdb/optprops/pkg/sql/types"
	"github.com/cockroachdb/optprops/pkg/util/log"
	"github.com/kr/pretty"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

func TestMemo(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		tester := opttester.New(testcat.New())
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			return tester.RunCommand(t, d)
		})
	})
}

const testTableDDL = `
CREATE TABLE t (
  a INT8,
  b STRING,
  c INT8,
  PRIMARY KEY (c),
  FD (c) --> (a),
  FD (a) --> (b),
  ORDER BY (a, c DESC)
)`

type testMemo struct {
	memo.Memo
	scan memo.RelID
}

func newTestMemo(t *testing.T) *testMemo {
	catalog := testcat.New()
	_, err := catalog.ExecuteDDL(testTableDDL)
	require.NoError(t, err)
	tab, err := catalog.Table("t")
	require.NoError(t, err)

	settings := opt.DefaultSettings()
	settings.CheckInvariants = true
	var tm testMemo
	tm.Init(opt.NewContext(context.Background(), settings))
	tm.scan = tm.AddScan(tab)
	return &tm
}

// build adds a project-set with the given select list over input.
func (tm *testMemo) build(t *testing.T, input memo.RelID, selectList string) memo.RelID {
	schema := tm.Schema(input)
	exprs, err := testutils.BuildScalarList(selectList, &schema)
	require.NoError(t, err)
	return tm.AddProjectSet(input, exprs)
}

func recoverErr(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = r.(error)
		}
	}()
	f()
	return nil
}

func TestProjectSetWorkedExample(t *testing.T) {
	tm := newTestMemo(t)
	// [ref(0), ref(2)] over a three column input.
	id := tm.AddProjectSet(tm.scan, []scalar.Expr{
		scalar.NewInputRef(0, types.Int),
		scalar.NewInputRef(2, types.Int),
	})

	ps := tm.Expr(id).(*memo.ProjectSetExpr)
	o2i, i2o := ps.Mappings(3)
	require.Equal(t, "[0->_ 1->0 2->2]/3", o2i.String())
	require.Equal(t, "[0->1 1->_ 2->2]/3", i2o.String())

	key, ok := tm.CandidateKey(id)
	require.True(t, ok)
	require.Equal(t, props.Key{2, 0}, key)

	fds := tm.FuncDeps(id)
	require.Equal(t, "(2)-->(1)", fds.String())

	schema := tm.Schema(id)
	require.Equal(t, "(projected_row_id:INT8, a:INT8, c:INT8)", schema.String())
}

func TestProjectSetComputedOnly(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.build(t, tm.scan, "generate_series(1, a), upper(b)")

	key, ok := tm.CandidateKey(id)
	require.True(t, ok)
	require.Equal(t, props.Key{0}, key)

	fds := tm.FuncDeps(id)
	require.True(t, fds.Empty())
	require.Equal(t, 3, fds.ColCount())
}

func TestProjectSetDuplicateReference(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.build(t, tm.scan, "lower(b), a, a")

	ps := tm.Expr(id).(*memo.ProjectSetExpr)
	o2i, i2o := ps.Mappings(3)
	require.Equal(t, "[0->_ 1->_ 2->0 3->0]/3", o2i.String())
	require.Equal(t, "[0->2 1->_ 2->_]/4", i2o.String())
	require.Equal(t, o2i.String(), ps.OutputToInput(3).String())
	require.Equal(t, i2o.String(), ps.InputToOutput(3).String())
}

func TestRewriteIdempotent(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.build(t, tm.scan, "c, generate_series(1, a), a::STRING")
	require.Equal(t, id, tm.RewriteExprs(id, scalar.Identity))

	// A transform that copies every node produces an equal expression, which
	// is interned.
	clone := scalar.Walk(func(e scalar.Expr) scalar.Expr {
		if ref, ok := scalar.AsInputRef(e); ok {
			return scalar.NewInputRef(ref, e.ReturnType())
		}
		return e
	})
	n := tm.Len()
	require.Equal(t, id, tm.RewriteExprs(id, clone))
	require.Equal(t, n, tm.Len())

	batch := tm.ToBatch(id)
	require.NotEqual(t, id, batch)
	require.Equal(t, batch, tm.RewriteExprs(batch, scalar.Identity))
	require.Equal(t, batch, tm.ToBatch(batch))
}

func TestRewriteDoesNotModifyOriginal(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.build(t, tm.scan, "a::INT8, b")
	before := memo.FormatExpr(&tm.Memo, id, memo.ExprFmtShowAll)

	simplified := tm.RewriteExprs(id, scalar.SimplifyCasts())
	require.NotEqual(t, id, simplified)
	require.Equal(t, before, memo.FormatExpr(&tm.Memo, id, memo.ExprFmtShowAll))

	key, ok := tm.CandidateKey(simplified)
	require.True(t, ok)
	require.Equal(t, props.Key{0}, key)
	fds := tm.FuncDeps(simplified)
	require.Equal(t, "(1)-->(2)", fds.String())

	err := recoverErr(func() { tm.RewriteExprs(tm.scan, scalar.Identity) })
	require.True(t, errors.IsAssertionFailure(err), "%v", err)
}

func TestRewriteRejectsNil(t *testing.T) {
	// Default settings leave invariant checks to the build.
	var m memo.Memo
	m.Init(opt.NewContext(context.Background(), opt.DefaultSettings()))
	catalog := testcat.New()
	_, err := catalog.ExecuteDDL(testTableDDL)
	require.NoError(t, err)
	tab, err := catalog.Table("t")
	require.NoError(t, err)
	id := m.AddProjectSet(m.AddScan(tab), []scalar.Expr{scalar.NewInputRef(0, types.Int)})

	n := m.Len()
	err = recoverErr(func() {
		m.RewriteExprs(id, func(scalar.Expr) scalar.Expr { return nil })
	})
	require.True(t, errors.IsAssertionFailure(err), "%v", err)
	require.Contains(t, err.Error(), "rewrite of expression 0 of G2 returned nil")
	require.Equal(t, n, m.Len())
}

func TestBatchPreservesLogicalProps(t *testing.T) {
	tm := newTestMemo(t)
	for _, selectList := range []string{
		"a, c",
		"c, a, c",
		"unnest(b::STRING[]), b",
		"",
	} {
		t.Run(selectList, func(t *testing.T) {
			logical := tm.build(t, tm.scan, selectList)
			batch := tm.ToBatch(logical)
			require.Equal(t, opt.ProjectSetOp, tm.Expr(logical).Op())
			require.Equal(t, opt.BatchProjectSetOp, tm.Expr(batch).Op())

			ls, bs := tm.Schema(logical), tm.Schema(batch)
			require.True(t, ls.Equals(&bs), "%s", pretty.Diff(ls, bs))

			lk, lok := tm.CandidateKey(logical)
			bk, bok := tm.CandidateKey(batch)
			require.Equal(t, lok, bok)
			require.True(t, lk.Equals(bk), "%s", pretty.Diff(lk, bk))

			lf, bf := tm.FuncDeps(logical), tm.FuncDeps(batch)
			require.True(t, lf.Equals(&bf), "%s", pretty.Diff(lf.String(), bf.String()))
		})
	}
}

func TestRepeatedQueriesAgree(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.build(t, tm.scan, "b, c, generate_series(1, a)")
	first := memo.FormatExpr(&tm.Memo, id, memo.ExprFmtShowAll)
	for i := 0; i < 3; i++ {
		require.Equal(t, first, memo.FormatExpr(&tm.Memo, id, memo.ExprFmtShowAll))
	}
}

func TestInvalidInputReference(t *testing.T) {
	tm := newTestMemo(t)
	err := recoverErr(func() {
		tm.AddProjectSet(tm.scan, []scalar.Expr{scalar.NewInputRef(3, types.Int)})
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, colmap.ErrIndexOutOfRange), "%v", err)
	require.True(t, errors.IsAssertionFailure(err), "%v", err)

	err = recoverErr(func() { tm.AddProjectSet(memo.RelID(42), nil) })
	require.True(t, errors.IsAssertionFailure(err), "%v", err)

	// Nothing was added.
	require.Equal(t, 1, tm.Len())
}

func TestExplain(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.ToBatch(tm.build(t, tm.scan, "c, a"))

	s, err := tm.Explain(id)
	require.NoError(t, err)
	require.Equal(t, `batch-project-set
 ├── columns: (projected_row_id:INT8, c:INT8, a:INT8)
 ├── key: [1,0]
 ├── fd: (1)-->(2)
 ├── ordering: +2,-1
 ├── select-list
 │    ├── c [type=INT8]
 │    └── a [type=INT8]
 └── scan t
      ├── columns: (a:INT8, b:STRING, c:INT8)
      ├── key: [2]
      ├── fd: (2)-->(0), (0)-->(1)
      └── ordering: +0,-2
`, s)

	_, err = tm.Explain(memo.RelID(99))
	require.Error(t, err)
	require.True(t, errors.IsAssertionFailure(err), "%v", err)
	require.Contains(t, err.Error(), "invalid expression id G99")
}

func TestDistill(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.build(t, tm.scan, "a, generate_series(1, c)")

	rec := memo.Distill(&tm.Memo, id)
	require.Equal(t, "ProjectSet", rec.Name)
	v, ok := rec.Field("select_list")
	require.True(t, ok)
	require.Equal(t, "[a, generate_series(1, c)]", v)
	_, ok = rec.Field("nope")
	require.False(t, ok)

	rec = memo.Distill(&tm.Memo, tm.ToBatch(id))
	require.Equal(t, "BatchProjectSet { select_list: [a, generate_series(1, c)] }", rec.String())
	require.Equal(t, "Scan { table: t, columns: [a, b, c] }", memo.Distill(&tm.Memo, tm.scan).String())
}

func TestMemoLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer log.SetLogger(zap.New(core))()
	defer log.SetVerbosity(2)()

	tm := newTestMemo(t)
	id := tm.build(t, tm.scan, "a")
	require.Equal(t, id, tm.build(t, tm.scan, "a"))

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
		require.Equal(t, "opt", e.ContextMap()["tags"])
	}
	require.Equal(t, []string{
		"added scan as G1",
		"added project-set as G2",
		"G2 has no set-returning expression",
		"reusing G2 for project-set",
	}, msgs)
}

func TestExplainErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer log.SetLogger(zap.New(core))()
	// Verbosity 2 disables rate limiting.
	defer log.SetVerbosity(2)()

	tm := newTestMemo(t)
	_, err := tm.Explain(memo.RelID(7))
	require.Error(t, err)

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "unable to explain G7")
}

func TestHasGenerator(t *testing.T) {
	tm := newTestMemo(t)
	for _, tc := range []struct {
		selectList string
		exp        bool
	}{
		{selectList: "", exp: false},
		{selectList: "a, upper(b)", exp: false},
		{selectList: "a, generate_series(1, c)", exp: true},
		{selectList: "c, unnest(b::STRING[])", exp: true},
	} {
		ps := tm.Expr(tm.build(t, tm.scan, tc.selectList)).(*memo.ProjectSetExpr)
		require.Equal(t, tc.exp, ps.HasGenerator(), "%q", tc.selectList)
	}
}

func TestConcurrentReads(t *testing.T) {
	tm := newTestMemo(t)
	id := tm.ToBatch(tm.build(t, tm.scan, "c, a, generate_series(1, a)"))
	want := memo.FormatExpr(&tm.Memo, id, memo.ExprFmtShowAll)

	const readers = 8
	var g errgroup.Group
	for i := 0; i < readers; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				if got := memo.FormatExpr(&tm.Memo, id, memo.ExprFmtShowAll); got != want {
					return errors.Newf("reader saw:\n%s", got)
				}
			}
			return nil
		})
	}
	// Writers add unrelated expressions while the readers run.
	for j := 0; j < 50; j++ {
		tm.AddProjectSet(tm.scan, []scalar.Expr{
			scalar.NewConst(fmt.Sprint(j), types.Int),
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, 53, tm.Len())
}

func TestMemoString(t *testing.T) {
	tm := newTestMemo(t)
	tm.build(t, tm.scan, "a, lower(b)")
	require.Equal(t, `memo (2 expressions)
 ├── G1: (scan t)
 └── G2: (project-set G1 [@0, lower(@1)])
`, tm.String())
}

// TestProjectSetConsistency checks, for random select lists, that the
// derived properties agree with the column mappings.
func TestProjectSetConsistency(t *testing.T) {
	tm := newTestMemo(t)
	inputSchema := tm.Schema(tm.scan)
	const inputWidth = 3

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Each value is an input column to pass through, or -1 for a computed
	// expression.
	itemsGen := gen.SliceOf(gen.IntRange(-1, inputWidth-1))

	toExprs := func(items []int) []scalar.Expr {
		exprs := make([]scalar.Expr, len(items))
		for k, ord := range items {
			if ord >= 0 {
				exprs[k] = scalar.NewInputRef(ord, inputSchema.Fields[ord].Type)
			} else {
				exprs[k] = scalar.NewGenerator("generate_series", types.Int,
					scalar.NewConst("1", types.Int), scalar.NewConst(fmt.Sprint(k), types.Int))
			}
		}
		return exprs
	}

	properties.Property("pass-through columns keep their input field", prop.ForAll(
		func(items []int) bool {
			id := tm.AddProjectSet(tm.scan, toExprs(items))
			schema := tm.Schema(id)
			if schema.Len() != len(items)+1 || schema.Fields[0].Name != opt.ProjectedRowIDColumnName {
				return false
			}
			for k, ord := range items {
				if ord >= 0 && !schema.Fields[k+1].Equals(&inputSchema.Fields[ord]) {
					return false
				}
			}
			return true
		},
		itemsGen,
	))

	properties.Property("key is the translated input key followed by the row id", prop.ForAll(
		func(items []int) bool {
			id := tm.ToBatch(tm.AddProjectSet(tm.scan, toExprs(items)))
			key, ok := tm.CandidateKey(id)
			if !ok || key[len(key)-1] != props.RowIDOrdinal {
				return false
			}
			// The input key is (c). It is inherited iff c is passed through,
			// at its first occurrence.
			for k, ord := range items {
				if ord == 2 {
					return key.Equals(props.Key{k + 1, 0})
				}
			}
			return key.Equals(props.Key{0})
		},
		itemsGen,
	))

	properties.Property("dependencies only mention pass-through columns", prop.ForAll(
		func(items []int) bool {
			id := tm.AddProjectSet(tm.scan, toExprs(items))
			o2i := tm.Expr(id).(*memo.ProjectSetExpr).OutputToInput(inputWidth)
			fds := tm.FuncDeps(id)
			for _, d := range fds.Deps() {
				if _, ok := o2i.MapSet(d.From); !ok {
					return false
				}
				if _, ok := o2i.MapSet(d.To); !ok {
					return false
				}
			}
			return fds.Len() <= 3
		},
		itemsGen,
	))

	properties.TestingRun(t)
}
