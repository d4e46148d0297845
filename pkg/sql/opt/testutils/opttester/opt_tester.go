// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opttester

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/sql/opt/memo"
	"github.com/cockroachdb/optprops/pkg/sql/opt/ordering"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/optprops/pkg/sql/opt/testutils"
	"github.com/cockroachdb/optprops/pkg/sql/opt/testutils/testcat"
	"github.com/cockroachdb/optprops/pkg/util/log"
)

// OptTester is a helper for testing the various optimizer components. It
// builds plans in a memo from a small text language and prints them.
type OptTester struct {
	Flags OptTesterFlags

	catalog *testcat.Catalog
	ctx     *opt.Context
	memo    memo.Memo

	// named holds the expressions saved with the "as" flag.
	named map[string]memo.RelID
}

// OptTesterFlags are control knobs for tests. Note that specific testcases
// can override these defaults.
type OptTesterFlags struct {
	// ExprFormat controls the output detail of build / rewrite / batch
	// commands.
	ExprFormat memo.ExprFmtFlags

	// Input is the name of a table or saved expression that the command
	// operates on.
	Input string

	// As is the name under which the result of the command is saved.
	As string

	// Batch builds the physical variant of a project-set.
	Batch bool

	// Transform selects the rewrite applied by the rewrite command.
	Transform string

	// Verbose indicates whether verbose test debugging information will be
	// output to stdout when commands run.
	Verbose bool
}

// New constructs a new instance of the OptTester over the given catalog.
// Invariant checks are always enabled.
func New(catalog *testcat.Catalog) *OptTester {
	ot := &OptTester{catalog: catalog}
	settings := opt.DefaultSettings()
	settings.CheckInvariants = true
	ot.init(settings)
	return ot
}

func (ot *OptTester) init(settings opt.Settings) {
	ot.ctx = opt.NewContext(context.Background(), settings)
	ot.memo.Init(ot.ctx)
	ot.named = make(map[string]memo.RelID)
}

// Memo returns the memo holding every expression built so far.
func (ot *OptTester) Memo() *memo.Memo {
	return &ot.memo
}

// RunCommand implements commands that are used by most tests:
//
//   - exec-ddl
//
//     Runs a DDL statement against the test catalog.
//
//   - settings
//
//     Loads optimizer settings from the YAML input and resets the memo.
//
//   - build input=<name> [batch] [as=<name>]
//
//     Builds a project-set over the named table or expression. The input
//     holds the comma-separated select list. Outputs the formatted
//     expression.
//
//   - rewrite input=<name> transform=<identity|simplify-casts|reverse-input> [as=<name>]
//
//     Rewrites the select list of a project-set. reverse-input renumbers
//     the input column references as if the input columns were reversed.
//
//   - batch input=<name> [as=<name>]
//
//     Converts a project-set into its physical variant.
//
//   - distill input=<name>
//
//     Outputs the record describing the expression.
//
//   - mappings input=<name>
//
//     Outputs the output-to-input and input-to-output column mappings of a
//     project-set.
//
//   - provided input=<name>
//
//     Outputs the provided ordering of the expression.
//
//   - explain input=<name>
//
//     Formats the expression according to the explain settings.
//
//   - memo
//
//     Lists every expression in the memo.
//
// Supported flags:
//
//   - format: controls the formatting of expressions. Possible values:
//     show-all, hide-all, or any combination of hide-types, hide-keys,
//     hide-fds, hide-orderings, hide-columns, hide-scalars. For example:
//     build input=t format=(hide-types,hide-fds)
func (ot *OptTester) RunCommand(tb testing.TB, d *datadriven.TestData) string {
	// Allow testcases to override the flags.
	ot.Flags = OptTesterFlags{}
	for _, a := range d.CmdArgs {
		if err := ot.Flags.Set(a); err != nil {
			d.Fatalf(tb, "%s", err)
		}
	}
	ot.Flags.Verbose = testing.Verbose()

	switch d.Cmd {
	case "exec-ddl":
		s, err := ot.catalog.ExecuteDDL(d.Input)
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return s

	case "settings":
		settings, err := opt.LoadSettings(strings.NewReader(d.Input))
		if err != nil {
			return fmt.Sprintf("error: %s\n", err)
		}
		ot.init(settings)
		return ""

	case "build":
		id, err := ot.Build(d.Input)
		if err != nil {
			return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
		}
		return ot.save(id)

	case "rewrite":
		id, err := ot.Rewrite()
		if err != nil {
			return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
		}
		return ot.save(id)

	case "batch":
		id, err := ot.input()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return ot.save(ot.memo.ToBatch(id))

	case "distill":
		id, err := ot.input()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return memo.Distill(&ot.memo, id).String() + "\n"

	case "mappings":
		id, err := ot.input()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		ps, ok := ot.memo.Expr(id).(*memo.ProjectSetExpr)
		if !ok {
			d.Fatalf(tb, "%s is not a project-set", ot.Flags.Input)
		}
		o2i, i2o := ps.Mappings(ot.memo.OutputWidth(ps.Input))
		return fmt.Sprintf("o2i: %s\ni2o: %s\n", o2i, i2o)

	case "provided":
		id, err := ot.input()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		provided := ordering.BuildProvided(&ot.memo, id)
		if provided.Empty() {
			return "<none>\n"
		}
		return provided.String() + "\n"

	case "explain":
		id, err := ot.input()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		s, err := ot.memo.Explain(id)
		if err != nil {
			return fmt.Sprintf("error: %s\n", err)
		}
		return s

	case "memo":
		return ot.memo.String()

	default:
		d.Fatalf(tb, "unsupported command: %s", d.Cmd)
		return ""
	}
}

// Set parses an argument that refers to a flag.
// See OptTester.RunCommand for supported flags.
func (f *OptTesterFlags) Set(arg datadriven.CmdArg) error {
	switch arg.Key {
	case "format":
		f.ExprFormat = 0
		if len(arg.Vals) == 0 {
			return errors.New("format flag requires value(s)")
		}
		for _, v := range arg.Vals {
			m := map[string]memo.ExprFmtFlags{
				"show-all":       memo.ExprFmtShowAll,
				"hide-all":       memo.ExprFmtHideAll,
				"hide-types":     memo.ExprFmtHideTypes,
				"hide-keys":      memo.ExprFmtHideKeys,
				"hide-fds":       memo.ExprFmtHideFuncDeps,
				"hide-orderings": memo.ExprFmtHideOrderings,
				"hide-columns":   memo.ExprFmtHideColumns,
				"hide-scalars":   memo.ExprFmtHideScalars,
			}
			if val, ok := m[v]; ok {
				f.ExprFormat |= val
			} else {
				return errors.Newf("unknown format value %s", v)
			}
		}

	case "input":
		if len(arg.Vals) != 1 {
			return errors.New("input requires one argument")
		}
		f.Input = arg.Vals[0]

	case "as":
		if len(arg.Vals) != 1 {
			return errors.New("as requires one argument")
		}
		f.As = arg.Vals[0]

	case "batch":
		f.Batch = true

	case "transform":
		if len(arg.Vals) != 1 {
			return errors.New("transform requires one argument")
		}
		f.Transform = arg.Vals[0]

	default:
		return errors.Newf("unknown argument: %s", arg.Key)
	}
	return nil
}

// Build adds a project-set with the given select list over the input.
func (ot *OptTester) Build(selectList string) (memo.RelID, error) {
	input, err := ot.input()
	if err != nil {
		return 0, err
	}
	schema := ot.memo.Schema(input)
	exprs, err := testutils.BuildScalarList(strings.TrimSpace(selectList), &schema)
	if err != nil {
		return 0, err
	}
	id := ot.memo.AddProjectSet(input, exprs)
	if ot.Flags.Batch {
		id = ot.memo.ToBatch(id)
	}
	return id, nil
}

// Rewrite rewrites the select list of the input project-set.
func (ot *OptTester) Rewrite() (memo.RelID, error) {
	input, err := ot.input()
	if err != nil {
		return 0, err
	}
	ps, ok := ot.memo.Expr(input).(*memo.ProjectSetExpr)
	if !ok {
		return 0, errors.Newf("%s is not a project-set", ot.Flags.Input)
	}

	var replace scalar.Transform
	switch ot.Flags.Transform {
	case "identity":
		replace = scalar.Identity
	case "simplify-casts":
		replace = scalar.SimplifyCasts()
	case "reverse-input":
		width := ot.memo.OutputWidth(ps.Input)
		b := colmap.NewBuilder(width, width)
		for i := 0; i < width; i++ {
			b.Set(i, width-1-i)
		}
		replace = scalar.RemapInputRefs(b.Build())
	default:
		return 0, errors.Newf("unknown transform %q", ot.Flags.Transform)
	}

	id := ot.memo.RewriteExprs(input, replace)
	if id == input {
		log.VEventf(ot.ctx.Ctx(), 1, "rewrite of %s changed nothing", id)
	}
	return id, nil
}

// input resolves the input flag, first among saved expressions and then
// among catalog tables.
func (ot *OptTester) input() (memo.RelID, error) {
	if ot.Flags.Input == "" {
		return 0, errors.New("input flag is required")
	}
	if id, ok := ot.named[ot.Flags.Input]; ok {
		return id, nil
	}
	tab, err := ot.catalog.Table(ot.Flags.Input)
	if err != nil {
		return 0, err
	}
	return ot.memo.AddScan(tab), nil
}

// save records the expression under the "as" flag, if any, and formats it.
func (ot *OptTester) save(id memo.RelID) string {
	if ot.Flags.As != "" {
		ot.named[ot.Flags.As] = id
	}
	var buf bytes.Buffer
	buf.WriteString(memo.FormatExpr(&ot.memo, id, ot.Flags.ExprFormat))
	if ot.Flags.Verbose {
		fmt.Printf("%s: %s", id, buf.String())
	}
	return buf.String()
}
