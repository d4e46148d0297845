// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package scalar contains the scalar expressions evaluated by relational
// operators against each input row. Expressions are immutable; rewrites build
// new expressions through Transform functions.
package scalar

import (
	"bytes"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/sql/types"
	"github.com/cockroachdb/redact"
)

// Expr is a scalar expression. Every Expr is either a pass-through reference
// to one input column (*InputRef) or an opaque computation.
type Expr interface {
	// Op returns the operator of the expression.
	Op() opt.Operator

	// ChildCount returns the number of scalar children.
	ChildCount() int

	// Child returns the nth child.
	Child(nth int) Expr

	// ReturnType is the declared type of the values produced by the
	// expression.
	ReturnType() *types.T

	// Render prints the expression for display, resolving input columns by
	// name against the given schema. A nil schema prints ordinals.
	Render(input *props.Schema) string

	// String prints the expression with ordinals for input columns.
	String() string

	format(buf *bytes.Buffer, input *props.Schema)
}

var _ props.TypedExpr = Expr(nil)

// InputRef passes through the input column at ordinal Ord.
type InputRef struct {
	Ord int
	Typ *types.T
}

// Const is a constant. Text is its literal form, e.g. 1 or 'abc'.
type Const struct {
	Text string
	Typ  *types.T
}

// Cast converts Input to Typ.
type Cast struct {
	Input Expr
	Typ   *types.T
}

// FuncCall calls a named function. Generator is set for table-valued
// functions, which produce zero or more rows per input row.
type FuncCall struct {
	Name      string
	Args      []Expr
	Typ       *types.T
	Generator bool
}

// NewInputRef returns a reference to the input column at ord.
func NewInputRef(ord int, typ *types.T) *InputRef {
	if ord < 0 {
		panic(errors.AssertionFailedf("negative input ordinal %d", redact.Safe(ord)))
	}
	return &InputRef{Ord: ord, Typ: typ}
}

// NewConst returns a constant.
func NewConst(text string, typ *types.T) *Const {
	return &Const{Text: text, Typ: typ}
}

// NewCast returns a cast of input to typ.
func NewCast(input Expr, typ *types.T) *Cast {
	return &Cast{Input: input, Typ: typ}
}

// NewFunc returns a call of a scalar function.
func NewFunc(name string, typ *types.T, args ...Expr) *FuncCall {
	return &FuncCall{Name: name, Args: args, Typ: typ}
}

// NewGenerator returns a call of a table-valued function.
func NewGenerator(name string, typ *types.T, args ...Expr) *FuncCall {
	return &FuncCall{Name: name, Args: args, Typ: typ, Generator: true}
}

// AsInputRef returns the referenced input ordinal if e is a pass-through
// reference.
func AsInputRef(e Expr) (ord int, ok bool) {
	if ref, ok := e.(*InputRef); ok {
		return ref.Ord, true
	}
	return 0, false
}

// IsGenerator returns true if e or one of its descendants is a table-valued
// function call.
func IsGenerator(e Expr) bool {
	if f, ok := e.(*FuncCall); ok && f.Generator {
		return true
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if IsGenerator(e.Child(i)) {
			return true
		}
	}
	return false
}

func (e *InputRef) Op() opt.Operator { return opt.InputRefOp }
func (e *Const) Op() opt.Operator    { return opt.ConstOp }
func (e *Cast) Op() opt.Operator     { return opt.CastOp }
func (e *FuncCall) Op() opt.Operator { return opt.FunctionOp }

func (e *InputRef) ChildCount() int { return 0 }
func (e *Const) ChildCount() int    { return 0 }
func (e *Cast) ChildCount() int     { return 1 }
func (e *FuncCall) ChildCount() int { return len(e.Args) }

func (e *InputRef) Child(nth int) Expr { panic(errors.AssertionFailedf("child index out of range")) }
func (e *Const) Child(nth int) Expr    { panic(errors.AssertionFailedf("child index out of range")) }

func (e *Cast) Child(nth int) Expr {
	if nth != 0 {
		panic(errors.AssertionFailedf("child index out of range"))
	}
	return e.Input
}

func (e *FuncCall) Child(nth int) Expr { return e.Args[nth] }

func (e *InputRef) ReturnType() *types.T { return e.Typ }
func (e *Const) ReturnType() *types.T    { return e.Typ }
func (e *Cast) ReturnType() *types.T     { return e.Typ }
func (e *FuncCall) ReturnType() *types.T { return e.Typ }

func (e *InputRef) format(buf *bytes.Buffer, input *props.Schema) {
	if input != nil && e.Ord < input.Len() {
		buf.WriteString(input.Fields[e.Ord].Name)
		return
	}
	buf.WriteByte('@')
	buf.WriteString(strconv.Itoa(e.Ord))
}

func (e *Const) format(buf *bytes.Buffer, _ *props.Schema) {
	buf.WriteString(e.Text)
}

func (e *Cast) format(buf *bytes.Buffer, input *props.Schema) {
	e.Input.format(buf, input)
	buf.WriteString("::")
	buf.WriteString(e.Typ.SQLString())
}

func (e *FuncCall) format(buf *bytes.Buffer, input *props.Schema) {
	buf.WriteString(e.Name)
	buf.WriteByte('(')
	for i, arg := range e.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		arg.format(buf, input)
	}
	buf.WriteByte(')')
}

func render(e Expr, input *props.Schema) string {
	var buf bytes.Buffer
	e.format(&buf, input)
	return buf.String()
}

func (e *InputRef) Render(input *props.Schema) string { return render(e, input) }
func (e *Const) Render(input *props.Schema) string    { return render(e, input) }
func (e *Cast) Render(input *props.Schema) string     { return render(e, input) }
func (e *FuncCall) Render(input *props.Schema) string { return render(e, input) }

func (e *InputRef) String() string { return render(e, nil) }
func (e *Const) String() string    { return render(e, nil) }
func (e *Cast) String() string     { return render(e, nil) }
func (e *FuncCall) String() string { return render(e, nil) }

// AppendKey appends an encoding of e to buf that identifies it structurally:
// two expressions have the same key iff they have the same operators,
// private fields and types, recursively.
func AppendKey(buf []byte, e Expr) []byte {
	buf = append(buf, e.Op().String()...)
	buf = append(buf, '{')
	switch t := e.(type) {
	case *InputRef:
		buf = strconv.AppendInt(buf, int64(t.Ord), 10)
	case *Const:
		buf = strconv.AppendQuote(buf, t.Text)
	case *FuncCall:
		buf = strconv.AppendQuote(buf, t.Name)
		if t.Generator {
			buf = append(buf, " gen"...)
		}
	}
	buf = append(buf, ':')
	buf = append(buf, e.ReturnType().SQLString()...)
	for i, n := 0, e.ChildCount(); i < n; i++ {
		buf = append(buf, ' ')
		buf = AppendKey(buf, e.Child(i))
	}
	return append(buf, '}')
}

// Equal returns true if both expressions are structurally identical.
func Equal(a, b Expr) bool {
	if a == b {
		return true
	}
	return bytes.Equal(AppendKey(nil, a), AppendKey(nil, b))
}
