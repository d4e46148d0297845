// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package scalar

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/redact"
)

// Transform maps an expression to an equivalent replacement. A Transform
// must not modify its argument; it returns either the argument itself or a
// new expression.
//
// A Transform that wants to visit the whole tree calls ReplaceChildren on
// the expressions it does not replace:
//
//	var replace scalar.Transform
//	replace = func(e scalar.Expr) scalar.Expr {
//	  if c, ok := e.(*scalar.Const); ok {
//	    return ...
//	  }
//	  return scalar.ReplaceChildren(e, replace)
//	}
type Transform func(e Expr) Expr

// Identity returns its argument.
func Identity(e Expr) Expr {
	return e
}

// ReplaceChildren applies replace to each child of e and returns a copy of e
// with the results. If no child changed, e itself is returned.
func ReplaceChildren(e Expr, replace Transform) Expr {
	switch t := e.(type) {
	case *InputRef, *Const:
		return e

	case *Cast:
		input := replace(t.Input)
		if input == t.Input {
			return e
		}
		return &Cast{Input: input, Typ: t.Typ}

	case *FuncCall:
		var args []Expr
		for i, arg := range t.Args {
			newArg := replace(arg)
			if newArg != arg && args == nil {
				args = make([]Expr, len(t.Args))
				copy(args, t.Args[:i])
			}
			if args != nil {
				args[i] = newArg
			}
		}
		if args == nil {
			return e
		}
		return &FuncCall{Name: t.Name, Args: args, Typ: t.Typ, Generator: t.Generator}
	}
	panic(errors.AssertionFailedf("unhandled expression %T", e))
}

// Walk returns a Transform that applies fn bottom-up to every node of the
// tree.
func Walk(fn Transform) Transform {
	var replace Transform
	replace = func(e Expr) Expr {
		return fn(ReplaceChildren(e, replace))
	}
	return replace
}

// RemapInputRefs returns a Transform that renumbers every input column
// reference through m. Every referenced column must have a counterpart.
func RemapInputRefs(m colmap.Mapping) Transform {
	return Walk(func(e Expr) Expr {
		ref, ok := e.(*InputRef)
		if !ok {
			return e
		}
		ord, ok := m.TryMap(ref.Ord)
		if !ok {
			panic(errors.AssertionFailedf("input column %d has no counterpart", redact.Safe(ref.Ord)))
		}
		if ord == ref.Ord {
			return e
		}
		return &InputRef{Ord: ord, Typ: ref.Typ}
	})
}

// SimplifyCasts returns a Transform that removes casts to the type their
// argument already has.
func SimplifyCasts() Transform {
	return Walk(func(e Expr) Expr {
		if c, ok := e.(*Cast); ok && c.Input.ReturnType().Identical(c.Typ) {
			return c.Input
		}
		return e
	})
}
