// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package props

import (
	"bytes"

	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/util/intsets"
)

// FuncDep is a strict functional dependency From --> To over column
// ordinals: any two rows that agree on the From columns also agree on the To
// columns.
type FuncDep struct {
	From intsets.Fast
	To   intsets.Fast
}

// String implements fmt.Stringer, printing "(0,1)-->(2)".
func (d FuncDep) String() string {
	return d.From.String() + "-->" + d.To.String()
}

// FuncDepSet is an ordered collection of functional dependencies over a
// fixed number of columns.
//
// FuncDepSet values are immutable once handed out by a relational
// expression; builders must finish adding dependencies before sharing them.
type FuncDepSet struct {
	colCount int
	deps     []FuncDep
}

// MakeFuncDepSet returns an empty set over colCount columns.
func MakeFuncDepSet(colCount int) FuncDepSet {
	return FuncDepSet{colCount: colCount}
}

// ColCount returns the number of columns the dependencies range over.
func (f *FuncDepSet) ColCount() int {
	return f.colCount
}

// Len returns the number of dependencies.
func (f *FuncDepSet) Len() int {
	return len(f.deps)
}

// Empty returns true if the set holds no dependencies.
func (f *FuncDepSet) Empty() bool {
	return len(f.deps) == 0
}

// Deps returns the dependencies in insertion order. The caller must not
// modify the returned slice.
func (f *FuncDepSet) Deps() []FuncDep {
	return f.deps
}

// AddFuncDep appends the dependency from --> to. Both sets must only contain
// ordinals in [0, ColCount()).
func (f *FuncDepSet) AddFuncDep(from, to intsets.Fast) {
	if f.outOfRange(from) || f.outOfRange(to) {
		panic(colmap.IndexOutOfRangef("dependency %s-->%s out of range [0, %d)", from, to, f.colCount))
	}
	f.deps = append(f.deps, FuncDep{From: from.Copy(), To: to.Copy()})
}

func (f *FuncDepSet) outOfRange(s intsets.Fast) bool {
	_, ok := s.Next(f.colCount)
	return ok
}

// Remap translates every dependency from the column space of the receiver
// into the target space of m. A dependency mentioning any column without a
// counterpart cannot be expressed in the target space and is dropped as a
// whole; the survivors keep their relative order.
func (f *FuncDepSet) Remap(m colmap.Mapping) FuncDepSet {
	res := MakeFuncDepSet(m.TargetSize())
	for _, d := range f.deps {
		from, ok := m.MapSet(d.From)
		if !ok {
			continue
		}
		to, ok := m.MapSet(d.To)
		if !ok {
			continue
		}
		res.deps = append(res.deps, FuncDep{From: from, To: to})
	}
	return res
}

// Equals returns true if both sets range over the same columns and contain
// the same dependencies in the same order.
func (f *FuncDepSet) Equals(other *FuncDepSet) bool {
	if f.colCount != other.colCount || len(f.deps) != len(other.deps) {
		return false
	}
	for i := range f.deps {
		if !f.deps[i].From.Equals(other.deps[i].From) || !f.deps[i].To.Equals(other.deps[i].To) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer, printing "(0)-->(2), (1)-->(3)".
func (f FuncDepSet) String() string {
	var buf bytes.Buffer
	for i, d := range f.deps {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(d.String())
	}
	return buf.String()
}
