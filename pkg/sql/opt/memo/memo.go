// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package memo stores the relational expressions of a query plan and derives
// their logical properties.
package memo

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt"
	"github.com/cockroachdb/optprops/pkg/sql/opt/cat"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/optprops/pkg/util/log"
	"github.com/cockroachdb/optprops/pkg/util/syncutil"
	"github.com/cockroachdb/redact"
)

// Memo is an append-only arena of relational expressions. Expressions refer
// to their inputs by RelID, so alternative plans explored by the optimizer
// share common subtrees.
//
// Structurally identical expressions are interned: adding an expression that
// is already present returns the existing RelID.
//
// Logical properties are not stored. They are derived from the expression and
// the properties of its inputs every time they are requested, which is cheap
// for the operators in this package and keeps expressions immutable.
//
// A Memo can be read concurrently. Adding expressions is serialized.
type Memo struct {
	ctx *opt.Context

	mu struct {
		syncutil.RWMutex

		// exprs[i] is the expression with RelID i+1.
		exprs []RelExpr

		// interned indexes exprs by fingerprint.
		interned map[uint64][]RelID
	}
}

// Init prepares the memo for use. It must be called before any other method.
func (m *Memo) Init(ctx *opt.Context) {
	m.ctx = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mu.exprs = nil
	m.mu.interned = make(map[uint64][]RelID)
}

// Context returns the optimizer context passed to Init.
func (m *Memo) Context() *opt.Context {
	return m.ctx
}

// Len returns the number of expressions in the memo.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mu.exprs)
}

// Expr returns the expression with the given id.
func (m *Memo) Expr(id RelID) RelExpr {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id <= 0 || int(id) > len(m.mu.exprs) {
		panic(errors.AssertionFailedf("invalid expression id %s", id))
	}
	return m.mu.exprs[id-1]
}

// AddScan adds a scan of the given table. Tables are compared by identity,
// so implementations must be comparable.
func (m *Memo) AddScan(tab cat.Table) RelID {
	return m.add(&ScanExpr{Table: tab})
}

// AddProjectSet adds a logical project-set over input. The memo takes
// ownership of exprs.
func (m *Memo) AddProjectSet(input RelID, exprs []scalar.Expr) RelID {
	return m.add(&ProjectSetExpr{Input: input, Exprs: exprs})
}

// ToBatch returns the physical variant of a project-set. Physical
// expressions are returned unchanged.
func (m *Memo) ToBatch(id RelID) RelID {
	switch t := m.Expr(id).(type) {
	case *ProjectSetExpr:
		if t.Batch {
			return id
		}
		return m.add(&ProjectSetExpr{Input: t.Input, Exprs: t.Exprs, Batch: true})

	case *ScanExpr:
		return id
	}
	panic(errors.AssertionFailedf("unhandled expression %s", id))
}

// RewriteExprs applies replace to every expression of a project-set and
// returns the resulting project-set, which has the same input and operator.
// The original expression is not modified. If replace returns every
// expression unchanged, the original id is returned.
func (m *Memo) RewriteExprs(id RelID, replace scalar.Transform) RelID {
	ps, ok := m.Expr(id).(*ProjectSetExpr)
	if !ok {
		panic(errors.AssertionFailedf("cannot rewrite expressions of %s", m.Expr(id).Op()))
	}
	var exprs []scalar.Expr
	for i, e := range ps.Exprs {
		newExpr := replace(e)
		if newExpr == nil {
			panic(errors.AssertionFailedf("rewrite of expression %d of %s returned nil", redact.Safe(i), id))
		}
		if newExpr != e && exprs == nil {
			exprs = make([]scalar.Expr, len(ps.Exprs))
			copy(exprs, ps.Exprs[:i])
		}
		if exprs != nil {
			exprs[i] = newExpr
		}
	}
	if exprs == nil {
		return id
	}
	return m.add(&ProjectSetExpr{Input: ps.Input, Exprs: exprs, Batch: ps.Batch})
}

func (m *Memo) add(e RelExpr) RelID {
	ctx := m.ctx.Ctx()
	if m.ctx.CheckInvariants() {
		m.checkExpr(e)
	}
	fp := fingerprint(e)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.mu.interned[fp] {
		if exprEqual(m.mu.exprs[id-1], e) {
			log.VEventf(ctx, 2, "reusing %s for %s", id, e.Op())
			return id
		}
	}
	m.mu.exprs = append(m.mu.exprs, e)
	id := RelID(len(m.mu.exprs))
	m.mu.interned[fp] = append(m.mu.interned[fp], id)
	log.VEventf(ctx, 2, "added %s as %s", e.Op(), id)
	if log.ExpensiveLogEnabled(ctx, 2) {
		if ps, ok := e.(*ProjectSetExpr); ok && !ps.HasGenerator() {
			log.VEventf(ctx, 2, "%s has no set-returning expression", id)
		}
	}
	return id
}

// fingerprint hashes the structure of an expression. Equal expressions have
// equal fingerprints.
func fingerprint(e RelExpr) uint64 {
	buf := make([]byte, 0, 64)
	buf = append(buf, e.Op().String()...)
	for i, n := 0, e.ChildCount(); i < n; i++ {
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(e.Child(i)), 10)
	}
	switch t := e.(type) {
	case *ScanExpr:
		buf = append(buf, ' ')
		buf = append(buf, t.Table.Name()...)
	case *ProjectSetExpr:
		for _, expr := range t.Exprs {
			buf = append(buf, ' ')
			buf = scalar.AppendKey(buf, expr)
		}
	}
	return xxhash.Sum64(buf)
}

func exprEqual(a, b RelExpr) bool {
	if a.Op() != b.Op() {
		return false
	}
	switch t := a.(type) {
	case *ScanExpr:
		return t.Table == b.(*ScanExpr).Table

	case *ProjectSetExpr:
		other := b.(*ProjectSetExpr)
		if t.Input != other.Input || len(t.Exprs) != len(other.Exprs) {
			return false
		}
		for i := range t.Exprs {
			if !scalar.Equal(t.Exprs[i], other.Exprs[i]) {
				return false
			}
		}
		return true
	}
	panic(errors.AssertionFailedf("unhandled expression %s", redact.Safe(a.Op())))
}
