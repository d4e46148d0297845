// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// Operator describes the type of operation that a memo expression performs.
// Some operators are relational (scan, project-set) and some are scalar (input
// references, function calls).
type Operator uint16

const (
	// UnknownOp is not a valid operator.
	UnknownOp Operator = iota

	// -- Relational operators --

	// ScanOp reads the rows of a catalog table. It is both a logical and a
	// physical operator.
	ScanOp

	// ProjectSetOp evaluates a list of expressions, some of which may be
	// table-valued generators, against every input row.
	ProjectSetOp

	// BatchProjectSetOp is the physical counterpart of ProjectSetOp. Unlike the
	// logical operator, it provides an ordering.
	BatchProjectSetOp

	// -- Scalar operators --

	// InputRefOp passes through one column of the input.
	InputRefOp

	// ConstOp is a leaf expression that has a constant value.
	ConstOp

	// CastOp converts its argument to another type.
	CastOp

	// FunctionOp calls a scalar or table-valued function.
	FunctionOp

	// NumOperators tracks the total count of operators.
	NumOperators
)

var opNames = [...]string{
	UnknownOp:         "unknown",
	ScanOp:            "scan",
	ProjectSetOp:      "project-set",
	BatchProjectSetOp: "batch-project-set",
	InputRefOp:        "input-ref",
	ConstOp:           "const",
	CastOp:            "cast",
	FunctionOp:        "function",
}

// RelationalOperators lists the operators that produce rows.
var RelationalOperators = []Operator{ScanOp, ProjectSetOp, BatchProjectSetOp}

// String implements fmt.Stringer.
func (op Operator) String() string {
	if op >= NumOperators {
		return fmt.Sprintf("operator(%d)", op)
	}
	return opNames[op]
}

// SafeFormat implements redact.SafeFormatter. Operator names are never
// sensitive.
func (op Operator) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeString(redact.SafeString(op.String()))
}

// IsPhysical returns true if expressions with this operator can be executed
// directly and therefore provide an ordering.
func (op Operator) IsPhysical() bool {
	switch op {
	case ScanOp, BatchProjectSetOp:
		return true
	}
	return false
}

// IsRelational returns true if the operator produces rows.
func (op Operator) IsRelational() bool {
	for _, r := range RelationalOperators {
		if r == op {
			return true
		}
	}
	return false
}
