// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package physical

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt/colmap"
	"github.com/cockroachdb/optprops/pkg/util/intsets"
	"github.com/cockroachdb/redact"
)

// OrderingColumn is one column of an Ordering: an output column ordinal and
// a sort direction.
type OrderingColumn struct {
	Ord        int
	Descending bool
}

// MakeOrderingColumn initializes an ordering column.
func MakeOrderingColumn(ord int, descending bool) OrderingColumn {
	return OrderingColumn{Ord: ord, Descending: descending}
}

// Ascending returns true if the column sorts in ascending order.
func (c OrderingColumn) Ascending() bool {
	return !c.Descending
}

// SafeFormat implements redact.SafeFormatter.
func (c OrderingColumn) SafeFormat(w redact.SafePrinter, _ rune) {
	if c.Descending {
		w.SafeRune('-')
	} else {
		w.SafeRune('+')
	}
	w.Print(c.Ord)
}

// String prints "+1" or "-2".
func (c OrderingColumn) String() string {
	return redact.StringWithoutMarkers(c)
}

// Ordering is the sequence of (column, direction) pairs by which the rows
// produced by an operator are sorted. An empty Ordering means the rows come
// out in no particular order.
type Ordering []OrderingColumn

// Empty returns true if the ordering is empty.
func (o Ordering) Empty() bool {
	return len(o) == 0
}

// ColSet returns the set of column ordinals in the ordering.
func (o Ordering) ColSet() intsets.Fast {
	var s intsets.Fast
	for _, c := range o {
		s.Add(c.Ord)
	}
	return s
}

// Equals returns true if the two orderings are identical.
func (o Ordering) Equals(other Ordering) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Remap translates the ordering into the target space of m. The result is
// the longest prefix of the ordering whose columns all have a counterpart.
// Rows tied on a column without one are not ordered by the columns after
// it, so those are dropped too.
func (o Ordering) Remap(m colmap.Mapping) Ordering {
	ords := make([]int, len(o))
	for i, c := range o {
		ords[i] = c.Ord
	}
	mapped := m.MapPrefix(ords)
	if len(mapped) == 0 {
		return nil
	}
	res := make(Ordering, len(mapped))
	for i, ord := range mapped {
		res[i] = OrderingColumn{Ord: ord, Descending: o[i].Descending}
	}
	return res
}

func (o Ordering) format(buf *bytes.Buffer) {
	for i, c := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(c.String())
	}
}

// String prints "+1,-2".
func (o Ordering) String() string {
	var buf bytes.Buffer
	o.format(&buf)
	return buf.String()
}

// ParseOrdering parses the output of Ordering.String. Test-only.
func ParseOrdering(str string) (Ordering, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, nil
	}
	var res Ordering
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		if len(part) < 2 || (part[0] != '+' && part[0] != '-') {
			return nil, errors.Newf("invalid ordering column %q", part)
		}
		ord, err := strconv.Atoi(part[1:])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ordering column %q", part)
		}
		if ord < 0 {
			return nil, errors.Newf("negative ordinal in ordering column %q", part)
		}
		res = append(res, MakeOrderingColumn(ord, part[0] == '-'))
	}
	return res, nil
}
