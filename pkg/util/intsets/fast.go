// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package intsets

import (
	"bytes"
	"fmt"
	"math"
	"math/bits"

	"golang.org/x/tools/container/intsets"
)

// smallCutoff is the size of the small bitmap. Values in [0, smallCutoff) are
// stored in the bitmap; larger values spill into a Sparse set.
const smallCutoff = 64

// Fast keeps track of a set of non-negative integers. It does not perform any
// allocations when the values are small. It is not thread-safe.
//
// The zero value is an empty set. A Fast must be copied with Copy before
// being mutated if the original is still in use, since the large
// representation is shared by assignment.
type Fast struct {
	small uint64
	large *intsets.Sparse
}

// MakeFast returns a set initialized with the given values.
func MakeFast(vals ...int) Fast {
	var res Fast
	for _, v := range vals {
		res.Add(v)
	}
	return res
}

// Add adds a value to the set. Negative values are not supported.
func (s *Fast) Add(i int) {
	if i < 0 {
		panic(fmt.Sprintf("intsets: negative value %d", i))
	}
	if i < smallCutoff {
		s.small |= 1 << uint(i)
		return
	}
	if s.large == nil {
		s.large = new(intsets.Sparse)
	}
	s.large.Insert(i)
}

// AddRange adds values 'from' up to 'to' (inclusively) to the set.
func (s *Fast) AddRange(from, to int) {
	for i := from; i <= to; i++ {
		s.Add(i)
	}
}

// Contains returns true if the set contains the value.
func (s Fast) Contains(i int) bool {
	if i < 0 {
		return false
	}
	if i < smallCutoff {
		return s.small&(1<<uint(i)) != 0
	}
	return s.large != nil && s.large.Has(i)
}

// Empty returns true if the set is empty.
func (s Fast) Empty() bool {
	return s.small == 0 && (s.large == nil || s.large.IsEmpty())
}

// Len returns the number of the elements in the set.
func (s Fast) Len() int {
	l := bits.OnesCount64(s.small)
	if s.large != nil {
		l += s.large.Len()
	}
	return l
}

// Next returns the first value in the set which is >= startVal. If there is no
// value, the second return value is false.
func (s Fast) Next(startVal int) (int, bool) {
	if startVal < 0 {
		startVal = 0
	}
	if startVal < smallCutoff {
		if ntz := bits.TrailingZeros64(s.small >> uint(startVal)); ntz < 64 {
			return startVal + ntz, true
		}
		startVal = smallCutoff
	}
	if s.large == nil {
		return 0, false
	}
	if v := s.large.LowerBound(startVal); v != math.MaxInt {
		return v, true
	}
	return 0, false
}

// ForEach calls a function for each value in the set (in increasing order).
func (s Fast) ForEach(f func(i int)) {
	for v := s.small; v != 0; {
		i := bits.TrailingZeros64(v)
		f(i)
		v &^= 1 << uint(i)
	}
	if s.large != nil {
		for _, v := range s.large.AppendTo(nil) {
			f(v)
		}
	}
}

// Copy returns a copy of s which can be modified independently.
func (s Fast) Copy() Fast {
	c := Fast{small: s.small}
	if s.large != nil && !s.large.IsEmpty() {
		c.large = new(intsets.Sparse)
		c.large.Copy(s.large)
	}
	return c
}

// DifferenceWith removes any elements in rhs from this set.
func (s *Fast) DifferenceWith(rhs Fast) {
	s.small &^= rhs.small
	if s.large == nil || rhs.large == nil {
		return
	}
	s.large.DifferenceWith(rhs.large)
}

// Difference returns the elements of s that are not in rhs as a new set.
func (s Fast) Difference(rhs Fast) Fast {
	r := s.Copy()
	r.DifferenceWith(rhs)
	return r
}

// Equals returns true if the two sets are identical.
func (s Fast) Equals(rhs Fast) bool {
	if s.small != rhs.small {
		return false
	}
	lEmpty := s.large == nil || s.large.IsEmpty()
	rEmpty := rhs.large == nil || rhs.large.IsEmpty()
	if lEmpty || rEmpty {
		return lEmpty == rEmpty
	}
	return s.large.Equals(rhs.large)
}

// SubsetOf returns true if s is a subset of rhs.
func (s Fast) SubsetOf(rhs Fast) bool {
	if s.small&rhs.small != s.small {
		return false
	}
	if s.large == nil || s.large.IsEmpty() {
		return true
	}
	if rhs.large == nil {
		return false
	}
	return s.large.SubsetOf(rhs.large)
}

// String returns a list representation of elements. Sequential runs of
// positive numbers are shown as ranges. For example, for the set {1, 2, 3, 5,
// 6, 10}, the output is "(1-3,5,6,10)".
func (s Fast) String() string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	appendRange := func(start, end int) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if start == end {
			fmt.Fprintf(&buf, "%d", start)
		} else if start+1 == end {
			fmt.Fprintf(&buf, "%d,%d", start, end)
		} else {
			fmt.Fprintf(&buf, "%d-%d", start, end)
		}
	}
	rangeStart, rangeEnd := -1, -1
	s.ForEach(func(i int) {
		if rangeStart != -1 && rangeEnd == i-1 {
			rangeEnd = i
			return
		}
		if rangeStart != -1 {
			appendRange(rangeStart, rangeEnd)
		}
		rangeStart, rangeEnd = i, i
	})
	if rangeStart != -1 {
		appendRange(rangeStart, rangeEnd)
	}
	buf.WriteByte(')')
	return buf.String()
}
