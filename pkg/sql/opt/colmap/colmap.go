// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colmap maps column ordinals of one relational operator onto the
// column ordinals of another. A Mapping is partial (a source ordinal may have
// no counterpart) and need not be injective (several sources may map to the
// same target). Operators that change the shape of their input build one
// Mapping per direction and use it to translate keys, functional
// dependencies and orderings.
package colmap

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/util/intsets"
	"github.com/cockroachdb/redact"
)

// ErrIndexOutOfRange marks the assertion failures raised when a Mapping is
// built or queried with an ordinal outside of its domain. Such failures are
// only reachable from malformed plans.
var ErrIndexOutOfRange = errors.New("column index out of range")

// IndexOutOfRangef returns an assertion failure marked with
// ErrIndexOutOfRange. The assertion annotation is the outermost layer, so
// errors.IsAssertionFailure holds for the result.
func IndexOutOfRangef(format string, args ...interface{}) error {
	err := errors.NewWithDepthf(1, format, args...)
	return errors.WithAssertionFailure(errors.Mark(err, ErrIndexOutOfRange))
}

func indexOutOfRange(what string, i, size int) error {
	return IndexOutOfRangef("%s %d out of range [0, %d)", redact.SafeString(what), i, size)
}

// Target is the image of a single source ordinal: either Mapped to a target
// ordinal, or Unmapped.
type Target struct {
	ord    int
	mapped bool
}

// Unmapped is the Target of a source ordinal without a counterpart.
var Unmapped = Target{}

// Mapped returns the Target for a source ordinal that corresponds to the
// given target ordinal.
func Mapped(ord int) Target {
	return Target{ord: ord, mapped: true}
}

// Ordinal returns the target ordinal and true, or false if the target is
// Unmapped.
func (t Target) Ordinal() (int, bool) {
	return t.ord, t.mapped
}

// IsMapped returns true if the target is not Unmapped.
func (t Target) IsMapped() bool {
	return t.mapped
}

// Mapping is an immutable, fixed-size correspondence from source ordinals
// [0, SourceSize()) to target ordinals [0, TargetSize()).
type Mapping struct {
	slots      []Target
	targetSize int
}

// WithTargetSize creates a Mapping that takes ownership of slots. Slot i
// holds the image of source ordinal i. Every Mapped slot must lie in
// [0, targetSize).
func WithTargetSize(slots []Target, targetSize int) Mapping {
	for _, t := range slots {
		if t.mapped && (t.ord < 0 || t.ord >= targetSize) {
			panic(indexOutOfRange("target ordinal", t.ord, targetSize))
		}
	}
	return Mapping{slots: slots, targetSize: targetSize}
}

// SourceSize is the number of source ordinals the mapping is defined over.
func (m Mapping) SourceSize() int {
	return len(m.slots)
}

// TargetSize is the number of target ordinals.
func (m Mapping) TargetSize() int {
	return m.targetSize
}

// TryMap returns the target ordinal of source ordinal i. The second return
// value is false if i has no counterpart, which is the expected state for
// computed columns. TryMap panics with an ErrIndexOutOfRange assertion
// failure if i is not a valid source ordinal.
func (m Mapping) TryMap(i int) (int, bool) {
	if i < 0 || i >= len(m.slots) {
		panic(indexOutOfRange("source ordinal", i, len(m.slots)))
	}
	return m.slots[i].Ordinal()
}

// MapAll translates every ordinal of ords, preserving order. If any ordinal
// has no counterpart, the whole translation fails and MapAll returns
// (nil, false).
func (m Mapping) MapAll(ords []int) ([]int, bool) {
	res := make([]int, 0, len(ords))
	for _, i := range ords {
		t, ok := m.TryMap(i)
		if !ok {
			return nil, false
		}
		res = append(res, t)
	}
	return res, true
}

// MapPrefix translates the longest prefix of ords whose ordinals all have a
// counterpart. Translation stops at the first ordinal without one, so the
// result is nil if ords[0] is unmapped.
func (m Mapping) MapPrefix(ords []int) []int {
	var res []int
	for _, i := range ords {
		t, ok := m.TryMap(i)
		if !ok {
			break
		}
		res = append(res, t)
	}
	return res
}

// MapSet translates every ordinal in s. It returns false if any of them has
// no counterpart.
func (m Mapping) MapSet(s intsets.Fast) (intsets.Fast, bool) {
	var res intsets.Fast
	ok := true
	s.ForEach(func(i int) {
		if !ok {
			return
		}
		var t int
		if t, ok = m.TryMap(i); ok {
			res.Add(t)
		}
	})
	if !ok {
		return intsets.Fast{}, false
	}
	return res, true
}

// SafeFormat implements redact.SafeFormatter. The mapping prints as
// "[0->1 1->_ 2->2]/3", where the trailing number is the target size.
func (m Mapping) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeRune('[')
	for i, t := range m.slots {
		if i > 0 {
			w.SafeRune(' ')
		}
		if ord, ok := t.Ordinal(); ok {
			w.Printf("%d->%d", redact.Safe(i), redact.Safe(ord))
		} else {
			w.Printf("%d->_", redact.Safe(i))
		}
	}
	w.Printf("]/%d", redact.Safe(m.targetSize))
}

// String implements fmt.Stringer.
func (m Mapping) String() string {
	return redact.StringWithoutMarkers(m)
}
