// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package props

import (
	"strconv"
	"strings"
)

// Key is an ordered list of output column ordinals that is claimed to
// uniquely identify every output row. A nil Key means no key is known.
type Key []int

// String implements fmt.Stringer, printing "[2,0]".
func (k Key) String() string {
	var buf strings.Builder
	buf.WriteByte('[')
	for i, ord := range k {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(ord))
	}
	buf.WriteByte(']')
	return buf.String()
}

// Equals returns true if both keys list the same ordinals in the same order.
func (k Key) Equals(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}
