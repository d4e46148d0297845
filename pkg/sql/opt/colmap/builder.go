// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colmap

// Builder accumulates the slots of a Mapping. All slots start Unmapped.
type Builder struct {
	slots      []Target
	targetSize int
}

// NewBuilder returns a Builder for a mapping from sourceSize ordinals to
// targetSize ordinals.
func NewBuilder(sourceSize, targetSize int) *Builder {
	return &Builder{slots: make([]Target, sourceSize), targetSize: targetSize}
}

func (b *Builder) checkBounds(src, dst int) {
	if src < 0 || src >= len(b.slots) {
		panic(indexOutOfRange("source ordinal", src, len(b.slots)))
	}
	if dst < 0 || dst >= b.targetSize {
		panic(indexOutOfRange("target ordinal", dst, b.targetSize))
	}
}

// Set maps src to dst, replacing any earlier mapping of src.
func (b *Builder) Set(src, dst int) {
	b.checkBounds(src, dst)
	b.slots[src] = Mapped(dst)
}

// SetFirst maps src to dst unless src is already mapped, in which case the
// existing mapping is kept. It returns true if the slot was updated.
func (b *Builder) SetFirst(src, dst int) bool {
	b.checkBounds(src, dst)
	if b.slots[src].IsMapped() {
		return false
	}
	b.slots[src] = Mapped(dst)
	return true
}

// Build returns the Mapping. The Builder must not be used afterwards.
func (b *Builder) Build() Mapping {
	slots := b.slots
	b.slots = nil
	return Mapping{slots: slots, targetSize: b.targetSize}
}
