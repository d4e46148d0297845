// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cat contains the interfaces through which the optimizer reads
// catalog objects. Implementations live outside the optimizer.
package cat

import "github.com/cockroachdb/optprops/pkg/sql/types"

// Column describes one column of a table.
type Column struct {
	// Name is the column name as declared in the catalog.
	Name string

	// Type is the column type.
	Type *types.T

	// TypeName is the name of the user-defined composite type of the column,
	// or the empty string.
	TypeName string
}

// IndexColumn is a column of the storage order of a table, identified by its
// ordinal in the table.
type IndexColumn struct {
	Ordinal    int
	Descending bool
}

// Dependency states that the From columns of a table functionally determine
// its To columns. Columns are identified by ordinal.
type Dependency struct {
	From []int
	To   []int
}

// Table is an interface to a database table. Every method returns metadata
// that is immutable for the lifetime of the Table; callers must not modify
// the returned slices.
type Table interface {
	// Name returns the unqualified name of the table.
	Name() string

	// ColumnCount returns the number of columns.
	ColumnCount() int

	// Column returns the column at ordinal i.
	Column(i int) *Column

	// PrimaryKey returns the column ordinals of the primary key, if any.
	PrimaryKey() (key []int, ok bool)

	// Dependencies returns the functional dependencies that hold between
	// the columns of the table.
	Dependencies() []Dependency

	// StorageOrder returns the order in which a scan returns the rows of the
	// table. It is empty if the scan is unordered.
	StorageOrder() []IndexColumn
}
