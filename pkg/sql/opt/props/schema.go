// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package props

import (
	"bytes"

	"github.com/cockroachdb/optprops/pkg/sql/types"
)

// Field describes one output column of a relational expression.
type Field struct {
	// Name is the label of the column. Catalog-facing names are preserved by
	// pass-through columns so that they can still be resolved by name.
	Name string

	// Type is the declared type of the column.
	Type *types.T

	// SubFields describes the members of a struct-typed column, so that they
	// can be accessed with dotted paths. It is empty for scalar columns.
	SubFields []Field

	// TypeName is the name of the user-defined struct type of the column, or
	// the empty string.
	TypeName string
}

// WithName returns a scalar field.
func WithName(typ *types.T, name string) Field {
	return Field{Name: name, Type: typ}
}

// WithStruct returns a field with explicit struct metadata.
func WithStruct(typ *types.T, name string, subFields []Field, typeName string) Field {
	return Field{Name: name, Type: typ, SubFields: subFields, TypeName: typeName}
}

// FieldFromType returns a field whose sub-fields are derived from the labels
// of a labeled tuple type, recursively.
func FieldFromType(typ *types.T, name, typeName string) Field {
	f := Field{Name: name, Type: typ, TypeName: typeName}
	labels := typ.TupleLabels()
	if len(labels) == 0 {
		return f
	}
	f.SubFields = make([]Field, len(labels))
	for i, sub := range typ.TupleContents() {
		f.SubFields[i] = FieldFromType(sub, labels[i], "")
	}
	return f
}

// Equals returns true if both fields have the same name, identical types and
// the same struct metadata.
func (f *Field) Equals(other *Field) bool {
	if f.Name != other.Name || f.TypeName != other.TypeName || !f.Type.Identical(other.Type) {
		return false
	}
	if len(f.SubFields) != len(other.SubFields) {
		return false
	}
	for i := range f.SubFields {
		if !f.SubFields[i].Equals(&other.SubFields[i]) {
			return false
		}
	}
	return true
}

func (f *Field) format(buf *bytes.Buffer, showTypes bool) {
	buf.WriteString(f.Name)
	if showTypes {
		buf.WriteByte(':')
		if f.TypeName != "" {
			buf.WriteString(f.TypeName)
		} else {
			buf.WriteString(f.Type.SQLString())
		}
	}
}

// String implements fmt.Stringer.
func (f Field) String() string {
	var buf bytes.Buffer
	f.format(&buf, true /* showTypes */)
	return buf.String()
}

// Schema is the ordered list of output columns of a relational expression.
// Column ordinals are positions in Fields.
type Schema struct {
	Fields []Field
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.Fields)
}

// Equals returns true if both schemas have the same fields in the same order.
func (s *Schema) Equals(other *Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if !s.Fields[i].Equals(&other.Fields[i]) {
			return false
		}
	}
	return true
}

// Format prints the schema as "(a:INT8, b:STRING)"; types are omitted if
// showTypes is false.
func (s *Schema) Format(showTypes bool) string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	for i := range s.Fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		s.Fields[i].format(&buf, showTypes)
	}
	buf.WriteByte(')')
	return buf.String()
}

// String implements fmt.Stringer.
func (s *Schema) String() string {
	return s.Format(true /* showTypes */)
}
