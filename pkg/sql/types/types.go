// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package types holds the SQL type descriptors carried by plan schemas. Only
// what the optimizer needs to reason about column metadata lives here: the
// type family, the Postgres OID, and the nested contents of arrays and tuples.
package types

import (
	"bytes"
	"strings"

	"github.com/lib/pq/oid"
)

// Family is the broad category a type belongs to.
type Family int32

const (
	// UnknownFamily is the family of the NULL type.
	UnknownFamily Family = iota
	BoolFamily
	IntFamily
	FloatFamily
	DecimalFamily
	StringFamily
	BytesFamily
	TimestampFamily
	JsonFamily
	ArrayFamily
	// TupleFamily is the family of record types. A labeled tuple is the
	// optimizer's struct type: its labels name the sub-fields that can be
	// accessed with dotted paths.
	TupleFamily
)

var familyNames = [...]string{
	UnknownFamily:   "unknown",
	BoolFamily:      "bool",
	IntFamily:       "int",
	FloatFamily:     "float",
	DecimalFamily:   "decimal",
	StringFamily:    "string",
	BytesFamily:     "bytes",
	TimestampFamily: "timestamp",
	JsonFamily:      "jsonb",
	ArrayFamily:     "array",
	TupleFamily:     "tuple",
}

// String implements fmt.Stringer.
func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "family(?)"
}

// T is an immutable SQL type descriptor. Types are compared with Identical,
// never with ==, since composite types are built on demand.
type T struct {
	family   Family
	oid      oid.Oid
	contents []*T
	labels   []string
}

var (
	// Unknown is the type of an expression that statically evaluates to NULL.
	Unknown = &T{family: UnknownFamily, oid: oid.T_unknown}
	// Bool is the type of a boolean true/false value.
	Bool = &T{family: BoolFamily, oid: oid.T_bool}
	// Int is the type of a 64-bit signed integer.
	Int = &T{family: IntFamily, oid: oid.T_int8}
	// Float is the type of a 64-bit base-2 floating-point number.
	Float = &T{family: FloatFamily, oid: oid.T_float8}
	// Decimal is the type of a base-10 floating-point number.
	Decimal = &T{family: DecimalFamily, oid: oid.T_numeric}
	// String is the type of a variable-length Unicode string.
	String = &T{family: StringFamily, oid: oid.T_text}
	// Bytes is the type of a variable-length byte array.
	Bytes = &T{family: BytesFamily, oid: oid.T_bytea}
	// Timestamp is the type of a value specifying year, month, day, hour,
	// minute, and second, but with no associated timezone.
	Timestamp = &T{family: TimestampFamily, oid: oid.T_timestamp}
	// Jsonb is the type of a JavaScript Object Notation (JSON) value.
	Jsonb = &T{family: JsonFamily, oid: oid.T_jsonb}
)

var arrayOids = map[oid.Oid]oid.Oid{
	oid.T_bool:      oid.T__bool,
	oid.T_int8:      oid.T__int8,
	oid.T_float8:    oid.T__float8,
	oid.T_numeric:   oid.T__numeric,
	oid.T_text:      oid.T__text,
	oid.T_bytea:     oid.T__bytea,
	oid.T_timestamp: oid.T__timestamp,
	oid.T_jsonb:     oid.T__jsonb,
	oid.T_record:    oid.T__record,
}

// MakeArray constructs a new instance of an array type that has the given
// element type.
func MakeArray(typ *T) *T {
	o, ok := arrayOids[typ.oid]
	if !ok {
		o = oid.T_anyarray
	}
	return &T{family: ArrayFamily, oid: o, contents: []*T{typ}}
}

// MakeTuple constructs a new instance of an unlabeled tuple type.
func MakeTuple(contents []*T) *T {
	return &T{family: TupleFamily, oid: oid.T_record, contents: contents}
}

// MakeLabeledTuple constructs a new instance of a tuple type whose elements
// are named by the given labels. len(labels) must equal len(contents).
func MakeLabeledTuple(contents []*T, labels []string) *T {
	if len(contents) != len(labels) {
		panic("tuple contents and labels must be of same length")
	}
	return &T{family: TupleFamily, oid: oid.T_record, contents: contents, labels: labels}
}

// Family returns the broad category of the type.
func (t *T) Family() Family { return t.family }

// Oid returns the Postgres object ID of the type.
func (t *T) Oid() oid.Oid { return t.oid }

// ArrayContents returns the element type of an array, or nil for any other
// family.
func (t *T) ArrayContents() *T {
	if t.family != ArrayFamily {
		return nil
	}
	return t.contents[0]
}

// TupleContents returns the element types of a tuple, or nil for any other
// family.
func (t *T) TupleContents() []*T {
	if t.family != TupleFamily {
		return nil
	}
	return t.contents
}

// TupleLabels returns the labels of a labeled tuple, or nil.
func (t *T) TupleLabels() []string {
	if t.family != TupleFamily {
		return nil
	}
	return t.labels
}

// Identical returns true if every field in the type is the same, including
// nested contents and tuple labels.
func (t *T) Identical(other *T) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.family != other.family || t.oid != other.oid {
		return false
	}
	if len(t.contents) != len(other.contents) || len(t.labels) != len(other.labels) {
		return false
	}
	for i := range t.contents {
		if !t.contents[i].Identical(other.contents[i]) {
			return false
		}
	}
	for i := range t.labels {
		if t.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}

// SQLString returns the CockroachDB native SQL string that can be used to
// reproduce the type via parsing the string as a type. It is used in error
// messages and plan output.
func (t *T) SQLString() string {
	switch t.family {
	case UnknownFamily:
		return "UNKNOWN"
	case BoolFamily:
		return "BOOL"
	case IntFamily:
		return "INT8"
	case FloatFamily:
		return "FLOAT8"
	case DecimalFamily:
		return "DECIMAL"
	case StringFamily:
		return "STRING"
	case BytesFamily:
		return "BYTES"
	case TimestampFamily:
		return "TIMESTAMP"
	case JsonFamily:
		return "JSONB"
	case ArrayFamily:
		return t.contents[0].SQLString() + "[]"
	case TupleFamily:
		var buf bytes.Buffer
		buf.WriteString("RECORD")
		if len(t.contents) == 0 {
			return buf.String()
		}
		buf.WriteByte('(')
		for i, typ := range t.contents {
			if i > 0 {
				buf.WriteString(", ")
			}
			if t.labels != nil {
				buf.WriteString(t.labels[i])
				buf.WriteByte(' ')
			}
			buf.WriteString(typ.SQLString())
		}
		buf.WriteByte(')')
		return buf.String()
	}
	return t.family.String()
}

// String implements fmt.Stringer.
func (t *T) String() string {
	return t.SQLString()
}

var nameToType = map[string]*T{
	"bool":      Bool,
	"boolean":   Bool,
	"int":       Int,
	"int8":      Int,
	"bigint":    Int,
	"float":     Float,
	"float8":    Float,
	"decimal":   Decimal,
	"numeric":   Decimal,
	"string":    String,
	"text":      String,
	"bytes":     Bytes,
	"bytea":     Bytes,
	"timestamp": Timestamp,
	"jsonb":     Jsonb,
	"json":      Jsonb,
	"unknown":   Unknown,
}

// FromName returns the scalar type with the given name. A trailing "[]"
// denotes an array of the named type. Tuple types have no textual form here.
func FromName(name string) (*T, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.HasSuffix(name, "[]") {
		elem, ok := FromName(strings.TrimSuffix(name, "[]"))
		if !ok {
			return nil, false
		}
		return MakeArray(elem), true
	}
	typ, ok := nameToType[name]
	return typ, ok
}
