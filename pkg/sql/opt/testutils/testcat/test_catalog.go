// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testcat

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt/cat"
	"github.com/cockroachdb/optprops/pkg/sql/types"
	"github.com/cockroachdb/optprops/pkg/util/treeprinter"
)

// Catalog is an in-memory set of tables for testing purposes.
type Catalog struct {
	tables map[string]*Table
}

// New creates a new empty instance of the test catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// Table returns the test table that was previously added with the given name.
func (tc *Catalog) Table(name string) (*Table, error) {
	tab, ok := tc.tables[name]
	if !ok {
		return nil, errors.Newf("relation %q does not exist", name)
	}
	return tab, nil
}

// TableNames returns the names of all tables, sorted.
func (tc *Catalog) TableNames() []string {
	names := make([]string, 0, len(tc.tables))
	for name := range tc.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddTable adds the given test table to the catalog.
func (tc *Catalog) AddTable(tab *Table) error {
	if _, ok := tc.tables[tab.TabName]; ok {
		return errors.Newf("table %q already exists", tab.TabName)
	}
	tc.tables[tab.TabName] = tab
	return nil
}

// ExecuteDDL parses the given DDL statement and applies it to the test
// catalog. The supported statements are:
//
//	CREATE TABLE t (
//	  a INT8,
//	  p RECORD(x FLOAT8, y FLOAT8) AS point,
//	  c STRING,
//	  PRIMARY KEY (a),
//	  FD (a) --> (c),
//	  ORDER BY (c DESC, a)
//	)
//	DROP TABLE t
//	SHOW CREATE TABLE t
func (tc *Catalog) ExecuteDDL(sql string) (string, error) {
	sql = strings.TrimSuffix(strings.TrimSpace(sql), ";")
	upper := strings.ToUpper(sql)

	switch {
	case strings.HasPrefix(upper, "CREATE TABLE "):
		tab, err := parseCreateTable(sql[len("CREATE TABLE "):])
		if err != nil {
			return "", err
		}
		return "", tc.AddTable(tab)

	case strings.HasPrefix(upper, "DROP TABLE "):
		name := strings.TrimSpace(sql[len("DROP TABLE "):])
		if _, err := tc.Table(name); err != nil {
			return "", err
		}
		delete(tc.tables, name)
		return "", nil

	case strings.HasPrefix(upper, "SHOW CREATE TABLE "):
		tab, err := tc.Table(strings.TrimSpace(sql[len("SHOW CREATE TABLE "):]))
		if err != nil {
			return "", err
		}
		return tab.String(), nil
	}
	return "", errors.Newf("unsupported statement: %s", sql)
}

// Table implements the cat.Table interface for testing purposes.
type Table struct {
	TabName string
	Columns []cat.Column
	Key     []int
	HasKey  bool
	Deps    []cat.Dependency
	Order   []cat.IndexColumn
}

var _ cat.Table = &Table{}

func (tt *Table) String() string {
	tp := treeprinter.New()
	cat.FormatTable(tt, tp)
	return tp.String()
}

// Name is part of the cat.Table interface.
func (tt *Table) Name() string {
	return tt.TabName
}

// ColumnCount is part of the cat.Table interface.
func (tt *Table) ColumnCount() int {
	return len(tt.Columns)
}

// Column is part of the cat.Table interface.
func (tt *Table) Column(i int) *cat.Column {
	return &tt.Columns[i]
}

// PrimaryKey is part of the cat.Table interface.
func (tt *Table) PrimaryKey() ([]int, bool) {
	return tt.Key, tt.HasKey
}

// Dependencies is part of the cat.Table interface.
func (tt *Table) Dependencies() []cat.Dependency {
	return tt.Deps
}

// StorageOrder is part of the cat.Table interface.
func (tt *Table) StorageOrder() []cat.IndexColumn {
	return tt.Order
}

// FindOrdinal returns the ordinal of the column with the given name.
func (tt *Table) FindOrdinal(name string) (int, error) {
	for i := range tt.Columns {
		if tt.Columns[i].Name == name {
			return i, nil
		}
	}
	return 0, errors.Newf("column %q does not exist in table %q", name, tt.TabName)
}

func parseCreateTable(def string) (*Table, error) {
	open := strings.IndexByte(def, '(')
	closing := strings.LastIndexByte(def, ')')
	if open < 0 || closing < open {
		return nil, errors.Newf("expected parenthesized table definition: %s", def)
	}
	tab := &Table{TabName: strings.TrimSpace(def[:open])}
	if tab.TabName == "" {
		return nil, errors.New("missing table name")
	}

	// Constraints refer to columns by name, so they are resolved once all
	// columns are known.
	var constraints []string
	for _, item := range splitTopLevel(def[open+1 : closing]) {
		upper := strings.ToUpper(item)
		if strings.HasPrefix(upper, "PRIMARY KEY") || strings.HasPrefix(upper, "FD ") ||
			strings.HasPrefix(upper, "ORDER BY") {
			constraints = append(constraints, item)
			continue
		}
		col, err := parseColumn(item)
		if err != nil {
			return nil, err
		}
		tab.Columns = append(tab.Columns, col)
	}

	for _, item := range constraints {
		upper := strings.ToUpper(item)
		switch {
		case strings.HasPrefix(upper, "PRIMARY KEY"):
			if tab.HasKey {
				return nil, errors.Newf("multiple primary keys for table %q", tab.TabName)
			}
			key, err := tab.parseColList(item[len("PRIMARY KEY"):])
			if err != nil {
				return nil, err
			}
			tab.Key, tab.HasKey = key, true

		case strings.HasPrefix(upper, "FD "):
			sides := strings.Split(item[len("FD "):], "-->")
			if len(sides) != 2 {
				return nil, errors.Newf("expected FD (from) --> (to): %s", item)
			}
			from, err := tab.parseColList(sides[0])
			if err != nil {
				return nil, err
			}
			to, err := tab.parseColList(sides[1])
			if err != nil {
				return nil, err
			}
			tab.Deps = append(tab.Deps, cat.Dependency{From: from, To: to})

		default:
			inner, err := unwrapParens(item[len("ORDER BY"):])
			if err != nil {
				return nil, err
			}
			for _, part := range splitTopLevel(inner) {
				fields := strings.Fields(part)
				if len(fields) == 0 || len(fields) > 2 {
					return nil, errors.Newf("invalid ordering column %q", part)
				}
				ord, err := tab.FindOrdinal(fields[0])
				if err != nil {
					return nil, err
				}
				desc := false
				if len(fields) == 2 {
					switch strings.ToUpper(fields[1]) {
					case "DESC":
						desc = true
					case "ASC":
					default:
						return nil, errors.Newf("invalid direction %q", fields[1])
					}
				}
				tab.Order = append(tab.Order, cat.IndexColumn{Ordinal: ord, Descending: desc})
			}
		}
	}
	return tab, nil
}

// parseColumn parses "name TYPE [AS typename]".
func parseColumn(def string) (cat.Column, error) {
	sp := strings.IndexAny(def, " \t")
	if sp < 0 {
		return cat.Column{}, errors.Newf("column %q has no type", def)
	}
	col := cat.Column{Name: def[:sp]}
	typText := strings.TrimSpace(def[sp+1:])
	if i := lastTopLevelIndex(strings.ToUpper(typText), " AS "); i >= 0 {
		col.TypeName = strings.TrimSpace(typText[i+len(" AS "):])
		typText = strings.TrimSpace(typText[:i])
	}
	typ, err := ParseType(typText)
	if err != nil {
		return cat.Column{}, errors.Wrapf(err, "column %q", col.Name)
	}
	col.Type = typ
	return col, nil
}

// ParseType parses a type name, including arrays and labeled records such as
// RECORD(x FLOAT8, y FLOAT8).
func ParseType(s string) (*types.T, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, "RECORD") {
		inner, err := unwrapParens(s[len("RECORD"):])
		if err != nil {
			return nil, err
		}
		var contents []*types.T
		var labels []string
		for _, part := range splitTopLevel(inner) {
			sp := strings.IndexAny(part, " \t")
			if sp < 0 {
				return nil, errors.Newf("record member %q has no type", part)
			}
			typ, err := ParseType(part[sp+1:])
			if err != nil {
				return nil, err
			}
			labels = append(labels, part[:sp])
			contents = append(contents, typ)
		}
		return types.MakeLabeledTuple(contents, labels), nil
	}
	typ, ok := types.FromName(s)
	if !ok {
		return nil, errors.Newf("unknown type %q", s)
	}
	return typ, nil
}

func (tt *Table) parseColList(s string) ([]int, error) {
	inner, err := unwrapParens(s)
	if err != nil {
		return nil, err
	}
	var ords []int
	for _, name := range splitTopLevel(inner) {
		ord, err := tt.FindOrdinal(name)
		if err != nil {
			return nil, err
		}
		ords = append(ords, ord)
	}
	return ords, nil
}

func unwrapParens(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", errors.Newf("expected parenthesized list: %q", s)
	}
	return s[1 : len(s)-1], nil
}

// splitTopLevel splits s on commas that are not nested inside parentheses,
// trimming every part and dropping empty ones.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = appendTrimmed(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return appendTrimmed(parts, s[start:])
}

func appendTrimmed(parts []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		parts = append(parts, s)
	}
	return parts
}

// lastTopLevelIndex is strings.LastIndex restricted to matches outside
// parentheses.
func lastTopLevelIndex(s, substr string) int {
	res, depth := -1, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], substr) {
			res = i
		}
	}
	return res
}
