// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package testutils

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/sql/opt/props"
	"github.com/cockroachdb/optprops/pkg/sql/opt/scalar"
	"github.com/cockroachdb/optprops/pkg/sql/types"
)

// BuildScalar parses a scalar expression over the columns of input. The
// syntax is a small subset of SQL:
//
//	@2                         input column by ordinal
//	b                          input column by name
//	1, 1.5, 'abc', true, NULL  constants
//	a::STRING                  cast
//	generate_series(1, a)      call of a known function
//	my_func(a):INT8            call with an explicit return type
//
// Table-valued functions are recognized by name.
func BuildScalar(input string, schema *props.Schema) (scalar.Expr, error) {
	p := parser{src: input, schema: schema}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.skipSpace(); p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return e, nil
}

// BuildScalarList parses a comma-separated list of scalar expressions.
func BuildScalarList(input string, schema *props.Schema) ([]scalar.Expr, error) {
	p := parser{src: input, schema: schema}
	var res []scalar.Expr
	if p.skipSpace(); p.pos == len(p.src) {
		return nil, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		res = append(res, e)
		if !p.consume(",") {
			break
		}
	}
	if p.skipSpace(); p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return res, nil
}

type funcDef struct {
	generator bool
	// returnType computes the result type from the argument types. A nil
	// result means the arguments are invalid.
	returnType func(args []*types.T) *types.T
}

func fixed(typ *types.T) func([]*types.T) *types.T {
	return func([]*types.T) *types.T { return typ }
}

func firstArg(args []*types.T) *types.T {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

var knownFuncs = map[string]funcDef{
	"generate_series":       {generator: true, returnType: fixed(types.Int)},
	"jsonb_array_elements":  {generator: true, returnType: fixed(types.Jsonb)},
	"json_array_elements":   {generator: true, returnType: fixed(types.Jsonb)},
	"regexp_split_to_table": {generator: true, returnType: fixed(types.String)},
	"unnest": {generator: true, returnType: func(args []*types.T) *types.T {
		if len(args) != 1 || args[0].Family() != types.ArrayFamily {
			return nil
		}
		return args[0].ArrayContents()
	}},
	"lower":  {returnType: fixed(types.String)},
	"upper":  {returnType: fixed(types.String)},
	"length": {returnType: fixed(types.Int)},
	"now":    {returnType: fixed(types.Timestamp)},
	"abs":    {returnType: firstArg},
}

type parser struct {
	src    string
	pos    int
	schema *props.Schema
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Newf(format, args...), "at or near position %d of %q", p.pos, p.src)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

// consume skips over tok if it is next in the input.
func (p *parser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) scanWhile(pred func(r rune) bool) string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && pred(rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *parser) parseType() (*types.T, error) {
	name := p.scanWhile(isIdentRune)
	if p.consume("[]") {
		name += "[]"
	}
	typ, ok := types.FromName(name)
	if !ok {
		return nil, p.errorf("unknown type %q", name)
	}
	return typ, nil
}

func (p *parser) parseExpr() (scalar.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.consume("::") {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		e = scalar.NewCast(e, typ)
	}
	return e, nil
}

func (p *parser) parsePrimary() (scalar.Expr, error) {
	p.skipSpace()
	if p.pos == len(p.src) {
		return nil, p.errorf("unexpected end of expression")
	}

	switch c := p.src[p.pos]; {
	case c == '(':
		p.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.consume(")") {
			return nil, p.errorf("expected )")
		}
		return e, nil

	case c == '@':
		p.pos++
		digits := p.scanWhile(unicode.IsDigit)
		ord, err := strconv.Atoi(digits)
		if err != nil {
			return nil, p.errorf("invalid column ordinal %q", digits)
		}
		return p.inputRef(ord)

	case c == '\'':
		end := strings.IndexByte(p.src[p.pos+1:], '\'')
		if end < 0 {
			return nil, p.errorf("unterminated string")
		}
		text := p.src[p.pos : p.pos+end+2]
		p.pos += end + 2
		return scalar.NewConst(text, types.String), nil

	case c == '-' || unicode.IsDigit(rune(c)):
		start := p.pos
		p.pos++
		p.scanWhile(func(r rune) bool { return unicode.IsDigit(r) || r == '.' })
		text := p.src[start:p.pos]
		if strings.Contains(text, ".") {
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				return nil, p.errorf("invalid number %q", text)
			}
			return scalar.NewConst(text, types.Float), nil
		}
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			return nil, p.errorf("invalid number %q", text)
		}
		return scalar.NewConst(text, types.Int), nil
	}

	name := p.scanWhile(isIdentRune)
	if name == "" {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	switch strings.ToLower(name) {
	case "true", "false":
		return scalar.NewConst(strings.ToLower(name), types.Bool), nil
	case "null":
		return scalar.NewConst("NULL", types.Unknown), nil
	}
	if p.consume("(") {
		return p.parseCall(name)
	}
	if p.schema != nil {
		for i := range p.schema.Fields {
			if p.schema.Fields[i].Name == name {
				return p.inputRef(i)
			}
		}
	}
	return nil, p.errorf("column %q does not exist", name)
}

func (p *parser) inputRef(ord int) (scalar.Expr, error) {
	if p.schema == nil || ord >= p.schema.Len() {
		return nil, p.errorf("column @%d does not exist", ord)
	}
	return scalar.NewInputRef(ord, p.schema.Fields[ord].Type), nil
}

// parseCall parses the arguments and optional return type of a call whose
// opening parenthesis has been consumed.
func (p *parser) parseCall(name string) (scalar.Expr, error) {
	var args []scalar.Expr
	if !p.consume(")") {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.consume(")") {
				break
			}
			if !p.consume(",") {
				return nil, p.errorf("expected , or )")
			}
		}
	}

	def, known := knownFuncs[strings.ToLower(name)]
	var typ *types.T
	if p.skipSpace(); p.pos < len(p.src) && p.src[p.pos] == ':' && !strings.HasPrefix(p.src[p.pos:], "::") {
		p.pos++
		var err error
		if typ, err = p.parseType(); err != nil {
			return nil, err
		}
	} else if known {
		argTypes := make([]*types.T, len(args))
		for i := range args {
			argTypes[i] = args[i].ReturnType()
		}
		if typ = def.returnType(argTypes); typ == nil {
			return nil, p.errorf("invalid arguments for %s", name)
		}
	} else {
		return nil, p.errorf("unknown function %s requires a return type", name)
	}

	if def.generator {
		return scalar.NewGenerator(name, typ, args...), nil
	}
	return scalar.NewFunc(name, typ, args...), nil
}
