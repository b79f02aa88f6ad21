package parser

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
)

// reservedNames may never be reassigned (spec.md §4.3).
var reservedNames = map[string]bool{"True": true, "False": true, "None": true}

// parseLValue parses [from, to) as an assignment target: a bare name,
// an attribute access, a subscript, a slice, or a tuple of l-values.
// Anything else is InvalidAssignment.
func (p *Parser) parseLValue(from, to int) (ast.Expr, error) {
	if from >= to {
		return nil, p.parseError(errors.PAR002, from, "empty assignment target")
	}
	if from == to-1 {
		switch p.tok(from).Type {
		case lexer.TRUE, lexer.FALSE, lexer.NONE:
			return nil, p.parseError(errors.PAR003, from, "cannot reassign built-in name %q", p.tok(from).Literal)
		}
	}
	if from == to-1 && p.tok(from).Type == lexer.IDENT {
		name := p.tok(from).Literal
		if reservedNames[name] {
			return nil, p.parseError(errors.PAR003, from, "cannot reassign built-in name %q", name)
		}
		return &ast.Identifier{Meta: ast.Meta{Off: p.tok(from).Offset}, Name: name}, nil
	}

	// Parenthesized or bare tuple of l-values.
	lo, hi := from, to
	stripped := false
	if p.tok(from).Type == lexer.LPAREN && p.matchOpenBackward(to-1, from) == from && p.tok(to-1).Type == lexer.RPAREN {
		lo, hi = from+1, to-1
		stripped = true
	}
	if commas := p.allBracketed(lexer.COMMA, lo, hi); len(commas) > 0 || stripped {
		parts := p.commaSplit(lo, hi)
		targets := make([]ast.Expr, 0, len(parts))
		for _, part := range parts {
			t, err := p.parseLValue(part[0], part[1])
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
		return &ast.TupleExpr{Meta: ast.Meta{Off: p.tok(from).Offset}, Elements: targets}, nil
	}

	// Attribute or subscript/slice target: parse as a postfix
	// expression and verify the result shape.
	expr, err := p.parsePostfix(from, to)
	if err != nil {
		return nil, p.parseError(errors.PAR002, from, "invalid assignment target")
	}
	switch expr.(type) {
	case *ast.Attribute, *ast.Subscript, *ast.Slice:
		return expr, nil
	}
	return nil, p.parseError(errors.PAR002, from, "invalid assignment target")
}

// parseTargetList parses a comma-separated list of l-values, as used
// by `del`.
func (p *Parser) parseTargetList(from, to int) ([]ast.Expr, error) {
	var targets []ast.Expr
	for _, part := range p.commaSplit(from, to) {
		t, err := p.parseLValue(part[0], part[1])
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
