package parser

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
)

// allBracketed returns every top-level (depth-0) index within
// [from, to) whose token type is tt, in ascending order.
func (p *Parser) allBracketed(tt lexer.Type, from, to int) []int {
	depth := 0
	var out []int
	for i := from; i < to; i++ {
		ty := p.tok(i).Type
		if bracketOpen[ty] {
			depth++
			continue
		}
		if bracketClose[ty] {
			depth--
			continue
		}
		if depth == 0 && ty == tt {
			out = append(out, i)
		}
	}
	return out
}

// commaSplit splits [from, to) at top-level commas into a list of
// sub-ranges, dropping one trailing empty range produced by a trailing
// comma. An empty input range yields no sub-ranges.
func (p *Parser) commaSplit(from, to int) [][2]int {
	if from >= to {
		return nil
	}
	commas := p.allBracketed(lexer.COMMA, from, to)
	var out [][2]int
	start := from
	for _, c := range commas {
		out = append(out, [2]int{start, c})
		start = c + 1
	}
	if start < to {
		out = append(out, [2]int{start, to})
	}
	return out
}

func (p *Parser) parseAtom(from, to int) (ast.Expr, error) {
	if from >= to {
		return nil, p.parseError(errors.PAR001, from, "expected an expression")
	}
	off := p.tok(from).Offset

	if from == to-1 {
		t := p.tok(from)
		switch t.Type {
		case lexer.IDENT:
			return &ast.Identifier{Meta: ast.Meta{Off: off}, Name: t.Literal}, nil
		case lexer.INT:
			return &ast.Literal{Meta: ast.Meta{Off: off}, Kind: ast.IntLit, Int: t.IntVal}, nil
		case lexer.FLOAT:
			return &ast.Literal{Meta: ast.Meta{Off: off}, Kind: ast.FloatLit, Float: t.FloatVal}, nil
		case lexer.BYTES:
			return &ast.Literal{Meta: ast.Meta{Off: off}, Kind: ast.BytesLit, Str: t.Literal}, nil
		case lexer.UNICODE:
			return &ast.Literal{Meta: ast.Meta{Off: off}, Kind: ast.UnicodeLit, Str: t.Literal}, nil
		case lexer.TRUE:
			return &ast.Literal{Meta: ast.Meta{Off: off}, Kind: ast.BoolLit, Bool: true}, nil
		case lexer.FALSE:
			return &ast.Literal{Meta: ast.Meta{Off: off}, Kind: ast.BoolLit, Bool: false}, nil
		case lexer.NONE:
			return &ast.Literal{Meta: ast.Meta{Off: off}, Kind: ast.NoneLit}, nil
		case lexer.YIELD:
			return &ast.Yield{Meta: ast.Meta{Off: off}}, nil
		}
		return nil, p.parseError(errors.PAR001, from, "unexpected token %s", t.Type)
	}

	switch p.tok(from).Type {
	case lexer.YIELD:
		from2 := from + 1
		fromVal := false
		if p.tok(from2).Type == lexer.FROM {
			fromVal = true
			from2++
		}
		val, err := p.parseExpr(from2, to)
		if err != nil {
			return nil, err
		}
		return &ast.Yield{Meta: ast.Meta{Off: off}, From: fromVal, Value: val}, nil
	case lexer.LPAREN:
		if p.matchOpenBackward(to-1, from) == from && p.tok(to-1).Type == lexer.RPAREN {
			return p.parseParenBody(from+1, to-1, off)
		}
	case lexer.LBRACKET:
		if p.matchOpenBackward(to-1, from) == from && p.tok(to-1).Type == lexer.RBRACKET {
			return p.parseListBody(from+1, to-1, off)
		}
	case lexer.LBRACE:
		if p.matchOpenBackward(to-1, from) == from && p.tok(to-1).Type == lexer.RBRACE {
			return p.parseBraceBody(from+1, to-1, off)
		}
	}
	return nil, p.parseError(errors.PAR001, from, "could not parse expression")
}

func (p *Parser) hasTopLevelFor(from, to int) bool {
	return len(p.allBracketed(lexer.FOR, from, to)) > 0
}

func (p *Parser) parseParenBody(from, to, off int) (ast.Expr, error) {
	if from >= to {
		return &ast.TupleExpr{Meta: ast.Meta{Off: off}}, nil
	}
	if p.hasTopLevelFor(from, to) {
		elem, clauses, err := p.parseComprehensionBody(from, to)
		if err != nil {
			return nil, err
		}
		return &ast.GeneratorExp{Meta: ast.Meta{Off: off}, Element: elem, Clauses: clauses}, nil
	}
	parts := p.commaSplit(from, to)
	if len(parts) == 1 && p.FindBracketed(lexer.COMMA, from, to, false) < 0 {
		return p.parseExpr(from, to)
	}
	elems, err := p.parseExprList(parts)
	if err != nil {
		return nil, err
	}
	return &ast.TupleExpr{Meta: ast.Meta{Off: off}, Elements: elems}, nil
}

func (p *Parser) parseListBody(from, to, off int) (ast.Expr, error) {
	if from >= to {
		return &ast.ListExpr{Meta: ast.Meta{Off: off}}, nil
	}
	if p.hasTopLevelFor(from, to) {
		elem, clauses, err := p.parseComprehensionBody(from, to)
		if err != nil {
			return nil, err
		}
		return &ast.ListComp{Meta: ast.Meta{Off: off}, Element: elem, Clauses: clauses}, nil
	}
	elems, err := p.parseExprList(p.commaSplit(from, to))
	if err != nil {
		return nil, err
	}
	return &ast.ListExpr{Meta: ast.Meta{Off: off}, Elements: elems}, nil
}

func (p *Parser) parseBraceBody(from, to, off int) (ast.Expr, error) {
	if from >= to {
		return &ast.DictExpr{Meta: ast.Meta{Off: off}}, nil
	}
	// Disambiguate set vs. dict: find the first top-level COLON before
	// any top-level COMMA/FOR.
	colon := p.FindBracketed(lexer.COLON, from, to, false)
	isDict := colon >= 0

	if p.hasTopLevelFor(from, to) {
		if isDict && colon < p.firstOf(lexer.FOR, from, to) {
			key, err := p.parseExpr(from, colon)
			if err != nil {
				return nil, err
			}
			forIdx := p.FindBracketed(lexer.FOR, colon+1, to, false)
			val, err := p.parseExpr(colon+1, forIdx)
			if err != nil {
				return nil, err
			}
			clauses, err := p.parseClauses(forIdx, to)
			if err != nil {
				return nil, err
			}
			return &ast.DictComp{Meta: ast.Meta{Off: off}, Key: key, Value: val, Clauses: clauses}, nil
		}
		elem, clauses, err := p.parseComprehensionBody(from, to)
		if err != nil {
			return nil, err
		}
		return &ast.SetComp{Meta: ast.Meta{Off: off}, Element: elem, Clauses: clauses}, nil
	}

	if isDict {
		var keys, vals []ast.Expr
		for _, part := range p.commaSplit(from, to) {
			c := p.FindBracketed(lexer.COLON, part[0], part[1], false)
			if c < 0 {
				return nil, p.parseError(errors.PAR001, part[0], "dict entry missing ':'")
			}
			k, err := p.parseExpr(part[0], c)
			if err != nil {
				return nil, err
			}
			v, err := p.parseExpr(c+1, part[1])
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		return &ast.DictExpr{Meta: ast.Meta{Off: off}, Keys: keys, Values: vals}, nil
	}

	elems, err := p.parseExprList(p.commaSplit(from, to))
	if err != nil {
		return nil, err
	}
	return &ast.SetExpr{Meta: ast.Meta{Off: off}, Elements: elems}, nil
}

func (p *Parser) firstOf(tt lexer.Type, from, to int) int {
	idx := p.FindBracketed(tt, from, to, false)
	if idx < 0 {
		return to
	}
	return idx
}

func (p *Parser) parseExprList(parts [][2]int) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(parts))
	for _, part := range parts {
		e, err := p.parseExpr(part[0], part[1])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// parseComprehensionBody parses `<element> <clauses>` where clauses
// begins at the first top-level `for`.
func (p *Parser) parseComprehensionBody(from, to int) (ast.Expr, []ast.CompClause, error) {
	forIdx := p.FindBracketed(lexer.FOR, from, to, false)
	elem, err := p.parseExpr(from, forIdx)
	if err != nil {
		return nil, nil, err
	}
	clauses, err := p.parseClauses(forIdx, to)
	return elem, clauses, err
}

// parseClauses parses one or more `for target in iter [if cond]*`
// clauses starting at the `for` token at forIdx, through to.
func (p *Parser) parseClauses(forIdx, to int) ([]ast.CompClause, error) {
	fors := p.allBracketed(lexer.FOR, forIdx, to)
	var clauses []ast.CompClause
	for i, f := range fors {
		end := to
		if i+1 < len(fors) {
			end = fors[i+1]
		}
		inIdx := p.FindBracketed(lexer.IN, f+1, end, false)
		if inIdx < 0 {
			return nil, p.parseError(errors.PAR001, f, "comprehension clause missing 'in'")
		}
		target, err := p.parseLValue(f+1, inIdx)
		if err != nil {
			return nil, err
		}
		ifs := p.allBracketed(lexer.IF, inIdx+1, end)
		iterEnd := end
		if len(ifs) > 0 {
			iterEnd = ifs[0]
		}
		iter, err := p.parseExpr(inIdx+1, iterEnd)
		if err != nil {
			return nil, err
		}
		var conds []ast.Expr
		for j, ifIdx := range ifs {
			condEnd := end
			if j+1 < len(ifs) {
				condEnd = ifs[j+1]
			}
			cond, err := p.parseExpr(ifIdx+1, condEnd)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
		}
		clauses = append(clauses, ast.CompClause{Target: target, Iter: iter, Ifs: conds})
	}
	return clauses, nil
}

// parseArgs parses a call-site argument list [from, to).
func (p *Parser) parseArgs(from, to int) ([]ast.Arg, error) {
	parts := p.commaSplit(from, to)
	var args []ast.Arg
	seenKeyword := false
	for _, part := range parts {
		lo, hi := part[0], part[1]
		if lo >= hi {
			continue
		}
		switch p.tok(lo).Type {
		case lexer.DSTAR:
			v, err := p.parseExpr(lo+1, hi)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Value: v, DoubleStar: true})
			continue
		case lexer.STAR:
			v, err := p.parseExpr(lo+1, hi)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Value: v, Star: true})
			continue
		}
		if p.tok(lo).Type == lexer.IDENT && p.tok(lo+1).Type == lexer.ASSIGN {
			v, err := p.parseExpr(lo+2, hi)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Name: p.tok(lo).Literal, Value: v})
			seenKeyword = true
			continue
		}
		if seenKeyword {
			return nil, p.parseError(errors.PAR004, lo, "positional argument follows keyword argument")
		}
		v, err := p.parseExpr(lo, hi)
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Arg{Value: v})
	}
	return args, nil
}

// parseSubscriptOrSlice parses `base[...]` content, dispatching to a
// slice node when a top-level colon is present.
func (p *Parser) parseSubscriptOrSlice(base ast.Expr, from, to int) (ast.Expr, error) {
	colons := p.allBracketed(lexer.COLON, from, to)
	if len(colons) == 0 {
		idx, err := p.parseExpr(from, to)
		if err != nil {
			return nil, err
		}
		return &ast.Subscript{Meta: ast.Meta{Off: base.Offset()}, Base: base, Index: idx}, nil
	}
	bounds := make([]ast.Expr, 0, 3)
	starts := append([]int{from - 1}, colons...)
	ends := append(append([]int{}, colons...), to)
	for i := range starts {
		lo, hi := starts[i]+1, ends[i]
		if lo >= hi {
			bounds = append(bounds, nil)
			continue
		}
		e, err := p.parseExpr(lo, hi)
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, e)
	}
	sl := &ast.Slice{Meta: ast.Meta{Off: base.Offset()}, Base: base}
	if len(bounds) > 0 {
		sl.Lower = bounds[0]
	}
	if len(bounds) > 1 {
		sl.Upper = bounds[1]
	}
	if len(bounds) > 2 {
		sl.Step = bounds[2]
	}
	return sl, nil
}

// parseParamList parses a def/lambda parameter list [from, to).
func (p *Parser) parseParamList(from, to int) ([]ast.Param, string, string, error) {
	var params []ast.Param
	var varargs, varkwargs string
	seenDefault := false
	for _, part := range p.commaSplit(from, to) {
		lo, hi := part[0], part[1]
		if lo >= hi {
			continue
		}
		switch p.tok(lo).Type {
		case lexer.DSTAR:
			varkwargs = p.tok(lo + 1).Literal
			continue
		case lexer.STAR:
			varargs = p.tok(lo + 1).Literal
			continue
		}
		name := p.tok(lo).Literal
		if p.tok(lo+1).Type == lexer.ASSIGN {
			def, err := p.parseExpr(lo+2, hi)
			if err != nil {
				return nil, "", "", err
			}
			params = append(params, ast.Param{Name: name, Default: def})
			seenDefault = true
			continue
		}
		if seenDefault {
			return nil, "", "", p.parseError(errors.PAR005, lo, "parameter %q has no default after a defaulted parameter", name)
		}
		params = append(params, ast.Param{Name: name})
	}
	return params, varargs, varkwargs, nil
}
