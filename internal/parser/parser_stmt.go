package parser

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
)

// augAssignOps lists every augmented-assignment operator spec.md §4.3
// recognizes.
var augAssignOps = []lexer.Type{
	lexer.PLUSEQ, lexer.MINUSEQ, lexer.STAREQ, lexer.SLASHEQ,
	lexer.DSLASHEQ, lexer.PERCENTEQ, lexer.DSTAREQ,
	lexer.AMPEQ, lexer.PIPEEQ, lexer.CARETEQ, lexer.LSHIFTEQ, lexer.RSHIFTEQ,
}

// parseBlock parses a flat sequence of statements over [from, to),
// stopping early at EOF regardless of to (used both for the module-level
// top parse and for the body of an indented suite).
func (p *Parser) parseBlock(from, to int) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	i := from
	for i < to && p.tok(i).Type != lexer.EOF {
		if p.tok(i).Type == lexer.NEWLINE {
			i++
			continue
		}
		stmt, next, err := p.parseStatement(i, to)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		i = next
	}
	return stmts, nil
}

// parseStatement parses one statement (collecting any leading decorator
// stack first) starting at i, bounded by blockEnd, and returns the index
// just past it.
func (p *Parser) parseStatement(i, blockEnd int) (ast.Stmt, int, error) {
	var decorators []ast.Expr
	for p.tok(i).Type == lexer.AT {
		nl := p.FindBracketed(lexer.NEWLINE, i+1, blockEnd, false)
		if nl < 0 {
			nl = blockEnd
		}
		dec, err := p.parseExpr(i+1, nl)
		if err != nil {
			return nil, 0, err
		}
		decorators = append(decorators, dec)
		i = nl + 1
		for p.tok(i).Type == lexer.NEWLINE {
			i++
		}
	}

	stmt, next, err := p.parseCompoundOrSimple(i, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	if len(decorators) > 0 {
		switch s := stmt.(type) {
		case *ast.FuncDef:
			s.Decorators = decorators
		case *ast.ClassDef:
			s.Decorators = decorators
		default:
			return nil, 0, p.parseError(errors.PAR001, i, "decorators may only precede a def or class statement")
		}
	}
	return stmt, next, nil
}

func (p *Parser) parseCompoundOrSimple(i, blockEnd int) (ast.Stmt, int, error) {
	switch p.tok(i).Type {
	case lexer.IF:
		return p.parseIf(i, blockEnd)
	case lexer.WHILE:
		return p.parseWhile(i, blockEnd)
	case lexer.FOR:
		return p.parseFor(i, blockEnd)
	case lexer.TRY:
		return p.parseTry(i, blockEnd)
	case lexer.WITH:
		return p.parseWith(i, blockEnd)
	case lexer.DEF:
		return p.parseFuncDef(i, blockEnd)
	case lexer.CLASS:
		return p.parseClassDef(i, blockEnd)
	}
	end := p.FindBracketed(lexer.NEWLINE, i, blockEnd, false)
	if end < 0 {
		end = blockEnd
	}
	stmt, err := p.parseSimpleStatement(i, end)
	if err != nil {
		return nil, 0, err
	}
	return stmt, end + 1, nil
}

// parseSuite parses the body belonging to a `...:` header whose colon is
// at colonIdx, returning the body and the index just past it. A colon
// directly followed by NEWLINE expects an INDENT/UNINDENT block; any
// other following token starts an inline suite on the same line.
func (p *Parser) parseSuite(colonIdx, blockEnd int) ([]ast.Stmt, int, error) {
	after := colonIdx + 1
	if p.tok(after).Type != lexer.NEWLINE {
		return p.parseInlineSuite(after, blockEnd)
	}
	if p.tok(after+1).Type != lexer.INDENT {
		return nil, 0, p.parseError(errors.PAR001, after, "expected an indented block")
	}
	indentIdx := after + 1
	bodyStart := indentIdx + 1
	unindentIdx := p.matchIndentForward(indentIdx)
	stmts, err := p.parseBlock(bodyStart, unindentIdx)
	if err != nil {
		return nil, 0, err
	}
	return stmts, unindentIdx + 1, nil
}

// parseInlineSuite parses the simple statement(s) of a `header: stmt[;
// stmt]*` one-liner. Statements are separated by NEWLINE tokens that
// originated from a `;` (Literal == ";", see postprocess.go); the suite
// ends at the first NEWLINE that terminated an actual physical line.
func (p *Parser) parseInlineSuite(from, blockEnd int) ([]ast.Stmt, int, error) {
	var stmts []ast.Stmt
	i := from
	for {
		nl := p.FindBracketed(lexer.NEWLINE, i, blockEnd, false)
		if nl < 0 {
			nl = blockEnd
		}
		stmt, err := p.parseSimpleStatement(i, nl)
		if err != nil {
			return nil, 0, err
		}
		stmts = append(stmts, stmt)
		if nl >= blockEnd || p.tok(nl).Literal != ";" {
			return stmts, nl + 1, nil
		}
		i = nl + 1
	}
}

func (p *Parser) parseIf(i, blockEnd int) (ast.Stmt, int, error) {
	off := p.tok(i).Offset
	i++
	colon := p.FindBracketed(lexer.COLON, i, blockEnd, false)
	test, err := p.parseExpr(i, colon)
	if err != nil {
		return nil, 0, err
	}
	body, next, err := p.parseSuite(colon, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	node := &ast.If{Test: test, Body: body}
	node.Off = off
	i = next
	for p.tok(i).Type == lexer.ELIF {
		i++
		c := p.FindBracketed(lexer.COLON, i, blockEnd, false)
		t, err := p.parseExpr(i, c)
		if err != nil {
			return nil, 0, err
		}
		b, n, err := p.parseSuite(c, blockEnd)
		if err != nil {
			return nil, 0, err
		}
		node.Elifs = append(node.Elifs, ast.ElifClause{Test: t, Body: b})
		i = n
	}
	if p.tok(i).Type == lexer.ELSE {
		i++
		c := i
		b, n, err := p.parseSuite(c, blockEnd)
		if err != nil {
			return nil, 0, err
		}
		node.Else = b
		i = n
	}
	return node, i, nil
}

func (p *Parser) parseWhile(i, blockEnd int) (ast.Stmt, int, error) {
	off := p.tok(i).Offset
	i++
	colon := p.FindBracketed(lexer.COLON, i, blockEnd, false)
	test, err := p.parseExpr(i, colon)
	if err != nil {
		return nil, 0, err
	}
	body, next, err := p.parseSuite(colon, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	node := &ast.While{Test: test, Body: body}
	node.Off = off
	i = next
	if p.tok(i).Type == lexer.ELSE {
		i++
		c := i
		b, n, err := p.parseSuite(c, blockEnd)
		if err != nil {
			return nil, 0, err
		}
		node.Else = b
		i = n
	}
	return node, i, nil
}

func (p *Parser) parseFor(i, blockEnd int) (ast.Stmt, int, error) {
	off := p.tok(i).Offset
	i++
	inIdx := p.FindBracketed(lexer.IN, i, blockEnd, false)
	target, err := p.parseLValue(i, inIdx)
	if err != nil {
		return nil, 0, err
	}
	colon := p.FindBracketed(lexer.COLON, inIdx+1, blockEnd, false)
	iter, err := p.parseExpr(inIdx+1, colon)
	if err != nil {
		return nil, 0, err
	}
	body, next, err := p.parseSuite(colon, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	node := &ast.For{Target: target, Iter: iter, Body: body}
	node.Off = off
	i = next
	if p.tok(i).Type == lexer.ELSE {
		i++
		c := i
		b, n, err := p.parseSuite(c, blockEnd)
		if err != nil {
			return nil, 0, err
		}
		node.Else = b
		i = n
	}
	return node, i, nil
}

func (p *Parser) parseTry(i, blockEnd int) (ast.Stmt, int, error) {
	off := p.tok(i).Offset
	i++
	colon := p.FindBracketed(lexer.COLON, i, blockEnd, false)
	body, next, err := p.parseSuite(colon, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	node := &ast.Try{Body: body}
	node.Off = off
	i = next
	for p.tok(i).Type == lexer.EXCEPT {
		i++
		c := p.FindBracketed(lexer.COLON, i, blockEnd, false)
		var excType ast.Expr
		var asName string
		if c > i {
			asIdx := p.FindBracketed(lexer.AS, i, c, false)
			if asIdx >= 0 {
				t, err := p.parseExpr(i, asIdx)
				if err != nil {
					return nil, 0, err
				}
				if p.tok(asIdx+1).Type != lexer.IDENT {
					return nil, 0, p.parseError(errors.PAR007, asIdx, "except clause 'as' must bind a name")
				}
				excType = t
				asName = p.tok(asIdx + 1).Literal
			} else {
				t, err := p.parseExpr(i, c)
				if err != nil {
					return nil, 0, err
				}
				excType = t
			}
		}
		b, n, err := p.parseSuite(c, blockEnd)
		if err != nil {
			return nil, 0, err
		}
		node.Handlers = append(node.Handlers, ast.ExceptClause{Type: excType, Name: asName, Body: b})
		i = n
	}
	if p.tok(i).Type == lexer.ELSE {
		i++
		c := i
		b, n, err := p.parseSuite(c, blockEnd)
		if err != nil {
			return nil, 0, err
		}
		node.Else = b
		i = n
	}
	if p.tok(i).Type == lexer.FINALLY {
		i++
		c := i
		b, n, err := p.parseSuite(c, blockEnd)
		if err != nil {
			return nil, 0, err
		}
		node.Finally = b
		i = n
	}
	if len(node.Handlers) == 0 && node.Finally == nil {
		return nil, 0, p.parseError(errors.PAR007, off, "try block requires at least one except or a finally clause")
	}
	return node, i, nil
}

func (p *Parser) parseWith(i, blockEnd int) (ast.Stmt, int, error) {
	off := p.tok(i).Offset
	i++
	colon := p.FindBracketed(lexer.COLON, i, blockEnd, false)
	var items []ast.WithItem
	for _, part := range p.commaSplit(i, colon) {
		asIdx := p.FindBracketed(lexer.AS, part[0], part[1], false)
		if asIdx >= 0 {
			ctx, err := p.parseExpr(part[0], asIdx)
			if err != nil {
				return nil, 0, err
			}
			v, err := p.parseLValue(asIdx+1, part[1])
			if err != nil {
				return nil, 0, err
			}
			items = append(items, ast.WithItem{Context: ctx, Vars: v})
			continue
		}
		ctx, err := p.parseExpr(part[0], part[1])
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ast.WithItem{Context: ctx})
	}
	body, next, err := p.parseSuite(colon, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	node := &ast.With{Items: items, Body: body}
	node.Off = off
	return node, next, nil
}

func (p *Parser) parseFuncDef(i, blockEnd int) (ast.Stmt, int, error) {
	off := p.tok(i).Offset
	i++
	if p.tok(i).Type != lexer.IDENT {
		return nil, 0, p.parseError(errors.PAR001, i, "expected a function name")
	}
	name := p.tok(i).Literal
	i++
	if p.tok(i).Type != lexer.LPAREN {
		return nil, 0, p.parseError(errors.PAR001, i, "expected '(' after function name")
	}
	closeIdx := p.matchCloseForward(i)
	params, varargs, varkwargs, err := p.parseParamList(i+1, closeIdx)
	if err != nil {
		return nil, 0, err
	}
	colon := p.FindBracketed(lexer.COLON, closeIdx+1, blockEnd, false)
	body, next, err := p.parseSuite(colon, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	node := &ast.FuncDef{Name: name, Params: params, VarargsName: varargs, VarkwargsName: varkwargs, Body: body}
	node.Off = off
	return node, next, nil
}

func (p *Parser) parseClassDef(i, blockEnd int) (ast.Stmt, int, error) {
	off := p.tok(i).Offset
	i++
	if p.tok(i).Type != lexer.IDENT {
		return nil, 0, p.parseError(errors.PAR001, i, "expected a class name")
	}
	name := p.tok(i).Literal
	i++
	var bases []ast.Expr
	if p.tok(i).Type == lexer.LPAREN {
		closeIdx := p.matchCloseForward(i)
		var err error
		bases, err = p.parseExprList(p.commaSplit(i+1, closeIdx))
		if err != nil {
			return nil, 0, err
		}
		if len(bases) > 1 {
			return nil, 0, p.parseError(errors.PAR006, i, "multiple inheritance is not implemented")
		}
		i = closeIdx + 1
	}
	colon := p.FindBracketed(lexer.COLON, i, blockEnd, false)
	body, next, err := p.parseSuite(colon, blockEnd)
	if err != nil {
		return nil, 0, err
	}
	node := &ast.ClassDef{Name: name, Bases: bases, Body: body}
	node.Off = off
	return node, next, nil
}

// dottedName joins a chain of IDENT/DOT tokens, as used by import paths.
func (p *Parser) dottedName(from, to int) string {
	s := ""
	for i := from; i < to; i++ {
		if p.tok(i).Type == lexer.IDENT {
			s += p.tok(i).Literal
		} else if p.tok(i).Type == lexer.DOT {
			s += "."
		}
	}
	return s
}

// parseSimpleStatement parses one non-compound statement over the
// closed range [from, to), excluding its terminating NEWLINE.
func (p *Parser) parseSimpleStatement(from, to int) (ast.Stmt, error) {
	if from >= to {
		return nil, p.parseError(errors.PAR001, from, "expected a statement")
	}
	off := p.tok(from).Offset

	switch p.tok(from).Type {
	case lexer.PASS:
		n := &ast.Pass{}
		n.Off = off
		return n, nil
	case lexer.BREAK:
		n := &ast.Break{}
		n.Off = off
		return n, nil
	case lexer.CONTINUE:
		n := &ast.Continue{}
		n.Off = off
		return n, nil
	case lexer.DEL:
		targets, err := p.parseTargetList(from+1, to)
		if err != nil {
			return nil, err
		}
		n := &ast.Del{Targets: targets}
		n.Off = off
		return n, nil
	case lexer.RETURN:
		n := &ast.Return{}
		n.Off = off
		if from+1 < to {
			v, err := p.parseExpr(from+1, to)
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		return n, nil
	case lexer.RAISE:
		n := &ast.Raise{}
		n.Off = off
		parts := p.commaSplit(from+1, to)
		exprs := make([]ast.Expr, 0, len(parts))
		for _, part := range parts {
			e, err := p.parseExpr(part[0], part[1])
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		if len(exprs) > 0 {
			n.Type = exprs[0]
		}
		if len(exprs) > 1 {
			n.Value = exprs[1]
		}
		if len(exprs) > 2 {
			n.Traceback = exprs[2]
		}
		return n, nil
	case lexer.GLOBAL:
		n := &ast.Global{}
		n.Off = off
		for _, part := range p.commaSplit(from+1, to) {
			if p.tok(part[0]).Type != lexer.IDENT {
				return nil, p.parseError(errors.PAR001, part[0], "expected a name in global statement")
			}
			n.Names = append(n.Names, p.tok(part[0]).Literal)
		}
		return n, nil
	case lexer.EXEC:
		n := &ast.Exec{}
		n.Off = off
		inIdx := p.FindBracketed(lexer.IN, from+1, to, false)
		if inIdx < 0 {
			code, err := p.parseExpr(from+1, to)
			if err != nil {
				return nil, err
			}
			n.Code = code
			return n, nil
		}
		code, err := p.parseExpr(from+1, inIdx)
		if err != nil {
			return nil, err
		}
		n.Code = code
		rest := p.commaSplit(inIdx+1, to)
		if len(rest) > 0 {
			g, err := p.parseExpr(rest[0][0], rest[0][1])
			if err != nil {
				return nil, err
			}
			n.Globals = g
		}
		if len(rest) > 1 {
			l, err := p.parseExpr(rest[1][0], rest[1][1])
			if err != nil {
				return nil, err
			}
			n.Locals = l
		}
		return n, nil
	case lexer.ASSERT:
		n := &ast.Assert{}
		n.Off = off
		comma := p.FindBracketed(lexer.COMMA, from+1, to, false)
		if comma < 0 {
			test, err := p.parseExpr(from+1, to)
			if err != nil {
				return nil, err
			}
			n.Test = test
			return n, nil
		}
		test, err := p.parseExpr(from+1, comma)
		if err != nil {
			return nil, err
		}
		msg, err := p.parseExpr(comma+1, to)
		if err != nil {
			return nil, err
		}
		n.Test = test
		n.Msg = msg
		return n, nil
	case lexer.IMPORT:
		return p.parseImport(from, to, off)
	case lexer.FROM:
		return p.parseImportFrom(from, to, off)
	}

	return p.parseAssignOrExpr(from, to, off)
}

func (p *Parser) parseImport(from, to, off int) (ast.Stmt, error) {
	n := &ast.Import{}
	n.Off = off
	for _, part := range p.commaSplit(from+1, to) {
		asIdx := p.FindBracketed(lexer.AS, part[0], part[1], false)
		path := part[1]
		if asIdx >= 0 {
			path = asIdx
		}
		alias := ast.AliasedName{Path: p.dottedName(part[0], path)}
		if asIdx >= 0 {
			alias.Asname = p.tok(asIdx + 1).Literal
		}
		n.Names = append(n.Names, alias)
	}
	return n, nil
}

func (p *Parser) parseImportFrom(from, to, off int) (ast.Stmt, error) {
	importIdx := p.FindBracketed(lexer.IMPORT, from+1, to, false)
	if importIdx < 0 {
		return nil, p.parseError(errors.PAR001, from, "from-import missing 'import'")
	}
	n := &ast.ImportFrom{Module: p.dottedName(from+1, importIdx)}
	n.Off = off

	lo, hi := importIdx+1, to
	if p.tok(lo).Type == lexer.STAR {
		n.Star = true
		return n, nil
	}
	if p.tok(lo).Type == lexer.LPAREN && p.matchOpenBackward(hi-1, lo) == lo && p.tok(hi-1).Type == lexer.RPAREN {
		lo, hi = lo+1, hi-1
	}
	for _, part := range p.commaSplit(lo, hi) {
		if part[0] >= part[1] {
			continue
		}
		if p.tok(part[0]).Type != lexer.IDENT {
			return nil, p.parseError(errors.PAR001, part[0], "expected a name in from-import list")
		}
		alias := ast.AliasedName{Path: p.tok(part[0]).Literal}
		asIdx := p.FindBracketed(lexer.AS, part[0], part[1], false)
		if asIdx >= 0 {
			alias.Asname = p.tok(asIdx + 1).Literal
		}
		n.Names = append(n.Names, alias)
	}
	return n, nil
}

// parseAssignOrExpr distinguishes assignment, augmented assignment, and
// a bare expression statement by scanning for top-level `=` or an
// augmented-assignment operator before falling back to an expression.
func (p *Parser) parseAssignOrExpr(from, to, off int) (ast.Stmt, error) {
	if eqs := p.allBracketed(lexer.ASSIGN, from, to); len(eqs) > 0 {
		var targets []ast.Expr
		segStart := from
		for _, eq := range eqs {
			t, err := p.parseLValue(segStart, eq)
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
			segStart = eq + 1
		}
		value, err := p.parseExpr(segStart, to)
		if err != nil {
			return nil, err
		}
		n := &ast.Assign{Targets: targets, Value: value}
		n.Off = off
		return n, nil
	}

	if idx, op := p.findBracketedAny(augAssignOps, from, to, false, nil); idx >= 0 {
		target, err := p.parseLValue(from, idx)
		if err != nil {
			return nil, err
		}
		value, err := p.parseExpr(idx+1, to)
		if err != nil {
			return nil, err
		}
		n := &ast.AugAssign{Target: target, Op: op, Value: value}
		n.Off = off
		return n, nil
	}

	e, err := p.parseExpr(from, to)
	if err != nil {
		return nil, err
	}
	n := &ast.ExprStmt{Value: e}
	n.Off = off
	return n, nil
}
