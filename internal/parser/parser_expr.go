package parser

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
)

// parseExpr parses the token range [from, to) as a single expression,
// walking spec.md §4.3's precedence ladder from lowest to highest.
func (p *Parser) parseExpr(from, to int) (ast.Expr, error) {
	if from >= to {
		return nil, p.parseError(errors.PAR001, from, "expected an expression")
	}
	return p.parseLambda(from, to)
}

func (p *Parser) parseLambda(from, to int) (ast.Expr, error) {
	if p.tok(from).Type != lexer.LAMBDA {
		return p.parseTernary(from, to)
	}
	colon := p.FindBracketed(lexer.COLON, from+1, to, false)
	if colon < 0 {
		return nil, p.parseError(errors.PAR001, from, "lambda missing ':'")
	}
	params, varargs, varkwargs, err := p.parseParamList(from+1, colon)
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr(colon+1, to)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Meta: ast.Meta{Off: p.tok(from).Offset}, Params: params, VarargsName: varargs, VarkwargsName: varkwargs, Body: body}, nil
}

func (p *Parser) parseTernary(from, to int) (ast.Expr, error) {
	ifIdx := p.FindBracketed(lexer.IF, from, to, true)
	if ifIdx < 0 {
		return p.parseOr(from, to)
	}
	elseIdx := p.FindBracketed(lexer.ELSE, ifIdx+1, to, false)
	if elseIdx < 0 {
		return nil, p.parseError(errors.PAR001, ifIdx, "conditional expression missing 'else'")
	}
	body, err := p.parseOr(from, ifIdx)
	if err != nil {
		return nil, err
	}
	test, err := p.parseOr(ifIdx+1, elseIdx)
	if err != nil {
		return nil, err
	}
	other, err := p.parseExpr(elseIdx+1, to)
	if err != nil {
		return nil, err
	}
	return &ast.Conditional{Meta: ast.Meta{Off: body.Offset()}, Test: test, Body: body, Else: other}, nil
}

func (p *Parser) binaryLevel(types []lexer.Type, next func(int, int) (ast.Expr, error), valid func(int) bool) func(int, int) (ast.Expr, error) {
	var self func(int, int) (ast.Expr, error)
	self = func(from, to int) (ast.Expr, error) {
		idx, op := p.findBracketedAny(types, from, to, true, valid)
		if idx < 0 {
			return next(from, to)
		}
		left, err := self(from, idx)
		if err != nil {
			return nil, err
		}
		right, err := next(idx+1, to)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Meta: ast.Meta{Off: left.Offset()}, Op: op, Left: left, Right: right}, nil
	}
	return self
}

func (p *Parser) parseOr(from, to int) (ast.Expr, error) {
	return p.binaryLevel([]lexer.Type{lexer.OR}, p.parseAnd, nil)(from, to)
}

func (p *Parser) parseAnd(from, to int) (ast.Expr, error) {
	return p.binaryLevel([]lexer.Type{lexer.AND}, p.parseNot, nil)(from, to)
}

func (p *Parser) parseNot(from, to int) (ast.Expr, error) {
	if from < to && p.tok(from).Type == lexer.NOT {
		operand, err := p.parseNot(from+1, to)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Meta: ast.Meta{Off: p.tok(from).Offset}, Op: lexer.NOT, Operand: operand}, nil
	}
	return p.parseComparison(from, to)
}

var comparisonOps = []lexer.Type{
	lexer.LT, lexer.GT, lexer.LE, lexer.GE, lexer.EQEQ, lexer.NEQ,
	lexer.IN, lexer.NOTIN, lexer.IS, lexer.ISNOT,
}

func (p *Parser) parseComparison(from, to int) (ast.Expr, error) {
	idx, op := p.findBracketedAny(comparisonOps, from, to, true, nil)
	if idx < 0 {
		return p.parseBitOr(from, to)
	}
	left, err := p.parseComparison(from, idx)
	if err != nil {
		return nil, err
	}
	right, err := p.parseBitOr(idx+1, to)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Meta: ast.Meta{Off: left.Offset()}, Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseBitOr(from, to int) (ast.Expr, error) {
	return p.binaryLevel([]lexer.Type{lexer.PIPE}, p.parseBitXor, nil)(from, to)
}

func (p *Parser) parseBitXor(from, to int) (ast.Expr, error) {
	return p.binaryLevel([]lexer.Type{lexer.CARET}, p.parseBitAnd, nil)(from, to)
}

func (p *Parser) parseBitAnd(from, to int) (ast.Expr, error) {
	return p.binaryLevel([]lexer.Type{lexer.AMP}, p.parseShift, nil)(from, to)
}

func (p *Parser) parseShift(from, to int) (ast.Expr, error) {
	return p.binaryLevel([]lexer.Type{lexer.LSHIFT, lexer.RSHIFT}, p.parseAddSub, nil)(from, to)
}

// addSubValid rejects a +/- candidate sitting in unary position: at
// the very start of the range, or immediately after another operator
// or opening delimiter (spec.md §4.3).
func (p *Parser) addSubValid(i, from int) bool {
	if i == from {
		return false
	}
	return endsExpr(p.tok(i - 1).Type)
}

func (p *Parser) parseAddSub(from, to int) (ast.Expr, error) {
	idx, op := p.findBracketedAny([]lexer.Type{lexer.PLUS, lexer.MINUS}, from, to, true, func(i int) bool { return p.addSubValid(i, from) })
	if idx < 0 {
		return p.parseMul(from, to)
	}
	left, err := p.parseAddSub(from, idx)
	if err != nil {
		return nil, err
	}
	right, err := p.parseMul(idx+1, to)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Meta: ast.Meta{Off: left.Offset()}, Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseMul(from, to int) (ast.Expr, error) {
	return p.binaryLevel([]lexer.Type{lexer.STAR, lexer.SLASH, lexer.DSLASH, lexer.PERCENT}, p.parseUnary, nil)(from, to)
}

func (p *Parser) parseUnary(from, to int) (ast.Expr, error) {
	if from < to {
		switch p.tok(from).Type {
		case lexer.PLUS, lexer.MINUS, lexer.TILDE:
			op := p.tok(from).Type
			operand, err := p.parseUnary(from+1, to)
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Meta: ast.Meta{Off: p.tok(from).Offset}, Op: op, Operand: operand}, nil
		}
	}
	return p.parsePower(from, to)
}

func (p *Parser) parsePower(from, to int) (ast.Expr, error) {
	idx := p.FindBracketed(lexer.DSTAR, from, to, false)
	if idx < 0 {
		return p.parsePostfix(from, to)
	}
	left, err := p.parsePostfix(from, idx)
	if err != nil {
		return nil, err
	}
	right, err := p.parseUnary(idx+1, to)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Meta: ast.Meta{Off: left.Offset()}, Op: lexer.DSTAR, Left: left, Right: right}, nil
}

// parsePostfix chooses the rightmost top-level postfix operator
// (subscript/slice/call/attribute) and recurses into its base
// (spec.md §4.3).
func (p *Parser) parsePostfix(from, to int) (ast.Expr, error) {
	if to <= from {
		return nil, p.parseError(errors.PAR001, from, "expected an expression")
	}
	last := to - 1
	switch p.tok(last).Type {
	case lexer.IDENT:
		if last-1 >= from && p.tok(last-1).Type == lexer.DOT {
			base, err := p.parsePostfix(from, last-1)
			if err != nil {
				return nil, err
			}
			return &ast.Attribute{Meta: ast.Meta{Off: base.Offset()}, Base: base, Name: p.tok(last).Literal}, nil
		}
	case lexer.RPAREN:
		open := p.matchOpenBackward(last, from)
		if open > from {
			base, err := p.parsePostfix(from, open)
			if err != nil {
				return nil, err
			}
			args, err := p.parseArgs(open+1, last)
			if err != nil {
				return nil, err
			}
			return &ast.Call{Meta: ast.Meta{Off: base.Offset()}, Func: base, Args: args}, nil
		}
	case lexer.RBRACKET:
		open := p.matchOpenBackward(last, from)
		if open > from {
			base, err := p.parsePostfix(from, open)
			if err != nil {
				return nil, err
			}
			return p.parseSubscriptOrSlice(base, open+1, last)
		}
	}
	return p.parseAtom(from, to)
}
