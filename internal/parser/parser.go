// Package parser implements the recursive-descent parser of spec.md
// §4.3: a cursor-based scan over a flat Token slice, with the
// find_bracketed primitive as the central tool for locating operator
// splits and list separators without building per-level operator
// tables.
//
// Grounded on the *file-splitting convention* of
// _examples/sunholo-data-ailang/internal/parser (parser.go core +
// parser_expr.go/parser_decl.go/parser_literals.go by grammar area);
// the grammar itself is new, built from spec.md §4.3 and cross-checked
// against original_source/Source/Compiler/PythonParser.cc for
// ambiguous precedence/associativity details (e.g. the exact `**`
// right-associativity carve-out for a following unary operator).
package parser

import (
	"fmt"

	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
)

// Parser holds the full token slice for one source file and a mutable
// cursor; most parsing functions instead take explicit [from, to)
// ranges so that find_bracketed-style splitting can recurse into
// sub-ranges without mutating shared state.
type Parser struct {
	toks []lexer.Token
	file string

	// pendingDecorators is not read or written by any parsing
	// function: parseStatement keeps the decorator stack in a local
	// variable, and elif/else/except/finally are bound by the compound
	// statement parsers reading past their own suites.
	pendingDecorators []ast.Expr
}

// New constructs a Parser over an already-lexed, post-processed token
// stream.
func New(toks []lexer.Token, file string) *Parser {
	return &Parser{toks: toks, file: file}
}

// Parse parses the entire token stream as a module body.
func Parse(toks []lexer.Token, file string) (*ast.Module, error) {
	p := New(toks, file)
	stmts, err := p.parseBlock(0, len(p.toks))
	if err != nil {
		return nil, err
	}
	return &ast.Module{Off: 0, Body: stmts}, nil
}

func (p *Parser) tok(i int) lexer.Token {
	if i < 0 || i >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[i]
}

func (p *Parser) parseError(code string, i int, format string, args ...any) error {
	t := p.tok(i)
	return errors.Wrap(errors.New(code, errors.PhaseParse, p.file, t.Offset, t.Line, t.Column, fmt.Sprintf(format, args...)))
}

// bracketOpen/bracketClose pair up the three bracket kinds for nesting
// tracking.
var bracketOpen = map[lexer.Type]bool{lexer.LPAREN: true, lexer.LBRACKET: true, lexer.LBRACE: true}
var bracketClose = map[lexer.Type]bool{lexer.RPAREN: true, lexer.RBRACKET: true, lexer.RBRACE: true}

// FindBracketed scans toks[from:to) and returns the first (last=false)
// or last (last=true) absolute index at which tt appears at top
// nesting level — every opener to its left within the range has
// already been matched by a closer. Returns -1 if not found.
func (p *Parser) FindBracketed(tt lexer.Type, from, to int, last bool) int {
	depth := 0
	found := -1
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
			found = i
			if !last {
				return found
			}
		}
	}
	return found
}

// findBracketedAny is FindBracketed generalized over a set of operator
// types sharing one precedence level, with an optional validity
// predicate (used to reject `+`/`-` appearing in unary position).
func (p *Parser) findBracketedAny(types []lexer.Type, from, to int, last bool, valid func(i int) bool) (int, lexer.Type) {
	depth := 0
	foundIdx := -1
	var foundType lexer.Type
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
		if depth != 0 {
			continue
		}
		matches := false
		for _, want := range types {
			if ty == want {
				matches = true
				break
			}
		}
		if !matches {
			continue
		}
		if valid != nil && !valid(i) {
			continue
		}
		foundIdx = i
		foundType = ty
		if !last {
			return foundIdx, foundType
		}
	}
	return foundIdx, foundType
}

// matchOpenBackward finds the opener matching the closer at closeIdx,
// scanning backward no further than from. Returns -1 if unmatched
// within range (should not happen for well-formed input, since the
// lexer already validates bracket matching).
func (p *Parser) matchOpenBackward(closeIdx, from int) int {
	closeTy := p.tok(closeIdx).Type
	var openTy lexer.Type
	switch closeTy {
	case lexer.RPAREN:
		openTy = lexer.LPAREN
	case lexer.RBRACKET:
		openTy = lexer.LBRACKET
	case lexer.RBRACE:
		openTy = lexer.LBRACE
	default:
		return -1
	}
	depth := 0
	for i := closeIdx; i >= from; i-- {
		ty := p.tok(i).Type
		if ty == closeTy {
			depth++
		} else if ty == openTy {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchCloseForward finds the closer matching the opener at openIdx,
// scanning forward no further than the end of the token stream.
// Returns len(p.toks) if unmatched (should not happen for well-formed
// input).
func (p *Parser) matchCloseForward(openIdx int) int {
	openTy := p.tok(openIdx).Type
	var closeTy lexer.Type
	switch openTy {
	case lexer.LPAREN:
		closeTy = lexer.RPAREN
	case lexer.LBRACKET:
		closeTy = lexer.RBRACKET
	case lexer.LBRACE:
		closeTy = lexer.RBRACE
	default:
		return len(p.toks)
	}
	depth := 0
	for i := openIdx; i < len(p.toks); i++ {
		ty := p.tok(i).Type
		if ty == openTy {
			depth++
		} else if ty == closeTy {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(p.toks)
}

// matchIndentForward finds the UNINDENT matching the INDENT at
// indentIdx, tracking nested INDENT/UNINDENT pairs. Returns
// len(p.toks) if unmatched.
func (p *Parser) matchIndentForward(indentIdx int) int {
	depth := 1
	for i := indentIdx + 1; i < len(p.toks); i++ {
		switch p.tok(i).Type {
		case lexer.INDENT:
			depth++
		case lexer.UNINDENT:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(p.toks)
}

// endsExpr reports whether a token of type tt can be the last token of
// a complete expression — used to distinguish binary +/- from unary
// +/- when scanning for an add-level split (spec.md §4.3: "assumed
// binary unless preceded by another operator or at start of
// expression").
func endsExpr(tt lexer.Type) bool {
	switch tt {
	case lexer.IDENT, lexer.INT, lexer.FLOAT, lexer.BYTES, lexer.UNICODE,
		lexer.TRUE, lexer.FALSE, lexer.NONE,
		lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
		return true
	}
	return false
}
