package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenTypes(t *testing.T, src string) []Type {
	t.Helper()
	toks, err := New(src, "t.py").Tokenize()
	require.NoError(t, err)
	var types []Type
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	return types
}

func TestSimpleAssignment(t *testing.T) {
	types := tokenTypes(t, "x = 1 + 2\n")
	require.Equal(t, []Type{IDENT, ASSIGN, INT, PLUS, INT, NEWLINE, EOF}, types)
}

func TestIndentUnindent(t *testing.T) {
	src := "if x:\n    y = 1\n    z = 2\nw = 3\n"
	types := tokenTypes(t, src)
	require.Equal(t, []Type{
		IF, IDENT, COLON, NEWLINE,
		INDENT, IDENT, ASSIGN, INT, NEWLINE,
		IDENT, ASSIGN, INT, NEWLINE,
		UNINDENT,
		IDENT, ASSIGN, INT, NEWLINE,
		EOF,
	}, types)
}

func TestMultiLevelUnindent(t *testing.T) {
	src := "if a:\n    if b:\n        x = 1\ny = 2\n"
	types := tokenTypes(t, src)
	require.Equal(t, []Type{
		IF, IDENT, COLON, NEWLINE,
		INDENT, IF, IDENT, COLON, NEWLINE,
		INDENT, IDENT, ASSIGN, INT, NEWLINE,
		UNINDENT, UNINDENT,
		IDENT, ASSIGN, INT, NEWLINE,
		EOF,
	}, types)
}

func TestBracketSuppressesNewline(t *testing.T) {
	types := tokenTypes(t, "x = (1 +\n2)\n")
	require.Equal(t, []Type{IDENT, ASSIGN, LPAREN, INT, PLUS, INT, RPAREN, NEWLINE, EOF}, types)
}

func TestNotInAndIsNot(t *testing.T) {
	types := tokenTypes(t, "a not in b\na is not b\n")
	require.Equal(t, []Type{IDENT, NOTIN, IDENT, NEWLINE, IDENT, ISNOT, IDENT, NEWLINE, EOF}, types)
}

func TestStringEscapes(t *testing.T) {
	toks, err := New(`x = "a\tb\x41\u0042"`+"\n", "t.py").Tokenize()
	require.NoError(t, err)
	require.Equal(t, "a\tbAB", toks[2].Literal)
}

func TestBytesLiteralRejectsUnicodeEscape(t *testing.T) {
	_, err := New(`b"\u0041"`+"\n", "t.py").Tokenize()
	require.Error(t, err)
}

func TestUnterminatedString(t *testing.T) {
	_, err := New(`x = "abc`, "t.py").Tokenize()
	require.Error(t, err)
}

func TestMismatchedBracket(t *testing.T) {
	_, err := New("x = (1]\n", "t.py").Tokenize()
	require.Error(t, err)
}

func TestMisalignedUnindent(t *testing.T) {
	src := "if a:\n    if b:\n        x = 1\n  y = 2\n"
	_, err := New(src, "t.py").Tokenize()
	require.Error(t, err)
}

func TestWhitespaceIdempotence(t *testing.T) {
	// spec.md §8: inserting blank lines at line boundaries, or adding
	// trailing spaces to blank lines, must not change the token stream.
	base := "x = 1\ny = 2\n"
	variant := "x = 1\n   \n\ny = 2\n"
	require.Equal(t, tokenTypes(t, base), tokenTypes(t, variant))
}

func TestHexAndFloatLiterals(t *testing.T) {
	toks, err := New("x = 0x1A\ny = .5\nz = 1.\nw = 1e10\n", "t.py").Tokenize()
	require.NoError(t, err)
	var ints, floats []Token
	for _, tok := range toks {
		if tok.Type == INT {
			ints = append(ints, tok)
		}
		if tok.Type == FLOAT {
			floats = append(floats, tok)
		}
	}
	require.Len(t, ints, 1)
	require.EqualValues(t, 26, ints[0].IntVal)
	require.Len(t, floats, 3)
	require.InDelta(t, 0.5, floats[0].FloatVal, 1e-9)
	require.InDelta(t, 1.0, floats[1].FloatVal, 1e-9)
	require.InDelta(t, 1e10, floats[2].FloatVal, 1e-3)
}
