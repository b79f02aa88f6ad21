package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/lexer"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	toks, err := lexer.New(src, "t.py").Tokenize()
	require.NoError(t, err)
	mod, err := Parse(toks, "t.py")
	require.NoError(t, err)
	return mod
}

// assertPrint compares a parsed module's s-expression rendering against
// want, reporting a unified diff on mismatch rather than the raw pair of
// strings most tests in this package produce.
func assertPrint(t *testing.T, want string, mod *ast.Module) {
	t.Helper()
	if diff := cmp.Diff(want, ast.Print(mod)); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
}

func TestSimpleAssignPrint(t *testing.T) {
	mod := mustParse(t, "x = 1 + 2\n")
	assertPrint(t, "(module (assign ((id x)) (binop + (int 1) (int 2))))", mod)
}

func TestPowerIsRightAssociativeAroundUnary(t *testing.T) {
	mod := mustParse(t, "2 ** -1\n")
	assertPrint(t, "(module (expr-stmt (binop ** (int 2) (unop - (int 1)))))", mod)
}

func TestUnaryBindsLooserThanPower(t *testing.T) {
	mod := mustParse(t, "-2 ** 2\n")
	assertPrint(t, "(module (expr-stmt (unop - (binop ** (int 2) (int 2)))))", mod)
}

// Round trip: differing leading blank lines/comments shift every token's
// byte offset but must not change the structural Print() rendering
// (spec.md §8's parser round-trip testable property).
func TestRoundTripIgnoresLeadingNoise(t *testing.T) {
	a := mustParse(t, "x = 1\ny = x + 2\n")
	b := mustParse(t, "# a leading comment\n\n\nx = 1\ny = x + 2\n")
	assertPrint(t, ast.Print(a), b)
}

func TestIfElifElse(t *testing.T) {
	mod := mustParse(t, "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n")
	want := "(module (if (id a) (then (assign ((id x)) (int 1))) " +
		"(elif (id b) (then (assign ((id x)) (int 2)))) " +
		"(else (assign ((id x)) (int 3)))))"
	assertPrint(t, want, mod)
}

func TestInlineSuiteSingleStatement(t *testing.T) {
	mod := mustParse(t, "if a: x = 1\ny = 2\n")
	want := "(module (if (id a) (then (assign ((id x)) (int 1)))) (assign ((id y)) (int 2)))"
	assertPrint(t, want, mod)
}

func TestInlineSuiteSemicolonChain(t *testing.T) {
	mod := mustParse(t, "if a: x = 1; y = 2\nz = 3\n")
	want := "(module (if (id a) (then (assign ((id x)) (int 1)) (assign ((id y)) (int 2)))) (assign ((id z)) (int 3)))"
	assertPrint(t, want, mod)
}

func TestForElse(t *testing.T) {
	mod := mustParse(t, "for x in y:\n    pass\nelse:\n    pass\n")
	want := "(module (for (id x) (id y) (body (pass)) (else (pass))))"
	assertPrint(t, want, mod)
}

func TestWhileLoop(t *testing.T) {
	mod := mustParse(t, "while x:\n    x = x - 1\n")
	want := "(module (while (id x) (body (assign ((id x)) (binop - (id x) (int 1))))))"
	assertPrint(t, want, mod)
}

func TestTryExceptAsFinally(t *testing.T) {
	mod := mustParse(t, "try:\n    x = 1\nexcept ValueError as e:\n    pass\nfinally:\n    y = 2\n")
	want := "(module (try (body (assign ((id x)) (int 1))) " +
		"(except (id ValueError) as e (body (pass))) " +
		"(finally (assign ((id y)) (int 2)))))"
	assertPrint(t, want, mod)
}

func TestWithStatement(t *testing.T) {
	mod := mustParse(t, "with open(f) as g:\n    pass\n")
	want := "(module (with ((call (id open) (id f)) as (id g)) (body (pass))))"
	assertPrint(t, want, mod)
}

func TestFuncDefWithDecorators(t *testing.T) {
	mod := mustParse(t, "@staticmethod\ndef f(a, b=1, *args, **kw):\n    return a + b\n")
	want := "(module (def f (a b=(int 1) *args **kw) (body (return (binop + (id a) (id b))))))"
	assertPrint(t, want, mod)
}

func TestClassDefWithBase(t *testing.T) {
	mod := mustParse(t, "class C(Base1):\n    def m(self):\n        pass\n")
	want := "(module (class C ((id Base1)) (body (def m (self) (body (pass))))))"
	assertPrint(t, want, mod)
}

func TestClassDefWithMultipleBasesRejected(t *testing.T) {
	toks, err := lexer.New("class C(Base1, Base2):\n    pass\n", "t.py").Tokenize()
	require.NoError(t, err)
	_, err = Parse(toks, "t.py")
	require.Error(t, err)
}

func TestImportForms(t *testing.T) {
	mod := mustParse(t, "import os.path as p\nfrom math import sqrt, pow as power\nfrom sys import *\n")
	want := "(module (import os.path as p) (import-from math sqrt pow as power) (import-from sys *))"
	assertPrint(t, want, mod)
}

func TestAugAssignAndDel(t *testing.T) {
	mod := mustParse(t, "x += 1\ndel x, y\n")
	want := "(module (aug-assign += (id x) (int 1)) (del (id x) (id y)))"
	assertPrint(t, want, mod)
}

func TestAssertWithMessage(t *testing.T) {
	mod := mustParse(t, "assert x > 0, 'bad'\n")
	want := "(module (assert (binop > (id x) (int 0)) (str \"bad\")))"
	assertPrint(t, want, mod)
}

func TestListCompAndSlice(t *testing.T) {
	mod := mustParse(t, "y = [x for x in xs if x > 0]\nz = xs[1:2]\n")
	want := "(module (assign ((id y)) (listcomp (id x) (for (id x) in (id xs) (if (binop > (id x) (int 0)))))) " +
		"(assign ((id z)) (slice (id xs) (int 1) (int 2) nil)))"
	assertPrint(t, want, mod)
}

func TestChainedComparisonAndMembership(t *testing.T) {
	mod := mustParse(t, "r = 1 < x < 10\ns = x in xs\n")
	want := "(module (assign ((id r)) (binop < (binop < (int 1) (id x)) (int 10))) " +
		"(assign ((id s)) (binop in (id x) (id xs))))"
	assertPrint(t, want, mod)
}

func TestInvalidAssignmentTargetRejected(t *testing.T) {
	toks, err := lexer.New("1 = 2\n", "t.py").Tokenize()
	require.NoError(t, err)
	_, err = Parse(toks, "t.py")
	require.Error(t, err)
}

func TestReservedNameReassignmentRejected(t *testing.T) {
	toks, err := lexer.New("None = 2\n", "t.py").Tokenize()
	require.NoError(t, err)
	_, err = Parse(toks, "t.py")
	require.Error(t, err)
}

func TestPositionalAfterKeywordArgRejected(t *testing.T) {
	toks, err := lexer.New("f(a=1, 2)\n", "t.py").Tokenize()
	require.NoError(t, err)
	_, err = Parse(toks, "t.py")
	require.Error(t, err)
}
