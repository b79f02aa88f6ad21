package analyze

import (
	"testing"

	"github.com/nemesys-lang/nsc/internal/annotate"
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
	"github.com/nemesys-lang/nsc/internal/parser"
	"github.com/nemesys-lang/nsc/internal/registry"
	"github.com/nemesys-lang/nsc/internal/value"
	"github.com/stretchr/testify/require"
)

// noImports is a ModuleResolver that fails any import, for tests whose
// source has none.
type noImports struct{}

func (noImports) Advance(name string, target registry.Phase) (*registry.ModuleContext, error) {
	panic("unexpected import of " + name)
}

// analyzeSource lexes, parses, annotates, and analyzes src, returning the
// fully Analyzed module.
func analyzeSource(t *testing.T, src string) (*registry.GlobalContext, *registry.ModuleContext, error) {
	t.Helper()
	toks, err := lexer.New(src, "t.py").Tokenize()
	require.NoError(t, err)
	mod, err := parser.Parse(toks, "t.py")
	require.NoError(t, err)

	global := registry.NewGlobalContext()
	m := global.GetOrCreateModule("t", "t.py")
	m.AST = mod
	require.NoError(t, annotate.Run(global, m, noImports{}))
	err = Run(global, m, noImports{})
	return global, m, err
}

func mustAnalyze(t *testing.T, src string) (*registry.GlobalContext, *registry.ModuleContext) {
	t.Helper()
	global, m, err := analyzeSource(t, src)
	require.NoError(t, err)
	return global, m
}

func TestIntGlobalGetsKnownValue(t *testing.T) {
	_, m := mustAnalyze(t, "x = 1\n")
	slot, ok := m.Global("x")
	require.True(t, ok)
	require.Equal(t, value.IntType, slot.Value.Type)
	require.True(t, slot.Value.Known)
	require.Equal(t, int64(1), slot.Value.Int)
}

func TestRebindWithDifferentTypeIsRejected(t *testing.T) {
	_, _, err := analyzeSource(t, "x = 1\nx = 'a'\n")
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANA001, rep.Code)
}

func TestRebindWithSameTypeClearsKnownValue(t *testing.T) {
	_, m := mustAnalyze(t, "x = 1\nx = 2\n")
	slot, ok := m.Global("x")
	require.True(t, ok)
	require.Equal(t, value.IntType, slot.Value.Type)
	// Two different known Ints merge to a type-only value per mergeSlot.
	require.False(t, slot.Value.Known)
}

func TestRebindWithEqualKnownValueStaysKnown(t *testing.T) {
	_, m := mustAnalyze(t, "x = 1\nx = 1\n")
	slot, ok := m.Global("x")
	require.True(t, ok)
	require.True(t, slot.Value.Known)
	require.Equal(t, int64(1), slot.Value.Int)
}

func TestReferenceToUndefinedNameRejected(t *testing.T) {
	_, _, err := analyzeSource(t, "print(y)\n")
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANA002, rep.Code)
}

func TestIfWithStaticallyTrueTestMarksAlwaysTrue(t *testing.T) {
	_, m := mustAnalyze(t, "if 1:\n    x = 1\nelse:\n    x = 'a'\n")

	ifStmt := findIf(t, m)
	require.True(t, ifStmt.AlwaysTrue)
	require.False(t, ifStmt.AlwaysFalse)
}

func TestIfWithStaticallyFalseTestMarksAlwaysFalse(t *testing.T) {
	_, m := mustAnalyze(t, "if 0:\n    x = 1\n")

	ifStmt := findIf(t, m)
	require.True(t, ifStmt.AlwaysFalse)
}

func TestForLoopDerivesElementTypeFromListLiteral(t *testing.T) {
	_, m := mustAnalyze(t, "for v in [1, 2, 3]:\n    y = v\n")
	slot, ok := m.Global("y")
	require.True(t, ok)
	require.Equal(t, value.IntType, slot.Value.Type)
}

func TestExceptClauseMustBeClassOrTupleOfClasses(t *testing.T) {
	_, _, err := analyzeSource(t, "try:\n    pass\nexcept 1:\n    pass\n")
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANA005, rep.Code)
}

func TestExceptClauseAcceptsClass(t *testing.T) {
	_, _, err := analyzeSource(t, "class E:\n    pass\ntry:\n    pass\nexcept E:\n    pass\n")
	require.NoError(t, err)
}

func TestAttributeIntroducedOutsideInitRejected(t *testing.T) {
	src := "class C:\n    def m(self):\n        self.x = 1\n"
	_, _, err := analyzeSource(t, src)
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANA004, rep.Code)
}

func TestAttributeIntroducedInInitAllowed(t *testing.T) {
	src := "class C:\n    def __init__(self):\n        self.x = 1\n"
	_, _, err := analyzeSource(t, src)
	require.NoError(t, err)
}

func TestAttributeRebindWithDifferentTypeRejected(t *testing.T) {
	src := "class C:\n    def __init__(self):\n        self.x = 1\n    def m(self):\n        self.x = 'a'\n"
	_, _, err := analyzeSource(t, src)
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANA001, rep.Code)
}

func TestBinaryOperatorOnIncompatibleTypesRejected(t *testing.T) {
	_, _, err := analyzeSource(t, "x = 1 + 'a'\n")
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANA003, rep.Code)
}

func TestFunctionReturnTypeRecorded(t *testing.T) {
	global, m := mustAnalyze(t, "def f():\n    return 1\n")
	slot, ok := m.Global("f")
	require.True(t, ok)
	fc, err := global.ContextForFunction(slot.Value.ID, "f", nil)
	require.NoError(t, err)
	require.Len(t, fc.ReturnTypes, 1)
	require.Equal(t, value.IntType, fc.ReturnTypes[0].Type)
}

func TestAssertMessageSkippedWhenConditionStaticallyTrue(t *testing.T) {
	// Supplemented open-question resolution: the message expression of
	// `assert True, undefined_name` is never evaluated when the test is
	// statically known true, so the reference to undefined_name does not
	// trigger ANA002.
	_, _, err := analyzeSource(t, "assert True, undefined_name\n")
	require.NoError(t, err)
}

func TestAssertMessageEvaluatedWhenConditionNotStaticallyTrue(t *testing.T) {
	_, _, err := analyzeSource(t, "def f(v):\n    assert v, undefined_name\n")
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANA002, rep.Code)
}

// --- helpers ---

func findIf(t *testing.T, m *registry.ModuleContext) *ast.If {
	t.Helper()
	for _, s := range m.AST.Body {
		if v, ok := s.(*ast.If); ok {
			return v
		}
	}
	t.Fatal("no If statement found in module body")
	return nil
}
