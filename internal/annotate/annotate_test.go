package annotate

import (
	"testing"

	"github.com/nemesys-lang/nsc/internal/lexer"
	"github.com/nemesys-lang/nsc/internal/parser"
	"github.com/nemesys-lang/nsc/internal/registry"
	"github.com/nemesys-lang/nsc/internal/value"
	"github.com/stretchr/testify/require"
)

// noImports is an ImportResolver that fails any import, for tests whose
// source has none.
type noImports struct{}

func (noImports) Advance(name string, target registry.Phase) (*registry.ModuleContext, error) {
	panic("unexpected import of " + name)
}

func annotateSource(t *testing.T, src string) (*registry.GlobalContext, *registry.ModuleContext) {
	t.Helper()
	toks, err := lexer.New(src, "t.py").Tokenize()
	require.NoError(t, err)
	mod, err := parser.Parse(toks, "t.py")
	require.NoError(t, err)

	global := registry.NewGlobalContext()
	m := global.GetOrCreateModule("t", "t.py")
	m.AST = mod
	require.NoError(t, Run(global, m, noImports{}))
	return global, m
}

func TestFunctionIdsAssignedPreOrder(t *testing.T) {
	_, m := annotateSource(t, "def a():\n    pass\ndef b():\n    pass\n")
	aSlot, ok := m.Global("a")
	require.True(t, ok)
	bSlot, ok := m.Global("b")
	require.True(t, ok)
	require.Less(t, aSlot.Value.ID, bSlot.Value.ID)
}

func TestAnnotationIsDeterministicAcrossRuns(t *testing.T) {
	src := "def a():\n    def b():\n        pass\n    return b\ndef c():\n    pass\n"
	_, m1 := annotateSource(t, src)
	_, m2 := annotateSource(t, src)
	aSlot1, _ := m1.Global("a")
	cSlot1, _ := m1.Global("c")
	aSlot2, _ := m2.Global("a")
	cSlot2, _ := m2.Global("c")
	require.Equal(t, cSlot1.Value.ID-aSlot1.Value.ID, cSlot2.Value.ID-aSlot2.Value.ID)
}

func TestWriteAfterFirstDeclarationMarksGlobalMutable(t *testing.T) {
	_, m := annotateSource(t, "x = 1\nx = 2\n")
	slot, ok := m.Global("x")
	require.True(t, ok)
	require.True(t, slot.Mutable)
}

func TestSingleWriteGlobalNotMarkedMutable(t *testing.T) {
	_, m := annotateSource(t, "x = 1\n")
	slot, ok := m.Global("x")
	require.True(t, ok)
	require.False(t, slot.Mutable)
}

func TestReservedNameAssignmentRejectedBeforeAnnotation(t *testing.T) {
	// `None = 2` never reaches annotation: the parser rejects it at
	// parse time (PAR003). Annotation's own ANN001 check in recordWrite
	// is a second guard for the same invariant.
	toks, err := lexer.New("None = 2\n", "t.py").Tokenize()
	require.NoError(t, err)
	_, err = parser.Parse(toks, "t.py")
	require.Error(t, err)
}

func TestGlobalAfterLocalWriteRejected(t *testing.T) {
	src := "x = 1\ndef f():\n    x = 1\n    global x\n"
	toks, err := lexer.New(src, "t.py").Tokenize()
	require.NoError(t, err)
	mod, err := parser.Parse(toks, "t.py")
	require.NoError(t, err)

	global := registry.NewGlobalContext()
	m := global.GetOrCreateModule("t", "t.py")
	m.AST = mod
	err = Run(global, m, noImports{})
	require.Error(t, err)
}

func TestMethodDoesNotPanicWithNilFunctionScope(t *testing.T) {
	require.NotPanics(t, func() {
		annotateSource(t, "class C:\n    def m(self):\n        pass\n")
	})
}

func TestClassGetsOwnID(t *testing.T) {
	_, m := annotateSource(t, "class C:\n    pass\n")
	slot, ok := m.Global("C")
	require.True(t, ok)
	require.Equal(t, value.ClassType, slot.Value.Type)
	require.GreaterOrEqual(t, slot.Value.ID, int64(0))
}
