package pipeline

import (
	"testing"

	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/registry"
	"github.com/nemesys-lang/nsc/internal/value"
	"github.com/stretchr/testify/require"
)

// run advances an in-memory source string to Analyzed (stopping short
// of Imported, since these scenarios only assert on lattice values
// observed at the end of Analysis, spec.md §8).
func run(t *testing.T, src string) *registry.ModuleContext {
	t.Helper()
	d := New(nil)
	mod := d.Global.GetOrCreateModule("__main__", "t.py")
	mod.ImmediateSource = src
	err := d.advanceModule(mod, registry.Analyzed)
	require.NoError(t, err)
	return mod
}

// Scenario 1: `x = 1 + 2` -> global x : Int = 3, immutable.
func TestScenario1ConstantFoldedAddition(t *testing.T) {
	mod := run(t, "x = 1 + 2\n")
	slot, ok := mod.Global("x")
	require.True(t, ok)
	require.Equal(t, value.IntType, slot.Value.Type)
	require.True(t, slot.Value.Known)
	require.Equal(t, int64(3), slot.Value.Int)
	require.False(t, slot.Mutable)
}

// Scenario 2: `x = 1` then `x = 2` -> global x : Int, mutable, value
// unknown.
func TestScenario2RepeatedWriteLosesKnownValue(t *testing.T) {
	mod := run(t, "x = 1\nx = 2\n")
	slot, ok := mod.Global("x")
	require.True(t, ok)
	require.Equal(t, value.IntType, slot.Value.Type)
	require.True(t, slot.Mutable)
	require.False(t, slot.Value.Known)
}

// Scenario 3: `def f(a): return a + 1` then `y = f(3)` -> f's
// declaration-time return_types contains one Indeterminate (the
// argument type is unknown at definition); y : Int once the call
// site's fragment is specialized for Int.
func TestScenario3CallSpecializesFragmentForInt(t *testing.T) {
	d := New(nil)
	mod := d.Global.GetOrCreateModule("__main__", "t.py")
	mod.ImmediateSource = "def f(a):\n    return a + 1\ny = f(3)\n"
	require.NoError(t, d.advanceModule(mod, registry.Analyzed))

	fSlot, ok := mod.Global("f")
	require.True(t, ok)
	fc, err := d.Global.ContextForFunction(fSlot.Value.ID, "f", nil)
	require.NoError(t, err)
	require.Len(t, fc.ReturnTypes, 1)
	require.Equal(t, value.Indeterminate, fc.ReturnTypes[0].Type)

	ySlot, ok := mod.Global("y")
	require.True(t, ok)
	require.Equal(t, value.IntType, ySlot.Value.Type)
}

// Scenario 4: `if True: x = 1 else: x = "s"` -> the if is flagged
// always_true, x : Int = 1.
func TestScenario4StaticallyTrueIfPrunesElseBranch(t *testing.T) {
	mod := run(t, "if True:\n    x = 1\nelse:\n    x = \"s\"\n")
	var ifStmt *ast.If
	for _, s := range mod.AST.Body {
		if v, ok := s.(*ast.If); ok {
			ifStmt = v
		}
	}
	require.NotNil(t, ifStmt)
	require.True(t, ifStmt.AlwaysTrue)

	slot, ok := mod.Global("x")
	require.True(t, ok)
	require.Equal(t, value.IntType, slot.Value.Type)
	require.True(t, slot.Value.Known)
	require.Equal(t, int64(1), slot.Value.Int)
}

// Scenario 5: a class whose __init__ sets self.v = 0 and whose g sets
// self.v = "x" fails analysis with an attribute type change.
func TestScenario5AttributeTypeChangeAcrossMethodsFails(t *testing.T) {
	d := New(nil)
	mod := d.Global.GetOrCreateModule("__main__", "t.py")
	mod.ImmediateSource = "class C:\n    def __init__(self):\n        self.v = 0\n    def g(self):\n        self.v = \"x\"\n"
	err := d.advanceModule(mod, registry.Analyzed)
	require.Error(t, err)
}

// Scenario 6: `a = [1, 2, 3]` then `for x in a: pass` -> x : Int, a :
// List[Int] = [1,2,3] (immutable; constructor retained value).
func TestScenario6ForLoopOverListLiteral(t *testing.T) {
	mod := run(t, "a = [1, 2, 3]\nfor x in a:\n    pass\n")

	aSlot, ok := mod.Global("a")
	require.True(t, ok)
	require.Equal(t, value.ListType, aSlot.Value.Type)
	require.False(t, aSlot.Mutable)
	require.True(t, aSlot.Value.Known)
	require.Len(t, aSlot.Value.Elements, 3)
}
