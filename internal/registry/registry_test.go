package registry

import (
	"testing"

	"github.com/nemesys-lang/nsc/internal/value"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateModuleIsIdempotent(t *testing.T) {
	g := NewGlobalContext()
	a := g.GetOrCreateModule("pkg.mod", "pkg/mod.py")
	b := g.GetOrCreateModule("pkg.mod", "pkg/mod.py")
	require.Same(t, a, b)
}

func TestContextForFunctionRequiresCreatingModuleOnce(t *testing.T) {
	g := NewGlobalContext()
	_, err := g.ContextForFunction(42, "f", nil)
	require.Error(t, err)

	mod := g.GetOrCreateModule("m", "m.py")
	fc, err := g.ContextForFunction(42, "f", mod)
	require.NoError(t, err)
	require.Equal(t, int64(42), fc.ID)

	again, err := g.ContextForFunction(42, "f", nil)
	require.NoError(t, err)
	require.Same(t, fc, again)
}

func TestConstantInterningSharesStorage(t *testing.T) {
	g := NewGlobalContext()
	a := g.GetOrCreateConstant("hello", false)
	b := g.GetOrCreateConstant("hello", false)
	require.Same(t, a, b)

	c := g.GetOrCreateConstant("hello", true)
	require.NotSame(t, a, c)
}

func TestReserveGlobalSpaceNeverInvalidatesOffsets(t *testing.T) {
	g := NewGlobalContext()
	off1 := g.ReserveGlobalSpace(8)
	off2 := g.ReserveGlobalSpace(16)
	require.Equal(t, 0, off1)
	require.Equal(t, 8, off2)
	require.Len(t, g.GlobalSpace, 24)
}

func TestCycleGuard(t *testing.T) {
	g := NewGlobalContext()
	require.NoError(t, g.EnterInProgress("a"))
	require.Error(t, g.EnterInProgress("a"))
	g.ExitInProgress("a")
	require.NoError(t, g.EnterInProgress("a"))
}

func TestFragmentMatchingPrefersFewestPromotions(t *testing.T) {
	g := NewGlobalContext()
	mod := g.GetOrCreateModule("m", "m.py")
	fc, err := g.ContextForFunction(1, "f", mod)
	require.NoError(t, err)

	exact := fc.AddFragment([]*value.Value{value.TypeOnly(value.IntType)})
	wild := fc.AddFragment([]*value.Value{value.TypeOnly(value.Indeterminate)})

	best := fc.BestFragment([]*value.Value{value.TypeOnly(value.IntType)})
	require.Same(t, exact, best)
	require.NotSame(t, wild, best)
}

func TestFragmentMatchingArityMismatchExcluded(t *testing.T) {
	g := NewGlobalContext()
	mod := g.GetOrCreateModule("m", "m.py")
	fc, _ := g.ContextForFunction(1, "f", mod)
	fc.AddFragment([]*value.Value{value.TypeOnly(value.IntType)})

	best := fc.BestFragment([]*value.Value{value.TypeOnly(value.IntType), value.TypeOnly(value.IntType)})
	require.Nil(t, best)
}

func TestClassAttributeLookupFallsThroughBases(t *testing.T) {
	base := newClassContext(NextID())
	base.DeclareAttribute("x")
	derived := newClassContext(NextID())
	derived.Bases = []*ClassContext{base}

	slot, ok := derived.Attribute("x")
	require.True(t, ok)
	require.Equal(t, "x", slot.Name)
}
