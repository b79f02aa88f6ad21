package value

import (
	"testing"

	"github.com/nemesys-lang/nsc/internal/lexer"
	"github.com/stretchr/testify/require"
)

func TestEqualRejectsUnknown(t *testing.T) {
	a := NewIndeterminate()
	require.False(t, a.Equal(a))
}

func TestKnownIntAddition(t *testing.T) {
	r, err := Binary(lexer.PLUS, NewInt(2), NewInt(3))
	require.NoError(t, err)
	require.True(t, r.Known)
	require.Equal(t, int64(5), r.Int)
}

func TestIntPlusFloatPromotes(t *testing.T) {
	r, err := Binary(lexer.PLUS, NewInt(2), NewFloat(1.5))
	require.NoError(t, err)
	require.Equal(t, FloatType, r.Type)
	require.InDelta(t, 3.5, r.Float, 1e-9)
}

func TestUnknownOperandYieldsTypeOnlyResult(t *testing.T) {
	r, err := Binary(lexer.PLUS, TypeOnly(IntType), TypeOnly(IntType))
	require.NoError(t, err)
	require.Equal(t, IntType, r.Type)
	require.False(t, r.Known)
}

func TestListTimesIntPreservesElementType(t *testing.T) {
	l := NewList([]*Value{NewInt(1), NewInt(2)})
	r, err := Binary(lexer.STAR, l, NewInt(2))
	require.NoError(t, err)
	require.True(t, r.Known)
	require.Len(t, r.Elements, 4)
	require.Equal(t, IntType, r.ExtensionTypes[0].Type)
}

func TestComparisonAcrossIncompatibleTypesErrors(t *testing.T) {
	_, err := Binary(lexer.LT, NewInt(1), NewBytes("x"))
	require.Error(t, err)
}

func TestMembershipOperators(t *testing.T) {
	l := NewList([]*Value{NewInt(1), NewInt(2), NewInt(3)})
	r, err := Binary(lexer.IN, NewInt(2), l)
	require.NoError(t, err)
	require.True(t, r.Int == 1)

	r, err = Binary(lexer.NOTIN, NewInt(9), l)
	require.NoError(t, err)
	require.True(t, r.Int == 1)
}

func TestSetOperators(t *testing.T) {
	a := NewSet([]*Value{NewInt(1), NewInt(2)})
	b := NewSet([]*Value{NewInt(2), NewInt(3)})

	union, err := Binary(lexer.PIPE, a, b)
	require.NoError(t, err)
	require.Len(t, union.SetItems, 3)

	inter, err := Binary(lexer.AMP, a, b)
	require.NoError(t, err)
	require.Len(t, inter.SetItems, 1)

	diff, err := Binary(lexer.MINUS, a, b)
	require.NoError(t, err)
	require.Len(t, diff.SetItems, 1)
	require.True(t, diff.SetItems[0].Equal(NewInt(1)))
}

func TestNegativeIntExponentYieldsFloat(t *testing.T) {
	r, err := Binary(lexer.DSTAR, NewInt(2), NewInt(-1))
	require.NoError(t, err)
	require.Equal(t, FloatType, r.Type)
	require.InDelta(t, 0.5, r.Float, 1e-9)
}

func TestShortCircuitOr(t *testing.T) {
	r := BinaryShortCircuit(lexer.OR, NewBool(true), NewInt(0))
	require.True(t, r.Known)
	require.Equal(t, BoolType, r.Type)
}

func TestShortCircuitAndUnknownMergesTypes(t *testing.T) {
	r := BinaryShortCircuit(lexer.AND, TypeOnly(IntType), TypeOnly(IntType))
	require.Equal(t, IntType, r.Type)
	require.False(t, r.Known)
}

func TestTernaryKnownCondition(t *testing.T) {
	r, err := Ternary(NewBool(true), NewInt(1), NewInt(2))
	require.NoError(t, err)
	require.Equal(t, int64(1), r.Int)
}

func TestTernaryUnknownConditionMergesBranches(t *testing.T) {
	r, err := Ternary(TypeOnly(BoolType), NewInt(1), NewFloat(2.0))
	require.NoError(t, err)
	require.Equal(t, FloatType, r.Type)
	require.False(t, r.Known)
}

func TestHashDistinguishesUnknownValues(t *testing.T) {
	a := NewIndeterminate()
	b := NewIndeterminate()
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestTypesEqualIgnoresPayload(t *testing.T) {
	a := NewInt(1)
	b := NewInt(99)
	require.True(t, a.TypesEqual(b))
}
