package ast

import (
	"testing"

	"github.com/nemesys-lang/nsc/internal/lexer"
	"github.com/stretchr/testify/require"
)

func TestPrintLiteralsAndBinop(t *testing.T) {
	expr := &BinaryExpr{
		Op:   lexer.PLUS,
		Left: &Literal{Kind: IntLit, Int: 1},
		Right: &Literal{Kind: IntLit, Int: 2},
	}
	require.Equal(t, "(binop + (int 1) (int 2))", Print(expr))
}

func TestPrintIgnoresOffsets(t *testing.T) {
	a := &Identifier{Meta: Meta{Off: 5}, Name: "x"}
	b := &Identifier{Meta: Meta{Off: 99}, Name: "x"}
	require.Equal(t, Print(a), Print(b))
}

func TestWalkVisitsNestedExprs(t *testing.T) {
	mod := &Module{Body: []Stmt{
		&Assign{
			Targets: []Expr{&Identifier{Name: "x"}},
			Value: &BinaryExpr{
				Op:    lexer.PLUS,
				Left:  &Identifier{Name: "y"},
				Right: &Literal{Kind: IntLit, Int: 1},
			},
		},
	}}

	var names []string
	v := &collectingVisitor{BaseVisitor: BaseVisitor{}, onIdent: func(name string) {
		names = append(names, name)
	}}
	Walk(mod, v)
	require.Equal(t, []string{"x", "y"}, names)
}

type collectingVisitor struct {
	BaseVisitor
	onIdent func(string)
}

func (v *collectingVisitor) VisitExpr(e Expr) {
	if id, ok := e.(*Identifier); ok {
		v.onIdent(id.Name)
	}
}

func TestPrintFuncDefWithDefaults(t *testing.T) {
	fn := &FuncDef{
		Name: "f",
		Params: []Param{
			{Name: "a"},
			{Name: "b", Default: &Literal{Kind: IntLit, Int: 3}},
		},
		Body: []Stmt{&Pass{}},
	}
	require.Equal(t, "(def f (a b=(int 3)) (body (pass)))", Print(fn))
}
