package ast

// Visitor is the base visitor shape of spec.md §4.4: every method
// defaults to a no-op via BaseVisitor, so a caller embeds BaseVisitor
// and overrides only the node kinds it cares about.
type Visitor interface {
	VisitModule(*Module)
	VisitStmt(Stmt)
	VisitExpr(Expr)
}

// BaseVisitor implements Visitor with every method a no-op.
type BaseVisitor struct{}

func (BaseVisitor) VisitModule(*Module) {}
func (BaseVisitor) VisitStmt(Stmt)      {}
func (BaseVisitor) VisitExpr(Expr)      {}

// Walk performs a pre-order traversal of node, calling visit.VisitStmt
// or visit.VisitExpr on every statement/expression it descends into
// (including node itself, if it is a Stmt or Expr), then recursing into
// children. Walk always recurses into every child after the callback
// returns; a Visitor cannot stop or replace the recursion for a node,
// and there is no separate per-node walk entry point.
func Walk(node Node, visit Visitor) {
	switch n := node.(type) {
	case *Module:
		visit.VisitModule(n)
		for _, s := range n.Body {
			Walk(s, visit)
		}
	case Stmt:
		visit.VisitStmt(n)
		walkStmtChildren(n, visit)
	case Expr:
		visit.VisitExpr(n)
		walkExprChildren(n, visit)
	}
}

func walkStmtChildren(s Stmt, visit Visitor) {
	switch n := s.(type) {
	case *ExprStmt:
		Walk(n.Value, visit)
	case *Assign:
		for _, t := range n.Targets {
			Walk(t, visit)
		}
		Walk(n.Value, visit)
	case *AugAssign:
		Walk(n.Target, visit)
		Walk(n.Value, visit)
	case *Del:
		for _, t := range n.Targets {
			Walk(t, visit)
		}
	case *Return:
		if n.Value != nil {
			Walk(n.Value, visit)
		}
	case *Raise:
		if n.Type != nil {
			Walk(n.Type, visit)
		}
		if n.Value != nil {
			Walk(n.Value, visit)
		}
		if n.Traceback != nil {
			Walk(n.Traceback, visit)
		}
	case *Exec:
		Walk(n.Code, visit)
		if n.Globals != nil {
			Walk(n.Globals, visit)
		}
		if n.Locals != nil {
			Walk(n.Locals, visit)
		}
	case *Assert:
		Walk(n.Test, visit)
		if n.Msg != nil {
			Walk(n.Msg, visit)
		}
	case *If:
		Walk(n.Test, visit)
		walkStmts(n.Body, visit)
		for _, e := range n.Elifs {
			Walk(e.Test, visit)
			walkStmts(e.Body, visit)
		}
		walkStmts(n.Else, visit)
	case *While:
		Walk(n.Test, visit)
		walkStmts(n.Body, visit)
		walkStmts(n.Else, visit)
	case *For:
		Walk(n.Target, visit)
		Walk(n.Iter, visit)
		walkStmts(n.Body, visit)
		walkStmts(n.Else, visit)
	case *Try:
		walkStmts(n.Body, visit)
		for _, h := range n.Handlers {
			if h.Type != nil {
				Walk(h.Type, visit)
			}
			walkStmts(h.Body, visit)
		}
		walkStmts(n.Else, visit)
		walkStmts(n.Finally, visit)
	case *With:
		for _, it := range n.Items {
			Walk(it.Context, visit)
			if it.Vars != nil {
				Walk(it.Vars, visit)
			}
		}
		walkStmts(n.Body, visit)
	case *FuncDef:
		for _, p := range n.Params {
			if p.Default != nil {
				Walk(p.Default, visit)
			}
		}
		for _, d := range n.Decorators {
			Walk(d, visit)
		}
		walkStmts(n.Body, visit)
	case *ClassDef:
		for _, b := range n.Bases {
			Walk(b, visit)
		}
		for _, d := range n.Decorators {
			Walk(d, visit)
		}
		walkStmts(n.Body, visit)
	}
}

func walkStmts(stmts []Stmt, visit Visitor) {
	for _, s := range stmts {
		Walk(s, visit)
	}
}

func walkExprChildren(e Expr, visit Visitor) {
	switch n := e.(type) {
	case *ListExpr:
		for _, el := range n.Elements {
			Walk(el, visit)
		}
	case *TupleExpr:
		for _, el := range n.Elements {
			Walk(el, visit)
		}
	case *SetExpr:
		for _, el := range n.Elements {
			Walk(el, visit)
		}
	case *DictExpr:
		for _, k := range n.Keys {
			Walk(k, visit)
		}
		for _, v := range n.Values {
			Walk(v, visit)
		}
	case *ListComp:
		Walk(n.Element, visit)
		walkClauses(n.Clauses, visit)
	case *SetComp:
		Walk(n.Element, visit)
		walkClauses(n.Clauses, visit)
	case *GeneratorExp:
		Walk(n.Element, visit)
		walkClauses(n.Clauses, visit)
	case *DictComp:
		Walk(n.Key, visit)
		Walk(n.Value, visit)
		walkClauses(n.Clauses, visit)
	case *Lambda:
		for _, p := range n.Params {
			if p.Default != nil {
				Walk(p.Default, visit)
			}
		}
		Walk(n.Body, visit)
	case *Conditional:
		Walk(n.Test, visit)
		Walk(n.Body, visit)
		Walk(n.Else, visit)
	case *BinaryExpr:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *UnaryExpr:
		Walk(n.Operand, visit)
	case *Subscript:
		Walk(n.Base, visit)
		Walk(n.Index, visit)
	case *Slice:
		Walk(n.Base, visit)
		if n.Lower != nil {
			Walk(n.Lower, visit)
		}
		if n.Upper != nil {
			Walk(n.Upper, visit)
		}
		if n.Step != nil {
			Walk(n.Step, visit)
		}
	case *Call:
		Walk(n.Func, visit)
		for _, a := range n.Args {
			Walk(a.Value, visit)
		}
	case *Attribute:
		Walk(n.Base, visit)
	case *Yield:
		if n.Value != nil {
			Walk(n.Value, visit)
		}
	}
}

func walkClauses(clauses []CompClause, visit Visitor) {
	for _, c := range clauses {
		Walk(c.Target, visit)
		Walk(c.Iter, visit)
		for _, cond := range c.Ifs {
			Walk(cond, visit)
		}
	}
}
