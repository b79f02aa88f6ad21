package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders node as an s-expression, grounded on the shape of
// _examples/sunholo-data-ailang/internal/ast/print.go. It is the
// structural comparison surface for the parser round-trip tests
// (spec.md §8); no debug flag prints it. Offsets are omitted so
// re-parses of reformatted-but-equivalent source compare equal; other
// fields are omitted too (decorator lists, exec's globals/locals,
// annotation and analysis results), so ASTs that differ only there
// print identically.
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printNode(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Module:
		printSeq(b, "module", stmtsToNodes(v.Body))
	case *Identifier:
		fmt.Fprintf(b, "(id %s)", v.Name)
	case *Literal:
		printLiteral(b, v)
	case *ListExpr:
		printSeq(b, "list", exprsToNodes(v.Elements))
	case *TupleExpr:
		printSeq(b, "tuple", exprsToNodes(v.Elements))
	case *SetExpr:
		printSeq(b, "set", exprsToNodes(v.Elements))
	case *DictExpr:
		b.WriteString("(dict")
		for i := range v.Keys {
			b.WriteString(" (")
			printNode(b, v.Keys[i])
			b.WriteString(" . ")
			printNode(b, v.Values[i])
			b.WriteString(")")
		}
		b.WriteString(")")
	case *ListComp:
		printComp(b, "listcomp", v.Element, v.Clauses)
	case *SetComp:
		printComp(b, "setcomp", v.Element, v.Clauses)
	case *GeneratorExp:
		printComp(b, "genexp", v.Element, v.Clauses)
	case *DictComp:
		fmt.Fprintf(b, "(dictcomp ")
		printNode(b, v.Key)
		b.WriteString(" ")
		printNode(b, v.Value)
		printClauses(b, v.Clauses)
		b.WriteString(")")
	case *Lambda:
		b.WriteString("(lambda (")
		b.WriteString(paramList(v.Params, v.VarargsName, v.VarkwargsName))
		b.WriteString(") ")
		printNode(b, v.Body)
		b.WriteString(")")
	case *Conditional:
		b.WriteString("(if-expr ")
		printNode(b, v.Test)
		b.WriteString(" ")
		printNode(b, v.Body)
		b.WriteString(" ")
		printNode(b, v.Else)
		b.WriteString(")")
	case *BinaryExpr:
		fmt.Fprintf(b, "(binop %s ", v.Op.String())
		printNode(b, v.Left)
		b.WriteString(" ")
		printNode(b, v.Right)
		b.WriteString(")")
	case *UnaryExpr:
		fmt.Fprintf(b, "(unop %s ", v.Op.String())
		printNode(b, v.Operand)
		b.WriteString(")")
	case *Subscript:
		b.WriteString("(subscript ")
		printNode(b, v.Base)
		b.WriteString(" ")
		printNode(b, v.Index)
		b.WriteString(")")
	case *Slice:
		b.WriteString("(slice ")
		printNode(b, v.Base)
		for _, part := range []Expr{v.Lower, v.Upper, v.Step} {
			b.WriteString(" ")
			if part == nil {
				b.WriteString("nil")
			} else {
				printNode(b, part)
			}
		}
		b.WriteString(")")
	case *Call:
		b.WriteString("(call ")
		printNode(b, v.Func)
		for _, a := range v.Args {
			b.WriteString(" ")
			printArg(b, a)
		}
		b.WriteString(")")
	case *Attribute:
		b.WriteString("(attr ")
		printNode(b, v.Base)
		fmt.Fprintf(b, " %s)", v.Name)
	case *Yield:
		b.WriteString("(yield")
		if v.From {
			b.WriteString("-from")
		}
		if v.Value != nil {
			b.WriteString(" ")
			printNode(b, v.Value)
		}
		b.WriteString(")")
	case *ExprStmt:
		b.WriteString("(expr-stmt ")
		printNode(b, v.Value)
		b.WriteString(")")
	case *Assign:
		b.WriteString("(assign (")
		for i, t := range v.Targets {
			if i > 0 {
				b.WriteString(" ")
			}
			printNode(b, t)
		}
		b.WriteString(") ")
		printNode(b, v.Value)
		b.WriteString(")")
	case *AugAssign:
		fmt.Fprintf(b, "(aug-assign %s ", v.Op.String())
		printNode(b, v.Target)
		b.WriteString(" ")
		printNode(b, v.Value)
		b.WriteString(")")
	case *Del:
		printSeq(b, "del", exprsToNodes(v.Targets))
	case *Pass:
		b.WriteString("(pass)")
	case *Break:
		b.WriteString("(break)")
	case *Continue:
		b.WriteString("(continue)")
	case *Return:
		b.WriteString("(return")
		if v.Value != nil {
			b.WriteString(" ")
			printNode(b, v.Value)
		}
		b.WriteString(")")
	case *Raise:
		b.WriteString("(raise")
		for _, part := range []Expr{v.Type, v.Value, v.Traceback} {
			if part != nil {
				b.WriteString(" ")
				printNode(b, part)
			}
		}
		b.WriteString(")")
	case *Import:
		b.WriteString("(import")
		for _, n := range v.Names {
			fmt.Fprintf(b, " %s", aliasString(n))
		}
		b.WriteString(")")
	case *ImportFrom:
		fmt.Fprintf(b, "(import-from %s", v.Module)
		if v.Star {
			b.WriteString(" *")
		}
		for _, n := range v.Names {
			fmt.Fprintf(b, " %s", aliasString(n))
		}
		b.WriteString(")")
	case *Global:
		fmt.Fprintf(b, "(global %s)", strings.Join(v.Names, " "))
	case *Exec:
		b.WriteString("(exec ")
		printNode(b, v.Code)
		b.WriteString(")")
	case *Assert:
		b.WriteString("(assert ")
		printNode(b, v.Test)
		if v.Msg != nil {
			b.WriteString(" ")
			printNode(b, v.Msg)
		}
		b.WriteString(")")
	case *If:
		b.WriteString("(if ")
		printNode(b, v.Test)
		b.WriteString(" ")
		printSeq(b, "then", stmtsToNodes(v.Body))
		for _, e := range v.Elifs {
			b.WriteString(" (elif ")
			printNode(b, e.Test)
			b.WriteString(" ")
			printSeq(b, "then", stmtsToNodes(e.Body))
			b.WriteString(")")
		}
		if len(v.Else) > 0 {
			b.WriteString(" ")
			printSeq(b, "else", stmtsToNodes(v.Else))
		}
		b.WriteString(")")
	case *While:
		b.WriteString("(while ")
		printNode(b, v.Test)
		b.WriteString(" ")
		printSeq(b, "body", stmtsToNodes(v.Body))
		if len(v.Else) > 0 {
			b.WriteString(" ")
			printSeq(b, "else", stmtsToNodes(v.Else))
		}
		b.WriteString(")")
	case *For:
		b.WriteString("(for ")
		printNode(b, v.Target)
		b.WriteString(" ")
		printNode(b, v.Iter)
		b.WriteString(" ")
		printSeq(b, "body", stmtsToNodes(v.Body))
		if len(v.Else) > 0 {
			b.WriteString(" ")
			printSeq(b, "else", stmtsToNodes(v.Else))
		}
		b.WriteString(")")
	case *Try:
		b.WriteString("(try ")
		printSeq(b, "body", stmtsToNodes(v.Body))
		for _, h := range v.Handlers {
			b.WriteString(" (except ")
			if h.Type == nil {
				b.WriteString("*")
			} else {
				printNode(b, h.Type)
			}
			if h.Name != "" {
				fmt.Fprintf(b, " as %s", h.Name)
			}
			b.WriteString(" ")
			printSeq(b, "body", stmtsToNodes(h.Body))
			b.WriteString(")")
		}
		if len(v.Else) > 0 {
			b.WriteString(" ")
			printSeq(b, "else", stmtsToNodes(v.Else))
		}
		if len(v.Finally) > 0 {
			b.WriteString(" ")
			printSeq(b, "finally", stmtsToNodes(v.Finally))
		}
		b.WriteString(")")
	case *With:
		b.WriteString("(with")
		for _, it := range v.Items {
			b.WriteString(" (")
			printNode(b, it.Context)
			if it.Vars != nil {
				b.WriteString(" as ")
				printNode(b, it.Vars)
			}
			b.WriteString(")")
		}
		b.WriteString(" ")
		printSeq(b, "body", stmtsToNodes(v.Body))
		b.WriteString(")")
	case *FuncDef:
		fmt.Fprintf(b, "(def %s (%s) ", v.Name, paramList(v.Params, v.VarargsName, v.VarkwargsName))
		printSeq(b, "body", stmtsToNodes(v.Body))
		b.WriteString(")")
	case *ClassDef:
		fmt.Fprintf(b, "(class %s (", v.Name)
		for i, base := range v.Bases {
			if i > 0 {
				b.WriteString(" ")
			}
			printNode(b, base)
		}
		b.WriteString(") ")
		printSeq(b, "body", stmtsToNodes(v.Body))
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "(unknown %T)", n)
	}
}

func printSeq(b *strings.Builder, tag string, nodes []Node) {
	fmt.Fprintf(b, "(%s", tag)
	for _, n := range nodes {
		b.WriteString(" ")
		printNode(b, n)
	}
	b.WriteString(")")
}

func printComp(b *strings.Builder, tag string, elem Expr, clauses []CompClause) {
	fmt.Fprintf(b, "(%s ", tag)
	printNode(b, elem)
	printClauses(b, clauses)
	b.WriteString(")")
}

func printClauses(b *strings.Builder, clauses []CompClause) {
	for _, c := range clauses {
		b.WriteString(" (for ")
		printNode(b, c.Target)
		b.WriteString(" in ")
		printNode(b, c.Iter)
		for _, cond := range c.Ifs {
			b.WriteString(" (if ")
			printNode(b, cond)
			b.WriteString(")")
		}
		b.WriteString(")")
	}
}

func printArg(b *strings.Builder, a Arg) {
	prefix := ""
	switch {
	case a.DoubleStar:
		prefix = "**"
	case a.Star:
		prefix = "*"
	case a.Name != "":
		prefix = a.Name + "="
	}
	b.WriteString(prefix)
	printNode(b, a.Value)
}

func aliasString(a AliasedName) string {
	if a.Asname == "" {
		return a.Path
	}
	return a.Path + " as " + a.Asname
}

func paramList(params []Param, vararg, kwarg string) string {
	parts := make([]string, 0, len(params)+2)
	for _, p := range params {
		s := p.Name
		if p.Default != nil {
			s += "=" + Print(p.Default)
		}
		parts = append(parts, s)
	}
	if vararg != "" {
		parts = append(parts, "*"+vararg)
	}
	if kwarg != "" {
		parts = append(parts, "**"+kwarg)
	}
	return strings.Join(parts, " ")
}

func printLiteral(b *strings.Builder, l *Literal) {
	switch l.Kind {
	case IntLit:
		fmt.Fprintf(b, "(int %d)", l.Int)
	case FloatLit:
		fmt.Fprintf(b, "(float %s)", strconv.FormatFloat(l.Float, 'g', -1, 64))
	case BytesLit:
		fmt.Fprintf(b, "(bytes %q)", l.Str)
	case UnicodeLit:
		fmt.Fprintf(b, "(str %q)", l.Str)
	case BoolLit:
		fmt.Fprintf(b, "(bool %v)", l.Bool)
	case NoneLit:
		b.WriteString("(none)")
	}
}

func stmtsToNodes(stmts []Stmt) []Node {
	out := make([]Node, len(stmts))
	for i, s := range stmts {
		out[i] = s
	}
	return out
}

func exprsToNodes(exprs []Expr) []Node {
	out := make([]Node, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}
