// Package analyze implements the Analysis pass of spec.md §4.8: a
// second AST pass that evaluates every expression against the Value
// lattice (internal/value), propagates types (and known values where
// possible) through assignment, branches, loops and calls, and
// triggers recursive advancement of imported modules reached through
// attribute lookups.
//
// Grounded on spec.md §4.8 directly for the merge/branch/call rules;
// original_source/Source/Compiler/AnalysisVisitor.cc resolves the
// `assert` message open question (SPEC_FULL.md "Supplemented
// features").
package analyze

import (
	stderrors "errors"
	"fmt"

	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
	"github.com/nemesys-lang/nsc/internal/registry"
	"github.com/nemesys-lang/nsc/internal/value"
)

// errNameNotFound is resolveName's internal sentinel; callers always
// convert it into an ANA002 *errors.Report before it escapes this
// package.
var errNameNotFound = stderrors.New("analyze: name not found")

// augBase maps an augmented-assignment token to its non-augmented
// binary operator (spec.md §4.3's twelve augmented-assignment forms).
func augBase(op lexer.Type) lexer.Type {
	switch op {
	case lexer.PLUSEQ:
		return lexer.PLUS
	case lexer.MINUSEQ:
		return lexer.MINUS
	case lexer.STAREQ:
		return lexer.STAR
	case lexer.SLASHEQ:
		return lexer.SLASH
	case lexer.DSLASHEQ:
		return lexer.DSLASH
	case lexer.PERCENTEQ:
		return lexer.PERCENT
	case lexer.DSTAREQ:
		return lexer.DSTAR
	case lexer.AMPEQ:
		return lexer.AMP
	case lexer.PIPEEQ:
		return lexer.PIPE
	case lexer.CARETEQ:
		return lexer.CARET
	case lexer.LSHIFTEQ:
		return lexer.LSHIFT
	case lexer.RSHIFTEQ:
		return lexer.RSHIFT
	}
	return op
}

func isShortCircuit(op lexer.Type) bool {
	return op == lexer.AND || op == lexer.OR
}

// ModuleResolver advances a named module to at least the requested
// phase, returning its context. internal/pipeline supplies the real
// implementation; this indirection avoids an import cycle between
// analyze and the driver package that depends on it.
type ModuleResolver interface {
	Advance(name string, target registry.Phase) (*registry.ModuleContext, error)
}

// Analyzer carries the mutable state threaded through one module's
// analysis pass.
type Analyzer struct {
	Global  *registry.GlobalContext
	Module  *registry.ModuleContext
	Resolve ModuleResolver
}

// funcEnv is one function activation's name resolution environment
// during analysis.
type funcEnv struct {
	fn    *registry.FunctionContext
	class *registry.ClassContext
	// inInit is true while analyzing __init__'s body, relaxing the
	// "only __init__ may introduce new attributes" rule (spec.md §4.8).
	inInit bool
}

// Run analyzes an already-annotated module's top-level body
// (mod.Phase must be Annotated). A function body is analyzed through
// AnalyzeFunction when its def is reached (all-Indeterminate
// arguments) and again for each new argument-type signature a call
// site needs.
func Run(global *registry.GlobalContext, mod *registry.ModuleContext, resolve ModuleResolver) error {
	a := &Analyzer{Global: global, Module: mod, Resolve: resolve}
	return a.stmts(mod.AST.Body, nil)
}

// AnalyzeFunction (re-)analyzes fn's body with argTypes bound to its
// declared positional arguments, returning the union of return Values
// observed (spec.md §4.8 "return: union the returned Value into the
// function's return_types"). This is invoked with all-Indeterminate
// args when the def is analyzed (and once more by the compilation
// driver after the module body), and by resolveCall for every new
// fragment signature a call site needs (spec.md §4.9 Fragment
// selection).
func AnalyzeFunction(global *registry.GlobalContext, resolve ModuleResolver, fn *registry.FunctionContext, argTypes []*value.Value) ([]*value.Value, error) {
	a := &Analyzer{Global: global, Module: fn.Module, Resolve: resolve}
	for i, arg := range fn.Args {
		v := value.NewIndeterminate()
		if i < len(argTypes) && argTypes[i] != nil {
			v = argTypes[i]
		}
		fn.SetLocalValue(arg.Name, v)
	}
	var cc *registry.ClassContext
	if fn.ClassID != 0 && global != nil {
		cc, _ = global.ContextForClass(fn.ClassID, nil)
	}
	env := &funcEnv{fn: fn, class: cc, inInit: fn.Name == "__init__"}
	fn.ReturnTypes = nil
	if fn.AST != nil {
		if err := a.stmts(fn.AST.Body, env); err != nil {
			return nil, err
		}
	}
	// A function whose only return is None keeps an empty return-type
	// set (spec.md §4.8; original_source/AnalysisVisitor.cc:916-918
	// deletes a sole None return type the same way).
	if len(fn.ReturnTypes) == 1 && fn.ReturnTypes[0].Type == value.NoneType {
		fn.ReturnTypes = nil
	}
	return fn.ReturnTypes, nil
}

func (a *Analyzer) err(code string, off int, msg string) error {
	return errors.Wrap(errors.New(code, errors.PhaseAnalyze, a.Module.Source, off, 0, 0, msg))
}

// ---------------------------------------------------------------------
// Name resolution / assignment
// ---------------------------------------------------------------------

// resolveName looks up name's current Value, preferring an explicit
// `global` binding, then the function's own locals, then the module
// global table, then the process-wide builtin namespace.
func (a *Analyzer) resolveName(name string, env *funcEnv) (*value.Value, error) {
	if env != nil {
		if env.fn.ExplicitGlobals[name] {
			if slot, ok := a.Module.Global(name); ok {
				return slot.Value, nil
			}
		} else if v, ok := env.fn.LocalValue(name); ok {
			return v, nil
		}
	}
	if slot, ok := a.Module.Global(name); ok {
		return slot.Value, nil
	}
	if v, ok := a.Global.Builtin(name); ok {
		return v, nil
	}
	return nil, errNameNotFound
}

// recordAssignment applies spec.md §4.8's merge rule to the slot
// backing name (a local, an explicit global, or a module global) and
// returns an error if the rebind changes the slot's type.
func (a *Analyzer) recordAssignment(name string, v *value.Value, off int, env *funcEnv) error {
	if env != nil && !env.fn.ExplicitGlobals[name] {
		cur, ok := env.fn.LocalValue(name)
		if !ok {
			env.fn.SetLocalValue(name, v)
			return nil
		}
		merged, err := mergeSlot(cur, v)
		if err != nil {
			return a.err(errors.ANA001, off, "variable "+name+" changes type: "+err.Error())
		}
		env.fn.SetLocalValue(name, merged)
		return nil
	}
	slot, created := a.Module.DeclareGlobal(name)
	if created {
		slot.Value = v
		return nil
	}
	merged, err := mergeSlot(slot.Value, v)
	if err != nil {
		return a.err(errors.ANA001, off, "global "+name+" changes type: "+err.Error())
	}
	slot.Value = merged
	return nil
}

// mergeSlot implements spec.md §4.8's record_assignment rule: an
// Indeterminate slot installs the new Value outright; otherwise the
// two must be type-equal, and the result clears the payload
// (preserving type) unless the two Values are fully Equal.
func mergeSlot(cur, next *value.Value) (*value.Value, error) {
	if cur.Type == value.Indeterminate {
		return next, nil
	}
	if !cur.TypesEqual(next) {
		return nil, &typeChangeError{from: cur, to: next}
	}
	if cur.Known && next.Known && cur.Equal(next) {
		return cur, nil
	}
	return value.TypeOnly(cur.Type, cur.ExtensionTypes...), nil
}

type typeChangeError struct{ from, to *value.Value }

func (e *typeChangeError) Error() string {
	return e.from.Type.String() + " -> " + e.to.Type.String()
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (a *Analyzer) stmts(body []ast.Stmt, env *funcEnv) error {
	for _, s := range body {
		if err := a.stmt(s, env); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) stmt(stmt ast.Stmt, env *funcEnv) error {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := a.expr(s.Value, env)
		return err

	case *ast.Assign:
		v, err := a.expr(s.Value, env)
		if err != nil {
			return err
		}
		for _, t := range s.Targets {
			if err := a.assignTo(t, v, env); err != nil {
				return err
			}
		}
		return nil

	case *ast.AugAssign:
		cur, err := a.expr(s.Target, env)
		if err != nil {
			return err
		}
		rhs, err := a.expr(s.Value, env)
		if err != nil {
			return err
		}
		result, err := value.Binary(augBase(s.Op), cur, rhs)
		if err != nil {
			return a.err(errors.ANA003, s.Offset(), err.Error())
		}
		return a.assignTo(s.Target, result, env)

	case *ast.Del:
		for _, t := range s.Targets {
			if id, ok := t.(*ast.Identifier); ok && env != nil {
				env.fn.DeletedVariables[id.Name] = true
			}
		}
		return nil

	case *ast.Return:
		var v *value.Value
		if s.Value != nil {
			var err error
			v, err = a.expr(s.Value, env)
			if err != nil {
				return err
			}
		} else {
			v = value.NewNone()
		}
		if env != nil {
			env.fn.ReturnTypes = append(env.fn.ReturnTypes, v)
		}
		return nil

	case *ast.Raise:
		for _, e := range []ast.Expr{s.Type, s.Value, s.Traceback} {
			if e != nil {
				if _, err := a.expr(e, env); err != nil {
					return err
				}
			}
		}
		return nil

	case *ast.Assert:
		testVal, err := a.expr(s.Test, env)
		if err != nil {
			return err
		}
		// Supplemented: the message expression is analyzed only when the
		// condition cannot be statically proven true (spec.md §9 Open
		// Question, resolved per SPEC_FULL.md).
		if truth, known := testVal.Truthy(); !(known && truth) {
			if s.Msg != nil {
				if _, err := a.expr(s.Msg, env); err != nil {
					return err
				}
			}
		}
		return nil

	case *ast.Global:
		return nil // bindings/mutability already fixed by Annotation

	case *ast.Exec:
		for _, e := range []ast.Expr{s.Code, s.Globals, s.Locals} {
			if e != nil {
				if _, err := a.expr(e, env); err != nil {
					return err
				}
			}
		}
		return nil

	case *ast.If:
		return a.ifStmt(s, env)

	case *ast.While:
		if _, err := a.expr(s.Test, env); err != nil {
			return err
		}
		if err := a.stmts(s.Body, env); err != nil {
			return err
		}
		return a.stmts(s.Else, env)

	case *ast.For:
		iterVal, err := a.expr(s.Iter, env)
		if err != nil {
			return err
		}
		elemVal := elementValueOf(iterVal)
		if err := a.assignTo(s.Target, elemVal, env); err != nil {
			return err
		}
		if err := a.stmts(s.Body, env); err != nil {
			return err
		}
		return a.stmts(s.Else, env)

	case *ast.Try:
		if err := a.stmts(s.Body, env); err != nil {
			return err
		}
		for _, h := range s.Handlers {
			if h.Type != nil {
				if err := a.checkExceptType(h.Type, env); err != nil {
					return err
				}
			}
			if h.Name != "" && env != nil {
				env.fn.SetLocalValue(h.Name, value.TypeOnly(value.InstanceType))
			}
			if err := a.stmts(h.Body, env); err != nil {
				return err
			}
		}
		if err := a.stmts(s.Else, env); err != nil {
			return err
		}
		return a.stmts(s.Finally, env)

	case *ast.With:
		for _, it := range s.Items {
			ctxVal, err := a.expr(it.Context, env)
			if err != nil {
				return err
			}
			if it.Vars != nil {
				if err := a.assignTo(it.Vars, ctxVal, env); err != nil {
					return err
				}
			}
		}
		return a.stmts(s.Body, env)

	case *ast.FuncDef:
		return a.funcDefStmt(s, env)

	case *ast.ClassDef:
		return a.classDefStmt(s, env)

	case *ast.Pass, *ast.Break, *ast.Continue:
		return nil
	}
	return nil
}

// checkExceptType resolves an except clause's type expression to a
// single Class or a statically-known Tuple of Classes (spec.md §4.8).
func (a *Analyzer) checkExceptType(typeExpr ast.Expr, env *funcEnv) error {
	v, err := a.expr(typeExpr, env)
	if err != nil {
		return err
	}
	switch v.Type {
	case value.ClassType:
		return nil
	case value.TupleType:
		if !v.Known {
			return a.err(errors.ANA005, typeExpr.Offset(), "except clause type tuple is not statically resolvable")
		}
		for _, el := range v.Elements {
			if el.Type != value.ClassType {
				return a.err(errors.ANA005, typeExpr.Offset(), "except clause tuple element is not a Class")
			}
		}
		return nil
	}
	return a.err(errors.ANA005, typeExpr.Offset(), "except clause type must be a Class or Tuple of Classes")
}

// ifStmt evaluates the predicate; when its truthiness is statically
// known, flags the branch and analyzes only the live side(s) (spec.md
// §4.8); otherwise analyzes every branch.
func (a *Analyzer) ifStmt(s *ast.If, env *funcEnv) error {
	testVal, err := a.expr(s.Test, env)
	if err != nil {
		return err
	}
	if truth, known := testVal.Truthy(); known {
		if truth {
			s.AlwaysTrue = true
			return a.stmts(s.Body, env)
		}
		s.AlwaysFalse = true
		return a.elifChain(s.Else, s.Elifs, env, 0)
	}
	if err := a.stmts(s.Body, env); err != nil {
		return err
	}
	for _, elif := range s.Elifs {
		if _, err := a.expr(elif.Test, env); err != nil {
			return err
		}
		if err := a.stmts(elif.Body, env); err != nil {
			return err
		}
	}
	return a.stmts(s.Else, env)
}

// elifChain analyzes a statically-false If's elif arms as a nested
// if/elif/else chain when the parent predicate is known false; the
// else body is analyzed unless some elif predicate is known true.
func (a *Analyzer) elifChain(elseBody []ast.Stmt, elifs []ast.ElifClause, env *funcEnv, idx int) error {
	if idx >= len(elifs) {
		return a.stmts(elseBody, env)
	}
	clause := elifs[idx]
	testVal, err := a.expr(clause.Test, env)
	if err != nil {
		return err
	}
	if truth, known := testVal.Truthy(); known {
		if truth {
			return a.stmts(clause.Body, env)
		}
		return a.elifChain(elseBody, elifs, env, idx+1)
	}
	if err := a.stmts(clause.Body, env); err != nil {
		return err
	}
	return a.elifChain(elseBody, elifs, env, idx+1)
}

// elementValueOf computes a for-loop's per-iteration element Value
// from the iterable's extension types (a List/Set element type, a
// one-slot Tuple's slot type, a Dict's key type); Bytes and Unicode
// iterate as their own type, and anything else yields Indeterminate.
// Known contents are not consulted (spec.md §4.8).
func elementValueOf(iter *value.Value) *value.Value {
	switch iter.Type {
	case value.ListType, value.TupleType, value.SetType:
		if len(iter.ExtensionTypes) == 1 {
			return iter.ExtensionTypes[0]
		}
	case value.DictType:
		if len(iter.ExtensionTypes) == 2 {
			return iter.ExtensionTypes[0]
		}
	case value.BytesType:
		return value.TypeOnly(value.BytesType)
	case value.UnicodeType:
		return value.TypeOnly(value.UnicodeType)
	}
	return value.TypeOnly(value.Indeterminate)
}

// assignTo mirrors annotate.recordWrite but carries a concrete Value,
// recursing into TupleExpr targets and resolving attribute/subscript
// targets against their base Value's class, per spec.md §4.8.
func (a *Analyzer) assignTo(target ast.Expr, v *value.Value, env *funcEnv) error {
	switch t := target.(type) {
	case *ast.Identifier:
		return a.recordAssignment(t.Name, v, t.Offset(), env)
	case *ast.TupleExpr:
		for i, el := range t.Elements {
			var elVal *value.Value
			if v.Known && i < len(v.Elements) {
				elVal = v.Elements[i]
			} else if i < len(v.ExtensionTypes) {
				elVal = v.ExtensionTypes[i]
			} else {
				elVal = value.TypeOnly(value.Indeterminate)
			}
			if err := a.assignTo(el, elVal, env); err != nil {
				return err
			}
		}
		return nil
	case *ast.Attribute:
		return a.assignAttribute(t, v, env)
	case *ast.Subscript, *ast.Slice:
		// Item/slice assignment mutates a container in place; the
		// container's own declared type does not change.
		return nil
	}
	return nil
}

func (a *Analyzer) assignAttribute(attr *ast.Attribute, v *value.Value, env *funcEnv) error {
	baseVal, err := a.expr(attr.Base, env)
	if err != nil {
		return err
	}
	if baseVal.Type != value.InstanceType {
		return nil
	}
	cc, err := a.Global.ContextForClass(baseVal.ID, nil)
	if err != nil {
		return a.err(errors.ANA006, attr.Offset(), "assignment to attribute of unresolved class")
	}
	slot, created := cc.DeclareAttribute(attr.Name)
	if !created {
		merged, mergeErr := mergeSlot(slot.Value, v)
		if mergeErr != nil {
			return a.err(errors.ANA001, attr.Offset(), "attribute "+attr.Name+" changes type: "+mergeErr.Error())
		}
		slot.Value = merged
		return nil
	}
	if env == nil || !env.inInit {
		return a.err(errors.ANA004, attr.Offset(), "attribute "+attr.Name+" introduced outside __init__")
	}
	slot.Value = v
	cc.MarkDynamic(attr.Name)
	return nil
}

func (a *Analyzer) funcDefStmt(def *ast.FuncDef, env *funcEnv) error {
	fc, err := a.Global.ContextForFunction(def.ID, def.Name, nil)
	if err != nil {
		return err
	}
	argTypes := make([]*value.Value, len(fc.Args))
	for i := range argTypes {
		argTypes[i] = value.NewIndeterminate()
	}
	_, err = AnalyzeFunction(a.Global, a.Resolve, fc, argTypes)
	if err != nil {
		return err
	}
	v := value.NewFunction(def.ID)
	return a.recordAssignment(def.Name, v, def.Offset(), env)
}

func (a *Analyzer) classDefStmt(def *ast.ClassDef, env *funcEnv) error {
	cc, err := a.Global.ContextForClass(def.ID, nil)
	if err != nil {
		return err
	}
	for _, b := range def.Bases {
		baseVal, err := a.expr(b, env)
		if err != nil {
			return err
		}
		if baseVal.Type == value.ClassType {
			if base, err := a.Global.ContextForClass(baseVal.ID, nil); err == nil {
				cc.Bases = append(cc.Bases, base)
			}
		}
	}
	for _, stmt := range def.Body {
		fd, ok := stmt.(*ast.FuncDef)
		if !ok {
			continue
		}
		fc, err := a.Global.ContextForFunction(fd.ID, fd.Name, nil)
		if err != nil {
			return err
		}
		argTypes := make([]*value.Value, len(fc.Args))
		if len(argTypes) > 0 {
			argTypes[0] = value.NewInstance(def.ID, nil)
		}
		for i := 1; i < len(argTypes); i++ {
			argTypes[i] = value.NewIndeterminate()
		}
		if _, err := AnalyzeFunction(a.Global, a.Resolve, fc, argTypes); err != nil {
			return err
		}
	}
	v := value.NewClass(def.ID)
	return a.recordAssignment(def.Name, v, def.Offset(), env)
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

func (a *Analyzer) expr(e ast.Expr, env *funcEnv) (*value.Value, error) {
	v, err := a.evalExpr(e, env)
	if err != nil {
		return nil, err
	}
	setMeta(e, v)
	return v, nil
}

func setMeta(e ast.Expr, v *value.Value) {
	switch n := e.(type) {
	case *ast.Identifier:
		n.Value = v
	case *ast.Literal:
		n.Value = v
	case *ast.ListExpr:
		n.Value = v
	case *ast.TupleExpr:
		n.Value = v
	case *ast.SetExpr:
		n.Value = v
	case *ast.DictExpr:
		n.Value = v
	case *ast.ListComp:
		n.Value = v
	case *ast.SetComp:
		n.Value = v
	case *ast.GeneratorExp:
		n.Value = v
	case *ast.DictComp:
		n.Value = v
	case *ast.Lambda:
		n.Value = v
	case *ast.Conditional:
		n.Value = v
	case *ast.BinaryExpr:
		n.Value = v
	case *ast.UnaryExpr:
		n.Value = v
	case *ast.Subscript:
		n.Value = v
	case *ast.Slice:
		n.Value = v
	case *ast.Call:
		n.Value = v
	case *ast.Attribute:
		n.Value = v
	case *ast.Yield:
		n.Value = v
	}
}

func (a *Analyzer) evalExpr(e ast.Expr, env *funcEnv) (*value.Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return literalValue(n), nil
	case *ast.Identifier:
		v, err := a.resolveName(n.Name, env)
		if err != nil {
			return nil, a.err(errors.ANA002, n.Offset(), "reference to undefined name "+n.Name)
		}
		return v, nil
	case *ast.ListExpr:
		vals, err := a.exprs(n.Elements, env)
		if err != nil {
			return nil, err
		}
		return value.NewList(vals), nil
	case *ast.TupleExpr:
		vals, err := a.exprs(n.Elements, env)
		if err != nil {
			return nil, err
		}
		return value.NewTuple(vals), nil
	case *ast.SetExpr:
		vals, err := a.exprs(n.Elements, env)
		if err != nil {
			return nil, err
		}
		return value.NewSet(vals), nil
	case *ast.DictExpr:
		keys, err := a.exprs(n.Keys, env)
		if err != nil {
			return nil, err
		}
		vals, err := a.exprs(n.Values, env)
		if err != nil {
			return nil, err
		}
		pairs := make([]value.Pair, len(keys))
		for i := range keys {
			pairs[i] = value.Pair{Key: keys[i], Val: vals[i]}
		}
		return value.NewDict(pairs), nil
	case *ast.ListComp:
		if err := a.compClauses(n.Clauses, env); err != nil {
			return nil, err
		}
		elVal, err := a.expr(n.Element, env)
		if err != nil {
			return nil, err
		}
		return value.TypeOnly(value.ListType, value.TypeOnly(elVal.Type, elVal.ExtensionTypes...)), nil
	case *ast.SetComp:
		if err := a.compClauses(n.Clauses, env); err != nil {
			return nil, err
		}
		elVal, err := a.expr(n.Element, env)
		if err != nil {
			return nil, err
		}
		return value.TypeOnly(value.SetType, value.TypeOnly(elVal.Type, elVal.ExtensionTypes...)), nil
	case *ast.GeneratorExp:
		if err := a.compClauses(n.Clauses, env); err != nil {
			return nil, err
		}
		if _, err := a.expr(n.Element, env); err != nil {
			return nil, err
		}
		return value.TypeOnly(value.Indeterminate), nil
	case *ast.DictComp:
		if err := a.compClauses(n.Clauses, env); err != nil {
			return nil, err
		}
		kv, err := a.expr(n.Key, env)
		if err != nil {
			return nil, err
		}
		vv, err := a.expr(n.Value, env)
		if err != nil {
			return nil, err
		}
		return value.TypeOnly(value.DictType, value.TypeOnly(kv.Type), value.TypeOnly(vv.Type)), nil
	case *ast.Lambda:
		return a.lambdaValue(n, env)
	case *ast.Conditional:
		return a.conditional(n, env)
	case *ast.BinaryExpr:
		return a.binary(n, env)
	case *ast.UnaryExpr:
		operand, err := a.expr(n.Operand, env)
		if err != nil {
			return nil, err
		}
		v, opErr := value.Unary(n.Op, operand)
		if opErr != nil {
			return nil, a.err(errors.ANA003, n.Offset(), opErr.Error())
		}
		return v, nil
	case *ast.Subscript:
		return a.subscript(n, env)
	case *ast.Slice:
		base, err := a.expr(n.Base, env)
		if err != nil {
			return nil, err
		}
		for _, b := range []ast.Expr{n.Lower, n.Upper, n.Step} {
			if b != nil {
				if _, err := a.expr(b, env); err != nil {
					return nil, err
				}
			}
		}
		return value.TypeOnly(base.Type, base.ExtensionTypes...), nil
	case *ast.Call:
		return a.call(n, env)
	case *ast.Attribute:
		return a.attribute(n, env)
	case *ast.Yield:
		var v *value.Value
		if n.Value != nil {
			var err error
			v, err = a.expr(n.Value, env)
			if err != nil {
				return nil, err
			}
		} else {
			v = value.NewNone()
		}
		if env != nil {
			env.fn.ReturnTypes = append(env.fn.ReturnTypes, v)
		}
		return value.TypeOnly(value.Indeterminate), nil
	}
	return value.TypeOnly(value.Indeterminate), nil
}

func (a *Analyzer) exprs(list []ast.Expr, env *funcEnv) ([]*value.Value, error) {
	out := make([]*value.Value, len(list))
	for i, e := range list {
		v, err := a.expr(e, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a *Analyzer) compClauses(clauses []ast.CompClause, env *funcEnv) error {
	for _, c := range clauses {
		iterVal, err := a.expr(c.Iter, env)
		if err != nil {
			return err
		}
		if err := a.assignTo(c.Target, elementValueOf(iterVal), env); err != nil {
			return err
		}
		for _, cond := range c.Ifs {
			if _, err := a.expr(cond, env); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Analyzer) lambdaValue(lam *ast.Lambda, env *funcEnv) (*value.Value, error) {
	id := registry.NextID()
	fc, err := a.Global.ContextForFunction(id, "<lambda>", a.Module)
	if err != nil {
		return nil, err
	}
	for _, p := range lam.Params {
		fc.Args = append(fc.Args, registry.ArgSpec{Name: p.Name})
		fc.DeclareLocal(p.Name)
	}
	argTypes := make([]*value.Value, len(fc.Args))
	for i := range argTypes {
		argTypes[i] = value.NewIndeterminate()
	}
	for i, arg := range fc.Args {
		fc.SetLocalValue(arg.Name, argTypes[i])
	}
	inner := &funcEnv{fn: fc, class: env.classOf()}
	bodyVal, err := a.expr(lam.Body, inner)
	if err != nil {
		return nil, err
	}
	fc.ReturnTypes = []*value.Value{bodyVal}
	return value.NewFunction(id), nil
}

func (e *funcEnv) classOf() *registry.ClassContext {
	if e == nil {
		return nil
	}
	return e.class
}

func (a *Analyzer) conditional(n *ast.Conditional, env *funcEnv) (*value.Value, error) {
	testVal, err := a.expr(n.Test, env)
	if err != nil {
		return nil, err
	}
	bodyVal, err := a.expr(n.Body, env)
	if err != nil {
		return nil, err
	}
	elseVal, err := a.expr(n.Else, env)
	if err != nil {
		return nil, err
	}
	return value.Ternary(testVal, bodyVal, elseVal)
}

func (a *Analyzer) binary(n *ast.BinaryExpr, env *funcEnv) (*value.Value, error) {
	left, err := a.expr(n.Left, env)
	if err != nil {
		return nil, err
	}
	if isShortCircuit(n.Op) {
		// Short-circuit: the right side is always analyzed (so its
		// errors and metadata are recorded), but BinaryShortCircuit
		// ignores its Value when the left's truthiness is statically
		// decisive (spec.md §4.5).
		right, err := a.expr(n.Right, env)
		if err != nil {
			return nil, err
		}
		return value.BinaryShortCircuit(n.Op, left, right), nil
	}
	right, err := a.expr(n.Right, env)
	if err != nil {
		return nil, err
	}
	v, opErr := value.Binary(n.Op, left, right)
	if opErr != nil {
		return nil, a.err(errors.ANA003, n.Offset(), opErr.Error())
	}
	return v, nil
}

func (a *Analyzer) subscript(n *ast.Subscript, env *funcEnv) (*value.Value, error) {
	base, err := a.expr(n.Base, env)
	if err != nil {
		return nil, err
	}
	idx, err := a.expr(n.Index, env)
	if err != nil {
		return nil, err
	}
	switch base.Type {
	case value.ListType:
		if len(base.ExtensionTypes) == 1 {
			if base.Known && n.IndexIsConstant && idx.Known {
				i := idx.Int
				if i >= 0 && int(i) < len(base.Elements) {
					return base.Elements[i], nil
				}
			}
			return base.ExtensionTypes[0], nil
		}
	case value.TupleType:
		if base.Known && n.IndexIsConstant && idx.Known {
			i := idx.Int
			if i < 0 {
				i += int64(len(base.Elements))
			}
			if i >= 0 && int(i) < len(base.Elements) {
				return base.Elements[i], nil
			}
		}
		return value.TypeOnly(value.Indeterminate), nil
	case value.DictType:
		if len(base.ExtensionTypes) == 2 {
			return base.ExtensionTypes[1], nil
		}
	case value.BytesType:
		return value.TypeOnly(value.BytesType), nil
	case value.UnicodeType:
		return value.TypeOnly(value.UnicodeType), nil
	}
	return value.TypeOnly(value.Indeterminate), nil
}

// call resolves the callee expression and, when its Function/Class id
// is statically known, annotates the call site and resolves the
// argument-type specific fragment (spec.md §4.9 "Fragment dispatch"):
// an exact-match fragment is reused, a new argument-type tuple builds
// and caches a fresh one by re-analyzing the callee's body with those
// concrete types bound, and a builtin (no AST to re-analyze) falls
// back to its declaration-time return types.
func (a *Analyzer) call(n *ast.Call, env *funcEnv) (*value.Value, error) {
	calleeVal, err := a.expr(n.Func, env)
	if err != nil {
		return nil, err
	}
	argTypes := make([]*value.Value, 0, len(n.Args))
	for _, arg := range n.Args {
		v, err := a.expr(arg.Value, env)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, value.TypeOnly(v.Type, v.ExtensionTypes...))
	}

	switch calleeVal.Type {
	case value.FunctionType:
		n.CalleeFuncID = calleeVal.ID
		fc, err := a.Global.ContextForFunction(calleeVal.ID, "", nil)
		if err != nil || fc == nil {
			return value.TypeOnly(value.Indeterminate), nil
		}
		return a.resolveCall(fc, argTypes)
	case value.ClassType:
		n.CalleeFuncID = calleeVal.ID
		return value.NewInstance(calleeVal.ID, nil), nil
	}
	return value.TypeOnly(value.Indeterminate), nil
}

// resolveCall implements spec.md §4.9's fragment cache lookup: reuse an
// existing fragment whose declared argument types match argTypes, or,
// for a user-defined function, build one by re-analyzing the body with
// argTypes bound (the fragment is recorded before recursion so a
// direct or indirect recursive call with the same signature resolves
// to Indeterminate rather than looping forever).
func (a *Analyzer) resolveCall(fc *registry.FunctionContext, argTypes []*value.Value) (*value.Value, error) {
	if frag := fc.BestFragment(argTypes); frag != nil {
		if frag.ReturnType != nil {
			return frag.ReturnType, nil
		}
		return value.TypeOnly(value.Indeterminate), nil
	}
	if fc.AST != nil && !fc.IsBuiltin() {
		frag := fc.AddFragment(argTypes)
		returnTypes, err := AnalyzeFunction(a.Global, a.Resolve, fc, argTypes)
		if err != nil {
			return nil, err
		}
		frag.ReturnType = unionReturnTypes(returnTypes)
		return frag.ReturnType, nil
	}
	// A built-in that registers type-specific fragments may not be
	// recompiled for a signature it doesn't already have (spec.md §4.9
	// Fragment selection: "If no fragment matches and the function is a
	// built-in, fail"). A built-in with no registered fragments at all
	// dispatches on its single declared ReturnTypes signature instead.
	if fc.IsBuiltin() && len(fc.Fragments) > 0 {
		return nil, errors.Wrap(errors.New(errors.CMP001, errors.PhaseCompile, a.Module.Source, -1, 0, 0,
			fmt.Sprintf("no matching fragment for built-in %q with this argument signature", fc.Name)))
	}
	return unionReturnTypes(fc.ReturnTypes), nil
}

// unionReturnTypes merges every observed return Value into one
// (spec.md §4.8 "return: union the returned Value"), or None for a
// function that never returns a value (original_source/AnalysisVisitor.cc:179-181:
// an empty return_types set resolves the call to None, not Indeterminate).
func unionReturnTypes(vs []*value.Value) *value.Value {
	if len(vs) == 0 {
		return value.NewNone()
	}
	acc := vs[0]
	for _, v := range vs[1:] {
		acc = value.MergeTypes(acc, v)
	}
	return acc
}

// attribute resolves `base.Name`: on a Module base it advances the
// target module to Analyzed and reads its global; on an Instance base
// it resolves against the class's attributes; other bases fail
// (spec.md §4.8).
func (a *Analyzer) attribute(n *ast.Attribute, env *funcEnv) (*value.Value, error) {
	base, err := a.expr(n.Base, env)
	if err != nil {
		return nil, err
	}
	switch base.Type {
	case value.ModuleType:
		n.ModuleHint = base.Str
		target, err := a.Resolve.Advance(base.Str, registry.Analyzed)
		if err != nil {
			return nil, err
		}
		slot, ok := target.Global(n.Name)
		if !ok {
			return nil, a.err(errors.ANA006, n.Offset(), "module "+base.Str+" has no attribute "+n.Name)
		}
		return slot.Value, nil
	case value.InstanceType:
		cc, err := a.Global.ContextForClass(base.ID, nil)
		if err != nil {
			return value.TypeOnly(value.Indeterminate), nil
		}
		if slot, ok := cc.Attribute(n.Name); ok {
			return slot.Value, nil
		}
		return value.TypeOnly(value.Indeterminate), nil
	}
	return nil, a.err(errors.ANA006, n.Offset(), "attribute lookup on unsupported base type "+base.Type.String())
}

func literalValue(lit *ast.Literal) *value.Value {
	switch lit.Kind {
	case ast.IntLit:
		return value.NewInt(lit.Int)
	case ast.FloatLit:
		return value.NewFloat(lit.Float)
	case ast.BytesLit:
		return value.NewBytes(lit.Str)
	case ast.UnicodeLit:
		return value.NewUnicode(lit.Str)
	case ast.BoolLit:
		return value.NewBool(lit.Bool)
	case ast.NoneLit:
		return value.NewNone()
	}
	return value.TypeOnly(value.Indeterminate)
}
