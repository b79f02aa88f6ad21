// Package annotate implements the Annotation pass of spec.md §4.7: a
// first AST pass over a freshly parsed module that allocates stable
// function/class ids, discovers local/global variable names, records
// import dependencies, and assigns split ids to call/yield sites.
//
// Grounded on sunholo-data-ailang/internal/ast's "mutable-state visitor
// over the AST" convention (a struct holding scope state that descends
// recursively), retargeted at the
// registry.FunctionContext/ModuleContext/ClassContext shape of
// spec.md §3/§4.6 rather than AILANG's own type-checking environment.
package annotate

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/registry"
)

var reservedNames = map[string]bool{"True": true, "False": true, "None": true}

// Annotator carries the mutable state threaded through one module's
// annotation pass.
type Annotator struct {
	Global  *registry.GlobalContext
	Module  *registry.ModuleContext
	Resolve ImportResolver
}

// ImportResolver advances a named module to at least the requested
// phase; internal/pipeline.Driver supplies the real implementation,
// tests a fake. This breaks the import cycle annotate would otherwise have
// with the driver package that depends on it.
type ImportResolver interface {
	Advance(name string, target registry.Phase) (*registry.ModuleContext, error)
}

// scope is one function activation's local tracking state. A nil
// scope means module (global) scope.
type scope struct {
	fn *registry.FunctionContext
	// writtenBeforeGlobal records names locally written before any
	// `global` declaration was seen for them, to catch ANN002.
	writtenBeforeGlobal map[string]bool
	// class, when non-nil, is the enclosing ClassContext for a method
	// body (nil for free functions).
	class *registry.ClassContext
}

func newScope(fn *registry.FunctionContext, class *registry.ClassContext) *scope {
	return &scope{fn: fn, writtenBeforeGlobal: map[string]bool{}, class: class}
}

// Run annotates an already-parsed module: mod.AST must be set and
// mod.Phase must be Parsed.
func Run(global *registry.GlobalContext, mod *registry.ModuleContext, resolve ImportResolver) error {
	a := &Annotator{Global: global, Module: mod, Resolve: resolve}
	return a.annotateBody(mod.AST.Body, nil)
}

func (a *Annotator) err(code string, off int, msg string) error {
	return errors.Wrap(errors.New(code, errors.PhaseAnnotate, a.Module.Source, off, 0, 0, msg))
}

// annotateBody walks a statement list in order, threading sc (nil at
// module scope) through nested defs/classes.
func (a *Annotator) annotateBody(body []ast.Stmt, sc *scope) error {
	for _, stmt := range body {
		if err := a.annotateStmt(stmt, sc); err != nil {
			return err
		}
	}
	return nil
}

func (a *Annotator) annotateStmt(stmt ast.Stmt, sc *scope) error {
	switch s := stmt.(type) {
	case *ast.Assign:
		for _, t := range s.Targets {
			if err := a.annotateExpr(t, sc); err != nil {
				return err
			}
			if err := a.recordWrite(t, sc); err != nil {
				return err
			}
		}
		return a.annotateExpr(s.Value, sc)

	case *ast.AugAssign:
		if err := a.annotateExpr(s.Target, sc); err != nil {
			return err
		}
		if err := a.recordWrite(s.Target, sc); err != nil {
			return err
		}
		return a.annotateExpr(s.Value, sc)

	case *ast.ExprStmt:
		return a.annotateExpr(s.Value, sc)

	case *ast.Del:
		for _, t := range s.Targets {
			if name, ok := t.(*ast.Identifier); ok && sc != nil {
				sc.fn.DeletedVariables[name.Name] = true
			}
		}
		return nil

	case *ast.Return:
		if s.Value != nil {
			return a.annotateExpr(s.Value, sc)
		}
		return nil

	case *ast.Raise:
		for _, e := range []ast.Expr{s.Type, s.Value, s.Traceback} {
			if e != nil {
				if err := a.annotateExpr(e, sc); err != nil {
					return err
				}
			}
		}
		return nil

	case *ast.Import:
		return a.annotateImport(s, sc)

	case *ast.ImportFrom:
		return a.annotateImportFrom(s, sc)

	case *ast.Global:
		if sc == nil {
			return nil
		}
		for _, name := range s.Names {
			if sc.writtenBeforeGlobal[name] {
				return a.err(errors.ANN002, stmt.Offset(),
					"global declaration for "+name+" follows a local write in the same function")
			}
			sc.fn.ExplicitGlobals[name] = true
			if slot, created := a.Module.DeclareGlobal(name); true {
				_ = created
				slot.Mutable = true
			}
		}
		return nil

	case *ast.Exec:
		for _, e := range []ast.Expr{s.Code, s.Globals, s.Locals} {
			if e != nil {
				if err := a.annotateExpr(e, sc); err != nil {
					return err
				}
			}
		}
		return nil

	case *ast.Assert:
		if err := a.annotateExpr(s.Test, sc); err != nil {
			return err
		}
		if s.Msg != nil {
			return a.annotateExpr(s.Msg, sc)
		}
		return nil

	case *ast.If:
		if err := a.annotateExpr(s.Test, sc); err != nil {
			return err
		}
		if err := a.annotateBody(s.Body, sc); err != nil {
			return err
		}
		for _, elif := range s.Elifs {
			if err := a.annotateExpr(elif.Test, sc); err != nil {
				return err
			}
			if err := a.annotateBody(elif.Body, sc); err != nil {
				return err
			}
		}
		return a.annotateBody(s.Else, sc)

	case *ast.While:
		if err := a.annotateExpr(s.Test, sc); err != nil {
			return err
		}
		if err := a.annotateBody(s.Body, sc); err != nil {
			return err
		}
		return a.annotateBody(s.Else, sc)

	case *ast.For:
		if err := a.annotateExpr(s.Iter, sc); err != nil {
			return err
		}
		if err := a.annotateExpr(s.Target, sc); err != nil {
			return err
		}
		if err := a.recordWrite(s.Target, sc); err != nil {
			return err
		}
		if err := a.annotateBody(s.Body, sc); err != nil {
			return err
		}
		return a.annotateBody(s.Else, sc)

	case *ast.Try:
		if err := a.annotateBody(s.Body, sc); err != nil {
			return err
		}
		for _, h := range s.Handlers {
			if h.Type != nil {
				if err := a.annotateExpr(h.Type, sc); err != nil {
					return err
				}
			}
			if h.Name != "" && sc != nil {
				sc.fn.DeclareLocal(h.Name)
			}
			if err := a.annotateBody(h.Body, sc); err != nil {
				return err
			}
		}
		if err := a.annotateBody(s.Else, sc); err != nil {
			return err
		}
		return a.annotateBody(s.Finally, sc)

	case *ast.With:
		for _, it := range s.Items {
			if err := a.annotateExpr(it.Context, sc); err != nil {
				return err
			}
			if it.Vars != nil {
				if err := a.annotateExpr(it.Vars, sc); err != nil {
					return err
				}
				if err := a.recordWrite(it.Vars, sc); err != nil {
					return err
				}
			}
		}
		return a.annotateBody(s.Body, sc)

	case *ast.FuncDef:
		return a.annotateFuncDef(s, sc)

	case *ast.ClassDef:
		return a.annotateClassDef(s, sc)

	case *ast.Pass, *ast.Break, *ast.Continue:
		return nil
	}
	return nil
}

// recordWrite records a write to an l-value target: a bare Identifier
// records a local/global binding; a TupleExpr recurses over each
// element; anything else (attribute/subscript) was already visited by
// annotateExpr and carries no binding of its own.
func (a *Annotator) recordWrite(target ast.Expr, sc *scope) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if reservedNames[t.Name] {
			return a.err(errors.ANN001, target.Offset(), "cannot assign to built-in name "+t.Name)
		}
		if sc == nil {
			slot, created := a.Module.DeclareGlobal(t.Name)
			if !created {
				slot.Mutable = true
			}
			return nil
		}
		if sc.fn.ExplicitGlobals[t.Name] {
			if slot, created := a.Module.DeclareGlobal(t.Name); true {
				_ = created
				slot.Mutable = true
			}
			return nil
		}
		sc.writtenBeforeGlobal[t.Name] = true
		sc.fn.DeclareLocal(t.Name)
		if sc.class != nil && sc.fn.Name == "__init__" {
			// attribute introduction happens in Analysis, which has
			// Value information; Annotation only tracks local names.
		}
		return nil
	case *ast.TupleExpr:
		for _, el := range t.Elements {
			if err := a.recordWrite(el, sc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Annotator) annotateImport(s *ast.Import, sc *scope) error {
	for _, alias := range s.Names {
		if _, err := a.Resolve.Advance(alias.Path, registry.Initial); err != nil {
			return a.err(errors.ANN003, s.Offset(), "cannot locate module "+alias.Path)
		}
		name := alias.Asname
		if name == "" {
			name = alias.Path
		}
		a.bindImport(name, alias.Path, sc)
	}
	return nil
}

func (a *Annotator) annotateImportFrom(s *ast.ImportFrom, sc *scope) error {
	src, err := a.Resolve.Advance(s.Module, registry.Annotated)
	if err != nil {
		return a.err(errors.ANN003, s.Offset(), "cannot locate module "+s.Module)
	}
	if s.Star {
		for _, slot := range src.Globals {
			a.bindIndeterminate(slot.Name, sc)
		}
		return nil
	}
	for _, alias := range s.Names {
		if _, ok := src.Global(alias.Path); !ok {
			return a.err(errors.ANN004, s.Offset(), "module "+s.Module+" has no global "+alias.Path)
		}
		name := alias.Asname
		if name == "" {
			name = alias.Path
		}
		a.bindIndeterminate(name, sc)
	}
	return nil
}

func (a *Annotator) bindImport(name, modulePath string, sc *scope) {
	if sc == nil {
		slot, created := a.Module.DeclareGlobal(name)
		if created {
			slot.Value = moduleValue(modulePath)
		}
		return
	}
	sc.fn.DeclareLocal(name)
}

func (a *Annotator) bindIndeterminate(name string, sc *scope) {
	if sc == nil {
		a.Module.DeclareGlobal(name)
		return
	}
	sc.fn.DeclareLocal(name)
}

// annotateFuncDef assigns a fresh id, registers a FunctionContext, and
// recurses into the body under a new scope. Pre-order id assignment
// (before visiting children) is what gives spec.md §8's "Annotation
// determinism" property: ids increase in pre-order traversal order.
func (a *Annotator) annotateFuncDef(def *ast.FuncDef, sc *scope) error {
	id := registry.NextID()
	def.ID = id
	fc, err := a.Global.ContextForFunction(id, def.Name, a.Module)
	if err != nil {
		return err
	}
	fc.AST = def
	var classID int64
	if sc != nil && sc.class != nil {
		classID = sc.class.ID
	}
	fc.ClassID = classID

	for _, p := range def.Params {
		mode := registry.ArgPositional
		switch p.Mode {
		case ast.ParamVararg:
			mode = registry.ArgVararg
		case ast.ParamKwarg:
			mode = registry.ArgKwarg
		}
		fc.Args = append(fc.Args, registry.ArgSpec{Name: p.Name, Mode: mode})
		fc.DeclareLocal(p.Name)
	}
	fc.VarargsName = def.VarargsName
	fc.VarkwargsName = def.VarkwargsName

	switch {
	case sc == nil:
		// Module-scope def: binds a global name.
		slot, created := a.Module.DeclareGlobal(def.Name)
		if created {
			slot.Value = funcValue(id)
		}
	case sc.fn != nil:
		// Nested def inside a function body: binds a local name.
		sc.fn.DeclareLocal(def.Name)
	}
	// A direct class-body method (sc.fn == nil, sc.class != nil) binds
	// no name of its own here; Analysis resolves it through the
	// class's Attributes table instead (spec.md §4.8).

	inner := newScope(fc, sc.classOf())
	return a.annotateBody(def.Body, inner)
}

// classOf returns the enclosing class, or nil when sc itself is nil
// (module scope, not inside any class).
func (s *scope) classOf() *registry.ClassContext {
	if s == nil {
		return nil
	}
	return s.class
}

func (a *Annotator) annotateClassDef(def *ast.ClassDef, sc *scope) error {
	id := registry.NextID()
	def.ID = id
	cc, err := a.Global.ContextForClass(id, a.Module)
	if err != nil {
		return err
	}
	cc.AST = def

	if sc == nil {
		slot, created := a.Module.DeclareGlobal(def.Name)
		if created {
			slot.Value = classValue(id)
		}
	} else {
		sc.fn.DeclareLocal(def.Name)
	}

	for _, base := range def.Bases {
		if err := a.annotateExpr(base, sc); err != nil {
			return err
		}
	}

	for _, stmt := range def.Body {
		if fd, ok := stmt.(*ast.FuncDef); ok {
			if err := a.annotateFuncDef(fd, &scope{fn: nil, class: cc}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Annotator) annotateExpr(expr ast.Expr, sc *scope) error {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.Identifier, *ast.Literal:
		return nil
	case *ast.ListExpr:
		return a.annotateExprs(e.Elements, sc)
	case *ast.TupleExpr:
		return a.annotateExprs(e.Elements, sc)
	case *ast.SetExpr:
		return a.annotateExprs(e.Elements, sc)
	case *ast.DictExpr:
		if err := a.annotateExprs(e.Keys, sc); err != nil {
			return err
		}
		return a.annotateExprs(e.Values, sc)
	case *ast.ListComp:
		return a.annotateComp(e.Element, nil, e.Clauses, sc)
	case *ast.SetComp:
		return a.annotateComp(e.Element, nil, e.Clauses, sc)
	case *ast.GeneratorExp:
		return a.annotateComp(e.Element, nil, e.Clauses, sc)
	case *ast.DictComp:
		return a.annotateComp(e.Key, e.Value, e.Clauses, sc)
	case *ast.Lambda:
		return a.annotateLambda(e, sc)
	case *ast.Conditional:
		if err := a.annotateExpr(e.Test, sc); err != nil {
			return err
		}
		if err := a.annotateExpr(e.Body, sc); err != nil {
			return err
		}
		return a.annotateExpr(e.Else, sc)
	case *ast.BinaryExpr:
		if err := a.annotateExpr(e.Left, sc); err != nil {
			return err
		}
		return a.annotateExpr(e.Right, sc)
	case *ast.UnaryExpr:
		return a.annotateExpr(e.Operand, sc)
	case *ast.Subscript:
		if lit, ok := e.Index.(*ast.Literal); ok && lit.Kind == ast.IntLit {
			e.IndexIsConstant = true
		}
		if err := a.annotateExpr(e.Base, sc); err != nil {
			return err
		}
		return a.annotateExpr(e.Index, sc)
	case *ast.Slice:
		if err := a.annotateExpr(e.Base, sc); err != nil {
			return err
		}
		for _, b := range []ast.Expr{e.Lower, e.Upper, e.Step} {
			if b != nil {
				if err := a.annotateExpr(b, sc); err != nil {
					return err
				}
			}
		}
		return nil
	case *ast.Call:
		e.SplitID = a.nextSplitID(sc)
		if err := a.annotateExpr(e.Func, sc); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := a.annotateExpr(arg.Value, sc); err != nil {
				return err
			}
		}
		return nil
	case *ast.Attribute:
		return a.annotateExpr(e.Base, sc)
	case *ast.Yield:
		e.SplitID = a.nextSplitID(sc)
		if e.Value != nil {
			return a.annotateExpr(e.Value, sc)
		}
		return nil
	}
	return nil
}

func (a *Annotator) annotateExprs(exprs []ast.Expr, sc *scope) error {
	for _, e := range exprs {
		if err := a.annotateExpr(e, sc); err != nil {
			return err
		}
	}
	return nil
}

func (a *Annotator) annotateComp(elOrKey, val ast.Expr, clauses []ast.CompClause, sc *scope) error {
	for _, c := range clauses {
		if err := a.annotateExpr(c.Iter, sc); err != nil {
			return err
		}
		if err := a.recordWrite(c.Target, sc); err != nil {
			return err
		}
		for _, cond := range c.Ifs {
			if err := a.annotateExpr(cond, sc); err != nil {
				return err
			}
		}
	}
	if err := a.annotateExpr(elOrKey, sc); err != nil {
		return err
	}
	if val != nil {
		return a.annotateExpr(val, sc)
	}
	return nil
}

func (a *Annotator) annotateLambda(lam *ast.Lambda, sc *scope) error {
	id := registry.NextID()
	fc, err := a.Global.ContextForFunction(id, "<lambda>", a.Module)
	if err != nil {
		return err
	}
	fc.AST = nil
	for _, p := range lam.Params {
		fc.Args = append(fc.Args, registry.ArgSpec{Name: p.Name})
		fc.DeclareLocal(p.Name)
	}
	fc.VarargsName = lam.VarargsName
	fc.VarkwargsName = lam.VarkwargsName
	inner := newScope(fc, sc.classOf())
	return a.annotateExpr(lam.Body, inner)
}

func (a *Annotator) nextSplitID(sc *scope) int {
	if sc == nil {
		return a.Global.NextCallsiteToken()
	}
	return sc.fn.NextSplitID()
}
