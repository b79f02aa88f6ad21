// Package pipeline implements the compilation driver of spec.md §4.9:
// the phase-advancement state machine that carries a module from
// Initial through Parsed, Annotated, Analyzed, to Imported, and the
// on-demand fragment compilation triggered by call sites that need a
// specialization the driver hasn't built yet.
//
// Grounded on _examples/sunholo-data-ailang/internal/pipeline's
// "Driver owns a GlobalContext-equivalent and drives one module/phase
// pair at a time" shape; the cycle guard is adapted from the same
// package's in-progress set, moved onto registry.GlobalContext so every
// driver method (and internal/annotate's import handling) shares one
// guard instead of each driver instance keeping its own.
package pipeline

import (
	"fmt"

	"github.com/nemesys-lang/nsc/internal/analyze"
	"github.com/nemesys-lang/nsc/internal/annotate"
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/builtin"
	"github.com/nemesys-lang/nsc/internal/codegen"
	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/lexer"
	"github.com/nemesys-lang/nsc/internal/module"
	"github.com/nemesys-lang/nsc/internal/parser"
	"github.com/nemesys-lang/nsc/internal/registry"
	"github.com/nemesys-lang/nsc/internal/source"
	"github.com/nemesys-lang/nsc/internal/value"
)

// Driver owns the registry and the module loader, and is the single
// entry point for advancing any module to any phase (spec.md §4.9
// "advance_module_phase(module, target_phase)").
type Driver struct {
	Global     *registry.GlobalContext
	Loader     *module.Loader
	Assembler  codegen.Assembler
	DebugHooks DebugHooks
}

// DebugHooks lets the CLI observe phase transitions without the driver
// importing logging concerns directly (cmd/nsc wires logrus here via
// `-X` flags, spec.md §6). Every field is optional; a nil Driver.DebugHooks
// value (the zero DebugHooks) means "no debug output".
type DebugHooks struct {
	OnPhase func(moduleName string, from, to registry.Phase)
}

func (d *Driver) trace(name string, from, to registry.Phase) {
	if d.DebugHooks.OnPhase != nil {
		d.DebugHooks.OnPhase(name, from, to)
	}
}

// New builds a Driver with a fresh registry, populated with the
// built-in namespace and modules, over the given import search roots.
func New(importRoots []string) *Driver {
	global := registry.NewGlobalContext()
	builtin.Register(global)
	return &Driver{
		Global:    global,
		Loader:    module.NewLoader(importRoots),
		Assembler: codegen.NewBlockAssembler(),
	}
}

// SetArgv overwrites the sys.argv global with the CLI's argument
// vector (spec.md §6: "Remaining arguments populate the program's
// sys.argv, with the first element being the file path, -c, or -m as
// appropriate").
func (d *Driver) SetArgv(argv []string) {
	mod, ok := d.Global.Module("sys")
	if !ok {
		return
	}
	slot, ok := mod.Global("argv")
	if !ok {
		return
	}
	elems := make([]*value.Value, len(argv))
	for i, a := range argv {
		elems[i] = value.NewUnicode(a)
	}
	slot.Value = value.NewList(elems)
}

// Advance is the ImportResolver/ModuleResolver internal/annotate and
// internal/analyze depend on: it drives the named module to at least
// target, loading it from disk on first reference if necessary.
func (d *Driver) Advance(name string, target registry.Phase) (*registry.ModuleContext, error) {
	mod, ok := d.Global.Module(name)
	if !ok {
		path, found := d.Loader.Locate(name)
		if !found {
			return nil, errors.Wrap(errors.New(errors.ANN003, errors.PhaseAnnotate, "", -1, 0, 0,
				fmt.Sprintf("no module named %q on the import path", name)))
		}
		mod = d.Global.GetOrCreateModule(name, path)
	}
	if err := d.advanceModule(mod, target); err != nil {
		return nil, err
	}
	return mod, nil
}

// LoadEntryFile advances the file at path (the CLI's positional
// target) all the way to Imported under the given module name
// (typically "__main__", spec.md §6).
func (d *Driver) LoadEntryFile(path, moduleName string) (*registry.ModuleContext, error) {
	mod := d.Global.GetOrCreateModule(moduleName, path)
	return mod, d.advanceModule(mod, registry.Imported)
}

// LoadEntrySource is LoadEntryFile's `-c <code>` counterpart: it
// advances an in-memory source string instead of a file on disk.
func (d *Driver) LoadEntrySource(code, moduleName string) (*registry.ModuleContext, error) {
	mod := d.Global.GetOrCreateModule(moduleName, source.ImmediateFilename)
	mod.ImmediateSource = code
	return mod, d.advanceModule(mod, registry.Imported)
}

// advanceModule is advance_module_phase (spec.md §4.9): it walks mod
// through every intervening phase up to target, guarded against
// reentering a module that is already being advanced (import cycles,
// spec.md CYC001).
func (d *Driver) advanceModule(mod *registry.ModuleContext, target registry.Phase) error {
	if mod.Phase >= target {
		return nil
	}
	if err := d.Global.EnterInProgress(mod.Name); err != nil {
		return errors.Wrap(errors.New(errors.CYC001, errors.PhaseCycle, mod.Source, -1, 0, 0, err.Error()))
	}
	defer d.Global.ExitInProgress(mod.Name)

	for mod.Phase < target {
		from := mod.Phase
		var err error
		switch mod.Phase {
		case registry.Initial:
			err = d.lexAndParse(mod)
		case registry.Parsed:
			err = d.annotate(mod)
		case registry.Annotated:
			err = d.analyze(mod)
		case registry.Analyzed:
			err = d.compileRoot(mod)
		default:
			return fmt.Errorf("pipeline: module %q already past Imported", mod.Name)
		}
		if err != nil {
			return err
		}
		d.trace(mod.Name, from, mod.Phase)
	}
	return nil
}

// lexAndParse reads mod's source (a file on disk, or ImmediateSource
// for `-c`/immediate modules), tokenizes, parses, and advances
// Initial -> Parsed.
func (d *Driver) lexAndParse(mod *registry.ModuleContext) error {
	var text string
	if mod.ImmediateSource != "" || mod.Source == source.ImmediateFilename {
		text = mod.ImmediateSource
	} else {
		var err error
		text, err = d.Loader.ReadSource(mod.Source)
		if err != nil {
			return errors.Wrap(errors.New(errors.LEX001, errors.PhaseLex, mod.Source, -1, 0, 0, err.Error()))
		}
	}
	lx := lexer.New(text, mod.Source)
	toks, err := lx.Tokenize()
	if err != nil {
		return err
	}
	mod.AST, err = parser.Parse(toks, mod.Source)
	if err != nil {
		return err
	}
	mod.Phase = registry.Parsed
	return nil
}

// annotate runs the annotation pass and advances Parsed -> Annotated,
// then reserves the module's global-space region (8 bytes per
// declared global, spec.md §3/§4.9).
func (d *Driver) annotate(mod *registry.ModuleContext) error {
	if err := annotate.Run(d.Global, mod, d); err != nil {
		return err
	}
	declareDunderGlobals(mod)
	mod.GlobalBaseOffset = d.Global.ReserveGlobalSpace(8 * len(mod.Globals))
	for i, slot := range mod.Globals {
		slot.Offset = mod.GlobalBaseOffset + 8*i
	}
	mod.Phase = registry.Annotated
	return nil
}

// declareDunderGlobals installs the two statically initialized names
// every module carries (spec.md §4.9): __name__ and __file__. Declared
// through DeclareGlobal (not a raw append) so the module's name->index
// lookup table stays consistent.
func declareDunderGlobals(mod *registry.ModuleContext) {
	if slot, created := mod.DeclareGlobal("__name__"); created {
		slot.Value = value.NewUnicode(mod.Name)
		slot.StaticInit = true
	}
	if slot, created := mod.DeclareGlobal("__file__"); created {
		slot.Value = value.NewUnicode(mod.Source)
		slot.StaticInit = true
	}
}

// analyze runs the analysis pass over mod's top-level body, then
// analyzes every module-scope function once with all-Indeterminate
// arguments (spec.md §4.8: "infers a type/value ... for every
// variable"), and advances Annotated -> Analyzed.
func (d *Driver) analyze(mod *registry.ModuleContext) error {
	if err := analyze.Run(d.Global, mod, d); err != nil {
		return err
	}
	if d.Global.DebugFlags["NoEagerCompilation"] {
		// spec.md §6 behavior flag: leave every module-scope function at
		// its all-Indeterminate annotation-time signature; fragments are
		// built lazily from the first real call site instead (spec.md
		// §4.9).
		mod.Phase = registry.Analyzed
		return nil
	}
	for _, slot := range mod.Globals {
		if slot.Value == nil || slot.Value.Type != value.FunctionType {
			continue
		}
		fc, err := d.Global.ContextForFunction(slot.Value.ID, slot.Name, nil)
		if err != nil || fc.Module != mod {
			continue
		}
		argTypes := make([]*value.Value, len(fc.Args))
		for i := range argTypes {
			argTypes[i] = value.NewIndeterminate()
		}
		if _, err := analyze.AnalyzeFunction(d.Global, d, fc, argTypes); err != nil {
			return err
		}
	}
	mod.Phase = registry.Analyzed
	return nil
}

// compileRoot lowers mod's top-level statements into a code fragment
// via the back-end assembler, runs the module's static global
// initializers, and advances Analyzed -> Imported (spec.md §4.9
// "static_initialize" table).
func (d *Driver) compileRoot(mod *registry.ModuleContext) error {
	instrs, err := RootInstructions(mod)
	if err != nil {
		return err
	}
	start, _, err := d.Assembler.Assemble(d.Global, instrs)
	if err != nil {
		return err
	}
	mod.CompiledRoot = builtin.CompiledRoot{Start: start, Size: len(d.Global.Code) - start}
	if err := initializeGlobals(d.Global, mod); err != nil {
		return err
	}
	mod.Phase = registry.Imported
	return nil
}

// RootInstructions lowers a module's top-level statement list into a
// placeholder instruction stream: one Emit per statement, tagged by
// its AST kind, bracketed by an entry label. Real lowering to AMD64 is
// the back-end's job (spec.md §1 Out of scope); this keeps the
// driver's bookkeeping honest without depending on codegen internals
// beyond the Instr vocabulary it already exposes.
func RootInstructions(mod *registry.ModuleContext) ([]codegen.Instr, error) {
	instrs := []codegen.Instr{codegen.Label(mod.Name + ".__root__")}
	for _, stmt := range mod.AST.Body {
		instrs = append(instrs, codegen.Emit(stmtTag(stmt), 1))
	}
	return instrs, nil
}

func stmtTag(stmt ast.Stmt) string {
	switch stmt.(type) {
	case *ast.FuncDef:
		return "def"
	case *ast.ClassDef:
		return "class"
	case *ast.If:
		return "if"
	case *ast.While:
		return "while"
	case *ast.For:
		return "for"
	case *ast.Return:
		return "ret"
	case *ast.ExprStmt:
		return "expr"
	default:
		return "stmt"
	}
}

// initializeGlobals performs the static_initialize step of spec.md
// §4.9 for every global slot that is either already marked
// static_initialize (__name__, __file__, declareDunderGlobals) or
// whose value is fully known after analysis: Bytes/Unicode payloads
// are rewritten through GlobalContext.GetOrCreateConstant so they
// reference the interned constant table (spec.md §4.6/§4.9 "Bytes/
// Unicode refer to the interned constant"), other known scalars are
// written in place. A global whose value is not known after analysis
// is left for the root fragment's runtime code to populate, except
// that an unknown List, Tuple, Set, Dict or Instance global that is
// not static_initialize fails with CMP002.
func initializeGlobals(global *registry.GlobalContext, mod *registry.ModuleContext) error {
	for _, slot := range mod.Globals {
		if slot.Value == nil {
			continue
		}
		if !slot.Value.Known {
			if slot.StaticInit {
				continue
			}
			switch slot.Value.Type {
			case value.ListType, value.TupleType, value.SetType, value.DictType, value.InstanceType:
				return errors.Wrap(errors.New(errors.CMP002, errors.PhaseCompile, mod.Source, -1, 0, 0,
					fmt.Sprintf("global %q in module %q has no static initializer", slot.Name, mod.Name)))
			}
			continue
		}
		switch slot.Value.Type {
		case value.BytesType:
			slot.Value = global.GetOrCreateConstant(slot.Value.Str, true)
		case value.UnicodeType:
			slot.Value = global.GetOrCreateConstant(slot.Value.Str, false)
		}
		slot.StaticInit = true
	}
	return nil
}
