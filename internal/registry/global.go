// Package registry implements the context registry of spec.md §4.6:
// creation and lookup for modules, functions, classes, and interned
// constants, plus the process-wide global memory region and code
// buffer that the compilation driver and back-end share.
//
// Grounded on the "single state object" convention in
// _examples/sunholo-data-ailang/internal/types/env.go (an Env that owns
// every other context, rather than scattered package-level globals)
// and on original_source/Contexts.cc, which defines the same
// module/function/class/global-space ownership shape this package
// reproduces in Go.
package registry

import (
	"fmt"

	"github.com/nemesys-lang/nsc/internal/value"
)

// GlobalContext owns every other context and the shared mutable state
// of the compiler process (spec.md §3).
type GlobalContext struct {
	modules      map[string]*ModuleContext
	functionByID map[int64]*FunctionContext
	classByID    map[int64]*ClassContext

	ImportPaths []string

	// GlobalSpace is the flat region of 8-byte slots backing every
	// declared module global, addressed by global_base_offset +
	// 8*slot_index.
	GlobalSpace []byte

	bytesConstants   map[string]*value.Value
	unicodeConstants map[string]*value.Value

	// Code is the append-only executable buffer assembled code is
	// written into. internal/codegen owns its interpretation; this
	// package only reserves byte ranges.
	Code []byte

	inProgress map[string]bool

	nextCallsiteToken int

	// builtins is the process-wide builtin namespace consulted by name
	// resolution when a name is neither a function local nor a module
	// global (spec.md §4.8 attribute/name resolution falls back to
	// built-ins; internal/builtin populates this at process startup).
	builtins map[string]*value.Value

	// DebugFlags holds the set of `-X` flags the CLI parsed at startup
	// (spec.md §6), read back by __nemesys__.debug_flags.
	DebugFlags map[string]bool
}

// NewGlobalContext constructs an empty registry.
func NewGlobalContext() *GlobalContext {
	return &GlobalContext{
		modules:          make(map[string]*ModuleContext),
		functionByID:     make(map[int64]*FunctionContext),
		classByID:        make(map[int64]*ClassContext),
		bytesConstants:   make(map[string]*value.Value),
		unicodeConstants: make(map[string]*value.Value),
		inProgress:       make(map[string]bool),
		builtins:         make(map[string]*value.Value),
		DebugFlags:       make(map[string]bool),
	}
}

// RegisterBuiltinValue installs name into the process-wide builtin
// namespace, consulted by the analysis pass once a name resolves to
// neither a function local nor a module global.
func (g *GlobalContext) RegisterBuiltinValue(name string, v *value.Value) {
	g.builtins[name] = v
}

// Builtin looks up name in the process-wide builtin namespace.
func (g *GlobalContext) Builtin(name string) (*value.Value, bool) {
	v, ok := g.builtins[name]
	return v, ok
}

// GetOrCreateModule returns the existing ModuleContext for name, or
// creates and registers a new one (spec.md §4.6: "Repeated
// get_or_create_module(name) returns the same ModuleContext").
func (g *GlobalContext) GetOrCreateModule(name, source string) *ModuleContext {
	if m, ok := g.modules[name]; ok {
		return m
	}
	m := newModuleContext(name, source)
	g.modules[name] = m
	return m
}

// Module looks up an already-created module by name.
func (g *GlobalContext) Module(name string) (*ModuleContext, bool) {
	m, ok := g.modules[name]
	return m, ok
}

// ContextForFunction returns the existing FunctionContext for a
// positive id, or a built-in's context for a negative id. It creates a
// new context only when creatingModule is non-nil, per spec.md §4.6.
func (g *GlobalContext) ContextForFunction(id int64, name string, creatingModule *ModuleContext) (*FunctionContext, error) {
	if fc, ok := g.functionByID[id]; ok {
		return fc, nil
	}
	if creatingModule == nil {
		return nil, fmt.Errorf("registry: no function context for id %d and no creating module supplied", id)
	}
	fc := newFunctionContext(name, id)
	fc.Module = creatingModule
	g.functionByID[id] = fc
	return fc, nil
}

// RegisterBuiltinFunction creates a function context with a fresh
// negative id and no owning module.
func (g *GlobalContext) RegisterBuiltinFunction(name string) *FunctionContext {
	id := NextBuiltinID()
	fc := newFunctionContext(name, id)
	g.functionByID[id] = fc
	return fc
}

// ContextForClass mirrors ContextForFunction for classes.
func (g *GlobalContext) ContextForClass(id int64, creatingModule *ModuleContext) (*ClassContext, error) {
	if cc, ok := g.classByID[id]; ok {
		return cc, nil
	}
	if creatingModule == nil {
		return nil, fmt.Errorf("registry: no class context for id %d and no creating module supplied", id)
	}
	cc := newClassContext(id)
	cc.Module = creatingModule
	g.classByID[id] = cc
	return cc, nil
}

// RegisterBuiltinClass creates a class context with a fresh negative
// id and no owning module.
func (g *GlobalContext) RegisterBuiltinClass() *ClassContext {
	id := NextBuiltinID()
	cc := newClassContext(id)
	g.classByID[id] = cc
	return cc
}

// GetOrCreateConstant returns a pointer to an immutable interned
// string Value; value-identical strings of the same kind share
// storage (spec.md §4.6).
func (g *GlobalContext) GetOrCreateConstant(s string, isBytes bool) *value.Value {
	table := g.unicodeConstants
	if isBytes {
		table = g.bytesConstants
	}
	if v, ok := table[s]; ok {
		return v
	}
	var v *value.Value
	if isBytes {
		v = value.NewBytes(s)
	} else {
		v = value.NewUnicode(s)
	}
	table[s] = v
	return v
}

// BytesConstantCount reports how many distinct interned bytes
// constants the process has created (spec.md §6 bytes_constant_count).
func (g *GlobalContext) BytesConstantCount() int { return len(g.bytesConstants) }

// UnicodeConstantCount reports how many distinct interned unicode
// constants the process has created (spec.md §6
// unicode_constant_count).
func (g *GlobalContext) UnicodeConstantCount() int { return len(g.unicodeConstants) }

// ReserveGlobalSpace grows the global region by n bytes, zeroing the
// new tail, and returns the starting offset. Previously handed-out
// offsets are never invalidated: growth only ever appends (spec.md
// §4.6).
func (g *GlobalContext) ReserveGlobalSpace(n int) int {
	start := len(g.GlobalSpace)
	g.GlobalSpace = append(g.GlobalSpace, make([]byte, n)...)
	return start
}

// ReserveCode appends n zeroed bytes to the executable buffer and
// returns the starting offset, for the back-end to assemble into.
func (g *GlobalContext) ReserveCode(n int) int {
	start := len(g.Code)
	g.Code = append(g.Code, make([]byte, n)...)
	return start
}

// EnterInProgress registers module as currently being phase-advanced,
// failing if it is already present (spec.md §4.9 cycle guard).
func (g *GlobalContext) EnterInProgress(moduleName string) error {
	if g.inProgress[moduleName] {
		return fmt.Errorf("registry: cyclic import involving module %q", moduleName)
	}
	g.inProgress[moduleName] = true
	return nil
}

// ExitInProgress erases module's in-progress marker.
func (g *GlobalContext) ExitInProgress(moduleName string) {
	delete(g.inProgress, moduleName)
}

// NextCallsiteToken mints a fresh split identifier, shared across
// every module's top-level (module-scope) call/yield sites.
func (g *GlobalContext) NextCallsiteToken() int {
	tok := g.nextCallsiteToken
	g.nextCallsiteToken++
	return tok
}
