// Package builtin populates the process-wide builtin namespace and the
// four concrete builtin modules spec.md §6 names: math, sys, time, and
// __nemesys__ (the introspection module). Grounded on
// _examples/sunholo-data-ailang/internal/eval_analysis's pattern of a
// single Register(*Env) entry point invoked once at process startup
// before any user module is advanced — here Register(*registry.GlobalContext)
// plays the same role against this compiler's registry instead of an
// evaluator environment.
//
// None of these functions carry real bodies: a FunctionContext created
// by RegisterBuiltinFunction has a nil AST and is never itself
// compiled (spec.md §4.9, "Built-ins may not be recompiled"); their
// behavior belongs to the runtime support library internal/codegen's
// back-end links against, which this package does not implement
// (spec.md §1 Non-goals: "the runtime object library... is out of
// scope").
package builtin

import (
	"math"

	"github.com/nemesys-lang/nsc/internal/registry"
	"github.com/nemesys-lang/nsc/internal/value"
)

// Register installs the bare builtin namespace (names visible without
// any import: True/False/None are lexical literals handled by the
// parser, everything else here) and the four concrete builtin modules
// into global, in the order a fresh process needs them available
// before any user source is parsed.
func Register(global *registry.GlobalContext) {
	registerBareNames(global)
	registerMath(global)
	registerSys(global)
	registerTime(global)
	registerNemesys(global)
}

// registerBareNames installs the small set of always-visible callables
// spec.md §4.8 name resolution falls back to once a name is neither a
// function local nor a module global: the handful of builtins every
// Python-flavored program expects at toplevel.
func registerBareNames(global *registry.GlobalContext) {
	for _, name := range []string{
		"len", "range", "print", "abs", "min", "max", "sum",
		"isinstance", "type", "repr", "str", "int", "float", "bool",
		"bytes", "list", "tuple", "set", "dict",
	} {
		fc := global.RegisterBuiltinFunction(name)
		global.RegisterBuiltinValue(name, value.NewFunction(fc.ID))
	}
}

// newBuiltinModule creates and fully imports a module with no backing
// source file: built-in modules start and remain at registry.Imported,
// since they need no lex/parse/annotate/analyze pass (spec.md §4.9
// table only applies to modules with source).
func newBuiltinModule(global *registry.GlobalContext, name string) *registry.ModuleContext {
	mod := global.GetOrCreateModule(name, "")
	mod.Phase = registry.Imported
	return mod
}

// declareFunc installs a builtin function under name in mod's global
// table.
func declareFunc(global *registry.GlobalContext, mod *registry.ModuleContext, name string) {
	fc := global.RegisterBuiltinFunction(mod.Name + "." + name)
	slot, _ := mod.DeclareGlobal(name)
	slot.Value = value.NewFunction(fc.ID)
	slot.StaticInit = true
}

// declareConst installs a precomputed value under name in mod's global
// table.
func declareConst(mod *registry.ModuleContext, name string, v *value.Value) {
	slot, _ := mod.DeclareGlobal(name)
	slot.Value = v
	slot.StaticInit = true
}

func registerMath(global *registry.GlobalContext) {
	mod := newBuiltinModule(global, "math")
	declareConst(mod, "pi", value.NewFloat(3.141592653589793))
	declareConst(mod, "e", value.NewFloat(2.718281828459045))
	declareConst(mod, "inf", value.NewFloat(math.Inf(1)))
	declareConst(mod, "nan", value.NewFloat(math.NaN()))
	for _, name := range []string{
		"sqrt", "floor", "ceil", "trunc", "pow", "log", "log2", "log10",
		"sin", "cos", "tan", "fabs", "isnan", "isinf", "gcd",
	} {
		declareFunc(global, mod, name)
	}
}

func registerSys(global *registry.GlobalContext) {
	mod := newBuiltinModule(global, "sys")
	// argv is populated by the driver at program start (spec.md §6:
	// "Remaining arguments populate the program's sys.argv"); it is
	// declared here as an empty, mutable list so resolution succeeds
	// even before the driver overwrites it.
	slot, _ := mod.DeclareGlobal("argv")
	slot.Value = value.NewList(nil)
	slot.Mutable = true
	for _, name := range []string{"exit", "stderr", "stdout", "stdin"} {
		declareFunc(global, mod, name)
	}
	declareConst(mod, "maxsize", value.NewInt(1<<63-1))
}

func registerTime(global *registry.GlobalContext) {
	mod := newBuiltinModule(global, "time")
	for _, name := range []string{"time", "sleep", "monotonic"} {
		declareFunc(global, mod, name)
	}
}

// registerNemesys installs the __nemesys__ introspection module
// (spec.md §6: module_phase, module_compiled_size, code_buffer_size,
// code_buffer_used_size, global_space, bytes_constant_count,
// unicode_constant_count, debug_flags). As for math/sys/time, each
// name is declared as a placeholder function; nothing here binds it
// to the matching accessor in introspect.go (ModulePhase, etc.), which
// is left to the back-end when it lowers a call to this module.
func registerNemesys(global *registry.GlobalContext) {
	mod := newBuiltinModule(global, "__nemesys__")
	for _, name := range []string{
		"module_phase", "module_compiled_size", "code_buffer_size",
		"code_buffer_used_size", "global_space", "bytes_constant_count",
		"unicode_constant_count", "debug_flags",
	} {
		declareFunc(global, mod, name)
	}
}
