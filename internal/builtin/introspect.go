package builtin

import "github.com/nemesys-lang/nsc/internal/registry"

// ModulePhase implements __nemesys__.module_phase(name): the phase
// ordinal (0..4) of an already-loaded module, or -1 if name names no
// module the process has seen (spec.md §6).
func ModulePhase(global *registry.GlobalContext, name string) int {
	mod, ok := global.Module(name)
	if !ok {
		return -1
	}
	return int(mod.Phase)
}

// ModuleCompiledSize implements __nemesys__.module_compiled_size(name):
// the total assembled byte count for an Imported module's root scope,
// or -1 if the module doesn't exist or hasn't reached Imported yet.
func ModuleCompiledSize(global *registry.GlobalContext, name string) int {
	mod, ok := global.Module(name)
	if !ok || mod.Phase != registry.Imported {
		return -1
	}
	root, ok := mod.CompiledRoot.(CompiledRoot)
	if !ok {
		return -1
	}
	return root.Size
}

// CompiledRoot is the opaque handle internal/pipeline stores into
// ModuleContext.CompiledRoot once a module's root scope is compiled;
// it carries just enough for introspection to answer
// module_compiled_size without internal/builtin depending on
// internal/codegen's instruction representation.
type CompiledRoot struct {
	Start int
	Size  int
}

// CodeBufferSize reports the total capacity of the process-wide code
// buffer (spec.md §6 code_buffer_size). With an append-only []byte
// backing store, size and used size coincide; both accessors are kept
// distinct because a future fixed-capacity arena would give them
// different answers.
func CodeBufferSize(global *registry.GlobalContext) int { return len(global.Code) }

// CodeBufferUsedSize reports how many bytes of the code buffer are
// currently occupied by assembled fragments (spec.md §6
// code_buffer_used_size).
func CodeBufferUsedSize(global *registry.GlobalContext) int { return len(global.Code) }

// GlobalSpace reports the current size in bytes of the process-wide
// global memory region (spec.md §6 global_space).
func GlobalSpace(global *registry.GlobalContext) int { return len(global.GlobalSpace) }

// BytesConstantCount reports the number of distinct interned bytes
// constants created so far (spec.md §6 bytes_constant_count).
func BytesConstantCount(global *registry.GlobalContext) int { return global.BytesConstantCount() }

// UnicodeConstantCount reports the number of distinct interned unicode
// constants created so far (spec.md §6 unicode_constant_count).
func UnicodeConstantCount(global *registry.GlobalContext) int {
	return global.UnicodeConstantCount()
}

// DebugFlagSet implements __nemesys__.debug_flags(name): whether the
// named `-X` flag was passed at process startup.
func DebugFlagSet(global *registry.GlobalContext, name string) bool {
	return global.DebugFlags[name]
}
