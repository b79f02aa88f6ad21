package registry

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/value"
)

// Phase is a ModuleContext's position in the state machine driven by
// the compilation driver (spec.md §4.9).
type Phase int

const (
	Initial Phase = iota
	Parsed
	Annotated
	Analyzed
	Imported
)

func (p Phase) String() string {
	switch p {
	case Initial:
		return "Initial"
	case Parsed:
		return "Parsed"
	case Annotated:
		return "Annotated"
	case Analyzed:
		return "Analyzed"
	case Imported:
		return "Imported"
	default:
		return "Unknown"
	}
}

// GlobalSlot is one entry of a ModuleContext's ordered global table.
// Order is significant: it is the slot order inside the module's
// region of the process-wide global memory region (spec.md §3).
type GlobalSlot struct {
	Name  string
	Value *value.Value
	// Mutable records whether this name is known to be writable from
	// multiple sites, or was declared `global` somewhere (spec.md §4.7).
	Mutable bool
	// StaticInit marks names the compilation driver initializes directly
	// into the reserved slot at Analyzed -> Imported (spec.md §4.9):
	// `__name__`, `__file__`, and every global whose value is known
	// after analysis.
	StaticInit bool
	Offset     int // byte offset within global_space, valid once reserved
}

// ModuleContext is one loaded module's compiler-visible state
// (spec.md §3).
type ModuleContext struct {
	Name   string
	Source string // filesystem path, or source.ImmediateFilename
	// ImmediateSource holds the literal text of a module constructed
	// from a string rather than a file on disk (CLI `-c`, spec.md §6).
	ImmediateSource string
	AST             *ast.Module

	Phase Phase

	// Globals preserves declaration order; Index maps name -> position
	// in Globals for O(1) lookup without losing that order.
	Globals []*GlobalSlot
	index   map[string]int

	GlobalBaseOffset int

	// CompiledRoot is filled in once the driver compiles the module's
	// root scope (Analyzed -> Imported). internal/pipeline stores a
	// builtin.CompiledRoot (start offset and size in the code buffer)
	// here; this package does not interpret it.
	CompiledRoot any
}

func newModuleContext(name, source string) *ModuleContext {
	return &ModuleContext{Name: name, Source: source, index: make(map[string]int)}
}

// Global looks up a module-scope global by name.
func (m *ModuleContext) Global(name string) (*GlobalSlot, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.Globals[i], true
}

// DeclareGlobal creates a new global slot if name is not already
// declared, else returns the existing one. The second return reports
// whether a new slot was created.
func (m *ModuleContext) DeclareGlobal(name string) (*GlobalSlot, bool) {
	if slot, ok := m.Global(name); ok {
		return slot, false
	}
	slot := &GlobalSlot{Name: name, Value: value.NewIndeterminate()}
	m.index[name] = len(m.Globals)
	m.Globals = append(m.Globals, slot)
	return slot, true
}
