package registry

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/value"
)

// AttributeSlot is one entry of a ClassContext's ordered attribute
// table.
type AttributeSlot struct {
	Name  string
	Value *value.Value
	// Index is this attribute's position in dynamic_attribute_indexes,
	// fixed after class analysis (spec.md §3).
	Index int
}

// ClassContext is one class's compiler-visible state (spec.md §3).
type ClassContext struct {
	Module *ModuleContext
	ID     int64
	AST    *ast.ClassDef

	Attributes     []*AttributeSlot
	attributeIndex map[string]int

	// DynamicAttributeIndexes maps a mutable attribute name to its slot
	// index. Populated incrementally during class analysis and then
	// frozen.
	DynamicAttributeIndexes map[string]int

	// HasRefcountedAttr records whether any attribute may hold a
	// refcounted value, which the codegen-layer destructor contract
	// (out of scope here, spec.md Non-goals) consults to decide whether
	// to emit a nontrivial destructor. This registry only tracks the
	// flag; it does not synthesize destructor code.
	HasRefcountedAttr bool

	// Destructor is an opaque handle to the compiled destructor
	// function, if any; filled in by internal/codegen.
	Destructor any

	Bases []*ClassContext
}

func newClassContext(id int64) *ClassContext {
	return &ClassContext{
		ID:                      id,
		attributeIndex:          make(map[string]int),
		DynamicAttributeIndexes: make(map[string]int),
	}
}

// Attribute looks up a declared attribute by name, including bases
// (depth-first, matching Python's MRO approximation used elsewhere in
// this compiler — the first match along Bases wins).
func (c *ClassContext) Attribute(name string) (*AttributeSlot, bool) {
	if i, ok := c.attributeIndex[name]; ok {
		return c.Attributes[i], true
	}
	for _, base := range c.Bases {
		if slot, ok := base.Attribute(name); ok {
			return slot, true
		}
	}
	return nil, false
}

// DeclareAttribute creates a new attribute slot if name is not already
// declared on this class directly (not searching bases), else returns
// the existing one.
func (c *ClassContext) DeclareAttribute(name string) (*AttributeSlot, bool) {
	if i, ok := c.attributeIndex[name]; ok {
		return c.Attributes[i], false
	}
	slot := &AttributeSlot{Name: name, Value: value.NewIndeterminate(), Index: len(c.Attributes)}
	c.attributeIndex[name] = len(c.Attributes)
	c.Attributes = append(c.Attributes, slot)
	return slot, true
}

// MarkDynamic records that name is mutable on instances, assigning it
// a dynamic_attribute_indexes slot if it doesn't have one yet.
func (c *ClassContext) MarkDynamic(name string) int {
	if idx, ok := c.DynamicAttributeIndexes[name]; ok {
		return idx
	}
	idx := len(c.DynamicAttributeIndexes)
	c.DynamicAttributeIndexes[name] = idx
	return idx
}
