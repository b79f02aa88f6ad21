package registry

import (
	"github.com/nemesys-lang/nsc/internal/ast"
	"github.com/nemesys-lang/nsc/internal/value"
)

// ArgMode mirrors ast.ParamMode for a declared function argument.
type ArgMode int

const (
	ArgPositional ArgMode = iota
	ArgVararg
	ArgKwarg
)

// ArgSpec is one declared parameter of a FunctionContext.
type ArgSpec struct {
	Name    string
	Default *value.Value // nil if no default
	Mode    ArgMode
}

// Fragment is a specialization of a function for one argument-type
// tuple (spec.md §3).
type Fragment struct {
	Function   *FunctionContext
	Index      int
	ArgTypes   []*value.Value // type-only Values, one per declared arg
	ReturnType *value.Value
	// Code and LabelOffsets are opaque handles filled in by
	// internal/codegen; this package only stores them.
	Code         any
	LabelOffsets map[string]int
	// SplitTables maps a per-callsite split id to backend-owned
	// resumption state for on-demand recompilation of call tails.
	SplitTables map[int]any
}

// FunctionContext is one function/lambda/method's compiler-visible
// state (spec.md §3).
type FunctionContext struct {
	Module  *ModuleContext // nil for built-ins
	ID      int64
	ClassID int64 // nonzero if this is a method
	Name    string
	AST     *ast.FuncDef // nil for built-ins

	Args          []ArgSpec
	VarargsName   string
	VarkwargsName string

	// Locals preserves the order fixed after annotation; this is also
	// stack-slot order at call time (spec.md §3).
	Locals           []string
	localIndex       map[string]*value.Value
	ExplicitGlobals  map[string]bool
	DeletedVariables map[string]bool

	ReturnTypes []*value.Value

	Fragments []*Fragment

	// NumSplits counts split points introduced by calls/yields within
	// the body, used to size metadata for on-demand recompilation.
	NumSplits int
}

func newFunctionContext(name string, id int64) *FunctionContext {
	return &FunctionContext{
		Name:             name,
		ID:               id,
		localIndex:       make(map[string]*value.Value),
		ExplicitGlobals:  make(map[string]bool),
		DeletedVariables: make(map[string]bool),
	}
}

// DeclareLocal records a write to name inside the function body,
// adding it to Locals in first-write order if new.
func (f *FunctionContext) DeclareLocal(name string) *value.Value {
	if v, ok := f.localIndex[name]; ok {
		return v
	}
	v := value.NewIndeterminate()
	f.localIndex[name] = v
	f.Locals = append(f.Locals, name)
	return v
}

// LocalValue returns the current tracked Value for name, if declared.
func (f *FunctionContext) LocalValue(name string) (*value.Value, bool) {
	v, ok := f.localIndex[name]
	return v, ok
}

// SetLocalValue overwrites the tracked Value for an already-declared
// local.
func (f *FunctionContext) SetLocalValue(name string, v *value.Value) {
	f.localIndex[name] = v
}

// NextSplitID mints the next call/yield split id for this function.
func (f *FunctionContext) NextSplitID() int {
	id := f.NumSplits
	f.NumSplits++
	return id
}

// AddFragment appends and indexes a new Fragment for argTypes.
func (f *FunctionContext) AddFragment(argTypes []*value.Value) *Fragment {
	frag := &Fragment{
		Function:     f,
		Index:        len(f.Fragments),
		ArgTypes:     argTypes,
		LabelOffsets: make(map[string]int),
		SplitTables:  make(map[int]any),
	}
	f.Fragments = append(f.Fragments, frag)
	return frag
}

// argTypeMatch reports whether a declared arg type matches a caller's
// concrete type, recursing into extension types (spec.md §4.9).
// Indeterminate matches anything and scores one promotion.
func argTypeMatch(declared, caller *value.Value) (matches bool, promotions int) {
	if declared.Type == value.Indeterminate {
		return true, 1
	}
	if !declared.TypesEqual(caller) {
		return false, 0
	}
	return true, 0
}

// BestFragment implements the matching policy of spec.md §4.9: arity
// must match exactly; each Indeterminate declared type matches
// anything and scores a promotion; ties prefer the lower fragment
// index. Returns nil if no fragment matches.
func (f *FunctionContext) BestFragment(argTypes []*value.Value) *Fragment {
	var best *Fragment
	bestPromotions := -1
	for _, frag := range f.Fragments {
		if len(frag.ArgTypes) != len(argTypes) {
			continue
		}
		total := 0
		ok := true
		for i, declared := range frag.ArgTypes {
			m, p := argTypeMatch(declared, argTypes[i])
			if !m {
				ok = false
				break
			}
			total += p
		}
		if !ok {
			continue
		}
		if best == nil || total < bestPromotions {
			best = frag
			bestPromotions = total
		}
	}
	return best
}

// IsBuiltin reports whether this function was registered without an
// owning module (built-ins may not be recompiled, spec.md §4.9).
func (f *FunctionContext) IsBuiltin() bool {
	return f.Module == nil
}
