// Package value implements the inference lattice of spec.md §3/§4.5: a
// closed ValueType tag set, a Value element carrying an optional known
// payload, and the unary/binary/ternary evaluation rules used by the
// annotation and analysis passes to propagate types (and, where
// possible, concrete values) through the AST without executing it.
//
// This package is intentionally a leaf: it imports internal/lexer only
// for the Type enum shared with operator tokens, and nothing in
// internal/ast or internal/registry imports back into it in a way that
// would cycle.
package value

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync/atomic"
)

// Type is the closed ValueType tag set of spec.md §3.
type Type int

const (
	Indeterminate Type = iota
	NoneType
	BoolType
	IntType
	FloatType
	BytesType
	UnicodeType
	ListType
	TupleType
	SetType
	DictType
	FunctionType
	ClassType
	InstanceType
	ModuleType
	ExtensionTypeReference
)

func (t Type) String() string {
	switch t {
	case Indeterminate:
		return "Indeterminate"
	case NoneType:
		return "None"
	case BoolType:
		return "Bool"
	case IntType:
		return "Int"
	case FloatType:
		return "Float"
	case BytesType:
		return "Bytes"
	case UnicodeType:
		return "Unicode"
	case ListType:
		return "List"
	case TupleType:
		return "Tuple"
	case SetType:
		return "Set"
	case DictType:
		return "Dict"
	case FunctionType:
		return "Function"
	case ClassType:
		return "Class"
	case InstanceType:
		return "Instance"
	case ModuleType:
		return "Module"
	case ExtensionTypeReference:
		return "ExtensionTypeReference"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Pair is one key/value entry of a known Dict, stored in insertion
// order (spec.md §3: "globals: ordered mapping" applies to dicts too —
// iteration order is observable).
type Pair struct {
	Key *Value
	Val *Value
}

// Value is one element of the inference lattice.
type Value struct {
	Type  Type
	Known bool

	Int   int64  // Int, Bool (0/1)
	Float float64
	Str   string // Bytes, Unicode, or Module name payload

	Elements []*Value // List/Tuple ordered contents when Known
	SetItems []*Value // Set contents when Known (deduplicated by Equal)
	Pairs    []Pair   // Dict contents when Known

	ID       int64 // Function/Class id, or Instance's owning class id
	Instance any   // opaque instance pointer (Instance type only)

	// ExtensionTypes carries container parameterization: a List's single
	// element type, a Dict's [key, value] types, a Tuple's per-slot
	// types. Always type-only Values (Known may be false or true, but
	// only Type/ExtensionTypes/identity are consulted).
	ExtensionTypes []*Value

	// identity distinguishes two unknown Values for hashing purposes
	// (spec.md §4.5: "two unknown Values never accidentally collide").
	identity uint64
}

var identityCounter uint64

func nextIdentity() uint64 {
	return atomic.AddUint64(&identityCounter, 1)
}

// NewIndeterminate returns the bottom/top element: unknown type,
// unknown value.
func NewIndeterminate() *Value {
	return &Value{Type: Indeterminate, identity: nextIdentity()}
}

// TypeOnly returns a Value of the given type whose payload is not
// known, optionally parameterized by extension types (e.g. the element
// type of an empty-bodied List inference).
func TypeOnly(t Type, ext ...*Value) *Value {
	return &Value{Type: t, Known: false, ExtensionTypes: ext, identity: nextIdentity()}
}

func NewNone() *Value {
	return &Value{Type: NoneType, Known: true}
}

func NewBool(b bool) *Value {
	var i int64
	if b {
		i = 1
	}
	return &Value{Type: BoolType, Known: true, Int: i}
}

func NewInt(n int64) *Value {
	return &Value{Type: IntType, Known: true, Int: n}
}

func NewFloat(f float64) *Value {
	return &Value{Type: FloatType, Known: true, Float: f}
}

func NewBytes(s string) *Value {
	return &Value{Type: BytesType, Known: true, Str: s}
}

func NewUnicode(s string) *Value {
	return &Value{Type: UnicodeType, Known: true, Str: s}
}

func NewModule(name string) *Value {
	return &Value{Type: ModuleType, Known: true, Str: name}
}

func NewFunction(id int64) *Value {
	return &Value{Type: FunctionType, Known: true, ID: id}
}

func NewClass(id int64) *Value {
	return &Value{Type: ClassType, Known: true, ID: id}
}

func NewInstance(classID int64, ptr any) *Value {
	return &Value{Type: InstanceType, Known: ptr != nil, ID: classID, Instance: ptr}
}

// elementType derives the single element type shared by elems by
// merging each element's type pairwise, or Indeterminate for an empty
// sequence.
func elementType(elems []*Value) *Value {
	if len(elems) == 0 {
		return TypeOnly(Indeterminate)
	}
	acc := TypeOnly(elems[0].Type, elems[0].ExtensionTypes...)
	for _, e := range elems[1:] {
		acc = MergeTypes(acc, TypeOnly(e.Type, e.ExtensionTypes...))
	}
	return acc
}

func NewList(elems []*Value) *Value {
	return &Value{Type: ListType, Known: true, Elements: elems, ExtensionTypes: []*Value{elementType(elems)}}
}

func NewTuple(elems []*Value) *Value {
	ext := make([]*Value, len(elems))
	for i, e := range elems {
		ext[i] = TypeOnly(e.Type, e.ExtensionTypes...)
	}
	return &Value{Type: TupleType, Known: true, Elements: elems, ExtensionTypes: ext}
}

func NewSet(elems []*Value) *Value {
	deduped := dedupeByEqual(elems)
	return &Value{Type: SetType, Known: true, SetItems: deduped, ExtensionTypes: []*Value{elementType(deduped)}}
}

func dedupeByEqual(elems []*Value) []*Value {
	var out []*Value
	for _, e := range elems {
		dup := false
		for _, o := range out {
			if e.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

func NewDict(pairs []Pair) *Value {
	keys := make([]*Value, len(pairs))
	vals := make([]*Value, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
		vals[i] = p.Val
	}
	return &Value{Type: DictType, Known: true, Pairs: pairs, ExtensionTypes: []*Value{elementType(keys), elementType(vals)}}
}

// Truthy reports the value's boolean coercion (Python truthiness
// rules) and whether that coercion is statically known.
func (v *Value) Truthy() (truth bool, known bool) {
	if !v.Known {
		return false, false
	}
	switch v.Type {
	case NoneType:
		return false, true
	case BoolType, IntType:
		return v.Int != 0, true
	case FloatType:
		return v.Float != 0, true
	case BytesType, UnicodeType:
		return len(v.Str) != 0, true
	case ListType, TupleType:
		return len(v.Elements) != 0, true
	case SetType:
		return len(v.SetItems) != 0, true
	case DictType:
		return len(v.Pairs) != 0, true
	default:
		return true, true
	}
}

// TypesEqual ignores payloads but requires matching extension types
// (spec.md §3).
func (v *Value) TypesEqual(o *Value) bool {
	if v.Type != o.Type {
		return false
	}
	if len(v.ExtensionTypes) != len(o.ExtensionTypes) {
		return false
	}
	for i := range v.ExtensionTypes {
		if !v.ExtensionTypes[i].TypesEqual(o.ExtensionTypes[i]) {
			return false
		}
	}
	return true
}

// Equal reports value+type equality. An unknown Value never compares
// equal to anything, including itself (spec.md §3).
func (v *Value) Equal(o *Value) bool {
	if !v.Known || !o.Known {
		return false
	}
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case NoneType:
		return true
	case BoolType, IntType:
		return v.Int == o.Int
	case FloatType:
		return v.Float == o.Float
	case BytesType, UnicodeType, ModuleType:
		return v.Str == o.Str
	case ListType, TupleType:
		if len(v.Elements) != len(o.Elements) {
			return false
		}
		for i := range v.Elements {
			if !v.Elements[i].Equal(o.Elements[i]) {
				return false
			}
		}
		return true
	case SetType:
		if len(v.SetItems) != len(o.SetItems) {
			return false
		}
		for _, e := range v.SetItems {
			if !containsEqual(o.SetItems, e) {
				return false
			}
		}
		return true
	case DictType:
		if len(v.Pairs) != len(o.Pairs) {
			return false
		}
		for _, p := range v.Pairs {
			ov, ok := dictLookup(o, p.Key)
			if !ok || !ov.Equal(p.Val) {
				return false
			}
		}
		return true
	case FunctionType, ClassType:
		return v.ID == o.ID
	case InstanceType:
		return v.ID == o.ID && v.Instance == o.Instance
	default:
		return false
	}
}

func containsEqual(items []*Value, v *Value) bool {
	for _, it := range items {
		if it.Equal(v) {
			return true
		}
	}
	return false
}

func dictLookup(d *Value, key *Value) (*Value, bool) {
	for _, p := range d.Pairs {
		if p.Key.Equal(key) {
			return p.Val, true
		}
	}
	return nil, false
}

// Hash derives a bucket for set/dict membership testing. Known values
// hash by payload; unknown values hash by their private identity
// counter, so two unknown Values never collide (spec.md §4.5).
func (v *Value) Hash() uint64 {
	if !v.Known {
		return v.identity*2 + 1
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:", v.Type)
	switch v.Type {
	case NoneType:
	case BoolType, IntType:
		fmt.Fprintf(h, "%d", v.Int)
	case FloatType:
		fmt.Fprintf(h, "%g", v.Float)
	case BytesType, UnicodeType, ModuleType:
		h.Write([]byte(v.Str))
	case TupleType:
		for _, e := range v.Elements {
			fmt.Fprintf(h, "%d,", e.Hash())
		}
	case FunctionType, ClassType:
		fmt.Fprintf(h, "%d", v.ID)
	default:
		fmt.Fprintf(h, "%p", v)
	}
	return h.Sum64()
}

// MergeTypes computes the lattice join of two type-only descriptions:
// identical types merge to that type (recursively merging extension
// types); two different numeric types (Bool, Int, Float) merge to the
// wider one; anything else widens to Indeterminate. Payload/known-ness is
// always dropped — the result only ever describes a type.
func MergeTypes(a, b *Value) *Value {
	if a.Type == Indeterminate || b.Type == Indeterminate {
		return TypeOnly(Indeterminate)
	}
	if a.Type != b.Type {
		if isNumeric(a.Type) && isNumeric(b.Type) {
			return TypeOnly(promote(a.Type, b.Type))
		}
		return TypeOnly(Indeterminate)
	}
	if len(a.ExtensionTypes) != len(b.ExtensionTypes) {
		return TypeOnly(a.Type)
	}
	ext := make([]*Value, len(a.ExtensionTypes))
	for i := range ext {
		ext[i] = MergeTypes(a.ExtensionTypes[i], b.ExtensionTypes[i])
	}
	return TypeOnly(a.Type, ext...)
}

func isNumeric(t Type) bool {
	return t == BoolType || t == IntType || t == FloatType
}

// promote implements Python's Bool -> Int -> Float numeric widening.
func promote(a, b Type) Type {
	rank := func(t Type) int {
		switch t {
		case BoolType:
			return 0
		case IntType:
			return 1
		case FloatType:
			return 2
		}
		return -1
	}
	if rank(a) >= rank(b) {
		if a == BoolType {
			return IntType
		}
		return a
	}
	if b == BoolType {
		return IntType
	}
	return b
}

// String renders a debug form of the value; used by trace logging and
// tests, not by the compiled program itself.
func (v *Value) String() string {
	if !v.Known {
		return fmt.Sprintf("<%s>", v.Type)
	}
	switch v.Type {
	case NoneType:
		return "None"
	case BoolType:
		return fmt.Sprintf("%v", v.Int != 0)
	case IntType:
		return fmt.Sprintf("%d", v.Int)
	case FloatType:
		return fmt.Sprintf("%g", v.Float)
	case BytesType:
		return fmt.Sprintf("b%q", v.Str)
	case UnicodeType:
		return fmt.Sprintf("%q", v.Str)
	case ModuleType:
		return fmt.Sprintf("<module %s>", v.Str)
	case ListType:
		return seqString("[", v.Elements, "]")
	case TupleType:
		return seqString("(", v.Elements, ")")
	case SetType:
		return seqString("{", v.SetItems, "}")
	case DictType:
		var parts []string
		for _, p := range v.Pairs {
			parts = append(parts, fmt.Sprintf("%s: %s", p.Key, p.Val))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case FunctionType:
		return fmt.Sprintf("<function #%d>", v.ID)
	case ClassType:
		return fmt.Sprintf("<class #%d>", v.ID)
	case InstanceType:
		return fmt.Sprintf("<instance of #%d>", v.ID)
	default:
		return v.Type.String()
	}
}

func seqString(open string, elems []*Value, close string) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return open + strings.Join(parts, ", ") + close
}
