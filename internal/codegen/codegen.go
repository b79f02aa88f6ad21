// Package codegen is the interface boundary to the AMD64 assembler
// backend spec.md §1 treats as an opaque, out-of-scope service: "an
// opaque service that assembles a label-tagged instruction stream into
// an executable blob". internal/codegen ships one concrete
// implementation, BlockAssembler, which performs real label-to-offset
// bookkeeping into an append-only []byte region of the process-wide
// code buffer (spec.md §3 GlobalContext.code) without emitting actual
// AMD64 machine encoding (spec.md §1 Non-goals/Out of scope).
//
// Grounded on spec.md §4.9's "code-buffer layout" bullet and §3's
// Fragment.label_to_offset field; the placeholder instruction encoding
// below exists only so the driver's bookkeeping has something real to
// exercise, not as a step toward an actual native backend.
package codegen

import (
	"fmt"

	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/registry"
)

// Assembler is the opaque back-end service boundary: given a sequence
// of labeled placeholder instructions, it lays them into the shared
// code buffer and reports where each label landed.
type Assembler interface {
	// Assemble reserves space in global.Code for instrs and returns the
	// code's starting offset plus a label -> absolute-offset map.
	Assemble(global *registry.GlobalContext, instrs []Instr) (start int, labels map[string]int, err error)
}

// InstrKind distinguishes a label definition from an emitted
// placeholder opcode.
type InstrKind int

const (
	OpLabel InstrKind = iota
	OpEmit
)

// Instr is one entry of a label-tagged instruction stream: either
// "define label L here" or "emit N placeholder bytes tagged text".
type Instr struct {
	Kind InstrKind
	Name string // label name (OpLabel) or opcode mnemonic (OpEmit)
	Size int    // placeholder byte width for OpEmit (mnemonic-dependent)
}

// Label produces an OpLabel instruction.
func Label(name string) Instr { return Instr{Kind: OpLabel, Name: name} }

// Emit produces an OpEmit instruction of size bytes tagged mnemonic,
// e.g. Emit("call", 5) for a near CALL placeholder.
func Emit(mnemonic string, size int) Instr { return Instr{Kind: OpEmit, Name: mnemonic, Size: size} }

// BlockAssembler is the default Assembler: it lays out instrs linearly,
// recording each label's absolute offset into global.Code as it goes,
// and fills placeholder bytes with a repeating tag derived from the
// mnemonic so a hex dump of global.Code stays legible. Nothing prints
// such a dump; `-X ShowAssembly` is recorded but produces no output.
type BlockAssembler struct{}

func NewBlockAssembler() *BlockAssembler { return &BlockAssembler{} }

func (BlockAssembler) Assemble(global *registry.GlobalContext, instrs []Instr) (int, map[string]int, error) {
	total := 0
	for _, in := range instrs {
		if in.Kind == OpEmit {
			total += in.Size
		}
	}
	start := global.ReserveCode(total)
	labels := make(map[string]int)
	cursor := start
	for _, in := range instrs {
		switch in.Kind {
		case OpLabel:
			if _, dup := labels[in.Name]; dup {
				return 0, nil, errors.Wrap(errors.New(errors.CMP003, errors.PhaseCompile, "", -1, 0, 0,
					fmt.Sprintf("label %q defined more than once in one fragment", in.Name)))
			}
			labels[in.Name] = cursor
		case OpEmit:
			fill := placeholderByte(in.Name)
			for i := 0; i < in.Size; i++ {
				global.Code[cursor+i] = fill
			}
			cursor += in.Size
		}
	}
	return start, labels, nil
}

// placeholderByte derives a single repeating fill byte from a
// mnemonic's first character, purely so distinct opcodes are visually
// distinguishable in a hex dump; it carries no encoding meaning.
func placeholderByte(mnemonic string) byte {
	if len(mnemonic) == 0 {
		return 0x90 // conventional NOP filler
	}
	return mnemonic[0]
}

// ResolveLabel looks up a label reference emitted earlier in the same
// fragment, failing with CMP003 if it was never defined (spec.md §7).
func ResolveLabel(labels map[string]int, name string) (int, error) {
	off, ok := labels[name]
	if !ok {
		return 0, errors.Wrap(errors.New(errors.CMP003, errors.PhaseCompile, "", -1, 0, 0,
			fmt.Sprintf("undefined label %q referenced during code generation", name)))
	}
	return off, nil
}
