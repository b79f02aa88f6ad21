// Package errors provides the structured diagnostic taxonomy shared by
// every compiler phase: lexing, parsing, annotation, analysis, and
// compilation.
package errors

// Phase-prefixed error codes. Each constant is a specific, documented
// failure condition so tooling can key off the code rather than parsing
// the message text.
const (
	// ------------------------------------------------------------------
	// Lexing errors (LEX###)
	// ------------------------------------------------------------------

	// LEX001 indicates a character sequence that cannot begin any token.
	LEX001 = "LEX001"
	// LEX002 indicates a string literal with no closing quote before EOF.
	LEX002 = "LEX002"
	// LEX003 indicates an invalid backslash escape inside a string literal.
	LEX003 = "LEX003"
	// LEX004 indicates an open bracket with no matching closer before
	// EOF. Never emitted by this lexer: original_source/PythonLexer.cc
	// falls out of its scan loop with a non-empty paren stack and no
	// check there either, so a dangling opener is intentionally left
	// for the parser (which runs out of tokens and reports PAR001)
	// rather than caught here.
	LEX004 = "LEX004"
	// LEX005 indicates a closing bracket that does not match the top of
	// the open-bracket stack.
	LEX005 = "LEX005"
	// LEX006 indicates an indent level that does not align with any
	// level on the indent stack during an unindent.
	LEX006 = "LEX006"

	// ------------------------------------------------------------------
	// Parse errors (PAR###)
	// ------------------------------------------------------------------

	// PAR001 indicates an unexpected token where a specific token or
	// class of tokens was required.
	PAR001 = "PAR001"
	// PAR002 indicates an assignment target that is not a name,
	// attribute, subscript, slice, or tuple of those.
	PAR002 = "PAR002"
	// PAR003 indicates reassignment of a reserved built-in name
	// (True, False, None).
	PAR003 = "PAR003"
	// PAR004 indicates a positional argument following a keyword
	// argument at a call site.
	PAR004 = "PAR004"
	// PAR005 indicates a keyword parameter with no default value in a
	// function definition.
	PAR005 = "PAR005"
	// PAR006 indicates a construct explicitly unimplemented by this
	// compiler (spec.md §1 Non-goals), currently emitted for a class
	// definition with more than one base (multiple inheritance).
	PAR006 = "PAR006"
	// PAR007 indicates a malformed except clause.
	PAR007 = "PAR007"

	// ------------------------------------------------------------------
	// Annotation errors (ANN###)
	// ------------------------------------------------------------------

	// ANN001 indicates a write to a reserved built-in name.
	ANN001 = "ANN001"
	// ANN002 indicates a `global name` declaration appearing after a
	// local write to `name` within the same function.
	ANN002 = "ANN002"
	// ANN003 indicates an import referencing a module that cannot be
	// located on the import search path.
	ANN003 = "ANN003"
	// ANN004 indicates `from M import name` where `name` is not an
	// exported global of M.
	ANN004 = "ANN004"

	// ------------------------------------------------------------------
	// Analysis errors (ANA###)
	// ------------------------------------------------------------------

	// ANA001 indicates an attempt to rebind a name with a different
	// type than its previously recorded type.
	ANA001 = "ANA001"
	// ANA002 indicates a reference to a name with no recorded binding.
	ANA002 = "ANA002"
	// ANA003 indicates an operator applied to operand types for which
	// no result type is defined.
	ANA003 = "ANA003"
	// ANA004 indicates a class method other than __init__ writing to an
	// attribute name not introduced by __init__.
	ANA004 = "ANA004"
	// ANA005 indicates an except clause whose exception-type expression
	// is not a single Class or a Tuple of Classes resolvable at compile
	// time.
	ANA005 = "ANA005"
	// ANA006 indicates an attribute lookup on a base Value whose type
	// supports no attribute resolution (neither Module, Instance, nor a
	// container with class attributes).
	ANA006 = "ANA006"

	// ------------------------------------------------------------------
	// Compile errors (CMP###)
	// ------------------------------------------------------------------

	// CMP001 indicates a call site with no matching or creatable
	// fragment for a built-in function (built-ins may not be
	// recompiled). Only reachable for a built-in that registers
	// type-specific fragments; a built-in with none dispatches on its
	// single declared return-type signature instead.
	CMP001 = "CMP001"
	// CMP002 indicates a global initializer for a value whose
	// constructor is not yet implemented by this compiler.
	CMP002 = "CMP002"
	// CMP003 indicates a label in the fragment being assembled that is
	// referenced but never defined, or defined more than once.
	CMP003 = "CMP003"
	// CMP004 indicates an AST construct reached during code generation
	// that Annotation/Analysis should have rejected first.
	CMP004 = "CMP004"

	// ------------------------------------------------------------------
	// Cycle errors (CYC###)
	// ------------------------------------------------------------------

	// CYC001 indicates a module re-entering phase advancement while
	// already in progress (a circular import).
	CYC001 = "CYC001"
)

// Phase names used in Report.Phase.
const (
	PhaseLex      = "lex"
	PhaseParse    = "parse"
	PhaseAnnotate = "annotate"
	PhaseAnalyze  = "analyze"
	PhaseCompile  = "compile"
	PhaseCycle    = "cycle"
)
