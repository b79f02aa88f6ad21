package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// Report is the canonical structured diagnostic for nsc. Every phase
// (lex, parse, annotate, analyze, compile, cycle) produces *Report
// values rather than bare errors so the driver has one place to format
// and print failures (spec.md §7).
type Report struct {
	Code    string         `json:"code"`             // e.g. "PAR001"
	Phase   string         `json:"phase"`            // "lex", "parse", ...
	Message string         `json:"message"`          // human-readable explanation
	File    string         `json:"file"`              // source file, or "__imm__"
	Offset  int            `json:"offset"`           // byte offset, -1 if indeterminate
	Line    int            `json:"line"`             // 1-based line, 0 if indeterminate
	Column  int            `json:"column,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report as a Go error so it can travel through
// ordinary error-returning APIs while surviving errors.As unwrapping.
type ReportError struct {
	Rep *Report
}

// Error implements the error interface.
func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return fmt.Sprintf("[%s] %s at line %d (offset %d): %s",
		e.Rep.File, e.Rep.Code, e.Rep.Line, e.Rep.Offset, e.Rep.Message)
}

// AsReport extracts a *Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if stderrors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap wraps a Report as an error. Call sites return errors.Wrap(r) to
// preserve the structured diagnostic across ordinary `error` returns.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// New builds a Report. Offset -1 and Line 0 mean "indeterminate
// position" per spec.md §5 (Cancellation/error propagation).
func New(code, phase, file string, offset, line, column int, message string) *Report {
	return &Report{
		Code:    code,
		Phase:   phase,
		File:    file,
		Offset:  offset,
		Line:    line,
		Column:  column,
		Message: message,
		Data:    map[string]any{},
	}
}

// ToJSON renders the report as JSON. The CLI does not call it; its
// error output is plain text whatever `-X` flags are set.
func (r *Report) ToJSON(indent bool) (string, error) {
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
