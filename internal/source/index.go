// Package source implements the offset<->line index over a whole source
// file (spec.md §4.1). It owns the raw file contents and a sorted list
// of line-start offsets; everything else in the compiler addresses
// source positions through this package rather than re-scanning text.
//
// Grounded on original_source/SourceFile.hh and SourceFile.cc: 1-based
// line numbers, the `__imm__` filename sentinel for literal-text
// construction, and trailing-newline trimming in Line. Unlike the
// original's linear scan, LineNumberOfOffset here is a binary search
// per spec.md §4.1's explicit requirement.
package source

import (
	"fmt"
	"os"
	"sort"
)

// ImmediateFilename is the sentinel filename used when an Index is
// constructed from literal source text rather than a file on disk.
const ImmediateFilename = "__imm__"

// Index is an immutable view over one source file's bytes plus its
// line-start offset table.
type Index struct {
	filename    string
	data        []byte
	lineStarts  []int // lineStarts[i] is the byte offset of line i+1
}

// FromFile reads filename from disk and builds an Index over its
// contents.
func FromFile(filename string) (*Index, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return newIndex(filename, data), nil
}

// FromString builds an Index over literal source text. The returned
// Index reports ImmediateFilename as its filename.
func FromString(text string) *Index {
	return newIndex(ImmediateFilename, []byte(text))
}

func newIndex(filename string, data []byte) *Index {
	idx := &Index{filename: filename, data: data}
	lastStart := 0
	for i, b := range data {
		if b == '\n' {
			idx.lineStarts = append(idx.lineStarts, lastStart)
			lastStart = i + 1
		}
	}
	idx.lineStarts = append(idx.lineStarts, lastStart)
	return idx
}

// Filename returns the original filename, or ImmediateFilename.
func (idx *Index) Filename() string { return idx.filename }

// Data returns the raw file contents.
func (idx *Index) Data() []byte { return idx.data }

// Size returns the total byte count.
func (idx *Index) Size() int { return len(idx.data) }

// LineCount returns the number of lines (always >= 1, even for an empty
// file).
func (idx *Index) LineCount() int { return len(idx.lineStarts) }

func (idx *Index) checkLine(lineNum int) error {
	if lineNum == 0 {
		return fmt.Errorf("source: line numbers are 1-based, not 0-based")
	}
	if lineNum > len(idx.lineStarts) {
		return fmt.Errorf("source: line %d is beyond end of file (%d lines)", lineNum, len(idx.lineStarts))
	}
	return nil
}

// LineOffset returns the byte offset at which line lineNum (1-based)
// begins.
func (idx *Index) LineOffset(lineNum int) (int, error) {
	if err := idx.checkLine(lineNum); err != nil {
		return 0, err
	}
	return idx.lineStarts[lineNum-1], nil
}

// LineEndOffset returns the byte offset one past the last non-newline
// character of line lineNum.
func (idx *Index) LineEndOffset(lineNum int) (int, error) {
	if err := idx.checkLine(lineNum); err != nil {
		return 0, err
	}
	var end int
	if lineNum == len(idx.lineStarts) {
		end = len(idx.data)
	} else {
		end = idx.lineStarts[lineNum]
	}
	for end > idx.lineStarts[lineNum-1] && end > 0 && idx.data[end-1] == '\n' {
		end--
	}
	return end, nil
}

// Line returns the text of line lineNum (1-based), trimmed of its
// trailing newline.
func (idx *Index) Line(lineNum int) ([]byte, error) {
	start, err := idx.LineOffset(lineNum)
	if err != nil {
		return nil, err
	}
	end, err := idx.LineEndOffset(lineNum)
	if err != nil {
		return nil, err
	}
	return idx.data[start:end], nil
}

// LineNumberOfOffset returns the 1-based line number containing offset,
// found by binary search over the line-start table. Returns -1 if
// offset is at or past end of file.
func (idx *Index) LineNumberOfOffset(offset int) int {
	if offset < 0 || offset >= len(idx.data) {
		return -1
	}
	// Find the last lineStarts[i] <= offset.
	i := sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	})
	// i is the first index whose start exceeds offset, so the
	// containing line is i-1 (0-based) i.e. line number i (1-based).
	if i == 0 {
		return -1
	}
	return i
}

// ColumnOfOffset returns the 1-based column of offset within its line,
// or -1 if the offset is out of range.
func (idx *Index) ColumnOfOffset(offset int) int {
	line := idx.LineNumberOfOffset(offset)
	if line == -1 {
		return -1
	}
	start, _ := idx.LineOffset(line)
	return offset - start + 1
}
