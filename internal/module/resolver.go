// Package module implements spec.md §6's "Source layout on disk":
// locating a dotted module name on an ordered list of import search
// roots, first match wins.
//
// Adapted from _examples/sunholo-data-ailang/internal/module/resolver.go
// (ordered-root path search over a dotted module name), retargeted at
// this language's ".py"-suffixed single-file layout instead of AILANG's
// directory-based package resolution.
package module

import (
	"os"
	"path/filepath"
	"strings"
)

// Sentinel filename for a module constructed from literal source text
// rather than a file on disk (spec.md §4.1).
const ImmediateFilename = "__imm__"

// Resolve searches roots in order for a file implementing the dotted
// module name, returning the first match. Dots are replaced with the
// OS path separator and ".py" is appended (spec.md §6).
func Resolve(name string, roots []string) (string, bool) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".py"
	for _, root := range roots {
		candidate := filepath.Join(root, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
