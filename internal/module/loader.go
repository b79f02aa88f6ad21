package module

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Loader owns the ordered list of import search roots and reads
// source text off disk for the compilation driver. Adapted from
// _examples/sunholo-data-ailang/internal/module/loader.go's
// "searchPaths + NSC_PATH env var" convention, retargeted at this
// spec's single-file-per-module layout (no stdlib subtree, no
// per-loader load-stack cycle cache — spec.md §4.9's cycle guard lives
// in internal/registry.GlobalContext instead, shared process-wide).
type Loader struct {
	SearchPaths []string
}

// NewLoader builds a Loader from explicit roots (typically CLI `-A`
// flags) plus any roots named by the NSC_PATH environment variable,
// always falling back to the current directory (spec.md §6: "default:
// `.`"). A `.env` file in the working directory, if present, is loaded
// first so it can itself set NSC_PATH without the caller having to
// export it into the shell.
func NewLoader(extraRoots []string) *Loader {
	_ = godotenv.Load() // no .env file is not an error

	roots := append([]string{}, extraRoots...)
	if env := os.Getenv("NSC_PATH"); env != "" {
		roots = append(roots, strings.Split(env, string(os.PathListSeparator))...)
	}
	roots = append(roots, ".")
	return &Loader{SearchPaths: roots}
}

// Locate finds the on-disk path implementing module name, or reports
// it was not found.
func (l *Loader) Locate(name string) (string, bool) {
	return Resolve(name, l.SearchPaths)
}

// ReadSource reads the full contents of a file located by Locate.
func (l *Loader) ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
