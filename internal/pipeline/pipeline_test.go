package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/registry"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".py"), []byte(src), 0o644))
}

func TestLoadEntryFileReachesImported(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "main", "x = 1 + 2\n")

	d := New([]string{dir})
	mod, err := d.LoadEntryFile(filepath.Join(dir, "main.py"), "__main__")
	require.NoError(t, err)
	require.Equal(t, registry.Imported, mod.Phase)
}

func TestLoadEntrySourceReachesImported(t *testing.T) {
	d := New(nil)
	mod, err := d.LoadEntrySource("x = 1\n", "__main__")
	require.NoError(t, err)
	require.Equal(t, registry.Imported, mod.Phase)
}

func TestSetArgvPopulatesSysArgv(t *testing.T) {
	d := New(nil)
	d.SetArgv([]string{"prog.py", "a", "b"})
	sysMod, ok := d.Global.Module("sys")
	require.True(t, ok)
	slot, ok := sysMod.Global("argv")
	require.True(t, ok)
	require.True(t, slot.Value.Known)
	require.Len(t, slot.Value.Elements, 3)
	require.Equal(t, "prog.py", slot.Value.Elements[0].Str)
}

func TestCircularImportFailsWithCycleError(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "x", "from y import g\ndef f():\n    pass\n")
	writeModule(t, dir, "y", "from x import f\ndef g():\n    pass\n")

	d := New([]string{dir})
	_, err := d.Advance("x", registry.Annotated)
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.CYC001, rep.Code)
}

func TestMissingModuleReportsAnnotateError(t *testing.T) {
	d := New([]string{t.TempDir()})
	_, err := d.Advance("nonexistent", registry.Initial)
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Equal(t, errors.ANN003, rep.Code)
}

func TestAdvanceIsIdempotentOncePastTarget(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m", "x = 1\n")

	d := New([]string{dir})
	mod1, err := d.Advance("m", registry.Annotated)
	require.NoError(t, err)
	mod2, err := d.Advance("m", registry.Parsed)
	require.NoError(t, err)
	require.Same(t, mod1, mod2)
	require.Equal(t, registry.Annotated, mod2.Phase)
}

func TestPhaseTraceHookFiresForEveryTransition(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m", "x = 1\n")

	d := New([]string{dir})
	var transitions []registry.Phase
	d.DebugHooks.OnPhase = func(_ string, from, to registry.Phase) {
		transitions = append(transitions, to)
	}
	_, err := d.Advance("m", registry.Imported)
	require.NoError(t, err)
	require.Equal(t, []registry.Phase{
		registry.Parsed, registry.Annotated, registry.Analyzed, registry.Imported,
	}, transitions)
}
