// Command nsc is the ahead-of-time compiler and runtime entry point of
// spec.md §6: it locates a target module (a file path, `-c <code>`, or
// `-m <module>`), drives it through every compilation phase up to
// Imported, and reports the phase reached. It does not execute the
// compiled code.
//
// Grounded on _examples/sunholo-data-ailang/cmd/ailang/main.go's
// flag-parse -> dispatch -> colored-error-report shape, rebuilt on
// cobra/pflag for the larger flag surface this spec's CLI needs
// (repeatable -X/-A, -c/-m/file mutual exclusion) per SPEC_FULL.md's
// DOMAIN STACK.
package main

import (
	"fmt"
	"os"

	figure "github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nemesys-lang/nsc/internal/errors"
	"github.com/nemesys-lang/nsc/internal/pipeline"
	"github.com/nemesys-lang/nsc/internal/registry"
)

var (
	errColor = color.New(color.FgRed, color.Bold).SprintFunc()
	okColor  = color.New(color.FgGreen).SprintFunc()

	flagCode        string
	flagModule      string
	flagDebug       []string
	flagImportRoots []string
)

func main() {
	os.Exit(run())
}

func run() int {
	for _, a := range os.Args[1:] {
		if a == "-?" {
			printBanner()
			newRootCommand(projectConfig{}).Usage()
			return 0
		}
	}
	loadDotEnv()
	cfg, err := loadProjectConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: reading nsc.yaml: %v\n", errColor("Error"), err)
		return 1
	}

	root := newRootCommand(cfg)
	if err := root.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode is set by runTarget and read back by run() after
// root.Execute() returns, since cobra's RunE only reports success/
// failure, not an arbitrary process exit status (spec.md §6: "Exit
// code is 0 on success, 1 on compile/runtime failure").
var exitCode int

func newRootCommand(cfg projectConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nsc [target] [args...]",
		Short:         "nsc - ahead-of-time type-specializing compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTarget(cmd, args, cfg)
		},
	}
	cmd.Flags().StringVarP(&flagCode, "c", "c", "", "run the given source string as module __main__")
	cmd.Flags().StringVarP(&flagModule, "m", "m", "", "locate <module> on the import path and run it as __main__")
	cmd.Flags().StringArrayVarP(&flagDebug, "X", "X", nil, "comma-separated debug/behavior flags, may repeat")
	cmd.Flags().StringArrayVarP(&flagImportRoots, "A", "A", nil, "prepend an import search root, may repeat")
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		printBanner()
		c.Root().UsageFunc()(c)
	})
	return cmd
}

func printBanner() {
	figure.NewFigure("nsc", "", true).Print()
}

func runTarget(cmd *cobra.Command, args []string, cfg projectConfig) error {
	if flagCode != "" && flagModule != "" {
		return fmt.Errorf("-c and -m are mutually exclusive")
	}

	runID := uuid.NewString()

	importRoots := append([]string{}, flagImportRoots...)
	importRoots = append(importRoots, cfg.ImportRoots...)

	driver := pipeline.New(importRoots)
	driver.Global.DebugFlags = mergeFlags(expandDebugFlags(cfg.DebugFlags), expandDebugFlags(flagDebug))
	driver.DebugHooks.OnPhase = func(moduleName string, from, to registry.Phase) {
		if !driver.Global.DebugFlags["ShowJITEvents"] {
			return
		}
		stageLogger(driver.Global, "ShowJITEvents", "phase", runID).
			Infof("%s: %v -> %v", moduleName, from, to)
	}

	var argv []string
	switch {
	case flagCode != "":
		argv = append([]string{"-c"}, args...)
	case flagModule != "":
		argv = append([]string{"-m"}, args...)
	case len(args) > 0:
		argv = args
	default:
		return fmt.Errorf("missing target: expected a file path, -c <code>, or -m <module>")
	}
	driver.SetArgv(argv)

	var (
		mod *registry.ModuleContext
		err error
	)
	switch {
	case flagCode != "":
		mod, err = driver.LoadEntrySource(flagCode, "__main__")
	case flagModule != "":
		if path, found := driver.Loader.Locate(flagModule); found {
			mod, err = driver.LoadEntryFile(path, "__main__")
		} else {
			err = fmt.Errorf("no module named %q on the import path", flagModule)
		}
	default:
		mod, err = driver.LoadEntryFile(args[0], "__main__")
	}
	if err != nil {
		return reportFailure(err)
	}

	fmt.Printf("%s: module %q reached phase %s\n", okColor("ok"), mod.Name, mod.Phase)
	exitCode = 0
	return nil
}

func mergeFlags(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func reportFailure(err error) error {
	exitCode = 1
	if rep, ok := errors.AsReport(err); ok {
		fmt.Fprintf(os.Stderr, "%s: %s [%s] %s:%d: %s\n",
			errColor("Error"), rep.Code, rep.Phase, rep.File, rep.Line, rep.Message)
		return nil
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", errColor("Error"), err)
	return nil
}
