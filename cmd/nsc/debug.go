package main

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nemesys-lang/nsc/internal/registry"
)

// debugDisplayFlags are the display-only `-X` flags (spec.md §6).
// behaviorFlags below holds the two behavior-changing flags, and the
// aggregate shorthands Code/Verbose/All are expanded by
// expandDebugFlags.
var debugDisplayFlags = []string{
	"ShowSearchDebug", "ShowSourceDebug", "ShowLexDebug", "ShowParseDebug",
	"ShowAnnotateDebug", "ShowAnalyzeDebug", "ShowCompileDebug",
	"ShowAssembly", "ShowRefcountChanges", "ShowJITEvents", "ShowCompileErrors",
}

var behaviorFlags = []string{"NoInlineRefcounting", "NoEagerCompilation"}

// expandDebugFlags turns the raw, possibly comma-grouped and repeated
// `-X` values into the resolved set recorded on
// registry.GlobalContext.DebugFlags, expanding the two aggregate
// shorthands spec.md §6 defines: `Code` means
// ShowAnnotateDebug+ShowAnalyzeDebug+ShowCompileDebug, `Verbose` means
// every display flag, `All` means every flag including the behavior
// ones.
func expandDebugFlags(raw []string) map[string]bool {
	out := make(map[string]bool)
	var add func(name string)
	add = func(name string) {
		switch name {
		case "Code":
			add("ShowAnnotateDebug")
			add("ShowAnalyzeDebug")
			add("ShowCompileDebug")
		case "Verbose":
			for _, f := range debugDisplayFlags {
				out[f] = true
			}
		case "All":
			for _, f := range debugDisplayFlags {
				out[f] = true
			}
			for _, f := range behaviorFlags {
				out[f] = true
			}
		default:
			out[name] = true
		}
	}
	for _, group := range raw {
		for _, name := range strings.Split(group, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				add(name)
			}
		}
	}
	return out
}

// stageLogger returns a logrus entry for one pipeline stage, enabled
// (Debug level) only when its corresponding `-X` flag was set; tagged
// with runID so multiple invocations' captured logs stay separable
// (SPEC_FULL.md DOMAIN STACK: google/uuid run correlation).
func stageLogger(global *registry.GlobalContext, flag, stage, runID string) *logrus.Entry {
	log := logrus.New()
	if global.DebugFlags[flag] {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log.WithFields(logrus.Fields{"stage": stage, "run": runID})
}
