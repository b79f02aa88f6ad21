package main

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// projectConfig is the optional nsc.yaml project file read from the
// current directory before flag parsing (SPEC_FULL.md §6 DOMAIN STACK):
// import roots and default `-X` flags a project wants applied on every
// invocation without repeating them on the command line.
type projectConfig struct {
	ImportRoots []string `yaml:"import_roots"`
	DebugFlags  []string `yaml:"debug_flags"`
}

// loadProjectConfig reads ./nsc.yaml if present; a missing file is not
// an error, it just yields a zero-value config.
func loadProjectConfig() (projectConfig, error) {
	var cfg projectConfig
	data, err := os.ReadFile("nsc.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotEnv loads .env from the current working directory into the
// process environment, if present. internal/module.NewLoader loads the
// same file again and reads NSC_PATH from the environment; no other
// variable set there is read.
func loadDotEnv() {
	_ = godotenv.Load()
}
