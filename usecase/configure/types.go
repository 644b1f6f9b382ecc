// Package configure implements the single entry point the CLI and GUI call:
// read the configuration document of a project directory, validate it fully,
// and regenerate the complete artifact set.
package configure

import (
	"github.com/denvops/denv/domain"
)

// UseCase wires dependencies for the configure operation.
type UseCase struct {
	// Runs is the optional artifact-manifest store. When set, each
	// successful run is recorded and artifacts dropped by the new document
	// are pruned from disk.
	Runs domain.RunRepository
}

// Opts carries the inputs of one configure invocation. Everything ambient
// (environment, home directory) is injected so the transformation stays a
// pure function of its inputs.
type Opts struct {
	// ProjectDir contains the configuration document and receives the
	// generated artifact set.
	ProjectDir string
	// Env is the environment snapshot used for ${NAME:-default}
	// substitution. Nil means the process environment.
	Env map[string]string
	// InstallRoot anchors relative lifecycle script paths and legacy
	// relative key paths. Empty means ProjectDir.
	InstallRoot string
	// HomeDir is the invoking user's home directory for "~" key discovery.
	// Empty means the OS-reported home.
	HomeDir string
}

// Result reports a successful configure run.
type Result struct {
	// Project is the derived project name.
	Project string
	// Artifacts lists the generated paths relative to the project directory.
	Artifacts []string
	// Warnings lists non-fatal capability reductions, e.g. an encrypted
	// private key no public key could be derived from.
	Warnings []string
}
