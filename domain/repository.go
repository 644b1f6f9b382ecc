// Package domain declares the persistence interfaces implemented by the
// store adapters.
package domain

import "context"

// Run records one successful configure invocation of a project.
type Run struct {
	ID         string
	ConfigHash string
	Artifacts  []string
	CreatedAt  int64
}

// RunRepository persists configure runs and their artifact manifests. The
// previous run's manifest is what lets configure prune artifacts a changed
// document no longer generates.
type RunRepository interface {
	// Latest returns the most recent run, or model.ErrRunNotFound.
	Latest(ctx context.Context) (*Run, error)
	// Record stores a run with its artifact list.
	Record(ctx context.Context, run *Run) error
}
