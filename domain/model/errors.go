package model

import "errors"

var (
	// ErrRunNotFound is returned by the manifest store when no previous
	// configure run is recorded for a project.
	ErrRunNotFound = errors.New("run not found")
)
