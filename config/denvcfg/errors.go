package denvcfg

import (
	"fmt"
	"strings"
)

// Violation is one violated constraint: the dotted field path in the
// document plus a message describing the expected shape.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string { return v.Path + ": " + v.Message }

// ValidationError aggregates every violated constraint of one document so
// callers can surface the full list instead of fixing errors one at a time.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("invalid configuration (%d problems): %s", len(e.Violations), strings.Join(msgs, "; "))
}

// collector accumulates violations during validation.
type collector struct {
	violations []Violation
}

func (c *collector) addf(path, format string, args ...any) {
	c.violations = append(c.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: c.violations}
}
