package naming

// Package naming provides centralized generation of short deterministic
// hashes and names used across generated artifacts: compose volume names,
// generated script and key file names. Keeping the logic here allows future
// changes (length/algorithm) without touching call sites. Everything in this
// package must stay a pure function of its inputs; regenerating artifacts
// from an unchanged document must never rename a volume.

import (
	"crypto/sha1"
	"fmt"
)

// defaultLength defines the hex length of hashes (bits ~ length * 4).
const defaultLength = 6

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// VolumeName synthesizes the engine volume name for an auto-volume backing.
// The format is:
//
//	denv-<project>-<role>-<HASH>
//
// where HASH is derived from "<project>:<role>" so distinct projects sharing
// a role name never collide on the engine namespace.
func VolumeName(project, role string) string {
	return fmt.Sprintf("denv-%s-%s-%s", project, role, ShortHash(project+":"+role, defaultLength))
}

// ScriptFileName returns the generated wrapper script name for a lifecycle
// hook of a stage.
func ScriptFileName(stage int, hook string) string {
	return fmt.Sprintf("stage-%d-%s.sh", stage, hook)
}

// KeyFileName returns the staged key file name for a user. kind is one of
// "pub", "key" or "derived.pub"; usernames are unique per stage so files of
// different users never collide.
func KeyFileName(user, kind string) string {
	return fmt.Sprintf("%s.%s", user, kind)
}
