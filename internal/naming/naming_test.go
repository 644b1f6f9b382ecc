package naming

import (
	"strings"
	"testing"
)

func TestVolumeName(t *testing.T) {
	t.Parallel()

	// Regenerating from unchanged inputs must yield the same name.
	a := VolumeName("demo", "app")
	b := VolumeName("demo", "app")
	if a != b {
		t.Fatalf("VolumeName not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "denv-demo-app-") {
		t.Fatalf("unexpected volume name %q", a)
	}
	if VolumeName("demo", "data") == a {
		t.Fatalf("distinct roles produced the same name")
	}
	if VolumeName("other", "app") == a {
		t.Fatalf("distinct projects produced the same name")
	}
}

func TestShortHash(t *testing.T) {
	t.Parallel()

	h := ShortHash("x", 6)
	if len(h) != 6 {
		t.Fatalf("expected 6 chars, got %q", h)
	}
	if ShortHash("x", 100) == "" {
		t.Fatalf("clamped hash must not be empty")
	}
}

func TestScriptFileName(t *testing.T) {
	t.Parallel()

	if got := ScriptFileName(1, "on_build"); got != "stage-1-on_build.sh" {
		t.Fatalf("ScriptFileName = %q", got)
	}
}

func TestKeyFileName(t *testing.T) {
	t.Parallel()

	if got := KeyFileName("alice", "derived.pub"); got != "alice.derived.pub" {
		t.Fatalf("KeyFileName = %q", got)
	}
}
