package scriptentry

import (
	"strings"
	"testing"

	shellwords "github.com/mattn/go-shellwords"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantPath string
		wantArgs string
		wantErr  string
	}{
		{
			name:     "path only",
			raw:      "setup.sh",
			wantPath: "setup.sh",
			wantArgs: "",
		},
		{
			name:     "path with args",
			raw:      "tool.sh --flag value",
			wantPath: "tool.sh",
			wantArgs: "--flag value",
		},
		{
			name:     "args kept verbatim",
			raw:      `tool.sh --cache-dir=$HOME/cache --msg="a b"`,
			wantPath: "tool.sh",
			wantArgs: `--cache-dir=$HOME/cache --msg="a b"`,
		},
		{
			name:     "quoted path with spaces",
			raw:      `"my scripts/run.sh" --x`,
			wantPath: "my scripts/run.sh",
			wantArgs: "--x",
		},
		{
			name:     "single quoted path",
			raw:      "'a b.sh'",
			wantPath: "a b.sh",
			wantArgs: "",
		},
		{
			name:     "leading whitespace",
			raw:      "   run.sh -v",
			wantPath: "run.sh",
			wantArgs: "-v",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: "empty script entry",
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: "empty script entry",
		},
		{
			name:    "unterminated quote",
			raw:     `"run.sh`,
			wantErr: "unterminated quote",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := Parse(tt.raw)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want containing %q", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.raw, err)
			}
			if e.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", e.Path, tt.wantPath)
			}
			if e.Args != tt.wantArgs {
				t.Errorf("Args = %q, want %q", e.Args, tt.wantArgs)
			}
			if e.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", e.Raw, tt.raw)
			}
		})
	}
}

// TestParse_ExpansionPreserved verifies the wrapper-line property end to
// end: the rendered invocation must still expand $VAR and honor the user's
// quoting when a shell splits it. Shell word splitting is simulated with
// go-shellwords in env-expansion mode.
func TestParse_ExpansionPreserved(t *testing.T) {
	t.Setenv("HOME", "/x")

	e, err := Parse(`tool.sh --cache-dir=$HOME/cache --msg="a b"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	line := e.Line("bash", e.Path)
	p := shellwords.NewParser()
	p.ParseEnv = true
	words, err := p.Parse(line)
	if err != nil {
		t.Fatalf("shell split: %v", err)
	}

	want := []string{"bash", "tool.sh", "--cache-dir=/x/cache", "--msg=a b"}
	if len(words) != len(want) {
		t.Fatalf("split into %d words %q, want %d", len(words), words, len(want))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word[%d] = %q, want %q", i, words[i], want[i])
		}
	}
}

func TestParseAll(t *testing.T) {
	t.Parallel()

	entries, err := ParseAll("on_build", []string{"a.sh", "b.sh --x"})
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(entries) != 2 || entries[1].Args != "--x" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	_, err = ParseAll("on_build", []string{"a.sh", ""})
	if err == nil || !strings.Contains(err.Error(), "on_build[1]") {
		t.Fatalf("ParseAll error = %v, want naming on_build[1]", err)
	}
}
