package denvcfg

import (
	"strings"
	"testing"
)

const minimalDoc = `
stage_1:
  image:
    base: ubuntu:22.04
    output: demo:stage-1
stage_2:
  image:
    output: demo:stage-2
`

func TestParse_Minimal(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(minimalDoc), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Stage1 == nil || cfg.Stage1.Image.Output != "demo:stage-1" {
		t.Fatalf("stage_1 not decoded: %+v", cfg.Stage1)
	}
	if cfg.Stage2 == nil || cfg.Stage2.Image.Output != "demo:stage-2" {
		t.Fatalf("stage_2 not decoded: %+v", cfg.Stage2)
	}
}

func TestParse_Substitution(t *testing.T) {
	t.Parallel()

	doc := `
stage_1:
  image:
    base: "${BASE:-ubuntu:22.04}"
    output: "${TAG}"
`
	tests := []struct {
		name       string
		env        map[string]string
		wantBase   string
		wantOutput string
	}{
		{
			name:       "defaults apply when unset",
			env:        map[string]string{"TAG": "demo:s1"},
			wantBase:   "ubuntu:22.04",
			wantOutput: "demo:s1",
		},
		{
			name:       "set value wins over default",
			env:        map[string]string{"BASE": "debian:12", "TAG": "demo:s1"},
			wantBase:   "debian:12",
			wantOutput: "demo:s1",
		},
		{
			name:       "empty value falls back to default",
			env:        map[string]string{"BASE": "", "TAG": "demo:s1"},
			wantBase:   "ubuntu:22.04",
			wantOutput: "demo:s1",
		},
		{
			name:       "plain reference of unset becomes empty",
			env:        map[string]string{},
			wantBase:   "ubuntu:22.04",
			wantOutput: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Parse([]byte(doc), tt.env)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if cfg.Stage1.Image.Base != tt.wantBase {
				t.Errorf("base = %q, want %q", cfg.Stage1.Image.Base, tt.wantBase)
			}
			if cfg.Stage1.Image.Output != tt.wantOutput {
				t.Errorf("output = %q, want %q", cfg.Stage1.Image.Output, tt.wantOutput)
			}
		})
	}
}

// Bare $VAR is not substitution syntax; script entries rely on the shell
// expanding it at execution time, so it must survive parsing untouched.
func TestParse_BareDollarPreserved(t *testing.T) {
	t.Parallel()

	doc := `
stage_1:
  image:
    base: ubuntu:22.04
    output: demo:s1
  custom:
    on_first_run:
      - "tool.sh --cache-dir=$HOME/cache"
`
	cfg, err := Parse([]byte(doc), map[string]string{"HOME": "/should-not-be-used"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := cfg.Stage1.Custom["on_first_run"][0]
	if got != "tool.sh --cache-dir=$HOME/cache" {
		t.Fatalf("entry = %q, $HOME was not preserved", got)
	}
}

// The storage-role aliases resolve inside the container; substitution must
// re-emit them untouched even when the host environment defines them.
func TestParse_AliasesPreserved(t *testing.T) {
	t.Parallel()

	doc := `
stage_1:
  image:
    base: ubuntu:22.04
    output: demo:s1
  custom:
    on_first_run:
      - "tool.sh --target=${DENV_DATA}/x"
  environment:
    - "CACHE=${DENV_WORKSPACE}/cache"
`
	cfg, err := Parse([]byte(doc), map[string]string{
		"DENV_DATA":      "/host/leak",
		"DENV_WORKSPACE": "",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cfg.Stage1.Custom["on_first_run"][0]; got != "tool.sh --target=${DENV_DATA}/x" {
		t.Errorf("entry = %q, alias reference was rewritten", got)
	}
	if got := cfg.Stage1.Environment[0]; got != "CACHE=${DENV_WORKSPACE}/cache" {
		t.Errorf("environment = %q, alias reference was rewritten", got)
	}
}

func TestParse_BadYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("stage_1: [unclosed"), nil)
	if err == nil || !strings.Contains(err.Error(), "unmarshal") {
		t.Fatalf("error = %v", err)
	}
}

func TestParse_WrongShape(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("stage_1: 42"), nil)
	if err == nil || !strings.Contains(err.Error(), "structure") {
		t.Fatalf("error = %v", err)
	}
}
