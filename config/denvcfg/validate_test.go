package denvcfg

import (
	"errors"
	"strings"
	"testing"
)

func parseValid(t *testing.T, doc string) *Root {
	t.Helper()
	cfg, err := Parse([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cfg
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	doc := `
stage_1:
  image:
    base: ubuntu:22.04
    output: demo:stage-1
  environment:
    - CC=gcc
    - CXX=g++
stage_2:
  image:
    output: demo:stage-2
  ssh:
    enable: true
    users:
      dev:
        password: secret
  storage:
    app:
      type: auto-volume
    data:
      type: manual-volume
      volume: shared-data
    workspace:
      type: host
      path: /srv/workspace
  mount:
    models:
      type: image
      destination: /opt/models
  custom:
    on_build:
      - setup.sh
    on_first_run:
      - init.sh --once
`
	if err := parseValid(t, doc).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "missing stages",
			doc:  `{}`,
			want: []string{"stage_1", "stage_2", "stage is required"},
		},
		{
			name: "missing output tags reported for both stages",
			doc: `
stage_1:
  image:
    base: ubuntu:22.04
stage_2:
  image: {}
`,
			want: []string{
				"stage_1.image.output",
				"stage_2.image.output",
				"output image tag is required",
			},
		},
		{
			name: "base in stage 2",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
stage_2:
  image: {base: ubuntu:22.04, output: a:2}
`,
			want: []string{"stage_2.image.base", "stage-1 output image"},
		},
		{
			name: "unknown device",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
  device: tpu
stage_2:
  image: {output: a:2}
`,
			want: []string{"stage_1.device", `unknown device "tpu"`},
		},
		{
			name: "bad environment entries",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
  environment:
    - CC=gcc
    - NOEQUALS
    - CC=clang
stage_2:
  image: {output: a:2}
`,
			want: []string{
				"stage_1.environment[1]",
				"not KEY=VALUE",
				"stage_1.environment[2]",
				`duplicate key "CC" (first at index 0)`,
			},
		},
		{
			name: "storage in stage 1",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
  storage:
    app: {type: auto-volume}
stage_2:
  image: {output: a:2}
`,
			want: []string{"stage_1.storage", "only allowed in stage_2"},
		},
		{
			name: "unknown storage role and type",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
stage_2:
  image: {output: a:2}
  storage:
    scratch: {type: ramdisk}
`,
			want: []string{
				"stage_2.storage.scratch",
				`unknown storage role "scratch"`,
				`unknown storage type "ramdisk"`,
			},
		},
		{
			name: "storage field rules",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
stage_2:
  image: {output: a:2}
  storage:
    app: {type: manual-volume}
    data: {type: auto-volume, volume: extra}
    workspace: {type: host}
`,
			want: []string{
				"stage_2.storage.app.volume", "requires a volume name",
				"stage_2.storage.data.volume", "only valid for manual-volume",
				"stage_2.storage.workspace.path", "requires a host path",
			},
		},
		{
			name: "mount name and destination rules",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
stage_2:
  image: {output: a:2}
  mount:
    app: {type: auto-volume, destination: /x}
    Bad_Name: {type: auto-volume, destination: /y}
    rel: {type: auto-volume, destination: no/slash}
    nodest: {type: auto-volume}
`,
			want: []string{
				"stage_2.mount.app", "collides with a fixed storage role",
				"stage_2.mount.Bad_Name",
				"stage_2.mount.rel.destination", "must be an absolute path",
				"stage_2.mount.nodest.destination", "destination path is required",
			},
		},
		{
			name: "unknown hook and empty entry",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
  custom:
    on_boot:
      - x.sh
    on_build:
      - ""
stage_2:
  image: {output: a:2}
`,
			want: []string{
				"stage_1.custom.on_boot", "unknown lifecycle hook",
				"stage_1.custom.on_build[0]", "empty script entry",
			},
		},
		{
			name: "ssh user rules",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
stage_2:
  image: {output: a:2}
  ssh:
    port: 70000
    users:
      alice:
        pubkey_file: "~"
        pubkey_text: ssh-ed25519 AAAA
      bob: {}
      carol:
        password: ok
        uid: -1
`,
			want: []string{
				"stage_2.ssh.port", "out of range",
				"stage_2.ssh.users.alice", "mutually exclusive",
				"stage_2.ssh.users.bob", "otherwise it is unreachable",
				"stage_2.ssh.users.carol.uid", "must not be negative",
			},
		},
		{
			name: "duplicate explicit uids",
			doc: `
stage_1:
  image: {base: ubuntu:22.04, output: a:1}
stage_2:
  image: {output: a:2}
  ssh:
    users:
      alice: {password: x, uid: 1500}
      bob: {password: y, uid: 1500}
`,
			want: []string{
				"stage_2.ssh.users.bob.uid",
				`uid 1500 already used by user "alice"`,
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := parseValid(t, tt.doc).Validate()
			if err == nil {
				t.Fatal("Validate: expected error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type %T, want *ValidationError", err)
			}
			msg := err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("error does not mention %q:\n%s", want, msg)
				}
			}
		})
	}
}

// One document with independent problems in both stages must report them all
// in a single pass instead of stopping at the first stage.
func TestValidate_CollectsAcrossStages(t *testing.T) {
	t.Parallel()

	doc := `
stage_1:
  image: {base: ubuntu:22.04}
  device: quantum
stage_2:
  image: {}
  storage:
    app: {type: bogus}
`
	err := parseValid(t, doc).Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v", err)
	}
	if len(verr.Violations) != 4 {
		t.Fatalf("got %d violations, want 4:\n%v", len(verr.Violations), err)
	}
}
