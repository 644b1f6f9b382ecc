package gen

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/denvops/denv/domain/model"
)

// Compose schema subset emitted by denv. Field order is fixed by the struct
// definitions and yaml.v3 sorts map keys, so marshaling is byte-stable
// across runs of the same input.
type composeDoc struct {
	Name     string                    `yaml:"name"`
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]composeVolume  `yaml:"volumes,omitempty"`
}

type composeService struct {
	Image       string         `yaml:"image"`
	Build       *composeBuild  `yaml:"build,omitempty"`
	Ports       []string       `yaml:"ports,omitempty"`
	Environment []string       `yaml:"environment,omitempty"`
	Volumes     []string       `yaml:"volumes,omitempty"`
	Deploy      *composeDeploy `yaml:"deploy,omitempty"`
	Profiles    []string       `yaml:"profiles,omitempty"`
}

type composeBuild struct {
	Context    string            `yaml:"context"`
	Dockerfile string            `yaml:"dockerfile"`
	Args       map[string]string `yaml:"args,omitempty"`
}

type composeVolume struct {
	External bool `yaml:"external,omitempty"`
}

type composeDeploy struct {
	Resources composeResources `yaml:"resources"`
}

type composeResources struct {
	Reservations composeReservations `yaml:"reservations"`
}

type composeReservations struct {
	Devices []composeDevice `yaml:"devices"`
}

type composeDevice struct {
	Driver       string   `yaml:"driver"`
	Count        string   `yaml:"count"`
	Capabilities []string `yaml:"capabilities"`
}

// escapeComposeEnv doubles every "$" in environment entries so the compose
// engine delivers the values verbatim instead of interpolating them against
// the host environment at up-time.
func escapeComposeEnv(list []string) []string {
	out := make([]string, 0, len(list))
	for _, kv := range list {
		out = append(out, strings.ReplaceAll(kv, "$", "$$"))
	}
	return out
}

// renderCompose emits the compose document: the stage-1 build-only service,
// the stage-2 runtime service with ports, environment, device reservations
// and every resolved volume/bind declaration.
func renderCompose(in *Input) (File, error) {
	cfg := in.Config
	doc := composeDoc{
		Name:     cfg.Project,
		Services: map[string]composeService{},
	}

	doc.Services["stage-1"] = composeService{
		Image: cfg.Stage1.Image.Output,
		Build: &composeBuild{
			Context:    ".",
			Dockerfile: filepath.ToSlash(filepath.Join(StageDir(model.Stage1), "Dockerfile")),
			Args:       BuildArgs(cfg, &cfg.Stage1),
		},
		Environment: escapeComposeEnv(cfg.Stage1.Environment.List()),
		// Build target only; never started by `docker compose up`.
		Profiles: []string{"build"},
	}

	svc := composeService{
		Image: cfg.Stage2.Image.Output,
		Build: &composeBuild{
			Context:    ".",
			Dockerfile: filepath.ToSlash(filepath.Join(StageDir(model.Stage2), "Dockerfile")),
			Args:       BuildArgs(cfg, &cfg.Stage2),
		},
		Environment: escapeComposeEnv(cfg.Stage2.Environment.List()),
	}

	if ssh := cfg.Stage2.SSH; ssh != nil && ssh.Enable && ssh.HostPort != 0 {
		svc.Ports = append(svc.Ports, fmt.Sprintf("%d:%d", ssh.HostPort, ssh.Port))
	}

	volumes := map[string]composeVolume{}
	for _, num := range []model.StageNum{model.Stage1, model.Stage2} {
		for _, r := range in.Storage[num] {
			switch {
			case r.Volume != nil:
				volumes[r.Volume.Name] = composeVolume{External: r.Volume.External}
				svc.Volumes = append(svc.Volumes, r.Volume.Name+":"+r.AttachPath)
			case r.HostPath != "":
				svc.Volumes = append(svc.Volumes, r.HostPath+":"+r.AttachPath)
			}
		}
	}
	if len(volumes) > 0 {
		doc.Volumes = volumes
	}

	if cfg.Stage2.Device == model.DeviceGPU {
		svc.Deploy = &composeDeploy{
			Resources: composeResources{
				Reservations: composeReservations{
					Devices: []composeDevice{{
						Driver:       "nvidia",
						Count:        "all",
						Capabilities: []string{"gpu"},
					}},
				},
			},
		}
	}

	doc.Services["stage-2"] = svc

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return File{}, fmt.Errorf("marshal compose document: %w", err)
	}
	data = append([]byte("# Generated by denv configure; do not edit.\n"), data...)

	if err := verifyCompose(data); err != nil {
		return File{}, fmt.Errorf("emitted compose document failed to load: %w", err)
	}

	return File{Path: ComposeFileName, Data: data, Mode: 0o644}, nil
}
