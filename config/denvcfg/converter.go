package denvcfg

import (
	"fmt"

	"github.com/denvops/denv/domain/model"
	"github.com/denvops/denv/internal/scriptentry"
)

// ToModel converts a validated document into the typed domain configuration.
// Cross-stage behavior is explicit per field family rather than a generic
// deep merge: ssh, proxy, apt and device follow override-if-present (stage 2
// inherits stage 1 unless set), while environment, storage, mount and custom
// scripts are independent per stage. Call Validate first; ToModel reports
// only conversion-level problems.
func (r *Root) ToModel(project string) (*model.Config, error) {
	if r.Stage1 == nil || r.Stage2 == nil {
		return nil, fmt.Errorf("both stage_1 and stage_2 are required")
	}

	s1, err := r.Stage1.toModel(model.Stage1, "stage_1", nil)
	if err != nil {
		return nil, err
	}
	s2, err := r.Stage2.toModel(model.Stage2, "stage_2", s1)
	if err != nil {
		return nil, err
	}

	return &model.Config{Project: project, Stage1: *s1, Stage2: *s2}, nil
}

// toModel converts one stage. parent is the already-converted stage 1 when
// converting stage 2, the source of inherited field families.
func (s *Stage) toModel(num model.StageNum, path string, parent *model.Stage) (*model.Stage, error) {
	out := &model.Stage{Num: num}

	out.Image = model.Image{Base: s.Image.Base, Output: s.Image.Output}

	// Override-if-present families.
	out.SSH = convertSSH(s.SSH)
	out.Proxy = convertProxy(s.Proxy)
	out.APT = convertAPT(s.APT)
	out.Device = s.Device
	if parent != nil {
		if s.SSH == nil {
			out.SSH = parent.SSH
		}
		if s.Proxy == nil {
			out.Proxy = parent.Proxy
		}
		if s.APT == nil {
			out.APT = parent.APT
		}
		if s.Device == "" {
			out.Device = parent.Device
		}
	}
	if out.Device == "" {
		out.Device = model.DeviceCPU
	}

	// Independent-per-stage families.
	env, err := model.NewEnvMap(s.Environment)
	if err != nil {
		return nil, fmt.Errorf("%s.%w", path, err)
	}
	out.Environment = env

	if len(s.Storage) > 0 {
		out.Storage = make(map[string]model.StorageSpec, len(s.Storage))
		for role, doc := range s.Storage {
			spec, err := doc.toSpec()
			if err != nil {
				return nil, fmt.Errorf("%s.storage.%s: %w", path, role, err)
			}
			out.Storage[role] = spec
		}
	}

	if len(s.Mount) > 0 {
		out.Mount = make(map[string]model.Mount, len(s.Mount))
		for name, doc := range s.Mount {
			spec, err := doc.Storage.toSpec()
			if err != nil {
				return nil, fmt.Errorf("%s.mount.%s: %w", path, name, err)
			}
			out.Mount[name] = model.Mount{Spec: spec, Destination: doc.Destination}
		}
	}

	if len(s.Custom) > 0 {
		out.Custom = make(map[string][]model.ScriptEntry, len(s.Custom))
		for hook, entries := range s.Custom {
			parsed, err := scriptentry.ParseAll(hook, entries)
			if err != nil {
				return nil, fmt.Errorf("%s.custom.%w", path, err)
			}
			out.Custom[hook] = parsed
		}
	}

	return out, nil
}

// convertSSH converts the ssh block, assigning default UIDs in sorted name
// order so regeneration from an unchanged document keeps UIDs stable.
// Explicitly chosen UIDs are never reassigned and never handed out as
// defaults.
func convertSSH(s *SSH) *model.SSH {
	if s == nil {
		return nil
	}
	enable := true
	if s.Enable != nil {
		enable = *s.Enable
	}
	port := s.Port
	if port == 0 {
		port = 22
	}
	out := &model.SSH{Enable: enable, Port: port, HostPort: s.HostPort}
	taken := map[int]bool{}
	for _, u := range s.Users {
		if u.UID != 0 {
			taken[u.UID] = true
		}
	}
	uid := model.DefaultUID
	for _, name := range sortedKeys(s.Users) {
		u := s.Users[name]
		mu := model.SSHUser{
			Name:        name,
			Password:    u.Password,
			UID:         u.UID,
			PubkeyFile:  u.PubkeyFile,
			PubkeyText:  u.PubkeyText,
			PrivkeyFile: u.PrivkeyFile,
			PrivkeyText: u.PrivkeyText,
		}
		if mu.UID == 0 {
			for taken[uid] {
				uid++
			}
			mu.UID = uid
			taken[uid] = true
		}
		out.Users = append(out.Users, mu)
	}
	return out
}

func convertProxy(p *Proxy) *model.Proxy {
	if p == nil {
		return nil
	}
	return &model.Proxy{
		Address:          p.Address,
		Port:             p.Port,
		EnableGlobal:     p.EnableGlobal,
		RemoveAfterBuild: p.RemoveAfterBuild,
		HTTPS:            p.HTTPS,
	}
}

func convertAPT(a *APT) model.APT {
	if a == nil {
		return model.APT{}
	}
	return model.APT{Source: a.Source, UseProxy: a.UseProxy, KeepProxy: a.KeepProxy}
}

func (s Storage) toSpec() (model.StorageSpec, error) {
	switch s.Type {
	case "auto-volume":
		return model.StorageAutoVolume{}, nil
	case "manual-volume":
		return model.StorageManualVolume{Volume: s.Volume}, nil
	case "host":
		return model.StorageHost{Path: s.Path}, nil
	case "image":
		return model.StorageImage{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", s.Type)
	}
}
