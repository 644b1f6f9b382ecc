package denvcfg

import (
	"fmt"
	"sort"

	"github.com/denvops/denv/domain/model"
	"github.com/denvops/denv/internal/naming"
)

var storageTypes = map[string]bool{
	"auto-volume":   true,
	"manual-volume": true,
	"host":          true,
	"image":         true,
}

// Validate performs semantic validation on the configuration tree and
// reports every violated constraint, not just the first. A nil return means
// the document is structurally sound and safe to convert with ToModel.
func (r *Root) Validate() error {
	c := &collector{}
	if r.Stage1 == nil {
		c.addf("stage_1", "stage is required")
	} else {
		r.Stage1.validate(c, "stage_1", model.Stage1)
	}
	if r.Stage2 == nil {
		c.addf("stage_2", "stage is required")
	} else {
		r.Stage2.validate(c, "stage_2", model.Stage2)
	}
	return c.err()
}

func (s *Stage) validate(c *collector, path string, num model.StageNum) {
	if s.Image == nil {
		c.addf(path+".image", "image block is required")
	} else {
		// The output tag determines the build target name and is never
		// silently defaulted.
		if s.Image.Output == "" {
			c.addf(path+".image.output", "output image tag is required")
		}
		if num == model.Stage1 && s.Image.Base == "" {
			c.addf(path+".image.base", "base image is required in stage 1")
		}
		if num == model.Stage2 && s.Image.Base != "" {
			c.addf(path+".image.base", "stage 2 always builds on the stage-1 output image")
		}
	}

	switch s.Device {
	case "", model.DeviceCPU, model.DeviceGPU:
	default:
		c.addf(path+".device", "unknown device %q, must be %q or %q", s.Device, model.DeviceCPU, model.DeviceGPU)
	}

	seen := map[string]int{}
	for i, e := range s.Environment {
		k, _, ok := cutEnv(e)
		if !ok {
			c.addf(fmt.Sprintf("%s.environment[%d]", path, i), "%q is not KEY=VALUE", e)
			continue
		}
		if j, dup := seen[k]; dup {
			c.addf(fmt.Sprintf("%s.environment[%d]", path, i), "duplicate key %q (first at index %d)", k, j)
			continue
		}
		seen[k] = i
	}

	if len(s.Storage) > 0 && num != model.Stage2 {
		c.addf(path+".storage", "storage is only allowed in stage_2")
	}
	for _, role := range sortedKeys(s.Storage) {
		p := path + ".storage." + role
		if !isFixedRole(role) {
			c.addf(p, "unknown storage role %q, must be one of app, data, workspace", role)
		}
		s.Storage[role].validate(c, p)
	}

	for _, name := range sortedKeys(s.Mount) {
		m := s.Mount[name]
		p := path + ".mount." + name
		if err := naming.ValidateRoleName(name); err != nil {
			c.addf(p, "%v", err)
		}
		if isFixedRole(name) {
			c.addf(p, "mount name %q collides with a fixed storage role", name)
		}
		m.Storage.validate(c, p)
		if m.Destination == "" {
			c.addf(p+".destination", "destination path is required")
		} else if m.Destination[0] != '/' {
			c.addf(p+".destination", "destination %q must be an absolute path", m.Destination)
		}
	}

	for _, hook := range sortedKeys(s.Custom) {
		if !model.IsHook(hook) {
			c.addf(path+".custom."+hook, "unknown lifecycle hook, must be one of on_build, on_first_run, on_every_run, on_user_login")
		}
		for i, entry := range s.Custom[hook] {
			if entry == "" {
				c.addf(fmt.Sprintf("%s.custom.%s[%d]", path, hook, i), "empty script entry")
			}
		}
	}

	if s.SSH != nil {
		s.SSH.validate(c, path+".ssh")
	}
}

func (s *SSH) validate(c *collector, path string) {
	if s.Port < 0 || s.Port > 65535 {
		c.addf(path+".port", "port %d out of range", s.Port)
	}
	if s.HostPort < 0 || s.HostPort > 65535 {
		c.addf(path+".host_port", "port %d out of range", s.HostPort)
	}
	uids := map[int]string{}
	for _, name := range sortedKeys(s.Users) {
		u := s.Users[name]
		p := path + ".users." + name
		if u.UID != 0 {
			if prev, dup := uids[u.UID]; dup {
				c.addf(p+".uid", "uid %d already used by user %q", u.UID, prev)
			} else {
				uids[u.UID] = name
			}
		}
		if u.PubkeyFile != "" && u.PubkeyText != "" {
			c.addf(p, "pubkey_file and pubkey_text are mutually exclusive")
		}
		if u.PrivkeyFile != "" && u.PrivkeyText != "" {
			c.addf(p, "privkey_file and privkey_text are mutually exclusive")
		}
		hasKey := u.PubkeyFile != "" || u.PubkeyText != "" || u.PrivkeyFile != "" || u.PrivkeyText != ""
		if u.Password == "" && !hasKey {
			c.addf(p, "user needs a password or at least one key field, otherwise it is unreachable")
		}
		if u.UID < 0 {
			c.addf(p+".uid", "uid must not be negative")
		}
	}
}

func (s Storage) validate(c *collector, path string) {
	if s.Type == "" {
		c.addf(path+".type", "storage type is required (auto-volume | manual-volume | host | image)")
		return
	}
	if !storageTypes[s.Type] {
		c.addf(path+".type", "unknown storage type %q (auto-volume | manual-volume | host | image)", s.Type)
		return
	}
	if s.Type == "manual-volume" && s.Volume == "" {
		c.addf(path+".volume", "manual-volume requires a volume name")
	}
	if s.Type != "manual-volume" && s.Volume != "" {
		c.addf(path+".volume", "volume is only valid for manual-volume")
	}
	if s.Type == "host" && s.Path == "" {
		c.addf(path+".path", "host requires a host path")
	}
	if s.Type != "host" && s.Path != "" {
		c.addf(path+".path", "path is only valid for host")
	}
}

func isFixedRole(role string) bool {
	return role == model.RoleApp || role == model.RoleData || role == model.RoleWorkspace
}

func cutEnv(e string) (string, string, bool) {
	for i := 0; i < len(e); i++ {
		if e[i] == '=' {
			if i == 0 {
				return "", "", false
			}
			return e[:i], e[i+1:], true
		}
	}
	return "", "", false
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
