// Package lifecycle enforces the build-time/runtime path-availability rule:
// on_build hooks run before any volume or bind is attached, so entries that
// reference a runtime-only storage path or its environment alias would break
// the image build. Runtime hooks (on_first_run, on_every_run, on_user_login)
// execute after storage is mounted and carry no such restriction.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/denvops/denv/domain/model"
)

// RuntimePrefixes computes the deny list of runtime-only path prefixes and
// environment-variable aliases for one stage. Roles backed by the image are
// build-time visible and excluded. The literal prefixes follow the current
// storage-path convention; only the build-time vs runtime distinction is
// stable.
func RuntimePrefixes(resolved []model.ResolvedStorage) []string {
	var out []string
	for _, r := range resolved {
		if r.BuildTime {
			continue
		}
		out = append(out, r.LinkSource)
		if r.AttachPath != "" && r.AttachPath != r.LinkSource {
			out = append(out, r.AttachPath)
		}
		if alias := model.EnvAlias(r.Role); alias != "" {
			out = append(out, "$"+alias, "${"+alias+"}")
		}
	}
	return out
}

// ValidateBuildHooks rejects on_build entries whose raw text references any
// runtime-only prefix. The offending entry is quoted verbatim so it can be
// located in a large document without guesswork.
func ValidateBuildHooks(stage model.StageNum, entries []model.ScriptEntry, denied []string) error {
	for _, e := range entries {
		for _, p := range denied {
			if strings.Contains(e.Raw, p) {
				return fmt.Errorf("stage_%d.custom.%s: entry %q references %q, which only exists after the container starts",
					stage, model.HookOnBuild, e.Raw, p)
			}
		}
	}
	return nil
}
