package gen

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/denvops/denv/domain/model"
	"github.com/denvops/denv/internal/naming"
)

// ContainerInstallRoot is where the project directory lands inside the
// image; user script paths resolve relative to it.
const ContainerInstallRoot = "/denv/project"

// ContainerGeneratedRoot is where the generated stage directories land
// inside the image.
const ContainerGeneratedRoot = "/denv"

// firstRunMarker guards on_first_run hooks across container restarts.
const firstRunMarker = "/var/lib/denv/.first-run"

//go:embed templates/*.tmpl
var templateFS embed.FS

var scriptTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// containerStageDir returns the in-container generated directory of a stage.
func containerStageDir(num model.StageNum) string {
	return fmt.Sprintf("%s/stage-%d", ContainerGeneratedRoot, num)
}

// containerWrapperPath returns the in-container path of a hook wrapper.
func containerWrapperPath(num model.StageNum, hook string) string {
	return path.Join(containerStageDir(num), "scripts", naming.ScriptFileName(int(num), hook))
}

// renderScripts emits the wrapper scripts of one stage plus, for stage 2,
// the runtime entrypoint and the login hook loader.
func renderScripts(in *Input, stage *model.Stage) ([]File, error) {
	var files []File
	scriptsDir := filepath.Join(StageDir(stage.Num), "scripts")

	for _, hook := range model.Hooks {
		entries := stage.Custom[hook]
		if len(entries) == 0 {
			continue
		}
		data, err := renderWrapper(hook, entries)
		if err != nil {
			return nil, fmt.Errorf("stage_%d.custom.%s: %w", stage.Num, hook, err)
		}
		files = append(files, File{
			Path: filepath.Join(scriptsDir, naming.ScriptFileName(int(stage.Num), hook)),
			Data: data,
			Mode: 0o755,
		})
	}

	if stage.Num == model.Stage2 {
		ep, err := renderEntrypoint(in)
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			Path: filepath.Join(scriptsDir, "entrypoint.sh"),
			Data: ep,
			Mode: 0o755,
		})

		if login := loginWrappers(in); len(login) > 0 {
			data, err := execTemplate("login.sh.tmpl", map[string]any{"Wrappers": login})
			if err != nil {
				return nil, err
			}
			files = append(files, File{
				Path: filepath.Join(scriptsDir, "denv-login.sh"),
				Data: data,
				Mode: 0o644,
			})
		}
	}

	return files, nil
}

// renderWrapper renders one hook wrapper. Each line re-emits the parsed
// entry's path plus its opaque argument string exactly as written, so $VAR
// references and user quoting still expand when the wrapper executes. The
// on_user_login wrapper is sourced instead of executed; argument handling is
// identical in both modes.
func renderWrapper(hook string, entries []model.ScriptEntry) ([]byte, error) {
	sourced := hook == model.HookOnUserLogin
	mode := "bash"
	if sourced {
		mode = "source"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, invocationLine(mode, e))
	}
	return execTemplate("wrapper.sh.tmpl", map[string]any{
		"Sourced":     sourced,
		"InstallRoot": ContainerInstallRoot,
		"Lines":       lines,
	})
}

// invocationLine builds one wrapper line. Script paths (absolute, relative,
// or anything ending in .sh) go through the shell interpreter; a bare tool
// name is invoked directly so PATH lookup still applies.
func invocationLine(mode string, e model.ScriptEntry) string {
	if IsScriptPath(e.Path) {
		return e.Line(mode, e.Path)
	}
	if e.Args == "" {
		return e.Path
	}
	return e.Path + " " + e.Args
}

// IsScriptPath reports whether a parsed entry path names a script file (as
// opposed to a tool resolved via PATH).
func IsScriptPath(p string) bool {
	return strings.Contains(p, "/") || strings.HasSuffix(p, ".sh")
}

// renderEntrypoint emits the stage-2 runtime entrypoint: it materializes the
// soft links for runtime-mounted storage, runs on_first_run hooks once
// (marker-guarded), runs on_every_run hooks, starts sshd when enabled and
// then execs the container command.
func renderEntrypoint(in *Input) ([]byte, error) {
	type link struct{ LinkDir, Source, Target string }
	var links []link
	for _, num := range []model.StageNum{model.Stage1, model.Stage2} {
		for _, r := range in.Storage[num] {
			if r.BuildTime {
				// Image backings are linked during build.
				continue
			}
			links = append(links, link{
				LinkDir: path.Dir(r.LinkSource),
				Source:  r.LinkSource,
				Target:  r.LinkTarget,
			})
		}
	}

	var firstRun, everyRun []string
	for _, num := range []model.StageNum{model.Stage1, model.Stage2} {
		stage := in.stage(num)
		if len(stage.Custom[model.HookOnFirstRun]) > 0 {
			firstRun = append(firstRun, containerWrapperPath(num, model.HookOnFirstRun))
		}
		if len(stage.Custom[model.HookOnEveryRun]) > 0 {
			everyRun = append(everyRun, containerWrapperPath(num, model.HookOnEveryRun))
		}
	}

	sshPort := 0
	if ssh := in.Config.Stage2.SSH; ssh != nil && ssh.Enable {
		sshPort = ssh.Port
	}

	return execTemplate("entrypoint.sh.tmpl", map[string]any{
		"Links":    links,
		"FirstRun": firstRun,
		"EveryRun": everyRun,
		"Marker":   firstRunMarker,
		"SSHPort":  sshPort,
	})
}

// loginWrappers lists the in-container on_user_login wrappers of both stages.
func loginWrappers(in *Input) []string {
	var out []string
	for _, num := range []model.StageNum{model.Stage1, model.Stage2} {
		if len(in.stage(num).Custom[model.HookOnUserLogin]) > 0 {
			out = append(out, containerWrapperPath(num, model.HookOnUserLogin))
		}
	}
	return out
}

func execTemplate(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := scriptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
