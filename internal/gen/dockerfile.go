package gen

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/denvops/denv/domain/model"
	"github.com/denvops/denv/internal/naming"
)

// Named apt mirrors the document may select by name instead of a raw URL.
var aptMirrors = map[string]string{
	"tuna":   "https://mirrors.tuna.tsinghua.edu.cn/ubuntu/",
	"ustc":   "https://mirrors.ustc.edu.cn/ubuntu/",
	"aliyun": "https://mirrors.aliyun.com/ubuntu/",
}

// BuildArgs computes the Dockerfile build-argument map of one stage, emitted
// into the compose build block and declared as ARG in the Dockerfile.
func BuildArgs(cfg *model.Config, stage *model.Stage) map[string]string {
	args := map[string]string{}
	if stage.Num == model.Stage1 {
		args["BASE_IMAGE"] = stage.Image.Base
	} else {
		args["BASE_IMAGE"] = cfg.Stage1.Image.Output
	}
	if p := stage.Proxy; p != nil && p.EnableGlobal {
		args["HTTP_PROXY"] = proxyURL(p)
		args["HTTPS_PROXY"] = proxyURL(p)
	}
	return args
}

func proxyURL(p *model.Proxy) string {
	scheme := "http"
	if p.HTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, p.Address, p.Port)
}

// renderDockerfile emits the Dockerfile of one stage. Stage 2 always builds
// on the stage-1 output image and additionally installs the runtime
// entrypoint and login hook loader.
func renderDockerfile(in *Input, stage *model.Stage) (File, error) {
	cfg := in.Config
	d := &dockerfileWriter{}

	d.line("# syntax=docker/dockerfile:1")
	d.line("# Generated by denv configure; do not edit.")
	args := BuildArgs(cfg, stage)
	d.linef("ARG BASE_IMAGE=%s", args["BASE_IMAGE"])
	d.line("FROM ${BASE_IMAGE}")
	for _, k := range sortedArgNames(args) {
		if k != "BASE_IMAGE" {
			d.linef("ARG %s", k)
		}
	}
	d.blank()

	writeAptLines(d, stage)
	writeSSHInstall(d, in, stage)

	d.linef("COPY %s %s", StageDir(stage.Num), containerStageDir(stage.Num))
	d.linef("COPY . %s", ContainerInstallRoot)
	d.blank()

	// Role aliases resolve to the stable /soft paths in every container.
	d.linef("ENV %s=%s %s=%s %s=%s",
		model.EnvAlias(model.RoleApp), model.SoftPath(model.RoleApp),
		model.EnvAlias(model.RoleData), model.SoftPath(model.RoleData),
		model.EnvAlias(model.RoleWorkspace), model.SoftPath(model.RoleWorkspace))

	// Image-backed storage exists at build time: create the backing
	// directory and its soft link here so on_build hooks can use it.
	for _, r := range in.Storage[stage.Num] {
		if !r.BuildTime {
			continue
		}
		d.linef("RUN mkdir -p %s && mkdir -p %s && ln -sfn %s %s",
			r.LinkTarget, path.Dir(r.LinkSource), r.LinkTarget, r.LinkSource)
	}

	for _, kv := range stage.Environment.List() {
		k, v, _ := strings.Cut(kv, "=")
		d.linef("ENV %s=%s", k, shellQuote(v))
	}

	writeSSHUsers(d, in, stage)

	if len(stage.Custom[model.HookOnBuild]) > 0 {
		d.linef("RUN bash %s", containerWrapperPath(stage.Num, model.HookOnBuild))
	}

	if p := stage.Proxy; p != nil && p.RemoveAfterBuild {
		d.line(`ENV HTTP_PROXY="" HTTPS_PROXY=""`)
	}
	if stage.APT.UseProxy && !stage.APT.KeepProxy && stage.Proxy != nil {
		d.line("RUN rm -f /etc/apt/apt.conf.d/99denv-proxy")
	}

	if stage.Num == model.Stage2 {
		if len(loginWrappers(in)) > 0 {
			d.linef("COPY %s /etc/profile.d/denv-login.sh",
				filepath.Join(StageDir(model.Stage2), "scripts", "denv-login.sh"))
		}
		if ssh := stage.SSH; ssh != nil && ssh.Enable {
			d.linef("EXPOSE %d", ssh.Port)
		}
		d.linef(`ENTRYPOINT ["bash", "%s"]`, path.Join(containerStageDir(model.Stage2), "scripts", "entrypoint.sh"))
		d.line(`CMD ["sleep", "infinity"]`)
	}

	return File{
		Path: filepath.Join(StageDir(stage.Num), "Dockerfile"),
		Data: d.bytes(),
		Mode: 0o644,
	}, nil
}

// writeAptLines switches the package mirror and configures the apt proxy.
func writeAptLines(d *dockerfileWriter, stage *model.Stage) {
	if stage.APT.Source != "" {
		url := stage.APT.Source
		if m, ok := aptMirrors[url]; ok {
			url = m
		}
		d.linef(`RUN sed -i "s|http://archive.ubuntu.com/ubuntu/|%s|g" /etc/apt/sources.list || true`, url)
	}
	if stage.APT.UseProxy && stage.Proxy != nil {
		d.linef(`RUN echo 'Acquire::http::Proxy "%s";' > /etc/apt/apt.conf.d/99denv-proxy`, proxyURL(stage.Proxy))
	}
}

// writeSSHInstall installs the ssh daemon when the stage enables ssh and the
// stage-1 layer has not already done so.
func writeSSHInstall(d *dockerfileWriter, in *Input, stage *model.Stage) {
	ssh := stage.SSH
	if ssh == nil || !ssh.Enable {
		return
	}
	if stage.Num == model.Stage2 {
		if s1 := in.Config.Stage1.SSH; s1 != nil && s1.Enable {
			// Already installed in the stage-1 layer.
			return
		}
	}
	d.line("RUN apt-get update && apt-get install -y --no-install-recommends openssh-server && rm -rf /var/lib/apt/lists/*")
}

// writeSSHUsers provisions the configured accounts. When stage 2 inherits
// the stage-1 ssh block unchanged the users already exist in the base image
// and are not re-provisioned.
func writeSSHUsers(d *dockerfileWriter, in *Input, stage *model.Stage) {
	ssh := stage.SSH
	if ssh == nil || !ssh.Enable {
		return
	}
	if stage.Num == model.Stage2 && in.Config.Stage1.SSH == ssh {
		return
	}
	for _, u := range ssh.Users {
		home := "/home/" + u.Name
		// An explicit stage-2 ssh block may repeat stage-1 users, which then
		// already exist in the base layer; useradd fails on an existing login.
		d.linef("RUN (id -u %s >/dev/null 2>&1 || useradd -m -s /bin/bash -u %d %s) && mkdir -p %s/.ssh && chmod 700 %s/.ssh", u.Name, u.UID, u.Name, home, home)
		if u.Password != "" {
			d.linef("RUN echo %s | chpasswd", shellQuote(u.Name+":"+u.Password))
		}
		hasAuthorized := u.PubkeyFile != "" || u.PubkeyText != "" || u.PrivkeyFile != "" || u.PrivkeyText != ""
		if hasAuthorized {
			if keyHasAuthorizedOutput(in, stage.Num, u.Name) {
				d.linef("COPY %s/%s %s/.ssh/authorized_keys",
					filepath.ToSlash(filepath.Join(StageDir(stage.Num), "ssh")), u.Name+".authorized_keys", home)
			}
			if u.PrivkeyFile != "" || u.PrivkeyText != "" {
				d.linef("COPY %s/%s %s/.ssh/%s",
					filepath.ToSlash(filepath.Join(StageDir(stage.Num), "ssh")), naming.KeyFileName(u.Name, "key"), home, "denv_key")
				d.linef("RUN chmod 600 %s/.ssh/denv_key", home)
			}
		}
		d.linef("RUN chown -R %s:%s %s/.ssh && chmod 600 %s/.ssh/* || true", u.Name, u.Name, home, home)
	}
}

// keyHasAuthorizedOutput reports whether the staged material of a user
// produced an authorized_keys artifact (it does not when the only key is an
// encrypted private key).
func keyHasAuthorizedOutput(in *Input, num model.StageNum, user string) bool {
	for _, m := range in.Keys[num] {
		if m.User.Name == user {
			return len(m.Pubkey) > 0 || len(m.DerivedPubkey) > 0
		}
	}
	return false
}

func sortedArgNames(args map[string]string) []string {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// shellQuote single-quotes a value for safe embedding in a RUN or ENV line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type dockerfileWriter struct {
	b strings.Builder
}

func (d *dockerfileWriter) line(s string) { d.b.WriteString(s); d.b.WriteByte('\n') }
func (d *dockerfileWriter) linef(format string, args ...any) {
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteByte('\n')
}
func (d *dockerfileWriter) blank()        { d.b.WriteByte('\n') }
func (d *dockerfileWriter) bytes() []byte { return []byte(d.b.String()) }
