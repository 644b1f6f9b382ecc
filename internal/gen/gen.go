// Package gen renders the validated configuration model into the generated
// artifact set: per-stage Dockerfiles, lifecycle wrapper scripts, staged SSH
// key files and the compose document.
//
// Rendering is split from writing: Render produces the full artifact set in
// memory and only after every artifact rendered successfully does WriteFiles
// touch the project directory. Either the whole set lands on disk or none of
// it, so a failed configure never leaves a half-generated project. Rendering
// is deterministic: the same input model produces byte-identical artifacts.
package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/denvops/denv/domain/model"
	"github.com/denvops/denv/internal/sshkey"
)

// GeneratedDir is the tool-owned directory inside a project.
const GeneratedDir = ".denv"

// ComposeFileName is the emitted compose document name.
const ComposeFileName = "docker-compose.yml"

// File is one rendered artifact scheduled for writing.
type File struct {
	// Path is relative to the project directory.
	Path string
	Data []byte
	Mode os.FileMode
}

// Input carries everything the emitter needs, fully validated upstream.
type Input struct {
	Config *model.Config
	// Storage holds the resolved storage and mount declarations per stage,
	// in a stable order.
	Storage map[model.StageNum][]model.ResolvedStorage
	// Keys holds the resolved SSH key material per stage.
	Keys map[model.StageNum][]*sshkey.Material
}

// StageDir returns the generated directory of a stage, relative to the
// project directory.
func StageDir(num model.StageNum) string {
	return filepath.Join(GeneratedDir, fmt.Sprintf("stage-%d", num))
}

// Render produces the complete artifact set for the given input.
func Render(in *Input) ([]File, error) {
	var files []File

	for _, num := range []model.StageNum{model.Stage1, model.Stage2} {
		stage := in.stage(num)

		sf, err := renderScripts(in, stage)
		if err != nil {
			return nil, err
		}
		files = append(files, sf...)

		files = append(files, renderKeys(num, in.Keys[num])...)

		df, err := renderDockerfile(in, stage)
		if err != nil {
			return nil, err
		}
		files = append(files, df)
	}

	cf, err := renderCompose(in)
	if err != nil {
		return nil, err
	}
	files = append(files, cf)

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// WriteFiles writes a rendered artifact set under projectDir. Call only with
// a fully rendered set; partial writes on I/O failure are reported so the
// caller can surface them, but validation can no longer fail at this point.
func WriteFiles(projectDir string, files []File) error {
	for _, f := range files {
		dst := filepath.Join(projectDir, f.Path)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dst, f.Data, f.Mode); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		// WriteFile does not chmod pre-existing files; key permissions must
		// hold across regeneration.
		if err := os.Chmod(dst, f.Mode); err != nil {
			return fmt.Errorf("chmod %s: %w", f.Path, err)
		}
	}
	return nil
}

// renderKeys stages the resolved key material of one stage.
func renderKeys(num model.StageNum, mats []*sshkey.Material) []File {
	dir := filepath.Join(StageDir(num), "ssh")
	var files []File
	for _, m := range mats {
		for _, k := range sshkey.Stage(dir, m) {
			files = append(files, File{Path: k.Path, Data: k.Data, Mode: k.Mode})
		}
		if ak := sshkey.AuthorizedKeys(m); len(ak) > 0 {
			files = append(files, File{
				Path: filepath.Join(dir, m.User.Name+".authorized_keys"),
				Data: ak,
				Mode: 0o644,
			})
		}
	}
	return files
}

func (in *Input) stage(num model.StageNum) *model.Stage {
	if num == model.Stage1 {
		return &in.Config.Stage1
	}
	return &in.Config.Stage2
}
