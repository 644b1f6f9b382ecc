package configure

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/denvops/denv/config/denvcfg"
	"github.com/denvops/denv/domain"
	"github.com/denvops/denv/domain/model"
	"github.com/denvops/denv/internal/gen"
	"github.com/denvops/denv/internal/lifecycle"
	"github.com/denvops/denv/internal/logging"
	"github.com/denvops/denv/internal/naming"
	"github.com/denvops/denv/internal/sshkey"
)

// Configure runs the full pipeline: load and substitute the document,
// validate everything, resolve storage and keys, then regenerate the
// artifact set. Validation is front-loaded: no file is written until every
// artifact rendered successfully, so a failing configure never mixes stale
// and new artifacts.
func (u *UseCase) Configure(ctx context.Context, opts Opts) (*Result, error) {
	logger := logging.FromContext(ctx)
	runID := uuid.NewString()

	projectDir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}
	installRoot := opts.InstallRoot
	if installRoot == "" {
		installRoot = projectDir
	}
	env := opts.Env
	if env == nil {
		env = denvcfg.Environ()
	}
	homeDir := opts.HomeDir
	if homeDir == "" {
		if homeDir, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
	}

	project := projectName(projectDir)
	if err := naming.ValidateProjectName(project); err != nil {
		return nil, fmt.Errorf("project directory %s: %w", projectDir, err)
	}
	logger.Info(ctx, "configure started", "run", runID, "project", project)

	cfgPath := filepath.Join(projectDir, denvcfg.ConfigFileName)
	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", cfgPath, err)
	}
	doc, err := denvcfg.Parse(raw, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfgPath, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	cfg, err := doc.ToModel(project)
	if err != nil {
		return nil, err
	}

	storage, err := resolveStorage(cfg)
	if err != nil {
		return nil, err
	}

	keys, warnings, err := resolveKeys(ctx, cfg, &sshkey.Resolver{HomeDir: homeDir, InstallRoot: installRoot})
	if err != nil {
		return nil, err
	}

	if err := validateLifecycle(cfg, storage); err != nil {
		return nil, err
	}
	if err := checkScriptFiles(cfg, installRoot); err != nil {
		return nil, err
	}

	files, err := gen.Render(&gen.Input{Config: cfg, Storage: storage, Keys: keys})
	if err != nil {
		return nil, err
	}
	if err := gen.WriteFiles(projectDir, files); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	if u.Runs != nil {
		if err := u.recordRun(ctx, projectDir, runID, raw, paths); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	logger.Info(ctx, "configure finished", "run", runID, "artifacts", len(paths))
	return &Result{Project: project, Artifacts: paths, Warnings: warnings}, nil
}

// projectName derives a name from the project directory, lowercased and
// restricted to the label charset so it is usable in volume names.
func projectName(dir string) string {
	base := strings.ToLower(filepath.Base(dir))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// resolveStorage resolves the fixed roles and user mounts of both stages in
// a stable order: fixed roles first, then mounts, each sorted by name.
func resolveStorage(cfg *model.Config) (map[model.StageNum][]model.ResolvedStorage, error) {
	out := map[model.StageNum][]model.ResolvedStorage{}
	for _, stage := range []*model.Stage{&cfg.Stage1, &cfg.Stage2} {
		var resolved []model.ResolvedStorage
		for _, role := range model.StorageRoles {
			spec, ok := stage.Storage[role]
			if !ok {
				continue
			}
			r, err := model.ResolveStorage(cfg.Project, role, spec)
			if err != nil {
				return nil, fmt.Errorf("stage_%d: %w", stage.Num, err)
			}
			resolved = append(resolved, r)
		}
		names := make([]string, 0, len(stage.Mount))
		for name := range stage.Mount {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r, err := model.ResolveMount(cfg.Project, name, stage.Mount[name])
			if err != nil {
				return nil, fmt.Errorf("stage_%d: %w", stage.Num, err)
			}
			resolved = append(resolved, r)
		}
		out[stage.Num] = resolved
	}
	return out, nil
}

// resolveKeys resolves key material for every SSH user of each stage. When
// stage 2 inherits the stage-1 ssh block unchanged, the users are already
// provisioned in the stage-1 image and no stage-2 staging happens.
func resolveKeys(ctx context.Context, cfg *model.Config, resolver *sshkey.Resolver) (map[model.StageNum][]*sshkey.Material, []string, error) {
	logger := logging.FromContext(ctx)
	out := map[model.StageNum][]*sshkey.Material{}
	var warnings []string
	for _, stage := range []*model.Stage{&cfg.Stage1, &cfg.Stage2} {
		ssh := stage.SSH
		if ssh == nil || !ssh.Enable {
			continue
		}
		if stage.Num == model.Stage2 && cfg.Stage1.SSH == ssh {
			continue
		}
		for _, user := range ssh.Users {
			m, err := resolver.Resolve(user)
			if err != nil {
				return nil, nil, err
			}
			if m.Encrypted {
				w := fmt.Sprintf("ssh user %s: private key is encrypted, no public key derived; add a public key manually if needed", user.Name)
				warnings = append(warnings, w)
				logger.Warn(ctx, "encrypted private key staged as-is", "user", user.Name)
			}
			out[stage.Num] = append(out[stage.Num], m)
		}
	}
	return out, warnings, nil
}

// validateLifecycle rejects on_build entries referencing runtime-only
// storage paths. The deny list is the union over both stages: no volume or
// bind is attached during either image build.
func validateLifecycle(cfg *model.Config, storage map[model.StageNum][]model.ResolvedStorage) error {
	var resolved []model.ResolvedStorage
	resolved = append(resolved, storage[model.Stage1]...)
	resolved = append(resolved, storage[model.Stage2]...)
	denied := lifecycle.RuntimePrefixes(resolved)
	for _, stage := range []*model.Stage{&cfg.Stage1, &cfg.Stage2} {
		if err := lifecycle.ValidateBuildHooks(stage.Num, stage.Custom[model.HookOnBuild], denied); err != nil {
			return err
		}
	}
	return nil
}

// checkScriptFiles verifies that relative script paths exist under the
// installation root. Absolute paths and bare tool names refer to
// in-container locations and are taken on faith.
func checkScriptFiles(cfg *model.Config, installRoot string) error {
	for _, stage := range []*model.Stage{&cfg.Stage1, &cfg.Stage2} {
		for _, hook := range model.Hooks {
			for _, e := range stage.Custom[hook] {
				if filepath.IsAbs(e.Path) || !gen.IsScriptPath(e.Path) {
					continue
				}
				p := filepath.Join(installRoot, e.Path)
				if _, err := os.Stat(p); err != nil {
					return fmt.Errorf("stage_%d.custom.%s: script %s: %w", stage.Num, hook, p, err)
				}
			}
		}
	}
	return nil
}

// recordRun stores the new manifest and prunes artifacts the previous run
// generated but this one did not.
func (u *UseCase) recordRun(ctx context.Context, projectDir, runID string, raw []byte, paths []string) error {
	logger := logging.FromContext(ctx)
	if prev, err := u.Runs.Latest(ctx); err == nil {
		current := map[string]bool{}
		for _, p := range paths {
			current[p] = true
		}
		for _, p := range prev.Artifacts {
			if current[p] {
				continue
			}
			if err := os.Remove(filepath.Join(projectDir, p)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("prune %s: %w", p, err)
			}
			logger.Info(ctx, "pruned stale artifact", "path", p)
		}
	} else if err != model.ErrRunNotFound {
		return err
	}
	return u.Runs.Record(ctx, &domain.Run{
		ID:         runID,
		ConfigHash: fmt.Sprintf("%x", sha256.Sum256(raw)),
		Artifacts:  paths,
		CreatedAt:  time.Now().Unix(),
	})
}
