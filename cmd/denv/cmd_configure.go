package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/denvops/denv/adapters/store/rdb"
	"github.com/denvops/denv/internal/gen"
	"github.com/denvops/denv/internal/logging"
	"github.com/denvops/denv/usecase/configure"
)

func newCmdConfigure() *cobra.Command {
	var noState bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Generate Dockerfiles, compose file and scripts from denv.yml",
		Long: `Read denv.yml in the project directory, validate it and regenerate the
full artifact set: per-stage Dockerfiles, docker-compose.yml, lifecycle
wrapper scripts and staged SSH key material. The artifact set is always
regenerated in full; validation failures leave the directory untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, noState)
		},
	}

	cmd.Flags().BoolVar(&noState, "no-state", false, "Skip recording the run in .denv/state.db")
	return cmd
}

func runConfigure(cmd *cobra.Command, noState bool) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	dir, _ := cmd.Flags().GetString("chdir")
	if dir == "" {
		dir = "."
	}

	uc := &configure.UseCase{}
	if !noState {
		if err := os.MkdirAll(filepath.Join(dir, gen.GeneratedDir), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", gen.GeneratedDir, err)
		}
		db, err := rdb.Open(filepath.Join(dir, gen.GeneratedDir, "state.db"))
		if err != nil {
			return fmt.Errorf("open state database: %w", err)
		}
		if err := rdb.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate state database: %w", err)
		}
		uc.Runs = rdb.NewRunRepository(db)
	}

	res, err := uc.Configure(ctx, configure.Opts{ProjectDir: dir})
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		fmt.Fprintln(cmd.OutOrStdout(), "WARNING:", w)
	}
	for _, a := range res.Artifacts {
		fmt.Fprintln(cmd.OutOrStdout(), a)
	}
	logger.Info(ctx, "configure done", "project", res.Project, "artifacts", len(res.Artifacts))
	return nil
}
