package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/denvops/denv/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "denv",
		Short:   "denv CLI",
		Long:    "denv generates Docker dev environment artifacts from denv.yml",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("chdir", "C", "", "Project directory (default current directory)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text|json) (env DENV_LOG_FORMAT)")
	cmd.PersistentFlags().String("log-output", "-", "Log output (- for stderr, none, or a file path under .denv/logs)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		format, _ := c.Flags().GetString("log-format")
		if env := os.Getenv("DENV_LOG_FORMAT"); env != "" { // env overrides flag
			format = env
		}
		w, err := logWriter(c)
		if err != nil {
			return err
		}
		l, err := logging.NewWithWriter(format, slog.LevelInfo, w)
		if err != nil {
			return err
		}
		c.SetContext(logging.WithLogger(c.Context(), l))
		return nil
	}

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdConfigure())
	return cmd
}

func logWriter(c *cobra.Command) (io.Writer, error) {
	output, _ := c.Flags().GetString("log-output")
	dir, _ := c.Flags().GetString("chdir")
	if dir == "" {
		dir = "."
	}
	logDir := dir + "/.denv/logs"
	lf, err := logging.NewLogFile(logDir, output)
	if err != nil {
		return nil, err
	}
	_ = logging.CleanupOldLogFiles(logDir, logRetentionDays)
	return lf.Writer(), nil
}

// logRetentionDays bounds how long .denv/logs files are kept.
const logRetentionDays = 7

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		os.Exit(1)
	}
}
