package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shotmcp/configs"
	"github.com/Aman-CERP/shotmcp/internal/config"
	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
	"github.com/Aman-CERP/shotmcp/internal/output"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented .shotmcp.yaml to the application root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := opts.resolveRoot()
			if err != nil {
				return err
			}
			return runInit(cmd, root, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .shotmcp.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, root string, force bool) error {
	w := output.New(cmd.OutOrStdout())
	path := filepath.Join(root, config.ProjectFileName)

	if _, err := os.Stat(path); err == nil && !force {
		w.Warningf("%s already exists (use --force to overwrite)", path)
		return nil
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return shoterrors.New(shoterrors.ErrCodeFilePermission, "failed to create application root", err).
			WithDetail("root", root)
	}
	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return shoterrors.New(shoterrors.ErrCodeFilePermission, "failed to write config file", err).
			WithDetail("path", path)
	}

	// The template must load cleanly.
	if _, err := config.Load(root); err != nil {
		return err
	}

	w.Successf("Wrote %s", path)
	return nil
}
