package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"durian/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a commented durian.toml",
	Long: `Write durian.toml with every setting and its default into dir (default
the current directory). An existing file is kept unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing durian.toml")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	path, err := writeTemplate(afero.NewOsFs(), dir, force)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}

// writeTemplate writes config.Template as dir/durian.toml, creating dir
// when needed.
func writeTemplate(fs afero.Fs, dir string, force bool) (string, error) {
	path := filepath.Join(dir, config.FileName)
	if !force {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return path, err
		}
		if exists {
			return path, fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return path, fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	if err := afero.WriteFile(fs, path, []byte(config.Template), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
