package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"durian/internal/compilation"
	"durian/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [flags] [packages]",
	Short: "Remove generated files and the disk cache",
	Long: `Remove every zz_durian_*.go file written by durian from the packages
(default ./...). Files that do not carry the durian header are kept. With
--cache the disk cache is dropped as well.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringSlice("generators", nil, "only remove output of these generators")
	cleanCmd.Flags().Bool("cache", false, "also drop the disk cache")
	cleanCmd.Flags().Bool("dry-run", false, "list files without removing them")
}

func runClean(cmd *cobra.Command, args []string) (retErr error) {
	ctx, s, cleanup, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(retErr) }()

	f := cmd.Flags()
	dropCache, _ := f.GetBool("cache")
	dryRun, _ := f.GetBool("dry-run")
	generators := s.cfg.Run.Generators

	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	comps, err := compilation.Load(ctx, compilation.LoadConfig{
		Dir:    s.dir,
		Tests:  s.cfg.Run.Tests.Bool,
		Logger: s.logger,
	}, patterns...)
	if err != nil {
		return err
	}
	removed, err := driver.Clean(afero.NewOsFs(), comps, generators, dryRun)
	verb := "removed"
	if dryRun {
		verb = "would remove"
	}
	for _, p := range removed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, rel(s.dir, p))
	}
	if err != nil {
		return err
	}

	if !dropCache {
		return nil
	}
	dir := s.cfg.Cache.Dir.String
	if dir == "" {
		if dir, err = driver.DefaultCacheDir(); err != nil {
			return err
		}
	}
	cache, err := driver.OpenDiskCache(afero.NewOsFs(), dir)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "would drop cache %s\n", cache.Dir())
		return nil
	}
	if err := cache.DropAll(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dropped cache %s\n", cache.Dir())
	return nil
}
