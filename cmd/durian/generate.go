package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"durian/internal/driver"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [packages]",
	Short: "Run the generators and write their output",
	Long: `Load the packages (default ./...), run every selected generator and write
zz_durian_<generator>.go into each package directory. Files whose generator
produced nothing are removed.`,
	RunE: runGenerate,
}

func init() {
	addRunFlags(generateCmd)
	generateCmd.Flags().Bool("dry-run", false, "report what would be written without writing")
}

func runGenerate(cmd *cobra.Command, args []string) (retErr error) {
	ctx, s, cleanup, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(retErr) }()

	opts, err := driverOptions(s, args)
	if err != nil {
		return err
	}
	if opts.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return err
	}
	res, err := runDriver(ctx, cmd, opts)
	if err != nil {
		return err
	}
	if !quiet(cmd) {
		printOutputs(cmd, s.dir, res, opts.DryRun)
	}
	return report(cmd, s, res)
}

func printOutputs(cmd *cobra.Command, dir string, res *driver.Result, dryRun bool) {
	out := cmd.OutOrStdout()
	verb, removed := "wrote", "removed"
	if dryRun {
		verb, removed = "would write", "would remove"
	}
	for _, p := range res.Packages {
		for _, o := range p.Outputs {
			switch {
			case o.Removed:
				fmt.Fprintf(out, "%s %s\n", removed, rel(dir, o.Path))
			case o.Unchanged:
			default:
				fmt.Fprintf(out, "%s %s\n", verb, rel(dir, o.Path))
			}
		}
	}
}

func rel(dir, path string) string {
	if r, err := filepath.Rel(dir, path); err == nil {
		return r
	}
	return path
}
