package main

import (
	"github.com/spf13/cobra"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [packages]",
	Short: "Report diagnostics without writing generated files",
	Long: `Run the generators over the packages (default ./...) and print their
diagnostics. Nothing is written. The exit status is 1 when an error is
reported.`,
	RunE: runDiag,
}

func init() {
	addRunFlags(diagCmd)
}

func runDiag(cmd *cobra.Command, args []string) (retErr error) {
	ctx, s, cleanup, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(retErr) }()

	opts, err := driverOptions(s, args)
	if err != nil {
		return err
	}
	opts.DryRun = true
	res, err := runDriver(ctx, cmd, opts)
	if err != nil {
		return err
	}
	return report(cmd, s, res)
}
