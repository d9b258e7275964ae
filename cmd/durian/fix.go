package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"durian/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [packages]",
	Short: "Apply code fixes for reported diagnostics",
	Long: `Run the generators without writing output, then apply the code fixes
attached to their diagnostics. By default the first available fix is applied.`,
	RunE: runFix,
}

func init() {
	addRunFlags(fixCmd)
	fixCmd.Flags().Bool("all", false, "apply every safe fix")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply the fix with this identifier")
	fixCmd.Flags().Bool("dry-run", false, "show what would change without writing")
}

func fixOptions(cmd *cobra.Command) (fix.ApplyOptions, error) {
	f := cmd.Flags()
	all, err := f.GetBool("all")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	once, err := f.GetBool("once")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	id, err := f.GetString("id")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	dryRun, err := f.GetBool("dry-run")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	if id != "" && (all || once) {
		return fix.ApplyOptions{}, errors.New("--id cannot be combined with --all or --once")
	}
	if all && once {
		return fix.ApplyOptions{}, errors.New("--all and --once are mutually exclusive")
	}
	opts := fix.ApplyOptions{Mode: fix.ApplyModeOnce, TargetID: id, DryRun: dryRun}
	switch {
	case id != "":
		opts.Mode = fix.ApplyModeID
	case all:
		opts.Mode = fix.ApplyModeAll
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, args []string) (retErr error) {
	applyOpts, err := fixOptions(cmd)
	if err != nil {
		return err
	}
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
	applied, applyErr := fix.Apply(afero.NewOsFs(), res.Files, res.Bag.Items(), applyOpts)
	if applied != nil {
		printApplyResult(cmd.OutOrStdout(), applied, applyOpts.DryRun)
	}
	if errors.Is(applyErr, fix.ErrNoFixes) {
		fmt.Fprintln(cmd.OutOrStdout(), "no applicable fixes")
		return nil
	}
	return applyErr
}

func printApplyResult(out io.Writer, res *fix.ApplyResult, dryRun bool) {
	verb := "Applied"
	if dryRun {
		verb = "Would apply"
	}
	if len(res.Applied) > 0 {
		fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] %s: %s (%d edits, %s)\n",
				item.Title, item.ID, item.Code.ID(), location, item.EditCount, item.Applicability)
		}
	}
	if len(res.FileChanges) > 0 {
		fmt.Fprintln(out, "Updated files:")
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}
}
