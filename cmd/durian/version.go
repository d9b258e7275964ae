package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"durian/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build metadata",
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		info := version.Current()
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		fmt.Fprintln(cmd.OutOrStdout(), info)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "print as JSON")
}
