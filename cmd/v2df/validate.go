package main

import (
	"fmt"

	"github.com/aretw0/v2df"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config]",
	Short: "Check the config without rendering",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := v2df.Load(projectPath(args))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config is valid: %d project(s).\n", len(cfg.Projects))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
