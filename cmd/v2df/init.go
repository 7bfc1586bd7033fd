package main

import (
	"fmt"

	"github.com/aretw0/v2df"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default config",
	Long:  `Writes v2df_config with every option at its default value. Fails if a config already exists.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path, err := v2df.Init(projectPath(args), "."+format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("format", "f", "json", "Config format: json, yaml or toml")
}
