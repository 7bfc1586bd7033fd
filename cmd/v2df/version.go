package main

import (
	"fmt"

	"github.com/aretw0/v2df"
	"github.com/aretw0/v2df/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of v2df",
	Run: func(cmd *cobra.Command, args []string) {
		if banner, _ := cmd.Flags().GetBool("banner"); banner {
			tui.PrintBanner(cmd.OutOrStdout(), v2df.Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "v2df version %s\n", v2df.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("banner", false, "Print the banner")
}
