package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/v2df/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "v2df",
	Short:         "v2df turns a video into density function trees",
	Long:          `v2df compiles every frame of a video into a density function expression tree, so a voxel terrain engine can play the video back as terrain.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Log every render event to stderr")
}

// projectPath returns the config path argument, defaulting to the working directory.
func projectPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
