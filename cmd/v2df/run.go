package main

import (
	"github.com/aretw0/v2df/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [config]",
	Short: "Render every project of the config",
	Long:  `Decodes the video and writes frame documents, the combined grid and traversal functions for each project.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Execute(cmd.Context(), runOptions(cmd, args, false))
	},
}

var testCmd = &cobra.Command{
	Use:   "test [config]",
	Short: "Render each project's test frame with preview images",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Execute(cmd.Context(), runOptions(cmd, args, true))
	},
}

func runOptions(cmd *cobra.Command, args []string, test bool) cli.RunOptions {
	debug, _ := cmd.Flags().GetBool("debug")
	watch, _ := cmd.Flags().GetBool("watch")
	workers, _ := cmd.Flags().GetInt("workers")
	redisURL, _ := cmd.Flags().GetString("redis")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	return cli.RunOptions{
		Path:        projectPath(args),
		Debug:       debug,
		Test:        test,
		Watch:       watch,
		Workers:     workers,
		RedisURL:    redisURL,
		MetricsAddr: metricsAddr,
		Out:         cmd.OutOrStdout(),
	}
}

func init() {
	for _, c := range []*cobra.Command{runCmd, testCmd} {
		rootCmd.AddCommand(c)
		c.Flags().BoolP("watch", "w", false, "Render again when the config or the video changes")
		c.Flags().Int("workers", 0, "Concurrent frame compiles (default: config, then CPU count)")
		c.Flags().String("redis", "", "Redis URL of a shared tree cache, overriding the config")
		c.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	}
}
