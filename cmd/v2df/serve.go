package main

import (
	"github.com/aretw0/v2df/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [config]",
	Short: "Start the preview server",
	Long:  `Renders every project into memory and serves frames as PNG images, documents and Mermaid diagrams over HTTP.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		port, _ := cmd.Flags().GetString("port")
		redisURL, _ := cmd.Flags().GetString("redis")
		return cli.Serve(cmd.Context(), cli.ServeOptions{
			Path:     projectPath(args),
			Port:     port,
			RedisURL: redisURL,
			Debug:    debug,
			Out:      cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis URL of a shared tree cache, overriding the config")
}
