package main

import (
	"github.com/aretw0/v2df/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [config]",
	Short: "Print the shape of a compiled frame tree",
	Long:  `Compiles one frame per project in memory and prints its node counts and depth, optionally as a Mermaid diagram.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		project, _ := cmd.Flags().GetString("project")
		frame, _ := cmd.Flags().GetInt("frame")
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		maxNodes, _ := cmd.Flags().GetInt("max-nodes")
		return cli.Inspect(cmd.Context(), cli.InspectOptions{
			Path:     projectPath(args),
			Project:  project,
			Frame:    frame,
			Mermaid:  mermaid,
			MaxNodes: maxNodes,
			Debug:    debug,
			Out:      cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("project", "p", "", "Only inspect this namespace")
	inspectCmd.Flags().Int("frame", -1, "Frame to compile (default: each project's test frame)")
	inspectCmd.Flags().Bool("mermaid", false, "Print the tree as a Mermaid diagram")
	inspectCmd.Flags().Int("max-nodes", 0, "Nodes drawn before the diagram is truncated")
}
