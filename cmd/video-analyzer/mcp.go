package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/mcpserver"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analysis tools over MCP on stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout exposing
analyze_video_workflow and analyze_single_screenshot.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// stdout carries the protocol
		logger.SetLogOutput(os.Stderr)
		presenter.SetQuiet(true)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := skill.NewFromConfig(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		logger.G(cmd.Context()).WithField("provider", cfg.Provider).Info("starting MCP server on stdio")
		return mcpserver.ServeStdio(cmd.Context(), svc, os.Stdin, os.Stdout)
	},
}
