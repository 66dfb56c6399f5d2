package main

import (
	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/httpapi"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis tools over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := skill.NewFromConfig(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		presenter.Info("Listening on http://" + addr)
		return httpapi.NewServer(svc, addr).ListenAndServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address to listen on")
}
