package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of analyses.json",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := json.MarshalIndent(workflow.ActionsSchema(), "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal schema")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}
