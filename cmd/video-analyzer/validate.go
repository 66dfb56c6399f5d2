package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/binaries"
	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
)

var validateCmd = &cobra.Command{
	Use:   "validate <script>",
	Short: "Check a generated script for syntax errors and common issues",
	Long: `Checks a generated script: syntax through node or python3, empty selectors,
missing waits and missing error handling. Warnings only fail the command
with --strict.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		checker := generator.NewSyntaxChecker(binaries.NewResolver(cfg.BinaryOverrides()))
		return runValidate(cmd.Context(), checker, args[0], strict)
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}

func runValidate(ctx context.Context, checker generator.Validator, path string, strict bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "script not found")
	}
	format, err := generator.FormatForFile(path)
	if err != nil {
		return err
	}

	presenter.Info(fmt.Sprintf("Validating %s...", filepath.Base(path)))
	issues := generator.Lint(ctx, checker, format, string(content))
	if len(issues) == 0 {
		presenter.Success("Script is valid!")
		return nil
	}

	presenter.Info("Issues found:")
	for _, issue := range issues {
		if issue.Severity == generator.SeverityError {
			presenter.Error(errors.New(issue.Message), "")
		} else {
			presenter.Warning(issue.Message)
		}
	}
	if generator.HasErrors(issues, strict) {
		return errSilent
	}
	presenter.Info("No critical errors (warnings only)")
	return nil
}
