package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <image> [image...]",
	Short: "Describe the action shown in one or more screenshots",
	Long: `Analyses each screenshot on its own, without context from the others. Several
images are analysed in parallel, bounded by vision.concurrency.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := skill.NewFromConfig(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		images := make([]skill.ImageArgs, len(args))
		for i, path := range args {
			images[i] = skill.ImageArgs{ImagePath: path}
		}
		results := svc.AnalyzeImages(cmd.Context(), images)
		if !writeScreenshotResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, results) {
			return errSilent
		}
		return nil
	},
}

// writeScreenshotResults prints reports to out and errors to errOut, and
// reports whether every image succeeded
func writeScreenshotResults(out, errOut io.Writer, paths []string, results []skill.Result) bool {
	ok := true
	first := true
	for i, res := range results {
		if res.IsError {
			ok = false
			fmt.Fprintln(errOut, res.Text)
			continue
		}
		if len(paths) > 1 {
			if !first {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "<!-- %s -->\n", paths[i])
		}
		first = false
		fmt.Fprint(out, res.Text)
	}
	return ok
}
