package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage the agent skill definition",
}

var skillInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Write SKILL.md into the agent skills directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		force, _ := cmd.Flags().GetBool("force")
		if dir == "" {
			var err error
			if dir, err = defaultSkillDir(); err != nil {
				return err
			}
		}

		path, err := skill.Install(dir, force)
		if err != nil {
			return err
		}
		presenter.Success("Installed skill to " + path)
		return nil
	},
}

func init() {
	skillInstallCmd.Flags().String("dir", "", "Skills directory (default ~/.claude/skills)")
	skillInstallCmd.Flags().Bool("force", false, "Overwrite an existing SKILL.md")
	skillCmd.AddCommand(skillInstallCmd)
}

func defaultSkillDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".claude", "skills"), nil
}
