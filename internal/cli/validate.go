package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nudgedev/nudge/pkg/config"
)

func NewValidateCmd(_ *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a rules file or directory and report every issue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetPath()
			if len(args) > 0 {
				path = args[0]
			}

			return validate(cmd, path)
		},
	}

	bindEnvVars(cmd)

	return cmd
}

func validate(cmd *cobra.Command, path string) error {
	rules, issues, err := config.LoadPath(path)
	if err != nil {
		return fmt.Errorf("read rules %q: %w", path, err)
	}

	for _, issue := range issues {
		mustN(fmt.Fprintln(cmd.OutOrStdout(), issue.Error()))
	}

	mustN(fmt.Fprintf(cmd.OutOrStdout(), "%d valid rules, %d issues\n", len(rules), len(issues)))

	if len(issues) > 0 {
		return fmt.Errorf("%d invalid rule documents in %q", len(issues), path)
	}

	return nil
}
