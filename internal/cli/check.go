package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nudgedev/nudge/pkg/config"
	"github.com/nudgedev/nudge/pkg/engine"
	"github.com/nudgedev/nudge/pkg/event"
	"github.com/nudgedev/nudge/pkg/notify"
)

type CheckArgs struct {
	*RootArgs

	RulesPath string
	EventKind string
}

func NewCheckCmd(rootArgs *RootArgs) *cobra.Command {
	ca := &CheckArgs{RootArgs: rootArgs}

	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Evaluate the rules against a hypothetical filesystem event and exit",
		Example: `  # Which rules fire when a controller is created?
  nudge check src/Controller/UserController.php

  # Which rules fire when a template is updated?
  nudge check templates/user/show.html.twig --event file_update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd, ca, args[0])
		},
	}

	cmd.Flags().StringVar(&ca.RulesPath, "rules", "", "Path to a rules file or directory of rules files")
	cmd.Flags().StringVar(&ca.EventKind, "event", string(event.FileCreate),
		fmt.Sprintf("Event kind, one of: %s", event.AllKinds))

	err := cmd.MarkFlagFilename("rules", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark rules flag: %w", err))
	}

	kinds := make([]string, len(event.AllKinds))
	for i, k := range event.AllKinds {
		kinds[i] = string(k)
	}

	err = cmd.RegisterFlagCompletionFunc("event",
		cobra.FixedCompletions(kinds, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	bindEnvVars(cmd)

	return cmd
}

func check(cmd *cobra.Command, ca *CheckArgs, path string) error {
	kind := event.Kind(ca.EventKind)
	if !event.ValidKind(kind) {
		return fmt.Errorf("invalid argument %q for --event, one of: %s", ca.EventKind, event.AllKinds)
	}

	rulesPath := ca.RulesPath
	if rulesPath == "" {
		rulesPath = config.GetPath()
	}

	rules, issues, err := config.LoadPath(rulesPath)
	if err != nil {
		return fmt.Errorf("read rules %q: %w", rulesPath, err)
	}

	for _, issue := range issues {
		mustN(fmt.Fprintln(cmd.ErrOrStderr(), issue.Error()))
	}

	eng := engine.New(notify.NewConsole(cmd.OutOrStdout()))
	reloadRules(cmd.Context(), eng, rules)

	dispatches := eng.Evaluate(cmd.Context(), event.New(path, kind))
	if len(dispatches) == 0 {
		mustN(fmt.Fprintln(cmd.OutOrStdout(), "no rules fired"))
	}

	return nil
}
