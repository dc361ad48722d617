package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nudgedev/nudge/pkg/config"
	"github.com/nudgedev/nudge/pkg/engine"
	"github.com/nudgedev/nudge/pkg/log"
	"github.com/nudgedev/nudge/pkg/mcp"
	"github.com/nudgedev/nudge/pkg/notify"
	"github.com/nudgedev/nudge/pkg/rule"
	"github.com/nudgedev/nudge/pkg/watch"
)

const (
	cmdExamples = `  # Watch the current directory:
  nudge

  # Watch a specific project directory:
  nudge ./my-project

  # Use a project-local rules file and reload it on change:
  nudge ./my-project --rules ./nudge-rules.yaml --watch

  # Emit suggestions as JSON for other tooling:
  nudge --notify json

  # Run a command per suggestion:
  nudge --notify-exec 'notify-send {rule} {message}'

  # Expose the rules over MCP while watching:
  nudge --serve-mcp localhost:8099`

	notifyConsole = "console"
	notifyJSON    = "json"
)

type RunArgs struct {
	*RootArgs

	Path         string
	RulesPath    string
	Notify       string
	NotifyExec   string
	ServeMCP     string
	OTLPEndpoint string
	Watch        bool
	WriteConfig  bool
	ShowConfig   bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.RulesPath, "rules", "", "Path to a rules file or directory of rules files")
	cmd.Flags().StringVar(&ra.Notify, "notify", notifyConsole,
		fmt.Sprintf("Suggestion output format, one of: [%s, %s]", notifyConsole, notifyJSON))
	cmd.Flags().StringVar(&ra.NotifyExec, "notify-exec", "", "Command to run per suggestion, with {rule} and {message} placeholders")
	cmd.Flags().StringVar(&ra.ServeMCP, "serve-mcp", "", "Serve the MCP server at the specified address, or 'stdio'")
	cmd.Flags().StringVar(&ra.OTLPEndpoint, "otlp-endpoint", "", "Export traces over OTLP gRPC to the specified endpoint")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Watch the rules file and reload on change")
	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default rules files and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active rules and exit")

	err := cmd.MarkFlagFilename("rules", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark rules flag: %w", err))
	}

	err = cmd.RegisterFlagCompletionFunc("notify",
		cobra.FixedCompletions([]string{notifyConsole, notifyJSON}, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "run [path]",
		Short:             "Default command, watches a project tree and dispatches rule suggestions",
		Example:           cmdExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: runCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ra.Path = "."
			if len(args) > 0 {
				ra.Path = args[0]
			}

			return run(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func run(cmd *cobra.Command, rc *RunArgs) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rulesPath := rc.RulesPath
	if rulesPath == "" {
		rulesPath = config.GetPath()

		err := config.WriteDefaultRules(rulesPath, false)
		if err != nil {
			slog.Error("write default rules", slog.Any("err", err))
		}
		if rc.WriteConfig {
			// Exit early after writing the default rules.
			// Also, if there was an error, it should be fatal.
			return err
		}
	} else if rc.WriteConfig {
		return config.WriteDefaultRules(rulesPath, false)
	}

	rules := loadRules(rulesPath)

	if rc.ShowConfig {
		return showRules(cmd.OutOrStdout(), rules)
	}

	if rc.OTLPEndpoint != "" {
		shutdown, err := setupTracing(ctx, rc.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}

		defer func() {
			err := shutdown(context.Background())
			if err != nil {
				slog.Error("shutdown tracing", slog.Any("err", err))
			}
		}()
	}

	logBuf := log.NewCircularBuffer(100)
	logHandler, err := log.CreateHandlerWithStrings(
		io.MultiWriter(cmd.ErrOrStderr(), logBuf), rc.LogLevel, rc.LogFormat)
	if err != nil {
		return fmt.Errorf("create log handler: %w", err)
	}

	slog.SetDefault(slog.New(logHandler))

	notifier, stopNotifier, err := buildNotifier(cmd.OutOrStdout(), rc)
	if err != nil {
		return err
	}

	defer stopNotifier()

	eng := engine.New(notifier)
	reloadRules(ctx, eng, rules)

	if rc.ServeMCP != "" {
		address := rc.ServeMCP
		if address == "stdio" {
			address = ""
		}

		mcpServer := mcp.NewServer(address, eng, mcp.WithLogBuffer(logBuf))

		go func() {
			err := mcpServer.Serve(ctx)
			if err != nil {
				slog.Error("MCP server failed", slog.Any("err", err))
			}
		}()
	}

	watchOpts := []watch.WatcherOpt{}
	if rc.Watch {
		watchOpts = append(watchOpts, watch.WithRulesPath(rulesPath))
	}

	w, err := watch.New(rc.Path, watchOpts...)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		err := w.Close()
		if err != nil {
			slog.Error("close watcher", slog.Any("err", err))
		}
	}()

	go w.Run(ctx)

	slog.InfoContext(ctx, "watching",
		slog.String("path", rc.Path),
		slog.String("rules", rulesPath),
		slog.Int("rule_count", eng.RuleSet().Len()),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.Events():
			if !ok {
				return nil
			}

			eng.Evaluate(ctx, evt)

		case <-w.Reloads():
			slog.InfoContext(ctx, "rules changed, reloading",
				slog.String("path", rulesPath),
			)
			reloadRules(ctx, eng, loadRules(rulesPath))
		}
	}
}

// loadRules loads rules from a file or directory, falling back to the
// embedded defaults when the path cannot be read.
func loadRules(path string) []*rule.Rule {
	rules, issues, err := config.LoadPath(path)
	if err != nil {
		slog.Warn("could not read rules, using defaults", slog.Any("err", err))

		return config.DefaultRules()
	}

	for _, issue := range issues {
		slog.Warn("skipping invalid rule document", slog.Any("err", issue))
	}

	return rules
}

func reloadRules(ctx context.Context, eng *engine.Engine, rules []*rule.Rule) {
	loadErrs := eng.Reload(ctx, rules)
	for _, loadErr := range loadErrs {
		slog.Warn("excluding rule", slog.Any("err", loadErr))
	}
}

func showRules(w io.Writer, rules []*rule.Rule) error {
	for i, r := range rules {
		doc := config.NewDocument()
		doc.Rule = r

		yamlBytes, err := doc.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal rule %q: %w", r.Name, err)
		}

		if i > 0 {
			mustN(fmt.Fprintln(w, "---"))
		}

		mustN(fmt.Fprint(w, string(yamlBytes)))
	}

	return nil
}

// buildNotifier assembles the notifier chain for the run loop. The exec
// notifier spawns a subprocess per suggestion, so it is delivered
// asynchronously to keep evaluation free of subprocess latency. The returned
// stop function flushes pending deliveries.
func buildNotifier(out io.Writer, rc *RunArgs) (engine.Notifier, func(), error) {
	var sink engine.Notifier

	switch rc.Notify {
	case notifyConsole:
		sink = notify.NewConsole(out)
	case notifyJSON:
		sink = notify.NewJSON(out)
	default:
		return nil, nil, fmt.Errorf("invalid argument %q for --notify", rc.Notify)
	}

	if rc.NotifyExec == "" {
		return sink, func() {}, nil
	}

	execNotifier, err := notify.NewExec(rc.NotifyExec)
	if err != nil {
		return nil, nil, fmt.Errorf("create exec notifier: %w", err)
	}

	asyncExec := notify.NewAsync(execNotifier)

	return notify.NewMulti(sink, asyncExec), asyncExec.Close, nil
}
