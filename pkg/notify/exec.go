package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/nudgedev/nudge/pkg/log"
)

var (
	// ErrEmptyCommand is returned when the exec command line is empty.
	ErrEmptyCommand = errors.New("empty command")

	// ErrCommandExecution is returned when the exec command fails.
	ErrCommandExecution = errors.New("run")
)

// Exec runs an external command per suggestion. The command line is parsed
// with shell-style quoting once at construction; `{rule}` and `{message}`
// placeholders in arguments are substituted per delivery, and the values are
// also exported as NUDGE_RULE and NUDGE_MESSAGE.
type Exec struct {
	command string
	args    []string
}

// NewExec creates an [Exec] notifier from a shell-style command line.
func NewExec(commandLine string) (*Exec, error) {
	words, err := shellwords.Parse(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", commandLine, err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}

	return &Exec{command: words[0], args: words[1:]}, nil
}

// MustNewExec creates an [Exec] notifier, panicking on error.
func MustNewExec(commandLine string) *Exec {
	e, err := NewExec(commandLine)
	if err != nil {
		panic(err)
	}

	return e
}

// Notify implements [engine.Notifier].
func (e *Exec) Notify(ctx context.Context, ruleName, message string) error {
	args := make([]string, len(e.args))
	for i, arg := range e.args {
		arg = strings.ReplaceAll(arg, "{rule}", ruleName)
		arg = strings.ReplaceAll(arg, "{message}", message)
		args[i] = arg
	}

	//nolint:gosec // G204: Subprocess launched with a potential tainted input or cmd arguments.
	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Env = append(os.Environ(),
		"NUDGE_RULE="+ruleName,
		"NUDGE_MESSAGE="+message,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %w: %s", ErrCommandExecution, err, strings.TrimSpace(stderr.String()))
		}

		return fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	log.WithContext(ctx).DebugContext(ctx, "exec notifier succeeded",
		slog.String("command", e.command),
	)

	return nil
}

func (e *Exec) String() string {
	return fmt.Sprintf("%s %s", e.command, strings.Join(e.args, " "))
}
