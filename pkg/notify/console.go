package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// Console writes human-readable suggestions to a terminal or plain writer.
// Styling is applied only when the writer is a terminal.
type Console struct {
	out     io.Writer
	now     func() time.Time
	rule    lipgloss.Style
	message lipgloss.Style
	stamp   lipgloss.Style
	styled  bool
	mu      sync.Mutex
}

// NewConsole creates a [Console] writing to the given writer.
func NewConsole(out io.Writer, opts ...ConsoleOpt) *Console {
	c := &Console{
		out:    out,
		now:    time.Now,
		styled: isTerminal(out),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.styled {
		c.rule = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
		c.message = lipgloss.NewStyle()
		c.stamp = lipgloss.NewStyle().Faint(true)
	}

	return c
}

// ConsoleOpt is a functional option for configuring a [Console].
type ConsoleOpt func(*Console)

// WithStyled forces styling on or off regardless of the writer.
func WithStyled(styled bool) ConsoleOpt {
	return func(c *Console) {
		c.styled = styled
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) ConsoleOpt {
	return func(c *Console) {
		c.now = now
	}
}

// Notify implements [engine.Notifier].
func (c *Console) Notify(_ context.Context, ruleName, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := humanize.Time(c.now())

	var line string
	if c.styled {
		line = fmt.Sprintf("%s %s %s\n",
			c.rule.Render(ruleName),
			c.message.Render(message),
			c.stamp.Render(ts),
		)
	} else {
		line = fmt.Sprintf("%s %s (%s)\n", ruleName, message, ts)
	}

	_, err := io.WriteString(c.out, line)
	if err != nil {
		return fmt.Errorf("write suggestion: %w", err)
	}

	return nil
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
