package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/nudgedev/nudge/internal/cli"
	"github.com/nudgedev/nudge/pkg/version"
)

func main() {
	cmd := cli.NewRootCmd()

	err := fang.Execute(context.Background(), cmd,
		fang.WithVersion(version.GetVersion()),
		fang.WithErrorHandler(cli.ErrorHandler),
	)
	if err != nil {
		os.Exit(1)
	}
}
