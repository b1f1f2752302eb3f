package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pseudomuto/phalanx/pkg/cmd"
	"github.com/pseudomuto/phalanx/pkg/config"
	"go.uber.org/fx"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fx.New(
		fx.NopLogger,
		fx.Supply(
			os.Args,
			&cmd.Version{Version: version, Commit: commit, Timestamp: date},
		),
		fx.Provide(func() context.Context { return ctx }),
		config.Module,
		cmd.Module,
	).Run()
}
