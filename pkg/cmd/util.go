package cmd

import (
	"log/slog"

	"github.com/pseudomuto/phalanx/pkg/config"
	"github.com/pseudomuto/phalanx/pkg/engine"
	"go.uber.org/fx"
)

// engineParams are the dependencies shared by every command that talks to the
// cluster.
type engineParams struct {
	fx.In

	Config *config.Config

	// Connect overrides how sessions are created. Tests use this to swap in an
	// in-memory cluster.
	Connect engine.Connector `optional:"true"`
}

// newEngine creates an engine for the resolved configuration. The caller must
// close it.
func newEngine(p engineParams) (*engine.Engine, error) {
	return engine.New(engine.Options{
		Config:  p.Config,
		Connect: p.Connect,
		Logger:  slog.Default(),
	})
}
