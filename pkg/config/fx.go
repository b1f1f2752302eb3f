package config

import (
	"go.uber.org/fx"
)

// Module provides the shared *Config. It starts out as the built-in defaults;
// the root command resolves the config file and flags into it before any
// subcommand runs.
var Module = fx.Module("config", fx.Provide(Defaults))
