package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pseudomuto/phalanx/pkg/config"
	"github.com/pseudomuto/phalanx/pkg/consts"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Config     *config.Config
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

func init() {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

// Run creates the phalanx CLI application and runs it when the fx application
// starts. The process exits with code 1 when the command fails.
//
// Global flags are resolved before any command runs: the config file (if it
// exists) is merged over the defaults, and every flag that was set (on the
// command line or through its PHALANX_* environment variable) is merged over
// the file. The resolved values are written into the shared *config.Config
// that commands receive.
//
// Example usage:
//
//	phalanx -f phalanx.yml migrate
//	phalanx --host 10.0.0.1 --host 10.0.0.2 -k my_keyspace status
//	PHALANX_KEYSPACE=my_keyspace phalanx clean
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := newApp(p.Version, p.Config, p.Commands)

	p.Lifecycle.Append(fx.StartHook(func() {
		go func() {
			if err := app.Run(p.Ctx, p.Args); err != nil {
				slog.Error("Error running command", "err", err)
				_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				return
			}

			_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
		}()
	}))
}

func newApp(version *Version, cfg *config.Config, commands []*cli.Command) *cli.Command {
	return &cli.Command{
		Name:  "phalanx",
		Usage: "A tool for managing Cassandra schema migrations",
		Description: `phalanx applies versioned CQL migration files to a Cassandra keyspace.

Every installed migration is recorded, with a hash of its contents, in a state
table inside the keyspace. Subsequent runs verify the recorded hashes and
install only the files newer than the highest installed version.`,
		Version:  version.Version,
		Flags:    globalFlags(),
		Before:   resolveConfig(cfg),
		Commands: commands,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging and print the resolved configuration",
			Sources: cli.EnvVars("PHALANX_VERBOSE"),
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
			Sources: cli.EnvVars("PHALANX_QUIET"),
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"f"},
			Usage:   "The phalanx config file",
			Sources: cli.EnvVars("PHALANX_CONFIG"),
			Value:   consts.DefaultConfigFile,
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "migration-directory",
			Usage:   "Directory containing the migration files",
			Sources: cli.EnvVars("PHALANX_MIGRATION_DIRECTORY"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "migration-file-prefix",
			Usage:   "Prefix preceding the version in migration file names",
			Sources: cli.EnvVars("PHALANX_MIGRATION_FILE_PREFIX"),
		},
		&cli.StringFlag{
			Name:    "migration-file-separator",
			Usage:   "Separator between the version and the description in migration file names",
			Sources: cli.EnvVars("PHALANX_MIGRATION_FILE_SEPARATOR"),
		},
		&cli.StringFlag{
			Name:    "migration-file-extension",
			Usage:   "Extension of migration files",
			Sources: cli.EnvVars("PHALANX_MIGRATION_FILE_EXTENSION"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "phalanx-state-table",
			Usage:   "Name of the table recording installed migrations",
			Sources: cli.EnvVars("PHALANX_STATE_TABLE"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.IntFlag{
			Name:    "invocation-delay",
			Aliases: []string{"d"},
			Usage:   "Seconds to wait after each installed migration",
			Sources: cli.EnvVars("PHALANX_INVOCATION_DELAY"),
		},
		&cli.BoolFlag{
			Name:    "ignore-historical-hashes",
			Usage:   "Skip verifying the hashes of installed migrations",
			Sources: cli.EnvVars("PHALANX_IGNORE_HISTORICAL_HASHES"),
		},
		&cli.StringSliceFlag{
			Name:    "host",
			Usage:   "Cassandra contact point (repeatable)",
			Sources: cli.EnvVars("PHALANX_HOSTS"),
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Cassandra native protocol port",
			Sources: cli.EnvVars("PHALANX_PORT"),
		},
		&cli.IntFlag{
			Name:    "protocol-version",
			Usage:   "Cassandra native protocol version (1-5)",
			Sources: cli.EnvVars("PHALANX_PROTOCOL_VERSION"),
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Cassandra username",
			Sources: cli.EnvVars("PHALANX_USERNAME"),
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Cassandra password",
			Sources: cli.EnvVars("PHALANX_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "keyspace",
			Aliases: []string{"k"},
			Usage:   "Keyspace to migrate",
			Sources: cli.EnvVars("PHALANX_KEYSPACE"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "consistency",
			Usage:   "Consistency level for migration statements",
			Sources: cli.EnvVars("PHALANX_CONSISTENCY"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Cassandra query and connect timeout",
			Sources: cli.EnvVars("PHALANX_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "cafile",
			Usage:   "Certificate authority pem",
			Sources: cli.EnvVars("PHALANX_CAFILE"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "certfile",
			Usage:   "Certificate public key file",
			Sources: cli.EnvVars("PHALANX_CERTFILE"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "keyfile",
			Usage:   "Certificate private key file",
			Sources: cli.EnvVars("PHALANX_KEYFILE"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.BoolFlag{
			Name:    "verify-host",
			Usage:   "Verify the server certificate's host name",
			Sources: cli.EnvVars("PHALANX_VERIFY_HOST"),
		},
	}
}

// resolveConfig configures logging and resolves defaults, the config file and
// flags into cfg.
func resolveConfig(cfg *config.Config) cli.BeforeFunc {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		configureLogger(cmd)

		resolved := config.Defaults()

		path := cmd.String("config")
		fileCfg, err := config.LoadConfigFile(path)
		if err != nil {
			return ctx, err
		}

		if fileCfg == nil {
			slog.Debug("Config file not found; using defaults and flags", "path", path)
		}

		resolved = resolved.Merge(fileCfg).Merge(flagOverrides(cmd))
		*cfg = *resolved

		// quiet wins over verbose
		if cmd.Bool("verbose") && !cmd.Bool("quiet") {
			out, err := cfg.ToYAML()
			if err != nil {
				return ctx, err
			}

			fmt.Fprintf(errWriter(cmd), "Resolved configuration:\n%s", out)
		}

		return ctx, nil
	}
}

func configureLogger(cmd *cli.Command) {
	level := slog.LevelInfo
	switch {
	case cmd.Bool("quiet"):
		level = slog.LevelError
	case cmd.Bool("verbose"):
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(errWriter(cmd), &slog.HandlerOptions{Level: level})))
}

// flagOverrides returns a config holding only the flags that were set.
func flagOverrides(cmd *cli.Command) *config.Config {
	over := new(config.Config)

	if cmd.IsSet("host") {
		over.Client.Hosts = splitHosts(cmd.StringSlice("host"))
	}
	if cmd.IsSet("port") {
		over.Client.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("protocol-version") {
		over.Client.ProtocolVersion = int(cmd.Int("protocol-version"))
	}
	if cmd.IsSet("keyspace") {
		over.Client.Keyspace = cmd.String("keyspace")
	}
	if cmd.IsSet("username") {
		over.Client.Username = cmd.String("username")
	}
	if cmd.IsSet("password") {
		over.Client.Password = cmd.String("password")
	}
	if cmd.IsSet("consistency") {
		over.Client.Consistency = cmd.String("consistency")
	}
	if cmd.IsSet("timeout") {
		over.Client.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("cafile") {
		over.Client.TLS.CAFile = cmd.String("cafile")
	}
	if cmd.IsSet("certfile") {
		over.Client.TLS.CertFile = cmd.String("certfile")
	}
	if cmd.IsSet("keyfile") {
		over.Client.TLS.KeyFile = cmd.String("keyfile")
	}
	if cmd.IsSet("verify-host") {
		verify := cmd.Bool("verify-host")
		over.Client.TLS.VerifyHost = &verify
	}

	if cmd.IsSet("phalanx-state-table") {
		over.PhalanxStateTable = cmd.String("phalanx-state-table")
	}

	if cmd.IsSet("migration-directory") {
		over.Migration.Directory = cmd.String("migration-directory")
	}
	if cmd.IsSet("migration-file-prefix") {
		prefix := cmd.String("migration-file-prefix")
		over.Migration.FilePrefix = &prefix
	}
	if cmd.IsSet("migration-file-separator") {
		over.Migration.FileSeparator = cmd.String("migration-file-separator")
	}
	if cmd.IsSet("migration-file-extension") {
		over.Migration.FileExtension = cmd.String("migration-file-extension")
	}
	if cmd.IsSet("invocation-delay") {
		delay := int(cmd.Int("invocation-delay"))
		over.Migration.InvocationDelay = &delay
	}
	if cmd.IsSet("ignore-historical-hashes") {
		ignore := cmd.Bool("ignore-historical-hashes")
		over.Migration.IgnoreHistoricalHashes = &ignore
	}

	return over
}

// splitHosts accepts both repeated flags and comma separated lists.
func splitHosts(values []string) []string {
	hosts := make([]string, 0, len(values))
	for _, v := range values {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hosts = append(hosts, h)
			}
		}
	}

	return hosts
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}

	return os.Stderr
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}
