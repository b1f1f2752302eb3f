package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pseudomuto/phalanx/pkg/engine"
	"github.com/urfave/cli/v3"
)

// migrate creates the migrate command for applying pending migrations.
//
// The migrate command creates the keyspace (from the version 0 migration) and
// the state table when they are missing, verifies the hashes of installed
// migrations and installs every migration newer than the highest installed
// version.
//
// Example usage:
//
//	# Apply all pending migrations using phalanx.yml
//	phalanx migrate
//
//	# Override the keyspace and hosts
//	phalanx --host 10.0.0.1 -k my_keyspace migrate
//
//	# Apply migrations by connecting via mtls
//	phalanx --cafile /cert/ca.crt --certfile /cert/tls.crt --keyfile /cert/tls.key migrate
func migrate(p engineParams) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending migrations to Cassandra",
		Description: `Apply all pending migrations to the configured keyspace.

The migrate command executes migrations in version order. It automatically handles:
- Creating the keyspace from the reserved version 0 migration
- Creating the state table that records installed migrations
- Verifying installed migrations have not been modified (unless disabled)
- Per-file consistency and invocation delay overrides from embedded metadata

Each migration file is executed as a single statement. When a migration fails
the run stops; fix the cause and run migrate again to resume.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMigrate(ctx, cmd, p)
		},
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command, p engineParams) error {
	eng, err := newEngine(p)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	slog.Info("Starting migration", "keyspace", eng.Keyspace(), "directory", p.Config.Migration.Directory)

	state, err := eng.DetectMigrationState(ctx)
	if err != nil {
		return err
	}

	files, err := eng.DetectFileMigrations()
	if err != nil {
		return err
	}

	slog.Debug("Loaded migrations", "count", len(files))

	report, err := eng.ExecuteMigration(ctx, state, files)
	reportResults(outWriter(cmd), report)
	return err
}

func reportResults(w io.Writer, report *engine.Report) {
	if report == nil {
		return
	}

	if report.KeyspaceCreated {
		fmt.Fprintf(w, "Created keyspace %s\n", report.Keyspace)
	}

	if report.StateTableCreated {
		fmt.Fprintln(w, "Created state table")
	}

	if len(report.Installed) == 0 {
		fmt.Fprintf(w, "Keyspace %s is up to date at version %d\n", report.Keyspace, report.CurrentVersion)
		return
	}

	for _, r := range report.Installed {
		fmt.Fprintf(w, "  ✅ %s (version %d, rank %d, %s)\n", r.File, r.Version, r.Rank, r.Duration)
		if !r.Recorded {
			fmt.Fprintf(w, "     ⚠️  rank %d was already recorded by another run\n", r.Rank)
		}
	}

	fmt.Fprintf(
		w,
		"Migrated keyspace %s from version %d to %d (%d installed)\n",
		report.Keyspace,
		report.PreviousVersion,
		report.CurrentVersion,
		len(report.Installed),
	)
}
