package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pseudomuto/phalanx/pkg/engine"
	"github.com/urfave/cli/v3"
)

// status creates the status command for showing migration status.
//
// The status command compares the keyspace with the migration files without
// changing anything. It reports installed and pending migrations, installed
// migrations whose files were modified, and installed versions whose files
// no longer exist.
//
// Example usage:
//
//	# Show migration status
//	phalanx status
//
//	# Show status for another keyspace
//	phalanx -k other_keyspace status
func status(p engineParams) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show migration status",
		Description: `Display the current migration status for the configured keyspace.

The status command shows:
- Whether the keyspace and state table exist
- The installed version and migration history
- Pending migrations that migrate would install
- Installed migrations whose files no longer match the recorded hash
- Installed migrations whose files are missing

This command is read-only and safe to run against production clusters.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "history",
				Usage: "Show every installed migration",
				Value: false,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStatus(ctx, cmd, p)
		},
	}
}

func runStatus(ctx context.Context, cmd *cli.Command, p engineParams) error {
	eng, err := newEngine(p)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	report, err := eng.Status(ctx)
	if err != nil {
		return err
	}

	showStatus(outWriter(cmd), report, cmd.Bool("history"))
	return nil
}

func showStatus(w io.Writer, report *engine.StatusReport, history bool) {
	fmt.Fprintf(w, "Migration Status\n")
	fmt.Fprintf(w, "Keyspace: %s\n", report.Keyspace)
	fmt.Fprintln(w)

	switch {
	case !report.KeyspaceExists:
		fmt.Fprintln(w, "❗ Keyspace does not exist")
	case !report.StateTableExists:
		fmt.Fprintf(w, "❗ State table %s does not exist\n", report.StateTable)
	case report.CurrentVersion < 0:
		fmt.Fprintln(w, "No migrations installed")
	default:
		fmt.Fprintf(w, "Current version: %d\n", report.CurrentVersion)
	}

	fmt.Fprintf(w, "✅ Installed: %d\n", len(report.Installed))
	fmt.Fprintf(w, "⏳ Pending: %d\n", len(report.Pending))
	fmt.Fprintf(w, "❌ Mismatched: %d\n", len(report.Mismatches))
	fmt.Fprintln(w)

	if history && len(report.Installed) > 0 {
		fmt.Fprintln(w, "📊 Installed migrations:")
		for _, m := range report.Installed {
			fmt.Fprintf(w, "  %d %s (rank %d, %ds)\n", m.Version, m.File, m.Rank, m.Duration)
			fmt.Fprintf(w, "     Installed: %s\n", m.Installed.UTC().Format("2006-01-02 15:04:05 UTC"))
		}
		fmt.Fprintln(w)
	}

	if len(report.Pending) > 0 {
		fmt.Fprintln(w, "⏳ Pending migrations:")
		for _, m := range report.Pending {
			fmt.Fprintf(w, "  %d %s\n", m.Version, m.File)
		}
		fmt.Fprintln(w)
	}

	if len(report.Mismatches) > 0 {
		fmt.Fprintln(w, "❌ Mismatched migrations:")
		for _, m := range report.Mismatches {
			fmt.Fprintf(w, "  %d %s\n", m.Version, m.File)
			fmt.Fprintf(w, "     %s\n", m.Reason)
		}
		fmt.Fprintln(w)
	}

	if len(report.MissingFiles) > 0 {
		fmt.Fprintln(w, "⚠️  Installed versions without a file:")
		for _, v := range report.MissingFiles {
			fmt.Fprintf(w, "  %d\n", v)
		}
		fmt.Fprintln(w)
	}

	switch {
	case len(report.Mismatches) > 0:
		fmt.Fprintln(w, "💡 Restore the modified files or rerun with --ignore-historical-hashes")
	case len(report.Pending) > 0:
		fmt.Fprintln(w, "💡 Run 'phalanx migrate' to apply pending migrations")
	default:
		fmt.Fprintln(w, "✅ All migrations are up to date")
	}
}
