package cmd

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// clean creates the clean command, which drops the configured keyspace along
// with every table in it, including the state table.
//
// Example usage:
//
//	phalanx -k my_keyspace clean
func clean(p engineParams) *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "Drop the keyspace and everything in it",
		Description: `Drop the configured keyspace, including the state table.

This is irreversible. It is intended for development and test environments
where the keyspace should be rebuilt from scratch by a subsequent migrate.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runClean(ctx, p)
		},
	}
}

func runClean(ctx context.Context, p engineParams) error {
	eng, err := newEngine(p)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	state, err := eng.DetectMigrationState(ctx)
	if err != nil {
		return err
	}

	if !state.HasKeyspace() {
		slog.Info("No action for clean; keyspace does not exist", "keyspace", eng.Keyspace())
		return nil
	}

	if err := eng.DropKeyspace(ctx); err != nil {
		return err
	}

	slog.Info("Clean succeeded; keyspace dropped", "keyspace", eng.Keyspace())
	return nil
}
