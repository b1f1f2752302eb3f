package engine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/phalanx/pkg/migrator"
)

const (
	listKeyspacesQuery = "SELECT keyspace_name FROM system_schema.keyspaces"
	findTableQuery     = "SELECT table_name FROM system_schema.tables WHERE keyspace_name = ? AND table_name = ?"
)

// DetectMigrationState reads what is currently installed in the cluster.
//
// The keyspace listing runs on the unscoped session since the keyspace may not
// exist yet. A failure to find the ledger table is not an error; it yields a
// state with the keyspace but no ledger table.
func (e *Engine) DetectMigrationState(ctx context.Context) (*migrator.State, error) {
	rows, err := e.neutral.Query(ctx, listKeyspacesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keyspaces")
	}

	if !containsColumn(rows, "keyspace_name", e.keyspace) {
		e.log.Debug("Keyspace not found", "keyspace", e.keyspace)
		return migrator.NoKeyspace(), nil
	}

	rows, err = e.serial.Query(ctx, findTableQuery, e.keyspace, e.stateTable)
	if err != nil || !containsColumn(rows, "table_name", e.stateTable) {
		e.log.Debug("State table not found", "table", e.qualifiedStateTable(), "err", err)
		return migrator.NoStateTable(e.keyspace), nil
	}

	rows, err = e.serial.Query(ctx, fmt.Sprintf("SELECT * FROM %s", e.qualifiedStateTable()))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read state table %s", e.qualifiedStateTable())
	}

	installed := make([]*migrator.InstalledVersion, 0, len(rows))
	for _, row := range rows {
		v, err := migrator.ScanInstalledVersion(row)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read state table %s", e.qualifiedStateTable())
		}

		installed = append(installed, v)
	}

	return migrator.NewState(e.keyspace, e.stateTable, installed), nil
}

// DropKeyspace drops the engine's keyspace if it exists. Everything in it,
// including the ledger, is removed.
func (e *Engine) DropKeyspace(ctx context.Context) error {
	if err := e.neutral.Exec(ctx, fmt.Sprintf("DROP KEYSPACE IF EXISTS %s", e.keyspace)); err != nil {
		return errors.Wrapf(err, "failed to drop keyspace %s", e.keyspace)
	}

	return nil
}

func containsColumn(rows []map[string]any, column, value string) bool {
	for _, row := range rows {
		if v, ok := row[column].(string); ok && v == value {
			return true
		}
	}

	return false
}
