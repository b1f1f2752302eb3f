package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/phalanx/pkg/cassandra"
	"github.com/pseudomuto/phalanx/pkg/cmd/testutil"
	"github.com/pseudomuto/phalanx/pkg/engine/enginetest"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

func TestStatusCommand(t *testing.T) {
	t.Run("fresh cluster", func(t *testing.T) {
		fixture := migrationProject(t)

		out, err := testutil.RunCommand(t, status(testParams(fixture, enginetest.NewCluster())), nil)
		require.NoError(t, err)
		golden.Assert(t, out, "status_fresh.golden")
	})

	t.Run("up to date", func(t *testing.T) {
		fixture := migrationProject(t)
		cluster := enginetest.NewCluster()

		_, err := testutil.RunCommand(t, migrate(testParams(fixture, cluster)), nil)
		require.NoError(t, err)

		out, err := testutil.RunCommand(t, status(testParams(fixture, cluster)), nil)
		require.NoError(t, err)
		golden.Assert(t, out, "status_current.golden")
	})

	t.Run("history", func(t *testing.T) {
		fixture := migrationProject(t)
		cluster := enginetest.NewCluster()

		_, err := testutil.RunCommand(t, migrate(testParams(fixture, cluster)), nil)
		require.NoError(t, err)

		out, err := testutil.RunCommand(t, status(testParams(fixture, cluster)), []string{"--history"})
		require.NoError(t, err)
		require.Contains(t, out, "📊 Installed migrations:")
		require.Contains(t, out, "  1 001-create_users.cql (rank 1, 0s)")
		require.Contains(t, out, "  2 002-create_events.cql (rank 2, 0s)")
		require.Contains(t, out, "     Installed: ")
	})

	t.Run("modified and deleted files", func(t *testing.T) {
		fixture := migrationProject(t)
		cluster := enginetest.NewCluster()

		_, err := testutil.RunCommand(t, migrate(testParams(fixture, cluster)), nil)
		require.NoError(t, err)

		dir := fixture.GetMigrationsDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "001-create_users.cql"), []byte(usersMigration+"-- edited\n"), 0o644))
		require.NoError(t, os.Remove(filepath.Join(dir, "002-create_events.cql")))

		out, err := testutil.RunCommand(t, status(testParams(fixture, cluster)), nil)
		require.NoError(t, err)
		require.Contains(t, out, "Current version: 2\n")
		require.Contains(t, out, "❌ Mismatched: 1\n")
		require.Contains(t, out, "❌ Mismatched migrations:\n  1 001-create_users.cql\n")
		require.Contains(t, out, "⚠️  Installed versions without a file:\n  2\n")
		require.Contains(t, out, "💡 Restore the modified files or rerun with --ignore-historical-hashes")
	})

	t.Run("missing state table", func(t *testing.T) {
		fixture := migrationProject(t)
		cluster := enginetest.NewCluster()

		err := cluster.Connect(cassandra.ClientOptions{}).Exec(
			t.Context(),
			"CREATE KEYSPACE phalanx_test WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}",
		)
		require.NoError(t, err)

		out, err := testutil.RunCommand(t, status(testParams(fixture, cluster)), nil)
		require.NoError(t, err)
		require.Contains(t, out, "❗ State table phalanx_state does not exist\n")
		require.Contains(t, out, "💡 Run 'phalanx migrate' to apply pending migrations")
	})
}
