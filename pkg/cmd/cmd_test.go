package cmd

import (
	"testing"

	"github.com/pseudomuto/phalanx/pkg/cmd/testutil"
	"github.com/pseudomuto/phalanx/pkg/engine/enginetest"
)

const (
	usersMigration = `CREATE TABLE users (
  id uuid PRIMARY KEY,
  name text
);
`

	eventsMigration = `-- metadata:
--   description: create the events table
--   consistency: quorum

CREATE TABLE events (
  id timeuuid PRIMARY KEY,
  user_id uuid,
  payload text
);
`
)

// migrationProject returns a project holding a keyspace, users and events
// migration.
func migrationProject(t *testing.T) *testutil.ProjectFixture {
	t.Helper()

	return testutil.TestProject(t).WithMigrations(
		testutil.MigrationFile{Name: "000-create_keyspace.cql", CQL: testutil.KeyspaceMigration},
		testutil.MigrationFile{Name: "001-create_users.cql", CQL: usersMigration},
		testutil.MigrationFile{Name: "002-create_events.cql", CQL: eventsMigration},
	)
}

func testParams(fixture *testutil.ProjectFixture, cluster *enginetest.Cluster) engineParams {
	return engineParams{Config: fixture.Config, Connect: cluster.Connect}
}
