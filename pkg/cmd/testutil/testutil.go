package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/phalanx/pkg/config"
	"github.com/pseudomuto/phalanx/pkg/consts"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestKeyspace is the keyspace used by project fixtures.
const TestKeyspace = "phalanx_test"

// KeyspaceMigration creates the fixture keyspace using the placeholder.
const KeyspaceMigration = `CREATE KEYSPACE $${{KEYSPACE}}$$ WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1};
`

// ProjectFixture represents a test project: a temp directory holding a
// phalanx.yml and a migrations directory.
type ProjectFixture struct {
	Dir    string
	Config *config.Config
	t      *testing.T
}

// MigrationFile represents a test migration
type MigrationFile struct {
	Name string
	CQL  string
}

// TestProject creates an isolated temp directory with a resolved config
// pointing at its migrations directory.
func TestProject(t *testing.T) *ProjectFixture {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "migrations"), consts.ModeDir))

	return &ProjectFixture{
		Dir:    tmpDir,
		Config: DefaultConfig(filepath.Join(tmpDir, "migrations")),
		t:      t,
	}
}

// WithMigrations adds migration files to the project
func (p *ProjectFixture) WithMigrations(migrations ...MigrationFile) *ProjectFixture {
	p.t.Helper()

	for _, migration := range migrations {
		path := filepath.Join(p.GetMigrationsDir(), migration.Name)
		err := os.WriteFile(path, []byte(migration.CQL), consts.ModeFile)
		require.NoError(p.t, err, "Failed to write migration file: %s", migration.Name)
	}

	return p
}

// WithConfigFile writes the fixture config to phalanx.yml
func (p *ProjectFixture) WithConfigFile() *ProjectFixture {
	p.t.Helper()

	data, err := yaml.Marshal(p.Config)
	require.NoError(p.t, err, "Failed to marshal config")
	require.NoError(p.t, os.WriteFile(p.GetConfigPath(), data, consts.ModeFile), "Failed to write config")

	return p
}

// GetMigrationsDir returns the path to the migrations directory
func (p *ProjectFixture) GetMigrationsDir() string {
	return filepath.Join(p.Dir, "migrations")
}

// GetConfigPath returns the path to the phalanx.yml file
func (p *ProjectFixture) GetConfigPath() string {
	return filepath.Join(p.Dir, consts.DefaultConfigFile)
}

// DefaultConfig returns a resolved configuration for testing
func DefaultConfig(dir string) *config.Config {
	return config.Defaults().Merge(&config.Config{
		Client: config.Client{
			Hosts:           []string{"127.0.0.1"},
			Port:            9042,
			ProtocolVersion: 4,
			Keyspace:        TestKeyspace,
		},
		Migration: config.Migration{
			Directory: dir,
		},
	})
}
