package migrator_test

import (
	"testing"
	"testing/fstest"

	"github.com/pseudomuto/phalanx/pkg/errs"
	"github.com/pseudomuto/phalanx/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", migrator.Hash(""))
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", migrator.Hash("hello"))
	require.NotEqual(t, migrator.Hash("hello"), migrator.Hash("hello\n"))
}

func TestLoadMigration(t *testing.T) {
	fsys := fstest.MapFS{
		"001-create_table.cql": {Data: []byte("CREATE TABLE t (id int PRIMARY KEY);\n")},
		"002-with_metadata.cql": {Data: []byte(`-- metadata:
--   description: this is a different description
--   consistency: quorum

CREATE TABLE u (id int PRIMARY KEY);
`)},
	}

	t.Run("filename description", func(t *testing.T) {
		mig, err := migrator.LoadMigration(fsys, &migrator.Descriptor{
			Path:        "001-create_table.cql",
			Version:     1,
			Description: "create table",
		})
		require.NoError(t, err)
		require.Equal(t, "001-create_table.cql", mig.File)
		require.Equal(t, 1, mig.Version)
		require.Equal(t, "create table", mig.Description)
		require.Equal(t, "CREATE TABLE t (id int PRIMARY KEY);\n", mig.Contents)
		require.Equal(t, migrator.Hash(mig.Contents), mig.Hash)
		require.Nil(t, mig.Metadata)
	})

	t.Run("embedded description wins", func(t *testing.T) {
		mig, err := migrator.LoadMigration(fsys, &migrator.Descriptor{
			Path:        "002-with_metadata.cql",
			Version:     2,
			Description: "with metadata",
		})
		require.NoError(t, err)
		require.Equal(t, "this is a different description", mig.Description)
		require.NotNil(t, mig.Metadata)
		require.Equal(t, "quorum", *mig.Metadata.Consistency)
	})

	t.Run("file vanished", func(t *testing.T) {
		_, err := migrator.LoadMigration(fsys, &migrator.Descriptor{
			Path:    "003-gone.cql",
			Version: 3,
		})
		require.ErrorIs(t, err, errs.ErrFileNotFound)
	})
}

func TestDetectKeyspaceCreation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		expected bool
	}{
		{
			name:     "upper case",
			contents: "CREATE KEYSPACE $${{KEYSPACE}}$$ WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1};",
			expected: true,
		},
		{
			name:     "indented lower case after comment",
			contents: "-- the keyspace\n   create keyspace if not exists foo\n   WITH replication = {};",
			expected: true,
		},
		{name: "table only", contents: "CREATE TABLE foo (id int PRIMARY KEY);", expected: false},
		{name: "mentioned mid line", contents: "-- we do not CREATE KEYSPACE here", expected: false},
		{name: "empty", contents: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, migrator.DetectKeyspaceCreation(tt.contents))
		})
	}
}
