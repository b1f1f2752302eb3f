package migrator_test

import (
	"testing"
	"testing/fstest"

	"github.com/pseudomuto/phalanx/pkg/migrator"
	"github.com/stretchr/testify/require"
)

var defaultOpts = migrator.FileNameOptions{Separator: "-", Extension: "cql"}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		token   string
		version int
		ok      bool
	}{
		{token: "0", version: 0, ok: true},
		{token: "000", version: 0, ok: true},
		{token: "007", version: 7, ok: true},
		{token: "42", version: 42, ok: true},
		{token: "2147483647", version: 2147483647, ok: true},
		{token: "2147483648", ok: false},
		{token: "", ok: false},
		{token: "abc", ok: false},
		{token: "1a", ok: false},
		{token: "-1", ok: false},
		{token: "+1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			version, ok := migrator.ParseVersion(tt.token)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.version, version)
		})
	}
}

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		opts        migrator.FileNameOptions
		ok          bool
		version     int
		description string
	}{
		{
			name:        "simple",
			file:        "001-create_table.cql",
			opts:        defaultOpts,
			ok:          true,
			version:     1,
			description: "create table",
		},
		{
			name:        "keyspace version",
			file:        "000-keyspace.cql",
			opts:        defaultOpts,
			ok:          true,
			version:     0,
			description: "keyspace",
		},
		{
			name:        "separator inside description",
			file:        "12-add-user_index.cql",
			opts:        defaultOpts,
			ok:          true,
			version:     12,
			description: "add-user index",
		},
		{
			name:        "prefix stripped",
			file:        "v2-seed_data.cql",
			opts:        migrator.FileNameOptions{Prefix: "v", Separator: "-", Extension: "cql"},
			ok:          true,
			version:     2,
			description: "seed data",
		},
		{
			name:        "custom separator",
			file:        "3+alter_table.cql",
			opts:        migrator.FileNameOptions{Separator: "+", Extension: "cql"},
			ok:          true,
			version:     3,
			description: "alter table",
		},
		{
			name:        "no extension filter",
			file:        "4-notes.txt",
			opts:        migrator.FileNameOptions{Separator: "-"},
			ok:          true,
			version:     4,
			description: "notes",
		},
		{name: "missing prefix", file: "2-seed.cql", opts: migrator.FileNameOptions{Prefix: "v", Separator: "-"}},
		{name: "wrong extension", file: "1-create.sql", opts: defaultOpts},
		{name: "no separator", file: "001create.cql", opts: defaultOpts},
		{name: "non numeric version", file: "abc-create.cql", opts: defaultOpts},
		{name: "empty separator", file: "1-create.cql", opts: migrator.FileNameOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := migrator.ParseDescriptor(tt.file, tt.opts)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				require.Nil(t, d)
				return
			}

			require.Equal(t, tt.file, d.Path)
			require.Equal(t, tt.version, d.Version)
			require.Equal(t, tt.description, d.Description)
		})
	}
}

func TestLoadDescriptors(t *testing.T) {
	fsys := fstest.MapFS{
		"010-later.cql":           {Data: []byte("select 1;")},
		"002-second.cql":          {Data: []byte("select 1;")},
		"000-keyspace.cql":        {Data: []byte("CREATE KEYSPACE k;")},
		"001-first.cql":           {Data: []byte("select 1;")},
		"README.md":               {Data: []byte("# migrations")},
		"nodash.cql":              {Data: []byte("select 1;")},
		"archive/003-skipped.cql": {Data: []byte("select 1;")},
	}

	descriptors, err := migrator.LoadDescriptors(fsys, defaultOpts)
	require.NoError(t, err)

	versions := make([]int, 0, len(descriptors))
	for _, d := range descriptors {
		versions = append(versions, d.Version)
	}
	require.Equal(t, []int{0, 1, 2, 10}, versions)
}

func TestLoadDescriptors_Prefix(t *testing.T) {
	fsys := fstest.MapFS{
		"v1-first.cql":  {Data: []byte("select 1;")},
		"v2-second.cql": {Data: []byte("select 1;")},
	}

	t.Run("matching prefix", func(t *testing.T) {
		descriptors, err := migrator.LoadDescriptors(fsys, migrator.FileNameOptions{
			Prefix:    "v",
			Separator: "-",
			Extension: "cql",
		})
		require.NoError(t, err)
		require.Len(t, descriptors, 2)
	})

	t.Run("prefix not configured", func(t *testing.T) {
		descriptors, err := migrator.LoadDescriptors(fsys, defaultOpts)
		require.NoError(t, err)
		require.Empty(t, descriptors)
	})
}

func TestLoadDescriptors_KeepsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"1-first.cql":  {Data: []byte("select 1;")},
		"01-again.cql": {Data: []byte("select 1;")},
	}

	descriptors, err := migrator.LoadDescriptors(fsys, defaultOpts)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	require.Equal(t, descriptors[0].Version, descriptors[1].Version)
}
