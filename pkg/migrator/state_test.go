package migrator_test

import (
	"testing"
	"time"

	"github.com/pseudomuto/phalanx/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	t.Run("no keyspace", func(t *testing.T) {
		state := migrator.NoKeyspace()
		require.False(t, state.HasKeyspace())
		require.False(t, state.HasStateTable())

		_, ok := state.MaxVersion()
		require.False(t, ok)
		require.Zero(t, state.MaxRank())
	})

	t.Run("no state table", func(t *testing.T) {
		state := migrator.NoStateTable("ks")
		require.True(t, state.HasKeyspace())
		require.False(t, state.HasStateTable())
		require.Equal(t, "ks", state.Keyspace)
	})

	t.Run("installed migrations", func(t *testing.T) {
		state := migrator.NewState("ks", "phalanx_state", []*migrator.InstalledVersion{
			{Rank: 3, Version: 5},
			{Rank: 1, Version: 1},
			{Rank: 2, Version: 2},
		})

		require.True(t, state.HasStateTable())
		require.Equal(t, 1, state.Migrations[0].Version)
		require.Equal(t, 5, state.Migrations[2].Version)

		maxVersion, ok := state.MaxVersion()
		require.True(t, ok)
		require.Equal(t, 5, maxVersion)
		require.Equal(t, 3, state.MaxRank())

		require.Equal(t, 2, state.Find(2).Rank)
		require.Nil(t, state.Find(4))
	})
}

func TestScanInstalledVersion(t *testing.T) {
	installed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	v, err := migrator.ScanInstalledVersion(map[string]any{
		"rank":        1,
		"version":     int32(7),
		"description": "create table",
		"file":        "007-create_table.cql",
		"hash":        "abc",
		"installed":   installed,
		"duration":    int64(2),
	})
	require.NoError(t, err)
	require.Equal(t, &migrator.InstalledVersion{
		Rank:        1,
		Version:     7,
		Description: "create table",
		File:        "007-create_table.cql",
		Hash:        "abc",
		Installed:   installed,
		Duration:    2,
	}, v)

	_, err = migrator.ScanInstalledVersion(map[string]any{"rank": "one"})
	require.ErrorContains(t, err, "ledger column rank")
}
