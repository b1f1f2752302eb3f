package engine_test

import (
	"context"
	"testing"

	"github.com/pseudomuto/phalanx/pkg/engine/enginetest"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh cluster", func(t *testing.T) {
		eng := newTestEngine(t, enginetest.NewCluster(), testConfig("good_phase2"))

		report, err := eng.Status(ctx)
		require.NoError(t, err)
		require.False(t, report.KeyspaceExists)
		require.False(t, report.StateTableExists)
		require.Equal(t, -1, report.CurrentVersion)
		require.Len(t, report.Pending, 3)
		require.Equal(t, 0, report.Pending[0].Version)
		require.False(t, report.UpToDate())
	})

	t.Run("pending migrations", func(t *testing.T) {
		cluster := enginetest.NewCluster()
		_, err := newTestEngine(t, cluster, testConfig("good_phase1")).migrate(t)
		require.NoError(t, err)

		report, err := newTestEngine(t, cluster, testConfig("good_phase2")).Status(ctx)
		require.NoError(t, err)
		require.True(t, report.KeyspaceExists)
		require.True(t, report.StateTableExists)
		require.Equal(t, 1, report.CurrentVersion)
		require.Len(t, report.Installed, 1)
		require.Len(t, report.Pending, 1)
		require.Equal(t, 2, report.Pending[0].Version)
		require.Empty(t, report.Mismatches)
		require.False(t, report.UpToDate())
	})

	t.Run("up to date", func(t *testing.T) {
		cluster := enginetest.NewCluster()
		eng := newTestEngine(t, cluster, testConfig("good_phase2"))
		_, err := eng.migrate(t)
		require.NoError(t, err)

		before := len(cluster.Executed(nil))

		report, err := eng.Status(ctx)
		require.NoError(t, err)
		require.True(t, report.UpToDate())
		require.Equal(t, 2, report.CurrentVersion)
		require.Empty(t, report.MissingFiles)

		for _, s := range cluster.Executed(nil)[before:] {
			require.Regexp(t, `^SELECT `, s.CQL)
		}
	})

	t.Run("mismatched and missing files", func(t *testing.T) {
		cluster := enginetest.NewCluster()
		_, err := newTestEngine(t, cluster, testConfig("good_phase2")).migrate(t)
		require.NoError(t, err)
		cluster.UpdateLedger(testKeyspace, testStateTable, 1, func(row map[string]any) { row["hash"] = "sad" })

		// phase 1 has no file for version 2
		report, err := newTestEngine(t, cluster, testConfig("good_phase1")).Status(ctx)
		require.NoError(t, err)
		require.Empty(t, report.Pending)
		require.Equal(t, []int{2}, report.MissingFiles)
		require.Len(t, report.Mismatches, 1)
		require.Equal(t, 1, report.Mismatches[0].Version)
		require.Equal(t, "001-create_some_name_table.cql", report.Mismatches[0].File)
		require.Contains(t, report.Mismatches[0].Reason, "does not match state table hash [sad]")
		require.False(t, report.UpToDate())
	})

	t.Run("ignored hashes", func(t *testing.T) {
		cluster := enginetest.NewCluster()
		_, err := newTestEngine(t, cluster, testConfig("good_phase2")).migrate(t)
		require.NoError(t, err)
		cluster.UpdateLedger(testKeyspace, testStateTable, 1, func(row map[string]any) { row["hash"] = "sad" })

		cfg := testConfig("good_phase2")
		ignore := true
		cfg.Migration.IgnoreHistoricalHashes = &ignore

		report, err := newTestEngine(t, cluster, cfg).Status(ctx)
		require.NoError(t, err)
		require.Empty(t, report.Mismatches)
		require.True(t, report.UpToDate())
	})
}
