package engine_test

import (
	"context"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/pseudomuto/phalanx/pkg/config"
	"github.com/pseudomuto/phalanx/pkg/docker"
	"github.com/pseudomuto/phalanx/pkg/engine"
	"github.com/stretchr/testify/require"
)

func TestMigrateAgainstCassandra(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Docker tests in short mode")
	}

	if err := exec.Command("docker", "ps").Run(); err != nil {
		t.Skip("Docker daemon not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	container := docker.New()
	require.NoError(t, container.Start(ctx))
	defer func() { _ = container.Stop(ctx) }()

	host, port, err := container.Endpoint(ctx)
	require.NoError(t, err)

	newEngine := func(dir string) *engine.Engine {
		cfg := testConfig(dir).Merge(&config.Config{
			Client: config.Client{
				Hosts:       []string{host},
				Port:        port,
				Consistency: "one",
				Timeout:     30 * time.Second,
			},
		})

		eng, err := engine.New(engine.Options{Config: cfg, Logger: slog.Default()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = eng.Close() })
		return eng
	}

	migrate := func(eng *engine.Engine) *engine.Report {
		state, err := eng.DetectMigrationState(ctx)
		require.NoError(t, err)

		files, err := eng.DetectFileMigrations()
		require.NoError(t, err)

		report, err := eng.ExecuteMigration(ctx, state, files)
		require.NoError(t, err)
		return report
	}

	report := migrate(newEngine("good_phase1"))
	require.True(t, report.KeyspaceCreated)
	require.True(t, report.StateTableCreated)
	require.Len(t, report.Installed, 1)

	phase2 := newEngine("good_phase2")
	report = migrate(phase2)
	require.Equal(t, 1, report.VerifiedThrough)
	require.Len(t, report.Installed, 1)
	require.Equal(t, 2, report.Installed[0].Rank)
	require.True(t, report.Installed[0].Recorded)

	status, err := phase2.Status(ctx)
	require.NoError(t, err)
	require.True(t, status.UpToDate())
	require.Len(t, status.Installed, 2)

	require.NoError(t, phase2.DropKeyspace(ctx))

	state, err := phase2.DetectMigrationState(ctx)
	require.NoError(t, err)
	require.False(t, state.HasKeyspace())
}
