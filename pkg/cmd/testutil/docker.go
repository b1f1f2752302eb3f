package testutil

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/pseudomuto/phalanx/pkg/docker"
	"github.com/stretchr/testify/require"
)

// SkipIfNoDocker skips the test if Docker is not available
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping Docker tests in short mode")
	}

	// Check if Docker binary exists
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	// Check if Docker daemon is running
	cmd := exec.CommandContext(t.Context(), "docker", "ps")
	if err := cmd.Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// StartCassandraContainer starts a Cassandra container, registers its cleanup
// and returns the host and port to connect to.
func StartCassandraContainer(t *testing.T) (string, int) {
	t.Helper()

	SkipIfNoDocker(t)

	container := docker.New()
	t.Cleanup(func() {
		_ = container.Stop(context.Background())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	require.NoError(t, container.Start(ctx), "Failed to start Cassandra container")

	host, port, err := container.Endpoint(ctx)
	require.NoError(t, err, "Failed to get container endpoint")

	return host, port
}
