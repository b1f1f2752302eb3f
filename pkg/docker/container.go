package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	tccassandra "github.com/testcontainers/testcontainers-go/modules/cassandra"
)

const (
	// DefaultVersion is the Cassandra image tag used when none is configured
	DefaultVersion = "4.1"

	// nativePort is the CQL native protocol port inside the container
	nativePort = "9042/tcp"

	startupTimeout = 5 * time.Minute
)

type (
	// DockerOptions represents options for running Cassandra in Docker
	DockerOptions struct {
		// Version is the Cassandra image tag to run (default: DefaultVersion)
		Version string

		// ConfigFile is an optional cassandra.yaml to use instead of the
		// image's (relative paths will be converted to absolute)
		ConfigFile string
	}

	// Container manages a Cassandra Docker container for migration testing
	Container struct {
		options   DockerOptions
		container *tccassandra.CassandraContainer
	}
)

// New creates a new Docker container with default options
//
// Example:
//
//	container := docker.New()
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func New() *Container {
	return &Container{
		options: DockerOptions{},
	}
}

// NewWithOptions creates a new Docker container with custom options
func NewWithOptions(opts DockerOptions) *Container {
	return &Container{
		options: opts,
	}
}

// Start starts a Cassandra container and waits until it accepts CQL
// connections.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	version := c.options.Version
	if version == "" {
		version = DefaultVersion
	}

	customizers := []testcontainers.ContainerCustomizer{
		testcontainers.WithEnv(map[string]string{
			"HEAP_NEWSIZE":  "128M",
			"MAX_HEAP_SIZE": "1024M",
		}),
	}

	if c.options.ConfigFile != "" {
		absConfigFile, err := filepath.Abs(c.options.ConfigFile)
		if err != nil {
			return errors.Wrapf(err, "failed to get absolute path for ConfigFile: %s", c.options.ConfigFile)
		}

		customizers = append(customizers, tccassandra.WithConfigFile(absConfigFile))
	}

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	container, err := tccassandra.Run(startCtx, fmt.Sprintf("cassandra:%s", version), customizers...)
	if err != nil {
		if container != nil {
			_ = container.Terminate(ctx)
		}
		return errors.Wrap(err, "failed to start Cassandra container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the Cassandra container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop Cassandra container")
	}

	return nil
}

// Endpoint returns the host and mapped port for connecting to the container.
func (c *Container) Endpoint(ctx context.Context) (string, int, error) {
	if c.container == nil {
		return "", 0, errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed to get container host")
	}

	mapped, err := c.container.MappedPort(ctx, nativePort)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed to get container port")
	}

	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid container port: %s", mapped)
	}

	return host, port, nil
}

// ConnectionHost returns the host:port the container listens on.
func (c *Container) ConnectionHost(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	addr, err := c.container.ConnectionHost(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection host")
	}

	return addr, nil
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}
