package cassandra

import (
	"context"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

type (
	// Row is a single result row keyed by column name.
	Row = map[string]any

	// ClientOptions describes how to reach the cluster.
	ClientOptions struct {
		// Hosts are the contact points.
		Hosts []string

		// Port is the native protocol port (usually 9042).
		Port int

		// ProtocolVersion is the native protocol version (1-5).
		ProtocolVersion int

		// Keyspace scopes every session connection. Empty means unscoped.
		Keyspace string

		Username string
		Password string

		// Consistency is applied to every statement issued by the client.
		Consistency gocql.Consistency

		// Timeout bounds connecting and each query. Zero keeps the driver default.
		Timeout time.Duration

		TLS TLSOptions
	}

	// Client executes CQL statements against a cluster. It is safe for
	// concurrent use.
	Client struct {
		opts ClientOptions

		mu      sync.Mutex
		session *gocql.Session
	}
)

// WithKeyspace returns a copy of the options scoped to keyspace.
func (o ClientOptions) WithKeyspace(keyspace string) ClientOptions {
	o.Keyspace = keyspace
	return o
}

// WithConsistency returns a copy of the options using consistency c.
func (o ClientOptions) WithConsistency(c gocql.Consistency) ClientOptions {
	o.Consistency = c
	return o
}

// ClusterConfig builds the gocql cluster configuration for the options.
func (o ClientOptions) ClusterConfig() (*gocql.ClusterConfig, error) {
	if len(o.Hosts) == 0 {
		return nil, errors.New("no contact points configured")
	}

	cluster := gocql.NewCluster(o.Hosts...)
	cluster.Port = o.Port
	cluster.ProtoVersion = o.ProtocolVersion
	cluster.Keyspace = o.Keyspace
	cluster.Consistency = o.Consistency

	if o.Timeout > 0 {
		cluster.Timeout = o.Timeout
		cluster.ConnectTimeout = o.Timeout
	}

	if o.Username != "" || o.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: o.Username,
			Password: o.Password,
		}
	}

	if o.TLS.Enabled() {
		tlsConfig, err := GetTLSConfig(o.TLS)
		if err != nil {
			return nil, err
		}

		cluster.SslOpts = &gocql.SslOptions{
			Config:                 tlsConfig,
			EnableHostVerification: o.TLS.VerifyHost,
		}
	}

	return cluster, nil
}

// NewClient creates a client for opts. No connection is made until the first
// statement is issued.
//
// Example:
//
//	client := cassandra.NewClient(opts.WithKeyspace(""))
//	defer client.Close()
//
//	if err := client.Exec(ctx, "DROP KEYSPACE IF EXISTS my_keyspace"); err != nil {
//		log.Fatal(err)
//	}
func NewClient(opts ClientOptions) *Client {
	return &Client{opts: opts}
}

// Options returns the options the client was created with.
func (c *Client) Options() ClientOptions {
	return c.opts
}

// Query executes stmt and returns all resulting rows.
func (c *Client) Query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	session, err := c.connect()
	if err != nil {
		return nil, err
	}

	rows, err := session.Query(stmt, args...).WithContext(ctx).Iter().SliceMap()
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Exec executes stmt, discarding any result rows.
func (c *Client) Exec(ctx context.Context, stmt string, args ...any) error {
	session, err := c.connect()
	if err != nil {
		return err
	}

	return session.Query(stmt, args...).WithContext(ctx).Exec()
}

// ExecCAS executes a conditional statement (e.g. INSERT ... IF NOT EXISTS) and
// reports whether it was applied.
func (c *Client) ExecCAS(ctx context.Context, stmt string, args ...any) (bool, error) {
	session, err := c.connect()
	if err != nil {
		return false, err
	}

	return session.Query(stmt, args...).WithContext(ctx).MapScanCAS(map[string]any{})
}

// Close closes the underlying session, if one was opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Close()
		c.session = nil
	}

	return nil
}

func (c *Client) connect() (*gocql.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	cluster, err := c.opts.ClusterConfig()
	if err != nil {
		return nil, err
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %v", c.opts.Hosts)
	}

	c.session = session
	return session, nil
}
